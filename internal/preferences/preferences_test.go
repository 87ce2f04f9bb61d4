package preferences

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/specpreview/internal/storage"
)

func TestLoad_DefaultsWhenSlotMissing(t *testing.T) {
	p, err := Load(context.Background(), storage.NewMemoryStore(), Defaults())
	require.NoError(t, err)
	defer p.Close()
	assert.True(t, p.LiveRender())
}

func TestLoad_ReadsExistingSlot(t *testing.T) {
	ctx := context.Background()
	s := storage.NewMemoryStore()
	require.NoError(t, s.Save(ctx, storage.KeyPreferences, `{"liveRender":false}`))

	p, err := Load(ctx, s, Defaults())
	require.NoError(t, err)
	defer p.Close()
	assert.False(t, p.LiveRender())
}

func TestSetLiveRender_PersistsAndFollowsExternalWrites(t *testing.T) {
	ctx := context.Background()
	s := storage.NewMemoryStore()
	p, err := Load(ctx, s, Defaults())
	require.NoError(t, err)
	defer p.Close()

	require.NoError(t, p.SetLiveRender(ctx, false))
	assert.False(t, p.LiveRender())
	raw, err := s.Load(ctx, storage.KeyPreferences)
	require.NoError(t, err)
	assert.JSONEq(t, `{"liveRender":false}`, raw)

	require.NoError(t, s.Save(ctx, storage.KeyPreferences, `{"liveRender":true}`))
	assert.True(t, p.LiveRender())

	require.NoError(t, s.Save(ctx, storage.KeyPreferences, `not json`))
	assert.True(t, p.LiveRender(), "malformed writes are ignored")
}
