package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/specpreview/internal/foundation/errors"
)

// exerciseStore runs the slot contract every in-process Store must satisfy.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Load(ctx, KeyProgress)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	var seen []string
	cancel, err := s.Watch(KeyDocument, func(v string) { seen = append(seen, v) })
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx, KeyDocument, "swagger: '2.0'"))
	require.NoError(t, s.Save(ctx, KeyDocument, "swagger: '2.0'"))
	require.NoError(t, s.Save(ctx, KeyDocument, "openapi: 3.0.0"))
	require.NoError(t, s.Save(ctx, KeyProgress, "success-process"))

	assert.Equal(t, []string{"swagger: '2.0'", "openapi: 3.0.0"}, seen, "unchanged writes and other keys are not delivered")

	got, err := s.Load(ctx, KeyDocument)
	require.NoError(t, err)
	assert.Equal(t, "openapi: 3.0.0", got)

	cancel()
	cancel()
	require.NoError(t, s.Save(ctx, KeyDocument, "changed again"))
	assert.Len(t, seen, 2, "no delivery after unsubscribe")

	require.NoError(t, s.Save(ctx, KeyProgress, "error-yaml"))
	got, err = s.Load(ctx, KeyProgress)
	require.NoError(t, err)
	assert.Equal(t, "error-yaml", got, "last write wins")
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	defer func() { _ = s.Close() }()
	exerciseStore(t, s)
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	exerciseStore(t, s)
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	path := t.TempDir() + "/slots.db"
	ctx := context.Background()

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, KeyProgress, "error-swagger"))
	require.NoError(t, s.Close())

	s, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	got, err := s.Load(ctx, KeyProgress)
	require.NoError(t, err)
	assert.Equal(t, "error-swagger", got)
}

func TestOpen(t *testing.T) {
	s, err := Open(Options{})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	_, err = Open(Options{Driver: DriverSQLite})
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))

	_, err = Open(Options{Driver: DriverNATS, NATSURL: "nats://localhost:4222"})
	require.Error(t, err)

	d, err := ParseDriver(" SQLite ")
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, d)
	_, err = ParseDriver("redis")
	assert.Error(t, err)
}
