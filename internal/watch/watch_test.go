package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/specpreview/internal/foundation/errors"
	"git.home.luguber.info/inful/specpreview/internal/storage"
)

func TestShouldIgnore(t *testing.T) {
	assert.True(t, ShouldIgnore("/tmp/.hidden.yaml"))
	assert.True(t, ShouldIgnore("/tmp/#api.yaml#"))
	assert.True(t, ShouldIgnore("/tmp/api.yaml.swp"))
	assert.True(t, ShouldIgnore("/tmp/api.yaml~"))
	assert.True(t, ShouldIgnore("/tmp/.DS_Store"))
	assert.False(t, ShouldIgnore("/tmp/api.yaml"))
}

func TestSync(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "api.yaml")
	require.NoError(t, os.WriteFile(path, []byte("swagger: '2.0'\n"), 0o600))

	store := storage.NewMemoryStore()
	w, err := New(path, store, 0)
	require.NoError(t, err)
	require.NoError(t, w.Sync(context.Background()))

	got, err := store.Load(context.Background(), storage.KeyDocument)
	require.NoError(t, err)
	assert.Equal(t, "swagger: '2.0'\n", got)

	missing, err := New(filepath.Join(dir, "missing.yaml"), store, 0)
	require.NoError(t, err)
	err = missing.Sync(context.Background())
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryDocument))
}

func TestRun_DebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "api.yaml")
	require.NoError(t, os.WriteFile(path, []byte("v0"), 0o600))

	store := storage.NewMemoryStore()
	updates := make(chan string, 16)
	stop, err := store.Watch(storage.KeyDocument, func(v string) { updates <- v })
	require.NoError(t, err)
	defer stop()

	w, err := New(path, store, 50*time.Millisecond)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".api.yaml.swp"), []byte("ignored"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("ignored"), 0o600))
	for _, v := range []string{"v1", "v2", "v3"} {
		require.NoError(t, os.WriteFile(path, []byte(v), 0o600))
	}

	select {
	case got := <-updates:
		assert.Equal(t, "v3", got)
	case <-time.After(2 * time.Second):
		t.Fatal("document change was not synced")
	}
	select {
	case extra := <-updates:
		t.Fatalf("unexpected extra sync %q", extra)
	case <-time.After(200 * time.Millisecond):
	}
}
