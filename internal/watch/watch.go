// Package watch mirrors a document file on disk into the "yaml" slot.
package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	ferrors "git.home.luguber.info/inful/specpreview/internal/foundation/errors"
	"git.home.luguber.info/inful/specpreview/internal/logfields"
	"git.home.luguber.info/inful/specpreview/internal/storage"
)

// DefaultDebounce is used when no debounce is configured.
const DefaultDebounce = 300 * time.Millisecond

// Watcher copies the document into the store whenever the file settles.
// It watches the parent directory so editors that save by rename are seen.
type Watcher struct {
	path     string
	store    storage.Store
	debounce time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

// New creates a Watcher for the document at path.
func New(path string, store storage.Store, debounce time.Duration) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryDocument, "resolve document path").
			WithContext("path", path).Build()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{path: abs, store: store, debounce: debounce}, nil
}

// Path is the absolute path of the watched document.
func (w *Watcher) Path() string { return w.path }

// Sync reads the document and saves it to the slot.
func (w *Watcher) Sync(ctx context.Context) error {
	data, err := os.ReadFile(w.path)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryDocument, "read document").
			WithContext("path", w.path).Build()
	}
	if err := w.store.Save(ctx, storage.KeyDocument, string(data)); err != nil {
		return err
	}
	slog.Debug("Document synced to slot", logfields.Document(w.path), slog.Int("bytes", len(data)))
	return nil
}

// Run watches until ctx is canceled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryRuntime, "create file watcher").Build()
	}
	defer func() { _ = fw.Close() }()

	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryDocument, "watch document directory").
			WithContext("dir", dir).Build()
	}
	slog.Info("Watching document", logfields.Document(w.path))

	defer w.stopTimer()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if w.relevant(ev) {
				slog.Debug("Document change detected", logfields.Document(ev.Name), slog.String("op", ev.Op.String()))
				w.trigger(ctx)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("File watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ShouldIgnore(ev.Name) {
		return false
	}
	if filepath.Clean(ev.Name) != w.path {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}

// trigger restarts the quiet-period timer.
func (w *Watcher) trigger(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		if ctx.Err() != nil {
			return
		}
		if err := w.Sync(ctx); err != nil {
			// A rename-save can leave the file briefly missing; the next event syncs it.
			slog.Warn("Failed to sync document", logfields.Document(w.path), logfields.Error(err))
		}
	})
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}

// ShouldIgnore reports whether path is an editor temp, swap or hidden file.
func ShouldIgnore(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return true
	}
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}
	return base == "Thumbs.db"
}
