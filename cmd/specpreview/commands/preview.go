package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	prom "github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/specpreview/internal/builder"
	"git.home.luguber.info/inful/specpreview/internal/config"
	"git.home.luguber.info/inful/specpreview/internal/editor"
	"git.home.luguber.info/inful/specpreview/internal/eventstore"
	"git.home.luguber.info/inful/specpreview/internal/events"
	ferrors "git.home.luguber.info/inful/specpreview/internal/foundation/errors"
	"git.home.luguber.info/inful/specpreview/internal/health"
	"git.home.luguber.info/inful/specpreview/internal/logfields"
	"git.home.luguber.info/inful/specpreview/internal/metrics"
	"git.home.luguber.info/inful/specpreview/internal/preferences"
	"git.home.luguber.info/inful/specpreview/internal/preview"
	"git.home.luguber.info/inful/specpreview/internal/server"
	"git.home.luguber.info/inful/specpreview/internal/storage"
	"git.home.luguber.info/inful/specpreview/internal/tags"
	"git.home.luguber.info/inful/specpreview/internal/watch"
)

// PreviewCmd runs the preview pipeline and its HTTP surface until interrupted.
type PreviewCmd struct {
	Document string `arg:"" optional:"" type:"path" help:"Document to watch (overrides the configured document)."`
	Addr     string `name:"addr" help:"HTTP listen address (overrides server.addr)."`
}

func (p *PreviewCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadOrDefault(root.Config)
	if err != nil {
		return err
	}
	if p.Document != "" {
		cfg.Document = p.Document
	}
	if p.Addr != "" {
		cfg.Server.Addr = p.Addr
		if err := config.Validate(cfg); err != nil {
			return err
		}
	}
	applyLogging(cfg.Logging, root.Verbose)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return RunPreview(ctx, cfg)
}

// loadOrDefault loads path, falling back to defaults when it does not exist.
func loadOrDefault(path string) (*config.Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		slog.Debug("No configuration file, using defaults", slog.String("path", path))
		return config.Default(), nil
	}
	return config.Load(path)
}

// RunPreview wires every component from cfg and serves until ctx is canceled.
func RunPreview(ctx context.Context, cfg *config.Config) error {
	opts, err := cfg.StorageOptions()
	if err != nil {
		return err
	}
	if opts.Driver == storage.DriverSQLite && opts.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(opts.Path), 0o750); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryStorage, "create storage directory").
				WithContext("path", opts.Path).Build()
		}
	}
	store, err := storage.Open(opts)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			slog.Warn("Failed to close slot store", logfields.Error(cerr))
		}
	}()

	bus := events.NewBus()
	// Deferred first so it runs last, after g.Wait and the other publishers' Close.
	defer bus.Close()

	var (
		registry *prom.Registry
		recorder metrics.Recorder = metrics.NoopRecorder{}
	)
	if cfg.Metrics.Enabled {
		registry = metrics.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(registry)
	}

	prefs, err := preferences.Load(ctx, store, preferences.Values{LiveRender: cfg.LiveRender()})
	if err != nil {
		return err
	}
	defer prefs.Close()

	checker, poller, err := newHealthChecker(cfg.Backend, recorder)
	if err != nil {
		return err
	}

	surface := editor.NewSurface(bus)
	tagRegistry := tags.NewRegistry()
	ctrl, err := preview.NewController(preview.Deps{
		Store:   store,
		Builder: builder.NewLocal(),
		Health:  checker,
		Editor:  surface,
		Tags:    tagRegistry,
		Prefs:   prefs,
	}, preview.WithBus(bus), preview.WithRecorder(recorder))
	if err != nil {
		return err
	}

	history, historyStore, err := openHistory(ctx, cfg.History)
	if err != nil {
		return err
	}
	var (
		historyRec    *eventstore.Recorder
		historyEvents <-chan events.Event
	)
	if historyStore != nil {
		defer func() { _ = historyStore.Close() }()
		// Subscribed before any goroutine can publish so the first build is kept.
		historyRec = eventstore.NewRecorder(historyStore, history)
		var unsubscribe func()
		historyEvents, unsubscribe = historyRec.Subscribe(bus)
		defer unsubscribe()
	}

	srv := server.New(cfg.Server.Addr, server.Deps{
		Controller:  ctrl,
		Store:       store,
		Editor:      surface,
		Tags:        tagRegistry,
		Preferences: prefs,
		Health:      checker,
		Bus:         bus,
		History:     history,
		Metrics:     registry,
	})

	var watcher *watch.Watcher
	if cfg.Document != "" {
		if watcher, err = watch.New(cfg.Document, store, cfg.Watch.Debounce); err != nil {
			return err
		}
		if err := watcher.Sync(ctx); err != nil {
			slog.Warn("Initial document read failed", logfields.Document(cfg.Document), logfields.Error(err))
		}
	}

	if poller != nil {
		if err := poller.Start(ctx); err != nil {
			return err
		}
		defer func() { _ = poller.Stop() }()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ctrl.Run(gctx) })
	g.Go(func() error { return srv.Run(gctx) })
	if historyRec != nil {
		g.Go(func() error { return historyRec.Run(gctx, historyEvents) })
	}
	if watcher != nil {
		g.Go(func() error { return watcher.Run(gctx) })
	}

	g.Go(func() error {
		if err := ctrl.LoadLatest(gctx); err != nil {
			if storage.IsNotFound(err) {
				slog.Info("No stored document yet; waiting for changes")
				return nil
			}
			if gctx.Err() != nil {
				return nil
			}
			slog.Warn("Initial build could not be scheduled", logfields.Error(err))
		}
		return nil
	})

	slog.Info("Preview running",
		logfields.Document(cfg.Document),
		slog.String("addr", cfg.Server.Addr),
		logfields.Driver(string(opts.Driver)),
		slog.Bool("live_render", prefs.LiveRender()))
	fmt.Printf("Preview API: http://%s/api/status\n", cfg.Server.Addr)

	return g.Wait()
}

// newHealthChecker returns a poller when a health URL is configured, or an
// always-healthy checker otherwise.
func newHealthChecker(cfg config.BackendConfig, recorder metrics.Recorder) (health.Checker, *health.Poller, error) {
	if cfg.HealthURL == "" {
		recorder.SetBackendHealthy(true)
		return health.NewStatic(true), nil, nil
	}
	poller, err := health.NewPoller(cfg.HealthURL, cfg.HealthInterval)
	if err != nil {
		return nil, nil, err
	}
	recorder.SetBackendHealthy(true)
	poller.OnChange(recorder.SetBackendHealthy)
	return poller, poller, nil
}

// openHistory opens the build history store and rebuilds its projection.
// Both results are nil when history is disabled.
func openHistory(ctx context.Context, cfg config.HistoryConfig) (*eventstore.History, *eventstore.SQLiteStore, error) {
	if !cfg.Enabled {
		return nil, nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o750); err != nil {
		return nil, nil, ferrors.WrapError(err, ferrors.CategoryHistory, "create history directory").
			WithContext("path", cfg.Path).Build()
	}
	store, err := eventstore.NewSQLiteStore(cfg.Path)
	if err != nil {
		return nil, nil, err
	}
	history := eventstore.NewHistory(store, cfg.Max)
	if err := history.Rebuild(ctx); err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	return history, store, nil
}
