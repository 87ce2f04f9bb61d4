// Package health reports whether the build backend is usable.
package health

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"

	ferrors "git.home.luguber.info/inful/specpreview/internal/foundation/errors"
	"git.home.luguber.info/inful/specpreview/internal/logfields"
)

// Checker is queried synchronously before every build.
type Checker interface {
	IsHealthy() bool
}

// Static is a Checker whose answer is set directly. The zero value is unhealthy.
type Static struct{ ok atomic.Bool }

// NewStatic returns a Static reporting healthy.
func NewStatic(healthy bool) *Static {
	s := &Static{}
	s.ok.Store(healthy)
	return s
}

func (s *Static) IsHealthy() bool  { return s.ok.Load() }
func (s *Static) Set(healthy bool) { s.ok.Store(healthy) }

// Poller probes an HTTP endpoint on a fixed interval and caches the result.
// It reports healthy until the first probe completes.
type Poller struct {
	url      string
	interval time.Duration
	client   *http.Client

	ok        atomic.Bool
	mu        sync.Mutex
	lastCheck time.Time
	lastErr   error

	scheduler gocron.Scheduler
	onChange  func(healthy bool)
}

// NewPoller creates a Poller for url. A 2xx response counts as healthy.
func NewPoller(url string, interval time.Duration) (*Poller, error) {
	if url == "" {
		return nil, ferrors.ConfigError("health url is required").Build()
	}
	if interval <= 0 {
		return nil, ferrors.ConfigError("health interval must be positive").
			WithContext("interval", interval.String()).Build()
	}
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	p := &Poller{
		url:       url,
		interval:  interval,
		client:    &http.Client{Timeout: interval},
		scheduler: s,
	}
	p.ok.Store(true)
	return p, nil
}

// OnChange registers fn to be called when the health state flips.
func (p *Poller) OnChange(fn func(healthy bool)) { p.onChange = fn }

func (p *Poller) IsHealthy() bool { return p.ok.Load() }

// Start schedules the probe, running it once immediately.
func (p *Poller) Start(ctx context.Context) error {
	_, err := p.scheduler.NewJob(
		gocron.DurationJob(p.interval),
		gocron.NewTask(func() { p.Probe(ctx) }),
		gocron.WithName("backend-health"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("failed to create health probe job: %w", err)
	}
	slog.Info("Starting backend health poller", slog.String("url", p.url), slog.Duration("interval", p.interval))
	p.scheduler.Start()
	return nil
}

// Stop shuts the scheduler down.
func (p *Poller) Stop() error {
	slog.Info("Stopping backend health poller")
	return p.scheduler.Shutdown()
}

// Probe performs one check and updates the cached state.
func (p *Poller) Probe(ctx context.Context) bool {
	err := p.get(ctx)
	healthy := err == nil

	p.mu.Lock()
	p.lastCheck = time.Now()
	p.lastErr = err
	p.mu.Unlock()

	if prev := p.ok.Swap(healthy); prev != healthy {
		if healthy {
			slog.Info("Build backend is healthy again", slog.String("url", p.url))
		} else {
			slog.Warn("Build backend is unhealthy", slog.String("url", p.url), logfields.Error(err))
		}
		if p.onChange != nil {
			p.onChange(healthy)
		}
	}
	return healthy
}

func (p *Poller) get(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryConfig, "invalid health url").Build()
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryTransport, "health probe failed").Retryable().Build()
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return ferrors.TransportError("health probe returned non-2xx").
			WithContext("status", resp.StatusCode).Build()
	}
	return nil
}

// Last returns when the backend was last probed and the probe error, if any.
func (p *Poller) Last() (time.Time, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastCheck, p.lastErr
}
