package config

import (
	"time"

	ferrors "git.home.luguber.info/inful/specpreview/internal/foundation/errors"
)

const (
	defaultAddr           = "127.0.0.1:8090"
	defaultHealthInterval = 5 * time.Second
	defaultDebounce       = 300 * time.Millisecond
	defaultHistoryMax     = 100
	defaultBucket         = "specpreview"
	defaultNATSURL        = "nats://127.0.0.1:4222"
)

// DefaultApplier fills unset fields of one configuration domain.
type DefaultApplier interface {
	Domain() string
	ApplyDefaults(cfg *Config) error
}

// CompositeDefaultApplier applies defaults across all configuration domains.
type CompositeDefaultApplier struct {
	appliers []DefaultApplier
}

func NewDefaultApplier() *CompositeDefaultApplier {
	return &CompositeDefaultApplier{appliers: []DefaultApplier{
		&ServerDefaultApplier{},
		&StorageDefaultApplier{},
		&BackendDefaultApplier{},
		&HistoryDefaultApplier{},
		&WatchDefaultApplier{},
		&LoggingDefaultApplier{},
	}}
}

func (c *CompositeDefaultApplier) ApplyDefaults(cfg *Config) error {
	for _, a := range c.appliers {
		if err := a.ApplyDefaults(cfg); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryConfig, "apply defaults").
				WithContext("domain", a.Domain()).Build()
		}
	}
	return nil
}

type ServerDefaultApplier struct{}

func (ServerDefaultApplier) Domain() string { return "server" }

func (ServerDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultAddr
	}
	return nil
}

// StorageDefaultApplier defaults to the in-memory driver; driver names are
// validated later so a typo is reported rather than silently replaced.
type StorageDefaultApplier struct{}

func (StorageDefaultApplier) Domain() string { return "storage" }

func (StorageDefaultApplier) ApplyDefaults(cfg *Config) error {
	s := &cfg.Storage
	if s.Driver == "" {
		s.Driver = "memory"
	}
	if s.Bucket == "" {
		s.Bucket = defaultBucket
	}
	if s.NATSURL == "" {
		s.NATSURL = defaultNATSURL
	}
	return nil
}

type BackendDefaultApplier struct{}

func (BackendDefaultApplier) Domain() string { return "backend" }

func (BackendDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Backend.HealthInterval == 0 {
		cfg.Backend.HealthInterval = defaultHealthInterval
	}
	return nil
}

type HistoryDefaultApplier struct{}

func (HistoryDefaultApplier) Domain() string { return "history" }

func (HistoryDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.History.Max == 0 {
		cfg.History.Max = defaultHistoryMax
	}
	if cfg.History.Enabled && cfg.History.Path == "" {
		cfg.History.Path = ".specpreview/history.db"
	}
	return nil
}

type WatchDefaultApplier struct{}

func (WatchDefaultApplier) Domain() string { return "watch" }

func (WatchDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = defaultDebounce
	}
	return nil
}

type LoggingDefaultApplier struct{}

func (LoggingDefaultApplier) Domain() string { return "logging" }

func (LoggingDefaultApplier) ApplyDefaults(cfg *Config) error {
	cfg.Logging.Level = NormalizeLogLevel(string(cfg.Logging.Level))
	cfg.Logging.Format = NormalizeLogFormat(string(cfg.Logging.Format))
	return nil
}
