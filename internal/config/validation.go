package config

import (
	"net"
	"net/url"

	ferrors "git.home.luguber.info/inful/specpreview/internal/foundation/errors"
	"git.home.luguber.info/inful/specpreview/internal/storage"
)

// Validate checks cfg after defaults were applied.
func Validate(cfg *Config) error {
	if _, _, err := net.SplitHostPort(cfg.Server.Addr); err != nil {
		return ferrors.ConfigError("server.addr must be host:port").
			WithContext("addr", cfg.Server.Addr).Build()
	}

	driver, err := storage.ParseDriver(cfg.Storage.Driver)
	if err != nil {
		return err
	}
	switch driver {
	case storage.DriverSQLite:
		if cfg.Storage.Path == "" {
			return ferrors.ConfigError("storage.path is required for the sqlite driver").Build()
		}
	case storage.DriverNATS:
		if _, err := url.Parse(cfg.Storage.NATSURL); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryConfig, "storage.nats_url is not a URL").Build()
		}
	}

	if cfg.Backend.HealthURL != "" {
		u, err := url.Parse(cfg.Backend.HealthURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return ferrors.ConfigError("backend.health_url must be an absolute URL").
				WithContext("url", cfg.Backend.HealthURL).Build()
		}
	}
	if cfg.Backend.HealthInterval < 0 {
		return ferrors.ConfigError("backend.health_interval must be positive").Build()
	}
	if cfg.Watch.Debounce < 0 {
		return ferrors.ConfigError("watch.debounce must not be negative").Build()
	}
	if cfg.History.Max < 0 {
		return ferrors.ConfigError("history.max must not be negative").Build()
	}
	return nil
}
