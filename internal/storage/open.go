package storage

import (
	"log/slog"

	ferrors "git.home.luguber.info/inful/specpreview/internal/foundation/errors"
	"git.home.luguber.info/inful/specpreview/internal/foundation/normalization"
	"git.home.luguber.info/inful/specpreview/internal/logfields"
)

// Driver selects a Store implementation.
type Driver string

const (
	DriverMemory Driver = "memory"
	DriverSQLite Driver = "sqlite"
	DriverNATS   Driver = "nats"
)

var driverNormalizer = normalization.NewNormalizer(map[string]Driver{
	"memory": DriverMemory,
	"sqlite": DriverSQLite,
	"nats":   DriverNATS,
}, DriverMemory)

// ParseDriver normalizes a configured driver name; empty means memory.
func ParseDriver(raw string) (Driver, error) {
	d, err := driverNormalizer.NormalizeWithError(raw)
	if err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryConfig, "unknown storage driver").Build()
	}
	return d, nil
}

// Options configures Open.
type Options struct {
	Driver  Driver
	Path    string // sqlite database file
	NATSURL string
	Bucket  string
}

// Open creates the Store selected by opts.Driver.
func Open(opts Options) (Store, error) {
	slog.Debug("Opening slot store", logfields.Driver(string(opts.Driver)))
	switch opts.Driver {
	case DriverMemory, "":
		return NewMemoryStore(), nil
	case DriverSQLite:
		if opts.Path == "" {
			return nil, ferrors.ConfigError("sqlite storage requires a path").Build()
		}
		return NewSQLiteStore(opts.Path)
	case DriverNATS:
		if opts.NATSURL == "" || opts.Bucket == "" {
			return nil, ferrors.ConfigError("nats storage requires nats_url and bucket").Build()
		}
		return NewNATSStore(opts.NATSURL, opts.Bucket)
	default:
		return nil, ferrors.ConfigError("unknown storage driver").WithContext("driver", string(opts.Driver)).Build()
	}
}
