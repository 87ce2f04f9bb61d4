// Package commands implements the specpreview CLI commands.
package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/specpreview/internal/config"
)

// Global is shared state bound into every command's Run.
type Global struct {
	Logger *slog.Logger
}

// CLI is the root command with global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"specpreview.yaml" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Preview  PreviewCmd  `cmd:"" default:"withargs" help:"Watch a document and serve its live preview state"`
	Validate ValidateCmd `cmd:"" help:"Build documents once and print their diagnostics"`
	Init     InitCmd     `cmd:"" help:"Write an example configuration file"`
}

// AfterApply runs after flag parsing; it sets up logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := config.LogLevelInfo
	if c.Verbose {
		level = config.LogLevelDebug
	}
	slog.SetDefault(newLogger(os.Stderr, level, config.LogFormatText))
	return nil
}

// newLogger builds the process logger for the configured level and format.
func newLogger(w io.Writer, level config.LogLevel, format config.LogFormat) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level.SlogLevel()}
	if format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// applyLogging replaces the default logger with the configured one. The
// --verbose flag always wins over the configured level.
func applyLogging(cfg config.LoggingConfig, verbose bool) *slog.Logger {
	level := cfg.Level
	if verbose {
		level = config.LogLevelDebug
	}
	logger := newLogger(os.Stderr, level, cfg.Format)
	slog.SetDefault(logger)
	return logger
}
