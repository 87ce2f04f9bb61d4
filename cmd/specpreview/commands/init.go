package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/specpreview/internal/config"
	ferrors "git.home.luguber.info/inful/specpreview/internal/foundation/errors"
)

// InitCmd writes a starter specpreview.yaml. The file follows ./openapi.yaml,
// keeps slots and build history in sqlite under ./.specpreview and exposes
// Prometheus metrics.
type InitCmd struct {
	Force  bool   `help:"Replace an existing specpreview.yaml."`
	Output string `short:"o" name:"output" type:"path" help:"Directory to write specpreview.yaml into (created if missing)."`
}

func (i *InitCmd) Run(_ *Global, root *CLI) error {
	path := root.Config
	if i.Output != "" {
		if err := os.MkdirAll(i.Output, 0o750); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryConfig, "create output directory").
				WithContext("path", i.Output).Build()
		}
		path = filepath.Join(i.Output, "specpreview.yaml")
	}
	return RunInit(path, i.Force)
}

// RunInit writes the starter configuration to configPath and prints what it
// points the preview at.
func RunInit(configPath string, force bool) error {
	return runInit(os.Stdout, configPath, force)
}

func runInit(w io.Writer, configPath string, force bool) error {
	if err := config.Init(configPath, force); err != nil {
		return err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(w, "Wrote %s\n", configPath)
	_, _ = fmt.Fprintf(w, "  document:  %s\n", cfg.Document)
	_, _ = fmt.Fprintf(w, "  storage:   %s %s\n", cfg.Storage.Driver, cfg.Storage.Path)
	if cfg.History.Enabled {
		_, _ = fmt.Fprintf(w, "  history:   %s (last %d builds)\n", cfg.History.Path, cfg.History.Max)
	}
	_, _ = fmt.Fprintf(w, "  api:       http://%s/api/status\n", cfg.Server.Addr)
	if cfg.Metrics.Enabled {
		_, _ = fmt.Fprintf(w, "  metrics:   http://%s/metrics\n", cfg.Server.Addr)
	}
	return nil
}
