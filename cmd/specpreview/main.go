package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/specpreview/cmd/specpreview/commands"
	ferrors "git.home.luguber.info/inful/specpreview/internal/foundation/errors"
	"git.home.luguber.info/inful/specpreview/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("specpreview"),
		kong.Description("Live preview pipeline for OpenAPI and Swagger documents."),
		kong.UsageOnError(),
		kong.Vars{"version": version.Version},
	)

	err := parser.Run(&commands.Global{Logger: slog.Default()}, cli)
	if err == nil {
		return
	}
	adapter := ferrors.NewCLIErrorAdapter(cli.Verbose, slog.Default())
	adapter.Log(err)
	fmt.Fprintln(os.Stderr, adapter.FormatError(err))
	os.Exit(adapter.ExitCodeFor(err))
}
