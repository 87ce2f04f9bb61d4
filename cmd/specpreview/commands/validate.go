package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"git.home.luguber.info/inful/specpreview/internal/builder"
	"git.home.luguber.info/inful/specpreview/internal/diagnostic"
	ferrors "git.home.luguber.info/inful/specpreview/internal/foundation/errors"
	"git.home.luguber.info/inful/specpreview/internal/preview"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow)
	okColor      = color.New(color.FgGreen, color.Bold)
	fileColor    = color.New(color.Bold)
)

// ValidateCmd builds each document once with the local builder.
type ValidateCmd struct {
	Files   []string `arg:"" type:"existingfile" help:"Documents to validate."`
	NoColor bool     `name:"no-color" help:"Disable colored output."`
}

func (v *ValidateCmd) Run(_ *Global, _ *CLI) error {
	if v.NoColor {
		color.NoColor = true
	}
	return RunValidate(context.Background(), os.Stdout, v.Files)
}

// RunValidate prints the diagnostics of every file to w. It returns a
// document error when any file fails to build.
func RunValidate(ctx context.Context, w io.Writer, files []string) error {
	b := builder.NewLocal()
	failed := 0
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryDocument, "read document").
				WithContext("path", path).Build()
		}
		c := preview.Classify(b.Build(ctx, string(data)))
		printClassification(w, path, c)
		if c.Status.IsError() {
			failed++
		}
	}
	if failed > 0 {
		return ferrors.DocumentError("documents have errors").
			WithContext("failed", failed).
			WithContext("total", len(files)).Build()
	}
	return nil
}

func printClassification(w io.Writer, path string, c preview.Classification) {
	fileColor.Fprint(w, path)
	fmt.Fprint(w, ": ")
	switch {
	case c.Status == preview.StatusSuccess:
		okColor.Fprint(w, "ok")
	default:
		errorColor.Fprint(w, c.Status)
	}
	fmt.Fprintln(w)

	if c.YAML != nil {
		printDiagnostic(w, errorColor, "error", diagnostic.Structural{YAMLError: *c.YAML})
	}
	for _, d := range c.Errors {
		printDiagnostic(w, errorColor, "error", d)
	}
	for _, d := range c.Warnings {
		printDiagnostic(w, warningColor, "warning", d)
	}
}

func printDiagnostic(w io.Writer, c *color.Color, label string, d diagnostic.Diagnostic) {
	line, col := d.Position()
	fmt.Fprint(w, "  ")
	c.Fprint(w, label)
	if line > 0 {
		fmt.Fprintf(w, " %d:%d", line, col)
	}
	fmt.Fprintf(w, " %s\n", d.Summary())
}

