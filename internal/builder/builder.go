// Package builder turns document text into a build outcome: a parsed model
// with warnings on success, or a classified error list on failure.
package builder

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/specpreview/internal/diagnostic"
	"git.home.luguber.info/inful/specpreview/internal/document"
)

// Builder builds a document. Implementations must not panic on any input
// and must always return a Success or a Failure.
type Builder interface {
	Build(ctx context.Context, text string) document.Outcome
}

// Func adapts a plain function to Builder.
type Func func(ctx context.Context, text string) document.Outcome

func (f Func) Build(ctx context.Context, text string) document.Outcome { return f(ctx, text) }

// Local parses with yaml.v3 and checks the configured rules in-process.
type Local struct {
	rules []Rule
}

// NewLocal creates a Local builder. With no rules the default set is used.
func NewLocal(rules ...Rule) *Local {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Local{rules: rules}
}

// Build parses text and runs every rule. Any error-level finding fails the build.
func (b *Local) Build(ctx context.Context, text string) document.Outcome {
	if err := ctx.Err(); err != nil {
		return document.Failure{}
	}

	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return document.Failure{BuildResult: document.BuildResult{
			Errors:   []diagnostic.Diagnostic{diagnostic.Structural{YAMLError: yamlErrorFrom(err)}},
			Warnings: []diagnostic.Diagnostic{},
		}}
	}

	in := &Input{Text: text, Root: document.Root(&doc)}
	var errs, warns []diagnostic.Diagnostic
	for _, r := range b.rules {
		for _, f := range r.Check(in) {
			if f.Code == "" {
				f.Code = r.Name()
			}
			if f.Level == diagnostic.LevelWarning {
				warns = append(warns, f)
			} else {
				f.Level = diagnostic.LevelError
				errs = append(errs, f)
			}
		}
	}
	if warns == nil {
		warns = []diagnostic.Diagnostic{}
	}

	if len(errs) > 0 {
		return document.Failure{BuildResult: document.BuildResult{Errors: errs, Warnings: warns}}
	}
	return document.Success{BuildResult: document.BuildResult{
		Spec:     document.Decode(in.Root),
		Errors:   []diagnostic.Diagnostic{},
		Warnings: warns,
	}}
}

var yamlLineRe = regexp.MustCompile(`^yaml: line (\d+): (.*)$`)

// yamlErrorFrom extracts the line from yaml.v3's "yaml: line N: msg" format.
func yamlErrorFrom(err error) diagnostic.YAMLError {
	msg := err.Error()
	if m := yamlLineRe.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		return diagnostic.YAMLError{Message: m[2], Line: line}
	}
	return diagnostic.YAMLError{Message: strings.TrimPrefix(msg, "yaml: ")}
}
