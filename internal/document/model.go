package document

import "git.home.luguber.info/inful/specpreview/internal/diagnostic"

// Operation is one entry under a path item. Entries that are not HTTP
// operations (parameters, x-* extensions) are kept with only Name and Line set
// so callers see the path item exactly as written.
type Operation struct {
	Name        string   `json:"name"`
	Tags        []string `json:"tags,omitempty"`
	Summary     string   `json:"summary,omitempty"`
	OperationID string   `json:"operationId,omitempty"`
	Responses   []string `json:"responses,omitempty"`
	Line        int      `json:"line,omitempty"`
}

// PathItem is a named entry of the paths section.
type PathItem struct {
	Name    string      `json:"name"`
	Entries []Operation `json:"entries"`
	Line    int         `json:"line,omitempty"`
}

// TagDef is a declared tag from the top-level tags list.
type TagDef struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Spec is the parsed model of a successfully built document.
type Spec struct {
	// Version is the value of the swagger or openapi key.
	Version    string     `json:"version"`
	Title      string     `json:"title,omitempty"`
	APIVersion string     `json:"apiVersion,omitempty"`
	Tags       []TagDef   `json:"tags,omitempty"`
	Paths      []PathItem `json:"paths"`
	// Definitions is the decoded definitions (or components.schemas) section, or nil.
	Definitions any `json:"definitions,omitempty"`
}

// OperationTags returns every tag referenced by an operation, in document order, with duplicates.
func (s *Spec) OperationTags() []string {
	if s == nil {
		return nil
	}
	var out []string
	for _, p := range s.Paths {
		for _, op := range p.Entries {
			out = append(out, op.Tags...)
		}
	}
	return out
}

// BuildResult is what one build attempt produces. Spec is nil on failure.
// Errors is nil when the builder produced no usable error sequence.
type BuildResult struct {
	Spec     *Spec
	Errors   []diagnostic.Diagnostic
	Warnings []diagnostic.Diagnostic
}

// Outcome is the sealed union of Success and Failure. Both carry the same
// BuildResult shape; the variant records which channel delivered it.
type Outcome interface {
	Result() BuildResult
	isOutcome()
}

// Success is a build that produced a usable model.
type Success struct{ BuildResult }

// Failure is a build that did not.
type Failure struct{ BuildResult }

func (s Success) Result() BuildResult { return s.BuildResult }
func (f Failure) Result() BuildResult { return f.BuildResult }
func (Success) isOutcome()            {}
func (Failure) isOutcome()            {}

// ChannelName names the variant for logs and metrics.
func ChannelName(o Outcome) string {
	switch o.(type) {
	case Success:
		return "success"
	case Failure:
		return "failure"
	default:
		return "unknown"
	}
}
