// Package diagnostic defines the problems a document build can report.
//
// A Diagnostic is either Structural (the text is not valid YAML) or Semantic
// (it parses but breaks a document rule). The variant is fixed when the
// builder creates it, so consumers dispatch with a type switch.
package diagnostic

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Diagnostic is the sealed sum of Structural and Semantic.
type Diagnostic interface {
	isDiagnostic()
	// Summary is a single-line human description.
	Summary() string
	// Position is the 1-based source location, or 0,0 when unknown.
	Position() (line, column int)
}

// YAMLError is the payload of a structural failure.
type YAMLError struct {
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

// Structural reports a document that does not parse as YAML.
type Structural struct {
	YAMLError YAMLError
}

func (Structural) isDiagnostic() {}

func (s Structural) Summary() string {
	if s.YAMLError.Line > 0 {
		return fmt.Sprintf("line %d: %s", s.YAMLError.Line, s.YAMLError.Message)
	}
	return s.YAMLError.Message
}

func (s Structural) Position() (int, int) { return s.YAMLError.Line, s.YAMLError.Column }

func (s Structural) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type      string    `json:"type"`
		YAMLError YAMLError `json:"yamlError"`
	}{"structural", s.YAMLError})
}

// Level is the builder's own grading of a semantic finding.
type Level string

const (
	LevelError   Level = "error"
	LevelWarning Level = "warning"
)

// Semantic reports a rule violation in a document that parsed.
type Semantic struct {
	Code    string
	Message string
	// Path is the key path into the document, e.g. ["paths", "/pets", "get"].
	Path   []string
	Line   int
	Column int
	Level  Level
}

func (Semantic) isDiagnostic() {}

func (s Semantic) Summary() string {
	var b strings.Builder
	if s.Code != "" {
		b.WriteString(s.Code)
		b.WriteString(": ")
	}
	b.WriteString(s.Message)
	if len(s.Path) > 0 {
		b.WriteString(" (at ")
		b.WriteString(strings.Join(s.Path, "."))
		b.WriteString(")")
	}
	return b.String()
}

func (s Semantic) Position() (int, int) { return s.Line, s.Column }

func (s Semantic) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    string   `json:"type"`
		Code    string   `json:"code,omitempty"`
		Message string   `json:"message"`
		Path    []string `json:"path,omitempty"`
		Line    int      `json:"line,omitempty"`
		Column  int      `json:"column,omitempty"`
		Level   Level    `json:"level,omitempty"`
	}{"semantic", s.Code, s.Message, s.Path, s.Line, s.Column, s.Level})
}

// FirstStructural returns the payload when the first diagnostic is structural.
func FirstStructural(ds []Diagnostic) (YAMLError, bool) {
	if len(ds) == 0 {
		return YAMLError{}, false
	}
	if s, ok := ds[0].(Structural); ok {
		return s.YAMLError, true
	}
	return YAMLError{}, false
}
