// Package editor is the editing surface the preview pipeline annotates.
package editor

import (
	"log/slog"
	"slices"
	"sync"
	"time"

	"git.home.luguber.info/inful/specpreview/internal/diagnostic"
	"git.home.luguber.info/inful/specpreview/internal/events"
)

// Kind is the severity an annotation is shown with.
type Kind string

const (
	KindError   Kind = "error"
	KindWarning Kind = "warning"
)

// Editor is what the pipeline needs from an editing surface.
type Editor interface {
	ClearAnnotation()
	// AnnotateSwaggerError marks one diagnostic. An empty kind means KindError.
	AnnotateSwaggerError(d diagnostic.Diagnostic, kind Kind)
	// AnnotateYAMLErrors marks a structural parse failure.
	AnnotateYAMLErrors(e diagnostic.YAMLError)
	GotoLine(line int)
	Focus()
}

// Committer is implemented by editors that batch annotation changes. The
// pipeline calls Commit after each clear-then-apply round.
type Committer interface {
	Commit()
}

// Annotation is one marker in the editor gutter.
type Annotation struct {
	Kind    Kind   `json:"kind"`
	Source  string `json:"source"` // "yaml" or "swagger"
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

// State is a point-in-time copy of the surface.
type State struct {
	Revision    uint64       `json:"revision"`
	Annotations []Annotation `json:"annotations"`
	Line        int          `json:"line"`
	Focused     bool         `json:"focused"`
}

// Surface is a headless Editor. It keeps annotations and cursor in memory
// and announces changes on the event bus so remote views can refresh.
//
// Clear and annotate calls stage a new set; State only ever shows the set
// swapped in by the last Commit, so readers never see a partial dispatch.
type Surface struct {
	mu          sync.RWMutex
	annotations []Annotation
	pending     []Annotation
	staging     bool
	revision    uint64
	line        int
	focused     bool
	bus         *events.Bus
}

// NewSurface creates a Surface. bus may be nil.
func NewSurface(bus *events.Bus) *Surface {
	return &Surface{bus: bus}
}

func (s *Surface) ClearAnnotation() {
	s.mu.Lock()
	s.pending = nil
	s.staging = true
	s.mu.Unlock()
}

func (s *Surface) AnnotateSwaggerError(d diagnostic.Diagnostic, kind Kind) {
	if d == nil {
		return
	}
	if kind == "" {
		kind = KindError
	}
	a := Annotation{Kind: kind, Source: "swagger", Message: d.Summary()}
	a.Line, a.Column = d.Position()
	switch v := d.(type) {
	case diagnostic.Semantic:
		a.Code = v.Code
		a.Message = v.Message
	case diagnostic.Structural:
		a.Source = "yaml"
		a.Message = v.YAMLError.Message
	}
	s.add(a)
}

func (s *Surface) AnnotateYAMLErrors(e diagnostic.YAMLError) {
	s.add(Annotation{Kind: KindError, Source: "yaml", Message: e.Message, Line: e.Line, Column: e.Column})
}

// add stages a. Without a preceding clear it extends the committed set.
func (s *Surface) add(a Annotation) {
	s.mu.Lock()
	if !s.staging {
		s.pending = slices.Clone(s.annotations)
		s.staging = true
	}
	s.pending = append(s.pending, a)
	s.mu.Unlock()
}

// Commit publishes the staged set in one step, bumps the revision and
// announces it.
func (s *Surface) Commit() {
	s.mu.Lock()
	if s.staging {
		s.annotations = s.pending
		s.pending = nil
		s.staging = false
	}
	s.revision++
	evt := events.AnnotationsChanged{Revision: s.revision, At: time.Now()}
	for _, a := range s.annotations {
		switch {
		case a.Source == "yaml":
			evt.YAML = true
			evt.Errors++
		case a.Kind == KindWarning:
			evt.Warnings++
		default:
			evt.Errors++
		}
	}
	s.mu.Unlock()

	if missed := s.bus.Offer(evt); missed > 0 {
		slog.Debug("Annotation update not delivered to all observers", slog.Int("missed", missed))
	}
}

func (s *Surface) GotoLine(line int) {
	s.mu.Lock()
	s.line = line
	evt := events.CursorMoved{Line: line, Focused: s.focused, At: time.Now()}
	s.mu.Unlock()
	s.bus.Offer(evt)
}

func (s *Surface) Focus() {
	s.mu.Lock()
	s.focused = true
	evt := events.CursorMoved{Line: s.line, Focused: true, At: time.Now()}
	s.mu.Unlock()
	s.bus.Offer(evt)
}

// State returns a copy of the surface as of the last Commit.
func (s *Surface) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{
		Revision:    s.revision,
		Annotations: slices.Clone(s.annotations),
		Line:        s.line,
		Focused:     s.focused,
	}
}
