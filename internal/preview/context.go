package preview

import (
	"slices"
	"time"

	"git.home.luguber.info/inful/specpreview/internal/diagnostic"
	"git.home.luguber.info/inful/specpreview/internal/document"
)

// PipelineContext is the mutable state of one pipeline. The Controller loop
// owns it; gates and handlers receive it by pointer only while the loop runs them.
type PipelineContext struct {
	Status StatusCode
	Dirty  bool
	// Text is the latest document text seen, whether or not it was built.
	Text string

	// Model view of the most recently completed build.
	Spec     *document.Spec
	Errors   []diagnostic.Diagnostic
	Warnings []diagnostic.Diagnostic

	LastBuildID     string
	LastSeq         uint64
	LastCompletedAt time.Time
	Inflight        int
}

// HasPriorResult reports whether a completed build produced a model.
func (pc *PipelineContext) HasPriorResult() bool { return pc.Spec != nil }

// Snapshot is an immutable copy of the pipeline state for readers outside the loop.
type Snapshot struct {
	Status          StatusCode              `json:"status"`
	Dirty           bool                    `json:"dirty"`
	HasResult       bool                    `json:"hasResult"`
	Spec            *document.Spec          `json:"-"`
	Errors          []diagnostic.Diagnostic `json:"errors"`
	Warnings        []diagnostic.Diagnostic `json:"warnings"`
	Text            string                  `json:"-"`
	LastBuildID     string                  `json:"lastBuildId,omitempty"`
	LastSeq         uint64                  `json:"lastSeq"`
	LastCompletedAt time.Time               `json:"lastCompletedAt,omitzero"`
	Inflight        int                     `json:"inflight"`
	SelectedTags    []string                `json:"selectedTags"`
}

// snapshot copies pc. The Spec pointer is shared: a built model is never modified.
func (pc *PipelineContext) snapshot(selected []string) Snapshot {
	return Snapshot{
		Status:          pc.Status,
		Dirty:           pc.Dirty,
		HasResult:       pc.HasPriorResult(),
		Spec:            pc.Spec,
		Errors:          slices.Clone(pc.Errors),
		Warnings:        slices.Clone(pc.Warnings),
		Text:            pc.Text,
		LastBuildID:     pc.LastBuildID,
		LastSeq:         pc.LastSeq,
		LastCompletedAt: pc.LastCompletedAt,
		Inflight:        pc.Inflight,
		SelectedTags:    selected,
	}
}
