package preview

import (
	"context"
	"fmt"
	"sync"

	"git.home.luguber.info/inful/specpreview/internal/diagnostic"
	"git.home.luguber.info/inful/specpreview/internal/document"
	"git.home.luguber.info/inful/specpreview/internal/editor"
)

// editorCall records one call on recordingEditor.
type editorCall struct {
	Op   string
	Diag diagnostic.Diagnostic
	YAML diagnostic.YAMLError
	Kind editor.Kind
	Line int
}

type recordingEditor struct {
	mu    sync.Mutex
	calls []editorCall
}

func (e *recordingEditor) record(c editorCall) {
	e.mu.Lock()
	e.calls = append(e.calls, c)
	e.mu.Unlock()
}

func (e *recordingEditor) ClearAnnotation() { e.record(editorCall{Op: "clear"}) }
func (e *recordingEditor) AnnotateSwaggerError(d diagnostic.Diagnostic, k editor.Kind) {
	e.record(editorCall{Op: "swagger", Diag: d, Kind: k})
}
func (e *recordingEditor) AnnotateYAMLErrors(y diagnostic.YAMLError) {
	e.record(editorCall{Op: "yaml", YAML: y})
}
func (e *recordingEditor) GotoLine(line int) { e.record(editorCall{Op: "goto", Line: line}) }
func (e *recordingEditor) Focus()            { e.record(editorCall{Op: "focus"}) }

func (e *recordingEditor) Calls() []editorCall {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]editorCall(nil), e.calls...)
}

func (e *recordingEditor) Ops() []string {
	var ops []string
	for _, c := range e.Calls() {
		ops = append(ops, c.Op)
	}
	return ops
}

func (e *recordingEditor) Reset() {
	e.mu.Lock()
	e.calls = nil
	e.mu.Unlock()
}

type fakePrefs struct {
	mu   sync.Mutex
	live bool
}

func (p *fakePrefs) LiveRender() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.live
}

func (p *fakePrefs) set(on bool) {
	p.mu.Lock()
	p.live = on
	p.mu.Unlock()
}

type fixedTags []string

func (t fixedTags) GetCurrentTags() []string { return t }

// scriptedBuilder returns the outcome registered for a text. Texts with a
// gate channel block until the gate is closed.
type scriptedBuilder struct {
	mu       sync.Mutex
	outcomes map[string]document.Outcome
	gates    map[string]chan struct{}
	calls    []string
}

func newScriptedBuilder() *scriptedBuilder {
	return &scriptedBuilder{outcomes: map[string]document.Outcome{}, gates: map[string]chan struct{}{}}
}

func (b *scriptedBuilder) on(text string, o document.Outcome) *scriptedBuilder {
	b.mu.Lock()
	b.outcomes[text] = o
	b.mu.Unlock()
	return b
}

func (b *scriptedBuilder) hold(text string) chan struct{} {
	ch := make(chan struct{})
	b.mu.Lock()
	b.gates[text] = ch
	b.mu.Unlock()
	return ch
}

func (b *scriptedBuilder) Build(_ context.Context, text string) document.Outcome {
	b.mu.Lock()
	b.calls = append(b.calls, text)
	gate := b.gates[text]
	o, ok := b.outcomes[text]
	b.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if !ok {
		panic(fmt.Sprintf("no outcome scripted for %q", text))
	}
	return o
}

func (b *scriptedBuilder) Calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

func petsSpec() *document.Spec {
	return &document.Spec{
		Version: "2.0",
		Tags:    []document.TagDef{{Name: "pets"}},
		Paths: []document.PathItem{
			{Name: "/pets", Line: 6, Entries: []document.Operation{
				{Name: "get", Tags: []string{"pets"}},
				{Name: "post", Tags: []string{"admin"}},
			}},
			{Name: "/store", Line: 12, Entries: []document.Operation{
				{Name: "get", Tags: []string{"store"}},
			}},
		},
	}
}

func semantic(code string) diagnostic.Semantic {
	return diagnostic.Semantic{Code: code, Message: code, Level: diagnostic.LevelError}
}
