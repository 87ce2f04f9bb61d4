package preview

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/specpreview/internal/builder"
	"git.home.luguber.info/inful/specpreview/internal/document"
	"git.home.luguber.info/inful/specpreview/internal/editor"
	"git.home.luguber.info/inful/specpreview/internal/events"
	ferrors "git.home.luguber.info/inful/specpreview/internal/foundation/errors"
	"git.home.luguber.info/inful/specpreview/internal/health"
	"git.home.luguber.info/inful/specpreview/internal/logfields"
	"git.home.luguber.info/inful/specpreview/internal/metrics"
	"git.home.luguber.info/inful/specpreview/internal/storage"
)

// TagRegistry is what the controller needs from the tag registry.
type TagRegistry interface {
	TagSelection
	RegisterTagsFromSpecs(spec *document.Spec)
	SetCurrentTags(names []string)
}

// Deps are the collaborators of a Controller. All are required.
type Deps struct {
	Store   storage.Store
	Builder builder.Builder
	Health  health.Checker
	Editor  editor.Editor
	Tags    TagRegistry
	Prefs   LiveRenderer
}

// Option configures a Controller.
type Option func(*Controller)

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(c *Controller) { c.recorder = r }
}

// WithBus publishes pipeline events on b.
func WithBus(b *events.Bus) Option {
	return func(c *Controller) { c.bus = b }
}

type change struct {
	text       string
	force      bool
	clearDirty bool
}

// Controller coordinates the pipeline. Create it with NewController and
// start it with Run; methods block until Run is serving.
type Controller struct {
	store    storage.Store
	editor   editor.Editor
	registry TagRegistry

	changeGate ChangeGate
	healthGate HealthGate
	invoker    *Invoker
	router     AnnotationRouter
	persister  StatusPersister
	visibility Visibility

	recorder metrics.Recorder
	bus      *events.Bus

	changes     chan change
	completions chan Completion
	calls       chan func(*PipelineContext)
	done        chan struct{}

	pc PipelineContext
}

// NewController wires the pipeline around deps.
func NewController(deps Deps, opts ...Option) (*Controller, error) {
	switch {
	case deps.Store == nil:
		return nil, ferrors.ValidationError("controller requires a store").Build()
	case deps.Builder == nil:
		return nil, ferrors.ValidationError("controller requires a builder").Build()
	case deps.Health == nil:
		return nil, ferrors.ValidationError("controller requires a health checker").Build()
	case deps.Editor == nil:
		return nil, ferrors.ValidationError("controller requires an editor").Build()
	case deps.Tags == nil:
		return nil, ferrors.ValidationError("controller requires a tag registry").Build()
	case deps.Prefs == nil:
		return nil, ferrors.ValidationError("controller requires preferences").Build()
	}

	c := &Controller{
		store:       deps.Store,
		editor:      deps.Editor,
		registry:    deps.Tags,
		changeGate:  ChangeGate{Prefs: deps.Prefs},
		healthGate:  HealthGate{Checker: deps.Health},
		router:      AnnotationRouter{Editor: deps.Editor},
		persister:   StatusPersister{Store: deps.Store},
		visibility:  Visibility{Tags: deps.Tags},
		recorder:    metrics.NoopRecorder{},
		changes:     make(chan change),
		completions: make(chan Completion),
		calls:       make(chan func(*PipelineContext)),
		done:        make(chan struct{}),
	}
	c.invoker = NewInvoker(deps.Builder, c.deliver)
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Run subscribes to document changes and serves the pipeline until ctx is
// canceled. It must be called once.
func (c *Controller) Run(ctx context.Context) error {
	defer close(c.done)

	stop, err := c.store.Watch(storage.KeyDocument, func(text string) {
		c.post(change{text: text})
	})
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryStorage, "subscribe to document changes").Build()
	}
	defer stop()

	slog.Info("Preview pipeline started")
	for {
		select {
		case <-ctx.Done():
			slog.Info("Preview pipeline stopped", slog.Int("inflight", c.pc.Inflight))
			return nil
		case ch := <-c.changes:
			c.update(ctx, ch)
		case comp := <-c.completions:
			c.complete(ctx, comp)
		case fn := <-c.calls:
			fn(&c.pc)
		}
	}
}

func (c *Controller) post(ch change) {
	select {
	case c.changes <- ch:
	case <-c.done:
	}
}

func (c *Controller) deliver(comp Completion) {
	select {
	case c.completions <- comp:
	case <-c.done:
	}
}

// do runs fn on the loop and waits for it.
func (c *Controller) do(ctx context.Context, fn func(*PipelineContext)) error {
	finished := make(chan struct{})
	call := func(pc *PipelineContext) {
		defer close(finished)
		fn(pc)
	}
	select {
	case c.calls <- call:
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ferrors.RuntimeError("preview pipeline is not running").Build()
	}
	<-finished
	return nil
}

func (c *Controller) update(ctx context.Context, ch change) {
	pc := &c.pc
	pc.Text = ch.text
	if ch.clearDirty {
		pc.Dirty = false
	}

	if !c.changeGate.Allow(pc, ch.force) {
		slog.Debug("Change deferred, live render is off", logfields.Gate(string(metrics.GateChange)))
		c.recorder.IncGateSkip(metrics.GateChange)
		c.bus.Offer(events.BuildSkipped{Gate: string(metrics.GateChange), At: time.Now()})
		c.setStatus(ctx, pc.Status)
		return
	}

	healthy := c.healthGate.Allow()
	c.recorder.SetBackendHealthy(healthy)
	if !healthy {
		slog.Debug("Change dropped, build backend unhealthy", logfields.Gate(string(metrics.GateHealth)))
		c.recorder.IncGateSkip(metrics.GateHealth)
		c.bus.Offer(events.BuildSkipped{Gate: string(metrics.GateHealth), At: time.Now()})
		return
	}

	c.invoker.Start(ctx, ch.text)
	pc.Inflight++
	c.recorder.SetInflightBuilds(pc.Inflight)
}

func (c *Controller) complete(ctx context.Context, comp Completion) {
	pc := &c.pc
	pc.Inflight--
	c.recorder.SetInflightBuilds(pc.Inflight)

	stale := comp.Seq < pc.LastSeq
	if stale {
		slog.Warn("Older build completed after a newer one; applying it",
			logfields.BuildID(comp.BuildID), logfields.BuildSeq(comp.Seq), slog.Uint64("newest_seq", pc.LastSeq))
		c.recorder.IncStaleCompletion()
	} else {
		pc.LastSeq = comp.Seq
	}

	result := comp.Outcome.Result()
	pc.Spec = result.Spec
	pc.Errors = result.Errors
	pc.Warnings = result.Warnings
	if result.Spec != nil {
		c.registry.RegisterTagsFromSpecs(result.Spec)
	}

	cls := Classify(comp.Outcome)
	if cls.Status == StatusSuccess {
		pc.Errors = nil
	}
	pc.LastBuildID = comp.BuildID
	pc.LastCompletedAt = time.Now()

	c.router.Apply(cls)
	c.setStatus(ctx, cls.Status)

	channel := document.ChannelName(comp.Outcome)
	slog.Info("Build classified",
		logfields.BuildID(comp.BuildID),
		logfields.BuildSeq(comp.Seq),
		logfields.Channel(channel),
		logfields.Status(string(cls.Status)),
		logfields.Errors(len(result.Errors)),
		logfields.Warnings(len(result.Warnings)),
		logfields.Duration(comp.Duration))

	c.recorder.ObserveBuildDuration(channel, comp.Duration)
	c.recorder.IncBuildOutcome(string(cls.Status))
	c.recorder.ObserveAnnotations(annotationCounts(cls))
	c.bus.Offer(events.BuildCompleted{
		BuildID:     comp.BuildID,
		Seq:         comp.Seq,
		Channel:     channel,
		Status:      string(cls.Status),
		Errors:      len(result.Errors),
		Warnings:    len(result.Warnings),
		Duration:    comp.Duration,
		Stale:       stale,
		CompletedAt: pc.LastCompletedAt,
	})
}

func annotationCounts(c Classification) (int, int) {
	errs := len(c.Errors)
	if c.YAML != nil {
		errs++
	}
	return errs, len(c.Warnings)
}

// setStatus records s in the context, the "progress" slot and the bus.
// A failed write is logged; the pipeline keeps going.
func (c *Controller) setStatus(ctx context.Context, s StatusCode) {
	c.pc.Status = s
	if err := c.persister.Persist(ctx, s); err != nil {
		slog.Error("Failed to persist status", logfields.Slot(storage.KeyProgress), logfields.Status(string(s)), logfields.Error(err))
	}
	c.recorder.SetStatus(string(s))
	c.bus.Offer(events.StatusChanged{Status: string(s), BuildID: c.pc.LastBuildID, Dirty: c.pc.Dirty, At: time.Now()})
}

// Update feeds a document change into the pipeline as the storage
// subscription would. force bypasses the live-render gate.
func (c *Controller) Update(ctx context.Context, text string, force bool) error {
	select {
	case c.changes <- change{text: text, force: force}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ferrors.RuntimeError("preview pipeline is not running").Build()
	}
}

// LoadLatest rebuilds the stored document unconditionally and clears the
// dirty flag.
func (c *Controller) LoadLatest(ctx context.Context) error {
	text, err := c.store.Load(ctx, storage.KeyDocument)
	if err != nil {
		if derr := c.do(ctx, func(pc *PipelineContext) { pc.Dirty = false }); derr != nil {
			return derr
		}
		return err
	}
	select {
	case c.changes <- change{text: text, force: true, clearDirty: true}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ferrors.RuntimeError("preview pipeline is not running").Build()
	}
}

// Snapshot returns a copy of the pipeline state.
func (c *Controller) Snapshot(ctx context.Context) (Snapshot, error) {
	var s Snapshot
	err := c.do(ctx, func(pc *PipelineContext) {
		s = pc.snapshot(c.registry.GetCurrentTags())
	})
	return s, err
}

// SelectTags replaces the tag selection and returns the visible paths for it.
func (c *Controller) SelectTags(ctx context.Context, names []string) ([]VisiblePath, error) {
	var out []VisiblePath
	err := c.do(ctx, func(pc *PipelineContext) {
		c.registry.SetCurrentTags(names)
		slog.Debug("Tag selection changed", logfields.Tags(c.registry.GetCurrentTags()))
		out = c.visibility.Visible(pc.Spec)
	})
	return out, err
}

// VisiblePaths evaluates the visibility rules against the latest model.
func (c *Controller) VisiblePaths(ctx context.Context) ([]VisiblePath, error) {
	var out []VisiblePath
	err := c.do(ctx, func(pc *PipelineContext) {
		out = c.visibility.Visible(pc.Spec)
	})
	return out, err
}

// FocusEdit moves the editor to where path starts in the latest document
// text and focuses it.
func (c *Controller) FocusEdit(ctx context.Context, path []string) (document.Position, error) {
	var (
		pos document.Position
		err error
	)
	derr := c.do(ctx, func(pc *PipelineContext) {
		pos, err = document.PositionForPath(pc.Text, path)
		if err != nil {
			return
		}
		c.editor.GotoLine(pos.Line)
		c.editor.Focus()
	})
	if derr != nil {
		return document.Position{}, derr
	}
	return pos, err
}
