package preview

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/specpreview/internal/builder"
	"git.home.luguber.info/inful/specpreview/internal/document"
	"git.home.luguber.info/inful/specpreview/internal/logfields"
)

// Completion is a finished build as delivered to the loop.
type Completion struct {
	BuildID  string
	Seq      uint64
	Outcome  document.Outcome
	Duration time.Duration
}

// Invoker starts one asynchronous build per call. Earlier builds keep
// running; each completion is handed to deliver in the order builds finish.
type Invoker struct {
	builder builder.Builder
	deliver func(Completion)
	seq     uint64
}

func NewInvoker(b builder.Builder, deliver func(Completion)) *Invoker {
	return &Invoker{builder: b, deliver: deliver}
}

// Start launches a build of text and returns its ID and sequence number.
// Start must be called from a single goroutine.
func (i *Invoker) Start(ctx context.Context, text string) (string, uint64) {
	i.seq++
	id := uuid.NewString()
	seq := i.seq

	slog.Debug("Starting document build", logfields.BuildID(id), logfields.BuildSeq(seq))
	go func() {
		start := time.Now()
		outcome := i.run(ctx, id, text)
		i.deliver(Completion{BuildID: id, Seq: seq, Outcome: outcome, Duration: time.Since(start)})
	}()
	return id, seq
}

// run never panics and never returns nil; a builder fault becomes a Failure
// without errors.
func (i *Invoker) run(ctx context.Context, id, text string) (out document.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Document builder panicked", logfields.BuildID(id), slog.Any("panic", r))
			out = document.Failure{}
		}
	}()
	out = i.builder.Build(ctx, text)
	if out == nil {
		slog.Warn("Document builder returned no outcome", logfields.BuildID(id))
		out = document.Failure{}
	}
	return out
}
