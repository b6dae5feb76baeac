// Package observe carries the logger and tracer shared by the compression
// workflows.
package observe

import (
	"context"
	"io"

	"github.com/felixgeelhaar/bolt/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("context-compress")

// Observer pairs a run's logger with its tracer. A quiet observer keeps
// warnings and errors only.
type Observer struct {
	log *bolt.Logger
}

// New logs human-readable lines to out.
func New(out io.Writer, verbose bool) *Observer {
	return newObserver(bolt.New(bolt.NewConsoleHandler(out)), verbose)
}

// NewJSON logs one JSON object per event to out.
func NewJSON(out io.Writer, verbose bool) *Observer {
	return newObserver(bolt.New(bolt.NewJSONHandler(out)), verbose)
}

func newObserver(l *bolt.Logger, verbose bool) *Observer {
	if !verbose {
		l.SetLevel(bolt.WARN)
	}
	return &Observer{log: l}
}

// Discard drops all output. Used by tests and library callers that pass
// no observer.
func Discard() *Observer {
	return New(io.Discard, false)
}

func (o *Observer) Log() *bolt.Logger {
	return o.log
}

// StartSpan opens the span for one workflow of a run, named
// compress.<workflow>. With no tracer provider registered it is a no-op.
func (o *Observer) StartSpan(ctx context.Context, workflow, runID string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "compress."+workflow, trace.WithAttributes(
		attribute.String("workflow", workflow),
		attribute.String("run.id", runID),
	))
}
