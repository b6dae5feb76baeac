package observe

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

func TestNew(t *testing.T) {
	obs := New(&bytes.Buffer{}, true)
	if obs == nil || obs.log == nil {
		t.Fatal("expected non-nil Observer with logger")
	}
}

func TestObserver_LogWithFields(t *testing.T) {
	buf := &bytes.Buffer{}
	obs := New(buf, true)

	obs.Log().Info().
		Str("workflow", "memory").
		Int("files", 3).
		Msg("workflow complete")

	if !strings.Contains(buf.String(), "workflow complete") {
		t.Errorf("expected output to contain 'workflow complete', got %q", buf.String())
	}
}

func TestObserver_QuietHidesInfo(t *testing.T) {
	buf := &bytes.Buffer{}
	obs := New(buf, false)

	obs.Log().Info().Msg("hidden")
	obs.Log().Warn().Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("expected info to be filtered, got %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("expected warning in output, got %q", out)
	}
}

func TestNewJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	obs := NewJSON(buf, true)
	obs.Log().Info().Str("path", "MEMORY.md").Msg("wrote")

	out := buf.String()
	if !strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Errorf("expected JSON output, got %q", out)
	}
	if !strings.Contains(out, "MEMORY.md") {
		t.Errorf("expected field in output, got %q", out)
	}
}

func TestDiscard(t *testing.T) {
	obs := Discard()
	if obs.Log() == nil {
		t.Fatal("expected a logger")
	}
	obs.Log().Error().Msg("nowhere")
}

func TestObserver_StartSpan(t *testing.T) {
	obs := New(&bytes.Buffer{}, true)
	ctx, span := obs.StartSpan(context.Background(), "memory", "RUN1")
	if ctx == nil || span == nil {
		t.Fatal("expected context and span")
	}
	if !trace.SpanFromContext(ctx).SpanContext().Equal(span.SpanContext()) {
		t.Error("expected the span to be carried by the returned context")
	}
	span.End()
}
