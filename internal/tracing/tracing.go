// Package tracing provides the injected trace capability consumed by the
// diagnostics engine. Spans wrap each top-level operation; point events
// record facts observed mid-operation (pid, artifact path, artifact size).
package tracing

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Span is an in-flight named trace region.
type Span interface {
	// Event records a point event with structured attributes.
	Event(name string, attrs ...any)

	// End closes the span.
	End()
}

// Tracer starts spans. Implementations are injected into the engine; the
// engine never constructs its own tracer.
type Tracer interface {
	Start(ctx context.Context, name string) (context.Context, Span)
}

type spanIDKey struct{}

// LogTracer emits spans and events as structured log records.
type LogTracer struct {
	logger *slog.Logger
}

// NewLogTracer creates a tracer backed by the given logger.
func NewLogTracer(logger *slog.Logger) *LogTracer {
	return &LogTracer{logger: logger}
}

// Start begins a span and returns a context carrying its id, so nested
// spans can reference their parent.
func (t *LogTracer) Start(ctx context.Context, name string) (context.Context, Span) {
	id := uuid.NewString()[:8]
	attrs := []any{"span", name, "span_id", id}
	if parent, ok := ctx.Value(spanIDKey{}).(string); ok {
		attrs = append(attrs, "parent_id", parent)
	}
	t.logger.Debug("span started", attrs...)

	return context.WithValue(ctx, spanIDKey{}, id), &logSpan{
		logger: t.logger,
		name:   name,
		id:     id,
		start:  time.Now(),
	}
}

type logSpan struct {
	logger *slog.Logger
	name   string
	id     string
	start  time.Time
}

func (s *logSpan) Event(name string, attrs ...any) {
	all := append([]any{"span", s.name, "span_id", s.id}, attrs...)
	s.logger.Info(name, all...)
}

func (s *logSpan) End() {
	s.logger.Debug("span ended",
		"span", s.name,
		"span_id", s.id,
		"duration_ms", time.Since(s.start).Milliseconds())
}

// Nop is a tracer that records nothing.
type Nop struct{}

func (Nop) Start(ctx context.Context, name string) (context.Context, Span) {
	return ctx, nopSpan{}
}

type nopSpan struct{}

func (nopSpan) Event(string, ...any) {}
func (nopSpan) End()                 {}
