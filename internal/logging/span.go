package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Span times a named unit of work, such as a single aggregation query.
type Span struct {
	name   string
	logger *slog.Logger
	start  time.Time
	err    error
}

// StartSpan derives a child span from ctx. The returned context carries a logger
// annotated with the trace and span ids; a trace id is minted when ctx has none.
func StartSpan(ctx context.Context, name string) (context.Context, *Span) {
	if ctx == nil {
		ctx = context.Background()
	}

	logger := FromContext(ctx)
	if TraceIDFromContext(ctx) == "" {
		traceID := uuid.NewString()
		ctx = WithTraceID(ctx, traceID)
		logger = logger.With(slog.String("trace_id", traceID))
	}

	spanID := uuid.NewString()
	attrs := []any{slog.String("span_id", spanID), slog.String("span_name", name)}
	if parent := stringValue(ctx, spanIDKey); parent != "" {
		attrs = append(attrs, slog.String("parent_span_id", parent))
	}
	logger = logger.With(attrs...)

	ctx = WithLogger(ctx, logger)
	ctx = withString(ctx, spanIDKey, spanID)

	return ctx, &Span{name: name, logger: logger, start: time.Now()}
}

// Fail marks the span as failed. Only the first error is kept.
func (s *Span) Fail(err error) {
	if s == nil || err == nil || s.err != nil {
		return
	}
	s.err = err
}

// End emits the completion entry: debug on success, warn when the span failed.
func (s *Span) End() {
	if s == nil {
		return
	}
	elapsed := slog.Duration("duration", time.Since(s.start))
	if s.err != nil {
		s.logger.Warn("span failed", elapsed, slog.Any("error", s.err))
		return
	}
	s.logger.Debug("span completed", elapsed)
}
