package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Span represents a logical unit of work, such as one rehydration phase
// or one collaborator call.
type Span struct {
	logger *slog.Logger
	start  time.Time
}

// StartSpan derives a child span from the provided context, enriching
// the context logger with span metadata. It returns the derived context
// and the span handle.
func StartSpan(ctx context.Context, name string) (context.Context, *Span) {
	if ctx == nil {
		ctx = context.Background()
	}

	logger := FromContext(ctx)
	spanID := uuid.NewString()

	logger = logger.With(
		slog.String("span_id", spanID),
		slog.String("span_name", name),
	)
	if parent := spanIDFromContext(ctx); parent != "" {
		logger = logger.With(slog.String("parent_span_id", parent))
	}

	ctx = WithLogger(ctx, logger)
	ctx = withSpanID(ctx, spanID)

	return ctx, &Span{logger: logger, start: time.Now()}
}

// End finalizes the span and emits a completion log entry.
func (s *Span) End() {
	if s == nil {
		return
	}
	s.logger.Info("span completed", slog.Duration("duration", time.Since(s.start)))
}
