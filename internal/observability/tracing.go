package observability

import (
	"context"
	"crypto/rand"
	"log/slog"
	"maps"
	"slices"
	"time"
)

// Span times one unit of work, such as a request or a dashboard
// recomputation. Spans are not exported anywhere; End writes them to the
// logger at debug level.
type Span struct {
	TraceID   string
	SpanID    string
	ParentID  string
	Operation string
	Start     time.Time
	Duration  time.Duration
	Tags      map[string]string
	Err       error
}

type spanContextKey struct{}

// StartSpan starts a span as a child of the span in ctx, if any.
func StartSpan(ctx context.Context, operation string) (context.Context, *Span) {
	span := &Span{
		TraceID:   newID(),
		SpanID:    newID(),
		Operation: operation,
		Start:     time.Now(),
		Tags:      make(map[string]string),
	}

	if parent := SpanFromContext(ctx); parent != nil {
		span.ParentID = parent.SpanID
		span.TraceID = parent.TraceID
	}
	if requestID := GetRequestID(ctx); requestID != "" {
		span.Tags["request_id"] = requestID
	}

	return context.WithValue(ctx, spanContextKey{}, span), span
}

func SpanFromContext(ctx context.Context) *Span {
	span, _ := ctx.Value(spanContextKey{}).(*Span)
	return span
}

func (s *Span) SetTag(key, value string) {
	s.Tags[key] = value
}

// SetError marks the span failed. A nil err is ignored.
func (s *Span) SetError(err error) {
	if err != nil {
		s.Err = err
	}
}

func (s *Span) Failed() bool {
	return s.Err != nil
}

// End records the duration and logs the span with its tags in key order.
func (s *Span) End(logger *slog.Logger) {
	s.Duration = time.Since(s.Start)

	attrs := []slog.Attr{
		slog.String("trace_id", s.TraceID),
		slog.String("span_id", s.SpanID),
		slog.String("operation", s.Operation),
		slog.Duration("duration", s.Duration),
	}
	if s.ParentID != "" {
		attrs = append(attrs, slog.String("parent_id", s.ParentID))
	}
	for _, k := range slices.Sorted(maps.Keys(s.Tags)) {
		attrs = append(attrs, slog.String(k, s.Tags[k]))
	}
	if s.Err != nil {
		attrs = append(attrs, slog.String("error", s.Err.Error()))
	}
	logger.LogAttrs(context.Background(), slog.LevelDebug, "span finished", attrs...)
}

func newID() string {
	return rand.Text()[:16]
}
