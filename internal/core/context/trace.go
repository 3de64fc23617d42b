package context

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	"orderflow/internal/core/id"
)

// TraceContext correlates one API request across logs, error envelopes and
// calls to the ERP backend.
type TraceContext struct {
	TraceID   string
	RequestID string
}

type traceContextKey struct{}

func WithTrace(ctx context.Context, tc *TraceContext) context.Context {
	return context.WithValue(ctx, traceContextKey{}, tc)
}

func GetTrace(ctx context.Context) *TraceContext {
	if v, ok := ctx.Value(traceContextKey{}).(*TraceContext); ok {
		return v
	}
	return nil
}

// GetRequestID returns the request id from ctx or "".
func GetRequestID(ctx context.Context) string {
	if t := GetTrace(ctx); t != nil {
		return t.RequestID
	}
	return ""
}

// NewTraceContext fills in missing ids. A missing trace id is taken from the
// OpenTelemetry span in ctx when it is valid, otherwise generated like the
// request id.
func NewTraceContext(ctx context.Context, traceID, requestID string) *TraceContext {
	if traceID == "" {
		if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
			traceID = sc.TraceID().String()
		} else {
			traceID = id.New().String()
		}
	}
	if requestID == "" {
		requestID = id.New().String()
	}
	return &TraceContext{TraceID: traceID, RequestID: requestID}
}
