package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace"
)

func TestNewTraceContext(t *testing.T) {
	tc := NewTraceContext(context.Background(), "t-1", "r-1")
	assert.Equal(t, &TraceContext{TraceID: "t-1", RequestID: "r-1"}, tc)

	generated := NewTraceContext(context.Background(), "", "")
	assert.Len(t, generated.TraceID, 36)
	assert.Len(t, generated.RequestID, 36)
	assert.NotEqual(t, generated.TraceID, generated.RequestID)
}

func TestNewTraceContext_UsesSpanTraceID(t *testing.T) {
	traceID := trace.TraceID{0x4b, 0xf9, 0x2f, 0x35, 0x77, 0xb3, 0x4d, 0xa6, 0xa3, 0xce, 0x92, 0x9d, 0x0e, 0x0e, 0x47, 0x36}
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID,
		SpanID:  trace.SpanID{0, 0xf0, 0x67, 0xaa, 0x0b, 0xa9, 0x02, 0xb7},
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	tc := NewTraceContext(ctx, "", "")
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", tc.TraceID)
}

func TestActorAndRequestID(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "system", GetActorName(ctx))
	assert.Empty(t, GetRequestID(ctx))

	ctx = WithActor(ctx, &Actor{Name: "buyer"})
	ctx = WithTrace(ctx, NewTraceContext(ctx, "", "rid-1"))
	assert.Equal(t, "buyer", GetActorName(ctx))
	assert.Equal(t, "rid-1", GetRequestID(ctx))
}
