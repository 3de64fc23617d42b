package middleware

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	appctx "orderflow/internal/core/context"
)

var tracer = otel.Tracer("orderflow/http")

const (
	HeaderRequestID          = "X-Request-ID"
	HeaderTraceID            = "X-Trace-ID"
	HeaderActor              = "X-Actor"
	HeaderIdempotentReplayed = "Idempotent-Replayed"

	ContextRequestID = "request_id"
	ContextTraceID   = "trace_id"
)

// Trace opens a server span for the request, takes request and trace ids
// from the headers, generating missing ones, and echoes them on the
// response. Without a registered tracer provider the span is a no-op and
// the trace id is generated.
func Trace() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), c.Request.Method+" "+c.Request.URL.Path,
			trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		tc := appctx.NewTraceContext(ctx, c.GetHeader(HeaderTraceID), c.GetHeader(HeaderRequestID))
		span.SetAttributes(attribute.String("request.id", tc.RequestID))

		c.Request = c.Request.WithContext(appctx.WithTrace(ctx, tc))

		c.Set(ContextTraceID, tc.TraceID)
		c.Set(ContextRequestID, tc.RequestID)

		c.Header(HeaderRequestID, tc.RequestID)
		c.Header(HeaderTraceID, tc.TraceID)

		c.Next()

		if route := c.FullPath(); route != "" {
			span.SetAttributes(attribute.String("http.route", route))
		}
		span.SetAttributes(attribute.Int("http.status_code", c.Writer.Status()))
	}
}

// Actor records the caller named by the X-Actor header. Authentication
// happens in front of the service; the name is only recorded on documents
// and in logs.
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		if name := c.GetHeader(HeaderActor); name != "" {
			ctx := appctx.WithActor(c.Request.Context(), &appctx.Actor{Name: name})
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}
