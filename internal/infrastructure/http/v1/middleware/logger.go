package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"orderflow/pkg/logger"
)

// Logger puts log into the request context for logger.Info and friends and
// writes one access entry per request: error level for 5xx, warn for 4xx,
// debug for probes and scrapes, info otherwise.
func Logger(log *logger.Logger) gin.HandlerFunc {
	log = log.WithComponent("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Request = c.Request.WithContext(logger.WithLogger(c.Request.Context(), log))

		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		kv := []any{
			"method", c.Request.Method,
			"route", route,
			"path", c.Request.URL.Path,
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if q := c.Request.URL.RawQuery; q != "" {
			kv = append(kv, "query", q)
		}
		if replayed := c.Writer.Header().Get(HeaderIdempotentReplayed); replayed != "" {
			kv = append(kv, "idempotent_replay", true)
		}
		if errs := c.Errors.ByType(gin.ErrorTypePrivate).String(); errs != "" {
			kv = append(kv, "error", errs)
		}

		entry := log.WithContext(c.Request.Context())
		switch {
		case status >= 500:
			entry.Errorw("http request", kv...)
		case status >= 400:
			entry.Warnw("http request", kv...)
		case route == "/metrics" || strings.HasPrefix(route, "/health"):
			entry.Debugw("http request", kv...)
		default:
			entry.Infow("http request", kv...)
		}
	}
}
