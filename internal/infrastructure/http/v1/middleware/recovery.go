// Package middleware provides HTTP middleware components.
package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"orderflow/internal/core/apperror"
	"orderflow/pkg/logger"
)

// PanicHook is told about every recovered panic, keyed by route template.
type PanicHook func(route string)

// Recovery turns a panic in a handler into an INTERNAL_ERROR response that
// ErrorHandler renders. The panic value and stack go to the log only, never
// to the client. A panic after the response was written only aborts.
func Recovery(hooks ...PanicHook) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			route := c.FullPath()
			if route == "" {
				route = "unknown"
			}
			logger.Error(c.Request.Context(), "handler panicked",
				"route", route,
				"method", c.Request.Method,
				"panic", fmt.Sprint(rec),
				"stack", string(debug.Stack()),
			)
			for _, hook := range hooks {
				hook(route)
			}

			if c.Writer.Written() {
				c.Abort()
				return
			}
			_ = c.Error(apperror.NewInternal(fmt.Errorf("panic in %s %s: %v", c.Request.Method, route, rec)))
			c.Abort()
		}()
		c.Next()
	}
}
