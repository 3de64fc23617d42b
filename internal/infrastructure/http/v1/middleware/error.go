package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"orderflow/internal/core/apperror"
	"orderflow/internal/infrastructure/http/v1/dto"
	"orderflow/pkg/logger"
)

// ErrorHandler renders the last error registered on the context as the
// standard error envelope. Internal causes are logged, never returned.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		// If response already written by handler, do not override it.
		if c.Writer.Written() {
			return
		}

		status := http.StatusInternalServerError
		body := dto.ErrorBody{RequestID: c.GetString(ContextRequestID)}

		if appErr, ok := apperror.AsAppError(err); ok {
			if appErr.Err != nil {
				logger.Error(c.Request.Context(), "request error",
					"code", appErr.Code,
					"cause", appErr.Err,
				)
			}
			status = appErr.HTTPStatus
			body.Error = dto.ErrorResponse{
				Code:    appErr.Code,
				Message: appErr.Message,
				Details: appErr.Details,
			}
		} else {
			logger.Error(c.Request.Context(), "unhandled error", "error", err)
			body.Error = dto.ErrorResponse{
				Code:    apperror.CodeInternal,
				Message: "Internal server error",
			}
		}

		if raw, err := json.Marshal(body); err == nil {
			FailIdempotency(c, status, raw)
		}
		c.JSON(status, body)
	}
}
