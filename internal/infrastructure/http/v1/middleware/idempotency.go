package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"orderflow/internal/core/apperror"
	appctx "orderflow/internal/core/context"
	"orderflow/internal/infrastructure/cache"
	"orderflow/pkg/logger"
)

const HeaderIdempotencyKey = "Idempotency-Key"
const maxIdempotencyBodyBytes = 1 << 20 // 1 MiB

const (
	contextIdempotencyKey   = "idempotency_key"
	contextIdempotencyStore = "idempotency_store"
)

// Idempotency guards POST requests that carry an Idempotency-Key header.
// The first request owns the key; a finished request is replayed with its
// stored status and body; a concurrent duplicate gets 409.
func Idempotency(store cache.IdempotencyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}

		limited := io.LimitReader(c.Request.Body, maxIdempotencyBodyBytes+1)
		body, _ := io.ReadAll(limited)
		if len(body) > maxIdempotencyBodyBytes {
			appErr := apperror.NewValidation("request body too large for idempotency")
			appErr.HTTPStatus = http.StatusRequestEntityTooLarge
			_ = c.Error(appErr.WithDetail("max_bytes", maxIdempotencyBodyBytes))
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		hash := sha256.Sum256(body)

		replay, err := store.Acquire(c.Request.Context(), cache.IdempotencyRequest{
			Key:         key,
			Actor:       appctx.GetActorName(c.Request.Context()),
			Operation:   c.Request.Method + " " + c.Request.URL.Path,
			RequestHash: hex.EncodeToString(hash[:]),
		})
		if err != nil {
			if _, ok := apperror.AsAppError(err); !ok {
				err = apperror.NewInternal(err).WithDetail("component", "idempotency")
			}
			_ = c.Error(err)
			c.Abort()
			return
		}
		if replay != nil {
			c.Header(HeaderIdempotentReplayed, "true")
			c.Data(replay.StatusCode, replay.ContentType, replay.Body)
			c.Abort()
			return
		}

		c.Set(contextIdempotencyKey, key)
		c.Set(contextIdempotencyStore, store)
		c.Next()
	}
}

func idempotencyOf(c *gin.Context) (string, cache.IdempotencyStore, bool) {
	key := c.GetString(contextIdempotencyKey)
	if key == "" {
		return "", nil, false
	}
	store, ok := c.Get(contextIdempotencyStore)
	if !ok {
		return "", nil, false
	}
	s, ok := store.(cache.IdempotencyStore)
	return key, s, ok
}

// CompleteIdempotency stores a successful response for replay.
func CompleteIdempotency(c *gin.Context, status int, body []byte) {
	key, store, ok := idempotencyOf(c)
	if !ok {
		return
	}
	if err := store.Complete(c.Request.Context(), key, status, "application/json", body); err != nil {
		logger.Warn(c.Request.Context(), "idempotency complete failed", "key", key, "error", err)
	}
}

// FailIdempotency stores an error response for replay.
func FailIdempotency(c *gin.Context, status int, body []byte) {
	key, store, ok := idempotencyOf(c)
	if !ok {
		return
	}
	if err := store.Fail(c.Request.Context(), key, status, "application/json", body); err != nil {
		logger.Warn(c.Request.Context(), "idempotency fail failed", "key", key, "error", err)
	}
}
