// Package backend is the JSON client of the ERP backend collaborator.
// Every response goes through the wire normalizer before it is returned.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"orderflow/internal/core/apperror"
	appctx "orderflow/internal/core/context"
	"orderflow/internal/infrastructure/wire"
	"orderflow/pkg/logger"
)

// Config holds client settings.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries uint64
	RetryBase  time.Duration
}

// DefaultConfig returns the settings used when only the URL is configured.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:    baseURL,
		Timeout:    10 * time.Second,
		MaxRetries: 3,
		RetryBase:  200 * time.Millisecond,
	}
}

// Client talks to the backend REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	normalizer *wire.Normalizer
	maxRetries uint64
	retryBase  time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a client.
func New(cfg Config, normalizer *wire.Normalizer, opts ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 200 * time.Millisecond
	}
	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		normalizer: normalizer,
		maxRetries: cfg.MaxRetries,
		retryBase:  cfg.RetryBase,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Query filters list calls.
type Query struct {
	Status string
	Search string
	Limit  int
	Offset int
}

func (q Query) values() url.Values {
	v := url.Values{}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		v.Set("offset", strconv.Itoa(q.Offset))
	}
	return v
}

// request is one backend call.
type request struct {
	method   string
	path     string
	query    url.Values
	body     any
	entity   string
	entityID string
}

func (r request) endpoint() string {
	return r.method + " " + r.path
}

// do sends r and returns the response body of a 2xx answer. Network errors
// and 5xx answers are retried with exponential backoff. POST requests carry
// one Idempotency-Key for all attempts, so a retry cannot create twice.
func (c *Client) do(ctx context.Context, r request) ([]byte, error) {
	var payload []byte
	if r.body != nil {
		var err error
		if payload, err = json.Marshal(r.body); err != nil {
			return nil, fmt.Errorf("encode %s: %w", r.endpoint(), err)
		}
	}

	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}
	idempotencyKey := ""
	if r.method == http.MethodPost {
		idempotencyKey = uuid.NewString()
	}

	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(c.retryBase))
	var body []byte
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, r.method, target, bodyReader)
		if err != nil {
			return fmt.Errorf("build %s: %w", r.endpoint(), err)
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if idempotencyKey != "" {
			req.Header.Set("Idempotency-Key", idempotencyKey)
		}
		if requestID := appctx.GetRequestID(ctx); requestID != "" {
			req.Header.Set("X-Request-ID", requestID)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if transient(err) {
				logger.Warn(ctx, "backend request failed, retrying", "endpoint", r.endpoint(), "attempt", attempt, "error", err)
				return retry.RetryableError(err)
			}
			return fmt.Errorf("%s: %w", r.endpoint(), err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("read %s: %w", r.endpoint(), err))
		}
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			body = data
			return nil
		}

		appErr := statusError(r, resp.StatusCode, data)
		if resp.StatusCode >= 500 {
			logger.Warn(ctx, "backend answered with server error", "endpoint", r.endpoint(), "status", resp.StatusCode, "attempt", attempt)
			return retry.RetryableError(appErr)
		}
		return appErr
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

func transient(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

// statusError maps a non-2xx answer to an application error, keeping the
// backend message when one can be read.
func statusError(r request, status int, body []byte) error {
	message := upstreamMessage(body)
	var appErr *apperror.AppError
	switch {
	case status == http.StatusNotFound && r.entityID != "":
		appErr = apperror.NewNotFound(r.entity, r.entityID)
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		appErr = apperror.NewValidation(fallback(message, "backend rejected the request"))
	case status == http.StatusConflict:
		appErr = apperror.NewConflict(fallback(message, "backend reported a conflict"))
	default:
		appErr = apperror.NewUpstream(r.endpoint(), status)
	}
	if message != "" {
		appErr.WithDetail("upstreamMessage", message)
	}
	return appErr
}

func upstreamMessage(body []byte) string {
	var envelope struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	if envelope.Message != "" {
		return envelope.Message
	}
	var nested struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(envelope.Error, &nested) == nil && nested.Message != "" {
		return nested.Message
	}
	var plain string
	if json.Unmarshal(envelope.Error, &plain) == nil {
		return plain
	}
	return ""
}

func fallback(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
