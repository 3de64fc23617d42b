package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"orderflow/internal/core/apperror"
)

// IdempotencyStatus represents the state of an idempotent request.
type IdempotencyStatus string

const (
	IdempotencyStatusPending IdempotencyStatus = "pending"
	IdempotencyStatusSuccess IdempotencyStatus = "success"
	IdempotencyStatusFailed  IdempotencyStatus = "failed"
)

// stalePending is how long a pending key may stay unfinished before another
// request may reclaim it.
const stalePending = time.Minute

// IdempotencyRecord is what is stored under one key.
type IdempotencyRecord struct {
	Status      IdempotencyStatus `json:"status"`
	Actor       string            `json:"actor"`
	Operation   string            `json:"operation"`
	RequestHash string            `json:"requestHash"`
	StatusCode  int               `json:"statusCode,omitempty"`
	ContentType string            `json:"contentType,omitempty"`
	Body        []byte            `json:"body,omitempty"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// IdempotencyReplay is a stored HTTP response.
type IdempotencyReplay struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// IdempotencyRequest identifies the request presenting a key.
type IdempotencyRequest struct {
	Key         string
	Actor       string
	Operation   string
	RequestHash string
}

// IdempotencyStore guards mutating requests against duplicates.
//
// Acquire returns (nil, nil) when the caller owns the key, a replay when the
// request already finished, or an IDEMPOTENCY_CONFLICT error while another
// request with the same key is in flight.
type IdempotencyStore interface {
	Acquire(ctx context.Context, req IdempotencyRequest) (*IdempotencyReplay, error)
	Complete(ctx context.Context, key string, statusCode int, contentType string, body []byte) error
	Fail(ctx context.Context, key string, statusCode int, contentType string, body []byte) error
}

// Decide applies the replay rules to an existing record. reclaim reports a
// stale pending record the caller may take over.
func Decide(req IdempotencyRequest, rec IdempotencyRecord, now time.Time) (replay *IdempotencyReplay, reclaim bool, err error) {
	if rec.Actor != req.Actor || rec.Operation != req.Operation || rec.RequestHash != req.RequestHash {
		return nil, false, apperror.NewIdempotencyMismatch(req.Key).
			WithDetail("stored_operation", rec.Operation).
			WithDetail("request_operation", req.Operation)
	}
	switch rec.Status {
	case IdempotencyStatusSuccess, IdempotencyStatusFailed:
		return &IdempotencyReplay{
			StatusCode:  replayStatus(rec.StatusCode),
			ContentType: replayContentType(rec.ContentType),
			Body:        rec.Body,
		}, false, nil
	default:
		if now.Sub(rec.UpdatedAt) > stalePending {
			return nil, true, nil
		}
		return nil, false, apperror.NewIdempotencyConflict(req.Key)
	}
}

func replayStatus(status int) int {
	if status == 0 {
		return http.StatusOK
	}
	return status
}

func replayContentType(ct string) string {
	if ct == "" {
		return "application/json"
	}
	return ct
}

// RedisIdempotencyStore keeps idempotency records in Redis with a TTL.
type RedisIdempotencyStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// NewRedisIdempotencyStore creates a store whose records expire after ttl.
func NewRedisIdempotencyStore(client *redis.Client, ttl time.Duration) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{
		client: client,
		prefix: "orderflow:idempotency:",
		ttl:    ttl,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *RedisIdempotencyStore) Acquire(ctx context.Context, req IdempotencyRequest) (*IdempotencyReplay, error) {
	pending := IdempotencyRecord{
		Status:      IdempotencyStatusPending,
		Actor:       req.Actor,
		Operation:   req.Operation,
		RequestHash: req.RequestHash,
		UpdatedAt:   s.now(),
	}
	raw, err := json.Marshal(pending)
	if err != nil {
		return nil, fmt.Errorf("encode idempotency record: %w", err)
	}

	ok, err := s.client.SetNX(ctx, s.prefix+req.Key, raw, s.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire idempotency key: %w", err)
	}
	if ok {
		return nil, nil
	}

	stored, err := s.client.Get(ctx, s.prefix+req.Key).Bytes()
	if errors.Is(err, redis.Nil) {
		// expired between SETNX and GET
		return s.Acquire(ctx, req)
	}
	if err != nil {
		return nil, fmt.Errorf("read idempotency key: %w", err)
	}
	var rec IdempotencyRecord
	if err := json.Unmarshal(stored, &rec); err != nil {
		return nil, fmt.Errorf("decode idempotency record: %w", err)
	}

	replay, reclaim, err := Decide(req, rec, s.now())
	if err != nil || replay != nil {
		return replay, err
	}
	if reclaim {
		if err := s.client.Set(ctx, s.prefix+req.Key, raw, s.ttl).Err(); err != nil {
			return nil, fmt.Errorf("reclaim idempotency key: %w", err)
		}
	}
	return nil, nil
}

func (s *RedisIdempotencyStore) Complete(ctx context.Context, key string, statusCode int, contentType string, body []byte) error {
	return s.finish(ctx, key, IdempotencyStatusSuccess, statusCode, contentType, body)
}

func (s *RedisIdempotencyStore) Fail(ctx context.Context, key string, statusCode int, contentType string, body []byte) error {
	return s.finish(ctx, key, IdempotencyStatusFailed, statusCode, contentType, body)
}

func (s *RedisIdempotencyStore) finish(ctx context.Context, key string, status IdempotencyStatus, statusCode int, contentType string, body []byte) error {
	stored, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read idempotency key: %w", err)
	}
	var rec IdempotencyRecord
	if err := json.Unmarshal(stored, &rec); err != nil {
		return fmt.Errorf("decode idempotency record: %w", err)
	}
	rec.Status = status
	rec.StatusCode = statusCode
	rec.ContentType = contentType
	rec.Body = body
	rec.UpdatedAt = s.now()

	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode idempotency record: %w", err)
	}
	return s.client.Set(ctx, s.prefix+key, raw, s.ttl).Err()
}

// MemoryIdempotencyStore is the in-process store used when no Redis is
// configured. Expired records are dropped lazily.
type MemoryIdempotencyStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	records map[string]memoryRecord
	now     func() time.Time
}

type memoryRecord struct {
	IdempotencyRecord
	expiresAt time.Time
}

func NewMemoryIdempotencyStore(ttl time.Duration) *MemoryIdempotencyStore {
	return &MemoryIdempotencyStore{
		ttl:     ttl,
		records: make(map[string]memoryRecord),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryIdempotencyStore) Acquire(_ context.Context, req IdempotencyRequest) (*IdempotencyReplay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	pending := memoryRecord{
		IdempotencyRecord: IdempotencyRecord{
			Status:      IdempotencyStatusPending,
			Actor:       req.Actor,
			Operation:   req.Operation,
			RequestHash: req.RequestHash,
			UpdatedAt:   now,
		},
		expiresAt: now.Add(s.ttl),
	}

	rec, ok := s.records[req.Key]
	if !ok || now.After(rec.expiresAt) {
		s.records[req.Key] = pending
		return nil, nil
	}
	replay, reclaim, err := Decide(req, rec.IdempotencyRecord, now)
	if err != nil || replay != nil {
		return replay, err
	}
	if reclaim {
		s.records[req.Key] = pending
	}
	return nil, nil
}

func (s *MemoryIdempotencyStore) Complete(ctx context.Context, key string, statusCode int, contentType string, body []byte) error {
	return s.finish(key, IdempotencyStatusSuccess, statusCode, contentType, body)
}

func (s *MemoryIdempotencyStore) Fail(ctx context.Context, key string, statusCode int, contentType string, body []byte) error {
	return s.finish(key, IdempotencyStatusFailed, statusCode, contentType, body)
}

func (s *MemoryIdempotencyStore) finish(key string, status IdempotencyStatus, statusCode int, contentType string, body []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	if !ok {
		return nil
	}
	now := s.now()
	rec.Status = status
	rec.StatusCode = statusCode
	rec.ContentType = contentType
	rec.Body = append([]byte(nil), body...)
	rec.UpdatedAt = now
	rec.expiresAt = now.Add(s.ttl)
	s.records[key] = rec
	return nil
}

var (
	_ IdempotencyStore = (*RedisIdempotencyStore)(nil)
	_ IdempotencyStore = (*MemoryIdempotencyStore)(nil)
)
