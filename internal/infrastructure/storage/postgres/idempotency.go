package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"orderflow/internal/infrastructure/cache"
)

// IdempotencyStore keeps idempotency keys in sys_idempotency. It serves
// deployments that run on PostgreSQL without Redis.
type IdempotencyStore struct {
	txManager *TxManager
	ttl       time.Duration
	now       func() time.Time
}

var _ cache.IdempotencyStore = (*IdempotencyStore)(nil)

// NewIdempotencyStore creates a new idempotency store.
func NewIdempotencyStore(txManager *TxManager, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{
		txManager: txManager,
		ttl:       ttl,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

const (
	insertIdempotencyKey = `
		INSERT INTO sys_idempotency (idempotency_key, actor, operation, status, request_hash, updated_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (idempotency_key) DO NOTHING`

	selectIdempotencyKey = `
		SELECT actor, operation, status, request_hash,
		       COALESCE(response, ''::bytea), COALESCE(response_status, 0), COALESCE(response_content_type, ''),
		       updated_at, expires_at
		FROM sys_idempotency
		WHERE idempotency_key = $1
		FOR UPDATE`

	resetIdempotencyKey = `
		UPDATE sys_idempotency
		SET actor = $2, operation = $3, status = $4, request_hash = $5,
		    response = NULL, response_status = NULL, response_content_type = NULL,
		    updated_at = $6, expires_at = $7
		WHERE idempotency_key = $1`

	finishIdempotencyKey = `
		UPDATE sys_idempotency
		SET status = $2, response = $3, response_status = $4, response_content_type = $5,
		    updated_at = $6, expires_at = $7
		WHERE idempotency_key = $1`
)

// Acquire implements cache.IdempotencyStore. The key row is locked while the
// existing record is inspected, so two racing requests see a consistent state.
func (s *IdempotencyStore) Acquire(ctx context.Context, req cache.IdempotencyRequest) (*cache.IdempotencyReplay, error) {
	var replay *cache.IdempotencyReplay
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		replay = nil
		q := s.txManager.GetQuerier(ctx)
		now := s.now()
		expiresAt := now.Add(s.ttl)

		tag, err := q.Exec(ctx, insertIdempotencyKey,
			req.Key, req.Actor, req.Operation, cache.IdempotencyStatusPending, req.RequestHash, now, expiresAt)
		if err != nil {
			return fmt.Errorf("acquire idempotency key: %w", err)
		}
		if tag.RowsAffected() == 1 {
			return nil
		}

		var (
			rec     cache.IdempotencyRecord
			expires time.Time
		)
		err = q.QueryRow(ctx, selectIdempotencyKey, req.Key).Scan(
			&rec.Actor, &rec.Operation, &rec.Status, &rec.RequestHash,
			&rec.Body, &rec.StatusCode, &rec.ContentType,
			&rec.UpdatedAt, &expires,
		)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				// removed by cleanup between the two statements
				return fmt.Errorf("acquire idempotency key %q: row vanished", req.Key)
			}
			return fmt.Errorf("load idempotency key: %w", err)
		}

		reclaim := now.After(expires)
		if !reclaim {
			replay, reclaim, err = cache.Decide(req, rec, now)
			if err != nil || replay != nil {
				return err
			}
		}
		if reclaim {
			if _, err := q.Exec(ctx, resetIdempotencyKey,
				req.Key, req.Actor, req.Operation, cache.IdempotencyStatusPending, req.RequestHash, now, expiresAt); err != nil {
				return fmt.Errorf("reclaim idempotency key: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return replay, nil
}

// Complete marks key as finished with a successful response.
func (s *IdempotencyStore) Complete(ctx context.Context, key string, statusCode int, contentType string, body []byte) error {
	return s.finish(ctx, key, cache.IdempotencyStatusSuccess, statusCode, contentType, body)
}

// Fail marks key as finished with an error response, which is replayed too.
func (s *IdempotencyStore) Fail(ctx context.Context, key string, statusCode int, contentType string, body []byte) error {
	return s.finish(ctx, key, cache.IdempotencyStatusFailed, statusCode, contentType, body)
}

func (s *IdempotencyStore) finish(ctx context.Context, key string, status cache.IdempotencyStatus, statusCode int, contentType string, body []byte) error {
	now := s.now()
	_, err := s.txManager.GetQuerier(ctx).Exec(ctx, finishIdempotencyKey,
		key, status, body, statusCode, contentType, now, now.Add(s.ttl))
	if err != nil {
		return fmt.Errorf("finish idempotency key: %w", err)
	}
	return nil
}

// CleanupExpired removes expired idempotency records.
func (s *IdempotencyStore) CleanupExpired(ctx context.Context) (int64, error) {
	result, err := s.txManager.GetQuerier(ctx).Exec(ctx,
		`DELETE FROM sys_idempotency WHERE expires_at < $1`, s.now())
	if err != nil {
		return 0, fmt.Errorf("cleanup idempotency: %w", err)
	}
	return result.RowsAffected(), nil
}
