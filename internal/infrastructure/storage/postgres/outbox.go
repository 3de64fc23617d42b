package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"orderflow/internal/core/id"
	"orderflow/internal/domain/documents"
	"orderflow/internal/domain/pipeline"
)

// OutboxStatus represents the state of an outbox message.
type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusPublished OutboxStatus = "published"
	OutboxStatusFailed    OutboxStatus = "failed"
)

// EventTransitioned is the event type of a document status change.
const EventTransitioned = "document.transitioned"

// MaxOutboxRetries is the number of failed deliveries after which a message
// is marked failed and no longer picked up.
const MaxOutboxRetries = 5

// OutboxMessage is one row of sys_outbox.
type OutboxMessage struct {
	ID            id.ID        `db:"id"`
	AggregateType string       `db:"aggregate_type"` // document kind
	AggregateID   id.ID        `db:"aggregate_id"`
	EventType     string       `db:"event_type"`
	Payload       []byte       `db:"payload"`
	Status        OutboxStatus `db:"status"`
	RetryCount    int          `db:"retry_count"`
	LastError     *string      `db:"last_error"`
	NextRetryAt   *time.Time   `db:"next_retry_at"`
	CreatedAt     time.Time    `db:"created_at"`
	PublishedAt   *time.Time   `db:"published_at"`
}

// Transition decodes the payload of a transition event.
func (m *OutboxMessage) Transition() (documents.Transition, error) {
	var t documents.Transition
	if err := json.Unmarshal(m.Payload, &t); err != nil {
		return t, fmt.Errorf("decode outbox payload %s: %w", m.ID, err)
	}
	return t, nil
}

const insertOutbox = `
	INSERT INTO sys_outbox (id, aggregate_type, aggregate_id, event_type, payload, status, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`

// OutboxPublisher writes transitions to sys_outbox inside the change set
// transaction.
type OutboxPublisher struct {
	txManager *TxManager
	now       func() time.Time
}

var _ pipeline.EventSink = (*OutboxPublisher)(nil)

// NewOutboxPublisher creates a new outbox publisher.
func NewOutboxPublisher(txManager *TxManager) *OutboxPublisher {
	return &OutboxPublisher{txManager: txManager, now: time.Now}
}

// Record implements pipeline.EventSink.
// MUST be called inside a transaction context.
func (p *OutboxPublisher) Record(ctx context.Context, transitions []documents.Transition) error {
	tx := p.txManager.GetTx(ctx)
	if tx == nil {
		return fmt.Errorf("outbox publish requires transaction context")
	}

	batch := &pgx.Batch{}
	now := p.now().UTC()
	for _, t := range transitions {
		payload, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("marshal event payload: %w", err)
		}
		batch.Queue(insertOutbox, id.New(), t.Document, t.DocumentID, EventTransitioned, payload, OutboxStatusPending, now)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for range transitions {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("batch insert outbox message: %w", err)
		}
	}
	return nil
}

// OutboxHandler delivers one outbox message.
type OutboxHandler interface {
	Handle(ctx context.Context, msg *OutboxMessage) error
}

// OutboxHandlerFunc adapts a function to OutboxHandler.
type OutboxHandlerFunc func(ctx context.Context, msg *OutboxMessage) error

func (f OutboxHandlerFunc) Handle(ctx context.Context, msg *OutboxMessage) error { return f(ctx, msg) }

// OutboxRelay reads pending messages and hands them to a handler. Several
// relays may run at once: each batch is claimed with FOR UPDATE SKIP LOCKED
// and processed inside that transaction.
type OutboxRelay struct {
	txManager *TxManager
	batchSize int
	handler   OutboxHandler
	now       func() time.Time
}

// NewOutboxRelay creates a new outbox relay.
func NewOutboxRelay(txManager *TxManager, batchSize int, handler OutboxHandler) *OutboxRelay {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &OutboxRelay{
		txManager: txManager,
		batchSize: batchSize,
		handler:   handler,
		now:       time.Now,
	}
}

// RelayResult counts what one batch did.
type RelayResult struct {
	Published int
	Failed    int
}

// ProcessBatch claims and delivers up to batchSize pending messages in
// creation order. A failed delivery is retried later with a linear backoff.
func (r *OutboxRelay) ProcessBatch(ctx context.Context) (RelayResult, error) {
	var res RelayResult
	err := r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		res = RelayResult{}
		q := r.txManager.GetQuerier(ctx)

		var messages []*OutboxMessage
		err := pgxscan.Select(ctx, q, &messages, `
			SELECT id, aggregate_type, aggregate_id, event_type, payload, status,
			       retry_count, last_error, next_retry_at, created_at, published_at
			FROM sys_outbox
			WHERE status = $1
			  AND (next_retry_at IS NULL OR next_retry_at <= $2)
			ORDER BY created_at, id
			LIMIT $3
			FOR UPDATE SKIP LOCKED`,
			OutboxStatusPending, r.now().UTC(), r.batchSize)
		if err != nil {
			return fmt.Errorf("fetch outbox messages: %w", err)
		}

		for _, msg := range messages {
			if err := r.processMessage(ctx, q, msg); err != nil {
				return err
			}
			if msg.Status == OutboxStatusPublished {
				res.Published++
			} else {
				res.Failed++
			}
		}
		return nil
	})
	return res, err
}

// processMessage delivers msg and stores the outcome. Only database errors
// are returned; a handler error is recorded on the row.
func (r *OutboxRelay) processMessage(ctx context.Context, q Querier, msg *OutboxMessage) error {
	now := r.now().UTC()

	if handleErr := r.handler.Handle(ctx, msg); handleErr != nil {
		msg.RetryCount++
		next := now.Add(time.Duration(msg.RetryCount) * time.Minute)
		status := OutboxStatusPending
		if msg.RetryCount >= MaxOutboxRetries {
			status = OutboxStatusFailed
		}
		msg.Status = status

		_, err := q.Exec(ctx, `
			UPDATE sys_outbox
			SET retry_count = $1, last_error = $2, next_retry_at = $3, status = $4
			WHERE id = $5`,
			msg.RetryCount, handleErr.Error(), next, status, msg.ID)
		if err != nil {
			return fmt.Errorf("update failed message: %w", err)
		}
		return nil
	}

	msg.Status = OutboxStatusPublished
	_, err := q.Exec(ctx, `
		UPDATE sys_outbox
		SET status = $1, published_at = $2
		WHERE id = $3`,
		OutboxStatusPublished, now, msg.ID)
	if err != nil {
		return fmt.Errorf("mark message published: %w", err)
	}
	return nil
}

// Cleanup deletes published messages older than retention.
func (r *OutboxRelay) Cleanup(ctx context.Context, retention time.Duration) (int64, error) {
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, `
		DELETE FROM sys_outbox
		WHERE status = $1 AND published_at < $2`,
		OutboxStatusPublished, r.now().UTC().Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("cleanup outbox: %w", err)
	}
	return tag.RowsAffected(), nil
}
