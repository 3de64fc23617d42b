package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"orderflow/internal/domain/documents"
)

// DefaultTransitionStream is the stream key transitions are appended to.
const DefaultTransitionStream = "orderflow:transitions"

// TransitionStream appends document transitions to a Redis stream so that
// other services can follow the pipeline with XREAD or consumer groups.
type TransitionStream struct {
	client *redis.Client
	key    string
	maxLen int64
}

// NewTransitionStream creates a stream writer. maxLen caps the stream length
// approximately; zero leaves it unbounded.
func NewTransitionStream(client *redis.Client, key string, maxLen int64) *TransitionStream {
	if key == "" {
		key = DefaultTransitionStream
	}
	return &TransitionStream{client: client, key: key, maxLen: maxLen}
}

// Publish appends t. eventID is carried as a field so consumers can drop
// duplicates of a redelivered event.
func (s *TransitionStream) Publish(ctx context.Context, eventID string, t documents.Transition) (string, error) {
	args := &redis.XAddArgs{
		Stream: s.key,
		Values: map[string]any{
			"event_id":    eventID,
			"document_id": t.DocumentID.String(),
			"document":    t.Document,
			"document_no": t.Number,
			"action":      t.Action,
			"from":        t.From,
			"to":          t.To,
		},
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}

	streamID, err := s.client.XAdd(ctx, args).Result()
	if err != nil {
		return "", fmt.Errorf("cache: xadd %s: %w", s.key, err)
	}
	return streamID, nil
}
