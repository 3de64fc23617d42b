// Package context provides request-scoped values extraction.
package context

import (
	"context"
)

// Actor identifies who triggers a transition. It is recorded on documents
// (approvedBy) and in logs; authentication happens upstream.
type Actor struct {
	Name string
}

type actorContextKey struct{}

// WithActor adds Actor to context.
func WithActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// GetActor returns Actor from context.
func GetActor(ctx context.Context) *Actor {
	if v, ok := ctx.Value(actorContextKey{}).(*Actor); ok {
		return v
	}
	return nil
}

// GetActorName returns actor name from context or "system".
func GetActorName(ctx context.Context) string {
	if a := GetActor(ctx); a != nil && a.Name != "" {
		return a.Name
	}
	return "system"
}
