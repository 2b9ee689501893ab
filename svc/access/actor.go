package access

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/agencykit/pkg/logger"
)

type actorKey struct{}

// WithActor stores the authenticated actor id.
func WithActor(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, actorKey{}, actorID)
}

// ActorFromContext returns the actor id, or "" for anonymous requests.
func ActorFromContext(ctx context.Context) string {
	id, _ := ctx.Value(actorKey{}).(string)
	return id
}

// Extractor adds actor_id to log records.
func Extractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		id := ActorFromContext(ctx)
		if id == "" {
			return slog.Attr{}, false
		}
		return logger.ActorID(id), true
	}
}
