package tenant

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/agencykit/pkg/logger"
)

type ctxKey struct{}

// WithID stores the tenant a request operates on.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func IDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// Extractor adds tenant_id to log records.
func Extractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		id := IDFromContext(ctx)
		if id == "" {
			return slog.Attr{}, false
		}
		return logger.TenantID(id), true
	}
}
