package auth

import (
	"context"

	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
)

type ctxKey struct{}

// WithIdentity returns a copy of ctx carrying the authenticated identity.
func WithIdentity(ctx context.Context, id models.UserIdentity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// IdentityFromContext returns the identity stored by WithIdentity.
func IdentityFromContext(ctx context.Context) (models.UserIdentity, bool) {
	id, ok := ctx.Value(ctxKey{}).(models.UserIdentity)
	return id, ok
}
