// internal/application/usecase/context.go
package usecase

import (
	"context"

	"optivista/internal/application/auth"
)

type ctxKey string

const ctxKeyIdentity ctxKey = "identity"

// WithIdentity is used by the auth middleware to hand the verified caller down.
func WithIdentity(ctx context.Context, id *auth.Identity) context.Context {
	if id == nil {
		return ctx
	}
	return context.WithValue(ctx, ctxKeyIdentity, id)
}

// IdentityFromContext returns nil for anonymous requests.
func IdentityFromContext(ctx context.Context) *auth.Identity {
	id, _ := ctx.Value(ctxKeyIdentity).(*auth.Identity)
	return id
}
