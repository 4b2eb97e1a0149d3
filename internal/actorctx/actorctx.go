// Package actorctx carries the authenticated caller on a context.Context so
// code below the HTTP layer can read it without importing gin.
package actorctx

import (
	"context"

	"github.com/geocoder89/taskhub/internal/auth"
)

type ctxKey struct{}

func WithIdentity(ctx context.Context, id auth.Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func IdentityFrom(ctx context.Context) (auth.Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(auth.Identity)

	return id, ok && id.ID != ""
}

func UserIDFrom(ctx context.Context) (string, bool) {
	id, ok := IdentityFrom(ctx)
	return id.ID, ok
}
