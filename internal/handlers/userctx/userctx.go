// Package userctx carries the user a request acts on behalf of.
package userctx

import (
	"context"

	"github.com/nkiryanov/petalert/internal/models"
)

type ctxKey string

const actorKey ctxKey = "actor"

// New returns ctx carrying the acting user
func New(ctx context.Context, u models.User) context.Context {
	return context.WithValue(ctx, actorKey, u)
}

func FromContext(ctx context.Context) (models.User, bool) {
	u, ok := ctx.Value(actorKey).(models.User)
	return u, ok
}

// MustFromContext is for handlers mounted behind the gate, where the user is always set
func MustFromContext(ctx context.Context) models.User {
	u, ok := FromContext(ctx)
	if !ok {
		panic("userctx: no user in context, is the handler gated?")
	}
	return u
}
