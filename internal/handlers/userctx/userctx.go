package userctx

import (
	"context"

	"github.com/andrekirst/familyauth/internal/models"
)

type ctxKey string

const userKey ctxKey = "user"

// Create a new context with the authenticated user
func New(ctx context.Context, u models.AuthenticatedUser) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// Extract the authenticated user from the context
func FromContext(ctx context.Context) (models.AuthenticatedUser, bool) {
	u, ok := ctx.Value(userKey).(models.AuthenticatedUser)
	return u, ok
}
