package auth

import (
	"context"
	"errors"
)

// contextKey is an unexported type to prevent key collisions in context.
type contextKey string

const userKey contextKey = "user"

// ErrUserNotFound is returned when no user exists in the request context.
// Handlers should return 401 when this error occurs.
var ErrUserNotFound = errors.New("user not found in context")

// User is the authenticated caller as recorded in the session.
type User struct {
	ID   int64
	Name string
}

// UserFromCtx extracts the authenticated user from the request context.
// Returns ErrUserNotFound if no user is set (unauthenticated request).
func UserFromCtx(ctx context.Context) (User, error) {
	u, ok := ctx.Value(userKey).(User)
	if !ok || u.ID <= 0 {
		return User{}, ErrUserNotFound
	}
	return u, nil
}

// WithUser returns a new context with the given user attached.
// Used by the session middleware after validating the session.
func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, userKey, u)
}
