package zeen

import (
	"context"

	"github.com/goliatone/go-router"
)

var userCtxKey = &contextKey{"user"}

type contextKey struct {
	name string
}

// LocalsUserKey is where the session middleware stores the current user
const LocalsUserKey = "current_user"

// WithContext sets the User in the given context
func WithContext(r context.Context, user *User) context.Context {
	return context.WithValue(r, userCtxKey, user)
}

// FromContext finds the user from the context.
func FromContext(ctx context.Context) (*User, bool) {
	raw, ok := ctx.Value(userCtxKey).(*User)
	return raw, ok && raw != nil
}

// IdentityFromContext returns the logged in user or Anonymous
func IdentityFromContext(ctx context.Context) Identity {
	if user, ok := FromContext(ctx); ok {
		return user
	}
	return Anonymous
}

// GetRouterUser extracts the current user from the router context
func GetRouterUser(ctx router.Context) (*User, bool) {
	raw := ctx.Locals(LocalsUserKey)
	if raw == nil {
		return FromContext(ctx.Context())
	}
	user, ok := raw.(*User)
	return user, ok && user != nil
}

// CurrentIdentity is IdentityFromContext for router contexts
func CurrentIdentity(ctx router.Context) Identity {
	if user, ok := GetRouterUser(ctx); ok {
		return user
	}
	return Anonymous
}

// Can is a convenience function to check permissions directly from the standard context
func Can(ctx context.Context, p Permission) bool {
	return IdentityFromContext(ctx).Can(p)
}
