package zeen

import (
	"net/http"
	"strings"

	"github.com/goliatone/go-router"
)

// SessionMiddleware resolves the bearer token into the current user and
// refreshes last_seen once per LastSeenResolution. Requests without a valid token continue as
// Anonymous.
func SessionMiddleware(auther *Auther, accounts *Accounts, logger Logger) router.MiddlewareFunc {
	logger = normalizeLogger(logger)
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			token := BearerToken(ctx.Header("Authorization"))
			if token == "" {
				return next(ctx)
			}

			user, err := auther.Authenticate(ctx.Context(), token)
			if err != nil {
				logger.Debug("ignoring session token: %v", err)
				return next(ctx)
			}

			if accounts != nil && NeedsPing(user) {
				if err := accounts.Ping(ctx.Context(), user); err != nil {
					logger.Warn("failed to ping %s: %v", user.ID, err)
				}
			}

			ctx.Locals(LocalsUserKey, user)
			ctx.SetContext(WithContext(ctx.Context(), user))
			return next(ctx)
		}
	}
}

// LoginRequired answers 401 for anonymous requests
func LoginRequired() router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			if CurrentIdentity(ctx).IsAnonymous() {
				return ctx.JSON(http.StatusUnauthorized, errorBody("authentication required", "UNAUTHORIZED", nil))
			}
			return next(ctx)
		}
	}
}

// PermissionRequired answers 403 unless the current identity has p
func PermissionRequired(p Permission) router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			if err := RequirePermission(CurrentIdentity(ctx), p); err != nil {
				return ctx.JSON(http.StatusForbidden, errorBody(ErrForbidden.Message, ErrForbidden.TextCode, map[string]any{
					"required": p.String(),
				}))
			}
			return next(ctx)
		}
	}
}

// AdminRequired is PermissionRequired(PermissionAdminister)
func AdminRequired() router.MiddlewareFunc {
	return PermissionRequired(PermissionAdminister)
}

// BearerToken extracts the token from an Authorization header value
func BearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
