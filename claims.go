package zeen

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenAction scopes a signed token to a single account operation
type TokenAction string

const (
	ActionConfirm     TokenAction = "confirm"
	ActionReset       TokenAction = "reset"
	ActionChangeEmail TokenAction = "change_email"
)

func (a TokenAction) Valid() bool {
	switch a {
	case ActionConfirm, ActionReset, ActionChangeEmail:
		return true
	default:
		return false
	}
}

// ActionClaims is the payload of confirm, reset and change email tokens
type ActionClaims struct {
	jwt.RegisteredClaims
	Action   TokenAction `json:"action"`
	NewEmail string      `json:"new_email,omitempty"`
}

// UserID returns the subject the token was issued for
func (c *ActionClaims) UserID() string {
	return c.Subject
}

// Expires returns the expiration time or zero
func (c *ActionClaims) Expires() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// SessionClaims is the payload of a logged in session token
type SessionClaims struct {
	jwt.RegisteredClaims
	Username    string     `json:"username,omitempty"`
	Role        string     `json:"role,omitempty"`
	Permissions Permission `json:"perm"`
	RememberMe  bool       `json:"remember_me,omitempty"`
}

var _ Identity = (*SessionClaims)(nil)

// UserID returns the user id
func (c *SessionClaims) UserID() string {
	return c.Subject
}

// Can checks the permissions captured at login time
func (c *SessionClaims) Can(p Permission) bool {
	if c == nil {
		return false
	}
	return c.Permissions&p == p
}

func (c *SessionClaims) IsAdministrator() bool {
	return c.Can(PermissionAdminister)
}

func (c *SessionClaims) IsAnonymous() bool {
	return false
}

// Expires returns the expiration time or zero
func (c *SessionClaims) Expires() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}
