package zeen

// Identity is anything a permission check can run against
type Identity interface {
	Can(p Permission) bool
	IsAdministrator() bool
	IsAnonymous() bool
}

var (
	_ Identity = (*User)(nil)
	_ Identity = AnonymousUser{}
)

// Can reports whether the user's role grants every bit in p.
// A user with no loaded role can do nothing.
func (u *User) Can(p Permission) bool {
	if u == nil {
		return false
	}
	return u.Role.Has(p)
}

// IsAdministrator is shorthand for Can(PermissionAdminister)
func (u *User) IsAdministrator() bool {
	return u.Can(PermissionAdminister)
}

func (u *User) IsAnonymous() bool {
	return false
}

// AnonymousUser stands in for a visitor that is not logged in
type AnonymousUser struct{}

// Anonymous is the shared visitor identity
var Anonymous Identity = AnonymousUser{}

func (AnonymousUser) Can(Permission) bool { return false }

func (AnonymousUser) IsAdministrator() bool { return false }

func (AnonymousUser) IsAnonymous() bool { return true }

// RequirePermission returns ErrForbidden unless identity has p
func RequirePermission(identity Identity, p Permission) error {
	if identity == nil || !identity.Can(p) {
		return ErrForbidden
	}
	return nil
}

// RequireAdmin returns ErrForbidden for everyone but administrators
func RequireAdmin(identity Identity) error {
	return RequirePermission(identity, PermissionAdminister)
}

// WithPermission runs fn only when identity has p
func WithPermission(identity Identity, p Permission, fn func() error) error {
	if err := RequirePermission(identity, p); err != nil {
		return err
	}
	return fn()
}
