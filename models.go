package zeen

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Permission is a single authorizable capability. Roles hold a union of them.
type Permission int64

const (
	PermissionFollow           Permission = 0x01
	PermissionComment          Permission = 0x02
	PermissionWriteContent     Permission = 0x04
	PermissionModerateComments Permission = 0x08
	PermissionAdminister       Permission = 0x80
)

// Role is a named bundle of permissions
type Role struct {
	bun.BaseModel `bun:"table:roles,alias:rl"`
	ID            uuid.UUID  `bun:"id,pk,nullzero" json:"id,omitempty"`
	Name          string     `bun:"name,notnull,unique" json:"name"`
	Default       bool       `bun:"is_default,notnull" json:"default"`
	Permissions   Permission `bun:"permissions,notnull" json:"permissions"`
}

// Has reports whether every bit in p is granted by the role
func (r *Role) Has(p Permission) bool {
	if r == nil {
		return false
	}
	return r.Permissions&p == p
}

// User is the account model
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero" json:"id,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Username      string     `bun:"username,notnull,unique" json:"username,omitempty"`
	PasswordHash  string     `bun:"password_hash" json:"-"`
	RoleID        *uuid.UUID `bun:"role_id" json:"role_id,omitempty"`
	Role          *Role      `bun:"rel:belongs-to,join:role_id=id" json:"role,omitempty"`
	Confirmed     bool       `bun:"confirmed,notnull" json:"confirmed"`
	Name          string     `bun:"name" json:"name,omitempty"`
	Location      string     `bun:"location" json:"location,omitempty"`
	AboutMe       string     `bun:"about_me" json:"about_me,omitempty"`
	Phone         string     `bun:"phone_number" json:"phone_number,omitempty"`
	MemberSince   time.Time  `bun:"member_since,notnull" json:"member_since"`
	LastSeen      time.Time  `bun:"last_seen,notnull" json:"last_seen"`
}

// NewUser builds an unsaved user with a hashed password.
func NewUser(email, username, password string) (*User, error) {
	now := time.Now().UTC()
	u := &User{
		ID:          uuid.New(),
		Email:       NormalizeEmail(email),
		Username:    strings.TrimSpace(username),
		MemberSince: now,
		LastSeen:    now,
	}
	if err := u.SetPassword(password); err != nil {
		return nil, err
	}
	return u, nil
}

// Password is write only, reading it back always fails.
func (u *User) Password() (string, error) {
	return "", ErrPasswordNotReadable
}

// SetPassword hashes the plaintext with a fresh salt and stores the hash
func (u *User) SetPassword(password string) error {
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

// VerifyPassword reports whether password matches the stored hash
func (u *User) VerifyPassword(password string) bool {
	if u == nil || u.PasswordHash == "" {
		return false
	}
	return ComparePasswordAndHash(password, u.PasswordHash) == nil
}

// AssignRole sets both the relation and the foreign key
func (u *User) AssignRole(role *Role) *User {
	u.Role = role
	if role == nil {
		u.RoleID = nil
		return u
	}
	id := role.ID
	u.RoleID = &id
	return u
}

// Follow is a directed edge: Follower receives Followed's content
type Follow struct {
	bun.BaseModel `bun:"table:follows,alias:fl"`
	FollowerID    uuid.UUID `bun:"follower_id,pk" json:"follower_id"`
	FollowedID    uuid.UUID `bun:"followed_id,pk" json:"followed_id"`
	Follower      *User     `bun:"rel:belongs-to,join:follower_id=id" json:"follower,omitempty"`
	Followed      *User     `bun:"rel:belongs-to,join:followed_id=id" json:"followed,omitempty"`
	CreatedAt     time.Time `bun:"created_at,notnull" json:"created_at"`
}

// Post is a short text entry
type Post struct {
	bun.BaseModel `bun:"table:posts,alias:pst"`
	ID            uuid.UUID `bun:"id,pk,nullzero" json:"id,omitempty"`
	Body          string    `bun:"body,notnull" json:"body"`
	BodyHTML      string    `bun:"body_html" json:"body_html,omitempty"`
	AuthorID      uuid.UUID `bun:"author_id,notnull" json:"author_id"`
	Author        *User     `bun:"rel:belongs-to,join:author_id=id" json:"author,omitempty"`
	CreatedAt     time.Time `bun:"created_at,notnull" json:"created_at"`
}

// NormalizeEmail lower cases and trims an address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
