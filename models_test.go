package zeen_test

import (
	"testing"

	"github.com/goliatone/go-zeen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUser_PasswordSetter(t *testing.T) {
	u, err := zeen.NewUser("john@example.com", "john", "cat")
	require.NoError(t, err)
	assert.NotEmpty(t, u.PasswordHash)
	assert.NotEqual(t, "cat", u.PasswordHash)
}

func TestUser_NoPasswordGetter(t *testing.T) {
	u, err := zeen.NewUser("john@example.com", "john", "cat")
	require.NoError(t, err)

	value, err := u.Password()
	assert.ErrorIs(t, err, zeen.ErrPasswordNotReadable)
	assert.Empty(t, value)
}

func TestUser_PasswordVerification(t *testing.T) {
	u, err := zeen.NewUser("john@example.com", "john", "cat")
	require.NoError(t, err)

	assert.True(t, u.VerifyPassword("cat"))
	assert.False(t, u.VerifyPassword("dog"))
	assert.False(t, u.VerifyPassword(""))
}

func TestUser_PasswordSaltsAreRandom(t *testing.T) {
	u1, err := zeen.NewUser("john@example.com", "john", "cat")
	require.NoError(t, err)
	u2, err := zeen.NewUser("susan@example.com", "susan", "cat")
	require.NoError(t, err)

	assert.NotEqual(t, u1.PasswordHash, u2.PasswordHash)
}

func TestUser_SetPasswordRejectsEmpty(t *testing.T) {
	u := &zeen.User{}
	err := u.SetPassword("")
	assert.ErrorIs(t, err, zeen.ErrNoEmptyString)
	assert.Empty(t, u.PasswordHash)

	_, err = zeen.NewUser("john@example.com", "john", "")
	assert.Error(t, err)
}

func TestUser_VerifyWithoutHash(t *testing.T) {
	var nilUser *zeen.User
	assert.False(t, nilUser.VerifyPassword("cat"))
	assert.False(t, (&zeen.User{}).VerifyPassword("cat"))
}

func TestNewUser_Normalizes(t *testing.T) {
	u, err := zeen.NewUser("  John@Example.COM ", " john ", "cat")
	require.NoError(t, err)

	assert.Equal(t, "john@example.com", u.Email)
	assert.Equal(t, "john", u.Username)
	assert.False(t, u.MemberSince.IsZero())
	assert.Equal(t, u.MemberSince, u.LastSeen)
	assert.False(t, u.Confirmed)
}

func TestUser_AssignRole(t *testing.T) {
	role := &zeen.Role{Name: zeen.RoleUser, Permissions: zeen.PermissionFollow}
	u := &zeen.User{}

	u.AssignRole(role)
	require.NotNil(t, u.RoleID)
	assert.Equal(t, role.ID, *u.RoleID)
	assert.Same(t, role, u.Role)

	u.AssignRole(nil)
	assert.Nil(t, u.RoleID)
	assert.Nil(t, u.Role)
}

func TestComparePasswordAndHash(t *testing.T) {
	hash, err := zeen.HashPassword("testPassword123!")
	require.NoError(t, err)

	assert.NoError(t, zeen.ComparePasswordAndHash("testPassword123!", hash))
	assert.ErrorIs(t, zeen.ComparePasswordAndHash("wrong", hash), zeen.ErrMismatchedHashAndPassword)
	assert.Error(t, zeen.ComparePasswordAndHash("testPassword123!", "not-a-hash"))
}
