package zeen_test

import (
	"testing"
	"time"

	"github.com/goliatone/go-zeen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccounts_ValidConfirmationToken(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "john@example.com", "john", "cat", zeen.RoleUser)

	token, err := f.accounts.GenerateConfirmationToken(u, 0)
	require.NoError(t, err)

	ok, err := f.accounts.Confirm(f.ctx, u, token)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, u.Confirmed)
	assert.True(t, f.reload(t, u).Confirmed)
}

func TestAccounts_InvalidConfirmationToken(t *testing.T) {
	f := newFixture(t)
	u1 := f.user(t, "john@example.com", "john", "cat", zeen.RoleUser)
	u2 := f.user(t, "susan@example.com", "susan", "dog", zeen.RoleUser)

	token, err := f.accounts.GenerateConfirmationToken(u1, 0)
	require.NoError(t, err)

	ok, err := f.accounts.Confirm(f.ctx, u2, token)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, f.reload(t, u2).Confirmed)
}

func TestAccounts_ExpiredConfirmationToken(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "john@example.com", "john", "cat", zeen.RoleUser)

	token, err := f.accounts.GenerateConfirmationToken(u, time.Second)
	require.NoError(t, err)

	time.Sleep(2 * time.Second)

	ok, err := f.accounts.Confirm(f.ctx, u, token)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, f.reload(t, u).Confirmed)
}

func TestAccounts_GarbageToken(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "john@example.com", "john", "cat", zeen.RoleUser)

	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		ok, err := f.accounts.Confirm(f.ctx, u, token)
		require.NoError(t, err)
		assert.False(t, ok, token)
	}
}

func TestAccounts_TokenForWrongAction(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "john@example.com", "john", "cat", zeen.RoleUser)

	reset, err := f.accounts.GenerateResetToken(u, 0)
	require.NoError(t, err)

	ok, err := f.accounts.Confirm(f.ctx, u, reset)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAccounts_ValidResetToken(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "john@example.com", "john", "cat", zeen.RoleUser)

	token, err := f.accounts.GenerateResetToken(u, 0)
	require.NoError(t, err)

	ok, err := f.accounts.ResetPassword(f.ctx, u, token, "dog")
	require.NoError(t, err)
	assert.True(t, ok)

	stored := f.reload(t, u)
	assert.True(t, stored.VerifyPassword("dog"))
	assert.False(t, stored.VerifyPassword("cat"))
}

func TestAccounts_InvalidResetToken(t *testing.T) {
	f := newFixture(t)
	u1 := f.user(t, "john@example.com", "john", "cat", zeen.RoleUser)
	u2 := f.user(t, "susan@example.com", "susan", "dog", zeen.RoleUser)

	token, err := f.accounts.GenerateResetToken(u1, 0)
	require.NoError(t, err)

	ok, err := f.accounts.ResetPassword(f.ctx, u2, token, "horse")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, f.reload(t, u2).VerifyPassword("dog"))
}

func TestAccounts_ResetRejectsEmptyPassword(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "john@example.com", "john", "cat", zeen.RoleUser)

	token, err := f.accounts.GenerateResetToken(u, 0)
	require.NoError(t, err)

	ok, err := f.accounts.ResetPassword(f.ctx, u, token, "")
	assert.ErrorIs(t, err, zeen.ErrNoEmptyString)
	assert.False(t, ok)
	assert.True(t, f.reload(t, u).VerifyPassword("cat"))
}

func TestAccounts_ResetPasswordWithToken(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "john@example.com", "john", "cat", zeen.RoleUser)

	token, err := f.accounts.GenerateResetToken(u, 0)
	require.NoError(t, err)

	ok, err := f.accounts.ResetPasswordWithToken(f.ctx, token, "dog")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, f.reload(t, u).VerifyPassword("dog"))

	ok, err = f.accounts.ResetPasswordWithToken(f.ctx, "garbage", "dog")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAccounts_ValidEmailChangeToken(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "john@example.com", "john", "cat", zeen.RoleUser)

	token, err := f.accounts.GenerateEmailChangeToken(u, "susan@example.org", 0)
	require.NoError(t, err)

	ok, err := f.accounts.ChangeEmail(f.ctx, u, token)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "susan@example.org", u.Email)
	assert.Equal(t, "susan@example.org", f.reload(t, u).Email)
}

func TestAccounts_InvalidEmailChangeToken(t *testing.T) {
	f := newFixture(t)
	u1 := f.user(t, "john@example.com", "john", "cat", zeen.RoleUser)
	u2 := f.user(t, "susan@example.org", "susan", "dog", zeen.RoleUser)

	token, err := f.accounts.GenerateEmailChangeToken(u1, "david@example.net", 0)
	require.NoError(t, err)

	ok, err := f.accounts.ChangeEmail(f.ctx, u2, token)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "susan@example.org", f.reload(t, u2).Email)
}

func TestAccounts_DuplicateEmailChangeToken(t *testing.T) {
	f := newFixture(t)
	f.user(t, "john@example.com", "john", "cat", zeen.RoleUser)
	u2 := f.user(t, "susan@example.org", "susan", "dog", zeen.RoleUser)

	token, err := f.accounts.GenerateEmailChangeToken(u2, "john@example.com", 0)
	require.NoError(t, err)

	ok, err := f.accounts.ChangeEmail(f.ctx, u2, token)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "susan@example.org", f.reload(t, u2).Email)
}

func TestAccounts_EmitsEvents(t *testing.T) {
	f := newFixture(t)
	sink := &capturingSink{}
	accounts := zeen.NewAccounts(f.repo, f.tokens).
		WithLogger(silentLogger{}).
		WithActivitySink(sink)

	u := f.user(t, "john@example.com", "john", "cat", zeen.RoleUser)

	token, err := accounts.GenerateConfirmationToken(u, 0)
	require.NoError(t, err)
	ok, err := accounts.Confirm(f.ctx, u, token)
	require.NoError(t, err)
	require.True(t, ok)

	token, err = accounts.GenerateEmailChangeToken(u, "john@example.org", 0)
	require.NoError(t, err)
	ok, err = accounts.ChangeEmail(f.ctx, u, token)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, []zeen.ActivityEventType{
		zeen.ActivityEventConfirmed,
		zeen.ActivityEventEmailChanged,
	}, sink.types())
	assert.Equal(t, "john@example.org", sink.events[1].Metadata["to"])
}

func TestAccounts_Ping(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "john@example.com", "john", "cat", zeen.RoleUser)
	before := u.LastSeen

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, f.accounts.Ping(f.ctx, u))

	assert.True(t, u.LastSeen.After(before))
	assert.True(t, f.reload(t, u).LastSeen.After(before))
}
