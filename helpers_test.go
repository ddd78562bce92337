package zeen_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/goliatone/go-zeen"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	adminEmail string
}

func (c testConfig) GetSigningKey() string         { return "zeen-test-signing-key" }
func (c testConfig) GetIssuer() string             { return "zeen-test" }
func (c testConfig) GetTokenExpiration() int       { return 1 }
func (c testConfig) GetExtendedTokenDuration() int { return 24 }
func (c testConfig) GetActionTokenExpiration() int { return 3600 }
func (c testConfig) GetAdminEmail() string         { return c.adminEmail }

type silentLogger struct{}

func (silentLogger) Debug(string, ...any) {}
func (silentLogger) Info(string, ...any)  {}
func (silentLogger) Warn(string, ...any)  {}
func (silentLogger) Error(string, ...any) {}

type capturingSink struct {
	mu     sync.Mutex
	events []zeen.ActivityEvent
}

func (c *capturingSink) Record(_ context.Context, evt zeen.ActivityEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, evt)
	return nil
}

func (c *capturingSink) types() []zeen.ActivityEventType {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]zeen.ActivityEventType, 0, len(c.events))
	for _, evt := range c.events {
		out = append(out, evt.EventType)
	}
	return out
}

type fixture struct {
	ctx      context.Context
	repo     zeen.RepositoryManager
	tokens   zeen.TokenService
	accounts *zeen.Accounts
}

// newFixture opens a private in-memory database with migrations applied
// and roles seeded.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctx := context.Background()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())

	db, err := zeen.OpenDB(zeen.DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = zeen.Migrate(ctx, db)
	require.NoError(t, err)

	repo := zeen.NewRepositoryManager(db)
	require.NoError(t, repo.Validate())
	require.NoError(t, repo.Roles().InsertRoles(ctx))

	tokens := zeen.NewTokenService(testConfig{}, silentLogger{})

	return &fixture{
		ctx:      ctx,
		repo:     repo,
		tokens:   tokens,
		accounts: zeen.NewAccounts(repo, tokens).WithLogger(silentLogger{}),
	}
}

// user registers an account with the given role name and loads it back
// with its role.
func (f *fixture) user(t *testing.T, email, username, password, role string) *zeen.User {
	t.Helper()

	user, err := zeen.NewUser(email, username, password)
	require.NoError(t, err)

	r, err := f.repo.Roles().GetByName(f.ctx, role)
	require.NoError(t, err)
	user.AssignRole(r)

	_, err = f.repo.Users().Register(f.ctx, user)
	require.NoError(t, err)

	loaded, err := f.repo.Users().FindWithRole(f.ctx, user.ID.String())
	require.NoError(t, err)
	return loaded
}

func (f *fixture) reload(t *testing.T, user *zeen.User) *zeen.User {
	t.Helper()
	loaded, err := f.repo.Users().FindWithRole(f.ctx, user.ID.String())
	require.NoError(t, err)
	return loaded
}
