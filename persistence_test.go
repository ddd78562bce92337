package zeen_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/goliatone/go-zeen"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenDB_UnsupportedDriver(t *testing.T) {
	_, err := zeen.OpenDB("oracle", "whatever")
	assert.Error(t, err)
}

func TestMigrations(t *testing.T) {
	migrations, err := zeen.NewMigrations()
	require.NoError(t, err)
	assert.Len(t, migrations.Sorted(), 4)
}

func TestMigrateAndRollback(t *testing.T) {
	ctx := context.Background()
	db, err := zeen.OpenDB(zeen.DriverSQLite, fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	defer db.Close()

	group, err := zeen.Migrate(ctx, db)
	require.NoError(t, err)
	assert.False(t, group.IsZero())

	group, err = zeen.Migrate(ctx, db)
	require.NoError(t, err)
	assert.True(t, group.IsZero())

	_, err = db.NewSelect().Model((*zeen.User)(nil)).Count(ctx)
	require.NoError(t, err)

	_, err = zeen.Rollback(ctx, db)
	require.NoError(t, err)

	_, err = db.NewSelect().Model((*zeen.User)(nil)).Count(ctx)
	assert.Error(t, err)
}

func TestSQLiteDSN(t *testing.T) {
	tests := []struct {
		name string
		dsn  string
	}{
		{name: "no query", dsn: "file:data.sqlite"},
		{name: "with query", dsn: "file:x?mode=memory&cache=shared"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := zeen.SQLiteDSN(tt.dsn)
			assert.True(t, strings.HasPrefix(out, tt.dsn))
			assert.Contains(t, out, "foreign_keys")
			assert.Equal(t, 1, strings.Count(out, "?"))
			assert.Equal(t, out, zeen.SQLiteDSN(out))
		})
	}
}

func TestOpenDB_ForeignKeysOnEveryConnection(t *testing.T) {
	ctx := context.Background()
	db, err := zeen.OpenDB(zeen.DriverSQLite, fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	defer db.Close()

	for i := 0; i < 2; i++ {
		var enabled int
		require.NoError(t, db.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&enabled))
		assert.Equal(t, 1, enabled)
		// the next query has to open a new connection
		db.SetMaxIdleConns(0)
	}
}
