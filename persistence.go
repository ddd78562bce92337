package zeen

import (
	"context"
	"database/sql"
	"embed"
	"io/fs"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/migrate"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// OpenDB opens a bun database for the given driver name and DSN.
// SQLite connections are limited to a single connection, so callers
// must run queries inside a transaction through the tx they are given.
func OpenDB(driver, dsn string) (*bun.DB, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", DriverSQLite, "sqlite3":
		sqldb, err := sql.Open(sqliteshim.ShimName, SQLiteDSN(dsn))
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryInternal, "failed to open sqlite database")
		}
		sqldb.SetMaxOpenConns(1)
		return bun.NewDB(sqldb, sqlitedialect.New()), nil
	case DriverPostgres, "postgresql", "pg":
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
		return bun.NewDB(sqldb, pgdialect.New()), nil
	default:
		return nil, errors.New("unsupported database driver", errors.CategoryBadInput).
			WithMetadata(map[string]any{"driver": driver})
	}
}

// SQLiteDSN adds the foreign_keys pragma to dsn in the form the driver
// picked by sqliteshim understands, so every new connection enforces
// ON DELETE CASCADE.
func SQLiteDSN(dsn string) string {
	if strings.Contains(dsn, "foreign_keys") {
		return dsn
	}

	param := "_pragma=foreign_keys(1)"
	if sqliteshim.DriverName() == "sqlite3" {
		param = "_foreign_keys=1"
	}

	if strings.Contains(dsn, "?") {
		return dsn + "&" + param
	}
	return dsn + "?" + param
}

//go:embed data/sql/migrations
var migrationsFS embed.FS

// MigrationsFS holds the bundled *.up.sql and *.down.sql files at its root
func MigrationsFS() (fs.FS, error) {
	return fs.Sub(migrationsFS, "data/sql/migrations")
}

// NewMigrations loads the bundled SQL migrations
func NewMigrations() (*migrate.Migrations, error) {
	sub, err := MigrationsFS()
	if err != nil {
		return nil, err
	}

	migrations := migrate.NewMigrations()
	if err := migrations.Discover(sub); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to discover migrations")
	}
	return migrations, nil
}

// Migrate applies every pending migration and returns the applied group
func Migrate(ctx context.Context, db *bun.DB) (*migrate.MigrationGroup, error) {
	migrator, err := newMigrator(ctx, db)
	if err != nil {
		return nil, err
	}

	group, err := migrator.Migrate(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to apply migrations")
	}
	return group, nil
}

// Rollback reverts the last applied migration group
func Rollback(ctx context.Context, db *bun.DB) (*migrate.MigrationGroup, error) {
	migrator, err := newMigrator(ctx, db)
	if err != nil {
		return nil, err
	}

	group, err := migrator.Rollback(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to rollback migrations")
	}
	return group, nil
}

func newMigrator(ctx context.Context, db *bun.DB) (*migrate.Migrator, error) {
	migrations, err := NewMigrations()
	if err != nil {
		return nil, err
	}

	migrator := migrate.NewMigrator(db, migrations)
	if err := migrator.Init(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to init migration tables")
	}
	return migrator, nil
}
