package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/hyperengineering/cellar/migrations"
	"github.com/pressly/goose/v3"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

// Open connects to the database for driver. For SQLite the DSN is a file
// path.
func Open(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	switch driver {
	case DriverSQLite, "":
		return NewSQLiteStore(dsn)
	case DriverPostgres:
		return NewPostgresStore(ctx, dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// gooseDialects maps database/sql driver names to goose dialects. The
// embedded schema uses portable DDL, so both drivers share one set of files.
var gooseDialects = map[string]goose.Dialect{
	DriverSQLite:   goose.DialectSQLite3,
	DriverPostgres: goose.DialectPostgres,
}

// Migrate brings db up to the latest embedded schema version. It is safe to
// call on an already migrated database.
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	dialect, ok := gooseDialects[driver]
	if !ok {
		return fmt.Errorf("unsupported database driver %q", driver)
	}

	provider, err := goose.NewProvider(dialect, db, migrations.FS)
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	for _, res := range results {
		slog.Debug("migration applied",
			"component", "store",
			"driver", driver,
			"version", res.Source.Version,
			"duration_ms", res.Duration.Milliseconds(),
		)
	}
	return nil
}
