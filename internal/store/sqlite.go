package store

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const memoryDSN = ":memory:"

// sqlitePragmas are applied by the driver to every pooled connection.
var sqlitePragmas = []string{
	"journal_mode(WAL)",
	"busy_timeout(5000)",
	"foreign_keys(1)",
	"synchronous(NORMAL)",
}

// sqliteDSN appends the connection pragmas to a database path.
func sqliteDSN(path string) string {
	q := url.Values{"_pragma": sqlitePragmas}
	return path + "?" + q.Encode()
}

// NewSQLiteStore opens the SQLite database at dbPath, creating its directory
// if needed, and migrates it. ":memory:" gives a private in-memory database.
func NewSQLiteStore(dbPath string) (*SQLStore, error) {
	if dbPath != memoryDSN {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", sqliteDSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == memoryDSN {
		// A second connection would see a different, empty database.
		db.SetMaxOpenConns(1)
	}

	if err := Migrate(context.Background(), db, DriverSQLite); err != nil {
		db.Close()
		return nil, err
	}
	return newSQLStore(db, DriverSQLite), nil
}
