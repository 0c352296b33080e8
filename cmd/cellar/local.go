package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/hyperengineering/cellar/internal/cellar"
	"github.com/hyperengineering/cellar/internal/config"
	"github.com/hyperengineering/cellar/internal/images"
	"github.com/hyperengineering/cellar/internal/overlay"
	"github.com/hyperengineering/cellar/internal/store"
)

// jsonOutput is shared by the offline subcommands.
var jsonOutput bool

// openStore opens the configured database and applies migrations.
func openStore(ctx context.Context, cfg config.DatabaseConfig) (*store.SQLStore, error) {
	dsn := cfg.Path
	if cfg.Driver == store.DriverPostgres {
		dsn = cfg.DSN
	}
	return store.Open(ctx, cfg.Driver, dsn)
}

// openLocalService builds a collection service over the local database for
// commands that run without the server. Logs go to logOut so that command
// output stays machine readable. The returned func closes the database.
func openLocalService(ctx context.Context, logOut io.Writer) (*cellar.Service, func(), error) {
	cfg, err := config.LoadLocal()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	slog.SetDefault(newLogger(logOut, cfg.Log))

	db, err := openStore(ctx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	ov, err := overlay.Load(cfg.Overlay.Path)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	img, err := images.NewStore(cfg.Images)
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	svc := cellar.New(db, ov, img, nil, cellar.Options{
		OverlayPath:     cfg.Overlay.Path,
		EnforceQuantity: cfg.Collection.EnforceQuantity,
	})
	closeFn := func() {
		if err := db.Close(); err != nil {
			slog.Error("store close error", "error", err)
		}
	}
	return svc, closeFn, nil
}

// printJSON marshals v to JSON and writes to the given writer.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newTabWriter returns a configured tabwriter for aligned columns.
func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

// orDash renders empty cells as "-".
func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
