package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/hyperengineering/cellar/internal/cellar"
	"github.com/hyperengineering/cellar/internal/overlay"
	"github.com/hyperengineering/cellar/internal/validation"
	"github.com/hyperengineering/cellar/internal/wine"
	"github.com/spf13/cobra"
)

var importUserAdded bool

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load data into the collection database",
	Long:  "Bulk load a catalog export or migrate a collector overlay without running the server.",
}

var importCatalogCmd = &cobra.Command{
	Use:   "catalog <file.json>",
	Short: "Upsert wines from a JSON catalog export",
	Args:  cobra.ExactArgs(1),
	RunE:  runImportCatalog,
}

var importOverlayCmd = &cobra.Command{
	Use:   "overlay [file.json]",
	Short: "Migrate a collector overlay into the database",
	Long: "Write an exported overlay into the database. Without a file the " +
		"configured overlay is migrated and then emptied.",
	Args: cobra.MaximumNArgs(1),
	RunE: runImportOverlay,
}

func init() {
	importCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false,
		"Output in JSON format")
	importCatalogCmd.Flags().BoolVar(&importUserAdded, "user-added", false,
		"Mark imported wines as collector additions")

	importCmd.AddCommand(importCatalogCmd)
	importCmd.AddCommand(importOverlayCmd)
}

// readCatalogFile accepts either a bare array of wine records or an object
// with a "wines" array.
func readCatalogFile(path string) ([]wine.Wine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var records []map[string]any
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		var doc struct {
			Wines []map[string]any `json:"wines"`
		}
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, fmt.Errorf("parse catalog: %w", err)
		}
		records = doc.Wines
	} else if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	wines := make([]wine.Wine, len(records))
	for i, r := range records {
		wines[i] = wine.FromRecord(r)
	}
	return wines, nil
}

func runImportCatalog(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	wines, err := readCatalogFile(args[0])
	if err != nil {
		return err
	}

	// Validate every batch before writing any of them.
	var batches [][]wine.Wine
	for start := 0; start < len(wines) || start == 0; start += validation.MaxImportBatch {
		batch := wines[start:min(start+validation.MaxImportBatch, len(wines))]
		if errs := validation.ValidateImport(batch); len(errs) > 0 {
			for _, e := range errs {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", e.Field, e.Message)
			}
			return fmt.Errorf("catalog %s has %d invalid fields", args[0], len(errs))
		}
		batches = append(batches, batch)
	}

	svc, closeFn, err := openLocalService(ctx, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closeFn()

	var total int
	for _, batch := range batches {
		n, err := svc.Import(ctx, batch, importUserAdded)
		if err != nil {
			return fmt.Errorf("import catalog: %w", err)
		}
		total += n
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"success": true,
			"count":   total,
		})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d wines.\n", total)
	return nil
}

func runImportOverlay(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	var src *overlay.State
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open overlay: %w", err)
		}
		src, err = overlay.Decode(f)
		f.Close()
		if err != nil {
			return err
		}
	}

	svc, closeFn, err := openLocalService(ctx, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closeFn()

	var report *cellar.MigrationReport
	if src != nil {
		report, err = svc.ImportOverlay(ctx, src)
	} else {
		report, err = svc.MigrateOverlay(ctx)
	}
	if err != nil {
		return fmt.Errorf("migrate overlay: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), report)
	}

	w := newTabWriter(cmd.OutOrStdout())
	fmt.Fprintf(w, "Added wines:\t%d\n", report.AddedWines)
	fmt.Fprintf(w, "Consumption events:\t%d\n", report.ConsumptionEvents)
	fmt.Fprintf(w, "Notes:\t%d\n", report.Notes)
	fmt.Fprintf(w, "Purchase dates:\t%d\n", report.PurchaseDates)
	fmt.Fprintf(w, "Deleted wines:\t%d\n", report.DeletedWines)
	return w.Flush()
}
