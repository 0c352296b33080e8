package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hyperengineering/cellar/internal/catalog"
	"github.com/hyperengineering/cellar/internal/similarity"
	"github.com/spf13/cobra"
)

var (
	listQuery        string
	listSort         string
	listShowConsumed bool
	listLimit        int
	listFilters      []string
	similarLimit     int
)

var winesCmd = &cobra.Command{
	Use:   "wines",
	Short: "Query the collection",
	Long:  "Search and rank the collection directly from the database without running the server.",
}

var winesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List wines matching a search",
	Args:  cobra.NoArgs,
	RunE:  runWinesList,
}

var winesExportCmd = &cobra.Command{
	Use:   "export-added",
	Short: "Write the collector's overlay wines as JSON",
	Long: "Print the wines added in the collector overlay as a JSON array " +
		"that \"import catalog --user-added\" accepts.",
	Args: cobra.NoArgs,
	RunE: runWinesExport,
}

var winesSimilarCmd = &cobra.Command{
	Use:   "similar <id>",
	Short: "Rank the wines most similar to one wine",
	Args:  cobra.ExactArgs(1),
	RunE:  runWinesSimilar,
}

func init() {
	winesCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false,
		"Output in JSON format")

	winesListCmd.Flags().StringVar(&listQuery, "q", "",
		"Free-text search")
	winesListCmd.Flags().StringVar(&listSort, "sort", "",
		"Sort order (drink-soon, status-priority, producer-az, wine-name-az, vintage-newest, vintage-oldest, region, rating)")
	winesListCmd.Flags().BoolVar(&listShowConsumed, "show-consumed", false,
		"Include wines with no bottles remaining")
	winesListCmd.Flags().IntVar(&listLimit, "limit", 0,
		"Maximum number of wines to show (0 shows all)")
	winesListCmd.Flags().StringArrayVar(&listFilters, "filter", nil,
		"Attribute filter as key=value, e.g. country=France (repeatable)")

	winesSimilarCmd.Flags().IntVar(&similarLimit, "limit", similarity.DefaultLimit,
		"Number of matches to show")

	winesCmd.AddCommand(winesListCmd)
	winesCmd.AddCommand(winesSimilarCmd)
	winesCmd.AddCommand(winesExportCmd)
}

// listValues renders the list flags as the query parameters the HTTP
// listing accepts.
func listValues() (url.Values, error) {
	v := url.Values{}
	for _, f := range listFilters {
		key, value, ok := strings.Cut(f, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid filter %q: want key=value", f)
		}
		v.Set(key, value)
	}
	if listQuery != "" {
		v.Set("q", listQuery)
	}
	if listSort != "" {
		v.Set("sort", listSort)
	}
	if listShowConsumed {
		v.Set("showConsumed", "true")
	}
	if listLimit != 0 {
		v.Set("limit", strconv.Itoa(listLimit))
	}
	return v, nil
}

func runWinesList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	values, err := listValues()
	if err != nil {
		return err
	}
	q, err := catalog.QueryFromValues(values)
	if err != nil {
		return err
	}

	svc, closeFn, err := openLocalService(ctx, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closeFn()

	listing, err := svc.List(ctx, q)
	if err != nil {
		return fmt.Errorf("list wines: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), listing)
	}

	if len(listing.Wines) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No wines found.")
		return nil
	}

	year := time.Now().Year()
	w := newTabWriter(cmd.OutOrStdout())
	fmt.Fprintln(w, "ID\tPRODUCER\tNAME\tVINTAGE\tREGION\tSTATUS")
	for i := range listing.Wines {
		wn := &listing.Wines[i]
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			wn.ID,
			orDash(wn.Producer),
			orDash(wn.Name),
			orDash(wn.Vintage),
			orDash(wn.Region),
			catalog.DrinkWindowStatus(wn, year),
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\n%d of %d wines shown. %d bottles across %d active wines.\n",
		len(listing.Wines), listing.Total, listing.Stats.TotalBottles, listing.Stats.ActiveWines)
	return nil
}

func runWinesSimilar(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if similarLimit < 1 {
		return errors.New("--limit must be at least 1")
	}

	svc, closeFn, err := openLocalService(ctx, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closeFn()

	matches, err := svc.Similar(ctx, args[0], similarLimit)
	if err != nil {
		return fmt.Errorf("similar wines for %s: %w", args[0], err)
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"matches": matches,
		})
	}

	if len(matches) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No similar wines found.")
		return nil
	}

	w := newTabWriter(cmd.OutOrStdout())
	fmt.Fprintln(w, "SCORE\tID\tPRODUCER\tNAME\tVINTAGE\tREASONS")
	for _, m := range matches {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			m.Score,
			m.Wine.ID,
			orDash(m.Wine.Producer),
			orDash(m.Wine.Name),
			orDash(m.Wine.Vintage),
			strings.Join(m.MatchReasons, "; "),
		)
	}
	return w.Flush()
}

func runWinesExport(cmd *cobra.Command, args []string) error {
	svc, closeFn, err := openLocalService(context.Background(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closeFn()

	return svc.ExportAddedWines(cmd.OutOrStdout())
}
