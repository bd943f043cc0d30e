package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pable/matchstats/internal/report"
	"github.com/pable/matchstats/internal/storage"
)

// summaryCmd is the cobra command for displaying a high-level dataset overview.
var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show a high-level overview of the datasets",
	Long: `Display aggregate statistics about all stored matches:
match count, date range, core row and null value totals, and the
distribution of matches by surface, level, type, result and year.`,
	Args: cobra.NoArgs,
	RunE: runSummary,
}

var summaryBreakdowns = []struct {
	title  string
	column string
}{
	{"Surface", "match_surface"},
	{"Level", "match_level"},
	{"Type", "match_type"},
	{"Result", "match_result"},
	{"Year", "match_year"},
}

func runSummary(cmd *cobra.Command, args []string) error {
	db, err := openQueryDB()
	if err != nil {
		return err
	}
	defer db.Close()

	ov, err := db.GetOverview()
	if err != nil {
		return fmt.Errorf("get overview: %w", err)
	}
	if ov.TotalMatches == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No matches stored yet. Run 'matchstats ingest' to add one.")
		return nil
	}

	breakdowns := make(map[string][]storage.GroupCount, len(summaryBreakdowns))
	order := make([]string, 0, len(summaryBreakdowns))
	for _, b := range summaryBreakdowns {
		counts, err := db.GetMatchCounts(b.column)
		if err != nil {
			return fmt.Errorf("count by %s: %w", b.column, err)
		}
		breakdowns[b.title] = counts
		order = append(order, b.title)
	}
	report.PrintOverview(cmd.OutOrStdout(), ov, breakdowns, order)
	return nil
}
