package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pable/matchstats/internal/report"
	"github.com/pable/matchstats/internal/storage"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all ingested matches",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	core, info, err := storage.Open(paths()).LoadAll()
	if err != nil {
		return err
	}
	if len(info) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No matches stored yet. Run 'matchstats ingest --file <csv> --match_id <id> --date <YYYY-MM-DD>' to add one.")
		return nil
	}

	db, err := storage.OpenQueryDB(core, info)
	if err != nil {
		return fmt.Errorf("open query db: %w", err)
	}
	defer db.Close()

	counts, err := db.CoreRowCounts()
	if err != nil {
		return fmt.Errorf("count core rows: %w", err)
	}
	report.PrintMatchTable(cmd.OutOrStdout(), info, counts)
	return nil
}
