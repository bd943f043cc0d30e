package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/matchstats/internal/report"
)

var sqlCmd = &cobra.Command{
	Use:   "sql <query>",
	Short: "Run a raw SQL query against the datasets",
	Long: `Load both datasets into an in-memory SQLite database and print the query result as a table.

Schema:
  match_info(match_id, match_date, match_surface, match_level, match_type,
    match_result, match_month, match_year)
  core_stats(MetricCategory, MetricSubcategory, MetricType, MetricValue REAL,
    MetricLabel, match_id)

Empty values are NULL. Example:
  matchstats sql "SELECT MetricLabel, AVG(MetricValue) FROM core_stats WHERE MetricType = 'Player' GROUP BY 1"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSQL,
}

func runSQL(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	db, err := openQueryDB()
	if err != nil {
		return err
	}
	defer db.Close()

	cols, rows, err := db.QueryRaw(query)
	if err != nil {
		return err
	}
	report.PrintQueryResult(cmd.OutOrStdout(), cols, rows)
	return nil
}
