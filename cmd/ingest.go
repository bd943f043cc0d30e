package cmd

import (
	"github.com/spf13/cobra"

	"github.com/pable/matchstats/internal/metrics"
	"github.com/pable/matchstats/internal/pipeline"
	"github.com/pable/matchstats/internal/report"
	"github.com/pable/matchstats/internal/storage"
)

var (
	ingestFile    string
	ingestMatchID string
	ingestDate    string
)

// ingestCmd appends one wide export to both datasets.
var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Append one match export to the datasets",
	Long: `Read a wide match export (data rows followed by four metadata rows:
matchSurface, matchLevel, matchType, matchResult), reshape it to one row per
metric value and append it to core_stats and match_info.

Both datasets are checked for the match_id before anything is written. The
previous dataset files are copied to the backup directory before each append.`,
	Example: "  matchstats ingest --file export.csv --match_id wimbledon-2024-f --date 2024-07-14",
	Args:    cobra.NoArgs,
	RunE:    runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestFile, "file", "", "wide CSV export to ingest")
	ingestCmd.Flags().StringVar(&ingestMatchID, "match_id", "", "unique identifier of the match")
	ingestCmd.Flags().StringVar(&ingestDate, "date", "", "match date (YYYY-MM-DD)")
	for _, name := range []string{"file", "match_id", "date"} {
		_ = ingestCmd.MarkFlagRequired(name)
	}
}

func runIngest(cmd *cobra.Command, args []string) error {
	rec := metrics.New()
	p := pipeline.New(storage.Open(paths()),
		pipeline.WithLogger(logger),
		pipeline.WithMetrics(rec),
	)

	res, err := p.Run(pipeline.Request{
		InputPath: ingestFile,
		MatchID:   ingestMatchID,
		MatchDate: ingestDate,
	})
	writeMetrics(rec)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	report.PrintSuccess(out, ingestMatchID)
	report.PrintIngestSummary(out, report.SummaryFromCommit(
		res.Match, res.DataRows, res.MetricColumns, res.NullValues, res.Commit))
	return nil
}

// writeMetrics writes the textfile when configured. A failure here is logged
// and does not change the command result.
func writeMetrics(rec *metrics.Recorder) {
	if cfg.MetricsFile == "" {
		return
	}
	if err := rec.WriteTextfile(cfg.MetricsFile); err != nil {
		logger.WithError(err).WithField("path", cfg.MetricsFile).Warn("could not write metrics file")
	}
}
