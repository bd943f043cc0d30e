package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/pable/matchstats/internal/report"
)

var errIntegrity = errors.New("dataset integrity check failed")

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check that core_stats and match_info agree",
	Long: `Check that every match_id occurs once in match_info and that every
core_stats row belongs to a match in match_info. Exits non-zero on a violation.
Matches without core_stats rows are reported as a warning only.`,
	Args: cobra.NoArgs,
	RunE: runVerify,
}

func runVerify(cmd *cobra.Command, args []string) error {
	db, err := openQueryDB()
	if err != nil {
		return err
	}
	defer db.Close()

	rep, err := db.CheckIntegrity()
	if err != nil {
		return err
	}
	report.PrintIntegrityReport(cmd.OutOrStdout(), rep)
	if !rep.OK() {
		return errIntegrity
	}
	return nil
}
