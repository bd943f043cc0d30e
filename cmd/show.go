package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pable/matchstats/internal/model"
	"github.com/pable/matchstats/internal/report"
	"github.com/pable/matchstats/internal/storage"
)

var showCmd = &cobra.Command{
	Use:   "show <match_id>",
	Short: "Show the stored metrics of one match",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	matchID := args[0]
	core, info, err := storage.Open(paths()).LoadAll()
	if err != nil {
		return err
	}

	var match *model.MatchInfo
	for i := range info {
		if info[i].MatchID == matchID {
			match = &info[i]
			break
		}
	}
	var rows []model.CoreStatRow
	for _, r := range core {
		if r.MatchID == matchID {
			rows = append(rows, r)
		}
	}
	if match == nil && len(rows) == 0 {
		return fmt.Errorf("no match with match_id %q", matchID)
	}

	out := cmd.OutOrStdout()
	if match != nil {
		report.PrintMatchTable(out, []model.MatchInfo{*match}, map[string]int{matchID: len(rows)})
		fmt.Fprintln(out)
	}
	report.PrintCoreStatsTable(out, rows)
	return nil
}
