package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/matchstats/internal/storage"
)

var restoreForce bool

// restoreCmd copies the backups back over the datasets.
var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore the datasets from their backups",
	Long:  "Overwrite core_stats and match_info with the copies in the backup directory, undoing the last ingest. Datasets without a backup are left alone.",
	Args:  cobra.NoArgs,
	RunE:  runRestore,
}

func init() {
	restoreCmd.Flags().BoolVarP(&restoreForce, "force", "f", false, "skip confirmation prompt")
}

func runRestore(cmd *cobra.Command, args []string) error {
	p := paths()
	if !restoreForce {
		fmt.Fprintf(cmd.ErrOrStderr(), "This will overwrite %s and %s with the copies in %s\n",
			p.CoreStats, p.MatchInfo, p.BackupDir)
		fmt.Fprintln(cmd.ErrOrStderr(), "Re-run with --force to confirm.")
		return nil
	}

	restored, err := storage.Open(p).RestoreBackups()
	if err != nil {
		return fmt.Errorf("restore backups: %w", err)
	}
	if len(restored) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No backups found, nothing to restore.")
		return nil
	}
	logger.WithField("datasets", restored).Info("datasets restored from backup")
	fmt.Fprintf(cmd.OutOrStdout(), "Restored: %s\n", strings.Join(restored, ", "))
	return nil
}
