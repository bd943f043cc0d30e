package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pable/matchstats/internal/config"
	"github.com/pable/matchstats/internal/logging"
	"github.com/pable/matchstats/internal/storage"
)

var (
	configPath    string
	coreStatsPath string
	matchInfoPath string
	backupDir     string
	logLevel      string
	logFormat     string
	metricsFile   string
)

// Resolved by PersistentPreRunE before any subcommand runs.
var (
	cfg    *config.Config
	logger *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:   "matchstats",
	Short: "Match stats CSV pipeline",
	Long: `Turn wide per-match stat exports into two long-lived datasets:
core_stats.csv (one row per metric value) and match_info.csv (one row per match).`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	defaults := config.New()
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "YAML config file (default $"+config.EnvPrefix+"CONFIG)")
	pf.StringVar(&coreStatsPath, "core-stats", defaults.CoreStatsPath, "path to the core stats dataset")
	pf.StringVar(&matchInfoPath, "match-info", defaults.MatchInfoPath, "path to the match info dataset")
	pf.StringVar(&backupDir, "backup-dir", defaults.BackupDir, "directory for dataset backups")
	pf.StringVar(&logLevel, "log-level", defaults.LogLevel, "log level: debug, info, warn, error")
	pf.StringVar(&logFormat, "log-format", defaults.LogFormat, "log format: text or json")
	pf.StringVar(&metricsFile, "metrics-file", "", "write Prometheus textfile metrics here after ingest")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(sqlCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(shellCmd)
}

func setup(cmd *cobra.Command, args []string) error {
	c, err := config.Load(configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	override := func(name string, dst *string, val string) {
		if flags.Changed(name) {
			*dst = val
		}
	}
	override("core-stats", &c.CoreStatsPath, coreStatsPath)
	override("match-info", &c.MatchInfoPath, matchInfoPath)
	override("backup-dir", &c.BackupDir, backupDir)
	override("log-level", &c.LogLevel, logLevel)
	override("log-format", &c.LogFormat, logFormat)
	override("metrics-file", &c.MetricsFile, metricsFile)
	if err := c.Validate(); err != nil {
		return err
	}

	l, err := logging.New(cmd.ErrOrStderr(), c.LogLevel, c.LogFormat)
	if err != nil {
		return err
	}
	cfg, logger = c, l
	logger.WithFields(logrus.Fields{
		"core_stats": c.CoreStatsPath,
		"match_info": c.MatchInfoPath,
		"backup_dir": c.BackupDir,
	}).Debug("configuration loaded")
	return nil
}

func paths() storage.Paths {
	return storage.Paths{
		CoreStats: cfg.CoreStatsPath,
		MatchInfo: cfg.MatchInfoPath,
		BackupDir: cfg.BackupDir,
	}
}

// openQueryDB loads both datasets into in-memory SQLite.
func openQueryDB() (*storage.QueryDB, error) {
	core, info, err := storage.Open(paths()).LoadAll()
	if err != nil {
		return nil, err
	}
	db, err := storage.OpenQueryDB(core, info)
	if err != nil {
		return nil, fmt.Errorf("open query db: %w", err)
	}
	return db, nil
}
