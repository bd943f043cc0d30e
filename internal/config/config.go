// Package config holds the dataset locations and process settings.
//
// Settings are layered, lowest precedence first:
//  1. defaults (New)
//  2. a .env file in the working directory, if present
//  3. a YAML file named by --config or MATCHSTATS_CONFIG
//  4. MATCHSTATS_* environment variables
//  5. explicitly set command-line flags (applied by the caller)
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "MATCHSTATS_"

// Config contains process configuration.
type Config struct {
	// CoreStatsPath is the long-format dataset file.
	CoreStatsPath string `koanf:"core_stats"`

	// MatchInfoPath is the one-row-per-match dataset file.
	MatchInfoPath string `koanf:"match_info"`

	// BackupDir receives <dataset>_backup.csv before each append.
	BackupDir string `koanf:"backup_dir"`

	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat is "text" or "json".
	LogFormat string `koanf:"log_format"`

	// MetricsFile, when set, receives Prometheus textfile metrics after ingest.
	MetricsFile string `koanf:"metrics_file"`
}

// New returns a Config with defaults.
func New() *Config {
	return &Config{
		CoreStatsPath: "core_stats.csv",
		MatchInfoPath: "match_info.csv",
		BackupDir:     "backup",
		LogLevel:      "info",
		LogFormat:     "text",
	}
}

// Load builds a Config from defaults, an optional .env file, the YAML file at
// path (or MATCHSTATS_CONFIG when path is empty) and MATCHSTATS_* variables.
func Load(path string) (*Config, error) {
	base := New()

	// A missing .env is the normal case.
	_ = godotenv.Load()

	k := koanf.New(".")

	if path == "" {
		path = os.Getenv(EnvPrefix + "CONFIG")
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	// MATCHSTATS_CORE_STATS -> core_stats, matching the flat koanf tags.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings that have no usable fallback.
func (c *Config) Validate() error {
	if c.CoreStatsPath == "" {
		return errors.New("core_stats path must not be empty")
	}
	if c.MatchInfoPath == "" {
		return errors.New("match_info path must not be empty")
	}
	if c.BackupDir == "" {
		return errors.New("backup_dir must not be empty")
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format: %s", c.LogFormat)
	}
	return nil
}
