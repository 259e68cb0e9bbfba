// Package config defines engine configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"

	"github.com/rinkrat/featurecast/internal/domain/situation"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// MetricsAddr exposes prometheus metrics during long bulk builds.
	// Empty disables the listener.
	MetricsAddr string `koanf:"metrics_addr"`

	// WorkerCount sets the number of bulk build workers.
	WorkerCount int `koanf:"worker_count"`

	// SchemaVersion tags the feature schema; bulk datasets and serving
	// vectors carry it so a version skew is visible instead of silent.
	SchemaVersion string `koanf:"schema_version"`

	// Windows are the rolling window sizes, in games.
	Windows []int `koanf:"windows"`

	// RollingStats are rolled up over each window.
	RollingStats []string `koanf:"rolling_stats"`

	// SeasonStats get season-to-date differentials.
	SeasonStats []string `koanf:"season_stats"`

	// Seasons lists every known season, oldest first. Ordering is explicit;
	// season identifiers are never compared as strings.
	Seasons []string `koanf:"seasons"`

	// TrainingSeasons is the subset of Seasons rows are built from.
	TrainingSeasons []string `koanf:"training_seasons"`

	// DecayFactor down-weights older training seasons; 1.0 disables decay.
	DecayFactor float64 `koanf:"decay_factor"`

	// RestLookbackDays bounds how far back a prior game still counts
	// toward rest; PostBreakDays is the layoff threshold.
	RestLookbackDays int `koanf:"rest_lookback_days"`
	PostBreakDays    int `koanf:"post_break_days"`

	// WatchTeams get per-team calibration indicator features.
	WatchTeams []string `koanf:"watch_teams"`

	// GamesFile is the collector's JSON export; RedisAddr, when set, reads
	// the collector's cache instead.
	GamesFile   string `koanf:"games_file"`
	RedisAddr   string `koanf:"redis_addr"`
	RedisPrefix string `koanf:"redis_prefix"`

	// Tables are the static division and venue mappings.
	Tables situation.Tables `koanf:"tables"`
}

// New creates a Config with defaults. Seasons and TrainingSeasons have no
// sensible defaults and must come from configuration.
func New() *Config {
	return &Config{
		LogLevel:      "info",
		WorkerCount:   runtime.NumCPU(),
		SchemaVersion: "v70",
		Windows:       []int{3, 5, 10},
		RollingStats: []string{
			"goal_diff", "xg_diff", "shot_share",
			"high_danger_diff", "faceoff_win_pct", "saves_above_expected",
		},
		SeasonStats: []string{
			"goal_diff", "xg_diff", "shot_share", "win",
		},
		DecayFactor:      0.8,
		RestLookbackDays: 30,
		PostBreakDays:    7,
		RedisPrefix:      "game:",
		Tables:           situation.DefaultTables(),
	}
}
