package main

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/franz/suno-archive/internal/browser"
	"github.com/franz/suno-archive/internal/extract"
	"github.com/franz/suno-archive/internal/output"
	"github.com/franz/suno-archive/internal/report"
	"github.com/franz/suno-archive/internal/song"
	"github.com/franz/suno-archive/internal/store"
	"github.com/franz/suno-archive/internal/util"
)

// setDefaults registers every configuration key with its default value.
// Precedence is flag, then SUNOARC_* environment variable, then config file,
// then these defaults.
func setDefaults(v *viper.Viper) {
	v.SetDefault("db", "suno_library.db")
	v.SetDefault("db_network", false)
	v.SetDefault("artifacts", "artifacts")

	v.SetDefault("browser.debug_url", "http://127.0.0.1:9222")
	v.SetDefault("browser.base_url", song.DefaultBaseURL)
	v.SetDefault("browser.timeout", 30*time.Second)

	v.SetDefault("extract.tabs", []string{"creations"})
	v.SetDefault("extract.formats", []string{"json", "csv", "md"})
	v.SetDefault("extract.output_dir", "suno_songs")
	v.SetDefault("extract.details", true)
	v.SetDefault("extract.exclude_disliked", true)
	v.SetDefault("extract.scroll_pause", extract.DefaultScrollPause)
	v.SetDefault("extract.max_scrolls", extract.DefaultMaxIterations)
	v.SetDefault("extract.max_pages", extract.DefaultMaxPages)
	v.SetDefault("extract.detail_delay", extract.DefaultDetailDelay)
	v.SetDefault("extract.skip_db", false)

	v.SetDefault("backup.dir", "backups")
	v.SetDefault("link.concurrency", 4)
}

// extractConfigFrom builds the extraction settings from configuration.
func extractConfigFrom(v *viper.Viper) (*extract.Config, error) {
	formats, err := output.ParseFormats(v.GetStringSlice("extract.formats"))
	if err != nil {
		return nil, err
	}
	if len(formats) == 0 {
		return nil, fmt.Errorf("%w: at least one output format is required", util.ErrInvalidConfig)
	}

	tabs := v.GetStringSlice("extract.tabs")
	for _, tab := range tabs {
		if tab != "creations" && tab != "likes" {
			return nil, fmt.Errorf("%w: unknown tab %q (use creations or likes)", util.ErrInvalidConfig, tab)
		}
	}

	cfg := extract.DefaultConfig()
	cfg.BaseURL = v.GetString("browser.base_url")
	cfg.Tabs = tabs
	cfg.Formats = formats
	cfg.OutputDir = v.GetString("extract.output_dir")
	cfg.ExtractDetails = v.GetBool("extract.details")
	cfg.ExcludeDisliked = v.GetBool("extract.exclude_disliked")
	cfg.ScrollPause = v.GetDuration("extract.scroll_pause")
	cfg.DetailDelay = v.GetDuration("extract.detail_delay")
	cfg.MaxScrolls = GetConfigInt(v, "extract.max_scrolls", extract.DefaultMaxIterations)
	cfg.MaxPages = GetConfigInt(v, "extract.max_pages", extract.DefaultMaxPages)
	return cfg, nil
}

// browserConfigFrom builds the browser attachment settings.
func browserConfigFrom(v *viper.Viper) *browser.Config {
	cfg := browser.DefaultConfig()
	cfg.DebugURL = GetConfigString(v, "browser.debug_url", cfg.DebugURL)
	if d := v.GetDuration("browser.timeout"); d > 0 {
		cfg.Timeout = d
	}
	return cfg
}

// GetConfigString returns a string value, or defaultValue when unset or empty.
func GetConfigString(v *viper.Viper, key string, defaultValue string) string {
	val := v.GetString(key)
	if val == "" {
		return defaultValue
	}
	return val
}

// GetConfigInt returns an int value, or defaultValue when unset or not positive.
func GetConfigInt(v *viper.Viper, key string, defaultValue int) int {
	val := v.GetInt(key)
	if val <= 0 {
		return defaultValue
	}
	return val
}

// openStore opens the catalog named by the db key.
func openStore() (*store.Store, error) {
	return openStoreFrom(viper.GetViper())
}

// openStoreFrom opens the catalog at db, with network filesystem pragmas
// when db_network is set.
func openStoreFrom(v *viper.Viper) (*store.Store, error) {
	dbPath := v.GetString("db")
	db, err := store.OpenWithOptions(dbPath, &store.OpenOptions{NetworkOptimized: v.GetBool("db_network")})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if v.GetBool("db_network") {
		util.DebugLog("Opened %s with network pragmas", dbPath)
	}
	return db, nil
}

// newEventLogger creates the JSONL event log under the artifacts directory.
// On failure it warns and returns a logger that discards events.
func newEventLogger() *report.EventLogger {
	logLevel := report.LevelInfo
	if viper.GetBool("quiet") {
		logLevel = report.LevelWarning
	} else if viper.GetBool("verbose") {
		logLevel = report.LevelDebug
	}

	logger, err := report.NewEventLogger(viper.GetString("artifacts"), logLevel)
	if err != nil {
		util.WarnLog("Failed to create event logger: %v", err)
		return report.NullLogger()
	}
	if logger.Path() != "" {
		util.DebugLog("Event log: %s", logger.Path())
	}
	return logger
}
