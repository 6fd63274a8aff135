package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Source
		Reading
		Shelf
		Tasks
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	Source struct {
		// APIURL is the base URL of the book-source aggregation API.
		APIURL string
	}
	Reading struct {
		// MinContentLength is the healthy-content threshold in runes.
		MinContentLength int
		// ExtraMarkers extends the restricted-content marker list.
		ExtraMarkers []string
		// PrefetchEnabled toggles background read-ahead.
		PrefetchEnabled bool
	}
	Shelf struct {
		RefreshEnabled  bool
		RefreshSchedule string // Cron format: "0 */6 * * *" = every 6 hours
	}
	Tasks struct {
		Enabled           bool
		Workers           int
		MaxRetries        int
		RetryDelay        time.Duration
		TaskTimeout       time.Duration
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8189)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("source_api_url", DefaultSourceAPIURL)

	// Reading engine defaults
	v.SetDefault("reading_min_content_length", 50)
	v.SetDefault("reading_extra_markers", "")
	v.SetDefault("reading_prefetch_enabled", true)

	// Shelf update-check defaults
	v.SetDefault("shelf_refresh_enabled", false)
	v.SetDefault("shelf_refresh_schedule", "0 */6 * * *") // Every 6 hours

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_max_retries", 3)
	v.SetDefault("task_retry_delay", "1m")
	v.SetDefault("task_timeout", "5m")
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Source: Source{
			APIURL: strings.TrimRight(v.GetString("SOURCE_API_URL"), "/"),
		},
		Reading: Reading{
			MinContentLength: v.GetInt("READING_MIN_CONTENT_LENGTH"),
			ExtraMarkers:     splitMarkers(v.GetString("READING_EXTRA_MARKERS")),
			PrefetchEnabled:  v.GetBool("READING_PREFETCH_ENABLED"),
		},
		Shelf: Shelf{
			RefreshEnabled:  v.GetBool("SHELF_REFRESH_ENABLED"),
			RefreshSchedule: v.GetString("SHELF_REFRESH_SCHEDULE"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			Workers:           v.GetInt("TASK_WORKERS"),
			MaxRetries:        v.GetInt("TASK_MAX_RETRIES"),
			RetryDelay:        v.GetDuration("TASK_RETRY_DELAY"),
			TaskTimeout:       v.GetDuration("TASK_TIMEOUT"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
	}
}

// splitMarkers parses a comma-separated marker list from the environment.
func splitMarkers(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	markers := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			markers = append(markers, trimmed)
		}
	}
	return markers
}
