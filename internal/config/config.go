package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Book
	Manifest string
	Title    string

	// Output
	Output    string
	Format    string
	OutputDir string

	// TOC style
	TOCIndent int
	TOCLeader string

	// Build queue
	MaxQueueSize int

	// Job state
	JobTTL time.Duration

	// Build stats window
	StatsWindow time.Duration
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8091"),

		APIKey: os.Getenv("DOCBIND_API_KEY"),

		Manifest: envOr("DOCBIND_MANIFEST", "book.yaml"),
		Title:    os.Getenv("DOCBIND_TITLE"),

		Output:    os.Getenv("DOCBIND_OUTPUT"),
		Format:    envOr("DOCBIND_FORMAT", "docx"),
		OutputDir: os.Getenv("OUTPUT_DIR"),

		TOCIndent: envInt("TOC_INDENT", 360),
		TOCLeader: envOr("TOC_LEADER", "."),

		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 16),

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		StatsWindow: envDuration("STATS_WINDOW", 1*time.Hour),
	}

	if cfg.TOCIndent < 0 {
		cfg.TOCIndent = 360
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 16
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.StatsWindow <= 0 {
		cfg.StatsWindow = 1 * time.Hour
	}

	return cfg
}

// Validate checks the settings the HTTP server needs.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("DOCBIND_API_KEY is required")
	}
	if c.Manifest == "" {
		return fmt.Errorf("DOCBIND_MANIFEST is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
