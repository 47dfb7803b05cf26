// Package config provides centralized configuration loaded from environment
// variables. Shared by both cmd/api and cmd/ingest.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/albapepper/courtstats/internal/storage"
)

// --------------------------------------------------------------------------
// Defaults for the history table and league tag
// --------------------------------------------------------------------------

const (
	// DefaultHistoryTable holds one row per player, season and team.
	DefaultHistoryTable = "player_totals"
	DefaultLeague       = "NBA"
	DefaultSeason       = 2025

	// FGMetricColumn receives scraped field-goal percentage.
	FGMetricColumn = "fg_percent"
)

// --------------------------------------------------------------------------
// Config struct, populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// Database
	DBKind          string // postgres, sqlite
	DatabaseURL     string
	DemoDatabaseURL string
	DBPoolMinConns  int
	DBPoolMaxConns  int
	DBPoolMaxLife   time.Duration

	// API server
	APIHost     string
	APIPort     int
	Environment string // development, staging, production
	Debug       bool

	// CORS
	CORSAllowOrigins []string

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Uploads
	UploadDir   string
	MaxUploadMB int

	// Schema inference
	SchemaSampleRows int

	// Reconciliation
	HistoryTable      string
	CurrentSeason     int
	League            string
	FGSourceURL       string
	ScrapeTimeout     time.Duration
	ScrapeMaxPages    int
	ReconcileInterval time.Duration

	// External API keys
	BDLAPIKey string

	// Cache
	CacheEnabled bool
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	dbURL := envOr("DATABASE_URL", envOr("POSTGRES_URL", ""))
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL or POSTGRES_URL must be set")
	}
	sampleRows, err := SchemaSampleRows()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DBKind:          strings.ToLower(envOr("DB_KIND", "postgres")),
		DatabaseURL:     dbURL,
		DemoDatabaseURL: envOr("DEMO_DATABASE_URL", ""),
		DBPoolMinConns:  envInt("DB_POOL_MIN_CONNS", 2),
		DBPoolMaxConns:  envInt("DB_POOL_MAX_CONNS", 10),
		DBPoolMaxLife:   time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,

		APIHost:     envOr("API_HOST", "0.0.0.0"),
		APIPort:     envInt("API_PORT", envInt("PORT", 3000)),
		Environment: envOr("ENVIRONMENT", "development"),
		Debug:       envBool("DEBUG", false),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5173",
		}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		UploadDir:   envOr("UPLOAD_DIR", os.TempDir()),
		MaxUploadMB: envInt("MAX_UPLOAD_MB", 64),

		SchemaSampleRows: sampleRows,

		HistoryTable:      envOr("HISTORY_TABLE", DefaultHistoryTable),
		CurrentSeason:     envInt("CURRENT_SEASON", DefaultSeason),
		League:            envOr("LEAGUE", DefaultLeague),
		FGSourceURL:       envOr("FG_SOURCE_URL", ""),
		ScrapeTimeout:     envDuration("SCRAPE_TIMEOUT_SECONDS", 60*time.Second, time.Second),
		ScrapeMaxPages:    envInt("SCRAPE_MAX_PAGES", 20),
		ReconcileInterval: envDuration("RECONCILE_INTERVAL_MINUTES", 0, time.Minute),

		BDLAPIKey: envOr("BALLDONTLIE_API_KEY", ""),

		CacheEnabled: envBool("CACHE_ENABLED", true),
	}

	return cfg, nil
}

// SchemaSampleRows reads SCHEMA_SAMPLE_ROWS on its own, for callers that
// infer a schema without a database.
func SchemaSampleRows() (int, error) {
	n := envInt("SCHEMA_SAMPLE_ROWS", 1)
	if n < 1 {
		return 0, fmt.Errorf("SCHEMA_SAMPLE_ROWS must be >= 1, got %d", n)
	}
	return n, nil
}

// StorageConfig returns the store settings for dsn, so the primary and demo
// databases share pool sizing and backend kind.
func (c *Config) StorageConfig(dsn string) storage.Config {
	return storage.Config{
		Kind:            c.DBKind,
		DSN:             dsn,
		MinConns:        c.DBPoolMinConns,
		MaxConns:        c.DBPoolMaxConns,
		MaxConnLifetime: c.DBPoolMaxLife,
	}
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

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

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

// envDuration reads an integer count of unit from key.
func envDuration(key string, fallback, unit time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return time.Duration(n) * unit
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
