package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("POSTGRES_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/nba_stats")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.DBKind)
	assert.Equal(t, DefaultHistoryTable, cfg.HistoryTable)
	assert.Equal(t, DefaultSeason, cfg.CurrentSeason)
	assert.Equal(t, DefaultLeague, cfg.League)
	assert.Equal(t, 1, cfg.SchemaSampleRows)
	assert.Equal(t, 60*time.Second, cfg.ScrapeTimeout)
	assert.Zero(t, cfg.ReconcileInterval)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "file:stats.db")
	t.Setenv("DB_KIND", "SQLite")
	t.Setenv("SCRAPE_TIMEOUT_SECONDS", "15")
	t.Setenv("RECONCILE_INTERVAL_MINUTES", "30")
	t.Setenv("CORS_ALLOW_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("ENVIRONMENT", "production")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DBKind)
	assert.Equal(t, 15*time.Second, cfg.ScrapeTimeout)
	assert.Equal(t, 30*time.Minute, cfg.ReconcileInterval)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowOrigins)
	assert.True(t, cfg.IsProduction())
}

func TestLoad_RejectsZeroSampleRows(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/nba_stats")
	t.Setenv("SCHEMA_SAMPLE_ROWS", "0")

	_, err := Load()
	require.Error(t, err)
}

func TestStorageConfig_SharesPoolSettings(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/nba_stats")
	t.Setenv("DEMO_DATABASE_URL", "postgres://localhost/nba_demo")
	t.Setenv("DB_POOL_MAX_CONNS", "4")

	cfg, err := Load()
	require.NoError(t, err)

	demo := cfg.StorageConfig(cfg.DemoDatabaseURL)
	assert.Equal(t, "postgres", demo.Kind)
	assert.Equal(t, "postgres://localhost/nba_demo", demo.DSN)
	assert.Equal(t, 4, demo.MaxConns)
	assert.Equal(t, 30*time.Minute, demo.MaxConnLifetime)
}

func TestSchemaSampleRows_WithoutDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("POSTGRES_URL", "")
	t.Setenv("SCHEMA_SAMPLE_ROWS", "3")

	n, err := SchemaSampleRows()
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	t.Setenv("SCHEMA_SAMPLE_ROWS", "-1")
	_, err = SchemaSampleRows()
	assert.Error(t, err)
}
