// Command ingest is the courtstats ingestion CLI.
//
// Usage:
//
//	courtstats-ingest table create --file totals.csv
//	courtstats-ingest table load --file totals.csv --table player_totals
//	courtstats-ingest table import --file totals.csv
//	courtstats-ingest table columns --table player_totals
//	courtstats-ingest reconcile fg --season 2025 --url https://example.org/leaders/fg
//	courtstats-ingest leaders --season 2025 --limit 10
//	courtstats-ingest teams
//	courtstats-ingest ping
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/albapepper/courtstats/internal/config"
	"github.com/albapepper/courtstats/internal/ingest"
	"github.com/albapepper/courtstats/internal/provider/bdl"
	"github.com/albapepper/courtstats/internal/provider/nbastats"
	"github.com/albapepper/courtstats/internal/provider/scrape"
	"github.com/albapepper/courtstats/internal/reconcile"
	"github.com/albapepper/courtstats/internal/schema"
	"github.com/albapepper/courtstats/internal/storage"
	_ "github.com/albapepper/courtstats/internal/storage/postgres"
	_ "github.com/albapepper/courtstats/internal/storage/sqlite"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:          "courtstats-ingest",
		Short:        "courtstats ingestion and reconciliation CLI",
		SilenceUsage: true,
	}
	var demo bool
	root.PersistentFlags().BoolVar(&demo, "demo", false, "Use DEMO_DATABASE_URL instead of DATABASE_URL")

	root.AddCommand(tableCmd(&demo))
	root.AddCommand(reconcileCmd(&demo))
	root.AddCommand(leadersCmd())
	root.AddCommand(teamsCmd())
	root.AddCommand(pingCmd(&demo))

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// table command
// --------------------------------------------------------------------------

func tableCmd(demo *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "table",
		Short: "Create tables from files and bulk-load them",
	}
	cmd.AddCommand(tableCreateCmd(demo))
	cmd.AddCommand(tableLoadCmd(demo))
	cmd.AddCommand(tableImportCmd(demo))
	cmd.AddCommand(tableColumnsCmd(demo))
	return cmd
}

func tableCreateCmd(demo *bool) *cobra.Command {
	var file, table string
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a table from a file's inferred schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dryRun {
				sampleRows, err := config.SchemaSampleRows()
				if err != nil {
					return err
				}
				ddl, err := planDDL(file, table, sampleRows)
				if err != nil {
					return err
				}
				fmt.Println(ddl)
				return nil
			}
			return runWithStore(*demo, func(ctx context.Context, cfg *config.Config, repo storage.Repository) error {
				res, err := newLoader(cfg, repo).CreateTable(ctx, file, table)
				if err != nil {
					return err
				}
				fmt.Println(res.SQL)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Input CSV file")
	cmd.Flags().StringVar(&table, "table", "", "Table name (default: file base name)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the DDL without connecting")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func tableLoadCmd(demo *bool) *cobra.Command {
	var file, table string
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Bulk-load a file into an existing table",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithStore(*demo, func(ctx context.Context, cfg *config.Config, repo storage.Repository) error {
				res, err := newLoader(cfg, repo).LoadFile(ctx, file, table)
				if err != nil {
					return err
				}
				logger.Info("Load finished", "summary", res.Summary())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Input CSV file")
	cmd.Flags().StringVar(&table, "table", "", "Target table (default: file base name)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func tableImportCmd(demo *bool) *cobra.Command {
	var file, table string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Create a table from a file, then load the file into it",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithStore(*demo, func(ctx context.Context, cfg *config.Config, repo storage.Repository) error {
				res, err := newLoader(cfg, repo).Import(ctx, file, table)
				if err != nil {
					return err
				}
				logger.Info("Import finished", "ddl", res.Created.SQL, "summary", res.Loaded.Summary())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Input CSV file")
	cmd.Flags().StringVar(&table, "table", "", "Table name (default: file base name)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func tableColumnsCmd(demo *bool) *cobra.Command {
	var table string
	cmd := &cobra.Command{
		Use:   "columns",
		Short: "Print a table's columns as the store records them",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithStore(*demo, func(ctx context.Context, cfg *config.Config, repo storage.Repository) error {
				cols, err := newLoader(cfg, repo).Columns(ctx, table)
				if err != nil {
					return err
				}
				if len(cols) == 0 {
					return fmt.Errorf("%w: %s", storage.ErrNoSuchTable, table)
				}
				return printJSON(cols)
			})
		},
	}
	cmd.Flags().StringVar(&table, "table", "", "Table name")
	_ = cmd.MarkFlagRequired("table")
	return cmd
}

// planDDL infers the table for file the way `table create` would, without
// a store.
func planDDL(file, table string, sampleRows int) (string, error) {
	f, err := os.Open(file)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if table == "" {
		table = schema.TableNameFromPath(file)
	}
	res, err := ingest.NewLoader(nil, sampleRows, logger).Plan(f, table)
	if err != nil {
		return "", err
	}
	return res.SQL, nil
}

func newLoader(cfg *config.Config, repo storage.Repository) *ingest.Loader {
	return ingest.NewLoader(repo, cfg.SchemaSampleRows, logger)
}

// --------------------------------------------------------------------------
// reconcile command
// --------------------------------------------------------------------------

func reconcileCmd(demo *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Scrape season statistics and reconcile them into player history",
	}
	cmd.AddCommand(reconcileFGCmd(demo))
	return cmd
}

func reconcileFGCmd(demo *bool) *cobra.Command {
	var (
		season   int
		table    string
		url      string
		maxPages int
	)
	cmd := &cobra.Command{
		Use:   "fg",
		Short: "Reconcile field-goal percentage for a season",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithStore(*demo, func(ctx context.Context, cfg *config.Config, repo storage.Repository) error {
				if url == "" {
					url = cfg.FGSourceURL
				}
				if url == "" {
					return fmt.Errorf("--url or FG_SOURCE_URL is required")
				}
				if season == 0 {
					season = cfg.CurrentSeason
				}
				if table == "" {
					table = cfg.HistoryTable
				}
				if maxPages == 0 {
					maxPages = cfg.ScrapeMaxPages
				}

				job := &reconcile.Job{
					Fetcher:     scrape.New(scrape.Config{URL: url, MaxPages: maxPages}, logger),
					Coordinator: reconcile.NewCoordinator(repo, nil, logger),
					Options: reconcile.Options{
						Table:        table,
						MetricColumn: config.FGMetricColumn,
						League:       cfg.League,
						Season:       season,
					},
					Timeout: cfg.ScrapeTimeout,
					Logger:  logger,
				}
				start := time.Now()
				sum, err := job.Run(ctx)
				if err != nil {
					return err
				}
				logger.Info(sum.Message(), "duration", time.Since(start).Round(time.Millisecond))
				for _, e := range sum.Errors {
					logger.Warn("reconcile error", "error", e)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&season, "season", 0, "Season end year (default: CURRENT_SEASON)")
	cmd.Flags().StringVar(&table, "table", "", "History table (default: HISTORY_TABLE)")
	cmd.Flags().StringVar(&url, "url", "", "Stat table URL (default: FG_SOURCE_URL)")
	cmd.Flags().IntVar(&maxPages, "max-pages", 0, "Maximum pages to scrape (default: SCRAPE_MAX_PAGES)")
	return cmd
}

// --------------------------------------------------------------------------
// provider commands
// --------------------------------------------------------------------------

func leadersCmd() *cobra.Command {
	var (
		season string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "leaders",
		Short: "Print per-game scoring leaders",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			if season == "" {
				season = strconv.Itoa(config.DefaultSeason)
			}
			leaders := nbastats.NewClient("", logger).TopScorers(ctx, season, limit)
			return printJSON(leaders)
		},
	}
	cmd.Flags().StringVar(&season, "season", "", "Season, 2025 or 2024-25")
	cmd.Flags().IntVar(&limit, "limit", 10, "Number of leaders (max 50)")
	return cmd
}

func teamsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "teams",
		Short: "Print all teams from BallDontLie",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			client := bdl.NewClient("", os.Getenv("BALLDONTLIE_API_KEY"), bdl.DefaultRequestsPerMinute, logger)
			teams, err := client.GetTeams(ctx)
			if err != nil {
				return err
			}
			return printJSON(teams)
		},
	}
}

// --------------------------------------------------------------------------
// ping command
// --------------------------------------------------------------------------

func pingCmd(demo *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Test the database connection",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithStore(*demo, func(ctx context.Context, cfg *config.Config, repo storage.Repository) error {
				now, err := repo.Ping(ctx)
				if err != nil {
					return fmt.Errorf("database connection test failed: %w", err)
				}
				logger.Info("Database connection successful", "kind", cfg.DBKind, "server_time", now.UTC().Format(time.RFC3339Nano))
				return nil
			})
		},
	}
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

// runWithStore handles config loading, store connection, and context cancellation.
func runWithStore(demo bool, fn func(ctx context.Context, cfg *config.Config, repo storage.Repository) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	dsn := cfg.DatabaseURL
	if demo {
		if cfg.DemoDatabaseURL == "" {
			return fmt.Errorf("--demo requires DEMO_DATABASE_URL")
		}
		dsn = cfg.DemoDatabaseURL
	}

	repo, err := storage.Open(ctx, cfg.StorageConfig(dsn))
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer repo.Close()

	return fn(ctx, cfg, repo)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
