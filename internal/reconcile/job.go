package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/albapepper/courtstats/internal/provider"
)

// DefaultFetchTimeout bounds one scrape when Job.Timeout is zero.
const DefaultFetchTimeout = 60 * time.Second

// Fetcher returns one season of scraped player statistics.
type Fetcher interface {
	FetchSeason(ctx context.Context, season int) ([]provider.PlayerStat, error)
}

// Job scrapes a season and reconciles it into the history table. The scrape
// finishes before the batch transaction opens, so no transaction is held
// while waiting on the upstream source.
type Job struct {
	Fetcher     Fetcher
	Coordinator *Coordinator
	Options     Options
	Timeout     time.Duration
	Logger      *slog.Logger
}

// Run executes the job for j.Options.Season.
func (j *Job) Run(ctx context.Context) (Summary, error) {
	logger := j.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := j.Timeout
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}

	logger.Info("Scraping season", "season", j.Options.Season, "metric", j.Options.MetricColumn)
	fetchCtx, cancel := context.WithTimeout(ctx, timeout)
	stats, err := j.Fetcher.FetchSeason(fetchCtx, j.Options.Season)
	cancel()
	if err != nil {
		logger.Error("Scrape failed", "season", j.Options.Season, "error", err)
		return Summary{}, fmt.Errorf("scrape season %d: %w", j.Options.Season, err)
	}
	if len(stats) == 0 {
		return Summary{}, fmt.Errorf("scrape season %d: %w", j.Options.Season, provider.ErrNoData)
	}
	logger.Info("Scrape finished", "season", j.Options.Season, "players", len(stats))

	sum, err := j.Coordinator.Upsert(ctx, stats, j.Options)
	if err != nil {
		return Summary{}, err
	}
	logger.Info("Finished enhancing and inserting/updating data", "summary", sum.String())
	return sum, nil
}
