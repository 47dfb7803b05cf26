// Package reconcile writes freshly scraped per-player statistics into the
// history table. Each player is matched to an existing record by name, keyed
// by a deterministic season key, and updated or inserted.
//
// A batch runs in one transaction. Each entity's writes sit behind a
// savepoint: a row the store rejects is rolled back to its savepoint and
// counted as a failure, while any other store error rolls back the batch.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/albapepper/courtstats/internal/identity"
	"github.com/albapepper/courtstats/internal/metrics"
	"github.com/albapepper/courtstats/internal/provider"
	"github.com/albapepper/courtstats/internal/schema"
	"github.com/albapepper/courtstats/internal/storage"
)

// Options selects where and how a batch is written.
type Options struct {
	Table        string // history table
	MetricColumn string // column receiving PlayerStat.Value
	League       string // lg value for new rows
	Season       int    // used when an entity carries no season
}

func (o Options) validate() error {
	if err := storage.CheckIdent(o.Table); err != nil {
		return fmt.Errorf("table: %w", err)
	}
	if err := storage.CheckIdent(o.MetricColumn); err != nil {
		return fmt.Errorf("metric column: %w", err)
	}
	return nil
}

// Coordinator upserts batches of scraped stats.
type Coordinator struct {
	repo     storage.Repository
	resolver *identity.Resolver
	logger   *slog.Logger
}

// NewCoordinator returns a Coordinator writing through repo.
func NewCoordinator(repo storage.Repository, resolver *identity.Resolver, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	if resolver == nil {
		resolver = identity.NewResolver(nil, logger)
	}
	return &Coordinator{repo: repo, resolver: resolver, logger: logger}
}

// Upsert writes stats in order inside one transaction and returns the
// per-entity outcome counts. It returns an error (and commits nothing) only
// when the store fails in a way that is not specific to one row.
func (c *Coordinator) Upsert(ctx context.Context, stats []provider.PlayerStat, opts Options) (Summary, error) {
	opts.Table = schema.SanitizeIdentifier(opts.Table)
	opts.MetricColumn = schema.SanitizeIdentifier(opts.MetricColumn)
	if err := opts.validate(); err != nil {
		return Summary{}, err
	}

	tx, err := c.repo.Begin(ctx)
	if err != nil {
		return Summary{}, err
	}

	sum := Summary{Total: len(stats)}
	for i, st := range stats {
		sp := fmt.Sprintf("entity_%d", i)
		if err := tx.Savepoint(ctx, sp); err != nil {
			return c.abort(ctx, tx, err)
		}

		outcome, err := c.upsertOne(ctx, tx, st, opts)
		switch {
		case err == nil:
		case errors.Is(err, storage.ErrRowRejected):
			if rbErr := tx.RollbackTo(ctx, sp); rbErr != nil {
				return c.abort(ctx, tx, rbErr)
			}
			c.logger.Error("Error processing player", "name", st.Name, "error", err)
			outcome = outcomeFailed
			sum.AddErrorf("%s: %v", st.Name, err)
		default:
			return c.abort(ctx, tx, fmt.Errorf("player %q: %w", st.Name, err))
		}

		if err := tx.Release(ctx, sp); err != nil {
			return c.abort(ctx, tx, err)
		}

		switch outcome {
		case outcomeInserted:
			sum.Success++
			sum.Inserted++
		case outcomeUpdated:
			sum.Success++
			sum.Updated++
		case outcomeUnresolved:
			sum.AddErrorf("%s: no existing record", st.Name)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		c.logger.Error("Reconcile commit failed", "table", opts.Table, "error", err)
		return Summary{}, fmt.Errorf("commit: %w", err)
	}

	metrics.Reconciled(sum.Success, sum.Failure)
	c.logger.Info("Reconcile batch committed", "table", opts.Table, "summary", sum.String())
	return sum, nil
}

type outcome int

const (
	outcomeFailed outcome = iota
	outcomeUnresolved
	outcomeInserted
	outcomeUpdated
)

func (c *Coordinator) upsertOne(ctx context.Context, tx storage.Tx, st provider.PlayerStat, opts Options) (outcome, error) {
	season := st.Season
	if season == 0 {
		season = opts.Season
	}

	res, err := c.resolver.Resolve(ctx, st.Name, func(ctx context.Context, name string) (storage.HistoricalRecord, bool, error) {
		return tx.LatestByName(ctx, opts.Table, name, season)
	})
	if err != nil {
		return outcomeFailed, err
	}
	if !res.Resolved() {
		return outcomeUnresolved, nil
	}

	row := NextSeasonRow(res.Record, st, season, opts)

	exists, err := tx.SeasonRowExists(ctx, opts.Table, row.SeasID)
	if err != nil {
		return outcomeFailed, err
	}
	if exists {
		if err := tx.UpdateSeasonRow(ctx, opts.Table, row); err != nil {
			return outcomeFailed, err
		}
		c.logger.Debug("Updated existing row for player", "name", st.Name, "seas_id", row.SeasID)
		return outcomeUpdated, nil
	}
	if err := tx.InsertSeasonRow(ctx, opts.Table, row); err != nil {
		return outcomeFailed, err
	}
	c.logger.Debug("Inserted new row for player", "name", st.Name, "seas_id", row.SeasID)
	return outcomeInserted, nil
}

// NextSeasonRow builds the row for st from the player's latest historical
// record: age and experience advance by one, position carries over. The
// scraped spelling of the name is what gets written and keyed.
func NextSeasonRow(rec storage.HistoricalRecord, st provider.PlayerStat, season int, opts Options) storage.SeasonRow {
	return storage.SeasonRow{
		SeasID:       SeasonKey(st.Name, season, st.Team),
		PlayerID:     rec.PlayerID,
		Name:         st.Name,
		Team:         st.Team,
		Season:       season,
		League:       opts.League,
		Age:          plusOne(rec.Age),
		Experience:   plusOne(rec.Experience),
		Position:     rec.Position,
		MetricColumn: opts.MetricColumn,
		MetricValue:  st.Value,
	}
}

func plusOne(p *int) *int {
	if p == nil {
		return nil
	}
	n := *p + 1
	return &n
}

func (c *Coordinator) abort(ctx context.Context, tx storage.Tx, err error) (Summary, error) {
	if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
		c.logger.Error("Rollback failed", "error", rbErr)
	}
	c.logger.Error("Reconcile batch rolled back", "error", err)
	return Summary{}, err
}
