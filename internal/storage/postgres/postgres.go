// Package postgres implements storage.Repository on a pgx connection pool.
// Bulk loads use COPY; reconciliation batches use a single pgx.Tx with
// savepoints.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/albapepper/courtstats/internal/db"
	"github.com/albapepper/courtstats/internal/storage"
)

func init() {
	storage.Register("postgres", New)
}

// Repo implements storage.Repository for Postgres.
type Repo struct {
	pool *db.Pool
}

// New opens a pool for cfg and verifies connectivity.
func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	pool, err := db.New(ctx, db.Options{
		DSN:             cfg.DSN,
		MinConns:        cfg.MinConns,
		MaxConns:        cfg.MaxConns,
		MaxConnLifetime: cfg.MaxConnLifetime,
	})
	if err != nil {
		return nil, err
	}
	return &Repo{pool: pool}, nil
}

func (r *Repo) Close() { r.pool.Close() }

func (r *Repo) Ping(ctx context.Context) (time.Time, error) {
	if err := r.pool.HealthCheck(ctx); err != nil {
		return time.Time{}, fmt.Errorf("health check: %w", err)
	}
	return r.pool.ServerTime(ctx)
}

func (r *Repo) Exec(ctx context.Context, stmt string, args ...any) error {
	if _, err := r.pool.Exec(ctx, stmt, args...); err != nil {
		return classify(err)
	}
	return nil
}

func (r *Repo) TableColumns(ctx context.Context, table string) ([]storage.Column, error) {
	return tableColumns(ctx, r.pool, table)
}

// CopyRows streams src into table with COPY FROM STDIN inside one transaction.
func (r *Repo) CopyRows(ctx context.Context, table string, src storage.RowSource) (int64, error) {
	if err := storage.CheckIdent(table); err != nil {
		return 0, err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	cols, err := tableColumns(ctx, tx, table)
	if err != nil {
		return 0, err
	}
	if len(cols) == 0 {
		return 0, fmt.Errorf("%w: %s", storage.ErrNoSuchTable, table)
	}
	if err := src.Bind(cols); err != nil {
		return 0, err
	}

	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}

	n, err := tx.CopyFrom(ctx, pgx.Identifier{unquotedName(table)}, names, src)
	if err != nil {
		return 0, fmt.Errorf("copy into %s: %w", table, classify(err))
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

func (r *Repo) RecentSeasons(ctx context.Context, table, name string, columns []string, limit int) ([]map[string]any, error) {
	if err := storage.CheckIdents(append([]string{table}, columns...)...); err != nil {
		return nil, err
	}

	q := fmt.Sprintf(`SELECT %s FROM %s
		WHERE replace(%s, '.', '') = replace($1, '.', '')
		ORDER BY %s DESC LIMIT $2`,
		strings.Join(columns, ", "), table, storage.ColPlayer, storage.ColSeason)

	rows, err := r.pool.Query(ctx, q, name, limit)
	if err != nil {
		return nil, fmt.Errorf("recent seasons: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("recent seasons: %w", err)
	}
	return out, nil
}

func (r *Repo) Begin(ctx context.Context) (storage.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	return &Tx{tx: tx}, nil
}

// ---- transaction ----

// Tx implements storage.Tx on a pgx.Tx.
type Tx struct {
	tx pgx.Tx
}

func (t *Tx) LatestByName(ctx context.Context, table, name string, season int) (storage.HistoricalRecord, bool, error) {
	if err := storage.CheckIdent(table); err != nil {
		return storage.HistoricalRecord{}, false, err
	}

	q := fmt.Sprintf(`SELECT %s, %s, %s, %s, %s, %s FROM %s
		WHERE %s = $1 AND %s < $2 ORDER BY %s DESC LIMIT 1`,
		storage.ColPlayerID, storage.ColPlayer, storage.ColAge, storage.ColExperience,
		storage.ColPosition, storage.ColSeason, table,
		storage.ColPlayer, storage.ColSeason, storage.ColSeason)

	var (
		rec      storage.HistoricalRecord
		playerID *int64
		pos      *string
	)
	err := t.tx.QueryRow(ctx, q, name, season).Scan(&playerID, &rec.Name, &rec.Age, &rec.Experience, &pos, &rec.Season)
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.HistoricalRecord{}, false, nil
	}
	if err != nil {
		return storage.HistoricalRecord{}, false, classify(err)
	}
	if playerID == nil {
		return storage.HistoricalRecord{}, false, storage.RowRejected(
			fmt.Errorf("%s is null for %q", storage.ColPlayerID, name))
	}
	rec.PlayerID = *playerID
	if pos != nil {
		rec.Position = *pos
	}
	return rec, true, nil
}

func (t *Tx) SeasonRowExists(ctx context.Context, table string, seasID int64) (bool, error) {
	if err := storage.CheckIdent(table); err != nil {
		return false, err
	}
	q := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE %s = $1)`, table, storage.ColSeasID)

	var exists bool
	if err := t.tx.QueryRow(ctx, q, seasID).Scan(&exists); err != nil {
		return false, classify(err)
	}
	return exists, nil
}

func (t *Tx) UpdateSeasonRow(ctx context.Context, table string, row storage.SeasonRow) error {
	q, err := storage.UpdateSQL(table, row.Columns(), storage.ColSeasID, storage.Dollar)
	if err != nil {
		return err
	}
	if _, err := t.tx.Exec(ctx, q, append(row.Values(), row.SeasID)...); err != nil {
		return classify(err)
	}
	return nil
}

func (t *Tx) InsertSeasonRow(ctx context.Context, table string, row storage.SeasonRow) error {
	q, err := storage.InsertSQL(table, row.Columns(), storage.Dollar)
	if err != nil {
		return err
	}
	if _, err := t.tx.Exec(ctx, q, row.Values()...); err != nil {
		return classify(err)
	}
	return nil
}

func (t *Tx) Savepoint(ctx context.Context, name string) error {
	return t.savepointCmd(ctx, "SAVEPOINT", name)
}

func (t *Tx) RollbackTo(ctx context.Context, name string) error {
	return t.savepointCmd(ctx, "ROLLBACK TO SAVEPOINT", name)
}

func (t *Tx) Release(ctx context.Context, name string) error {
	return t.savepointCmd(ctx, "RELEASE SAVEPOINT", name)
}

func (t *Tx) savepointCmd(ctx context.Context, verb, name string) error {
	if err := storage.CheckIdent(name); err != nil {
		return err
	}
	if _, err := t.tx.Exec(ctx, verb+" "+name); err != nil {
		return fmt.Errorf("%s %s: %w", strings.ToLower(verb), name, err)
	}
	return nil
}

func (t *Tx) Commit(ctx context.Context) error   { return t.tx.Commit(ctx) }
func (t *Tx) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }

// ---- helpers ----

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// tableColumns reads information_schema via the prepared statement
// registered on every pooled connection.
func tableColumns(ctx context.Context, q querier, table string) ([]storage.Column, error) {
	rows, err := q.Query(ctx, db.StmtTableColumns, unquotedName(table))
	if err != nil {
		return nil, fmt.Errorf("introspect %s: %w", table, err)
	}
	cols, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (storage.Column, error) {
		var c storage.Column
		err := row.Scan(&c.Name, &c.DataType)
		c.Kind = storage.KindOf(c.DataType)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("introspect %s: %w", table, err)
	}
	return cols, nil
}

// unquotedName is how Postgres stores an identifier created without quotes.
func unquotedName(name string) string {
	return strings.ToLower(name)
}

// classify marks data and integrity errors (SQLSTATE classes 22 and 23) as
// row-level rejections. Everything else is returned unchanged.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && (strings.HasPrefix(pgErr.Code, "22") || strings.HasPrefix(pgErr.Code, "23")) {
		return storage.RowRejected(err)
	}
	return err
}
