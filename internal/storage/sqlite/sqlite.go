// Package sqlite implements storage.Repository on modernc.org/sqlite.
//
// The pool is capped at one connection: SQLite serializes writers anyway, and
// a single connection keeps a batch transaction from tripping SQLITE_BUSY.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/albapepper/courtstats/internal/storage"
)

func init() {
	storage.Register("sqlite", New)
}

// Repo implements storage.Repository for SQLite.
type Repo struct {
	db *sql.DB
}

func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if cfg.MaxConnLifetime > 0 {
		db.SetConnMaxLifetime(cfg.MaxConnLifetime)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Repo{db: db}, nil
}

func (r *Repo) Close() { _ = r.db.Close() }

func (r *Repo) Ping(ctx context.Context) (time.Time, error) {
	var s string
	err := r.db.QueryRowContext(ctx, `SELECT strftime('%Y-%m-%dT%H:%M:%fZ', 'now')`).Scan(&s)
	if err != nil {
		return time.Time{}, fmt.Errorf("server time: %w", err)
	}
	now, err := time.Parse("2006-01-02T15:04:05.000Z", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse server time %q: %w", s, err)
	}
	return now, nil
}

func (r *Repo) Exec(ctx context.Context, stmt string, args ...any) error {
	if _, err := r.db.ExecContext(ctx, stmt, args...); err != nil {
		return classify(err)
	}
	return nil
}

func (r *Repo) TableColumns(ctx context.Context, table string) ([]storage.Column, error) {
	return tableColumns(ctx, r.db, table)
}

// CopyRows inserts every row from src through one prepared statement inside a
// single transaction.
func (r *Repo) CopyRows(ctx context.Context, table string, src storage.RowSource) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

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
	q, err := storage.InsertSQL(table, names, storage.Question)
	if err != nil {
		return 0, err
	}
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	var n int64
	for src.Next() {
		vals, err := src.Values()
		if err != nil {
			return 0, err
		}
		if _, err := stmt.ExecContext(ctx, vals...); err != nil {
			return 0, fmt.Errorf("insert row %d into %s: %w", n+1, table, classify(err))
		}
		n++
	}
	if err := src.Err(); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

func (r *Repo) RecentSeasons(ctx context.Context, table, name string, columns []string, limit int) ([]map[string]any, error) {
	if err := storage.CheckIdents(append([]string{table}, columns...)...); err != nil {
		return nil, err
	}

	q := fmt.Sprintf(`SELECT %s FROM %s
		WHERE replace(%s, '.', '') = replace(?, '.', '')
		ORDER BY %s DESC LIMIT ?`,
		strings.Join(columns, ", "), table, storage.ColPlayer, storage.ColSeason)

	rows, err := r.db.QueryContext(ctx, q, name, limit)
	if err != nil {
		return nil, fmt.Errorf("recent seasons: %w", err)
	}
	defer rows.Close()

	var out []map[string]any
	for rows.Next() {
		vals := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("recent seasons: %w", err)
		}
		m := make(map[string]any, len(columns))
		for i, c := range columns {
			if b, ok := vals[i].([]byte); ok {
				m[c] = string(b)
				continue
			}
			m[c] = vals[i]
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *Repo) Begin(ctx context.Context) (storage.Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	return &Tx{tx: tx}, nil
}

// ---- transaction ----

type Tx struct {
	tx *sql.Tx
}

func (t *Tx) LatestByName(ctx context.Context, table, name string, season int) (storage.HistoricalRecord, bool, error) {
	if err := storage.CheckIdent(table); err != nil {
		return storage.HistoricalRecord{}, false, err
	}

	q := fmt.Sprintf(`SELECT %s, %s, %s, %s, %s, %s FROM %s
		WHERE %s = ? AND %s < ? ORDER BY %s DESC LIMIT 1`,
		storage.ColPlayerID, storage.ColPlayer, storage.ColAge, storage.ColExperience,
		storage.ColPosition, storage.ColSeason, table,
		storage.ColPlayer, storage.ColSeason, storage.ColSeason)

	var (
		playerID, age, exp, rowSeason sql.NullInt64
		player, pos                   sql.NullString
	)
	err := t.tx.QueryRowContext(ctx, q, name, season).Scan(&playerID, &player, &age, &exp, &pos, &rowSeason)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.HistoricalRecord{}, false, nil
	}
	if err != nil {
		return storage.HistoricalRecord{}, false, classify(err)
	}
	if !playerID.Valid {
		return storage.HistoricalRecord{}, false, storage.RowRejected(
			fmt.Errorf("%s is null for %q", storage.ColPlayerID, name))
	}

	return storage.HistoricalRecord{
		PlayerID:   playerID.Int64,
		Name:       player.String,
		Age:        intPtr(age),
		Experience: intPtr(exp),
		Position:   pos.String,
		Season:     int(rowSeason.Int64),
	}, true, nil
}

func (t *Tx) SeasonRowExists(ctx context.Context, table string, seasID int64) (bool, error) {
	if err := storage.CheckIdent(table); err != nil {
		return false, err
	}
	q := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE %s = ?)`, table, storage.ColSeasID)

	var exists bool
	if err := t.tx.QueryRowContext(ctx, q, seasID).Scan(&exists); err != nil {
		return false, classify(err)
	}
	return exists, nil
}

func (t *Tx) UpdateSeasonRow(ctx context.Context, table string, row storage.SeasonRow) error {
	q, err := storage.UpdateSQL(table, row.Columns(), storage.ColSeasID, storage.Question)
	if err != nil {
		return err
	}
	if _, err := t.tx.ExecContext(ctx, q, append(row.Values(), row.SeasID)...); err != nil {
		return classify(err)
	}
	return nil
}

func (t *Tx) InsertSeasonRow(ctx context.Context, table string, row storage.SeasonRow) error {
	q, err := storage.InsertSQL(table, row.Columns(), storage.Question)
	if err != nil {
		return err
	}
	if _, err := t.tx.ExecContext(ctx, q, row.Values()...); err != nil {
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
	if _, err := t.tx.ExecContext(ctx, verb+" "+name); err != nil {
		return fmt.Errorf("%s %s: %w", strings.ToLower(verb), name, err)
	}
	return nil
}

func (t *Tx) Commit(context.Context) error   { return t.tx.Commit() }
func (t *Tx) Rollback(context.Context) error { return t.tx.Rollback() }

// ---- helpers ----

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// tableColumns reads PRAGMA table_info, which lists columns by cid.
func tableColumns(ctx context.Context, q querier, table string) ([]storage.Column, error) {
	if err := storage.CheckIdent(table); err != nil {
		return nil, err
	}
	rows, err := q.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("introspect %s: %w", table, err)
	}
	defer rows.Close()

	var cols []storage.Column
	for rows.Next() {
		var (
			cid, notNull, pk int
			name, typ        string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("introspect %s: %w", table, err)
		}
		cols = append(cols, storage.Column{Name: name, DataType: typ, Kind: storage.KindOf(typ)})
	}
	return cols, rows.Err()
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

// classify marks constraint and datatype mismatch failures as row-level
// rejections.
func classify(err error) error {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() & 0xff {
		case sqlite3.SQLITE_CONSTRAINT, sqlite3.SQLITE_MISMATCH, sqlite3.SQLITE_TOOBIG:
			return storage.RowRejected(err)
		}
	}
	return err
}
