// Package ingest turns delimited files into tables: it creates a table from an
// inferred schema and bulk-loads a file into an existing table.
//
// Creating and loading are separate transactional phases. A load never
// creates or alters a table, and a failed load leaves no rows behind.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/albapepper/courtstats/internal/metrics"
	"github.com/albapepper/courtstats/internal/schema"
	"github.com/albapepper/courtstats/internal/storage"
)

var (
	// ErrFileNotFound is returned when the input path does not exist.
	ErrFileNotFound = errors.New("input file not found")

	// ErrHeaderMismatch is returned when a file's header does not name exactly
	// the target table's columns.
	ErrHeaderMismatch = errors.New("file header does not match table columns")

	// ErrMalformedRow is returned for a row with the wrong field count or a
	// value that does not parse as its column's type.
	ErrMalformedRow = errors.New("malformed row")
)

// Loader creates and fills tables from delimited files.
type Loader struct {
	repo       storage.Repository
	sampleRows int
	logger     *slog.Logger
}

// NewLoader returns a Loader over repo. sampleRows is the number of data rows
// read for type inference (at least 1).
func NewLoader(repo storage.Repository, sampleRows int, logger *slog.Logger) *Loader {
	if sampleRows < 1 {
		sampleRows = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{repo: repo, sampleRows: sampleRows, logger: logger}
}

// CreateResult describes a table created from a file.
type CreateResult struct {
	Table schema.Table `json:"table"`
	SQL   string       `json:"sql"`
}

// LoadResult describes a committed bulk load.
type LoadResult struct {
	Table     string        `json:"table"`
	Rows      int64         `json:"rows"`
	ElapsedMS int64         `json:"elapsed_ms"`
	Duration  time.Duration `json:"-"`
}

// Summary returns a human-readable summary of the load.
func (r LoadResult) Summary() string {
	return fmt.Sprintf("table=%s rows=%d duration=%s", r.Table, r.Rows, r.Duration.Round(time.Millisecond))
}

// ImportResult is a create followed by a load.
type ImportResult struct {
	Created CreateResult `json:"created"`
	Loaded  LoadResult   `json:"loaded"`
}

// Plan samples r and returns the descriptor and DDL for table without
// touching the store.
func (l *Loader) Plan(r io.Reader, table string) (CreateResult, error) {
	headers, rows, err := schema.ReadSample(r, l.sampleRows)
	if err != nil {
		return CreateResult{}, fmt.Errorf("sample %s: %w", table, err)
	}
	tbl, err := schema.Infer(table, headers, rows)
	if err != nil {
		return CreateResult{}, err
	}
	ddl, err := schema.CreateTableSQL(tbl)
	if err != nil {
		return CreateResult{}, err
	}
	return CreateResult{Table: tbl, SQL: ddl}, nil
}

// CreateTable infers a schema from the file at path and creates the table if
// it does not exist. An empty table name defaults to the file's base name.
func (l *Loader) CreateTable(ctx context.Context, path, table string) (CreateResult, error) {
	if table == "" {
		table = schema.TableNameFromPath(path)
	}

	f, err := openInput(path)
	if err != nil {
		return CreateResult{}, err
	}
	defer f.Close()

	res, err := l.Plan(f, table)
	if err != nil {
		l.logger.Error("Schema inference failed", "file", path, "table", table, "error", err)
		return CreateResult{}, err
	}

	err = l.repo.Exec(ctx, res.SQL)
	metrics.TableCreated(err)
	if err != nil {
		l.logger.Error("Create table failed", "table", res.Table.Name, "error", err)
		return CreateResult{}, fmt.Errorf("create table %s: %w", res.Table.Name, err)
	}

	l.logger.Info("Table created", "table", res.Table.Name, "columns", len(res.Table.Columns))
	l.logger.Debug("Generated DDL", "sql", res.SQL)
	return res, nil
}

// Load streams r into an existing table in one transaction. The table's
// column order comes from the store's catalog, not from the file.
func (l *Loader) Load(ctx context.Context, r io.Reader, table string) (LoadResult, error) {
	start := time.Now()
	name := schema.SanitizeIdentifier(table)

	n, err := l.load(ctx, r, name)
	elapsed := time.Since(start)
	metrics.LoadFinished(name, n, elapsed, err)
	if err != nil {
		l.logger.Error("Bulk load rolled back", "table", name, "error", err)
		return LoadResult{}, fmt.Errorf("load %s: %w", name, err)
	}

	res := LoadResult{Table: name, Rows: n, ElapsedMS: elapsed.Milliseconds(), Duration: elapsed}
	l.logger.Info("Bulk load finished", "table", name, "rows", n, "elapsed", elapsed.Round(time.Millisecond))
	return res, nil
}

func (l *Loader) load(ctx context.Context, r io.Reader, table string) (int64, error) {
	src, err := newCSVSource(r)
	if err != nil {
		return 0, err
	}
	return l.repo.CopyRows(ctx, table, src)
}

// LoadFile opens path and loads it into table.
func (l *Loader) LoadFile(ctx context.Context, path, table string) (LoadResult, error) {
	if table == "" {
		table = schema.TableNameFromPath(path)
	}
	f, err := openInput(path)
	if err != nil {
		return LoadResult{}, err
	}
	defer f.Close()
	return l.Load(ctx, f, table)
}

// Import creates the table for the file at path, then loads it. The two
// phases commit separately: a failed load leaves the (empty) table in place.
func (l *Loader) Import(ctx context.Context, path, table string) (ImportResult, error) {
	created, err := l.CreateTable(ctx, path, table)
	if err != nil {
		return ImportResult{}, err
	}
	loaded, err := l.LoadFile(ctx, path, created.Table.Name)
	if err != nil {
		return ImportResult{Created: created}, err
	}
	return ImportResult{Created: created, Loaded: loaded}, nil
}

// Columns returns the table's columns as recorded by the store.
func (l *Loader) Columns(ctx context.Context, table string) ([]storage.Column, error) {
	name := schema.SanitizeIdentifier(table)
	cols, err := l.repo.TableColumns(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("columns %s: %w", name, err)
	}
	return cols, nil
}

func openInput(path string) (*os.File, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}
