// Package storage defines the backend-agnostic relational store contract used
// by ingestion and reconciliation, plus the registry that backends plug into.
//
// Backends (postgres, sqlite) register themselves from init() and must keep
// the same transactional guarantees: a bulk load is all-or-nothing, and a
// batch transaction supports savepoints.
package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"
)

var (
	// ErrRowRejected marks a failure caused by a single row's data (constraint,
	// type or value errors reported by the server). Inside a batch such an
	// error is recoverable once the row's effect has been rolled back.
	ErrRowRejected = errors.New("row rejected by store")

	// ErrUnknownKind is returned by Open when no backend is registered for a kind.
	ErrUnknownKind = errors.New("unknown storage kind")

	// ErrNoSuchTable is returned when a load targets a table the store does
	// not have.
	ErrNoSuchTable = errors.New("table does not exist")

	// ErrUnsafeIdentifier is returned when a table or column name would have to
	// be quoted to be embedded in statement text.
	ErrUnsafeIdentifier = errors.New("unsafe identifier")
)

// Config is the minimal configuration needed to open a repository.
type Config struct {
	Kind            string
	DSN             string
	MinConns        int
	MaxConns        int
	MaxConnLifetime time.Duration
}

// Repository is the pooled store capability handed to every component.
// Implementations acquire a connection per call and release it on every
// return path.
type Repository interface {
	// Close releases the pool. Call once at shutdown.
	Close()

	// Ping verifies connectivity and returns the server's current time.
	Ping(ctx context.Context) (time.Time, error)

	// Exec runs a single parameterized statement outside any caller transaction.
	Exec(ctx context.Context, stmt string, args ...any) error

	// TableColumns returns the table's columns in ordinal order as recorded by
	// the store's own catalog. An unknown table yields an empty slice.
	TableColumns(ctx context.Context, table string) ([]Column, error)

	// CopyRows streams src into table inside its own transaction. The column
	// layout is introspected from the store and handed to src.Bind before the
	// first row is read. Any error rolls the whole load back.
	CopyRows(ctx context.Context, table string, src RowSource) (int64, error)

	// RecentSeasons returns up to limit rows for name (dots ignored on both
	// sides), newest season first, projected onto columns.
	RecentSeasons(ctx context.Context, table, name string, columns []string, limit int) ([]map[string]any, error)

	// Begin opens a transaction for a reconciliation batch.
	Begin(ctx context.Context) (Tx, error)
}

// Tx is a single reconciliation transaction.
type Tx interface {
	// LatestByName returns the most recent row before season whose player
	// column equals name exactly. Rows of season itself are excluded so that a
	// re-run carries forward from history, not from its own earlier output.
	LatestByName(ctx context.Context, table, name string, season int) (HistoricalRecord, bool, error)

	SeasonRowExists(ctx context.Context, table string, seasID int64) (bool, error)
	UpdateSeasonRow(ctx context.Context, table string, row SeasonRow) error
	InsertSeasonRow(ctx context.Context, table string, row SeasonRow) error

	// Savepoint, RollbackTo and Release scope a single row's writes so that a
	// rejected row can be undone without aborting the batch.
	Savepoint(ctx context.Context, name string) error
	RollbackTo(ctx context.Context, name string) error
	Release(ctx context.Context, name string) error

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// RowSource feeds CopyRows. Next/Values/Err follow pgx.CopyFromSource so the
// postgres backend can hand a source straight to COPY.
type RowSource interface {
	// Bind receives the target layout. Values must return one value per
	// column, in this order, typed according to Column.Kind.
	Bind(columns []Column) error
	Next() bool
	Values() ([]any, error)
	Err() error
}

// ---- factories ----

// Factory opens a backend for cfg.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers a backend under kind (e.g. "postgres", "sqlite").
// Call it from an init() function in the backend package.
//
// Panics if kind is empty, f is nil, or kind is already registered.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()

	if kind == "" {
		panic("storage: Register called with empty kind")
	}
	if f == nil {
		panic("storage: Register called with nil factory")
	}
	if _, exists := factories[kind]; exists {
		panic(fmt.Sprintf("storage: factory already registered for kind=%q", kind))
	}
	factories[kind] = f
}

// Open constructs a Repository using the registered backend factory.
func Open(ctx context.Context, cfg Config) (Repository, error) {
	kind := strings.ToLower(strings.TrimSpace(cfg.Kind))
	if kind == "" {
		return nil, fmt.Errorf("storage: missing kind")
	}

	mu.RLock()
	f := factories[kind]
	mu.RUnlock()

	if f == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, cfg.Kind)
	}
	return f(ctx, cfg)
}

// ---- identifiers ----

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// CheckIdent rejects names that cannot be embedded unquoted in statement text.
// Callers sanitize names first; this is the last line before SQL is built.
func CheckIdent(name string) error {
	if !identRe.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrUnsafeIdentifier, name)
	}
	return nil
}

// CheckIdents applies CheckIdent to every name.
func CheckIdents(names ...string) error {
	for _, n := range names {
		if err := CheckIdent(n); err != nil {
			return err
		}
	}
	return nil
}

// RowRejected wraps err so callers can detect it with errors.Is(err, ErrRowRejected).
func RowRejected(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrRowRejected, err)
}
