package storage

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	tests := map[string]ColumnKind{
		"integer":           KindInteger,
		"INTEGER":           KindInteger,
		"bigint":            KindInteger,
		"double precision":  KindFloat,
		"DOUBLE PRECISION":  KindFloat,
		"real":              KindFloat,
		"numeric":           KindFloat,
		"text":              KindText,
		"character varying": KindText,
		"":                  KindText,
	}
	for in, want := range tests {
		assert.Equal(t, want, KindOf(in), "KindOf(%q)", in)
	}
}

func TestCheckIdent(t *testing.T) {
	for _, ok := range []string{"player_totals", "_x", "fg_percent", "x3p"} {
		assert.NoError(t, CheckIdent(ok), ok)
	}
	for _, bad := range []string{"", "3p", "a b", "t;drop", `"q"`} {
		err := CheckIdent(bad)
		require.Error(t, err, bad)
		assert.True(t, errors.Is(err, ErrUnsafeIdentifier))
	}
}

func TestInsertSQL(t *testing.T) {
	q, err := InsertSQL("stats", []string{"a", "b"}, Dollar)
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO stats (a, b) VALUES ($1, $2)", q)

	q, err = InsertSQL("stats", []string{"a", "b"}, Question)
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO stats (a, b) VALUES (?, ?)", q)

	_, err = InsertSQL("stats", []string{"a-b"}, Question)
	assert.ErrorIs(t, err, ErrUnsafeIdentifier)
}

func TestUpdateSQL_KeyBindsLast(t *testing.T) {
	q, err := UpdateSQL("stats", []string{"a", "b"}, "seas_id", Dollar)
	require.NoError(t, err)
	assert.Equal(t, "UPDATE stats SET a = $1, b = $2 WHERE seas_id = $3", q)
}

func TestSeasonRow_ColumnsAlignWithValues(t *testing.T) {
	age := 27
	row := SeasonRow{
		SeasID: 10, PlayerID: 7, Name: "Luka Doncic", Team: "DAL", Season: 2025,
		League: "NBA", Age: &age, MetricColumn: "fg_percent", MetricValue: 0.487,
	}

	cols, vals := row.Columns(), row.Values()
	require.Len(t, vals, len(cols))

	byName := map[string]any{}
	for i, c := range cols {
		byName[c] = vals[i]
	}
	assert.Equal(t, 0.487, byName["fg_percent"])
	assert.Equal(t, int64(27), byName[ColAge])
	assert.Nil(t, byName[ColExperience])
	assert.Nil(t, byName[ColPosition])
}

func TestRowRejected(t *testing.T) {
	assert.NoError(t, RowRejected(nil))

	base := fmt.Errorf("duplicate key")
	err := RowRejected(base)
	assert.ErrorIs(t, err, ErrRowRejected)
	assert.ErrorIs(t, err, base)
}

func TestRegistry(t *testing.T) {
	const kind = "registry-test"
	called := false
	Register(kind, func(ctx context.Context, cfg Config) (Repository, error) {
		called = true
		assert.Equal(t, "dsn", cfg.DSN)
		return nil, nil
	})

	_, err := Open(context.Background(), Config{Kind: " Registry-Test ", DSN: "dsn"})
	require.NoError(t, err)
	assert.True(t, called)

	assert.Panics(t, func() {
		Register(kind, func(context.Context, Config) (Repository, error) { return nil, nil })
	})

	_, err = Open(context.Background(), Config{Kind: "nope"})
	assert.ErrorIs(t, err, ErrUnknownKind)

	_, err = Open(context.Background(), Config{})
	assert.Error(t, err)
}
