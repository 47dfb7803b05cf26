package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/albapepper/courtstats/internal/storage"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		rejected bool
	}{
		{"unique violation", &pgconn.PgError{Code: "23505"}, true},
		{"not null violation", &pgconn.PgError{Code: "23502"}, true},
		{"check violation", &pgconn.PgError{Code: "23514"}, true},
		{"numeric out of range", &pgconn.PgError{Code: "22003"}, true},
		{"invalid text representation", &pgconn.PgError{Code: "22P02"}, true},
		{"wrapped data exception", fmt.Errorf("update seas_id 7: %w", &pgconn.PgError{Code: "22001"}), true},
		{"connection failure", &pgconn.PgError{Code: "08006"}, false},
		{"transaction aborted", &pgconn.PgError{Code: "25P02"}, false},
		{"undefined table", &pgconn.PgError{Code: "42P01"}, false},
		{"context canceled", context.Canceled, false},
		{"plain error", errors.New("conn closed"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err)
			assert.Equal(t, tt.rejected, errors.Is(got, storage.ErrRowRejected))
			assert.ErrorIs(t, got, tt.err)
		})
	}
}
