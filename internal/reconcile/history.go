package reconcile

import (
	"context"
	"fmt"

	"github.com/albapepper/courtstats/internal/schema"
	"github.com/albapepper/courtstats/internal/storage"
)

// HistoryLimit caps the seasons returned for one player.
const HistoryLimit = 16

// Projection is the carried-forward identity for the season after the
// newest one on record.
type Projection struct {
	Season     int    `json:"season"`
	Age        *int   `json:"age,omitempty"`
	Experience *int   `json:"experience,omitempty"`
	Position   string `json:"pos,omitempty"`
}

// History is a player's recent seasons, newest first.
type History struct {
	Player  string           `json:"player"`
	Seasons []map[string]any `json:"seasons"`
	Next    *Projection      `json:"next,omitempty"`
}

// PlayerHistory reads up to HistoryLimit seasons for name, ignoring dots in
// the match ("PJ Tucker" finds "P.J. Tucker"). metrics are extra columns to
// include beside the identity columns.
func PlayerHistory(ctx context.Context, repo storage.Repository, table, name string, metrics ...string) (History, error) {
	table = schema.SanitizeIdentifier(table)
	cols := []string{
		storage.ColSeason, storage.ColPlayerID, storage.ColPlayer, storage.ColTeam,
		storage.ColPosition, storage.ColAge, storage.ColExperience,
	}
	for _, m := range metrics {
		cols = append(cols, schema.SanitizeIdentifier(m))
	}

	rows, err := repo.RecentSeasons(ctx, table, name, cols, HistoryLimit)
	if err != nil {
		return History{}, fmt.Errorf("history for %q: %w", name, err)
	}

	h := History{Player: name, Seasons: rows}
	if h.Seasons == nil {
		h.Seasons = []map[string]any{}
	}
	if len(rows) > 0 {
		h.Next = project(rows[0])
	}
	return h, nil
}

func project(latest map[string]any) *Projection {
	p := &Projection{}
	if season, ok := asInt(latest[storage.ColSeason]); ok {
		p.Season = season + 1
	}
	if age, ok := asInt(latest[storage.ColAge]); ok {
		p.Age = plusOne(&age)
	}
	if exp, ok := asInt(latest[storage.ColExperience]); ok {
		p.Experience = plusOne(&exp)
	}
	if pos, ok := latest[storage.ColPosition].(string); ok {
		p.Position = pos
	}
	return p
}

// asInt accepts the integer shapes drivers hand back for INTEGER columns.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
