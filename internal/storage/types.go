package storage

import "strings"

// Column names of the history table used by reconciliation. The table is
// created from the historical file; these are the columns reconciliation
// reads and writes on top of the metric column.
const (
	ColPlayer     = "player"
	ColPlayerID   = "player_id"
	ColSeasID     = "seas_id"
	ColSeason     = "season"
	ColTeam       = "tm"
	ColLeague     = "lg"
	ColAge        = "age"
	ColExperience = "experience"
	ColPosition   = "pos"
)

// ColumnKind is the coarse value class a loader must produce for a column.
type ColumnKind int

const (
	KindText ColumnKind = iota
	KindInteger
	KindFloat
)

func (k ColumnKind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	default:
		return "text"
	}
}

// MarshalText renders the kind by name in JSON.
func (k ColumnKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses a kind name; unknown names read as text.
func (k *ColumnKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "integer":
		*k = KindInteger
	case "float":
		*k = KindFloat
	default:
		*k = KindText
	}
	return nil
}

// Column is one column as introspected from the store catalog.
type Column struct {
	Name     string     `json:"name"`
	DataType string     `json:"data_type"`
	Kind     ColumnKind `json:"kind"`
}

// KindOf classifies a catalog type name (information_schema data_type or a
// SQLite declared type).
func KindOf(dataType string) ColumnKind {
	t := strings.ToLower(strings.TrimSpace(dataType))
	switch {
	case strings.Contains(t, "int"), t == "serial", t == "bigserial":
		return KindInteger
	case strings.Contains(t, "double"), strings.Contains(t, "real"),
		strings.Contains(t, "float"), strings.Contains(t, "numeric"),
		strings.Contains(t, "decimal"):
		return KindFloat
	default:
		return KindText
	}
}

// HistoricalRecord is the carried-forward identity of a player as stored in
// the history table. Age and Experience are nil when the source held the
// missing-value sentinel.
type HistoricalRecord struct {
	PlayerID   int64
	Name       string
	Age        *int
	Experience *int
	Position   string
	Season     int
}

// SeasonRow is the row reconciliation writes for one player, season and team.
type SeasonRow struct {
	SeasID     int64
	PlayerID   int64
	Name       string
	Team       string
	Season     int
	League     string
	Age        *int
	Experience *int
	Position   string

	// MetricColumn names the statistic column; MetricValue is its new value.
	MetricColumn string
	MetricValue  float64
}

// Columns returns the row's column names in the order Values returns them.
func (r SeasonRow) Columns() []string {
	return []string{
		ColPlayer, ColTeam, r.MetricColumn, ColSeason, ColLeague,
		ColSeasID, ColPlayerID, ColAge, ColExperience, ColPosition,
	}
}

// Values returns the row's values aligned with Columns.
func (r SeasonRow) Values() []any {
	return []any{
		r.Name, r.Team, r.MetricValue, r.Season, r.League,
		r.SeasID, r.PlayerID, nilInt(r.Age), nilInt(r.Experience), nilEmpty(r.Position),
	}
}

func nilInt(p *int) any {
	if p == nil {
		return nil
	}
	return int64(*p)
}

// nilEmpty returns nil for empty strings (maps to SQL NULL).
func nilEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
