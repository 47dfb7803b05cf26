// Package provider defines the canonical shapes that upstream sources
// normalize into. Scrapers and API clients return these; the reconcile
// and API layers consume them without knowing which source produced them.
package provider

import "errors"

// ErrNoData is returned when an upstream source answers but yields no rows.
var ErrNoData = errors.New("no data retrieved")

// Team is the canonical team shape.
type Team struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	FullName     string `json:"full_name,omitempty"`
	Abbreviation string `json:"abbreviation,omitempty"`
	City         string `json:"city,omitempty"`
	Conference   string `json:"conference,omitempty"`
	Division     string `json:"division,omitempty"`
}

// PlayerStat is one scraped statistic for one player, season and team.
// Team is empty when the source does not report it.
type PlayerStat struct {
	Name   string  `json:"name"`
	Team   string  `json:"team,omitempty"`
	Season int     `json:"season"`
	Value  float64 `json:"value"`
}

// Leader is one row of a league-leaders table.
type Leader struct {
	Rank   int     `json:"rank,omitempty"`
	Name   string  `json:"player_name"`
	Team   string  `json:"team,omitempty"`
	Points float64 `json:"points"`
}
