package bdl

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/albapepper/courtstats/internal/provider"
)

type teamRaw struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	FullName     string `json:"full_name"`
	Abbreviation string `json:"abbreviation"`
	City         string `json:"city"`
	Conference   string `json:"conference"`
	Division     string `json:"division"`
}

// GetTeams fetches every team, following next_cursor until it is absent.
func (c *Client) GetTeams(ctx context.Context) ([]provider.Team, error) {
	params := url.Values{"per_page": {"100"}}

	var teams []provider.Team
	for {
		resp, err := c.get(ctx, "/teams", params)
		if err != nil {
			return nil, fmt.Errorf("fetch teams: %w", err)
		}

		var raw []teamRaw
		if err := json.Unmarshal(resp.Data, &raw); err != nil {
			return nil, fmt.Errorf("decode teams: %w", err)
		}
		for _, t := range raw {
			teams = append(teams, normalizeTeam(t))
		}

		if resp.Meta.NextCursor == nil {
			break
		}
		params.Set("cursor", strconv.Itoa(*resp.Meta.NextCursor))
	}

	c.logger.Info("Fetched teams", "count", len(teams))
	return teams, nil
}

func normalizeTeam(raw teamRaw) provider.Team {
	return provider.Team{
		ID:           raw.ID,
		Name:         raw.Name,
		FullName:     raw.FullName,
		Abbreviation: raw.Abbreviation,
		City:         raw.City,
		Conference:   raw.Conference,
		Division:     raw.Division,
	}
}
