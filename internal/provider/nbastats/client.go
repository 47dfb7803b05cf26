// Package nbastats reads the stats.nba.com league leaders endpoint.
package nbastats

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/albapepper/courtstats/internal/metrics"
	"github.com/albapepper/courtstats/internal/provider"
)

const (
	// DefaultBaseURL is the stats API root.
	DefaultBaseURL = "https://stats.nba.com/stats"

	// MaxLeaders caps a TopScorers request.
	MaxLeaders = 50
)

// stats.nba.com rejects requests that do not look like they came from nba.com.
var browserHeaders = map[string]string{
	"User-Agent": "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
	"Referer":    "https://www.nba.com/",
	"Origin":     "https://www.nba.com",
	"Accept":     "application/json",
}

// Client fetches league leaders.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient returns a client for baseURL (DefaultBaseURL when empty).
func NewClient(baseURL string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		logger:     logger,
	}
}

type leadersResponse struct {
	ResultSet struct {
		Headers []string `json:"headers"`
		RowSet  [][]any  `json:"rowSet"`
	} `json:"resultSet"`
}

// TopScorers returns the per-game scoring leaders for season ("2024-25" or
// its end year "2025"), at most min(limit, MaxLeaders) of them. Any failure is logged
// and yields an empty slice.
func (c *Client) TopScorers(ctx context.Context, season string, limit int) []provider.Leader {
	leaders, err := c.topScorers(ctx, season, limit)
	metrics.Upstream("nbastats", err)
	if err != nil {
		c.logger.Error("Error fetching league leaders", "season", season, "error", err)
		return []provider.Leader{}
	}
	return leaders
}

func (c *Client) topScorers(ctx context.Context, season string, limit int) ([]provider.Leader, error) {
	if limit > MaxLeaders {
		limit = MaxLeaders
	}
	if limit <= 0 {
		return []provider.Leader{}, nil
	}

	params := url.Values{
		"LeagueID":     {"00"},
		"PerMode":      {"PerGame"},
		"Scope":        {"S"},
		"Season":       {SeasonParam(season)},
		"SeasonType":   {"Regular Season"},
		"StatCategory": {"PTS"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/leagueleaders?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return nil, fmt.Errorf("leagueleaders returned %d: %s", resp.StatusCode, body)
	}

	var raw leadersResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return parseLeaders(raw.ResultSet.Headers, raw.ResultSet.RowSet, limit)
}

// parseLeaders locates the columns by header name since the endpoint has
// reordered them between seasons.
func parseLeaders(headers []string, rows [][]any, limit int) ([]provider.Leader, error) {
	nameIdx, ptsIdx, rankIdx, teamIdx := -1, -1, -1, -1
	for i, h := range headers {
		switch h {
		case "PLAYER":
			nameIdx = i
		case "PTS":
			ptsIdx = i
		case "RANK":
			rankIdx = i
		case "TEAM":
			teamIdx = i
		}
	}
	if nameIdx < 0 || ptsIdx < 0 {
		return nil, fmt.Errorf("resultSet is missing PLAYER or PTS: %v", headers)
	}

	if len(rows) > limit {
		rows = rows[:limit]
	}
	leaders := make([]provider.Leader, 0, len(rows))
	for _, row := range rows {
		if nameIdx >= len(row) || ptsIdx >= len(row) {
			continue
		}
		pts, _ := provider.ExtractValue(row[ptsIdx])
		l := provider.Leader{
			Name:   provider.ExtractString(row[nameIdx]),
			Points: pts,
		}
		if rankIdx >= 0 && rankIdx < len(row) {
			if r, ok := provider.ExtractValue(row[rankIdx]); ok {
				l.Rank = int(r)
			}
		}
		if teamIdx >= 0 && teamIdx < len(row) {
			l.Team = provider.ExtractString(row[teamIdx])
		}
		leaders = append(leaders, l)
	}
	return leaders, nil
}

// SeasonParam converts an end year like "2025" to the "2024-25" form the
// endpoint expects. Anything else passes through unchanged.
func SeasonParam(season string) string {
	year, err := strconv.Atoi(season)
	if err != nil || year < 1000 || year > 9999 {
		return season
	}
	return fmt.Sprintf("%d-%02d", year-1, year%100)
}
