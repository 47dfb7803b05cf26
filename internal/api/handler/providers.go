package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/albapepper/courtstats/internal/api/respond"
	"github.com/albapepper/courtstats/internal/cache"
	"github.com/albapepper/courtstats/internal/provider/nbastats"
)

const defaultLeadersLimit = 10

// GetLeaders returns per-game scoring leaders.
// @Summary Scoring leaders
// @Description Per-game points leaders from stats.nba.com. limit is capped at 50. Upstream failures yield an empty list.
// @Tags providers
// @Produce json
// @Param season query string false "Season, 2025 or 2024-25"
// @Param limit query int false "Number of leaders (max 50)"
// @Success 200 {array} provider.Leader
// @Failure 503 {object} respond.ErrorResponse
// @Router /api/v1/leaders [get]
func (h *Handler) GetLeaders(w http.ResponseWriter, r *http.Request) {
	if h.Leaders == nil {
		respond.WriteError(w, http.StatusServiceUnavailable, respond.CodeDisabled, "leaders source is not configured")
		return
	}

	season := r.URL.Query().Get("season")
	if season == "" {
		season = strconv.Itoa(h.cfg.CurrentSeason)
	}
	season = nbastats.SeasonParam(season)

	limit := defaultLeadersLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			respond.WriteError(w, http.StatusBadRequest, respond.CodeInvalidParam, "limit must be a positive integer")
			return
		}
		limit = min(n, nbastats.MaxLeaders)
	}

	key := fmt.Sprintf("leaders:%s:%d", season, limit)
	if data, etag, ok := h.Cache.Get(key); ok {
		if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
			respond.WriteNotModified(w, etag)
			return
		}
		respond.WriteJSON(w, data, etag, cache.TTLLeaders, true)
		return
	}

	leaders := h.Leaders.TopScorers(r.Context(), season, limit)
	if len(leaders) == 0 {
		// Failures come back as an empty list; keep them out of the cache.
		respond.WriteJSONObject(w, http.StatusOK, leaders)
		return
	}

	data, err := json.Marshal(leaders)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	etag := h.Cache.Set(key, data, cache.TTLLeaders)
	respond.WriteJSON(w, data, etag, cache.TTLLeaders, false)
}

// GetTeams returns all teams.
// @Summary Teams
// @Tags providers
// @Produce json
// @Success 200 {array} provider.Team
// @Failure 502 {object} respond.ErrorResponse
// @Failure 503 {object} respond.ErrorResponse
// @Router /api/v1/teams [get]
func (h *Handler) GetTeams(w http.ResponseWriter, r *http.Request) {
	if h.Teams == nil {
		respond.WriteError(w, http.StatusServiceUnavailable, respond.CodeDisabled, "BALLDONTLIE_API_KEY is not configured")
		return
	}
	h.writeCached(w, r, "teams", cache.TTLTeams, func() ([]byte, error) {
		teams, err := h.Teams.GetTeams(r.Context())
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errUpstream, err)
		}
		return json.Marshal(teams)
	})
}
