package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/albapepper/courtstats/internal/api/respond"
	"github.com/albapepper/courtstats/internal/cache"
	"github.com/albapepper/courtstats/internal/config"
	"github.com/albapepper/courtstats/internal/reconcile"
	"github.com/albapepper/courtstats/internal/schema"
)

// ReconcileResponse is the outcome of one scrape-and-reconcile run.
type ReconcileResponse struct {
	Message string            `json:"message"`
	Table   string            `json:"table"`
	Season  int               `json:"season"`
	Summary reconcile.Summary `json:"summary"`
}

// ReconcileFGPercentage scrapes a season of FG% and reconciles it into the
// history table.
// @Summary Reconcile FG%
// @Description Scrapes field-goal percentage for the season, then updates or inserts one row per player in a single batch transaction. Players that cannot be matched to history are counted as failures.
// @Tags reconcile
// @Produce json
// @Param season query int false "Season end year"
// @Param table query string false "History table"
// @Param demo query bool false "Use the demo database"
// @Success 200 {object} ReconcileResponse
// @Failure 502 {object} respond.ErrorResponse
// @Failure 503 {object} respond.ErrorResponse
// @Router /api/v1/reconcile/fg-percentage [post]
func (h *Handler) ReconcileFGPercentage(w http.ResponseWriter, r *http.Request) {
	if h.Fetcher == nil {
		respond.WriteError(w, http.StatusServiceUnavailable, respond.CodeDisabled, "FG_SOURCE_URL is not configured")
		return
	}
	repo, demo, err := h.store(r)
	if err != nil {
		h.writeErr(w, err)
		return
	}

	season := h.cfg.CurrentSeason
	if s := r.URL.Query().Get("season"); s != "" {
		season, err = strconv.Atoi(s)
		if err != nil {
			respond.WriteError(w, http.StatusBadRequest, respond.CodeInvalidParam, "season must be a year")
			return
		}
	}
	table := h.cfg.HistoryTable
	if t := r.URL.Query().Get("table"); t != "" {
		table = schema.SanitizeIdentifier(t)
	}

	job := &reconcile.Job{
		Fetcher:     h.Fetcher,
		Coordinator: reconcile.NewCoordinator(repo, nil, h.Logger),
		Options: reconcile.Options{
			Table:        table,
			MetricColumn: config.FGMetricColumn,
			League:       h.cfg.League,
			Season:       season,
		},
		Timeout: h.cfg.ScrapeTimeout,
		Logger:  h.Logger,
	}
	sum, err := job.Run(r.Context())
	if err != nil {
		h.writeErr(w, err)
		return
	}
	h.Cache.InvalidatePrefix(cacheKey(cache.HistoryKeyPrefix(table), demo))

	respond.WriteJSONObject(w, http.StatusOK, ReconcileResponse{
		Message: sum.Message(),
		Table:   table,
		Season:  season,
		Summary: sum,
	})
}

// GetPlayerHistory returns a player's recent seasons and the carried-forward
// projection for the next one.
// @Summary Player history
// @Description Up to 16 most recent seasons from the history table, newest first. Dots in names are ignored when matching.
// @Tags players
// @Produce json
// @Param name query string true "Player name"
// @Param table query string false "History table"
// @Param demo query bool false "Use the demo database"
// @Success 200 {object} reconcile.History
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/v1/players/history [get]
func (h *Handler) GetPlayerHistory(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		respond.WriteError(w, http.StatusBadRequest, respond.CodeInvalidParam, "name query parameter is required")
		return
	}
	repo, demo, err := h.store(r)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	table := h.cfg.HistoryTable
	if t := r.URL.Query().Get("table"); t != "" {
		table = schema.SanitizeIdentifier(t)
	}

	key := cacheKey(cache.HistoryKey(table, name), demo)
	if data, etag, ok := h.Cache.Get(key); ok {
		if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
			respond.WriteNotModified(w, etag)
			return
		}
		respond.WriteJSON(w, data, etag, cache.TTLHistory, true)
		return
	}

	hist, err := reconcile.PlayerHistory(r.Context(), repo, table, name, config.FGMetricColumn)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	if len(hist.Seasons) == 0 {
		respond.WriteError(w, http.StatusNotFound, respond.CodeNotFound, "No seasons found for "+name)
		return
	}

	data, err := json.Marshal(hist)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	etag := h.Cache.Set(key, data, cache.TTLHistory)
	respond.WriteJSON(w, data, etag, cache.TTLHistory, false)
}
