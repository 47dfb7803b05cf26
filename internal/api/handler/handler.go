// Package handler provides HTTP handlers for all API endpoints. Handlers call
// the ingest and reconcile packages directly; there is no service layer.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/albapepper/courtstats/internal/api/respond"
	"github.com/albapepper/courtstats/internal/cache"
	"github.com/albapepper/courtstats/internal/config"
	"github.com/albapepper/courtstats/internal/ingest"
	"github.com/albapepper/courtstats/internal/provider"
	"github.com/albapepper/courtstats/internal/reconcile"
	"github.com/albapepper/courtstats/internal/storage"
)

// TeamsSource lists teams.
type TeamsSource interface {
	GetTeams(ctx context.Context) ([]provider.Team, error)
}

// LeadersSource lists scoring leaders. It reports failures as an empty list.
type LeadersSource interface {
	TopScorers(ctx context.Context, season string, limit int) []provider.Leader
}

// Deps are the handler's collaborators. Demo, Teams, Leaders and Fetcher may
// be nil; the endpoints that need them then answer 503.
type Deps struct {
	Store   storage.Repository
	Demo    storage.Repository
	Cache   *cache.Cache
	Teams   TeamsSource
	Leaders LeadersSource
	Fetcher reconcile.Fetcher
	Logger  *slog.Logger
}

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	Deps
	cfg *config.Config
}

// New creates a Handler with shared dependencies.
func New(deps Deps, cfg *config.Config) *Handler {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Cache == nil {
		deps.Cache = cache.New(false)
	}
	return &Handler{Deps: deps, cfg: cfg}
}

var (
	errNoDemoStore = errors.New("demo database is not configured")
	errUpstream    = errors.New("upstream request failed")
)

// store picks the demo store when the request asks for it with demo=true.
func (h *Handler) store(r *http.Request) (storage.Repository, bool, error) {
	demo, _ := strconv.ParseBool(r.URL.Query().Get("demo"))
	if !demo {
		return h.Store, false, nil
	}
	if h.Demo == nil {
		return nil, true, errNoDemoStore
	}
	return h.Demo, true, nil
}

func (h *Handler) loader(repo storage.Repository) *ingest.Loader {
	return ingest.NewLoader(repo, h.cfg.SchemaSampleRows, h.Logger)
}

// cacheKey namespaces keys for the demo store so the two never mix.
func cacheKey(key string, demo bool) string {
	if demo {
		return "demo:" + key
	}
	return key
}

// writeCached serves key from cache, honoring If-None-Match, or computes it
// with fetch and stores it for ttl.
func (h *Handler) writeCached(w http.ResponseWriter, r *http.Request, key string, ttl time.Duration, fetch func() ([]byte, error)) {
	if data, etag, ok := h.Cache.Get(key); ok {
		if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
			respond.WriteNotModified(w, etag)
			return
		}
		respond.WriteJSON(w, data, etag, ttl, true)
		return
	}

	data, err := fetch()
	if err != nil {
		h.writeErr(w, err)
		return
	}
	etag := h.Cache.Set(key, data, ttl)
	if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
		respond.WriteNotModified(w, etag)
		return
	}
	respond.WriteJSON(w, data, etag, ttl, false)
}

// writeErr answers with the status for err. Handler-local causes are
// checked first; everything else goes through respond.Classify.
func (h *Handler) writeErr(w http.ResponseWriter, err error) {
	var status int
	switch {
	case errors.Is(err, errNoUpload):
		status = http.StatusBadRequest
		respond.WriteErrorDetail(w, status, respond.CodeMissingFile, http.StatusText(status), err.Error())
	case errors.Is(err, errNoDemoStore):
		status = http.StatusBadRequest
		respond.WriteErrorDetail(w, status, respond.CodeNoDemoDatabase, http.StatusText(status), err.Error())
	case errors.Is(err, errUpstream):
		status = http.StatusBadGateway
		respond.WriteErrorDetail(w, status, respond.CodeUpstream, http.StatusText(status), err.Error())
	default:
		status = respond.WriteDomainError(w, err)
	}
	if status >= http.StatusInternalServerError {
		h.Logger.Error("Request failed", "error", err)
	}
}
