package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/courtstats/internal/api/handler"
	"github.com/albapepper/courtstats/internal/cache"
	"github.com/albapepper/courtstats/internal/config"
	"github.com/albapepper/courtstats/internal/provider"
	"github.com/albapepper/courtstats/internal/storage"
	_ "github.com/albapepper/courtstats/internal/storage/sqlite"
)

const totalsCSV = `Player,Tm,Season,Age,FG%
LeBron James,LAL,2024,39,.54
Nikola Jokic,DEN,2024,28,.583
P.J. Tucker,LAC,2024,NA,.41
`

const historyDDL = `CREATE TABLE player_totals (
	seas_id INTEGER, season INTEGER, player_id INTEGER, player TEXT,
	pos TEXT, age INTEGER, experience INTEGER, lg TEXT, tm TEXT, fg_percent DOUBLE PRECISION);
INSERT INTO player_totals VALUES
	(1, 2024, 10, 'LeBron James', 'PF', 39, 21, 'NBA', 'LAL', 0.54),
	(2, 2024, 11, 'Nikola Jokic', 'C', 28, 9, 'NBA', 'DEN', 0.583);`

type fakeTeams struct {
	teams []provider.Team
	err   error
	calls int
}

func (f *fakeTeams) GetTeams(context.Context) ([]provider.Team, error) {
	f.calls++
	return f.teams, f.err
}

type fakeLeaders struct{ lastLimit int }

func (f *fakeLeaders) TopScorers(_ context.Context, season string, limit int) []provider.Leader {
	f.lastLimit = limit
	if season != "2024-25" {
		return []provider.Leader{}
	}
	out := make([]provider.Leader, limit)
	for i := range out {
		out[i] = provider.Leader{Rank: i + 1, Name: "Player", Points: 30 - float64(i)/10}
	}
	return out
}

type fakeFetcher struct {
	stats []provider.PlayerStat
	err   error
}

func (f fakeFetcher) FetchSeason(context.Context, int) ([]provider.PlayerStat, error) {
	return f.stats, f.err
}

type testServer struct {
	*httptest.Server
	repo    storage.Repository
	teams   *fakeTeams
	leaders *fakeLeaders
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		CORSAllowOrigins: []string{"http://localhost:5173"},
		UploadDir:        t.TempDir(),
		MaxUploadMB:      1,
		SchemaSampleRows: 1,
		HistoryTable:     config.DefaultHistoryTable,
		CurrentSeason:    2025,
		League:           config.DefaultLeague,
		ScrapeTimeout:    5 * time.Second,
	}
}

func newTestServer(t *testing.T, deps handler.Deps) *testServer {
	t.Helper()
	ctx := context.Background()

	repo, err := storage.Open(ctx, storage.Config{Kind: "sqlite", DSN: "file:" + filepath.Join(t.TempDir(), "api.db")})
	require.NoError(t, err)
	t.Cleanup(repo.Close)

	c := cache.New(true)
	t.Cleanup(c.Close)

	ts := &testServer{repo: repo, teams: &fakeTeams{}, leaders: &fakeLeaders{}}
	deps.Store = repo
	deps.Cache = c
	deps.Teams = ts.teams
	deps.Leaders = ts.leaders

	ts.Server = httptest.NewServer(NewRouter(deps, testConfig(t)))
	t.Cleanup(ts.Close)
	return ts
}

func upload(t *testing.T, url, filename, body string, fields map[string]string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = io.WriteString(fw, body)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(url, mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func get(t *testing.T, url string, header ...string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body struct {
		Error struct{ Code string } `json:"error"`
	}
	decode(t, resp, &body)
	return body.Error.Code
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, handler.Deps{})

	resp := get(t, ts.URL+"/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Process-Time"))

	resp = get(t, ts.URL+"/health/db")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]any
	decode(t, resp, &body)
	assert.Equal(t, "connected", body["database"])
	assert.NotEmpty(t, body["server_time"])

	resp = get(t, ts.URL+"/health/db?demo=true")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "NO_DEMO_DATABASE", errorCode(t, resp))

	resp = get(t, ts.URL+"/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestTables_ImportThenColumns(t *testing.T) {
	ts := newTestServer(t, handler.Deps{})

	resp := upload(t, ts.URL+"/api/v1/imports", "totals.csv", totalsCSV, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var imported struct {
		Created struct {
			Table struct{ Name string } `json:"table"`
			SQL   string                `json:"sql"`
		} `json:"created"`
		Loaded struct{ Rows int64 } `json:"loaded"`
	}
	decode(t, resp, &imported)
	assert.Equal(t, "totals", imported.Created.Table.Name)
	assert.Equal(t, "CREATE TABLE IF NOT EXISTS totals (Player TEXT, Tm TEXT, Season INTEGER, Age INTEGER, FG_ DOUBLE PRECISION);", imported.Created.SQL)
	assert.Equal(t, int64(3), imported.Loaded.Rows)

	resp = get(t, ts.URL+"/api/v1/tables/totals/columns")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "MISS", resp.Header.Get("X-Cache"))
	etag := resp.Header.Get("ETag")
	var cols struct {
		Columns []storage.Column `json:"columns"`
	}
	decode(t, resp, &cols)
	require.Len(t, cols.Columns, 5)
	assert.Equal(t, storage.KindFloat, cols.Columns[4].Kind)

	resp = get(t, ts.URL+"/api/v1/tables/totals/columns")
	assert.Equal(t, "HIT", resp.Header.Get("X-Cache"))

	resp = get(t, ts.URL+"/api/v1/tables/totals/columns", "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, resp.StatusCode)

	// A second load appends.
	resp = upload(t, ts.URL+"/api/v1/tables/totals/rows", "more.csv", totalsCSV, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var loaded struct{ Rows int64 }
	decode(t, resp, &loaded)
	assert.Equal(t, int64(3), loaded.Rows)
}

func TestTables_Errors(t *testing.T) {
	ts := newTestServer(t, handler.Deps{})

	resp := upload(t, ts.URL+"/api/v1/tables", "totals.csv", totalsCSV, map[string]string{"table": "totals"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	tests := []struct {
		name   string
		resp   func() *http.Response
		status int
		code   string
	}{
		{"unknown table", func() *http.Response {
			return upload(t, ts.URL+"/api/v1/tables/nope/rows", "x.csv", totalsCSV, nil)
		}, http.StatusNotFound, "TABLE_NOT_FOUND"},
		{"header mismatch", func() *http.Response {
			return upload(t, ts.URL+"/api/v1/tables/totals/rows", "x.csv", "Player,Points\nA,1\n", nil)
		}, http.StatusUnprocessableEntity, "HEADER_MISMATCH"},
		{"bad value", func() *http.Response {
			return upload(t, ts.URL+"/api/v1/tables/totals/rows", "x.csv", "Player,Tm,Season,Age,FG%\nA,B,twenty,1,.5\n", nil)
		}, http.StatusUnprocessableEntity, "MALFORMED_ROW"},
		{"empty file", func() *http.Response {
			return upload(t, ts.URL+"/api/v1/tables", "empty.csv", "", nil)
		}, http.StatusBadRequest, "EMPTY_FILE"},
		{"no columns", func() *http.Response {
			return get(t, ts.URL+"/api/v1/tables/nope/columns")
		}, http.StatusNotFound, "TABLE_NOT_FOUND"},
		{"missing file", func() *http.Response {
			resp, err := http.Post(ts.URL+"/api/v1/tables", "multipart/form-data; boundary=x", bytes.NewBufferString("--x--\r\n"))
			require.NoError(t, err)
			t.Cleanup(func() { resp.Body.Close() })
			return resp
		}, http.StatusBadRequest, "MISSING_FILE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := tt.resp()
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.code, errorCode(t, resp))
		})
	}
}

func TestReconcileAndHistory(t *testing.T) {
	fetcher := fakeFetcher{stats: []provider.PlayerStat{
		{Name: "LeBron James", Team: "LAL", Season: 2025, Value: 0.52},
		{Name: "Nikola Jokić", Team: "DEN", Season: 2025, Value: 0.57},
		{Name: "Unknown Rookie", Team: "SAS", Season: 2025, Value: 0.44},
	}}
	ts := newTestServer(t, handler.Deps{Fetcher: fetcher})
	require.NoError(t, ts.repo.Exec(context.Background(), historyDDL))

	// Prime the history cache so the reconcile has something to invalidate.
	resp := get(t, ts.URL+"/api/v1/players/history?name=LeBron%20James")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err := http.Post(ts.URL+"/api/v1/reconcile/fg-percentage?season=2025", "", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out handler.ReconcileResponse
	decode(t, resp, &out)
	assert.Equal(t, "Processed 2 out of 3 players. Failed: 1", out.Message)
	assert.Equal(t, "player_totals", out.Table)
	assert.Equal(t, 2, out.Summary.Inserted)

	resp = get(t, ts.URL+"/api/v1/players/history?name=LeBron%20James")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "MISS", resp.Header.Get("X-Cache"))
	var hist struct {
		Seasons []map[string]any `json:"seasons"`
		Next    struct {
			Season int `json:"season"`
			Age    int `json:"age"`
		} `json:"next"`
	}
	decode(t, resp, &hist)
	require.Len(t, hist.Seasons, 2)
	assert.Equal(t, 2026, hist.Next.Season)
	assert.Equal(t, 41, hist.Next.Age)

	resp = get(t, ts.URL+"/api/v1/players/history?name=Nobody")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = get(t, ts.URL+"/api/v1/players/history")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestReconcile_UpstreamFailures(t *testing.T) {
	t.Run("no data", func(t *testing.T) {
		ts := newTestServer(t, handler.Deps{Fetcher: fakeFetcher{}})
		resp, err := http.Post(ts.URL+"/api/v1/reconcile/fg-percentage", "", nil)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	})

	t.Run("disabled", func(t *testing.T) {
		ts := newTestServer(t, handler.Deps{})
		resp, err := http.Post(ts.URL+"/api/v1/reconcile/fg-percentage", "", nil)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})
}

func TestLeadersAndTeams(t *testing.T) {
	ts := newTestServer(t, handler.Deps{})

	resp := get(t, ts.URL+"/api/v1/leaders?season=2025&limit=80")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var leaders []provider.Leader
	decode(t, resp, &leaders)
	assert.Len(t, leaders, 50)
	assert.Equal(t, 50, ts.leaders.lastLimit)

	resp = get(t, ts.URL+"/api/v1/leaders?season=1990")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &leaders)
	assert.Empty(t, leaders)

	resp = get(t, ts.URL+"/api/v1/leaders?limit=zero")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	ts.teams.err = errors.New("401 unauthorized")
	resp = get(t, ts.URL+"/api/v1/teams")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	ts.teams.err = nil
	ts.teams.teams = []provider.Team{{ID: 14, Name: "Lakers", Abbreviation: "LAL"}}
	resp = get(t, ts.URL+"/api/v1/teams")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = get(t, ts.URL+"/api/v1/teams")
	assert.Equal(t, "HIT", resp.Header.Get("X-Cache"))
	assert.Equal(t, 2, ts.teams.calls)
}

func TestRateLimitMiddleware(t *testing.T) {
	h := RateLimitMiddleware(2, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	var codes []int
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusTooManyRequests, http.StatusTooManyRequests}, codes)
}
