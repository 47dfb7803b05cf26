package scrape

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/courtstats/internal/provider"
)

func page(rows [][3]string, next bool) string {
	var b strings.Builder
	b.WriteString(`<html><body><table class="stats">
		<thead><tr><th>Rk</th><th>Player</th><th>Team</th><th>FGA</th><th>FG%</th></tr></thead><tbody>`)
	for i, r := range rows {
		fmt.Fprintf(&b, `<tr><td>%d</td><td><a href="#">%s</a></td><td>%s</td><td>12</td><td>%s</td></tr>`, i+1, r[0], r[1], r[2])
	}
	b.WriteString(`</tbody></table>`)
	if next {
		b.WriteString(`<a rel="next" href="?page=2">Next</a>`)
	}
	b.WriteString(`</body></html>`)
	return b.String()
}

func TestFetchSeason_Paginates(t *testing.T) {
	var seenPages []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2025", r.URL.Query().Get("season"))
		p := r.URL.Query().Get("page")
		seenPages = append(seenPages, p)
		switch p {
		case "":
			fmt.Fprint(w, page([][3]string{
				{"Nikola Jokić", "DEN", ".576"},
				{"Dennis Schröder", "GSW", "41.2%"},
			}, true))
		case "2":
			fmt.Fprint(w, page([][3]string{
				{"Stephen Curry", "GSW", "45.0"},
				{"Nobody Yet", "SAS", "-"},
			}, false))
		default:
			t.Errorf("unexpected page %q", p)
		}
	}))
	defer srv.Close()

	s := New(Config{URL: srv.URL + "/leaders"}, nil)
	stats, err := s.FetchSeason(context.Background(), 2025)
	require.NoError(t, err)
	assert.Equal(t, []string{"", "2"}, seenPages)

	require.Len(t, stats, 3)
	assert.Equal(t, provider.PlayerStat{Name: "Nikola Jokić", Team: "DEN", Season: 2025, Value: 0.576}, stats[0])
	assert.InDelta(t, 0.412, stats[1].Value, 1e-9)
	assert.Equal(t, "Stephen Curry", stats[2].Name)
	assert.InDelta(t, 0.45, stats[2].Value, 1e-9)
}

func TestFetchSeason_StopsAtMaxPages(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, page([][3]string{{fmt.Sprintf("Player %d", calls), "TM", ".5"}}, true))
	}))
	defer srv.Close()

	stats, err := New(Config{URL: srv.URL, MaxPages: 3}, nil).FetchSeason(context.Background(), 2025)
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Len(t, stats, 3)
}

func TestFetchSeason_SeasonPlaceholder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/NBA_2024_totals.html", r.URL.Path)
		assert.Empty(t, r.URL.Query().Get("season"))
		fmt.Fprint(w, page([][3]string{{"LeBron James", "LAL", ".540"}}, false))
	}))
	defer srv.Close()

	stats, err := New(Config{URL: srv.URL + "/NBA_{season}_totals.html"}, nil).FetchSeason(context.Background(), 2024)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, 2024, stats[0].Season)
}

func TestFetchSeason_Failures(t *testing.T) {
	t.Run("empty table", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, page(nil, false))
		}))
		defer srv.Close()

		_, err := New(Config{URL: srv.URL}, nil).FetchSeason(context.Background(), 2025)
		assert.ErrorIs(t, err, provider.ErrNoData)
	})

	t.Run("no metric column", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `<table><tr><th>Player</th><th>PTS</th></tr><tr><td>A</td><td>10</td></tr></table>`)
		}))
		defer srv.Close()

		_, err := New(Config{URL: srv.URL}, nil).FetchSeason(context.Background(), 2025)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `"FG%"`)
	})

	t.Run("upstream error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "down", http.StatusBadGateway)
		}))
		defer srv.Close()

		_, err := New(Config{URL: srv.URL}, nil).FetchSeason(context.Background(), 2025)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "502")
	})

	t.Run("timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}))
		defer srv.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		_, err := New(Config{URL: srv.URL}, nil).FetchSeason(ctx, 2025)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("no url", func(t *testing.T) {
		_, err := New(Config{}, nil).FetchSeason(context.Background(), 2025)
		assert.Error(t, err)
	})
}
