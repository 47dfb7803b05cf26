package nbastats

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leadersJSON(n int) string {
	rows := make([]string, n)
	for i := range rows {
		rows[i] = fmt.Sprintf(`[%d, %d, "Player %d", "TM%d", %.1f]`, 200000+i, i+1, i+1, i%30, 35.0-float64(i)/10)
	}
	return `{"resource":"leagueleaders","resultSet":{"name":"LeagueLeaders",
		"headers":["PLAYER_ID","RANK","PLAYER","TEAM","PTS"],
		"rowSet":[` + strings.Join(rows, ",") + `]}}`
}

func TestTopScorers(t *testing.T) {
	var gotSeason, gotReferer string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/leagueleaders", r.URL.Path)
		gotSeason = r.URL.Query().Get("Season")
		gotReferer = r.Header.Get("Referer")
		fmt.Fprint(w, leadersJSON(80))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)

	leaders := c.TopScorers(context.Background(), "2025", 3)
	require.Len(t, leaders, 3)
	assert.Equal(t, "2024-25", gotSeason)
	assert.Equal(t, "https://www.nba.com/", gotReferer)
	assert.Equal(t, "Player 1", leaders[0].Name)
	assert.Equal(t, 1, leaders[0].Rank)
	assert.Equal(t, "TM0", leaders[0].Team)
	assert.InDelta(t, 35.0, leaders[0].Points, 1e-9)

	assert.Len(t, c.TopScorers(context.Background(), "2024-25", 75), MaxLeaders)
	assert.Empty(t, c.TopScorers(context.Background(), "2024-25", 0))
}

func TestTopScorers_FailuresYieldNoResults(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "blocked", http.StatusForbidden)
		}},
		{"bad json", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `<html>`)
		}},
		{"missing columns", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"resultSet":{"headers":["PLAYER_ID"],"rowSet":[[1]]}}`)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			leaders := NewClient(srv.URL, nil).TopScorers(context.Background(), "2024-25", 10)
			assert.NotNil(t, leaders)
			assert.Empty(t, leaders)
		})
	}
}

func TestSeasonParam(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "2024-25", SeasonParam("2025"))
	assert.Equal(t, "1999-00", SeasonParam("2000"))
	assert.Equal(t, "2023-24", SeasonParam("2023-24"))
	assert.Equal(t, "", SeasonParam(""))
}
