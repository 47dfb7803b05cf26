package bdl

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTeams_FollowsCursor(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/teams", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("cursor") {
		case "":
			fmt.Fprint(w, `{"data":[{"id":1,"name":"Hawks","full_name":"Atlanta Hawks","abbreviation":"ATL","city":"Atlanta","conference":"East","division":"Southeast"}],"meta":{"next_cursor":1}}`)
		case "1":
			fmt.Fprint(w, `{"data":[{"id":14,"name":"Lakers","full_name":"Los Angeles Lakers","abbreviation":"LAL","city":"Los Angeles","conference":"West","division":"Pacific"}],"meta":{}}`)
		default:
			t.Errorf("unexpected cursor %q", r.URL.Query().Get("cursor"))
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret", 6000, nil)
	teams, err := c.GetTeams(context.Background())
	require.NoError(t, err)
	require.Len(t, teams, 2)
	assert.Equal(t, 2, calls)

	assert.Equal(t, "Atlanta Hawks", teams[0].FullName)
	assert.Equal(t, "LAL", teams[1].Abbreviation)
	assert.Equal(t, "West", teams[1].Conference)
}

func TestGetTeams_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "bad", 6000, nil).GetTeams(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")

	_, err = NewClient(srv.URL, "", 6000, nil).GetTeams(context.Background())
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}
