package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFinished_CountsOnlyCommittedRows(t *testing.T) {
	before := testutil.ToFloat64(rowsLoaded.WithLabelValues("metrics_test"))

	LoadFinished("metrics_test", 10, time.Second, nil)
	LoadFinished("metrics_test", 99, time.Second, errors.New("boom"))

	assert.Equal(t, before+10, testutil.ToFloat64(rowsLoaded.WithLabelValues("metrics_test")))
}

func TestResolved_DefaultsToNone(t *testing.T) {
	before := testutil.ToFloat64(resolutions.WithLabelValues("none"))
	Resolved("")
	assert.Equal(t, before+1, testutil.ToFloat64(resolutions.WithLabelValues("none")))
}

func TestHandler_ExposesCollectors(t *testing.T) {
	Reconciled(9, 1)
	ObserveHTTP(http.MethodGet, "/health", http.StatusOK, 5*time.Millisecond)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `courtstats_reconciled_entities_total{outcome="failure"}`)
	assert.Contains(t, body, `courtstats_http_request_duration_seconds_bucket`)
	assert.Contains(t, body, "go_goroutines")
}
