// Package metrics holds the prometheus collectors for loads, reconcile runs,
// upstream fetches and HTTP requests. Everything registers on Registry, which
// /metrics serves.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "courtstats"

// Registry is the process-wide registry. It also carries the Go runtime and
// process collectors.
var Registry = prometheus.NewRegistry()

var (
	tablesCreated = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tables_created_total",
		Help:      "CREATE TABLE statements executed from inferred schemas.",
	}, []string{"status"})

	rowsLoaded = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rows_loaded_total",
		Help:      "Rows committed by bulk loads.",
	}, []string{"table"})

	loadDuration = promauto.With(Registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "load_duration_seconds",
		Help:      "Bulk load duration, including rollbacks.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
	}, []string{"status"})

	reconciled = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reconciled_entities_total",
		Help:      "Scraped entities processed by reconcile batches, by outcome.",
	}, []string{"outcome"})

	resolutions = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "identity_resolutions_total",
		Help:      "Identity resolutions by matching strategy (none when unresolved).",
	}, []string{"strategy"})

	upstreamRequests = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "upstream_requests_total",
		Help:      "Requests made to upstream statistic sources.",
	}, []string{"source", "status"})

	httpDuration = promauto.With(Registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "API request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "code"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Handler serves Registry in the prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// TableCreated records one CREATE TABLE attempt.
func TableCreated(err error) {
	tablesCreated.WithLabelValues(status(err)).Inc()
}

// LoadFinished records a bulk load. rows counts only when the load committed.
func LoadFinished(table string, rows int64, elapsed time.Duration, err error) {
	loadDuration.WithLabelValues(status(err)).Observe(elapsed.Seconds())
	if err == nil {
		rowsLoaded.WithLabelValues(table).Add(float64(rows))
	}
}

// Reconciled records the outcome counts of a committed batch.
func Reconciled(success, failure int) {
	reconciled.WithLabelValues("success").Add(float64(success))
	reconciled.WithLabelValues("failure").Add(float64(failure))
}

// Resolved records which strategy matched, or "none".
func Resolved(strategy string) {
	if strategy == "" {
		strategy = "none"
	}
	resolutions.WithLabelValues(strategy).Inc()
}

// Upstream records a request to an external statistic source.
func Upstream(source string, err error) {
	upstreamRequests.WithLabelValues(source, status(err)).Inc()
}

// ObserveHTTP records one served request. route is the matched pattern, not
// the raw path.
func ObserveHTTP(method, route string, code int, elapsed time.Duration) {
	httpDuration.WithLabelValues(method, route, strconv.Itoa(code)).Observe(elapsed.Seconds())
}
