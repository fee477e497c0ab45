package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains the Prometheus collectors for the catalog service and the importer.
type Metrics struct {
	// HTTPRequestsTotal counts served requests, labeled by method, route and status.
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration observes request latency in seconds, labeled by method and route.
	HTTPRequestDuration *prometheus.HistogramVec

	// ImportRunsTotal counts importer runs, labeled by outcome.
	ImportRunsTotal *prometheus.CounterVec

	// ImportRowsTotal counts validated rows, labeled by status (accepted, rejected).
	ImportRowsTotal *prometheus.CounterVec

	// ImportChangesTotal counts records written by importer runs.
	ImportChangesTotal prometheus.Counter

	// ImportDuration observes the end-to-end duration of an importer run.
	ImportDuration prometheus.Histogram
}

// NewMetrics registers all collectors on reg under the given namespace.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests served",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		ImportRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "runs_total",
			Help:      "Total number of import runs by outcome",
		}, []string{"outcome"}),
		ImportRowsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "rows_total",
			Help:      "Total number of validated import rows by status",
		}, []string{"status"}),
		ImportChangesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "changes_total",
			Help:      "Total number of records written by import runs",
		}),
		ImportDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "duration_seconds",
			Help:      "Duration of import runs in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
		}),
	}
}

// RecordRequest records one served HTTP request.
func (m *Metrics) RecordRequest(method, route string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordImport records the result of one importer run.
func (m *Metrics) RecordImport(outcome string, accepted, rejected, changes int, duration time.Duration) {
	m.ImportRunsTotal.WithLabelValues(outcome).Inc()
	m.ImportRowsTotal.WithLabelValues("accepted").Add(float64(accepted))
	m.ImportRowsTotal.WithLabelValues("rejected").Add(float64(rejected))
	m.ImportChangesTotal.Add(float64(changes))
	m.ImportDuration.Observe(duration.Seconds())
}
