// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Import metrics
	RecordsAccepted prometheus.Counter
	RecordsRejected *prometheus.CounterVec
	RecordWarnings  *prometheus.CounterVec
	ImportsTotal    *prometheus.CounterVec
	ImportDuration  prometheus.Histogram
	TradesInMemory  prometheus.Gauge

	// Filter metrics
	FilterEvents     *prometheus.CounterVec
	FilterSettleTime prometheus.Histogram

	// Aggregation metrics
	AggregationDuration *prometheus.HistogramVec
	ReportsGenerated    prometheus.Counter

	// HTTP metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	WSClients           prometheus.Gauge

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulImport prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "trade_journal_lab"
	}

	return &Metrics{
		// Import metrics
		RecordsAccepted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "records_accepted_total",
			Help:      "Total number of raw records normalized into trades",
		}),
		RecordsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "records_rejected_total",
			Help:      "Total number of raw records rejected by reason",
		}, []string{"reason"}),
		RecordWarnings: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "record_warnings_total",
			Help:      "Total number of accepted records carrying a warning",
		}, []string{"warning"}),
		ImportsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "batches_total",
			Help:      "Total number of import batches by status",
		}, []string{"status"}),
		ImportDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "duration_seconds",
			Help:      "Import batch duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		TradesInMemory: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "trades_loaded",
			Help:      "Number of trades in the working set",
		}),

		// Filter metrics
		FilterEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "filter",
			Name:      "events_total",
			Help:      "Filter pipeline events by kind (edit, commit, discard, rollback, reset, history)",
		}, []string{"event"}),
		FilterSettleTime: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "filter",
			Name:      "settle_seconds",
			Help:      "Time from a filter edit to its commit",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}),

		// Aggregation metrics
		AggregationDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "metrics",
			Name:      "aggregation_duration_seconds",
			Help:      "Aggregation duration in seconds by kind",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"kind"}),
		ReportsGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reporting",
			Name:      "reports_generated_total",
			Help:      "Total number of reports generated",
		}),

		// HTTP metrics
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by route and status",
		}, []string{"route", "status"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		WSClients: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "ws_clients",
			Help:      "Number of connected websocket clients",
		}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSuccessfulImport: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_import_timestamp",
			Help:      "Unix timestamp of last successful import",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordAccepted adds n to the accepted records counter.
func RecordAccepted(n int) {
	DefaultMetrics.RecordsAccepted.Add(float64(n))
}

// RecordRejected increments the rejected records counter for reason.
func RecordRejected(reason string) {
	DefaultMetrics.RecordsRejected.WithLabelValues(reason).Inc()
}

// RecordWarning increments the warnings counter.
func RecordWarning(warning string) {
	DefaultMetrics.RecordWarnings.WithLabelValues(warning).Inc()
}

// RecordImport records an import batch.
func RecordImport(status string, seconds float64, unixTime int64) {
	DefaultMetrics.ImportsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.ImportDuration.Observe(seconds)
	if status == "ok" {
		DefaultMetrics.LastSuccessfulImport.Set(float64(unixTime))
	}
}

// UpdateTradesLoaded sets the working-set gauge.
func UpdateTradesLoaded(n int) {
	DefaultMetrics.TradesInMemory.Set(float64(n))
}

// RecordFilterEvent increments the filter events counter.
func RecordFilterEvent(event string) {
	DefaultMetrics.FilterEvents.WithLabelValues(event).Inc()
}

// RecordFilterSettle observes the edit-to-commit latency.
func RecordFilterSettle(seconds float64) {
	DefaultMetrics.FilterSettleTime.Observe(seconds)
}

// RecordAggregation records how long an aggregation took.
func RecordAggregation(kind string, seconds float64) {
	DefaultMetrics.AggregationDuration.WithLabelValues(kind).Observe(seconds)
}

// RecordReportGenerated increments the reports counter.
func RecordReportGenerated() {
	DefaultMetrics.ReportsGenerated.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(route, status string, seconds float64) {
	DefaultMetrics.HTTPRequests.WithLabelValues(route, status).Inc()
	DefaultMetrics.HTTPRequestDuration.WithLabelValues(route).Observe(seconds)
}

// UpdateWSClients sets the websocket clients gauge.
func UpdateWSClients(n int) {
	DefaultMetrics.WSClients.Set(float64(n))
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
