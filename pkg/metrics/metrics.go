package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TradesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "journal_trades_processed_total",
		Help: "Total number of trade write operations",
	}, []string{"status"})

	DatabaseQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "journal_database_queries_total",
		Help: "Total number of database queries",
	}, []string{"query_type", "status"})

	DatabaseQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "journal_database_query_duration_seconds",
		Help:    "Duration of database queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"query_type"})

	MetricsRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "journal_metrics_requests_total",
		Help: "Total number of metrics computations",
	}, []string{"kind"})

	MetricsComputeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "journal_metrics_compute_duration_seconds",
		Help:    "Duration of in-memory metrics computations",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	SessionLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "journal_session_lookups_total",
		Help: "Total number of bearer token resolutions",
	}, []string{"status"})
)

func RecordTradeProcessed(status string) {
	TradesProcessed.WithLabelValues(status).Inc()
}

func RecordMetricsRequest(kind string) {
	MetricsRequests.WithLabelValues(kind).Inc()
}

func RecordSessionLookup(status string) {
	SessionLookups.WithLabelValues(status).Inc()
}

type Timer struct {
	start time.Time
}

func NewTimer() *Timer {
	return &Timer{
		start: time.Now(),
	}
}

func (t *Timer) ObserveDuration(observer prometheus.Observer) {
	observer.Observe(time.Since(t.start).Seconds())
}

func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}
