package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	Queries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tweetbook_queries_total",
		Help: "Total core operations executed",
	}, []string{"backend", "operation"})
	QueryErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tweetbook_query_errors_total",
		Help: "Total core operations that returned an error",
	}, []string{"backend", "operation"})
	QueryDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tweetbook_query_duration_seconds",
		Help:    "Core operation duration seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"backend", "operation"})
	ResultRows = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tweetbook_result_rows",
		Help:    "Rows returned per read operation",
		Buckets: []float64{0, 1, 3, 5, 10, 25, 50, 100},
	}, []string{"backend", "operation"})
	LoadedDocuments = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tweetbook_loaded_documents_total",
		Help: "Documents inserted by the bulk loader",
	})
	BreakerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "tweetbook_breaker_state",
		Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
	}, []string{"name"})
)

// Backend labels.
const (
	Relational = "relational"
	Document   = "document"
)

func init() {
	prometheus.MustRegister(Queries, QueryErrors, QueryDuration, ResultRows, LoadedDocuments, BreakerState)
}

// Observe records one operation. Call it deferred with a pointer to the
// operation's named error result.
func Observe(backend, operation string, start time.Time, err *error) {
	Queries.WithLabelValues(backend, operation).Inc()
	QueryDuration.WithLabelValues(backend, operation).Observe(time.Since(start).Seconds())
	if err != nil && *err != nil {
		QueryErrors.WithLabelValues(backend, operation).Inc()
	}
}

// ObserveRows records the size of a read result.
func ObserveRows(backend, operation string, n int) {
	ResultRows.WithLabelValues(backend, operation).Observe(float64(n))
}
