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
	// Bitquery metrics
	QueriesTotal  *prometheus.CounterVec
	QueryDuration *prometheus.HistogramVec

	// Selection metrics
	CandidatesSelected *prometheus.CounterVec
	SelectionFailures  *prometheus.CounterVec

	// Stream metrics
	CreationsReceived prometheus.Counter
	StreamReconnects  prometheus.Counter

	// Solana metrics
	RPCCallLatency *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance registered with reg.
// A nil reg means the default registry.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "pump_candidate"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		QueriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bitquery",
			Name:      "queries_total",
			Help:      "Total number of GraphQL queries by operation and status",
		}, []string{"query", "status"}),
		QueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "bitquery",
			Name:      "query_duration_seconds",
			Help:      "GraphQL query round trip in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"query"}),

		CandidatesSelected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "selection",
			Name:      "candidates_total",
			Help:      "Total number of candidates selected by path",
		}, []string{"path"}),
		SelectionFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "selection",
			Name:      "failures_total",
			Help:      "Total number of selection failures by reason",
		}, []string{"reason"}),

		CreationsReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "creations_total",
			Help:      "Total number of token creations received from the subscription",
		}),
		StreamReconnects: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "reconnects_total",
			Help:      "Total number of subscription reconnects",
		}),

		RPCCallLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("", nil)

// RecordQuery records a GraphQL query outcome.
func RecordQuery(operation string, err error, seconds float64) {
	if operation == "" {
		operation = "anonymous"
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	DefaultMetrics.QueriesTotal.WithLabelValues(operation, status).Inc()
	DefaultMetrics.QueryDuration.WithLabelValues(operation).Observe(seconds)
}

// RecordCandidate increments the selected candidates counter.
func RecordCandidate(path string) {
	DefaultMetrics.CandidatesSelected.WithLabelValues(path).Inc()
}

// RecordSelectionFailure increments the selection failure counter.
func RecordSelectionFailure(reason string) {
	DefaultMetrics.SelectionFailures.WithLabelValues(reason).Inc()
}

// RecordCreation increments the stream creations counter.
func RecordCreation() {
	DefaultMetrics.CreationsReceived.Inc()
}

// RecordReconnect increments the stream reconnects counter.
func RecordReconnect() {
	DefaultMetrics.StreamReconnects.Inc()
}

// RecordRPCLatency records RPC call latency.
func RecordRPCLatency(method string, seconds float64) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
}
