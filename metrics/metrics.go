// Package metrics provides Prometheus metrics for spurs-feed-mcp.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "spurs_feed_mcp"

var (
	// FetchTotal counts feed fetches by outcome ("ok" or an error type).
	FetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_total",
			Help:      "Total number of feed fetch attempts",
		},
		[]string{"outcome"},
	)

	// FetchDuration measures feed fetch duration.
	FetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of feed fetches in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// CacheTotal counts raw feed cache lookups.
	CacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_total",
			Help:      "Feed body cache lookups by result",
		},
		[]string{"result"},
	)

	// EntriesParsed observes how many entries each parse produced.
	EntriesParsed = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "entries_parsed",
			Help:      "Distribution of entries per parsed feed",
			Buckets:   []float64{0, 5, 10, 25, 50, 100},
		},
	)

	// EntriesClassified counts classified entries by category.
	EntriesClassified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entries_classified_total",
			Help:      "Entries classified, by category",
		},
		[]string{"category"},
	)

	// ToolCalls counts MCP tool invocations.
	ToolCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "MCP tool calls by tool and status",
		},
		[]string{"tool", "status"},
	)

	// ToolDuration measures MCP tool latency.
	ToolDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tool_duration_seconds",
			Help:      "Duration of MCP tool calls in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"tool"},
	)

	// CircuitBreakerState tracks the fetch breaker (0 closed, 1 half-open, 2 open).
	CircuitBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Feed circuit breaker state (0 = closed, 1 = half-open, 2 = open)",
		},
	)
)

// RecordFetch records a feed fetch.
func RecordFetch(outcome string, duration float64) {
	FetchTotal.WithLabelValues(outcome).Inc()
	FetchDuration.Observe(duration)
}

// RecordCache records a cache hit or miss.
func RecordCache(hit bool) {
	if hit {
		CacheTotal.WithLabelValues("hit").Inc()
		return
	}
	CacheTotal.WithLabelValues("miss").Inc()
}

// RecordParse records the size of a parsed feed.
func RecordParse(entries int) {
	EntriesParsed.Observe(float64(entries))
}

// RecordClassification records one classified entry.
func RecordClassification(category string) {
	EntriesClassified.WithLabelValues(category).Inc()
}

// RecordToolCall records an MCP tool call.
func RecordToolCall(tool, status string, duration float64) {
	ToolCalls.WithLabelValues(tool, status).Inc()
	ToolDuration.WithLabelValues(tool).Observe(duration)
}

// SetCircuitBreakerState sets the breaker gauge.
func SetCircuitBreakerState(state int) {
	CircuitBreakerState.Set(float64(state))
}
