package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordFetch(t *testing.T) {
	before := testutil.ToFloat64(FetchTotal.WithLabelValues("ok"))
	RecordFetch("ok", 0.25)
	assert.Equal(t, before+1, testutil.ToFloat64(FetchTotal.WithLabelValues("ok")))
}

func TestRecordCache(t *testing.T) {
	hits := testutil.ToFloat64(CacheTotal.WithLabelValues("hit"))
	misses := testutil.ToFloat64(CacheTotal.WithLabelValues("miss"))

	RecordCache(true)
	RecordCache(false)
	RecordCache(false)

	assert.Equal(t, hits+1, testutil.ToFloat64(CacheTotal.WithLabelValues("hit")))
	assert.Equal(t, misses+2, testutil.ToFloat64(CacheTotal.WithLabelValues("miss")))
}

func TestRecordToolCall(t *testing.T) {
	before := testutil.ToFloat64(ToolCalls.WithLabelValues("search_posts", "error"))
	RecordToolCall("search_posts", "error", 0.01)
	assert.Equal(t, before+1, testutil.ToFloat64(ToolCalls.WithLabelValues("search_posts", "error")))
}

func TestSetCircuitBreakerState(t *testing.T) {
	SetCircuitBreakerState(2)
	assert.Equal(t, float64(2), testutil.ToFloat64(CircuitBreakerState))
	SetCircuitBreakerState(0)
	assert.Equal(t, float64(0), testutil.ToFloat64(CircuitBreakerState))
}

func TestRecordClassification(t *testing.T) {
	before := testutil.ToFloat64(EntriesClassified.WithLabelValues("GAME_RESULT"))
	RecordClassification("GAME_RESULT")
	assert.Equal(t, before+1, testutil.ToFloat64(EntriesClassified.WithLabelValues("GAME_RESULT")))
}
