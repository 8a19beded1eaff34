package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordSearch(t *testing.T) {
	before := testutil.ToFloat64(searchesTotal.WithLabelValues("sample", "ok"))
	RecordSearch("sample", "ok", 4)
	assert.Equal(t, before+1, testutil.ToFloat64(searchesTotal.WithLabelValues("sample", "ok")))
}

func TestRecordExternalCall(t *testing.T) {
	before := testutil.ToFloat64(externalCalls.WithLabelValues("filter", "error"))
	RecordExternalCall("filter", "error", 30*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(externalCalls.WithLabelValues("filter", "error")))
}

func TestRecordCacheLookup(t *testing.T) {
	hits := testutil.ToFloat64(cacheLookups.WithLabelValues("cockpit", "hit"))
	misses := testutil.ToFloat64(cacheLookups.WithLabelValues("cockpit", "miss"))

	RecordCacheLookup("cockpit", true)
	RecordCacheLookup("cockpit", false)
	RecordCacheLookup("cockpit", false)

	assert.Equal(t, hits+1, testutil.ToFloat64(cacheLookups.WithLabelValues("cockpit", "hit")))
	assert.Equal(t, misses+2, testutil.ToFloat64(cacheLookups.WithLabelValues("cockpit", "miss")))
}

func TestSearchStarted(t *testing.T) {
	before := testutil.ToFloat64(activeSearches)
	done := SearchStarted()
	assert.Equal(t, before+1, testutil.ToFloat64(activeSearches))
	done()
	assert.Equal(t, before, testutil.ToFloat64(activeSearches))
}

func TestRecordBudgetExhausted(t *testing.T) {
	before := testutil.ToFloat64(budgetExhausted)
	RecordBudgetExhausted()
	assert.Equal(t, before+1, testutil.ToFloat64(budgetExhausted))
}
