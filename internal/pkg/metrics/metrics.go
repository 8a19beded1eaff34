// Package metrics Prometheus 指標
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "bar_inventory"

var (
	// searchesTotal 單瓶搜尋次數
	// Labels: tenant, outcome (ok, empty, rate_limited, stopped, error)
	searchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "matching",
		Name:      "searches_total",
		Help:      "Total bottle searches by outcome",
	}, []string{"tenant", "outcome"})

	// searchResults 每次搜尋最終結果數
	searchResults = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "matching",
		Name:      "results",
		Help:      "Number of drinks returned per search",
		Buckets:   []float64{0, 1, 2, 3, 5, 8, 10},
	})

	// stageDuration 各比對階段耗時
	// Labels: stage (local, name, tag, baseSpirit, finalize)
	stageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "matching",
		Name:      "stage_duration_seconds",
		Help:      "Matching stage latency in seconds",
		Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"stage"})

	// externalCalls 外部酒譜查詢
	// Labels: endpoint (filter, lookup, random), status (success, empty, error)
	externalCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cocktaildb",
		Name:      "requests_total",
		Help:      "Total CocktailDB requests by endpoint and status",
	}, []string{"endpoint", "status"})

	// externalLatency 外部查詢耗時
	externalLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "cocktaildb",
		Name:      "request_duration_seconds",
		Help:      "CocktailDB request latency in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"endpoint"})

	// budgetExhausted 連續失敗達上限後跳過外部查詢
	budgetExhausted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "matching",
		Name:      "failure_budget_exhausted_total",
		Help:      "Searches that stopped calling the external source after consecutive failures",
	})

	// catalogRequests CMS 讀取
	// Labels: document, status (success, fallback, error)
	catalogRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "catalog",
		Name:      "requests_total",
		Help:      "Total catalog document reads by status",
	}, []string{"document", "status"})

	// cacheLookups 快取命中率
	// Labels: namespace, result (hit, miss)
	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Cache lookups by namespace and result",
	}, []string{"namespace", "result"})

	// activeSearches 進行中的搜尋
	activeSearches = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "matching",
		Name:      "active_searches",
		Help:      "Searches currently running",
	})
)

// RecordSearch 記錄一次搜尋結果
func RecordSearch(tenant, outcome string, results int) {
	searchesTotal.WithLabelValues(tenant, outcome).Inc()
	searchResults.Observe(float64(results))
}

// ObserveStage 記錄階段耗時
func ObserveStage(stage string, d time.Duration) {
	stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordExternalCall 記錄外部查詢
func RecordExternalCall(endpoint, status string, d time.Duration) {
	externalCalls.WithLabelValues(endpoint, status).Inc()
	externalLatency.WithLabelValues(endpoint).Observe(d.Seconds())
}

// RecordBudgetExhausted 失敗預算耗盡
func RecordBudgetExhausted() {
	budgetExhausted.Inc()
}

// RecordCatalogRequest 記錄 CMS 讀取
func RecordCatalogRequest(document, status string) {
	catalogRequests.WithLabelValues(document, status).Inc()
}

// RecordCacheLookup 記錄快取命中或未命中
func RecordCacheLookup(ns string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookups.WithLabelValues(ns, result).Inc()
}

// SearchStarted 進行中搜尋 +1，回傳的函式在結束時呼叫
func SearchStarted() func() {
	activeSearches.Inc()
	return activeSearches.Dec
}
