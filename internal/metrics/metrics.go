// Package metrics exposes Prometheus collectors for the spider.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	spiderPagesTotal            *prometheus.CounterVec
	spiderEventsFoundTotal      prometheus.Counter
	spiderEventsEmittedTotal    *prometheus.CounterVec
	spiderOracleCallsTotal      prometheus.Counter
	spiderOracleErrorsTotal     prometheus.Counter
	spiderCacheHitsTotal        prometheus.Counter
	spiderFetchRetriesTotal     prometheus.Counter
	spiderPolitenessWaitSeconds *prometheus.HistogramVec
	spiderRunsTotal             *prometheus.CounterVec

	once sync.Once
)

// Init registers the collectors. Safe to call multiple times.
func Init() {
	once.Do(func() {
		spiderPagesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spider_pages_total",
				Help: "Pages fetched, labeled by host and outcome.",
			},
			[]string{"host", "status"},
		)

		spiderEventsFoundTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "spider_events_found_total",
				Help: "Raw event candidates extracted from pages.",
			},
		)

		spiderEventsEmittedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spider_events_emitted_total",
				Help: "Events that passed confidence and date filters, labeled by platform.",
			},
			[]string{"platform"},
		)

		spiderOracleCallsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "spider_oracle_calls_total",
				Help: "Calls issued to the classification oracle.",
			},
		)

		spiderOracleErrorsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "spider_oracle_errors_total",
				Help: "Oracle calls that failed or timed out.",
			},
		)

		spiderCacheHitsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "spider_cache_hits_total",
				Help: "Classification requests answered from the verdict cache.",
			},
		)

		spiderFetchRetriesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "spider_fetch_retries_total",
				Help: "Fetch attempts beyond the first, across all pages.",
			},
		)

		spiderPolitenessWaitSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "spider_politeness_wait_seconds",
				Help:    "Time spent waiting on per-host politeness delays.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"host"},
		)

		spiderRunsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spider_runs_total",
				Help: "Completed crawl runs, labeled by outcome.",
			},
			[]string{"outcome"},
		)
	})
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObservePage records one fetched page.
func ObservePage(host, status string) {
	if spiderPagesTotal != nil {
		spiderPagesTotal.WithLabelValues(host, status).Inc()
	}
}

// ObserveEventsFound adds to the raw candidate counter.
func ObserveEventsFound(n int) {
	if spiderEventsFoundTotal != nil && n > 0 {
		spiderEventsFoundTotal.Add(float64(n))
	}
}

// ObserveEventEmitted records an event that passed all filters.
func ObserveEventEmitted(platform string) {
	if spiderEventsEmittedTotal != nil {
		spiderEventsEmittedTotal.WithLabelValues(platform).Inc()
	}
}

// ObserveOracleCall records one oracle round trip.
func ObserveOracleCall(failed bool) {
	if spiderOracleCallsTotal != nil {
		spiderOracleCallsTotal.Inc()
	}
	if failed && spiderOracleErrorsTotal != nil {
		spiderOracleErrorsTotal.Inc()
	}
}

// ObserveCacheHit records a verdict cache hit.
func ObserveCacheHit() {
	if spiderCacheHitsTotal != nil {
		spiderCacheHitsTotal.Inc()
	}
}

// ObserveFetchRetry records a retried fetch attempt.
func ObserveFetchRetry() {
	if spiderFetchRetriesTotal != nil {
		spiderFetchRetriesTotal.Inc()
	}
}

// ObservePolitenessWait records time spent throttled on a host.
func ObservePolitenessWait(host string, d time.Duration) {
	if spiderPolitenessWaitSeconds != nil && d > time.Millisecond {
		spiderPolitenessWaitSeconds.WithLabelValues(host).Observe(d.Seconds())
	}
}

// ObserveRun records a finished run.
func ObserveRun(outcome string) {
	if spiderRunsTotal != nil {
		spiderRunsTotal.WithLabelValues(outcome).Inc()
	}
}
