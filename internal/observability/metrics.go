package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "openaccess"

// Prometheus metrics for the aggregation pipeline. All are registered with
// the default registry via promauto and exposed on /metrics.
var (
	// SourceSearches counts source fan-out attempts, labeled by source and
	// outcome ("ok" or "error").
	SourceSearches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "source_searches_total",
		Help:      "Source searches performed during aggregation, by source and status.",
	}, []string{"source", "status"})

	// SourceSearchDuration observes how long each source took to answer.
	SourceSearchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "source_search_duration_seconds",
		Help:      "Duration of individual source searches in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"source"})

	// ValidatorVerdicts counts open-access verdicts, labeled by the stage
	// that concluded and whether the document was accepted.
	ValidatorVerdicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "validator_verdicts_total",
		Help:      "Open access validation verdicts, by deciding stage and acceptance.",
	}, []string{"stage", "accepted"})

	// ResolverOutcomes counts URL resolution attempts, labeled by strategy
	// and outcome ("resolved" or "unchanged").
	ResolverOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "resolver_outcomes_total",
		Help:      "Direct URL resolution attempts, by strategy and outcome.",
	}, []string{"strategy", "outcome"})

	// CacheHits counts cache hits by entry kind.
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_hits_total",
		Help:      "Cache hits, by entry kind.",
	}, []string{"kind"})

	// CacheMisses counts cache misses by entry kind.
	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_misses_total",
		Help:      "Cache misses, by entry kind.",
	}, []string{"kind"})

	// HTTPRequests counts inbound API requests, labeled by route and status
	// code class.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Inbound HTTP requests, by route and status code.",
	}, []string{"route", "status"})

	// HTTPRequestDuration observes inbound request latency by route.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Inbound HTTP request duration in seconds, by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})
)
