// Package observability provides structured logging, Prometheus metrics and
// request ID propagation for the open access aggregation service.
//
// Logging uses zerolog, configured from LoggingConfig:
//
//	logger := observability.NewLogger(observability.LoggingConfig{
//	    Level:  "info",
//	    Format: "json",
//	    Output: "stdout",
//	})
//
// Metrics are package-level promauto collectors registered with the default
// Prometheus registry, exposed by the HTTP server on /metrics:
//
//	observability.CacheHits.WithLabelValues("search").Inc()
//	observability.ValidatorVerdicts.WithLabelValues("license", "true").Inc()
//
// Request IDs travel through the context:
//
//	ctx = observability.WithRequestID(ctx, observability.NewRequestID())
//	logger = observability.LoggerWithRequest(ctx, logger)
//
// All components are safe for concurrent use.
package observability
