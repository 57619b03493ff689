// Package aggregator composes the aggregation pipeline: fan the query out
// across every enabled source, validate each document's open-access status,
// upgrade landing pages to direct document URLs and cache the final result
// set. Merging here is plain concatenation in registry order; ranking and
// deduplication belong to the consumer.
package aggregator

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/openshelf/openaccess-service/internal/cache"
	"github.com/openshelf/openaccess-service/internal/domain"
	"github.com/openshelf/openaccess-service/internal/observability"
	"github.com/openshelf/openaccess-service/internal/openaccess"
	"github.com/openshelf/openaccess-service/internal/resolver"
	"github.com/openshelf/openaccess-service/internal/sources"
)

// defaultResolveWorkers bounds parallel resolver hops per search. Each hop
// is independent per document, so a small pool keeps latency flat without
// hammering third-party landing pages.
const defaultResolveWorkers = 4

// SearchResponse is the aggregated, validated result of one search.
type SearchResponse struct {
	Documents []*domain.Document `json:"documents"`
	// PerSource reports how many accepted documents each source
	// contributed, including zero entries for failed sources.
	PerSource map[string]int `json:"per_source"`
	// FromCache is true when the response was served without a fan-out.
	FromCache bool `json:"from_cache"`
}

// Service runs searches end to end.
type Service struct {
	registry  *sources.Registry
	validator *openaccess.Validator
	resolver  *resolver.Resolver
	cache     *cache.Gateway
	logger    zerolog.Logger
	workers   int
}

// Option configures a Service.
type Option func(*Service)

// WithResolveWorkers overrides the resolver worker pool size.
func WithResolveWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// New creates a Service over the given collaborators.
func New(registry *sources.Registry, validator *openaccess.Validator, res *resolver.Resolver, gateway *cache.Gateway, logger zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		registry:  registry,
		validator: validator,
		resolver:  res,
		cache:     gateway,
		logger:    logger.With().Str("component", "aggregator").Logger(),
		workers:   defaultResolveWorkers,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search validates the parameters, consults the cache, and on a miss fans
// the query out across all enabled sources. Source failures surface only as
// missing contributions; the only error returned is invalid input.
func (s *Service) Search(ctx context.Context, params sources.SearchParams) (*SearchResponse, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	key := cacheKey(params)
	var cached SearchResponse
	if s.cache.Get(ctx, cache.KindSearch, key, &cached) {
		observability.CacheHits.WithLabelValues(string(cache.KindSearch)).Inc()
		cached.FromCache = true
		s.logger.Debug().Str("cache_key", key).Msg("search served from cache")
		return &cached, nil
	}
	observability.CacheMisses.WithLabelValues(string(cache.KindSearch)).Inc()

	results := s.registry.SearchAll(ctx, params)

	response := &SearchResponse{
		Documents: []*domain.Document{},
		PerSource: make(map[string]int, len(results)),
	}
	for _, sr := range results {
		name := string(sr.Source)
		response.PerSource[name] = 0
		if sr.Error != nil {
			// A failed source contributes nothing; the search goes on.
			observability.SourceSearches.WithLabelValues(name, "error").Inc()
			s.logger.Warn().Err(sr.Error).Str("source", name).Msg("source search failed")
			continue
		}
		observability.SourceSearches.WithLabelValues(name, "ok").Inc()
		observability.SourceSearchDuration.WithLabelValues(name).Observe(sr.Result.SearchDuration.Seconds())
		accepted := s.acceptDocuments(ctx, sr.Result.Documents)
		response.PerSource[name] = len(accepted)
		response.Documents = append(response.Documents, accepted...)
	}

	s.resolveAll(ctx, response.Documents)

	if err := s.cache.Put(ctx, cache.KindSearch, key, response); err != nil {
		s.logger.Warn().Err(err).Msg("caching search results failed")
	}
	return response, nil
}

// GetDocument retrieves one document from a specific source, cached under
// the long-lived document kind.
func (s *Service) GetDocument(ctx context.Context, sourceType domain.SourceType, id string) (*domain.Document, error) {
	key := cache.Key("document", map[string]string{
		"source": string(sourceType),
		"id":     id,
	})
	var cached domain.Document
	if s.cache.Get(ctx, cache.KindDocument, key, &cached) {
		observability.CacheHits.WithLabelValues(string(cache.KindDocument)).Inc()
		return &cached, nil
	}
	observability.CacheMisses.WithLabelValues(string(cache.KindDocument)).Inc()

	src := s.registry.Get(sourceType)
	if src == nil {
		return nil, domain.NewNotFoundError("source", string(sourceType))
	}
	doc, err := src.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	verdict := s.validator.Validate(ctx, doc)
	observability.ValidatorVerdicts.WithLabelValues(string(verdict.Stage), strconv.FormatBool(verdict.Accepted)).Inc()
	if !verdict.Accepted {
		return nil, domain.NewNotFoundError("open access document", id)
	}
	doc.FullTextURL = s.resolveOne(ctx, doc.FullTextURL)

	if err := s.cache.Put(ctx, cache.KindDocument, key, doc); err != nil {
		s.logger.Warn().Err(err).Msg("caching document failed")
	}
	return doc, nil
}

// acceptDocuments runs the validator over a source's documents and keeps
// the accepted ones. Rejection is a normal outcome, logged at debug level
// with its reason.
func (s *Service) acceptDocuments(ctx context.Context, docs []*domain.Document) []*domain.Document {
	accepted := make([]*domain.Document, 0, len(docs))
	for _, doc := range docs {
		verdict := s.validator.Validate(ctx, doc)
		observability.ValidatorVerdicts.WithLabelValues(string(verdict.Stage), strconv.FormatBool(verdict.Accepted)).Inc()
		if !verdict.Accepted {
			s.logger.Debug().
				Str("title", doc.Title).
				Str("reason", verdict.Reason).
				Msg("document rejected")
			continue
		}
		accepted = append(accepted, doc)
	}
	return accepted
}

// resolveAll upgrades landing-page URLs to direct document URLs with a
// bounded worker pool. Resolution never fails; at worst the landing page
// survives unchanged.
func (s *Service) resolveAll(ctx context.Context, docs []*domain.Document) {
	if len(docs) == 0 {
		return
	}

	jobs := make(chan *domain.Document)
	var wg sync.WaitGroup
	workers := s.workers
	if workers > len(docs) {
		workers = len(docs)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for doc := range jobs {
				doc.FullTextURL = s.resolveOne(ctx, doc.FullTextURL)
			}
		}()
	}
	for _, doc := range docs {
		jobs <- doc
	}
	close(jobs)
	wg.Wait()
}

func (s *Service) resolveOne(ctx context.Context, landingURL string) string {
	strategy := s.resolver.StrategyFor(landingURL)
	if strategy == "" {
		return landingURL
	}
	resolved := s.resolver.Resolve(ctx, landingURL)
	outcome := "unchanged"
	if resolved != landingURL {
		outcome = "resolved"
	}
	observability.ResolverOutcomes.WithLabelValues(strategy, outcome).Inc()
	return resolved
}

// cacheKey derives the deterministic search cache key from the query and
// all non-zero filter parameters. Text parameters are case-normalized so
// searches differing only in case share one cache entry.
func cacheKey(params sources.SearchParams) string {
	kv := map[string]string{"query": strings.ToLower(strings.TrimSpace(params.Query))}
	if params.YearStart != 0 {
		kv["year_start"] = strconv.Itoa(params.YearStart)
	}
	if params.YearEnd != 0 {
		kv["year_end"] = strconv.Itoa(params.YearEnd)
	}
	if params.Discipline != "" {
		kv["discipline"] = strings.ToLower(params.Discipline)
	}
	if params.EducationLevel != "" {
		kv["education_level"] = strings.ToLower(params.EducationLevel)
	}
	if params.Limit != 0 {
		kv["limit"] = strconv.Itoa(params.Limit)
	}
	if params.Offset != 0 {
		kv["offset"] = strconv.Itoa(params.Offset)
	}
	return cache.Key("search", kv)
}
