package sources

import (
	"context"
	"sync"

	"github.com/openshelf/openaccess-service/internal/domain"
)

// SourceResult holds the outcome of a search from one source. Result and
// Error are mutually exclusive; keeping the error typed (rather than
// collapsing to an empty slice here) preserves the "zero matches" versus
// "source failed" distinction for observability. The aggregation layer is
// where failures degrade to shorter result lists.
type SourceResult struct {
	// Source identifies which repository produced the result.
	Source domain.SourceType

	// Result contains the search results if the search succeeded.
	Result *SearchResult

	// Error contains the error if the search failed.
	Error error
}

// Registry manages source clients and coordinates concurrent searches.
// Registration and retrieval are thread-safe.
type Registry struct {
	mu      sync.RWMutex
	sources map[domain.SourceType]Source
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sources: make(map[domain.SourceType]Source),
	}
}

// Register adds a source to the registry, replacing any existing source of
// the same type.
func (r *Registry) Register(source Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[source.SourceType()] = source
}

// Get returns a source by type, or nil if not registered.
func (r *Registry) Get(sourceType domain.SourceType) Source {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sources[sourceType]
}

// AllSources returns a snapshot of all registered sources.
func (r *Registry) AllSources() []Source {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sources := make([]Source, 0, len(r.sources))
	for _, source := range r.sources {
		sources = append(sources, source)
	}
	return sources
}

// EnabledSources returns a snapshot of sources whose IsEnabled() is true.
func (r *Registry) EnabledSources() []Source {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sources := make([]Source, 0, len(r.sources))
	for _, source := range r.sources {
		if source.IsEnabled() {
			sources = append(sources, source)
		}
	}
	return sources
}

// SearchAll searches all enabled sources concurrently and returns one
// SourceResult per source, errors included. There is no synchronization
// between sources beyond the fan-in; each client paces itself with its own
// limiter. Context cancellation interrupts in-flight searches.
func (r *Registry) SearchAll(ctx context.Context, params SearchParams) []SourceResult {
	return r.SearchSources(ctx, params, nil)
}

// SearchSources searches specific sources concurrently. If sourceTypes is
// empty, all enabled sources are searched. Unknown source types are skipped.
func (r *Registry) SearchSources(ctx context.Context, params SearchParams, sourceTypes []domain.SourceType) []SourceResult {
	var selected []Source

	if len(sourceTypes) == 0 {
		selected = r.EnabledSources()
	} else {
		r.mu.RLock()
		selected = make([]Source, 0, len(sourceTypes))
		for _, st := range sourceTypes {
			if source, ok := r.sources[st]; ok {
				selected = append(selected, source)
			}
		}
		r.mu.RUnlock()
	}

	if len(selected) == 0 {
		return nil
	}

	resultChan := make(chan SourceResult, len(selected))
	var wg sync.WaitGroup

	for _, source := range selected {
		wg.Add(1)
		go func(s Source) {
			defer wg.Done()

			result, err := s.Search(ctx, params)
			resultChan <- SourceResult{
				Source: s.SourceType(),
				Result: result,
				Error:  err,
			}
		}(source)
	}

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	results := make([]SourceResult, 0, len(selected))
	for result := range resultChan {
		results = append(results, result)
	}

	return results
}
