package sources

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshelf/openaccess-service/internal/domain"
)

// mockSource is a mock implementation of Source for testing.
type mockSource struct {
	sourceType domain.SourceType
	name       string
	enabled    bool

	// searchFunc allows customizing search behavior in tests
	searchFunc func(ctx context.Context, params SearchParams) (*SearchResult, error)

	// Track calls for verification
	searchCalls atomic.Int32
}

func newMockSource(sourceType domain.SourceType, name string, enabled bool) *mockSource {
	return &mockSource{
		sourceType: sourceType,
		name:       name,
		enabled:    enabled,
	}
}

func (m *mockSource) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	m.searchCalls.Add(1)
	if m.searchFunc != nil {
		return m.searchFunc(ctx, params)
	}
	return &SearchResult{
		Documents:    []*domain.Document{},
		TotalResults: 0,
		HasMore:      false,
		Source:       m.sourceType,
	}, nil
}

func (m *mockSource) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	return nil, domain.ErrNotFound
}

func (m *mockSource) SourceType() domain.SourceType {
	return m.sourceType
}

func (m *mockSource) Name() string {
	return m.name
}

func (m *mockSource) IsEnabled() bool {
	return m.enabled
}

func (m *mockSource) SearchCallCount() int {
	return int(m.searchCalls.Load())
}

func TestNewRegistry(t *testing.T) {
	registry := NewRegistry()

	require.NotNil(t, registry)
	assert.Nil(t, registry.Get(domain.SourceTypeOpenAlex))
	assert.Empty(t, registry.AllSources())
}

func TestRegistry_Register(t *testing.T) {
	t.Run("registers and retrieves a source", func(t *testing.T) {
		registry := NewRegistry()
		source := newMockSource(domain.SourceTypeOpenAlex, "OpenAlex", true)

		registry.Register(source)

		assert.Equal(t, source, registry.Get(domain.SourceTypeOpenAlex))
		assert.Len(t, registry.AllSources(), 1)
	})

	t.Run("replaces a source with the same type", func(t *testing.T) {
		registry := NewRegistry()
		first := newMockSource(domain.SourceTypeArXiv, "arXiv", true)
		second := newMockSource(domain.SourceTypeArXiv, "arXiv v2", true)

		registry.Register(first)
		registry.Register(second)

		assert.Equal(t, second, registry.Get(domain.SourceTypeArXiv))
		assert.Len(t, registry.AllSources(), 1)
	})
}

func TestRegistry_EnabledSources(t *testing.T) {
	registry := NewRegistry()
	registry.Register(newMockSource(domain.SourceTypeOpenAlex, "OpenAlex", true))
	registry.Register(newMockSource(domain.SourceTypeArXiv, "arXiv", false))
	registry.Register(newMockSource(domain.SourceTypeDOAJ, "DOAJ", true))

	enabled := registry.EnabledSources()

	require.Len(t, enabled, 2)
	for _, s := range enabled {
		assert.True(t, s.IsEnabled())
	}
}

func TestRegistry_SearchAll(t *testing.T) {
	t.Run("searches all enabled sources concurrently", func(t *testing.T) {
		registry := NewRegistry()
		openalex := newMockSource(domain.SourceTypeOpenAlex, "OpenAlex", true)
		arxiv := newMockSource(domain.SourceTypeArXiv, "arXiv", true)
		disabled := newMockSource(domain.SourceTypeDOAJ, "DOAJ", false)
		registry.Register(openalex)
		registry.Register(arxiv)
		registry.Register(disabled)

		results := registry.SearchAll(context.Background(), SearchParams{Query: "open textbooks"})

		assert.Len(t, results, 2)
		assert.Equal(t, 1, openalex.SearchCallCount())
		assert.Equal(t, 1, arxiv.SearchCallCount())
		assert.Equal(t, 0, disabled.SearchCallCount())
	})

	t.Run("one failing source does not affect the others", func(t *testing.T) {
		registry := NewRegistry()
		failing := newMockSource(domain.SourceTypeOpenAlex, "OpenAlex", true)
		failing.searchFunc = func(ctx context.Context, params SearchParams) (*SearchResult, error) {
			return nil, errors.New("connection refused")
		}
		healthy := newMockSource(domain.SourceTypeGutenberg, "Gutenberg", true)
		healthy.searchFunc = func(ctx context.Context, params SearchParams) (*SearchResult, error) {
			return &SearchResult{
				Documents: []*domain.Document{{Title: "Frankenstein", Authors: []string{"Mary Shelley"}}},
				Source:    domain.SourceTypeGutenberg,
			}, nil
		}
		registry.Register(failing)
		registry.Register(healthy)

		results := registry.SearchAll(context.Background(), SearchParams{Query: "frankenstein"})

		require.Len(t, results, 2)
		var gotErr, gotDocs bool
		for _, r := range results {
			if r.Error != nil {
				gotErr = true
				assert.Equal(t, domain.SourceTypeOpenAlex, r.Source)
			}
			if r.Result != nil && len(r.Result.Documents) == 1 {
				gotDocs = true
				assert.Equal(t, domain.SourceTypeGutenberg, r.Source)
			}
		}
		assert.True(t, gotErr)
		assert.True(t, gotDocs)
	})

	t.Run("returns nil with no enabled sources", func(t *testing.T) {
		registry := NewRegistry()
		registry.Register(newMockSource(domain.SourceTypeOpenAlex, "OpenAlex", false))

		assert.Nil(t, registry.SearchAll(context.Background(), SearchParams{Query: "q"}))
	})

	t.Run("context cancellation reaches sources", func(t *testing.T) {
		registry := NewRegistry()
		slow := newMockSource(domain.SourceTypeCORE, "CORE", true)
		slow.searchFunc = func(ctx context.Context, params SearchParams) (*SearchResult, error) {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(5 * time.Second):
				return &SearchResult{Source: domain.SourceTypeCORE}, nil
			}
		}
		registry.Register(slow)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		results := registry.SearchAll(ctx, SearchParams{Query: "q"})

		require.Len(t, results, 1)
		assert.ErrorIs(t, results[0].Error, context.DeadlineExceeded)
	})
}

func TestRegistry_SearchSources(t *testing.T) {
	registry := NewRegistry()
	openalex := newMockSource(domain.SourceTypeOpenAlex, "OpenAlex", true)
	doab := newMockSource(domain.SourceTypeDOAB, "DOAB", true)
	registry.Register(openalex)
	registry.Register(doab)

	results := registry.SearchSources(context.Background(), SearchParams{Query: "q"},
		[]domain.SourceType{domain.SourceTypeDOAB, domain.SourceTypePubMed})

	require.Len(t, results, 1)
	assert.Equal(t, domain.SourceTypeDOAB, results[0].Source)
	assert.Equal(t, 0, openalex.SearchCallCount())
}
