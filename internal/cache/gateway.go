// Package cache provides a TTL cache in front of the aggregation pipeline.
//
// Two result kinds are cached with different lifetimes: search result sets
// are short-lived because source rankings shift, while individual document
// records are stable enough to hold for a day. The backing store is
// pluggable; Redis is used when configured and an in-process map otherwise.
package cache

import (
	"context"
	"encoding/json"
	"time"
)

// Kind selects the TTL class for a cached entry.
type Kind string

const (
	// KindSearch caches whole search result sets.
	KindSearch Kind = "search"
	// KindDocument caches individual document records.
	KindDocument Kind = "document"
)

// Default TTLs per kind.
const (
	DefaultSearchTTL   = 5 * time.Minute
	DefaultDocumentTTL = 24 * time.Hour
)

// Store is the backing key-value store. Implementations must be safe for
// concurrent use. Get returns (nil, nil) on a miss.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Gateway wraps a Store with per-kind TTLs and JSON serialization.
type Gateway struct {
	store       Store
	searchTTL   time.Duration
	documentTTL time.Duration
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithSearchTTL overrides the search result TTL.
func WithSearchTTL(ttl time.Duration) Option {
	return func(g *Gateway) {
		if ttl > 0 {
			g.searchTTL = ttl
		}
	}
}

// WithDocumentTTL overrides the document record TTL.
func WithDocumentTTL(ttl time.Duration) Option {
	return func(g *Gateway) {
		if ttl > 0 {
			g.documentTTL = ttl
		}
	}
}

// NewGateway creates a Gateway over the given store.
func NewGateway(store Store, opts ...Option) *Gateway {
	g := &Gateway{
		store:       store,
		searchTTL:   DefaultSearchTTL,
		documentTTL: DefaultDocumentTTL,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// TTL returns the configured lifetime for a kind.
func (g *Gateway) TTL(kind Kind) time.Duration {
	if kind == KindDocument {
		return g.documentTTL
	}
	return g.searchTTL
}

// Get loads a cached value into dest. It returns false on a miss; store
// errors are treated as misses so a degraded cache never fails a request.
func (g *Gateway) Get(ctx context.Context, kind Kind, key string, dest any) bool {
	raw, err := g.store.Get(ctx, g.fullKey(kind, key))
	if err != nil || raw == nil {
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false
	}
	return true
}

// Put stores a value under the kind's TTL.
func (g *Gateway) Put(ctx context.Context, kind Kind, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return g.store.Set(ctx, g.fullKey(kind, key), raw, g.TTL(kind))
}

// Invalidate removes an entry.
func (g *Gateway) Invalidate(ctx context.Context, kind Kind, key string) error {
	return g.store.Delete(ctx, g.fullKey(kind, key))
}

func (g *Gateway) fullKey(kind Kind, key string) string {
	return string(kind) + ":" + key
}
