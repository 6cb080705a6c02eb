package project

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/gyaneshwarpardhi/unitmap/internal/metrics"
)

// DefaultCacheSize is used when a non-positive size is requested.
const DefaultCacheSize = 4096

// CachedSource memoizes another Source for the lifetime of one invocation.
// Depth promotion re-walks nodes, and absorption during packaging queries
// the same assets again.
type CachedSource struct {
	next  Source
	cache *lru.Cache[string, []string]
}

// NewCachedSource wraps next with an LRU cache holding size entries.
func NewCachedSource(next Source, size int) (*CachedSource, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, []string](size)
	if err != nil {
		return nil, fmt.Errorf("dependency cache: %w", err)
	}
	return &CachedSource{next: next, cache: cache}, nil
}

// Dependencies implements Source. Errors are not cached.
func (c *CachedSource) Dependencies(p string) ([]string, error) {
	if deps, ok := c.cache.Get(p); ok {
		metrics.DependencyLookups.WithLabelValues("hit").Inc()
		return deps, nil
	}
	metrics.DependencyLookups.WithLabelValues("miss").Inc()
	deps, err := c.next.Dependencies(p)
	if err != nil {
		return nil, err
	}
	c.cache.Add(p, deps)
	return deps, nil
}
