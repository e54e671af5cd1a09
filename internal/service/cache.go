package service

import (
	"context"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/smartfarmer/backend/internal/domain"
	"github.com/smartfarmer/backend/internal/observability"
)

// CachedGeocoder wraps a Geocoder with an in-memory LRU cache keyed by the
// normalized place name.
type CachedGeocoder struct {
	inner   Geocoder
	cache   *lru.Cache[string, domain.Location]
	metrics *observability.Metrics
}

// NewCachedGeocoder creates a cache decorator around a geocoder. Sizes below
// one are raised to one.
func NewCachedGeocoder(inner Geocoder, maxEntries int, metrics *observability.Metrics) *CachedGeocoder {
	// lru.New only fails for non-positive sizes.
	cache, _ := lru.New[string, domain.Location](max(maxEntries, 1))
	return &CachedGeocoder{
		inner:   inner,
		cache:   cache,
		metrics: metrics,
	}
}

func (c *CachedGeocoder) Geocode(ctx context.Context, name string) (domain.Location, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if loc, ok := c.cache.Get(key); ok {
		c.record("hit")
		return loc, nil
	}
	c.record("miss")

	loc, err := c.inner.Geocode(ctx, name)
	if err != nil {
		// Failures are not cached so a transient outage can be retried.
		return loc, err
	}
	c.cache.Add(key, loc)
	return loc, nil
}

func (c *CachedGeocoder) record(result string) {
	if c.metrics == nil {
		return
	}
	c.metrics.GeocodeCache.WithLabelValues(result).Inc()
}
