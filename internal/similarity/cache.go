package similarity

import (
	"fmt"

	"github.com/maypok86/otter"

	"github.com/mvp-joe/craft/internal/model"
)

// CachedScorer memoizes pair scores by the content digest of both specs.
// Ids are not trusted as keys: a caller may resubmit an edited spec under
// the same id. Safe for concurrent use.
type CachedScorer struct {
	inner Scorer
	cache otter.Cache[string, float64]
}

// NewCachedScorer wraps inner with a bounded cache of capacity pairs.
func NewCachedScorer(inner Scorer, capacity int) (*CachedScorer, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("cache capacity must be positive, got %d", capacity)
	}
	if inner == nil {
		inner = Default
	}
	cache, err := otter.MustBuilder[string, float64](capacity).
		CollectStats().
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build score cache: %w", err)
	}
	return &CachedScorer{inner: inner, cache: cache}, nil
}

// Score returns the cached score for (a, b) or computes and stores it.
func (c *CachedScorer) Score(a, b *model.APISpec) float64 {
	key, ok := pairKey(a, b)
	if !ok {
		return c.inner.Score(a, b)
	}
	if v, ok := c.cache.Get(key); ok {
		return v
	}
	v := c.inner.Score(a, b)
	c.cache.Set(key, v)
	return v
}

func pairKey(a, b *model.APISpec) (string, bool) {
	da, err := model.ContentDigest(a)
	if err != nil {
		return "", false
	}
	db, err := model.ContentDigest(b)
	if err != nil {
		return "", false
	}
	return da.String() + "|" + db.String(), true
}

// Stats reports cache hits and misses.
func (c *CachedScorer) Stats() (hits, misses int64) {
	s := c.cache.Stats()
	return s.Hits(), s.Misses()
}

// Close releases the cache's background resources.
func (c *CachedScorer) Close() {
	c.cache.Close()
}
