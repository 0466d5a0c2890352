package providers

import (
	"streakd/internal/structures"
	"time"
)

// MetricsCacheProvider counts hits and misses of every lookup, including
// the lookup half of GetOrSet.
type MetricsCacheProvider struct {
	inner   CacheProviderInterface
	metrics MetricsProviderInterface
}

func (c *MetricsCacheProvider) observe(found bool) {
	if found {
		c.metrics.IncCacheHits()
		return
	}
	c.metrics.IncCacheMisses()
}

func (c *MetricsCacheProvider) Get(key string) ([]byte, bool) {
	val, ok := c.inner.Get(key)
	c.observe(ok)
	return val, ok
}

func (c *MetricsCacheProvider) Set(key string, value []byte) {
	c.inner.Set(key, value)
}

func (c *MetricsCacheProvider) Del(key string) {
	c.inner.Del(key)
}

func (c *MetricsCacheProvider) GetOrSet(key string, value []byte, ttl time.Duration) ([]byte, bool) {
	prev, ok := c.inner.GetOrSet(key, value, ttl)
	c.observe(ok)
	return prev, ok
}

// NewInstrumentedCacheProvider skips instrumentation when the cache is
// disabled so the noop cache does not report misses.
func NewInstrumentedCacheProvider(conf *structures.Config, logger Logger, metrics MetricsProviderInterface) CacheProviderInterface {
	inner := NewCacheProvider(conf, logger)
	if _, disabled := inner.(*noopCache); disabled {
		return inner
	}
	return &MetricsCacheProvider{
		inner:   inner,
		metrics: metrics,
	}
}
