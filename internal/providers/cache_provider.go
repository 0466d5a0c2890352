package providers

import (
	"github.com/coocood/freecache"
	"streakd/internal/structures"
	"time"
	"unsafe"
)

// CacheProviderInterface backs two concerns: rendered streak responses under
// the default TTL and seen event ids under a caller supplied window.
type CacheProviderInterface interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
	Del(key string)
	// GetOrSet stores value under key unless the key is live and reports
	// whether it already was.
	GetOrSet(key string, value []byte, ttl time.Duration) ([]byte, bool)
}

type CacheProvider struct {
	cache *freecache.Cache
	ttl   int
}

func NewCacheProvider(conf *structures.Config, logger Logger) CacheProviderInterface {
	if !conf.Cache.Enabled || conf.Cache.Size <= 0 {
		logger.Infof(TypeApp, "Cache disabled, duplicate events will not be suppressed")
		return &noopCache{}
	}

	ttl := expireSeconds(conf.Cache.TTL)
	logger.Infof(TypeApp, "Cache initialized: %dMB, TTL=%ds, dedupe window=%s", conf.Cache.Size, ttl, conf.Cache.DedupeWindow)

	return &CacheProvider{
		cache: freecache.NewCache(conf.Cache.Size * 1024 * 1024),
		ttl:   ttl,
	}
}

// expireSeconds rounds up to freecache's one second resolution.
func expireSeconds(d time.Duration) int {
	return max(int((d+time.Second-1)/time.Second), 1)
}

// keyBytes aliases the string memory. freecache copies keys on write and
// never mutates them.
func keyBytes(s string) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

func (c *CacheProvider) Get(key string) ([]byte, bool) {
	val, err := c.cache.Get(keyBytes(key))
	if err != nil {
		return nil, false
	}
	return val, true
}

func (c *CacheProvider) Set(key string, value []byte) {
	_ = c.cache.Set(keyBytes(key), value, c.ttl)
}

func (c *CacheProvider) Del(key string) {
	c.cache.Del(keyBytes(key))
}

func (c *CacheProvider) GetOrSet(key string, value []byte, ttl time.Duration) ([]byte, bool) {
	prev, err := c.cache.GetOrSet(keyBytes(key), value, expireSeconds(ttl))
	if err != nil || prev == nil {
		return nil, false
	}
	return prev, true
}

type noopCache struct{}

func (n *noopCache) Get(_ string) ([]byte, bool) { return nil, false }
func (n *noopCache) Set(_ string, _ []byte)      {}
func (n *noopCache) Del(_ string)                {}
func (n *noopCache) GetOrSet(_ string, _ []byte, _ time.Duration) ([]byte, bool) {
	return nil, false
}
