package cache

import (
	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// defaultMemorySize bounds the LRU when config leaves the size unset. The
// expirable LRU treats 0 as unlimited, and an output cache holding whole
// serialized subtitle tracks must never grow unbounded.
const defaultMemorySize = 512

func init() {
	Register("memory", newMemoryCache)
}

// memoryCache adapts hashicorp's expirable LRU to the Cache interface.
type memoryCache struct {
	inner *lru.LRU[string, []byte]
}

func newMemoryCache(cfg ProviderConfig) (Cache, error) {
	size := cfg.Size
	if size <= 0 {
		size = defaultMemorySize
	}

	var onEvict func(string, []byte)
	if cfg.OnEvict != nil {
		onEvict = func(key string, value []byte) {
			cfg.OnEvict(key, value)
		}
	}

	return &memoryCache{
		inner: lru.NewLRU[string, []byte](size, onEvict, cfg.TTL),
	}, nil
}

func (m *memoryCache) Get(key string) ([]byte, bool) {
	return m.inner.Get(key)
}

func (m *memoryCache) Set(key string, value []byte) {
	m.inner.Add(key, value)
}

func (m *memoryCache) Contains(key string) bool {
	return m.inner.Contains(key)
}

func (m *memoryCache) Len() int {
	return m.inner.Len()
}

func (m *memoryCache) Close() error {
	return nil
}
