package cache

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// ProviderConfig carries everything a provider constructor needs.
type ProviderConfig struct {
	// Size is the maximum number of entries before LRU eviction kicks in.
	Size int

	// TTL is the time-to-live applied to every entry.
	TTL time.Duration

	// OnEvict is invoked for evicted entries. Optional.
	OnEvict EvictCallback

	// Logger receives cache operation errors. Optional.
	Logger Logger

	// RedisAddress is the Redis/Valkey server address ("host:port").
	RedisAddress string

	// RedisPassword authenticates against the Redis/Valkey server.
	RedisPassword string

	// RedisDB selects the Redis/Valkey database number.
	RedisDB int

	// Group namespaces the Prometheus cache metrics (cache_hits_total and
	// friends). A non-empty Group wraps the cache with instrumentation.
	Group string
}

// Provider constructs a Cache from config.
type Provider func(cfg ProviderConfig) (Cache, error)

var (
	mu        sync.RWMutex
	providers = make(map[string]Provider)
)

// Register adds a provider under name. Panics on duplicate registration or a
// nil provider, both of which are programming errors.
func Register(name string, p Provider) {
	mu.Lock()
	defer mu.Unlock()

	if p == nil {
		panic("cache: Register provider is nil")
	}
	if _, exists := providers[name]; exists {
		panic(fmt.Sprintf("cache: provider %q already registered", name))
	}
	providers[name] = p
}

// New creates a Cache using the named provider. When cfg.Group is set, the
// cache is wrapped so hits, misses, and evictions are counted under a "cache"
// label equal to Group, and an entries collector reads Len() at scrape time.
func New(name string, cfg ProviderConfig) (Cache, error) {
	mu.RLock()
	p, ok := providers[name]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("cache: unknown provider %q (registered: %v)", name, RegisteredProviders())
	}

	if cfg.Group == "" {
		return p(cfg)
	}

	group := cfg.Group
	// Count evictions at this layer so providers stay metric-free.
	original := cfg.OnEvict
	cfg.OnEvict = func(key string, value []byte) {
		EvictionsTotal.WithLabelValues(group).Inc()
		if original != nil {
			original(key, value)
		}
	}

	inner, err := p(cfg)
	if err != nil {
		return nil, err
	}

	return newInstrumentedCache(inner, group), nil
}

// RegisteredProviders returns the registered provider names, sorted.
func RegisteredProviders() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
