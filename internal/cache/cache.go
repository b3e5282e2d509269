package cache

// EvictCallback is called when an entry is evicted from the cache. Providers
// backed by external stores (Redis) may invoke it with a nil value.
type EvictCallback func(key string, value []byte)

// Logger receives error reports from cache operations. A nil Logger silences
// them; cache failures must never surface as request failures.
type Logger interface {
	Error(msg string, err error)
}

// Cache is the key-value store used for composed subtitle output and provider
// listings. Implementations provide LRU semantics with a global TTL, either
// in-process or backed by Redis/Valkey.
type Cache interface {
	// Get retrieves a value by key, refreshing its recency. The second
	// return is false on a miss.
	Get(key string) ([]byte, bool)

	// Set stores a value under key, overwriting any previous entry.
	Set(key string, value []byte)

	// Contains reports whether a key exists without touching LRU ordering.
	Contains(key string) bool

	// Len returns the current number of entries.
	Len() int

	// Close releases resources held by the cache. In-memory caches no-op.
	Close() error
}
