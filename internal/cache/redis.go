package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// keyPrefix namespaces the cache keys so multiple deployments can share
	// one Redis database.
	keyPrefix = "subweave:"

	// pingTimeout bounds the connectivity check at startup.
	pingTimeout = 5 * time.Second

	// opTimeout bounds every cache operation. A slow Redis must degrade to
	// a miss, not stall a subtitle request.
	opTimeout = 2 * time.Second
)

// opContext returns the bounded context cache operations run under.
func opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), opTimeout)
}

func init() {
	Register("redis", newRedisCache)
}

// redisCache implements Cache on Redis/Valkey with application-level LRU
// semantics, so composed subtitle output survives process restarts and can
// be shared across replicas.
//
// Requires Redis 7.4+ or Valkey 8+ for per-field hash TTL (HPEXPIRE). On
// older servers Set still stores values but they never expire.
//
// Regardless of entry count the cache occupies two Redis keys:
//
//   - {prefix}data — a hash of user key to value bytes, with per-field TTL
//     so Redis drops expired entries without application-side sweeps.
//   - {prefix}lru  — a sorted set tracking recency (member = user key,
//     score = last-access µs timestamp).
//
// Lua scripts keep Get (touch) and Set (write + evict) atomic. Sorted-set
// members whose hash field already expired are cleaned lazily during
// eviction.
type redisCache struct {
	client  *redis.Client
	ttl     time.Duration
	maxSize int
	onEvict EvictCallback
	logger  Logger
	dataKey string
	lruKey  string
}

// getAndTouch reads a hash field and, on a hit, refreshes its LRU score.
//
// KEYS[1] = data hash, KEYS[2] = LRU sorted set
// ARGV[1] = current µs timestamp, ARGV[2] = member (user key)
var getAndTouch = redis.NewScript(`
local val = redis.call('HGET', KEYS[1], ARGV[2])
if val then
    redis.call('ZADD', KEYS[2], ARGV[1], ARGV[2])
end
return val
`)

// setAndEvict writes a hash field with per-field TTL, refreshes its LRU
// score, and pops least-recently-used members while the set exceeds maxSize.
// HDEL on an already-expired field is a harmless no-op, which is how stale
// sorted-set members get swept.
//
// KEYS[1] = data hash, KEYS[2] = LRU sorted set
// ARGV[1] = value, ARGV[2] = current µs timestamp, ARGV[3] = member,
// ARGV[4] = maxSize, ARGV[5] = TTL in milliseconds
//
// Returns the evicted member names, possibly empty.
var setAndEvict = redis.NewScript(`
local member  = ARGV[3]
local maxSize = tonumber(ARGV[4])
local ttlMs   = tonumber(ARGV[5])

redis.call('HSET', KEYS[1], member, ARGV[1])
redis.call('HPEXPIRE', KEYS[1], ttlMs, 'FIELDS', 1, member)

redis.call('ZADD', KEYS[2], ARGV[2], member)

local size = redis.call('ZCARD', KEYS[2])
local evicted = {}
while size > maxSize do
    local oldest = redis.call('ZPOPMIN', KEYS[2], 1)
    if #oldest == 0 then break end
    local oldMember = oldest[1]
    redis.call('HDEL', KEYS[1], oldMember)
    table.insert(evicted, oldMember)
    size = size - 1
end

return evicted
`)

func newRedisCache(cfg ProviderConfig) (Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddress,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &redisCache{
		client:  client,
		ttl:     cfg.TTL,
		maxSize: cfg.Size,
		onEvict: cfg.OnEvict,
		logger:  cfg.Logger,
		dataKey: keyPrefix + "data",
		lruKey:  keyPrefix + "lru",
	}, nil
}

func (r *redisCache) keys() []string {
	return []string{r.dataKey, r.lruKey}
}

func (r *redisCache) logError(msg string, err error) {
	if r.logger != nil {
		r.logger.Error(msg, err)
	}
}

func (r *redisCache) Get(key string) ([]byte, bool) {
	ctx, cancel := opContext()
	defer cancel()

	now := strconv.FormatInt(time.Now().UnixMicro(), 10)
	result, err := getAndTouch.Run(ctx, r.client, r.keys(), now, key).Text()
	if err != nil {
		// redis.Nil is a normal miss.
		if !errors.Is(err, redis.Nil) {
			r.logError("redis cache Get failed", err)
		}
		return nil, false
	}
	return []byte(result), true
}

func (r *redisCache) Set(key string, value []byte) {
	ctx, cancel := opContext()
	defer cancel()

	now := strconv.FormatInt(time.Now().UnixMicro(), 10)
	maxSize := strconv.Itoa(r.maxSize)
	ttlMs := strconv.FormatInt(r.ttl.Milliseconds(), 10)

	evicted, err := setAndEvict.Run(ctx, r.client, r.keys(),
		value, now, key, maxSize, ttlMs,
	).StringSlice()

	if err != nil {
		r.logError("redis cache Set failed", err)
		return
	}

	if len(evicted) == 0 {
		return
	}

	if r.onEvict != nil {
		// Evicted values are not fetched back from Redis; callbacks get the
		// key only.
		for _, evictedKey := range evicted {
			r.onEvict(evictedKey, nil)
		}
	}
}

func (r *redisCache) Contains(key string) bool {
	ctx, cancel := opContext()
	defer cancel()

	n, err := r.client.HExists(ctx, r.dataKey, key).Result()
	if err != nil {
		r.logError("redis cache Contains failed", err)
	}
	return err == nil && n
}

func (r *redisCache) Len() int {
	ctx, cancel := opContext()
	defer cancel()

	n, err := r.client.HLen(ctx, r.dataKey).Result()
	if err != nil {
		r.logError("redis cache Len failed", err)
		return 0
	}
	return int(n)
}

func (r *redisCache) Close() error {
	return r.client.Close()
}
