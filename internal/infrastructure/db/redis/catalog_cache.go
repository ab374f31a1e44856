package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/coursehub/coursehub-api/internal/core/domain"
)

const (
	// Both keys share a hash tag so the script and transaction below stay
	// on one slot under Redis Cluster.
	catalogKey        = "{courses}:active"
	catalogGenKey     = "{courses}:generation"
	defaultCatalogTTL = time.Minute
)

// setIfGeneration stores the listing only while the generation counter
// still equals the value read before the listing was loaded.
var setIfGeneration = redis.NewScript(`
local gen = redis.call('GET', KEYS[1]) or '0'
if gen ~= ARGV[1] then
  return 0
end
redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
return 1
`)

// CatalogCache stores the JSON-encoded active course list under a single
// key, guarded by a generation counter that Invalidate bumps.
type CatalogCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewCatalogCache(client redis.Cmdable, ttl time.Duration) *CatalogCache {
	if ttl <= 0 {
		ttl = defaultCatalogTTL
	}
	return &CatalogCache{client: client, ttl: ttl}
}

// Get returns the cached list; the bool is false on a miss.
func (c *CatalogCache) Get(ctx context.Context) ([]*domain.Course, bool, error) {
	raw, err := c.client.Get(ctx, catalogKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("catalog cache get: %w", err)
	}

	var courses []*domain.Course
	if err := json.Unmarshal(raw, &courses); err != nil {
		return nil, false, fmt.Errorf("catalog cache decode: %w", err)
	}
	return courses, true, nil
}

// Generation returns the current invalidation counter. A missing counter
// reads as zero.
func (c *CatalogCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, catalogGenKey).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("catalog cache generation: %w", err)
	}
	return gen, nil
}

// Set stores courses if no invalidation happened since generation was read.
// It reports whether the listing was stored.
func (c *CatalogCache) Set(ctx context.Context, generation int64, courses []*domain.Course) (bool, error) {
	raw, err := json.Marshal(courses)
	if err != nil {
		return false, fmt.Errorf("catalog cache encode: %w", err)
	}

	stored, err := setIfGeneration.Run(ctx, c.client,
		[]string{catalogGenKey, catalogKey},
		strconv.FormatInt(generation, 10), raw, c.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("catalog cache set: %w", err)
	}
	return stored == 1, nil
}

// Invalidate bumps the generation and drops the cached listing in one
// transaction.
func (c *CatalogCache) Invalidate(ctx context.Context) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, catalogGenKey)
		pipe.Del(ctx, catalogKey)
		return nil
	})
	if err != nil {
		return fmt.Errorf("catalog cache invalidate: %w", err)
	}
	return nil
}
