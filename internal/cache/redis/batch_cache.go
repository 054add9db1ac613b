package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/alanyoungcy/framecast/internal/domain"
	"github.com/redis/go-redis/v9"
)

// batchKeyPrefix namespaces resolved-batch entries in Redis.
const batchKeyPrefix = "markets:batch:"

// BatchCache implements domain.BatchCache with JSON values in Redis. Entries
// carry a TTL so cached batches expire at the window boundary rather than
// serving stale instances into the next period.
type BatchCache struct {
	rdb *redis.Client
}

// NewBatchCache creates a BatchCache backed by the given Client.
func NewBatchCache(c *Client) *BatchCache {
	return &BatchCache{rdb: c.Underlying()}
}

// Set stores a resolved batch under key with the given TTL.
func (bc *BatchCache) Set(ctx context.Context, key string, batch domain.ResolvedBatch, ttl time.Duration) error {
	data, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("redis: marshal batch %s: %w", key, err)
	}
	if err := bc.rdb.Set(ctx, batchKeyPrefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis: set batch %s: %w", key, err)
	}
	return nil
}

// Get fetches a cached batch. It returns domain.ErrNotFound when the key is
// absent or has expired.
func (bc *BatchCache) Get(ctx context.Context, key string) (domain.ResolvedBatch, error) {
	data, err := bc.rdb.Get(ctx, batchKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.ResolvedBatch{}, fmt.Errorf("redis: batch %s: %w", key, domain.ErrNotFound)
		}
		return domain.ResolvedBatch{}, fmt.Errorf("redis: get batch %s: %w", key, err)
	}

	var batch domain.ResolvedBatch
	if err := json.Unmarshal(data, &batch); err != nil {
		return domain.ResolvedBatch{}, fmt.Errorf("redis: unmarshal batch %s: %w", key, err)
	}
	return batch, nil
}

// Invalidate removes a cached batch. Deleting a missing key is not an error.
func (bc *BatchCache) Invalidate(ctx context.Context, key string) error {
	if err := bc.rdb.Del(ctx, batchKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis: invalidate batch %s: %w", key, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.BatchCache = (*BatchCache)(nil)
