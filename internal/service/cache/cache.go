package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrConflict is returned by Update when another writer changed the key
// between read and write too many times in a row.
var ErrConflict = errors.New("cache update conflict")

const updateRetries = 5

// CacheService stores JSON documents in redis. A missing key is not an
// error: Get leaves the destination zero-valued so callers can detect
// absence from the payload itself.
type CacheService struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewCacheService(rdb *redis.Client, logger *zap.Logger) (*CacheService, error) {
	if rdb == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{rdb: rdb, logger: logger}, nil
}

func (c *CacheService) Get(ctx context.Context, key string, dest any) error {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("cache decode %s: %w", key, err)
	}
	return nil
}

func (c *CacheService) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	if err := c.rdb.Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

func (c *CacheService) Del(ctx context.Context, key string) error {
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("cache del %s: %w", key, err)
	}
	return nil
}

// Update applies fn to the current JSON value of key under a WATCH so that
// concurrent writers cannot silently overwrite each other. fn receives the
// raw stored bytes (nil when the key is absent) and returns the replacement
// value, or nil to leave the key untouched.
func (c *CacheService) Update(ctx context.Context, key string, ttl time.Duration, fn func(raw []byte) (any, error)) error {
	txn := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err != nil && err != redis.Nil {
			return fmt.Errorf("cache read %s: %w", key, err)
		}
		if err == redis.Nil {
			raw = nil
		}

		next, err := fn(raw)
		if err != nil {
			return err
		}
		if next == nil {
			return nil
		}
		encoded, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("cache encode %s: %w", key, err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, ttl)
			return nil
		})
		return err
	}

	for i := 0; i < updateRetries; i++ {
		err := c.rdb.Watch(ctx, txn, key)
		if err == nil {
			return nil
		}
		if err == redis.TxFailedErr {
			c.logger.Debug("cache update retry", zap.String("key", key), zap.Int("attempt", i+1))
			continue
		}
		return err
	}
	return fmt.Errorf("%w: key %s", ErrConflict, key)
}
