package viewport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists the viewport in redis, for deployments where several
// instances should share it.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore wraps a connected client.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// Load returns the stored viewport, or Default when the key is absent.
func (s *RedisStore) Load(ctx context.Context) (Viewport, error) {
	raw, err := s.rdb.Get(ctx, StorageKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return Default, nil
	}
	if err != nil {
		return Default, fmt.Errorf("load viewport: %w", err)
	}
	var v Viewport
	if err := json.Unmarshal(raw, &v); err != nil {
		return Default, fmt.Errorf("parse stored viewport: %w", err)
	}
	return v, nil
}

// Save stores the viewport without expiry.
func (s *RedisStore) Save(ctx context.Context, v Viewport) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, StorageKey, raw, 0).Err(); err != nil {
		return fmt.Errorf("save viewport: %w", err)
	}
	return nil
}
