package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ansy-pieris/storefront/internal/domain"
)

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: time.Minute,
	}
}

// RedisCache holds cart snapshots for the read path. The TTL is short
// because snapshot prices are live prices; every cart mutation and every
// successful checkout invalidates the entry anyway.
type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func (r RedisCache) Get(ctx context.Context, userID int64) (*domain.CartSnapshot, error) {
	key := cacheKey(userID)

	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var snapshot domain.CartSnapshot
	if err2 := json.Unmarshal(data, &snapshot); err2 != nil {
		return nil, fmt.Errorf("unmarshal cart snapshot failed: %w", err2)
	}

	return &snapshot, nil
}

func (r RedisCache) Set(ctx context.Context, userID int64, snapshot *domain.CartSnapshot) error {
	key := cacheKey(userID)
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal cart snapshot failed: %w", err)
	}

	jitter := time.Duration(rand.Intn(15)) * time.Second
	ttl := r.baseTTL + jitter
	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r RedisCache) Delete(ctx context.Context, userID int64) error {
	if err := r.client.Del(ctx, cacheKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func cacheKey(userID int64) string {
	return fmt.Sprintf("cart:%d", userID)
}
