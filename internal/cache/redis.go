package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"shop-service/internal/items"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "items:"

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: 5 * time.Minute,
	}
}

func (r *RedisCache) GetList(ctx context.Context, key string) ([]items.Item, error) {
	data, err := r.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var list []items.Item
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("unmarshal cached items failed: %w", err)
	}
	return list, nil
}

func (r *RedisCache) SetList(ctx context.Context, key string, list []items.Item) error {
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("marshal items failed: %w", err)
	}

	// Jitter spreads out expiry so pages do not all refill at once.
	ttl := r.baseTTL + time.Duration(rand.Intn(30))*time.Second
	if err := r.client.Set(ctx, keyPrefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// InvalidateLists drops every cached catalog page. Called after an admin
// mutates the catalog.
func (r *RedisCache) InvalidateLists(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("redis del failed: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan failed: %w", err)
	}
	return nil
}
