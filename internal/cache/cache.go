package cache

import (
	"context"
	"errors"

	"shop-service/internal/items"
)

var ErrCacheMiss = errors.New("cache miss")

// ItemCache caches catalog list pages. Implementations must treat a missing
// key as ErrCacheMiss, never as an empty result.
type ItemCache interface {
	GetList(ctx context.Context, key string) ([]items.Item, error)
	SetList(ctx context.Context, key string, list []items.Item) error
	InvalidateLists(ctx context.Context) error
}
