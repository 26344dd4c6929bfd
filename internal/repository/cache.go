package repository

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rafadias/shopee-scraper/internal/extractor"
	"github.com/rafadias/shopee-scraper/internal/models"
)

const cacheKeyPrefix = "product:"

// CachedStore is a read-through Redis cache in front of another repository.
// Cache failures degrade to the inner store; they are logged, never
// surfaced.
type CachedStore struct {
	inner  extractor.KnownProductRepository
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedStore(inner extractor.KnownProductRepository, client *redis.Client, ttl time.Duration) *CachedStore {
	if ttl == 0 {
		ttl = time.Hour
	}
	return &CachedStore{
		inner:  inner,
		client: client,
		ttl:    ttl,
		logger: slog.Default().With("component", "product_cache"),
	}
}

func (c *CachedStore) Lookup(ctx context.Context, itemID string) (*models.ProductRecord, error) {
	key := cacheKeyPrefix + itemID

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var rec models.ProductRecord
		if err := json.Unmarshal(payload, &rec); err == nil {
			return &rec, nil
		}
		c.logger.Warn("corrupt cache entry, falling through", "key", key)
	} else if !errors.Is(err, redis.Nil) {
		c.logger.Warn("cache read failed", "key", key, "error", err)
	}

	rec, err := c.inner.Lookup(ctx, itemID)
	if err != nil || rec == nil {
		return rec, err
	}

	c.fill(ctx, key, rec)
	return rec, nil
}

func (c *CachedStore) Save(ctx context.Context, rec *models.ProductRecord) error {
	if err := c.inner.Save(ctx, rec); err != nil {
		return err
	}

	c.fill(ctx, cacheKeyPrefix+rec.ItemID, rec)
	return nil
}

func (c *CachedStore) fill(ctx context.Context, key string, rec *models.ProductRecord) {
	payload, err := json.Marshal(rec)
	if err != nil {
		c.logger.Warn("failed to encode record for cache", "key", key, "error", err)
		return
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn("cache write failed", "key", key, "error", err)
	}
}

var (
	_ extractor.KnownProductRepository = (*CachedStore)(nil)
	_ extractor.KnownProductRepository = (*PostgresStore)(nil)
	_ extractor.KnownProductRepository = (*FileStore)(nil)
)
