package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tanmaydk/shopcore/internal/domain/model"
)

const stockTTL = 30 * time.Second

// Stock is the product snapshot cache contract used by the storage layer:
// read-through population outside units of work, and mandatory invalidation
// on every stock mutation.
type Stock interface {
	Get(ctx context.Context, productID string) *model.Product
	Set(ctx context.Context, p *model.Product)
	Invalidate(ctx context.Context, productID string) error
}

// StockCache keeps short-lived product stock snapshots in redis for
// availability display. Reservation correctness never depends on it; the
// conditional updates in storage are the authority.
type StockCache struct {
	client *redis.Client
	logger *slog.Logger
}

// NewStockCache builds the cache over the shared redis client.
func NewStockCache(client *redis.Client, logger *slog.Logger) *StockCache {
	return &StockCache{client: client, logger: logger}
}

// Get returns the cached snapshot, or nil on miss.
func (c *StockCache) Get(ctx context.Context, productID string) *model.Product {
	raw, err := c.client.Get(ctx, stockKey(productID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("stock cache read failed", slog.String("product", productID), slog.String("error", err.Error()))
		}
		return nil
	}
	var p model.Product
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil
	}
	return &p
}

// Set stores a snapshot with a short TTL. Failures are logged, not fatal.
func (c *StockCache) Set(ctx context.Context, p *model.Product) {
	raw, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, stockKey(p.ID), raw, stockTTL).Err(); err != nil {
		c.logger.Warn("stock cache write failed", slog.String("product", p.ID), slog.String("error", err.Error()))
	}
}

// Invalidate drops the snapshot after a stock mutation.
func (c *StockCache) Invalidate(ctx context.Context, productID string) error {
	return c.client.Del(ctx, stockKey(productID)).Err()
}

func stockKey(productID string) string {
	return fmt.Sprintf("stock:%s", productID)
}
