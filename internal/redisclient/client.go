package redisclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"menu-import-service/internal/models"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const latestPricesTTL = 15 * time.Minute

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// SetLatestPrices caches a restaurant's latest-price view. The cache is
// a read accelerator only; the store stays the source of truth.
func (c *Client) SetLatestPrices(ctx context.Context, restaurantID uuid.UUID, prices []models.LatestPrice) error {
	data, err := json.Marshal(prices)
	if err != nil {
		return fmt.Errorf("failed to marshal latest prices: %w", err)
	}
	return c.rdb.Set(ctx, latestPricesKey(restaurantID), data, latestPricesTTL).Err()
}

// GetLatestPrices reads a restaurant's cached latest-price view. The
// second return is false on a cache miss.
func (c *Client) GetLatestPrices(ctx context.Context, restaurantID uuid.UUID) ([]models.LatestPrice, bool, error) {
	data, err := c.rdb.Get(ctx, latestPricesKey(restaurantID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var prices []models.LatestPrice
	if err := json.Unmarshal(data, &prices); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cached prices: %w", err)
	}
	return prices, true, nil
}

// InvalidateLatestPrices drops a restaurant's cached view after a new
// session commits.
func (c *Client) InvalidateLatestPrices(ctx context.Context, restaurantID uuid.UUID) error {
	return c.rdb.Del(ctx, latestPricesKey(restaurantID)).Err()
}

func latestPricesKey(restaurantID uuid.UUID) string {
	return fmt.Sprintf("latest_prices:%s", restaurantID)
}
