package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const priceKeyPrefix = "price:"

// RedisPriceCache caches best-effort reference prices by mint with a
// TTL, so repeated ingestion runs don't hammer the quote service.
type RedisPriceCache struct {
	client redis.Cmdable
	ttl    time.Duration
	logger *logrus.Logger
}

// NewRedisPriceCache wraps an existing Redis client.
func NewRedisPriceCache(client redis.Cmdable, ttl time.Duration, logger *logrus.Logger) *RedisPriceCache {
	if logger == nil {
		logger = logrus.New()
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RedisPriceCache{client: client, ttl: ttl, logger: logger}
}

func (r *RedisPriceCache) GetPrice(ctx context.Context, mint string) (float64, bool, error) {
	val, err := r.client.Get(ctx, priceKey(mint)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get price: %w", err)
	}

	price, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, false, fmt.Errorf("parse cached price %q: %w", val, err)
	}
	return price, true, nil
}

func (r *RedisPriceCache) SetPrice(ctx context.Context, mint string, price float64) error {
	if err := r.client.Set(ctx, priceKey(mint), strconv.FormatFloat(price, 'f', -1, 64), r.ttl).Err(); err != nil {
		return fmt.Errorf("set price: %w", err)
	}
	return nil
}

func priceKey(mint string) string {
	return priceKeyPrefix + mint
}
