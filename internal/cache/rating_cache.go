// Package cache holds the Redis-backed rating aggregate cache.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Athul-13/tablespot-api/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const ratingKeyPrefix = "rating:avg:"

// NewClient connects to Redis and verifies the connection.
func NewClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}

// RatingCache stores rating aggregates as JSON under rating:avg:<restaurantID>.
type RatingCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRatingCache(client *redis.Client, ttl time.Duration) *RatingCache {
	return &RatingCache{client: client, ttl: ttl}
}

func ratingKey(restaurantID uuid.UUID) string {
	return ratingKeyPrefix + restaurantID.String()
}

// Get returns (nil, nil) on a cache miss.
func (c *RatingCache) Get(ctx context.Context, restaurantID uuid.UUID) (*domain.RatingAggregate, error) {
	data, err := c.client.Get(ctx, ratingKey(restaurantID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}

	var agg domain.RatingAggregate
	if err := json.Unmarshal(data, &agg); err != nil {
		return nil, fmt.Errorf("cache decode: %w", err)
	}
	return &agg, nil
}

func (c *RatingCache) Set(ctx context.Context, restaurantID uuid.UUID, agg *domain.RatingAggregate) error {
	data, err := json.Marshal(agg)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := c.client.Set(ctx, ratingKey(restaurantID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

func (c *RatingCache) Delete(ctx context.Context, restaurantID uuid.UUID) error {
	if err := c.client.Del(ctx, ratingKey(restaurantID)).Err(); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}
