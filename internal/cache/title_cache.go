// Package cache keeps denormalized title views in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"yamdb/internal/metrics"
	"yamdb/internal/microservices/http-api/dto"

	"github.com/redis/go-redis/v9"
)

// TitleCache stores TitleResponse values under title:<id>. A nil *TitleCache
// (or one without a client) is a valid no-op cache.
type TitleCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewClient parses a redis:// URL and verifies the server answers.
func NewClient(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return rdb, nil
}

func NewTitleCache(client *redis.Client, ttl time.Duration) *TitleCache {
	return &TitleCache{client: client, ttl: ttl}
}

func titleKey(id int64) string {
	return fmt.Sprintf("title:%d", id)
}

// Get returns nil, nil on a miss.
func (c *TitleCache) Get(ctx context.Context, id int64) (*dto.TitleResponse, error) {
	if c == nil || c.client == nil {
		return nil, nil
	}
	raw, err := c.client.Get(ctx, titleKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.TitleCacheLookups.WithLabelValues("miss").Inc()
		return nil, nil
	}
	if err != nil {
		metrics.TitleCacheLookups.WithLabelValues("error").Inc()
		return nil, err
	}

	var view dto.TitleResponse
	if err := json.Unmarshal(raw, &view); err != nil {
		metrics.TitleCacheLookups.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("decode cached title %d: %w", id, err)
	}
	metrics.TitleCacheLookups.WithLabelValues("hit").Inc()
	return &view, nil
}

func (c *TitleCache) Set(ctx context.Context, view *dto.TitleResponse) error {
	if c == nil || c.client == nil || view == nil {
		return nil
	}
	raw, err := json.Marshal(view)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, titleKey(view.ID), raw, c.ttl).Err()
}

func (c *TitleCache) Invalidate(ctx context.Context, id int64) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, titleKey(id)).Err()
}

// InvalidateAll drops every cached title. Used when a genre or category
// disappears from under many titles at once.
func (c *TitleCache) InvalidateAll(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	var cursor uint64
	for {
		// SCAN walks the keyspace in batches without blocking the server
		keys, next, err := c.client.Scan(ctx, cursor, "title:*", 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}
