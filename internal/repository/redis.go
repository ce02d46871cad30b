package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gasthof/internal/config"
	"gasthof/internal/models"

	"github.com/redis/go-redis/v9"
)

type RedisStatusCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient создает новый клиент Redis на основе конфигурации
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	options := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}

	return redis.NewClient(options)
}

func NewRedisStatusCache(client *redis.Client, ttl time.Duration) *RedisStatusCache {
	return &RedisStatusCache{
		client: client,
		ttl:    ttl,
	}
}

func (r *RedisStatusCache) GetDerived(ctx context.Context, offerID string) (*models.DerivedStatus, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	key := fmt.Sprintf("derived_status:%s", offerID)
	val, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get derived status from redis: %w", err)
	}

	var derived models.DerivedStatus
	if err := json.Unmarshal([]byte(val), &derived); err != nil {
		return nil, fmt.Errorf("failed to unmarshal derived status: %w", err)
	}

	return &derived, nil
}

func (r *RedisStatusCache) SetDerived(ctx context.Context, derived *models.DerivedStatus) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	key := fmt.Sprintf("derived_status:%s", derived.OfferID)
	data, err := json.Marshal(derived)
	if err != nil {
		return fmt.Errorf("failed to marshal derived status: %w", err)
	}

	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set derived status in redis: %w", err)
	}

	return nil
}

func (r *RedisStatusCache) Invalidate(ctx context.Context, offerID string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	key := fmt.Sprintf("derived_status:%s", offerID)
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete derived status from redis: %w", err)
	}
	return nil
}

func (r *RedisStatusCache) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if r.client == nil {
		return false, fmt.Errorf("redis client is nil")
	}
	rateKey := fmt.Sprintf("rate_limit:%s", key)
	count, err := r.client.Incr(ctx, rateKey).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit: %w", err)
	}

	if count == 1 {
		r.client.Expire(ctx, rateKey, window)
	}

	return count <= int64(limit), nil
}

// Ping проверяет соединение с Redis
func Ping(ctx context.Context, client *redis.Client) error {
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close закрывает соединение с Redis
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
