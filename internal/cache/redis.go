package cache

import (
	"context"
	"errors"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Redis хранит представления расписания в Redis с заданным TTL.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// New возвращает Redis-кэш либо Noop, если клиент не настроен.
func New(client *redis.Client, ttl time.Duration, logger *zap.Logger) ScheduleCache {
	if client == nil {
		return Noop{}
	}
	return &Redis{client: client, ttl: ttl, logger: logger}
}

func (c *Redis) Get(ctx context.Context, key string, dest any) bool {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Debug("Failed to read from cache", zap.String("key", key), zap.Error(err))
		}
		return false
	}

	if err := sonic.Unmarshal(data, dest); err != nil {
		c.logger.Warn("Corrupted cache value", zap.String("key", key), zap.Error(err))
		return false
	}

	return true
}

func (c *Redis) Set(ctx context.Context, key string, value any) {
	data, err := sonic.Marshal(value)
	if err != nil {
		c.logger.Warn("Failed to marshal cache value", zap.String("key", key), zap.Error(err))
		return
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("Failed to write to cache", zap.String("key", key), zap.Error(err))
	}
}

func (c *Redis) Invalidate(ctx context.Context, patterns ...string) {
	for _, pattern := range patterns {
		iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()

		var keys []string
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			c.logger.Warn("Failed to scan cache keys", zap.String("pattern", pattern), zap.Error(err))
			continue
		}

		if len(keys) == 0 {
			continue
		}

		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			c.logger.Warn("Failed to invalidate cache", zap.String("pattern", pattern), zap.Error(err))
		}
	}
}
