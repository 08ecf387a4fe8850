package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"registration-wizard/internal/client"
)

const redisOpTimeout = 5 * time.Second

// Redis stores blobs as plain string keys. A zero TTL keeps them forever,
// which matches local storage; a positive TTL is refreshed on every write.
type Redis struct {
	client *client.RedisClient
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedis(c *client.RedisClient, ttl time.Duration, logger *zap.Logger) *Redis {
	return &Redis{client: c, ttl: ttl, logger: logger}
}

func (r *Redis) Get(key string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	val, err := r.client.Get(ctx, key)
	if errors.Is(err, client.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: get %s: %v", ErrUnavailable, key, err)
	}
	return val, true, nil
}

func (r *Redis) Set(key, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	if err := r.client.Set(ctx, key, value, r.ttl); err != nil {
		return fmt.Errorf("%w: set %s: %v", ErrUnavailable, key, err)
	}
	r.logger.Debug("registration blob stored", zap.String("key", key), zap.Duration("ttl", r.ttl))
	return nil
}

func (r *Redis) Delete(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	if err := r.client.Del(ctx, key); err != nil {
		return fmt.Errorf("%w: delete %s: %v", ErrUnavailable, key, err)
	}
	return nil
}
