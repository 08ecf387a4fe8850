package otp

import (
	"context"
	"fmt"
	"sync"
	"time"

	"registration-wizard/internal/client"
)

const cooldownPrefix = "otp_resend:"

// Cooldown tracks the resend countdown per key
type Cooldown interface {
	// Start (re)starts the countdown unconditionally
	Start(ctx context.Context, key string, ttl time.Duration) error
	// Acquire starts the countdown only if none is running; otherwise it
	// reports the time left.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, time.Duration, error)
	Remaining(ctx context.Context, key string) (time.Duration, error)
	// Release drops a countdown, e.g. when the send it guarded failed
	Release(ctx context.Context, key string) error
}

type MemoryCooldown struct {
	mu    sync.Mutex
	until map[string]time.Time
	now   func() time.Time
}

func NewMemoryCooldown(now func() time.Time) *MemoryCooldown {
	if now == nil {
		now = time.Now
	}
	return &MemoryCooldown{until: make(map[string]time.Time), now: now}
}

func (c *MemoryCooldown) Start(_ context.Context, key string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.until[key] = c.now().Add(ttl)
	return nil
}

func (c *MemoryCooldown) Acquire(_ context.Context, key string, ttl time.Duration) (bool, time.Duration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if left := c.until[key].Sub(now); left > 0 {
		return false, left, nil
	}
	c.until[key] = now.Add(ttl)
	return true, 0, nil
}

func (c *MemoryCooldown) Remaining(_ context.Context, key string) (time.Duration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	left := c.until[key].Sub(c.now())
	if left <= 0 {
		delete(c.until, key)
		return 0, nil
	}
	return left, nil
}

func (c *MemoryCooldown) Release(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.until, key)
	c.mu.Unlock()
	return nil
}

// Sweep drops countdowns that already ran out and reports how many went
func (c *MemoryCooldown) Sweep(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for key, until := range c.until {
		if !until.After(now) {
			delete(c.until, key)
			n++
		}
	}
	return n
}

// RedisCooldown shares the countdown between server instances with a
// SET NX lock that expires on its own.
type RedisCooldown struct {
	client *client.RedisClient
}

func NewRedisCooldown(c *client.RedisClient) *RedisCooldown {
	return &RedisCooldown{client: c}
}

func (c *RedisCooldown) Start(ctx context.Context, key string, ttl time.Duration) error {
	if err := c.client.Set(ctx, cooldownPrefix+key, "locked", ttl); err != nil {
		return fmt.Errorf("failed to start resend cooldown: %w", err)
	}
	return nil
}

func (c *RedisCooldown) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, time.Duration, error) {
	ok, err := c.client.SetNX(ctx, cooldownPrefix+key, "locked", ttl)
	if err != nil {
		return false, 0, fmt.Errorf("failed to set resend cooldown: %w", err)
	}
	if ok {
		return true, 0, nil
	}
	left, err := c.Remaining(ctx, key)
	return false, left, err
}

func (c *RedisCooldown) Remaining(ctx context.Context, key string) (time.Duration, error) {
	left, err := c.client.PTTL(ctx, cooldownPrefix+key)
	if err != nil {
		return 0, fmt.Errorf("failed to read resend cooldown: %w", err)
	}
	// PTTL reports -2 for a missing key and -1 for no expiry
	if left < 0 {
		return 0, nil
	}
	return left, nil
}

func (c *RedisCooldown) Release(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, cooldownPrefix+key); err != nil {
		return fmt.Errorf("failed to release resend cooldown: %w", err)
	}
	return nil
}
