// Package cache keeps short-lived premium entitlement answers in redis so
// the per-request premium check does not hit the subscriptions table.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "entitlement:"

// EntitlementCache stores whether an external identity holds premium.
type EntitlementCache struct {
	redis  *redis.Client
	prefix string
	ttl    time.Duration
}

// NewEntitlementCache wraps client with the given entry lifetime.
func NewEntitlementCache(client *redis.Client, ttl time.Duration) *EntitlementCache {
	return &EntitlementCache{redis: client, prefix: defaultPrefix, ttl: ttl}
}

// Connect dials redis at addr and verifies the connection.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return client, nil
}

func (c *EntitlementCache) key(externalID string) string {
	return c.prefix + externalID
}

// Get returns the cached answer. found is false on a cache miss.
func (c *EntitlementCache) Get(ctx context.Context, externalID string) (premium bool, found bool, err error) {
	val, err := c.redis.Get(ctx, c.key(externalID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("failed to read entitlement: %w", err)
	}
	return val == "1", true, nil
}

// Set stores the answer for the configured lifetime.
func (c *EntitlementCache) Set(ctx context.Context, externalID string, premium bool) error {
	val := "0"
	if premium {
		val = "1"
	}
	if err := c.redis.Set(ctx, c.key(externalID), val, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store entitlement: %w", err)
	}
	return nil
}

// Invalidate drops the cached answer.
func (c *EntitlementCache) Invalidate(ctx context.Context, externalID string) error {
	if err := c.redis.Del(ctx, c.key(externalID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate entitlement: %w", err)
	}
	return nil
}
