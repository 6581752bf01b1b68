package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisTokenCache shares one Authenticator's refreshed token across
// processes. Exactly one process refreshes at a time via a Redis SET NX
// lock; the rest read the token the lock holder published, rather than
// each independently hitting the token endpoint — the cross-process half
// of the at-most-one-refresh-per-request semantics across processes
// (the single-process half is cachingAuthenticator's mutex above).
type RedisTokenCache struct {
	redis      *redis.Client
	delegate   Authenticator
	tokenKey   string
	lockKey    string
	lockTTL    time.Duration
	lockWait   time.Duration
	pollEvery  time.Duration
}

// NewRedisTokenCache wraps delegate with cross-process token sharing under
// keyPrefix. lockTTL bounds how long a refresh may hold the lock before
// another process is allowed to take over (guards against a crashed
// refresher wedging every other process).
func NewRedisTokenCache(client *redis.Client, delegate Authenticator, keyPrefix string, lockTTL time.Duration) *RedisTokenCache {
	if lockTTL <= 0 {
		lockTTL = 10 * time.Second
	}
	return &RedisTokenCache{
		redis:     client,
		delegate:  delegate,
		tokenKey:  keyPrefix + "token",
		lockKey:   keyPrefix + "refresh-lock",
		lockTTL:   lockTTL,
		lockWait:  lockTTL,
		pollEvery: 50 * time.Millisecond,
	}
}

// GetAuthToken returns the shared token, refreshing it if absent. Only the
// process that wins the Redis lock calls the delegate; the rest poll for
// the token the winner publishes.
func (c *RedisTokenCache) GetAuthToken(ctx context.Context) (string, error) {
	if tok, err := c.redis.Get(ctx, c.tokenKey).Result(); err == nil && tok != "" {
		return tok, nil
	}
	return c.refresh(ctx)
}

// RefreshNow forces a refresh, for use after a 401.
func (c *RedisTokenCache) RefreshNow(ctx context.Context) (string, error) {
	c.redis.Del(ctx, c.tokenKey)
	return c.refresh(ctx)
}

func (c *RedisTokenCache) refresh(ctx context.Context) (string, error) {
	ok, err := c.redis.SetNX(ctx, c.lockKey, "1", c.lockTTL).Result()
	if err != nil {
		return "", fmt.Errorf("jus/auth: acquire refresh lock: %w", err)
	}

	if ok {
		defer c.redis.Del(ctx, c.lockKey)
		tok, err := c.delegate.GetAuthToken(ctx)
		if err != nil {
			return "", err
		}
		if err := c.redis.Set(ctx, c.tokenKey, tok, c.lockTTL).Err(); err != nil {
			return "", fmt.Errorf("jus/auth: publish token: %w", err)
		}
		return tok, nil
	}

	return c.waitForToken(ctx)
}

func (c *RedisTokenCache) waitForToken(ctx context.Context) (string, error) {
	deadline := nowFunc().Add(c.lockWait)
	for nowFunc().Before(deadline) {
		if tok, err := c.redis.Get(ctx, c.tokenKey).Result(); err == nil && tok != "" {
			return tok, nil
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.pollEvery):
		}
	}
	return "", fmt.Errorf("jus/auth: timed out waiting for another process to refresh the token")
}
