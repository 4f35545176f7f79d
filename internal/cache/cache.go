package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned when a key is absent or has expired
var ErrCacheMiss = errors.New("cache: key not found")

// Cache is the expiring key/value store backing OTP codes and login
// sessions. Implementations: RedisCache (production), MemoryCache (tests
// and USE_MEMORY_STORE runs).
type Cache interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

// Key builders for the OTP flow. Both entries share the same TTL and are
// deleted together on successful verification.
func OTPKey(phone string) string         { return "otp:" + phone }
func SessionKey(sessionID string) string { return "session:" + sessionID }
