package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrCacheMiss = errors.New("cache: key not found")
)

// Service defines cache operations interface.
// Values are JSON encoded; Get decodes into dest.
type Service interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	DeleteByPattern(ctx context.Context, pattern string) error
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
	Close() error
}

// Key joins a prefix and parameters into a colon-separated cache key.
func Key(prefix string, params ...interface{}) string {
	var b strings.Builder
	b.WriteString(prefix)
	for _, p := range params {
		b.WriteByte(':')
		switch v := p.(type) {
		case time.Time:
			b.WriteString(v.UTC().Format(time.RFC3339))
		default:
			fmt.Fprint(&b, v)
		}
	}
	return b.String()
}

// WithLock runs fn while holding key. It reports false without running fn
// when another holder owns the lock.
func WithLock(ctx context.Context, c Service, key string, ttl time.Duration, fn func() error) (bool, error) {
	ok, err := c.TryLock(ctx, key, ttl)
	if err != nil {
		return false, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !ok {
		return false, nil
	}
	defer func() {
		// Release with a fresh context so a cancelled caller still frees the lock.
		uctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = c.Unlock(uctx, key)
	}()
	return true, fn()
}
