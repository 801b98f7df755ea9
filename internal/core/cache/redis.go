package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// Blocklist remembers revoked token ids until the token would have expired anyway.
type Blocklist interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

const keyPrefix = "recipe-api:revoked:"

type Cache struct {
	RDB *redis.Client
	sf  singleflight.Group
}

func New(addr, pass string, db int) *Cache {
	return &Cache{
		RDB: redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db}),
	}
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.RDB.Ping(ctx).Err()
}

func (c *Cache) Close() error {
	return c.RDB.Close()
}

func (c *Cache) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return c.RDB.Set(ctx, keyPrefix+jti, 1, ttl).Err()
}

// IsRevoked coalesces concurrent lookups of the same jti into one round trip.
func (c *Cache) IsRevoked(ctx context.Context, jti string) (bool, error) {
	v, err, _ := c.sf.Do(jti, func() (any, error) {
		err := c.RDB.Get(ctx, keyPrefix+jti).Err()
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return true, nil
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}
