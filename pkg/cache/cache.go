// Package cache is a JSON read cache with tag invalidation.
//
// Entries are stored with an optional set of tags; InvalidateTags drops every
// entry that carries any of the given tags. Nothing stored here is
// authoritative: a miss, an expired entry or a driver error only means the
// caller goes back to the database.
//
//	store.Set(ctx, "products:list:…", page, time.Hour, "products")
//	store.InvalidateTags(ctx, "products", "product:jiya-ring-wall-hanging")
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rainbowartistery/atelier/config"
	"github.com/rainbowartistery/atelier/pkg/logger"
)

// Store is implemented by every cache driver.
type Store interface {
	// Get decodes the entry at key into dest and reports whether it was found.
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration, tags ...string) error
	Delete(ctx context.Context, keys ...string) error
	InvalidateTags(ctx context.Context, tags ...string) error
	// Generation returns the invalidation counter of each tag, in order.
	// InvalidateTags bumps the counter of every tag it is given.
	Generation(ctx context.Context, tags ...string) ([]uint64, error)
	// SetIfCurrent is Set that only stores when every tag's counter still
	// equals gen. It reports whether the entry was stored.
	SetIfCurrent(ctx context.Context, key string, value any, ttl time.Duration, gen []uint64, tags ...string) (bool, error)
	Driver() string
}

// ErrUnknownDriver is returned by New for an unrecognised CACHE_DRIVER.
var ErrUnknownDriver = errors.New("cache: unknown driver")

// Connect builds the store named by CACHE_DRIVER. An unreachable Redis falls
// back to the in-process memory store so the API keeps serving.
func Connect(ctx context.Context) (Store, error) {
	switch driver := config.CacheDriver(); driver {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     config.RedisAddr(),
			Password: config.RedisPassword(),
		})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			logger.Warn("cache: redis unreachable, using memory store", "addr", config.RedisAddr(), "error", err)
			return NewMemory(), nil
		}
		return NewRedis(rdb, "atelier:"), nil
	case "memory":
		return NewMemory(), nil
	case "none", "noop", "off":
		return Noop{}, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownDriver, driver)
	}
}

// Noop caches nothing. Every Get is a miss and every write is accepted and
// dropped.
type Noop struct{}

func (Noop) Get(context.Context, string, any) (bool, error) { return false, nil }
func (Noop) Set(context.Context, string, any, time.Duration, ...string) error { return nil }
func (Noop) Delete(context.Context, ...string) error { return nil }
func (Noop) InvalidateTags(context.Context, ...string) error { return nil }
func (Noop) Generation(_ context.Context, tags ...string) ([]uint64, error) {
	return make([]uint64, len(tags)), nil
}
func (Noop) SetIfCurrent(context.Context, string, any, time.Duration, []uint64, ...string) (bool, error) {
	return true, nil
}
func (Noop) Driver() string { return "none" }
