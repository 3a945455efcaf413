package cache

import (
	"context"
	"time"

	"github.com/rainbowartistery/atelier/pkg/logger"
	"github.com/rainbowartistery/atelier/pkg/metrics"
)

// Remember returns the value cached at key, or runs load and caches its
// result under tags. Driver errors are logged and treated as a miss; load
// errors are returned and nothing is cached. A fill whose tags were
// invalidated while load ran is returned but not stored.
//
//	page, err := cache.Remember(ctx, store, key, time.Hour, []string{"products"},
//	    func(ctx context.Context) (ProductPage, error) { ... })
func Remember[T any](ctx context.Context, s Store, key string, ttl time.Duration, tags []string, load func(context.Context) (T, error)) (T, error) {
	var cached T
	hit, err := s.Get(ctx, key, &cached)
	if err != nil {
		logger.WithCtx(ctx).Warn("cache: get failed", "key", key, "driver", s.Driver(), "error", err)
	}
	if hit && err == nil {
		metrics.CacheHits.WithLabelValues(s.Driver()).Inc()
		return cached, nil
	}
	metrics.CacheMisses.WithLabelValues(s.Driver()).Inc()

	gen, genErr := s.Generation(ctx, tags...)
	if genErr != nil {
		logger.WithCtx(ctx).Warn("cache: generation failed", "key", key, "driver", s.Driver(), "error", genErr)
	}

	value, err := load(ctx)
	if err != nil || genErr != nil {
		return value, err
	}
	stored, err := s.SetIfCurrent(ctx, key, value, ttl, gen, tags...)
	if err != nil {
		logger.WithCtx(ctx).Warn("cache: set failed", "key", key, "driver", s.Driver(), "error", err)
	} else if !stored {
		logger.WithCtx(ctx).Debug("cache: fill skipped after invalidation", "key", key, "driver", s.Driver())
	}
	return value, nil
}
