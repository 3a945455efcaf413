package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps entries as JSON strings, each tag as a Redis set of the
// keys stored under it and each tag's generation as an INCR counter.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

func NewRedis(rdb *redis.Client, prefix string) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) Driver() string { return "redis" }

func (s *RedisStore) entryKey(key string) string { return s.prefix + "cache:" + key }
func (s *RedisStore) tagKey(tag string) string { return s.prefix + "tag:" + tag }
func (s *RedisStore) genKey(tag string) string { return s.prefix + "gen:" + tag }

func (s *RedisStore) Get(ctx context.Context, key string, dest any) (bool, error) {
	raw, err := s.rdb.Get(ctx, s.entryKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache/redis: get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		// A stale shape after a deploy reads as a miss.
		return false, nil
	}
	return true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value any, ttl time.Duration, tags ...string) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache/redis: marshal %s: %w", key, err)
	}
	if _, err := s.rdb.TxPipelined(ctx, s.write(ctx, key, raw, ttl, tags)); err != nil {
		return fmt.Errorf("cache/redis: set %s: %w", key, err)
	}
	return nil
}

// SetIfCurrent watches the generation counters so an InvalidateTags that
// lands between the check and the write aborts the transaction.
func (s *RedisStore) SetIfCurrent(ctx context.Context, key string, value any, ttl time.Duration, gen []uint64, tags ...string) (bool, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("cache/redis: marshal %s: %w", key, err)
	}
	if len(tags) == 0 {
		if _, err := s.rdb.TxPipelined(ctx, s.write(ctx, key, raw, ttl, nil)); err != nil {
			return false, fmt.Errorf("cache/redis: set %s: %w", key, err)
		}
		return true, nil
	}

	stored := false
	err = s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := s.readGeneration(ctx, tx, tags)
		if err != nil {
			return err
		}
		if !slices.Equal(gen, current) {
			return nil
		}
		if _, err := tx.TxPipelined(ctx, s.write(ctx, key, raw, ttl, tags)); err != nil {
			return err
		}
		stored = true
		return nil
	}, s.genKeys(tags)...)
	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache/redis: set %s: %w", key, err)
	}
	return stored, nil
}

func (s *RedisStore) Generation(ctx context.Context, tags ...string) ([]uint64, error) {
	if len(tags) == 0 {
		return []uint64{}, nil
	}
	return s.readGeneration(ctx, s.rdb, tags)
}

func (s *RedisStore) readGeneration(ctx context.Context, c redis.Cmdable, tags []string) ([]uint64, error) {
	vals, err := c.MGet(ctx, s.genKeys(tags)...).Result()
	if err != nil {
		return nil, fmt.Errorf("cache/redis: generation: %w", err)
	}
	out := make([]uint64, len(tags))
	for i, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue
		}
		n, err := strconv.ParseUint(str, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("cache/redis: generation of %s: %w", tags[i], err)
		}
		out[i] = n
	}
	return out, nil
}

func (s *RedisStore) genKeys(tags []string) []string {
	keys := make([]string, len(tags))
	for i, tag := range tags {
		keys[i] = s.genKey(tag)
	}
	return keys
}

func (s *RedisStore) write(ctx context.Context, key string, raw []byte, ttl time.Duration, tags []string) func(redis.Pipeliner) error {
	ek := s.entryKey(key)
	return func(p redis.Pipeliner) error {
		p.Set(ctx, ek, raw, ttl)
		for _, tag := range tags {
			tk := s.tagKey(tag)
			p.SAdd(ctx, tk, ek)
			if ttl > 0 {
				p.Expire(ctx, tk, ttl)
			}
		}
		return nil
	}
}

func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.entryKey(k)
	}
	if err := s.rdb.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("cache/redis: del: %w", err)
	}
	return nil
}

func (s *RedisStore) InvalidateTags(ctx context.Context, tags ...string) error {
	for _, tag := range tags {
		if err := s.rdb.Incr(ctx, s.genKey(tag)).Err(); err != nil {
			return fmt.Errorf("cache/redis: bump %s: %w", tag, err)
		}
		tk := s.tagKey(tag)
		members, err := s.rdb.SMembers(ctx, tk).Result()
		if err != nil {
			return fmt.Errorf("cache/redis: members of %s: %w", tag, err)
		}
		if err := s.rdb.Del(ctx, append(members, tk)...).Err(); err != nil {
			return fmt.Errorf("cache/redis: invalidate %s: %w", tag, err)
		}
	}
	return nil
}
