package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"
)

type memoryEntry struct {
	raw       []byte
	expiresAt time.Time
	tags      []string
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// MemoryStore is a single-process Store. Values are kept JSON-encoded so a
// caller can never mutate a cached value through a shared pointer.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	tags    map[string]map[string]struct{}
	gens    map[string]uint64
	now     func() time.Time
}

func NewMemory() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		tags:    make(map[string]map[string]struct{}),
		gens:    make(map[string]uint64),
		now:     time.Now,
	}
}

func (s *MemoryStore) Driver() string { return "memory" }

func (s *MemoryStore) Get(_ context.Context, key string, dest any) (bool, error) {
	s.mu.Lock()
	e, ok := s.entries[key]
	if ok && e.expired(s.now()) {
		s.removeLocked(key)
		ok = false
	}
	s.mu.Unlock()

	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(e.raw, dest); err != nil {
		return false, fmt.Errorf("cache/memory: decode %s: %w", key, err)
	}
	return true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value any, ttl time.Duration, tags ...string) error {
	e, err := s.entry(key, value, ttl, tags)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.storeLocked(key, e)
	return nil
}

func (s *MemoryStore) SetIfCurrent(_ context.Context, key string, value any, ttl time.Duration, gen []uint64, tags ...string) (bool, error) {
	e, err := s.entry(key, value, ttl, tags)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !slices.Equal(gen, s.generationLocked(tags)) {
		return false, nil
	}
	s.storeLocked(key, e)
	return true, nil
}

func (s *MemoryStore) Generation(_ context.Context, tags ...string) ([]uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generationLocked(tags), nil
}

func (s *MemoryStore) generationLocked(tags []string) []uint64 {
	out := make([]uint64, len(tags))
	for i, tag := range tags {
		out[i] = s.gens[tag]
	}
	return out
}

func (s *MemoryStore) entry(key string, value any, ttl time.Duration, tags []string) (memoryEntry, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return memoryEntry{}, fmt.Errorf("cache/memory: marshal %s: %w", key, err)
	}
	e := memoryEntry{raw: raw, tags: append([]string(nil), tags...)}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	return e, nil
}

func (s *MemoryStore) storeLocked(key string, e memoryEntry) {
	s.removeLocked(key)
	s.entries[key] = e
	for _, tag := range e.tags {
		set, ok := s.tags[tag]
		if !ok {
			set = make(map[string]struct{})
			s.tags[tag] = set
		}
		set[key] = struct{}{}
	}
}

func (s *MemoryStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		s.removeLocked(k)
	}
	return nil
}

func (s *MemoryStore) InvalidateTags(_ context.Context, tags ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tag := range tags {
		s.gens[tag]++
		for key := range s.tags[tag] {
			s.removeLocked(key)
		}
		delete(s.tags, tag)
	}
	return nil
}

// Len reports the number of live entries.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	n := 0
	for _, e := range s.entries {
		if !e.expired(now) {
			n++
		}
	}
	return n
}

func (s *MemoryStore) removeLocked(key string) {
	e, ok := s.entries[key]
	if !ok {
		return
	}
	delete(s.entries, key)
	for _, tag := range e.tags {
		if set, ok := s.tags[tag]; ok {
			delete(set, key)
			if len(set) == 0 {
				delete(s.tags, tag)
			}
		}
	}
}
