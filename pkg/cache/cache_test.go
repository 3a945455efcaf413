package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rainbowartistery/atelier/pkg/metrics"
)

type page struct {
	Items []string `json:"items"`
	Total int      `json:"total"`
}

func TestMemoryGetSet(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	var got page
	ok, err := s.Get(ctx, "missing", &got)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "p1", page{Items: []string{"a"}, Total: 1}, time.Minute))
	ok, err = s.Get(ctx, "p1", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, page{Items: []string{"a"}, Total: 1}, got)
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Set(ctx, "k", 1, time.Hour))
	now = now.Add(59 * time.Minute)
	var v int
	ok, _ := s.Get(ctx, "k", &v)
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	ok, _ = s.Get(ctx, "k", &v)
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
}

func TestMemoryInvalidateTags(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	require.NoError(t, s.Set(ctx, "list:1", 1, time.Hour, "products"))
	require.NoError(t, s.Set(ctx, "detail:jiya", 2, time.Hour, "products", "product:jiya"))
	require.NoError(t, s.Set(ctx, "detail:krishna", 3, time.Hour, "products", "product:krishna"))
	require.NoError(t, s.Set(ctx, "testimonials", 4, time.Hour, "testimonials"))

	require.NoError(t, s.InvalidateTags(ctx, "product:jiya"))
	assert.Equal(t, 3, s.Len())

	require.NoError(t, s.InvalidateTags(ctx, "products"))
	assert.Equal(t, 1, s.Len())

	var v int
	ok, _ := s.Get(ctx, "testimonials", &v)
	assert.True(t, ok)
}

func TestMemoryValuesAreCopied(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	in := page{Items: []string{"a"}}
	require.NoError(t, s.Set(ctx, "k", in, 0))
	in.Items[0] = "mutated"

	var out page
	_, _ = s.Get(ctx, "k", &out)
	assert.Equal(t, "a", out.Items[0])
}

func TestNoopAlwaysMisses(t *testing.T) {
	ctx := context.Background()
	var s Store = Noop{}
	require.NoError(t, s.Set(ctx, "k", 1, time.Hour, "t"))
	var v int
	ok, err := s.Get(ctx, "k", &v)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRememberLoadsOnceThenHits(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	calls := 0
	load := func(context.Context) (page, error) {
		calls++
		return page{Items: []string{"jiya"}, Total: 1}, nil
	}

	first, err := Remember(ctx, s, "products:list:p=1", time.Minute, []string{"products"}, load)
	require.NoError(t, err)
	second, err := Remember(ctx, s, "products:list:p=1", time.Minute, []string{"products"}, load)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)

	require.NoError(t, s.InvalidateTags(ctx, "products"))
	_, err = Remember(ctx, s, "products:list:p=1", time.Minute, []string{"products"}, load)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestRememberDoesNotCacheErrors(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	_, err := Remember(ctx, s, "k", time.Minute, nil, func(context.Context) (page, error) {
		return page{}, errors.New("db down")
	})
	assert.EqualError(t, err, "db down")
	assert.Zero(t, s.Len())
}

func TestMemoryGenerationBumpsOnInvalidate(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	before, err := s.Generation(ctx, "products", "product:jiya")
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, 0}, before)

	require.NoError(t, s.InvalidateTags(ctx, "products"))
	after, err := s.Generation(ctx, "products", "product:jiya")
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 0}, after)

	stored, err := s.SetIfCurrent(ctx, "k", 1, time.Minute, before, "products", "product:jiya")
	require.NoError(t, err)
	assert.False(t, stored)
	assert.Zero(t, s.Len())

	stored, err = s.SetIfCurrent(ctx, "k", 1, time.Minute, after, "products", "product:jiya")
	require.NoError(t, err)
	assert.True(t, stored)
	assert.Equal(t, 1, s.Len())
}

func TestRememberSkipsFillInvalidatedDuringLoad(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	stale := func(ctx context.Context) (page, error) {
		// A write lands after the read but before the fill.
		require.NoError(t, s.InvalidateTags(ctx, "products"))
		return page{Items: []string{"draft-now"}, Total: 1}, nil
	}
	got, err := Remember(ctx, s, "products:list:p=1", time.Minute, []string{"products"}, stale)
	require.NoError(t, err)
	assert.Equal(t, []string{"draft-now"}, got.Items, "caller still gets its value")
	assert.Zero(t, s.Len(), "stale value is not stored")

	fresh, err := Remember(ctx, s, "products:list:p=1", time.Minute, []string{"products"}, func(context.Context) (page, error) {
		return page{Items: []string{}, Total: 0}, nil
	})
	require.NoError(t, err)
	assert.Empty(t, fresh.Items)
	assert.Equal(t, 1, s.Len())
}

func TestRememberCountsEachLookupOnce(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	hits := metrics.CacheHits.WithLabelValues("memory")
	misses := metrics.CacheMisses.WithLabelValues("memory")
	hitsBefore, missesBefore := testutil.ToFloat64(hits), testutil.ToFloat64(misses)

	load := func(context.Context) (page, error) { return page{Total: 1}, nil }
	_, err := Remember(ctx, s, "counted", time.Minute, nil, load)
	require.NoError(t, err)
	_, err = Remember(ctx, s, "counted", time.Minute, nil, load)
	require.NoError(t, err)

	assert.Equal(t, missesBefore+1, testutil.ToFloat64(misses))
	assert.Equal(t, hitsBefore+1, testutil.ToFloat64(hits))
}
