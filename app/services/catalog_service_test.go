package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rainbowartistery/atelier/app/models"
	"github.com/rainbowartistery/atelier/app/services"
	"github.com/rainbowartistery/atelier/pkg/auth"
	"github.com/rainbowartistery/atelier/pkg/cache"
)

func TestParseTags(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, services.ParseTags(" a, ,b ,"))
	assert.Nil(t, services.ParseTags(""))
}

func TestPublicListPagination(t *testing.T) {
	f := newCatalogFixture(t, auth.DenyAll())
	for i := 1; i <= 6; i++ {
		insert(t, f.repo, product(i))
	}

	page, err := f.catalog.PublicList(context.Background(), services.ListQuery{Page: 2, Limit: 2})
	require.NoError(t, err)

	assert.Equal(t, []string{"product-3", "product-4"}, slugs(page.Products))
	assert.Equal(t, 2, page.Pagination.Page)
	assert.Equal(t, 2, page.Pagination.Limit)
	assert.EqualValues(t, 6, page.Pagination.Total)
	assert.Equal(t, 3, page.Pagination.Pages)
}

func TestPublicListDefaultsAndCap(t *testing.T) {
	f := newCatalogFixture(t, auth.DenyAll())
	insert(t, f.repo, product(1))

	page, err := f.catalog.PublicList(context.Background(), services.ListQuery{Page: -3, Limit: 0})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Pagination.Page)
	assert.Equal(t, services.PublicDefaultLimit, page.Pagination.Limit)

	page, err = f.catalog.PublicList(context.Background(), services.ListQuery{Limit: 1000})
	require.NoError(t, err)
	assert.Equal(t, services.MaxLimit, page.Pagination.Limit)
}

func TestPublicListHidesDrafts(t *testing.T) {
	f := newCatalogFixture(t, auth.DenyAll())
	insert(t, f.repo,
		product(1),
		product(2, func(p *models.Product) { p.IsPublished = false }),
	)

	unpublished := false
	page, err := f.catalog.PublicList(context.Background(), services.ListQuery{IsPublished: &unpublished})
	require.NoError(t, err)
	assert.Equal(t, []string{"product-1"}, slugs(page.Products))
}

func TestPublicListFeaturedOrder(t *testing.T) {
	f := newCatalogFixture(t, auth.DenyAll())
	insert(t, f.repo,
		product(1, func(p *models.Product) { p.IsFeatured = true; p.FeaturedOrder = ptr(3) }),
		product(2, func(p *models.Product) { p.IsFeatured = true; p.FeaturedOrder = ptr(1) }),
		product(3),
		product(4, func(p *models.Product) { p.IsFeatured = true; p.FeaturedOrder = ptr(2) }),
	)

	featured := true
	page, err := f.catalog.PublicList(context.Background(), services.ListQuery{IsFeatured: &featured})
	require.NoError(t, err)
	assert.Equal(t, []string{"product-2", "product-4", "product-1"}, slugs(page.Products))
}

func TestPublicListFeaturedOrderTieBreak(t *testing.T) {
	f := newCatalogFixture(t, auth.DenyAll())
	newest := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	insert(t, f.repo,
		product(1, func(p *models.Product) { p.IsFeatured = true; p.FeaturedOrder = ptr(2) }),
		product(2, func(p *models.Product) { p.IsFeatured = true; p.FeaturedOrder = ptr(1) }),
		product(5, func(p *models.Product) { p.IsFeatured = true; p.FeaturedOrder = ptr(1) }),
		product(6, func(p *models.Product) { p.IsFeatured = true; p.FeaturedOrder = ptr(1); p.UpdatedAt = newest }),
	)

	featured := true
	page, err := f.catalog.PublicList(context.Background(), services.ListQuery{IsFeatured: &featured})
	require.NoError(t, err)
	assert.Equal(t, []string{"product-6", "product-2", "product-5", "product-1"}, slugs(page.Products),
		"equal featured order falls back to newest first")
}

func TestPublicListFilters(t *testing.T) {
	f := newCatalogFixture(t, auth.DenyAll())
	insert(t, f.repo,
		product(1, func(p *models.Product) {
			p.Title = "Krishna Motif Plate"
			p.Category = "Festival"
			p.Tags = []string{"festival", "pooja"}
		}),
		product(2, func(p *models.Product) {
			p.Description = "Bright rings for a KRISHNA themed nursery."
			p.Tags = []string{"nursery"}
		}),
		product(3, func(p *models.Product) {
			p.Category = "Name Plate"
			p.Tags = []string{"wooden", "100%_cotton"}
		}),
	)
	ctx := context.Background()

	t.Run("search is case-insensitive over title and description", func(t *testing.T) {
		page, err := f.catalog.PublicList(ctx, services.ListQuery{Search: "krishna"})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"product-1", "product-2"}, slugs(page.Products))
	})

	t.Run("search treats wildcards literally", func(t *testing.T) {
		page, err := f.catalog.PublicList(ctx, services.ListQuery{Search: "%"})
		require.NoError(t, err)
		assert.Empty(t, page.Products)
	})

	t.Run("category is exact", func(t *testing.T) {
		page, err := f.catalog.PublicList(ctx, services.ListQuery{Category: "Festival"})
		require.NoError(t, err)
		assert.Equal(t, []string{"product-1"}, slugs(page.Products))

		page, err = f.catalog.PublicList(ctx, services.ListQuery{Category: "Fest"})
		require.NoError(t, err)
		assert.Empty(t, page.Products)
	})

	t.Run("tags match any", func(t *testing.T) {
		page, err := f.catalog.PublicList(ctx, services.ListQuery{Tags: []string{"pooja", "wooden"}})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"product-1", "product-3"}, slugs(page.Products))
	})

	t.Run("tag match is whole-tag", func(t *testing.T) {
		page, err := f.catalog.PublicList(ctx, services.ListQuery{Tags: []string{"wood"}})
		require.NoError(t, err)
		assert.Empty(t, page.Products)
	})
}

func TestPublicListIsCached(t *testing.T) {
	f := newCatalogFixture(t, auth.AllowAll(adminEmail))
	insert(t, f.repo, product(1))
	ctx := context.Background()

	_, err := f.catalog.PublicList(ctx, services.ListQuery{})
	require.NoError(t, err)

	// Bypass the service so nothing is invalidated.
	insert(t, f.repo, product(2))
	page, err := f.catalog.PublicList(ctx, services.ListQuery{})
	require.NoError(t, err)
	assert.Len(t, page.Products, 1, "served from cache")

	in := validInput("Fresh Arrival")
	in.IsPublished = true
	_, err = f.products.Create(ctx, in)
	require.NoError(t, err)
	page, err = f.catalog.PublicList(ctx, services.ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh-arrival", "product-1", "product-2"}, slugs(page.Products), "write drops the listing tag")
}

// writeDuringFill runs write once, between a listing load and its cache fill.
type writeDuringFill struct {
	*cache.MemoryStore
	write func()
}

func (s *writeDuringFill) SetIfCurrent(ctx context.Context, key string, value any, ttl time.Duration, gen []uint64, tags ...string) (bool, error) {
	if s.write != nil {
		w := s.write
		s.write = nil
		w()
	}
	return s.MemoryStore.SetIfCurrent(ctx, key, value, ttl, gen, tags...)
}

func TestPublicListDropsFillRacingAWrite(t *testing.T) {
	base := newCatalogFixture(t, auth.AllowAll(adminEmail))
	store := &writeDuringFill{MemoryStore: base.cache}
	catalog := services.NewCatalogService(base.repo, store, auth.DenyAll(), time.Hour)
	products := services.NewProductService(base.repo, store, auth.AllowAll(adminEmail))
	ctx := context.Background()

	p := product(1)
	insert(t, base.repo, p)
	store.write = func() {
		_, err := products.TogglePublished(ctx, p.ID)
		require.NoError(t, err)
	}

	page, err := catalog.PublicList(ctx, services.ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, []string{"product-1"}, slugs(page.Products), "read that began before the write")

	page, err = catalog.PublicList(ctx, services.ListQuery{})
	require.NoError(t, err)
	assert.Empty(t, page.Products, "the pre-write page was not cached")
}

func TestDetail(t *testing.T) {
	f := newCatalogFixture(t, auth.DenyAll())
	insert(t, f.repo,
		product(1),
		product(2),
		product(3, func(p *models.Product) { p.IsPublished = false }),
		product(4, func(p *models.Product) { p.Category = "Festival" }),
		product(5), product(6), product(7),
	)
	ctx := context.Background()

	d, err := f.catalog.Detail(ctx, "product-1")
	require.NoError(t, err)
	assert.Equal(t, "product-1", d.Product.Slug)
	assert.Equal(t, []string{"product-2", "product-5", "product-6", "product-7"}, slugs(d.RelatedProducts))

	_, err = f.catalog.Detail(ctx, "product-3")
	assert.True(t, errors.Is(err, services.ErrNotFound), "drafts are not public")

	_, err = f.catalog.Detail(ctx, "nope")
	assert.ErrorIs(t, err, services.ErrNotFound)
	assert.Equal(t, 1, f.cache.Len(), "only the hit is cached")
}

func TestDetailInvalidatedByUpdate(t *testing.T) {
	f := newCatalogFixture(t, auth.AllowAll(adminEmail))
	p := product(1)
	insert(t, f.repo, p)
	ctx := context.Background()

	d, err := f.catalog.Detail(ctx, p.Slug)
	require.NoError(t, err)
	require.Equal(t, "Product 1", d.Product.Title)

	_, err = f.products.Update(ctx, p.ID, services.ProductPatch{Title: ptr("Renamed Piece")})
	require.NoError(t, err)

	d, err = f.catalog.Detail(ctx, p.Slug)
	require.NoError(t, err)
	assert.Equal(t, "Renamed Piece", d.Product.Title)
}

func TestAdminList(t *testing.T) {
	ctx := context.Background()

	t.Run("requires a session", func(t *testing.T) {
		f := newCatalogFixture(t, auth.DenyAll())
		_, err := f.catalog.AdminList(ctx, services.ListQuery{})
		assert.ErrorIs(t, err, services.ErrUnauthorized)
	})

	t.Run("ignores publish gate unless asked", func(t *testing.T) {
		f := newCatalogFixture(t, auth.AllowAll(adminEmail))
		insert(t, f.repo,
			product(1),
			product(2, func(p *models.Product) { p.IsPublished = false }),
		)

		page, err := f.catalog.AdminList(ctx, services.ListQuery{})
		require.NoError(t, err)
		assert.Equal(t, []string{"product-1", "product-2"}, slugs(page.Products))
		assert.Equal(t, services.AdminDefaultLimit, page.Pagination.Limit)

		drafts := false
		page, err = f.catalog.AdminList(ctx, services.ListQuery{IsPublished: &drafts})
		require.NoError(t, err)
		assert.Equal(t, []string{"product-2"}, slugs(page.Products))
	})
}

func TestCategories(t *testing.T) {
	f := newCatalogFixture(t, auth.DenyAll())
	insert(t, f.repo,
		product(1, func(p *models.Product) { p.Category = "Name Plate" }),
		product(2, func(p *models.Product) { p.Category = "Festival" }),
		product(3, func(p *models.Product) { p.Category = "Festival" }),
		product(4, func(p *models.Product) { p.Category = "Hidden"; p.IsPublished = false }),
	)

	got, err := f.catalog.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Festival", "Name Plate"}, got)
}
