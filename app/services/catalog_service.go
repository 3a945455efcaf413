package services

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rainbowartistery/atelier/app/models"
	"github.com/rainbowartistery/atelier/app/repositories"
	"github.com/rainbowartistery/atelier/pkg/auth"
	"github.com/rainbowartistery/atelier/pkg/cache"
	"github.com/rainbowartistery/atelier/pkg/response"
)

const (
	PublicDefaultLimit = 12
	AdminDefaultLimit  = 10
	MaxLimit           = 100
	relatedLimit       = 4

	// TagProducts is carried by every cached catalogue read.
	TagProducts = "products"
)

// ProductTag is the cache tag for one product's detail entry.
func ProductTag(slug string) string { return "product:" + slug }

// ListQuery is the shared listing filter. Zero Page or Limit select the
// defaults.
type ListQuery struct {
	Page        int
	Limit       int
	Search      string
	Category    string
	Tags        []string
	IsFeatured  *bool
	IsPublished *bool
}

// ParseTags splits a comma separated tag list, dropping blanks.
func ParseTags(raw string) []string {
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func (q ListQuery) normalize(defaultLimit int) ListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = defaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	q.Search = strings.TrimSpace(q.Search)
	q.Category = strings.TrimSpace(q.Category)

	var tags []string
	for _, t := range q.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	q.Tags = tags
	return q
}

func (q ListQuery) filter() repositories.ProductFilter {
	return repositories.ProductFilter{
		Search:      q.Search,
		Category:    q.Category,
		Tags:        q.Tags,
		IsFeatured:  q.IsFeatured,
		IsPublished: q.IsPublished,
		Offset:      (q.Page - 1) * q.Limit,
		Limit:       q.Limit,
	}
}

// cacheKey renders a normalised query canonically. Tag order does not
// change the result set, so tags are sorted.
func (q ListQuery) cacheKey(scope string) string {
	tags := append([]string(nil), q.Tags...)
	sort.Strings(tags)

	v := url.Values{}
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("limit", strconv.Itoa(q.Limit))
	v.Set("search", strings.ToLower(q.Search))
	v.Set("category", q.Category)
	v.Set("tags", strings.Join(tags, ","))
	v.Set("featured", boolKey(q.IsFeatured))
	v.Set("published", boolKey(q.IsPublished))
	return "products:" + scope + ":" + v.Encode()
}

func boolKey(b *bool) string {
	if b == nil {
		return ""
	}
	return strconv.FormatBool(*b)
}

// ProductPage is one page of a listing.
type ProductPage struct {
	Products   []models.Product    `json:"products"`
	Pagination response.Pagination `json:"pagination"`
}

// ProductDetail is a product with its related items.
type ProductDetail struct {
	Product         models.Product   `json:"product"`
	RelatedProducts []models.Product `json:"relatedProducts"`
}

// CatalogService answers catalogue reads for the storefront and the back
// office. Public reads go through the cache; admin reads never do.
type CatalogService struct {
	products *repositories.ProductRepository
	cache    cache.Store
	gate     auth.Gate
	ttl      time.Duration
}

func NewCatalogService(products *repositories.ProductRepository, store cache.Store, gate auth.Gate, ttl time.Duration) *CatalogService {
	if store == nil {
		store = cache.Noop{}
	}
	return &CatalogService{products: products, cache: store, gate: gate, ttl: ttl}
}

// PublicList returns published products only, whatever q says about
// IsPublished.
func (s *CatalogService) PublicList(ctx context.Context, q ListQuery) (ProductPage, error) {
	q = q.normalize(PublicDefaultLimit)
	published := true
	q.IsPublished = &published

	return cache.Remember(ctx, s.cache, q.cacheKey("public"), s.ttl, []string{TagProducts},
		func(ctx context.Context) (ProductPage, error) {
			return s.list(ctx, q)
		})
}

// AdminList ignores the publish gate unless q sets IsPublished.
func (s *CatalogService) AdminList(ctx context.Context, q ListQuery) (ProductPage, error) {
	if _, err := s.gate.RequireSession(ctx); err != nil {
		return ProductPage{}, err
	}
	return s.list(ctx, q.normalize(AdminDefaultLimit))
}

func (s *CatalogService) list(ctx context.Context, q ListQuery) (ProductPage, error) {
	products, total, err := s.products.List(ctx, q.filter())
	if err != nil {
		return ProductPage{}, fmt.Errorf("catalog: list: %w", err)
	}
	return ProductPage{
		Products:   products,
		Pagination: response.NewPagination(q.Page, q.Limit, total),
	}, nil
}

// Detail returns a published product by slug plus up to four related
// products. Unknown or unpublished slugs yield ErrNotFound.
func (s *CatalogService) Detail(ctx context.Context, slug string) (ProductDetail, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return ProductDetail{}, ErrNotFound
	}

	return cache.Remember(ctx, s.cache, ProductTag(slug), s.ttl, []string{TagProducts, ProductTag(slug)},
		func(ctx context.Context) (ProductDetail, error) {
			p, err := s.products.FindPublishedBySlug(ctx, slug)
			if err != nil {
				return ProductDetail{}, err
			}
			related, err := s.products.Related(ctx, p, relatedLimit)
			if err != nil {
				return ProductDetail{}, fmt.Errorf("catalog: related: %w", err)
			}
			return ProductDetail{Product: *p, RelatedProducts: related}, nil
		})
}

// Categories lists categories that have at least one published product.
func (s *CatalogService) Categories(ctx context.Context) ([]string, error) {
	return cache.Remember(ctx, s.cache, "products:categories", s.ttl, []string{TagProducts},
		func(ctx context.Context) ([]string, error) {
			return s.products.Categories(ctx)
		})
}
