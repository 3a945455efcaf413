package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rainbowartistery/atelier/app/models"
	"github.com/rainbowartistery/atelier/app/repositories"
	"github.com/rainbowartistery/atelier/pkg/auth"
	"github.com/rainbowartistery/atelier/pkg/cache"
	"github.com/rainbowartistery/atelier/pkg/database"
	"github.com/rainbowartistery/atelier/pkg/logger"
	"github.com/rainbowartistery/atelier/pkg/metrics"
	"github.com/rainbowartistery/atelier/pkg/slug"
	"github.com/rainbowartistery/atelier/pkg/validate"
)

// defaultFeaturedOrder is assigned when a product becomes featured without
// an explicit order.
const defaultFeaturedOrder = 1

// ProductInput is the body of a create request.
type ProductInput struct {
	Title          string   `json:"title"          validate:"required,min=2,max=80"`
	Slug           string   `json:"slug"           validate:"omitempty,slug"`
	Description    string   `json:"description"    validate:"required,min=10,max=1200"`
	Category       string   `json:"category"       validate:"required,min=2,max=80"`
	Tags           []string `json:"tags"           validate:"max=10,dive,required,max=40"`
	PriceINR       *float64 `json:"priceINR"       validate:"omitnil,gt=0"`
	Personalizable *bool    `json:"personalizable"`
	IsFeatured     bool     `json:"isFeatured"`
	FeaturedOrder  *int     `json:"featuredOrder"  validate:"omitnil,gte=0"`
	IsPublished    bool     `json:"isPublished"`
	CoverURL       string   `json:"coverUrl"       validate:"required,httpurl"`
	MediaURLs      []string `json:"mediaUrls"      validate:"max=10,dive,httpurl"`
	VideoURL       *string  `json:"videoUrl"       validate:"omitnil,httpurl"`
	SizeNote       *string  `json:"sizeNote"       validate:"omitnil,max=255"`
	Materials      *string  `json:"materials"      validate:"omitnil,max=255"`
}

// ProductPatch is the body of an update request. Nil fields are left
// untouched.
type ProductPatch struct {
	Title          *string   `json:"title"          validate:"omitnil,min=2,max=80"`
	Slug           *string   `json:"slug"           validate:"omitnil,slug"`
	Description    *string   `json:"description"    validate:"omitnil,min=10,max=1200"`
	Category       *string   `json:"category"       validate:"omitnil,min=2,max=80"`
	Tags           *[]string `json:"tags"           validate:"omitnil,max=10,dive,required,max=40"`
	PriceINR       *float64  `json:"priceINR"       validate:"omitnil,gt=0"`
	Personalizable *bool     `json:"personalizable"`
	IsFeatured     *bool     `json:"isFeatured"`
	FeaturedOrder  *int      `json:"featuredOrder"  validate:"omitnil,gte=0"`
	IsPublished    *bool     `json:"isPublished"`
	CoverURL       *string   `json:"coverUrl"       validate:"omitnil,httpurl"`
	MediaURLs      *[]string `json:"mediaUrls"      validate:"omitnil,max=10,dive,httpurl"`
	VideoURL       *string   `json:"videoUrl"       validate:"omitnil,httpurl"`
	SizeNote       *string   `json:"sizeNote"       validate:"omitnil,max=255"`
	Materials      *string   `json:"materials"      validate:"omitnil,max=255"`
}

// trimmed strips surrounding space from the text fields so length rules
// apply to what is stored.
func (in ProductInput) trimmed() ProductInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Slug = strings.TrimSpace(in.Slug)
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.TrimSpace(in.Category)
	in.CoverURL = strings.TrimSpace(in.CoverURL)
	return in
}

func (p ProductPatch) trimmed() ProductPatch {
	p.Title = trimPtr(p.Title)
	p.Slug = trimPtr(p.Slug)
	p.Description = trimPtr(p.Description)
	p.Category = trimPtr(p.Category)
	p.CoverURL = trimPtr(p.CoverURL)
	return p
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

// ProductService owns every product write. Each successful write drops the
// affected cache tags before returning.
type ProductService struct {
	products *repositories.ProductRepository
	cache    cache.Store
	gate     auth.Gate
}

func NewProductService(products *repositories.ProductRepository, store cache.Store, gate auth.Gate) *ProductService {
	if store == nil {
		store = cache.Noop{}
	}
	return &ProductService{products: products, cache: store, gate: gate}
}

// IsSlugUnique reports whether no product other than excludeID uses slug.
func (s *ProductService) IsSlugUnique(ctx context.Context, slug, excludeID string) (bool, error) {
	taken, err := s.products.SlugExists(ctx, slug, excludeID)
	if err != nil {
		return false, fmt.Errorf("products: slug check: %w", err)
	}
	return !taken, nil
}

// Create validates in, derives the slug from the title when absent and
// stores the product.
func (s *ProductService) Create(ctx context.Context, in ProductInput) (*models.Product, error) {
	if _, err := s.gate.RequireSession(ctx); err != nil {
		return nil, err
	}
	in = in.trimmed()
	if errs := validate.Struct(in); validate.HasErrors(errs) {
		return nil, &ValidationError{Fields: errs}
	}

	p := &models.Product{
		Title:          in.Title,
		Slug:           in.Slug,
		Description:    in.Description,
		Category:       in.Category,
		Tags:           in.Tags,
		PriceINR:       in.PriceINR,
		Personalizable: true,
		IsFeatured:     in.IsFeatured,
		FeaturedOrder:  in.FeaturedOrder,
		IsPublished:    in.IsPublished,
		CoverURL:       in.CoverURL,
		MediaURLs:      in.MediaURLs,
		VideoURL:       in.VideoURL,
		SizeNote:       in.SizeNote,
		Materials:      in.Materials,
	}
	if in.Personalizable != nil {
		p.Personalizable = *in.Personalizable
	}
	if p.Slug == "" {
		p.Slug = slug.Generate(p.Title)
		if p.Slug == "" {
			return nil, invalid("slug", "The slug could not be derived from the title.")
		}
	}
	applyFeaturedRule(p, false, in.FeaturedOrder != nil)

	unique, err := s.IsSlugUnique(ctx, p.Slug, "")
	if err != nil {
		return nil, err
	}
	if !unique {
		return nil, ErrDuplicateSlug
	}

	if err := s.products.Create(ctx, p); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrDuplicateSlug
		}
		return nil, fmt.Errorf("products: create: %w", err)
	}

	s.invalidate(ctx, p.Slug)
	return p, nil
}

// Update merges patch into the product with id. Only supplied fields and
// UpdatedAt are written.
func (s *ProductService) Update(ctx context.Context, id string, patch ProductPatch) (*models.Product, error) {
	if _, err := s.gate.RequireSession(ctx); err != nil {
		return nil, err
	}
	patch = patch.trimmed()
	if errs := validate.Struct(patch); validate.HasErrors(errs) {
		return nil, &ValidationError{Fields: errs}
	}

	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("products: load %s: %w", id, err)
	}
	oldSlug := p.Slug
	wasFeatured := p.IsFeatured

	fields := mergePatch(p, patch)
	if len(fields) == 0 {
		return p, nil
	}
	if applyFeaturedRule(p, wasFeatured, patch.FeaturedOrder != nil) {
		fields = appendField(fields, "FeaturedOrder")
	}

	if p.Slug != oldSlug {
		unique, err := s.IsSlugUnique(ctx, p.Slug, p.ID)
		if err != nil {
			return nil, err
		}
		if !unique {
			return nil, ErrDuplicateSlug
		}
	}

	if err := s.products.Update(ctx, p, fields); err != nil {
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return nil, ErrNotFound
		case database.IsUniqueViolation(err):
			return nil, ErrDuplicateSlug
		}
		return nil, fmt.Errorf("products: update %s: %w", id, err)
	}

	s.invalidate(ctx, oldSlug, p.Slug)
	return p, nil
}

// Delete removes the product. Its media stays in blob storage.
func (s *ProductService) Delete(ctx context.Context, id string) error {
	if _, err := s.gate.RequireSession(ctx); err != nil {
		return err
	}

	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("products: load %s: %w", id, err)
	}
	if err := s.products.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	s.invalidate(ctx, p.Slug)
	return nil
}

// ToggleFeatured flips IsFeatured through Update, so the featured order
// rule applies.
func (s *ProductService) ToggleFeatured(ctx context.Context, id string) (*models.Product, error) {
	return s.toggle(ctx, id, func(p *models.Product) ProductPatch {
		v := !p.IsFeatured
		return ProductPatch{IsFeatured: &v}
	})
}

// TogglePublished flips IsPublished through Update.
func (s *ProductService) TogglePublished(ctx context.Context, id string) (*models.Product, error) {
	return s.toggle(ctx, id, func(p *models.Product) ProductPatch {
		v := !p.IsPublished
		return ProductPatch{IsPublished: &v}
	})
}

func (s *ProductService) toggle(ctx context.Context, id string, build func(*models.Product) ProductPatch) (*models.Product, error) {
	if _, err := s.gate.RequireSession(ctx); err != nil {
		return nil, err
	}
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("products: load %s: %w", id, err)
	}
	return s.Update(ctx, id, build(p))
}

// invalidate drops the listing tag and each detail tag. A failure is
// logged and counted; the write has already succeeded.
func (s *ProductService) invalidate(ctx context.Context, slugs ...string) {
	tags := []string{TagProducts}
	seen := map[string]bool{}
	for _, sl := range slugs {
		if sl != "" && !seen[sl] {
			seen[sl] = true
			tags = append(tags, ProductTag(sl))
		}
	}
	if err := s.cache.InvalidateTags(ctx, tags...); err != nil {
		metrics.CacheInvalidationFailures.Inc()
		logger.WithCtx(ctx).Error("products: cache invalidation failed", "tags", tags, "error", err)
	}
}

// applyFeaturedRule keeps FeaturedOrder consistent with IsFeatured and
// reports whether it changed the order. A product becoming featured
// without an explicit order gets defaultFeaturedOrder; a product that is
// not featured has no order.
func applyFeaturedRule(p *models.Product, wasFeatured, orderGiven bool) bool {
	switch {
	case !p.IsFeatured && p.FeaturedOrder != nil:
		p.FeaturedOrder = nil
		return true
	case p.IsFeatured && !wasFeatured && !orderGiven && p.FeaturedOrder == nil:
		order := defaultFeaturedOrder
		p.FeaturedOrder = &order
		return true
	}
	return false
}

// mergePatch copies supplied patch fields onto p and returns the struct
// field names it touched.
func mergePatch(p *models.Product, patch ProductPatch) []string {
	var fields []string
	set := func(name string) { fields = append(fields, name) }

	if patch.Title != nil {
		p.Title = *patch.Title
		set("Title")
	}
	if patch.Slug != nil {
		p.Slug = *patch.Slug
		set("Slug")
	}
	if patch.Description != nil {
		p.Description = *patch.Description
		set("Description")
	}
	if patch.Category != nil {
		p.Category = *patch.Category
		set("Category")
	}
	if patch.Tags != nil {
		p.Tags = *patch.Tags
		set("Tags")
	}
	if patch.PriceINR != nil {
		p.PriceINR = patch.PriceINR
		set("PriceINR")
	}
	if patch.Personalizable != nil {
		p.Personalizable = *patch.Personalizable
		set("Personalizable")
	}
	if patch.IsFeatured != nil {
		p.IsFeatured = *patch.IsFeatured
		set("IsFeatured")
	}
	if patch.FeaturedOrder != nil {
		p.FeaturedOrder = patch.FeaturedOrder
		set("FeaturedOrder")
	}
	if patch.IsPublished != nil {
		p.IsPublished = *patch.IsPublished
		set("IsPublished")
	}
	if patch.CoverURL != nil {
		p.CoverURL = *patch.CoverURL
		set("CoverURL")
	}
	if patch.MediaURLs != nil {
		p.MediaURLs = *patch.MediaURLs
		set("MediaURLs")
	}
	if patch.VideoURL != nil {
		p.VideoURL = patch.VideoURL
		set("VideoURL")
	}
	if patch.SizeNote != nil {
		p.SizeNote = patch.SizeNote
		set("SizeNote")
	}
	if patch.Materials != nil {
		p.Materials = patch.Materials
		set("Materials")
	}
	return fields
}

func appendField(fields []string, name string) []string {
	for _, f := range fields {
		if f == name {
			return fields
		}
	}
	return append(fields, name)
}
