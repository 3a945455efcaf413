package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/rainbowartistery/atelier/app/models"
	"github.com/rainbowartistery/atelier/pkg/metrics"
)

// ProductFilter narrows a product listing. Nil pointers mean "any".
type ProductFilter struct {
	Search      string
	Category    string
	Tags        []string
	IsFeatured  *bool
	IsPublished *bool
	Offset      int
	Limit       int
}

// ProductRepository handles database operations for Product.
type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) q(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Product{})
}

func (r *ProductRepository) apply(tx *gorm.DB, f ProductFilter) *gorm.DB {
	if f.IsPublished != nil {
		tx = tx.Where("is_published = ?", *f.IsPublished)
	}
	if f.IsFeatured != nil {
		tx = tx.Where("is_featured = ?", *f.IsFeatured)
	}
	if f.Category != "" {
		tx = tx.Where("category = ?", f.Category)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		p := containsPattern(strings.ToLower(s))
		tx = tx.Where(`(LOWER(title) LIKE ? ESCAPE '!' OR LOWER(description) LIKE ? ESCAPE '!')`, p, p)
	}
	if len(f.Tags) > 0 {
		// Tags are stored as a JSON array; match the quoted element.
		or := r.db.Session(&gorm.Session{NewDB: true})
		for i, tag := range f.Tags {
			quoted, _ := json.Marshal(tag)
			cond := `tags LIKE ? ESCAPE '!'`
			if i == 0 {
				or = or.Where(cond, containsPattern(string(quoted)))
			} else {
				or = or.Or(cond, containsPattern(string(quoted)))
			}
		}
		tx = tx.Where(or)
	}
	return tx
}

// List returns one page of products matching f and the total match count.
// Featured-only listings order by featured_order (unset last), then recency.
func (r *ProductRepository) List(ctx context.Context, f ProductFilter) ([]models.Product, int64, error) {
	defer metrics.ObserveDBQuery("products.list", time.Now())

	var total int64
	if err := r.apply(r.q(ctx), f).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("products: count: %w", err)
	}

	tx := r.apply(r.q(ctx), f)
	if f.IsFeatured != nil && *f.IsFeatured {
		tx = tx.Order("CASE WHEN featured_order IS NULL THEN 1 ELSE 0 END").Order("featured_order ASC")
	}
	tx = tx.Order("updated_at DESC").Order("id ASC")
	if f.Limit > 0 {
		tx = tx.Limit(f.Limit)
	}
	if f.Offset > 0 {
		tx = tx.Offset(f.Offset)
	}

	products := []models.Product{}
	if err := tx.Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("products: list: %w", err)
	}
	return products, total, nil
}

// FindByID looks up a product by primary key regardless of publish state.
func (r *ProductRepository) FindByID(ctx context.Context, id string) (*models.Product, error) {
	defer metrics.ObserveDBQuery("products.find", time.Now())

	var p models.Product
	if err := r.q(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// FindPublishedBySlug returns the product only when it is published.
func (r *ProductRepository) FindPublishedBySlug(ctx context.Context, slug string) (*models.Product, error) {
	defer metrics.ObserveDBQuery("products.find", time.Now())

	var p models.Product
	if err := r.q(ctx).Where("slug = ? AND is_published = ?", slug, true).First(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// SlugExists reports whether a product other than excludeID uses slug.
func (r *ProductRepository) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	defer metrics.ObserveDBQuery("products.slug_exists", time.Now())

	tx := r.q(ctx).Where("slug = ?", slug)
	if excludeID != "" {
		tx = tx.Where("id <> ?", excludeID)
	}
	var n int64
	if err := tx.Count(&n).Error; err != nil {
		return false, fmt.Errorf("products: slug check: %w", err)
	}
	return n > 0, nil
}

// Related returns up to limit published products in p's category, newest
// first, excluding p.
func (r *ProductRepository) Related(ctx context.Context, p *models.Product, limit int) ([]models.Product, error) {
	defer metrics.ObserveDBQuery("products.related", time.Now())

	related := []models.Product{}
	err := r.q(ctx).
		Where("category = ? AND is_published = ? AND id <> ?", p.Category, true, p.ID).
		Order("updated_at DESC").Order("id ASC").
		Limit(limit).
		Find(&related).Error
	if err != nil {
		return nil, fmt.Errorf("products: related: %w", err)
	}
	return related, nil
}

// Categories lists the distinct categories of published products, ascending.
func (r *ProductRepository) Categories(ctx context.Context) ([]string, error) {
	defer metrics.ObserveDBQuery("products.categories", time.Now())

	categories := []string{}
	err := r.q(ctx).
		Where("is_published = ?", true).
		Distinct("category").
		Order("category ASC").
		Pluck("category", &categories).Error
	if err != nil {
		return nil, fmt.Errorf("products: categories: %w", err)
	}
	return categories, nil
}

// Create inserts p. Constraint errors are returned untranslated so the
// caller can recognise a duplicate slug.
func (r *ProductRepository) Create(ctx context.Context, p *models.Product) error {
	defer metrics.ObserveDBQuery("products.create", time.Now())
	return r.db.WithContext(ctx).Create(p).Error
}

// Update writes only the named struct fields of p plus UpdatedAt.
func (r *ProductRepository) Update(ctx context.Context, p *models.Product, fields []string) error {
	defer metrics.ObserveDBQuery("products.update", time.Now())

	cols := append(append([]string(nil), fields...), "UpdatedAt")
	res := r.db.WithContext(ctx).Model(p).Select(cols).Updates(p)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the product with id.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	defer metrics.ObserveDBQuery("products.delete", time.Now())

	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{})
	if res.Error != nil {
		return fmt.Errorf("products: delete: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpsertBySlug inserts p or overwrites the row sharing its slug. Used by
// seeders.
func (r *ProductRepository) UpsertBySlug(ctx context.Context, p *models.Product) error {
	existing := models.Product{}
	err := r.q(ctx).Where("slug = ?", p.Slug).First(&existing).Error
	switch {
	case err == nil:
		p.ID = existing.ID
		p.CreatedAt = existing.CreatedAt
		return r.db.WithContext(ctx).Save(p).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		return r.Create(ctx, p)
	default:
		return fmt.Errorf("products: upsert %s: %w", p.Slug, err)
	}
}
