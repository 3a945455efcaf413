package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/rainbowartistery/atelier/app/models"
	"github.com/rainbowartistery/atelier/pkg/metrics"
)

// TestimonialRepository handles database operations for Testimonial.
type TestimonialRepository struct {
	db *gorm.DB
}

func NewTestimonialRepository(db *gorm.DB) *TestimonialRepository {
	return &TestimonialRepository{db: db}
}

// Latest returns up to limit testimonials, newest first.
func (r *TestimonialRepository) Latest(ctx context.Context, limit int) ([]models.Testimonial, error) {
	defer metrics.ObserveDBQuery("testimonials.latest", time.Now())

	out := []models.Testimonial{}
	if err := r.db.WithContext(ctx).Order("created_at DESC").Order("id ASC").Limit(limit).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("testimonials: latest: %w", err)
	}
	return out, nil
}

func (r *TestimonialRepository) Create(ctx context.Context, t *models.Testimonial) error {
	defer metrics.ObserveDBQuery("testimonials.create", time.Now())
	return r.db.WithContext(ctx).Create(t).Error
}

// FirstOrCreate inserts t unless a testimonial with the same name and quote
// already exists.
func (r *TestimonialRepository) FirstOrCreate(ctx context.Context, t *models.Testimonial) error {
	return r.db.WithContext(ctx).
		Where(models.Testimonial{Name: t.Name, Quote: t.Quote}).
		FirstOrCreate(t).Error
}

// AnnouncementRepository handles database operations for Announcement.
type AnnouncementRepository struct {
	db *gorm.DB
}

func NewAnnouncementRepository(db *gorm.DB) *AnnouncementRepository {
	return &AnnouncementRepository{db: db}
}

// Active returns the active announcements, newest first.
func (r *AnnouncementRepository) Active(ctx context.Context) ([]models.Announcement, error) {
	defer metrics.ObserveDBQuery("announcements.active", time.Now())

	out := []models.Announcement{}
	err := r.db.WithContext(ctx).Where("active = ?", true).Order("created_at DESC").Order("id ASC").Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("announcements: active: %w", err)
	}
	return out, nil
}

// UpsertByTitle inserts a, or overwrites the row sharing its title.
func (r *AnnouncementRepository) UpsertByTitle(ctx context.Context, a *models.Announcement) error {
	var existing models.Announcement
	err := r.db.WithContext(ctx).Where("title = ?", a.Title).First(&existing).Error
	switch {
	case err == nil:
		a.ID = existing.ID
		a.CreatedAt = existing.CreatedAt
		return r.db.WithContext(ctx).Save(a).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		return r.db.WithContext(ctx).Create(a).Error
	default:
		return fmt.Errorf("announcements: upsert %q: %w", a.Title, err)
	}
}

// EnquiryRepository handles database operations for Enquiry.
type EnquiryRepository struct {
	db *gorm.DB
}

func NewEnquiryRepository(db *gorm.DB) *EnquiryRepository {
	return &EnquiryRepository{db: db}
}

func (r *EnquiryRepository) Create(ctx context.Context, e *models.Enquiry) error {
	defer metrics.ObserveDBQuery("enquiries.create", time.Now())
	return r.db.WithContext(ctx).Create(e).Error
}

// Page returns enquiries newest first with the total count.
func (r *EnquiryRepository) Page(ctx context.Context, offset, limit int) ([]models.Enquiry, int64, error) {
	defer metrics.ObserveDBQuery("enquiries.page", time.Now())

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Enquiry{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("enquiries: count: %w", err)
	}

	out := []models.Enquiry{}
	err := r.db.WithContext(ctx).
		Order("created_at DESC").Order("id ASC").
		Offset(offset).Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, 0, fmt.Errorf("enquiries: page: %w", err)
	}
	return out, total, nil
}

// FirstOrCreate inserts e unless an enquiry with the same email and
// message already exists.
func (r *EnquiryRepository) FirstOrCreate(ctx context.Context, e *models.Enquiry) error {
	return r.db.WithContext(ctx).
		Where(models.Enquiry{Email: e.Email, Message: e.Message}).
		FirstOrCreate(e).Error
}
