package services

import (
	"context"
	"strconv"
	"time"

	"github.com/rainbowartistery/atelier/app/models"
	"github.com/rainbowartistery/atelier/app/repositories"
	"github.com/rainbowartistery/atelier/pkg/cache"
)

const (
	TestimonialDefaultLimit = 20

	TagTestimonials  = "testimonials"
	TagAnnouncements = "announcements"
)

// ContentService serves the storefront's testimonials and announcements.
type ContentService struct {
	testimonials  *repositories.TestimonialRepository
	announcements *repositories.AnnouncementRepository
	cache         cache.Store
	ttl           time.Duration
}

func NewContentService(testimonials *repositories.TestimonialRepository, announcements *repositories.AnnouncementRepository, store cache.Store, ttl time.Duration) *ContentService {
	if store == nil {
		store = cache.Noop{}
	}
	return &ContentService{testimonials: testimonials, announcements: announcements, cache: store, ttl: ttl}
}

// Testimonials returns the newest testimonials. limit falls back to 20 and
// is capped at 100.
func (s *ContentService) Testimonials(ctx context.Context, limit int) ([]models.Testimonial, error) {
	if limit < 1 {
		limit = TestimonialDefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	key := "testimonials:" + strconv.Itoa(limit)
	return cache.Remember(ctx, s.cache, key, s.ttl, []string{TagTestimonials},
		func(ctx context.Context) ([]models.Testimonial, error) {
			return s.testimonials.Latest(ctx, limit)
		})
}

// Announcements returns the active announcements, newest first.
func (s *ContentService) Announcements(ctx context.Context) ([]models.Announcement, error) {
	return cache.Remember(ctx, s.cache, "announcements:active", s.ttl, []string{TagAnnouncements},
		func(ctx context.Context) ([]models.Announcement, error) {
			return s.announcements.Active(ctx)
		})
}
