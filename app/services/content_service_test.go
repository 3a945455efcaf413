package services_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rainbowartistery/atelier/app/models"
	"github.com/rainbowartistery/atelier/app/repositories"
	"github.com/rainbowartistery/atelier/app/services"
	"github.com/rainbowartistery/atelier/pkg/cache"
	"github.com/rainbowartistery/atelier/pkg/testkit"
)

func TestContentService(t *testing.T) {
	db := testkit.NewDB(t)
	testimonials := repositories.NewTestimonialRepository(db)
	announcements := repositories.NewAnnouncementRepository(db)
	store := cache.NewMemory()
	svc := services.NewContentService(testimonials, announcements, store, time.Hour)
	ctx := context.Background()

	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		require.NoError(t, testimonials.Create(ctx, &models.Testimonial{
			Name:      fmt.Sprintf("Customer %02d", i),
			City:      "Pune",
			Quote:     "Loved it.",
			Rating:    5,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}
	require.NoError(t, announcements.UpsertByTitle(ctx, &models.Announcement{Title: "Diwali orders", Message: "Order by Oct 20.", Active: true}))
	require.NoError(t, announcements.UpsertByTitle(ctx, &models.Announcement{Title: "Old sale", Message: "Over.", Active: false}))

	t.Run("testimonials default to twenty, newest first", func(t *testing.T) {
		list, err := svc.Testimonials(ctx, 0)
		require.NoError(t, err)
		require.Len(t, list, services.TestimonialDefaultLimit)
		assert.Equal(t, "Customer 24", list[0].Name)
	})

	t.Run("testimonial limit is capped", func(t *testing.T) {
		list, err := svc.Testimonials(ctx, 500)
		require.NoError(t, err)
		assert.Len(t, list, 25)
	})

	t.Run("only active announcements", func(t *testing.T) {
		list, err := svc.Announcements(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "Diwali orders", list[0].Title)
	})

	t.Run("results are cached until the tag is dropped", func(t *testing.T) {
		require.NoError(t, announcements.UpsertByTitle(ctx, &models.Announcement{Title: "New banner", Message: "Hello.", Active: true}))

		list, err := svc.Announcements(ctx)
		require.NoError(t, err)
		assert.Len(t, list, 1)

		require.NoError(t, store.InvalidateTags(ctx, services.TagAnnouncements))
		list, err = svc.Announcements(ctx)
		require.NoError(t, err)
		assert.Len(t, list, 2)
	})
}
