package services_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/rainbowartistery/atelier/app/models"
	"github.com/rainbowartistery/atelier/app/repositories"
	"github.com/rainbowartistery/atelier/app/services"
	"github.com/rainbowartistery/atelier/pkg/auth"
	"github.com/rainbowartistery/atelier/pkg/cache"
	"github.com/rainbowartistery/atelier/pkg/testkit"
)

const adminEmail = "admin@rainbowartistery.in"

type catalogFixture struct {
	db       *gorm.DB
	cache    *cache.MemoryStore
	repo     *repositories.ProductRepository
	catalog  *services.CatalogService
	products *services.ProductService
}

func newCatalogFixture(t *testing.T, gate auth.Gate) *catalogFixture {
	t.Helper()
	db := testkit.NewDB(t)
	store := cache.NewMemory()
	repo := repositories.NewProductRepository(db)
	return &catalogFixture{
		db:       db,
		cache:    store,
		repo:     repo,
		catalog:  services.NewCatalogService(repo, store, gate, time.Hour),
		products: services.NewProductService(repo, store, gate),
	}
}

func ptr[T any](v T) *T { return &v }

// product builds a valid published product. Later indexes are older.
func product(i int, mutate ...func(*models.Product)) *models.Product {
	p := &models.Product{
		Title:          fmt.Sprintf("Product %d", i),
		Slug:           fmt.Sprintf("product-%d", i),
		Description:    "A handmade piece for the home.",
		Category:       "Wall Hanging",
		Tags:           []string{},
		Personalizable: true,
		IsPublished:    true,
		CoverURL:       "https://cdn.example.com/cover.jpg",
		MediaURLs:      []string{},
		UpdatedAt:      time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC).Add(-time.Duration(i) * time.Hour),
	}
	for _, m := range mutate {
		m(p)
	}
	return p
}

func insert(t *testing.T, repo *repositories.ProductRepository, products ...*models.Product) {
	t.Helper()
	for _, p := range products {
		require.NoError(t, repo.Create(context.Background(), p))
	}
}

func validInput(title string) services.ProductInput {
	return services.ProductInput{
		Title:       title,
		Description: "Handmade with cotton threads and mirrors.",
		Category:    "Wall Hanging",
		Tags:        []string{"personalized"},
		CoverURL:    "https://cdn.example.com/cover.jpg",
	}
}

func slugs(products []models.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.Slug
	}
	return out
}
