package seeders

import (
	"context"

	"gorm.io/gorm"

	"github.com/rainbowartistery/atelier/app/models"
	"github.com/rainbowartistery/atelier/app/repositories"
	"github.com/rainbowartistery/atelier/config"
)

// Registration order is run order: enquiries reference product slugs.
func init() {
	Register("admins", SeedAdmins)
	Register("products", SeedProducts)
	Register("testimonials", SeedTestimonials)
	Register("announcements", SeedAnnouncements)
	Register("enquiries", SeedEnquiries)
}

func ptr[T any](v T) *T { return &v }

// asset resolves a launch photo shipped under <storage>/seed/.
func asset(name string) string {
	return config.StorageURL() + "/seed/" + name
}

func assets(names ...string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = asset(n)
	}
	return out
}

func SeedAdmins(ctx context.Context, db *gorm.DB) error {
	_, err := repositories.NewAdminRepository(db).Upsert(ctx, "admin@rainbowartistery.in", nil)
	return err
}

// Products returns the launch catalogue.
func Products() []models.Product {
	return []models.Product{
		{
			Title:          "Jiya — Personalized Ring Wall Hanging",
			Slug:           "jiya-ring-wall-hanging",
			Description:    "Pink center with mirror-work border and soft tassels. Perfect gift for newborns and birthdays. This beautiful handmade wall hanging features intricate mirror work and delicate tassels that add a touch of elegance to any room.",
			Category:       "Wall Hanging",
			Tags:           []string{"personalized", "birthday", "nursery"},
			Personalizable: true,
			PriceINR:       ptr(899.0),
			IsFeatured:     true,
			FeaturedOrder:  ptr(1),
			CoverURL:       asset("jiya-ring.jpg"),
			MediaURLs:      assets("jiya-ring.jpg", "jiya-ring-2.jpg", "jiya-ring-3.jpg"),
			SizeNote:       ptr("Approx. 8 inch ring"),
			Materials:      ptr("Cotton threads, mirrors, beads"),
			IsPublished:    true,
		},
		{
			Title:          "Ankit & Divya — Name Ring",
			Slug:           "ankit-divya-name-ring",
			Description:    "Elegant blue gradient ring with white/blue tassels. Ideal for couples & housewarming. This stunning piece combines traditional craftsmanship with modern design, perfect for celebrating special moments.",
			Category:       "Name Plate",
			Tags:           []string{"couple", "housewarming"},
			Personalizable: true,
			PriceINR:       ptr(1299.0),
			IsFeatured:     true,
			FeaturedOrder:  ptr(2),
			CoverURL:       asset("ankit-divya-blue.jpg"),
			MediaURLs:      assets("ankit-divya-blue.jpg", "ankit-divya-blue-2.jpg"),
			SizeNote:       ptr("Approx. 10 inch ring"),
			Materials:      ptr("Cotton threads, beads"),
			IsPublished:    true,
		},
		{
			Title:          "Mini Animal Magnets Set",
			Slug:           "mini-animal-magnets",
			Description:    "Pastel square magnets with cute animals and custom names. Great return gifts. These adorable magnets are perfect for kids' rooms and make excellent return gifts for birthday parties.",
			Category:       "Fridge Magnet",
			Tags:           []string{"kids", "birthday", "return gifts"},
			Personalizable: true,
			PriceINR:       ptr(599.0),
			IsFeatured:     true,
			FeaturedOrder:  ptr(3),
			CoverURL:       asset("animal-magnets.jpg"),
			MediaURLs:      assets("animal-magnets.jpg"),
			SizeNote:       ptr("Approx. 2.5 inch squares"),
			Materials:      ptr("Wood, paint, magnets"),
			IsPublished:    true,
		},
		{
			Title:          "Krishna Motif Plate",
			Slug:           "krishna-motif-plate",
			Description:    "Serene blue-white plate inspired by Lord Krishna, perfect for pooja rooms and Janmashtami. This divine piece brings peace and spirituality to your sacred space.",
			Category:       "Festival",
			Tags:           []string{"Krishna", "festival", "pooja"},
			Personalizable: false,
			PriceINR:       ptr(799.0),
			IsFeatured:     true,
			FeaturedOrder:  ptr(4),
			CoverURL:       asset("krishna-plate.jpg"),
			MediaURLs:      assets("krishna-plate.jpg"),
			SizeNote:       ptr("Approx. 9 inch plate"),
			Materials:      ptr("Hand-painted wood, embellishments"),
			IsPublished:    true,
		},
		{
			Title:          "Aarav — Custom Name Plate",
			Slug:           "aarav-custom-name-plate",
			Description:    "Beautiful wooden name plate with traditional motifs and golden accents. Perfect for housewarming gifts and personal spaces.",
			Category:       "Name Plate",
			Tags:           []string{"personalized", "wooden", "traditional"},
			Personalizable: true,
			PriceINR:       ptr(699.0),
			CoverURL:       asset("aarav-name-plate.jpg"),
			MediaURLs:      assets("aarav-name-plate.jpg"),
			SizeNote:       ptr("Approx. 12 inch length"),
			Materials:      ptr("Wood, gold paint, varnish"),
			IsPublished:    true,
		},
		{
			Title:          "Diwali Décor Set",
			Slug:           "diwali-decor-set",
			Description:    "Festive wall hangings and decorative pieces for Diwali celebrations. Bring the joy of the festival of lights to your home.",
			Category:       "Festival",
			Tags:           []string{"Diwali", "festival", "decor"},
			Personalizable: true,
			PriceINR:       ptr(1199.0),
			CoverURL:       asset("diwali-decor.jpg"),
			MediaURLs:      assets("diwali-decor.jpg"),
			SizeNote:       ptr("Various sizes"),
			Materials:      ptr("Fabric, mirrors, beads, tassels"),
			IsPublished:    true,
		},
	}
}

func SeedProducts(ctx context.Context, db *gorm.DB) error {
	repo := repositories.NewProductRepository(db)
	for _, p := range Products() {
		if err := repo.UpsertBySlug(ctx, &p); err != nil {
			return err
		}
	}
	return nil
}
