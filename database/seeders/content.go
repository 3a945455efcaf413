package seeders

import (
	"context"

	"gorm.io/gorm"

	"github.com/rainbowartistery/atelier/app/models"
	"github.com/rainbowartistery/atelier/app/repositories"
)

func SeedTestimonials(ctx context.Context, db *gorm.DB) error {
	testimonials := []models.Testimonial{
		{Name: "Aarushi Sharma", City: "Jaipur", Quote: "Absolutely loved the personalised name plate for my niece Jiya. The tassels are gorgeous!", Rating: 5},
		{Name: "Rohan Mehta", City: "Mumbai", Quote: "Ordered return-gift magnets for Mohit's birthday. Kids went crazy. Fab quality!", Rating: 5},
		{Name: "Nandini Iyer", City: "Chennai", Quote: "The Krishna wall hanging was perfect for our pooja room.", Rating: 5},
		{Name: "Harshita Kulkarni", City: "Pune", Quote: "Timely delivery and beautifully packed. Highly recommend.", Rating: 5},
		{Name: "Kabir & Aanya Bansal", City: "Gurugram", Quote: "Custom colours matched our nursery perfectly. Thank you!", Rating: 5},
		{Name: "Farheen Khan", City: "Hyderabad", Quote: "Great experience end-to-end, super responsive on Instagram.", Rating: 5},
		{Name: "Vedant Trivedi", City: "Ahmedabad", Quote: "Gifted a name ring for housewarming. Instant hit with everyone.", Rating: 5},
		{Name: "Simran Kaur", City: "Ludhiana", Quote: "Loved the mirror-work detailing. It feels truly handmade.", Rating: 5},
	}

	repo := repositories.NewTestimonialRepository(db)
	for i := range testimonials {
		if err := repo.FirstOrCreate(ctx, &testimonials[i]); err != nil {
			return err
		}
	}
	return nil
}

func SeedAnnouncements(ctx context.Context, db *gorm.DB) error {
	announcements := []models.Announcement{
		{Title: "Festive Launch", Message: "Now taking Janmashtami & Rakhi custom orders. DM us on Instagram!", Active: true},
		{Title: "New Collection", Message: "Check out our latest Diwali décor collection with traditional motifs.", Active: false},
	}

	repo := repositories.NewAnnouncementRepository(db)
	for i := range announcements {
		if err := repo.UpsertByTitle(ctx, &announcements[i]); err != nil {
			return err
		}
	}
	return nil
}

func SeedEnquiries(ctx context.Context, db *gorm.DB) error {
	enquiries := []models.Enquiry{
		{
			ProductSlug: ptr("jiya-ring-wall-hanging"),
			Name:        "Priya Sharma",
			Email:       "priya@example.com",
			Phone:       "+91 98765 43210",
			Message:     "Interested in custom colors for my daughter's room. Can you make it in pink and purple?",
		},
		{
			ProductSlug: ptr("krishna-motif-plate"),
			Name:        "Rajesh Kumar",
			Email:       "rajesh@example.com",
			Phone:       "+91 98765 43211",
			Message:     "Need this for Janmashtami celebration. Is it available in different sizes?",
		},
		{
			Name:    "Anita Patel",
			Email:   "anita@example.com",
			Phone:   "+91 98765 43212",
			Message: "Looking for a wooden name plate with traditional design for our new home.",
		},
	}

	repo := repositories.NewEnquiryRepository(db)
	for i := range enquiries {
		if err := repo.FirstOrCreate(ctx, &enquiries[i]); err != nil {
			return err
		}
	}
	return nil
}
