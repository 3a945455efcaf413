package models

import (
	"time"

	"gorm.io/gorm"
)

// Testimonial is a customer quote. Append-only.
type Testimonial struct {
	ID        string    `gorm:"primaryKey;size:36"          json:"id"`
	Name      string    `gorm:"size:80;not null"            json:"name"`
	City      string    `gorm:"size:80;not null"            json:"city"`
	Quote     string    `gorm:"type:text;not null"          json:"quote"`
	Rating    int       `gorm:"not null"                    json:"rating"`
	AvatarURL *string   `gorm:"column:avatar_url;size:2048" json:"avatarUrl"`
	CreatedAt time.Time `gorm:"index"                       json:"createdAt"`
}

func (t *Testimonial) BeforeCreate(*gorm.DB) error {
	ensureID(&t.ID)
	return nil
}

// Announcement is a site-wide banner message.
type Announcement struct {
	ID        string    `gorm:"primaryKey;size:36"   json:"id"`
	Title     string    `gorm:"size:120;not null"    json:"title"`
	Message   string    `gorm:"type:text;not null"   json:"message"`
	Active    bool      `gorm:"not null;index"       json:"active"`
	CreatedAt time.Time `gorm:"index"                json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (a *Announcement) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}

// Enquiry is a contact-form submission. Write-once.
type Enquiry struct {
	ID          string    `gorm:"primaryKey;size:36"                  json:"id"`
	Name        string    `gorm:"size:80;not null"                    json:"name"`
	Email       string    `gorm:"size:255;not null"                   json:"email"`
	Phone       string    `gorm:"size:20;not null"                    json:"phone"`
	Message     string    `gorm:"type:text;not null"                  json:"message"`
	FileURL     *string   `gorm:"column:file_url;size:2048"           json:"fileUrl"`
	ProductSlug *string   `gorm:"column:product_slug;size:120;index"  json:"productSlug"`
	CreatedAt   time.Time `gorm:"index"                               json:"createdAt"`
}

func (e *Enquiry) BeforeCreate(*gorm.DB) error {
	ensureID(&e.ID)
	return nil
}
