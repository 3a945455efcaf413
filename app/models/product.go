package models

import (
	"time"

	"gorm.io/gorm"
)

// Product is one handmade item in the catalogue.
type Product struct {
	ID             string    `gorm:"primaryKey;size:36"                          json:"id"`
	Slug           string    `gorm:"size:120;not null;uniqueIndex"               json:"slug"`
	Title          string    `gorm:"size:80;not null"                            json:"title"`
	Description    string    `gorm:"type:text;not null"                          json:"description"`
	Category       string    `gorm:"size:80;not null;index"                      json:"category"`
	Tags           []string  `gorm:"serializer:json;type:text"                   json:"tags"`
	PriceINR       *float64  `gorm:"column:price_inr"                            json:"priceINR"`
	Personalizable bool      `gorm:"not null"                                    json:"personalizable"`
	IsFeatured     bool      `gorm:"not null;index"                              json:"isFeatured"`
	FeaturedOrder  *int      `gorm:"column:featured_order"                       json:"featuredOrder"`
	IsPublished    bool      `gorm:"not null;index"                              json:"isPublished"`
	CoverURL       string    `gorm:"column:cover_url;size:2048;not null"         json:"coverUrl"`
	MediaURLs      []string  `gorm:"column:media_urls;serializer:json;type:text" json:"mediaUrls"`
	VideoURL       *string   `gorm:"column:video_url;size:2048"                  json:"videoUrl"`
	SizeNote       *string   `gorm:"column:size_note;size:255"                   json:"sizeNote"`
	Materials      *string   `gorm:"size:255"                                    json:"materials"`
	CreatedAt      time.Time `gorm:"index"                                       json:"createdAt"`
	UpdatedAt      time.Time `gorm:"index"                                       json:"updatedAt"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	p.normalize()
	return nil
}

func (p *Product) BeforeSave(*gorm.DB) error {
	p.normalize()
	return nil
}

// AfterFind turns a stored JSON null into an empty list.
func (p *Product) AfterFind(*gorm.DB) error {
	p.normalize()
	return nil
}

func (p *Product) normalize() {
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if p.MediaURLs == nil {
		p.MediaURLs = []string{}
	}
}
