package models

import (
	"time"

	"gorm.io/gorm"
)

// AdminUser may sign in to the back office.
type AdminUser struct {
	ID        string    `gorm:"primaryKey;size:36"            json:"id"`
	Email     string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Name      *string   `gorm:"size:120"                      json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

func (a *AdminUser) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}

// VerificationToken is the server half of a magic link: the bcrypt hash of
// the nonce carried in the mailed JWT.
type VerificationToken struct {
	ID        string    `gorm:"primaryKey;size:36"      json:"-"`
	Email     string    `gorm:"size:255;not null;index" json:"-"`
	TokenHash string    `gorm:"size:255;not null"       json:"-"`
	ExpiresAt time.Time `gorm:"not null;index"          json:"-"`
	CreatedAt time.Time `json:"-"`
}

func (v *VerificationToken) BeforeCreate(*gorm.DB) error {
	ensureID(&v.ID)
	return nil
}
