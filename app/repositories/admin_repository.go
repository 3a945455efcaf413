package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/rainbowartistery/atelier/app/models"
	"github.com/rainbowartistery/atelier/pkg/database"
	"github.com/rainbowartistery/atelier/pkg/metrics"
)

// AdminRepository handles AdminUser and VerificationToken rows.
type AdminRepository struct {
	db *gorm.DB
}

func NewAdminRepository(db *gorm.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

// FindByEmail looks up an admin by (already normalised) email.
func (r *AdminRepository) FindByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	defer metrics.ObserveDBQuery("admins.find", time.Now())

	var u models.AdminUser
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// Upsert returns the admin with email, creating it when missing. A
// concurrent insert of the same email is resolved by re-reading.
func (r *AdminRepository) Upsert(ctx context.Context, email string, name *string) (*models.AdminUser, error) {
	u, err := r.FindByEmail(ctx, email)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("admins: lookup: %w", err)
	}

	u = &models.AdminUser{Email: email, Name: name}
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return r.FindByEmail(ctx, email)
		}
		return nil, fmt.Errorf("admins: create: %w", err)
	}
	return u, nil
}

// CreateToken stores a pending magic-link token.
func (r *AdminRepository) CreateToken(ctx context.Context, t *models.VerificationToken) error {
	defer metrics.ObserveDBQuery("tokens.create", time.Now())
	return r.db.WithContext(ctx).Create(t).Error
}

// LiveTokens returns the unexpired tokens for email, newest first.
func (r *AdminRepository) LiveTokens(ctx context.Context, email string, now time.Time) ([]models.VerificationToken, error) {
	defer metrics.ObserveDBQuery("tokens.live", time.Now())

	out := []models.VerificationToken{}
	err := r.db.WithContext(ctx).
		Where("email = ? AND expires_at > ?", email, now).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("tokens: live: %w", err)
	}
	return out, nil
}

// ConsumeToken deletes the token and reports whether this call removed it,
// so a link raced from two tabs signs in only once.
func (r *AdminRepository) ConsumeToken(ctx context.Context, id string) (bool, error) {
	defer metrics.ObserveDBQuery("tokens.consume", time.Now())

	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.VerificationToken{})
	if res.Error != nil {
		return false, fmt.Errorf("tokens: consume: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// PurgeExpiredTokens drops tokens that expired before now.
func (r *AdminRepository) PurgeExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&models.VerificationToken{})
	if res.Error != nil {
		return 0, fmt.Errorf("tokens: purge: %w", res.Error)
	}
	return res.RowsAffected, nil
}
