package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/openkiosk/catalogd/internal/domain"
)

// AdminRepository handles the admin credential check
type AdminRepository interface {
	// Verify reports whether a row exists with exactly this
	// username/password pair
	Verify(ctx context.Context, username, password string) (bool, error)
}

// GormAdminRepository is the GORM implementation of AdminRepository
type GormAdminRepository struct {
	db *gorm.DB
}

// NewGormAdminRepository creates a new GORM-based admin repository
func NewGormAdminRepository(db *gorm.DB) *GormAdminRepository {
	return &GormAdminRepository{db: db}
}

// Verify does a plaintext equality lookup, matching the stored demo
// credentials. There is no hashing, lockout or rate limiting here.
func (r *GormAdminRepository) Verify(ctx context.Context, username, password string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.AdminUser{}).
		Where("username = ? AND password = ?", username, password).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
