package app

import (
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/openkiosk/catalogd/internal/domain"
)

const (
	defaultAdminUsername = "admin"
	defaultAdminPassword = "admin123"
)

// checkAdmin ensures the default admin account exists. The row is only
// created when no account with the default username is present, so
// repeated startups never duplicate or overwrite it.
func (a *Application) checkAdmin() {
	var admin domain.AdminUser
	err := a.gormDB.Where("username = ?", defaultAdminUsername).First(&admin).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		now := time.Now()
		if err := a.gormDB.Create(&domain.AdminUser{
			Username:  defaultAdminUsername,
			Password:  defaultAdminPassword,
			CreatedAt: now,
			UpdatedAt: now,
		}).Error; err != nil {
			zap.L().Error("failed to create default admin", zap.Error(err))
			return
		}
		zap.L().Info("initialized default admin account",
			zap.String("username", defaultAdminUsername))
	case err != nil:
		zap.L().Error("failed to query admin account", zap.Error(err))
	}
}
