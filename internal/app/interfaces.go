package app

import (
	"gorm.io/gorm"

	"github.com/openkiosk/catalogd/config"
)

// DBProvider provides database access
type DBProvider interface {
	DB() *gorm.DB
}

// ConfigProvider provides application configuration
type ConfigProvider interface {
	Config() *config.AppConfig
}
