package app

import (
	"fmt"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/openkiosk/catalogd/config"
	"github.com/openkiosk/catalogd/internal/domain"
	"github.com/openkiosk/catalogd/internal/mediastore"
	"github.com/openkiosk/catalogd/internal/repository"
)

// Application wires configuration, database, media store and background
// jobs into one explicitly constructed value. Handlers receive its parts
// by reference; there is no ambient global state beyond the zap logger.
type Application struct {
	appConfig *config.AppConfig
	gormDB    *gorm.DB
	media     *mediastore.MediaStore
	products  *repository.GormProductRepository
	admins    *repository.GormAdminRepository
	sched     *cron.Cron
}

// Ensure Application implements all interfaces
var (
	_ DBProvider     = (*Application)(nil)
	_ ConfigProvider = (*Application)(nil)
)

func NewApplication(appConfig *config.AppConfig) *Application {
	return &Application{appConfig: appConfig}
}

func (a *Application) Config() *config.AppConfig {
	return a.appConfig
}

func (a *Application) DB() *gorm.DB {
	return a.gormDB
}

func (a *Application) Media() *mediastore.MediaStore {
	return a.media
}

func (a *Application) ProductRepo() repository.ProductRepository {
	return a.products
}

func (a *Application) AdminRepo() repository.AdminRepository {
	return a.admins
}

// OverrideDB replaces the application's database handle (used in tests).
func (a *Application) OverrideDB(db *gorm.DB) {
	a.gormDB = db
	a.products = repository.NewGormProductRepository(db, a.media)
	a.admins = repository.NewGormAdminRepository(db)
}

// Init brings up logging, the database connection, schema migration,
// seed data and background jobs. A database that cannot be reached is
// fatal: the error propagates to main which exits.
func (a *Application) Init() error {
	initLogger(a.appConfig.Logger)

	db, err := getDatabase(a.appConfig.Database)
	if err != nil {
		return errors.Wrap(err, "database connection failed")
	}
	a.gormDB = db
	zap.S().Infof("database connection successful, type: %s", a.appConfig.Database.Type)

	if err := a.MigrateDB(); err != nil {
		return errors.Wrap(err, "database migration failed")
	}

	a.media, err = mediastore.New(a.appConfig.Web.UploadDir)
	if err != nil {
		return err
	}
	a.products = repository.NewGormProductRepository(a.gormDB, a.media)
	a.admins = repository.NewGormAdminRepository(a.gormDB)

	a.checkAdmin()
	a.initJob()
	return nil
}

// MigrateDB idempotently ensures all tables exist with the expected columns
func (a *Application) MigrateDB() error {
	return a.gormDB.Migrator().AutoMigrate(domain.Tables...)
}

func (a *Application) DropAll() {
	_ = a.gormDB.Migrator().DropTable(domain.Tables...)
}

// Release releases application resources
func (a *Application) Release() {
	if a.sched != nil {
		a.sched.Stop()
	}
	_ = zap.L().Sync()
}

func initLogger(cfg config.LoggerConfig) {
	var zapConfig zap.Config
	if cfg.Mode == "production" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	var logger *zap.Logger
	if cfg.FileEnable {
		lumberJackLogger := &lumberjack.Logger{
			Filename:   cfg.Filename,
			MaxSize:    64,
			MaxBackups: 7,
			MaxAge:     7,
			Compress:   false,
		}

		core := zapcore.NewTee(
			zapcore.NewCore(
				zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
				zapcore.AddSync(lumberJackLogger),
				zapConfig.Level,
			),
			zapcore.NewCore(
				zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
				zapcore.AddSync(os.Stdout),
				zapConfig.Level,
			),
		)
		logger = zap.New(core, zap.AddCaller())
	} else {
		var err error
		logger, err = zapConfig.Build(zap.AddCaller())
		if err != nil {
			panic(err)
		}
	}

	zap.ReplaceGlobals(logger)
}

func getDatabase(cfg config.DBConfig) (*gorm.DB, error) {
	logLevel := gormlogger.Warn
	if cfg.Debug {
		logLevel = gormlogger.Info
	}
	gormConfig := &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	}

	var dialector gorm.Dialector
	switch cfg.Type {
	case "sqlite":
		dialector = sqlite.Open(cfg.Name)
	default:
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable TimeZone=UTC",
			cfg.Host, cfg.User, cfg.Password, cfg.Name, cfg.Port)
		dialector = postgres.Open(dsn)
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.MaxConn)
	sqlDB.SetMaxIdleConns(cfg.IdleConn)
	sqlDB.SetConnMaxLifetime(time.Hour)
	return db, nil
}
