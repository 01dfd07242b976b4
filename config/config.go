package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

// DBConfig holds relational database connection settings
type DBConfig struct {
	Type     string `json:"type"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Name     string `json:"name"`
	User     string `json:"user"`
	Password string `json:"password"`
	MaxConn  int    `json:"max_conn"`
	IdleConn int    `json:"idle_conn"`
	Debug    bool   `json:"debug"`
}

// WebConfig holds HTTP server settings
type WebConfig struct {
	Host      string `json:"host"`
	Port      int    `json:"port"`
	UploadDir string `json:"upload_dir"`
}

// LoggerConfig holds logging settings
type LoggerConfig struct {
	Mode       string `json:"mode"`
	FileEnable bool   `json:"file_enable"`
	Filename   string `json:"filename"`
}

type AppConfig struct {
	Web                WebConfig    `json:"web"`
	Database           DBConfig     `json:"database"`
	Logger             LoggerConfig `json:"logger"`
	MediaSweepDisabled bool         `json:"media_sweep_disabled"`
}

func envOr(key, defval string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defval
}

// Load reads configuration from the environment (and a .env file when present).
// Database settings are required for the postgres backend; Load fails if they
// are missing so the process can refuse to start.
func Load() (*AppConfig, error) {
	_ = godotenv.Load()

	cfg := &AppConfig{
		Web: WebConfig{
			Host:      envOr("WEB_HOST", "0.0.0.0"),
			Port:      cast.ToInt(envOr("WEB_PORT", "8080")),
			UploadDir: envOr("UPLOAD_DIR", "uploads"),
		},
		Database: DBConfig{
			Type:     envOr("DB_TYPE", "postgres"),
			Host:     os.Getenv("DB_HOST"),
			Port:     cast.ToInt(envOr("DB_PORT", "5432")),
			Name:     os.Getenv("DB_NAME"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			MaxConn:  cast.ToInt(envOr("DB_MAX_CONN", "10")),
			IdleConn: cast.ToInt(envOr("DB_IDLE_CONN", "5")),
			Debug:    cast.ToBool(os.Getenv("DB_DEBUG")),
		},
		Logger: LoggerConfig{
			Mode:       envOr("LOG_MODE", "development"),
			FileEnable: cast.ToBool(os.Getenv("LOG_FILE_ENABLE")),
			Filename:   envOr("LOG_FILENAME", "catalogd.log"),
		},
		MediaSweepDisabled: cast.ToBool(os.Getenv("MEDIA_SWEEP_DISABLED")),
	}

	switch cfg.Database.Type {
	case "postgres":
		if cfg.Database.Host == "" || cfg.Database.Name == "" || cfg.Database.User == "" {
			return nil, fmt.Errorf("database settings missing: DB_HOST, DB_NAME and DB_USER are required")
		}
	case "sqlite":
		if cfg.Database.Name == "" {
			cfg.Database.Name = "catalogd.db"
		}
	default:
		return nil, fmt.Errorf("unsupported database type %q", cfg.Database.Type)
	}

	return cfg, nil
}
