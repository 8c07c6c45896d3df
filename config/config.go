// config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"
	_ "time/tzdata" // import timezone must resolve on hosts without zoneinfo

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Port            string        `yaml:"port"`
	ReadTimeoutStr  string        `yaml:"read_timeout"`
	WriteTimeoutStr string        `yaml:"write_timeout"`
	MaxUploadMB     int64         `yaml:"max_upload_mb"`
	ReadTimeout     time.Duration `yaml:"-"` // Parsed duration
	WriteTimeout    time.Duration `yaml:"-"` // Parsed duration
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // mysql | sqlite | postgres
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	Path     string `yaml:"path"`    // sqlite file, ":memory:" allowed
	SSLMode  string `yaml:"sslmode"` // postgres only
}

type StorageConfig struct {
	Driver      string `yaml:"driver"` // fs | s3
	Root        string `yaml:"root"`
	S3Bucket    string `yaml:"s3_bucket"`
	S3Region    string `yaml:"s3_region"`
	S3Endpoint  string `yaml:"s3_endpoint"`
	S3PathStyle bool   `yaml:"s3_path_style"`
}

type ImportConfig struct {
	Timezone     string `yaml:"timezone"`
	WorkDir      string `yaml:"work_dir"`
	DevicePrefix string `yaml:"device_prefix"`
}

type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Storage  StorageConfig  `yaml:"storage"`
	Import   ImportConfig   `yaml:"import"`
	Logging  LoggingConfig  `yaml:"logging"`
}

var AppConfig Config

// LoadConfig reads configuration from the YAML file, then a .env file next to the working
// directory, then SOIL_* environment variables. An empty configPath looks in the usual
// places and falls back to defaults when nothing is found.
func LoadConfig(configPath string) error {
	AppConfig = Config{}

	if configPath == "" {
		potentialPaths := []string{
			"config.yaml",
			"config/config.yaml",
		}
		for _, p := range potentialPaths {
			if _, err := os.Stat(p); err == nil {
				configPath = p
				break
			}
		}
	}

	if configPath != "" {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(file, &AppConfig); err != nil {
			return fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	// .env is optional; a missing file is not an error.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	applyEnv(&AppConfig)

	if err := finalize(&AppConfig); err != nil {
		return err
	}

	if AppConfig.Import.WorkDir != "" {
		if err := os.MkdirAll(AppConfig.Import.WorkDir, 0o755); err != nil {
			return fmt.Errorf("failed to create import work directory: %w", err)
		}
	}
	return nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Server.Port, "SOIL_SERVER_PORT")
	setString(&cfg.Database.Driver, "SOIL_DB_DRIVER")
	setString(&cfg.Database.Host, "SOIL_DB_HOST")
	setString(&cfg.Database.Port, "SOIL_DB_PORT")
	setString(&cfg.Database.User, "SOIL_DB_USER")
	setString(&cfg.Database.Password, "SOIL_DB_PASSWORD")
	setString(&cfg.Database.DBName, "SOIL_DB_NAME")
	setString(&cfg.Database.Path, "SOIL_DB_PATH")
	setString(&cfg.Storage.Driver, "SOIL_STORAGE_DRIVER")
	setString(&cfg.Storage.Root, "SOIL_STORAGE_ROOT")
	setString(&cfg.Storage.S3Bucket, "SOIL_STORAGE_S3_BUCKET")
	setString(&cfg.Storage.S3Region, "SOIL_STORAGE_S3_REGION")
	setString(&cfg.Storage.S3Endpoint, "SOIL_STORAGE_S3_ENDPOINT")
	if v, ok := os.LookupEnv("SOIL_STORAGE_S3_PATH_STYLE"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Storage.S3PathStyle = b
		}
	}
	setString(&cfg.Logging.Level, "SOIL_LOG_LEVEL")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

// finalize fills defaults and parses derived fields.
func finalize(cfg *Config) error {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Server.MaxUploadMB <= 0 {
		cfg.Server.MaxUploadMB = 64
	}
	var err error
	if cfg.Server.ReadTimeout, err = parseDuration(cfg.Server.ReadTimeoutStr, 30*time.Second); err != nil {
		return fmt.Errorf("failed to parse server read_timeout: %w", err)
	}
	if cfg.Server.WriteTimeout, err = parseDuration(cfg.Server.WriteTimeoutStr, 2*time.Minute); err != nil {
		return fmt.Errorf("failed to parse server write_timeout: %w", err)
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "mysql"
	}
	switch cfg.Database.Driver {
	case "mysql", "sqlite", "postgres":
	default:
		return fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
	if cfg.Database.Driver == "sqlite" && cfg.Database.Path == "" {
		cfg.Database.Path = "soil.db"
	}

	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "fs"
	}
	if cfg.Storage.Driver == "fs" && cfg.Storage.Root == "" {
		cfg.Storage.Root = filepath.Join("media", "archives")
	}

	if cfg.Import.Timezone == "" {
		cfg.Import.Timezone = "Asia/Tokyo"
	}
	if _, err := time.LoadLocation(cfg.Import.Timezone); err != nil {
		return fmt.Errorf("invalid import timezone %q: %w", cfg.Import.Timezone, err)
	}
	if cfg.Import.DevicePrefix == "" {
		cfg.Import.DevicePrefix = "DIK-"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	return nil
}

func parseDuration(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	return time.ParseDuration(s)
}
