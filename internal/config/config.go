package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	CORS        CORSConfig        `yaml:"cors"`
	Database    DatabaseConfig    `yaml:"database"`
	JWT         JWTConfig         `yaml:"jwt"`
	Security    SecurityConfig    `yaml:"security"`
	Uploads     UploadsConfig     `yaml:"uploads"`
	DefaultUser DefaultUserConfig `yaml:"default_user"`
	Log         LogConfig         `yaml:"log"`
}

type ServerConfig struct {
	Host           string        `yaml:"host" env:"CMS_HOST"`
	Port           int           `yaml:"port" env:"CMS_PORT"`
	Mode           string        `yaml:"mode" env:"CMS_GIN_MODE"`
	Env            string        `yaml:"env" env:"CMS_ENV"`
	Serverless     bool          `yaml:"serverless" env:"CMS_SERVERLESS"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"CMS_REQUEST_TIMEOUT"`
	FrontendDir    string        `yaml:"frontend_dir" env:"CMS_FRONTEND_DIR"`
}

type CORSConfig struct {
	AllowedOrigins   []string      `yaml:"allowed_origins" env:"CMS_CORS_ORIGINS" envSeparator:","`
	AllowCredentials bool          `yaml:"allow_credentials" env:"CMS_CORS_CREDENTIALS"`
	MaxAge           time.Duration `yaml:"max_age"`
}

type DatabaseConfig struct {
	Type            string         `yaml:"type" env:"CMS_DB_TYPE"`
	SQLite          SQLiteConfig   `yaml:"sqlite"`
	MySQL           MySQLConfig    `yaml:"mysql"`
	Postgres        PostgresConfig `yaml:"postgres"`
	MaxOpenConns    int            `yaml:"max_open_conns"`
	MaxIdleConns    int            `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration  `yaml:"conn_max_lifetime"`
	LogQueries      bool           `yaml:"log_queries" env:"CMS_DB_LOG_QUERIES"`
}

type SQLiteConfig struct {
	Path string `yaml:"path" env:"CMS_DB_PATH"`
}

type MySQLConfig struct {
	Host     string `yaml:"host" env:"CMS_MYSQL_HOST"`
	Port     int    `yaml:"port" env:"CMS_MYSQL_PORT"`
	Username string `yaml:"username" env:"CMS_MYSQL_USER"`
	Password string `yaml:"password" env:"CMS_MYSQL_PASSWORD"`
	Database string `yaml:"database" env:"CMS_MYSQL_DATABASE"`
	Charset  string `yaml:"charset"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn" env:"CMS_POSTGRES_DSN"`
}

type JWTConfig struct {
	Secret    string        `yaml:"secret" env:"CMS_JWT_SECRET"`
	ExpiresIn time.Duration `yaml:"expires_in" env:"CMS_JWT_EXPIRES_IN"`
	Issuer    string        `yaml:"issuer"`
}

type SecurityConfig struct {
	BcryptCost int             `yaml:"bcrypt_cost"`
	RateLimit  RateLimitConfig `yaml:"rate_limit"`
}

type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled" env:"CMS_RATE_LIMIT"`
	RequestsPerMinute int  `yaml:"requests_per_minute"`
}

type UploadsConfig struct {
	Dir           string   `yaml:"dir" env:"CMS_UPLOADS_DIR"`
	URLPrefix     string   `yaml:"url_prefix"`
	MaxSize       int64    `yaml:"max_size" env:"CMS_UPLOADS_MAX_SIZE"`
	AllowedTypes  []string `yaml:"allowed_types"`
	PruneSchedule string   `yaml:"prune_schedule" env:"CMS_UPLOADS_PRUNE_SCHEDULE"`
}

type DefaultUserConfig struct {
	Email    string `yaml:"email" env:"CMS_ADMIN_EMAIL"`
	Password string `yaml:"password" env:"CMS_ADMIN_PASSWORD"`
	Name     string `yaml:"name"`
	Role     string `yaml:"role"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"CMS_LOG_LEVEL"`
	Format string `yaml:"format" env:"CMS_LOG_FORMAT"`
}

// DefaultAllowedTypes is the upload MIME allow-list used when none is configured.
var DefaultAllowedTypes = []string{
	"image/jpeg", "image/png", "image/gif", "image/webp",
	"application/pdf",
	"video/mp4", "video/webm",
	"audio/mpeg", "audio/ogg", "audio/wav",
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           5000,
			Mode:           "release",
			Env:            "development",
			RequestTimeout: 10 * time.Second,
			FrontendDir:    filepath.Join("web", "dist"),
		},
		CORS: CORSConfig{
			AllowedOrigins:   []string{"http://localhost:5173"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		},
		Database: DatabaseConfig{
			Type:            "sqlite",
			SQLite:          SQLiteConfig{Path: filepath.Join("data", "cms.db")},
			MySQL:           MySQLConfig{Host: "127.0.0.1", Port: 3306, Charset: "utf8mb4"},
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		JWT: JWTConfig{
			ExpiresIn: 7 * 24 * time.Hour,
			Issuer:    "cms-panel",
		},
		Security: SecurityConfig{
			BcryptCost: 10,
			RateLimit:  RateLimitConfig{Enabled: true, RequestsPerMinute: 10},
		},
		Uploads: UploadsConfig{
			Dir:          "uploads",
			URLPrefix:    "/uploads",
			MaxSize:      20 << 20,
			AllowedTypes: DefaultAllowedTypes,
		},
		DefaultUser: DefaultUserConfig{
			Email:    "admin@example.com",
			Password: "admin123",
			Name:     "Administrator",
			Role:     "admin",
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// IsDevelopment reports whether error bodies may carry internal detail.
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// Addr returns the listen address in host:port form.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Load reads the configuration file and environment variables.
// A missing file is not an error: defaults plus environment are used.
func Load(configPath string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := Default()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	applyLegacyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyLegacyEnv honours the variable names used by earlier deployments.
func applyLegacyEnv(cfg *Config) {
	if os.Getenv("VERCEL") == "1" {
		cfg.Server.Serverless = true
	}
	if port := os.Getenv("PORT"); port != "" {
		var p int
		if _, err := fmt.Sscanf(port, "%d", &p); err == nil && p > 0 {
			cfg.Server.Port = p
		}
	}
	if origin := os.Getenv("CORS_ORIGIN"); origin != "" {
		cfg.CORS.AllowedOrigins = strings.Split(origin, ",")
	}
	if nodeEnv := os.Getenv("NODE_ENV"); nodeEnv != "" && os.Getenv("CMS_ENV") == "" {
		cfg.Server.Env = nodeEnv
	}
}

// Validate checks the configuration for inconsistent values.
func (c *Config) Validate() error {
	switch c.Database.Type {
	case "sqlite":
		if c.Database.SQLite.Path == "" {
			return fmt.Errorf("SQLite path is required")
		}
	case "mysql":
		if c.Database.MySQL.Username == "" {
			return fmt.Errorf("MySQL username is required")
		}
		if c.Database.MySQL.Database == "" {
			return fmt.Errorf("MySQL database name is required")
		}
	case "postgres":
		if c.Database.Postgres.DSN == "" {
			return fmt.Errorf("PostgreSQL DSN is required")
		}
	default:
		return fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}

	switch c.Server.Mode {
	case "", "debug", "release", "test":
	default:
		return fmt.Errorf("unsupported server mode: %s", c.Server.Mode)
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}
	if c.JWT.ExpiresIn <= 0 {
		return fmt.Errorf("jwt expires_in must be positive")
	}
	if c.JWT.Secret == "" && !c.IsDevelopment() {
		return fmt.Errorf("jwt secret is required outside development (set CMS_JWT_SECRET)")
	}
	if c.Uploads.MaxSize <= 0 {
		return fmt.Errorf("uploads max_size must be positive")
	}
	if len(c.Uploads.AllowedTypes) == 0 {
		c.Uploads.AllowedTypes = DefaultAllowedTypes
	}

	return nil
}

// EnsureDirs creates the directories the process writes to.
func (c *Config) EnsureDirs() error {
	if c.Database.Type == "sqlite" {
		if err := os.MkdirAll(filepath.Dir(c.Database.SQLite.Path), 0755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	if err := os.MkdirAll(c.Uploads.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create uploads directory: %w", err)
	}
	return nil
}
