package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type DatabaseConfig struct {
	Driver          string        `yaml:"driver"` // postgres | mysql
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	AutoMigrate     bool          `yaml:"auto_migrate"`
}

type AuthConfig struct {
	JWTSecret  string        `yaml:"jwt_secret"`
	TokenTTL   time.Duration `yaml:"token_ttl"`
	CookieName string        `yaml:"cookie_name"`
	Issuer     string        `yaml:"issuer"`
}

type S3Config struct {
	Region        string `yaml:"region"`
	Bucket        string `yaml:"bucket"`
	Prefix        string `yaml:"prefix"`
	PublicBaseURL string `yaml:"public_base_url"`
	Endpoint      string `yaml:"endpoint"`
}

type StorageConfig struct {
	Driver         string   `yaml:"driver"` // local | s3
	LocalDir       string   `yaml:"local_dir"`
	LocalURLPrefix string   `yaml:"local_url_prefix"`
	S3             S3Config `yaml:"s3"`
	MaxUploadBytes int64    `yaml:"max_upload_bytes"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type Config struct {
	AppEnv         string          `yaml:"app_env"`
	Port           int             `yaml:"port"`
	BaseURL        string          `yaml:"base_url"`
	SiteName       string          `yaml:"site_name"`
	Database       DatabaseConfig  `yaml:"database"`
	Auth           AuthConfig      `yaml:"auth"`
	FlashSecret    string          `yaml:"flash_secret"`
	Storage        StorageConfig   `yaml:"storage"`
	AuthRateLimit  RateLimitConfig `yaml:"auth_rate_limit"`
	AllowedOrigins []string        `yaml:"allowed_origins"`
	// TrustedProxies may set X-Forwarded-For; empty means the peer address is the client.
	TrustedProxies []string        `yaml:"trusted_proxies"`
}

func (c *Config) IsProduction() bool { return c.AppEnv == "production" }

func (c *Config) Addr() string { return fmt.Sprintf(":%d", c.Port) }

func getStringEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getIntEnvOrDefault(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := strconv.Atoi(valueStr); err == nil {
			return value
		}
		slog.Warn("invalid integer env var, using default", "key", key, "value", valueStr)
	}
	return defaultValue
}

// Load reads the YAML file (optional when missing), applies env overrides and
// defaults, then validates. Outside production a .env file is loaded first.
func Load(filename string) (*Config, error) {
	if os.Getenv("APP_ENV") != "production" {
		if err := godotenv.Load(); err == nil {
			slog.Info("environment loaded from .env")
		}
	}

	var cfg Config
	file, err := os.Open(filename)
	switch {
	case os.IsNotExist(err):
		slog.Info("config file not found, using env and defaults", "path", filename)
	case err != nil:
		return nil, fmt.Errorf("open config %q: %w", filename, err)
	default:
		defer file.Close()
		if err := yaml.NewDecoder(file).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("decode config %q: %w", filename, err)
		}
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	slog.Info("config loaded",
		"app_env", cfg.AppEnv,
		"port", cfg.Port,
		"db_driver", cfg.Database.Driver,
		"storage_driver", cfg.Storage.Driver,
	)
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.AppEnv = getStringEnvOrDefault("APP_ENV", cfg.AppEnv)
	cfg.Port = getIntEnvOrDefault("PORT", cfg.Port)
	cfg.BaseURL = getStringEnvOrDefault("BASE_URL", cfg.BaseURL)

	cfg.Database.Driver = getStringEnvOrDefault("DATABASE_DRIVER", cfg.Database.Driver)
	cfg.Database.DSN = getStringEnvOrDefault("DATABASE_DSN", cfg.Database.DSN)
	if v := os.Getenv("DATABASE_AUTO_MIGRATE"); v != "" {
		cfg.Database.AutoMigrate, _ = strconv.ParseBool(v)
	}

	cfg.Auth.JWTSecret = getStringEnvOrDefault("JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.FlashSecret = getStringEnvOrDefault("FLASH_SECRET", cfg.FlashSecret)

	cfg.Storage.Driver = getStringEnvOrDefault("STORAGE_DRIVER", cfg.Storage.Driver)
	cfg.Storage.LocalDir = getStringEnvOrDefault("LOCAL_UPLOAD_DIR", cfg.Storage.LocalDir)
	cfg.Storage.LocalURLPrefix = getStringEnvOrDefault("LOCAL_UPLOAD_URL_PREFIX", cfg.Storage.LocalURLPrefix)
	cfg.Storage.S3.Region = getStringEnvOrDefault("S3_REGION", cfg.Storage.S3.Region)
	cfg.Storage.S3.Bucket = getStringEnvOrDefault("S3_BUCKET", cfg.Storage.S3.Bucket)
	cfg.Storage.S3.Prefix = getStringEnvOrDefault("S3_PREFIX", cfg.Storage.S3.Prefix)
	cfg.Storage.S3.PublicBaseURL = getStringEnvOrDefault("S3_PUBLIC_BASE_URL", cfg.Storage.S3.PublicBaseURL)
	cfg.Storage.S3.Endpoint = getStringEnvOrDefault("S3_ENDPOINT", cfg.Storage.S3.Endpoint)

	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("TRUSTED_PROXIES"); v != "" {
		cfg.TrustedProxies = splitList(v)
	}
}

func splitList(v string) []string {
	var out []string
	for _, o := range strings.Split(v, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

const devSecret = "dev-insecure-secret-change-me"

func applyDefaults(cfg *Config) {
	if cfg.AppEnv == "" {
		cfg.AppEnv = "development"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.SiteName == "" {
		cfg.SiteName = "Marketly"
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = fmt.Sprintf("http://localhost:%d", cfg.Port)
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	cfg.Database.Driver = strings.ToLower(cfg.Database.Driver)
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 20
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 30 * time.Minute
	}

	if cfg.Auth.TokenTTL == 0 {
		cfg.Auth.TokenTTL = 72 * time.Hour
	}
	if cfg.Auth.CookieName == "" {
		cfg.Auth.CookieName = "marketly_token"
	}
	if cfg.Auth.Issuer == "" {
		cfg.Auth.Issuer = "marketly"
	}
	if !cfg.IsProduction() {
		if cfg.Auth.JWTSecret == "" {
			slog.Warn("JWT_SECRET not set, using an insecure development secret")
			cfg.Auth.JWTSecret = devSecret
		}
		if cfg.FlashSecret == "" {
			cfg.FlashSecret = devSecret
		}
	}

	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "local"
	}
	if cfg.Storage.LocalDir == "" {
		cfg.Storage.LocalDir = "./storage/uploads"
	}
	if cfg.Storage.LocalURLPrefix == "" {
		cfg.Storage.LocalURLPrefix = "/uploads"
	}
	if cfg.Storage.S3.Prefix == "" {
		cfg.Storage.S3.Prefix = "uploads"
	}
	if cfg.Storage.MaxUploadBytes == 0 {
		cfg.Storage.MaxUploadBytes = 5 << 20
	}

	if cfg.AuthRateLimit.RPS == 0 {
		cfg.AuthRateLimit.RPS = 1
	}
	if cfg.AuthRateLimit.Burst == 0 {
		cfg.AuthRateLimit.Burst = 5
	}
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "mysql":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database dsn (DATABASE_DSN) is required")
	}
	switch c.Storage.Driver {
	case "local":
	case "s3":
		s := c.Storage.S3
		if s.Region == "" || s.Bucket == "" || s.PublicBaseURL == "" {
			return fmt.Errorf("s3 storage requires S3_REGION, S3_BUCKET and S3_PUBLIC_BASE_URL")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.IsProduction() {
		if len(c.Auth.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 bytes in production")
		}
		if len(c.FlashSecret) < 32 {
			return fmt.Errorf("FLASH_SECRET must be at least 32 bytes in production")
		}
		if !strings.HasPrefix(c.BaseURL, "https://") {
			return fmt.Errorf("BASE_URL must start with https:// in production")
		}
	}
	return nil
}

func InitLogger(appEnv string) *slog.Logger {
	var logger *slog.Logger
	if appEnv == "development" {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level:     slog.LevelDebug,
			AddSource: true,
		}))
	} else {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}
	slog.SetDefault(logger)
	return logger
}
