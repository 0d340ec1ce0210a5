package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"menuhub/internal/auth"

	"github.com/robfig/cron/v3"
)

// Config holds all configuration for the application
type Config struct {
	Env      string
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Cookie   CookieConfig
	Google   GoogleConfig
	Storage  StorageConfig
	Redis    RedisConfig
	Login    LoginConfig
	Cleanup  CleanupConfig
	Seed     SeedConfig
}

type ServerConfig struct {
	Host      string
	Port      int
	PublicURL string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

type JWTConfig struct {
	Secret string
	Issuer string
	// AbsoluteSession is both the default token lifetime and the hard cap
	// measured from originalIat.
	AbsoluteSession time.Duration
}

type CookieConfig struct {
	Name     string
	SameSite string // strict or lax
	Domain   string
}

type GoogleConfig struct {
	ClientID string
	JWKSURL  string
}

type StorageConfig struct {
	Provider string // none, s3, r2
	S3       S3Config
}

type S3Config struct {
	BucketName string `env:"S3_BUCKET_NAME"`
	Endpoint   string `env:"S3_ENDPOINT"`
	Region     string `env:"S3_REGION"`
	AccessKey  string `env:"S3_ACCESS_KEY"`
	SecretKey  string `env:"S3_SECRET_KEY"`
}

type RedisConfig struct {
	Addr     string
	Password string
	Username string
	DB       int
}

type LoginConfig struct {
	MaxAttempts int
	Window      time.Duration
}

type CleanupConfig struct {
	GuestSchedule  string
	GuestRetention time.Duration
}

// SeedConfig names identities created at boot when absent. Both are optional.
type SeedConfig struct {
	DevEmail      string
	DevPassword   string
	AdminEmail    string
	AdminPassword string
}

// IsProduction reports whether cookies must carry the Secure flag.
func (c *Config) IsProduction() bool {
	switch strings.ToLower(c.Env) {
	case "production", "prod", "staging":
		return true
	default:
		return false
	}
}

// Load reads the configuration from the environment. A missing JWT secret or
// an unusable session window is a configuration error; the process must not
// start without them.
func Load() (*Config, error) {
	cfg := &Config{
		Env: getEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Host:      getEnv("SERVER_HOST", "localhost"),
			Port:      getEnvAsInt("SERVER_PORT", 8080),
			PublicURL: getEnv("PUBLIC_URL", "http://localhost:8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvAsInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", ""),
			Name:     getEnv("POSTGRES_DB", "menuhub"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			Secret:          strings.TrimSpace(getEnv("JWT_SECRET", "")),
			Issuer:          getEnv("JWT_ISSUER", "menuhub"),
			AbsoluteSession: getEnvAsDuration("JWT_ABSOLUTE_SESSION", 7*24*time.Hour),
		},
		Cookie: CookieConfig{
			Name:     getEnv("SESSION_COOKIE_NAME", "menuhub_session"),
			SameSite: strings.ToLower(getEnv("COOKIE_SAMESITE", "lax")),
			Domain:   getEnv("COOKIE_DOMAIN", ""),
		},
		Google: GoogleConfig{
			ClientID: getEnv("GOOGLE_CLIENT_ID", ""),
			JWKSURL:  getEnv("GOOGLE_JWKS_URL", "https://www.googleapis.com/oauth2/v3/certs"),
		},
		Storage: StorageConfig{
			Provider: getEnv("STORAGE_PROVIDER", "none"),
			S3: S3Config{
				BucketName: getEnv("S3_BUCKET_NAME", ""),
				Endpoint:   getEnv("S3_ENDPOINT", ""),
				Region:     getEnv("S3_REGION", ""),
				AccessKey:  getEnv("S3_ACCESS_KEY", ""),
				SecretKey:  getEnv("S3_SECRET_KEY", ""),
			},
		},
		Redis: RedisConfig{
			Addr:     fmt.Sprintf("%s:%d", getEnv("REDIS_HOST", "localhost"), getEnvAsInt("REDIS_PORT", 6379)),
			Password: getEnv("REDIS_PASSWORD", ""),
			Username: getEnv("REDIS_USERNAME", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Login: LoginConfig{
			MaxAttempts: getEnvAsInt("LOGIN_MAX_ATTEMPTS", 10),
			Window:      getEnvAsDuration("LOGIN_WINDOW", 15*time.Minute),
		},
		Cleanup: CleanupConfig{
			GuestSchedule:  getEnv("GUEST_CLEANUP_SCHEDULE", "0 3 * * *"),
			GuestRetention: getEnvAsDuration("GUEST_RETENTION", 30*24*time.Hour),
		},
		Seed: SeedConfig{
			DevEmail:      getEnv("DEV_EMAIL", ""),
			DevPassword:   getEnv("DEV_PASSWORD", ""),
			AdminEmail:    getEnv("ADMIN_EMAIL", ""),
			AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings the process cannot run without.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("%w: JWT_SECRET is not set", auth.ErrConfiguration)
	}
	if c.JWT.AbsoluteSession < time.Second {
		return fmt.Errorf("%w: JWT_ABSOLUTE_SESSION must be at least 1s", auth.ErrConfiguration)
	}
	if c.Cookie.SameSite != "strict" && c.Cookie.SameSite != "lax" {
		return fmt.Errorf("%w: COOKIE_SAMESITE must be strict or lax", auth.ErrConfiguration)
	}
	if _, err := cron.ParseStandard(c.Cleanup.GuestSchedule); err != nil {
		return fmt.Errorf("%w: GUEST_CLEANUP_SCHEDULE: %v", auth.ErrConfiguration, err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("15m") or a bare number of milliseconds.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if ms, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return defaultValue
}
