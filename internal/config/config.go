package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the ledger service.
type Config struct {
	AppName           string
	AppEnv            string
	AppPort           string
	CORSOrigins       string
	Timezone          *time.Location
	DatabaseDriver    string
	DatabaseURL       string
	RedisURL          string
	JWTSecret         string
	SessionTTL        time.Duration
	LoginRateLimit    int
	DashboardCacheTTL time.Duration
	UploadMaxSizeMB   int
	UploadMaxFiles    int
	UploadConcurrency int
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("LEDGER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Lesson Ledger API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.timezone", "Local")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.url", "ledger.db")
	v.SetDefault("auth.session_ttl", "12h")
	v.SetDefault("auth.login_rate_limit", 10)
	v.SetDefault("dashboard.cache_ttl", "1m")
	v.SetDefault("upload.max_size_mb", 10)
	v.SetDefault("upload.max_files", 20)
	v.SetDefault("upload.concurrency", 4)

	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	sessionTTL, err := parseDuration(v.GetString("auth.session_ttl"), 12*time.Hour)
	if err != nil {
		return Config{}, fmt.Errorf("invalid session ttl: %w", err)
	}

	cacheTTL, err := parseDuration(v.GetString("dashboard.cache_ttl"), time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid dashboard cache ttl: %w", err)
	}

	tzName := strings.TrimSpace(v.GetString("app.timezone"))
	if tzName == "" {
		tzName = "Local"
	}
	location, err := time.LoadLocation(tzName)
	if err != nil {
		return Config{}, fmt.Errorf("invalid timezone %q: %w", tzName, err)
	}

	cfg := Config{
		AppName:           v.GetString("app.name"),
		AppEnv:            v.GetString("app.env"),
		AppPort:           v.GetString("app.port"),
		CORSOrigins:       v.GetString("app.cors_origins"),
		Timezone:          location,
		DatabaseDriver:    strings.ToLower(strings.TrimSpace(v.GetString("database.driver"))),
		DatabaseURL:       v.GetString("database.url"),
		RedisURL:          v.GetString("redis.url"),
		JWTSecret:         v.GetString("auth.jwt_secret"),
		SessionTTL:        sessionTTL,
		LoginRateLimit:    v.GetInt("auth.login_rate_limit"),
		DashboardCacheTTL: cacheTTL,
		UploadMaxSizeMB:   v.GetInt("upload.max_size_mb"),
		UploadMaxFiles:    v.GetInt("upload.max_files"),
		UploadConcurrency: v.GetInt("upload.concurrency"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("auth jwt secret must be provided")
	}

	switch cfg.DatabaseDriver {
	case "sqlite", "postgres":
	default:
		return Config{}, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}

	if cfg.UploadMaxSizeMB <= 0 {
		cfg.UploadMaxSizeMB = 10
	}
	if cfg.UploadMaxFiles <= 0 {
		cfg.UploadMaxFiles = 20
	}
	if cfg.UploadConcurrency <= 0 {
		cfg.UploadConcurrency = 4
	}
	if cfg.LoginRateLimit < 0 {
		cfg.LoginRateLimit = 0
	}

	return cfg, nil
}

func parseDuration(raw string, fallback time.Duration) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	return time.ParseDuration(raw)
}
