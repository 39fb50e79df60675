// Package config loads application settings from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds process-wide settings. It is built once in main and passed
// down to the components that need it.
type Config struct {
	Port      int
	LogLevel  string
	LogFormat string // "console" or "json"
	LogFile   string // optional rotating log file

	CacheDir       string // per-ticker price cache
	PrecomputedDir string // snapshot documents
	ThemesFile     string // theme → ticker registry (YAML)

	Redis          RedisConfig
	ResultCacheTTL time.Duration

	Yahoo YahooConfig

	UpdateInterval   time.Duration
	RefreshOnStartup bool
	StalenessMaxAge  time.Duration
	FetchConcurrency int
	FetchTimeout     time.Duration
	PriceCacheTTL    time.Duration
	MemoryEntries    int

	CORSOrigins        []string // "*" allows any origin
	RateLimitPerMinute int      // per client IP; 0 disables
}

// RedisConfig describes the optional distributed cache tier.
// URL takes precedence over Host/Port. Both empty disables the tier.
type RedisConfig struct {
	URL      string
	Host     string
	Port     string
	Password string
	DB       int
}

// YahooConfig is the price provider endpoint and its request budget.
// Zero values are replaced by the client's defaults.
type YahooConfig struct {
	BaseURL   string
	RateLimit int // requests per second
	Timeout   time.Duration
}

// Enabled reports whether any Redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Host != ""
}

// Load reads .env (if present) and then the process environment.
func Load() *Config {
	// .env は任意。存在しなければ環境変数のみを使う
	_ = godotenv.Load()

	return &Config{
		Port:      getEnvAsInt("PORT", 8000),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
		LogFile:   getEnv("LOG_FILE", ""),

		CacheDir:       getEnv("CACHE_DIR", "cache"),
		PrecomputedDir: getEnv("PRECOMPUTED_DIR", "precomputed"),
		ThemesFile:     getEnv("THEMES_FILE", "configs/themes.yaml"),

		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", ""),
			Host:     getEnv("REDIS_HOST", ""),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		ResultCacheTTL: getEnvAsDuration("CACHE_TTL_SECONDS", time.Second, 300*time.Second),

		Yahoo: YahooConfig{
			BaseURL:   getEnv("YAHOO_BASE_URL", ""),
			RateLimit: getEnvAsInt("YAHOO_RATE_LIMIT", 0),
			Timeout:   getEnvAsDuration("YAHOO_TIMEOUT_SECONDS", time.Second, 15*time.Second),
		},

		UpdateInterval:   getEnvAsDuration("UPDATE_INTERVAL_MINUTES", time.Minute, 5*time.Minute),
		RefreshOnStartup: getEnvAsBool("REFRESH_ON_STARTUP", true),
		StalenessMaxAge:  getEnvAsDuration("DATA_STALENESS_MINUTES", time.Minute, 60*time.Minute),
		FetchConcurrency: getEnvAsInt("FETCH_CONCURRENCY", 15),
		FetchTimeout:     getEnvAsDuration("FETCH_TIMEOUT_SECONDS", time.Second, 30*time.Second),
		PriceCacheTTL:    getEnvAsDuration("PRICE_CACHE_TTL_HOURS", time.Hour, 24*time.Hour),
		MemoryEntries:    getEnvAsInt("MEMORY_CACHE_ENTRIES", 200),

		CORSOrigins:        getEnvAsList("CORS_ORIGINS", []string{"*"}),
		RateLimitPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 60),
	}
}

// IsDevelopment reports whether the console log format is selected.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.LogFormat, "console")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated value, dropping blanks.
func getEnvAsList(key string, defaultValue []string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvAsDuration reads an integer count of unit. Non-positive or
// malformed values fall back to the default.
func getEnvAsDuration(key string, unit, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return time.Duration(n) * unit
		}
	}
	return defaultValue
}
