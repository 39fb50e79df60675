// Package yahoo provides a client for the Yahoo Finance chart and quote APIs.
package yahoo

import (
	"time"

	"github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/platform/config"
)

// DefaultBaseURL is the public Yahoo Finance query host.
const DefaultBaseURL = "https://query1.finance.yahoo.com"

// Config holds configuration for the Yahoo Finance client.
type Config struct {
	BaseURL   string        // e.g. "https://query1.finance.yahoo.com"
	Timeout   time.Duration // HTTP request timeout
	RateLimit int           // requests per second, burst of the same size
}

// LoadConfig builds the client configuration from the application settings,
// filling defaults for unset values.
func LoadConfig(app config.YahooConfig) Config {
	cfg := Config{
		BaseURL:   app.BaseURL,
		Timeout:   app.Timeout,
		RateLimit: app.RateLimit,
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 5
	}
	return cfg
}
