package config

import (
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - api.go: upstream REST API client configuration
//   - auth.go: session and token configuration
//   - cache.go: query cache and Redis configuration
//   - http.go: HTTP server configuration
//   - services.go: Service mode configuration
type AppConfig struct {
	// IsDev controls development mode behavior (hot reloading, caching, etc.)
	// Set DEV=true or NODE_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	// Upstream booking API
	API APIConfig

	// Session and token handling
	Auth AuthConfig

	Redis RedisConfig `envPrefix:"REDIS_"`
	Cache CacheConfig

	// HTTP server configuration
	HTTP HTTPConfig

	// Ticket prices shown on the booking page
	Booking BookingConfig

	// Service mode configuration
	Services string `env:"SERVICES" envDefault:"http"`

	Observability ObservabilityConfig

	// Targets of cinema-loadtest
	LoadTest LoadTestConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.HTTP.Sanitize()
	c.API.Sanitize()
	c.Auth.Sanitize()
	c.Cache.Sanitize()
	c.Booking.Sanitize()
	c.Observability.Sanitize()

	// Check NODE_ENV for dev mode
	c.detectDevMode()
}

// detectDevMode checks both DEV and NODE_ENV environment variables.
// NODE_ENV is checked as a fallback (common in frontend tooling).
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}

// GetEnabledServices returns the enabled services based on the Services field.
func (c *AppConfig) GetEnabledServices() (map[ServiceMode]bool, error) {
	return ParseServices(c.Services)
}

// IsHTTPServerEnabled returns true if the HTTP server service is enabled.
func (c *AppConfig) IsHTTPServerEnabled() bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[ServiceModeHTTP]
}

// IsSessionRefresherEnabled returns true if the background session refresher is enabled.
func (c *AppConfig) IsSessionRefresherEnabled() bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[ServiceModeSessionRefresher]
}
