package config

import (
	"strings"
	"time"
)

// APIConfig points the frontend at the booking REST API.
type APIConfig struct {
	// BaseURL includes the version prefix, e.g. http://localhost:8080/api/v1.
	BaseURL string `env:"API_BASE_URL" envDefault:"http://localhost:8080/api/v1"`

	// Timeout bounds every upstream request, including shared cache fetches.
	Timeout time.Duration `env:"API_TIMEOUT" envDefault:"10s"`
}

// Sanitize applies guardrails to API client configuration values.
func (a *APIConfig) Sanitize() {
	a.BaseURL = strings.TrimRight(strings.TrimSpace(a.BaseURL), "/")
	if a.BaseURL == "" {
		a.BaseURL = "http://localhost:8080/api/v1"
	}
	if a.Timeout <= 0 {
		a.Timeout = 10 * time.Second
	}
}
