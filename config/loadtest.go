package config

// LoadTestConfig holds the targets of the load-test harness.
type LoadTestConfig struct {
	// BaseURL is the frontend origin used by the browser scenario.
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:3000"`

	// APIURL is the backend origin used by the HTTP scenarios.
	APIURL string `env:"API_URL" envDefault:"http://localhost:8080"`
}
