package config

import "time"

// RedisConfig contains Redis connection configuration.
type RedisConfig struct {
	URI                string   `env:"URI"                  envDefault:"localhost:6379"`
	Password           string   `env:"PASSWORD"             envDefault:""`
	SentinelPort       string   `env:"SENTINEL_PORT"        envDefault:"26379"`
	SentinelNodes      []string `env:"SENTINEL_NODES"       envDefault:"localhost:26379"`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
	ClusterNodes       []string `env:"CLUSTER_NODES"        envDefault:""`
	UseCluster         bool     `env:"USE_CLUSTER"          envDefault:"false"`
}

// CacheConfig contains query cache configuration.
type CacheConfig struct {
	// StaleTime is how long fetched data is served without a re-fetch.
	StaleTime time.Duration `env:"CACHE_STALE_TIME" envDefault:"5m"`

	// GCTime is how long an entry is retained after it was fetched.
	GCTime time.Duration `env:"CACHE_GC_TIME" envDefault:"10m"`

	// Retry is the number of extra attempts after a failed fetch.
	Retry int `env:"CACHE_RETRY" envDefault:"1"`

	// Capacity is the maximum number of entries kept in process.
	Capacity int `env:"CACHE_CAPACITY" envDefault:"1024"`

	// Shared enables the Redis tier so replicas share fetched data.
	Shared bool `env:"CACHE_SHARED" envDefault:"false"`

	// SearchStaleTime overrides StaleTime for movie search results.
	SearchStaleTime time.Duration `env:"CACHE_SEARCH_STALE_TIME" envDefault:"2m"`

	// SeatsStaleTime overrides StaleTime for seat maps.
	SeatsStaleTime time.Duration `env:"CACHE_SEATS_STALE_TIME" envDefault:"30s"`
}

// Sanitize applies guardrails to cache configuration values.
func (c *CacheConfig) Sanitize() {
	if c.StaleTime < 0 {
		c.StaleTime = 0
	}
	if c.GCTime < c.StaleTime {
		c.GCTime = c.StaleTime
	}
	if c.Retry < 0 {
		c.Retry = 0
	}
	if c.Retry > 10 {
		c.Retry = 10
	}
	if c.Capacity < 1 {
		c.Capacity = 1
	}
	if c.SearchStaleTime < 0 {
		c.SearchStaleTime = 0
	}
	if c.SeatsStaleTime < 0 {
		c.SeatsStaleTime = 0
	}
}
