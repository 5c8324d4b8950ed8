package bootstrap

import (
	"errors"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/target/cinema-ui/config"
	redisadapter "github.com/target/cinema-ui/internal/adapters/redis"
	"github.com/target/cinema-ui/internal/ports"
	"github.com/target/cinema-ui/internal/service"
)

const sessionKeyPrefix = "session:"

// AuthConfig contains configuration for the auth service.
type AuthConfig struct {
	Auth        config.AuthConfig
	API         ports.AuthAPI
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// AuthBundle is the auth service together with the store it writes to, which
// the session refresher scans.
type AuthBundle struct {
	Service  *service.AuthService
	Sessions ports.SessionStore
}

// BuildAuthService creates the auth service over a Redis session store.
func BuildAuthService(cfg AuthConfig) (AuthBundle, error) {
	if cfg.RedisClient == nil {
		return AuthBundle{}, errors.New("auth: redis client is required for the session store")
	}
	if cfg.API == nil {
		return AuthBundle{}, errors.New("auth: API client is required")
	}

	sessions := redisadapter.NewSessionStoreWithPrefix(cfg.RedisClient, sessionKeyPrefix)
	svc := service.NewAuthService(service.AuthServiceOptions{
		API:              cfg.API,
		Sessions:         sessions,
		SessionTTL:       cfg.Auth.SessionTTL,
		VerifyInterval:   cfg.Auth.VerifyInterval,
		RestoreWait:      cfg.Auth.RestoreWait,
		RefreshThreshold: cfg.Auth.RefreshThreshold,
		Logger:           cfg.Logger,
	})
	return AuthBundle{Service: svc, Sessions: sessions}, nil
}
