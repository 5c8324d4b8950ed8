package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/target/cinema-ui/config"
	"github.com/target/cinema-ui/internal/bootstrap"
)

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger("info")
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}
	logger = bootstrap.InitLogger(cfg.Observability.LogLevel)

	logStartupInfo(ctx, logger, &cfg)

	if err = bootstrap.ValidateServiceConfig(&cfg); err != nil {
		return err
	}

	redisClient, err := bootstrap.ConnectRedis(bootstrap.RedisConnectConfig{
		Context: ctx,
		Redis:   cfg.Redis,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer func() {
		if cerr := redisClient.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close redis failed", "error", cerr)
		}
	}()

	services, err := bootstrap.NewServices(&bootstrap.ServiceDeps{
		Config:      &cfg,
		RedisClient: redisClient,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("init services: %w", err)
	}

	return bootstrap.RunServicesWithShutdown(&bootstrap.ServiceOrchestrationConfig{
		Config:      &cfg,
		Services:    services,
		RedisClient: redisClient,
		Logger:      logger,
	})
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	logger.InfoContext(ctx, "starting cinema ui",
		"api_base_url", cfg.API.BaseURL,
		"redis_cluster", cfg.Redis.UseCluster,
		"redis_sentinel", cfg.Redis.UseSentinel,
		"shared_cache", cfg.Cache.Shared,
		"dev", cfg.IsDev,
		"enabled_services", bootstrap.GetEnabledServices(cfg))
}
