package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/target/cinema-ui/config"
	"github.com/target/cinema-ui/internal/apiclient"
	"github.com/target/cinema-ui/internal/core"
	"github.com/target/cinema-ui/internal/data"
	httpx "github.com/target/cinema-ui/internal/http"
	"github.com/target/cinema-ui/internal/ports"
	"github.com/target/cinema-ui/internal/querycache"
	"github.com/target/cinema-ui/internal/service"
)

const sharedCachePrefix = "qc:"

// ServiceContainer holds all application services.
type ServiceContainer struct {
	API      *apiclient.Client
	Cache    *querycache.Client
	Auth     *service.AuthService
	Sessions ports.SessionStore
	Catalog  *service.CatalogService
	// Health probes dependencies for /healthz.
	Health map[string]httpx.HealthCheck
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// NewServices wires the API client, query cache and domain services.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service deps missing AppConfig")
	}
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	api := apiclient.New(apiclient.Options{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
		Logger:  logger,
	})
	cache := newQueryCache(cfg.Cache, cfg.API.Timeout, deps.RedisClient, logger)

	auth, err := BuildAuthService(AuthConfig{
		Auth:        cfg.Auth,
		API:         api,
		RedisClient: deps.RedisClient,
		Logger:      logger,
	})
	if err != nil {
		return ServiceContainer{}, err
	}

	catalog := service.NewCatalogService(service.CatalogServiceOptions{
		API:             api,
		Cache:           cache,
		SearchStaleTime: cfg.Cache.SearchStaleTime,
		SeatsStaleTime:  cfg.Cache.SeatsStaleTime,
		Logger:          logger,
	})

	return ServiceContainer{
		API:      api,
		Cache:    cache,
		Auth:     auth.Service,
		Sessions: auth.Sessions,
		Catalog:  catalog,
		Health: map[string]httpx.HealthCheck{
			"redis": data.NewRedisCacheRepo(deps.RedisClient).Health,
		},
	}, nil
}

// newQueryCache builds the in-process cache, with the Redis tier when shared
// caching is enabled.
func newQueryCache(
	cfg config.CacheConfig,
	fetchTimeout time.Duration,
	client redis.UniversalClient,
	logger *slog.Logger,
) *querycache.Client {
	var shared *core.SharedStore
	if cfg.Shared && client != nil {
		shared = core.NewSharedStore(core.SharedStoreOptions{
			Repo:   data.NewRedisCacheRepo(client),
			Prefix: sharedCachePrefix,
			Logger: logger,
		})
		logger.Info("shared query cache enabled", "prefix", sharedCachePrefix)
	}
	return querycache.New(querycache.Options{
		StaleTime:    cfg.StaleTime,
		GCTime:       cfg.GCTime,
		Retry:        cfg.Retry,
		Capacity:     cfg.Capacity,
		FetchTimeout: fetchTimeout,
		Shared:       shared,
		Logger:       logger,
	})
}

// ServiceOrchestrationConfig contains configuration for service orchestration.
type ServiceOrchestrationConfig struct {
	Config      *config.AppConfig
	Services    ServiceContainer
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

const (
	// shutdownWaitTimeout is the maximum time to wait for services to stop gracefully.
	shutdownWaitTimeout = 15 * time.Second
)

// serviceStartupDeps groups dependencies for service startup.
type serviceStartupDeps struct {
	ctx             context.Context
	cfg             *ServiceOrchestrationConfig
	logger          *slog.Logger
	enabledServices map[config.ServiceMode]bool
	errCh           chan error
}

// backgroundService describes a startable background component.
type backgroundService struct {
	mode  config.ServiceMode
	name  string
	start func(context.Context) error
}

// backgroundServiceHandle tracks a running background service.
type backgroundServiceHandle struct {
	mode config.ServiceMode
	name string
	done <-chan struct{}
}

// startHTTPServerIfEnabled starts the HTTP server if enabled.
func startHTTPServerIfEnabled(deps *serviceStartupDeps) (*http.Server, error) {
	if deps == nil || deps.cfg == nil || !deps.enabledServices[config.ServiceModeHTTP] {
		return nil, nil
	}
	return StartHTTPServer(&HTTPServerConfig{
		Config:   deps.cfg.Config,
		Services: deps.cfg.Services,
		Logger:   deps.logger,
		ErrCh:    deps.errCh,
	})
}

func launchBackground(ctx context.Context, deps *serviceStartupDeps, descriptor backgroundService) <-chan struct{} {
	if deps == nil || !deps.enabledServices[descriptor.mode] {
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := descriptor.start(ctx); err != nil {
			errMsg := fmt.Errorf("%s failed: %w", descriptor.name, err)
			select {
			case deps.errCh <- errMsg:
			case <-ctx.Done():
			default:
				deps.logger.WarnContext(ctx, "dropping background service error",
					"service", descriptor.name, "error", errMsg)
			}
		}
	}()

	deps.logger.InfoContext(ctx, "background service started", "service", descriptor.name, "mode", descriptor.mode)
	return done
}

func startBackgroundServices(deps *serviceStartupDeps, services []backgroundService) []backgroundServiceHandle {
	if deps == nil {
		return nil
	}
	handles := make([]backgroundServiceHandle, 0, len(services))

	for _, svc := range services {
		done := launchBackground(deps.ctx, deps, svc)
		if done == nil {
			continue
		}

		handles = append(handles, backgroundServiceHandle{
			mode: svc.mode,
			name: svc.name,
			done: done,
		})
	}

	return handles
}

func newSessionRefresherBackgroundService(deps *serviceStartupDeps) backgroundService {
	return backgroundService{
		mode: config.ServiceModeSessionRefresher,
		name: "session refresher",
		start: func(ctx context.Context) error {
			if deps == nil || deps.cfg == nil || deps.cfg.Config == nil {
				return nil
			}
			authCfg := deps.cfg.Config.Auth
			refresher, err := service.NewSessionRefresher(service.SessionRefresherOptions{
				Auth:        deps.cfg.Services.Auth,
				Sessions:    deps.cfg.Services.Sessions,
				Interval:    authCfg.RefreshInterval,
				Threshold:   authCfg.RefreshThreshold,
				Concurrency: authCfg.RefreshConcurrency,
				Logger:      deps.logger,
			})
			if err != nil {
				return err
			}
			return refresher.Run(ctx)
		},
	}
}

func buildBackgroundServices(deps *serviceStartupDeps) []backgroundService {
	if deps == nil {
		return nil
	}
	return []backgroundService{
		newSessionRefresherBackgroundService(deps),
	}
}

// ServiceStartupResult holds the results of starting all services.
type ServiceStartupResult struct {
	HTTPServer *http.Server
	Background []backgroundServiceHandle
}

// startServices starts all enabled services and returns their completion channels.
func startServices(deps *serviceStartupDeps) (ServiceStartupResult, error) {
	server, err := startHTTPServerIfEnabled(deps)
	if err != nil {
		return ServiceStartupResult{}, err
	}
	return ServiceStartupResult{
		HTTPServer: server,
		Background: startBackgroundServices(deps, buildBackgroundServices(deps)),
	}, nil
}

// RunServicesWithShutdown starts all enabled services and manages their lifecycle.
// This function blocks until a shutdown signal is received or a service fails.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil {
		return errors.New("service orchestration config is required")
	}
	serviceCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.Config == nil {
		return errors.New("service orchestration config missing AppConfig")
	}

	// Determine which services are enabled
	enabledServices, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}
	errCh := make(chan error, errorChannelBufferSize(enabledServices))

	result, err := startServices(&serviceStartupDeps{
		ctx:             serviceCtx,
		cfg:             cfg,
		logger:          logger,
		enabledServices: enabledServices,
		errCh:           errCh,
	})
	if err != nil {
		return fmt.Errorf("start services: %w", err)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	return waitForShutdown(shutdownConfig{
		ctx:         serviceCtx,
		cancel:      cancel,
		quit:        quit,
		errCh:       errCh,
		httpServer:  result.HTTPServer,
		logger:      logger,
		backgrounds: result.Background,
	})
}

func errorChannelCapacity(enabled map[config.ServiceMode]bool) int {
	count := 0
	for _, mode := range config.ValidServiceModes() {
		if enabled[mode] {
			count++
		}
	}
	return count
}

func errorChannelBufferSize(enabled map[config.ServiceMode]bool) int {
	size := errorChannelCapacity(enabled) + 1
	if size < 1 {
		return 1
	}
	return size
}

// shutdownConfig contains dependencies for graceful shutdown.
type shutdownConfig struct {
	ctx         context.Context
	cancel      context.CancelFunc
	quit        <-chan os.Signal
	errCh       <-chan error
	httpServer  *http.Server
	logger      *slog.Logger
	backgrounds []backgroundServiceHandle
}

// waitForShutdown waits for shutdown signal or service error.
func waitForShutdown(cfg shutdownConfig) error {
	select {
	case <-cfg.quit:
		cfg.logger.Info("shutting down services...")
		cfg.cancel() // Cancel service context before waiting
		return gracefulStop(cfg)
	case err := <-cfg.errCh:
		cfg.logger.Error("service error", "error", err)
		cfg.cancel() // Cancel service context before waiting
		if stopErr := gracefulStop(cfg); stopErr != nil {
			cfg.logger.Error("graceful stop failed", "error", stopErr)
		}
		return err
	}
}

// gracefulStop attempts to gracefully stop all services.
func gracefulStop(cfg shutdownConfig) error {
	if cfg.httpServer != nil {
		if err := ShutdownHTTPServer(ShutdownConfig{
			Server: cfg.httpServer,
			Logger: cfg.logger,
		}); err != nil {
			return err
		}
	}

	// Wait for background services to finish
	for _, svc := range cfg.backgrounds {
		waitForService(svc.done, svc.name, cfg.logger)
	}

	return nil
}

// waitForService waits for a service to finish with timeout.
func waitForService(done <-chan struct{}, name string, logger *slog.Logger) {
	if done == nil {
		return
	}
	select {
	case <-done:
		logger.Info(name + " stopped")
	case <-time.After(shutdownWaitTimeout):
		logger.Warn("timeout waiting for " + name + " to stop")
	}
}
