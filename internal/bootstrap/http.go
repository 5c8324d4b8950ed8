package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/target/cinema-ui/config"
	httpx "github.com/target/cinema-ui/internal/http"
	"github.com/target/cinema-ui/internal/http/ui/viewmodel"
)

const httpShutdownTimeout = 10 * time.Second

// HTTPServerConfig contains configuration for HTTP server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
	// ErrCh receives the listen error if the server stops unexpectedly.
	ErrCh chan<- error
}

// StartHTTPServer creates and starts the HTTP server.
// Returns the server instance for graceful shutdown.
func StartHTTPServer(cfg *HTTPServerConfig) (*http.Server, error) {
	if cfg == nil {
		return nil, errors.New("http server config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	appCfg := cfg.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}

	handler, err := buildHTTPHandler(routerServices(appCfg, cfg.Services, logger))
	if err != nil {
		return nil, err
	}
	if appCfg.HTTP.CompressionEnabled {
		logger.Info("HTTP compression enabled", "level", appCfg.HTTP.CompressionLevel)
	}

	return startServer(logger, handler, appCfg.HTTP.Addr, cfg.ErrCh), nil
}

func routerServices(cfg *config.AppConfig, services ServiceContainer, logger *slog.Logger) httpx.RouterServices {
	rs := httpx.RouterServices{
		Prices: viewmodel.SeatPrices{
			Normal:   cfg.Booking.PriceNormal,
			Sweetbox: cfg.Booking.PriceSweetbox,
		},
		CookieDomain:       cfg.HTTP.CookieDomain,
		TrustedProxyHops:   cfg.HTTP.TrustedProxyHops,
		RestorePoll:        cfg.Auth.RestorePoll,
		LoginRate:          cfg.Auth.LoginRate,
		LoginBurst:         cfg.Auth.LoginBurst,
		MetricsEnabled:     cfg.Observability.MetricsEnabled,
		CompressionEnabled: cfg.HTTP.CompressionEnabled,
		CompressionLevel:   cfg.HTTP.CompressionLevel,
		IsDev:              cfg.IsDev,
		HealthChecks:       services.Health,
		Logger:             logger,
	}
	// Typed nils would slip past the router's nil checks.
	if services.Auth != nil {
		rs.Auth = services.Auth
	}
	if services.Catalog != nil {
		rs.Catalog = services.Catalog
	}
	return rs
}

func buildHTTPHandler(services httpx.RouterServices) (http.Handler, error) {
	handler, err := httpx.NewRouter(services)
	if err != nil {
		return nil, fmt.Errorf("build router: %w", err)
	}
	return handler, nil
}

func startServer(logger *slog.Logger, handler http.Handler, addr string, errCh chan<- error) *http.Server {
	// Guard against empty addr to avoid listening on Go default
	if addr == "" {
		addr = ":3000"
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", "error", err)
			if errCh != nil {
				select {
				case errCh <- fmt.Errorf("http server: %w", err):
				default:
				}
			}
		}
	}()

	return server
}

// ShutdownConfig contains dependencies for HTTP server shutdown.
type ShutdownConfig struct {
	Context context.Context // optional parent of the shutdown deadline
	Server  *http.Server
	Logger  *slog.Logger
}

// ShutdownHTTPServer drains in-flight requests, giving up after 10 seconds.
func ShutdownHTTPServer(cfg ShutdownConfig) error {
	if cfg.Server == nil {
		return nil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	parent := cfg.Context
	if parent == nil {
		parent = context.Background()
	}

	logger.Info("shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(parent, httpShutdownTimeout)
	defer cancel()

	if err := cfg.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	logger.Info("HTTP server stopped")
	return nil
}
