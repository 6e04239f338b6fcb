// Package app provides dependency injection container for assembling application components.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	otelmetric "go.opentelemetry.io/otel/metric"

	"github.com/allisson/pdns-gateway/internal/audit"
	"github.com/allisson/pdns-gateway/internal/config"
	gatewayHTTP "github.com/allisson/pdns-gateway/internal/gateway/http"
	"github.com/allisson/pdns-gateway/internal/http"
	"github.com/allisson/pdns-gateway/internal/metrics"
	"github.com/allisson/pdns-gateway/internal/policy/repository"
	"github.com/allisson/pdns-gateway/internal/policy/service"
	policyUsecase "github.com/allisson/pdns-gateway/internal/policy/usecase"
	"github.com/allisson/pdns-gateway/internal/upstream"
)

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger          *slog.Logger
	metricsProvider *metrics.Provider
	gatewayMetrics  metrics.GatewayMetrics

	// Policy
	policyStore *policyUsecase.Store

	// Collaborators
	upstreamClient upstream.Client
	auditLogger    *audit.Logger

	// Servers
	httpServer *http.Server

	// Initialization flags for thread-safety
	loggerInit          sync.Once
	metricsProviderInit sync.Once
	gatewayMetricsInit  sync.Once
	policyStoreInit     sync.Once
	upstreamClientInit  sync.Once
	auditLoggerInit     sync.Once
	httpServerInit      sync.Once
	initErrors          map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
// It creates a JSON logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// MetricsProvider returns the OTel/Prometheus metrics provider, or nil when
// metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	c.metricsProviderInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}
		provider, err := metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["metricsProvider"] = err
			return
		}
		c.metricsProvider = provider
	})
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// GatewayMetrics returns the proxy decision metrics recorder. When metrics
// are disabled, a no-op implementation is returned.
func (c *Container) GatewayMetrics() (metrics.GatewayMetrics, error) {
	c.gatewayMetricsInit.Do(func() {
		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["gatewayMetrics"] = err
			return
		}
		if provider == nil {
			c.gatewayMetrics = metrics.NewNoOpGatewayMetrics()
			return
		}
		gm, err := metrics.NewGatewayMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["gatewayMetrics"] = err
			return
		}
		c.gatewayMetrics = gm
	})
	if storedErr, exists := c.initErrors["gatewayMetrics"]; exists {
		return nil, storedErr
	}
	return c.gatewayMetrics, nil
}

// PolicyStore returns the policy store, loading the policy document on first access.
func (c *Container) PolicyStore() (*policyUsecase.Store, error) {
	c.policyStoreInit.Do(func() {
		store, err := policyUsecase.NewStore(
			repository.NewFileRepository(c.config.PolicyPath),
			service.NewFingerprintService(),
			c.Logger(),
		)
		if err != nil {
			c.initErrors["policyStore"] = err
			return
		}
		c.policyStore = store
	})
	if storedErr, exists := c.initErrors["policyStore"]; exists {
		return nil, storedErr
	}
	return c.policyStore, nil
}

// UpstreamClient returns the PowerDNS API client. Its coordinates follow the
// current policy snapshot, so a reloaded document changes the upstream target
// and credential on the next call.
func (c *Container) UpstreamClient() (upstream.Client, error) {
	c.upstreamClientInit.Do(func() {
		store, err := c.PolicyStore()
		if err != nil {
			c.initErrors["upstreamClient"] = fmt.Errorf("failed to get policy store for upstream client: %w", err)
			return
		}
		c.upstreamClient = upstream.NewClient(func() upstream.Coordinates {
			doc := store.Document()
			return upstream.Coordinates{
				BaseURL:   doc.APIBaseURL,
				APIToken:  doc.APIToken,
				VerifySSL: doc.VerifySSL,
			}
		}, c.config.UpstreamTimeout)
	})
	if storedErr, exists := c.initErrors["upstreamClient"]; exists {
		return nil, storedErr
	}
	return c.upstreamClient, nil
}

// AuditLogger returns the append-only audit logger.
func (c *Container) AuditLogger() (*audit.Logger, error) {
	c.auditLoggerInit.Do(func() {
		logger, err := audit.NewLogger(c.config.AuditLogPath)
		if err != nil {
			c.initErrors["auditLogger"] = err
			return
		}
		c.auditLogger = logger
	})
	if storedErr, exists := c.initErrors["auditLogger"]; exists {
		return nil, storedErr
	}
	return c.auditLogger, nil
}

// HTTPServer returns the HTTP server instance with all routes registered.
func (c *Container) HTTPServer() (*http.Server, error) {
	c.httpServerInit.Do(func() {
		server, err := c.initHTTPServer()
		if err != nil {
			c.initErrors["httpServer"] = err
			return
		}
		c.httpServer = server
	})
	if storedErr, exists := c.initErrors["httpServer"]; exists {
		return nil, storedErr
	}
	return c.httpServer, nil
}

// Close releases container resources.
func (c *Container) Close() error {
	var errs []error

	if c.auditLogger != nil {
		if err := c.auditLogger.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close audit logger: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(context.Background()); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown metrics provider: %w", err))
		}
	}

	return errors.Join(errs...)
}

// initLogger creates a JSON logger writing to stdout.
func (c *Container) initLogger() *slog.Logger {
	var level slog.Level
	switch c.config.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}

// initHTTPServer creates the HTTP server with all its dependencies.
func (c *Container) initHTTPServer() (*http.Server, error) {
	logger := c.Logger()

	store, err := c.PolicyStore()
	if err != nil {
		return nil, fmt.Errorf("failed to get policy store for http server: %w", err)
	}

	upstreamClient, err := c.UpstreamClient()
	if err != nil {
		return nil, fmt.Errorf("failed to get upstream client for http server: %w", err)
	}

	auditLogger, err := c.AuditLogger()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit logger for http server: %w", err)
	}

	gatewayMetrics, err := c.GatewayMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get gateway metrics for http server: %w", err)
	}

	metricsProvider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for http server: %w", err)
	}

	routes := gatewayHTTP.Routes{
		Proxy:            gatewayHTTP.NewProxyHandler(upstreamClient, auditLogger, gatewayMetrics, logger),
		Info:             gatewayHTTP.NewInfoHandler(store, upstreamClient, auditLogger, logger),
		Store:            store,
		AuditLogger:      auditLogger,
		Logger:           logger,
		RateLimitEnabled: c.config.RateLimitEnabled,
		RateLimitRPS:     c.config.RateLimitRequestsPerSec,
		RateLimitBurst:   c.config.RateLimitBurst,
	}

	var meterProvider otelmetric.MeterProvider
	if metricsProvider != nil {
		meterProvider = metricsProvider.MeterProvider()
		routes.MetricsHandler = metricsProvider.Handler()
	}

	router := http.NewRouter(c.config, meterProvider, logger)
	router.Use(gatewayHTTP.EnvironmentMetricsMiddleware(gatewayMetrics))
	routes.Register(router)

	return http.NewServer(c.config.ServerHost, c.config.ServerPort, router, logger), nil
}
