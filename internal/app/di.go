// Package app provides dependency injection container for assembling application components.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"gocloud.dev/docstore"
	"golang.org/x/time/rate"

	"github.com/lawgram/lawgram/internal/config"
	apperrors "github.com/lawgram/lawgram/internal/errors"
	"github.com/lawgram/lawgram/internal/generation"
	apphttp "github.com/lawgram/lawgram/internal/http"
	"github.com/lawgram/lawgram/internal/httpx"
	lawRepository "github.com/lawgram/lawgram/internal/law/repository"
	lawUsecase "github.com/lawgram/lawgram/internal/law/usecase"
	"github.com/lawgram/lawgram/internal/metrics"
	"github.com/lawgram/lawgram/internal/publisher"
	"github.com/lawgram/lawgram/internal/registry"
	"github.com/lawgram/lawgram/internal/retry"
)

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger          *slog.Logger
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics
	collection      *docstore.Collection

	// Outbound clients
	tokenManager    *registry.TokenManager
	registryClient  *registry.Client
	generator       generation.Generator
	publisherClient *publisher.Client

	// Repositories
	lawRepo lawUsecase.LawRepository

	// Use Cases
	syncUseCase       lawUsecase.SyncUseCase
	processingUseCase lawUsecase.ProcessingUseCase
	pipelineUseCase   lawUsecase.PipelineUseCase

	// Servers
	triggerServer *apphttp.TriggerServer
	metricsServer *apphttp.MetricsServer

	// Initialization flags and mutex for thread-safety
	mu                    sync.Mutex
	loggerInit            sync.Once
	metricsProviderInit   sync.Once
	businessMetricsInit   sync.Once
	collectionInit        sync.Once
	tokenManagerInit      sync.Once
	registryClientInit    sync.Once
	generatorInit         sync.Once
	publisherClientInit   sync.Once
	lawRepoInit           sync.Once
	syncUseCaseInit       sync.Once
	processingUseCaseInit sync.Once
	pipelineUseCaseInit   sync.Once
	triggerServerInit     sync.Once
	metricsServerInit     sync.Once
	initErrors            map[string]error
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
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// MetricsProvider returns the metrics provider, or nil when metrics are
// disabled.
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

// BusinessMetrics returns the business metrics recorder. A no-op recorder is
// returned when metrics are disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	c.businessMetricsInit.Do(func() {
		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["businessMetrics"] = err
			return
		}
		if provider == nil {
			c.businessMetrics = metrics.NewNoOpBusinessMetrics()
			return
		}
		c.businessMetrics, err = metrics.NewBusinessMetrics(
			provider.MeterProvider(),
			c.config.MetricsNamespace,
		)
		if err != nil {
			c.initErrors["businessMetrics"] = err
		}
	})
	if storedErr, exists := c.initErrors["businessMetrics"]; exists {
		return nil, storedErr
	}
	return c.businessMetrics, nil
}

// TokenManager returns the registry token manager.
func (c *Container) TokenManager() (*registry.TokenManager, error) {
	c.tokenManagerInit.Do(func() {
		c.tokenManager, c.initErrors["tokenManager"] = c.initTokenManager()
	})
	if err := c.initErrors["tokenManager"]; err != nil {
		return nil, err
	}
	return c.tokenManager, nil
}

// RegistryClient returns the legal-text registry client.
func (c *Container) RegistryClient() (*registry.Client, error) {
	c.registryClientInit.Do(func() {
		c.registryClient, c.initErrors["registryClient"] = c.initRegistryClient()
	})
	if err := c.initErrors["registryClient"]; err != nil {
		return nil, err
	}
	return c.registryClient, nil
}

// Generator returns the content generation client.
func (c *Container) Generator() (generation.Generator, error) {
	c.generatorInit.Do(func() {
		httpClient := httpx.NewClient("Generation Service",
			httpx.WithTimeout(c.config.HTTPTimeout),
			httpx.WithRetrier(c.newRetrier()),
			httpx.WithLogger(c.Logger()),
		)
		c.generator, c.initErrors["generator"] = generation.NewRemoteGenerator(
			httpClient,
			c.config.GenerationServiceURL,
			c.Logger(),
		)
	})
	if err := c.initErrors["generator"]; err != nil {
		return nil, err
	}
	return c.generator, nil
}

// Publisher returns the social platform publisher client. Construction checks
// the token's remaining lifetime, refreshes it when it is near expiry, and
// resolves the account id, so a bad token fails here.
func (c *Container) Publisher() (*publisher.Client, error) {
	c.publisherClientInit.Do(func() {
		httpClient := httpx.NewClient("Publisher",
			httpx.WithTimeout(c.config.HTTPTimeout),
			httpx.WithRetrier(c.newRetrier()),
			httpx.WithLogger(c.Logger()),
		)

		ctx, cancel := context.WithTimeout(context.Background(), c.config.HTTPTimeout)
		defer cancel()

		tokenManager, err := publisher.NewTokenManager(httpClient, publisher.TokenConfig{
			GraphURL:    c.config.PublisherGraphURL,
			APIVersion:  c.config.PublisherAPIVersion,
			AccessToken: c.config.PublisherAccessToken,
			AppID:       c.config.PublisherAppID,
			AppSecret:   c.config.PublisherAppSecret,
		}, c.Logger())
		if err != nil {
			c.initErrors["publisher"] = err
			return
		}
		accessToken, err := tokenManager.EnsureValid(ctx)
		if err != nil {
			c.initErrors["publisher"] = err
			return
		}

		c.publisherClient, c.initErrors["publisher"] = publisher.NewClient(ctx, httpClient, publisher.Config{
			GraphURL:        c.config.PublisherGraphURL,
			APIVersion:      c.config.PublisherAPIVersion,
			AccessToken:     accessToken,
			PollInterval:    c.config.PublisherPollInterval,
			PollMaxAttempts: c.config.PublisherPollMaxAttempts,
		}, c.Logger())
	})
	if err := c.initErrors["publisher"]; err != nil {
		return nil, err
	}
	return c.publisherClient, nil
}

// Collection returns the law record document collection.
func (c *Container) Collection() (*docstore.Collection, error) {
	c.collectionInit.Do(func() {
		c.collection, c.initErrors["collection"] = lawRepository.OpenCollection(
			context.Background(),
			c.config.StoreURL,
		)
	})
	if err := c.initErrors["collection"]; err != nil {
		return nil, err
	}
	return c.collection, nil
}

// LawRepository returns the law record repository instance.
func (c *Container) LawRepository() (lawUsecase.LawRepository, error) {
	c.lawRepoInit.Do(func() {
		collection, err := c.Collection()
		if err != nil {
			c.initErrors["lawRepo"] = err
			return
		}
		c.lawRepo = lawRepository.NewDocstoreLawRepository(collection)
	})
	if err := c.initErrors["lawRepo"]; err != nil {
		return nil, err
	}
	return c.lawRepo, nil
}

// SyncUseCase returns the law sync use case instance.
func (c *Container) SyncUseCase() (lawUsecase.SyncUseCase, error) {
	c.syncUseCaseInit.Do(func() {
		c.syncUseCase, c.initErrors["syncUseCase"] = c.initSyncUseCase()
	})
	if err := c.initErrors["syncUseCase"]; err != nil {
		return nil, err
	}
	return c.syncUseCase, nil
}

// ProcessingUseCase returns the law processing use case instance.
func (c *Container) ProcessingUseCase() (lawUsecase.ProcessingUseCase, error) {
	c.processingUseCaseInit.Do(func() {
		c.processingUseCase, c.initErrors["processingUseCase"] = c.initProcessingUseCase()
	})
	if err := c.initErrors["processingUseCase"]; err != nil {
		return nil, err
	}
	return c.processingUseCase, nil
}

// PipelineUseCase returns the full pipeline use case instance.
func (c *Container) PipelineUseCase() (lawUsecase.PipelineUseCase, error) {
	c.pipelineUseCaseInit.Do(func() {
		sync, err := c.SyncUseCase()
		if err != nil {
			c.initErrors["pipelineUseCase"] = err
			return
		}
		processing, err := c.ProcessingUseCase()
		if err != nil {
			c.initErrors["pipelineUseCase"] = err
			return
		}
		c.pipelineUseCase = lawUsecase.NewPipelineUseCase(sync, processing, c.Logger())
	})
	if err := c.initErrors["pipelineUseCase"]; err != nil {
		return nil, err
	}
	return c.pipelineUseCase, nil
}

// TriggerServer returns the HTTP trigger server instance.
func (c *Container) TriggerServer() (*apphttp.TriggerServer, error) {
	c.triggerServerInit.Do(func() {
		pipeline, err := c.PipelineUseCase()
		if err != nil {
			c.initErrors["triggerServer"] = err
			return
		}
		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["triggerServer"] = err
			return
		}

		serverConfig := apphttp.TriggerServerConfig{
			Host:             c.config.ServerHost,
			Port:             c.config.ServerPort,
			CORSEnabled:      c.config.CORSEnabled,
			CORSAllowOrigins: c.config.CORSAllowOrigins,
			MetricsNamespace: c.config.MetricsNamespace,
		}
		if provider != nil {
			c.triggerServer = apphttp.NewTriggerServer(serverConfig, pipeline, provider.MeterProvider(), c.Logger())
			return
		}
		c.triggerServer = apphttp.NewTriggerServer(serverConfig, pipeline, nil, c.Logger())
	})
	if err := c.initErrors["triggerServer"]; err != nil {
		return nil, err
	}
	return c.triggerServer, nil
}

// MetricsServer returns the metrics HTTP server, or nil when metrics are
// disabled.
func (c *Container) MetricsServer() (*apphttp.MetricsServer, error) {
	c.metricsServerInit.Do(func() {
		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["metricsServer"] = err
			return
		}
		if provider == nil {
			return
		}
		c.metricsServer = apphttp.NewMetricsServer(
			c.config.ServerHost,
			c.config.MetricsPort,
			c.Logger(),
			provider,
		)
	})
	if err := c.initErrors["metricsServer"]; err != nil {
		return nil, err
	}
	return c.metricsServer, nil
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.triggerServer != nil {
		if err := c.triggerServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("trigger server shutdown: %w", err))
		}
	}

	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if c.collection != nil {
		if err := c.collection.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("collection close: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}

// initLogger creates and configures a structured logger based on the log level.
// The taxonomy error logger is pointed at the same instance so construction-time
// logging and request logging share one sink.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	logger := slog.New(handler)
	apperrors.SetLogger(logger)

	return logger
}

// newRetrier builds a retrier from the configured attempt budget.
func (c *Container) newRetrier() *retry.Retrier {
	policy := retry.DefaultPolicy().WithMaxAttempts(c.config.RetryMaxAttempts)
	return retry.New(policy, c.Logger())
}

// initTokenManager picks the static-token path when a token is supplied and
// the client-credentials path otherwise.
func (c *Container) initTokenManager() (*registry.TokenManager, error) {
	if c.config.RegistryToken != "" {
		return registry.NewStaticTokenManager(c.config.RegistryToken)
	}

	authClient := httpx.NewClient("Registry Auth",
		httpx.WithTimeout(c.config.HTTPTimeout),
		httpx.WithRetrier(c.newRetrier()),
		httpx.WithLogger(c.Logger()),
	)
	return registry.NewTokenManager(
		authClient,
		c.config.RegistryTokenURL,
		c.config.RegistryClientID,
		c.config.RegistryClientSecret,
		c.Logger(),
	)
}

// initRegistryClient assembles the rate-limited, token-carrying registry
// client.
func (c *Container) initRegistryClient() (*registry.Client, error) {
	tokenManager, err := c.TokenManager()
	if err != nil {
		return nil, err
	}

	limiter := rate.NewLimiter(rate.Limit(c.config.RegistryRequestsPerSec), c.config.RegistryBurst)
	httpClient := httpx.NewClient("Law Registry",
		httpx.WithTimeout(c.config.HTTPTimeout),
		httpx.WithLimiter(limiter),
		httpx.WithRetrier(c.newRetrier()),
		httpx.WithHeaderFunc(tokenManager.Headers),
		httpx.WithLogger(c.Logger()),
	)

	return registry.NewClient(httpClient, c.config.RegistryBaseURL, c.Logger()), nil
}

func (c *Container) initSyncUseCase() (lawUsecase.SyncUseCase, error) {
	lawRepo, err := c.LawRepository()
	if err != nil {
		return nil, err
	}
	registryClient, err := c.RegistryClient()
	if err != nil {
		return nil, err
	}
	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, err
	}

	useCase := lawUsecase.NewSyncUseCase(lawRepo, registryClient, c.config.RegistryPageSize, c.Logger())
	return lawUsecase.NewSyncUseCaseWithMetrics(useCase, businessMetrics), nil
}

func (c *Container) initProcessingUseCase() (lawUsecase.ProcessingUseCase, error) {
	lawRepo, err := c.LawRepository()
	if err != nil {
		return nil, err
	}
	registryClient, err := c.RegistryClient()
	if err != nil {
		return nil, err
	}
	generator, err := c.Generator()
	if err != nil {
		return nil, err
	}
	publisherClient, err := c.Publisher()
	if err != nil {
		return nil, err
	}
	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, err
	}

	useCase := lawUsecase.NewProcessingUseCase(
		lawRepo,
		registryClient,
		generator,
		publisherClient,
		c.Logger(),
	)
	return lawUsecase.NewProcessingUseCaseWithMetrics(useCase, businessMetrics), nil
}
