package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"

	"github.com/lawgram/lawgram/internal/httputil"
	"github.com/lawgram/lawgram/internal/law/usecase"
	appmetrics "github.com/lawgram/lawgram/internal/metrics"
)

// TriggerServerConfig carries the trigger server's settings.
type TriggerServerConfig struct {
	Host             string
	Port             int
	CORSEnabled      bool
	CORSAllowOrigins string
	MetricsNamespace string
}

// TriggerServer exposes the pipeline over HTTP. POST /run executes one full
// pass; GET /healthz answers liveness probes.
type TriggerServer struct {
	server *http.Server
	logger *slog.Logger
}

// NewTriggerServer creates a TriggerServer around the pipeline use case.
// meterProvider may be nil when metrics are disabled.
func NewTriggerServer(
	cfg TriggerServerConfig,
	pipeline usecase.PipelineUseCase,
	meterProvider metric.MeterProvider,
	logger *slog.Logger,
) *TriggerServer {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New())
	router.Use(CustomLoggerMiddleware(logger))

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}
	if meterProvider != nil {
		router.Use(appmetrics.HTTPMetricsMiddleware(meterProvider, cfg.MetricsNamespace))
	}

	router.GET("/healthz", healthzHandler)
	router.POST("/run", runHandler(pipeline, logger))

	return &TriggerServer{
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Minute,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
}

// GetHandler returns the http.Handler for testing purposes.
func (s *TriggerServer) GetHandler() http.Handler {
	return s.server.Handler
}

// Start starts the trigger HTTP server.
func (s *TriggerServer) Start(ctx context.Context) error {
	s.logger.Info("starting trigger server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start trigger server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the trigger HTTP server.
func (s *TriggerServer) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down trigger server")
	return s.server.Shutdown(ctx)
}

func healthzHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// runResponse is the JSON body of a successful pipeline run.
type runResponse struct {
	Inserted  int    `json:"inserted"`
	Skipped   int    `json:"skipped"`
	Errored   int    `json:"errored"`
	Processed bool   `json:"processed"`
	TextID    string `json:"textId,omitempty"`
	PostID    string `json:"postId,omitempty"`
}

func runHandler(pipeline usecase.PipelineUseCase, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := pipeline.Run(c.Request.Context())
		if err != nil {
			httputil.HandleErrorGin(c, err, logger)
			return
		}

		response := runResponse{
			Inserted:  result.Stats.Inserted,
			Skipped:   result.Stats.Skipped,
			Errored:   result.Stats.Errored,
			Processed: result.Processed,
		}
		if result.Result != nil {
			response.TextID = result.Result.TextID
			response.PostID = result.Result.PostID
		}
		c.JSON(http.StatusOK, response)
	}
}
