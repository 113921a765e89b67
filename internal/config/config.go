// Package config provides application configuration through environment variables.
// The configuration is an explicit object constructed once at process start and
// threaded through constructors; nothing reads the environment after Load returns.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/allisson/go-env"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// LogLevel is the logging level (e.g., "debug", "info", "warn", "error").
	LogLevel string

	// RegistryBaseURL is the base URL of the legal-text registry API.
	RegistryBaseURL string
	// RegistryTokenURL is the OAuth2 client-credentials token endpoint.
	RegistryTokenURL string
	// RegistryClientID is the OAuth2 client id for the registry API.
	RegistryClientID string
	// RegistryClientSecret is the OAuth2 client secret for the registry API.
	RegistryClientSecret string
	// RegistryToken is an optional pre-supplied bearer token. When set, the
	// client-credentials exchange is skipped and the token is never refreshed.
	RegistryToken string
	// RegistryPageSize is the page size used when listing laws.
	RegistryPageSize int
	// RegistryRequestsPerSec limits outbound registry requests.
	RegistryRequestsPerSec float64
	// RegistryBurst is the outbound rate limiter burst size.
	RegistryBurst int

	// PublisherAccessToken is the long-lived social API token.
	PublisherAccessToken string
	// PublisherGraphURL is the social graph API base URL.
	PublisherGraphURL string
	// PublisherAPIVersion is the social graph API version.
	PublisherAPIVersion string
	// PublisherPollInterval is the wait between media status checks.
	PublisherPollInterval time.Duration
	// PublisherPollMaxAttempts bounds media status checks before giving up.
	PublisherPollMaxAttempts int
	// PublisherAppID and PublisherAppSecret authenticate the token exchange
	// fallback used when the native refresh grant fails. Optional.
	PublisherAppID     string
	PublisherAppSecret string

	// GenerationServiceURL is the base URL of the content generation service.
	GenerationServiceURL string

	// StoreURL is the docstore collection URL for law records
	// (e.g., "dynamodb://law-posts?partition_key=textId").
	StoreURL string

	// HTTPTimeout is the per-request timeout for outbound API calls.
	HTTPTimeout time.Duration
	// RetryMaxAttempts is the attempt budget for outbound API calls.
	RetryMaxAttempts int

	// ServerHost is the host address the trigger server will bind to.
	ServerHost string
	// ServerPort is the port number the trigger server will listen on.
	ServerPort int
	// CORSEnabled indicates whether CORS is enabled on the trigger server.
	// Disabled by default: the trigger endpoint is server-to-server.
	CORSEnabled bool
	// CORSAllowOrigins is a comma-separated list of allowed CORS origins.
	CORSAllowOrigins string

	// MetricsEnabled indicates whether metrics collection is enabled.
	MetricsEnabled bool
	// MetricsNamespace is the namespace for the application metrics.
	MetricsNamespace string
	// MetricsPort is the port number for the metrics server.
	MetricsPort int
}

// Load loads configuration from environment variables and .env file.
func Load() *Config {
	// Try to load .env file recursively
	loadDotEnv()

	return &Config{
		// Logging
		LogLevel: env.GetString("LOG_LEVEL", "info"),

		// Legal-text registry
		RegistryBaseURL: env.GetString(
			"REGISTRY_API_URL",
			"https://sandbox-api.gouv.fr/dila/legifrance/lf-engine-app",
		),
		RegistryTokenURL: env.GetString(
			"REGISTRY_TOKEN_URL",
			"https://sandbox-oauth.gouv.fr/api/oauth/token",
		),
		RegistryClientID:       env.GetString("REGISTRY_CLIENT_ID", ""),
		RegistryClientSecret:   env.GetString("REGISTRY_CLIENT_SECRET", ""),
		RegistryToken:          env.GetString("REGISTRY_TOKEN", ""),
		RegistryPageSize:       env.GetInt("REGISTRY_PAGE_SIZE", 10),
		RegistryRequestsPerSec: env.GetFloat64("REGISTRY_REQUESTS_PER_SEC", 5.0),
		RegistryBurst:          env.GetInt("REGISTRY_BURST", 5),

		// Social publisher
		PublisherAccessToken:     env.GetString("PUBLISHER_ACCESS_TOKEN", ""),
		PublisherGraphURL:        env.GetString("PUBLISHER_GRAPH_URL", "https://graph.instagram.com"),
		PublisherAPIVersion:      env.GetString("PUBLISHER_API_VERSION", "v22.0"),
		PublisherPollInterval:    env.GetDuration("PUBLISHER_POLL_INTERVAL_SECONDS", 5, time.Second),
		PublisherPollMaxAttempts: env.GetInt("PUBLISHER_POLL_MAX_ATTEMPTS", 10),
		PublisherAppID:           env.GetString("PUBLISHER_APP_ID", ""),
		PublisherAppSecret:       env.GetString("PUBLISHER_APP_SECRET", ""),

		// Content generation service
		GenerationServiceURL: env.GetString("GENERATION_SERVICE_URL", ""),

		// Law record store
		StoreURL: env.GetString("STORE_URL", "dynamodb://law-posts?partition_key=textId"),

		// Outbound HTTP behavior
		HTTPTimeout:      env.GetDuration("HTTP_TIMEOUT_SECONDS", 30, time.Second),
		RetryMaxAttempts: env.GetInt("RETRY_MAX_ATTEMPTS", 3),

		// Trigger server
		ServerHost:       env.GetString("SERVER_HOST", "0.0.0.0"),
		ServerPort:       env.GetInt("SERVER_PORT", 8080),
		CORSEnabled:      env.GetBool("CORS_ENABLED", false),
		CORSAllowOrigins: env.GetString("CORS_ALLOW_ORIGINS", ""),

		// Metrics
		MetricsEnabled:   env.GetBool("METRICS_ENABLED", true),
		MetricsNamespace: env.GetString("METRICS_NAMESPACE", "lawgram"),
		MetricsPort:      env.GetInt("METRICS_PORT", 8081),
	}
}

// GetGinMode returns the appropriate Gin mode based on log level.
func (c *Config) GetGinMode() string {
	switch c.LogLevel {
	case "debug":
		return "debug"
	case "info", "warn", "error":
		return "release"
	default:
		return "release"
	}
}

// loadDotEnv searches for a .env file recursively from the current directory
// up to the root directory and loads it if found.
func loadDotEnv() {
	// Get current working directory
	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	// Search for .env file recursively up the directory tree
	dir := cwd
	for {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			// .env file found, load it
			_ = godotenv.Load(envPath)
			return
		}

		// Move to parent directory
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root directory
			break
		}
		dir = parent
	}
}
