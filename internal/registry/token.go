// Package registry provides the typed client for the legal-text registry API,
// including the OAuth2 client-credentials token manager that authenticates it.
package registry

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	apperrors "github.com/lawgram/lawgram/internal/errors"
	"github.com/lawgram/lawgram/internal/httpx"
)

// tokenExpiryMargin is subtracted from the advertised token lifetime so a
// token is never used when it could expire mid-request.
const tokenExpiryMargin = 60 * time.Second

// defaultTokenLifetime is assumed when the token endpoint omits expires_in.
const defaultTokenLifetime = 3600 * time.Second

// TokenManager acquires and caches a client-credentials bearer token,
// transparently refreshing it when expired. A statically supplied token has an
// unknown lifetime and is never auto-refreshed.
type TokenManager struct {
	client       *httpx.Client
	tokenURL     string
	clientID     string
	clientSecret string
	logger       *slog.Logger
	now          func() time.Time

	mu     sync.Mutex
	token  string
	expiry time.Time
	static bool

	group singleflight.Group
}

// NewStaticTokenManager wraps a pre-supplied token. The token is presented
// as-is on every request and never refreshed.
func NewStaticTokenManager(token string) (*TokenManager, error) {
	if token == "" {
		return nil, apperrors.New(apperrors.KindConfig, "static token must not be empty")
	}
	return &TokenManager{
		token:  token,
		static: true,
		logger: slog.Default(),
		now:    time.Now,
	}, nil
}

// NewTokenManager creates a manager performing the client-credentials grant
// against tokenURL. All three parameters are required; token acquisition runs
// through the client's retry policy so transient auth-endpoint failures are
// not fatal.
func NewTokenManager(client *httpx.Client, tokenURL, clientID, clientSecret string, logger *slog.Logger) (*TokenManager, error) {
	if tokenURL == "" || clientID == "" || clientSecret == "" {
		return nil, apperrors.New(apperrors.KindConfig,
			"either a token must be provided or client credentials and token URL must be specified")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TokenManager{
		client:       client,
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		logger:       logger,
		now:          time.Now,
	}, nil
}

// tokenResponse is the token endpoint's JSON payload.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// Token returns a bearer token that is valid at call time, acquiring or
// refreshing one first when needed. Concurrent callers share a single
// refresh per expiry.
func (m *TokenManager) Token(ctx context.Context) (string, error) {
	m.mu.Lock()
	if m.static || (m.token != "" && m.now().Before(m.expiry)) {
		token := m.token
		m.mu.Unlock()
		return token, nil
	}
	m.mu.Unlock()

	token, err, _ := m.group.Do("token", func() (any, error) {
		// Re-check under the lock: another caller may have refreshed while
		// this one waited on the singleflight group.
		m.mu.Lock()
		if m.token != "" && m.now().Before(m.expiry) {
			token := m.token
			m.mu.Unlock()
			return token, nil
		}
		m.mu.Unlock()

		return m.acquire(ctx)
	})
	if err != nil {
		return "", err
	}
	return token.(string), nil
}

// Headers is an httpx.HeaderFunc presenting the bearer token. Install it on
// the registry's HTTP client so every request carries fresh credentials.
func (m *TokenManager) Headers(ctx context.Context) (http.Header, error) {
	token, err := m.Token(ctx)
	if err != nil {
		return nil, err
	}
	h := make(http.Header)
	h.Set("Authorization", "Bearer "+token)
	return h, nil
}

// acquire performs the client-credentials grant and caches the result.
func (m *TokenManager) acquire(ctx context.Context) (string, error) {
	m.logger.Info("acquiring registry access token")

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", m.clientID)
	form.Set("client_secret", m.clientSecret)
	form.Set("scope", "openid")

	resp, err := m.client.SendRetry(ctx, http.MethodPost, m.tokenURL, httpx.WithFormBody(form))
	if err != nil {
		return "", err
	}

	var payload tokenResponse
	if err := resp.DecodeJSON(&payload); err != nil {
		return "", err
	}

	// An absent or literal "null" access_token means the grant was rejected
	// even though the endpoint answered 200.
	if payload.AccessToken == "" || payload.AccessToken == "null" {
		return "", apperrors.New(apperrors.KindAuthentication,
			"failed to obtain access token",
			apperrors.WithDetail("response", string(resp.Body)),
		)
	}

	lifetime := defaultTokenLifetime
	if payload.ExpiresIn > 0 {
		lifetime = time.Duration(payload.ExpiresIn) * time.Second
	}

	m.mu.Lock()
	m.token = payload.AccessToken
	m.expiry = m.now().Add(lifetime - tokenExpiryMargin)
	m.mu.Unlock()

	m.logger.Info("registry access token acquired",
		slog.Duration("lifetime", lifetime),
	)

	return payload.AccessToken, nil
}

