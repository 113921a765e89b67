package publisher

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	apperrors "github.com/lawgram/lawgram/internal/errors"
	"github.com/lawgram/lawgram/internal/httpx"
)

// DefaultRefreshMargin is how close to expiry the long-lived token may get
// before it is refreshed. Platform long-lived tokens last about 60 days;
// refreshing inside a 7 day window keeps a weekly pipeline from ever running
// with a dead token.
const DefaultRefreshMargin = 7 * 24 * time.Hour

// TokenConfig carries the token manager's settings.
type TokenConfig struct {
	// GraphURL is the platform API base, without the version segment.
	GraphURL string
	// APIVersion selects the API version segment, e.g. "v22.0".
	APIVersion string
	// AccessToken is the current long-lived token.
	AccessToken string
	// AppID and AppSecret authenticate the exchange-grant fallback. Optional;
	// without them only the platform's native refresh grant is attempted.
	AppID     string
	AppSecret string
	// RefreshMargin overrides DefaultRefreshMargin when positive.
	RefreshMargin time.Duration
}

// TokenManager keeps the publisher's long-lived token alive. It inspects the
// token's remaining lifetime and, inside the refresh margin, extends it with
// the platform's refresh grant, falling back to a credential exchange when app
// credentials are configured. System-user tokens report no expiry and are
// never refreshed. Refresh failures are not fatal while the current token
// still works; the refreshed token lives in memory only.
type TokenManager struct {
	http    *httpx.Client
	baseURL string
	rootURL string
	cfg     TokenConfig
	margin  time.Duration
	logger  *slog.Logger

	mu    sync.Mutex
	token string
}

// NewTokenManager creates a TokenManager around the current long-lived token.
func NewTokenManager(httpClient *httpx.Client, cfg TokenConfig, logger *slog.Logger) (*TokenManager, error) {
	if cfg.AccessToken == "" {
		return nil, apperrors.New(apperrors.KindConfig, "publisher access token is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	margin := cfg.RefreshMargin
	if margin <= 0 {
		margin = DefaultRefreshMargin
	}
	root := strings.TrimRight(cfg.GraphURL, "/")
	return &TokenManager{
		http:    httpClient,
		baseURL: root + "/" + cfg.APIVersion,
		rootURL: root,
		cfg:     cfg,
		margin:  margin,
		logger:  logger,
	}, nil
}

// tokenInfoResponse is the token introspection payload.
type tokenInfoResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// refreshTokenResponse is the refresh and exchange grant payload.
type refreshTokenResponse struct {
	AccessToken string        `json:"access_token"`
	TokenType   string        `json:"token_type"`
	ExpiresIn   int64         `json:"expires_in"`
	Error       *platformFail `json:"error,omitempty"`
}

// EnsureValid returns a token safe to publish with, refreshing the current one
// first when it is inside the refresh margin. The expiry check is advisory:
// when the platform cannot report token info, or every refresh grant fails,
// the current token is returned so the pipeline can still attempt its pass.
func (m *TokenManager) EnsureValid(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token == "" {
		m.token = m.cfg.AccessToken
	}

	remaining, ok := m.remainingLifetime(ctx)
	if !ok {
		return m.token, nil
	}
	if remaining <= 0 {
		// The platform reports no expiry for system-user tokens.
		return m.token, nil
	}
	if remaining >= m.margin {
		return m.token, nil
	}

	m.logger.Info("publisher token inside refresh margin",
		slog.Duration("remaining", remaining),
	)

	if token, err := m.refresh(ctx); err == nil {
		m.token = token
		return m.token, nil
	} else {
		m.logger.Warn("publisher token refresh grant failed", slog.Any("error", err))
	}

	if m.cfg.AppID != "" && m.cfg.AppSecret != "" {
		if token, err := m.exchange(ctx); err == nil {
			m.token = token
			return m.token, nil
		} else {
			m.logger.Warn("publisher token exchange grant failed", slog.Any("error", err))
		}
	}

	m.logger.Warn("publisher token could not be refreshed, keeping current token")
	return m.token, nil
}

// remainingLifetime asks the platform how long the current token stays valid.
// The second return is false when the platform could not answer.
func (m *TokenManager) remainingLifetime(ctx context.Context) (time.Duration, bool) {
	resp, err := m.http.SendRetry(ctx, http.MethodGet, m.baseURL+"/oauth/access_token_info",
		httpx.WithQuery("access_token", m.token),
	)
	if err != nil {
		m.logger.Warn("publisher token info unavailable", slog.Any("error", err))
		return 0, false
	}

	var info tokenInfoResponse
	if err := resp.DecodeJSON(&info); err != nil {
		m.logger.Warn("publisher token info undecodable", slog.Any("error", err))
		return 0, false
	}

	return time.Duration(info.ExpiresIn) * time.Second, true
}

// refresh extends the long-lived token through the platform's native refresh
// grant. The endpoint is unversioned.
func (m *TokenManager) refresh(ctx context.Context) (string, error) {
	resp, err := m.http.SendRetry(ctx, http.MethodGet, m.rootURL+"/refresh_access_token",
		httpx.WithQuery("grant_type", "ig_refresh_token"),
		httpx.WithQuery("access_token", m.token),
	)
	if err != nil {
		return "", err
	}
	return m.decodeGrant(resp, "refresh")
}

// exchange trades the current token for a fresh long-lived one using the app
// credentials.
func (m *TokenManager) exchange(ctx context.Context) (string, error) {
	resp, err := m.http.SendRetry(ctx, http.MethodGet, m.baseURL+"/oauth/access_token",
		httpx.WithQuery("grant_type", "fb_exchange_token"),
		httpx.WithQuery("client_id", m.cfg.AppID),
		httpx.WithQuery("client_secret", m.cfg.AppSecret),
		httpx.WithQuery("fb_exchange_token", m.token),
	)
	if err != nil {
		return "", err
	}
	return m.decodeGrant(resp, "exchange")
}

// decodeGrant extracts the new token from a grant response.
func (m *TokenManager) decodeGrant(resp *httpx.Response, grant string) (string, error) {
	var payload refreshTokenResponse
	if err := resp.DecodeJSON(&payload); err != nil {
		return "", err
	}
	if payload.AccessToken == "" {
		return "", apperrors.New(apperrors.KindAuthentication,
			"token "+grant+" response did not include a token",
			apperrors.WithDetails(failDetails(payload.Error)),
		)
	}

	m.logger.Info("publisher token refreshed",
		slog.String("grant", grant),
		slog.Int64("expires_in_days", payload.ExpiresIn/86400),
	)
	return payload.AccessToken, nil
}
