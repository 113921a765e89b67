// Package publisher implements the social platform client that turns a
// generated image and caption into a published post. Publishing is a
// three-step protocol: create a media object, poll until the platform reports
// it processed, then publish it. A confirmed publish returns the post id the
// pipeline uses to mark its record processed.
package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/lawgram/lawgram/internal/errors"
	"github.com/lawgram/lawgram/internal/httpx"
)

// Media processing states reported by the status_code field.
const (
	statusFinished = "FINISHED"
	statusError    = "ERROR"
)

// Polling defaults for media processing.
const (
	DefaultPollInterval    = 5 * time.Second
	DefaultPollMaxAttempts = 10
)

// Config carries the publisher's connection settings.
type Config struct {
	// GraphURL is the platform API base, without the version segment.
	GraphURL string
	// APIVersion selects the API version segment, e.g. "v22.0".
	APIVersion string
	// AccessToken is the long-lived account token.
	AccessToken string
	// PollInterval is the wait between media status checks.
	PollInterval time.Duration
	// PollMaxAttempts bounds the media status checks.
	PollMaxAttempts int
}

// Client is the typed publisher over the platform's graph API.
type Client struct {
	http            *httpx.Client
	baseURL         string
	accessToken     string
	accountID       string
	pollInterval    time.Duration
	pollMaxAttempts int
	logger          *slog.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient creates a publisher client and resolves the account id the token
// belongs to. The resolution round-trip doubles as a token check: a revoked
// token fails here instead of mid-pipeline.
func NewClient(ctx context.Context, httpClient *httpx.Client, cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.AccessToken == "" {
		return nil, apperrors.New(apperrors.KindConfig, "publisher access token is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.PollMaxAttempts <= 0 {
		cfg.PollMaxAttempts = DefaultPollMaxAttempts
	}

	c := &Client{
		http:            httpClient,
		baseURL:         strings.TrimRight(cfg.GraphURL, "/") + "/" + cfg.APIVersion,
		accessToken:     cfg.AccessToken,
		pollInterval:    cfg.PollInterval,
		pollMaxAttempts: cfg.PollMaxAttempts,
		logger:          logger,
	}
	c.sleep = func(ctx context.Context, d time.Duration) error {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return nil
		}
	}

	accountID, err := c.resolveAccountID(ctx)
	if err != nil {
		return nil, err
	}
	c.accountID = accountID

	return c, nil
}

// AccountID returns the resolved account id.
func (c *Client) AccountID() string {
	return c.accountID
}

func (c *Client) resolveAccountID(ctx context.Context) (string, error) {
	resp, err := c.http.SendRetry(ctx, http.MethodGet, c.baseURL+"/me",
		httpx.WithQuery("fields", "id"),
		httpx.WithQuery("access_token", c.accessToken),
	)
	if err != nil {
		return "", err
	}

	var account accountResponse
	if err := resp.DecodeJSON(&account); err != nil {
		return "", err
	}
	if account.ID == "" {
		return "", apperrors.New(apperrors.KindPublishing,
			"platform did not return an account id for the access token")
	}

	c.logger.Info("resolved publisher account", slog.String("account_id", account.ID))
	return account.ID, nil
}

// CreateMedia creates a media object for the image and caption and returns
// its creation id.
func (c *Client) CreateMedia(ctx context.Context, imageURL, caption string) (string, error) {
	payload := MediaPayload{ImageURL: imageURL, Caption: caption}
	if err := payload.Validate(); err != nil {
		return "", apperrors.New(apperrors.KindValidation,
			"invalid media payload",
			apperrors.WithCause(err),
		)
	}

	resp, err := c.http.SendRetry(ctx, http.MethodPost,
		fmt.Sprintf("%s/%s/media", c.baseURL, c.accountID),
		httpx.WithQuery("access_token", c.accessToken),
		httpx.WithJSONBody(payload),
	)
	if err != nil {
		return "", err
	}

	var creation mediaCreationResponse
	if err := resp.DecodeJSON(&creation); err != nil {
		return "", err
	}
	if creation.ID == "" {
		return "", apperrors.New(apperrors.KindPublishing,
			"media creation did not return a creation id",
			apperrors.WithDetails(failDetails(creation.Error)),
		)
	}

	c.logger.Info("created media object", slog.String("creation_id", creation.ID))
	return creation.ID, nil
}

// WaitForProcessing polls the media object's status until the platform
// reports it FINISHED. An ERROR status or exhausting the attempt budget is a
// publishing failure.
func (c *Client) WaitForProcessing(ctx context.Context, creationID string) error {
	started := time.Now()

	for attempt := 1; attempt <= c.pollMaxAttempts; attempt++ {
		if err := c.sleep(ctx, c.pollInterval); err != nil {
			return err
		}

		resp, err := c.http.SendRetry(ctx, http.MethodGet, c.baseURL+"/"+creationID,
			httpx.WithQuery("fields", "status_code"),
			httpx.WithQuery("access_token", c.accessToken),
		)
		if err != nil {
			return err
		}

		var status statusResponse
		if err := resp.DecodeJSON(&status); err != nil {
			return err
		}

		c.logger.Debug("media status check",
			slog.String("creation_id", creationID),
			slog.String("status", status.StatusCode),
			slog.Int("attempt", attempt),
		)

		switch status.StatusCode {
		case statusFinished:
			return nil
		case statusError:
			return apperrors.New(apperrors.KindPublishing,
				"platform failed to process the media object",
				apperrors.WithDetail("creation_id", creationID),
			)
		}
	}

	return apperrors.New(apperrors.KindPublishing,
		"media processing did not complete in time",
		apperrors.WithDetail("creation_id", creationID),
		apperrors.WithDetail("elapsed", time.Since(started).String()),
	)
}

// PublishPost publishes the processed media object and returns the post id.
func (c *Client) PublishPost(ctx context.Context, creationID string) (string, error) {
	form := url.Values{}
	form.Set("creation_id", creationID)
	form.Set("access_token", c.accessToken)

	resp, err := c.http.SendRetry(ctx, http.MethodPost,
		fmt.Sprintf("%s/%s/media_publish", c.baseURL, c.accountID),
		httpx.WithFormBody(form),
	)
	if err != nil {
		return "", err
	}

	var publish publishResponse
	if err := resp.DecodeJSON(&publish); err != nil {
		return "", err
	}
	if publish.ID == "" {
		return "", apperrors.New(apperrors.KindPublishing,
			"publish did not return a post id",
			apperrors.WithDetail("creation_id", creationID),
			apperrors.WithDetails(failDetails(publish.Error)),
		)
	}

	c.logger.Info("published post", slog.String("post_id", publish.ID))
	return publish.ID, nil
}

// Publish runs the full protocol: create the media object, wait for
// processing, publish. It returns the post id of the confirmed publish.
func (c *Client) Publish(ctx context.Context, imageURL, caption string) (string, error) {
	creationID, err := c.CreateMedia(ctx, imageURL, caption)
	if err != nil {
		return "", err
	}
	if err := c.WaitForProcessing(ctx, creationID); err != nil {
		return "", err
	}
	return c.PublishPost(ctx, creationID)
}

// CommentOnPost adds a comment under a published post.
func (c *Client) CommentOnPost(ctx context.Context, postID, message string) error {
	form := url.Values{}
	form.Set("message", message)
	form.Set("access_token", c.accessToken)

	_, err := c.http.SendRetry(ctx, http.MethodPost,
		fmt.Sprintf("%s/%s/comments", c.baseURL, postID),
		httpx.WithFormBody(form),
	)
	return err
}

func failDetails(fail *platformFail) map[string]any {
	if fail == nil {
		return nil
	}
	return map[string]any{
		"platform_message": fail.Message,
		"platform_type":    fail.Type,
		"platform_code":    fail.Code,
	}
}
