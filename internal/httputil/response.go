// Package httputil provides HTTP utility functions for response handling.
package httputil

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/lawgram/lawgram/internal/errors"
)

// ErrorResponse represents a structured error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// HandleErrorGin maps classified errors to HTTP status codes and returns a
// JSON response using Gin. Upstream collaborator failures surface as 502 so a
// scheduler retrying the trigger can tell them apart from bugs in this
// service; rate limiting propagates as 429 with the upstream's retry hint.
func HandleErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	if err == nil {
		return
	}

	statusCode := http.StatusInternalServerError

	switch {
	case apperrors.IsKind(err, apperrors.KindRateLimit):
		statusCode = http.StatusTooManyRequests
		var appErr *apperrors.Error
		if apperrors.As(err, &appErr) && appErr.RetryAfter != nil {
			c.Header("Retry-After", formatSeconds(*appErr.RetryAfter))
		}

	case apperrors.IsKind(err, apperrors.KindNetwork),
		apperrors.IsKind(err, apperrors.KindServer):
		statusCode = http.StatusBadGateway
	}

	logger.Error("request failed",
		slog.Int("status", statusCode),
		slog.String("kind", string(apperrors.KindOf(err))),
		slog.Any("error", err),
	)

	c.JSON(statusCode, ErrorResponse{
		Error: err.Error(),
		Kind:  string(apperrors.KindOf(err)),
	})
}

// formatSeconds renders a duration as whole seconds for the Retry-After
// header.
func formatSeconds(d time.Duration) string {
	return strconv.Itoa(int(d / time.Second))
}
