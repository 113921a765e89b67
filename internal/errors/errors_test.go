package errors

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingHandler counts log records to verify errors are logged exactly once.
type countingHandler struct {
	count atomic.Int64
}

func (h *countingHandler) Enabled(context.Context, slog.Level) bool  { return true }
func (h *countingHandler) Handle(context.Context, slog.Record) error { h.count.Add(1); return nil }
func (h *countingHandler) WithAttrs([]slog.Attr) slog.Handler        { return h }
func (h *countingHandler) WithGroup(string) slog.Handler             { return h }

func TestFromStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   Kind
	}{
		{"unauthorized", 401, KindAuthentication},
		{"forbidden", 403, KindAuthentication},
		{"not found", 404, KindNotFound},
		{"unprocessable", 422, KindValidation},
		{"rate limited", 429, KindRateLimit},
		{"other client error", 418, KindClient},
		{"internal server error", 500, KindServer},
		{"bad gateway", 502, KindServer},
		{"unclassified", 302, KindAPI},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := FromStatus(tt.status, "Test API", "https://api.example.com/x", "", "body")
			assert.Equal(t, tt.want, err.Kind)
			assert.Equal(t, tt.status, err.Status)
			assert.Equal(t, "https://api.example.com/x", err.Details["url"])
		})
	}
}

func TestFromStatus_BodyExcerpt(t *testing.T) {
	t.Run("short body kept whole", func(t *testing.T) {
		err := FromStatus(500, "Test API", "https://api.example.com/x", "", "short body")
		assert.Equal(t, "short body", err.Details["response_body"])
	})

	t.Run("long body truncated", func(t *testing.T) {
		body := strings.Repeat("a", maxExcerptLen+100)
		err := FromStatus(500, "Test API", "https://api.example.com/x", "", body)
		assert.Len(t, err.Details["response_body"], maxExcerptLen)
	})

	t.Run("truncation never splits a rune", func(t *testing.T) {
		// Place a two-byte rune straddling the excerpt boundary.
		body := strings.Repeat("a", maxExcerptLen-1) + "é" + strings.Repeat("b", 100)
		err := FromStatus(500, "Test API", "https://api.example.com/x", "", body)

		stored, ok := err.Details["response_body"].(string)
		require.True(t, ok)
		assert.True(t, utf8.ValidString(stored))
		assert.Equal(t, strings.Repeat("a", maxExcerptLen-1), stored)
	})
}

func TestFromStatus_RetryAfter(t *testing.T) {
	t.Run("integer header is parsed", func(t *testing.T) {
		err := FromStatus(429, "Test API", "https://api.example.com", "7", "")
		require.NotNil(t, err.RetryAfter)
		assert.Equal(t, 7*time.Second, *err.RetryAfter)
	})

	t.Run("non-integer header is ignored", func(t *testing.T) {
		err := FromStatus(429, "Test API", "https://api.example.com", "Wed, 21 Oct 2026 07:28:00 GMT", "")
		assert.Nil(t, err.RetryAfter)
	})

	t.Run("missing header is ignored", func(t *testing.T) {
		err := FromStatus(429, "Test API", "https://api.example.com", "", "")
		assert.Nil(t, err.RetryAfter)
	})
}

func TestKindMatches(t *testing.T) {
	tests := []struct {
		kind   Kind
		target Kind
		want   bool
	}{
		{KindTimeout, KindNetwork, true},
		{KindTimeout, KindAPI, true},
		{KindNetwork, KindTimeout, false},
		{KindAuthentication, KindClient, true},
		{KindNotFound, KindClient, true},
		{KindValidation, KindClient, true},
		{KindClient, KindAuthentication, false},
		{KindRateLimit, KindAPI, true},
		{KindDataParsing, KindAPI, false},
		{KindStore, KindStore, true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s_matches_%s", tt.kind, tt.target), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.Matches(tt.target))
		})
	}
}

func TestErrorIs(t *testing.T) {
	err := New(KindTimeout, "request timed out")

	assert.True(t, Is(err, &Error{Kind: KindNetwork}))
	assert.True(t, Is(err, &Error{Kind: KindAPI}))
	assert.False(t, Is(err, &Error{Kind: KindServer}))
}

func TestErrorWrappingPreservesKind(t *testing.T) {
	cause := New(KindRateLimit, "rate limit exceeded", WithRetryAfter(5*time.Second))
	wrapped := Wrap(cause, "fetching law list")

	assert.True(t, IsKind(wrapped, KindRateLimit))
	assert.Equal(t, KindRateLimit, KindOf(wrapped))

	var e *Error
	require.True(t, As(wrapped, &e))
	require.NotNil(t, e.RetryAfter)
	assert.Equal(t, 5*time.Second, *e.RetryAfter)
}

func TestErrorMessageFormat(t *testing.T) {
	plain := New(KindStore, "put failed")
	assert.Equal(t, "store: put failed", plain.Error())

	withCause := New(KindStore, "put failed", WithCause(fmt.Errorf("socket closed")))
	assert.Equal(t, "store: put failed: socket closed", withCause.Error())
}

func TestErrorLoggedExactlyOnceAtConstruction(t *testing.T) {
	handler := &countingHandler{}
	SetLogger(slog.New(handler))
	defer SetLogger(slog.Default())

	err := New(KindServer, "upstream exploded", WithStatus(503))
	assert.Equal(t, int64(1), handler.count.Load())

	// Re-wrapping at higher layers must not log again.
	_ = Wrap(Wrap(err, "mid level"), "top level")
	assert.Equal(t, int64(1), handler.count.Load())
}

func TestStatusOf(t *testing.T) {
	err := FromStatus(503, "Test API", "https://api.example.com", "", "")
	assert.Equal(t, 503, StatusOf(Wrap(err, "context")))
	assert.Equal(t, 0, StatusOf(fmt.Errorf("plain")))
}
