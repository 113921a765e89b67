// Package errors provides the application error taxonomy. Errors carry a kind,
// a human-readable message, an optional wrapped cause and a structured detail map
// for diagnostics. Use cases raise these errors and the top-level workflow maps
// them to run outcomes.
package errors

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"
	"unicode/utf8"
)

// Kind identifies a category of failure.
type Kind string

// Error kinds, roughly ordered from transport-level to pipeline-level.
const (
	// KindAPI is the catch-all for unclassified API failures.
	KindAPI Kind = "api"
	// KindNetwork indicates a connection-level failure.
	KindNetwork Kind = "network"
	// KindTimeout indicates a request timed out. Subtype of KindNetwork.
	KindTimeout Kind = "timeout"
	// KindServer indicates an HTTP 5xx response.
	KindServer Kind = "server"
	// KindClient indicates an HTTP 4xx response not covered by a subtype.
	KindClient Kind = "client"
	// KindAuthentication indicates HTTP 401/403. Subtype of KindClient.
	KindAuthentication Kind = "authentication"
	// KindNotFound indicates HTTP 404. Subtype of KindClient.
	KindNotFound Kind = "not_found"
	// KindValidation indicates HTTP 422. Subtype of KindClient.
	KindValidation Kind = "validation"
	// KindRateLimit indicates HTTP 429 and may carry a Retry-After hint.
	KindRateLimit Kind = "rate_limit"
	// KindDataParsing indicates a response body that is not valid structured data.
	KindDataParsing Kind = "data_parsing"
	// KindDataIntegrity indicates structurally valid data missing a required field.
	KindDataIntegrity Kind = "data_integrity"
	// KindConfig indicates invalid or incomplete configuration.
	KindConfig Kind = "config"
	// KindStore indicates a key-value store failure.
	KindStore Kind = "store"
	// KindGeneration indicates a generation-layer failure (missing or malformed output).
	KindGeneration Kind = "generation"
	// KindPublishing indicates a social publishing failure.
	KindPublishing Kind = "publishing"
)

// kindParents encodes the taxonomy hierarchy used by Matches.
var kindParents = map[Kind]Kind{
	KindNetwork:        KindAPI,
	KindTimeout:        KindNetwork,
	KindServer:         KindAPI,
	KindClient:         KindAPI,
	KindAuthentication: KindClient,
	KindNotFound:       KindClient,
	KindValidation:     KindClient,
	KindRateLimit:      KindAPI,
	KindPublishing:     KindAPI,
}

// Matches reports whether k is other or a descendant of other in the taxonomy.
func (k Kind) Matches(other Kind) bool {
	for cur := k; ; {
		if cur == other {
			return true
		}
		parent, ok := kindParents[cur]
		if !ok {
			return false
		}
		cur = parent
	}
}

// Error is a classified application error. It is a side-effect-free value after
// construction; construction itself logs the error exactly once, so re-wrapping
// at higher layers never duplicates log lines.
type Error struct {
	// Kind categorizes the failure.
	Kind Kind
	// Message is the human-readable description.
	Message string
	// Details holds structured diagnostics (status code, URL, body excerpt).
	Details map[string]any
	// Status is the originating HTTP status code, if any.
	Status int
	// RetryAfter is the server-supplied retry hint parsed from a Retry-After
	// header. Only set on KindRateLimit errors with an integer header value.
	RetryAfter *time.Duration

	cause error
}

// logger receives one log line per constructed error.
var logger = slog.Default()

// SetLogger replaces the logger used to record error construction.
// Intended to be called once during application startup.
func SetLogger(l *slog.Logger) {
	if l != nil {
		logger = l
	}
}

// Option customizes an Error at construction time.
type Option func(*Error)

// WithCause attaches the underlying error.
func WithCause(err error) Option {
	return func(e *Error) { e.cause = err }
}

// WithDetail adds one structured diagnostic entry.
func WithDetail(key string, value any) Option {
	return func(e *Error) {
		if e.Details == nil {
			e.Details = make(map[string]any)
		}
		e.Details[key] = value
	}
}

// WithDetails merges a diagnostic map.
func WithDetails(details map[string]any) Option {
	return func(e *Error) {
		if e.Details == nil {
			e.Details = make(map[string]any, len(details))
		}
		for k, v := range details {
			e.Details[k] = v
		}
	}
}

// WithStatus records the originating HTTP status code.
func WithStatus(status int) Option {
	return func(e *Error) {
		e.Status = status
		if e.Details == nil {
			e.Details = make(map[string]any)
		}
		e.Details["status_code"] = status
	}
}

// WithRetryAfter records a server-supplied retry hint.
func WithRetryAfter(d time.Duration) Option {
	return func(e *Error) { e.RetryAfter = &d }
}

// New creates a classified error and logs it once at creation.
func New(kind Kind, message string, opts ...Option) *Error {
	e := &Error{Kind: kind, Message: message}
	for _, opt := range opts {
		opt(e)
	}

	attrs := []any{slog.String("kind", string(kind))}
	if e.cause != nil {
		attrs = append(attrs, slog.Any("cause", e.cause))
	}
	if len(e.Details) > 0 {
		attrs = append(attrs, slog.Any("details", e.Details))
	}
	logger.Error(e.Message, attrs...)

	return e
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the wrapped cause, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches against another *Error by kind, honoring the taxonomy hierarchy:
// a timeout error Is a network error, an authentication error Is a client error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Message != "" && t.Message != e.Message {
		return false
	}
	return e.Kind.Matches(t.Kind)
}

// KindOf returns the kind of the first *Error in err's tree, or an empty Kind.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err (or any error it wraps) carries the given kind,
// honoring the taxonomy hierarchy.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind.Matches(kind)
	}
	return false
}

// StatusOf returns the HTTP status code carried by err, or 0.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}

// FromStatus classifies a non-2xx HTTP response into an error kind:
//
//	401/403 -> authentication
//	404     -> not_found
//	422     -> validation
//	429     -> rate_limit (Retry-After header parsed when integer)
//	4xx     -> client
//	5xx     -> server
//	other   -> api
//
// The apiName, URL and a body excerpt are attached as diagnostic details.
func FromStatus(status int, apiName, url, retryAfterHeader, body string) *Error {
	message := fmt.Sprintf("%s request failed with status code %d", apiName, status)
	opts := []Option{
		WithStatus(status),
		WithDetail("url", url),
		WithDetail("response_body", excerpt(body)),
	}
	if secs, err := strconv.Atoi(retryAfterHeader); err == nil && secs >= 0 {
		opts = append(opts, WithRetryAfter(time.Duration(secs)*time.Second))
	}

	switch {
	case status == 401 || status == 403:
		return New(KindAuthentication, message+": authentication failed", opts...)
	case status == 404:
		return New(KindNotFound, message+": resource not found", opts...)
	case status == 422:
		return New(KindValidation, message+": validation failed", opts...)
	case status == 429:
		return New(KindRateLimit, message+": rate limit exceeded", opts...)
	case status >= 400 && status < 500:
		return New(KindClient, message+": client error", opts...)
	case status >= 500 && status < 600:
		return New(KindServer, message+": server error", opts...)
	default:
		return New(KindAPI, message+": unknown error", opts...)
	}
}

// maxExcerptLen bounds response body excerpts stored in error details.
const maxExcerptLen = 512

func excerpt(body string) string {
	if len(body) <= maxExcerptLen {
		return body
	}
	cut := maxExcerptLen
	// Back up to a rune boundary so the excerpt never ends mid-character.
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	return body[:cut]
}

// Wrap wraps an error with additional context while preserving the error chain.
// Use this to add context at each layer without losing the original error type.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Is reports whether any error in err's tree matches target.
// This is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
// This is a convenience wrapper around errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}
