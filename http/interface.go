package http

import (
	"context"
	nethttp "net/http"
	"time"

	"github.com/gaborage/go-netclient/retry"
)

const (
	// DefaultTimeoutRequest bounds a single attempt when the session does not
	// configure its own value.
	DefaultTimeoutRequest = 30 * time.Second

	// DefaultTimeoutResource bounds the whole request including retries.
	DefaultTimeoutResource = 5 * time.Minute

	// DefaultMaxConnectionsPerHost caps concurrent attempts per session.
	DefaultMaxConnectionsPerHost = 10
)

// SSLPinningConfig controls certificate validation for a session.
// Pin verification itself is delegated to the transport.
type SSLPinningConfig struct {
	Enabled         bool
	AllowSelfSigned bool
}

// SessionConfig is the session-level configuration installed by
// CreateOrReplaceSession. Use DefaultSessionConfig for documented defaults;
// the zero value disables redirect following and applies default timeouts.
type SessionConfig struct {
	// FollowRedirects enables transparent redirect following.
	FollowRedirects bool
	// TimeoutRequest bounds each individual attempt.
	TimeoutRequest time.Duration
	// TimeoutResource bounds the entire call including retry waits.
	TimeoutResource time.Duration
	// MaxConnectionsPerHost caps concurrent attempts through this session.
	// Zero applies DefaultMaxConnectionsPerHost; negative means unlimited.
	MaxConnectionsPerHost int
	// RequestsPerSecond throttles attempts through this session.
	// Zero means unthrottled.
	RequestsPerSecond float64
	// RetryPolicy is the session default, replaceable per request.
	RetryPolicy retry.Policy
	// Headers are the session default headers.
	Headers map[string]string
	// EnableCompression requests compressed transfer encoding.
	EnableCompression bool
	// SSLPinning configures certificate validation.
	SSLPinning SSLPinningConfig
}

// DefaultSessionConfig returns the documented default session configuration:
// redirects followed, 30s per attempt, 5m per call, 10 connections per host,
// no throttle, no retries.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		FollowRedirects:       true,
		TimeoutRequest:        DefaultTimeoutRequest,
		TimeoutResource:       DefaultTimeoutResource,
		MaxConnectionsPerHost: DefaultMaxConnectionsPerHost,
		RetryPolicy:           retry.Policy{Type: retry.None},
	}
}

// RequestOptions carries per-call overrides. A nil *RequestOptions is valid
// and means "session defaults only".
type RequestOptions struct {
	// Headers overlay the session headers, last write wins, keys compared
	// case-insensitively.
	Headers map[string]string
	// Timeout overrides the per-attempt watchdog for this call only. It does
	// not alter the session's timeouts.
	Timeout time.Duration
	// RetryPolicy, when set, fully replaces the session policy for this call.
	RetryPolicy *retry.Policy
	// Body is the request payload: a string or []byte is sent verbatim, any
	// other value is serialized to JSON. Nil means an empty body.
	Body any
}

// Response is the terminal result of a request.
type Response struct {
	// StatusCode is the HTTP status of the final attempt.
	StatusCode int
	// Body is the buffered response payload.
	Body []byte
	// Headers are the response headers, multi-valued headers joined by ", ".
	Headers map[string]string
	// OK reports whether the status is in the 200-399 range.
	OK bool
	// LastRequestedURL is the final resolved URL, which may differ from the
	// requested URL after redirects.
	LastRequestedURL string
	// Stats carries execution metadata.
	Stats Stats
}

// Stats contains request execution statistics.
type Stats struct {
	ElapsedTime time.Duration
	Attempts    int
}

// Transport is the attempt-level send/receive capability a session runs on.
// Implementations must honor ctx cancellation.
type Transport interface {
	Attempt(ctx context.Context, req *nethttp.Request) (*nethttp.Response, error)
	// CloseIdleConnections releases pooled connections; called when the
	// owning session is replaced or invalidated.
	CloseIdleConnections()
}
