package http

import (
	"time"

	"github.com/gaborage/go-netclient/retry"
)

// EffectiveConfig is the configuration governing one request, produced by
// merging session-level configuration with per-request overrides.
type EffectiveConfig struct {
	// Headers is the merged, ordered header set, with Connection: close forced.
	Headers Headers
	// Timeout is the per-attempt watchdog.
	Timeout time.Duration
	// RetryPolicy governs the attempt loop.
	RetryPolicy retry.Policy
	// FollowRedirects and SSLPinning are session-scoped; requests cannot
	// override them.
	FollowRedirects bool
	SSLPinning      SSLPinningConfig
}

// Merge combines session configuration and request options into the effective
// configuration for one call. It is a pure transform: no side effects, safe to
// call concurrently, and idempotent for identical inputs.
//
// Rules:
//   - Headers: session headers first, request headers overlaid key-by-key
//     (case-insensitive, last write wins), Connection: close forced last.
//   - Timeout: a request timeout governs only this call's attempt watchdog.
//   - Retry policy: a request policy replaces the session policy wholesale.
func Merge(cfg SessionConfig, sessionHeaders Headers, opts *RequestOptions) EffectiveConfig {
	eff := EffectiveConfig{
		Timeout:         cfg.TimeoutRequest,
		RetryPolicy:     cfg.RetryPolicy,
		FollowRedirects: cfg.FollowRedirects,
		SSLPinning:      cfg.SSLPinning,
	}
	if eff.Timeout <= 0 {
		eff.Timeout = DefaultTimeoutRequest
	}

	headers := sessionHeaders.Clone()
	if opts != nil {
		for k, v := range opts.Headers {
			headers.Set(k, v)
		}
		if opts.Timeout > 0 {
			eff.Timeout = opts.Timeout
		}
		if opts.RetryPolicy != nil {
			eff.RetryPolicy = *opts.RetryPolicy
		}
	}
	// Forced regardless of caller input: idle-connection reuse across
	// replaced sessions is ambiguous on some platforms.
	headers.Set("Connection", "close")
	eff.Headers = headers

	return eff
}
