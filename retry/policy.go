// Package retry implements the backoff policy engine used by the HTTP
// request executor. Decide is a pure function: it never sleeps and holds
// no state, so policies are testable without timers.
package retry

import (
	"fmt"
	"math"
	"net/http"
	"time"
)

// Type identifies the backoff strategy of a policy.
type Type string

const (
	// None disables retries entirely.
	None Type = "none"
	// Linear waits a constant BackoffBase between attempts.
	Linear Type = "linear"
	// Exponential waits BackoffBase * BackoffScale^n before the n-th retry
	// (zero-indexed: the delay before the second attempt uses exponent 0).
	Exponential Type = "exponential"
)

// Policy governs whether and when a failed attempt is retried.
// It is attached to a session as the default and may be replaced
// wholesale by a per-request override.
type Policy struct {
	Type        Type
	RetryLimit  int
	BackoffBase time.Duration
	BackoffScale float64

	// RetryAllMethods permits retrying non-idempotent methods (POST, PATCH).
	// Off by default: replaying a write that may have reached the server
	// risks duplicate side effects.
	RetryAllMethods bool

	// RetryStatusCodes narrows which HTTP status codes are retried.
	// Empty means every status >= 400 is eligible.
	RetryStatusCodes []int
}

// Decision is the engine's verdict for one failed attempt. Delay is
// advisory: the caller performs the actual wait.
type Decision struct {
	Retry bool
	Delay time.Duration
}

// Outcome classifies the result of one attempt for retry eligibility.
type Outcome struct {
	// Err is the transport-level failure, nil when a response was received.
	Err error
	// StatusCode is the HTTP status of the received response, 0 when Err is set.
	StatusCode int
	// Method is the HTTP method of the attempt.
	Method string
}

// Validate rejects malformed policies. It is called at session-creation
// time so Decide can assume a well-formed policy.
func (p Policy) Validate() error {
	switch p.Type {
	case None, Linear, Exponential, "":
	default:
		return fmt.Errorf("unknown retry policy type %q", p.Type)
	}
	if p.RetryLimit < 0 {
		return fmt.Errorf("retry limit must be non-negative, got %d", p.RetryLimit)
	}
	if p.Type == None || p.Type == "" {
		return nil
	}
	if p.BackoffBase <= 0 {
		return fmt.Errorf("backoff base must be positive, got %v", p.BackoffBase)
	}
	if p.BackoffScale <= 0 || math.IsNaN(p.BackoffScale) || math.IsInf(p.BackoffScale, 0) {
		return fmt.Errorf("backoff scale must be a positive finite number, got %v", p.BackoffScale)
	}
	return nil
}

// Decide reports whether the attempt described by outcome should be retried
// and how long to wait first. attempt counts completed failed attempts and
// is zero-indexed at the first retry decision.
func Decide(p Policy, attempt int, outcome Outcome) Decision {
	if p.Type == None || p.Type == "" || attempt >= p.RetryLimit {
		return Decision{}
	}
	if !p.retryable(outcome) {
		return Decision{}
	}
	return Decision{Retry: true, Delay: p.delay(attempt)}
}

func (p Policy) delay(attempt int) time.Duration {
	switch p.Type {
	case Linear:
		return p.BackoffBase
	case Exponential:
		return time.Duration(float64(p.BackoffBase) * math.Pow(p.BackoffScale, float64(attempt)))
	default:
		return 0
	}
}

func (p Policy) retryable(outcome Outcome) bool {
	if !p.RetryAllMethods && !idempotent(outcome.Method) {
		return false
	}
	if outcome.Err != nil {
		return true
	}
	if outcome.StatusCode < http.StatusBadRequest {
		return false
	}
	if len(p.RetryStatusCodes) == 0 {
		return true
	}
	for _, code := range p.RetryStatusCodes {
		if code == outcome.StatusCode {
			return true
		}
	}
	return false
}

// idempotent reports whether method is safe to replay per RFC 7231 §4.2.2.
func idempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPut,
		http.MethodDelete, http.MethodOptions, http.MethodTrace, "":
		return true
	default:
		return false
	}
}
