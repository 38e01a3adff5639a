package http

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/go-netclient/retry"
)

func sessionForMerge() (SessionConfig, Headers) {
	cfg := DefaultSessionConfig()
	cfg.RetryPolicy = retry.Policy{Type: retry.Linear, RetryLimit: 2, BackoffBase: time.Second, BackoffScale: 1}

	h := NewHeaders()
	h.Set("X-Foo", "a")
	h.Set("Accept", "application/json")
	return cfg, h
}

func TestMergeHeadersLastWriteWinsCaseInsensitive(t *testing.T) {
	cfg, headers := sessionForMerge()

	eff := Merge(cfg, headers, &RequestOptions{
		Headers: map[string]string{"x-foo": "b"},
	})

	v, ok := eff.Headers.Get("X-Foo")
	require.True(t, ok)
	assert.Equal(t, "b", v)
	v, _ = eff.Headers.Get("Accept")
	assert.Equal(t, "application/json", v)
}

func TestMergeForcesConnectionClose(t *testing.T) {
	cfg, headers := sessionForMerge()

	tests := []struct {
		name string
		opts *RequestOptions
	}{
		{"no options", nil},
		{"caller tries keep-alive", &RequestOptions{Headers: map[string]string{"Connection": "keep-alive"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eff := Merge(cfg, headers, tt.opts)
			v, ok := eff.Headers.Get("Connection")
			require.True(t, ok)
			assert.Equal(t, "close", v)
		})
	}
}

func TestMergeTimeoutOverridesAttemptWatchdogOnly(t *testing.T) {
	cfg, headers := sessionForMerge()
	cfg.TimeoutRequest = 10 * time.Second

	eff := Merge(cfg, headers, &RequestOptions{Timeout: 2 * time.Second})
	assert.Equal(t, 2*time.Second, eff.Timeout)

	// absent override inherits the session value
	eff = Merge(cfg, headers, nil)
	assert.Equal(t, 10*time.Second, eff.Timeout)
}

func TestMergeRetryPolicyReplacedWholesale(t *testing.T) {
	cfg, headers := sessionForMerge()

	override := retry.Policy{Type: retry.Exponential, RetryLimit: 5, BackoffBase: 100 * time.Millisecond, BackoffScale: 2}
	eff := Merge(cfg, headers, &RequestOptions{RetryPolicy: &override})

	assert.Equal(t, override, eff.RetryPolicy)
	// no field-by-field merge: the session's linear settings are gone
	assert.NotEqual(t, cfg.RetryPolicy.Type, eff.RetryPolicy.Type)
}

func TestMergeSessionScopedFieldsNotOverridable(t *testing.T) {
	cfg, headers := sessionForMerge()
	cfg.FollowRedirects = false
	cfg.SSLPinning = SSLPinningConfig{Enabled: true}

	eff := Merge(cfg, headers, &RequestOptions{})
	assert.False(t, eff.FollowRedirects)
	assert.True(t, eff.SSLPinning.Enabled)
}

func TestMergeIsIdempotent(t *testing.T) {
	cfg, headers := sessionForMerge()
	opts := &RequestOptions{
		Headers: map[string]string{"x-foo": "b", "X-Extra": "1"},
		Timeout: 3 * time.Second,
	}

	first := Merge(cfg, headers, opts)
	second := Merge(cfg, headers, opts)

	assert.Equal(t, first.Headers.Map(), second.Headers.Map())
	assert.Equal(t, first.Timeout, second.Timeout)
	assert.Equal(t, first.RetryPolicy, second.RetryPolicy)
}

func TestMergeDoesNotMutateSessionHeaders(t *testing.T) {
	cfg, headers := sessionForMerge()

	Merge(cfg, headers, &RequestOptions{Headers: map[string]string{"X-Foo": "b"}})

	v, _ := headers.Get("X-Foo")
	assert.Equal(t, "a", v)
	_, ok := headers.Get("Connection")
	assert.False(t, ok)
}

func TestMergeDefaultsTimeoutWhenUnset(t *testing.T) {
	eff := Merge(SessionConfig{}, NewHeaders(), nil)
	assert.Equal(t, DefaultTimeoutRequest, eff.Timeout)
}
