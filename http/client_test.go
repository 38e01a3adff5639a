package http

import (
	"context"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/go-netclient/retry"
)

// scriptedTransport returns canned outcomes in order, recording attempts.
type scriptedTransport struct {
	mu       sync.Mutex
	script   []scriptedOutcome
	attempts int
}

type scriptedOutcome struct {
	status int
	body   string
	err    error
}

func (st *scriptedTransport) Attempt(_ context.Context, req *nethttp.Request) (*nethttp.Response, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	out := st.script[len(st.script)-1]
	if st.attempts < len(st.script) {
		out = st.script[st.attempts]
	}
	st.attempts++

	if out.err != nil {
		return nil, out.err
	}
	return &nethttp.Response{
		StatusCode: out.status,
		Body:       io.NopCloser(strings.NewReader(out.body)),
		Header:     nethttp.Header{},
		Request:    req,
	}, nil
}

func (st *scriptedTransport) CloseIdleConnections() {}

func (st *scriptedTransport) Attempts() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.attempts
}

func scriptedClient(t *testing.T, cfg SessionConfig, script ...scriptedOutcome) (*Client, *scriptedTransport) {
	t.Helper()
	st := &scriptedTransport{script: script}
	registry := NewRegistryWithTransport(testLogger(), func(SessionConfig) Transport {
		return st
	})
	c := NewClientWithRegistry(registry, testLogger())
	require.NoError(t, c.CreateOrReplaceSession("https://example.com", cfg))
	return c, st
}

func linearPolicy(limit int, base time.Duration) retry.Policy {
	return retry.Policy{Type: retry.Linear, RetryLimit: limit, BackoffBase: base, BackoffScale: 1}
}

func TestDoUnknownSessionFails(t *testing.T) {
	c := NewClient(testLogger())

	_, err := c.Get(context.Background(), "https://example.com", "/v1/users", nil)
	require.Error(t, err)
	assert.True(t, IsErrorType(err, NotFoundError))
}

func TestJoinURL(t *testing.T) {
	tests := []struct {
		base, endpoint, want string
	}{
		{"https://example.com", "/v1/users/", "https://example.com/v1/users"},
		{"https://example.com", "v1/users", "https://example.com/v1/users"},
		{"https://example.com/api", "/users", "https://example.com/api/users"},
		{"https://example.com", "", "https://example.com"},
		{"https://example.com", "/", "https://example.com"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, JoinURL(tt.base, tt.endpoint))
	}
}

func TestRetryLimitNeverExceeded(t *testing.T) {
	cfg := DefaultSessionConfig()
	cfg.RetryPolicy = linearPolicy(2, time.Millisecond)
	c, st := scriptedClient(t, cfg, scriptedOutcome{err: assert.AnError})

	_, err := c.Get(context.Background(), "https://example.com", "/v1/users", nil)

	require.Error(t, err)
	assert.True(t, IsErrorType(err, TransportError))
	// retryLimit = 2 means exactly 3 total attempts, never 4
	assert.Equal(t, 3, st.Attempts())
}

func TestLinearRetryRecoversAfterTransportFailures(t *testing.T) {
	cfg := DefaultSessionConfig()
	cfg.RetryPolicy = linearPolicy(2, 5*time.Millisecond)
	c, st := scriptedClient(t, cfg,
		scriptedOutcome{err: assert.AnError},
		scriptedOutcome{err: assert.AnError},
		scriptedOutcome{status: 200, body: `{"ok":true}`},
	)

	start := time.Now()
	resp, err := c.Get(context.Background(), "https://example.com", "/v1/users", nil)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, 3, st.Attempts())
	assert.Equal(t, 3, resp.Stats.Attempts)
	assert.True(t, resp.OK)
	assert.Equal(t, `{"ok":true}`, string(resp.Body))
	// two linear waits of 5ms each
	assert.GreaterOrEqual(t, elapsed, 10*time.Millisecond)
}

func TestNoRetryPolicyFailsImmediately(t *testing.T) {
	c, st := scriptedClient(t, DefaultSessionConfig(), scriptedOutcome{err: assert.AnError})

	_, err := c.Get(context.Background(), "https://example.com", "/v1/users", nil)

	require.Error(t, err)
	assert.Equal(t, 1, st.Attempts())
}

func TestHTTPErrorCarriesFullResponse(t *testing.T) {
	c, _ := scriptedClient(t, DefaultSessionConfig(),
		scriptedOutcome{status: 422, body: `{"error":"invalid"}`},
	)

	resp, err := c.Post(context.Background(), "https://example.com", "/v1/users", nil)

	require.Error(t, err)
	assert.True(t, IsErrorType(err, HTTPError))
	require.NotNil(t, resp)
	assert.Equal(t, 422, resp.StatusCode)
	assert.False(t, resp.OK)

	carried := ErrorResponse(err)
	require.NotNil(t, carried)
	assert.Equal(t, `{"error":"invalid"}`, string(carried.Body))
}

func TestPostNotRetriedByDefault(t *testing.T) {
	cfg := DefaultSessionConfig()
	cfg.RetryPolicy = linearPolicy(3, time.Millisecond)
	c, st := scriptedClient(t, cfg, scriptedOutcome{status: 503})

	_, err := c.Post(context.Background(), "https://example.com", "/v1/users", nil)

	require.Error(t, err)
	assert.Equal(t, 1, st.Attempts())
}

func TestPostRetriedWhenPolicyOptsIn(t *testing.T) {
	cfg := DefaultSessionConfig()
	policy := linearPolicy(3, time.Millisecond)
	policy.RetryAllMethods = true
	cfg.RetryPolicy = policy
	c, st := scriptedClient(t, cfg,
		scriptedOutcome{status: 503},
		scriptedOutcome{status: 201, body: "created"},
	)

	resp, err := c.Post(context.Background(), "https://example.com", "/v1/users", nil)

	require.NoError(t, err)
	assert.Equal(t, 2, st.Attempts())
	assert.Equal(t, 201, resp.StatusCode)
}

func TestRequestPolicyOverridesSessionPolicy(t *testing.T) {
	cfg := DefaultSessionConfig()
	cfg.RetryPolicy = linearPolicy(5, time.Millisecond)
	c, st := scriptedClient(t, cfg, scriptedOutcome{status: 500})

	none := retry.Policy{Type: retry.None}
	_, err := c.Get(context.Background(), "https://example.com", "/v1/users", &RequestOptions{
		RetryPolicy: &none,
	})

	require.Error(t, err)
	assert.Equal(t, 1, st.Attempts())
}

func TestCancellationDuringRetryWait(t *testing.T) {
	cfg := DefaultSessionConfig()
	cfg.RetryPolicy = linearPolicy(5, 10*time.Second)
	c, st := scriptedClient(t, cfg, scriptedOutcome{err: assert.AnError})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := c.Get(ctx, "https://example.com", "/v1/users", nil)

	require.Error(t, err)
	assert.True(t, IsErrorType(err, TransportError))
	assert.Equal(t, 1, st.Attempts())
	assert.Less(t, time.Since(start), time.Second)
}

func TestInvalidSerializableBodyFails(t *testing.T) {
	c, _ := scriptedClient(t, DefaultSessionConfig(), scriptedOutcome{status: 200})

	_, err := c.Post(context.Background(), "https://example.com", "/v1/users", &RequestOptions{
		Body: func() {},
	})

	require.Error(t, err)
	assert.True(t, IsErrorType(err, ConfigurationError))
}

// Wire-level behavior against a real server and the default transport.

func newWireClient(t *testing.T, server *httptest.Server, cfg SessionConfig) *Client {
	t.Helper()
	c := NewClient(testLogger())
	require.NoError(t, c.CreateOrReplaceSession(server.URL, cfg))
	return c
}

func TestWireHeaderMergeAndConnectionClose(t *testing.T) {
	var got nethttp.Header
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		got = r.Header.Clone()
		w.WriteHeader(nethttp.StatusOK)
	}))
	defer server.Close()

	cfg := DefaultSessionConfig()
	cfg.Headers = map[string]string{"X-Foo": "a", "X-Session": "s"}
	c := newWireClient(t, server, cfg)

	_, err := c.Get(context.Background(), server.URL, "/v1/users", &RequestOptions{
		Headers: map[string]string{"x-foo": "b"},
	})
	require.NoError(t, err)

	assert.Equal(t, "b", got.Get("X-Foo"))
	assert.Equal(t, "s", got.Get("X-Session"))
	assert.Equal(t, "close", got.Get("Connection"))
}

func TestWireBodyEncoding(t *testing.T) {
	var body []byte
	var contentType string
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		body, _ = io.ReadAll(r.Body)
		contentType = r.Header.Get("Content-Type")
		w.WriteHeader(nethttp.StatusOK)
	}))
	defer server.Close()

	c := newWireClient(t, server, DefaultSessionConfig())

	t.Run("string body verbatim", func(t *testing.T) {
		_, err := c.Post(context.Background(), server.URL, "/echo", &RequestOptions{Body: "raw text"})
		require.NoError(t, err)
		assert.Equal(t, "raw text", string(body))
	})

	t.Run("struct body serialized to JSON", func(t *testing.T) {
		_, err := c.Post(context.Background(), server.URL, "/echo", &RequestOptions{
			Body: map[string]string{"name": "alice"},
		})
		require.NoError(t, err)
		assert.JSONEq(t, `{"name":"alice"}`, string(body))
		assert.Equal(t, "application/json", contentType)
	})

	t.Run("absent body is empty not nil", func(t *testing.T) {
		_, err := c.Post(context.Background(), server.URL, "/echo", nil)
		require.NoError(t, err)
		assert.Empty(t, body)
	})
}

func TestWireRedirectResolvesLastRequestedURL(t *testing.T) {
	mux := nethttp.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/old", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		nethttp.Redirect(w, r, "/new", nethttp.StatusFound)
	})
	mux.HandleFunc("/new", func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		w.WriteHeader(nethttp.StatusOK)
	})

	c := newWireClient(t, server, DefaultSessionConfig())

	resp, err := c.Get(context.Background(), server.URL, "/old", nil)
	require.NoError(t, err)
	assert.True(t, resp.OK)
	assert.Equal(t, server.URL+"/new", resp.LastRequestedURL)
}

func TestWireRedirectsDisabledTreats3xxAsSuccess(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		nethttp.Redirect(w, r, "/elsewhere", nethttp.StatusFound)
	}))
	defer server.Close()

	cfg := DefaultSessionConfig()
	cfg.FollowRedirects = false
	c := newWireClient(t, server, cfg)

	resp, err := c.Get(context.Background(), server.URL, "/old", nil)
	require.NoError(t, err)
	assert.Equal(t, nethttp.StatusFound, resp.StatusCode)
	assert.True(t, resp.OK)
	assert.Equal(t, server.URL+"/old", resp.LastRequestedURL)
}

func TestWireResponseHeadersFlattened(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		w.Header().Add("X-Multi", "one")
		w.Header().Add("X-Multi", "two")
		w.WriteHeader(nethttp.StatusOK)
	}))
	defer server.Close()

	c := newWireClient(t, server, DefaultSessionConfig())

	resp, err := c.Get(context.Background(), server.URL, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "one, two", resp.Headers["X-Multi"])
}

// blockingTransport holds every attempt until released, tracking the peak
// number of concurrent attempts.
type blockingTransport struct {
	mu      sync.Mutex
	active  int
	peak    int
	release chan struct{}
}

func (bt *blockingTransport) Attempt(_ context.Context, req *nethttp.Request) (*nethttp.Response, error) {
	bt.mu.Lock()
	bt.active++
	if bt.active > bt.peak {
		bt.peak = bt.active
	}
	bt.mu.Unlock()

	<-bt.release

	bt.mu.Lock()
	bt.active--
	bt.mu.Unlock()

	return &nethttp.Response{
		StatusCode: nethttp.StatusOK,
		Body:       io.NopCloser(strings.NewReader("")),
		Header:     nethttp.Header{},
		Request:    req,
	}, nil
}

func (bt *blockingTransport) CloseIdleConnections() {}

func TestMaxConnectionsPerHostCapsConcurrency(t *testing.T) {
	bt := &blockingTransport{release: make(chan struct{})}
	registry := NewRegistryWithTransport(testLogger(), func(SessionConfig) Transport {
		return bt
	})
	c := NewClientWithRegistry(registry, testLogger())

	cfg := DefaultSessionConfig()
	cfg.MaxConnectionsPerHost = 2
	require.NoError(t, c.CreateOrReplaceSession("https://example.com", cfg))

	var wg sync.WaitGroup
	for range 6 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Get(context.Background(), "https://example.com", "/v1/users", nil)
			assert.NoError(t, err)
		}()
	}

	// let the first wave reach the transport before opening the gate
	require.Eventually(t, func() bool {
		bt.mu.Lock()
		defer bt.mu.Unlock()
		return bt.active == 2
	}, 2*time.Second, time.Millisecond)
	close(bt.release)
	wg.Wait()

	bt.mu.Lock()
	defer bt.mu.Unlock()
	assert.Equal(t, 2, bt.peak)
}
