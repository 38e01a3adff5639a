package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gaborage/go-netclient/logger"
	"github.com/gaborage/go-netclient/retry"
)

// Client issues HTTP requests through named sessions. All verb helpers
// resolve the session by base URL, merge per-request options and run the
// retry-aware attempt loop.
type Client struct {
	registry *Registry
	log      logger.Logger
}

// NewClient creates a client with its own session registry on the default
// net/http transport.
func NewClient(log logger.Logger) *Client {
	return &Client{registry: NewRegistry(log), log: log}
}

// NewClientWithRegistry creates a client on an existing registry. Used when
// the registry is shared or built with a custom transport factory.
func NewClientWithRegistry(registry *Registry, log logger.Logger) *Client {
	return &Client{registry: registry, log: log}
}

// Registry exposes the client's session registry.
func (c *Client) Registry() *Registry {
	return c.registry
}

// CreateOrReplaceSession registers a session for baseURL, replacing any
// existing one.
func (c *Client) CreateOrReplaceSession(baseURL string, cfg SessionConfig) error {
	return c.registry.CreateOrReplace(baseURL, cfg)
}

// SessionHeaders returns the default headers of the session for baseURL.
func (c *Client) SessionHeaders(baseURL string) (map[string]string, error) {
	return c.registry.SessionHeaders(baseURL)
}

// AddSessionHeaders merges headers into the session for baseURL.
func (c *Client) AddSessionHeaders(baseURL string, headers map[string]string) error {
	return c.registry.AddHeaders(baseURL, headers)
}

// InvalidateSession removes the session for baseURL. Unknown keys are a no-op.
func (c *Client) InvalidateSession(baseURL string) error {
	return c.registry.Invalidate(baseURL)
}

// Get performs a GET request through the session for baseURL.
func (c *Client) Get(ctx context.Context, baseURL, endpoint string, opts *RequestOptions) (*Response, error) {
	return c.Do(ctx, nethttp.MethodGet, baseURL, endpoint, opts)
}

// Put performs a PUT request through the session for baseURL.
func (c *Client) Put(ctx context.Context, baseURL, endpoint string, opts *RequestOptions) (*Response, error) {
	return c.Do(ctx, nethttp.MethodPut, baseURL, endpoint, opts)
}

// Post performs a POST request through the session for baseURL.
func (c *Client) Post(ctx context.Context, baseURL, endpoint string, opts *RequestOptions) (*Response, error) {
	return c.Do(ctx, nethttp.MethodPost, baseURL, endpoint, opts)
}

// Patch performs a PATCH request through the session for baseURL.
func (c *Client) Patch(ctx context.Context, baseURL, endpoint string, opts *RequestOptions) (*Response, error) {
	return c.Do(ctx, nethttp.MethodPatch, baseURL, endpoint, opts)
}

// Delete performs a DELETE request through the session for baseURL.
func (c *Client) Delete(ctx context.Context, baseURL, endpoint string, opts *RequestOptions) (*Response, error) {
	return c.Do(ctx, nethttp.MethodDelete, baseURL, endpoint, opts)
}

// Do performs an HTTP request with the specified method through the session
// registered for baseURL.
func (c *Client) Do(ctx context.Context, method, baseURL, endpoint string, opts *RequestOptions) (*Response, error) {
	sess, err := c.registry.Get(baseURL)
	if err != nil {
		return nil, err
	}

	body, contentType, err := encodeBody(opts)
	if err != nil {
		return nil, err
	}

	eff := Merge(sess.Config(), sess.Headers(), opts)
	target := JoinURL(sess.BaseURL(), endpoint)

	return c.execute(ctx, sess, eff, method, target, payload{
		open: func() (io.Reader, int64, string, error) {
			return bytes.NewReader(body), int64(len(body)), contentType, nil
		},
	})
}

// payload supplies a fresh body reader per attempt so retries never re-read
// a drained stream.
type payload struct {
	// open returns the reader, the content length (-1 when unknown) and a
	// Content-Type hint applied only when the merged headers carry none.
	open func() (io.Reader, int64, string, error)
}

// execute runs the attempt loop: one transport attempt, then a retry
// decision, then an interruptible wait. The wait is the sole suspension
// point; cancellation is honored only at attempt boundaries.
func (c *Client) execute(ctx context.Context, sess *Session, eff EffectiveConfig, method, target string, body payload) (*Response, error) {
	total := sess.Config().TimeoutResource
	if total <= 0 {
		total = DefaultTimeoutResource
	}
	ctx, cancel := context.WithTimeout(ctx, total)
	defer cancel()

	requestID := uuid.NewString()
	start := time.Now()

	for attempt := 0; ; attempt++ {
		c.logAttempt(requestID, method, target, attempt, eff)

		resp, outcome, fatal := c.attemptOnce(ctx, sess, eff, method, target, body)
		if fatal != nil {
			return nil, fatal
		}
		if resp != nil && resp.OK {
			resp.Stats = Stats{ElapsedTime: time.Since(start), Attempts: attempt + 1}
			c.logResponse(requestID, resp)
			return resp, nil
		}

		decision := retry.Decide(eff.RetryPolicy, attempt, outcome)
		if !decision.Retry {
			if outcome.Err != nil {
				return nil, NewTransportError("request execution failed", outcome.Err)
			}
			resp.Stats = Stats{ElapsedTime: time.Since(start), Attempts: attempt + 1}
			c.logResponse(requestID, resp)
			return resp, NewHTTPError(
				fmt.Sprintf("request failed with status %d", resp.StatusCode),
				resp,
			)
		}

		c.log.Debug().
			Str("request_id", requestID).
			Int("attempt", attempt).
			Dur("delay", decision.Delay).
			Msg("retrying request")

		select {
		case <-time.After(decision.Delay):
		case <-ctx.Done():
			return nil, NewTransportError("cancelled during retry wait", ctx.Err())
		}
	}
}

// attemptOnce performs a single transport attempt. A non-nil fatal error
// aborts the loop without consulting the retry policy.
func (c *Client) attemptOnce(ctx context.Context, sess *Session, eff EffectiveConfig, method, target string, body payload) (resp *Response, outcome retry.Outcome, fatal error) {
	outcome.Method = method

	if sess.conns != nil {
		if err := sess.conns.Acquire(ctx, 1); err != nil {
			outcome.Err = err
			return nil, outcome, nil
		}
		defer sess.conns.Release(1)
	}
	if sess.limiter != nil {
		if err := sess.limiter.Wait(ctx); err != nil {
			outcome.Err = err
			return nil, outcome, nil
		}
	}

	attemptCtx := ctx
	if eff.Timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, eff.Timeout)
		defer cancel()
	}

	reader, length, contentType, err := body.open()
	if err != nil {
		return nil, outcome, NewTransportError("failed to open request body", err)
	}

	req, err := nethttp.NewRequestWithContext(attemptCtx, method, target, reader)
	if err != nil {
		return nil, outcome, NewConfigurationError("failed to build request: "+err.Error(), "request")
	}
	if length >= 0 {
		req.ContentLength = length
	}
	eff.Headers.Each(func(k, v string) {
		req.Header.Set(k, v)
	})
	if contentType != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", contentType)
	}

	httpResp, err := sess.transport.Attempt(attemptCtx, req)
	if err != nil {
		c.log.Warn().
			Str("method", method).
			Str("url", target).
			Err(err).
			Msg("attempt failed")
		outcome.Err = err
		return nil, outcome, nil
	}

	resp, err = buildResponse(target, httpResp)
	if err != nil {
		outcome.Err = err
		return nil, outcome, nil
	}
	outcome.StatusCode = resp.StatusCode
	return resp, outcome, nil
}

// buildResponse buffers the body and flattens the response metadata.
func buildResponse(requested string, httpResp *nethttp.Response) (*Response, error) {
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	headers := make(map[string]string, len(httpResp.Header))
	for k, vals := range httpResp.Header {
		headers[k] = strings.Join(vals, ", ")
	}

	// After redirects the final URL may differ from the requested one.
	lastURL := requested
	if httpResp.Request != nil && httpResp.Request.URL != nil {
		lastURL = httpResp.Request.URL.String()
	}

	return &Response{
		StatusCode:       httpResp.StatusCode,
		Body:             data,
		Headers:          headers,
		OK:               IsSuccessStatus(httpResp.StatusCode),
		LastRequestedURL: lastURL,
	}, nil
}

// JoinURL joins a session base URL and an endpoint path with exactly one
// separator, stripping leading and trailing slashes from the endpoint.
func JoinURL(base, endpoint string) string {
	base = strings.TrimRight(base, "/")
	endpoint = strings.Trim(endpoint, "/")
	if endpoint == "" {
		return base
	}
	return base + "/" + endpoint
}

// encodeBody turns RequestOptions.Body into wire bytes. Strings and byte
// slices pass through verbatim; anything else is serialized to JSON. An
// absent body becomes an empty body, not nil.
func encodeBody(opts *RequestOptions) (data []byte, contentType string, err error) {
	if opts == nil || opts.Body == nil {
		return []byte{}, "", nil
	}
	switch b := opts.Body.(type) {
	case string:
		return []byte(b), "", nil
	case []byte:
		return b, "", nil
	default:
		encoded, err := json.Marshal(b)
		if err != nil {
			return nil, "", NewConfigurationError("body serialization failed: "+err.Error(), "body")
		}
		return encoded, "application/json", nil
	}
}

func (c *Client) logAttempt(requestID, method, target string, attempt int, eff EffectiveConfig) {
	c.log.Debug().
		Str("request_id", requestID).
		Str("direction", "outbound").
		Str("method", method).
		Str("url", target).
		Int("attempt", attempt).
		Interface("headers", eff.Headers.Map()).
		Msg("HTTP client request")
}

func (c *Client) logResponse(requestID string, resp *Response) {
	c.log.Info().
		Str("request_id", requestID).
		Str("direction", "inbound").
		Int("status", resp.StatusCode).
		Bool("ok", resp.OK).
		Str("url", resp.LastRequestedURL).
		Dur("elapsed", resp.Stats.ElapsedTime).
		Int("attempts", resp.Stats.Attempts).
		Msg("HTTP client response")
}
