package http

import (
	"context"
	"crypto/tls"
	nethttp "net/http"
)

// netTransport is the default Transport, backed by net/http.
type netTransport struct {
	client *nethttp.Client
	inner  *nethttp.Transport
}

// NewTransport builds the default net/http-backed Transport for a session.
// Redirect following, compression, per-host connection caps and certificate
// validation are fixed at construction from the session configuration.
func NewTransport(cfg SessionConfig) Transport {
	inner := &nethttp.Transport{
		Proxy:              nethttp.ProxyFromEnvironment,
		MaxConnsPerHost:    maxConns(cfg.MaxConnectionsPerHost),
		DisableCompression: !cfg.EnableCompression,
		TLSClientConfig:    tlsConfig(cfg.SSLPinning),
	}

	client := &nethttp.Client{Transport: inner}
	if !cfg.FollowRedirects {
		client.CheckRedirect = func(_ *nethttp.Request, _ []*nethttp.Request) error {
			return nethttp.ErrUseLastResponse
		}
	}

	return &netTransport{client: client, inner: inner}
}

func (t *netTransport) Attempt(ctx context.Context, req *nethttp.Request) (*nethttp.Response, error) {
	return t.client.Do(req.WithContext(ctx))
}

func (t *netTransport) CloseIdleConnections() {
	t.inner.CloseIdleConnections()
}

func maxConns(configured int) int {
	switch {
	case configured > 0:
		return configured
	case configured < 0:
		return 0 // unlimited
	default:
		return DefaultMaxConnectionsPerHost
	}
}

func tlsConfig(pinning SSLPinningConfig) *tls.Config {
	if !pinning.Enabled {
		return nil
	}
	return &tls.Config{
		InsecureSkipVerify: pinning.AllowSelfSigned, //nolint:gosec // explicit opt-in
	}
}
