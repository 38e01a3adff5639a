package ws

import (
	"context"
	"crypto/tls"
	nethttp "net/http"

	"github.com/gorilla/websocket"
)

// gorillaDial is the default DialFunc, backed by gorilla/websocket.
func gorillaDial(ctx context.Context, url string, headers nethttp.Header, cfg DialConfig) (Conn, *nethttp.Response, error) {
	dialer := &websocket.Dialer{
		Proxy:             nethttp.ProxyFromEnvironment,
		HandshakeTimeout:  cfg.HandshakeTimeout,
		Subprotocols:      cfg.Subprotocols,
		EnableCompression: cfg.EnableCompression,
	}
	if dialer.HandshakeTimeout <= 0 {
		dialer.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if cfg.AllowSelfSigned {
		dialer.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true, //nolint:gosec // explicit opt-in
		}
	}
	return dialer.DialContext(ctx, url, headers)
}
