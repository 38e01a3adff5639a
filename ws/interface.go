package ws

import (
	"context"
	nethttp "net/http"
	"time"
)

// State is the lifecycle phase of a WebSocket connection. Transitions are
// strictly linear; a Closed connection never reconnects.
type State int32

const (
	Connecting State = iota
	Open
	Closing
	Closed
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	case Closing:
		return "closing"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Message is one inbound frame delivered to message callbacks.
type Message struct {
	// Binary reports whether the frame was a binary message.
	Binary bool
	// Data is the frame payload.
	Data []byte
}

// Callbacks holds the initial callback registrations for a connection.
// Further callbacks may be added at any time via the client's OnXxx methods.
type Callbacks struct {
	OnOpen    func()
	OnClose   func()
	OnError   func(err error)
	OnMessage func(msg Message)
}

// DialConfig configures the opening handshake of a connection.
type DialConfig struct {
	// HandshakeTimeout bounds only the initial handshake.
	// Zero applies DefaultHandshakeTimeout.
	HandshakeTimeout time.Duration
	// Headers are sent with the handshake request.
	Headers map[string]string
	// Subprotocols advertise application subprotocols.
	Subprotocols []string
	// EnableCompression negotiates per-message compression.
	EnableCompression bool
	// AllowSelfSigned skips certificate verification for wss URLs.
	AllowSelfSigned bool
}

// DefaultHandshakeTimeout bounds the opening handshake when the dial
// configuration does not set its own value.
const DefaultHandshakeTimeout = 45 * time.Second

// Conn is the transport-level connection a client runs on.
// *websocket.Conn satisfies it.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// DialFunc performs the opening handshake. The returned response carries the
// server's handshake reply and may be nil on failure.
type DialFunc func(ctx context.Context, url string, headers nethttp.Header, cfg DialConfig) (Conn, *nethttp.Response, error)
