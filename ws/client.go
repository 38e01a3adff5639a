package ws

import (
	"context"
	"errors"
	nethttp "net/http"
	"slices"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/gaborage/go-netclient/logger"
)

// Client is one managed WebSocket connection. Instances are created by the
// Manager and removed from it once Closed; they never reconnect.
type Client struct {
	url string
	log logger.Logger

	mu             sync.Mutex
	state          State
	conn           Conn
	closeRequested bool
	onOpen         []func()
	onClose        []func()
	onError        []func(error)
	onMessage      []func(Message)

	// writeMu serializes frame writes; gorilla permits one concurrent writer.
	writeMu sync.Mutex

	// onTerminated is the manager's removal hook, called once after Closed.
	onTerminated func(*Client)
}

func newClient(url string, cb Callbacks, log logger.Logger, onTerminated func(*Client)) *Client {
	c := &Client{
		url:          url,
		log:          log,
		state:        Connecting,
		onTerminated: onTerminated,
	}
	if cb.OnOpen != nil {
		c.onOpen = append(c.onOpen, cb.OnOpen)
	}
	if cb.OnClose != nil {
		c.onClose = append(c.onClose, cb.OnClose)
	}
	if cb.OnError != nil {
		c.onError = append(c.onError, cb.OnError)
	}
	if cb.OnMessage != nil {
		c.onMessage = append(c.onMessage, cb.OnMessage)
	}
	return c
}

// URL returns the connection's key.
func (c *Client) URL() string {
	return c.url
}

// State returns the current lifecycle state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// OnOpen registers an additional open callback. Registration is additive and
// valid in any state; callbacks never fire retroactively.
func (c *Client) OnOpen(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onOpen = append(c.onOpen, fn)
}

// OnClose registers an additional close callback.
func (c *Client) OnClose(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onClose = append(c.onClose, fn)
}

// OnError registers an additional error callback.
func (c *Client) OnError(fn func(error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onError = append(c.onError, fn)
}

// OnMessage registers an additional message callback.
func (c *Client) OnMessage(fn func(Message)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onMessage = append(c.onMessage, fn)
}

// Send sends a text message. Valid only while Open.
func (c *Client) Send(data string) error {
	return c.send(websocket.TextMessage, []byte(data))
}

// SendBinary sends a binary message. Valid only while Open.
func (c *Client) SendBinary(data []byte) error {
	return c.send(websocket.BinaryMessage, data)
}

func (c *Client) send(messageType int, data []byte) error {
	c.mu.Lock()
	if c.state != Open {
		state := c.state
		c.mu.Unlock()
		return NewSendError(state)
	}
	conn := c.conn
	c.mu.Unlock()

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteMessage(messageType, data)
}

// run dials and, on success, pumps inbound frames until the connection ends.
// It is the connection's single event-delivery goroutine.
func (c *Client) run(dial DialFunc, headers nethttp.Header, cfg DialConfig) {
	conn, _, err := dial(context.Background(), c.url, headers, cfg)
	if err != nil {
		c.log.Warn().Str("url", c.url).Err(err).Msg("websocket dial failed")
		c.terminate(err)
		return
	}

	c.mu.Lock()
	if c.closeRequested {
		c.mu.Unlock()
		conn.Close()
		c.terminate(nil)
		return
	}
	c.conn = conn
	c.state = Open
	openCbs := slices.Clone(c.onOpen)
	c.mu.Unlock()

	c.log.Debug().Str("url", c.url).Msg("websocket open")
	for _, fn := range openCbs {
		fn()
	}

	c.readPump(conn)
}

func (c *Client) readPump(conn Conn) {
	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			closing := c.state == Closing
			c.mu.Unlock()

			var closeErr *websocket.CloseError
			clean := errors.As(err, &closeErr) &&
				(closeErr.Code == websocket.CloseNormalClosure || closeErr.Code == websocket.CloseGoingAway)
			if closing || clean {
				c.terminate(nil)
			} else {
				c.terminate(err)
			}
			return
		}

		c.mu.Lock()
		msgCbs := slices.Clone(c.onMessage)
		c.mu.Unlock()

		msg := Message{Binary: messageType == websocket.BinaryMessage, Data: data}
		for _, fn := range msgCbs {
			fn(msg)
		}
	}
}

// close requests teardown. Idempotent: closing an already Closing or Closed
// connection is a no-op.
func (c *Client) close() {
	c.mu.Lock()
	switch c.state {
	case Closing, Closed:
		c.mu.Unlock()
		return
	case Connecting:
		c.closeRequested = true
		c.state = Closing
		c.mu.Unlock()
		return
	}
	// Open
	c.state = Closing
	conn := c.conn
	c.mu.Unlock()

	c.writeMu.Lock()
	//nolint:errcheck // the peer may already be gone
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()
	conn.Close()
}

// terminate moves the connection to Closed exactly once, firing error
// callbacks (when err is non-nil) before close callbacks, then notifies the
// manager so the entry is removed.
func (c *Client) terminate(err error) {
	c.mu.Lock()
	if c.state == Closed {
		c.mu.Unlock()
		return
	}
	c.state = Closed
	conn := c.conn
	var errCbs []func(error)
	if err != nil {
		errCbs = slices.Clone(c.onError)
	}
	closeCbs := slices.Clone(c.onClose)
	c.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	for _, fn := range errCbs {
		fn(err)
	}
	for _, fn := range closeCbs {
		fn()
	}

	c.log.Debug().Str("url", c.url).Msg("websocket closed")
	if c.onTerminated != nil {
		c.onTerminated(c)
	}
}
