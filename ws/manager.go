package ws

import (
	nethttp "net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/gaborage/go-netclient/logger"
)

// Manager owns the set of WebSocket connections keyed by normalized URL.
// State transitions per connection are serialized by the client itself;
// the manager only tracks ownership.
type Manager struct {
	mu      sync.Mutex
	clients map[string]*Client
	dial    DialFunc
	log     logger.Logger
}

// NewManager creates a manager dialing with gorilla/websocket.
func NewManager(log logger.Logger) *Manager {
	return NewManagerWithDialer(log, gorillaDial)
}

// NewManagerWithDialer creates a manager with a custom dial function.
// Used to swap the transport and to inject fakes in tests.
func NewManagerWithDialer(log logger.Logger, dial DialFunc) *Manager {
	return &Manager{
		clients: make(map[string]*Client),
		dial:    dial,
		log:     log,
	}
}

// Connect creates a client for url and starts its connection attempt.
// An existing client for the same key is torn down and replaced. The
// returned client is in Connecting state; progress is reported through the
// registered callbacks.
func (m *Manager) Connect(rawURL string, cb Callbacks, cfg *DialConfig) (*Client, error) {
	key, err := normalizeURL(rawURL)
	if err != nil {
		return nil, err
	}

	dialCfg := DialConfig{}
	if cfg != nil {
		dialCfg = *cfg
	}
	headers := nethttp.Header{}
	for k, v := range dialCfg.Headers {
		headers.Set(k, v)
	}

	client := newClient(key, cb, m.log, func(c *Client) {
		m.remove(key, c)
	})

	m.mu.Lock()
	old := m.clients[key]
	m.clients[key] = client
	m.mu.Unlock()

	if old != nil {
		old.close()
	}

	m.log.Info().Str("url", key).Msg("websocket connecting")
	go client.run(m.dial, headers, dialCfg)

	return client, nil
}

// Get returns the client registered for url, or a NotFoundError. A caller
// holding a stale key observes NotFoundError once the manager has removed
// the closed client.
func (m *Manager) Get(rawURL string) (*Client, error) {
	key, err := normalizeURL(rawURL)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	client := m.clients[key]
	m.mu.Unlock()

	if client == nil {
		return nil, NewNotFoundError(key)
	}
	return client, nil
}

// Send sends a text message through the client for url.
func (m *Manager) Send(rawURL, data string) error {
	client, err := m.Get(rawURL)
	if err != nil {
		return err
	}
	return client.Send(data)
}

// Disconnect requests teardown of the client for url: Closing now, removal
// from the manager once Closed is observed. Unknown keys are a no-op.
func (m *Manager) Disconnect(rawURL string) error {
	key, err := normalizeURL(rawURL)
	if err != nil {
		return err
	}

	m.mu.Lock()
	client := m.clients[key]
	m.mu.Unlock()

	if client == nil {
		return nil
	}
	client.close()
	return nil
}

// Invalidate is idempotent teardown: equivalent to Disconnect, and a no-op
// on an already-removed key.
func (m *Manager) Invalidate(rawURL string) error {
	return m.Disconnect(rawURL)
}

// remove drops the entry for key if it still refers to c. A replacement
// registered since keeps its slot.
func (m *Manager) remove(key string, c *Client) {
	m.mu.Lock()
	if m.clients[key] == c {
		delete(m.clients, key)
	}
	m.mu.Unlock()
}

// normalizeURL canonicalizes a WebSocket URL into its manager key:
// ws or wss scheme required, lowercase scheme and host, trailing slash
// stripped.
func normalizeURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", NewConfigurationError("malformed URL: " + err.Error())
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return "", NewConfigurationError("URL scheme must be ws or wss")
	}
	if u.Host == "" {
		return "", NewConfigurationError("URL must include a host")
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Path = strings.TrimRight(u.Path, "/")
	u.Fragment = ""
	return u.String(), nil
}
