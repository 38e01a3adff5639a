package http

import (
	"net/url"
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/gaborage/go-netclient/logger"
)

// Session is a named, persistent HTTP configuration bound to a normalized
// base URL. Values handed out by the registry are snapshots: concurrent
// mutation of the registry never affects a session already in hand.
type Session struct {
	baseURL   string
	config    SessionConfig
	headers   Headers
	transport Transport
	limiter   *rate.Limiter
	conns     *semaphore.Weighted
}

// BaseURL returns the normalized base URL identifying the session.
func (s *Session) BaseURL() string {
	return s.baseURL
}

// Config returns the session configuration.
func (s *Session) Config() SessionConfig {
	return s.config
}

// Headers returns a copy of the session's default headers.
func (s *Session) Headers() Headers {
	return s.headers.Clone()
}

// TransportFactory builds the Transport a new session runs on.
type TransportFactory func(SessionConfig) Transport

// Registry owns the set of named sessions keyed by normalized base URL.
// Reads are concurrent; create/replace/invalidate are serialized.
type Registry struct {
	mu           sync.RWMutex
	sessions     map[string]*Session
	newTransport TransportFactory
	log          logger.Logger
}

// NewRegistry creates a session registry using the default net/http transport.
func NewRegistry(log logger.Logger) *Registry {
	return NewRegistryWithTransport(log, NewTransport)
}

// NewRegistryWithTransport creates a registry whose sessions run on
// transports built by factory. Used to swap the platform networking stack
// and to inject fakes in tests.
func NewRegistryWithTransport(log logger.Logger, factory TransportFactory) *Registry {
	return &Registry{
		sessions:     make(map[string]*Session),
		newTransport: factory,
		log:          log,
	}
}

// CreateOrReplace validates config, normalizes baseURL and atomically
// installs the session, replacing any existing entry for the same key.
// The replaced entry's transport has its idle connections closed; in-flight
// requests holding a snapshot are unaffected.
func (r *Registry) CreateOrReplace(baseURL string, cfg SessionConfig) error {
	key, err := NormalizeBaseURL(baseURL)
	if err != nil {
		return err
	}
	if err := validateSessionConfig(cfg); err != nil {
		return err
	}

	sess := &Session{
		baseURL:   key,
		config:    cfg,
		headers:   HeadersFromMap(cfg.Headers),
		transport: r.newTransport(cfg),
	}
	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		sess.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	if limit := maxConns(cfg.MaxConnectionsPerHost); limit > 0 {
		sess.conns = semaphore.NewWeighted(int64(limit))
	}

	r.mu.Lock()
	old := r.sessions[key]
	r.sessions[key] = sess
	r.mu.Unlock()

	if old != nil {
		old.transport.CloseIdleConnections()
		r.log.Info().Str("base_url", key).Msg("session replaced")
	} else {
		r.log.Info().Str("base_url", key).Msg("session created")
	}
	return nil
}

// Get returns the session registered for baseURL, or a NotFoundError.
func (r *Registry) Get(baseURL string) (*Session, error) {
	key, err := NormalizeBaseURL(baseURL)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	sess := r.sessions[key]
	r.mu.RUnlock()

	if sess == nil {
		return nil, NewNotFoundError("session", key)
	}
	// Snapshot: headers are the only mutable part; transport, limiter and
	// connection gate stay shared with the live entry.
	snapshot := *sess
	snapshot.headers = sess.headers.Clone()
	return &snapshot, nil
}

// AddHeaders merges headers into the stored session headers, last write wins,
// keys compared case-insensitively. Fails with NotFoundError when no session
// is registered for baseURL.
func (r *Registry) AddHeaders(baseURL string, headers map[string]string) error {
	key, err := NormalizeBaseURL(baseURL)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	sess := r.sessions[key]
	if sess == nil {
		return NewNotFoundError("session", key)
	}
	// Copy-on-write so snapshots handed out by Get stay stable.
	next := *sess
	next.headers = sess.headers.Merge(HeadersFromMap(headers))
	r.sessions[key] = &next
	return nil
}

// SessionHeaders returns a copy of the session's default headers.
func (r *Registry) SessionHeaders(baseURL string) (map[string]string, error) {
	sess, err := r.Get(baseURL)
	if err != nil {
		return nil, err
	}
	return sess.headers.Map(), nil
}

// Invalidate removes the session for baseURL and closes its transport's idle
// connections. Invalidating an unregistered key is a no-op, not an error.
// In-flight requests holding a snapshot are unaffected.
func (r *Registry) Invalidate(baseURL string) error {
	key, err := NormalizeBaseURL(baseURL)
	if err != nil {
		return err
	}

	r.mu.Lock()
	sess := r.sessions[key]
	delete(r.sessions, key)
	r.mu.Unlock()

	if sess != nil {
		sess.transport.CloseIdleConnections()
		r.log.Info().Str("base_url", key).Msg("session invalidated")
	}
	return nil
}

// NormalizeBaseURL canonicalizes a base URL into its session key: lowercase
// scheme and host, trailing slash stripped, fragment dropped.
func NormalizeBaseURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", NewConfigurationError("malformed base URL: "+err.Error(), "baseUrl")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", NewConfigurationError("base URL scheme must be http or https", "baseUrl")
	}
	if u.Host == "" {
		return "", NewConfigurationError("base URL must include a host", "baseUrl")
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Path = strings.TrimRight(u.Path, "/")
	u.Fragment = ""
	return u.String(), nil
}

func validateSessionConfig(cfg SessionConfig) error {
	if cfg.TimeoutRequest < 0 {
		return NewConfigurationError("request timeout must be non-negative", "timeoutIntervalForRequest")
	}
	if cfg.TimeoutResource < 0 {
		return NewConfigurationError("resource timeout must be non-negative", "timeoutIntervalForResource")
	}
	if cfg.RequestsPerSecond < 0 {
		return NewConfigurationError("requests per second must be non-negative", "requestsPerSecond")
	}
	if err := cfg.RetryPolicy.Validate(); err != nil {
		return NewConfigurationError(err.Error(), "retryPolicyConfiguration")
	}
	return nil
}
