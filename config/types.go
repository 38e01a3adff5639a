package config

import (
	"time"

	"github.com/gaborage/go-netclient/http"
	"github.com/gaborage/go-netclient/retry"
)

// Config is the declarative bootstrap schema: log settings plus named
// session profiles applied to a registry at startup.
type Config struct {
	Log      LogConfig                 `koanf:"log"`
	Sessions map[string]SessionProfile `koanf:"sessions" validate:"dive"`
}

// LogConfig controls library log output.
type LogConfig struct {
	Level  string `koanf:"level" validate:"omitempty,oneof=trace debug info warn error disabled"`
	Pretty bool   `koanf:"pretty"`
}

// SessionProfile declares one HTTP session. Absent fields take the
// documented defaults of http.DefaultSessionConfig.
type SessionProfile struct {
	BaseURL               string            `koanf:"base_url" validate:"required,url"`
	FollowRedirects       *bool             `koanf:"follow_redirects"`
	TimeoutRequest        time.Duration     `koanf:"timeout_request" validate:"min=0"`
	TimeoutResource       time.Duration     `koanf:"timeout_resource" validate:"min=0"`
	MaxConnectionsPerHost int               `koanf:"max_connections_per_host"`
	RequestsPerSecond     float64           `koanf:"requests_per_second" validate:"min=0"`
	EnableCompression     bool              `koanf:"enable_compression"`
	Headers               map[string]string `koanf:"headers"`
	Retry                 RetryConfig       `koanf:"retry"`
	SSLPinning            SSLPinningConfig  `koanf:"ssl_pinning"`
}

// RetryConfig declares a retry policy.
type RetryConfig struct {
	Type         string        `koanf:"type" validate:"omitempty,oneof=none linear exponential"`
	Limit        int           `koanf:"limit" validate:"min=0"`
	BackoffBase  time.Duration `koanf:"backoff_base"`
	BackoffScale float64       `koanf:"backoff_scale"`
	AllMethods   bool          `koanf:"all_methods"`
	StatusCodes  []int         `koanf:"status_codes"`
}

// SSLPinningConfig declares certificate validation settings.
type SSLPinningConfig struct {
	Enabled         bool `koanf:"enabled"`
	AllowSelfSigned bool `koanf:"allow_self_signed"`
}

// SessionConfig converts the profile to the runtime session configuration,
// applying the documented defaults for absent fields.
func (p SessionProfile) SessionConfig() http.SessionConfig {
	cfg := http.DefaultSessionConfig()
	if p.FollowRedirects != nil {
		cfg.FollowRedirects = *p.FollowRedirects
	}
	if p.TimeoutRequest > 0 {
		cfg.TimeoutRequest = p.TimeoutRequest
	}
	if p.TimeoutResource > 0 {
		cfg.TimeoutResource = p.TimeoutResource
	}
	if p.MaxConnectionsPerHost != 0 {
		cfg.MaxConnectionsPerHost = p.MaxConnectionsPerHost
	}
	cfg.RequestsPerSecond = p.RequestsPerSecond
	cfg.EnableCompression = p.EnableCompression
	cfg.Headers = p.Headers
	cfg.RetryPolicy = p.Retry.Policy()
	cfg.SSLPinning = http.SSLPinningConfig{
		Enabled:         p.SSLPinning.Enabled,
		AllowSelfSigned: p.SSLPinning.AllowSelfSigned,
	}
	return cfg
}

// Policy converts the declared retry settings to a runtime policy.
func (r RetryConfig) Policy() retry.Policy {
	return retry.Policy{
		Type:             retry.Type(typeOrNone(r.Type)),
		RetryLimit:       r.Limit,
		BackoffBase:      r.BackoffBase,
		BackoffScale:     r.BackoffScale,
		RetryAllMethods:  r.AllMethods,
		RetryStatusCodes: r.StatusCodes,
	}
}

func typeOrNone(t string) string {
	if t == "" {
		return string(retry.None)
	}
	return t
}
