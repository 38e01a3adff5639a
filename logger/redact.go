package logger

import "strings"

// DefaultMaskValue replaces credential-bearing values in log output.
const DefaultMaskValue = "***"

// RedactorConfig defines which header names are considered sensitive.
type RedactorConfig struct {
	// SensitiveHeaders lists header names to mask, compared case-insensitively.
	SensitiveHeaders []string
	// MaskValue is the replacement value (default: "***").
	MaskValue string
}

// DefaultRedactorConfig returns a configuration covering the common
// credential-bearing request and response headers.
func DefaultRedactorConfig() *RedactorConfig {
	return &RedactorConfig{
		SensitiveHeaders: []string{
			"authorization", "proxy-authorization",
			"cookie", "set-cookie",
			"x-api-key", "x-auth-token", "x-access-token",
		},
		MaskValue: DefaultMaskValue,
	}
}

// HeaderRedactor masks credential-bearing header values in log output.
type HeaderRedactor struct {
	sensitive map[string]struct{}
	mask      string
}

// NewHeaderRedactor creates a redactor with the given configuration.
// A nil config uses DefaultRedactorConfig.
func NewHeaderRedactor(config *RedactorConfig) *HeaderRedactor {
	if config == nil {
		config = DefaultRedactorConfig()
	}
	mask := config.MaskValue
	if mask == "" {
		mask = DefaultMaskValue
	}
	sensitive := make(map[string]struct{}, len(config.SensitiveHeaders))
	for _, name := range config.SensitiveHeaders {
		sensitive[strings.ToLower(name)] = struct{}{}
	}
	return &HeaderRedactor{sensitive: sensitive, mask: mask}
}

// RedactValue returns the mask when key names a sensitive header, otherwise
// the value unchanged.
func (r *HeaderRedactor) RedactValue(key, value string) string {
	if r.isSensitive(key) {
		return r.mask
	}
	return value
}

// RedactHeaders returns a copy of headers with sensitive values masked.
// The input map is never mutated.
func (r *HeaderRedactor) RedactHeaders(headers map[string]string) map[string]string {
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		if r.isSensitive(k) {
			out[k] = r.mask
		} else {
			out[k] = v
		}
	}
	return out
}

func (r *HeaderRedactor) isSensitive(key string) bool {
	_, ok := r.sensitive[strings.ToLower(key)]
	return ok
}
