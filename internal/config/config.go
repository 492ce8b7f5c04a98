// Package config defines service configuration and how it is loaded.
//
// Conventions:
// - Defaults come from New; Load layers a YAML file and environment variables on top.
// - Functions accept context.Context first.
// - Errors returned by Load wrap this package's sentinel kinds.
package config

import "context"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":5000".
	Addr string `koanf:"addr"`

	// DefaultThreshold applies when a request omits its threshold.
	DefaultThreshold int `koanf:"default_threshold"`

	// MaxSubjects caps the number of subjects accepted in one request.
	MaxSubjects int `koanf:"max_subjects"`

	// MaxBodyBytes caps the size of a request body.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`

	// CORSAllowOrigin is echoed in Access-Control-Allow-Origin. Empty disables CORS.
	CORSAllowOrigin string `koanf:"cors_allow_origin"`
}

// New returns a Config populated with defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":5000",
		DefaultThreshold: 75,
		MaxSubjects:      200,
		MaxBodyBytes:     1 << 20,
		CORSAllowOrigin:  "*",
	}
}
