package config

import "errors"

// Error kinds returned by Load and Validate; match them with errors.Is.
var (
	// ErrLoadConfig means the YAML file or the environment could not be read or decoded.
	ErrLoadConfig = errors.New("load config failed")
	// ErrInvalidConfig means a value was read but is out of range.
	ErrInvalidConfig = errors.New("invalid config")
)
