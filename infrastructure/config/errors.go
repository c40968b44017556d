package config

import "errors"

var (
	// ErrConfigNotFound indicates the config file does not exist.
	ErrConfigNotFound = errors.New("config file not found")

	// ErrInvalidFormat indicates the config could not be parsed.
	ErrInvalidFormat = errors.New("invalid config format")

	// ErrUnsupportedFormat indicates an unknown config file extension.
	ErrUnsupportedFormat = errors.New("unsupported config format")

	// ErrMissingEnvVar indicates a referenced environment variable is unset.
	ErrMissingEnvVar = errors.New("missing environment variable")

	// ErrValidation indicates the config contains invalid values.
	ErrValidation = errors.New("config validation failed")
)
