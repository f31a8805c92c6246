package config

import (
	"errors"
)

// Error kinds wrapped by this package, matchable with errors.Is.
var (
	// ErrInvalidConfig marks a configuration that failed validation.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrLoadConfig marks a failure reading or parsing configuration sources.
	ErrLoadConfig = errors.New("load config failed")
)
