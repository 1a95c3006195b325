package config

import "errors"

var (
	// ErrInvalidConfig marks a loaded configuration that fails Validate.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrLoadConfig marks a failure to read a configuration source.
	ErrLoadConfig = errors.New("loading configuration")
)
