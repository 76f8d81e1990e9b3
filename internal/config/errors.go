package config

import (
	"errors"
)

// Sentinel errors. Load wraps them with the failing key or source.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)
