package session

import "errors"

// Sentinel errors returned by Apply.
var (
	ErrUnknownIntent = errors.New("unknown intent")
	ErrInvalidIntent = errors.New("invalid intent")
)
