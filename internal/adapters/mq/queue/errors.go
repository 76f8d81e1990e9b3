package queue

import "errors"

// Sentinel kinds for queue errors.
var (
	ErrBackpressure = errors.New("intent queue full")
	ErrClosed       = errors.New("intent queue closed")
)
