package service

import "errors"

// Sentinel errors returned by Service.
var (
	ErrNotStarted      = errors.New("service not started")
	ErrSessionNotFound = errors.New("session not found")
	ErrTooManySessions = errors.New("session limit reached")
	ErrReservedIntent  = errors.New("intent kind is reserved")
	ErrDuplicateIntent = errors.New("intent already submitted")
	ErrRateLimited     = errors.New("intent rate exceeded")
)
