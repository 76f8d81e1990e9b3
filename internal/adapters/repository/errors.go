package repository

import "errors"

// Sentinel kinds for dataset errors.
var (
	ErrNotFound    = errors.New("row not found")
	ErrDuplicateID = errors.New("duplicate row id")
)
