package ingest

import "errors"

// Sentinel errors for ingestion.
var (
	ErrEmptyInput    = errors.New("empty input")
	ErrMissingColumn = errors.New("missing required column")
	ErrMalformed     = errors.New("malformed csv")
)
