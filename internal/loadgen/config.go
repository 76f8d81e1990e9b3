// Package loadgen generates synthetic results and drives intents against a
// running dashboard server.
package loadgen

import "time"

// Config holds configuration for a load run.
type Config struct {
	BaseURL  string        // Base URL of the service
	Sessions int           // Number of sessions to open
	Intents  int           // Intents submitted per session
	Workers  int           // Number of concurrent workers
	Timeout  time.Duration // HTTP request timeout
	Seed     uint64        // Seed for intent generation
	Verbose  bool          // Log every failed request
}

// Stats holds run statistics.
type Stats struct {
	SessionsOpened   int
	IntentsSubmitted int
	IntentsApplied   int
	IntentsNoop      int
	IntentsRejected  int
	IntentsFailed    int
	Duplicates       int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}

// intentResponse mirrors the body of POST /sessions/{id}/intents.
type intentResponse struct {
	Kind    string `json:"kind"`
	Version uint64 `json:"version"`
}

// sessionResponse mirrors the body of POST /sessions.
type sessionResponse struct {
	ID    string `json:"id"`
	State struct {
		Version   uint64 `json:"version"`
		TotalRows int    `json:"total_rows"`
	} `json:"state"`
}

// stateResponse mirrors the body of GET /sessions/{id}.
type stateResponse struct {
	Version      uint64 `json:"version"`
	FilteredRows int    `json:"filtered_rows"`
	ActiveRows   int    `json:"active_rows"`
}
