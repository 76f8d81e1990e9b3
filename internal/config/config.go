// Package config defines service configuration and its layered loading.
package config

import (
	"fmt"
	"strings"

	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/rollup"
	"github.com/okian/podium/internal/domain/session"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// DataPath is the results CSV loaded at startup.
	DataPath string `koanf:"data_path"`

	// WatchData reloads the dataset whenever DataPath changes on disk.
	WatchData bool `koanf:"watch_data"`

	// PCAColumns are the numeric columns fed to the projection.
	PCAColumns []string `koanf:"pca_columns"`

	// BrushMinRows is the smallest brush that switches the projection source.
	BrushMinRows int `koanf:"brush_min_rows"`

	// ProjectionMode is the initial projection mode: filtered or brushed.
	ProjectionMode string `koanf:"projection_mode"`

	// HeatmapMode is the initial column grouping: year, event or year_event.
	HeatmapMode string `koanf:"heatmap_mode"`

	// EventDates maps event keywords to dates used when a row carries none.
	EventDates map[string]string `koanf:"event_dates"`

	// QueueSize bounds the in-memory intent queue.
	QueueSize int `koanf:"queue_size"`

	// IntentTimeoutMS caps how long a submitted intent may wait for its cascade.
	IntentTimeoutMS int `koanf:"intent_timeout_ms"`

	// MaxSessions caps concurrently open sessions.
	MaxSessions int `koanf:"max_sessions"`

	// IntentRate caps intents per second per session. Zero disables the cap.
	IntentRate float64 `koanf:"intent_rate"`

	// IntentBurst is how many intents a session may send at once under IntentRate.
	IntentBurst int `koanf:"intent_burst"`

	// DedupeSize is how many client intent ids are remembered. Zero or
	// less remembers all of them.
	DedupeSize int `koanf:"dedupe_size"`
}

// New creates a Config populated with defaults.
func New() *Config {
	dates := make(map[string]string, len(rollup.DefaultEventDates))
	for k, v := range rollup.DefaultEventDates {
		dates[k] = v
	}
	return &Config{
		LogLevel:        "info",
		LogFormat:       "text",
		Addr:            ":9080",
		DataPath:        "data/results.csv",
		PCAColumns:      append([]string(nil), model.DefaultProjectionColumns...),
		BrushMinRows:    session.DefaultBrushMinRows,
		ProjectionMode:  string(session.ModeFiltered),
		HeatmapMode:     string(rollup.HeatmapYear),
		EventDates:      dates,
		QueueSize:       1024,
		IntentTimeoutMS: 5000,
		MaxSessions:     256,
		IntentBurst:     10,
		DedupeSize:      4096,
	}
}

// Validate checks the configuration for values the service cannot start with.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	if len(c.PCAColumns) < 2 {
		return fmt.Errorf("%w: pca_columns needs at least two columns", ErrInvalidConfig)
	}
	for _, col := range c.PCAColumns {
		if !model.IsNumericColumn(col) {
			return fmt.Errorf("%w: pca_columns: %q is not a numeric column", ErrInvalidConfig, col)
		}
	}
	if c.BrushMinRows < 1 {
		return fmt.Errorf("%w: brush_min_rows must be positive", ErrInvalidConfig)
	}
	if _, ok := session.ParseMode(c.ProjectionMode); !ok {
		return fmt.Errorf("%w: unknown projection_mode %q", ErrInvalidConfig, c.ProjectionMode)
	}
	if _, ok := rollup.ParseHeatmapMode(c.HeatmapMode); !ok {
		return fmt.Errorf("%w: unknown heatmap_mode %q", ErrInvalidConfig, c.HeatmapMode)
	}
	if _, err := rollup.NewChronology(c.EventDates); err != nil {
		return fmt.Errorf("%w: event_dates: %v", ErrInvalidConfig, err)
	}
	if c.QueueSize < 1 {
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	}
	if c.IntentTimeoutMS < 1 {
		return fmt.Errorf("%w: intent_timeout_ms must be positive", ErrInvalidConfig)
	}
	if c.IntentRate < 0 {
		return fmt.Errorf("%w: intent_rate must not be negative", ErrInvalidConfig)
	}
	if c.IntentRate > 0 && c.IntentBurst < 1 {
		return fmt.Errorf("%w: intent_burst must be positive when intent_rate is set", ErrInvalidConfig)
	}
	if c.MaxSessions < 1 {
		return fmt.Errorf("%w: max_sessions must be positive", ErrInvalidConfig)
	}
	return nil
}
