package session

import (
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/pca"
	"github.com/okian/podium/internal/domain/rollup"
	"github.com/okian/podium/pkg/logger"
)

// DefaultBrushMinRows is the smallest brushed subset projected in brushed mode.
const DefaultBrushMinRows = 5

// Option configures a Store.
type Option func(*Store)

// WithColumns sets the numeric columns fed to the projection.
// Unknown column names are dropped; an empty result keeps the defaults.
func WithColumns(columns []string) Option {
	return func(s *Store) {
		cols := make([]string, 0, len(columns))
		for _, c := range columns {
			if model.IsNumericColumn(c) {
				cols = append(cols, c)
			}
		}
		if len(cols) > 0 {
			s.columns = cols
		}
	}
}

// WithBrushMinRows sets the minimum brushed subset size for brushed mode.
func WithBrushMinRows(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.brushMinRows = n
		}
	}
}

// WithMode sets the initial projection source mode.
func WithMode(m Mode) Option {
	return func(s *Store) {
		if m == ModeFiltered || m == ModeBrushed {
			s.mode = m
		}
	}
}

// WithHeatmapMode sets the initial heatmap column axis.
func WithHeatmapMode(m rollup.HeatmapMode) Option {
	return func(s *Store) {
		if _, ok := rollup.ParseHeatmapMode(string(m)); ok {
			s.heatmapMode = m
		}
	}
}

// WithChronology sets the event date policy used for ordering.
func WithChronology(c *rollup.Chronology) Option {
	return func(s *Store) {
		if c != nil {
			s.chron = c
		}
	}
}

// WithProjector sets the sign-stabilizing projector. Sharing a projector
// between stores shares the orientation history.
func WithProjector(p *pca.Projector) Option {
	return func(s *Store) {
		if p != nil {
			s.projector = p
		}
	}
}

// WithListener registers a change listener.
func WithListener(l Listener) Option {
	return func(s *Store) {
		if l != nil {
			s.listeners = append(s.listeners, l)
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}
