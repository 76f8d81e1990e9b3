package session

import (
	"fmt"

	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/rollup"
)

// IntentKind names a user intent.
type IntentKind string

// Intent kinds.
const (
	IntentFilters        IntentKind = "filters"
	IntentPickCell       IntentKind = "pick_cell"
	IntentSelectAthlete  IntentKind = "select_athlete"
	IntentClearSelection IntentKind = "clear_selection"
	IntentBrush          IntentKind = "brush"
	IntentHighlight      IntentKind = "highlight"
	IntentMode           IntentKind = "mode"
	IntentHeatmapMode    IntentKind = "heatmap_mode"
	IntentReset          IntentKind = "reset"
)

// Intent is a serializable user action. Only the fields relevant to Kind
// are read. ID is an optional client token used to drop retried duplicates.
type Intent struct {
	ID          string          `json:"id,omitempty"`
	Kind        IntentKind      `json:"kind"`
	Criteria    *model.Criteria `json:"criteria,omitempty"`
	Year        string          `json:"year,omitempty"`
	Apparatus   string          `json:"apparatus,omitempty"`
	Athlete     string          `json:"athlete,omitempty"`
	Brush       []model.ID      `json:"brush,omitempty"`
	Highlight   string          `json:"highlight,omitempty"`
	Mode        string          `json:"mode,omitempty"`
	HeatmapMode string          `json:"heatmap_mode,omitempty"`
}

// Apply dispatches in to the matching Store operation.
func (s *Store) Apply(in Intent) (Change, error) {
	switch in.Kind {
	case IntentFilters:
		if in.Criteria == nil {
			return Change{}, fmt.Errorf("%w: filters without criteria", ErrInvalidIntent)
		}
		return s.SetFilters(*in.Criteria), nil
	case IntentPickCell:
		if in.Year == "" && in.Apparatus == "" {
			return Change{}, fmt.Errorf("%w: pick_cell without year or apparatus", ErrInvalidIntent)
		}
		return s.PickCell(in.Year, in.Apparatus), nil
	case IntentSelectAthlete:
		return s.SelectAthlete(in.Athlete), nil
	case IntentClearSelection:
		return s.ClearSelection(), nil
	case IntentBrush:
		return s.SetBrush(in.Brush), nil
	case IntentHighlight:
		return s.SetHighlight(in.Highlight), nil
	case IntentMode:
		m, ok := ParseMode(in.Mode)
		if !ok {
			return Change{}, fmt.Errorf("%w: mode %q", ErrInvalidIntent, in.Mode)
		}
		return s.SetMode(m), nil
	case IntentHeatmapMode:
		m, ok := rollup.ParseHeatmapMode(in.HeatmapMode)
		if !ok {
			return Change{}, fmt.Errorf("%w: heatmap_mode %q", ErrInvalidIntent, in.HeatmapMode)
		}
		return s.SetHeatmapMode(m), nil
	case IntentReset:
		return s.Reset(), nil
	default:
		return Change{}, fmt.Errorf("%w: %q", ErrUnknownIntent, in.Kind)
	}
}
