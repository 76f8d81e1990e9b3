package session

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/okian/podium/internal/domain/filter"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/pca"
	"github.com/okian/podium/internal/domain/rollup"
)

// Snapshot is the read model published after every change. Nothing reachable
// from a Snapshot is modified after publication.
type Snapshot struct {
	Version          uint64                 `json:"version"`
	Criteria         model.Criteria         `json:"criteria"`
	Athlete          string                 `json:"athlete,omitempty"`
	Brush            []model.ID             `json:"brush,omitempty"`
	Highlight        string                 `json:"highlight,omitempty"`
	Mode             Mode                   `json:"mode"`
	HeatmapMode      rollup.HeatmapMode     `json:"heatmap_mode"`
	ProjectionSource Source                 `json:"projection_source"`
	Columns          []string               `json:"columns"`
	TotalRows        int                    `json:"total_rows"`
	Filtered         []model.Row            `json:"-"`
	Active           []model.Row            `json:"-"`
	Projection       pca.Result             `json:"-"`
	Heatmap          rollup.Table           `json:"-"`
	Timeline         []rollup.TimelinePoint `json:"-"`
	Summary          rollup.Summary         `json:"summary"`
	Options          filter.Options         `json:"-"`

	filteredIDs *roaring.Bitmap
	activeIDs   *roaring.Bitmap
}

// InFiltered reports whether id is part of the filtered set.
func (s *Snapshot) InFiltered(id model.ID) bool { return s.filteredIDs.Contains(id) }

// InActive reports whether id is part of the active view.
func (s *Snapshot) InActive(id model.ID) bool { return s.activeIDs.Contains(id) }

// ScatterPoint is a projected point decorated for rendering.
type ScatterPoint struct {
	pca.Point
	Athlete     string `json:"athlete"`
	Apparatus   string `json:"apparatus"`
	Competition string `json:"competition"`
	Active      bool   `json:"active"`
	Highlighted bool   `json:"highlighted"`
}

// ScatterPoints joins the projection with row attributes and marks points
// belonging to the active view and to the highlighted competition.
func (s *Snapshot) ScatterPoints() []ScatterPoint {
	byID := make(map[model.ID]*model.Row, len(s.Filtered))
	for i := range s.Filtered {
		byID[s.Filtered[i].ID] = &s.Filtered[i]
	}
	out := make([]ScatterPoint, 0, len(s.Projection.Points))
	for _, p := range s.Projection.Points {
		sp := ScatterPoint{Point: p, Active: s.InActive(p.RowID)}
		if r, ok := byID[p.RowID]; ok {
			sp.Athlete = r.Athlete
			sp.Apparatus = r.Apparatus
			sp.Competition = r.Competition
			sp.Highlighted = s.Highlight != "" && r.Competition == s.Highlight
		}
		out = append(out, sp)
	}
	return out
}

// HeatmapExtent is the colour legend range of the heatmap.
type HeatmapExtent struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// HeatmapRange returns the legend range, or nil when every cell is empty.
func (s *Snapshot) HeatmapRange() *HeatmapExtent {
	lo, hi, ok := s.Heatmap.MeanExtent()
	if !ok {
		return nil
	}
	return &HeatmapExtent{Min: lo, Max: hi}
}
