// Package selection holds the athlete, brush and highlight selection state
// and derives the active view set from the filtered rows.
package selection

import (
	"strings"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/okian/podium/internal/domain/model"
)

// State is the canonical selection. Empty strings and a nil brush mean unset.
type State struct {
	Athlete   string
	Brush     *roaring.Bitmap
	Highlight string
}

// HasAthlete reports whether an athlete is selected.
func (s State) HasAthlete() bool { return s.Athlete != "" }

// HasBrush reports whether a non-empty brush is set.
func (s State) HasBrush() bool { return s.Brush != nil && !s.Brush.IsEmpty() }

// BrushSize returns the number of brushed row ids.
func (s State) BrushSize() int {
	if s.Brush == nil {
		return 0
	}
	return int(s.Brush.GetCardinality())
}

// BrushIDs returns the brushed row ids in ascending order.
func (s State) BrushIDs() []model.ID {
	if s.Brush == nil {
		return nil
	}
	return s.Brush.ToArray()
}

// Coordinator applies selection transitions. Every transition is total and
// reports whether the state changed. A Coordinator is not safe for
// concurrent use; the owning store serializes access.
type Coordinator struct {
	state        State
	brushVersion uint64
}

// NewCoordinator returns a coordinator with nothing selected.
func NewCoordinator() *Coordinator {
	return &Coordinator{}
}

// State returns a copy of the current selection.
func (c *Coordinator) State() State {
	s := c.state
	if s.Brush != nil {
		s.Brush = s.Brush.Clone()
	}
	return s
}

// BrushVersion increments every time the brush changes.
func (c *Coordinator) BrushVersion() uint64 { return c.brushVersion }

// SelectAthlete selects name. An empty name or "all" unsets the athlete.
func (c *Coordinator) SelectAthlete(name string) bool {
	name = strings.TrimSpace(name)
	if name == model.All {
		name = ""
	}
	if c.state.Athlete == name {
		return false
	}
	c.state.Athlete = name
	return true
}

// ClearSelection unsets the selected athlete.
func (c *Coordinator) ClearSelection() bool {
	return c.SelectAthlete("")
}

// SetBrush replaces the brushed ids. A nil or empty set unsets the brush.
func (c *Coordinator) SetBrush(ids []model.ID) bool {
	var next *roaring.Bitmap
	if len(ids) > 0 {
		next = roaring.BitmapOf(ids...)
	}
	return c.setBrush(next)
}

func (c *Coordinator) setBrush(next *roaring.Bitmap) bool {
	if next != nil && next.IsEmpty() {
		next = nil
	}
	switch {
	case next == nil && c.state.Brush == nil:
		return false
	case next != nil && c.state.Brush != nil && next.Equals(c.state.Brush):
		return false
	}
	c.state.Brush = next
	c.brushVersion++
	return true
}

// SetHighlight sets the informational highlighted group. An empty group
// unsets it.
func (c *Coordinator) SetHighlight(group string) bool {
	group = strings.TrimSpace(group)
	if c.state.Highlight == group {
		return false
	}
	c.state.Highlight = group
	return true
}

// ResetAll clears athlete, brush and highlight.
func (c *Coordinator) ResetAll() bool {
	changed := c.ClearSelection()
	if c.setBrush(nil) {
		changed = true
	}
	if c.SetHighlight("") {
		changed = true
	}
	return changed
}

// Prune unsets the selected athlete when none of the filtered rows belong
// to them.
func (c *Coordinator) Prune(filtered []model.Row) bool {
	if !c.state.HasAthlete() {
		return false
	}
	for i := range filtered {
		if filtered[i].Athlete == c.state.Athlete {
			return false
		}
	}
	return c.ClearSelection()
}

// ActiveView narrows filtered to the selected athlete and then to the brush,
// skipping each step that is unset. Input order is preserved.
func ActiveView(filtered []model.Row, s State) []model.Row {
	brushed := s.HasBrush()
	out := make([]model.Row, 0, len(filtered))
	for i := range filtered {
		r := filtered[i]
		if s.HasAthlete() && r.Athlete != s.Athlete {
			continue
		}
		if brushed && !s.Brush.Contains(r.ID) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// IDs returns the ids of rows as a bitmap.
func IDs(rows []model.Row) *roaring.Bitmap {
	bm := roaring.New()
	for i := range rows {
		bm.Add(rows[i].ID)
	}
	return bm
}

// Intersect returns the rows whose id is in ids, preserving order.
func Intersect(rows []model.Row, ids *roaring.Bitmap) []model.Row {
	out := make([]model.Row, 0, len(rows))
	if ids == nil {
		return out
	}
	for i := range rows {
		if ids.Contains(rows[i].ID) {
			out = append(out, rows[i])
		}
	}
	return out
}
