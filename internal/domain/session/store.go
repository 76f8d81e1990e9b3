// Package session owns the mutable analysis state of one dashboard session
// and applies the recompute policy for each kind of intent.
//
// A Store is driven by one goroutine at a time: every intent runs its whole
// recompute cascade before returning. The resulting Snapshot is immutable
// and may be read from any goroutine.
package session

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/okian/podium/internal/domain/filter"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/pca"
	"github.com/okian/podium/internal/domain/rollup"
	"github.com/okian/podium/internal/domain/selection"
	"github.com/okian/podium/pkg/logger"
)

// Mode selects which rows feed the projection.
type Mode string

// Projection source modes.
const (
	// ModeFiltered projects the filtered set.
	ModeFiltered Mode = "filtered"
	// ModeBrushed projects the brushed part of the filtered set once it
	// holds at least the configured minimum of rows.
	ModeBrushed Mode = "brushed"
)

// ParseMode maps s onto a mode.
func ParseMode(s string) (Mode, bool) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeFiltered, ModeBrushed:
		return m, true
	}
	return ModeFiltered, false
}

// Source names the row set the current projection was computed from.
type Source string

// Projection sources.
const (
	SourceFiltered Source = "filtered"
	SourceBrushed  Source = "brushed"
)

// ChangeKind tells renderers how much of the dashboard to redraw.
type ChangeKind string

// Change kinds.
const (
	// ChangeNone means the intent left the state untouched.
	ChangeNone ChangeKind = "none"
	// ChangeSelection means only the active view and its aggregates moved.
	ChangeSelection ChangeKind = "selection"
	// ChangeFull means filters changed and every derived view was rebuilt.
	ChangeFull ChangeKind = "full"
)

// Change describes the outcome of one intent.
type Change struct {
	Kind              ChangeKind    `json:"kind"`
	ProjectionChanged bool          `json:"projection_changed"`
	Took              time.Duration `json:"took"`
	ProjectionTook    time.Duration `json:"projection_took"`
	Snapshot          *Snapshot     `json:"-"`
}

// Listener receives every change that is not ChangeNone.
type Listener func(Change)

type projectionKey struct {
	source       Source
	brushVersion uint64
}

// Store holds criteria, selection and every derived view of one session.
type Store struct {
	// configuration
	columns      []string
	brushMinRows int
	mode         Mode
	heatmapMode  rollup.HeatmapMode
	chron        *rollup.Chronology
	projector    *pca.Projector
	listeners    []Listener
	log          logger.Logger

	// canonical state
	rows     []model.Row
	criteria model.Criteria
	sel      *selection.Coordinator

	// derived state
	filtered    []model.Row
	options     filter.Options
	projection  pca.Result
	projKey     projectionKey
	heatmap     rollup.Table
	active      []model.Row
	timeline    []rollup.TimelinePoint
	summary     rollup.Summary
	version     uint64
	snapshot    atomic.Pointer[Snapshot]
	allOptions  filter.Options
	projectTook time.Duration
}

// New creates a store over rows and computes every derived view.
// rows must not be modified afterwards.
func New(rows []model.Row, opts ...Option) *Store {
	s := &Store{
		columns:      append([]string(nil), model.DefaultProjectionColumns...),
		brushMinRows: DefaultBrushMinRows,
		mode:         ModeFiltered,
		heatmapMode:  rollup.HeatmapYear,
		log:          logger.Nop(),
		rows:         rows,
		criteria:     model.DefaultCriteria(),
		sel:          selection.NewCoordinator(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.chron == nil {
		s.chron = rollup.DefaultChronology()
	}
	if s.projector == nil {
		s.projector = pca.NewProjector()
	}
	s.allOptions = filter.CollectOptions(rows)
	s.recomputeFull()
	s.publish()
	return s
}

// Snapshot returns the current immutable read model. It is safe to call
// from any goroutine.
func (s *Store) Snapshot() *Snapshot { return s.snapshot.Load() }

// Columns returns the projected columns.
func (s *Store) Columns() []string { return append([]string(nil), s.columns...) }

// SetFilters replaces the filter criteria. Empty fields mean "all".
func (s *Store) SetFilters(c model.Criteria) Change {
	c = c.Normalize()
	if c == s.criteria {
		return s.unchanged()
	}
	s.criteria = c
	return s.full(context.Background(), "filters")
}

// PickCell narrows the year and apparatus filters to a heatmap cell.
func (s *Store) PickCell(year, apparatus string) Change {
	c := s.criteria
	if year = strings.TrimSpace(year); year != "" {
		c.Year = year
	}
	if apparatus = strings.TrimSpace(apparatus); apparatus != "" {
		c.Apparatus = apparatus
	}
	return s.SetFilters(c)
}

// SelectAthlete selects an athlete. "" or "all" clears the selection.
func (s *Store) SelectAthlete(name string) Change {
	if !s.sel.SelectAthlete(name) {
		return s.unchanged()
	}
	return s.selectionChanged(context.Background(), "select_athlete")
}

// ClearSelection unsets the selected athlete.
func (s *Store) ClearSelection() Change {
	if !s.sel.ClearSelection() {
		return s.unchanged()
	}
	return s.selectionChanged(context.Background(), "clear_selection")
}

// SetBrush replaces the brushed row ids. nil or empty clears the brush.
func (s *Store) SetBrush(ids []model.ID) Change {
	if !s.sel.SetBrush(ids) {
		return s.unchanged()
	}
	return s.selectionChanged(context.Background(), "brush")
}

// SetHighlight sets the highlighted group. It never triggers a recompute.
func (s *Store) SetHighlight(group string) Change {
	if !s.sel.SetHighlight(group) {
		return s.unchanged()
	}
	return s.emit(Change{Kind: ChangeSelection})
}

// SetMode switches the projection source.
func (s *Store) SetMode(m Mode) Change {
	if m != ModeFiltered && m != ModeBrushed || m == s.mode {
		return s.unchanged()
	}
	s.mode = m
	return s.selectionChanged(context.Background(), "mode")
}

// SetHeatmapMode switches the heatmap column axis.
func (s *Store) SetHeatmapMode(m rollup.HeatmapMode) Change {
	if _, ok := rollup.ParseHeatmapMode(string(m)); !ok || m == s.heatmapMode {
		return s.unchanged()
	}
	start := time.Now()
	s.heatmapMode = m
	s.heatmap = rollup.Heatmap(s.filtered, m, s.chron)
	return s.emit(Change{Kind: ChangeFull, Took: time.Since(start)})
}

// Reset restores all-"all" criteria and clears the selection, keeping the
// projection mode, then rebuilds every view.
func (s *Store) Reset() Change {
	s.criteria = model.DefaultCriteria()
	s.sel.ResetAll()
	return s.full(context.Background(), "reset")
}

// Reload replaces the row set wholesale. Row ids are reassigned on load, so
// the brush and the projection orientation history are dropped.
func (s *Store) Reload(rows []model.Row) Change {
	s.rows = rows
	s.allOptions = filter.CollectOptions(rows)
	s.sel.SetBrush(nil)
	s.projector.Reset()
	return s.full(context.Background(), "reload")
}

func (s *Store) unchanged() Change {
	return Change{Kind: ChangeNone, Snapshot: s.snapshot.Load()}
}

func (s *Store) full(ctx context.Context, cause string) Change {
	start := time.Now()
	s.recomputeFull()
	ch := Change{Kind: ChangeFull, ProjectionChanged: true, Took: time.Since(start), ProjectionTook: s.projectTook}
	s.log.Debug(ctx, "full recompute",
		logger.String("cause", cause),
		logger.Int("filtered", len(s.filtered)),
		logger.Int("active", len(s.active)),
		logger.Int("projected", s.projection.RowCount),
		logger.Duration("took", ch.Took),
	)
	return s.emit(ch)
}

func (s *Store) selectionChanged(ctx context.Context, cause string) Change {
	start := time.Now()
	projected := s.reprojectIfSourceMoved()
	s.recomputeActive()
	ch := Change{Kind: ChangeSelection, ProjectionChanged: projected, Took: time.Since(start)}
	if projected {
		ch.ProjectionTook = s.projectTook
	}
	s.log.Debug(ctx, "selection recompute",
		logger.String("cause", cause),
		logger.Bool("projection", projected),
		logger.Int("active", len(s.active)),
		logger.Duration("took", ch.Took),
	)
	return s.emit(ch)
}

func (s *Store) recomputeFull() {
	s.filtered = filter.Apply(s.rows, s.criteria)
	s.sel.Prune(s.filtered)
	s.options = s.allOptions
	s.options.Athletes = filter.Athletes(s.filtered)
	s.project(s.effectiveSource())
	s.heatmap = rollup.Heatmap(s.filtered, s.heatmapMode, s.chron)
	s.recomputeActive()
}

func (s *Store) recomputeActive() {
	s.active = selection.ActiveView(s.filtered, s.sel.State())
	s.timeline = rollup.Timeline(s.active, s.chron)
	s.summary = rollup.Summarize(s.active)
}

// effectiveSource picks the projection input for the current mode. A brush
// below the minimum size falls back to the filtered set.
func (s *Store) effectiveSource() (projectionKey, []model.Row) {
	st := s.sel.State()
	if s.mode == ModeBrushed && st.HasBrush() {
		subset := selection.Intersect(s.filtered, st.Brush)
		if len(subset) >= s.brushMinRows {
			return projectionKey{source: SourceBrushed, brushVersion: s.sel.BrushVersion()}, subset
		}
	}
	return projectionKey{source: SourceFiltered}, s.filtered
}

func (s *Store) reprojectIfSourceMoved() bool {
	key, rows := s.effectiveSource()
	if key == s.projKey {
		return false
	}
	s.project(key, rows)
	return true
}

func (s *Store) project(key projectionKey, rows []model.Row) {
	start := time.Now()
	s.projection = s.projector.Project(rows, s.columns)
	s.projKey = key
	s.projectTook = time.Since(start)
}

func (s *Store) emit(ch Change) Change {
	s.publish()
	ch.Snapshot = s.snapshot.Load()
	for _, l := range s.listeners {
		l(ch)
	}
	return ch
}

func (s *Store) publish() {
	s.version++
	st := s.sel.State()
	snap := &Snapshot{
		Version:          s.version,
		Criteria:         s.criteria,
		Athlete:          st.Athlete,
		Brush:            st.BrushIDs(),
		Highlight:        st.Highlight,
		Mode:             s.mode,
		HeatmapMode:      s.heatmapMode,
		ProjectionSource: s.projKey.source,
		Columns:          s.Columns(),
		TotalRows:        len(s.rows),
		Filtered:         s.filtered,
		Active:           s.active,
		Projection:       s.projection,
		Heatmap:          s.heatmap,
		Timeline:         s.timeline,
		Summary:          s.summary,
		Options:          s.options,
	}
	snap.activeIDs = selection.IDs(s.active)
	snap.filteredIDs = selection.IDs(s.filtered)
	s.snapshot.Store(snap)
}
