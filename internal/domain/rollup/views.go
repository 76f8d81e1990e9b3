package rollup

import (
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/okian/podium/internal/domain/model"
)

// HeatmapMode selects the column axis of the heatmap.
type HeatmapMode string

// Heatmap modes.
const (
	HeatmapYear      HeatmapMode = "year"
	HeatmapEvent     HeatmapMode = "event"
	HeatmapYearEvent HeatmapMode = "year_event"
)

// ParseHeatmapMode maps s onto a known mode; unknown values yield HeatmapYear.
func ParseHeatmapMode(s string) (HeatmapMode, bool) {
	switch m := HeatmapMode(strings.ToLower(strings.TrimSpace(s))); m {
	case HeatmapYear, HeatmapEvent, HeatmapYearEvent:
		return m, true
	}
	return HeatmapYear, false
}

// yearEventSep joins year and event in combined heatmap keys.
const yearEventSep = "|"

// ApparatusAxis groups rows by apparatus.
var ApparatusAxis = Axis{
	Name:  "apparatus",
	Key:   func(r model.Row) string { return r.Apparatus },
	Order: Lexical,
}

// YearAxis groups rows by year, ascending.
var YearAxis = Axis{
	Name: "year",
	Key: func(r model.Row) string {
		if r.Year == 0 {
			return ""
		}
		return strconv.Itoa(r.Year)
	},
	Order: Numeric,
}

// EventAxis groups rows by event name.
var EventAxis = Axis{
	Name:  "event",
	Key:   func(r model.Row) string { return r.Event },
	Order: Lexical,
}

// YearEventAxis groups rows by year and event, ordered chronologically by c.
func YearEventAxis(c *Chronology) Axis {
	return Axis{
		Name: "year_event",
		Key: func(r model.Row) string {
			if r.Year == 0 || r.Event == "" {
				return ""
			}
			return strconv.Itoa(r.Year) + yearEventSep + r.Event
		},
		Order: Chronological(c),
	}
}

// Heatmap returns the apparatus by mode grid of mean FinalScore.
func Heatmap(rows []model.Row, mode HeatmapMode, c *Chronology) Table {
	var b Axis
	switch mode {
	case HeatmapEvent:
		b = EventAxis
	case HeatmapYearEvent:
		b = YearEventAxis(c)
	default:
		b = YearAxis
	}
	return Rollup(rows, ApparatusAxis, &b)
}

// ColumnLabel renders a heatmap column key for display.
func ColumnLabel(mode HeatmapMode, key string) string {
	switch mode {
	case HeatmapEvent:
		return ShortLabel(key)
	case HeatmapYearEvent:
		year, event, _ := strings.Cut(key, yearEventSep)
		return year + " " + ShortLabel(event)
	default:
		return key
	}
}

var shortLabels = []struct{ keyword, label string }{
	{"liverpool", "LIV"},
	{"munich", "MUN"},
	{"antalya", "ANT"},
	{"antwerp", "ANW"},
	{"rimini", "RIM"},
}

const shortLabelRunes = 8

// ShortLabel abbreviates known events to a three letter code and truncates
// other names to eight runes followed by an ellipsis.
func ShortLabel(event string) string {
	lower := strings.ToLower(event)
	for _, s := range shortLabels {
		if strings.Contains(lower, s.keyword) {
			return s.label
		}
	}
	raw := []rune(strings.TrimSpace(event))
	if len(raw) > shortLabelRunes {
		return string(raw[:shortLabelRunes]) + "…"
	}
	return string(raw)
}

// TimelinePoint is the score spread of one competition occurrence.
type TimelinePoint struct {
	Competition string    `json:"competition"`
	Event       string    `json:"event"`
	Label       string    `json:"label"`
	Date        time.Time `json:"date"`
	Mean        float64   `json:"mean"`
	Min         float64   `json:"min"`
	Max         float64   `json:"max"`
	Count       int       `json:"count"`
}

// Timeline groups rows by (Competition, Event) and returns the observed groups
// sorted by event date. A blank competition or event is a group of its own.
// Groups whose date cannot be resolved are dropped.
func Timeline(rows []model.Row, c *Chronology) []TimelinePoint {
	comp := Axis{Name: "competition", Key: func(r model.Row) string { return r.Competition }, KeepBlank: true}
	event := EventAxis
	event.KeepBlank = true
	t := Rollup(rows, comp, &event)

	points := make([]TimelinePoint, 0, len(t.Cells))
	for _, cell := range t.Cells {
		if cell.Stats == nil {
			continue
		}
		date, ok := c.Date(cell.Stats.Sample)
		if !ok {
			continue
		}
		points = append(points, TimelinePoint{
			Competition: cell.KeyA,
			Event:       cell.KeyB,
			Label:       ShortLabel(cell.KeyB),
			Date:        date,
			Mean:        cell.Stats.Mean,
			Min:         cell.Stats.Min,
			Max:         cell.Stats.Max,
			Count:       cell.Stats.Count,
		})
	}
	slices.SortStableFunc(points, func(a, b TimelinePoint) int {
		return a.Date.Compare(b.Date)
	})
	return points
}

// Summary holds headline statistics of a row set. Averages are nil when no
// row contributes a finite value.
type Summary struct {
	Rows     int      `json:"rows"`
	AvgFinal *float64 `json:"avg_final"`
	AvgD     *float64 `json:"avg_d"`
	AvgE     *float64 `json:"avg_e"`
}

// Summarize computes the row count and mean Final, D and E scores.
func Summarize(rows []model.Row) Summary {
	final := make([]float64, 0, len(rows))
	d := make([]float64, 0, len(rows))
	e := make([]float64, 0, len(rows))
	for i := range rows {
		final = appendFinite(final, rows[i].FinalScore)
		d = appendFinite(d, rows[i].Dscore)
		e = appendFinite(e, rows[i].Escore)
	}
	return Summary{
		Rows:     len(rows),
		AvgFinal: mean(final),
		AvgD:     mean(d),
		AvgE:     mean(e),
	}
}

func appendFinite(dst []float64, v float64) []float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return dst
	}
	return append(dst, v)
}

func mean(xs []float64) *float64 {
	if len(xs) == 0 {
		return nil
	}
	m := stat.Mean(xs, nil)
	return &m
}
