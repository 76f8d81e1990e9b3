// Package rollup computes grouped FinalScore statistics over one or two
// categorical keys as dense grids.
package rollup

import (
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/okian/podium/internal/domain/model"
)

// Observed is a key value seen on an axis together with the first row that
// produced it. Orderings may inspect the sample to rank keys.
type Observed struct {
	Key    string
	Sample model.Row
}

// Ordering compares two observed keys, returning a negative number when a
// sorts before b, zero when equal and a positive number otherwise.
type Ordering func(a, b Observed) int

// Axis describes one grouping dimension. Rows with an empty key are skipped
// unless KeepBlank is set, in which case they form the "" group.
type Axis struct {
	Name      string
	Key       func(model.Row) string
	Order     Ordering
	KeepBlank bool
}

// Lexical orders keys by byte-wise string comparison.
func Lexical(a, b Observed) int {
	return strings.Compare(a.Key, b.Key)
}

// Numeric orders keys by their numeric value. Non-numeric keys sort after
// numeric ones and lexically among themselves.
func Numeric(a, b Observed) int {
	x, errA := strconv.ParseFloat(a.Key, 64)
	y, errB := strconv.ParseFloat(b.Key, 64)
	switch {
	case errA == nil && errB == nil:
		if x != y {
			if x < y {
				return -1
			}
			return 1
		}
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	}
	return strings.Compare(a.Key, b.Key)
}

// Stats summarizes the FinalScore values of a group.
type Stats struct {
	Mean  float64 `json:"mean"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
	// Sample is the first row of the group, kept for date lookups.
	Sample model.Row `json:"-"`
}

// Cell is one grid entry. Stats is nil when no row fell into the cell.
type Cell struct {
	KeyA  string `json:"key_a"`
	KeyB  string `json:"key_b,omitempty"`
	Stats *Stats `json:"stats"`
}

// Table is a dense grid of cells, row-major over KeysA then KeysB. A
// one-dimensional table has no KeysB and one cell per KeysA entry.
type Table struct {
	AxisA string   `json:"axis_a"`
	AxisB string   `json:"axis_b,omitempty"`
	KeysA []string `json:"keys_a"`
	KeysB []string `json:"keys_b,omitempty"`
	Cells []Cell   `json:"cells"`
}

// Cell returns the statistics stored for (a, b). Pass an empty b for a
// one-dimensional table. The boolean is false when the key pair is not part
// of the grid; a present cell may still carry nil stats.
func (t Table) Cell(a, b string) (*Stats, bool) {
	i := slices.Index(t.KeysA, a)
	if i < 0 {
		return nil, false
	}
	if len(t.KeysB) == 0 {
		if b != "" {
			return nil, false
		}
		return t.Cells[i].Stats, true
	}
	j := slices.Index(t.KeysB, b)
	if j < 0 {
		return nil, false
	}
	return t.Cells[i*len(t.KeysB)+j].Stats, true
}

// Empty reports whether the table has no cells.
func (t Table) Empty() bool { return len(t.Cells) == 0 }

// MeanExtent returns the smallest and largest non-null cell mean. ok is
// false when every cell is null.
func (t Table) MeanExtent() (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, c := range t.Cells {
		if c.Stats == nil {
			continue
		}
		ok = true
		lo = math.Min(lo, c.Stats.Mean)
		hi = math.Max(hi, c.Stats.Mean)
	}
	if !ok {
		return 0, 0, false
	}
	return lo, hi, true
}

type accumulator struct {
	sum, min, max float64
	n             int
	sample        model.Row
}

func (acc *accumulator) add(r model.Row) {
	if acc.n == 0 {
		acc.min, acc.max, acc.sample = r.FinalScore, r.FinalScore, r
	}
	acc.sum += r.FinalScore
	acc.min = math.Min(acc.min, r.FinalScore)
	acc.max = math.Max(acc.max, r.FinalScore)
	acc.n++
}

func (acc *accumulator) stats() *Stats {
	if acc == nil || acc.n == 0 {
		return nil
	}
	return &Stats{
		Mean:   acc.sum / float64(acc.n),
		Min:    acc.min,
		Max:    acc.max,
		Count:  acc.n,
		Sample: acc.sample,
	}
}

// Rollup groups rows by a (and b when non-nil) and returns the dense grid of
// FinalScore statistics over every combination of observed keys. Invalid
// rows and rows with an empty key on an axis without KeepBlank are skipped.
func Rollup(rows []model.Row, a Axis, b *Axis) Table {
	type pair struct{ a, b string }

	seenA := make(map[string]model.Row)
	seenB := make(map[string]model.Row)
	groups := make(map[pair]*accumulator)

	for i := range rows {
		r := rows[i]
		if !r.Valid() {
			continue
		}
		ka := a.Key(r)
		if ka == "" && !a.KeepBlank {
			continue
		}
		var kb string
		if b != nil {
			if kb = b.Key(r); kb == "" && !b.KeepBlank {
				continue
			}
			if _, ok := seenB[kb]; !ok {
				seenB[kb] = r
			}
		}
		if _, ok := seenA[ka]; !ok {
			seenA[ka] = r
		}
		k := pair{ka, kb}
		acc := groups[k]
		if acc == nil {
			acc = &accumulator{}
			groups[k] = acc
		}
		acc.add(r)
	}

	t := Table{AxisA: a.Name, KeysA: orderedKeys(seenA, a.Order)}
	if b == nil {
		t.Cells = make([]Cell, 0, len(t.KeysA))
		for _, ka := range t.KeysA {
			t.Cells = append(t.Cells, Cell{KeyA: ka, Stats: groups[pair{ka, ""}].stats()})
		}
		return t
	}

	t.AxisB = b.Name
	t.KeysB = orderedKeys(seenB, b.Order)
	t.Cells = make([]Cell, 0, len(t.KeysA)*len(t.KeysB))
	for _, ka := range t.KeysA {
		for _, kb := range t.KeysB {
			t.Cells = append(t.Cells, Cell{KeyA: ka, KeyB: kb, Stats: groups[pair{ka, kb}].stats()})
		}
	}
	return t
}

func orderedKeys(seen map[string]model.Row, order Ordering) []string {
	if order == nil {
		order = Lexical
	}
	obs := make([]Observed, 0, len(seen))
	for k, r := range seen {
		obs = append(obs, Observed{Key: k, Sample: r})
	}
	slices.SortStableFunc(obs, func(x, y Observed) int {
		if c := order(x, y); c != 0 {
			return c
		}
		return strings.Compare(x.Key, y.Key)
	})
	keys := make([]string, len(obs))
	for i, o := range obs {
		keys[i] = o.Key
	}
	return keys
}
