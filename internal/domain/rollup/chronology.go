package rollup

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/okian/podium/internal/domain/model"
)

// ErrInvalidEventDate is returned when an event date table entry cannot be parsed.
var ErrInvalidEventDate = errors.New("invalid event date")

const (
	isoLayout    = "2006-01-02"
	dayMonthYear = "02/01/2006"
)

// DefaultEventDates maps known event keywords to their dates.
var DefaultEventDates = map[string]string{
	"liverpool": "2022-11-05",
	"munich":    "2022-08-18",
	"antalya":   "2023-04-11",
	"antwerp":   "2023-09-30",
	"rimini":    "2024-04-24",
}

type keywordDate struct {
	keyword string
	date    time.Time
}

// Chronology resolves the date of the event a row belongs to.
// Resolution order: the row's own EventDate, a keyword lookup on the event
// name, then July 1 of the row's year.
type Chronology struct {
	table []keywordDate
}

// NewChronology builds a chronology from keyword -> YYYY-MM-DD entries.
// Keywords are matched case-insensitively as substrings of the event name,
// in lexical keyword order.
func NewChronology(table map[string]string) (*Chronology, error) {
	fold := cases.Fold()
	c := &Chronology{table: make([]keywordDate, 0, len(table))}
	for k, v := range table {
		d, err := time.Parse(isoLayout, strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("%w: %q for %q", ErrInvalidEventDate, v, k)
		}
		kw := fold.String(strings.TrimSpace(k))
		if kw == "" {
			continue
		}
		c.table = append(c.table, keywordDate{keyword: kw, date: d})
	}
	slices.SortFunc(c.table, func(a, b keywordDate) int { return strings.Compare(a.keyword, b.keyword) })
	return c, nil
}

// DefaultChronology returns a chronology over DefaultEventDates.
func DefaultChronology() *Chronology {
	c, err := NewChronology(DefaultEventDates)
	if err != nil {
		panic(err)
	}
	return c
}

// Date returns the event date of row. ok is false when nothing resolves,
// which only happens for rows without a positive year.
func (c *Chronology) Date(row model.Row) (time.Time, bool) {
	if s := strings.TrimSpace(row.EventDate); s != "" {
		for _, layout := range []string{dayMonthYear, isoLayout, time.RFC3339} {
			if d, err := time.Parse(layout, s); err == nil {
				return d, true
			}
		}
	}
	if c != nil && row.Event != "" {
		// Casers are stateful and must not be shared between goroutines.
		name := cases.Fold().String(row.Event)
		for _, e := range c.table {
			if strings.Contains(name, e.keyword) {
				return e.date, true
			}
		}
	}
	if row.Year > 0 {
		return time.Date(row.Year, time.July, 1, 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

// Chronological orders keys by the year of their sample row, then by event
// date with dated keys first, then by event name.
func Chronological(c *Chronology) Ordering {
	return func(a, b Observed) int {
		if a.Sample.Year != b.Sample.Year {
			if a.Sample.Year < b.Sample.Year {
				return -1
			}
			return 1
		}
		da, okA := c.Date(a.Sample)
		db, okB := c.Date(b.Sample)
		switch {
		case okA && okB:
			if cmp := da.Compare(db); cmp != 0 {
				return cmp
			}
		case okA:
			return -1
		case okB:
			return 1
		}
		return strings.Compare(a.Sample.Event, b.Sample.Event)
	}
}
