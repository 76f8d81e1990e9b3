// Package filter reduces the loaded row set to the rows matching the global
// categorical criteria.
package filter

import (
	"sort"
	"strconv"
	"strings"

	"github.com/okian/podium/internal/domain/model"
)

// Apply returns the rows satisfying every non-All criterion, in input order.
// The result never aliases rows; an empty result is valid.
func Apply(rows []model.Row, c model.Criteria) []model.Row {
	c = c.Normalize()
	year := canonicalYear(c.Year)

	out := make([]model.Row, 0, len(rows))
	for i := range rows {
		if matches(&rows[i], c, year) {
			out = append(out, rows[i])
		}
	}
	return out
}

// Matches reports whether a single row satisfies c.
func Matches(row model.Row, c model.Criteria) bool {
	c = c.Normalize()
	return matches(&row, c, canonicalYear(c.Year))
}

func matches(r *model.Row, c model.Criteria, year string) bool {
	if c.Year != model.All && strconv.Itoa(r.Year) != year {
		return false
	}
	if c.Apparatus != model.All && r.Apparatus != c.Apparatus {
		return false
	}
	if c.Nation != model.All && r.Nation != c.Nation {
		return false
	}
	if c.Qualified != model.All && string(r.Qualified) != c.Qualified {
		return false
	}
	return true
}

// canonicalYear maps a textual year criterion onto the same decimal form used
// for row years, so "2022", " 2022" and "02022" all select 2022.
func canonicalYear(s string) string {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return strconv.Itoa(n)
	}
	return s
}

// Options lists the distinct values available for each filter selector.
type Options struct {
	Years     []string `json:"years"`
	Apparatus []string `json:"apparatus"`
	Nations   []string `json:"nations"`
	Qualified []string `json:"qualified"`
	Athletes  []string `json:"athletes"`
}

// CollectOptions gathers the distinct selector values observed in rows.
// Years are ordered numerically, everything else lexicographically.
func CollectOptions(rows []model.Row) Options {
	years := make(map[int]struct{})
	apps := make(map[string]struct{})
	nations := make(map[string]struct{})
	quals := make(map[string]struct{})
	athletes := make(map[string]struct{})

	for i := range rows {
		r := &rows[i]
		years[r.Year] = struct{}{}
		apps[r.Apparatus] = struct{}{}
		nations[r.Nation] = struct{}{}
		quals[string(r.Qualified)] = struct{}{}
		athletes[r.Athlete] = struct{}{}
	}

	yearList := make([]int, 0, len(years))
	for y := range years {
		yearList = append(yearList, y)
	}
	sort.Ints(yearList)
	yearStrs := make([]string, len(yearList))
	for i, y := range yearList {
		yearStrs[i] = strconv.Itoa(y)
	}

	return Options{
		Years:     yearStrs,
		Apparatus: sortedKeys(apps),
		Nations:   sortedKeys(nations),
		Qualified: sortedKeys(quals),
		Athletes:  sortedKeys(athletes),
	}
}

// Athletes returns the distinct athletes present in rows, sorted.
func Athletes(rows []model.Row) []string {
	set := make(map[string]struct{})
	for i := range rows {
		set[rows[i].Athlete] = struct{}{}
	}
	return sortedKeys(set)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		if k == "" {
			continue
		}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
