// Package model contains domain models passed between layers.
package model

import "math"

// ID identifies a row for the lifetime of a loaded dataset.
type ID = uint32

// Qualified is the qualification outcome recorded for a performance.
type Qualified string

// Qualification outcomes.
const (
	QualifiedYes     Qualified = "Y"
	QualifiedNo      Qualified = "N"
	QualifiedReserve Qualified = "R"
)

// Numeric column names accepted by Row.Value.
const (
	ColumnDscore     = "Dscore"
	ColumnEscore     = "Escore"
	ColumnPenalties  = "Penalties"
	ColumnFinalScore = "FinalScore"
	ColumnRank       = "Rank"
	ColumnYear       = "Year"
)

// DefaultProjectionColumns are the numeric columns projected when none are configured.
var DefaultProjectionColumns = []string{ColumnDscore, ColumnEscore, ColumnFinalScore, ColumnPenalties}

// Row is one normalized performance record. Rows are immutable once loaded.
type Row struct {
	ID          ID        `json:"id"`
	Athlete     string    `json:"athlete"`
	Nation      string    `json:"nation"`
	Year        int       `json:"year"`
	Competition string    `json:"competition"`
	Event       string    `json:"event"`
	EventDate   string    `json:"event_date,omitempty"`
	Apparatus   string    `json:"apparatus"`
	Qualified   Qualified `json:"qualified"`
	Dscore      float64   `json:"dscore"`
	Escore      float64   `json:"escore"`
	Penalties   float64   `json:"penalties"`
	FinalScore  float64   `json:"final_score"`
	Rank        *int      `json:"rank,omitempty"`
}

// Valid reports whether the row may take part in numeric computations.
func (r Row) Valid() bool {
	return r.Athlete != "" &&
		r.Apparatus != "" &&
		finite(r.Dscore) &&
		finite(r.Escore) &&
		finite(r.FinalScore)
}

// Value returns the numeric value stored under column.
// The second result is false for unknown columns and unset ranks.
func (r Row) Value(column string) (float64, bool) {
	switch column {
	case ColumnDscore:
		return r.Dscore, true
	case ColumnEscore:
		return r.Escore, true
	case ColumnPenalties:
		return r.Penalties, true
	case ColumnFinalScore:
		return r.FinalScore, true
	case ColumnYear:
		return float64(r.Year), true
	case ColumnRank:
		if r.Rank == nil {
			return math.NaN(), false
		}
		return float64(*r.Rank), true
	default:
		return math.NaN(), false
	}
}

// IsNumericColumn reports whether column can be resolved by Row.Value.
func IsNumericColumn(column string) bool {
	switch column {
	case ColumnDscore, ColumnEscore, ColumnPenalties, ColumnFinalScore, ColumnRank, ColumnYear:
		return true
	}
	return false
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
