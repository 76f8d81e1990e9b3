package model

// All is the criterion value that disables a filter dimension.
const All = "all"

// Criteria holds the global categorical filters. Each field is either All or
// an exact value to match.
type Criteria struct {
	Year      string `json:"year"`
	Apparatus string `json:"apparatus"`
	Nation    string `json:"nation"`
	Qualified string `json:"qualified"`
}

// DefaultCriteria returns criteria with every dimension set to All.
func DefaultCriteria() Criteria {
	return Criteria{Year: All, Apparatus: All, Nation: All, Qualified: All}
}

// Normalize maps empty dimensions to All.
func (c Criteria) Normalize() Criteria {
	if c.Year == "" {
		c.Year = All
	}
	if c.Apparatus == "" {
		c.Apparatus = All
	}
	if c.Nation == "" {
		c.Nation = All
	}
	if c.Qualified == "" {
		c.Qualified = All
	}
	return c
}
