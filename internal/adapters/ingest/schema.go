package ingest

import (
	"strings"
	"unicode"
)

// Field is a canonical row field.
type Field string

// Canonical fields.
const (
	FieldAthlete     Field = "Athlete"
	FieldNation      Field = "Nation"
	FieldYear        Field = "Year"
	FieldCompetition Field = "Competition"
	FieldEvent       Field = "Event"
	FieldEventDate   Field = "EventDate"
	FieldApparatus   Field = "Apparatus"
	FieldQualified   Field = "Qualified"
	FieldDscore      Field = "Dscore"
	FieldEscore      Field = "Escore"
	FieldPenalties   Field = "Penalties"
	FieldFinalScore  Field = "FinalScore"
	FieldRank        Field = "Rank"
)

// Column declares the accepted header aliases of a field.
type Column struct {
	Field    Field
	Aliases  []string
	Required bool
}

// Schema is the declared mapping from canonical fields to header aliases.
type Schema []Column

// DefaultSchema accepts the dataset's own headers plus common variants.
var DefaultSchema = Schema{
	{Field: FieldAthlete, Aliases: []string{"Athlete", "Gymnast", "Name"}, Required: true},
	{Field: FieldNation, Aliases: []string{"Nation", "Country", "NOC"}},
	{Field: FieldYear, Aliases: []string{"Year", "Season"}, Required: true},
	{Field: FieldCompetition, Aliases: []string{"Competition", "Championship"}},
	{Field: FieldEvent, Aliases: []string{"Event", "Venue", "Location"}},
	{Field: FieldEventDate, Aliases: []string{"EventDate", "Event Date", "Date"}},
	{Field: FieldApparatus, Aliases: []string{"Apparatus", "App"}, Required: true},
	{Field: FieldQualified, Aliases: []string{"Qualified", "Q"}},
	{Field: FieldDscore, Aliases: []string{"Dscore", "D Score", "D"}, Required: true},
	{Field: FieldEscore, Aliases: []string{"Escore", "E Score", "E"}, Required: true},
	{Field: FieldPenalties, Aliases: []string{"Penalties", "Penalty", "ND"}},
	{Field: FieldFinalScore, Aliases: []string{"FinalScore", "Final Score", "Total", "Score"}, Required: true},
	{Field: FieldRank, Aliases: []string{"Rank", "Position"}},
}

// normalizeHeader strips a byte order mark and whitespace and lowercases.
func normalizeHeader(h string) string {
	h = strings.ReplaceAll(h, "\uFEFF", "")
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '_' || r == '-' {
			return -1
		}
		return unicode.ToLower(r)
	}, h)
}

// resolve maps each schema field to its column index in headers. The first
// alias present wins. A missing required field is reported by name.
func (s Schema) resolve(headers []string) (map[Field]int, []Field) {
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		k := normalizeHeader(h)
		if _, dup := index[k]; !dup {
			index[k] = i
		}
	}
	cols := make(map[Field]int, len(s))
	var missing []Field
	for _, c := range s {
		found := false
		for _, alias := range append([]string{string(c.Field)}, c.Aliases...) {
			if i, ok := index[normalizeHeader(alias)]; ok {
				cols[c.Field] = i
				found = true
				break
			}
		}
		if !found && c.Required {
			missing = append(missing, c.Field)
		}
	}
	return cols, missing
}
