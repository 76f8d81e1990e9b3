package loadgen

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/okian/podium/internal/domain/filter"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/rollup"
	"github.com/okian/podium/internal/domain/session"
)

// Score ranges per performer tier.
const (
	eliteDMin, eliteDRange = 5.8, 0.8
	highDMin, highDRange   = 5.2, 0.6
	avgDMin, avgDRange     = 4.4, 0.8
	lowDMin, lowDRange     = 3.0, 1.4
	eMin, eRange           = 6.5, 2.4
	penaltyChance          = 0.2
	penaltyStep            = 0.1
	maxPenaltySteps        = 4
)

// Performer tiers.
const (
	tierElite = iota
	tierHigh
	tierAverage
	tierLow
)

type meet struct {
	event       string
	competition string
	year        int
	date        string
}

var meets = []meet{
	{"Liverpool", "world", 2022, "2022-11-05"},
	{"Munich", "european", 2022, "2022-08-18"},
	{"Antalya", "world cup", 2023, ""},
	{"Antwerp", "world", 2023, "2023-09-30"},
	{"Rimini", "european", 2024, ""},
}

var (
	apparatus = []string{"VT", "UB", "BB", "FX"}
	nations   = []string{"ITA", "GBR", "USA", "JPN", "BRA", "FRA", "CHN", "NED"}
	given     = []string{"Alice", "Bea", "Chiara", "Dana", "Elena", "Fumi", "Greta", "Hana", "Ines", "Julia", "Kaya", "Lena"}
)

// GenerateRows returns n synthetic results. The same seed yields the same rows.
func GenerateRows(seed uint64, n int) []model.Row {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	type athlete struct {
		name, nation string
		tier         int
	}
	roster := make([]athlete, 0, len(given)*2)
	for i, g := range given {
		for j := 0; j < 2; j++ {
			roster = append(roster, athlete{
				name:   fmt.Sprintf("%s %c.", g, 'A'+rune(j)),
				nation: nations[(i+j*3)%len(nations)],
				tier:   pickTier(r),
			})
		}
	}

	rows := make([]model.Row, 0, n)
	for i := 0; i < n; i++ {
		a := roster[r.IntN(len(roster))]
		m := meets[r.IntN(len(meets))]
		d := round3(dScore(r, a.tier))
		e := round3(eMin + r.Float64()*eRange)
		p := 0.0
		if r.Float64() < penaltyChance {
			p = round3(float64(1+r.IntN(maxPenaltySteps)) * penaltyStep)
		}
		rows = append(rows, model.Row{
			ID:          model.ID(i),
			Athlete:     a.name,
			Nation:      a.nation,
			Year:        m.year,
			Competition: m.competition,
			Event:       m.event,
			EventDate:   m.date,
			Apparatus:   apparatus[r.IntN(len(apparatus))],
			Qualified:   []model.Qualified{model.QualifiedYes, model.QualifiedNo, model.QualifiedReserve}[r.IntN(3)],
			Dscore:      d,
			Escore:      e,
			Penalties:   p,
			FinalScore:  round3(d + e - p),
		})
	}
	return rows
}

func pickTier(r *rand.Rand) int {
	switch n := r.IntN(10); {
	case n == 0:
		return tierElite
	case n < 3:
		return tierHigh
	case n < 8:
		return tierAverage
	default:
		return tierLow
	}
}

func dScore(r *rand.Rand, tier int) float64 {
	switch tier {
	case tierElite:
		return eliteDMin + r.Float64()*eliteDRange
	case tierHigh:
		return highDMin + r.Float64()*highDRange
	case tierAverage:
		return avgDMin + r.Float64()*avgDRange
	default:
		return lowDMin + r.Float64()*lowDRange
	}
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// WriteCSV writes rows in the semicolon dialect with decimal commas.
func WriteCSV(w io.Writer, rows []model.Row) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'
	header := []string{"Athlete", "Nation", "Year", "Competition", "Event", "Event Date", "Apparatus", "Qualified", "D Score", "E Score", "Penalties", "Final Score", "Rank"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range rows {
		rank := ""
		if row.Rank != nil {
			rank = strconv.Itoa(*row.Rank)
		}
		record := []string{
			row.Athlete,
			row.Nation,
			strconv.Itoa(row.Year),
			row.Competition,
			row.Event,
			row.EventDate,
			row.Apparatus,
			string(row.Qualified),
			decimal(row.Dscore),
			decimal(row.Escore),
			decimal(row.Penalties),
			decimal(row.FinalScore),
			rank,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", row.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func decimal(v float64) string {
	return strings.Replace(strconv.FormatFloat(v, 'f', 3, 64), ".", ",", 1)
}

// Universe is the set of values intents are drawn from.
type Universe struct {
	filter.Options
	Competitions []string
	Rows         int
}

// UniverseOf builds a Universe from rows.
func UniverseOf(rows []model.Row) Universe {
	seen := make(map[string]struct{})
	var comps []string
	for _, row := range rows {
		if _, ok := seen[row.Competition]; !ok && row.Competition != "" {
			seen[row.Competition] = struct{}{}
			comps = append(comps, row.Competition)
		}
	}
	return Universe{Options: filter.CollectOptions(rows), Competitions: comps, Rows: len(rows)}
}

// RandomIntent draws an intent over u. Every kind is reachable.
func RandomIntent(r *rand.Rand, u Universe) session.Intent {
	in := session.Intent{ID: uuid.NewString()}
	switch r.IntN(10) {
	case 0, 1:
		c := model.DefaultCriteria()
		if r.IntN(2) == 0 {
			c.Apparatus = pick(r, u.Apparatus, model.All)
		}
		if r.IntN(2) == 0 {
			c.Year = pick(r, u.Years, model.All)
		}
		in.Kind, in.Criteria = session.IntentFilters, &c
	case 2:
		in.Kind = session.IntentPickCell
		in.Year, in.Apparatus = pick(r, u.Years, model.All), pick(r, u.Apparatus, model.All)
	case 3:
		in.Kind, in.Athlete = session.IntentSelectAthlete, pick(r, u.Athletes, "")
	case 4:
		in.Kind = session.IntentClearSelection
	case 5, 6:
		in.Kind = session.IntentBrush
		if u.Rows > 0 {
			in.Brush = make([]model.ID, 0, 8)
			for i := 0; i < 8; i++ {
				in.Brush = append(in.Brush, model.ID(r.IntN(u.Rows)))
			}
		}
	case 7:
		in.Kind, in.Highlight = session.IntentHighlight, pick(r, u.Competitions, "")
	case 8:
		in.Kind = session.IntentMode
		in.Mode = string([]session.Mode{session.ModeFiltered, session.ModeBrushed}[r.IntN(2)])
	default:
		in.Kind = session.IntentHeatmapMode
		in.HeatmapMode = string([]rollup.HeatmapMode{rollup.HeatmapYear, rollup.HeatmapEvent, rollup.HeatmapYearEvent}[r.IntN(3)])
	}
	return in
}

func pick(r *rand.Rand, values []string, fallback string) string {
	if len(values) == 0 {
		return fallback
	}
	return values[r.IntN(len(values))]
}
