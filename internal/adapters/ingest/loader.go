// Package ingest loads the results CSV into normalized rows.
package ingest

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/pkg/logger"
)

// Result is the outcome of one load.
type Result struct {
	Rows      []model.Row
	Dropped   int
	Delimiter rune
	Columns   map[Field]int
}

// Loader parses CSV input against a declared schema.
type Loader struct {
	schema Schema
	log    logger.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithSchema overrides the declared schema.
func WithSchema(s Schema) Option {
	return func(l *Loader) {
		if len(s) > 0 {
			l.schema = s
		}
	}
}

// WithLogger sets the logger.
func WithLogger(lg logger.Logger) Option {
	return func(l *Loader) {
		if lg != nil {
			l.log = lg
		}
	}
}

// NewLoader returns a loader using DefaultSchema.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{schema: DefaultSchema, log: logger.Nop()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadFile reads and parses the CSV file at path.
func (l *Loader) LoadFile(ctx context.Context, path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return l.Load(ctx, f)
}

// Load parses r. The delimiter is ';' when the header splits into more
// columns on ';' than on ',' and ',' otherwise. Rows failing validation are
// dropped and counted; surviving rows get sequential ids from 0.
func (l *Loader) Load(ctx context.Context, r io.Reader) (Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Result{}, fmt.Errorf("read input: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\uFEFF"))
	if len(bytes.TrimSpace(data)) == 0 {
		return Result{}, ErrEmptyInput
	}

	delim := sniffDelimiter(data)
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delim
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		return Result{}, fmt.Errorf("%w: header: %v", ErrMalformed, err)
	}
	cols, missing := l.schema.resolve(headers)
	if len(missing) > 0 {
		names := make([]string, len(missing))
		for i, f := range missing {
			names[i] = string(f)
		}
		return Result{}, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(names, ", "))
	}

	res := Result{Delimiter: delim, Columns: cols}
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			res.Dropped++
			l.log.Debug(ctx, "skipping malformed line", logger.Int("line", line), logger.Error(err))
			continue
		}
		row, ok := normalize(record, cols)
		if !ok {
			res.Dropped++
			continue
		}
		row.ID = model.ID(len(res.Rows))
		res.Rows = append(res.Rows, row)
	}

	l.log.Info(ctx, "dataset loaded",
		logger.Int("rows", len(res.Rows)),
		logger.Int("dropped", res.Dropped),
		logger.String("delimiter", string(delim)),
	)
	return res, nil
}

func sniffDelimiter(data []byte) rune {
	header := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		header = data[:i]
	}
	count := func(d rune) int {
		rd := csv.NewReader(bytes.NewReader(header))
		rd.Comma = d
		rd.LazyQuotes = true
		fields, err := rd.Read()
		if err != nil {
			return 0
		}
		return len(fields)
	}
	if count(';') > count(',') {
		return ';'
	}
	return ','
}

func normalize(record []string, cols map[Field]int) (model.Row, bool) {
	cell := func(f Field) string {
		i, ok := cols[f]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	year, err := strconv.Atoi(cell(FieldYear))
	if err != nil {
		return model.Row{}, false
	}
	row := model.Row{
		Athlete:     cell(FieldAthlete),
		Nation:      cell(FieldNation),
		Year:        year,
		Competition: strings.ToLower(cell(FieldCompetition)),
		Event:       cell(FieldEvent),
		EventDate:   cell(FieldEventDate),
		Apparatus:   cell(FieldApparatus),
		Qualified:   model.Qualified(strings.ToUpper(cell(FieldQualified))),
		Dscore:      toNumber(cell(FieldDscore)),
		Escore:      toNumber(cell(FieldEscore)),
		Penalties:   toNumber(cell(FieldPenalties)),
		FinalScore:  toNumber(cell(FieldFinalScore)),
	}
	if rank, err := strconv.Atoi(cell(FieldRank)); err == nil {
		row.Rank = &rank
	}
	return row, row.Valid()
}

// toNumber parses a decimal that may use a comma separator. Empty or
// non-finite input yields NaN.
func toNumber(s string) float64 {
	s = strings.Replace(strings.TrimSpace(s), ",", ".", 1)
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) {
		return math.NaN()
	}
	return v
}
