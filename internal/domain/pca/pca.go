// Package pca projects multi-column numeric rows onto their two principal axes.
//
// The projection standardizes each requested column, forms the sample
// covariance matrix and extracts the two dominant eigenvectors by power
// iteration with deflation. Every failure mode (too few rows, degenerate
// spread, diverging iterates) collapses into an empty or zeroed result; the
// package never returns an error and never emits NaN.
package pca

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/okian/podium/internal/domain/model"
)

// Numerical constants.
const (
	// DefaultIterations is the fixed power-iteration budget per component.
	DefaultIterations = 250
	// degenerateEpsilon bounds scales, norms and traces treated as zero.
	degenerateEpsilon = 1e-12
	// startSeed fixes the start vector so runs are reproducible.
	startSeed = 42
)

// Point is a single projected row.
type Point struct {
	RowID model.ID `json:"row_id"`
	PC1   float64  `json:"pc1"`
	PC2   float64  `json:"pc2"`
}

// Result holds the projected points and the diagnostics of one projection.
type Result struct {
	Points      []Point                       `json:"points"`
	Columns     []string                      `json:"columns"`
	RowCount    int                           `json:"row_count"`
	Mean        []float64                     `json:"mean"`
	Scale       []float64                     `json:"scale"`
	Eigenvalues [2]float64                    `json:"eigenvalues"`
	Explained   [2]float64                    `json:"explained"`
	Loadings    map[string]map[string]float64 `json:"loadings"`
}

// Axis names used as loadings keys.
const (
	AxisPC1 = "PC1"
	AxisPC2 = "PC2"
)

// Empty reports whether the result carries no points.
func (r Result) Empty() bool { return len(r.Points) == 0 }

// Diagnostics is the read-only summary shown next to the projection.
type Diagnostics struct {
	RowCount    int                           `json:"row_count"`
	Columns     []string                      `json:"columns"`
	Eigenvalues [2]float64                    `json:"eigenvalues"`
	Explained   [2]float64                    `json:"explained"`
	Loadings    map[string]map[string]float64 `json:"loadings"`
}

// Diagnostics returns the diagnostics of r without its points.
func (r Result) Diagnostics() Diagnostics {
	return Diagnostics{
		RowCount:    r.RowCount,
		Columns:     r.Columns,
		Eigenvalues: r.Eigenvalues,
		Explained:   r.Explained,
		Loadings:    r.Loadings,
	}
}

// Option configures a projection.
type Option func(*config)

type config struct {
	iterations int
}

// WithIterations overrides the power-iteration budget.
func WithIterations(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.iterations = n
		}
	}
}

// Project computes the two-axis projection of rows over columns. It keeps no
// history; use a Projector for sign-stable projections across calls.
func Project(rows []model.Row, columns []string, opts ...Option) Result {
	cfg := config{iterations: DefaultIterations}
	for _, opt := range opts {
		opt(&cfg)
	}

	cols := append([]string(nil), columns...)
	usable := usableRows(rows, cols)
	n, p := len(usable), len(cols)
	if n < 2 || p < 2 {
		return emptyResult(cols, p)
	}

	// Standardize column by column.
	means := make([]float64, p)
	scales := make([]float64, p)
	data := make([]float64, n*p)
	column := make([]float64, n)
	for j, c := range cols {
		for i := range usable {
			column[i], _ = usable[i].Value(c)
		}
		mu, sd, z := Standardize(column)
		means[j], scales[j] = mu, sd
		for i, v := range z {
			data[i*p+j] = v
		}
	}
	x := mat.NewDense(n, p, data)

	cov := mat.NewSymDense(p, nil)
	stat.CovarianceMatrix(cov, x, nil)

	start := startVector(p)
	v1 := powerIteration(cov, start, nil, cfg.iterations)
	l1 := rayleigh(cov, v1)

	deflated := mat.NewSymDense(p, nil)
	deflated.SymRankOne(cov, -l1, v1)
	v2 := powerIteration(deflated, start, v1, cfg.iterations)
	l2 := rayleigh(deflated, v2)

	points := make([]Point, n)
	for i := range usable {
		row := x.RowView(i)
		points[i] = Point{
			RowID: usable[i].ID,
			PC1:   finiteOrZero(mat.Dot(row, v1)),
			PC2:   finiteOrZero(mat.Dot(row, v2)),
		}
	}

	res := Result{
		Points:      points,
		Columns:     cols,
		RowCount:    n,
		Mean:        means,
		Scale:       scales,
		Eigenvalues: [2]float64{finiteOrZero(l1), finiteOrZero(l2)},
		Loadings:    loadings(cols, v1, v2),
	}
	res.Explained = explained(mat.Trace(cov), res.Eigenvalues)
	return res
}

// Standardize returns the mean and sample standard deviation of values and
// the values rescaled to zero mean and unit deviation. A degenerate deviation
// (at most 1e-12, or undefined) is replaced by 1 so constant columns
// standardize to zeros instead of dividing by ~0.
func Standardize(values []float64) (mean, scale float64, out []float64) {
	out = make([]float64, len(values))
	if len(values) == 0 {
		return 0, 1, out
	}
	mean = stat.Mean(values, nil)
	scale = 1
	if len(values) > 1 {
		if sd := stat.StdDev(values, nil); !math.IsNaN(sd) && !math.IsInf(sd, 0) && sd > degenerateEpsilon {
			scale = sd
		}
	}
	for i, v := range values {
		out[i] = (v - mean) / scale
	}
	return mean, scale, out
}

// usableRows keeps valid rows with a finite value in every requested column.
func usableRows(rows []model.Row, cols []string) []model.Row {
	out := make([]model.Row, 0, len(rows))
	for i := range rows {
		if !rows[i].Valid() {
			continue
		}
		ok := true
		for _, c := range cols {
			v, has := rows[i].Value(c)
			if !has || math.IsNaN(v) || math.IsInf(v, 0) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, rows[i])
		}
	}
	return out
}

func emptyResult(cols []string, p int) Result {
	return Result{
		Points:   []Point{},
		Columns:  cols,
		Mean:     make([]float64, p),
		Scale:    make([]float64, p),
		Loadings: map[string]map[string]float64{AxisPC1: {}, AxisPC2: {}},
	}
}

// startVector returns a deterministic pseudo-random unit vector. A generic
// direction avoids stalling on eigenvectors orthogonal to the all-ones vector.
func startVector(p int) *mat.VecDense {
	rng := rand.New(rand.NewSource(startSeed)) //nolint:gosec // deterministic seed for reproducible projections
	v := mat.NewVecDense(p, nil)
	for i := 0; i < p; i++ {
		v.SetVec(i, 0.5+rng.Float64())
	}
	normalize(v)
	return v
}

// powerIteration approximates the dominant eigenvector of a. When ortho is
// non-nil the iterate is kept orthogonal to it. Iteration stops early when the
// product norm becomes non-finite or vanishes; the last finite iterate wins.
func powerIteration(a mat.Symmetric, start, ortho *mat.VecDense, iterations int) *mat.VecDense {
	p := start.Len()
	v := mat.VecDenseCopyOf(start)
	if ortho != nil {
		orthogonalize(v, ortho)
		if !normalize(v) {
			v = basisOrthogonalTo(ortho)
		}
	}

	av := mat.NewVecDense(p, nil)
	for t := 0; t < iterations; t++ {
		av.MulVec(a, v)
		if ortho != nil {
			orthogonalize(av, ortho)
		}
		nrm := math.Sqrt(mat.Dot(av, av))
		if math.IsNaN(nrm) || math.IsInf(nrm, 0) || nrm < degenerateEpsilon {
			break
		}
		v.ScaleVec(1/nrm, av)
	}
	return v
}

// basisOrthogonalTo returns the unit basis vector least aligned with u,
// orthogonalized against it.
func basisOrthogonalTo(u *mat.VecDense) *mat.VecDense {
	p := u.Len()
	best := 0
	for i := 1; i < p; i++ {
		if math.Abs(u.AtVec(i)) < math.Abs(u.AtVec(best)) {
			best = i
		}
	}
	v := mat.NewVecDense(p, nil)
	v.SetVec(best, 1)
	orthogonalize(v, u)
	if !normalize(v) {
		v.Zero()
		v.SetVec(best, 1)
	}
	return v
}

func orthogonalize(v, u *mat.VecDense) {
	uu := mat.Dot(u, u)
	if uu < degenerateEpsilon {
		return
	}
	v.AddScaledVec(v, -mat.Dot(v, u)/uu, u)
}

// normalize scales v to unit length in place and reports whether it could.
func normalize(v *mat.VecDense) bool {
	nrm := math.Sqrt(mat.Dot(v, v))
	if math.IsNaN(nrm) || math.IsInf(nrm, 0) || nrm < degenerateEpsilon {
		return false
	}
	v.ScaleVec(1/nrm, v)
	return true
}

func rayleigh(a mat.Symmetric, v *mat.VecDense) float64 {
	den := mat.Dot(v, v)
	if den == 0 {
		return 0
	}
	return finiteOrZero(mat.Inner(v, a, v) / den)
}

// explained converts eigenvalues to variance fractions of the trace, clamped
// to [0,1] with a sum of at most 1.
func explained(trace float64, eig [2]float64) [2]float64 {
	if math.IsNaN(trace) || math.IsInf(trace, 0) || trace < degenerateEpsilon {
		trace = degenerateEpsilon
	}
	f1 := clamp01(eig[0] / trace)
	f2 := clamp01(eig[1] / trace)
	if f1+f2 > 1 {
		f2 = 1 - f1
	}
	return [2]float64{f1, f2}
}

func loadings(cols []string, v1, v2 *mat.VecDense) map[string]map[string]float64 {
	pc1 := make(map[string]float64, len(cols))
	pc2 := make(map[string]float64, len(cols))
	for j, c := range cols {
		pc1[c] = finiteOrZero(v1.AtVec(j))
		pc2[c] = finiteOrZero(v2.AtVec(j))
	}
	return map[string]map[string]float64{AxisPC1: pc1, AxisPC2: pc2}
}

func clamp01(x float64) float64 {
	switch {
	case math.IsNaN(x) || x < 0:
		return 0
	case x > 1:
		return 1
	default:
		return x
	}
}

func finiteOrZero(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return x
}
