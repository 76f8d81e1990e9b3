package pca_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/pca"
	"gonum.org/v1/gonum/stat"

	. "github.com/smartystreets/goconvey/convey"
)

const tolerance = 1e-9

var twoColumns = []string{model.ColumnDscore, model.ColumnEscore}

// pairRows builds valid rows whose D and E scores follow xs and ys.
func pairRows(xs, ys []float64) []model.Row {
	rows := make([]model.Row, len(xs))
	for i := range xs {
		rows[i] = model.Row{
			ID:         model.ID(i),
			Athlete:    "athlete",
			Apparatus:  "VT",
			Year:       2023,
			Dscore:     xs[i],
			Escore:     ys[i],
			FinalScore: xs[i] + ys[i],
		}
	}
	return rows
}

func randomRows(rng *rand.Rand, n int) []model.Row {
	rows := make([]model.Row, n)
	for i := range rows {
		d := 4 + 2*rng.Float64()
		e := 7 + 2*rng.Float64() + 0.3*d
		pen := 0.0
		if rng.Intn(4) == 0 {
			pen = 0.1 * float64(rng.Intn(5))
		}
		rows[i] = model.Row{
			ID: model.ID(i), Athlete: "a", Apparatus: "FX", Year: 2022,
			Dscore: d, Escore: e, Penalties: pen, FinalScore: d + e - pen,
		}
	}
	return rows
}

func TestStandardize(t *testing.T) {
	Convey("Given a column with spread", t, func() {
		values := []float64{13.2, 14.1, 12.7, 15.0, 14.4, 13.9}
		mean, scale, out := pca.Standardize(values)

		Convey("Then the mean and scale describe the input", func() {
			So(mean, ShouldAlmostEqual, stat.Mean(values, nil), tolerance)
			So(scale, ShouldAlmostEqual, stat.StdDev(values, nil), tolerance)
		})

		Convey("Then the standardized column has zero mean and unit deviation", func() {
			So(stat.Mean(out, nil), ShouldAlmostEqual, 0, tolerance)
			So(stat.StdDev(out, nil), ShouldAlmostEqual, 1, tolerance)
		})
	})

	Convey("Given a constant column", t, func() {
		mean, scale, out := pca.Standardize([]float64{0.3, 0.3, 0.3})

		Convey("Then the unit scale fallback applies", func() {
			So(mean, ShouldAlmostEqual, 0.3, tolerance)
			So(scale, ShouldEqual, 1)
			for _, v := range out {
				So(v, ShouldAlmostEqual, 0, tolerance)
			}
		})
	})
}

func TestProject_InsufficientData(t *testing.T) {
	Convey("Given fewer than two rows", t, func() {
		rows := pairRows([]float64{5}, []float64{9})
		res := pca.Project(rows, twoColumns)

		Convey("Then the result is empty and well formed", func() {
			So(res.Empty(), ShouldBeTrue)
			So(res.Points, ShouldNotBeNil)
			So(res.RowCount, ShouldEqual, 0)
			So(res.Explained, ShouldResemble, [2]float64{0, 0})
			So(res.Eigenvalues, ShouldResemble, [2]float64{0, 0})
		})
	})

	Convey("Given fewer than two columns", t, func() {
		rows := pairRows([]float64{1, 2, 3}, []float64{3, 2, 1})
		res := pca.Project(rows, []string{model.ColumnDscore})

		Convey("Then the result is empty", func() {
			So(res.Empty(), ShouldBeTrue)
			So(res.Explained, ShouldResemble, [2]float64{0, 0})
		})
	})

	Convey("Given rows whose requested columns are not finite", t, func() {
		rows := pairRows([]float64{1, 2, 3}, []float64{3, 2, 1})
		rows[0].Penalties = math.NaN()
		rows[1].Penalties = math.Inf(1)
		res := pca.Project(rows, []string{model.ColumnDscore, model.ColumnPenalties})

		Convey("Then those rows are excluded and too few remain", func() {
			So(res.Empty(), ShouldBeTrue)
		})
	})
}

func TestProject_KnownCorrelation(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 5}

	Convey("Given two columns with correlation 0.8", t, func() {
		rows := pairRows(xs, []float64{2, 1, 4, 3, 5})
		res := pca.Project(rows, twoColumns)

		Convey("Then the eigenvalues are 1+r and 1-r", func() {
			So(res.RowCount, ShouldEqual, 5)
			So(res.Eigenvalues[0], ShouldAlmostEqual, 1.8, 1e-6)
			So(res.Eigenvalues[1], ShouldAlmostEqual, 0.2, 1e-6)
		})

		Convey("Then the explained variance splits 0.9 / 0.1", func() {
			So(res.Explained[0], ShouldAlmostEqual, 0.9, 1e-6)
			So(res.Explained[1], ShouldAlmostEqual, 0.1, 1e-6)
		})

		Convey("Then the first axis loads both columns equally", func() {
			l := res.Loadings[pca.AxisPC1]
			So(math.Abs(l[model.ColumnDscore]), ShouldAlmostEqual, 1/math.Sqrt2, 1e-6)
			So(l[model.ColumnDscore], ShouldAlmostEqual, l[model.ColumnEscore], 1e-6)
		})

		Convey("Then the first axis variance equals its eigenvalue", func() {
			pc1 := make([]float64, len(res.Points))
			for i, p := range res.Points {
				pc1[i] = p.PC1
			}
			So(stat.Variance(pc1, nil), ShouldAlmostEqual, res.Eigenvalues[0], 1e-6)
		})

		Convey("Then means and scales are reported per column", func() {
			So(res.Mean, ShouldHaveLength, 2)
			So(res.Mean[0], ShouldAlmostEqual, 3, tolerance)
			So(res.Scale[0], ShouldAlmostEqual, math.Sqrt(2.5), tolerance)
		})
	})

	Convey("Given two columns with correlation -0.8", t, func() {
		rows := pairRows(xs, []float64{4, 5, 2, 3, 1})
		res := pca.Project(rows, twoColumns)

		Convey("Then the dominant axis is still found", func() {
			So(res.Eigenvalues[0], ShouldAlmostEqual, 1.8, 1e-6)
			l := res.Loadings[pca.AxisPC1]
			So(l[model.ColumnDscore], ShouldAlmostEqual, -l[model.ColumnEscore], 1e-6)
		})

		Convey("Then the second axis is orthogonal to the first", func() {
			l1, l2 := res.Loadings[pca.AxisPC1], res.Loadings[pca.AxisPC2]
			dot := l1[model.ColumnDscore]*l2[model.ColumnDscore] + l1[model.ColumnEscore]*l2[model.ColumnEscore]
			So(dot, ShouldAlmostEqual, 0, 1e-6)
		})
	})

	Convey("Given two perfectly correlated columns", t, func() {
		rows := pairRows(xs, []float64{2, 4, 6, 8, 10})
		res := pca.Project(rows, twoColumns)

		Convey("Then all variance sits on the first axis and nothing is NaN", func() {
			So(res.Explained[0], ShouldAlmostEqual, 1, 1e-6)
			So(res.Explained[1], ShouldAlmostEqual, 0, 1e-6)
			for _, p := range res.Points {
				So(math.IsNaN(p.PC2), ShouldBeFalse)
			}
		})
	})
}

func TestProject_DegenerateColumn(t *testing.T) {
	Convey("Given a column with zero spread", t, func() {
		rows := pairRows([]float64{1, 2, 3, 4}, []float64{2, 1, 4, 3})
		cols := []string{model.ColumnDscore, model.ColumnEscore, model.ColumnPenalties}
		res := pca.Project(rows, cols)

		Convey("Then a unit scale is substituted and results stay finite", func() {
			So(res.Scale[2], ShouldEqual, 1)
			So(res.Mean[2], ShouldEqual, 0)
			for _, p := range res.Points {
				So(math.IsNaN(p.PC1) || math.IsInf(p.PC1, 0), ShouldBeFalse)
				So(math.IsNaN(p.PC2) || math.IsInf(p.PC2, 0), ShouldBeFalse)
			}
			So(res.Explained[0]+res.Explained[1], ShouldBeLessThanOrEqualTo, 1)
		})
	})

	Convey("Given only constant columns", t, func() {
		rows := pairRows([]float64{5, 5, 5}, []float64{9, 9, 9})
		res := pca.Project(rows, twoColumns)

		Convey("Then diagnostics are zero instead of NaN", func() {
			So(res.Eigenvalues, ShouldResemble, [2]float64{0, 0})
			So(res.Explained, ShouldResemble, [2]float64{0, 0})
		})
	})
}

func TestProject_ExplainedVarianceBounds(t *testing.T) {
	Convey("Given many random row sets", t, func() {
		rng := rand.New(rand.NewSource(7))
		cols := []string{model.ColumnDscore, model.ColumnEscore, model.ColumnFinalScore, model.ColumnPenalties}

		Convey("Then every explained fraction lies in [0,1] and sums to at most 1", func() {
			for trial := 0; trial < 50; trial++ {
				rows := randomRows(rng, 2+rng.Intn(40))
				res := pca.Project(rows, cols)
				So(res.RowCount, ShouldBeGreaterThanOrEqualTo, 2)
				for _, f := range res.Explained {
					So(f, ShouldBeBetweenOrEqual, 0, 1)
				}
				So(res.Explained[0]+res.Explained[1], ShouldBeLessThanOrEqualTo, 1+tolerance)
			}
		})
	})
}

func TestProject_Deterministic(t *testing.T) {
	Convey("Given the same rows projected twice", t, func() {
		rows := randomRows(rand.New(rand.NewSource(3)), 25)
		a := pca.Project(rows, model.DefaultProjectionColumns)
		b := pca.Project(rows, model.DefaultProjectionColumns)

		Convey("Then the raw results are identical", func() {
			So(a.Points, ShouldResemble, b.Points)
		})
	})
}

func TestDiagnostics(t *testing.T) {
	Convey("Given a projection", t, func() {
		rows := pairRows([]float64{1, 2, 3, 4, 5}, []float64{2, 1, 4, 3, 5})
		res := pca.Project(rows, twoColumns)
		d := res.Diagnostics()

		Convey("Then diagnostics mirror the result", func() {
			So(d.RowCount, ShouldEqual, res.RowCount)
			So(d.Explained, ShouldResemble, res.Explained)
			So(d.Columns, ShouldResemble, twoColumns)
		})
	})
}
