package pca_test

import (
	"math/rand"
	"testing"

	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/pca"

	. "github.com/smartystreets/goconvey/convey"
)

// mirrored negates every projected column, which negates every raw
// coordinate while keeping the eigenvectors unchanged.
func mirrored(rows []model.Row) []model.Row {
	out := make([]model.Row, len(rows))
	for i, r := range rows {
		r.Dscore = -r.Dscore
		r.Escore = -r.Escore
		r.FinalScore = -r.FinalScore
		r.Penalties = -r.Penalties
		out[i] = r
	}
	return out
}

func coords(res pca.Result) map[model.ID][2]float64 {
	out := make(map[model.ID][2]float64, len(res.Points))
	for _, p := range res.Points {
		out[p.RowID] = [2]float64{p.PC1, p.PC2}
	}
	return out
}

func TestProjector_FirstInvocation(t *testing.T) {
	Convey("Given a fresh projector", t, func() {
		rows := randomRows(rand.New(rand.NewSource(11)), 20)
		proj := pca.NewProjector()

		Convey("When it projects for the first time", func() {
			got := proj.Project(rows, model.DefaultProjectionColumns)
			raw := pca.Project(rows, model.DefaultProjectionColumns)

			Convey("Then nothing is flipped and the baseline is stored", func() {
				So(got.Points, ShouldResemble, raw.Points)
				So(proj.HistorySize(), ShouldEqual, 20)
			})
		})
	})
}

func TestProjector_SignStability(t *testing.T) {
	Convey("Given a history from projecting a row set", t, func() {
		rows := randomRows(rand.New(rand.NewSource(5)), 30)
		cols := model.DefaultProjectionColumns
		proj := pca.NewProjector()
		baseline := proj.Project(rows, cols)

		Convey("When a row set whose raw axes anti-correlate is projected", func() {
			next := mirrored(rows[:25])
			raw := pca.Project(next, cols)
			got := proj.Project(next, cols)

			Convey("Then both axes are the negation of the raw values", func() {
				for i, p := range got.Points {
					So(p.RowID, ShouldEqual, raw.Points[i].RowID)
					So(p.PC1, ShouldAlmostEqual, -raw.Points[i].PC1, tolerance)
					So(p.PC2, ShouldAlmostEqual, -raw.Points[i].PC2, tolerance)
				}
			})

			Convey("Then the shared rows keep their previous orientation", func() {
				prev := coords(baseline)
				var dot1, dot2 float64
				for _, p := range got.Points {
					dot1 += p.PC1 * prev[p.RowID][0]
					dot2 += p.PC2 * prev[p.RowID][1]
				}
				So(dot1, ShouldBeGreaterThan, 0)
				So(dot2, ShouldBeGreaterThanOrEqualTo, 0)
			})

			Convey("Then the loadings are flipped with the axes", func() {
				for c, w := range raw.Loadings[pca.AxisPC1] {
					So(got.Loadings[pca.AxisPC1][c], ShouldAlmostEqual, -w, tolerance)
				}
			})

			Convey("Then the history is replaced by the new result", func() {
				So(proj.HistorySize(), ShouldEqual, 25)
			})
		})

		Convey("When the same row set is projected again", func() {
			again := proj.Project(rows, cols)

			Convey("Then the output is unchanged", func() {
				So(again.Points, ShouldResemble, baseline.Points)
			})
		})

		Convey("When fewer than two rows are projected", func() {
			res := proj.Project(rows[:1], cols)

			Convey("Then the result is empty and the history is kept", func() {
				So(res.Empty(), ShouldBeTrue)
				So(proj.HistorySize(), ShouldEqual, 30)
			})
		})

		Convey("When the projector is reset", func() {
			proj.Reset()
			next := mirrored(rows)
			got := proj.Project(next, cols)

			Convey("Then the next projection is a new baseline without flipping", func() {
				So(got.Points, ShouldResemble, pca.Project(next, cols).Points)
			})
		})
	})
}
