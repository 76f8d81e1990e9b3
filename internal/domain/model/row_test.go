package model_test

import (
	"math"
	"testing"

	"github.com/okian/podium/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRow_Valid(t *testing.T) {
	Convey("Given a complete row", t, func() {
		row := model.Row{Athlete: "A", Apparatus: "VT", Dscore: 5, Escore: 9, FinalScore: 14}

		Convey("Then it should be valid", func() {
			So(row.Valid(), ShouldBeTrue)
		})

		Convey("When the athlete is missing", func() {
			row.Athlete = ""
			So(row.Valid(), ShouldBeFalse)
		})

		Convey("When the apparatus is missing", func() {
			row.Apparatus = ""
			So(row.Valid(), ShouldBeFalse)
		})

		Convey("When the final score is not finite", func() {
			row.FinalScore = math.NaN()
			So(row.Valid(), ShouldBeFalse)
		})

		Convey("When the E score is infinite", func() {
			row.Escore = math.Inf(1)
			So(row.Valid(), ShouldBeFalse)
		})
	})
}

func TestRow_Value(t *testing.T) {
	Convey("Given a row with an unset rank", t, func() {
		row := model.Row{Year: 2023, Dscore: 5.5, Escore: 8.25, Penalties: 0.3, FinalScore: 13.45}

		Convey("Then numeric columns resolve by name", func() {
			v, ok := row.Value(model.ColumnDscore)
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, 5.5)

			v, ok = row.Value(model.ColumnYear)
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, 2023)
		})

		Convey("Then the rank is reported as missing", func() {
			_, ok := row.Value(model.ColumnRank)
			So(ok, ShouldBeFalse)
		})

		Convey("Then unknown columns are reported as missing", func() {
			_, ok := row.Value("Athlete")
			So(ok, ShouldBeFalse)
			So(model.IsNumericColumn("Athlete"), ShouldBeFalse)
		})

		Convey("When the rank is set", func() {
			rank := 4
			row.Rank = &rank
			v, ok := row.Value(model.ColumnRank)
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, 4)
		})
	})
}

func TestCriteria_Normalize(t *testing.T) {
	Convey("Given criteria with blank dimensions", t, func() {
		c := model.Criteria{Year: "2022"}.Normalize()

		Convey("Then blanks become all", func() {
			So(c.Year, ShouldEqual, "2022")
			So(c.Apparatus, ShouldEqual, model.All)
			So(c.Nation, ShouldEqual, model.All)
			So(c.Qualified, ShouldEqual, model.All)
		})
	})
}
