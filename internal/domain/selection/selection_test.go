package selection_test

import (
	"math/rand"
	"testing"

	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/selection"

	. "github.com/smartystreets/goconvey/convey"
)

func rows() []model.Row {
	return []model.Row{
		{ID: 0, Athlete: "Ana", Apparatus: "VT", FinalScore: 14},
		{ID: 1, Athlete: "Ben", Apparatus: "VT", FinalScore: 14.5},
		{ID: 2, Athlete: "Ana", Apparatus: "FX", FinalScore: 13},
		{ID: 3, Athlete: "Cal", Apparatus: "FX", FinalScore: 13.5},
	}
}

func ids(rs []model.Row) []model.ID {
	out := make([]model.ID, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}

func TestCoordinator_Transitions(t *testing.T) {
	Convey("Given a fresh coordinator", t, func() {
		c := selection.NewCoordinator()

		Convey("Then nothing is selected", func() {
			s := c.State()
			So(s.HasAthlete(), ShouldBeFalse)
			So(s.HasBrush(), ShouldBeFalse)
			So(s.Highlight, ShouldEqual, "")
		})

		Convey("When an athlete is selected twice", func() {
			So(c.SelectAthlete("Ana"), ShouldBeTrue)
			So(c.SelectAthlete("Ana"), ShouldBeFalse)

			Convey("Then clearing unsets only the athlete", func() {
				c.SetHighlight("world")
				So(c.ClearSelection(), ShouldBeTrue)
				So(c.State().Athlete, ShouldEqual, "")
				So(c.State().Highlight, ShouldEqual, "world")
			})

			Convey("Then selecting all unsets the athlete", func() {
				So(c.SelectAthlete(model.All), ShouldBeTrue)
				So(c.State().HasAthlete(), ShouldBeFalse)
			})
		})

		Convey("When a brush is set", func() {
			So(c.SetBrush([]model.ID{3, 1}), ShouldBeTrue)
			v := c.BrushVersion()

			Convey("Then ids are reported sorted", func() {
				So(c.State().BrushIDs(), ShouldResemble, []model.ID{1, 3})
				So(c.State().BrushSize(), ShouldEqual, 2)
			})

			Convey("Then the same brush is not a change", func() {
				So(c.SetBrush([]model.ID{1, 3}), ShouldBeFalse)
				So(c.BrushVersion(), ShouldEqual, v)
			})

			Convey("Then an empty brush reverts to unset", func() {
				So(c.SetBrush([]model.ID{}), ShouldBeTrue)
				So(c.State().Brush, ShouldBeNil)
				So(c.BrushVersion(), ShouldEqual, v+1)
				So(c.SetBrush(nil), ShouldBeFalse)
			})

			Convey("Then the returned state does not alias the brush", func() {
				s := c.State()
				s.Brush.Add(2)
				So(c.State().BrushSize(), ShouldEqual, 2)
			})
		})

		Convey("When everything is set and then reset", func() {
			c.SelectAthlete("Ben")
			c.SetBrush([]model.ID{1})
			c.SetHighlight("european")
			So(c.ResetAll(), ShouldBeTrue)

			Convey("Then all three are cleared", func() {
				s := c.State()
				So(s.HasAthlete(), ShouldBeFalse)
				So(s.HasBrush(), ShouldBeFalse)
				So(s.Highlight, ShouldEqual, "")
				So(c.ResetAll(), ShouldBeFalse)
			})
		})
	})
}

func TestCoordinator_Prune(t *testing.T) {
	Convey("Given a selected athlete", t, func() {
		c := selection.NewCoordinator()
		c.SelectAthlete("Ana")

		Convey("When the filtered rows still contain the athlete", func() {
			So(c.Prune(rows()), ShouldBeFalse)
			So(c.State().Athlete, ShouldEqual, "Ana")
		})

		Convey("When the filtered rows no longer contain the athlete", func() {
			So(c.Prune(rows()[1:2]), ShouldBeTrue)
			So(c.State().HasAthlete(), ShouldBeFalse)
		})
	})
}

func TestActiveView(t *testing.T) {
	Convey("Given the filtered rows", t, func() {
		filtered := rows()

		Convey("When nothing is selected", func() {
			So(ids(selection.ActiveView(filtered, selection.State{})), ShouldResemble, []model.ID{0, 1, 2, 3})
		})

		Convey("When an athlete is selected", func() {
			got := selection.ActiveView(filtered, selection.State{Athlete: "Ana"})
			So(ids(got), ShouldResemble, []model.ID{0, 2})
		})

		Convey("When an athlete and a brush are set", func() {
			c := selection.NewCoordinator()
			c.SelectAthlete("Ana")
			c.SetBrush([]model.ID{2, 3})
			got := selection.ActiveView(filtered, c.State())

			Convey("Then both narrow the view", func() {
				So(ids(got), ShouldResemble, []model.ID{2})
			})
		})

		Convey("When the highlight is set", func() {
			got := selection.ActiveView(filtered, selection.State{Highlight: "world"})

			Convey("Then the view is unaffected", func() {
				So(got, ShouldHaveLength, 4)
			})
		})
	})
}

func TestActiveView_Containment(t *testing.T) {
	Convey("Given random filtered sets and selections", t, func() {
		rng := rand.New(rand.NewSource(9))
		athletes := []string{"", "Ana", "Ben", "Cal"}

		Convey("Then the active view is inside the filtered set and the brush", func() {
			for trial := 0; trial < 200; trial++ {
				var filtered []model.Row
				for i := 0; i < 30; i++ {
					if rng.Intn(2) == 0 {
						filtered = append(filtered, model.Row{ID: model.ID(i), Athlete: athletes[1+rng.Intn(3)]})
					}
				}
				c := selection.NewCoordinator()
				c.SelectAthlete(athletes[rng.Intn(len(athletes))])
				var brush []model.ID
				for i := 0; i < rng.Intn(10); i++ {
					brush = append(brush, model.ID(rng.Intn(40)))
				}
				c.SetBrush(brush)
				s := c.State()

				fset := selection.IDs(filtered)
				for _, r := range selection.ActiveView(filtered, s) {
					So(fset.Contains(r.ID), ShouldBeTrue)
					if s.HasBrush() {
						So(s.Brush.Contains(r.ID), ShouldBeTrue)
					}
					if s.HasAthlete() {
						So(r.Athlete, ShouldEqual, s.Athlete)
					}
				}
			}
		})
	})
}

func TestIntersect(t *testing.T) {
	Convey("Given rows and an id set", t, func() {
		c := selection.NewCoordinator()
		c.SetBrush([]model.ID{3, 0, 9})
		got := selection.Intersect(rows(), c.State().Brush)

		Convey("Then only listed rows remain in input order", func() {
			So(ids(got), ShouldResemble, []model.ID{0, 3})
			So(selection.Intersect(rows(), nil), ShouldBeEmpty)
		})
	})
}
