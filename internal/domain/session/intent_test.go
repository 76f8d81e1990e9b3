package session_test

import (
	"errors"
	"testing"

	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/session"

	. "github.com/smartystreets/goconvey/convey"
)

func TestStore_Apply(t *testing.T) {
	Convey("Given a store driven by intents", t, func() {
		s := session.New(dataset())

		Convey("When a filters intent is applied", func() {
			ch, err := s.Apply(session.Intent{Kind: session.IntentFilters, Criteria: &model.Criteria{Year: "2022"}})

			Convey("Then the filters change fully", func() {
				So(err, ShouldBeNil)
				So(ch.Kind, ShouldEqual, session.ChangeFull)
				So(ch.Snapshot.Criteria.Year, ShouldEqual, "2022")
				So(ch.Snapshot.Criteria.Nation, ShouldEqual, model.All)
			})
		})

		Convey("When a pick_cell intent is applied", func() {
			ch, err := s.Apply(session.Intent{Kind: session.IntentPickCell, Year: "2023", Apparatus: "VT"})

			Convey("Then year and apparatus are narrowed", func() {
				So(err, ShouldBeNil)
				So(ch.Snapshot.Criteria.Year, ShouldEqual, "2023")
				So(ch.Snapshot.Criteria.Apparatus, ShouldEqual, "VT")
			})
		})

		Convey("When selection intents are applied", func() {
			ch, err := s.Apply(session.Intent{Kind: session.IntentSelectAthlete, Athlete: "Ana"})
			So(err, ShouldBeNil)
			So(ch.Kind, ShouldEqual, session.ChangeSelection)

			ch, err = s.Apply(session.Intent{Kind: session.IntentBrush, Brush: []model.ID{0, 4, 8}})
			So(err, ShouldBeNil)
			So(ch.Snapshot.Brush, ShouldResemble, []model.ID{0, 4, 8})

			ch, err = s.Apply(session.Intent{Kind: session.IntentHighlight, Highlight: "world"})
			So(err, ShouldBeNil)
			So(ch.Snapshot.Highlight, ShouldEqual, "world")

			ch, err = s.Apply(session.Intent{Kind: session.IntentClearSelection})

			Convey("Then the athlete is cleared and the brush kept", func() {
				So(err, ShouldBeNil)
				So(ch.Snapshot.Athlete, ShouldBeEmpty)
				So(ch.Snapshot.Brush, ShouldHaveLength, 3)
			})
		})

		Convey("When mode intents are applied", func() {
			ch, err := s.Apply(session.Intent{Kind: session.IntentMode, Mode: "brushed"})
			So(err, ShouldBeNil)
			So(ch.Snapshot.Mode, ShouldEqual, session.ModeBrushed)

			ch, err = s.Apply(session.Intent{Kind: session.IntentHeatmapMode, HeatmapMode: "event"})

			Convey("Then both modes are recorded", func() {
				So(err, ShouldBeNil)
				So(string(ch.Snapshot.HeatmapMode), ShouldEqual, "event")
			})
		})

		Convey("When a reset intent follows a filter", func() {
			_, err := s.Apply(session.Intent{Kind: session.IntentFilters, Criteria: &model.Criteria{Apparatus: "FX"}})
			So(err, ShouldBeNil)
			ch, err := s.Apply(session.Intent{Kind: session.IntentReset})

			Convey("Then the criteria are back to all", func() {
				So(err, ShouldBeNil)
				So(ch.Snapshot.Criteria, ShouldResemble, model.DefaultCriteria())
			})
		})

		Convey("When malformed intents are applied", func() {
			version := s.Snapshot().Version

			_, errUnknown := s.Apply(session.Intent{Kind: "zoom"})
			_, errFilters := s.Apply(session.Intent{Kind: session.IntentFilters})
			_, errCell := s.Apply(session.Intent{Kind: session.IntentPickCell})
			_, errMode := s.Apply(session.Intent{Kind: session.IntentMode, Mode: "lasso"})
			_, errHeat := s.Apply(session.Intent{Kind: session.IntentHeatmapMode, HeatmapMode: "month"})

			Convey("Then they are rejected without publishing", func() {
				So(errors.Is(errUnknown, session.ErrUnknownIntent), ShouldBeTrue)
				So(errors.Is(errFilters, session.ErrInvalidIntent), ShouldBeTrue)
				So(errors.Is(errCell, session.ErrInvalidIntent), ShouldBeTrue)
				So(errors.Is(errMode, session.ErrInvalidIntent), ShouldBeTrue)
				So(errors.Is(errHeat, session.ErrInvalidIntent), ShouldBeTrue)
				So(s.Snapshot().Version, ShouldEqual, version)
			})
		})
	})
}
