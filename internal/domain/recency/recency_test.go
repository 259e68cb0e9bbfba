package recency_test

import (
	"testing"

	"github.com/rinkrat/featurecast/internal/domain/model"
	"github.com/rinkrat/featurecast/internal/domain/recency"
	. "github.com/smartystreets/goconvey/convey"
)

func seasons(t *testing.T) *model.SeasonList {
	t.Helper()
	s, err := model.NewSeasonList([]string{"20202021", "20212022", "20222023", "20232024"})
	if err != nil {
		t.Fatalf("season list: %v", err)
	}
	return s
}

func TestWeight(t *testing.T) {
	Convey("Given a decay factor below one", t, func() {
		w, err := recency.NewWeighter(seasons(t), []string{"20212022", "20222023", "20232024"}, 0.8)
		So(err, ShouldBeNil)

		Convey("Then the most recent training season has weight 1", func() {
			weight, ok := w.Weight("20232024")
			So(ok, ShouldBeTrue)
			So(weight, ShouldAlmostEqual, 1.0, 1e-12)
		})

		Convey("Then each season back multiplies by the decay factor", func() {
			weight, ok := w.Weight("20222023")
			So(ok, ShouldBeTrue)
			So(weight, ShouldAlmostEqual, 0.8, 1e-12)

			weight, ok = w.Weight("20212022")
			So(ok, ShouldBeTrue)
			So(weight, ShouldAlmostEqual, 0.64, 1e-12)
		})

		Convey("Then weights are monotone in season age", func() {
			older, _ := w.Weight("20212022")
			newer, _ := w.Weight("20222023")
			So(older, ShouldBeLessThanOrEqualTo, newer)
		})

		Convey("Then a season outside the training set gets no weight at all", func() {
			_, ok := w.Weight("20202021")
			So(ok, ShouldBeFalse)
			_, ok = w.Weight("19931994")
			So(ok, ShouldBeFalse)
		})
	})

	Convey("Given no decay", t, func() {
		w, err := recency.NewWeighter(seasons(t), []string{"20212022", "20222023", "20232024"}, 1.0)
		So(err, ShouldBeNil)

		Convey("Then every training season weighs exactly 1", func() {
			for _, id := range []string{"20212022", "20222023", "20232024"} {
				weight, ok := w.Weight(id)
				So(ok, ShouldBeTrue)
				So(weight, ShouldEqual, 1.0)
			}
		})
	})
}

func TestNewWeighterValidation(t *testing.T) {
	Convey("Given bad construction inputs", t, func() {
		s := seasons(t)

		Convey("Then decay outside (0, 1] is rejected", func() {
			_, err := recency.NewWeighter(s, []string{"20232024"}, 0)
			So(err, ShouldNotBeNil)
			_, err = recency.NewWeighter(s, []string{"20232024"}, 1.2)
			So(err, ShouldNotBeNil)
			_, err = recency.NewWeighter(s, []string{"20232024"}, -0.5)
			So(err, ShouldNotBeNil)
		})

		Convey("Then unknown training seasons are rejected up front", func() {
			_, err := recency.NewWeighter(s, []string{"19931994"}, 0.8)
			So(err, ShouldNotBeNil)
		})

		Convey("Then an empty training set is rejected", func() {
			_, err := recency.NewWeighter(s, nil, 0.8)
			So(err, ShouldNotBeNil)
		})

		Convey("Then a nil season list is rejected", func() {
			_, err := recency.NewWeighter(nil, []string{"20232024"}, 0.8)
			So(err, ShouldNotBeNil)
		})
	})
}
