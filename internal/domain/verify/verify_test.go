package verify_test

import (
	"context"
	"testing"
	"time"

	"github.com/rinkrat/featurecast/internal/dataset"
	"github.com/rinkrat/featurecast/internal/domain/matchup"
	"github.com/rinkrat/featurecast/internal/domain/model"
	"github.com/rinkrat/featurecast/internal/domain/recency"
	"github.com/rinkrat/featurecast/internal/domain/rolling"
	"github.com/rinkrat/featurecast/internal/domain/schema"
	"github.com/rinkrat/featurecast/internal/domain/situation"
	"github.com/rinkrat/featurecast/internal/domain/verify"
	"github.com/rinkrat/featurecast/internal/eventlog"
	"github.com/rinkrat/featurecast/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	m.Run()
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func game(id, date, home, away string, gf, ga float64) model.GameRecord {
	return model.GameRecord{
		GameID: id, SeasonID: "20232024", GameDate: day(date),
		HomeTeamID: home, AwayTeamID: away, Played: true,
		Home:    model.TeamGame{GoalsFor: gf, GoalsAgainst: ga},
		Away:    model.TeamGame{GoalsFor: ga, GoalsAgainst: gf},
		HomeWin: gf > ga,
	}
}

// fixture builds a frozen log, a bulk dataset over it, and the matchup
// builder both paths share.
func fixture(t *testing.T) (*dataset.Dataset, *matchup.Builder) {
	t.Helper()

	b := eventlog.NewBuilder()
	for _, rec := range []model.GameRecord{
		game("g1", "2023-11-01", "BOS", "TOR", 4, 2),
		game("g2", "2023-11-03", "TOR", "BOS", 3, 1),
		game("g3", "2023-11-06", "MTL", "BOS", 2, 5),
		game("g4", "2023-11-09", "BOS", "MTL", 3, 2),
	} {
		if err := b.Append(rec); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	log := b.Freeze()

	sch, err := schema.NewBuilder("vf-v1").
		Add("rolling_goal_diff_3_diff", schema.Recipe{Kind: schema.KindRollingDiff, Stat: "goal_diff", Window: 3}).
		Add(schema.FlagRestDaysHome, schema.Recipe{Kind: schema.KindSituational, Flag: schema.FlagRestDaysHome}).
		Add(schema.FlagDivisional, schema.Recipe{Kind: schema.KindSituational, Flag: schema.FlagDivisional}).
		Build()
	if err != nil {
		t.Fatalf("schema: %v", err)
	}

	mb := matchup.New(rolling.New(log), situation.New(log, situation.DefaultTables()), sch)

	seasons, err := model.NewSeasonList([]string{"20232024"})
	if err != nil {
		t.Fatalf("seasons: %v", err)
	}
	w, err := recency.NewWeighter(seasons, []string{"20232024"}, 0.8)
	if err != nil {
		t.Fatalf("weighter: %v", err)
	}

	ds, err := dataset.New(mb, w, dataset.WithWorkerCount(2)).Build(context.Background(), log)
	if err != nil {
		t.Fatalf("dataset: %v", err)
	}
	return ds, mb
}

func TestVerify(t *testing.T) {
	ctx := context.Background()

	Convey("Given a dataset and the builder that produced it", t, func() {
		ds, mb := fixture(t)
		v := verify.New(mb)

		Convey("When every row is reverified untouched", func() {
			rep, err := v.Verify(ctx, ds, nil)
			So(err, ShouldBeNil)

			Convey("Then every comparison is exact", func() {
				So(rep.GamesSampled, ShouldEqual, len(ds.Rows))
				So(rep.Exact, ShouldEqual, len(ds.Rows)*len(ds.Names))
				So(rep.Close, ShouldBeZeroValue)
				So(rep.Mismatched, ShouldBeZeroValue)
				So(rep.BuildFailures, ShouldBeZeroValue)
				So(rep.TopMismatches, ShouldBeEmpty)
				So(rep.Drift, ShouldBeEmpty)
				So(rep.ReportID, ShouldNotBeEmpty)
				So(rep.SchemaVersion, ShouldEqual, "vf-v1")
			})
		})

		Convey("When the sample names specific games", func() {
			rep, err := v.Verify(ctx, ds, []string{"g2", "g4"})
			So(err, ShouldBeNil)

			Convey("Then only those rows are compared", func() {
				So(rep.GamesSampled, ShouldEqual, 2)
				So(rep.Exact, ShouldEqual, 2*len(ds.Names))
			})
		})

		Convey("When a bulk value is corrupted", func() {
			idx := len(ds.Rows) - 1
			ds.Rows[idx].Values[0] = model.Some(42)

			rep, err := v.Verify(ctx, ds, nil)
			So(err, ShouldBeNil)

			Convey("Then the divergence is classified as a mismatch", func() {
				So(rep.Mismatched, ShouldEqual, 1)
				So(rep.Exact, ShouldEqual, len(ds.Rows)*len(ds.Names)-1)
			})

			Convey("Then the mismatch carries both values and the delta", func() {
				So(rep.TopMismatches, ShouldHaveLength, 1)
				mm := rep.TopMismatches[0]
				So(mm.GameID, ShouldEqual, ds.Rows[idx].GameID)
				So(mm.Feature, ShouldEqual, "rolling_goal_diff_3_diff")
				So(mm.Bulk, ShouldEqual, 42)
				So(mm.Delta, ShouldAlmostEqual, mm.Rebuilt-mm.Bulk, 1e-12)
			})

			Convey("Then per-feature drift is attributed", func() {
				So(rep.Drift, ShouldHaveLength, 1)
				So(rep.Drift[0].Feature, ShouldEqual, "rolling_goal_diff_3_diff")
				So(rep.Drift[0].Mismatches, ShouldEqual, 1)
				So(rep.Drift[0].MeanAbsDelta, ShouldBeGreaterThan, 0)
			})
		})

		Convey("When a bulk value drops the missing sentinel", func() {
			// Row for the first game has no history, so its rolling slot
			// rebuilds as missing. Forcing a number into the bulk side must
			// never pass under a numeric tolerance.
			ds.Rows[0].Values[0] = model.Some(0)

			rep, err := v.Verify(ctx, ds, []string{ds.Rows[0].GameID})
			So(err, ShouldBeNil)

			Convey("Then the disagreement is a mismatch", func() {
				So(rep.Mismatched, ShouldEqual, 1)
			})
		})

		Convey("When a bulk value drifts within the relative tolerance", func() {
			idx := len(ds.Rows) - 1
			orig := ds.Rows[idx].Values[0].Float()
			ds.Rows[idx].Values[0] = model.Some(orig * 1.02)

			rep, err := v.Verify(ctx, ds, []string{ds.Rows[idx].GameID})
			So(err, ShouldBeNil)

			Convey("Then it counts as close, not mismatched", func() {
				So(rep.Close, ShouldEqual, 1)
				So(rep.Mismatched, ShouldBeZeroValue)
			})
		})
	})
}

func TestVerifyTopN(t *testing.T) {
	ctx := context.Background()

	Convey("Given more mismatches than the report cap", t, func() {
		ds, mb := fixture(t)
		v := verify.New(mb, verify.WithTopN(2))

		for i := range ds.Rows {
			ds.Rows[i].Values[1] = model.Some(float64(1000 * (i + 1)))
		}

		Convey("When the report is built", func() {
			rep, err := v.Verify(ctx, ds, nil)
			So(err, ShouldBeNil)

			Convey("Then only the largest deltas are kept as examples", func() {
				So(rep.Mismatched, ShouldEqual, len(ds.Rows))
				So(rep.TopMismatches, ShouldHaveLength, 2)
				first := rep.TopMismatches[0]
				second := rep.TopMismatches[1]
				So(first.Delta*first.Delta, ShouldBeGreaterThanOrEqualTo, second.Delta*second.Delta)
			})

			Convey("Then drift still counts every occurrence", func() {
				So(rep.Drift, ShouldHaveLength, 1)
				So(rep.Drift[0].Mismatches, ShouldEqual, len(ds.Rows))
			})
		})
	})
}
