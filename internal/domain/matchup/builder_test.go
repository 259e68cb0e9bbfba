package matchup_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rinkrat/featurecast/internal/domain/matchup"
	"github.com/rinkrat/featurecast/internal/domain/model"
	"github.com/rinkrat/featurecast/internal/domain/rolling"
	"github.com/rinkrat/featurecast/internal/domain/schema"
	"github.com/rinkrat/featurecast/internal/domain/situation"
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

func homeGame(id, date, home, away string, gf, ga float64) model.GameRecord {
	return model.GameRecord{
		GameID: id, SeasonID: "20232024", GameDate: day(date),
		HomeTeamID: home, AwayTeamID: away, Played: true,
		Home:    model.TeamGame{GoalsFor: gf, GoalsAgainst: ga},
		Away:    model.TeamGame{GoalsFor: ga, GoalsAgainst: gf},
		HomeWin: gf > ga,
	}
}

func frozen(recs ...model.GameRecord) *eventlog.Log {
	b := eventlog.NewBuilder()
	for _, rec := range recs {
		if err := b.Append(rec); err != nil {
			panic(err)
		}
	}
	return b.Freeze()
}

func testSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.NewBuilder("test-v1").
		Add("rolling_goal_diff_3_diff", schema.Recipe{Kind: schema.KindRollingDiff, Stat: "goal_diff", Window: 3}).
		Add("season_goal_diff_diff", schema.Recipe{Kind: schema.KindSeasonDiff, Stat: "goal_diff"}).
		Add(schema.FlagRestDaysHome, schema.Recipe{Kind: schema.KindSituational, Flag: schema.FlagRestDaysHome}).
		Add(schema.FlagBackToBackAway, schema.Recipe{Kind: schema.KindSituational, Flag: schema.FlagBackToBackAway}).
		Add(schema.FlagDivisional, schema.Recipe{Kind: schema.KindSituational, Flag: schema.FlagDivisional}).
		Add(schema.FlagTravelKm, schema.Recipe{Kind: schema.KindSituational, Flag: schema.FlagTravelKm}).
		Add("gd3_x_div", schema.Recipe{Kind: schema.KindInteraction, Base: "rolling_goal_diff_3_diff", Flag: schema.FlagDivisional}).
		Add("cal_BOS_home", schema.Recipe{Kind: schema.KindCalibration, Team: "BOS", Side: schema.SideHome}).
		Add("cal_BOS_any", schema.Recipe{Kind: schema.KindCalibration, Team: "BOS", Side: schema.SideEither}).
		Build()
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	return s
}

func builderOver(t *testing.T, log *eventlog.Log) *matchup.Builder {
	t.Helper()
	return matchup.New(
		rolling.New(log),
		situation.New(log, situation.DefaultTables()),
		testSchema(t),
	)
}

func TestBuild(t *testing.T) {
	ctx := context.Background()

	// BOS trend: +2, +1; TOR trend: -2, -1. Both in the Atlantic.
	log := frozen(
		homeGame("g1", "2024-01-02", "BOS", "TOR", 4, 2),
		homeGame("g2", "2024-01-05", "BOS", "NYR", 3, 2),
		homeGame("g3", "2024-01-06", "MTL", "TOR", 3, 2),
	)

	Convey("Given a wired builder", t, func() {
		mb := builderOver(t, log)

		Convey("When building BOS at home against TOR", func() {
			vec, err := mb.Build(ctx, "BOS", "TOR", "20232024", day("2024-01-08"))
			So(err, ShouldBeNil)

			Convey("Then the vector aligns to the schema", func() {
				So(vec.SchemaVersion, ShouldEqual, "test-v1")
				So(vec.Values, ShouldHaveLength, 9)
			})

			Convey("Then rolling differentials follow home minus away", func() {
				// BOS avg +1.5, TOR avg -1.5.
				v, err := vec.Get("rolling_goal_diff_3_diff")
				So(err, ShouldBeNil)
				So(v.Float(), ShouldAlmostEqual, 3.0, 1e-12)
			})

			Convey("Then situational flags are concrete", func() {
				rest, err := vec.Get(schema.FlagRestDaysHome)
				So(err, ShouldBeNil)
				So(rest.Float(), ShouldEqual, 3)

				div, err := vec.Get(schema.FlagDivisional)
				So(err, ShouldBeNil)
				So(div.Float(), ShouldEqual, 1)

				travel, err := vec.Get(schema.FlagTravelKm)
				So(err, ShouldBeNil)
				// TOR's prior game was in Montreal; the matchup is in Boston.
				So(travel.Float(), ShouldBeGreaterThan, 0)
			})

			Convey("Then the interaction multiplies base by flag", func() {
				base, _ := vec.Get("rolling_goal_diff_3_diff")
				inter, err := vec.Get("gd3_x_div")
				So(err, ShouldBeNil)
				So(inter.Float(), ShouldAlmostEqual, base.Float()*1, 1e-12)
			})

			Convey("Then calibration indicators fire for the watched team", func() {
				home, _ := vec.Get("cal_BOS_home")
				So(home.Float(), ShouldEqual, 1)
				any, _ := vec.Get("cal_BOS_any")
				So(any.Float(), ShouldEqual, 1)
			})

			Convey("And unknown feature lookups error", func() {
				_, err := vec.Get("ghost")
				So(errors.Is(err, schema.ErrUnknownFeature), ShouldBeTrue)
			})
		})

		Convey("When building the mirrored matchup", func() {
			vec, err := mb.Build(ctx, "BOS", "TOR", "20232024", day("2024-01-08"))
			So(err, ShouldBeNil)
			mirror, err := mb.Build(ctx, "TOR", "BOS", "20232024", day("2024-01-08"))
			So(err, ShouldBeNil)

			Convey("Then differentials flip sign", func() {
				v, _ := vec.Get("rolling_goal_diff_3_diff")
				m, _ := mirror.Get("rolling_goal_diff_3_diff")
				So(m.Float(), ShouldAlmostEqual, -v.Float(), 1e-12)

				sv, _ := vec.Get("season_goal_diff_diff")
				sm, _ := mirror.Get("season_goal_diff_diff")
				So(sm.Float(), ShouldAlmostEqual, -sv.Float(), 1e-12)
			})
		})

		Convey("When building the same matchup twice", func() {
			first, err := mb.Build(ctx, "BOS", "TOR", "20232024", day("2024-01-08"))
			So(err, ShouldBeNil)
			second, err := mb.Build(ctx, "BOS", "TOR", "20232024", day("2024-01-08"))
			So(err, ShouldBeNil)

			Convey("Then the outputs are identical", func() {
				So(second.Values, ShouldResemble, first.Values)
			})
		})
	})
}

func TestBuildColdStart(t *testing.T) {
	ctx := context.Background()

	Convey("Given a season opener with no history for either team", t, func() {
		mb := builderOver(t, frozen())
		vec, err := mb.Build(ctx, "BOS", "TOR", "20232024", day("2023-10-10"))
		So(err, ShouldBeNil)

		Convey("Then rolling and season features are missing, not invented", func() {
			v, _ := vec.Get("rolling_goal_diff_3_diff")
			So(v.IsMissing(), ShouldBeTrue)
			v, _ = vec.Get("season_goal_diff_diff")
			So(v.IsMissing(), ShouldBeTrue)
		})

		Convey("Then interactions on missing bases stay missing", func() {
			v, _ := vec.Get("gd3_x_div")
			So(v.IsMissing(), ShouldBeTrue)
		})

		Convey("Then situational flags use their sentinels and defaults", func() {
			rest, _ := vec.Get(schema.FlagRestDaysHome)
			So(rest.Float(), ShouldEqual, 99)

			b2b, _ := vec.Get(schema.FlagBackToBackAway)
			So(b2b.Float(), ShouldEqual, 0)

			travel, _ := vec.Get(schema.FlagTravelKm)
			So(travel.Float(), ShouldEqual, 0)
		})
	})
}

func TestBuildIncompleteContext(t *testing.T) {
	ctx := context.Background()

	Convey("Given a team missing from the static tables", t, func() {
		mb := builderOver(t, frozen())

		Convey("Then the build fails loudly for that matchup", func() {
			_, err := mb.Build(ctx, "BOS", "QUE", "20232024", day("2023-10-10"))
			So(errors.Is(err, situation.ErrIncompleteContext), ShouldBeTrue)
		})
	})
}
