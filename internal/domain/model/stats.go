package model

import "fmt"

// StatFunc extracts a single named statistic from one team's view of a game.
type StatFunc func(TeamView) float64

// statFuncs is the registry of per-team statistics the aggregator can roll up.
// Share stats guard against empty denominators (a 0-0 shot line is bad data,
// but it must not poison an average with NaN).
var statFuncs = map[string]StatFunc{
	"goals_for":     func(v TeamView) float64 { return v.Line.GoalsFor },
	"goals_against": func(v TeamView) float64 { return v.Line.GoalsAgainst },
	"goal_diff":     func(v TeamView) float64 { return v.Line.GoalsFor - v.Line.GoalsAgainst },
	"shots_for":     func(v TeamView) float64 { return v.Line.ShotsFor },
	"shot_diff":     func(v TeamView) float64 { return v.Line.ShotsFor - v.Line.ShotsAgainst },
	"shot_share": func(v TeamView) float64 {
		return share(v.Line.ShotsFor, v.Line.ShotsAgainst)
	},
	"xg_for":  func(v TeamView) float64 { return v.Line.XGFor },
	"xg_diff": func(v TeamView) float64 { return v.Line.XGFor - v.Line.XGAgainst },
	"xg_share": func(v TeamView) float64 {
		return share(v.Line.XGFor, v.Line.XGAgainst)
	},
	"high_danger_diff": func(v TeamView) float64 {
		return v.Line.HighDangerFor - v.Line.HighDangerAgainst
	},
	"faceoff_win_pct":      func(v TeamView) float64 { return v.Line.FaceoffWinPct },
	"saves_above_expected": func(v TeamView) float64 { return v.Line.SavesAboveExpected },
	"win": func(v TeamView) float64 {
		if v.Won {
			return 1
		}
		return 0
	},
}

func share(forVal, against float64) float64 {
	total := forVal + against
	if total == 0 {
		return 0.5
	}
	return forVal / total
}

// Stat resolves a statistic by name. Unknown names are a configuration
// mismatch between schema and engine, reported as ErrUnknownStat.
func Stat(name string) (StatFunc, error) {
	fn, ok := statFuncs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStat, name)
	}
	return fn, nil
}

// HasStat reports whether name is a known statistic.
func HasStat(name string) bool {
	_, ok := statFuncs[name]
	return ok
}
