// Package model contains the domain records the feature engine computes over.
package model

import "time"

// TeamGame holds one team's box-score line for a single game, oriented from
// that team's point of view ("For" is the team itself, "Against" its opponent).
// Fields mirror the collector's cached box-score schema.
type TeamGame struct {
	GoalsFor           float64 `json:"goals_for"`
	GoalsAgainst       float64 `json:"goals_against"`
	ShotsFor           float64 `json:"shots_for"`
	ShotsAgainst       float64 `json:"shots_against"`
	XGFor              float64 `json:"xg_for"`
	XGAgainst          float64 `json:"xg_against"`
	HighDangerFor      float64 `json:"high_danger_for"`
	HighDangerAgainst  float64 `json:"high_danger_against"`
	FaceoffWinPct      float64 `json:"faceoff_win_pct"`
	SavesAboveExpected float64 `json:"saves_above_expected"`
}

// GameRecord is one completed or scheduled game. Records are immutable once
// ingested; GameDate with the GameID tiebreak gives a total chronological order.
type GameRecord struct {
	GameID     string    `json:"game_id"`
	SeasonID   string    `json:"season_id"`
	GameDate   time.Time `json:"game_date"`
	HomeTeamID string    `json:"home_team_id"`
	AwayTeamID string    `json:"away_team_id"`

	// Outcome fields are meaningful only when Played is true.
	Played  bool     `json:"played"`
	Home    TeamGame `json:"home"`
	Away    TeamGame `json:"away"`
	HomeWin bool     `json:"home_win"`
}

// Before reports whether g sorts strictly earlier than other: by GameDate,
// then by GameID when dates tie. Same-date games carry no causal order, so
// the tiebreak exists only to make iteration deterministic.
func (g GameRecord) Before(other GameRecord) bool {
	if !g.GameDate.Equal(other.GameDate) {
		return g.GameDate.Before(other.GameDate)
	}
	return g.GameID < other.GameID
}

// TeamView is one side's perspective on a played game.
type TeamView struct {
	TeamID   string
	GameID   string
	SeasonID string
	GameDate time.Time
	IsHome   bool
	Won      bool
	Line     TeamGame
}

// View returns teamID's perspective on the game. The second return is false
// when teamID did not participate.
func (g GameRecord) View(teamID string) (TeamView, bool) {
	v := TeamView{
		TeamID:   teamID,
		GameID:   g.GameID,
		SeasonID: g.SeasonID,
		GameDate: g.GameDate,
	}
	switch teamID {
	case g.HomeTeamID:
		v.IsHome = true
		v.Won = g.HomeWin
		v.Line = g.Home
	case g.AwayTeamID:
		v.Won = !g.HomeWin
		v.Line = g.Away
	default:
		return TeamView{}, false
	}
	return v, true
}
