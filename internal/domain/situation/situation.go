// Package situation derives matchup-context flags: rest, back-to-backs,
// divisional games, travel, and post-break layoffs. Every flag is a pure
// function of games strictly before the target date plus static tables.
package situation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rinkrat/featurecast/internal/eventlog"
)

// Default annotator configuration constants.
const (
	defaultLookbackDays  = 30
	defaultPostBreakDays = 7
	// restSentinel is reported when no prior game falls inside the lookback
	// horizon, including cold starts. 99 is well past any real rest value.
	restSentinel = 99

	hoursPerDay   = 24
	earthRadiusKm = 6371.0
)

// Annotator computes situational flags for scheduled matchups.
type Annotator struct {
	log           *eventlog.Log
	tables        Tables
	lookbackDays  int
	postBreakDays int
}

// Option applies a configuration option to the Annotator.
type Option func(*Annotator)

// WithLookbackDays sets how far back a prior game still counts for rest.
func WithLookbackDays(days int) Option {
	return func(a *Annotator) {
		if days > 0 {
			a.lookbackDays = days
		}
	}
}

// WithPostBreakDays sets the rest threshold beyond which a team is treated
// as coming off a break.
func WithPostBreakDays(days int) Option {
	return func(a *Annotator) {
		if days > 0 {
			a.postBreakDays = days
		}
	}
}

// New creates an annotator over the given snapshot and tables.
func New(log *eventlog.Log, tables Tables, opts ...Option) *Annotator {
	a := &Annotator{
		log:           log,
		tables:        tables,
		lookbackDays:  defaultLookbackDays,
		postBreakDays: defaultPostBreakDays,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// RestDays returns whole days since teamID's prior game, or the fixed
// sentinel when no prior game exists within the lookback horizon. Unknown
// teams are cold starts and also report the sentinel.
func (a *Annotator) RestDays(ctx context.Context, teamID string, asOf time.Time) (int, error) {
	lastDate, _, ok, err := a.lastGame(ctx, teamID, asOf)
	if err != nil {
		return 0, err
	}
	if !ok {
		return restSentinel, nil
	}
	days := int(asOf.Sub(lastDate).Hours() / hoursPerDay)
	if days > a.lookbackDays {
		return restSentinel, nil
	}
	return days, nil
}

// IsBackToBack reports whether teamID played the previous day.
func (a *Annotator) IsBackToBack(ctx context.Context, teamID string, asOf time.Time) (bool, error) {
	rest, err := a.RestDays(ctx, teamID, asOf)
	if err != nil {
		return false, err
	}
	return rest == 1, nil
}

// PostBreak reports whether teamID's rest exceeds the break threshold.
// A cold start counts as post-break: the team has not played recently.
func (a *Annotator) PostBreak(ctx context.Context, teamID string, asOf time.Time) (bool, error) {
	rest, err := a.RestDays(ctx, teamID, asOf)
	if err != nil {
		return false, err
	}
	return rest > a.postBreakDays, nil
}

// DivisionalMatchup reports whether both teams share a division.
func (a *Annotator) DivisionalMatchup(homeTeamID, awayTeamID string) (bool, error) {
	homeDiv, ok := a.tables.Divisions[homeTeamID]
	if !ok {
		return false, fmt.Errorf("%w: no division for %s", ErrIncompleteContext, homeTeamID)
	}
	awayDiv, ok := a.tables.Divisions[awayTeamID]
	if !ok {
		return false, fmt.Errorf("%w: no division for %s", ErrIncompleteContext, awayTeamID)
	}
	return homeDiv == awayDiv, nil
}

// TravelDistance returns the kilometers from the away team's previous venue
// to the current game's venue, 0 when the away team has no prior game.
func (a *Annotator) TravelDistance(ctx context.Context, awayTeamID, homeTeamID string, asOf time.Time) (float64, error) {
	dest, ok := a.tables.Venues[homeTeamID]
	if !ok {
		return 0, fmt.Errorf("%w: no venue for %s", ErrIncompleteContext, homeTeamID)
	}
	_, priorHomeID, played, err := a.lastGame(ctx, awayTeamID, asOf)
	if err != nil {
		return 0, err
	}
	if !played {
		return 0, nil
	}
	origin, ok := a.tables.Venues[priorHomeID]
	if !ok {
		return 0, fmt.Errorf("%w: no venue for %s", ErrIncompleteContext, priorHomeID)
	}
	return haversineKm(origin, dest), nil
}

// lastGame wraps the event log, folding its unknown-team signal into the
// "no prior game" case so every flag applies one cold-start policy.
func (a *Annotator) lastGame(ctx context.Context, teamID string, asOf time.Time) (time.Time, string, bool, error) {
	rec, ok, err := a.log.LastGame(ctx, teamID, asOf)
	if errors.Is(err, eventlog.ErrUnknownTeam) {
		return time.Time{}, "", false, nil
	}
	if err != nil {
		return time.Time{}, "", false, err
	}
	if !ok {
		return time.Time{}, "", false, nil
	}
	return rec.GameDate, rec.HomeTeamID, true, nil
}

// haversineKm is the great-circle distance between two coordinates.
func haversineKm(from, to Coord) float64 {
	lat1 := from.Lat * math.Pi / 180
	lat2 := to.Lat * math.Pi / 180
	dLat := lat2 - lat1
	dLon := (to.Lon - from.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}
