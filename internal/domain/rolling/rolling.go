// Package rolling computes windowed and season-to-date statistics as of a
// cutoff date, using only games strictly before that date.
package rolling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rinkrat/featurecast/internal/domain/model"
	"github.com/rinkrat/featurecast/internal/eventlog"
)

// Aggregator derives point-in-time averages from a frozen event log.
type Aggregator struct {
	log *eventlog.Log
}

// New creates an aggregator over the given snapshot.
func New(log *eventlog.Log) *Aggregator {
	return &Aggregator{log: log}
}

// average resolves statName over the played games in recs, most recent
// window games only when window > 0. Zero usable games is the missing
// sentinel; a partial window averages over whatever is available, so a team
// with at least one prior game never produces NaN.
func average(recs []model.GameRecord, teamID, statName string, window int) (model.Value, error) {
	stat, err := model.Stat(statName)
	if err != nil {
		return model.None(), err
	}

	views := make([]model.TeamView, 0, len(recs))
	for _, rec := range recs {
		if !rec.Played {
			continue
		}
		if v, ok := rec.View(teamID); ok {
			views = append(views, v)
		}
	}
	if window > 0 && len(views) > window {
		views = views[len(views)-window:]
	}
	if len(views) == 0 {
		return model.None(), nil
	}

	var sum float64
	for _, v := range views {
		sum += stat(v)
	}
	return model.Some(sum / float64(len(views))), nil
}

// RollingAverage averages statName over teamID's window most recent games
// strictly before asOf. An unknown team is a cold start, not an error.
func (a *Aggregator) RollingAverage(ctx context.Context, teamID string, asOf time.Time, statName string, window int) (model.Value, error) {
	if window <= 0 {
		return model.None(), fmt.Errorf("window must be positive, got %d", window)
	}
	recs, err := a.log.RecordsBefore(ctx, teamID, asOf)
	if errors.Is(err, eventlog.ErrUnknownTeam) {
		return model.None(), nil
	}
	if err != nil {
		return model.None(), err
	}
	return average(recs, teamID, statName, window)
}

// SeasonAverage averages statName over teamID's games within seasonID
// strictly before asOf. The aggregate restarts at every season boundary:
// nothing carries over from a previous season.
func (a *Aggregator) SeasonAverage(ctx context.Context, teamID, seasonID string, asOf time.Time, statName string) (model.Value, error) {
	recs, err := a.log.SeasonRecordsBefore(ctx, teamID, seasonID, asOf)
	if errors.Is(err, eventlog.ErrUnknownTeam) {
		return model.None(), nil
	}
	if err != nil {
		return model.None(), err
	}
	return average(recs, teamID, statName, 0)
}

// Differential is home minus away. The sign convention is fixed for every
// "_diff" feature so a model never sees inconsistent polarity. Missing on
// either side propagates.
func Differential(home, away model.Value) model.Value {
	if home.IsMissing() || away.IsMissing() {
		return model.None()
	}
	return model.Some(home.Float() - away.Float())
}
