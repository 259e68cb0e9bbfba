// Package matchup assembles full feature vectors for a scheduled game. It is
// the single build path: bulk dataset construction and single-game inference
// both go through Builder.Build, which is what makes their outputs
// bit-identical for identical inputs.
package matchup

import (
	"context"
	"fmt"
	"time"

	"github.com/rinkrat/featurecast/internal/domain/model"
	"github.com/rinkrat/featurecast/internal/domain/rolling"
	"github.com/rinkrat/featurecast/internal/domain/schema"
	"github.com/rinkrat/featurecast/internal/domain/situation"
	"github.com/rinkrat/featurecast/pkg/logger"
	"github.com/rinkrat/featurecast/pkg/metrics"
)

// FeatureVector is the ordered output for one matchup, aligned to a schema.
type FeatureVector struct {
	HomeTeamID    string        `json:"home_team_id"`
	AwayTeamID    string        `json:"away_team_id"`
	SeasonID      string        `json:"season_id"`
	GameDate      time.Time     `json:"game_date"`
	SchemaVersion string        `json:"schema_version"`
	Values        []model.Value `json:"values"`

	index map[string]int
}

// Get returns the value for a named feature.
func (v FeatureVector) Get(name string) (model.Value, error) {
	i, ok := v.index[name]
	if !ok {
		return model.None(), fmt.Errorf("%w: %s", schema.ErrUnknownFeature, name)
	}
	return v.Values[i], nil
}

// Builder turns (home, away, season, date) into a FeatureVector.
type Builder struct {
	agg    *rolling.Aggregator
	ann    *situation.Annotator
	schema *schema.Schema
	index  map[string]int
	log    logger.Logger
}

// Option applies a configuration option to the Builder.
type Option func(*Builder)

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) Option {
	return func(b *Builder) {
		if log != nil {
			b.log = log
		}
	}
}

// New creates a builder binding the aggregator, the annotator, and one
// explicit schema for its whole lifetime.
func New(agg *rolling.Aggregator, ann *situation.Annotator, sch *schema.Schema, opts ...Option) *Builder {
	b := &Builder{
		agg:    agg,
		ann:    ann,
		schema: sch,
		index:  sch.Index(),
		log:    logger.Get().Named("matchup"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Schema returns the schema the builder was constructed with.
func (b *Builder) Schema() *schema.Schema { return b.schema }

// Build computes the full feature vector for one matchup, reading only games
// dated strictly before gameDate. Cold-start rolling and season features
// resolve to the missing sentinel; situational flags fall back to their
// documented defaults. Errors abort only this matchup, never a batch.
func (b *Builder) Build(ctx context.Context, homeTeamID, awayTeamID, seasonID string, gameDate time.Time) (FeatureVector, error) {
	start := time.Now()
	defer func() {
		metrics.ObserveMatchupBuildSeconds(time.Since(start).Seconds())
	}()

	vec := FeatureVector{
		HomeTeamID:    homeTeamID,
		AwayTeamID:    awayTeamID,
		SeasonID:      seasonID,
		GameDate:      gameDate,
		SchemaVersion: b.schema.Version(),
		Values:        make([]model.Value, b.schema.Len()),
		index:         b.index,
	}

	for i, name := range b.schema.Names() {
		val, err := b.eval(ctx, name, vec)
		if err != nil {
			metrics.RecordBuildError()
			b.log.Error(ctx, "feature build failed",
				logger.String("feature", name),
				logger.String("home", homeTeamID),
				logger.String("away", awayTeamID),
				logger.Error(err),
			)
			return FeatureVector{}, fmt.Errorf("feature %s: %w", name, err)
		}
		vec.Values[i] = val
	}

	metrics.RecordVectorBuilt()
	return vec, nil
}

// eval computes one feature. Interaction bases are read back out of vec;
// schema construction guarantees a base precedes its interactions, so the
// slot is always filled by the time it is needed.
func (b *Builder) eval(ctx context.Context, name string, vec FeatureVector) (model.Value, error) {
	r, err := b.schema.Recipe(name)
	if err != nil {
		return model.None(), err
	}

	switch r.Kind {
	case schema.KindRollingDiff:
		home, err := b.agg.RollingAverage(ctx, vec.HomeTeamID, vec.GameDate, r.Stat, r.Window)
		if err != nil {
			return model.None(), err
		}
		away, err := b.agg.RollingAverage(ctx, vec.AwayTeamID, vec.GameDate, r.Stat, r.Window)
		if err != nil {
			return model.None(), err
		}
		return rolling.Differential(home, away), nil

	case schema.KindSeasonDiff:
		home, err := b.agg.SeasonAverage(ctx, vec.HomeTeamID, vec.SeasonID, vec.GameDate, r.Stat)
		if err != nil {
			return model.None(), err
		}
		away, err := b.agg.SeasonAverage(ctx, vec.AwayTeamID, vec.SeasonID, vec.GameDate, r.Stat)
		if err != nil {
			return model.None(), err
		}
		return rolling.Differential(home, away), nil

	case schema.KindSituational:
		f, err := b.flag(ctx, r.Flag, vec)
		if err != nil {
			return model.None(), err
		}
		return model.Some(f), nil

	case schema.KindInteraction:
		base, err := vec.Get(r.Base)
		if err != nil {
			return model.None(), err
		}
		if base.IsMissing() {
			return model.None(), nil
		}
		f, err := b.flag(ctx, r.Flag, vec)
		if err != nil {
			return model.None(), err
		}
		return model.Some(base.Float() * f), nil

	case schema.KindCalibration:
		return model.Some(indicator(r, vec.HomeTeamID, vec.AwayTeamID)), nil
	}

	return model.None(), fmt.Errorf("%w: %s", schema.ErrUnknownFeature, name)
}

// flag resolves a situational flag to its numeric form.
func (b *Builder) flag(ctx context.Context, flag string, vec FeatureVector) (float64, error) {
	switch flag {
	case schema.FlagRestDaysHome:
		d, err := b.ann.RestDays(ctx, vec.HomeTeamID, vec.GameDate)
		return float64(d), err
	case schema.FlagRestDaysAway:
		d, err := b.ann.RestDays(ctx, vec.AwayTeamID, vec.GameDate)
		return float64(d), err
	case schema.FlagRestDiff:
		home, err := b.ann.RestDays(ctx, vec.HomeTeamID, vec.GameDate)
		if err != nil {
			return 0, err
		}
		away, err := b.ann.RestDays(ctx, vec.AwayTeamID, vec.GameDate)
		if err != nil {
			return 0, err
		}
		return float64(home - away), nil
	case schema.FlagBackToBackHome:
		b2b, err := b.ann.IsBackToBack(ctx, vec.HomeTeamID, vec.GameDate)
		return boolToFloat(b2b), err
	case schema.FlagBackToBackAway:
		b2b, err := b.ann.IsBackToBack(ctx, vec.AwayTeamID, vec.GameDate)
		return boolToFloat(b2b), err
	case schema.FlagDivisional:
		div, err := b.ann.DivisionalMatchup(vec.HomeTeamID, vec.AwayTeamID)
		return boolToFloat(div), err
	case schema.FlagTravelKm:
		return b.ann.TravelDistance(ctx, vec.AwayTeamID, vec.HomeTeamID, vec.GameDate)
	case schema.FlagPostBreakHome:
		pb, err := b.ann.PostBreak(ctx, vec.HomeTeamID, vec.GameDate)
		return boolToFloat(pb), err
	case schema.FlagPostBreakAway:
		pb, err := b.ann.PostBreak(ctx, vec.AwayTeamID, vec.GameDate)
		return boolToFloat(pb), err
	}
	return 0, fmt.Errorf("%w: flag %s", schema.ErrUnknownFeature, flag)
}

func indicator(r schema.Recipe, homeTeamID, awayTeamID string) float64 {
	switch r.Side {
	case schema.SideHome:
		return boolToFloat(r.Team == homeTeamID)
	case schema.SideAway:
		return boolToFloat(r.Team == awayTeamID)
	case schema.SideEither:
		return boolToFloat(r.Team == homeTeamID || r.Team == awayTeamID)
	}
	return 0
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
