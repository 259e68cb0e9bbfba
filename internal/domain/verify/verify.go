// Package verify recomputes bulk-dataset rows through the single-matchup
// path and reports any divergence. Mismatches are evidence of drift between
// the two paths, so the verifier reports and never raises on them.
package verify

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/rinkrat/featurecast/internal/dataset"
	"github.com/rinkrat/featurecast/internal/domain/matchup"
	"github.com/rinkrat/featurecast/internal/domain/model"
	"github.com/rinkrat/featurecast/pkg/metrics"
)

// Default tolerance constants.
const (
	defaultAbsTolerance = 1e-3
	defaultRelTolerance = 0.05
	defaultTopN         = 10
)

// Mismatch is one diverging (game, feature) pair, recorded with both values
// and the signed delta so the offending recipe can be localized.
type Mismatch struct {
	GameID  string  `json:"game_id"`
	Feature string  `json:"feature"`
	Bulk    float64 `json:"bulk"`
	Rebuilt float64 `json:"rebuilt"`
	Delta   float64 `json:"delta"`
}

// FeatureDrift aggregates mismatches per feature.
type FeatureDrift struct {
	Feature      string  `json:"feature"`
	Mismatches   int     `json:"mismatches"`
	MeanAbsDelta float64 `json:"mean_abs_delta"`
}

// Report summarizes one verification run.
type Report struct {
	ReportID      string         `json:"report_id"`
	SchemaVersion string         `json:"schema_version"`
	GamesSampled  int            `json:"games_sampled"`
	Exact         int            `json:"exact"`
	Close         int            `json:"close"`
	Mismatched    int            `json:"mismatched"`
	BuildFailures int            `json:"build_failures"`
	TopMismatches []Mismatch     `json:"top_mismatches,omitempty"`
	Drift         []FeatureDrift `json:"drift,omitempty"`
	StartedAt     time.Time      `json:"started_at"`
}

// Verifier diffs bulk rows against single-path rebuilds.
type Verifier struct {
	mb     *matchup.Builder
	absTol float64
	relTol float64
	topN   int
}

// Option applies a configuration option to the Verifier.
type Option func(*Verifier)

// WithTolerances overrides the exact and close match thresholds.
func WithTolerances(absTol, relTol float64) Option {
	return func(v *Verifier) {
		if absTol > 0 {
			v.absTol = absTol
		}
		if relTol > 0 {
			v.relTol = relTol
		}
	}
}

// WithTopN caps the number of recorded mismatch examples.
func WithTopN(n int) Option {
	return func(v *Verifier) {
		if n > 0 {
			v.topN = n
		}
	}
}

// New creates a verifier that rebuilds rows through mb. The builder must be
// constructed with the same schema and the same frozen event log that
// produced the bulk dataset; diffing across different snapshots measures
// data drift, not path drift.
func New(mb *matchup.Builder, opts ...Option) *Verifier {
	v := &Verifier{
		mb:     mb,
		absTol: defaultAbsTolerance,
		relTol: defaultRelTolerance,
		topN:   defaultTopN,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify recomputes each sampled row and classifies every (game, feature)
// pair: exact under the absolute tolerance, close under the relative one,
// mismatch otherwise. gameIDs narrows the sample; nil verifies every row.
func (v *Verifier) Verify(ctx context.Context, ds *dataset.Dataset, gameIDs []string) (Report, error) {
	rep := Report{
		ReportID:      uuid.New().String(),
		SchemaVersion: ds.SchemaVersion,
		StartedAt:     time.Now().UTC(),
	}

	var sample map[string]struct{}
	if gameIDs != nil {
		sample = make(map[string]struct{}, len(gameIDs))
		for _, id := range gameIDs {
			sample[id] = struct{}{}
		}
	}

	perFeature := make(map[string]*FeatureDrift)
	var mismatches []Mismatch

	for _, row := range ds.Rows {
		if err := ctx.Err(); err != nil {
			return Report{}, err
		}
		if sample != nil {
			if _, ok := sample[row.GameID]; !ok {
				continue
			}
		}
		rep.GamesSampled++

		vec, err := v.mb.Build(ctx, row.HomeTeamID, row.AwayTeamID, row.SeasonID, row.GameDate)
		if err != nil {
			rep.BuildFailures++
			continue
		}

		for i, name := range ds.Names {
			bulk := row.Values[i]
			rebuilt := vec.Values[i]
			switch v.classify(bulk, rebuilt) {
			case classExact:
				rep.Exact++
			case classClose:
				rep.Close++
			case classMismatch:
				rep.Mismatched++
				metrics.RecordVerifierMismatch()
				delta := rebuilt.Float() - bulk.Float()
				mismatches = append(mismatches, Mismatch{
					GameID:  row.GameID,
					Feature: name,
					Bulk:    bulk.Float(),
					Rebuilt: rebuilt.Float(),
					Delta:   delta,
				})
				d, ok := perFeature[name]
				if !ok {
					d = &FeatureDrift{Feature: name}
					perFeature[name] = d
				}
				d.Mismatches++
				d.MeanAbsDelta += math.Abs(delta)
			}
		}
	}

	for _, d := range perFeature {
		d.MeanAbsDelta /= float64(d.Mismatches)
		rep.Drift = append(rep.Drift, *d)
	}
	sort.Slice(rep.Drift, func(i, j int) bool {
		if rep.Drift[i].Mismatches != rep.Drift[j].Mismatches {
			return rep.Drift[i].Mismatches > rep.Drift[j].Mismatches
		}
		return rep.Drift[i].Feature < rep.Drift[j].Feature
	})

	sort.Slice(mismatches, func(i, j int) bool {
		return math.Abs(mismatches[i].Delta) > math.Abs(mismatches[j].Delta)
	})
	if len(mismatches) > v.topN {
		mismatches = mismatches[:v.topN]
	}
	rep.TopMismatches = mismatches

	return rep, nil
}

type class int

const (
	classExact class = iota
	classClose
	classMismatch
)

// classify compares one bulk/rebuilt pair. A missing sentinel on exactly one
// side is always a mismatch: the paths disagree about whether history
// existed at all, which no numeric tolerance should paper over.
func (v *Verifier) classify(bulk, rebuilt model.Value) class {
	if bulk.IsMissing() != rebuilt.IsMissing() {
		return classMismatch
	}
	if bulk.IsMissing() {
		return classExact
	}
	diff := math.Abs(rebuilt.Float() - bulk.Float())
	if diff < v.absTol {
		return classExact
	}
	denom := math.Max(math.Abs(bulk.Float()), math.Abs(rebuilt.Float()))
	if denom > 0 && diff/denom < v.relTol {
		return classClose
	}
	return classMismatch
}
