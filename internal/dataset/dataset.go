// Package dataset builds the bulk training matrix: one row per completed
// game in the training seasons, produced by the same matchup builder the
// serving path uses. Rows are independent, so construction fans out over a
// fixed worker pool; output order is fixed by (GameDate, GameID) regardless
// of worker interleaving.
package dataset

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rinkrat/featurecast/internal/domain/matchup"
	"github.com/rinkrat/featurecast/internal/domain/model"
	"github.com/rinkrat/featurecast/internal/domain/recency"
	"github.com/rinkrat/featurecast/internal/eventlog"
	"github.com/rinkrat/featurecast/pkg/logger"
	"github.com/rinkrat/featurecast/pkg/metrics"
)

// Row is one training example.
type Row struct {
	GameID     string        `json:"game_id"`
	SeasonID   string        `json:"season_id"`
	GameDate   time.Time     `json:"game_date"`
	HomeTeamID string        `json:"home_team_id"`
	AwayTeamID string        `json:"away_team_id"`
	Values     []model.Value `json:"values"`
	HomeWin    float64       `json:"home_win"`
	Weight     float64       `json:"weight"`
}

// Failure records a game whose feature build failed. One bad matchup never
// aborts the batch; failures are collected and reported per row.
type Failure struct {
	GameID string `json:"game_id"`
	Reason string `json:"reason"`
}

// Dataset is the bulk output consumed by the external model-fitting step.
type Dataset struct {
	RunID         string    `json:"run_id"`
	SchemaVersion string    `json:"schema_version"`
	Names         []string  `json:"names"`
	Rows          []Row     `json:"rows"`
	Failures      []Failure `json:"failures,omitempty"`
}

// Builder fans matchup builds out over a worker pool.
type Builder struct {
	mb       *matchup.Builder
	weighter *recency.Weighter
	workers  int
	log      logger.Logger
}

// Option applies a configuration option to the Builder.
type Option func(*Builder)

// WithWorkerCount sets the number of build workers.
func WithWorkerCount(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.workers = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) Option {
	return func(b *Builder) {
		if log != nil {
			b.log = log
		}
	}
}

// New creates a dataset builder.
func New(mb *matchup.Builder, weighter *recency.Weighter, opts ...Option) *Builder {
	b := &Builder{
		mb:       mb,
		weighter: weighter,
		workers:  runtime.NumCPU(),
		log:      logger.Get().Named("dataset"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// result carries one worker's output back to its pre-assigned slot.
type result struct {
	row Row
	err error
}

// Build constructs the matrix from every played game whose season is in the
// training set. The log must already be frozen; workers only read it.
func (b *Builder) Build(ctx context.Context, log *eventlog.Log) (*Dataset, error) {
	start := time.Now()
	defer func() {
		metrics.ObserveDatasetBuildSeconds(time.Since(start).Seconds())
	}()

	// log.Games() is already in (GameDate, GameID) order; slot indexes keep
	// that order in the output no matter which worker finishes first.
	var jobs []model.GameRecord
	var weights []float64
	for _, rec := range log.Games() {
		if !rec.Played {
			continue
		}
		w, ok := b.weighter.Weight(rec.SeasonID)
		if !ok {
			continue
		}
		jobs = append(jobs, rec)
		weights = append(weights, w)
	}

	ds := &Dataset{
		RunID:         uuid.New().String(),
		SchemaVersion: b.mb.Schema().Version(),
		Names:         b.mb.Schema().Names(),
	}
	if len(jobs) == 0 {
		return ds, nil
	}

	results := make([]result, len(jobs))
	jobCh := make(chan int)
	metrics.UpdateDatasetWorkers(b.workers)

	var wg sync.WaitGroup
	for w := 0; w < b.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobCh {
				results[i] = b.buildRow(ctx, jobs[i], weights[i])
			}
		}()
	}

feed:
	for i := range jobs {
		select {
		case <-ctx.Done():
			break feed
		case jobCh <- i:
		}
	}
	close(jobCh)
	wg.Wait()
	metrics.UpdateDatasetWorkers(0)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for i, res := range results {
		if res.err != nil {
			metrics.RecordRowFailed()
			b.log.Error(ctx, "row build failed",
				logger.String("gameID", jobs[i].GameID),
				logger.Error(res.err),
			)
			ds.Failures = append(ds.Failures, Failure{GameID: jobs[i].GameID, Reason: res.err.Error()})
			continue
		}
		metrics.RecordRowBuilt()
		ds.Rows = append(ds.Rows, res.row)
	}

	b.log.Info(ctx, "dataset built",
		logger.String("runID", ds.RunID),
		logger.Int("rows", len(ds.Rows)),
		logger.Int("failures", len(ds.Failures)),
	)
	return ds, nil
}

func (b *Builder) buildRow(ctx context.Context, rec model.GameRecord, weight float64) result {
	vec, err := b.mb.Build(ctx, rec.HomeTeamID, rec.AwayTeamID, rec.SeasonID, rec.GameDate)
	if err != nil {
		return result{err: err}
	}
	target := 0.0
	if rec.HomeWin {
		target = 1.0
	}
	return result{row: Row{
		GameID:     rec.GameID,
		SeasonID:   rec.SeasonID,
		GameDate:   rec.GameDate,
		HomeTeamID: rec.HomeTeamID,
		AwayTeamID: rec.AwayTeamID,
		Values:     vec.Values,
		HomeWin:    target,
		Weight:     weight,
	}}
}
