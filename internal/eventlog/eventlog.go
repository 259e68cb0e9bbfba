// Package eventlog stores per-team chronological game histories.
//
// Ingestion is append-only through a Builder; all feature computation reads a
// frozen Log snapshot. Freezing is the single synchronization point between
// the ingestion phase and concurrent feature construction.
package eventlog

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rinkrat/featurecast/internal/domain/model"
	"github.com/rinkrat/featurecast/pkg/metrics"
)

// Builder accumulates game records during the ingestion phase.
type Builder struct {
	mu      sync.Mutex
	records []model.GameRecord
	seen    map[string]struct{}
	frozen  bool
}

// Option applies a configuration option to the Builder.
type Option func(*Builder)

// WithCapacityHint pre-sizes internal storage for an expected game count.
func WithCapacityHint(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.records = make([]model.GameRecord, 0, n)
			b.seen = make(map[string]struct{}, n)
		}
	}
}

// NewBuilder creates an empty log builder.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		seen: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Append records a game. Appending the same GameID twice is idempotent: the
// first record wins and the duplicate is counted, since the collector is
// expected to have deduplicated already.
func (b *Builder) Append(rec model.GameRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.frozen {
		return ErrFrozen
	}
	if rec.GameID == "" {
		return fmt.Errorf("%w: empty game id", ErrInvalidRecord)
	}
	if rec.HomeTeamID == "" || rec.AwayTeamID == "" || rec.HomeTeamID == rec.AwayTeamID {
		return fmt.Errorf("%w: game %s team ids", ErrInvalidRecord, rec.GameID)
	}
	if _, dup := b.seen[rec.GameID]; dup {
		metrics.RecordDuplicateGame()
		return nil
	}
	b.seen[rec.GameID] = struct{}{}
	b.records = append(b.records, rec)
	return nil
}

// Freeze sorts the accumulated records and returns the immutable snapshot.
// The builder rejects further appends afterwards.
func (b *Builder) Freeze() *Log {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frozen = true

	all := make([]model.GameRecord, len(b.records))
	copy(all, b.records)
	sort.Slice(all, func(i, j int) bool { return all[i].Before(all[j]) })

	byTeam := make(map[string][]model.GameRecord)
	for _, rec := range all {
		byTeam[rec.HomeTeamID] = append(byTeam[rec.HomeTeamID], rec)
		byTeam[rec.AwayTeamID] = append(byTeam[rec.AwayTeamID], rec)
	}

	metrics.UpdateEventLogGames(len(all))
	metrics.UpdateEventLogTeams(len(byTeam))
	return &Log{all: all, byTeam: byTeam}
}

// Log is an immutable snapshot of game history. Per-team timelines are views
// into shared storage, sorted by (GameDate, GameID) ascending.
type Log struct {
	all    []model.GameRecord
	byTeam map[string][]model.GameRecord
}

// timeline returns teamID's full ordered history or ErrUnknownTeam.
func (l *Log) timeline(teamID string) ([]model.GameRecord, error) {
	tl, ok := l.byTeam[teamID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTeam, teamID)
	}
	return tl, nil
}

// cutoff returns the index of the first record dated at or after date.
// Records on the target date itself are excluded: a game sharing the date
// carries no causal order relative to the target and must never feed it.
func cutoff(tl []model.GameRecord, date time.Time) int {
	return sort.Search(len(tl), func(i int) bool {
		return !tl[i].GameDate.Before(date)
	})
}

// RecordsBefore returns teamID's games strictly earlier than date, oldest
// first. The slice is a view into the frozen snapshot; callers must not
// modify it. A known team with no prior games yields an empty, non-error
// result; an unknown team yields ErrUnknownTeam so callers can apply their
// cold-start policy explicitly.
func (l *Log) RecordsBefore(ctx context.Context, teamID string, date time.Time) ([]model.GameRecord, error) {
	tl, err := l.timeline(teamID)
	if err != nil {
		return nil, err
	}
	return tl[:cutoff(tl, date)], nil
}

// SeasonRecordsBefore returns teamID's games within seasonID strictly
// earlier than date, oldest first. Aggregates over it restart cleanly at
// each season boundary.
func (l *Log) SeasonRecordsBefore(ctx context.Context, teamID, seasonID string, date time.Time) ([]model.GameRecord, error) {
	tl, err := l.timeline(teamID)
	if err != nil {
		return nil, err
	}
	prior := tl[:cutoff(tl, date)]
	out := make([]model.GameRecord, 0, len(prior))
	for _, rec := range prior {
		if rec.SeasonID == seasonID {
			out = append(out, rec)
		}
	}
	return out, nil
}

// LastGame returns teamID's most recent game strictly before date. The
// second return is false when no prior game exists.
func (l *Log) LastGame(ctx context.Context, teamID string, date time.Time) (model.GameRecord, bool, error) {
	tl, err := l.timeline(teamID)
	if err != nil {
		return model.GameRecord{}, false, err
	}
	i := cutoff(tl, date)
	if i == 0 {
		return model.GameRecord{}, false, nil
	}
	return tl[i-1], true, nil
}

// Games returns every record in chronological order. The slice is a view
// into the frozen snapshot.
func (l *Log) Games() []model.GameRecord { return l.all }

// Teams returns the identifiers of every team with at least one game.
func (l *Log) Teams() []string {
	teams := make([]string, 0, len(l.byTeam))
	for id := range l.byTeam {
		teams = append(teams, id)
	}
	sort.Strings(teams)
	return teams
}

// Len returns the total number of games in the snapshot.
func (l *Log) Len() int { return len(l.all) }
