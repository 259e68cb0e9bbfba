// Package recency assigns training sample weights that discount older
// seasons exponentially.
package recency

import (
	"errors"
	"fmt"
	"math"

	"github.com/rinkrat/featurecast/internal/domain/model"
)

// Weighter maps a season to its training weight. Season distance comes from
// an explicit chronological ordering, never from comparing identifiers.
type Weighter struct {
	seasons     *model.SeasonList
	training    map[string]struct{}
	lastOrdinal int
	decay       float64
}

// NewWeighter builds a weighter for the given training seasons. decay must
// lie in (0, 1]; 1.0 means uniform weights.
func NewWeighter(seasons *model.SeasonList, trainingSeasons []string, decay float64) (*Weighter, error) {
	if seasons == nil {
		return nil, errors.New("season list is required")
	}
	if len(trainingSeasons) == 0 {
		return nil, errors.New("at least one training season is required")
	}
	if decay <= 0 || decay > 1 {
		return nil, fmt.Errorf("decay factor must be in (0, 1], got %g", decay)
	}

	w := &Weighter{
		seasons:     seasons,
		training:    make(map[string]struct{}, len(trainingSeasons)),
		lastOrdinal: -1,
		decay:       decay,
	}
	for _, id := range trainingSeasons {
		ord, err := w.seasons.Ordinal(id)
		if err != nil {
			return nil, err
		}
		w.training[id] = struct{}{}
		if ord > w.lastOrdinal {
			w.lastOrdinal = ord
		}
	}
	return w, nil
}

// Weight returns decay^k where k is how many seasons seasonID sits behind
// the most recent training season. The second return is false for seasons
// outside the training set: such rows are omitted from the weighted fit
// entirely rather than handed a zero that would still leak into covariance
// estimates.
func (w *Weighter) Weight(seasonID string) (float64, bool) {
	if _, ok := w.training[seasonID]; !ok {
		return 0, false
	}
	// Ordinal cannot fail here: membership was checked at construction.
	ord, _ := w.seasons.Ordinal(seasonID)
	return math.Pow(w.decay, float64(w.lastOrdinal-ord)), true
}

// Decay returns the configured decay factor.
func (w *Weighter) Decay() float64 { return w.decay }
