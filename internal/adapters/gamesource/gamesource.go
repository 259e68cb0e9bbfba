// Package gamesource is the ingestion boundary: it reads completed-game
// records the external collector has already fetched, deduplicated, and
// cached. The engine never fetches anything itself.
package gamesource

import (
	"context"

	"github.com/rinkrat/featurecast/internal/domain/model"
)

// Source supplies game records for event log construction.
type Source interface {
	// Games returns every available record. Order does not matter; the
	// event log sorts on freeze.
	Games(ctx context.Context) ([]model.GameRecord, error)
}
