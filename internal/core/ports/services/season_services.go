package services

import (
	"context"

	"github.com/SscSPs/supply_chain_app/internal/core/domain"
)

// SeasonSvc assigns seasons to transactions recorded without one.
type SeasonSvc interface {
	// BackfillSeasons pages through unscoped transactions batchSize at a time.
	BackfillSeasons(ctx context.Context, batchSize int) (*domain.SeasonBackfillResult, error)
}
