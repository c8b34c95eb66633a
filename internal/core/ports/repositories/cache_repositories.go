package repositories

import (
	"context"

	"github.com/SscSPs/supply_chain_app/internal/core/domain"
)

// ChainCountsCache stores computed traceability counts per anchor transaction.
type ChainCountsCache interface {
	// GetCounts returns the cached counts and whether they were found.
	GetCounts(ctx context.Context, transactionID string) (domain.TraceabilityCounts, bool, error)

	// SetCounts stores counts for transactionID.
	SetCounts(ctx context.Context, transactionID string, counts domain.TraceabilityCounts) error
}
