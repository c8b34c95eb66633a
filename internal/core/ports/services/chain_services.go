package services

import (
	"context"

	"github.com/SscSPs/supply_chain_app/internal/core/domain"
)

// ChainReaderSvc defines the chain walks returning transactions.
type ChainReaderSvc interface {
	// GetChainTransactions walks the commodity-scoped upstream chain of transactionID, anchor included.
	GetChainTransactions(ctx context.Context, transactionID string) ([]domain.Transaction, error)

	// GetConversionChainTransactions walks the chain across commodities, following conversion groups.
	GetConversionChainTransactions(ctx context.Context, transactionID string) ([]domain.Transaction, error)

	// GetFirstChainTransactions returns the accepted chain roots reached from transactionID.
	GetFirstChainTransactions(ctx context.Context, transactionID string, onlyMissingLocation bool) ([]domain.Transaction, error)

	// GetGeodataRequestTargets groups the roots missing a location by their buyer.
	GetGeodataRequestTargets(ctx context.Context, transactionID string) (map[string][]string, error)
}

// ChainAggregatorSvc defines aggregations over chain walks.
type ChainAggregatorSvc interface {
	// GetTraceabilityCounts tallies the stored grades of the whole upstream chain.
	GetTraceabilityCounts(ctx context.Context, transactionID string) (domain.TraceabilityCounts, error)

	// CountUserPlots counts the unique farm coordinates behind a party's accepted purchases.
	CountUserPlots(ctx context.Context, partyID string) (int, error)
}

// ChainSvcFacade combines all chain service interfaces.
type ChainSvcFacade interface {
	ChainReaderSvc
	ChainAggregatorSvc
}
