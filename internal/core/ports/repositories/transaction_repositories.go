package repositories

import (
	"context"

	"github.com/SscSPs/supply_chain_app/internal/core/domain"
)

// TransactionReader defines the read operations the chain walker needs.
// Every method is one round trip to the underlying store.
type TransactionReader interface {
	// FindTransactionByID retrieves a single transaction. Returns apperrors.ErrNotFound when absent.
	FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error)

	// FindTransactionsByIDs retrieves the transactions whose id is in ids and that match filter.
	FindTransactionsByIDs(ctx context.Context, ids []string, filter domain.TransactionFilter) ([]domain.Transaction, error)

	// FindTransactionsByBuyerIDs retrieves the transactions bought by any of buyerIDs that match filter.
	FindTransactionsByBuyerIDs(ctx context.Context, buyerIDs []string, filter domain.TransactionFilter) ([]domain.Transaction, error)

	// FindConversionInputLegs retrieves the input legs (buyer_id IS NULL) of the given conversion groups,
	// skipping excludeIDs.
	FindConversionInputLegs(ctx context.Context, groupIDs []string, excludeIDs []string) ([]domain.Transaction, error)
}

// ChainExportReader loads chain transactions together with their parties.
type ChainExportReader interface {
	// FindChainExportRows eagerly loads seller, buyer and commodity for ids in a single round trip.
	FindChainExportRows(ctx context.Context, ids []string) ([]domain.ChainExportRow, error)
}

// TransactionRepositoryFacade combines all transaction read interfaces.
type TransactionRepositoryFacade interface {
	TransactionReader
	ChainExportReader
}
