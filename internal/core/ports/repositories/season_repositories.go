package repositories

import (
	"context"

	"github.com/SscSPs/supply_chain_app/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// SeasonReader defines read operations for season data.
type SeasonReader interface {
	// ListSeasonsByCommodityIDs returns the seasons of the given commodities.
	ListSeasonsByCommodityIDs(ctx context.Context, commodityIDs []string) ([]domain.Season, error)

	// ListUnscopedTransactions returns up to limit transactions with no season, ordered by id, after afterID.
	ListUnscopedTransactions(ctx context.Context, afterID string, limit int) ([]domain.Transaction, error)
}

// SeasonWriter defines write operations for season assignment.
type SeasonWriter interface {
	// AssignSeasons sets season_id for each transaction id key within tx.
	AssignSeasons(ctx context.Context, tx pgx.Tx, assignments map[string]string) error
}

// SeasonRepositoryWithTx combines season reads and writes with transaction control.
type SeasonRepositoryWithTx interface {
	SeasonReader
	SeasonWriter
	TransactionManager
}
