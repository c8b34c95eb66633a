package pgsql

import (
	"context"
	"fmt"

	"github.com/SscSPs/supply_chain_app/internal/apperrors"
	"github.com/SscSPs/supply_chain_app/internal/core/domain"
	portsrepo "github.com/SscSPs/supply_chain_app/internal/core/ports/repositories"
	"github.com/SscSPs/supply_chain_app/internal/models"
	"github.com/SscSPs/supply_chain_app/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxSeasonRepository struct {
	BaseRepository
}

// newPgxSeasonRepository creates a new repository for season data.
func newPgxSeasonRepository(pool *pgxpool.Pool) portsrepo.SeasonRepositoryWithTx {
	return &PgxSeasonRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure implementation matches interface
var _ portsrepo.SeasonRepositoryWithTx = (*PgxSeasonRepository)(nil)

// ListSeasonsByCommodityIDs returns the seasons of commodityIDs, earliest first.
func (r *PgxSeasonRepository) ListSeasonsByCommodityIDs(ctx context.Context, commodityIDs []string) ([]domain.Season, error) {
	if len(commodityIDs) == 0 {
		return []domain.Season{}, nil
	}
	query := `
		SELECT season_id, commodity_id, name, start_date, end_date
		FROM seasons
		WHERE commodity_id = ANY($1)
		ORDER BY start_date, season_id;
	`
	rows, err := r.Pool.Query(ctx, query, commodityIDs)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query seasons", err)
	}
	defer rows.Close()

	modelSeasons, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Season, error) {
		var s models.Season
		err := row.Scan(&s.SeasonID, &s.CommodityID, &s.Name, &s.StartDate, &s.EndDate)
		return s, err
	})
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to scan seasons", err)
	}
	return mapping.ToDomainSeasonSlice(modelSeasons), nil
}

// ListUnscopedTransactions returns up to limit transactions without a season, keyed after afterID.
func (r *PgxSeasonRepository) ListUnscopedTransactions(ctx context.Context, afterID string, limit int) ([]domain.Transaction, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM transactions t
		WHERE t.season_id IS NULL AND t.transaction_id > $1
		ORDER BY t.transaction_id
		LIMIT $2;
	`, transactionColumns)

	rows, err := r.Pool.Query(ctx, query, afterID, limit)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query unscoped transactions", err)
	}
	defer rows.Close()

	modelTransactions, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Transaction, error) {
		return scanTransaction(row)
	})
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to scan unscoped transactions", err)
	}
	return mapping.ToDomainTransactionSlice(modelTransactions), nil
}

// AssignSeasons sets season_id for every transaction in assignments in one statement.
// Transactions that already have a season are left untouched.
func (r *PgxSeasonRepository) AssignSeasons(ctx context.Context, tx pgx.Tx, assignments map[string]string) error {
	if len(assignments) == 0 {
		return nil
	}
	transactionIDs := make([]string, 0, len(assignments))
	seasonIDs := make([]string, 0, len(assignments))
	for transactionID, seasonID := range assignments {
		transactionIDs = append(transactionIDs, transactionID)
		seasonIDs = append(seasonIDs, seasonID)
	}

	query := `
		UPDATE transactions t
		SET season_id = a.season_id, last_updated_at = NOW()
		FROM unnest($1::text[], $2::text[]) AS a(transaction_id, season_id)
		WHERE t.transaction_id = a.transaction_id AND t.season_id IS NULL;
	`
	if _, err := tx.Exec(ctx, query, transactionIDs, seasonIDs); err != nil {
		return apperrors.NewAppError(500, "failed to assign seasons", err)
	}
	return nil
}
