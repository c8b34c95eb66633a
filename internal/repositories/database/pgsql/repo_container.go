package pgsql

import (
	portsrepo "github.com/SscSPs/supply_chain_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewRepositoryProvider wires the Postgres repositories. The counts cache is
// left for the caller to attach.
func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		TransactionRepo: newPgxTransactionRepository(dbPool),
		SeasonRepo:      newPgxSeasonRepository(dbPool),
	}
}
