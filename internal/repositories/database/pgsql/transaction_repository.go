package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/SscSPs/supply_chain_app/internal/apperrors"
	"github.com/SscSPs/supply_chain_app/internal/core/domain"
	portsrepo "github.com/SscSPs/supply_chain_app/internal/core/ports/repositories"
	"github.com/SscSPs/supply_chain_app/internal/models"
	"github.com/SscSPs/supply_chain_app/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// transactionColumns is the select list scanned by scanTransaction.
const transactionColumns = `
	t.transaction_id, t.type, t.status, t.seller_id, t.buyer_id, t.commodity_id, t.group_id,
	t.traceability, t.location, t.location_file, t.farm_latitude, t.farm_longitude,
	t.volume, t.is_automatic, t.buying_from_farmer, t.season_id, t.expires_at,
	t.created_at, t.created_by, t.last_updated_at, t.last_updated_by`

type PgxTransactionRepository struct {
	BaseRepository
}

// newPgxTransactionRepository creates a new repository for transaction chain reads.
func newPgxTransactionRepository(pool *pgxpool.Pool) portsrepo.TransactionRepositoryFacade {
	return &PgxTransactionRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure implementation matches interface
var _ portsrepo.TransactionRepositoryFacade = (*PgxTransactionRepository)(nil)

func scanTransaction(row pgx.Row) (models.Transaction, error) {
	var m models.Transaction
	err := row.Scan(
		&m.TransactionID,
		&m.Type,
		&m.Status,
		&m.SellerID,
		&m.BuyerID,
		&m.CommodityID,
		&m.GroupID,
		&m.Traceability,
		&m.Location,
		&m.LocationFile,
		&m.FarmLatitude,
		&m.FarmLongitude,
		&m.Volume,
		&m.IsAutomatic,
		&m.BuyingFromFarmer,
		&m.SeasonID,
		&m.ExpiresAt,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

// whereFilter appends the filter's predicates to conditions, numbering
// placeholders after args.
func whereFilter(conditions []string, args []any, filter domain.TransactionFilter) ([]string, []any) {
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		conditions = append(conditions, fmt.Sprintf("t.status = $%d", len(args)))
	}
	if filter.CommodityID != nil {
		args = append(args, *filter.CommodityID)
		conditions = append(conditions, fmt.Sprintf("t.commodity_id = $%d", len(args)))
	}
	if len(filter.ExcludeIDs) > 0 {
		args = append(args, filter.ExcludeIDs)
		conditions = append(conditions, fmt.Sprintf("NOT (t.transaction_id = ANY($%d))", len(args)))
	}
	return conditions, args
}

func (r *PgxTransactionRepository) queryTransactions(ctx context.Context, conditions []string, args []any, what string) ([]domain.Transaction, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM transactions t
		WHERE %s
		ORDER BY t.created_at, t.transaction_id;
	`, transactionColumns, strings.Join(conditions, " AND "))

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query "+what, err)
	}
	defer rows.Close()

	modelTransactions, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Transaction, error) {
		return scanTransaction(row)
	})
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to scan "+what, err)
	}
	return mapping.ToDomainTransactionSlice(modelTransactions), nil
}

// FindTransactionByID retrieves a single transaction by id.
func (r *PgxTransactionRepository) FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM transactions t
		WHERE t.transaction_id = $1;
	`, transactionColumns)

	m, err := scanTransaction(r.Pool.QueryRow(ctx, query, transactionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find transaction "+transactionID, err)
	}

	d := mapping.ToDomainTransaction(m)
	return &d, nil
}

// FindTransactionsByIDs retrieves the transactions in ids that match filter.
func (r *PgxTransactionRepository) FindTransactionsByIDs(ctx context.Context, ids []string, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	if len(ids) == 0 {
		return []domain.Transaction{}, nil
	}
	conditions, args := whereFilter([]string{"t.transaction_id = ANY($1)"}, []any{ids}, filter)
	return r.queryTransactions(ctx, conditions, args, "transactions by id")
}

// FindTransactionsByBuyerIDs retrieves the transactions bought by buyerIDs that match filter.
func (r *PgxTransactionRepository) FindTransactionsByBuyerIDs(ctx context.Context, buyerIDs []string, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	if len(buyerIDs) == 0 {
		return []domain.Transaction{}, nil
	}
	conditions, args := whereFilter([]string{"t.buyer_id = ANY($1)"}, []any{buyerIDs}, filter)
	return r.queryTransactions(ctx, conditions, args, "transactions by buyer")
}

// FindConversionInputLegs retrieves the input legs of the given conversion groups.
func (r *PgxTransactionRepository) FindConversionInputLegs(ctx context.Context, groupIDs []string, excludeIDs []string) ([]domain.Transaction, error) {
	if len(groupIDs) == 0 {
		return []domain.Transaction{}, nil
	}
	conditions := []string{
		"t.group_id = ANY($1)",
		fmt.Sprintf("t.type = '%s'", domain.Conversion),
		"t.buyer_id IS NULL",
	}
	conditions, args := whereFilter(conditions, []any{groupIDs}, domain.TransactionFilter{ExcludeIDs: excludeIDs})
	return r.queryTransactions(ctx, conditions, args, "conversion input legs")
}

// FindChainExportRows loads transactions with seller, buyer and commodity in one query.
func (r *PgxTransactionRepository) FindChainExportRows(ctx context.Context, ids []string) ([]domain.ChainExportRow, error) {
	if len(ids) == 0 {
		return []domain.ChainExportRow{}, nil
	}
	query := fmt.Sprintf(`
		SELECT %s,
			s.party_id, s.name, s.role, s.phone, s.phone_verified, s.email, s.email_verified,
			b.party_id, b.name, b.role, b.phone, b.phone_verified, b.email, b.email_verified,
			c.commodity_id, c.name
		FROM transactions t
		JOIN commodities c ON c.commodity_id = t.commodity_id
		LEFT JOIN parties s ON s.party_id = t.seller_id
		LEFT JOIN parties b ON b.party_id = t.buyer_id
		WHERE t.transaction_id = ANY($1)
		ORDER BY t.created_at, t.transaction_id;
	`, transactionColumns)

	rows, err := r.Pool.Query(ctx, query, ids)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query chain export rows", err)
	}
	defer rows.Close()

	exportRows, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.ChainExportRow, error) {
		var (
			t         models.Transaction
			seller    nullableParty
			buyer     nullableParty
			commodity models.Commodity
		)
		err := row.Scan(
			&t.TransactionID, &t.Type, &t.Status, &t.SellerID, &t.BuyerID, &t.CommodityID, &t.GroupID,
			&t.Traceability, &t.Location, &t.LocationFile, &t.FarmLatitude, &t.FarmLongitude,
			&t.Volume, &t.IsAutomatic, &t.BuyingFromFarmer, &t.SeasonID, &t.ExpiresAt,
			&t.CreatedAt, &t.CreatedBy, &t.LastUpdatedAt, &t.LastUpdatedBy,
			&seller.PartyID, &seller.Name, &seller.Role, &seller.Phone, &seller.PhoneVerified, &seller.Email, &seller.EmailVerified,
			&buyer.PartyID, &buyer.Name, &buyer.Role, &buyer.Phone, &buyer.PhoneVerified, &buyer.Email, &buyer.EmailVerified,
			&commodity.CommodityID, &commodity.Name,
		)
		if err != nil {
			return domain.ChainExportRow{}, err
		}
		return domain.ChainExportRow{
			Transaction: mapping.ToDomainTransaction(t),
			Seller:      seller.toDomain(),
			Buyer:       buyer.toDomain(),
			Commodity:   mapping.ToDomainCommodity(commodity),
		}, nil
	})
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to scan chain export rows", err)
	}
	return exportRows, nil
}

// nullableParty scans the columns of a LEFT JOINed party.
type nullableParty struct {
	PartyID       *string
	Name          *string
	Role          *string
	Phone         *string
	PhoneVerified *bool
	Email         *string
	EmailVerified *bool
}

func (p nullableParty) toDomain() *domain.Party {
	if p.PartyID == nil {
		return nil
	}
	m := models.Party{PartyID: *p.PartyID, Phone: p.Phone, Email: p.Email}
	if p.Name != nil {
		m.Name = *p.Name
	}
	if p.Role != nil {
		m.Role = *p.Role
	}
	if p.PhoneVerified != nil {
		m.PhoneVerified = *p.PhoneVerified
	}
	if p.EmailVerified != nil {
		m.EmailVerified = *p.EmailVerified
	}
	d := mapping.ToDomainParty(m)
	return &d
}
