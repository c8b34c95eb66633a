// Package memory provides an in-process transaction store implementing the
// same ports as the Postgres repositories. It backs CHAIN_STORE=memory local
// runs and the service tests.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/SscSPs/supply_chain_app/internal/apperrors"
	"github.com/SscSPs/supply_chain_app/internal/core/domain"
	portsrepo "github.com/SscSPs/supply_chain_app/internal/core/ports/repositories"
)

// TransactionRepository keeps transactions, parties and commodities in maps.
// Every port method counts as one round trip.
type TransactionRepository struct {
	mu           sync.RWMutex
	transactions map[string]domain.Transaction
	order        []string
	parties      map[string]domain.Party
	commodities  map[string]domain.Commodity

	roundTrips atomic.Int64
}

var _ portsrepo.TransactionRepositoryFacade = (*TransactionRepository)(nil)

// NewTransactionRepository creates an empty store.
func NewTransactionRepository() *TransactionRepository {
	return &TransactionRepository{
		transactions: make(map[string]domain.Transaction),
		parties:      make(map[string]domain.Party),
		commodities:  make(map[string]domain.Commodity),
	}
}

// Fixtures is the JSON document accepted by LoadFixtures.
type Fixtures struct {
	Transactions []domain.Transaction `json:"transactions"`
	Parties      []domain.Party       `json:"parties"`
	Commodities  []domain.Commodity   `json:"commodities"`
}

// LoadFixtures decodes a Fixtures document from r into the store.
func (r *TransactionRepository) LoadFixtures(src io.Reader) error {
	var f Fixtures
	if err := json.NewDecoder(src).Decode(&f); err != nil {
		return fmt.Errorf("failed to decode fixtures: %w", err)
	}
	r.PutTransactions(f.Transactions...)
	r.PutParties(f.Parties...)
	r.PutCommodities(f.Commodities...)
	return nil
}

// PutTransactions inserts or replaces transactions.
func (r *TransactionRepository) PutTransactions(transactions ...domain.Transaction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range transactions {
		if _, ok := r.transactions[t.TransactionID]; !ok {
			r.order = append(r.order, t.TransactionID)
		}
		r.transactions[t.TransactionID] = t
	}
}

// PutParties inserts or replaces parties.
func (r *TransactionRepository) PutParties(parties ...domain.Party) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range parties {
		r.parties[p.PartyID] = p
	}
}

// PutCommodities inserts or replaces commodities.
func (r *TransactionRepository) PutCommodities(commodities ...domain.Commodity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range commodities {
		r.commodities[c.CommodityID] = c
	}
}

// RoundTrips returns how many port calls were served.
func (r *TransactionRepository) RoundTrips() int {
	return int(r.roundTrips.Load())
}

// ResetRoundTrips zeroes the round-trip counter.
func (r *TransactionRepository) ResetRoundTrips() {
	r.roundTrips.Store(0)
}

func (r *TransactionRepository) FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	r.roundTrips.Add(1)
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.transactions[transactionID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &t, nil
}

func (r *TransactionRepository) FindTransactionsByIDs(ctx context.Context, ids []string, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	r.roundTrips.Add(1)
	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := toSet(ids)
	return r.selectWhere(func(t domain.Transaction) bool {
		_, ok := wanted[t.TransactionID]
		return ok && filter.Matches(t)
	}), nil
}

func (r *TransactionRepository) FindTransactionsByBuyerIDs(ctx context.Context, buyerIDs []string, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	r.roundTrips.Add(1)
	r.mu.RLock()
	defer r.mu.RUnlock()

	buyers := toSet(buyerIDs)
	return r.selectWhere(func(t domain.Transaction) bool {
		if t.BuyerID == nil {
			return false
		}
		_, ok := buyers[*t.BuyerID]
		return ok && filter.Matches(t)
	}), nil
}

func (r *TransactionRepository) FindConversionInputLegs(ctx context.Context, groupIDs []string, excludeIDs []string) ([]domain.Transaction, error) {
	r.roundTrips.Add(1)
	r.mu.RLock()
	defer r.mu.RUnlock()

	groups := toSet(groupIDs)
	excluded := toSet(excludeIDs)
	return r.selectWhere(func(t domain.Transaction) bool {
		if !t.IsConversionInputLeg() || t.GroupID == nil {
			return false
		}
		if _, skip := excluded[t.TransactionID]; skip {
			return false
		}
		_, ok := groups[*t.GroupID]
		return ok
	}), nil
}

func (r *TransactionRepository) FindChainExportRows(ctx context.Context, ids []string) ([]domain.ChainExportRow, error) {
	r.roundTrips.Add(1)
	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := toSet(ids)
	matched := r.selectWhere(func(t domain.Transaction) bool {
		_, ok := wanted[t.TransactionID]
		return ok
	})

	rows := make([]domain.ChainExportRow, 0, len(matched))
	for _, t := range matched {
		row := domain.ChainExportRow{
			Transaction: t,
			Seller:      r.partyLocked(t.SellerID),
			Buyer:       r.partyLocked(t.BuyerID),
			Commodity:   domain.Commodity{CommodityID: t.CommodityID},
		}
		if c, ok := r.commodities[t.CommodityID]; ok {
			row.Commodity = c
		}
		rows = append(rows, row)
	}
	// Same ordering as the SQL export query.
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i].Transaction, rows[j].Transaction
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.TransactionID < b.TransactionID
	})
	return rows, nil
}

// selectWhere returns matching transactions in insertion order. Callers hold mu.
func (r *TransactionRepository) selectWhere(match func(domain.Transaction) bool) []domain.Transaction {
	var out []domain.Transaction
	for _, id := range r.order {
		if t := r.transactions[id]; match(t) {
			out = append(out, t)
		}
	}
	return out
}

func (r *TransactionRepository) partyLocked(partyID *string) *domain.Party {
	if partyID == nil {
		return nil
	}
	p, ok := r.parties[*partyID]
	if !ok {
		return nil
	}
	return &p
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
