package traversal

import "github.com/SscSPs/supply_chain_app/internal/core/domain"

// SetAccumulator collects every visited transaction once, in visit order.
type SetAccumulator struct {
	transactions []domain.Transaction
	seen         map[string]struct{}
}

func NewSetAccumulator() *SetAccumulator {
	return &SetAccumulator{seen: make(map[string]struct{})}
}

func (a *SetAccumulator) VisitLevel(_ int, transactions []domain.Transaction) error {
	for _, t := range transactions {
		if _, ok := a.seen[t.TransactionID]; ok {
			continue
		}
		a.seen[t.TransactionID] = struct{}{}
		a.transactions = append(a.transactions, t)
	}
	return nil
}

// Transactions returns the collected transactions.
func (a *SetAccumulator) Transactions() []domain.Transaction {
	return a.transactions
}

// IDs returns the collected transaction ids.
func (a *SetAccumulator) IDs() []string {
	ids := make([]string, 0, len(a.transactions))
	for _, t := range a.transactions {
		ids = append(ids, t.TransactionID)
	}
	return ids
}

// CountsAccumulator group-counts visited transactions by their stored grade.
// Transactions without a grade are ignored.
type CountsAccumulator struct {
	counts domain.TraceabilityCounts
	seen   map[string]struct{}
}

func NewCountsAccumulator() *CountsAccumulator {
	return &CountsAccumulator{
		counts: domain.NewTraceabilityCounts(),
		seen:   make(map[string]struct{}),
	}
}

func (a *CountsAccumulator) VisitLevel(_ int, transactions []domain.Transaction) error {
	for _, t := range transactions {
		if _, ok := a.seen[t.TransactionID]; ok {
			continue
		}
		a.seen[t.TransactionID] = struct{}{}
		if t.Traceability != nil {
			a.counts.Add(*t.Traceability, 1)
		}
	}
	return nil
}

// Counts returns the running totals.
func (a *CountsAccumulator) Counts() domain.TraceabilityCounts {
	return a.counts
}

// RootAccumulator keeps the ACCEPTED chain roots reached by the walk,
// optionally only those without a location.
type RootAccumulator struct {
	SetAccumulator
	onlyMissingLocation bool
}

func NewRootAccumulator(onlyMissingLocation bool) *RootAccumulator {
	return &RootAccumulator{
		SetAccumulator:      SetAccumulator{seen: make(map[string]struct{})},
		onlyMissingLocation: onlyMissingLocation,
	}
}

func (a *RootAccumulator) VisitLevel(depth int, transactions []domain.Transaction) error {
	roots := make([]domain.Transaction, 0, len(transactions))
	for _, t := range transactions {
		if !t.IsChainRoot() || t.Status != domain.StatusAccepted {
			continue
		}
		if a.onlyMissingLocation && t.Location != nil {
			continue
		}
		roots = append(roots, t)
	}
	return a.SetAccumulator.VisitLevel(depth, roots)
}

// MultiVisitor fans one walk out to several accumulators.
type MultiVisitor []Visitor

func (m MultiVisitor) VisitLevel(depth int, transactions []domain.Transaction) error {
	for _, v := range m {
		if err := v.VisitLevel(depth, transactions); err != nil {
			return err
		}
	}
	return nil
}
