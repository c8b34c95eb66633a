package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/SscSPs/supply_chain_app/internal/apperrors"
	"github.com/SscSPs/supply_chain_app/internal/core/domain"
	portsrepo "github.com/SscSPs/supply_chain_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/supply_chain_app/internal/core/ports/services"
	"github.com/SscSPs/supply_chain_app/internal/core/traversal"
	"github.com/SscSPs/supply_chain_app/internal/observability"
)

// Walk kinds used as metric labels.
const (
	walkKindChain      = "chain"
	walkKindConversion = "conversion"
	walkKindRoots      = "roots"
	walkKindCounts     = "counts"
	walkKindPlots      = "plots"
)

// chainService implements the ChainSvcFacade interface
type chainService struct {
	BaseService
	transactionRepo portsrepo.TransactionReader
	countsCache     portsrepo.ChainCountsCache
	maxDepth        int
	walker          *traversal.Walker
	countsGroup     singleflight.Group
}

// ChainServiceOption is a functional option for configuring the chain service
type ChainServiceOption func(*chainService)

// WithChainMaxDepth bounds every walk to maxDepth levels.
func WithChainMaxDepth(maxDepth int) ChainServiceOption {
	return func(s *chainService) {
		s.maxDepth = maxDepth
	}
}

// WithCountsCache serves GetTraceabilityCounts through cache.
func WithCountsCache(cache portsrepo.ChainCountsCache) ChainServiceOption {
	return func(s *chainService) {
		s.countsCache = cache
	}
}

// NewChainService creates a new chain service with the provided options
func NewChainService(repo portsrepo.TransactionReader, options ...ChainServiceOption) portssvc.ChainSvcFacade {
	svc := &chainService{
		transactionRepo: repo,
		maxDepth:        traversal.DefaultMaxDepth,
	}
	for _, option := range options {
		option(svc)
	}
	svc.walker = traversal.NewWalker(repo, svc.maxDepth)
	return svc
}

var _ portssvc.ChainSvcFacade = (*chainService)(nil)

// loadAnchor fetches the transaction a walk starts from.
func loadAnchor(ctx context.Context, repo portsrepo.TransactionReader, transactionID string) (*domain.Transaction, error) {
	anchor, err := repo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewTransactionNotFoundError(transactionID)
		}
		return nil, fmt.Errorf("failed to load transaction %s: %w", transactionID, err)
	}
	return anchor, nil
}

// walk runs the walker and records metrics and logs for it.
func (s *chainService) walk(ctx context.Context, kind string, anchorIDs []string, opts traversal.Options, visitor traversal.Visitor) error {
	started := time.Now()
	stats, err := s.walker.Walk(ctx, anchorIDs, opts, visitor)
	observability.ObserveWalk(kind, started, stats.Levels, stats.RoundTrips, err)
	if err != nil {
		s.LogError(ctx, err, "Chain walk failed",
			slog.String("kind", kind),
			slog.Any("anchor_ids", anchorIDs),
			slog.Int("levels", stats.Levels))
		return err
	}
	s.LogDebug(ctx, "Chain walk finished",
		slog.String("kind", kind),
		slog.Int("levels", stats.Levels),
		slog.Int("round_trips", stats.RoundTrips),
		slog.Int("visited", stats.Visited))
	return nil
}

func (s *chainService) GetChainTransactions(ctx context.Context, transactionID string) ([]domain.Transaction, error) {
	anchor, err := loadAnchor(ctx, s.transactionRepo, transactionID)
	if err != nil {
		return nil, err
	}

	acc := traversal.NewSetAccumulator()
	opts := traversal.Options{CommodityID: &anchor.CommodityID}
	if err := s.walk(ctx, walkKindChain, []string{anchor.TransactionID}, opts, acc); err != nil {
		return nil, err
	}
	return acc.Transactions(), nil
}

func (s *chainService) GetConversionChainTransactions(ctx context.Context, transactionID string) ([]domain.Transaction, error) {
	anchor, err := loadAnchor(ctx, s.transactionRepo, transactionID)
	if err != nil {
		return nil, err
	}

	acc := traversal.NewSetAccumulator()
	opts := traversal.Options{FollowConversions: true}
	if err := s.walk(ctx, walkKindConversion, []string{anchor.TransactionID}, opts, acc); err != nil {
		return nil, err
	}
	return acc.Transactions(), nil
}

func (s *chainService) GetFirstChainTransactions(ctx context.Context, transactionID string, onlyMissingLocation bool) ([]domain.Transaction, error) {
	anchor, err := loadAnchor(ctx, s.transactionRepo, transactionID)
	if err != nil {
		return nil, err
	}

	acc := traversal.NewRootAccumulator(onlyMissingLocation)
	opts := traversal.Options{CommodityID: &anchor.CommodityID}
	if err := s.walk(ctx, walkKindRoots, []string{anchor.TransactionID}, opts, acc); err != nil {
		return nil, err
	}
	return acc.Transactions(), nil
}

func (s *chainService) GetGeodataRequestTargets(ctx context.Context, transactionID string) (map[string][]string, error) {
	roots, err := s.GetFirstChainTransactions(ctx, transactionID, true)
	if err != nil {
		return nil, err
	}

	targets := make(map[string][]string)
	for _, t := range roots {
		if t.BuyerID == nil {
			s.LogDebug(ctx, "Skipping root without buyer for geodata request",
				slog.String("transaction_id", t.TransactionID))
			continue
		}
		targets[*t.BuyerID] = append(targets[*t.BuyerID], t.TransactionID)
	}
	return targets, nil
}

func (s *chainService) GetTraceabilityCounts(ctx context.Context, transactionID string) (domain.TraceabilityCounts, error) {
	if s.countsCache != nil {
		counts, found, err := s.countsCache.GetCounts(ctx, transactionID)
		switch {
		case err != nil:
			observability.CountsCacheRequests.WithLabelValues("error").Inc()
			s.LogWarn(ctx, err, "Traceability counts cache read failed", slog.String("transaction_id", transactionID))
		case found:
			observability.CountsCacheRequests.WithLabelValues("hit").Inc()
			return counts, nil
		default:
			observability.CountsCacheRequests.WithLabelValues("miss").Inc()
		}
	}

	// The shared flight outlives any single caller's cancellation.
	flightCtx := context.WithoutCancel(ctx)
	ch := s.countsGroup.DoChan(transactionID, func() (interface{}, error) {
		return s.computeTraceabilityCounts(flightCtx, transactionID)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		// Callers sharing a flight must not share the map.
		counts := domain.NewTraceabilityCounts()
		counts.Merge(res.Val.(domain.TraceabilityCounts))
		return counts, nil
	}
}

func (s *chainService) computeTraceabilityCounts(ctx context.Context, transactionID string) (domain.TraceabilityCounts, error) {
	anchor, err := loadAnchor(ctx, s.transactionRepo, transactionID)
	if err != nil {
		return nil, err
	}

	acc := traversal.NewCountsAccumulator()
	opts := traversal.Options{CommodityID: &anchor.CommodityID}
	if err := s.walk(ctx, walkKindCounts, []string{anchor.TransactionID}, opts, acc); err != nil {
		return nil, err
	}

	counts := acc.Counts()
	if s.countsCache != nil {
		if err := s.countsCache.SetCounts(ctx, transactionID, counts); err != nil {
			s.LogWarn(ctx, err, "Traceability counts cache write failed", slog.String("transaction_id", transactionID))
		}
	}
	return counts, nil
}

type farmPlot struct {
	latitude  float64
	longitude float64
}

func (s *chainService) CountUserPlots(ctx context.Context, partyID string) (int, error) {
	purchases, err := s.transactionRepo.FindTransactionsByBuyerIDs(ctx, []string{partyID}, domain.AcceptedOnly())
	if err != nil {
		s.LogError(ctx, err, "Failed to load party purchases", slog.String("party_id", partyID))
		return 0, fmt.Errorf("failed to load purchases of party %s: %w", partyID, err)
	}

	// One multi-anchor walk per commodity keeps the walk commodity-scoped.
	var commodityOrder []string
	anchorsByCommodity := make(map[string][]string)
	for _, t := range purchases {
		if _, ok := anchorsByCommodity[t.CommodityID]; !ok {
			commodityOrder = append(commodityOrder, t.CommodityID)
		}
		anchorsByCommodity[t.CommodityID] = append(anchorsByCommodity[t.CommodityID], t.TransactionID)
	}

	plots := make(map[farmPlot]struct{})
	for _, commodityID := range commodityOrder {
		acc := traversal.NewRootAccumulator(false)
		opts := traversal.Options{CommodityID: &commodityID}
		if err := s.walk(ctx, walkKindPlots, anchorsByCommodity[commodityID], opts, acc); err != nil {
			return 0, err
		}
		for _, root := range acc.Transactions() {
			if root.HasFarmCoordinates() {
				plots[farmPlot{latitude: *root.FarmLatitude, longitude: *root.FarmLongitude}] = struct{}{}
			}
		}
	}

	s.LogDebug(ctx, "Counted party plots",
		slog.String("party_id", partyID),
		slog.Int("commodities", len(commodityOrder)),
		slog.Int("plots", len(plots)))
	return len(plots), nil
}
