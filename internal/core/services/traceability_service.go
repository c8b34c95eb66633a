package services

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/SscSPs/supply_chain_app/internal/core/domain"
	portsrepo "github.com/SscSPs/supply_chain_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/supply_chain_app/internal/core/ports/services"
)

// conversionLookupLimit caps concurrent per-commodity lookups in ClassifyConversion.
const conversionLookupLimit = 4

// traceabilityService implements the TraceabilitySvcFacade interface
type traceabilityService struct {
	BaseService
	transactionRepo portsrepo.TransactionReader
}

// NewTraceabilityService creates a new traceability service
func NewTraceabilityService(repo portsrepo.TransactionReader) portssvc.TraceabilitySvcFacade {
	return &traceabilityService{transactionRepo: repo}
}

var _ portssvc.TraceabilitySvcFacade = (*traceabilityService)(nil)

func (s *traceabilityService) ClassifyDownstream(ctx context.Context, sellerID, commodityID string) (domain.Traceability, error) {
	upstream, err := s.transactionRepo.FindTransactionsByBuyerIDs(ctx, []string{sellerID},
		domain.AcceptedOnly().WithCommodity(commodityID))
	if err != nil {
		s.LogError(ctx, err, "Failed to load seller upstream",
			slog.String("seller_id", sellerID),
			slog.String("commodity_id", commodityID))
		return "", fmt.Errorf("failed to load upstream of seller %s: %w", sellerID, err)
	}

	grades := make([]domain.Traceability, 0, len(upstream))
	for _, t := range upstream {
		if t.Traceability != nil {
			grades = append(grades, *t.Traceability)
		}
	}
	return domain.MinTraceabilityOrIncomplete(grades...), nil
}

func (s *traceabilityService) ClassifyConversion(ctx context.Context, sellerID string, inputCommodityIDs []string) (domain.Traceability, error) {
	seen := make(map[string]struct{}, len(inputCommodityIDs))
	var commodities []string
	for _, id := range inputCommodityIDs {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			commodities = append(commodities, id)
		}
	}
	if len(commodities) == 0 {
		return domain.TraceabilityIncomplete, nil
	}

	grades := make([]domain.Traceability, len(commodities))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(conversionLookupLimit)
	for i, commodityID := range commodities {
		g.Go(func() error {
			grade, err := s.ClassifyDownstream(gctx, sellerID, commodityID)
			if err != nil {
				return err
			}
			grades[i] = grade
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}
	return domain.MinTraceabilityOrIncomplete(grades...), nil
}

func (s *traceabilityService) ClassifyProducer(location *domain.LocationType, buyingFromFarmer bool) domain.Traceability {
	return domain.ClassifyProducer(location, buyingFromFarmer)
}

func (s *traceabilityService) ResolveTransactionTraceability(ctx context.Context, transactionID string) (domain.Traceability, error) {
	t, err := loadAnchor(ctx, s.transactionRepo, transactionID)
	if err != nil {
		return "", err
	}
	if t.Traceability != nil && t.Traceability.IsValid() {
		return *t.Traceability, nil
	}

	switch {
	case t.Type == domain.Producer:
		return s.ClassifyProducer(t.Location, t.BuyingFromFarmer), nil
	case t.IsConversionOutputLeg():
		return s.resolveConversionOutput(ctx, t)
	case t.SellerID != nil:
		return s.ClassifyDownstream(ctx, *t.SellerID, t.CommodityID)
	default:
		return domain.TraceabilityIncomplete, nil
	}
}

// resolveConversionOutput grades an output leg from its converter's purchases
// of every input commodity of the group.
func (s *traceabilityService) resolveConversionOutput(ctx context.Context, output *domain.Transaction) (domain.Traceability, error) {
	if output.GroupID == nil || output.BuyerID == nil {
		return domain.TraceabilityIncomplete, nil
	}

	inputs, err := s.transactionRepo.FindConversionInputLegs(ctx, []string{*output.GroupID}, []string{output.TransactionID})
	if err != nil {
		s.LogError(ctx, err, "Failed to load conversion input legs",
			slog.String("transaction_id", output.TransactionID),
			slog.String("group_id", *output.GroupID))
		return "", fmt.Errorf("failed to load input legs of conversion %s: %w", *output.GroupID, err)
	}

	commodityIDs := make([]string, 0, len(inputs))
	for _, in := range inputs {
		commodityIDs = append(commodityIDs, in.CommodityID)
	}
	return s.ClassifyConversion(ctx, *output.BuyerID, commodityIDs)
}
