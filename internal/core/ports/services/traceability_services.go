package services

import (
	"context"

	"github.com/SscSPs/supply_chain_app/internal/core/domain"
)

// TraceabilityClassifierSvc computes grades from a seller's upstream purchases.
type TraceabilityClassifierSvc interface {
	// ClassifyDownstream returns the worst grade among the seller's accepted purchases of commodityID.
	ClassifyDownstream(ctx context.Context, sellerID, commodityID string) (domain.Traceability, error)

	// ClassifyConversion returns the worst of ClassifyDownstream over every input commodity.
	ClassifyConversion(ctx context.Context, sellerID string, inputCommodityIDs []string) (domain.Traceability, error)

	// ClassifyProducer grades a chain root from its declared location source.
	ClassifyProducer(location *domain.LocationType, buyingFromFarmer bool) domain.Traceability
}

// TraceabilityResolverSvc reads or computes the grade of a stored transaction.
type TraceabilityResolverSvc interface {
	// ResolveTransactionTraceability returns the stored grade, computing it when absent.
	ResolveTransactionTraceability(ctx context.Context, transactionID string) (domain.Traceability, error)
}

// TraceabilitySvcFacade combines all traceability service interfaces.
type TraceabilitySvcFacade interface {
	TraceabilityClassifierSvc
	TraceabilityResolverSvc
}
