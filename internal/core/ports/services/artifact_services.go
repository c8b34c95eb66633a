package services

import (
	"context"

	"github.com/SscSPs/supply_chain_app/internal/core/domain"
)

// ChainArtifactSvc assembles downloadable artifacts from chain walks.
type ChainArtifactSvc interface {
	// MergeChainGeoJSON unions the location files of the chain roots. Storage
	// failures abort with apperrors.LocationFileDownloadError.
	MergeChainGeoJSON(ctx context.Context, transactionID string) (*domain.GeoJSONMergeResult, error)

	// BuildChainLocationBundle zips the location files of the whole chain. Storage
	// failures are recorded per transaction.
	BuildChainLocationBundle(ctx context.Context, transactionID string) (*domain.LocationBundle, error)

	// ExportChainCSV flattens the whole chain into CSV rows.
	ExportChainCSV(ctx context.Context, transactionID string, variant domain.CSVVariant) (*domain.ChainCSV, error)
}
