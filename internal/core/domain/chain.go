package domain

import "github.com/paulmach/orb/geojson"

// ChainExportRow is a chain transaction with its parties loaded for export.
type ChainExportRow struct {
	Transaction Transaction
	Seller      *Party
	Buyer       *Party
	Commodity   Commodity
}

// GeoJSONMergeResult is the union of the first-chain location files.
type GeoJSONMergeResult struct {
	Collection   *geojson.FeatureCollection
	SucceededIDs []string
	FailedIDs    []string
}

// LocationBundle is a ZIP archive of a chain's location files.
// MergedIDs is always a subset of CustomLocationFileIDs.
type LocationBundle struct {
	Archive               []byte
	TotalTransactions     int
	MergedIDs             []string
	CustomLocationFileIDs []string
	NoLocationFileIDs     []string
}

// CSVVariant selects which contact fields appear in a chain export.
type CSVVariant string

const (
	CSVVariantUser  CSVVariant = "user"
	CSVVariantAdmin CSVVariant = "admin"
)

// ChainCSV is a rendered chain export.
type ChainCSV struct {
	Content []byte
	Rows    int
}

// SeasonBackfillResult summarizes one backfill run.
type SeasonBackfillResult struct {
	RunID     string `json:"runID"`
	Scanned   int    `json:"scanned"`
	Assigned  int    `json:"assigned"`
	Unmatched int    `json:"unmatched"`
	Batches   int    `json:"batches"`
}
