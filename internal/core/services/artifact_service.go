package services

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strconv"
	"time"

	"github.com/paulmach/orb/geojson"

	"github.com/SscSPs/supply_chain_app/internal/apperrors"
	"github.com/SscSPs/supply_chain_app/internal/core/domain"
	portsrepo "github.com/SscSPs/supply_chain_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/supply_chain_app/internal/core/ports/services"
	portsstorage "github.com/SscSPs/supply_chain_app/internal/core/ports/storage"
	"github.com/SscSPs/supply_chain_app/internal/geo"
	"github.com/SscSPs/supply_chain_app/internal/observability"
)

// BlobFailurePolicy decides what a storage failure does to an artifact build.
type BlobFailurePolicy int

const (
	// BlobFailureStrict aborts the build with apperrors.LocationFileDownloadError.
	BlobFailureStrict BlobFailurePolicy = iota
	// BlobFailureSoft logs the failure and records the transaction as having no file.
	BlobFailureSoft
)

// MergedGeoJSONName is the archive entry holding the union of all valid files.
const MergedGeoJSONName = "merged.geojson"

// DefaultLocationFilePrefix is the object prefix used when a transaction has no explicit file path.
const DefaultLocationFilePrefix = "locations"

// ErrBlobStoreNotConfigured is reported for every file load when no blob store is wired.
var ErrBlobStoreNotConfigured = errors.New("blob store not configured")

// artifact names used as metric labels.
const (
	artifactGeoJSON = "geojson"
	artifactBundle  = "bundle"
	artifactCSV     = "csv"
)

// fileOutcome classifies one location file load.
type fileOutcome int

const (
	fileLoaded fileOutcome = iota
	fileMissing
	fileInvalid
	fileUnavailable
)

func (o fileOutcome) String() string {
	switch o {
	case fileLoaded:
		return "ok"
	case fileMissing:
		return "missing"
	case fileInvalid:
		return "invalid"
	default:
		return "error"
	}
}

// locationFile is a loaded and validated location file.
type locationFile struct {
	raw        []byte
	collection *geojson.FeatureCollection
}

// chainArtifactService implements the ChainArtifactSvc interface
type chainArtifactService struct {
	BaseService
	chains     portssvc.ChainReaderSvc
	exportRepo portsrepo.ChainExportReader
	blobs      portsstorage.BlobStore
	prefix     string
	archiveDir string
}

// ChainArtifactServiceOption is a functional option for configuring the artifact service
type ChainArtifactServiceOption func(*chainArtifactService)

// WithBlobStore sets the store location files are read from.
func WithBlobStore(store portsstorage.BlobStore) ChainArtifactServiceOption {
	return func(s *chainArtifactService) {
		s.blobs = store
	}
}

// WithLocationFilePrefix sets the object prefix for transactions without an explicit file path.
func WithLocationFilePrefix(prefix string) ChainArtifactServiceOption {
	return func(s *chainArtifactService) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithBundleArchivePrefix stores every built location bundle in the blob
// store under prefix. An empty prefix disables archiving.
func WithBundleArchivePrefix(prefix string) ChainArtifactServiceOption {
	return func(s *chainArtifactService) {
		s.archiveDir = prefix
	}
}

// NewChainArtifactService creates a new artifact service with the provided options
func NewChainArtifactService(chains portssvc.ChainReaderSvc, exportRepo portsrepo.ChainExportReader, options ...ChainArtifactServiceOption) portssvc.ChainArtifactSvc {
	svc := &chainArtifactService{
		chains:     chains,
		exportRepo: exportRepo,
		prefix:     DefaultLocationFilePrefix,
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.ChainArtifactSvc = (*chainArtifactService)(nil)

// locationFilePath is the object path of a transaction's location file.
func (s *chainArtifactService) locationFilePath(t domain.Transaction) string {
	if t.LocationFile != nil && *t.LocationFile != "" {
		return *t.LocationFile
	}
	return path.Join(s.prefix, t.TransactionID+".geojson")
}

// loadLocationFile fetches, parses and validates one location file. Storage
// errors are returned under BlobFailureStrict and reported as fileUnavailable
// under BlobFailureSoft.
func (s *chainArtifactService) loadLocationFile(ctx context.Context, t domain.Transaction, artifact string, policy BlobFailurePolicy) (*locationFile, fileOutcome, error) {
	objectPath := s.locationFilePath(t)

	fail := func(err error) (*locationFile, fileOutcome, error) {
		observability.LocationFileFetches.WithLabelValues(artifact, fileUnavailable.String()).Inc()
		if policy == BlobFailureStrict {
			return nil, fileUnavailable, &apperrors.LocationFileDownloadError{TransactionID: t.TransactionID, Path: objectPath, Err: err}
		}
		s.LogWarn(ctx, err, "Location file unavailable",
			slog.String("transaction_id", t.TransactionID),
			slog.String("path", objectPath))
		return nil, fileUnavailable, nil
	}
	done := func(outcome fileOutcome, file *locationFile) (*locationFile, fileOutcome, error) {
		observability.LocationFileFetches.WithLabelValues(artifact, outcome.String()).Inc()
		return file, outcome, nil
	}

	if s.blobs == nil {
		return fail(ErrBlobStoreNotConfigured)
	}
	exists, err := s.blobs.Exists(ctx, objectPath)
	if err != nil {
		return fail(err)
	}
	if !exists {
		s.LogDebug(ctx, "Location file missing", slog.String("transaction_id", t.TransactionID), slog.String("path", objectPath))
		return done(fileMissing, nil)
	}

	rc, err := s.blobs.Open(ctx, objectPath)
	if err != nil {
		return fail(err)
	}
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	if err != nil {
		return fail(err)
	}

	fc, err := geo.Parse(raw)
	if err != nil {
		s.LogWarn(ctx, err, "Location file failed validation",
			slog.String("transaction_id", t.TransactionID),
			slog.String("path", objectPath))
		return done(fileInvalid, nil)
	}
	return done(fileLoaded, &locationFile{raw: raw, collection: fc})
}

func (s *chainArtifactService) MergeChainGeoJSON(ctx context.Context, transactionID string) (*domain.GeoJSONMergeResult, error) {
	defer observeBuild(artifactGeoJSON, time.Now())

	roots, err := s.chains.GetFirstChainTransactions(ctx, transactionID, false)
	if err != nil {
		return nil, err
	}

	result := &domain.GeoJSONMergeResult{SucceededIDs: []string{}, FailedIDs: []string{}}
	var collections []*geojson.FeatureCollection
	for _, t := range roots {
		if !t.HasLocation(domain.LocationQR) {
			continue
		}
		file, outcome, err := s.loadLocationFile(ctx, t, artifactGeoJSON, BlobFailureStrict)
		if err != nil {
			s.LogError(ctx, err, "Aborting GeoJSON merge", slog.String("transaction_id", transactionID))
			return nil, err
		}
		if outcome != fileLoaded {
			result.FailedIDs = append(result.FailedIDs, t.TransactionID)
			continue
		}
		geo.StampTransactionID(file.collection, t.TransactionID)
		collections = append(collections, file.collection)
		result.SucceededIDs = append(result.SucceededIDs, t.TransactionID)
	}
	result.Collection = geo.Merge(collections...)

	s.LogInfo(ctx, "Chain GeoJSON merged",
		slog.String("transaction_id", transactionID),
		slog.Int("succeeded", len(result.SucceededIDs)),
		slog.Int("failed", len(result.FailedIDs)),
		slog.Int("features", len(result.Collection.Features)))
	return result, nil
}

func (s *chainArtifactService) BuildChainLocationBundle(ctx context.Context, transactionID string) (*domain.LocationBundle, error) {
	defer observeBuild(artifactBundle, time.Now())

	chain, err := s.chains.GetChainTransactions(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	bundle := &domain.LocationBundle{
		TotalTransactions:     len(chain),
		MergedIDs:             []string{},
		CustomLocationFileIDs: []string{},
		NoLocationFileIDs:     []string{},
	}
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	var collections []*geojson.FeatureCollection

	for _, t := range chain {
		if !t.HasLocation(domain.LocationQR) {
			bundle.NoLocationFileIDs = append(bundle.NoLocationFileIDs, t.TransactionID)
			continue
		}
		file, outcome, _ := s.loadLocationFile(ctx, t, artifactBundle, BlobFailureSoft)
		switch outcome {
		case fileLoaded:
			if err := writeZipEntry(zw, t.TransactionID+".geojson", file.raw); err != nil {
				return nil, fmt.Errorf("failed to write location file of %s: %w", t.TransactionID, err)
			}
			geo.StampTransactionID(file.collection, t.TransactionID)
			collections = append(collections, file.collection)
			bundle.CustomLocationFileIDs = append(bundle.CustomLocationFileIDs, t.TransactionID)
			bundle.MergedIDs = append(bundle.MergedIDs, t.TransactionID)
		case fileInvalid:
			bundle.CustomLocationFileIDs = append(bundle.CustomLocationFileIDs, t.TransactionID)
			bundle.NoLocationFileIDs = append(bundle.NoLocationFileIDs, t.TransactionID)
		default:
			bundle.NoLocationFileIDs = append(bundle.NoLocationFileIDs, t.TransactionID)
		}
	}

	merged, err := geo.Marshal(geo.Merge(collections...))
	if err != nil {
		return nil, fmt.Errorf("failed to encode merged location file: %w", err)
	}
	if err := writeZipEntry(zw, MergedGeoJSONName, merged); err != nil {
		return nil, fmt.Errorf("failed to write merged location file: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize location bundle: %w", err)
	}
	bundle.Archive = buf.Bytes()
	s.archiveBundle(ctx, transactionID, bundle.Archive)

	s.LogInfo(ctx, "Chain location bundle built",
		slog.String("transaction_id", transactionID),
		slog.Int("total", bundle.TotalTransactions),
		slog.Int("merged", len(bundle.MergedIDs)),
		slog.Int("custom", len(bundle.CustomLocationFileIDs)),
		slog.Int("no_file", len(bundle.NoLocationFileIDs)),
		slog.Int("bytes", len(bundle.Archive)))
	return bundle, nil
}

// archiveBundle saves archive under the bundle archive prefix. Failures are
// logged and never fail the build.
func (s *chainArtifactService) archiveBundle(ctx context.Context, transactionID string, archive []byte) {
	if s.archiveDir == "" || s.blobs == nil {
		return
	}
	objectPath := bundleArchivePath(s.archiveDir, transactionID)
	if err := s.blobs.Save(ctx, objectPath, archive); err != nil {
		s.LogWarn(ctx, err, "Failed to archive location bundle",
			slog.String("transaction_id", transactionID),
			slog.String("path", objectPath))
		return
	}
	s.LogDebug(ctx, "Location bundle archived",
		slog.String("transaction_id", transactionID),
		slog.String("path", objectPath))
}

func bundleArchivePath(prefix, transactionID string) string {
	return path.Join(prefix, transactionID+".zip")
}

func writeZipEntry(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// chainCSVHeader lists the export columns in order.
var chainCSVHeader = []string{
	"transaction_id",
	"created_at",
	"updated_at",
	"type",
	"status",
	"traceability",
	"location",
	"location_file",
	"location_file_available",
	"farm_latitude",
	"farm_longitude",
	"volume",
	"is_automatic",
	"created_by_role",
	"seller_name",
	"seller_phone",
	"seller_email",
	"buyer_name",
	"buyer_phone",
	"buyer_email",
	"commodity",
}

func (s *chainArtifactService) ExportChainCSV(ctx context.Context, transactionID string, variant domain.CSVVariant) (*domain.ChainCSV, error) {
	defer observeBuild(artifactCSV, time.Now())

	if variant != domain.CSVVariantUser && variant != domain.CSVVariantAdmin {
		return nil, fmt.Errorf("%w: unknown csv variant %q", apperrors.ErrValidation, variant)
	}

	chain, err := s.chains.GetChainTransactions(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(chain))
	for _, t := range chain {
		ids = append(ids, t.TransactionID)
	}

	rows, err := s.exportRepo.FindChainExportRows(ctx, ids)
	if err != nil {
		s.LogError(ctx, err, "Failed to load chain export rows", slog.String("transaction_id", transactionID))
		return nil, fmt.Errorf("failed to load chain export rows: %w", err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(chainCSVHeader); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, row := range rows {
		available := s.locationFileAvailable(ctx, row.Transaction)
		if err := w.Write(chainCSVRecord(row, available, variant)); err != nil {
			return nil, fmt.Errorf("failed to write csv row for %s: %w", row.Transaction.TransactionID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}

	s.LogInfo(ctx, "Chain CSV exported",
		slog.String("transaction_id", transactionID),
		slog.String("variant", string(variant)),
		slog.Int("rows", len(rows)))
	return &domain.ChainCSV{Content: buf.Bytes(), Rows: len(rows)}, nil
}

// locationFileAvailable checks the blob store under the soft policy.
func (s *chainArtifactService) locationFileAvailable(ctx context.Context, t domain.Transaction) bool {
	if t.LocationFile == nil && !t.HasLocation(domain.LocationQR) {
		return false
	}
	if s.blobs == nil {
		return false
	}
	objectPath := s.locationFilePath(t)
	exists, err := s.blobs.Exists(ctx, objectPath)
	if err != nil {
		observability.LocationFileFetches.WithLabelValues(artifactCSV, fileUnavailable.String()).Inc()
		s.LogWarn(ctx, err, "Location file availability check failed",
			slog.String("transaction_id", t.TransactionID),
			slog.String("path", objectPath))
		return false
	}
	return exists
}

func chainCSVRecord(row domain.ChainExportRow, locationFileAvailable bool, variant domain.CSVVariant) []string {
	t := row.Transaction
	record := []string{
		t.TransactionID,
		t.CreatedAt.UTC().Format(time.RFC3339),
		t.LastUpdatedAt.UTC().Format(time.RFC3339),
		string(t.Type),
		string(t.Status),
		optionalString(t.Traceability),
		optionalString(t.Location),
		optionalString(t.LocationFile),
		strconv.FormatBool(locationFileAvailable),
		optionalFloat(t.FarmLatitude),
		optionalFloat(t.FarmLongitude),
		t.Volume.String(),
		strconv.FormatBool(t.IsAutomatic),
		string(t.CreatedByRole()),
	}
	record = append(record, partyColumns(row.Seller, variant)...)
	record = append(record, partyColumns(row.Buyer, variant)...)
	return append(record, row.Commodity.Name)
}

// partyColumns returns name, phone and email. Contact details are only
// exported to admins and only when verified.
func partyColumns(p *domain.Party, variant domain.CSVVariant) []string {
	if p == nil {
		return []string{"", "", ""}
	}
	if variant != domain.CSVVariantAdmin {
		return []string{p.Name, "", ""}
	}
	return []string{p.Name, p.VerifiedPhone(), p.VerifiedEmail()}
}

func optionalString[T ~string](v *T) string {
	if v == nil {
		return ""
	}
	return string(*v)
}

func optionalFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func observeBuild(artifact string, started time.Time) {
	observability.ArtifactBuildDuration.WithLabelValues(artifact).Observe(time.Since(started).Seconds())
}
