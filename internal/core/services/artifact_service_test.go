package services_test

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/SscSPs/supply_chain_app/internal/apperrors"
	"github.com/SscSPs/supply_chain_app/internal/core/domain"
	portssvc "github.com/SscSPs/supply_chain_app/internal/core/ports/services"
	portsstorage "github.com/SscSPs/supply_chain_app/internal/core/ports/storage"
	"github.com/SscSPs/supply_chain_app/internal/core/services"
	"github.com/SscSPs/supply_chain_app/internal/geo"
	"github.com/SscSPs/supply_chain_app/internal/repositories/memory"
)

// --- Mock BlobStore ---
type MockBlobStore struct {
	mock.Mock
}

func (m *MockBlobStore) Exists(ctx context.Context, path string) (bool, error) {
	args := m.Called(ctx, path)
	return args.Bool(0), args.Error(1)
}

func (m *MockBlobStore) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func (m *MockBlobStore) Save(ctx context.Context, path string, data []byte) error {
	args := m.Called(ctx, path, data)
	return args.Error(0)
}

var _ portsstorage.BlobStore = (*MockBlobStore)(nil)

const pointCollection = `{"type":"FeatureCollection","features":[{"type":"Feature","geometry":{"type":"Point","coordinates":[-1.5,6.5]},"properties":{"plot":"a"}}]}`

// Column positions in the chain CSV.
const (
	csvColTransactionID = 0
	csvColFileAvailable = 8
	csvColSellerName    = 14
	csvColSellerPhone   = 15
	csvColSellerEmail   = 16
	csvColCommodity     = 20
)

func reader(body string) io.ReadCloser {
	return io.NopCloser(bytes.NewReader([]byte(body)))
}

func zipEntries(suite *ArtifactServiceTestSuite, archive []byte) map[string][]byte {
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	suite.Require().NoError(err)
	entries := make(map[string][]byte, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		suite.Require().NoError(err)
		data, err := io.ReadAll(rc)
		rc.Close()
		suite.Require().NoError(err)
		entries[f.Name] = data
	}
	return entries
}

// --- Test Suite ---
type ArtifactServiceTestSuite struct {
	suite.Suite
	repo  *memory.TransactionRepository
	blobs *MockBlobStore
}

// SetupTest builds three roots (q1 and q2 with QR, g1 with GPS) selling
// through farmers to a trader, and the trader's sale "out".
func (suite *ArtifactServiceTestSuite) SetupTest() {
	suite.repo = memory.NewTransactionRepository()
	q2 := producerTx("q2", "fb", cocoa, domain.TraceabilityFull, locationPtr(domain.LocationQR))
	q2.LocationFile = strPtr("custom/q2.geojson")
	suite.repo.PutTransactions(
		producerTx("q1", "fa", cocoa, domain.TraceabilityFull, locationPtr(domain.LocationQR)),
		q2,
		producerTx("g1", "fc", cocoa, domain.TraceabilityFull, locationPtr(domain.LocationGPS)),
		tradeTx("sa", "fa", "trader", cocoa, domain.StatusAccepted, gradePtr(domain.TraceabilityFull)),
		tradeTx("sb", "fb", "trader", cocoa, domain.StatusAccepted, gradePtr(domain.TraceabilityFull)),
		tradeTx("sc", "fc", "trader", cocoa, domain.StatusAccepted, gradePtr(domain.TraceabilityFull)),
		tradeTx("out", "trader", "user", cocoa, domain.StatusAccepted, nil),
	)
	suite.blobs = new(MockBlobStore)
}

func (suite *ArtifactServiceTestSuite) newService(options ...services.ChainArtifactServiceOption) portssvc.ChainArtifactSvc {
	chains := services.NewChainService(suite.repo)
	return services.NewChainArtifactService(chains, suite.repo, options...)
}

// --- Test Cases ---

func (suite *ArtifactServiceTestSuite) TestMergeChainGeoJSON_Success() {
	suite.blobs.On("Exists", mock.Anything, "locations/q1.geojson").Return(true, nil).Once()
	suite.blobs.On("Open", mock.Anything, "locations/q1.geojson").Return(reader(pointCollection), nil).Once()
	suite.blobs.On("Exists", mock.Anything, "custom/q2.geojson").Return(true, nil).Once()
	suite.blobs.On("Open", mock.Anything, "custom/q2.geojson").Return(reader(pointCollection), nil).Once()
	service := suite.newService(services.WithBlobStore(suite.blobs))

	result, err := service.MergeChainGeoJSON(context.Background(), "out")

	suite.Require().NoError(err)
	suite.ElementsMatch([]string{"q1", "q2"}, result.SucceededIDs)
	suite.Empty(result.FailedIDs)
	suite.Require().Len(result.Collection.Features, 2)
	var stamped []string
	for _, f := range result.Collection.Features {
		stamped = append(stamped, f.Properties.MustString(geo.TransactionIDProperty))
		suite.Equal("a", f.Properties.MustString("plot"))
	}
	suite.ElementsMatch([]string{"q1", "q2"}, stamped)
	suite.blobs.AssertExpectations(suite.T())
}

func (suite *ArtifactServiceTestSuite) TestMergeChainGeoJSON_MissingAndInvalidFilesFail() {
	suite.blobs.On("Exists", mock.Anything, "locations/q1.geojson").Return(false, nil).Once()
	suite.blobs.On("Exists", mock.Anything, "custom/q2.geojson").Return(true, nil).Once()
	suite.blobs.On("Open", mock.Anything, "custom/q2.geojson").Return(reader("not json"), nil).Once()
	service := suite.newService(services.WithBlobStore(suite.blobs))

	result, err := service.MergeChainGeoJSON(context.Background(), "out")

	suite.Require().NoError(err)
	suite.Empty(result.SucceededIDs)
	suite.ElementsMatch([]string{"q1", "q2"}, result.FailedIDs)
	suite.Empty(result.Collection.Features)
	suite.blobs.AssertExpectations(suite.T())
}

func (suite *ArtifactServiceTestSuite) TestMergeChainGeoJSON_StorageErrorAborts() {
	suite.blobs.On("Exists", mock.Anything, "locations/q1.geojson").Return(false, assert.AnError).Maybe()
	suite.blobs.On("Exists", mock.Anything, "custom/q2.geojson").Return(false, assert.AnError).Maybe()
	service := suite.newService(services.WithBlobStore(suite.blobs))

	result, err := service.MergeChainGeoJSON(context.Background(), "out")

	suite.Nil(result)
	suite.ErrorIs(err, assert.AnError)
	var downloadErr *apperrors.LocationFileDownloadError
	suite.Require().ErrorAs(err, &downloadErr)
	suite.Contains([]string{"q1", "q2"}, downloadErr.TransactionID)
}

func (suite *ArtifactServiceTestSuite) TestMergeChainGeoJSON_NoBlobStoreAborts() {
	service := suite.newService()

	_, err := service.MergeChainGeoJSON(context.Background(), "out")

	suite.ErrorIs(err, services.ErrBlobStoreNotConfigured)
}

func (suite *ArtifactServiceTestSuite) TestMergeChainGeoJSON_AnchorNotFound() {
	service := suite.newService(services.WithBlobStore(suite.blobs))

	_, err := service.MergeChainGeoJSON(context.Background(), "missing")

	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.blobs.AssertNotCalled(suite.T(), "Exists", mock.Anything, mock.Anything)
}

func (suite *ArtifactServiceTestSuite) TestBuildChainLocationBundle_CorruptFile() {
	repo := memory.NewTransactionRepository()
	repo.PutTransactions(
		producerTx("q1", "fa", cocoa, domain.TraceabilityFull, locationPtr(domain.LocationQR)),
		tradeTx("sa", "fa", "trader", cocoa, domain.StatusAccepted, nil),
	)
	suite.repo = repo
	suite.blobs.On("Exists", mock.Anything, "locations/q1.geojson").Return(true, nil).Once()
	suite.blobs.On("Open", mock.Anything, "locations/q1.geojson").Return(reader("{corrupt"), nil).Once()
	service := suite.newService(services.WithBlobStore(suite.blobs))

	bundle, err := service.BuildChainLocationBundle(context.Background(), "sa")

	suite.Require().NoError(err)
	entries := zipEntries(suite, bundle.Archive)
	suite.Len(entries, 1)
	suite.Contains(entries, services.MergedGeoJSONName)
	suite.Equal(2, bundle.TotalTransactions)
	suite.Empty(bundle.MergedIDs)
	suite.Equal([]string{"q1"}, bundle.CustomLocationFileIDs)
	suite.ElementsMatch([]string{"sa", "q1"}, bundle.NoLocationFileIDs)

	merged, err := geo.Parse(entries[services.MergedGeoJSONName])
	suite.Require().NoError(err)
	suite.Empty(merged.Features)
}

func (suite *ArtifactServiceTestSuite) TestBuildChainLocationBundle_StorageErrorsAreSoft() {
	suite.blobs.On("Exists", mock.Anything, "locations/q1.geojson").Return(true, nil).Once()
	suite.blobs.On("Open", mock.Anything, "locations/q1.geojson").Return(reader(pointCollection), nil).Once()
	suite.blobs.On("Exists", mock.Anything, "custom/q2.geojson").Return(false, assert.AnError).Once()
	service := suite.newService(services.WithBlobStore(suite.blobs))

	bundle, err := service.BuildChainLocationBundle(context.Background(), "out")

	suite.Require().NoError(err)
	suite.Equal(7, bundle.TotalTransactions)
	suite.Equal([]string{"q1"}, bundle.MergedIDs)
	suite.Equal([]string{"q1"}, bundle.CustomLocationFileIDs)
	suite.ElementsMatch([]string{"out", "sa", "sb", "sc", "q2", "g1"}, bundle.NoLocationFileIDs)
	for _, id := range bundle.MergedIDs {
		suite.Contains(bundle.CustomLocationFileIDs, id)
	}

	entries := zipEntries(suite, bundle.Archive)
	suite.Len(entries, 2)
	suite.Equal([]byte(pointCollection), entries["q1.geojson"])
	merged, err := geo.Parse(entries[services.MergedGeoJSONName])
	suite.Require().NoError(err)
	suite.Require().Len(merged.Features, 1)
	suite.Equal("q1", merged.Features[0].Properties.MustString(geo.TransactionIDProperty))
	suite.blobs.AssertExpectations(suite.T())
}

func (suite *ArtifactServiceTestSuite) TestBuildChainLocationBundle_NoBlobStore() {
	service := suite.newService()

	bundle, err := service.BuildChainLocationBundle(context.Background(), "out")

	suite.Require().NoError(err)
	suite.Empty(bundle.MergedIDs)
	suite.Empty(bundle.CustomLocationFileIDs)
	suite.Len(bundle.NoLocationFileIDs, 7)
	suite.Contains(zipEntries(suite, bundle.Archive), services.MergedGeoJSONName)
}

func (suite *ArtifactServiceTestSuite) TestBuildChainLocationBundle_ArchivesBundle() {
	suite.blobs.On("Exists", mock.Anything, "locations/q1.geojson").Return(false, nil).Once()
	suite.blobs.On("Exists", mock.Anything, "custom/q2.geojson").Return(false, nil).Once()
	var saved []byte
	suite.blobs.On("Save", mock.Anything, "bundles/out.zip", mock.Anything).
		Run(func(args mock.Arguments) { saved = args.Get(2).([]byte) }).
		Return(nil).Once()
	service := suite.newService(services.WithBlobStore(suite.blobs), services.WithBundleArchivePrefix("bundles"))

	bundle, err := service.BuildChainLocationBundle(context.Background(), "out")

	suite.Require().NoError(err)
	suite.Equal(bundle.Archive, saved)
	suite.blobs.AssertExpectations(suite.T())
}

func (suite *ArtifactServiceTestSuite) TestBuildChainLocationBundle_ArchiveFailureIsSoft() {
	suite.blobs.On("Exists", mock.Anything, mock.Anything).Return(false, nil)
	suite.blobs.On("Save", mock.Anything, "bundles/out.zip", mock.Anything).Return(assert.AnError).Once()
	service := suite.newService(services.WithBlobStore(suite.blobs), services.WithBundleArchivePrefix("bundles"))

	bundle, err := service.BuildChainLocationBundle(context.Background(), "out")

	suite.Require().NoError(err)
	suite.Contains(zipEntries(suite, bundle.Archive), services.MergedGeoJSONName)
	suite.blobs.AssertExpectations(suite.T())
}

func (suite *ArtifactServiceTestSuite) TestBuildChainLocationBundle_NoArchivePrefixSkipsSave() {
	suite.blobs.On("Exists", mock.Anything, mock.Anything).Return(false, nil)
	service := suite.newService(services.WithBlobStore(suite.blobs))

	_, err := service.BuildChainLocationBundle(context.Background(), "out")

	suite.Require().NoError(err)
	suite.blobs.AssertNotCalled(suite.T(), "Save", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ArtifactServiceTestSuite) setupParties() {
	phone, email := "+233200000000", "fa@example.com"
	suite.repo.PutParties(
		domain.Party{PartyID: "fa", Name: "Farmer A", Role: domain.RoleFarmer, Phone: &phone, PhoneVerified: true, Email: &email},
		domain.Party{PartyID: "trader", Name: "Trader", Role: domain.RoleTrader},
	)
	suite.repo.PutCommodities(domain.Commodity{CommodityID: cocoa, Name: "Cocoa"})
	suite.blobs.On("Exists", mock.Anything, "locations/q1.geojson").Return(true, nil).Maybe()
	suite.blobs.On("Exists", mock.Anything, "custom/q2.geojson").Return(false, assert.AnError).Maybe()
}

func (suite *ArtifactServiceTestSuite) exportRecords(variant domain.CSVVariant) ([][]string, int) {
	service := suite.newService(services.WithBlobStore(suite.blobs))
	export, err := service.ExportChainCSV(context.Background(), "out", variant)
	suite.Require().NoError(err)
	records, err := csv.NewReader(bytes.NewReader(export.Content)).ReadAll()
	suite.Require().NoError(err)
	return records, export.Rows
}

func recordByID(records [][]string, id string) []string {
	for _, r := range records {
		if r[csvColTransactionID] == id {
			return r
		}
	}
	return nil
}

func (suite *ArtifactServiceTestSuite) TestExportChainCSV_UserVariant() {
	suite.setupParties()

	records, rows := suite.exportRecords(domain.CSVVariantUser)

	suite.Equal(7, rows)
	suite.Require().Len(records, 8)
	suite.Len(records[0], 21)
	suite.Equal("transaction_id", records[0][csvColTransactionID])

	sale := recordByID(records, "sa")
	suite.Require().NotNil(sale)
	suite.Equal("Farmer A", sale[csvColSellerName])
	suite.Empty(sale[csvColSellerPhone])
	suite.Empty(sale[csvColSellerEmail])
	suite.Equal("Cocoa", sale[csvColCommodity])

	suite.Equal("true", recordByID(records, "q1")[csvColFileAvailable])
	suite.Equal("false", recordByID(records, "q2")[csvColFileAvailable])
	suite.Equal("false", recordByID(records, "g1")[csvColFileAvailable])
}

func (suite *ArtifactServiceTestSuite) TestExportChainCSV_AdminVariantShowsVerifiedContacts() {
	suite.setupParties()

	records, _ := suite.exportRecords(domain.CSVVariantAdmin)

	sale := recordByID(records, "sa")
	suite.Require().NotNil(sale)
	suite.Equal("+233200000000", sale[csvColSellerPhone])
	suite.Empty(sale[csvColSellerEmail], "unverified email stays hidden")
}

func (suite *ArtifactServiceTestSuite) TestExportChainCSV_UnknownVariant() {
	service := suite.newService()

	_, err := service.ExportChainCSV(context.Background(), "out", domain.CSVVariant("partner"))

	suite.ErrorIs(err, apperrors.ErrValidation)
}

// --- Run Test Suite ---
func TestArtifactServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ArtifactServiceTestSuite))
}
