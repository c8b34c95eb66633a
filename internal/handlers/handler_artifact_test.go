package handlers_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"

	"github.com/SscSPs/supply_chain_app/internal/apperrors"
	"github.com/SscSPs/supply_chain_app/internal/core/domain"
	"github.com/SscSPs/supply_chain_app/internal/core/services"
	"github.com/SscSPs/supply_chain_app/internal/handlers"
	"github.com/SscSPs/supply_chain_app/internal/middleware"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/mock"
)

func (suite *ChainHandlerTestSuite) TestGetChainGeoJSON_Success() {
	fc := geojson.NewFeatureCollection()
	feature := geojson.NewFeature(orb.Point{-1.5, 6.7})
	feature.Properties["transaction_id"] = "tx-root"
	fc.Append(feature)
	result := &domain.GeoJSONMergeResult{
		Collection:   fc,
		SucceededIDs: []string{"tx-root"},
		FailedIDs:    []string{"tx-broken", "tx-missing"},
	}
	suite.mockArtifactService.On("MergeChainGeoJSON", mock.Anything, anchorTransaction).Return(result, nil).Once()

	w := suite.serve(http.MethodGet, chainURL(anchorTransaction, "/chain/geojson"), "")

	suite.Equal(http.StatusOK, w.Code)
	suite.Equal("application/json", w.Header().Get("Content-Type"))
	suite.Equal("1", w.Header().Get(handlers.HeaderGeojsonMerged))
	suite.Equal("2", w.Header().Get(handlers.HeaderGeojsonFailed))

	decoded, err := geojson.UnmarshalFeatureCollection(w.Body.Bytes())
	suite.Require().NoError(err)
	suite.Require().Len(decoded.Features, 1)
	suite.Equal("tx-root", decoded.Features[0].Properties.MustString("transaction_id"))
}

func (suite *ChainHandlerTestSuite) TestGetChainGeoJSON_DownloadFailure() {
	downloadErr := &apperrors.LocationFileDownloadError{
		TransactionID: "tx-root",
		Path:          "locations/tx-root.geojson",
		Err:           errors.New("bucket unreachable"),
	}
	suite.mockArtifactService.On("MergeChainGeoJSON", mock.Anything, anchorTransaction).Return(nil, downloadErr).Once()

	w := suite.serve(http.MethodGet, chainURL(anchorTransaction, "/chain/geojson"), "")

	suite.Equal(http.StatusBadGateway, w.Code)
	suite.Equal("tx-root", suite.decodeError(w)["transactionID"])
}

func (suite *ChainHandlerTestSuite) TestGetChainGeoJSON_DownloadFailureWrappingNotFound() {
	downloadErr := &apperrors.LocationFileDownloadError{
		TransactionID: "tx-root",
		Path:          "locations/tx-root.geojson",
		Err:           apperrors.ErrNotFound,
	}
	suite.mockArtifactService.On("MergeChainGeoJSON", mock.Anything, anchorTransaction).Return(nil, downloadErr).Once()

	w := suite.serve(http.MethodGet, chainURL(anchorTransaction, "/chain/geojson"), "")

	suite.Equal(http.StatusBadGateway, w.Code)
}

func (suite *ChainHandlerTestSuite) TestGetChainLocationBundle_Headers() {
	bundle := &domain.LocationBundle{
		Archive:               []byte("PK\x05\x06"),
		TotalTransactions:     5,
		MergedIDs:             []string{"tx-root"},
		CustomLocationFileIDs: []string{"tx-root", "tx-corrupt"},
		NoLocationFileIDs:     []string{"tx-corrupt", anchorTransaction, "tx-mid"},
	}
	suite.mockArtifactService.On("BuildChainLocationBundle", mock.Anything, anchorTransaction).Return(bundle, nil).Once()

	w := suite.serve(http.MethodGet, chainURL(anchorTransaction, "/chain/locations.zip"), "")

	suite.Equal(http.StatusOK, w.Code)
	suite.Equal("application/zip", w.Header().Get("Content-Type"))
	suite.Equal("5", w.Header().Get(handlers.HeaderTotalTransactions))
	suite.Equal("1", w.Header().Get(handlers.HeaderGeojsonMerged))
	suite.Equal("2", w.Header().Get(handlers.HeaderCustomLocationFile))
	suite.Equal("3", w.Header().Get(handlers.HeaderNoLocationFile))
	suite.Contains(w.Header().Get("Content-Disposition"), `filename="chain-tx-anchor-locations.zip"`)
	suite.Equal(bundle.Archive, w.Body.Bytes())
}

func (suite *ChainHandlerTestSuite) TestGetChainLocationBundle_NoBlobStore() {
	suite.mockArtifactService.On("BuildChainLocationBundle", mock.Anything, anchorTransaction).
		Return(nil, services.ErrBlobStoreNotConfigured).Once()

	w := suite.serve(http.MethodGet, chainURL(anchorTransaction, "/chain/locations.zip"), "")

	suite.Equal(http.StatusInternalServerError, w.Code)
	suite.Equal("Failed to build location bundle", suite.decodeError(w)["error"])
}

func (suite *ChainHandlerTestSuite) TestGetChainCSV_UserVariant() {
	export := &domain.ChainCSV{Content: []byte("transaction_id\ntx-anchor\n"), Rows: 1}
	suite.mockArtifactService.On("ExportChainCSV", mock.Anything, anchorTransaction, domain.CSVVariantUser).Return(export, nil).Once()

	w := suite.serve(http.MethodGet, chainURL(anchorTransaction, "/chain/csv"), "")

	suite.Equal(http.StatusOK, w.Code)
	suite.Equal("text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	suite.Equal("1", w.Header().Get(handlers.HeaderTotalTransactions))
	suite.Equal(export.Content, w.Body.Bytes())
	suite.mockArtifactService.AssertExpectations(suite.T())
}

func (suite *ChainHandlerTestSuite) TestGetAdminChainCSV_RequiresAdmin() {
	w := suite.serve(http.MethodGet, "/api/v1/admin/transactions/"+anchorTransaction+"/chain/csv", "")

	suite.Equal(http.StatusForbidden, w.Code)
	suite.mockArtifactService.AssertNotCalled(suite.T(), "ExportChainCSV", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ChainHandlerTestSuite) TestGetAdminChainCSV_AdminToken() {
	export := &domain.ChainCSV{Content: []byte("transaction_id\n"), Rows: 0}
	suite.mockArtifactService.On("ExportChainCSV", mock.Anything, anchorTransaction, domain.CSVVariantAdmin).Return(export, nil).Once()

	w := suite.serve(http.MethodGet, "/api/v1/admin/transactions/"+anchorTransaction+"/chain/csv", middleware.RoleAdmin)

	suite.Equal(http.StatusOK, w.Code)
	suite.Equal("0", w.Header().Get(handlers.HeaderTotalTransactions))
	suite.mockArtifactService.AssertExpectations(suite.T())
}

func (suite *ChainHandlerTestSuite) TestGetAdminChainCSV_ServiceKey() {
	export := &domain.ChainCSV{Content: []byte("transaction_id\n"), Rows: 0}
	suite.mockArtifactService.On("ExportChainCSV", mock.Anything, anchorTransaction, domain.CSVVariantAdmin).Return(export, nil).Once()

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/admin/transactions/"+anchorTransaction+"/chain/csv", nil)
	req.Header.Set("x-api-key", testServiceKey)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusOK, w.Code)
	suite.mockArtifactService.AssertExpectations(suite.T())
}

func (suite *ChainHandlerTestSuite) TestGetAdminChainCSV_WrongServiceKey() {
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/admin/transactions/"+anchorTransaction+"/chain/csv", nil)
	req.Header.Set("x-api-key", "not-the-key")
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusUnauthorized, w.Code)
	var body map[string]string
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	suite.NotEmpty(body["error"])
}

func (suite *ChainHandlerTestSuite) TestServiceKeyIgnoredOutsideAdminRoutes() {
	req, _ := http.NewRequest(http.MethodGet, chainURL(anchorTransaction, "/chain"), nil)
	req.Header.Set("x-api-key", testServiceKey)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.mockChainService.AssertNotCalled(suite.T(), "GetChainTransactions", mock.Anything, mock.Anything)
}
