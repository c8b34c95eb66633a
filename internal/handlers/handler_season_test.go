package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/SscSPs/supply_chain_app/internal/core/domain"
	"github.com/SscSPs/supply_chain_app/internal/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func (suite *ChainHandlerTestSuite) postBackfill(body string, role string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/admin/seasons/backfill", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+suite.generateTestToken(callerPartyID, role))
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *ChainHandlerTestSuite) TestBackfillSeasons_DefaultBatchSize() {
	result := &domain.SeasonBackfillResult{RunID: "run-1", Scanned: 3, Assigned: 2, Unmatched: 1, Batches: 1}
	suite.mockSeasonService.On("BackfillSeasons", mock.Anything, testBatchSize).Return(result, nil).Once()

	w := suite.postBackfill("", middleware.RoleAdmin)

	suite.Equal(http.StatusOK, w.Code)
	var body domain.SeasonBackfillResult
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	suite.Equal(*result, body)
	suite.mockSeasonService.AssertExpectations(suite.T())
}

func (suite *ChainHandlerTestSuite) TestBackfillSeasons_BatchSizeOverride() {
	suite.mockSeasonService.On("BackfillSeasons", mock.Anything, 10).Return(&domain.SeasonBackfillResult{RunID: "run-2"}, nil).Once()

	w := suite.postBackfill(`{"batchSize": 10}`, middleware.RoleAdmin)

	suite.Equal(http.StatusOK, w.Code)
	suite.mockSeasonService.AssertExpectations(suite.T())
}

func (suite *ChainHandlerTestSuite) TestBackfillSeasons_InvalidBatchSize() {
	w := suite.postBackfill(`{"batchSize": -5}`, middleware.RoleAdmin)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockSeasonService.AssertNotCalled(suite.T(), "BackfillSeasons", mock.Anything, mock.Anything)
}

func (suite *ChainHandlerTestSuite) TestBackfillSeasons_ServiceError() {
	suite.mockSeasonService.On("BackfillSeasons", mock.Anything, testBatchSize).Return(nil, assert.AnError).Once()

	w := suite.postBackfill("", middleware.RoleAdmin)

	suite.Equal(http.StatusInternalServerError, w.Code)
	suite.Equal("Season backfill failed", suite.decodeError(w)["error"])
}

func (suite *ChainHandlerTestSuite) TestBackfillSeasons_NonAdminForbidden() {
	w := suite.postBackfill("", "")

	suite.Equal(http.StatusForbidden, w.Code)
	suite.mockSeasonService.AssertNotCalled(suite.T(), "BackfillSeasons", mock.Anything, mock.Anything)
}
