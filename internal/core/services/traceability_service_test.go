package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/SscSPs/supply_chain_app/internal/apperrors"
	"github.com/SscSPs/supply_chain_app/internal/core/domain"
	portssvc "github.com/SscSPs/supply_chain_app/internal/core/ports/services"
	"github.com/SscSPs/supply_chain_app/internal/core/services"
	"github.com/SscSPs/supply_chain_app/internal/repositories/memory"
)

// failingBuyerLookups fails every upstream lookup.
type failingBuyerLookups struct {
	*memory.TransactionRepository
}

func (f failingBuyerLookups) FindTransactionsByBuyerIDs(ctx context.Context, buyerIDs []string, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	return nil, assert.AnError
}

// --- Test Suite ---
type TraceabilityServiceTestSuite struct {
	suite.Suite
	repo    *memory.TransactionRepository
	service portssvc.TraceabilitySvcFacade
}

func (suite *TraceabilityServiceTestSuite) SetupTest() {
	suite.repo = linearChain()
	suite.service = services.NewTraceabilityService(suite.repo)
}

// --- Test Cases ---

func (suite *TraceabilityServiceTestSuite) TestClassifyDownstream_NoUpstreamIsIncomplete() {
	// Neither party has an accepted purchase of the commodity.
	grade, err := suite.service.ClassifyDownstream(context.Background(), "newcomer", cocoa)

	suite.Require().NoError(err)
	suite.Equal(domain.TraceabilityIncomplete, grade)

	grade, err = suite.service.ClassifyDownstream(context.Background(), "user", coffee)

	suite.Require().NoError(err)
	suite.Equal(domain.TraceabilityIncomplete, grade)
}

func (suite *TraceabilityServiceTestSuite) TestClassifyDownstream_ProducerPurchaseCounts() {
	grade, err := suite.service.ClassifyDownstream(context.Background(), "farmer", cocoa)

	suite.Require().NoError(err)
	suite.Equal(domain.TraceabilityFull, grade)
}

func (suite *TraceabilityServiceTestSuite) TestClassifyDownstream_MinimumOfUpstream() {
	suite.repo.PutTransactions(
		tradeTx("u1", "a", "seller", cocoa, domain.StatusAccepted, gradePtr(domain.TraceabilityFull)),
		tradeTx("u2", "b", "seller", cocoa, domain.StatusAccepted, gradePtr(domain.TraceabilityConditional)),
		tradeTx("u3", "c", "seller", cocoa, domain.StatusAccepted, nil),
		tradeTx("u4", "d", "seller", cocoa, domain.StatusRejected, gradePtr(domain.TraceabilityIncomplete)),
		tradeTx("u5", "e", "seller", coffee, domain.StatusAccepted, gradePtr(domain.TraceabilityPartial)),
	)

	grade, err := suite.service.ClassifyDownstream(context.Background(), "seller", cocoa)

	suite.Require().NoError(err)
	suite.Equal(domain.TraceabilityConditional, grade)
}

func (suite *TraceabilityServiceTestSuite) TestClassifyDownstream_OnlyUngradedUpstream() {
	suite.repo.PutTransactions(tradeTx("u1", "a", "seller", cocoa, domain.StatusAccepted, nil))

	grade, err := suite.service.ClassifyDownstream(context.Background(), "seller", cocoa)

	suite.Require().NoError(err)
	suite.Equal(domain.TraceabilityIncomplete, grade)
}

func (suite *TraceabilityServiceTestSuite) TestClassifyDownstream_RepositoryError() {
	service := services.NewTraceabilityService(failingBuyerLookups{suite.repo})

	_, err := service.ClassifyDownstream(context.Background(), "seller", cocoa)

	suite.ErrorIs(err, assert.AnError)
}

func (suite *TraceabilityServiceTestSuite) TestClassifyConversion() {
	suite.repo.PutTransactions(
		tradeTx("beans", "farmer", "mill", cocoa, domain.StatusAccepted, gradePtr(domain.TraceabilityFull)),
		tradeTx("sugar", "farm", "mill", "sugar", domain.StatusAccepted, gradePtr(domain.TraceabilityPartial)),
	)

	grade, err := suite.service.ClassifyConversion(context.Background(), "mill", []string{cocoa})
	suite.Require().NoError(err)
	suite.Equal(domain.TraceabilityFull, grade)

	grade, err = suite.service.ClassifyConversion(context.Background(), "mill", []string{cocoa, "sugar", cocoa})
	suite.Require().NoError(err)
	suite.Equal(domain.TraceabilityPartial, grade)

	grade, err = suite.service.ClassifyConversion(context.Background(), "mill", []string{cocoa, "milk"})
	suite.Require().NoError(err)
	suite.Equal(domain.TraceabilityIncomplete, grade)
}

func (suite *TraceabilityServiceTestSuite) TestClassifyConversion_NoInputs() {
	grade, err := suite.service.ClassifyConversion(context.Background(), "mill", nil)

	suite.Require().NoError(err)
	suite.Equal(domain.TraceabilityIncomplete, grade)
}

func (suite *TraceabilityServiceTestSuite) TestClassifyProducer() {
	cases := []struct {
		location         *domain.LocationType
		buyingFromFarmer bool
		want             domain.Traceability
	}{
		{locationPtr(domain.LocationQR), false, domain.TraceabilityFull},
		{locationPtr(domain.LocationGPS), true, domain.TraceabilityFull},
		{locationPtr(domain.LocationManual), false, domain.TraceabilityConditional},
		{locationPtr(domain.LocationFile), false, domain.TraceabilityConditional},
		{nil, true, domain.TraceabilityPartial},
		{nil, false, domain.TraceabilityIncomplete},
	}
	for _, tc := range cases {
		suite.Equal(tc.want, suite.service.ClassifyProducer(tc.location, tc.buyingFromFarmer))
	}
}

func (suite *TraceabilityServiceTestSuite) TestResolve_LinearChainIsFull() {
	grade, err := suite.service.ResolveTransactionTraceability(context.Background(), "t3")

	suite.Require().NoError(err)
	suite.Equal(domain.TraceabilityFull, grade)
}

func (suite *TraceabilityServiceTestSuite) TestResolve_BranchingTakesMinimum() {
	repo := memory.NewTransactionRepository()
	repo.PutTransactions(
		producerTx("f1-root", "farmer1", cocoa, domain.TraceabilityFull, locationPtr(domain.LocationQR)),
		producerTx("f2-root", "farmer2", cocoa, domain.TraceabilityPartial, nil),
		tradeTx("f1-sale", "farmer1", "trader", cocoa, domain.StatusAccepted, gradePtr(domain.TraceabilityFull)),
		tradeTx("f2-sale", "farmer2", "trader", cocoa, domain.StatusAccepted, gradePtr(domain.TraceabilityPartial)),
		tradeTx("out", "trader", "user", cocoa, domain.StatusAccepted, nil),
	)
	service := services.NewTraceabilityService(repo)

	grade, err := service.ResolveTransactionTraceability(context.Background(), "out")

	suite.Require().NoError(err)
	suite.Equal(domain.TraceabilityPartial, grade)
}

func (suite *TraceabilityServiceTestSuite) TestResolve_StoredGradeWins() {
	suite.repo.PutTransactions(tradeTx("t3", "trader", "user", cocoa, domain.StatusAccepted, gradePtr(domain.TraceabilityIncomplete)))

	grade, err := suite.service.ResolveTransactionTraceability(context.Background(), "t3")

	suite.Require().NoError(err)
	suite.Equal(domain.TraceabilityIncomplete, grade)
}

func (suite *TraceabilityServiceTestSuite) TestResolve_UngradedProducer() {
	root := producerTx("p", "buyer", cocoa, domain.TraceabilityFull, nil)
	root.Traceability = nil
	root.BuyingFromFarmer = true
	suite.repo.PutTransactions(root)

	grade, err := suite.service.ResolveTransactionTraceability(context.Background(), "p")

	suite.Require().NoError(err)
	suite.Equal(domain.TraceabilityPartial, grade)
}

func (suite *TraceabilityServiceTestSuite) TestResolve_ConversionOutputLeg() {
	suite.repo.PutTransactions(
		tradeTx("beans", "farmer", "mill", cocoa, domain.StatusAccepted, gradePtr(domain.TraceabilityFull)),
		tradeTx("sugar", "farm", "mill", "sugar", domain.StatusAccepted, gradePtr(domain.TraceabilityConditional)),
		domain.Transaction{
			TransactionID: "in-beans", Type: domain.Conversion, Status: domain.StatusAccepted,
			SellerID: strPtr("mill"), CommodityID: cocoa, GroupID: strPtr("g1"),
		},
		domain.Transaction{
			TransactionID: "in-sugar", Type: domain.Conversion, Status: domain.StatusAccepted,
			SellerID: strPtr("mill"), CommodityID: "sugar", GroupID: strPtr("g1"),
		},
		domain.Transaction{
			TransactionID: "out", Type: domain.Conversion, Status: domain.StatusAccepted,
			BuyerID: strPtr("mill"), CommodityID: "chocolate", GroupID: strPtr("g1"),
		},
	)

	grade, err := suite.service.ResolveTransactionTraceability(context.Background(), "out")

	suite.Require().NoError(err)
	suite.Equal(domain.TraceabilityConditional, grade)
}

func (suite *TraceabilityServiceTestSuite) TestResolve_NotFound() {
	_, err := suite.service.ResolveTransactionTraceability(context.Background(), "missing")

	suite.ErrorIs(err, apperrors.ErrNotFound)
}

// --- Run Test Suite ---
func TestTraceabilityServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TraceabilityServiceTestSuite))
}
