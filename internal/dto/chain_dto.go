package dto

import (
	"time"

	"github.com/SscSPs/supply_chain_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// Chain walk scopes accepted by the chain endpoint.
const (
	ChainScopeCommodity  = "commodity"
	ChainScopeConversion = "conversion"
)

// ChainQueryParams selects the walk used by the chain endpoint.
type ChainQueryParams struct {
	Scope     string `form:"scope" binding:"omitempty,oneof=commodity conversion"`
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=1000"` // Zero returns the whole chain
	NextToken string `form:"next_token"`
}

// FirstChainQueryParams narrows the chain roots endpoint.
type FirstChainQueryParams struct {
	MissingLocation bool `form:"missing_location"`
}

// TransactionResponse defines the data returned for a chain transaction.
type TransactionResponse struct {
	TransactionID    string                   `json:"transactionID"`
	Type             domain.TransactionType   `json:"type"`
	Status           domain.TransactionStatus `json:"status"`
	SellerID         *string                  `json:"sellerID,omitempty"`
	BuyerID          *string                  `json:"buyerID,omitempty"`
	CommodityID      string                   `json:"commodityID"`
	GroupID          *string                  `json:"groupID,omitempty"`
	Traceability     *domain.Traceability     `json:"traceability,omitempty"`
	Location         *domain.LocationType     `json:"location,omitempty"`
	HasLocationFile  bool                     `json:"hasLocationFile"`
	FarmLatitude     *float64                 `json:"farmLatitude,omitempty"`
	FarmLongitude    *float64                 `json:"farmLongitude,omitempty"`
	Volume           decimal.Decimal          `json:"volume"`
	IsAutomatic      bool                     `json:"isAutomatic"`
	BuyingFromFarmer bool                     `json:"buyingFromFarmer"`
	SeasonID         *string                  `json:"seasonID,omitempty"`
	CreatedAt        time.Time                `json:"createdAt"`
	CreatedBy        string                   `json:"createdBy"`
}

// ChainResponse lists the transactions reached by a chain walk.
type ChainResponse struct {
	TransactionID string                `json:"transactionID"`
	Scope         string                `json:"scope,omitempty"`
	Total         int                   `json:"total"`
	Transactions  []TransactionResponse `json:"transactions"`
	NextToken     *string               `json:"nextToken,omitempty"`
}

// GeodataRequestsResponse maps each buyer to the roots it must supply geodata for.
type GeodataRequestsResponse struct {
	TransactionID string              `json:"transactionID"`
	Buyers        map[string][]string `json:"buyers"`
}

// TraceabilityResponse is the resolved grade of one transaction.
type TraceabilityResponse struct {
	TransactionID string              `json:"transactionID"`
	Traceability  domain.Traceability `json:"traceability"`
}

// TraceabilityCountsResponse is the per-grade tally of a chain.
type TraceabilityCountsResponse struct {
	TransactionID string                      `json:"transactionID"`
	Counts        map[domain.Traceability]int `json:"counts"`
	Total         int                         `json:"total"`
}

// PlotsCountResponse is the number of distinct farm plots behind a party's purchases.
type PlotsCountResponse struct {
	PartyID string `json:"partyID"`
	Plots   int    `json:"plots"`
}

// SeasonBackfillRequest optionally overrides the configured page size.
type SeasonBackfillRequest struct {
	BatchSize int `json:"batchSize" binding:"omitempty,min=1,max=10000"`
}

// ToTransactionResponse converts a domain.Transaction to its response DTO
func ToTransactionResponse(t domain.Transaction) TransactionResponse {
	return TransactionResponse{
		TransactionID:    t.TransactionID,
		Type:             t.Type,
		Status:           t.Status,
		SellerID:         t.SellerID,
		BuyerID:          t.BuyerID,
		CommodityID:      t.CommodityID,
		GroupID:          t.GroupID,
		Traceability:     t.Traceability,
		Location:         t.Location,
		HasLocationFile:  t.LocationFile != nil && *t.LocationFile != "",
		FarmLatitude:     t.FarmLatitude,
		FarmLongitude:    t.FarmLongitude,
		Volume:           t.Volume,
		IsAutomatic:      t.IsAutomatic,
		BuyingFromFarmer: t.BuyingFromFarmer,
		SeasonID:         t.SeasonID,
		CreatedAt:        t.CreatedAt,
		CreatedBy:        t.CreatedBy,
	}
}

// ToChainResponse wraps the result of a chain walk.
func ToChainResponse(transactionID, scope string, transactions []domain.Transaction) ChainResponse {
	res := ChainResponse{
		TransactionID: transactionID,
		Scope:         scope,
		Total:         len(transactions),
		Transactions:  make([]TransactionResponse, len(transactions)),
	}
	for i, t := range transactions {
		res.Transactions[i] = ToTransactionResponse(t)
	}
	return res
}

// ToTraceabilityCountsResponse copies counts so every grade is present.
func ToTraceabilityCountsResponse(transactionID string, counts domain.TraceabilityCounts) TraceabilityCountsResponse {
	full := domain.NewTraceabilityCounts()
	full.Merge(counts)
	return TraceabilityCountsResponse{
		TransactionID: transactionID,
		Counts:        full,
		Total:         full.Total(),
	}
}
