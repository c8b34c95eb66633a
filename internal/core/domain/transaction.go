package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType distinguishes chain roots, trades and conversion legs.
type TransactionType string

const (
	Producer   TransactionType = "PRODUCER"
	Downstream TransactionType = "DOWNSTREAM"
	Conversion TransactionType = "CONVERSION"
)

// TransactionStatus is the acceptance state of a transaction.
type TransactionStatus string

const (
	StatusPending    TransactionStatus = "PENDING"
	StatusAccepted   TransactionStatus = "ACCEPTED"
	StatusRejected   TransactionStatus = "REJECTED"
	StatusNoResponse TransactionStatus = "NO_RESPONSE"
)

// LocationType is the source of a transaction's geodata.
type LocationType string

const (
	LocationQR     LocationType = "QR"
	LocationGPS    LocationType = "GPS"
	LocationManual LocationType = "MANUAL"
	LocationFile   LocationType = "FILE"
)

// CreatedByRole tells which side of the trade recorded the transaction.
type CreatedByRole string

const (
	CreatedBySeller CreatedByRole = "seller"
	CreatedByBuyer  CreatedByRole = "buyer"
	CreatedByOther  CreatedByRole = "other"
)

// Transaction is one edge (or root) of the ownership graph. SellerID is nil
// for chain roots and conversion output legs; BuyerID is nil for conversion
// input legs.
type Transaction struct {
	TransactionID    string            `json:"transactionID"`
	Type             TransactionType   `json:"type"`
	Status           TransactionStatus `json:"status"`
	SellerID         *string           `json:"sellerID,omitempty"`
	BuyerID          *string           `json:"buyerID,omitempty"`
	CommodityID      string            `json:"commodityID"`
	GroupID          *string           `json:"groupID,omitempty"`
	Traceability     *Traceability     `json:"traceability,omitempty"`
	Location         *LocationType     `json:"location,omitempty"`
	LocationFile     *string           `json:"locationFile,omitempty"` // Blob path of the uploaded location file
	FarmLatitude     *float64          `json:"farmLatitude,omitempty"`
	FarmLongitude    *float64          `json:"farmLongitude,omitempty"`
	Volume           decimal.Decimal   `json:"volume"` // Negative for conversion input legs
	IsAutomatic      bool              `json:"isAutomatic"`
	BuyingFromFarmer bool              `json:"buyingFromFarmer"`
	SeasonID         *string           `json:"seasonID,omitempty"`
	ExpiresAt        *time.Time        `json:"expiresAt,omitempty"`
	AuditFields
}

// IsChainRoot reports whether the transaction has no seller.
func (t Transaction) IsChainRoot() bool {
	return t.SellerID == nil
}

// IsConversionOutputLeg reports whether t is the produced side of a conversion.
func (t Transaction) IsConversionOutputLeg() bool {
	return t.Type == Conversion && t.SellerID == nil
}

// IsConversionInputLeg reports whether t is the consumed side of a conversion.
func (t Transaction) IsConversionInputLeg() bool {
	return t.Type == Conversion && t.BuyerID == nil
}

// HasFarmCoordinates reports whether both farm coordinates are set.
func (t Transaction) HasFarmCoordinates() bool {
	return t.FarmLatitude != nil && t.FarmLongitude != nil
}

// HasLocation reports whether the transaction carries the given location type.
func (t Transaction) HasLocation(location LocationType) bool {
	return t.Location != nil && *t.Location == location
}

// CreatedByRole derives which party recorded the transaction.
func (t Transaction) CreatedByRole() CreatedByRole {
	switch {
	case t.SellerID != nil && t.CreatedBy == *t.SellerID:
		return CreatedBySeller
	case t.BuyerID != nil && t.CreatedBy == *t.BuyerID:
		return CreatedByBuyer
	default:
		return CreatedByOther
	}
}

// TransactionFilter narrows repository lookups. Nil fields do not constrain.
type TransactionFilter struct {
	Status      *TransactionStatus
	CommodityID *string
	ExcludeIDs  []string
}

// AcceptedOnly returns a filter restricted to ACCEPTED transactions.
func AcceptedOnly() TransactionFilter {
	status := StatusAccepted
	return TransactionFilter{Status: &status}
}

// WithCommodity returns a copy of f scoped to commodityID.
func (f TransactionFilter) WithCommodity(commodityID string) TransactionFilter {
	f.CommodityID = &commodityID
	return f
}

// Matches applies the filter to an in-memory transaction.
func (f TransactionFilter) Matches(t Transaction) bool {
	if f.Status != nil && t.Status != *f.Status {
		return false
	}
	if f.CommodityID != nil && t.CommodityID != *f.CommodityID {
		return false
	}
	for _, id := range f.ExcludeIDs {
		if id == t.TransactionID {
			return false
		}
	}
	return true
}
