package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a row of the transactions table.
type Transaction struct {
	TransactionID    string          `json:"transactionID"`    // Primary Key (UUID)
	Type             string          `json:"type"`             // PRODUCER, DOWNSTREAM or CONVERSION
	Status           string          `json:"status"`           // PENDING, ACCEPTED, REJECTED or NO_RESPONSE
	SellerID         *string         `json:"sellerID"`         // FK -> parties.party_id, NULL for chain roots
	BuyerID          *string         `json:"buyerID"`          // FK -> parties.party_id, NULL for conversion input legs
	CommodityID      string          `json:"commodityID"`      // FK -> commodities.commodity_id (Not Null)
	GroupID          *string         `json:"groupID"`          // Conversion group
	Traceability     *string         `json:"traceability"`     // Nullable until computed
	Location         *string         `json:"location"`         // QR, GPS, MANUAL or FILE
	LocationFile     *string         `json:"locationFile"`     // Object path in the location bucket
	FarmLatitude     *float64        `json:"farmLatitude"`     // Nullable
	FarmLongitude    *float64        `json:"farmLongitude"`    // Nullable
	Volume           decimal.Decimal `json:"volume"`           // NUMERIC(20,4)
	IsAutomatic      bool            `json:"isAutomatic"`      // Created by the system rather than a party
	BuyingFromFarmer bool            `json:"buyingFromFarmer"` // Declared by producers without a location
	SeasonID         *string         `json:"seasonID"`         // FK -> seasons.season_id
	ExpiresAt        *time.Time      `json:"expiresAt"`        // Pending expiry
	AuditFields
}

// Party is a row of the parties table.
type Party struct {
	PartyID       string  `json:"partyID"`
	Name          string  `json:"name"`
	Role          string  `json:"role"`
	Phone         *string `json:"phone"`
	PhoneVerified bool    `json:"phoneVerified"`
	Email         *string `json:"email"`
	EmailVerified bool    `json:"emailVerified"`
}

// Commodity is a row of the commodities table.
type Commodity struct {
	CommodityID string `json:"commodityID"`
	Name        string `json:"name"`
}

// Season is a row of the seasons table.
type Season struct {
	SeasonID    string    `json:"seasonID"`
	CommodityID string    `json:"commodityID"`
	Name        string    `json:"name"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
}
