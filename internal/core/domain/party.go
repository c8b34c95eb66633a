package domain

import "time"

// PartyRole is the trading role of a party.
type PartyRole string

const (
	RoleFarmer PartyRole = "FARMER"
	RoleTrader PartyRole = "TRADER"
	RoleBuyer  PartyRole = "BUYER"
)

// Party is a trading participant (farmer, trader or buyer).
type Party struct {
	PartyID       string    `json:"partyID"`
	Name          string    `json:"name"`
	Role          PartyRole `json:"role"`
	Phone         *string   `json:"phone,omitempty"`
	PhoneVerified bool      `json:"phoneVerified"`
	Email         *string   `json:"email,omitempty"`
	EmailVerified bool      `json:"emailVerified"`
}

// VerifiedPhone returns the phone number only when it was verified.
func (p *Party) VerifiedPhone() string {
	if p == nil || p.Phone == nil || !p.PhoneVerified {
		return ""
	}
	return *p.Phone
}

// VerifiedEmail returns the email address only when it was verified.
func (p *Party) VerifiedEmail() string {
	if p == nil || p.Email == nil || !p.EmailVerified {
		return ""
	}
	return *p.Email
}

// Commodity is a traded good.
type Commodity struct {
	CommodityID string `json:"commodityID"`
	Name        string `json:"name"`
}

// Season is a harvest period for one commodity.
type Season struct {
	SeasonID    string    `json:"seasonID"`
	CommodityID string    `json:"commodityID"`
	Name        string    `json:"name"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
}

// Contains reports whether at falls inside the season, bounds included.
func (s Season) Contains(at time.Time) bool {
	return !at.Before(s.StartDate) && !at.After(s.EndDate)
}
