package mapping

import (
	"github.com/SscSPs/supply_chain_app/internal/core/domain"
	"github.com/SscSPs/supply_chain_app/internal/models"
)

// ToModelTransaction converts a domain Transaction to a model Transaction
func ToModelTransaction(d domain.Transaction) models.Transaction {
	return models.Transaction{
		TransactionID:    d.TransactionID,
		Type:             string(d.Type),
		Status:           string(d.Status),
		SellerID:         d.SellerID,
		BuyerID:          d.BuyerID,
		CommodityID:      d.CommodityID,
		GroupID:          d.GroupID,
		Traceability:     toStringPtr(d.Traceability),
		Location:         toStringPtr(d.Location),
		LocationFile:     d.LocationFile,
		FarmLatitude:     d.FarmLatitude,
		FarmLongitude:    d.FarmLongitude,
		Volume:           d.Volume,
		IsAutomatic:      d.IsAutomatic,
		BuyingFromFarmer: d.BuyingFromFarmer,
		SeasonID:         d.SeasonID,
		ExpiresAt:        d.ExpiresAt,
		AuditFields:      ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainTransaction converts a model Transaction to a domain Transaction
func ToDomainTransaction(m models.Transaction) domain.Transaction {
	return domain.Transaction{
		TransactionID:    m.TransactionID,
		Type:             domain.TransactionType(m.Type),
		Status:           domain.TransactionStatus(m.Status),
		SellerID:         m.SellerID,
		BuyerID:          m.BuyerID,
		CommodityID:      m.CommodityID,
		GroupID:          m.GroupID,
		Traceability:     fromStringPtr[domain.Traceability](m.Traceability),
		Location:         fromStringPtr[domain.LocationType](m.Location),
		LocationFile:     m.LocationFile,
		FarmLatitude:     m.FarmLatitude,
		FarmLongitude:    m.FarmLongitude,
		Volume:           m.Volume,
		IsAutomatic:      m.IsAutomatic,
		BuyingFromFarmer: m.BuyingFromFarmer,
		SeasonID:         m.SeasonID,
		ExpiresAt:        m.ExpiresAt,
		AuditFields:      ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainTransactionSlice converts a slice of model Transactions to a slice of domain Transactions
func ToDomainTransactionSlice(ms []models.Transaction) []domain.Transaction {
	ds := make([]domain.Transaction, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainTransaction(m)
	}
	return ds
}

// ToDomainParty converts a model Party to a domain Party
func ToDomainParty(m models.Party) domain.Party {
	return domain.Party{
		PartyID:       m.PartyID,
		Name:          m.Name,
		Role:          domain.PartyRole(m.Role),
		Phone:         m.Phone,
		PhoneVerified: m.PhoneVerified,
		Email:         m.Email,
		EmailVerified: m.EmailVerified,
	}
}

// ToDomainCommodity converts a model Commodity to a domain Commodity
func ToDomainCommodity(m models.Commodity) domain.Commodity {
	return domain.Commodity{CommodityID: m.CommodityID, Name: m.Name}
}

// ToDomainSeason converts a model Season to a domain Season
func ToDomainSeason(m models.Season) domain.Season {
	return domain.Season{
		SeasonID:    m.SeasonID,
		CommodityID: m.CommodityID,
		Name:        m.Name,
		StartDate:   m.StartDate,
		EndDate:     m.EndDate,
	}
}

// ToDomainSeasonSlice converts a slice of model Seasons to a slice of domain Seasons
func ToDomainSeasonSlice(ms []models.Season) []domain.Season {
	ds := make([]domain.Season, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainSeason(m)
	}
	return ds
}

func toStringPtr[T ~string](v *T) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

func fromStringPtr[T ~string](v *string) *T {
	if v == nil {
		return nil
	}
	t := T(*v)
	return &t
}
