package services_test

import (
	"github.com/SscSPs/supply_chain_app/internal/core/domain"
	"github.com/SscSPs/supply_chain_app/internal/repositories/memory"
)

const (
	cocoa  = "cocoa"
	coffee = "coffee"
	butter = "cocoa-butter"
)

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func gradePtr(g domain.Traceability) *domain.Traceability { return &g }

func locationPtr(l domain.LocationType) *domain.LocationType { return &l }

// producerTx is an ACCEPTED chain root bought by buyer.
func producerTx(id, buyer, commodity string, grade domain.Traceability, location *domain.LocationType) domain.Transaction {
	return domain.Transaction{
		TransactionID: id,
		Type:          domain.Producer,
		Status:        domain.StatusAccepted,
		BuyerID:       strPtr(buyer),
		CommodityID:   commodity,
		Traceability:  gradePtr(grade),
		Location:      location,
		AuditFields:   domain.AuditFields{CreatedBy: buyer},
	}
}

// tradeTx is a downstream sale from seller to buyer.
func tradeTx(id, seller, buyer, commodity string, status domain.TransactionStatus, grade *domain.Traceability) domain.Transaction {
	return domain.Transaction{
		TransactionID: id,
		Type:          domain.Downstream,
		Status:        status,
		SellerID:      strPtr(seller),
		BuyerID:       strPtr(buyer),
		CommodityID:   commodity,
		Traceability:  grade,
		AuditFields:   domain.AuditFields{CreatedBy: seller},
	}
}

// linearChain is farmer -> trader -> user with a QR producer root.
func linearChain() *memory.TransactionRepository {
	repo := memory.NewTransactionRepository()
	repo.PutTransactions(
		producerTx("t1", "farmer", cocoa, domain.TraceabilityFull, locationPtr(domain.LocationQR)),
		tradeTx("t2", "farmer", "trader", cocoa, domain.StatusAccepted, gradePtr(domain.TraceabilityFull)),
		tradeTx("t3", "trader", "user", cocoa, domain.StatusAccepted, nil),
	)
	return repo
}
