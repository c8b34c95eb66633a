package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SscSPs/supply_chain_app/internal/core/domain"
	"github.com/SscSPs/supply_chain_app/internal/repositories/memory"
)

func exportTx(id string, createdAt time.Time) domain.Transaction {
	buyer := "buyer"
	return domain.Transaction{
		TransactionID: id,
		Type:          domain.Downstream,
		Status:        domain.StatusAccepted,
		BuyerID:       &buyer,
		CommodityID:   "cocoa",
		AuditFields:   domain.AuditFields{CreatedAt: createdAt},
	}
}

func TestFindChainExportRows_OrdersByCreatedAtThenID(t *testing.T) {
	earlier := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	later := earlier.Add(time.Hour)

	repo := memory.NewTransactionRepository()
	repo.PutTransactions(
		exportTx("tx-c", later),
		exportTx("tx-b", later),
		exportTx("tx-z", earlier),
		exportTx("tx-a", later),
	)
	repo.PutParties(domain.Party{PartyID: "buyer", Name: "Buyer"})
	repo.PutCommodities(domain.Commodity{CommodityID: "cocoa", Name: "Cocoa"})

	rows, err := repo.FindChainExportRows(context.Background(), []string{"tx-a", "tx-b", "tx-c", "tx-z"})

	require.NoError(t, err)
	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.Transaction.TransactionID
	}
	assert.Equal(t, []string{"tx-z", "tx-a", "tx-b", "tx-c"}, ids)
	require.NotNil(t, rows[0].Buyer)
	assert.Equal(t, "Buyer", rows[0].Buyer.Name)
	assert.Nil(t, rows[0].Seller)
	assert.Equal(t, "Cocoa", rows[0].Commodity.Name)
}

func TestFindChainExportRows_SkipsUnknownIDs(t *testing.T) {
	repo := memory.NewTransactionRepository()
	repo.PutTransactions(exportTx("tx-a", time.Time{}))

	rows, err := repo.FindChainExportRows(context.Background(), []string{"tx-a", "missing"})

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "cocoa", rows[0].Commodity.CommodityID)
	assert.Equal(t, 1, repo.RoundTrips())
}
