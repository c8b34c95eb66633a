package traversal_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SscSPs/supply_chain_app/internal/apperrors"
	"github.com/SscSPs/supply_chain_app/internal/core/domain"
	"github.com/SscSPs/supply_chain_app/internal/core/traversal"
	"github.com/SscSPs/supply_chain_app/internal/repositories/memory"
)

const cocoa = "cocoa"

func strPtr(s string) *string { return &s }

func trade(id, seller, buyer, commodity string, status domain.TransactionStatus) domain.Transaction {
	return domain.Transaction{
		TransactionID: id,
		Type:          domain.Downstream,
		Status:        status,
		SellerID:      strPtr(seller),
		BuyerID:       strPtr(buyer),
		CommodityID:   commodity,
	}
}

func producer(id, buyer, commodity string) domain.Transaction {
	return domain.Transaction{
		TransactionID: id,
		Type:          domain.Producer,
		Status:        domain.StatusAccepted,
		BuyerID:       strPtr(buyer),
		CommodityID:   commodity,
	}
}

func walk(t *testing.T, repo *memory.TransactionRepository, maxDepth int, anchor string, opts traversal.Options) ([]string, traversal.Stats, error) {
	t.Helper()
	acc := traversal.NewSetAccumulator()
	stats, err := traversal.NewWalker(repo, maxDepth).Walk(context.Background(), []string{anchor}, opts, acc)
	return acc.IDs(), stats, err
}

func TestWalk_LinearChain(t *testing.T) {
	repo := memory.NewTransactionRepository()
	repo.PutTransactions(
		producer("t1", "farmer", cocoa),
		trade("t2", "farmer", "trader", cocoa, domain.StatusAccepted),
		trade("t3", "trader", "user", cocoa, domain.StatusAccepted),
	)

	ids, stats, err := walk(t, repo, 10, "t3", traversal.Options{CommodityID: strPtr(cocoa)})

	require.NoError(t, err)
	assert.Equal(t, []string{"t3", "t2", "t1"}, ids)
	assert.Equal(t, 3, stats.Levels)
	assert.Equal(t, 5, stats.RoundTrips)
	assert.Equal(t, repo.RoundTrips(), stats.RoundTrips)
}

func TestWalk_CycleTerminates(t *testing.T) {
	repo := memory.NewTransactionRepository()
	repo.PutTransactions(
		trade("ab", "A", "B", cocoa, domain.StatusAccepted),
		trade("ba", "B", "A", cocoa, domain.StatusAccepted),
	)

	for _, anchor := range []string{"ab", "ba"} {
		ids, _, err := walk(t, repo, 10, anchor, traversal.Options{CommodityID: strPtr(cocoa)})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"ab", "ba"}, ids, "anchor %s", anchor)
	}
}

func TestWalk_NeverVisitsTwice(t *testing.T) {
	// Diamond: two traders both buy from the same farmer and sell to one buyer.
	repo := memory.NewTransactionRepository()
	repo.PutTransactions(
		producer("root", "farmer", cocoa),
		trade("f-t1", "farmer", "t1", cocoa, domain.StatusAccepted),
		trade("f-t2", "farmer", "t2", cocoa, domain.StatusAccepted),
		trade("t1-b", "t1", "buyer", cocoa, domain.StatusAccepted),
		trade("t2-b", "t2", "buyer", cocoa, domain.StatusAccepted),
		trade("b-u", "buyer", "user", cocoa, domain.StatusAccepted),
	)

	seen := map[string]int{}
	visitor := traversal.VisitorFunc(func(_ int, txs []domain.Transaction) error {
		for _, tx := range txs {
			seen[tx.TransactionID]++
		}
		return nil
	})
	_, err := traversal.NewWalker(repo, 10).Walk(context.Background(), []string{"b-u"}, traversal.Options{CommodityID: strPtr(cocoa)}, visitor)

	require.NoError(t, err)
	assert.Len(t, seen, 6)
	for id, n := range seen {
		assert.Equal(t, 1, n, "transaction %s visited more than once", id)
	}
}

func TestWalk_RejectedStopsExpansion(t *testing.T) {
	repo := memory.NewTransactionRepository()
	repo.PutTransactions(
		producer("t1", "farmer", cocoa),
		trade("t2", "farmer", "trader", cocoa, domain.StatusRejected),
		trade("t3", "trader", "user", cocoa, domain.StatusAccepted),
	)

	ids, _, err := walk(t, repo, 10, "t3", traversal.Options{CommodityID: strPtr(cocoa)})

	require.NoError(t, err)
	assert.Equal(t, []string{"t3"}, ids)
}

func TestWalk_AnchorStatusIsNotFiltered(t *testing.T) {
	repo := memory.NewTransactionRepository()
	repo.PutTransactions(
		producer("t1", "trader", cocoa),
		trade("t2", "trader", "user", cocoa, domain.StatusPending),
	)

	ids, _, err := walk(t, repo, 10, "t2", traversal.Options{CommodityID: strPtr(cocoa)})

	require.NoError(t, err)
	assert.Equal(t, []string{"t2", "t1"}, ids)
}

func TestWalk_CommodityScope(t *testing.T) {
	repo := memory.NewTransactionRepository()
	repo.PutTransactions(
		producer("coffee-root", "trader", "coffee"),
		producer("cocoa-root", "trader", cocoa),
		trade("t2", "trader", "user", cocoa, domain.StatusAccepted),
	)

	ids, _, err := walk(t, repo, 10, "t2", traversal.Options{CommodityID: strPtr(cocoa)})

	require.NoError(t, err)
	assert.Equal(t, []string{"t2", "cocoa-root"}, ids)
}

func TestWalk_DepthLimit(t *testing.T) {
	repo := memory.NewTransactionRepository()
	repo.PutTransactions(producer("t0", "p0", cocoa))
	for i := 1; i < 5; i++ {
		repo.PutTransactions(trade(fmt.Sprintf("t%d", i), fmt.Sprintf("p%d", i-1), fmt.Sprintf("p%d", i), cocoa, domain.StatusAccepted))
	}

	_, _, err := walk(t, repo, 3, "t4", traversal.Options{CommodityID: strPtr(cocoa)})
	assert.ErrorIs(t, err, apperrors.ErrChainDepthExceeded)

	ids, stats, err := walk(t, repo, 5, "t4", traversal.Options{CommodityID: strPtr(cocoa)})
	require.NoError(t, err)
	assert.Len(t, ids, 5)
	assert.Equal(t, 5, stats.Levels)
}

func TestWalk_FollowsConversionInputLegs(t *testing.T) {
	repo := memory.NewTransactionRepository()
	repo.PutTransactions(
		producer("seed-root", "farmer", "seeds"),
		trade("seed-buy", "farmer", "mill", "seeds", domain.StatusAccepted),
		domain.Transaction{
			TransactionID: "conv-in", Type: domain.Conversion, Status: domain.StatusAccepted,
			SellerID: strPtr("mill"), CommodityID: "seeds", GroupID: strPtr("g1"),
		},
		domain.Transaction{
			TransactionID: "conv-out", Type: domain.Conversion, Status: domain.StatusAccepted,
			BuyerID: strPtr("mill"), CommodityID: "oil", GroupID: strPtr("g1"),
		},
		trade("oil-sale", "mill", "user", "oil", domain.StatusAccepted),
	)

	ids, _, err := walk(t, repo, 10, "oil-sale", traversal.Options{FollowConversions: true})

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"oil-sale", "conv-out", "seed-buy", "conv-in", "seed-root"}, ids)
}

func TestWalk_RoundTripsBoundedByDepth(t *testing.T) {
	// Each level fans out to five sellers; round trips must track levels, not size.
	repo := memory.NewTransactionRepository()
	repo.PutTransactions(trade("anchor", "L0", "user", cocoa, domain.StatusAccepted))
	parents := []string{"L0"}
	for level := 1; level <= 3; level++ {
		var next []string
		for _, buyer := range parents {
			for i := 0; i < 5; i++ {
				seller := fmt.Sprintf("%s-%d", buyer, i)
				if level == 3 {
					repo.PutTransactions(producer("root-"+seller, buyer, cocoa))
					continue
				}
				repo.PutTransactions(trade(seller+"-"+buyer, seller, buyer, cocoa, domain.StatusAccepted))
				next = append(next, seller)
			}
		}
		parents = next
	}

	ids, stats, err := walk(t, repo, 10, "anchor", traversal.Options{CommodityID: strPtr(cocoa)})

	require.NoError(t, err)
	assert.Len(t, ids, 1+5+25+125)
	assert.LessOrEqual(t, stats.RoundTrips, 2*stats.Levels)
}

func TestWalk_CanceledContext(t *testing.T) {
	repo := memory.NewTransactionRepository()
	repo.PutTransactions(producer("t1", "user", cocoa))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := traversal.NewWalker(repo, 10).Walk(ctx, []string{"t1"}, traversal.Options{}, traversal.NewSetAccumulator())

	assert.ErrorIs(t, err, context.Canceled)
}

func TestWalk_VisitorErrorAborts(t *testing.T) {
	repo := memory.NewTransactionRepository()
	repo.PutTransactions(producer("t1", "user", cocoa))

	_, err := traversal.NewWalker(repo, 10).Walk(context.Background(), []string{"t1"}, traversal.Options{},
		traversal.VisitorFunc(func(int, []domain.Transaction) error { return assert.AnError }))

	assert.ErrorIs(t, err, assert.AnError)
}
