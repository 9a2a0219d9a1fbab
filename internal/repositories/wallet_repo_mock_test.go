package repositories

import (
	"sync"
	"testing"

	"pasar/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockWalletRepository_ConcurrentIncrements(t *testing.T) {
	repo := NewMockWalletRepository()

	const n = 100
	delta := decimal.NewFromInt(5)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, repo.IncrementPending("seller-1", delta))
		}()
	}
	wg.Wait()

	wallet, err := repo.GetBySeller("seller-1")
	require.NoError(t, err)
	want := delta.Mul(decimal.NewFromInt(n))
	assert.True(t, wallet.Pending.Equal(want), "pending: %s, want %s", wallet.Pending, want)
	assert.True(t, wallet.Balance.IsZero())
}

func TestMockWalletRepository_ReleasePending(t *testing.T) {
	repo := NewMockWalletRepository()
	require.NoError(t, repo.IncrementPending("seller-1", decimal.NewFromInt(100)))

	// Releasing more than is pending must be refused, not go negative.
	err := repo.ReleasePending("seller-1", decimal.NewFromInt(150))
	assert.ErrorIs(t, err, ErrInsufficientPending)

	require.NoError(t, repo.ReleasePending("seller-1", decimal.NewFromInt(60)))
	wallet, err := repo.GetBySeller("seller-1")
	require.NoError(t, err)
	assert.True(t, wallet.Pending.Equal(decimal.NewFromInt(40)))
	assert.True(t, wallet.Balance.Equal(decimal.NewFromInt(60)))

	// Unknown seller.
	err = repo.ReleasePending("seller-2", decimal.NewFromInt(1))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMockWalletRepository_CreateRejectsDuplicates(t *testing.T) {
	repo := NewMockWalletRepository()
	require.NoError(t, repo.Create(&models.SellerWallet{
		SellerID: "seller-1",
		Balance:  decimal.Zero,
		Pending:  decimal.Zero,
	}))

	err := repo.Create(&models.SellerWallet{SellerID: "seller-1"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestMockOrderRepository_GuardedStatusUpdate(t *testing.T) {
	repo := NewMockOrderRepository()
	require.NoError(t, repo.Create(&models.Order{
		ID:             "order-1",
		BuyerID:        "buyer-1",
		SellerID:       "seller-1",
		TotalAmount:    decimal.NewFromInt(100),
		TrackingNumber: "SPTEST0001",
		Status:         models.OrderStatusPending,
	}))

	// The guard carries the expected from-status: only one of two racing
	// identical transitions can win.
	require.NoError(t, repo.UpdateStatus("order-1", models.OrderStatusPending, models.OrderStatusPaid))
	err := repo.UpdateStatus("order-1", models.OrderStatusPending, models.OrderStatusPaid)
	assert.ErrorIs(t, err, ErrStaleStatus)

	order, err := repo.GetByID("order-1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, order.Status)
}
