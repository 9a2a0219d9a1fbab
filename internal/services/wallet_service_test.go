package services_test

import (
	"testing"

	"pasar/internal/models"
	"pasar/internal/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetWallet_UnknownSellerGetsZeroWallet(t *testing.T) {
	f := newLedgerFixture(t, false)
	walletService := services.NewWalletService(f.wallets, f.txLog, f.revenue)

	wallet, err := walletService.GetWallet("seller-new")
	require.NoError(t, err)
	assert.Equal(t, "seller-new", wallet.SellerID)
	assert.True(t, wallet.Balance.IsZero())
	assert.True(t, wallet.Pending.IsZero())
}

func TestGetWallet_ReflectsLifecycleEarnings(t *testing.T) {
	f := newLedgerFixture(t, false)
	walletService := services.NewWalletService(f.wallets, f.txLog, f.revenue)

	order := f.createOrder(t, "prod-1", 1)
	f.transition(t, order.ID, models.OrderStatusPaid)

	wallet, err := walletService.GetWallet("seller-1")
	require.NoError(t, err)
	assert.True(t, wallet.Pending.Equal(decimal.NewFromInt(950)))
	assert.True(t, wallet.Balance.IsZero())

	txs, err := walletService.GetTransactions("seller-1")
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, models.TransactionPending, txs[0].Type)

	revs, err := walletService.GetRevenue("seller-1")
	require.NoError(t, err)
	require.Len(t, revs, 1)
	assert.True(t, revs[0].Amount.Equal(decimal.NewFromInt(50)))
}
