package services_test

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"pasar/internal/models"
	"pasar/internal/repositories"
	"pasar/internal/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockAddressRepository is a mock implementation of repositories.AddressRepository
type MockAddressRepository struct {
	mock.Mock
}

func (m *MockAddressRepository) Create(address *models.Address) error {
	args := m.Called(address)
	return args.Error(0)
}

func (m *MockAddressRepository) GetByUser(userID string) ([]models.Address, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Address), args.Error(1)
}

func (m *MockAddressRepository) GetDefaultByUser(userID string) (*models.Address, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Address), args.Error(1)
}

// MockRevenueRepository is a mock implementation of
// repositories.PlatformRevenueRepository, used to inject ledger failures.
type MockRevenueRepository struct {
	mock.Mock
}

func (m *MockRevenueRepository) Record(rev *models.PlatformRevenue) error {
	args := m.Called(rev)
	return args.Error(0)
}

func (m *MockRevenueRepository) ListBySeller(sellerID string) ([]models.PlatformRevenue, error) {
	args := m.Called(sellerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PlatformRevenue), args.Error(1)
}

// ledgerFixture bundles the in-memory stores behind one OrderService.
type ledgerFixture struct {
	orders   *repositories.MockOrderRepository
	wallets  *repositories.MockWalletRepository
	txLog    *repositories.MockTransactionLogRepository
	revenue  *repositories.MockPlatformRevenueRepository
	products *repositories.MockProductRepository
	service  *services.OrderService
}

func newLedgerFixture(t *testing.T, bookOnCreate bool) *ledgerFixture {
	t.Helper()
	f := &ledgerFixture{
		orders:   repositories.NewMockOrderRepository(),
		wallets:  repositories.NewMockWalletRepository(),
		txLog:    repositories.NewMockTransactionLogRepository(),
		revenue:  repositories.NewMockPlatformRevenueRepository(),
		products: repositories.NewMockProductRepository(),
	}
	f.service = services.NewOrderService(
		f.orders, f.wallets, f.txLog, f.revenue, f.products, nil, nil,
		services.OrderServiceConfig{BookLedgerOnCreate: bookOnCreate},
	)
	require.NoError(t, f.products.Create(&models.Product{
		ID:       "prod-1",
		SellerID: "seller-1",
		Name:     "Laptop",
		Price:    decimal.NewFromInt(1000),
		Stock:    100,
	}))
	require.NoError(t, f.products.Create(&models.Product{
		ID:       "prod-2",
		SellerID: "seller-1",
		Name:     "Mouse",
		Price:    decimal.NewFromInt(100),
		Stock:    100,
	}))
	return f
}

func (f *ledgerFixture) createOrder(t *testing.T, productID string, qty int) *models.Order {
	t.Helper()
	order, err := f.service.CreateOrder(services.CreateOrderCommand{
		BuyerID:       "buyer-1",
		SellerID:      "seller-1",
		StoreID:       "store-1",
		Items:         []services.OrderItemLine{{ProductID: productID, Quantity: qty}},
		PaymentMethod: "card",
	})
	require.NoError(t, err)
	return order
}

func (f *ledgerFixture) transition(t *testing.T, orderID string, status models.OrderStatus) *models.Order {
	t.Helper()
	order, err := f.service.UpdateOrderStatus(services.TransitionStatusCommand{
		OrderID:   orderID,
		NewStatus: string(status),
	})
	require.NoError(t, err)
	return order
}

func (f *ledgerFixture) wallet(t *testing.T, sellerID string) *models.SellerWallet {
	t.Helper()
	wallet, err := f.wallets.GetBySeller(sellerID)
	require.NoError(t, err)
	return wallet
}

func TestCreateOrder_DeferredBookingLeavesLedgerEmpty(t *testing.T) {
	f := newLedgerFixture(t, false)

	order := f.createOrder(t, "prod-1", 1)

	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.True(t, order.TotalAmount.Equal(decimal.NewFromInt(1000)))
	assert.True(t, strings.HasPrefix(order.TrackingNumber, "SP"))
	assert.Len(t, order.TrackingNumber, 10)
	require.Len(t, order.Items, 1)
	assert.True(t, order.Items[0].Price.Equal(decimal.NewFromInt(1000)))

	// Nothing booked until payment confirmation.
	_, err := f.wallets.GetBySeller("seller-1")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	txs, err := f.txLog.ListByOrder(order.ID)
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestCreateOrder_BookOnCreateWritesCommissionSplit(t *testing.T) {
	f := newLedgerFixture(t, true)

	order := f.createOrder(t, "prod-1", 1)

	// 1000 at the default 5% rate: commission 50, seller credit 950.
	wallet := f.wallet(t, "seller-1")
	assert.True(t, wallet.Pending.Equal(decimal.NewFromInt(950)), "pending: %s", wallet.Pending)
	assert.True(t, wallet.Balance.IsZero(), "balance: %s", wallet.Balance)

	txs, err := f.txLog.FindPendingByOrder(order.ID)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.True(t, txs[0].Amount.Equal(decimal.NewFromInt(950)))
	assert.Equal(t, "seller-1", txs[0].SellerID)

	revs, err := f.revenue.ListBySeller("seller-1")
	require.NoError(t, err)
	require.Len(t, revs, 1)
	assert.True(t, revs[0].Amount.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, order.ID, revs[0].OrderID)
}

func TestCreateOrder_UsesBuyerDefaultAddress(t *testing.T) {
	f := newLedgerFixture(t, false)
	addressRepo := new(MockAddressRepository)
	addressRepo.On("GetDefaultByUser", "buyer-1").Return(&models.Address{
		Line1:      "Jl. Merdeka 1",
		City:       "Jakarta",
		Country:    "Indonesia",
		PostalCode: "10110",
	}, nil).Once()

	service := services.NewOrderService(
		f.orders, f.wallets, f.txLog, f.revenue, f.products, addressRepo, nil,
		services.OrderServiceConfig{},
	)
	order, err := service.CreateOrder(services.CreateOrderCommand{
		BuyerID:       "buyer-1",
		SellerID:      "seller-1",
		Items:         []services.OrderItemLine{{ProductID: "prod-2", Quantity: 1}},
		PaymentMethod: "card",
	})
	require.NoError(t, err)
	assert.Equal(t, "Jl. Merdeka 1, Jakarta, Indonesia, 10110", order.ShippingAddress)
	addressRepo.AssertExpectations(t)

	// No default address is non-fatal; the order proceeds without one.
	addressRepo.On("GetDefaultByUser", "buyer-2").
		Return(nil, fmt.Errorf("default address for user buyer-2: %w", repositories.ErrNotFound)).Once()
	order, err = service.CreateOrder(services.CreateOrderCommand{
		BuyerID:       "buyer-2",
		SellerID:      "seller-1",
		Items:         []services.OrderItemLine{{ProductID: "prod-2", Quantity: 1}},
		PaymentMethod: "card",
	})
	require.NoError(t, err)
	assert.Empty(t, order.ShippingAddress)
	addressRepo.AssertExpectations(t)
}

func TestCreateOrder_Validation(t *testing.T) {
	f := newLedgerFixture(t, false)

	// No items.
	_, err := f.service.CreateOrder(services.CreateOrderCommand{
		BuyerID:       "buyer-1",
		SellerID:      "seller-1",
		PaymentMethod: "card",
	})
	assert.ErrorIs(t, err, services.ErrValidation)

	// Unknown product.
	_, err = f.service.CreateOrder(services.CreateOrderCommand{
		BuyerID:       "buyer-1",
		SellerID:      "seller-1",
		Items:         []services.OrderItemLine{{ProductID: "prod-999", Quantity: 1}},
		PaymentMethod: "card",
	})
	assert.ErrorIs(t, err, services.ErrNotFound)

	// Insufficient stock.
	_, err = f.service.CreateOrder(services.CreateOrderCommand{
		BuyerID:       "buyer-1",
		SellerID:      "seller-1",
		Items:         []services.OrderItemLine{{ProductID: "prod-1", Quantity: 1000}},
		PaymentMethod: "card",
	})
	assert.ErrorIs(t, err, services.ErrValidation)

	// Nothing was written.
	orders, err := f.orders.GetAll()
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestCreateOrder_LedgerFailureKeepsOrder(t *testing.T) {
	f := newLedgerFixture(t, true)
	failingRevenue := new(MockRevenueRepository)
	failingRevenue.On("Record", mock.AnythingOfType("*models.PlatformRevenue")).
		Return(errors.New("revenue store unavailable"))

	service := services.NewOrderService(
		f.orders, f.wallets, f.txLog, failingRevenue, f.products, nil, nil,
		services.OrderServiceConfig{BookLedgerOnCreate: true},
	)
	order, err := service.CreateOrder(services.CreateOrderCommand{
		BuyerID:       "buyer-1",
		SellerID:      "seller-1",
		Items:         []services.OrderItemLine{{ProductID: "prod-1", Quantity: 1}},
		PaymentMethod: "card",
	})

	// The failure is reported, but the order stays persisted in pending:
	// an order without a matching ledger entry is a reconciliation case,
	// not a rollback.
	assert.ErrorIs(t, err, services.ErrLedgerBooking)
	require.NotNil(t, order)
	stored, getErr := f.orders.GetByID(order.ID)
	require.NoError(t, getErr)
	assert.Equal(t, models.OrderStatusPending, stored.Status)
}

func TestUpdateOrderStatus_StateMachine(t *testing.T) {
	f := newLedgerFixture(t, false)
	order := f.createOrder(t, "prod-2", 1)

	// Unknown status value.
	_, err := f.service.UpdateOrderStatus(services.TransitionStatusCommand{
		OrderID: order.ID, NewStatus: "refunded",
	})
	assert.ErrorIs(t, err, services.ErrValidation)

	// Skipping a state is rejected.
	_, err = f.service.UpdateOrderStatus(services.TransitionStatusCommand{
		OrderID: order.ID, NewStatus: "shipped",
	})
	assert.ErrorIs(t, err, services.ErrInvalidTransition)

	// Cancellation is not reachable through the transition operation.
	_, err = f.service.UpdateOrderStatus(services.TransitionStatusCommand{
		OrderID: order.ID, NewStatus: "cancelled",
	})
	assert.ErrorIs(t, err, services.ErrInvalidTransition)

	// The legal path runs to the terminal state.
	f.transition(t, order.ID, models.OrderStatusPaid)
	f.transition(t, order.ID, models.OrderStatusShipped)
	f.transition(t, order.ID, models.OrderStatusDelivered)

	// Terminal means terminal.
	_, err = f.service.UpdateOrderStatus(services.TransitionStatusCommand{
		OrderID: order.ID, NewStatus: "paid",
	})
	assert.ErrorIs(t, err, services.ErrInvalidTransition)

	// Unknown order.
	_, err = f.service.UpdateOrderStatus(services.TransitionStatusCommand{
		OrderID: "order-999", NewStatus: "paid",
	})
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestUpdateOrderStatus_PaidBooksDeferredLedger(t *testing.T) {
	f := newLedgerFixture(t, false)
	order := f.createOrder(t, "prod-1", 1)

	f.transition(t, order.ID, models.OrderStatusPaid)

	wallet := f.wallet(t, "seller-1")
	assert.True(t, wallet.Pending.Equal(decimal.NewFromInt(950)))
	assert.True(t, wallet.Balance.IsZero())

	// Shipping is status-only, no wallet effect.
	f.transition(t, order.ID, models.OrderStatusShipped)
	wallet = f.wallet(t, "seller-1")
	assert.True(t, wallet.Pending.Equal(decimal.NewFromInt(950)))
	assert.True(t, wallet.Balance.IsZero())
}

func TestUpdateOrderStatus_DeliveredReleasesEarnings(t *testing.T) {
	f := newLedgerFixture(t, false)
	order := f.createOrder(t, "prod-1", 1)
	f.transition(t, order.ID, models.OrderStatusPaid)
	f.transition(t, order.ID, models.OrderStatusShipped)

	f.transition(t, order.ID, models.OrderStatusDelivered)

	// 950 moved from pending to balance, exactly once.
	wallet := f.wallet(t, "seller-1")
	assert.True(t, wallet.Pending.IsZero(), "pending: %s", wallet.Pending)
	assert.True(t, wallet.Balance.Equal(decimal.NewFromInt(950)), "balance: %s", wallet.Balance)

	// One credit entry documents the release; the original pending entry
	// is retagged processed.
	txs, err := f.txLog.ListByOrder(order.ID)
	require.NoError(t, err)
	var credits, processed, pending int
	for _, tx := range txs {
		switch tx.Type {
		case models.TransactionCredit:
			credits++
			assert.True(t, tx.Amount.Equal(decimal.NewFromInt(950)))
		case models.TransactionProcessed:
			processed++
		case models.TransactionPending:
			pending++
		}
	}
	assert.Equal(t, 1, credits)
	assert.Equal(t, 1, processed)
	assert.Equal(t, 0, pending)

	// A second delivered transition is rejected by the state machine and
	// must not touch the wallet.
	_, err = f.service.UpdateOrderStatus(services.TransitionStatusCommand{
		OrderID: order.ID, NewStatus: "delivered",
	})
	assert.ErrorIs(t, err, services.ErrInvalidTransition)
	wallet = f.wallet(t, "seller-1")
	assert.True(t, wallet.Balance.Equal(decimal.NewFromInt(950)))
	assert.True(t, wallet.Pending.IsZero())
}

func TestUpdateOrderStatus_DeliveredWithoutPendingEntryIsNoOp(t *testing.T) {
	f := newLedgerFixture(t, false)

	// An order that predates ledger tracking: shipped, no ledger entries.
	order := &models.Order{
		ID:             "order-legacy",
		BuyerID:        "buyer-1",
		SellerID:       "seller-1",
		TotalAmount:    decimal.NewFromInt(500),
		TrackingNumber: "SPLEGACY01",
		Status:         models.OrderStatusShipped,
	}
	require.NoError(t, f.orders.Create(order))

	updated := f.transition(t, order.ID, models.OrderStatusDelivered)
	assert.Equal(t, models.OrderStatusDelivered, updated.Status)

	_, err := f.wallets.GetBySeller("seller-1")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestCancelOrder(t *testing.T) {
	f := newLedgerFixture(t, false)
	order := f.createOrder(t, "prod-2", 1)

	// Another buyer cannot cancel.
	_, err := f.service.CancelOrder(services.CancelOrderCommand{
		OrderID: order.ID, BuyerID: "buyer-2",
	})
	assert.ErrorIs(t, err, services.ErrForbidden)

	// The owning buyer can, while pending.
	cancelled, err := f.service.CancelOrder(services.CancelOrderCommand{
		OrderID: order.ID, BuyerID: "buyer-1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, cancelled.Status)

	// Cancelling twice fails: the order is no longer pending.
	_, err = f.service.CancelOrder(services.CancelOrderCommand{
		OrderID: order.ID, BuyerID: "buyer-1",
	})
	assert.ErrorIs(t, err, services.ErrInvalidTransition)

	// A shipped order cannot be cancelled.
	shipped := f.createOrder(t, "prod-2", 1)
	f.transition(t, shipped.ID, models.OrderStatusPaid)
	f.transition(t, shipped.ID, models.OrderStatusShipped)
	_, err = f.service.CancelOrder(services.CancelOrderCommand{
		OrderID: shipped.ID, BuyerID: "buyer-1",
	})
	assert.ErrorIs(t, err, services.ErrInvalidTransition)
}

func TestCancelOrder_DeferredBookingLeavesNothingToReverse(t *testing.T) {
	f := newLedgerFixture(t, false)
	order := f.createOrder(t, "prod-1", 1)

	_, err := f.service.CancelOrder(services.CancelOrderCommand{
		OrderID: order.ID, BuyerID: "buyer-1",
	})
	require.NoError(t, err)

	// Booking happens at payment, so a pending-state cancel leaves the
	// ledger and wallet untouched.
	txs, err := f.txLog.ListByOrder(order.ID)
	require.NoError(t, err)
	assert.Empty(t, txs)
	_, err = f.wallets.GetBySeller("seller-1")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestAddOrderItem(t *testing.T) {
	f := newLedgerFixture(t, false)
	order := f.createOrder(t, "prod-2", 1) // total 100

	// While the order is pending under deferred booking, adding an item
	// only grows the order; the paid transition books the full total.
	item, err := f.service.AddOrderItem(services.AddOrderItemCommand{
		OrderID:   order.ID,
		ProductID: "prod-2",
		Quantity:  2,
		Price:     decimal.NewFromInt(100),
	})
	require.NoError(t, err)
	assert.True(t, item.Price.Equal(decimal.NewFromInt(100)))

	stored, err := f.orders.GetByID(order.ID)
	require.NoError(t, err)
	assert.True(t, stored.TotalAmount.Equal(decimal.NewFromInt(300)), "total: %s", stored.TotalAmount)
	txs, err := f.txLog.ListByOrder(order.ID)
	require.NoError(t, err)
	assert.Empty(t, txs)

	// Paying books the whole current total: 300 -> credit 285.
	f.transition(t, order.ID, models.OrderStatusPaid)
	wallet := f.wallet(t, "seller-1")
	assert.True(t, wallet.Pending.Equal(decimal.NewFromInt(285)), "pending: %s", wallet.Pending)

	// An item added after payment books its own split immediately.
	_, err = f.service.AddOrderItem(services.AddOrderItemCommand{
		OrderID:   order.ID,
		ProductID: "prod-2",
		Quantity:  1, // price snapshotted from the catalog: 100
	})
	require.NoError(t, err)
	wallet = f.wallet(t, "seller-1")
	assert.True(t, wallet.Pending.Equal(decimal.NewFromInt(380)), "pending: %s", wallet.Pending)

	pendingTxs, err := f.txLog.FindPendingByOrder(order.ID)
	require.NoError(t, err)
	assert.Len(t, pendingTxs, 2)

	// Delivered releases everything still pending for the order.
	f.transition(t, order.ID, models.OrderStatusShipped)
	f.transition(t, order.ID, models.OrderStatusDelivered)
	wallet = f.wallet(t, "seller-1")
	assert.True(t, wallet.Pending.IsZero())
	assert.True(t, wallet.Balance.Equal(decimal.NewFromInt(380)), "balance: %s", wallet.Balance)
}

func TestAddOrderItem_Rejections(t *testing.T) {
	f := newLedgerFixture(t, false)
	order := f.createOrder(t, "prod-2", 1)

	_, err := f.service.AddOrderItem(services.AddOrderItemCommand{
		OrderID:   order.ID,
		ProductID: "prod-2",
		Quantity:  1,
		Price:     decimal.NewFromInt(-1),
	})
	assert.ErrorIs(t, err, services.ErrValidation)

	_, err = f.service.AddOrderItem(services.AddOrderItemCommand{
		OrderID:   "order-999",
		ProductID: "prod-2",
		Quantity:  1,
	})
	assert.ErrorIs(t, err, services.ErrNotFound)

	_, cancelErr := f.service.CancelOrder(services.CancelOrderCommand{
		OrderID: order.ID, BuyerID: "buyer-1",
	})
	require.NoError(t, cancelErr)
	_, err = f.service.AddOrderItem(services.AddOrderItemCommand{
		OrderID:   order.ID,
		ProductID: "prod-2",
		Quantity:  1,
	})
	assert.ErrorIs(t, err, services.ErrInvalidTransition)
}

// Two orders created concurrently for the same brand-new seller must both
// land in the wallet: the lost-update race on pending is the regression
// this guards against.
func TestConcurrentOrderCreation_NoLostUpdate(t *testing.T) {
	f := newLedgerFixture(t, true)

	const n = 10
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.service.CreateOrder(services.CreateOrderCommand{
				BuyerID:       "buyer-1",
				SellerID:      "seller-1",
				Items:         []services.OrderItemLine{{ProductID: "prod-2", Quantity: 1}},
				PaymentMethod: "card",
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	// Each 100-total order credits 95 pending; all n must be there.
	wallet := f.wallet(t, "seller-1")
	want := decimal.NewFromInt(95 * n)
	assert.True(t, wallet.Pending.Equal(want), "pending: %s, want %s", wallet.Pending, want)
}

func TestTrackingNumbersAreUnique(t *testing.T) {
	f := newLedgerFixture(t, false)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		order := f.createOrder(t, "prod-2", 1)
		assert.True(t, strings.HasPrefix(order.TrackingNumber, "SP"))
		assert.False(t, seen[order.TrackingNumber], "duplicate tracking number %s", order.TrackingNumber)
		seen[order.TrackingNumber] = true
	}
}

// Ledger/wallet consistency: pending + balance must equal the sum of the
// seller's live pending entries plus all credit entries.
func TestLedgerWalletConsistency(t *testing.T) {
	f := newLedgerFixture(t, false)

	first := f.createOrder(t, "prod-1", 1)
	second := f.createOrder(t, "prod-2", 2)
	f.transition(t, first.ID, models.OrderStatusPaid)
	f.transition(t, second.ID, models.OrderStatusPaid)
	f.transition(t, first.ID, models.OrderStatusShipped)
	f.transition(t, first.ID, models.OrderStatusDelivered)

	wallet := f.wallet(t, "seller-1")
	txs, err := f.txLog.ListBySeller("seller-1")
	require.NoError(t, err)

	ledgerTotal := decimal.Zero
	for _, tx := range txs {
		if tx.Type == models.TransactionPending || tx.Type == models.TransactionCredit {
			ledgerTotal = ledgerTotal.Add(tx.Amount)
		}
	}
	walletTotal := wallet.Pending.Add(wallet.Balance)
	assert.True(t, walletTotal.Equal(ledgerTotal),
		"wallet %s != ledger %s", walletTotal, ledgerTotal)
}

func TestTrackOrderAndCanReview(t *testing.T) {
	f := newLedgerFixture(t, false)
	order := f.createOrder(t, "prod-1", 1)

	tracked, err := f.service.TrackOrder(order.TrackingNumber)
	require.NoError(t, err)
	assert.Equal(t, order.ID, tracked.ID)

	_, err = f.service.TrackOrder("SPMISSING1")
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	canReview, err := f.service.CanReview("buyer-1", "prod-1")
	require.NoError(t, err)
	assert.True(t, canReview)

	canReview, err = f.service.CanReview("buyer-1", "prod-2")
	require.NoError(t, err)
	assert.False(t, canReview)

	canReview, err = f.service.CanReview("buyer-2", "prod-1")
	require.NoError(t, err)
	assert.False(t, canReview)
}
