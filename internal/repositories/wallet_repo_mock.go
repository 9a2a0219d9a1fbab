package repositories

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"pasar/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MockWalletRepository is an in-memory implementation of WalletRepository.
// Mutations happen under a single mutex so the implementation honors the
// same no-lost-update contract as the database-backed one.
type MockWalletRepository struct {
	wallets map[string]models.SellerWallet // keyed by seller ID
	mu      sync.Mutex
}

// NewMockWalletRepository creates a new instance of MockWalletRepository.
func NewMockWalletRepository() *MockWalletRepository {
	return &MockWalletRepository{
		wallets: make(map[string]models.SellerWallet),
	}
}

// GetBySeller returns a seller's wallet.
func (r *MockWalletRepository) GetBySeller(sellerID string) (*models.SellerWallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	wallet, ok := r.wallets[sellerID]
	if !ok {
		return nil, fmt.Errorf("wallet for seller %s: %w", sellerID, ErrNotFound)
	}
	return &wallet, nil
}

// Create creates a new wallet record.
func (r *MockWalletRepository) Create(wallet *models.SellerWallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.wallets[wallet.SellerID]; ok {
		return fmt.Errorf("wallet for seller %s already exists: %w", wallet.SellerID, ErrDuplicate)
	}
	if wallet.ID == "" {
		wallet.ID = uuid.New().String()
	}
	wallet.CreatedAt = time.Now()
	wallet.UpdatedAt = time.Now()
	r.wallets[wallet.SellerID] = *wallet
	return nil
}

// IncrementPending atomically adds delta to the seller's pending amount,
// creating the wallet on first use.
func (r *MockWalletRepository) IncrementPending(sellerID string, delta decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	wallet, ok := r.wallets[sellerID]
	if !ok {
		wallet = models.SellerWallet{
			ID:        uuid.New().String(),
			SellerID:  sellerID,
			Balance:   decimal.Zero,
			Pending:   decimal.Zero,
			CreatedAt: time.Now(),
		}
	}
	wallet.Pending = wallet.Pending.Add(delta)
	wallet.UpdatedAt = time.Now()
	r.wallets[sellerID] = wallet
	return nil
}

// ReleasePending atomically moves amount from pending to balance.
func (r *MockWalletRepository) ReleasePending(sellerID string, amount decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	wallet, ok := r.wallets[sellerID]
	if !ok {
		return fmt.Errorf("wallet for seller %s: %w", sellerID, ErrNotFound)
	}
	if wallet.Pending.LessThan(amount) {
		return fmt.Errorf("cannot release %s for seller %s: %w", amount, sellerID, ErrInsufficientPending)
	}
	wallet.Pending = wallet.Pending.Sub(amount)
	wallet.Balance = wallet.Balance.Add(amount)
	wallet.UpdatedAt = time.Now()
	r.wallets[sellerID] = wallet
	return nil
}

// MockTransactionLogRepository is an in-memory implementation of
// TransactionLogRepository.
type MockTransactionLogRepository struct {
	txs []models.WalletTransaction
	mu  sync.RWMutex
}

// NewMockTransactionLogRepository creates a new instance of
// MockTransactionLogRepository.
func NewMockTransactionLogRepository() *MockTransactionLogRepository {
	return &MockTransactionLogRepository{}
}

// Record appends one ledger entry.
func (r *MockTransactionLogRepository) Record(tx *models.WalletTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if tx.ID == "" {
		tx.ID = uuid.New().String()
	}
	tx.CreatedAt = time.Now()
	r.txs = append(r.txs, *tx)
	return nil
}

// ListBySeller returns a seller's ledger entries, newest first.
func (r *MockTransactionLogRepository) ListBySeller(sellerID string) ([]models.WalletTransaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.WalletTransaction
	for _, tx := range r.txs {
		if tx.SellerID == sellerID {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ListByOrder returns every ledger entry referencing an order.
func (r *MockTransactionLogRepository) ListByOrder(orderID string) ([]models.WalletTransaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.WalletTransaction
	for _, tx := range r.txs {
		if tx.OrderID == orderID {
			out = append(out, tx)
		}
	}
	return out, nil
}

// FindPendingByOrder returns the order's not-yet-released pending entries.
func (r *MockTransactionLogRepository) FindPendingByOrder(orderID string) ([]models.WalletTransaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.WalletTransaction
	for _, tx := range r.txs {
		if tx.OrderID == orderID && tx.Type == models.TransactionPending {
			out = append(out, tx)
		}
	}
	return out, nil
}

// MarkProcessed retags released pending entries.
func (r *MockTransactionLogRepository) MarkProcessed(ids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idSet := make(map[string]bool, len(ids))
	for _, id := range ids {
		idSet[id] = true
	}
	for i := range r.txs {
		if idSet[r.txs[i].ID] && r.txs[i].Type == models.TransactionPending {
			r.txs[i].Type = models.TransactionProcessed
		}
	}
	return nil
}

// MockPlatformRevenueRepository is an in-memory implementation of
// PlatformRevenueRepository.
type MockPlatformRevenueRepository struct {
	revs []models.PlatformRevenue
	mu   sync.RWMutex
}

// NewMockPlatformRevenueRepository creates a new instance of
// MockPlatformRevenueRepository.
func NewMockPlatformRevenueRepository() *MockPlatformRevenueRepository {
	return &MockPlatformRevenueRepository{}
}

// Record appends one commission row.
func (r *MockPlatformRevenueRepository) Record(rev *models.PlatformRevenue) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rev.ID == "" {
		rev.ID = uuid.New().String()
	}
	rev.CreatedAt = time.Now()
	r.revs = append(r.revs, *rev)
	return nil
}

// ListBySeller returns the commission rows attributed to a seller.
func (r *MockPlatformRevenueRepository) ListBySeller(sellerID string) ([]models.PlatformRevenue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.PlatformRevenue
	for _, rev := range r.revs {
		if rev.SellerID == sellerID {
			out = append(out, rev)
		}
	}
	return out, nil
}
