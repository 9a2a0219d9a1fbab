package repositories

import (
	"pasar/internal/models"

	"github.com/shopspring/decimal"
)

// WalletRepository defines the interface for seller wallet data access.
// Mutations must be atomic relative to the stored value: two requests
// crediting the same seller concurrently must both land (no lost update).
type WalletRepository interface {
	GetBySeller(sellerID string) (*models.SellerWallet, error)
	Create(wallet *models.SellerWallet) error
	// IncrementPending atomically adds delta to the seller's pending
	// amount, creating the wallet with balance=0 if it does not exist yet.
	IncrementPending(sellerID string, delta decimal.Decimal) error
	// ReleasePending atomically moves amount from pending to balance.
	// Returns ErrInsufficientPending if the stored pending amount is less
	// than amount, and ErrNotFound if the wallet does not exist.
	ReleasePending(sellerID string, amount decimal.Decimal) error
}

// TransactionLogRepository is the append-only ledger of wallet-affecting
// events. Entries are immutable once written, except for the single
// pending -> processed retag performed by MarkProcessed.
type TransactionLogRepository interface {
	Record(tx *models.WalletTransaction) error
	ListBySeller(sellerID string) ([]models.WalletTransaction, error)
	ListByOrder(orderID string) ([]models.WalletTransaction, error)
	FindPendingByOrder(orderID string) ([]models.WalletTransaction, error)
	MarkProcessed(ids []string) error
}

// PlatformRevenueRepository records the platform's commission take.
// Append-only, never mutated.
type PlatformRevenueRepository interface {
	Record(rev *models.PlatformRevenue) error
	ListBySeller(sellerID string) ([]models.PlatformRevenue, error)
}
