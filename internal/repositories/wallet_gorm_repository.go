package repositories

import (
	"errors"
	"fmt"

	"pasar/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GORMWalletRepository is a GORM implementation of WalletRepository.
// Both mutating operations are single UPDATE statements built with
// gorm.Expr so the arithmetic happens in the database, not in application
// code. A read-modify-write here would lose updates under concurrent
// order traffic for the same seller.
type GORMWalletRepository struct {
	db *gorm.DB
}

// NewGORMWalletRepository creates a new instance of GORMWalletRepository.
func NewGORMWalletRepository(db *gorm.DB) *GORMWalletRepository {
	return &GORMWalletRepository{
		db: db,
	}
}

// GetBySeller retrieves a seller's wallet.
func (r *GORMWalletRepository) GetBySeller(sellerID string) (*models.SellerWallet, error) {
	var wallet models.SellerWallet
	if err := r.db.First(&wallet, "seller_id = ?", sellerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("wallet for seller %s: %w", sellerID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get wallet for seller %s: %w", sellerID, err)
	}
	return &wallet, nil
}

// Create creates a new wallet record.
func (r *GORMWalletRepository) Create(wallet *models.SellerWallet) error {
	if wallet.ID == "" {
		wallet.ID = uuid.New().String()
	}
	if err := r.db.Create(wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("wallet for seller %s already exists: %w", wallet.SellerID, ErrDuplicate)
		}
		return fmt.Errorf("failed to create wallet for seller %s: %w", wallet.SellerID, err)
	}
	return nil
}

// IncrementPending atomically adds delta to the seller's pending amount.
// The wallet is created lazily on the first earning event; a concurrent
// creator winning the insert just means our retry increments instead.
func (r *GORMWalletRepository) IncrementPending(sellerID string, delta decimal.Decimal) error {
	res := r.db.Model(&models.SellerWallet{}).
		Where("seller_id = ?", sellerID).
		UpdateColumn("pending", gorm.Expr("pending + ?", delta))
	if res.Error != nil {
		return fmt.Errorf("failed to increment pending for seller %s: %w", sellerID, res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	err := r.Create(&models.SellerWallet{
		SellerID: sellerID,
		Balance:  decimal.Zero,
		Pending:  delta,
	})
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrDuplicate) {
		return err
	}

	// Lost the creation race; the row exists now.
	res = r.db.Model(&models.SellerWallet{}).
		Where("seller_id = ?", sellerID).
		UpdateColumn("pending", gorm.Expr("pending + ?", delta))
	if res.Error != nil {
		return fmt.Errorf("failed to increment pending for seller %s: %w", sellerID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("wallet for seller %s: %w", sellerID, ErrNotFound)
	}
	return nil
}

// ReleasePending atomically moves amount from pending to balance. The
// pending >= amount guard in the WHERE clause keeps pending from going
// negative even when two releases race.
func (r *GORMWalletRepository) ReleasePending(sellerID string, amount decimal.Decimal) error {
	res := r.db.Model(&models.SellerWallet{}).
		Where("seller_id = ? AND pending >= ?", sellerID, amount).
		UpdateColumns(map[string]interface{}{
			"pending": gorm.Expr("pending - ?", amount),
			"balance": gorm.Expr("balance + ?", amount),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to release pending for seller %s: %w", sellerID, res.Error)
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := r.db.Model(&models.SellerWallet{}).Where("seller_id = ?", sellerID).Count(&count).Error; err == nil && count == 0 {
			return fmt.Errorf("wallet for seller %s: %w", sellerID, ErrNotFound)
		}
		return fmt.Errorf("cannot release %s for seller %s: %w", amount, sellerID, ErrInsufficientPending)
	}
	return nil
}

// GORMTransactionLogRepository is a GORM implementation of
// TransactionLogRepository.
type GORMTransactionLogRepository struct {
	db *gorm.DB
}

// NewGORMTransactionLogRepository creates a new instance of
// GORMTransactionLogRepository.
func NewGORMTransactionLogRepository(db *gorm.DB) *GORMTransactionLogRepository {
	return &GORMTransactionLogRepository{
		db: db,
	}
}

// Record appends one ledger entry.
func (r *GORMTransactionLogRepository) Record(tx *models.WalletTransaction) error {
	if tx.ID == "" {
		tx.ID = uuid.New().String()
	}
	if err := r.db.Create(tx).Error; err != nil {
		return fmt.Errorf("failed to record wallet transaction for order %s: %w", tx.OrderID, err)
	}
	return nil
}

// ListBySeller returns a seller's ledger entries, newest first.
func (r *GORMTransactionLogRepository) ListBySeller(sellerID string) ([]models.WalletTransaction, error) {
	var txs []models.WalletTransaction
	if err := r.db.Where("seller_id = ?", sellerID).
		Order("created_at DESC").Find(&txs).Error; err != nil {
		return nil, fmt.Errorf("failed to list transactions for seller %s: %w", sellerID, err)
	}
	return txs, nil
}

// ListByOrder returns every ledger entry referencing an order.
func (r *GORMTransactionLogRepository) ListByOrder(orderID string) ([]models.WalletTransaction, error) {
	var txs []models.WalletTransaction
	if err := r.db.Where("order_id = ?", orderID).Find(&txs).Error; err != nil {
		return nil, fmt.Errorf("failed to list transactions for order %s: %w", orderID, err)
	}
	return txs, nil
}

// FindPendingByOrder returns the order's not-yet-released pending entries.
func (r *GORMTransactionLogRepository) FindPendingByOrder(orderID string) ([]models.WalletTransaction, error) {
	var txs []models.WalletTransaction
	if err := r.db.Where("order_id = ? AND type = ?", orderID, models.TransactionPending).
		Find(&txs).Error; err != nil {
		return nil, fmt.Errorf("failed to find pending transactions for order %s: %w", orderID, err)
	}
	return txs, nil
}

// MarkProcessed retags released pending entries. This is the only update
// the ledger permits.
func (r *GORMTransactionLogRepository) MarkProcessed(ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	res := r.db.Model(&models.WalletTransaction{}).
		Where("id IN ? AND type = ?", ids, models.TransactionPending).
		Update("type", models.TransactionProcessed)
	if res.Error != nil {
		return fmt.Errorf("failed to mark transactions processed: %w", res.Error)
	}
	return nil
}

// GORMPlatformRevenueRepository is a GORM implementation of
// PlatformRevenueRepository.
type GORMPlatformRevenueRepository struct {
	db *gorm.DB
}

// NewGORMPlatformRevenueRepository creates a new instance of
// GORMPlatformRevenueRepository.
func NewGORMPlatformRevenueRepository(db *gorm.DB) *GORMPlatformRevenueRepository {
	return &GORMPlatformRevenueRepository{
		db: db,
	}
}

// Record appends one commission row.
func (r *GORMPlatformRevenueRepository) Record(rev *models.PlatformRevenue) error {
	if rev.ID == "" {
		rev.ID = uuid.New().String()
	}
	if err := r.db.Create(rev).Error; err != nil {
		return fmt.Errorf("failed to record platform revenue for order %s: %w", rev.OrderID, err)
	}
	return nil
}

// ListBySeller returns the commission rows attributed to a seller.
func (r *GORMPlatformRevenueRepository) ListBySeller(sellerID string) ([]models.PlatformRevenue, error) {
	var revs []models.PlatformRevenue
	if err := r.db.Where("seller_id = ?", sellerID).
		Order("created_at DESC").Find(&revs).Error; err != nil {
		return nil, fmt.Errorf("failed to list platform revenue for seller %s: %w", sellerID, err)
	}
	return revs, nil
}
