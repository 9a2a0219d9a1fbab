package services

import (
	"errors"

	"pasar/internal/models"
	"pasar/internal/repositories"

	"github.com/shopspring/decimal"
)

// WalletService is the read-only surface over seller earnings. All wallet
// mutations belong to the order lifecycle controller.
type WalletService struct {
	walletRepo  repositories.WalletRepository
	txLogRepo   repositories.TransactionLogRepository
	revenueRepo repositories.PlatformRevenueRepository
}

// NewWalletService creates a new WalletService.
func NewWalletService(
	walletRepo repositories.WalletRepository,
	txLogRepo repositories.TransactionLogRepository,
	revenueRepo repositories.PlatformRevenueRepository,
) *WalletService {
	return &WalletService{
		walletRepo:  walletRepo,
		txLogRepo:   txLogRepo,
		revenueRepo: revenueRepo,
	}
}

// GetWallet returns the seller's wallet. A seller who has never earned
// anything gets a zero-valued wallet rather than an error; the real record
// is created lazily by the first earning event.
func (s *WalletService) GetWallet(sellerID string) (*models.SellerWallet, error) {
	wallet, err := s.walletRepo.GetBySeller(sellerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return &models.SellerWallet{
				SellerID: sellerID,
				Balance:  decimal.Zero,
				Pending:  decimal.Zero,
			}, nil
		}
		return nil, err
	}
	return wallet, nil
}

// GetTransactions returns the seller's ledger entries, newest first.
func (s *WalletService) GetTransactions(sellerID string) ([]models.WalletTransaction, error) {
	return s.txLogRepo.ListBySeller(sellerID)
}

// GetRevenue returns the platform commission rows attributed to a seller.
func (s *WalletService) GetRevenue(sellerID string) ([]models.PlatformRevenue, error) {
	return s.revenueRepo.ListBySeller(sellerID)
}
