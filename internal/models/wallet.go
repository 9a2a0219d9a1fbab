package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType tags a wallet transaction in the ledger.
type TransactionType string

const (
	// TransactionPending records seller earnings not yet released for payout.
	TransactionPending TransactionType = "pending"
	// TransactionCredit records the release of pending earnings into the
	// payable balance.
	TransactionCredit TransactionType = "credit"
	// TransactionProcessed is the terminal retag of a pending entry after
	// its amount has been released. This is the only mutation the ledger
	// ever allows.
	TransactionProcessed TransactionType = "processed"
)

// SellerWallet is the single running balance record for one seller.
// Balance holds payable funds, Pending holds funds earned but not yet
// released. Neither field may go negative; all mutations go through the
// wallet repository's atomic operations.
type SellerWallet struct {
	ID        string          `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	SellerID  string          `json:"seller_id" gorm:"uniqueIndex;type:varchar(36)" validate:"required"`
	Balance   decimal.Decimal `json:"balance" gorm:"type:decimal(14,2)"`
	Pending   decimal.Decimal `json:"pending" gorm:"type:decimal(14,2)"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// WalletTransaction is one append-only ledger entry for a wallet-affecting
// event, tagged by type and order reference.
type WalletTransaction struct {
	ID          string          `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	SellerID    string          `json:"seller_id" gorm:"index;type:varchar(36)" validate:"required"`
	OrderID     string          `json:"order_id" gorm:"index;type:varchar(36)" validate:"required"`
	Type        TransactionType `json:"type" gorm:"type:varchar(20)"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:decimal(14,2)"`
	Description string          `json:"description" gorm:"type:varchar(255)"`
	CreatedAt   time.Time       `json:"created_at"`
}

// PlatformRevenue is one commission event. Append-only, never mutated.
type PlatformRevenue struct {
	ID        string          `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	OrderID   string          `json:"order_id" gorm:"index;type:varchar(36)" validate:"required"`
	SellerID  string          `json:"seller_id" gorm:"index;type:varchar(36)" validate:"required"`
	Amount    decimal.Decimal `json:"amount" gorm:"type:decimal(14,2)"`
	CreatedAt time.Time       `json:"created_at"`
}
