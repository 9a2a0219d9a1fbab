package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents a catalog listing. The catalog is the authoritative
// source of unit prices; order items snapshot the price at purchase time.
type Product struct {
	ID          string          `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	SellerID    string          `json:"seller_id" gorm:"index;type:varchar(36)"`
	StoreID     string          `json:"store_id" gorm:"type:varchar(36)"`
	Name        string          `json:"name" validate:"required,min=3,max=100"`
	Description string          `json:"description" validate:"omitempty,max=500"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(14,2)"`
	Stock       int             `json:"stock" validate:"gte=0"`
	gorm.Model                  // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}
