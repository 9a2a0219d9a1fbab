package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// IsValid reports whether s is one of the known order statuses.
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether an order in this status can never change again.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// Order represents a single purchase transaction between a buyer and a seller.
type Order struct {
	ID              string          `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	BuyerID         string          `json:"buyer_id" gorm:"index;type:varchar(36)" validate:"required"`
	SellerID        string          `json:"seller_id" gorm:"index;type:varchar(36)" validate:"required"`
	StoreID         string          `json:"store_id" gorm:"type:varchar(36)"`
	TotalAmount     decimal.Decimal `json:"total_amount" gorm:"type:decimal(14,2)"`
	PaymentMethod   string          `json:"payment_method" gorm:"type:varchar(50)"`
	ShippingAddress string          `json:"shipping_address" gorm:"type:varchar(500)"`
	TrackingNumber  string          `json:"tracking_number" gorm:"uniqueIndex;type:varchar(20)"`
	Status          OrderStatus     `json:"status" gorm:"type:varchar(20);default:pending"`
	Items           []OrderItem     `json:"items,omitempty" gorm:"foreignKey:OrderID"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// OrderItem is one product line within an order. Price is a snapshot taken
// at purchase time; the row is immutable once written.
type OrderItem struct {
	ID        string          `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	OrderID   string          `json:"order_id" gorm:"index;type:varchar(36)" validate:"required"`
	ProductID string          `json:"product_id" gorm:"index;type:varchar(36)" validate:"required"`
	Quantity  int             `json:"quantity" validate:"required,gt=0"`
	Price     decimal.Decimal `json:"price" gorm:"type:decimal(14,2)"`
	CreatedAt time.Time       `json:"created_at"`
}

// LineTotal returns price * quantity for this item.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
