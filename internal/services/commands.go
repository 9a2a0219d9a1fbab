package services

import (
	"github.com/shopspring/decimal"
)

// Typed commands for every order-affecting operation. Each command is
// validated before it reaches the lifecycle logic; nothing request-shaped
// travels further than the handler.

// OrderItemLine is one requested product line at checkout. The unit price
// is snapshotted from the catalog, never taken from the request.
type OrderItemLine struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// CreateOrderCommand creates an order for the authenticated buyer.
type CreateOrderCommand struct {
	BuyerID         string          `json:"-" validate:"required"`
	SellerID        string          `json:"seller_id" validate:"required"`
	StoreID         string          `json:"store_id"`
	Items           []OrderItemLine `json:"items" validate:"required,min=1,dive"`
	PaymentMethod   string          `json:"payment_method" validate:"required"`
	ShippingAddress string          `json:"shipping_address"`
}

// TransitionStatusCommand moves an order to a new lifecycle status.
type TransitionStatusCommand struct {
	OrderID   string `json:"-" validate:"required"`
	NewStatus string `json:"status" validate:"required"`
}

// CancelOrderCommand cancels a pending order on behalf of its buyer.
type CancelOrderCommand struct {
	OrderID string `json:"-" validate:"required"`
	BuyerID string `json:"-" validate:"required"`
}

// AddOrderItemCommand appends a product line to an existing order, for
// flows that build orders up incrementally. Price zero means "snapshot the
// current catalog price".
type AddOrderItemCommand struct {
	OrderID   string          `json:"order_id" validate:"required"`
	ProductID string          `json:"product_id" validate:"required"`
	Quantity  int             `json:"quantity" validate:"required,gt=0"`
	Price     decimal.Decimal `json:"price"`
}
