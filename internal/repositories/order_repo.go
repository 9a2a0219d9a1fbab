package repositories

import (
	"pasar/internal/models"

	"github.com/shopspring/decimal"
)

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	GetAll() ([]models.Order, error)
	GetByID(id string) (*models.Order, error)
	GetByBuyer(buyerID string) ([]models.Order, error)
	GetBySeller(sellerID string) ([]models.Order, error)
	GetByTrackingNumber(trackingNumber string) (*models.Order, error)
	Create(order *models.Order) error
	// UpdateStatus moves an order from one status to another. The current
	// status is part of the match: if the stored status is no longer `from`
	// the update affects no row and ErrStaleStatus is returned. This keeps
	// concurrent transitions on the same order from clobbering each other.
	UpdateStatus(id string, from, to models.OrderStatus) error
	// AddItem inserts the item and increments the owning order's total by
	// delta in the same transaction.
	AddItem(item *models.OrderItem, delta decimal.Decimal) error
	GetItems(orderID string) ([]models.OrderItem, error)
	// HasItemForProduct reports whether the buyer has ever ordered the
	// given product (review eligibility).
	HasItemForProduct(buyerID, productID string) (bool, error)
	// ListByStatuses returns orders currently in any of the given statuses.
	// Used by the reconciliation job to find candidates for re-booking.
	ListByStatuses(statuses []models.OrderStatus) ([]models.Order, error)
}
