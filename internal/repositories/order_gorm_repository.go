package repositories

import (
	"errors"
	"fmt"

	"pasar/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{
		db: db,
	}
}

// GetAll retrieves all orders, newest first.
func (r *GORMOrderRepository) GetAll() ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to get all orders: %w", err)
	}
	return orders, nil
}

// GetByID retrieves a single order with its items.
func (r *GORMOrderRepository) GetByID(id string) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items").First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get order by ID %s: %w", id, err)
	}
	return &order, nil
}

// GetByBuyer retrieves a buyer's orders with items, newest first.
func (r *GORMOrderRepository) GetByBuyer(buyerID string) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.Preload("Items").Where("buyer_id = ?", buyerID).
		Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to get orders for buyer %s: %w", buyerID, err)
	}
	return orders, nil
}

// GetBySeller retrieves a seller's orders, newest first.
func (r *GORMOrderRepository) GetBySeller(sellerID string) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.Where("seller_id = ?", sellerID).
		Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to get orders for seller %s: %w", sellerID, err)
	}
	return orders, nil
}

// GetByTrackingNumber retrieves an order by its tracking number.
func (r *GORMOrderRepository) GetByTrackingNumber(trackingNumber string) (*models.Order, error) {
	var order models.Order
	if err := r.db.First(&order, "tracking_number = ?", trackingNumber).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order with tracking number %s: %w", trackingNumber, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get order by tracking number %s: %w", trackingNumber, err)
	}
	return &order, nil
}

// Create persists the order and its items in one transaction.
func (r *GORMOrderRepository) Create(order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	for i := range order.Items {
		if order.Items[i].ID == "" {
			order.Items[i].ID = uuid.New().String()
		}
		order.Items[i].OrderID = order.ID
	}
	if err := r.db.Create(order).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("failed to create order: %w", ErrDuplicate)
		}
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// UpdateStatus performs a guarded status transition. The WHERE clause
// carries the expected current status so a concurrent transition loses
// cleanly instead of overwriting.
func (r *GORMOrderRepository) UpdateStatus(id string, from, to models.OrderStatus) error {
	res := r.db.Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return fmt.Errorf("failed to update status for order %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := r.db.Model(&models.Order{}).Where("id = ?", id).Count(&count).Error; err == nil && count == 0 {
			return fmt.Errorf("order with ID %s: %w", id, ErrNotFound)
		}
		return fmt.Errorf("order %s is no longer %s: %w", id, from, ErrStaleStatus)
	}
	return nil
}

// AddItem inserts the item and bumps the order total by delta atomically.
func (r *GORMOrderRepository) AddItem(item *models.OrderItem, delta decimal.Decimal) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(item).Error; err != nil {
			return err
		}
		res := tx.Model(&models.Order{}).
			Where("id = ?", item.OrderID).
			UpdateColumn("total_amount", gorm.Expr("total_amount + ?", delta))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("order with ID %s: %w", item.OrderID, ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to add item to order %s: %w", item.OrderID, err)
	}
	return nil
}

// GetItems retrieves the items of an order.
func (r *GORMOrderRepository) GetItems(orderID string) ([]models.OrderItem, error) {
	var items []models.OrderItem
	if err := r.db.Where("order_id = ?", orderID).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to get items for order %s: %w", orderID, err)
	}
	return items, nil
}

// HasItemForProduct reports whether the buyer ever purchased the product.
func (r *GORMOrderRepository) HasItemForProduct(buyerID, productID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.buyer_id = ? AND order_items.product_id = ?", buyerID, productID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check purchases of product %s for buyer %s: %w", productID, buyerID, err)
	}
	return count > 0, nil
}

// ListByStatuses returns orders currently in any of the given statuses.
func (r *GORMOrderRepository) ListByStatuses(statuses []models.OrderStatus) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.Where("status IN ?", statuses).Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders by status: %w", err)
	}
	return orders, nil
}
