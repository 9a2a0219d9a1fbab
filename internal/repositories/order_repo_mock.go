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

// MockOrderRepository is an in-memory implementation of OrderRepository.
type MockOrderRepository struct {
	orders map[string]models.Order
	items  map[string][]models.OrderItem
	mu     sync.RWMutex
}

// NewMockOrderRepository creates a new instance of MockOrderRepository.
func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		orders: make(map[string]models.Order),
		items:  make(map[string][]models.OrderItem),
	}
}

// GetAll returns all orders, newest first.
func (r *MockOrderRepository) GetAll() ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orderList := make([]models.Order, 0, len(r.orders))
	for _, order := range r.orders {
		orderList = append(orderList, order)
	}
	sort.Slice(orderList, func(i, j int) bool {
		return orderList[i].CreatedAt.After(orderList[j].CreatedAt)
	})
	return orderList, nil
}

// GetByID returns an order by its ID with its items.
func (r *MockOrderRepository) GetByID(id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("order with ID %s: %w", id, ErrNotFound)
	}
	order.Items = append([]models.OrderItem(nil), r.items[id]...)
	return &order, nil
}

// GetByBuyer returns a buyer's orders.
func (r *MockOrderRepository) GetByBuyer(buyerID string) ([]models.Order, error) {
	return r.filter(func(o models.Order) bool { return o.BuyerID == buyerID })
}

// GetBySeller returns a seller's orders.
func (r *MockOrderRepository) GetBySeller(sellerID string) ([]models.Order, error) {
	return r.filter(func(o models.Order) bool { return o.SellerID == sellerID })
}

func (r *MockOrderRepository) filter(keep func(models.Order) bool) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var orderList []models.Order
	for _, order := range r.orders {
		if keep(order) {
			order.Items = append([]models.OrderItem(nil), r.items[order.ID]...)
			orderList = append(orderList, order)
		}
	}
	sort.Slice(orderList, func(i, j int) bool {
		return orderList[i].CreatedAt.After(orderList[j].CreatedAt)
	})
	return orderList, nil
}

// GetByTrackingNumber returns the order carrying the tracking number.
func (r *MockOrderRepository) GetByTrackingNumber(trackingNumber string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, order := range r.orders {
		if order.TrackingNumber == trackingNumber {
			return &order, nil
		}
	}
	return nil, fmt.Errorf("order with tracking number %s: %w", trackingNumber, ErrNotFound)
}

// Create adds a new order with its items.
func (r *MockOrderRepository) Create(order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	for _, existing := range r.orders {
		if existing.TrackingNumber == order.TrackingNumber {
			return fmt.Errorf("failed to create order: %w", ErrDuplicate)
		}
	}
	order.CreatedAt = time.Now()
	order.UpdatedAt = time.Now()
	for i := range order.Items {
		if order.Items[i].ID == "" {
			order.Items[i].ID = uuid.New().String()
		}
		order.Items[i].OrderID = order.ID
		order.Items[i].CreatedAt = time.Now()
	}
	r.items[order.ID] = append([]models.OrderItem(nil), order.Items...)

	stored := *order
	stored.Items = nil
	r.orders[order.ID] = stored
	return nil
}

// UpdateStatus performs a guarded status transition.
func (r *MockOrderRepository) UpdateStatus(id string, from, to models.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return fmt.Errorf("order with ID %s: %w", id, ErrNotFound)
	}
	if order.Status != from {
		return fmt.Errorf("order %s is no longer %s: %w", id, from, ErrStaleStatus)
	}
	order.Status = to
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return nil
}

// AddItem inserts the item and bumps the order total.
func (r *MockOrderRepository) AddItem(item *models.OrderItem, delta decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[item.OrderID]
	if !ok {
		return fmt.Errorf("order with ID %s: %w", item.OrderID, ErrNotFound)
	}
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	item.CreatedAt = time.Now()
	r.items[item.OrderID] = append(r.items[item.OrderID], *item)

	order.TotalAmount = order.TotalAmount.Add(delta)
	order.UpdatedAt = time.Now()
	r.orders[item.OrderID] = order
	return nil
}

// GetItems returns the items of an order.
func (r *MockOrderRepository) GetItems(orderID string) ([]models.OrderItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]models.OrderItem(nil), r.items[orderID]...), nil
}

// HasItemForProduct reports whether the buyer ever purchased the product.
func (r *MockOrderRepository) HasItemForProduct(buyerID, productID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for orderID, items := range r.items {
		order, ok := r.orders[orderID]
		if !ok || order.BuyerID != buyerID {
			continue
		}
		for _, item := range items {
			if item.ProductID == productID {
				return true, nil
			}
		}
	}
	return false, nil
}

// ListByStatuses returns orders currently in any of the given statuses.
func (r *MockOrderRepository) ListByStatuses(statuses []models.OrderStatus) ([]models.Order, error) {
	return r.filter(func(o models.Order) bool {
		for _, s := range statuses {
			if o.Status == s {
				return true
			}
		}
		return false
	})
}
