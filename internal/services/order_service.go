package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"pasar/internal/models"
	"pasar/internal/repositories"
	"pasar/pkg/rabbitmq"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// trackingNumberAttempts bounds the retry loop on tracking number
// collisions before giving up.
const trackingNumberAttempts = 5

// nextStatus is the forward order state machine. Cancellation is not in
// this map; it only happens through CancelOrder.
var nextStatus = map[models.OrderStatus]models.OrderStatus{
	models.OrderStatusPending: models.OrderStatusPaid,
	models.OrderStatusPaid:    models.OrderStatusShipped,
	models.OrderStatusShipped: models.OrderStatusDelivered,
}

// EventPublisher publishes order lifecycle events. Satisfied by
// *rabbitmq.Client; nil disables publishing.
type EventPublisher interface {
	PublishOrderEvent(routingKey string, event rabbitmq.OrderEvent) error
}

// OrderService is the order lifecycle controller. It owns order creation,
// status transitions and cancellation, and is the only component that
// mutates wallet state: every commission booking and every pending-funds
// release goes through here.
type OrderService struct {
	orderRepo   repositories.OrderRepository
	walletRepo  repositories.WalletRepository
	txLogRepo   repositories.TransactionLogRepository
	revenueRepo repositories.PlatformRevenueRepository
	productRepo repositories.ProductRepository
	addressRepo repositories.AddressRepository
	publisher   EventPublisher
	policy      CommissionPolicy

	// bookOnCreate selects when the commission split is written to the
	// ledger. False (the default) defers booking to the paid transition,
	// so cancelling a pending order leaves no dangling pending entry.
	// True books at order creation, matching marketplaces that treat
	// checkout as the commitment point.
	bookOnCreate bool

	validate *validator.Validate
}

// OrderServiceConfig carries the policy knobs for the lifecycle controller.
type OrderServiceConfig struct {
	CommissionRatePercent decimal.Decimal
	BookLedgerOnCreate    bool
}

// NewOrderService creates a new OrderService.
func NewOrderService(
	orderRepo repositories.OrderRepository,
	walletRepo repositories.WalletRepository,
	txLogRepo repositories.TransactionLogRepository,
	revenueRepo repositories.PlatformRevenueRepository,
	productRepo repositories.ProductRepository,
	addressRepo repositories.AddressRepository,
	publisher EventPublisher,
	cfg OrderServiceConfig,
) *OrderService {
	rate := cfg.CommissionRatePercent
	if rate.IsZero() {
		rate = DefaultCommissionRatePercent
	}
	return &OrderService{
		orderRepo:    orderRepo,
		walletRepo:   walletRepo,
		txLogRepo:    txLogRepo,
		revenueRepo:  revenueRepo,
		productRepo:  productRepo,
		addressRepo:  addressRepo,
		publisher:    publisher,
		policy:       NewCommissionPolicy(rate),
		bookOnCreate: cfg.BookLedgerOnCreate,
		validate:     validator.New(),
	}
}

// Policy exposes the commission policy in effect.
func (s *OrderService) Policy() CommissionPolicy {
	return s.policy
}

// GetAllOrders retrieves all orders.
func (s *OrderService) GetAllOrders() ([]models.Order, error) {
	return s.orderRepo.GetAll()
}

// GetOrderByID retrieves a single order by its ID.
func (s *OrderService) GetOrderByID(id string) (*models.Order, error) {
	return s.orderRepo.GetByID(id)
}

// GetOrdersByBuyer retrieves a buyer's orders with their items.
func (s *OrderService) GetOrdersByBuyer(buyerID string) ([]models.Order, error) {
	return s.orderRepo.GetByBuyer(buyerID)
}

// GetOrdersBySeller retrieves a seller's orders.
func (s *OrderService) GetOrdersBySeller(sellerID string) ([]models.Order, error) {
	return s.orderRepo.GetBySeller(sellerID)
}

// TrackOrder retrieves an order by its tracking number.
func (s *OrderService) TrackOrder(trackingNumber string) (*models.Order, error) {
	return s.orderRepo.GetByTrackingNumber(trackingNumber)
}

// GetOrderItems retrieves the items of an order.
func (s *OrderService) GetOrderItems(orderID string) ([]models.OrderItem, error) {
	return s.orderRepo.GetItems(orderID)
}

// CanReview reports whether the buyer has purchased the product and may
// therefore review it.
func (s *OrderService) CanReview(buyerID, productID string) (bool, error) {
	return s.orderRepo.HasItemForProduct(buyerID, productID)
}

// CreateOrder places a new order for the buyer. Item prices are
// snapshotted from the catalog, a unique tracking number is generated, and
// the order is persisted in status pending. When ledger booking is
// configured at creation time, the commission split is also written; a
// booking failure after the order persisted is reported as
// ErrLedgerBooking with the created order attached, and the order is NOT
// retracted.
func (s *OrderService) CreateOrder(cmd CreateOrderCommand) (*models.Order, error) {
	if err := s.validate.Struct(cmd); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	address := s.resolveShippingAddress(cmd)

	var (
		items []models.OrderItem
		total = decimal.Zero
	)
	for _, line := range cmd.Items {
		product, err := s.productRepo.GetByID(line.ProductID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, fmt.Errorf("product %s: %w", line.ProductID, ErrNotFound)
			}
			return nil, fmt.Errorf("failed to resolve product %s: %w", line.ProductID, err)
		}
		if product.Stock < line.Quantity {
			return nil, fmt.Errorf("%w: insufficient stock for product %s (requested: %d, available: %d)",
				ErrValidation, product.Name, line.Quantity, product.Stock)
		}
		item := models.OrderItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Price:     product.Price, // snapshot at purchase time
		}
		items = append(items, item)
		total = total.Add(item.LineTotal())
	}

	order := &models.Order{
		ID:              uuid.New().String(),
		BuyerID:         cmd.BuyerID,
		SellerID:        cmd.SellerID,
		StoreID:         cmd.StoreID,
		TotalAmount:     total,
		PaymentMethod:   cmd.PaymentMethod,
		ShippingAddress: address,
		Status:          models.OrderStatusPending,
		Items:           items,
	}

	var err error
	for attempt := 0; attempt < trackingNumberAttempts; attempt++ {
		order.TrackingNumber = generateTrackingNumber()
		err = s.orderRepo.Create(order)
		if err == nil || !errors.Is(err, repositories.ErrDuplicate) {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if s.bookOnCreate {
		desc := fmt.Sprintf("Pending payment for order %s", order.ID)
		if bookErr := s.bookCommission(order.ID, order.SellerID, total, desc); bookErr != nil {
			return order, bookErr
		}
	}

	s.publishEvent("order.created", order)
	return order, nil
}

// UpdateOrderStatus moves an order forward through
// pending -> paid -> shipped -> delivered. The paid transition books the
// commission split when booking is deferred; the delivered transition
// releases the order's pending earnings into the seller's payable balance.
func (s *OrderService) UpdateOrderStatus(cmd TransitionStatusCommand) (*models.Order, error) {
	if err := s.validate.Struct(cmd); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	newStatus := models.OrderStatus(cmd.NewStatus)
	if !newStatus.IsValid() {
		return nil, fmt.Errorf("%w: invalid order status %q", ErrValidation, cmd.NewStatus)
	}
	if newStatus == models.OrderStatusCancelled {
		return nil, fmt.Errorf("%w: cancellation must go through the cancel operation", ErrInvalidTransition)
	}

	order, err := s.orderRepo.GetByID(cmd.OrderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("order %s: %w", cmd.OrderID, ErrNotFound)
		}
		return nil, err
	}
	if nextStatus[order.Status] != newStatus {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, newStatus)
	}

	if err := s.orderRepo.UpdateStatus(order.ID, order.Status, newStatus); err != nil {
		if errors.Is(err, repositories.ErrStaleStatus) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidTransition, err)
		}
		return nil, fmt.Errorf("failed to update order status for order %s: %w", order.ID, err)
	}
	order.Status = newStatus

	switch newStatus {
	case models.OrderStatusPaid:
		if !s.bookOnCreate {
			if bookErr := s.bookOnPaid(order); bookErr != nil {
				return order, bookErr
			}
		}
	case models.OrderStatusDelivered:
		if relErr := s.releaseEarnings(order); relErr != nil {
			return order, relErr
		}
	}

	s.publishEvent("order.status_updated", order)
	return order, nil
}

// CancelOrder cancels a pending order. Only the owning buyer may cancel,
// and only while the order is still pending. No ledger entry is reversed:
// with deferred booking there is nothing in the ledger yet, and with
// booking-at-creation the dangling pending entry is left for the
// reconciliation process.
func (s *OrderService) CancelOrder(cmd CancelOrderCommand) (*models.Order, error) {
	if err := s.validate.Struct(cmd); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	order, err := s.orderRepo.GetByID(cmd.OrderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("order %s: %w", cmd.OrderID, ErrNotFound)
		}
		return nil, err
	}
	if order.BuyerID != cmd.BuyerID {
		return nil, fmt.Errorf("%w: you can only cancel your own orders", ErrForbidden)
	}
	if order.Status != models.OrderStatusPending {
		return nil, fmt.Errorf("%w: only pending orders can be cancelled", ErrInvalidTransition)
	}

	if err := s.orderRepo.UpdateStatus(order.ID, models.OrderStatusPending, models.OrderStatusCancelled); err != nil {
		if errors.Is(err, repositories.ErrStaleStatus) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidTransition, err)
		}
		return nil, fmt.Errorf("failed to cancel order %s: %w", order.ID, err)
	}
	order.Status = models.OrderStatusCancelled

	s.publishEvent("order.cancelled", order)
	return order, nil
}

// AddOrderItem appends a product line to an existing order and books the
// line's own commission split, for flows that build orders incrementally.
// While the order is still pending under deferred booking, the line is
// covered by the order-level booking at payment time instead.
func (s *OrderService) AddOrderItem(cmd AddOrderItemCommand) (*models.OrderItem, error) {
	if err := s.validate.Struct(cmd); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if cmd.Price.IsNegative() {
		return nil, fmt.Errorf("%w: price must not be negative", ErrValidation)
	}

	order, err := s.orderRepo.GetByID(cmd.OrderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("order %s: %w", cmd.OrderID, ErrNotFound)
		}
		return nil, err
	}
	if order.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: cannot add items to a %s order", ErrInvalidTransition, order.Status)
	}

	price := cmd.Price
	if price.IsZero() {
		product, err := s.productRepo.GetByID(cmd.ProductID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, fmt.Errorf("product %s: %w", cmd.ProductID, ErrNotFound)
			}
			return nil, fmt.Errorf("failed to resolve product %s: %w", cmd.ProductID, err)
		}
		price = product.Price
	}

	item := &models.OrderItem{
		OrderID:   order.ID,
		ProductID: cmd.ProductID,
		Quantity:  cmd.Quantity,
		Price:     price,
	}
	lineTotal := item.LineTotal()

	if err := s.orderRepo.AddItem(item, lineTotal); err != nil {
		return nil, fmt.Errorf("failed to add order item: %w", err)
	}

	if s.bookOnCreate || order.Status != models.OrderStatusPending {
		desc := fmt.Sprintf("Pending payment for order item %s (Order %s)", cmd.ProductID, order.ID)
		if bookErr := s.bookCommission(order.ID, order.SellerID, lineTotal, desc); bookErr != nil {
			return item, bookErr
		}
	}
	return item, nil
}

// bookOnPaid writes the order-level commission split at the paid
// transition, unless the order already carries ledger entries (booked at
// creation under a previous configuration, via incremental item booking,
// or by the reconciliation job).
func (s *OrderService) bookOnPaid(order *models.Order) error {
	existing, err := s.txLogRepo.ListByOrder(order.ID)
	if err != nil {
		return fmt.Errorf("%w: checking ledger for order %s: %w", ErrLedgerBooking, order.ID, err)
	}
	if len(existing) > 0 {
		return nil
	}
	desc := fmt.Sprintf("Pending payment for order %s", order.ID)
	return s.bookCommission(order.ID, order.SellerID, order.TotalAmount, desc)
}

// bookCommission records one commission event: a platform revenue row, the
// seller-credit increment on the wallet's pending amount, and one pending
// ledger entry. Any failure is reported as ErrLedgerBooking and left for
// reconciliation; earlier writes in the sequence are not rolled back.
func (s *OrderService) bookCommission(orderID, sellerID string, amount decimal.Decimal, description string) error {
	if !amount.IsPositive() {
		return nil
	}
	commission, sellerCredit := s.policy.Split(amount)

	rev := &models.PlatformRevenue{
		OrderID:  orderID,
		SellerID: sellerID,
		Amount:   commission,
	}
	if err := s.revenueRepo.Record(rev); err != nil {
		return fmt.Errorf("%w: recording revenue for order %s: %w", ErrLedgerBooking, orderID, err)
	}

	if err := s.walletRepo.IncrementPending(sellerID, sellerCredit); err != nil {
		return fmt.Errorf("%w: crediting wallet for order %s: %w", ErrLedgerBooking, orderID, err)
	}

	tx := &models.WalletTransaction{
		SellerID:    sellerID,
		OrderID:     orderID,
		Type:        models.TransactionPending,
		Amount:      sellerCredit,
		Description: description,
	}
	if err := s.txLogRepo.Record(tx); err != nil {
		return fmt.Errorf("%w: recording transaction for order %s: %w", ErrLedgerBooking, orderID, err)
	}
	return nil
}

// releaseEarnings moves the order's still-pending earnings from the
// seller's pending amount to the payable balance, records one credit entry
// documenting the release, and retags the original pending entries as
// processed. An order with no pending entries is a no-op: the earnings may
// have been reconciled already or the order predates ledger tracking.
func (s *OrderService) releaseEarnings(order *models.Order) error {
	pendingTxs, err := s.txLogRepo.FindPendingByOrder(order.ID)
	if err != nil {
		return fmt.Errorf("%w: finding pending entries for order %s: %w", ErrLedgerBooking, order.ID, err)
	}

	total := decimal.Zero
	ids := make([]string, 0, len(pendingTxs))
	for _, tx := range pendingTxs {
		total = total.Add(tx.Amount)
		ids = append(ids, tx.ID)
	}
	if !total.IsPositive() {
		return nil
	}

	if err := s.walletRepo.ReleasePending(order.SellerID, total); err != nil {
		return fmt.Errorf("%w: releasing funds for order %s: %w", ErrLedgerBooking, order.ID, err)
	}

	credit := &models.WalletTransaction{
		SellerID:    order.SellerID,
		OrderID:     order.ID,
		Type:        models.TransactionCredit,
		Amount:      total,
		Description: fmt.Sprintf("Released payment for delivered order %s", order.ID),
	}
	if err := s.txLogRepo.Record(credit); err != nil {
		return fmt.Errorf("%w: recording credit for order %s: %w", ErrLedgerBooking, order.ID, err)
	}

	if err := s.txLogRepo.MarkProcessed(ids); err != nil {
		return fmt.Errorf("%w: retagging pending entries for order %s: %w", ErrLedgerBooking, order.ID, err)
	}
	return nil
}

// publishEvent pushes a lifecycle event to the broker, best effort. A
// publish failure never fails the request.
func (s *OrderService) publishEvent(routingKey string, order *models.Order) {
	if s.publisher == nil {
		return
	}
	event := rabbitmq.OrderEvent{
		OrderID:        order.ID,
		BuyerID:        order.BuyerID,
		SellerID:       order.SellerID,
		Status:         string(order.Status),
		TotalAmount:    order.TotalAmount.String(),
		TrackingNumber: order.TrackingNumber,
		OccurredAt:     time.Now(),
	}
	if err := s.publisher.PublishOrderEvent(routingKey, event); err != nil {
		log.Printf("Warning: Failed to publish %s event for order %s: %v", routingKey, order.ID, err)
	}
}

// resolveShippingAddress prefers the caller-supplied address, falls back
// to the buyer's default address, and proceeds with an empty address if
// neither exists.
func (s *OrderService) resolveShippingAddress(cmd CreateOrderCommand) string {
	if cmd.ShippingAddress != "" {
		return cmd.ShippingAddress
	}
	if s.addressRepo == nil {
		return ""
	}
	address, err := s.addressRepo.GetDefaultByUser(cmd.BuyerID)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			log.Printf("Warning: Failed to look up default address for buyer %s: %v", cmd.BuyerID, err)
		}
		return ""
	}
	return address.Format()
}

// generateTrackingNumber produces a human-readable tracking number: a
// fixed "SP" prefix plus an 8-character uppercase alphanumeric suffix.
func generateTrackingNumber() string {
	suffix := strings.SplitN(uuid.New().String(), "-", 2)[0]
	return "SP" + strings.ToUpper(suffix)
}
