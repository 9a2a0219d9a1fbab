package services

import (
	"context"
	"log"
	"time"

	"pasar/internal/models"
	"pasar/internal/repositories"
)

// ReconcileService is the out-of-band control for the subsystem's
// principal failure mode: an order persisted whose ledger writes
// (revenue, wallet, transaction) did not complete. It periodically scans
// for orders past the booking point with no ledger entry and re-runs the
// commission booking; delivered orders additionally get their earnings
// released so the wallet catches up in one pass.
type ReconcileService struct {
	orderRepo repositories.OrderRepository
	txLogRepo repositories.TransactionLogRepository
	orders    *OrderService
}

// NewReconcileService creates a new ReconcileService.
func NewReconcileService(
	orderRepo repositories.OrderRepository,
	txLogRepo repositories.TransactionLogRepository,
	orders *OrderService,
) *ReconcileService {
	return &ReconcileService{
		orderRepo: orderRepo,
		txLogRepo: txLogRepo,
		orders:    orders,
	}
}

// bookableStatuses returns the statuses at or past the booking point under
// the current booking mode.
func (s *ReconcileService) bookableStatuses() []models.OrderStatus {
	statuses := []models.OrderStatus{
		models.OrderStatusPaid,
		models.OrderStatusShipped,
		models.OrderStatusDelivered,
	}
	if s.orders.bookOnCreate {
		statuses = append(statuses, models.OrderStatusPending)
	}
	return statuses
}

// Run performs one reconciliation pass and returns the number of orders
// repaired.
func (s *ReconcileService) Run() (int, error) {
	candidates, err := s.orderRepo.ListByStatuses(s.bookableStatuses())
	if err != nil {
		return 0, err
	}

	repaired := 0
	for _, order := range candidates {
		if !order.TotalAmount.IsPositive() {
			continue
		}
		entries, err := s.txLogRepo.ListByOrder(order.ID)
		if err != nil {
			log.Printf("Reconcile: failed to read ledger for order %s: %v", order.ID, err)
			continue
		}
		if len(entries) > 0 {
			continue
		}

		desc := "Reconciled pending payment for order " + order.ID
		if err := s.orders.bookCommission(order.ID, order.SellerID, order.TotalAmount, desc); err != nil {
			log.Printf("Reconcile: failed to re-book order %s: %v", order.ID, err)
			continue
		}
		if order.Status == models.OrderStatusDelivered {
			if err := s.orders.releaseEarnings(&order); err != nil {
				log.Printf("Reconcile: failed to release earnings for order %s: %v", order.ID, err)
				continue
			}
		}
		log.Printf("Reconcile: repaired ledger for order %s (total %s)", order.ID, order.TotalAmount)
		repaired++
	}
	return repaired, nil
}

// Start runs reconciliation passes at the given interval until the context
// is cancelled.
func (s *ReconcileService) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("Starting ledger reconciliation loop (every %s)", interval)
	for {
		select {
		case <-ctx.Done():
			log.Println("Ledger reconciliation loop stopped")
			return
		case <-ticker.C:
			if _, err := s.Run(); err != nil {
				log.Printf("Reconcile pass failed: %v", err)
			}
		}
	}
}
