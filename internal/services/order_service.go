package services

import (
	"fmt"
	"time"

	"chronoshop/internal/models"
	"chronoshop/internal/repositories"
)

// OrderService handles read and administration paths over the order ledger.
// Checkout-time order creation lives in CheckoutService.
type OrderService struct {
	orderRepo repositories.OrderRepository
}

// NewOrderService creates a new OrderService.
func NewOrderService(orderRepo repositories.OrderRepository) *OrderService {
	return &OrderService{orderRepo: orderRepo}
}

// GetAllOrders retrieves all orders, newest first.
func (s *OrderService) GetAllOrders() ([]models.Order, error) {
	return s.orderRepo.GetAll()
}

// GetOrderByID retrieves a single order by its ID.
func (s *OrderService) GetOrderByID(id string) (*models.Order, error) {
	return s.orderRepo.GetByID(id)
}

// GetOrdersForUser retrieves the caller's own orders.
func (s *OrderService) GetOrdersForUser(userID string) ([]models.Order, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	return s.orderRepo.GetByUserID(userID)
}

// UpdateOrderStatus updates the status of an existing order. The payment
// status is carried over unchanged; it is owned by the verification flow.
func (s *OrderService) UpdateOrderStatus(id string, status string) error {
	validStatuses := map[string]bool{
		models.OrderPending:   true,
		models.OrderPaid:      true,
		models.OrderShipped:   true,
		models.OrderDelivered: true,
		models.OrderCancelled: true,
	}
	if _, ok := validStatuses[status]; !ok {
		return fmt.Errorf("%w: invalid order status: %s", ErrValidation, status)
	}

	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if err := s.orderRepo.UpdateStatus(id, status, order.PaymentStatus); err != nil {
		return fmt.Errorf("failed to update order status for order %s: %w", id, err)
	}
	return nil
}

// ListDegradedOrders returns paid orders whose shipment creation failed,
// for the reconciliation view.
func (s *OrderService) ListDegradedOrders() ([]models.Order, error) {
	return s.orderRepo.ListDegraded()
}

// SalesMetrics summarizes the ledger for the admin dashboard. Revenue only
// counts paid orders; pay-on-delivery orders count once collected.
type SalesMetrics struct {
	TotalRevenue    float64 `json:"total_revenue"`
	TotalOrders     int     `json:"total_orders"`
	OrdersToday     int     `json:"orders_today"`
	OrdersThisMonth int     `json:"orders_this_month"`
	DegradedOrders  int     `json:"degraded_orders"`
}

// Metrics computes dashboard metrics over the full ledger.
func (s *OrderService) Metrics() (*SalesMetrics, error) {
	orders, err := s.orderRepo.GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to load orders for metrics: %w", err)
	}

	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	m := &SalesMetrics{TotalOrders: len(orders)}
	for _, order := range orders {
		if order.PaymentStatus == models.PaymentPaid {
			m.TotalRevenue += order.Total
		}
		if order.FulfillmentStatus == models.FulfillmentDegraded {
			m.DegradedOrders++
		}
		if !order.CreatedAt.Before(startOfDay) {
			m.OrdersToday++
		}
		if !order.CreatedAt.Before(startOfMonth) {
			m.OrdersThisMonth++
		}
	}
	return m, nil
}
