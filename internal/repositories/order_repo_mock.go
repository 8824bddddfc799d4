package repositories

import (
	"fmt"
	"sync"
	"time"

	"chronoshop/internal/models"

	"github.com/google/uuid"
)

// MockOrderRepository is an in-memory implementation of OrderRepository.
type MockOrderRepository struct {
	orders    map[string]models.Order
	shipments map[string]models.Shipment // keyed by order ID
	mu        sync.RWMutex
}

// NewMockOrderRepository creates a new instance of MockOrderRepository.
func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		orders:    make(map[string]models.Order),
		shipments: make(map[string]models.Shipment),
	}
}

// GetAll returns all orders.
func (r *MockOrderRepository) GetAll() ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orderList := make([]models.Order, 0, len(r.orders))
	for _, order := range r.orders {
		orderList = append(orderList, order)
	}
	return orderList, nil
}

// GetByID returns an order by its ID.
func (r *MockOrderRepository) GetByID(id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("order with ID %s not found", id)
	}
	if shipment, ok := r.shipments[id]; ok {
		order.Shipment = &shipment
	}
	return &order, nil
}

// GetByUserID returns all orders belonging to a user.
func (r *MockOrderRepository) GetByUserID(userID string) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var orderList []models.Order
	for _, order := range r.orders {
		if order.UserID == userID {
			orderList = append(orderList, order)
		}
	}
	return orderList, nil
}

// Create adds a new order.
func (r *MockOrderRepository) Create(order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	for i := range order.Items {
		if order.Items[i].ID == "" {
			order.Items[i].ID = uuid.New().String()
		}
		order.Items[i].OrderID = order.ID
	}
	order.CreatedAt = time.Now()
	order.UpdatedAt = time.Now()
	r.orders[order.ID] = *order
	return nil
}

// UpdateStatus updates the order and payment status of an order.
func (r *MockOrderRepository) UpdateStatus(id string, status string, paymentStatus string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return fmt.Errorf("order with ID %s not found for status update", id)
	}
	order.Status = status
	order.PaymentStatus = paymentStatus
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return nil
}

// SetFulfillment records the fulfillment outcome of an order.
func (r *MockOrderRepository) SetFulfillment(id string, fulfillmentStatus string, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return fmt.Errorf("order with ID %s not found for fulfillment update", id)
	}
	order.FulfillmentStatus = fulfillmentStatus
	order.FulfillmentError = reason
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return nil
}

// GetShipmentByOrderID returns the shipment for an order, or nil.
func (r *MockOrderRepository) GetShipmentByOrderID(orderID string) (*models.Shipment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	shipment, ok := r.shipments[orderID]
	if !ok {
		return nil, nil
	}
	return &shipment, nil
}

// CreateShipment adds a shipment record, rejecting duplicates per order.
func (r *MockOrderRepository) CreateShipment(shipment *models.Shipment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.shipments[shipment.OrderID]; exists {
		return fmt.Errorf("failed to create shipment for order %s: duplicate", shipment.OrderID)
	}
	if shipment.ID == "" {
		shipment.ID = uuid.New().String()
	}
	r.shipments[shipment.OrderID] = *shipment
	return nil
}

// ListDegraded returns paid orders without a shipment.
func (r *MockOrderRepository) ListDegraded() ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var orderList []models.Order
	for _, order := range r.orders {
		if order.PaymentStatus == models.PaymentPaid && order.FulfillmentStatus == models.FulfillmentDegraded {
			orderList = append(orderList, order)
		}
	}
	return orderList, nil
}
