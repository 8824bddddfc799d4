package repositories

import (
	"errors"
	"fmt"

	"chronoshop/internal/models"

	"github.com/google/uuid"
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

// GetAll retrieves all orders with their line items, newest first.
func (r *GORMOrderRepository) GetAll() ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.Preload("Items").Preload("Shipment").Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to get all orders: %w", err)
	}
	return orders, nil
}

// GetByID retrieves a single order with its line items and shipment.
func (r *GORMOrderRepository) GetByID(id string) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items").Preload("Shipment").First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order with ID %s not found", id)
		}
		return nil, fmt.Errorf("failed to get order by ID %s: %w", id, err)
	}
	return &order, nil
}

// GetByUserID retrieves all orders belonging to a user, newest first.
func (r *GORMOrderRepository) GetByUserID(userID string) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.Preload("Items").Preload("Shipment").Where("user_id = ?", userID).Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to get orders for user %s: %w", userID, err)
	}
	return orders, nil
}

// Create persists an order and its line items in one transaction.
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
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// UpdateStatus updates the order and payment status of an order.
func (r *GORMOrderRepository) UpdateStatus(id string, status string, paymentStatus string) error {
	res := r.db.Model(&models.Order{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":         status,
		"payment_status": paymentStatus,
	})
	if res.Error != nil {
		return fmt.Errorf("failed to update order status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("order with ID %s not found for status update", id)
	}
	return nil
}

// SetFulfillment records the fulfillment outcome of a paid order.
func (r *GORMOrderRepository) SetFulfillment(id string, fulfillmentStatus string, reason string) error {
	res := r.db.Model(&models.Order{}).Where("id = ?", id).Updates(map[string]interface{}{
		"fulfillment_status": fulfillmentStatus,
		"fulfillment_error":  reason,
	})
	if res.Error != nil {
		return fmt.Errorf("failed to update fulfillment state: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("order with ID %s not found for fulfillment update", id)
	}
	return nil
}

// GetShipmentByOrderID returns the shipment linked to an order, or nil when
// none exists.
func (r *GORMOrderRepository) GetShipmentByOrderID(orderID string) (*models.Shipment, error) {
	var shipment models.Shipment
	if err := r.db.First(&shipment, "order_id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get shipment for order %s: %w", orderID, err)
	}
	return &shipment, nil
}

// CreateShipment persists a shipment record. The unique index on OrderID
// rejects a duplicate created by a concurrent verification.
func (r *GORMOrderRepository) CreateShipment(shipment *models.Shipment) error {
	if shipment.ID == "" {
		shipment.ID = uuid.New().String()
	}
	if err := r.db.Create(shipment).Error; err != nil {
		return fmt.Errorf("failed to create shipment for order %s: %w", shipment.OrderID, err)
	}
	return nil
}

// ListDegraded returns orders that are paid but whose shipment creation
// failed.
func (r *GORMOrderRepository) ListDegraded() ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Preload("Items").
		Where("payment_status = ? AND fulfillment_status = ?", models.PaymentPaid, models.FulfillmentDegraded).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list degraded orders: %w", err)
	}
	return orders, nil
}
