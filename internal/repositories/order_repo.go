package repositories

import (
	"chronoshop/internal/models"
)

// OrderRepository defines the interface for order ledger access. Orders are
// never deleted; they are the durable record of every checkout attempt.
type OrderRepository interface {
	GetAll() ([]models.Order, error)
	GetByID(id string) (*models.Order, error)
	GetByUserID(userID string) ([]models.Order, error)
	Create(order *models.Order) error
	UpdateStatus(id string, status string, paymentStatus string) error
	SetFulfillment(id string, fulfillmentStatus string, reason string) error

	// GetShipmentByOrderID returns (nil, nil) when the order has no
	// shipment; that is a valid state, not an error.
	GetShipmentByOrderID(orderID string) (*models.Shipment, error)
	CreateShipment(shipment *models.Shipment) error

	// ListDegraded returns paid orders whose shipment creation failed, for
	// operator reconciliation.
	ListDegraded() ([]models.Order, error)
}
