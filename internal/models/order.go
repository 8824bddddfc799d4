package models

import "gorm.io/gorm"

// Order statuses.
const (
	OrderPending   = "PENDING"
	OrderPaid      = "PAID"
	OrderShipped   = "SHIPPED"
	OrderDelivered = "DELIVERED"
	OrderCancelled = "CANCELLED"
)

// Payment statuses.
const (
	PaymentPending = "PENDING"
	PaymentPaid    = "PAID"
	PaymentFailed  = "FAILED"
)

// Payment methods.
const (
	PaymentMethodOnline = "online"
	PaymentMethodCOD    = "cod"
)

// Fulfillment states. Empty means no fulfillment attempt has happened yet.
// FulfillmentDegraded marks a paid order whose shipment creation failed;
// these are picked up by reconciliation instead of being lost in logs.
const (
	FulfillmentShipped  = "shipped"
	FulfillmentDegraded = "paid_no_shipment"
)

// OrderItem is a line item snapshot taken at order creation; price, name and
// image are copied from the catalog so later product edits don't rewrite
// order history.
type OrderItem struct {
	ID        string  `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID   string  `json:"order_id" gorm:"index;type:varchar(36)"`
	ProductID string  `json:"product_id" gorm:"type:varchar(36)" validate:"required"`
	Name      string  `json:"name"`
	Image     string  `json:"image"`
	Price     float64 `json:"price" validate:"required,gt=0"` // Unit price at the time of order
	Quantity  int     `json:"quantity" validate:"required,gt=0"`
}

// Order represents a checkout attempt and its fulfillment. The order ID is
// also the reference sent to the payment gateway.
type Order struct {
	ID        string      `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID    string      `json:"user_id" gorm:"index;type:varchar(36)"`
	AddressID string      `json:"address_id,omitempty" gorm:"type:varchar(36)"`
	Items     []OrderItem `json:"items" gorm:"foreignKey:OrderID"`

	Subtotal       float64 `json:"subtotal"`
	Tax            float64 `json:"tax"`
	ShippingCharge float64 `json:"shipping_charge"`
	Discount       float64 `json:"discount"`
	Total          float64 `json:"total"`

	Status            string `json:"status" gorm:"type:varchar(20)"`
	PaymentStatus     string `json:"payment_status" gorm:"type:varchar(20)"`
	PaymentMethod     string `json:"payment_method" gorm:"type:varchar(20)"`
	FulfillmentStatus string `json:"fulfillment_status,omitempty" gorm:"type:varchar(30)"`
	FulfillmentError  string `json:"fulfillment_error,omitempty"`

	Shipment *Shipment `json:"shipment,omitempty" gorm:"foreignKey:OrderID"`
	gorm.Model
}

// Shipment mirrors the logistics provider's record for an order. The unique
// index on OrderID is the hard guard against duplicate shipments when
// payment verification runs concurrently.
type Shipment struct {
	ID                 string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID            string `json:"order_id" gorm:"uniqueIndex;type:varchar(36)"`
	ProviderOrderID    int64  `json:"provider_order_id"`
	ProviderShipmentID int64  `json:"provider_shipment_id"`
	AWBCode            string `json:"awb_code"`
	CourierName        string `json:"courier_name"`
	Status             string `json:"status"`
	gorm.Model
}
