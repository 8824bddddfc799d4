package services

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"chronoshop/internal/config"
	"chronoshop/internal/logger"
	"chronoshop/internal/models"
	"chronoshop/internal/repositories"
	"chronoshop/pkg/cashfree"
	"chronoshop/pkg/rabbitmq"
	"chronoshop/pkg/shiprocket"
)

// Default package dimensions (cm / kg) used on shipment requests; a boxed
// watch is well within these.
const (
	defaultPackageLength  = 10
	defaultPackageBreadth = 10
	defaultPackageHeight  = 5
	defaultPackageWeight  = 0.5
)

// hsnWristWatch is the HSN classification code for wrist-watches.
const hsnWristWatch = 9102

// PaymentGateway is the slice of the Cashfree client the orchestrator uses.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, req cashfree.CreateOrderRequest) (*cashfree.CreateOrderResponse, error)
	GetOrder(ctx context.Context, orderID string) (*cashfree.OrderStatus, error)
}

// GatewayFactory builds a gateway client for resolved credentials. The
// client is per-call because the admin can flip sandbox/live at runtime.
type GatewayFactory func(cfg cashfree.Config) PaymentGateway

// ShipmentProvider is the slice of the Shiprocket client the orchestrator
// uses.
type ShipmentProvider interface {
	CreateOrder(ctx context.Context, req shiprocket.ShipmentRequest) (*shiprocket.ShipmentResponse, error)
}

// CustomerInfo identifies the paying customer for the hosted session.
type CustomerInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// CheckoutItem is one cart line on an inbound checkout request. Prices are
// never trusted from the client; they are re-read from the catalog.
type CheckoutItem struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// PaymentInitResult is the structured outcome of InitiatePayment.
type PaymentInitResult struct {
	Success          bool   `json:"success"`
	OrderID          string `json:"order_id,omitempty"`
	PaymentSessionID string `json:"payment_session_id,omitempty"`
	Mode             string `json:"mode,omitempty"`
	Error            string `json:"error,omitempty"`
}

// VerifyResult is the structured outcome of VerifyPayment.
type VerifyResult struct {
	Success           bool   `json:"success"`
	OrderID           string `json:"order_id,omitempty"`
	PaymentStatus     string `json:"payment_status,omitempty"`
	FulfillmentStatus string `json:"fulfillment_status,omitempty"`
	Error             string `json:"error,omitempty"`
}

// PlaceOrderResult is the structured outcome of the pay-on-delivery flow.
// Warning is set when the order was placed but shipment creation failed.
type PlaceOrderResult struct {
	Success bool   `json:"success"`
	OrderID string `json:"order_id,omitempty"`
	Warning string `json:"warning,omitempty"`
	Error   string `json:"error,omitempty"`
}

// CheckoutService drives an order from creation through payment initiation,
// verification, and shipment creation. The order ledger is the durable
// record of truth; both providers are treated as fallible and independently
// available.
type CheckoutService struct {
	orders     repositories.OrderRepository
	users      repositories.UserRepository
	products   repositories.ProductRepository
	settings   *PaymentSettingsService
	newGateway GatewayFactory
	shipping   ShipmentProvider
	events     rabbitmq.Publisher
	checkout   config.CheckoutConfig
	pickup     string
}

// NewCheckoutService creates a new CheckoutService. events may be nil when
// no broker is configured.
func NewCheckoutService(
	orders repositories.OrderRepository,
	users repositories.UserRepository,
	products repositories.ProductRepository,
	settings *PaymentSettingsService,
	newGateway GatewayFactory,
	shipping ShipmentProvider,
	events rabbitmq.Publisher,
	checkoutCfg config.CheckoutConfig,
	pickupLocation string,
) *CheckoutService {
	return &CheckoutService{
		orders:     orders,
		users:      users,
		products:   products,
		settings:   settings,
		newGateway: newGateway,
		shipping:   shipping,
		events:     events,
		checkout:   checkoutCfg,
		pickup:     pickupLocation,
	}
}

// buildOrder snapshots catalog data into order lines and recomputes the
// money fields server-side. Client-supplied prices are ignored entirely.
func (s *CheckoutService) buildOrder(userID string, items []CheckoutItem) (*models.Order, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: at least one item is required", ErrValidation)
	}

	var subtotal float64
	lines := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be positive for product %s", ErrValidation, item.ProductID)
		}
		product, err := s.products.GetByID(item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("%w: product %s not found", ErrValidation, item.ProductID)
		}
		if product.Status != models.ProductActive {
			return nil, fmt.Errorf("%w: product %s is not available", ErrValidation, product.Name)
		}
		if product.Stock < item.Quantity {
			return nil, fmt.Errorf("%w: insufficient stock for %s (requested %d, available %d)",
				ErrValidation, product.Name, item.Quantity, product.Stock)
		}
		lines = append(lines, models.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Image:     product.Image,
			Price:     product.Price,
			Quantity:  item.Quantity,
		})
		subtotal += product.Price * float64(item.Quantity)
	}

	order := &models.Order{
		UserID:        userID,
		Items:         lines,
		Subtotal:      subtotal,
		Total:         subtotal, // tax, shipping and discount are zero today
		Status:        models.OrderPending,
		PaymentStatus: models.PaymentPending,
	}
	return order, nil
}

// InitiatePayment creates a PENDING order durably, then asks the gateway for
// a hosted payment session scoped to it. The order is intentionally not
// rolled back on gateway failure so every payment attempt stays traceable
// and retries can reuse the same order id.
func (s *CheckoutService) InitiatePayment(ctx context.Context, userID string, customer CustomerInfo, items []CheckoutItem, amount float64) (*PaymentInitResult, error) {
	order, err := s.buildOrder(userID, items)
	if err != nil {
		return nil, err
	}
	if math.Abs(order.Total-amount) > 0.01 {
		return nil, fmt.Errorf("%w: amount %.2f does not match computed order total %.2f", ErrValidation, amount, order.Total)
	}

	gatewayCfg, mode, err := s.settings.Resolve()
	if err != nil {
		return nil, err
	}

	order.PaymentMethod = models.PaymentMethodOnline
	if err := s.orders.Create(order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	s.publishEvent(rabbitmq.RouteOrderCreated, order)

	if customer.ID == "" {
		customer.ID = "guest_" + order.ID
	}
	returnURL := gatewayCfg.CallbackURL
	if returnURL == "" {
		returnURL = s.checkout.CallbackURL
	}
	resp, err := s.newGateway(gatewayCfg).CreateOrder(ctx, cashfree.CreateOrderRequest{
		OrderAmount:   order.Total,
		OrderCurrency: "INR",
		OrderID:       order.ID,
		CustomerDetails: cashfree.CustomerDetails{
			CustomerID:    customer.ID,
			CustomerName:  customer.Name,
			CustomerEmail: customer.Email,
			CustomerPhone: customer.Phone,
		},
		OrderMeta: cashfree.OrderMeta{
			ReturnURL: returnURL + "?order_id={order_id}",
		},
	})
	if err != nil {
		logger.Get().Error("Payment initiation failed at gateway",
			zap.String("order_id", order.ID),
			zap.String("mode", mode),
			zap.Error(err),
		)
		return &PaymentInitResult{Success: false, OrderID: order.ID, Error: err.Error()}, nil
	}

	logger.Get().Info("Payment session created",
		zap.String("order_id", order.ID),
		zap.String("mode", mode),
	)
	return &PaymentInitResult{
		Success:          true,
		OrderID:          order.ID,
		PaymentSessionID: resp.PaymentSessionID,
		Mode:             mode,
	}, nil
}

// VerifyPayment asks the gateway for the authoritative order status and, on
// PAID, marks the order paid and attempts shipment creation. Safe to call
// repeatedly for the same order: once a shipment exists no second one is
// created, and an already-paid order skips the gateway round trip's
// mutation.
func (s *CheckoutService) VerifyPayment(ctx context.Context, orderID string) (*VerifyResult, error) {
	order, err := s.orders.GetByID(orderID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if order.PaymentStatus != models.PaymentPaid {
		gatewayCfg, _, err := s.settings.Resolve()
		if err != nil {
			return nil, err
		}
		status, err := s.newGateway(gatewayCfg).GetOrder(ctx, orderID)
		if err != nil {
			logger.Get().Error("Payment status check failed",
				zap.String("order_id", orderID),
				zap.Error(err),
			)
			return &VerifyResult{Success: false, OrderID: orderID, Error: err.Error()}, nil
		}
		if !status.Paid() {
			logger.Get().Info("Payment not settled yet",
				zap.String("order_id", orderID),
				zap.String("gateway_status", status.OrderStatus),
			)
			return &VerifyResult{Success: false, OrderID: orderID, PaymentStatus: order.PaymentStatus}, nil
		}

		// Durably record the paid state before any shipment attempt.
		if err := s.orders.UpdateStatus(orderID, models.OrderPaid, models.PaymentPaid); err != nil {
			return nil, err
		}
		order.Status = models.OrderPaid
		order.PaymentStatus = models.PaymentPaid
		s.publishEvent(rabbitmq.RouteOrderPaid, order)
	}

	fulfillment := s.ensureShipment(ctx, order)
	return &VerifyResult{
		Success:           true,
		OrderID:           orderID,
		PaymentStatus:     models.PaymentPaid,
		FulfillmentStatus: fulfillment,
	}, nil
}

// PlaceOrder is the pay-on-delivery variant: no payment gate, shipment is
// attempted immediately, and a fulfillment failure must never block order
// placement.
func (s *CheckoutService) PlaceOrder(ctx context.Context, userID string, items []CheckoutItem, addressID string) (*PlaceOrderResult, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	address, err := s.users.GetAddressByID(addressID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if address.UserID != userID {
		return nil, fmt.Errorf("%w: address %s does not belong to the caller", ErrValidation, addressID)
	}

	order, err := s.buildOrder(userID, items)
	if err != nil {
		return nil, err
	}
	order.PaymentMethod = models.PaymentMethodCOD
	order.AddressID = addressID
	if err := s.orders.Create(order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	s.publishEvent(rabbitmq.RouteOrderCreated, order)

	if state := s.ensureShipment(ctx, order); state == models.FulfillmentDegraded {
		return &PlaceOrderResult{
			Success: true,
			OrderID: order.ID,
			Warning: "order placed but shipping generation failed; fulfillment will be retried",
		}, nil
	}
	return &PlaceOrderResult{Success: true, OrderID: order.ID}, nil
}

// HandlePaymentWebhook applies an authenticated gateway notification by
// running the same idempotent verification path as the redirect flow.
func (s *CheckoutService) HandlePaymentWebhook(ctx context.Context, payload *cashfree.WebhookPayload) error {
	if payload.Type != cashfree.WebhookTypePaymentSuccess {
		logger.Get().Debug("Ignoring webhook event", zap.String("type", payload.Type))
		return nil
	}
	orderID := payload.Data.Order.OrderID
	if orderID == "" {
		return fmt.Errorf("%w: webhook payload has no order id", ErrValidation)
	}
	_, err := s.VerifyPayment(ctx, orderID)
	return err
}

// RetryShipment re-attempts shipment creation for a paid order stuck in the
// degraded state.
func (s *CheckoutService) RetryShipment(ctx context.Context, orderID string) (*VerifyResult, error) {
	order, err := s.orders.GetByID(orderID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if order.PaymentStatus != models.PaymentPaid && order.PaymentMethod != models.PaymentMethodCOD {
		return nil, fmt.Errorf("%w: order %s is not eligible for shipment retry", ErrValidation, orderID)
	}
	fulfillment := s.ensureShipment(ctx, order)
	return &VerifyResult{
		Success:           fulfillment == models.FulfillmentShipped,
		OrderID:           orderID,
		PaymentStatus:     order.PaymentStatus,
		FulfillmentStatus: fulfillment,
	}, nil
}

// ensureShipment creates a shipment for the order if one does not already
// exist. Returns the resulting fulfillment state. Provider failures are
// recorded as a degraded state, never propagated: payment has already
// succeeded by the time this runs.
func (s *CheckoutService) ensureShipment(ctx context.Context, order *models.Order) string {
	existing, err := s.orders.GetShipmentByOrderID(order.ID)
	if err != nil {
		logger.Get().Error("Failed to check for existing shipment",
			zap.String("order_id", order.ID),
			zap.Error(err),
		)
		return s.markDegraded(order, "shipment lookup failed: "+err.Error())
	}
	if existing != nil {
		return models.FulfillmentShipped
	}

	user, err := s.users.GetByID(order.UserID)
	if err != nil {
		return s.markDegraded(order, "customer lookup failed: "+err.Error())
	}

	address, err := s.resolveShippingAddress(order)
	if err != nil {
		return s.markDegraded(order, "address lookup failed: "+err.Error())
	}
	if address == nil {
		// A paid order without a saved address is a valid, degraded state:
		// fulfillment happens manually once an address is on file.
		logger.Get().Warn("Paid order has no shipping address; skipping shipment",
			zap.String("order_id", order.ID),
		)
		return s.markDegraded(order, "no shipping address on file")
	}

	resp, err := s.shipping.CreateOrder(ctx, s.buildShipmentRequest(order, user, address))
	if err != nil {
		logger.Get().Error("Shipment creation failed",
			zap.String("order_id", order.ID),
			zap.String("provider", "shiprocket"),
			zap.Error(err),
		)
		s.publishEvent(rabbitmq.RouteShipmentFailed, order)
		return s.markDegraded(order, err.Error())
	}

	shipment := &models.Shipment{
		OrderID:            order.ID,
		ProviderOrderID:    resp.OrderID,
		ProviderShipmentID: resp.ShipmentID,
		AWBCode:            resp.AWBCode,
		CourierName:        resp.CourierName,
		Status:             resp.Status,
	}
	if err := s.orders.CreateShipment(shipment); err != nil {
		// A concurrent verification beat us to it; the provider-side order
		// exists either way, so treat the unique-index rejection as done.
		logger.Get().Warn("Shipment row already present",
			zap.String("order_id", order.ID),
			zap.Error(err),
		)
		return models.FulfillmentShipped
	}

	if err := s.orders.SetFulfillment(order.ID, models.FulfillmentShipped, ""); err != nil {
		logger.Get().Error("Failed to record fulfillment state",
			zap.String("order_id", order.ID),
			zap.Error(err),
		)
	}
	s.publishEvent(rabbitmq.RouteShipmentCreated, order)
	logger.Get().Info("Shipment created",
		zap.String("order_id", order.ID),
		zap.Int64("shipment_id", resp.ShipmentID),
		zap.String("awb_code", resp.AWBCode),
	)
	return models.FulfillmentShipped
}

// resolveShippingAddress applies the configured address policy. Returns
// (nil, nil) when the user has no usable address.
func (s *CheckoutService) resolveShippingAddress(order *models.Order) (*models.Address, error) {
	if s.checkout.AddressPolicy == config.ShipToSnapshot && order.AddressID != "" {
		return s.users.GetAddressByID(order.AddressID)
	}
	return s.users.GetLatestAddressByUserID(order.UserID)
}

func (s *CheckoutService) buildShipmentRequest(order *models.Order, user *models.User, address *models.Address) shiprocket.ShipmentRequest {
	items := make([]shiprocket.ShipmentItem, 0, len(order.Items))
	for _, line := range order.Items {
		items = append(items, shiprocket.ShipmentItem{
			Name:  line.Name,
			SKU:   line.ProductID,
			Units: line.Quantity,
			Price: line.Price,
			HSN:   hsnWristWatch,
		})
	}

	paymentMethod := "Prepaid"
	if order.PaymentMethod == models.PaymentMethodCOD {
		paymentMethod = "COD"
	}

	name := user.Name
	if name == "" {
		name = user.Username
	}

	return shiprocket.ShipmentRequest{
		OrderID:           order.ID,
		OrderDate:         order.CreatedAt.Format("2006-01-02 15:04"),
		PickupLocation:    s.pickup,
		BillingName:       name,
		BillingAddress:    address.HouseNumber + ", " + address.Locality,
		BillingCity:       address.City,
		BillingPincode:    address.Pincode,
		BillingState:      address.State,
		BillingCountry:    "India",
		BillingEmail:      user.Email,
		BillingPhone:      user.Phone,
		ShippingIsBilling: true,
		Items:             items,
		PaymentMethod:     paymentMethod,
		Subtotal:          order.Subtotal,
		Length:            defaultPackageLength,
		Breadth:           defaultPackageBreadth,
		Height:            defaultPackageHeight,
		Weight:            defaultPackageWeight,
	}
}

func (s *CheckoutService) markDegraded(order *models.Order, reason string) string {
	if err := s.orders.SetFulfillment(order.ID, models.FulfillmentDegraded, reason); err != nil {
		logger.Get().Error("Failed to record degraded fulfillment state",
			zap.String("order_id", order.ID),
			zap.Error(err),
		)
	}
	return models.FulfillmentDegraded
}

func (s *CheckoutService) publishEvent(routingKey string, order *models.Order) {
	if s.events == nil {
		return
	}
	payload := map[string]interface{}{
		"orderID":       order.ID,
		"userID":        order.UserID,
		"status":        order.Status,
		"paymentStatus": order.PaymentStatus,
		"total":         order.Total,
	}
	if err := rabbitmq.PublishEvent(s.events, routingKey, payload); err != nil {
		logger.Get().Warn("Failed to publish order event",
			zap.String("order_id", order.ID),
			zap.String("routing_key", routingKey),
			zap.Error(err),
		)
	}
}
