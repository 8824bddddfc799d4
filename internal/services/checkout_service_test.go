package services_test

import (
	"context"
	"testing"

	"chronoshop/internal/config"
	"chronoshop/internal/models"
	"chronoshop/internal/repositories"
	"chronoshop/internal/services"
	"chronoshop/pkg/cashfree"
	"chronoshop/pkg/shiprocket"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGateway is a scriptable PaymentGateway.
type fakeGateway struct {
	createResp   *cashfree.CreateOrderResponse
	createErr    error
	statusByID   map[string]*cashfree.OrderStatus
	getErr       error
	createCalls  int
	getCalls     int
	lastCreate   cashfree.CreateOrderRequest
	lastGetOrder string
}

func (f *fakeGateway) CreateOrder(ctx context.Context, req cashfree.CreateOrderRequest) (*cashfree.CreateOrderResponse, error) {
	f.createCalls++
	f.lastCreate = req
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.createResp, nil
}

func (f *fakeGateway) GetOrder(ctx context.Context, orderID string) (*cashfree.OrderStatus, error) {
	f.getCalls++
	f.lastGetOrder = orderID
	if f.getErr != nil {
		return nil, f.getErr
	}
	if status, ok := f.statusByID[orderID]; ok {
		return status, nil
	}
	return &cashfree.OrderStatus{OrderID: orderID, OrderStatus: "ACTIVE"}, nil
}

// fakeShipper is a scriptable ShipmentProvider.
type fakeShipper struct {
	resp    *shiprocket.ShipmentResponse
	err     error
	calls   int
	lastReq shiprocket.ShipmentRequest
}

func (f *fakeShipper) CreateOrder(ctx context.Context, req shiprocket.ShipmentRequest) (*shiprocket.ShipmentResponse, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

type checkoutFixture struct {
	orders   *repositories.MockOrderRepository
	users    *MockUserRepository
	products *MockProductRepository
	gateway  *fakeGateway
	shipper  *fakeShipper
	service  *services.CheckoutService
}

func newCheckoutFixture(t *testing.T, addressPolicy string) *checkoutFixture {
	t.Helper()

	settingsRepo := repositories.NewMockSettingsRepository()
	settings := services.NewPaymentSettingsService(settingsRepo, nil, "https://shop.example.com/checkout/verify")
	require.NoError(t, settings.Update(&models.PaymentSettings{
		Mode:                models.ModeSandbox,
		SandboxClientID:     "cf_test_id",
		SandboxClientSecret: "cf_test_secret",
	}))

	f := &checkoutFixture{
		orders:   repositories.NewMockOrderRepository(),
		users:    new(MockUserRepository),
		products: new(MockProductRepository),
		gateway: &fakeGateway{
			createResp: &cashfree.CreateOrderResponse{PaymentSessionID: "session_abc"},
			statusByID: map[string]*cashfree.OrderStatus{},
		},
		shipper: &fakeShipper{
			resp: &shiprocket.ShipmentResponse{OrderID: 501, ShipmentID: 9001, AWBCode: "AWB123", CourierName: "Delhivery", Status: "NEW"},
		},
	}
	f.service = services.NewCheckoutService(
		f.orders,
		f.users,
		f.products,
		settings,
		func(cfg cashfree.Config) services.PaymentGateway { return f.gateway },
		f.shipper,
		nil,
		config.CheckoutConfig{CallbackURL: "https://shop.example.com/checkout/verify", AddressPolicy: addressPolicy},
		"Primary",
	)
	return f
}

func (f *checkoutFixture) stubProduct(id, name string, price float64, stock int) {
	f.products.On("GetByID", id).Return(&models.Product{
		ID:     id,
		Name:   name,
		Price:  price,
		Stock:  stock,
		Status: models.ProductActive,
	}, nil)
}

func (f *checkoutFixture) stubUser(id string) {
	f.users.On("GetByID", id).Return(&models.User{
		ID:       id,
		Username: "asha",
		Name:     "Asha Rao",
		Email:    "asha@example.com",
		Phone:    "9876543210",
	}, nil)
}

func testAddress(userID string) *models.Address {
	return &models.Address{
		ID:          "addr-1",
		UserID:      userID,
		HouseNumber: "42-B",
		Locality:    "Richmond Road",
		City:        "Bengaluru",
		State:       "Karnataka",
		Pincode:     "560025",
	}
}

func TestCheckoutService_InitiatePayment(t *testing.T) {
	f := newCheckoutFixture(t, config.ShipToLatest)
	f.stubProduct("watch-1", "Horizon Diver 200", 12999.0, 10)

	result, err := f.service.InitiatePayment(context.Background(), "user-1",
		services.CustomerInfo{ID: "user-1", Name: "Asha Rao", Email: "asha@example.com", Phone: "9876543210"},
		[]services.CheckoutItem{{ProductID: "watch-1", Quantity: 1}},
		12999.0,
	)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "session_abc", result.PaymentSessionID)
	assert.Equal(t, models.ModeSandbox, result.Mode)
	assert.NotEmpty(t, result.OrderID)

	// The order exists durably and is awaiting payment.
	order, err := f.orders.GetByID(result.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, order.Status)
	assert.Equal(t, models.PaymentPending, order.PaymentStatus)
	assert.Equal(t, models.PaymentMethodOnline, order.PaymentMethod)
	assert.Equal(t, 12999.0, order.Total)

	// Gateway request was scoped to the order with the redirect template.
	assert.Equal(t, result.OrderID, f.gateway.lastCreate.OrderID)
	assert.Equal(t, "INR", f.gateway.lastCreate.OrderCurrency)
	assert.Contains(t, f.gateway.lastCreate.OrderMeta.ReturnURL, "?order_id={order_id}")
}

func TestCheckoutService_InitiatePayment_AmountMismatch(t *testing.T) {
	f := newCheckoutFixture(t, config.ShipToLatest)
	f.stubProduct("watch-1", "Horizon Diver 200", 12999.0, 10)

	// Client claims a lower total than the catalog computes.
	_, err := f.service.InitiatePayment(context.Background(), "user-1",
		services.CustomerInfo{ID: "user-1"},
		[]services.CheckoutItem{{ProductID: "watch-1", Quantity: 1}},
		1.0,
	)
	assert.ErrorIs(t, err, services.ErrValidation)
	assert.Contains(t, err.Error(), "does not match")
	assert.Zero(t, f.gateway.createCalls)

	// No order row was created for the rejected attempt.
	orders, _ := f.orders.GetAll()
	assert.Empty(t, orders)
}

func TestCheckoutService_InitiatePayment_InsufficientStock(t *testing.T) {
	f := newCheckoutFixture(t, config.ShipToLatest)
	f.stubProduct("watch-1", "Horizon Diver 200", 12999.0, 1)

	_, err := f.service.InitiatePayment(context.Background(), "user-1",
		services.CustomerInfo{ID: "user-1"},
		[]services.CheckoutItem{{ProductID: "watch-1", Quantity: 3}},
		38997.0,
	)
	assert.ErrorIs(t, err, services.ErrValidation)
	assert.Contains(t, err.Error(), "insufficient stock")
}

func TestCheckoutService_InitiatePayment_GatewayFailure(t *testing.T) {
	f := newCheckoutFixture(t, config.ShipToLatest)
	f.stubProduct("watch-1", "Horizon Diver 200", 12999.0, 10)
	f.gateway.createErr = &cashfree.APIError{StatusCode: 502, Message: "upstream unavailable"}

	result, err := f.service.InitiatePayment(context.Background(), "user-1",
		services.CustomerInfo{ID: "user-1"},
		[]services.CheckoutItem{{ProductID: "watch-1", Quantity: 1}},
		12999.0,
	)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "upstream unavailable")

	// The order stays on the books so a retry can reuse it.
	order, err := f.orders.GetByID(result.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPending, order.PaymentStatus)
}

// Full happy path: initiate, gateway settles, verify marks paid and ships.
func TestCheckoutService_VerifyPayment_PaidAndShipped(t *testing.T) {
	f := newCheckoutFixture(t, config.ShipToLatest)
	f.stubProduct("watch-1", "Horizon Diver 200", 12999.0, 10)
	f.stubUser("user-1")
	f.users.On("GetLatestAddressByUserID", "user-1").Return(testAddress("user-1"), nil)

	initResult, err := f.service.InitiatePayment(context.Background(), "user-1",
		services.CustomerInfo{ID: "user-1", Name: "Asha Rao", Email: "asha@example.com", Phone: "9876543210"},
		[]services.CheckoutItem{{ProductID: "watch-1", Quantity: 1}},
		12999.0,
	)
	require.NoError(t, err)
	orderID := initResult.OrderID

	f.gateway.statusByID[orderID] = &cashfree.OrderStatus{OrderID: orderID, OrderStatus: cashfree.OrderStatusPaid, OrderAmount: 12999.0}

	result, err := f.service.VerifyPayment(context.Background(), orderID)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, models.PaymentPaid, result.PaymentStatus)
	assert.Equal(t, models.FulfillmentShipped, result.FulfillmentStatus)

	order, err := f.orders.GetByID(orderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPaid, order.Status)
	assert.Equal(t, models.PaymentPaid, order.PaymentStatus)
	require.NotNil(t, order.Shipment)
	assert.Equal(t, "AWB123", order.Shipment.AWBCode)
	assert.Equal(t, int64(9001), order.Shipment.ProviderShipmentID)

	// Shipment request carried the snapshot pricing and the address.
	assert.Equal(t, 12999.0, f.shipper.lastReq.Subtotal)
	assert.Equal(t, "560025", f.shipper.lastReq.BillingPincode)
	assert.Equal(t, "Prepaid", f.shipper.lastReq.PaymentMethod)
}

func TestCheckoutService_VerifyPayment_NotPaid(t *testing.T) {
	f := newCheckoutFixture(t, config.ShipToLatest)
	f.stubProduct("watch-1", "Horizon Diver 200", 12999.0, 10)

	initResult, err := f.service.InitiatePayment(context.Background(), "user-1",
		services.CustomerInfo{ID: "user-1"},
		[]services.CheckoutItem{{ProductID: "watch-1", Quantity: 1}},
		12999.0,
	)
	require.NoError(t, err)
	orderID := initResult.OrderID

	// Gateway still reports ACTIVE (the fake's default).
	result, err := f.service.VerifyPayment(context.Background(), orderID)
	require.NoError(t, err)
	assert.False(t, result.Success)

	// Nothing was mutated and nothing was shipped.
	order, err := f.orders.GetByID(orderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, order.Status)
	assert.Equal(t, models.PaymentPending, order.PaymentStatus)
	assert.Zero(t, f.shipper.calls)
}

// A paid order whose shipment creation fails stays successful but is tagged
// for reconciliation. No shipment rows exist.
func TestCheckoutService_VerifyPayment_ShipmentProviderDown(t *testing.T) {
	f := newCheckoutFixture(t, config.ShipToLatest)
	f.stubProduct("watch-1", "Horizon Diver 200", 12999.0, 10)
	f.stubUser("user-1")
	f.users.On("GetLatestAddressByUserID", "user-1").Return(testAddress("user-1"), nil)
	f.shipper.err = &shiprocket.APIError{StatusCode: 500, Message: "internal error"}

	initResult, err := f.service.InitiatePayment(context.Background(), "user-1",
		services.CustomerInfo{ID: "user-1"},
		[]services.CheckoutItem{{ProductID: "watch-1", Quantity: 1}},
		12999.0,
	)
	require.NoError(t, err)
	orderID := initResult.OrderID
	f.gateway.statusByID[orderID] = &cashfree.OrderStatus{OrderID: orderID, OrderStatus: cashfree.OrderStatusPaid}

	result, err := f.service.VerifyPayment(context.Background(), orderID)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, models.PaymentPaid, result.PaymentStatus)
	assert.Equal(t, models.FulfillmentDegraded, result.FulfillmentStatus)

	order, err := f.orders.GetByID(orderID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, order.PaymentStatus)
	assert.Nil(t, order.Shipment)
	assert.NotEmpty(t, order.FulfillmentError)

	// The order shows up in the reconciliation listing.
	degraded, err := f.orders.ListDegraded()
	require.NoError(t, err)
	require.Len(t, degraded, 1)
	assert.Equal(t, orderID, degraded[0].ID)
}

// A paid customer with no saved address is a degraded, not failed, outcome.
func TestCheckoutService_VerifyPayment_NoAddress(t *testing.T) {
	f := newCheckoutFixture(t, config.ShipToLatest)
	f.stubProduct("watch-1", "Horizon Diver 200", 12999.0, 10)
	f.stubUser("user-1")
	f.users.On("GetLatestAddressByUserID", "user-1").Return(nil, nil)

	initResult, err := f.service.InitiatePayment(context.Background(), "user-1",
		services.CustomerInfo{ID: "user-1"},
		[]services.CheckoutItem{{ProductID: "watch-1", Quantity: 1}},
		12999.0,
	)
	require.NoError(t, err)
	orderID := initResult.OrderID
	f.gateway.statusByID[orderID] = &cashfree.OrderStatus{OrderID: orderID, OrderStatus: cashfree.OrderStatusPaid}

	result, err := f.service.VerifyPayment(context.Background(), orderID)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, models.FulfillmentDegraded, result.FulfillmentStatus)
	assert.Zero(t, f.shipper.calls)

	order, _ := f.orders.GetByID(orderID)
	assert.Contains(t, order.FulfillmentError, "no shipping address")
}

// Repeated verification never creates a second shipment or re-queries the
// gateway once the order is settled.
func TestCheckoutService_VerifyPayment_Idempotent(t *testing.T) {
	f := newCheckoutFixture(t, config.ShipToLatest)
	f.stubProduct("watch-1", "Horizon Diver 200", 12999.0, 10)
	f.stubUser("user-1")
	f.users.On("GetLatestAddressByUserID", "user-1").Return(testAddress("user-1"), nil)

	initResult, err := f.service.InitiatePayment(context.Background(), "user-1",
		services.CustomerInfo{ID: "user-1"},
		[]services.CheckoutItem{{ProductID: "watch-1", Quantity: 1}},
		12999.0,
	)
	require.NoError(t, err)
	orderID := initResult.OrderID
	f.gateway.statusByID[orderID] = &cashfree.OrderStatus{OrderID: orderID, OrderStatus: cashfree.OrderStatusPaid}

	_, err = f.service.VerifyPayment(context.Background(), orderID)
	require.NoError(t, err)
	gatewayCallsAfterFirst := f.gateway.getCalls
	require.Equal(t, 1, f.shipper.calls)

	// Redirect and webhook race: the second call is a no-op.
	result, err := f.service.VerifyPayment(context.Background(), orderID)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, models.FulfillmentShipped, result.FulfillmentStatus)
	assert.Equal(t, gatewayCallsAfterFirst, f.gateway.getCalls)
	assert.Equal(t, 1, f.shipper.calls)
}

// Snapshot policy ships to the address chosen at checkout even after the
// user saves a newer one.
func TestCheckoutService_AddressPolicy_Snapshot(t *testing.T) {
	f := newCheckoutFixture(t, config.ShipToSnapshot)
	f.stubProduct("watch-1", "Horizon Diver 200", 12999.0, 10)
	f.stubUser("user-1")

	checkoutAddr := testAddress("user-1")
	f.users.On("GetAddressByID", "addr-1").Return(checkoutAddr, nil)

	initResult, err := f.service.InitiatePayment(context.Background(), "user-1",
		services.CustomerInfo{ID: "user-1"},
		[]services.CheckoutItem{{ProductID: "watch-1", Quantity: 1}},
		12999.0,
	)
	require.NoError(t, err)
	orderID := initResult.OrderID

	// Pin the order to the checkout-time address the way the COD flow does.
	order, err := f.orders.GetByID(orderID)
	require.NoError(t, err)
	order.AddressID = "addr-1"
	require.NoError(t, f.orders.Create(order))

	f.gateway.statusByID[orderID] = &cashfree.OrderStatus{OrderID: orderID, OrderStatus: cashfree.OrderStatusPaid}

	result, err := f.service.VerifyPayment(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, models.FulfillmentShipped, result.FulfillmentStatus)
	assert.Equal(t, "560025", f.shipper.lastReq.BillingPincode)
	// The latest-address lookup must not have been consulted.
	f.users.AssertNotCalled(t, "GetLatestAddressByUserID", "user-1")
}

// Latest policy ships to whatever address is newest at fulfillment time.
func TestCheckoutService_AddressPolicy_Latest(t *testing.T) {
	f := newCheckoutFixture(t, config.ShipToLatest)
	f.stubProduct("watch-1", "Horizon Diver 200", 12999.0, 10)
	f.stubUser("user-1")

	newer := &models.Address{
		ID: "addr-2", UserID: "user-1",
		HouseNumber: "7", Locality: "MG Road",
		City: "Pune", State: "Maharashtra", Pincode: "411001",
	}
	f.users.On("GetLatestAddressByUserID", "user-1").Return(newer, nil)

	initResult, err := f.service.InitiatePayment(context.Background(), "user-1",
		services.CustomerInfo{ID: "user-1"},
		[]services.CheckoutItem{{ProductID: "watch-1", Quantity: 1}},
		12999.0,
	)
	require.NoError(t, err)
	orderID := initResult.OrderID
	f.gateway.statusByID[orderID] = &cashfree.OrderStatus{OrderID: orderID, OrderStatus: cashfree.OrderStatusPaid}

	result, err := f.service.VerifyPayment(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, models.FulfillmentShipped, result.FulfillmentStatus)
	assert.Equal(t, "411001", f.shipper.lastReq.BillingPincode)
}

func TestCheckoutService_PlaceOrder_COD(t *testing.T) {
	f := newCheckoutFixture(t, config.ShipToSnapshot)
	f.stubProduct("watch-2", "Meridian Classic", 5999.0, 5)
	f.stubUser("user-1")
	f.users.On("GetAddressByID", "addr-1").Return(testAddress("user-1"), nil)

	result, err := f.service.PlaceOrder(context.Background(), "user-1",
		[]services.CheckoutItem{{ProductID: "watch-2", Quantity: 1}}, "addr-1")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Empty(t, result.Warning)

	order, err := f.orders.GetByID(result.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentMethodCOD, order.PaymentMethod)
	assert.Equal(t, models.PaymentPending, order.PaymentStatus)
	require.NotNil(t, order.Shipment)
	assert.Equal(t, "COD", f.shipper.lastReq.PaymentMethod)
}

// COD with the provider down: order placement still succeeds, with a warning
// and zero shipment rows.
func TestCheckoutService_PlaceOrder_CODProviderDown(t *testing.T) {
	f := newCheckoutFixture(t, config.ShipToSnapshot)
	f.stubProduct("watch-2", "Meridian Classic", 5999.0, 5)
	f.stubUser("user-1")
	f.users.On("GetAddressByID", "addr-1").Return(testAddress("user-1"), nil)
	f.shipper.err = &shiprocket.APIError{StatusCode: 500, Message: "internal error"}

	result, err := f.service.PlaceOrder(context.Background(), "user-1",
		[]services.CheckoutItem{{ProductID: "watch-2", Quantity: 1}}, "addr-1")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.NotEmpty(t, result.OrderID)
	assert.Contains(t, result.Warning, "shipping generation failed")

	shipment, err := f.orders.GetShipmentByOrderID(result.OrderID)
	require.NoError(t, err)
	assert.Nil(t, shipment)
}

func TestCheckoutService_PlaceOrder_ForeignAddressRejected(t *testing.T) {
	f := newCheckoutFixture(t, config.ShipToSnapshot)
	f.users.On("GetAddressByID", "addr-1").Return(testAddress("someone-else"), nil)

	_, err := f.service.PlaceOrder(context.Background(), "user-1",
		[]services.CheckoutItem{{ProductID: "watch-2", Quantity: 1}}, "addr-1")
	assert.ErrorIs(t, err, services.ErrValidation)
	assert.Contains(t, err.Error(), "does not belong")
}

func TestCheckoutService_HandlePaymentWebhook(t *testing.T) {
	f := newCheckoutFixture(t, config.ShipToLatest)
	f.stubProduct("watch-1", "Horizon Diver 200", 12999.0, 10)
	f.stubUser("user-1")
	f.users.On("GetLatestAddressByUserID", "user-1").Return(testAddress("user-1"), nil)

	initResult, err := f.service.InitiatePayment(context.Background(), "user-1",
		services.CustomerInfo{ID: "user-1"},
		[]services.CheckoutItem{{ProductID: "watch-1", Quantity: 1}},
		12999.0,
	)
	require.NoError(t, err)
	orderID := initResult.OrderID
	f.gateway.statusByID[orderID] = &cashfree.OrderStatus{OrderID: orderID, OrderStatus: cashfree.OrderStatusPaid}

	payload := &cashfree.WebhookPayload{Type: cashfree.WebhookTypePaymentSuccess}
	payload.Data.Order.OrderID = orderID
	require.NoError(t, f.service.HandlePaymentWebhook(context.Background(), payload))

	order, err := f.orders.GetByID(orderID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, order.PaymentStatus)
	require.NotNil(t, order.Shipment)

	// Other event types are ignored without touching the ledger.
	other := &cashfree.WebhookPayload{Type: "PAYMENT_FAILED_WEBHOOK"}
	other.Data.Order.OrderID = orderID
	assert.NoError(t, f.service.HandlePaymentWebhook(context.Background(), other))
}

func TestCheckoutService_RetryShipment(t *testing.T) {
	f := newCheckoutFixture(t, config.ShipToLatest)
	f.stubProduct("watch-1", "Horizon Diver 200", 12999.0, 10)
	f.stubUser("user-1")
	f.users.On("GetLatestAddressByUserID", "user-1").Return(testAddress("user-1"), nil)
	f.shipper.err = &shiprocket.APIError{StatusCode: 500, Message: "internal error"}

	initResult, err := f.service.InitiatePayment(context.Background(), "user-1",
		services.CustomerInfo{ID: "user-1"},
		[]services.CheckoutItem{{ProductID: "watch-1", Quantity: 1}},
		12999.0,
	)
	require.NoError(t, err)
	orderID := initResult.OrderID
	f.gateway.statusByID[orderID] = &cashfree.OrderStatus{OrderID: orderID, OrderStatus: cashfree.OrderStatusPaid}

	result, err := f.service.VerifyPayment(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, models.FulfillmentDegraded, result.FulfillmentStatus)

	// Provider recovers; the retry drains the degraded state.
	f.shipper.err = nil
	retry, err := f.service.RetryShipment(context.Background(), orderID)
	require.NoError(t, err)
	assert.True(t, retry.Success)
	assert.Equal(t, models.FulfillmentShipped, retry.FulfillmentStatus)

	degraded, err := f.orders.ListDegraded()
	require.NoError(t, err)
	assert.Empty(t, degraded)
}
