package services_test

import (
	"testing"

	"chronoshop/internal/models"
	"chronoshop/internal/repositories"
	"chronoshop/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedOrder(t *testing.T, repo *repositories.MockOrderRepository, paymentStatus, fulfillmentStatus string, total float64) *models.Order {
	t.Helper()
	order := &models.Order{
		UserID:        "user-1",
		Subtotal:      total,
		Total:         total,
		Status:        models.OrderPending,
		PaymentStatus: paymentStatus,
		PaymentMethod: models.PaymentMethodOnline,
	}
	require.NoError(t, repo.Create(order))
	if fulfillmentStatus != "" {
		require.NoError(t, repo.SetFulfillment(order.ID, fulfillmentStatus, "provider unavailable"))
	}
	return order
}

func TestOrderService_UpdateOrderStatus(t *testing.T) {
	repo := repositories.NewMockOrderRepository()
	service := services.NewOrderService(repo)

	order := seedOrder(t, repo, models.PaymentPaid, "", 12999)

	require.NoError(t, service.UpdateOrderStatus(order.ID, models.OrderShipped))

	updated, err := repo.GetByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderShipped, updated.Status)
	// The payment status is not an order status and must survive untouched.
	assert.Equal(t, models.PaymentPaid, updated.PaymentStatus)

	// Arbitrary statuses are rejected.
	err = service.UpdateOrderStatus(order.ID, "refunded")
	assert.ErrorIs(t, err, services.ErrValidation)

	// Unknown orders are a validation error, not a panic.
	err = service.UpdateOrderStatus("missing", models.OrderShipped)
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestOrderService_ListDegradedOrders(t *testing.T) {
	repo := repositories.NewMockOrderRepository()
	service := services.NewOrderService(repo)

	seedOrder(t, repo, models.PaymentPaid, models.FulfillmentShipped, 5999)
	stuck := seedOrder(t, repo, models.PaymentPaid, models.FulfillmentDegraded, 12999)
	// Unpaid orders never show up in reconciliation.
	seedOrder(t, repo, models.PaymentPending, models.FulfillmentDegraded, 8999)

	degraded, err := service.ListDegradedOrders()
	require.NoError(t, err)
	require.Len(t, degraded, 1)
	assert.Equal(t, stuck.ID, degraded[0].ID)
}

func TestOrderService_Metrics(t *testing.T) {
	repo := repositories.NewMockOrderRepository()
	service := services.NewOrderService(repo)

	seedOrder(t, repo, models.PaymentPaid, models.FulfillmentShipped, 12999)
	seedOrder(t, repo, models.PaymentPaid, models.FulfillmentDegraded, 5999)
	seedOrder(t, repo, models.PaymentPending, "", 8999)

	metrics, err := service.Metrics()
	require.NoError(t, err)
	assert.Equal(t, 3, metrics.TotalOrders)
	// Only paid orders count toward revenue.
	assert.Equal(t, 18998.0, metrics.TotalRevenue)
	assert.Equal(t, 1, metrics.DegradedOrders)
	// All seeds were created just now.
	assert.Equal(t, 3, metrics.OrdersToday)
	assert.Equal(t, 3, metrics.OrdersThisMonth)
}
