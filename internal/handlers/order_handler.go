package handlers

import (
	"fmt"
	"strings"

	"chronoshop/internal/logger"
	"chronoshop/internal/middleware"
	"chronoshop/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// OrderHandler handles HTTP requests for the order ledger: the customer's
// own order history, plus the admin listing, status updates, fulfillment
// reconciliation and shipment retries.
type OrderHandler struct {
	service  *services.OrderService
	checkout *services.CheckoutService
	auth     *services.AuthService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService, checkout *services.CheckoutService, auth *services.AuthService) *OrderHandler {
	return &OrderHandler{
		service:  service,
		checkout: checkout,
		auth:     auth,
	}
}

// RegisterRoutes registers the order routes with the Fiber app.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders", middleware.AuthRequired(h.auth))
	orderRoutes.Get("/", h.HandleGetMyOrders)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)

	adminRoutes := router.Group("/admin/orders", middleware.AuthRequired(h.auth), middleware.AdminRequired())
	adminRoutes.Get("/", h.HandleGetAllOrders)
	adminRoutes.Get("/degraded", h.HandleListDegraded)
	adminRoutes.Get("/metrics", h.HandleMetrics)
	adminRoutes.Patch("/:id/status", h.HandleUpdateOrderStatus)
	adminRoutes.Post("/:id/retry-shipment", h.HandleRetryShipment)
}

// HandleGetMyOrders retrieves the caller's own orders.
func (h *OrderHandler) HandleGetMyOrders(c *fiber.Ctx) error {
	orders, err := h.service.GetOrdersForUser(middleware.UserID(c))
	if err != nil {
		logger.Get().Error("Error getting user orders", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve orders",
			"error":   err.Error(),
		})
	}
	return c.JSON(orders)
}

// HandleGetAllOrders retrieves all orders for the admin listing.
func (h *OrderHandler) HandleGetAllOrders(c *fiber.Ctx) error {
	orders, err := h.service.GetAllOrders()
	if err != nil {
		logger.Get().Error("Error getting all orders", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve orders",
			"error":   err.Error(),
		})
	}
	return c.JSON(orders)
}

// HandleGetOrderByID retrieves a single order by its ID. Customers can only
// see their own orders; admins can see any.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	orderID := c.Params("id")
	order, err := h.service.GetOrderByID(orderID)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": fmt.Sprintf("Order with ID %s not found", orderID),
			})
		}
		logger.Get().Error("Error getting order", zap.String("order_id", orderID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve order",
			"error":   err.Error(),
		})
	}

	role, _ := c.Locals("role").(string)
	if role != "admin" && order.UserID != middleware.UserID(c) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": fmt.Sprintf("Order with ID %s not found", orderID),
		})
	}
	return c.JSON(order)
}

// HandleListDegraded lists paid orders whose shipment creation failed.
func (h *OrderHandler) HandleListDegraded(c *fiber.Ctx) error {
	orders, err := h.service.ListDegradedOrders()
	if err != nil {
		logger.Get().Error("Error listing degraded orders", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve degraded orders",
			"error":   err.Error(),
		})
	}
	return c.JSON(orders)
}

// HandleMetrics returns dashboard sales metrics.
func (h *OrderHandler) HandleMetrics(c *fiber.Ctx) error {
	metrics, err := h.service.Metrics()
	if err != nil {
		logger.Get().Error("Error computing metrics", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not compute metrics",
			"error":   err.Error(),
		})
	}
	return c.JSON(metrics)
}

// HandleUpdateOrderStatus updates the status of an existing order.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	orderID := c.Params("id")
	var updateData struct {
		Status string `json:"status"`
	}

	if err := c.BodyParser(&updateData); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body for status update",
			"error":   err.Error(),
		})
	}

	if updateData.Status == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Status is required for order status update.",
		})
	}

	if err := h.service.UpdateOrderStatus(orderID, updateData.Status); err != nil {
		logger.Get().Warn("Order status update failed",
			zap.String("order_id", orderID),
			zap.String("status", updateData.Status),
			zap.Error(err),
		)
		if errorsIsValidation(err) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": fmt.Sprintf("Order update failed: %v", err.Error()),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not update order status",
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Order %s status updated successfully to %s", orderID, updateData.Status),
	})
}

// HandleRetryShipment re-attempts shipment creation for a degraded order.
func (h *OrderHandler) HandleRetryShipment(c *fiber.Ctx) error {
	orderID := c.Params("id")
	result, err := h.checkout.RetryShipment(c.Context(), orderID)
	if err != nil {
		if errorsIsValidation(err) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Shipment retry rejected",
				"error":   err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retry shipment",
			"error":   err.Error(),
		})
	}
	return c.JSON(result)
}
