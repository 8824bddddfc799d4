package handlers

import (
	"chronoshop/internal/logger"
	"chronoshop/internal/middleware"
	"chronoshop/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// CheckoutHandler exposes the payment initiation, verification and
// pay-on-delivery endpoints.
type CheckoutHandler struct {
	checkout *services.CheckoutService
	auth     *services.AuthService
	validate *validator.Validate
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(checkout *services.CheckoutService, auth *services.AuthService) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		auth:     auth,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the checkout routes with the Fiber app.
func (h *CheckoutHandler) RegisterRoutes(router fiber.Router) {
	checkoutRoutes := router.Group("/checkout", middleware.AuthRequired(h.auth))
	checkoutRoutes.Post("/initiate", h.HandleInitiatePayment)
	checkoutRoutes.Post("/verify", h.HandleVerifyPayment)
	checkoutRoutes.Post("/place-order", h.HandlePlaceOrder)
}

// InitiatePaymentRequest is the body of POST /checkout/initiate. Amount is
// the client's view of the total; the server recomputes and must agree.
type InitiatePaymentRequest struct {
	Items    []services.CheckoutItem `json:"items" validate:"required,min=1,dive"`
	Amount   float64                 `json:"amount" validate:"required,gt=0"`
	Customer services.CustomerInfo   `json:"customer"`
}

// HandleInitiatePayment creates an order and a hosted payment session.
func (h *CheckoutHandler) HandleInitiatePayment(c *fiber.Ctx) error {
	var req InitiatePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return validationResponse(c, err)
	}

	userID := middleware.UserID(c)
	if req.Customer.ID == "" {
		req.Customer.ID = userID
	}

	result, err := h.checkout.InitiatePayment(c.Context(), userID, req.Customer, req.Items, req.Amount)
	if err != nil {
		if errorsIsValidation(err) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Checkout rejected",
				"error":   err.Error(),
			})
		}
		logger.Get().Error("Payment initiation failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not initiate payment",
			"error":   err.Error(),
		})
	}
	if !result.Success {
		return c.Status(fiber.StatusBadGateway).JSON(result)
	}
	return c.JSON(result)
}

// VerifyPaymentRequest is the body of POST /checkout/verify.
type VerifyPaymentRequest struct {
	OrderID string `json:"order_id" validate:"required"`
}

// HandleVerifyPayment checks the gateway-side payment state for an order
// and, when paid, triggers fulfillment. Idempotent.
func (h *CheckoutHandler) HandleVerifyPayment(c *fiber.Ctx) error {
	var req VerifyPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return validationResponse(c, err)
	}

	result, err := h.checkout.VerifyPayment(c.Context(), req.OrderID)
	if err != nil {
		if errorsIsValidation(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Order not found",
				"error":   err.Error(),
			})
		}
		logger.Get().Error("Payment verification failed", zap.String("order_id", req.OrderID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not verify payment",
			"error":   err.Error(),
		})
	}
	return c.JSON(result)
}

// PlaceOrderRequest is the body of POST /checkout/place-order.
type PlaceOrderRequest struct {
	Items     []services.CheckoutItem `json:"items" validate:"required,min=1,dive"`
	AddressID string                  `json:"address_id" validate:"required"`
}

// HandlePlaceOrder places a pay-on-delivery order.
func (h *CheckoutHandler) HandlePlaceOrder(c *fiber.Ctx) error {
	var req PlaceOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return validationResponse(c, err)
	}

	result, err := h.checkout.PlaceOrder(c.Context(), middleware.UserID(c), req.Items, req.AddressID)
	if err != nil {
		if errorsIsValidation(err) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Order rejected",
				"error":   err.Error(),
			})
		}
		logger.Get().Error("Order placement failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not place order",
			"error":   err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}
