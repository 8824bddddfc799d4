package handlers

import (
	"chronoshop/internal/logger"
	"chronoshop/internal/services"
	"chronoshop/pkg/cashfree"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// WebhookHandler receives server-to-server payment notifications from the
// gateway. Every request must carry a valid HMAC signature; unsigned or
// tampered payloads are rejected before any order state is touched.
type WebhookHandler struct {
	checkout *services.CheckoutService
	settings *services.PaymentSettingsService
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(checkout *services.CheckoutService, settings *services.PaymentSettingsService) *WebhookHandler {
	return &WebhookHandler{
		checkout: checkout,
		settings: settings,
	}
}

// RegisterRoutes registers the webhook route. It is deliberately outside any
// auth middleware: the gateway authenticates via signature, not JWT.
func (h *WebhookHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/webhooks/payment", h.HandlePaymentWebhook)
}

// HandlePaymentWebhook verifies and applies a gateway notification.
func (h *WebhookHandler) HandlePaymentWebhook(c *fiber.Ctx) error {
	timestamp := c.Get(cashfree.HeaderWebhookTimestamp)
	signature := c.Get(cashfree.HeaderWebhookSignature)
	if timestamp == "" || signature == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Missing webhook signature headers",
		})
	}

	secret, err := h.settings.WebhookSecret()
	if err != nil {
		logger.Get().Error("Webhook rejected: no gateway credentials configured", zap.Error(err))
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"message": "Webhook verification unavailable",
		})
	}

	// The signature covers the raw bytes; parse only after verification.
	rawBody := c.Body()
	if !cashfree.VerifySignature(secret, timestamp, rawBody, signature) {
		logger.Get().Warn("Webhook rejected: signature mismatch")
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Invalid webhook signature",
		})
	}

	payload, err := cashfree.ParseWebhook(rawBody)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid webhook payload",
			"error":   err.Error(),
		})
	}

	if err := h.checkout.HandlePaymentWebhook(c.Context(), payload); err != nil {
		logger.Get().Error("Webhook processing failed",
			zap.String("type", payload.Type),
			zap.Error(err),
		)
		// Non-2xx makes the gateway redeliver; processing is idempotent.
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Webhook processing failed",
		})
	}
	return c.JSON(fiber.Map{"message": "ok"})
}
