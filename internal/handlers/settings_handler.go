package handlers

import (
	"chronoshop/internal/logger"
	"chronoshop/internal/middleware"
	"chronoshop/internal/models"
	"chronoshop/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// SettingsHandler exposes the admin payment-settings endpoints. Secrets are
// always masked on the way out.
type SettingsHandler struct {
	settings *services.PaymentSettingsService
	auth     *services.AuthService
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(settings *services.PaymentSettingsService, auth *services.AuthService) *SettingsHandler {
	return &SettingsHandler{
		settings: settings,
		auth:     auth,
	}
}

// RegisterRoutes registers the settings routes with the Fiber app.
func (h *SettingsHandler) RegisterRoutes(router fiber.Router) {
	settingsRoutes := router.Group("/admin/settings", middleware.AuthRequired(h.auth), middleware.AdminRequired())
	settingsRoutes.Get("/payment", h.HandleGetPaymentSettings)
	settingsRoutes.Put("/payment", h.HandleUpdatePaymentSettings)
}

// HandleGetPaymentSettings returns the settings with secrets masked.
func (h *SettingsHandler) HandleGetPaymentSettings(c *fiber.Ctx) error {
	masked, err := h.settings.Masked()
	if err != nil {
		logger.Get().Error("Failed to load payment settings", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not load payment settings",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{"settings": masked})
}

// HandleUpdatePaymentSettings persists new settings. Masked secret values
// keep their stored counterparts.
func (h *SettingsHandler) HandleUpdatePaymentSettings(c *fiber.Ctx) error {
	var in models.PaymentSettings
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.settings.Update(&in); err != nil {
		if errorsIsValidation(err) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Settings rejected",
				"error":   err.Error(),
			})
		}
		logger.Get().Error("Failed to update payment settings", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not update payment settings",
			"error":   err.Error(),
		})
	}

	masked, err := h.settings.Masked()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Settings saved but could not be reloaded",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"message":  "Payment settings updated",
		"settings": masked,
	})
}
