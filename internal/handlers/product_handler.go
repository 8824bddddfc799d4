package handlers

import (
	"fmt"
	"strings"

	"chronoshop/internal/logger"
	"chronoshop/internal/middleware"
	"chronoshop/internal/models"
	"chronoshop/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ProductHandler handles HTTP requests for the catalog and reviews.
type ProductHandler struct {
	service  *services.ProductService
	auth     *services.AuthService
	validate *validator.Validate
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService, auth *services.AuthService) *ProductHandler {
	return &ProductHandler{
		service:  service,
		auth:     auth,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the product routes with the Fiber app.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Get("/:id", h.HandleGetProductByID)
	productRoutes.Get("/:id/reviews", h.HandleGetReviews)
	productRoutes.Post("/:id/reviews", h.HandleSubmitReview)

	adminRoutes := router.Group("/admin/products", middleware.AuthRequired(h.auth), middleware.AdminRequired())
	adminRoutes.Post("/", h.HandleCreateProduct)
	adminRoutes.Put("/:id", h.HandleUpdateProduct)
	adminRoutes.Delete("/:id", h.HandleDeleteProduct)

	reviewRoutes := router.Group("/admin/reviews", middleware.AuthRequired(h.auth), middleware.AdminRequired())
	reviewRoutes.Get("/:productId", h.HandleGetAllReviews)
	reviewRoutes.Patch("/:id/status", h.HandleModerateReview)
	reviewRoutes.Patch("/:id/reply", h.HandleReplyToReview)
	reviewRoutes.Patch("/:id/pin", h.HandlePinReview)
	reviewRoutes.Delete("/:id", h.HandleDeleteReview)
}

// HandleGetProducts retrieves all products.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	products, err := h.service.GetAllProducts()
	if err != nil {
		logger.Get().Error("Error getting products", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve products",
			"error":   err.Error(),
		})
	}
	return c.JSON(products)
}

// HandleGetProductByID retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	productID := c.Params("id")
	product, err := h.service.GetProductByID(productID)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": fmt.Sprintf("Product with ID %s not found", productID),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve product",
			"error":   err.Error(),
		})
	}
	return c.JSON(product)
}

// HandleCreateProduct creates a new product.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var product models.Product
	if err := c.BodyParser(&product); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(product); err != nil {
		return validationResponse(c, err)
	}

	if err := h.service.CreateProduct(&product); err != nil {
		logger.Get().Error("Error creating product", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not create product",
			"error":   err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleUpdateProduct updates an existing product.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	var product models.Product
	if err := c.BodyParser(&product); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	product.ID = c.Params("id")
	if err := h.validate.Struct(product); err != nil {
		return validationResponse(c, err)
	}

	if err := h.service.UpdateProduct(&product); err != nil {
		if strings.Contains(err.Error(), "not found") {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": fmt.Sprintf("Product with ID %s not found", product.ID),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not update product",
			"error":   err.Error(),
		})
	}
	return c.JSON(product)
}

// HandleDeleteProduct deletes a product by its ID.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	productID := c.Params("id")
	if err := h.service.DeleteProduct(productID); err != nil {
		if strings.Contains(err.Error(), "not found") {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": fmt.Sprintf("Product with ID %s not found", productID),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not delete product",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Product %s deleted", productID),
	})
}

// HandleGetReviews returns the approved reviews for a product.
func (h *ProductHandler) HandleGetReviews(c *fiber.Ctx) error {
	reviews, err := h.service.GetApprovedReviews(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve reviews",
			"error":   err.Error(),
		})
	}
	return c.JSON(reviews)
}

// HandleSubmitReview records a customer review for moderation.
func (h *ProductHandler) HandleSubmitReview(c *fiber.Ctx) error {
	var review models.Review
	if err := c.BodyParser(&review); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	review.ProductID = c.Params("id")
	if err := h.validate.Struct(review); err != nil {
		return validationResponse(c, err)
	}

	if err := h.service.SubmitReview(&review); err != nil {
		if errorsIsValidation(err) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Review rejected",
				"error":   err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not save review",
			"error":   err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Review submitted for moderation",
		"review":  review,
	})
}

// HandleGetAllReviews returns every review for a product, all statuses.
func (h *ProductHandler) HandleGetAllReviews(c *fiber.Ctx) error {
	reviews, err := h.service.GetAllReviews(c.Params("productId"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve reviews",
			"error":   err.Error(),
		})
	}
	return c.JSON(reviews)
}

// HandleModerateReview approves or rejects a review.
func (h *ProductHandler) HandleModerateReview(c *fiber.Ctx) error {
	var body struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.service.ModerateReview(c.Params("id"), body.Status); err != nil {
		if errorsIsValidation(err) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Moderation rejected",
				"error":   err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not moderate review",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{"message": "Review updated"})
}

// HandleReplyToReview attaches a store reply to a review.
func (h *ProductHandler) HandleReplyToReview(c *fiber.Ctx) error {
	var body struct {
		Reply string `json:"reply"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.service.ReplyToReview(c.Params("id"), body.Reply); err != nil {
		if errorsIsValidation(err) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Reply rejected",
				"error":   err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not save reply",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{"message": "Reply saved"})
}

// HandlePinReview toggles a review's pinned flag.
func (h *ProductHandler) HandlePinReview(c *fiber.Ctx) error {
	var body struct {
		Pinned bool `json:"pinned"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.service.PinReview(c.Params("id"), body.Pinned); err != nil {
		if errorsIsValidation(err) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Pin rejected",
				"error":   err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not update review",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{"message": "Review updated"})
}

// HandleDeleteReview removes a review.
func (h *ProductHandler) HandleDeleteReview(c *fiber.Ctx) error {
	if err := h.service.DeleteReview(c.Params("id")); err != nil {
		if strings.Contains(err.Error(), "not found") {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Review not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not delete review",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{"message": "Review deleted"})
}
