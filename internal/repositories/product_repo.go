package repositories

import (
	"chronoshop/internal/models"
)

// ProductRepository defines the interface for catalog data access.
type ProductRepository interface {
	GetAll() ([]models.Product, error)
	GetByID(id string) (*models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	Delete(id string) error

	CreateReview(review *models.Review) error
	GetReviewByID(id string) (*models.Review, error)
	UpdateReview(review *models.Review) error
	DeleteReview(id string) error
	GetReviewsByProductID(productID string) ([]models.Review, error)
}
