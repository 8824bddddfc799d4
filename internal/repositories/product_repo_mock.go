package repositories

import (
	"fmt"
	"sync"

	"chronoshop/internal/models"

	"github.com/google/uuid"
)

// MockProductRepository is an in-memory implementation of ProductRepository.
type MockProductRepository struct {
	products map[string]models.Product
	reviews  map[string]models.Review
	mu       sync.RWMutex
}

// NewMockProductRepository creates a new instance of MockProductRepository.
func NewMockProductRepository() *MockProductRepository {
	return &MockProductRepository{
		products: make(map[string]models.Product),
		reviews:  make(map[string]models.Review),
	}
}

// GetAll returns all products.
func (r *MockProductRepository) GetAll() ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	productList := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		productList = append(productList, p)
	}
	return productList, nil
}

// GetByID returns a product by its ID.
func (r *MockProductRepository) GetByID(id string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("product with ID %s not found", id)
	}
	return &product, nil
}

// Create adds a new product.
func (r *MockProductRepository) Create(product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	r.products[product.ID] = *product
	return nil
}

// Update modifies an existing product.
func (r *MockProductRepository) Update(product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.products[product.ID]
	if !ok {
		return fmt.Errorf("product with ID %s not found for update", product.ID)
	}
	r.products[product.ID] = *product
	return nil
}

// Delete removes a product by its ID.
func (r *MockProductRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.products[id]
	if !ok {
		return fmt.Errorf("product with ID %s not found for deletion", id)
	}
	delete(r.products, id)
	return nil
}

// CreateReview adds a new review.
func (r *MockProductRepository) CreateReview(review *models.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if review.ID == "" {
		review.ID = uuid.New().String()
	}
	r.reviews[review.ID] = *review
	return nil
}

// GetReviewByID returns a review by its ID.
func (r *MockProductRepository) GetReviewByID(id string) (*models.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	review, ok := r.reviews[id]
	if !ok {
		return nil, fmt.Errorf("review with ID %s not found", id)
	}
	return &review, nil
}

// UpdateReview modifies an existing review.
func (r *MockProductRepository) UpdateReview(review *models.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.reviews[review.ID]
	if !ok {
		return fmt.Errorf("review with ID %s not found for update", review.ID)
	}
	r.reviews[review.ID] = *review
	return nil
}

// DeleteReview removes a review by its ID.
func (r *MockProductRepository) DeleteReview(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.reviews[id]
	if !ok {
		return fmt.Errorf("review with ID %s not found for deletion", id)
	}
	delete(r.reviews, id)
	return nil
}

// GetReviewsByProductID returns all reviews for a product.
func (r *MockProductRepository) GetReviewsByProductID(productID string) ([]models.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var reviewList []models.Review
	for _, review := range r.reviews {
		if review.ProductID == productID {
			reviewList = append(reviewList, review)
		}
	}
	return reviewList, nil
}
