package services

import (
	"fmt"

	"chronoshop/internal/models"
	"chronoshop/internal/repositories"
)

// ProductService handles business logic related to the catalog and its
// reviews.
type ProductService struct {
	repo repositories.ProductRepository
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository) *ProductService {
	return &ProductService{
		repo: repo,
	}
}

// GetAllProducts retrieves all products.
func (s *ProductService) GetAllProducts() ([]models.Product, error) {
	return s.repo.GetAll()
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(id string) (*models.Product, error) {
	return s.repo.GetByID(id)
}

// CreateProduct creates a new product. New products default to draft until
// an admin publishes them.
func (s *ProductService) CreateProduct(product *models.Product) error {
	if product.Status == "" {
		product.Status = models.ProductDraft
	}
	return s.repo.Create(product)
}

// UpdateProduct updates an existing product.
func (s *ProductService) UpdateProduct(product *models.Product) error {
	return s.repo.Update(product)
}

// DeleteProduct deletes a product by its ID.
func (s *ProductService) DeleteProduct(id string) error {
	return s.repo.Delete(id)
}

// SubmitReview records a customer review. It enters the moderation queue
// and is not visible on the storefront until approved.
func (s *ProductService) SubmitReview(review *models.Review) error {
	if _, err := s.repo.GetByID(review.ProductID); err != nil {
		return fmt.Errorf("%w: product %s not found", ErrValidation, review.ProductID)
	}
	if review.Rating < 1 || review.Rating > 5 {
		return fmt.Errorf("%w: rating must be between 1 and 5", ErrValidation)
	}
	review.Status = models.ReviewPending
	review.Reply = ""
	review.IsPinned = false
	return s.repo.CreateReview(review)
}

// GetApprovedReviews returns the reviews shown on a product page, pinned
// ones first.
func (s *ProductService) GetApprovedReviews(productID string) ([]models.Review, error) {
	reviews, err := s.repo.GetReviewsByProductID(productID)
	if err != nil {
		return nil, err
	}
	approved := make([]models.Review, 0, len(reviews))
	for _, r := range reviews {
		if r.Status == models.ReviewApproved && r.IsPinned {
			approved = append(approved, r)
		}
	}
	for _, r := range reviews {
		if r.Status == models.ReviewApproved && !r.IsPinned {
			approved = append(approved, r)
		}
	}
	return approved, nil
}

// GetAllReviews returns every review for a product regardless of status,
// for the moderation view.
func (s *ProductService) GetAllReviews(productID string) ([]models.Review, error) {
	return s.repo.GetReviewsByProductID(productID)
}

// ModerateReview approves or rejects a pending review.
func (s *ProductService) ModerateReview(id string, status string) error {
	if status != models.ReviewApproved && status != models.ReviewRejected {
		return fmt.Errorf("%w: invalid review status: %s", ErrValidation, status)
	}
	review, err := s.repo.GetReviewByID(id)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	review.Status = status
	return s.repo.UpdateReview(review)
}

// ReplyToReview attaches a store reply to a review.
func (s *ProductService) ReplyToReview(id string, reply string) error {
	review, err := s.repo.GetReviewByID(id)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	review.Reply = reply
	return s.repo.UpdateReview(review)
}

// PinReview toggles a review's pinned flag. Only approved reviews can be
// pinned.
func (s *ProductService) PinReview(id string, pinned bool) error {
	review, err := s.repo.GetReviewByID(id)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if pinned && review.Status != models.ReviewApproved {
		return fmt.Errorf("%w: only approved reviews can be pinned", ErrValidation)
	}
	review.IsPinned = pinned
	return s.repo.UpdateReview(review)
}

// DeleteReview removes a review.
func (s *ProductService) DeleteReview(id string) error {
	return s.repo.DeleteReview(id)
}
