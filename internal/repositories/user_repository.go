package repositories

import "chronoshop/internal/models"

// UserRepository defines the interface for user and address data access.
type UserRepository interface {
	Create(user *models.User) error
	GetByUsername(username string) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByID(id string) (*models.User, error)

	CreateAddress(address *models.Address) error
	GetAddressByID(id string) (*models.Address, error)
	GetAddressesByUserID(userID string) ([]models.Address, error)

	// GetLatestAddressByUserID returns the user's most recently updated
	// address, or (nil, nil) when the user has none saved.
	GetLatestAddressByUserID(userID string) (*models.Address, error)
}
