package models

import "gorm.io/gorm"

// User roles.
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// User represents a customer or admin account.
type User struct {
	ID         string `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Username   string `json:"username" gorm:"uniqueIndex;type:varchar(100)" validate:"required,min=3,max=100"`
	Email      string `json:"email" gorm:"uniqueIndex;type:varchar(255)" validate:"required,email"`
	Password   string `gorm:"type:varchar(255)" validate:"required,min=6"` // No json tag for security
	Name       string `json:"name" validate:"omitempty,max=100"`
	Phone      string `json:"phone" validate:"omitempty,min=10,max=15"`
	Role       string `json:"role" gorm:"type:varchar(20);default:customer" validate:"omitempty,oneof=customer admin"`
	gorm.Model        // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}

// Address is a saved shipping address owned by a user. The most recently
// updated address is treated as the user's current one.
type Address struct {
	ID          string `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	UserID      string `json:"user_id" gorm:"index;type:varchar(36)" validate:"required"`
	HouseNumber string `json:"house_number" validate:"required,max=100"`
	Locality    string `json:"locality" validate:"required,max=200"`
	City        string `json:"city" validate:"required,max=100"`
	State       string `json:"state" validate:"required,max=100"`
	Pincode     string `json:"pincode" validate:"required,len=6,numeric"`
	Landmark    string `json:"landmark" validate:"omitempty,max=200"`
	gorm.Model
}
