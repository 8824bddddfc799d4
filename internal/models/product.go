package models

import "gorm.io/gorm"

// Product statuses.
const (
	ProductActive     = "active"
	ProductDraft      = "draft"
	ProductArchived   = "archived"
	ProductOutOfStock = "out_of_stock"
)

// Review statuses.
const (
	ReviewPending  = "pending"
	ReviewApproved = "approved"
	ReviewRejected = "rejected"
)

// Product represents a watch in the catalog.
type Product struct {
	ID          string   `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name        string   `json:"name" validate:"required,min=3,max=100"`
	Brand       string   `json:"brand" validate:"omitempty,max=100"`
	Description string   `json:"description" validate:"omitempty,max=500"`
	Price       float64  `json:"price" validate:"required,gt=0"`
	Stock       int      `json:"stock" validate:"gte=0"`
	Image       string   `json:"image" validate:"omitempty,max=500"`
	Status      string   `json:"status" gorm:"type:varchar(20);default:active" validate:"omitempty,oneof=active draft archived out_of_stock"`
	Reviews     []Review `json:"reviews,omitempty" gorm:"foreignKey:ProductID"`
	gorm.Model           // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}

// Review is a customer review attached to a product. Reviews are moderated:
// only approved ones are shown on the storefront.
type Review struct {
	ID        string `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	ProductID string `json:"product_id" gorm:"index;type:varchar(36)" validate:"required"`
	UserName  string `json:"user_name" validate:"required,max=100"`
	Rating    int    `json:"rating" validate:"required,min=1,max=5"`
	Comment   string `json:"comment" validate:"required,max=1000"`
	Status    string `json:"status" gorm:"type:varchar(20);default:pending" validate:"omitempty,oneof=pending approved rejected"`
	Reply     string `json:"reply,omitempty" validate:"omitempty,max=1000"`
	IsPinned  bool   `json:"is_pinned"`
	gorm.Model
}
