package models

import (
	"time"
)

// SealedProduct is unopened product (booster box, case, starter deck, ...) belonging to a set
type SealedProduct struct {
	ID              uint              `json:"id" gorm:"primaryKey"`
	SetID           *uint             `json:"set_id" gorm:"index"`
	Name            string            `json:"name" gorm:"not null"`
	ProductType     SealedProductType `json:"product_type" gorm:"not null"`
	Description     *string           `json:"description"`
	ImageURL        *string           `json:"image_url"`
	ReleaseDate     *string           `json:"release_date"`
	Approved        bool              `json:"approved" gorm:"not null;default:true"`
	IsUserSubmitted bool              `json:"is_user_submitted" gorm:"not null;default:false"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}
