package models

import (
	"time"
)

// Card is a single printing of a card. ExternalID carries the provider's image id,
// which distinguishes parallel-art variants (e.g. "OP01-001_p1") that share a card number.
type Card struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	ExternalID      string    `json:"external_id" gorm:"not null;uniqueIndex"`
	SetID           *uint     `json:"set_id" gorm:"index"`
	CardNumber      string    `json:"card_number" gorm:"not null;index"`
	Name            string    `json:"name" gorm:"not null;index"`
	Rarity          *string   `json:"rarity"`
	CardType        *string   `json:"card_type"`
	Color           *string   `json:"color"`
	Cost            *int      `json:"cost"`
	Power           *int      `json:"power"`
	Counter         *int      `json:"counter"`
	Attribute       *string   `json:"attribute"`
	Effect          *string   `json:"effect"`
	ImageURL        *string   `json:"image_url"`
	Approved        bool      `json:"approved" gorm:"not null;default:true"`
	IsUserSubmitted bool      `json:"is_user_submitted" gorm:"not null;default:false"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// CardKeyColumns are the columns a card upsert conflicts on
var CardKeyColumns = []string{"external_id"}

// CardCatalogColumns are the columns a catalog sync is allowed to overwrite.
// Moderation state (approved) and created_at are left alone.
var CardCatalogColumns = []string{
	"set_id", "card_number", "name", "rarity", "card_type", "color",
	"cost", "power", "counter", "attribute", "effect", "image_url", "updated_at",
}

// NaturalKey returns the stable identifier used to deduplicate cards across syncs
func (c Card) NaturalKey() string {
	return c.ExternalID
}

// SlabPriceRarities are the rarities worth looking up graded prices for
func SlabPriceRarities() []string {
	return []string{"L", "SEC", "SP", "SR"}
}
