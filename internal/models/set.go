package models

import (
	"time"
)

// Set is a card expansion, starter deck or promo line identified by its printed code (e.g. "OP-01").
// The valuation fields are written only by the set value aggregate.
type Set struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	Code        string  `json:"code" gorm:"not null;uniqueIndex"`
	Name        string  `json:"name" gorm:"not null"`
	ReleaseDate *string `json:"release_date"` // YYYY-MM-DD, nil when unannounced
	TotalCards  *int    `json:"total_cards"`
	ImageURL    *string `json:"image_url"`

	RawValue       float64    `json:"raw_value" gorm:"column:raw_value;not null;default:0"`
	PSA10Value     float64    `json:"psa10_value" gorm:"column:psa10_value;not null;default:0"`
	SealedValue    float64    `json:"sealed_value" gorm:"column:sealed_value;not null;default:0"`
	CardsPriced    int        `json:"cards_priced" gorm:"column:cards_priced;not null;default:0"`
	ValueUpdatedAt *time.Time `json:"value_updated_at" gorm:"column:value_updated_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SetKeyColumns are the columns a set upsert conflicts on
var SetKeyColumns = []string{"code"}

// NaturalKey returns the stable identifier used to deduplicate sets across syncs
func (s Set) NaturalKey() string {
	return s.Code
}

// SetValueResult is one row of the set value aggregate
type SetValueResult struct {
	SetID       uint    `json:"set_id" gorm:"column:set_id"`
	SetCode     string  `json:"set_code" gorm:"column:set_code"`
	RawValue    float64 `json:"raw_value" gorm:"column:raw_value"`
	PSA10Value  float64 `json:"psa10_value" gorm:"column:psa10_value"`
	SealedValue float64 `json:"sealed_value" gorm:"column:sealed_value"`
	CardsPriced int     `json:"cards_priced" gorm:"column:cards_priced"`
}
