package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// PriceHistory is one append-only price observation for a card or sealed product.
// Rows are never updated or deleted by ingestion; the current price is derived from
// the latest row per pricing dimension (see the current_prices view).
type PriceHistory struct {
	ID              uint            `json:"id" gorm:"primaryKey"`
	ItemType        ItemType        `json:"item_type" gorm:"not null;index:idx_price_target"`
	CardID          *uint           `json:"card_id" gorm:"index:idx_price_target"`
	SealedProductID *uint           `json:"sealed_product_id" gorm:"index:idx_price_target"`
	Price           decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	Source          PriceSource     `json:"source" gorm:"not null;default:'manual'"`
	Condition       *CardCondition  `json:"condition"`
	IsGraded        bool            `json:"is_graded" gorm:"not null;default:false"`
	GradingCompany  *GradingCompany `json:"grading_company"`
	Grade           *float64        `json:"grade"`
	RecordedAt      time.Time       `json:"recorded_at" gorm:"not null;index"`
	RecordedBy      *string         `json:"recorded_by"`
}

func (PriceHistory) TableName() string {
	return "price_history"
}

// NewRawCardPrice builds an ungraded card observation
func NewRawCardPrice(cardID uint, price decimal.Decimal, source PriceSource, condition CardCondition) PriceHistory {
	return PriceHistory{
		ItemType:   ItemTypeCard,
		CardID:     &cardID,
		Price:      price,
		Source:     source,
		Condition:  &condition,
		RecordedAt: time.Now().UTC(),
	}
}

// NewGradedCardPrice builds an observation for a graded slab
func NewGradedCardPrice(cardID uint, price decimal.Decimal, source PriceSource, company GradingCompany, grade float64) PriceHistory {
	return PriceHistory{
		ItemType:       ItemTypeCard,
		CardID:         &cardID,
		Price:          price,
		Source:         source,
		IsGraded:       true,
		GradingCompany: &company,
		Grade:          &grade,
		RecordedAt:     time.Now().UTC(),
	}
}

// NewSealedPrice builds an observation for a sealed product
func NewSealedPrice(productID uint, price decimal.Decimal, source PriceSource) PriceHistory {
	return PriceHistory{
		ItemType:        ItemTypeSealed,
		SealedProductID: &productID,
		Price:           price,
		Source:          source,
		RecordedAt:      time.Now().UTC(),
	}
}

// Validate checks the target and grading invariants of an observation
func (p PriceHistory) Validate() error {
	switch p.ItemType {
	case ItemTypeCard:
		if p.CardID == nil || p.SealedProductID != nil {
			return errors.New("card price must reference exactly one card")
		}
	case ItemTypeSealed:
		if p.SealedProductID == nil || p.CardID != nil {
			return errors.New("sealed price must reference exactly one sealed product")
		}
		if p.Condition != nil || p.IsGraded {
			return errors.New("sealed price cannot carry condition or grading")
		}
	default:
		return errors.New("unknown item type " + string(p.ItemType))
	}

	if p.Price.IsNegative() {
		return errors.New("price cannot be negative")
	}
	if !p.Source.Valid() {
		return errors.New("unknown price source " + string(p.Source))
	}
	if p.Condition != nil && !p.Condition.Valid() {
		return errors.New("unknown condition " + string(*p.Condition))
	}

	if p.IsGraded {
		if p.GradingCompany == nil || !p.GradingCompany.Valid() {
			return errors.New("graded price needs a valid grading company")
		}
		if p.Grade == nil || *p.Grade <= 0 || *p.Grade > TopGrade {
			return errors.New("graded price needs a grade between 0 and 10")
		}
	} else if p.GradingCompany != nil || p.Grade != nil {
		return errors.New("ungraded price cannot carry grading company or grade")
	}

	return nil
}
