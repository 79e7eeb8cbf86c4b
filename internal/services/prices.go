package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/julianjca/op-portfolio-tracker/internal/metrics"
	"github.com/julianjca/op-portfolio-tracker/internal/models"
)

// PriceRecorder appends price observations. History rows are never updated or deleted here.
type PriceRecorder struct {
	db *gorm.DB
}

func NewPriceRecorder(db *gorm.DB) *PriceRecorder {
	return &PriceRecorder{db: db}
}

// Append validates and inserts one observation
func (p *PriceRecorder) Append(ctx context.Context, entry models.PriceHistory) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("invalid price: %w", err)
	}
	if err := p.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return err
	}

	kind := "raw"
	if entry.IsGraded {
		kind = "graded"
	}
	metrics.PricesRecordedTotal.WithLabelValues(string(entry.Source), kind).Inc()
	return nil
}

// CurrentPrice is one row of the current_prices view
type CurrentPrice struct {
	ID              uint                   `json:"id"`
	ItemType        models.ItemType        `json:"item_type"`
	CardID          *uint                  `json:"card_id"`
	SealedProductID *uint                  `json:"sealed_product_id"`
	Price           float64                `json:"price"`
	Source          models.PriceSource     `json:"source"`
	Condition       *models.CardCondition  `json:"condition"`
	IsGraded        bool                   `json:"is_graded"`
	GradingCompany  *models.GradingCompany `json:"grading_company"`
	Grade           *float64               `json:"grade"`
	RecordedAt      string                 `json:"recorded_at"`
}

// CurrentCardPrices returns the latest observation per pricing dimension for a card
func (p *PriceRecorder) CurrentCardPrices(ctx context.Context, cardID uint) ([]CurrentPrice, error) {
	var prices []CurrentPrice
	err := p.db.WithContext(ctx).
		Table("current_prices").
		Where("item_type = ? AND card_id = ?", models.ItemTypeCard, cardID).
		Order("is_graded, grading_company, grade DESC, condition").
		Scan(&prices).Error
	return prices, err
}
