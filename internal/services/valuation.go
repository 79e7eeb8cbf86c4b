package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/julianjca/op-portfolio-tracker/internal/database"
	"github.com/julianjca/op-portfolio-tracker/internal/metrics"
	"github.com/julianjca/op-portfolio-tracker/internal/models"
)

// ValuationAggregator recomputes the per-set rollups from the full price history.
// Each run is a complete recomputation; nothing is maintained incrementally.
type ValuationAggregator struct {
	db  *gorm.DB
	now func() time.Time
}

func NewValuationAggregator(db *gorm.DB) *ValuationAggregator {
	return &ValuationAggregator{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// RecomputeSetValues recomputes one set, or every set when setID is nil
func (v *ValuationAggregator) RecomputeSetValues(ctx context.Context, setID *uint) ([]models.SetValueResult, error) {
	var scope uint
	if setID != nil {
		scope = *setID
	}

	results, err := database.CalculateSetValues(ctx, v.db, scope, v.now())
	if err != nil {
		return nil, err
	}

	for _, r := range results {
		metrics.SetValueUSD.WithLabelValues(r.SetCode, "raw").Set(r.RawValue)
		metrics.SetValueUSD.WithLabelValues(r.SetCode, "psa10").Set(r.PSA10Value)
		metrics.SetValueUSD.WithLabelValues(r.SetCode, "sealed").Set(r.SealedValue)
		metrics.SetCardsPriced.WithLabelValues(r.SetCode).Set(float64(r.CardsPriced))
	}
	return results, nil
}
