package database

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/julianjca/op-portfolio-tracker/internal/models"
)

// calculateSetValuesSQL recomputes every valuation field on sets from current_prices.
// Bind parameters: computed-at timestamp, then the set id twice (0 = all sets).
//
//	raw_value    sum over cards of one current ungraded price, near_mint preferred
//	             over a condition-less row
//	psa10_value  sum over cards of the best current PSA 10 price
//	sealed_value sum of current sealed product prices
//	cards_priced distinct cards with any price history
const calculateSetValuesSQL = `
WITH
raw_per_card AS (
	SELECT cp.card_id AS card_id, cp.price AS price,
	       ROW_NUMBER() OVER (
	           PARTITION BY cp.card_id
	           ORDER BY cp.condition IS NULL, cp.recorded_at DESC, cp.id DESC
	       ) AS rn
	FROM current_prices cp
	WHERE cp.item_type = 'card'
	  AND cp.is_graded = 0
	  AND COALESCE(cp.condition, 'near_mint') = 'near_mint'
),
raw AS (
	SELECT c.set_id AS set_id, SUM(r.price) AS value
	FROM raw_per_card r
	JOIN cards c ON c.id = r.card_id
	WHERE r.rn = 1
	GROUP BY c.set_id
),
psa10 AS (
	SELECT set_id, SUM(best) AS value
	FROM (
		SELECT c.set_id AS set_id, MAX(cp.price) AS best
		FROM current_prices cp
		JOIN cards c ON c.id = cp.card_id
		WHERE cp.item_type = 'card'
		  AND cp.is_graded = 1
		  AND cp.grading_company = 'PSA'
		  AND cp.grade = 10
		GROUP BY c.set_id, cp.card_id
	)
	GROUP BY set_id
),
sealed AS (
	SELECT sp.set_id AS set_id, SUM(cp.price) AS value
	FROM current_prices cp
	JOIN sealed_products sp ON sp.id = cp.sealed_product_id
	WHERE cp.item_type = 'sealed'
	GROUP BY sp.set_id
),
priced AS (
	SELECT c.set_id AS set_id, COUNT(DISTINCT ph.card_id) AS value
	FROM price_history ph
	JOIN cards c ON c.id = ph.card_id
	WHERE ph.item_type = 'card'
	GROUP BY c.set_id
)
UPDATE sets SET
	raw_value        = ROUND(COALESCE((SELECT value FROM raw WHERE raw.set_id = sets.id), 0), 2),
	psa10_value      = ROUND(COALESCE((SELECT value FROM psa10 WHERE psa10.set_id = sets.id), 0), 2),
	sealed_value     = ROUND(COALESCE((SELECT value FROM sealed WHERE sealed.set_id = sets.id), 0), 2),
	cards_priced     = COALESCE((SELECT value FROM priced WHERE priced.set_id = sets.id), 0),
	value_updated_at = ?
WHERE ? = 0 OR sets.id = ?
`

// CalculateSetValues is the persisted set value aggregate. It recomputes the valuation
// fields of one set (setID > 0) or all sets (setID == 0) in a single transaction and
// returns the rows it wrote, ordered by set code.
func CalculateSetValues(ctx context.Context, db *gorm.DB, setID uint, now time.Time) ([]models.SetValueResult, error) {
	var results []models.SetValueResult

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(calculateSetValuesSQL, now.UTC(), setID, setID).Error; err != nil {
			return err
		}

		query := tx.Table("sets").
			Select("id AS set_id, code AS set_code, raw_value, psa10_value, sealed_value, cards_priced").
			Order("code ASC")
		if setID != 0 {
			query = query.Where("id = ?", setID)
		}
		return query.Scan(&results).Error
	})
	if err != nil {
		return nil, err
	}

	return results, nil
}
