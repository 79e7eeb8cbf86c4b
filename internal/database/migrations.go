package database

import (
	"github.com/phuslu/log"
	"gorm.io/gorm"

	"github.com/julianjca/op-portfolio-tracker/internal/models"
)

// Migrate creates or updates all tables and views. Safe to run on every start.
func Migrate(db *gorm.DB) error {
	if err := cleanupDuplicatePopulation(db); err != nil {
		return err
	}

	err := db.AutoMigrate(
		&models.Set{},
		&models.Card{},
		&models.SealedProduct{},
		&models.PriceHistory{},
		&models.GradingPopulation{},
		&models.SyncLog{},
	)
	if err != nil {
		return err
	}

	return createCurrentPricesView(db)
}

// cleanupDuplicatePopulation removes duplicate grading_population rows before the
// composite unique index is created, keeping the most recently inserted row per key.
// Older databases stored population readings append-only.
func cleanupDuplicatePopulation(db *gorm.DB) error {
	if !db.Migrator().HasTable("grading_population") {
		return nil
	}
	if db.Migrator().HasIndex(&models.GradingPopulation{}, "idx_population_key") {
		return nil
	}

	result := db.Exec(`
		DELETE FROM grading_population
		WHERE id NOT IN (
			SELECT MAX(id)
			FROM grading_population
			GROUP BY card_id, grading_company, grade
		)
	`)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected > 0 {
		log.Info().Int64("rows", result.RowsAffected).Msg("Cleaned up duplicate grading_population entries")
	}
	return nil
}

// currentPricesView picks the latest observation per item and pricing dimension.
// Ties on recorded_at go to the row inserted last.
const currentPricesView = `
CREATE VIEW current_prices AS
SELECT id, item_type, card_id, sealed_product_id, price, source, condition,
       is_graded, grading_company, grade, recorded_at
FROM (
	SELECT ph.*,
	       ROW_NUMBER() OVER (
	           PARTITION BY ph.item_type,
	                        COALESCE(ph.card_id, 0),
	                        COALESCE(ph.sealed_product_id, 0),
	                        COALESCE(ph.condition, ''),
	                        ph.is_graded,
	                        COALESCE(ph.grading_company, ''),
	                        COALESCE(ph.grade, 0)
	           ORDER BY ph.recorded_at DESC, ph.id DESC
	       ) AS rn
	FROM price_history ph
)
WHERE rn = 1
`

func createCurrentPricesView(db *gorm.DB) error {
	// Recreated every start so definition changes take effect
	if err := db.Exec(`DROP VIEW IF EXISTS current_prices`).Error; err != nil {
		return err
	}
	return db.Exec(currentPricesView).Error
}
