package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/julianjca/op-portfolio-tracker/internal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"), logger.Silent)
	require.NoError(t, err)
	return db
}

func createSet(t *testing.T, db *gorm.DB, code string) models.Set {
	t.Helper()
	set := models.Set{Code: code, Name: code}
	require.NoError(t, db.Create(&set).Error)
	return set
}

func createCard(t *testing.T, db *gorm.DB, setID uint, externalID string) models.Card {
	t.Helper()
	card := models.Card{ExternalID: externalID, SetID: &setID, CardNumber: externalID, Name: externalID}
	require.NoError(t, db.Create(&card).Error)
	return card
}

func addPrice(t *testing.T, db *gorm.DB, entry models.PriceHistory, at time.Time) {
	t.Helper()
	entry.RecordedAt = at
	require.NoError(t, entry.Validate())
	require.NoError(t, db.Create(&entry).Error)
}

func TestMigrateIsRepeatable(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Migrate(db))
	require.NoError(t, Migrate(db))

	for _, table := range []string{"sets", "cards", "sealed_products", "price_history", "grading_population", "sync_log"} {
		assert.True(t, db.Migrator().HasTable(table), "missing table %s", table)
	}

	var count int64
	require.NoError(t, db.Table("current_prices").Count(&count).Error)
	assert.Zero(t, count)
}

func TestCurrentPricesPicksLatestPerDimension(t *testing.T) {
	db := openTestDB(t)
	set := createSet(t, db, "OP-01")
	card := createCard(t, db, set.ID, "OP01-001")

	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	addPrice(t, db, models.NewRawCardPrice(card.ID, decimal.NewFromInt(8), models.PriceSourceTCGPlayer, models.ConditionNearMint), base)
	addPrice(t, db, models.NewRawCardPrice(card.ID, decimal.NewFromInt(11), models.PriceSourceTCGPlayer, models.ConditionNearMint), base.Add(time.Hour))
	addPrice(t, db, models.NewRawCardPrice(card.ID, decimal.NewFromInt(5), models.PriceSourceTCGPlayer, models.ConditionLightlyPlayed), base)
	addPrice(t, db, models.NewGradedCardPrice(card.ID, decimal.NewFromInt(300), models.PriceSourcePriceCharting, models.GradingPSA, 10), base)

	type row struct {
		Condition *string
		IsGraded  bool
		Price     float64
	}
	var rows []row
	require.NoError(t, db.Table("current_prices").
		Select("condition, is_graded, price").
		Where("card_id = ?", card.ID).
		Order("is_graded, condition").
		Scan(&rows).Error)

	require.Len(t, rows, 3)
	assert.Equal(t, 5.0, rows[0].Price, "lightly played")
	assert.Equal(t, 11.0, rows[1].Price, "latest near mint wins")
	assert.True(t, rows[2].IsGraded)
	assert.Equal(t, 300.0, rows[2].Price)
}

func TestCalculateSetValues(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	op01 := createSet(t, db, "OP-01")
	op02 := createSet(t, db, "OP-02")

	x := createCard(t, db, op01.ID, "OP01-120")
	y := createCard(t, db, op01.ID, "OP01-121")
	createCard(t, db, op01.ID, "OP01-122") // never priced
	z := createCard(t, db, op02.ID, "OP02-001")

	at := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	addPrice(t, db, models.NewRawCardPrice(x.ID, decimal.NewFromInt(10), models.PriceSourceTCGPlayer, models.ConditionNearMint), at)
	addPrice(t, db, models.NewGradedCardPrice(x.ID, decimal.NewFromInt(200), models.PriceSourcePriceCharting, models.GradingPSA, 10), at)
	addPrice(t, db, models.NewGradedCardPrice(x.ID, decimal.NewFromInt(150), models.PriceSourcePriceCharting, models.GradingBGS, 10), at)
	addPrice(t, db, models.NewGradedCardPrice(x.ID, decimal.NewFromInt(90), models.PriceSourcePriceCharting, models.GradingPSA, 9), at)
	addPrice(t, db, models.NewRawCardPrice(y.ID, decimal.RequireFromString("2.50"), models.PriceSourceTCGPlayer, models.ConditionNearMint), at)
	addPrice(t, db, models.NewRawCardPrice(y.ID, decimal.NewFromInt(1), models.PriceSourceTCGPlayer, models.ConditionDamaged), at)
	addPrice(t, db, models.NewRawCardPrice(z.ID, decimal.NewFromInt(40), models.PriceSourceTCGPlayer, models.ConditionNearMint), at)

	box := models.SealedProduct{SetID: &op01.ID, Name: "OP-01 Booster Box", ProductType: models.ProductBoosterBox}
	require.NoError(t, db.Create(&box).Error)
	addPrice(t, db, models.NewSealedPrice(box.ID, decimal.NewFromInt(600), models.PriceSourceManual), at)
	addPrice(t, db, models.NewSealedPrice(box.ID, decimal.NewFromInt(650), models.PriceSourceManual), at.Add(time.Minute))

	now := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)
	results, err := CalculateSetValues(ctx, db, 0, now)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "OP-01", results[0].SetCode)
	assert.InDelta(t, 12.50, results[0].RawValue, 0.001)
	assert.InDelta(t, 200.0, results[0].PSA10Value, 0.001)
	assert.InDelta(t, 650.0, results[0].SealedValue, 0.001)
	assert.Equal(t, 2, results[0].CardsPriced)

	assert.Equal(t, "OP-02", results[1].SetCode)
	assert.InDelta(t, 40.0, results[1].RawValue, 0.001)
	assert.Zero(t, results[1].PSA10Value)
	assert.Equal(t, 1, results[1].CardsPriced)

	var stored models.Set
	require.NoError(t, db.First(&stored, op01.ID).Error)
	assert.InDelta(t, 12.50, stored.RawValue, 0.001)
	require.NotNil(t, stored.ValueUpdatedAt)
	assert.True(t, stored.ValueUpdatedAt.Equal(now))

	again, err := CalculateSetValues(ctx, db, 0, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, results, again, "recomputation without new prices must be identical")
}

func TestCalculateSetValuesSingleSet(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	op01 := createSet(t, db, "OP-01")
	op02 := createSet(t, db, "OP-02")
	a := createCard(t, db, op01.ID, "OP01-001")
	b := createCard(t, db, op02.ID, "OP02-001")

	at := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	addPrice(t, db, models.NewRawCardPrice(a.ID, decimal.NewFromInt(3), models.PriceSourceManual, models.ConditionNearMint), at)
	addPrice(t, db, models.NewRawCardPrice(b.ID, decimal.NewFromInt(4), models.PriceSourceManual, models.ConditionNearMint), at)

	results, err := CalculateSetValues(ctx, db, op02.ID, at)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, op02.ID, results[0].SetID)
	assert.InDelta(t, 4.0, results[0].RawValue, 0.001)

	var untouched models.Set
	require.NoError(t, db.First(&untouched, op01.ID).Error)
	assert.Nil(t, untouched.ValueUpdatedAt)
	assert.Zero(t, untouched.RawValue)
}

func TestCalculateSetValuesOneRawPricePerCard(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	set := createSet(t, db, "OP-05")
	both := createCard(t, db, set.ID, "OP05-119")
	bare := createCard(t, db, set.ID, "OP05-060")

	at := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	addPrice(t, db, models.NewRawCardPrice(both.ID, decimal.NewFromInt(10), models.PriceSourceTCGPlayer, models.ConditionNearMint), at)
	addPrice(t, db, models.PriceHistory{ItemType: models.ItemTypeCard, CardID: &both.ID, Price: decimal.NewFromInt(12), Source: models.PriceSourceManual}, at.Add(time.Hour))
	addPrice(t, db, models.PriceHistory{ItemType: models.ItemTypeCard, CardID: &bare.ID, Price: decimal.NewFromInt(7), Source: models.PriceSourceManual}, at)

	results, err := CalculateSetValues(ctx, db, set.ID, at.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.InDelta(t, 17.0, results[0].RawValue, 0.001, "near_mint wins over a condition-less row on the same card")
	assert.Equal(t, 2, results[0].CardsPriced)
}
