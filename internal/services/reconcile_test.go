package services

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianjca/op-portfolio-tracker/internal/models"
)

func strPtr(s string) *string {
	return &s
}

func TestUpsertClause(t *testing.T) {
	c := upsertClause(models.PopulationKeyColumns, models.PopulationValueColumns)

	require.Len(t, c.Columns, 3)
	assert.Equal(t, "card_id", c.Columns[0].Name)
	assert.Equal(t, "grading_company", c.Columns[1].Name)
	assert.Equal(t, "grade", c.Columns[2].Name)
	assert.Len(t, c.DoUpdates, len(models.PopulationValueColumns))
	assert.False(t, c.DoNothing)
}

func TestReconcileSetsIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	r := NewReconciler(db)
	ctx := context.Background()

	batch := []CanonicalSet{
		NormalizeSet(OPTCGSet{SetID: "OP-01", SetName: "Romance Dawn"}),
		NormalizeSet(OPTCGSet{SetID: "OP-02", SetName: "Paramount War"}),
		NormalizeDeck(OPTCGDeck{DeckID: "ST-01", DeckName: "Straw Hat Crew"}),
	}

	first := r.ReconcileSets(ctx, batch)
	assert.Equal(t, 3, first.Created)
	assert.Zero(t, first.Updated)
	assert.Empty(t, first.Errors)

	second := r.ReconcileSets(ctx, batch)
	assert.Zero(t, second.Created)
	assert.Equal(t, 3, second.Updated)

	var count int64
	require.NoError(t, db.Model(&models.Set{}).Count(&count).Error)
	assert.Equal(t, int64(3), count)
}

func TestReconcileSetsKeepsValuation(t *testing.T) {
	db := openTestDB(t)
	r := NewReconciler(db)
	ctx := context.Background()

	r.ReconcileSets(ctx, []CanonicalSet{{Code: "OP-05", Name: "Awakening"}})
	require.NoError(t, db.Model(&models.Set{}).Where("code = ?", "OP-05").Update("raw_value", 99.5).Error)

	res := r.ReconcileSets(ctx, []CanonicalSet{{Code: "OP-05", Name: "Awakening of the New Era"}})
	assert.Equal(t, 1, res.Updated)

	var set models.Set
	require.NoError(t, db.Where("code = ?", "OP-05").Take(&set).Error)
	assert.Equal(t, "Awakening of the New Era", set.Name)
	assert.InDelta(t, 99.5, set.RawValue, 0.001)
}

func TestReconcileCardsOneBadRecord(t *testing.T) {
	db := openTestDB(t)
	r := NewReconciler(db)
	ctx := context.Background()

	r.ReconcileSets(ctx, []CanonicalSet{{Code: "OP-03", Name: "Pillars of Strength"}})
	var set models.Set
	require.NoError(t, db.Where("code = ?", "OP-03").Take(&set).Error)

	batch := make([]CanonicalCard, 0, 50)
	for i := 1; i <= 50; i++ {
		id := fmt.Sprintf("OP03-%03d", i)
		batch = append(batch, CanonicalCard{ExternalID: id, CardNumber: id, SetCode: "OP-03", Name: "Card " + id})
	}
	// Record 25 has no name
	batch[24].Name = ""

	res := r.ReconcileCards(ctx, &set, batch)
	assert.Equal(t, 49, res.Created)
	assert.Equal(t, 1, res.Skipped)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "OP03-025", res.Errors[0].Key)
	assert.Len(t, res.CardIDs, 49)

	var count int64
	require.NoError(t, db.Model(&models.Card{}).Count(&count).Error)
	assert.Equal(t, int64(49), count)
}

func TestReconcileCardsResolvesSetsWithoutReference(t *testing.T) {
	db := openTestDB(t)
	r := NewReconciler(db)
	ctx := context.Background()

	r.ReconcileSets(ctx, []CanonicalSet{{Code: "OP-01", Name: "Romance Dawn"}})

	res := r.ReconcileCards(ctx, nil, []CanonicalCard{
		{ExternalID: "OP01-016", CardNumber: "OP01-016", SetCode: "OP-01", Name: "Nami"},
		{ExternalID: "P-001", CardNumber: "P-001", SetCode: "P", Name: "Monkey.D.Luffy"},
	})
	require.Empty(t, res.Errors)
	assert.Equal(t, 2, res.Created)

	var nami, promo models.Card
	require.NoError(t, db.Where("external_id = ?", "OP01-016").Take(&nami).Error)
	require.NoError(t, db.Where("external_id = ?", "P-001").Take(&promo).Error)
	assert.NotNil(t, nami.SetID)
	assert.Nil(t, promo.SetID, "unknown set code leaves the reference null")
}

func TestReconcileCardsDuplicateKeysLastWriteWins(t *testing.T) {
	db := openTestDB(t)
	r := NewReconciler(db)
	ctx := context.Background()

	res := r.ReconcileCards(ctx, nil, []CanonicalCard{
		{ExternalID: "OP02-013", CardNumber: "OP02-013", Name: "Portgas.D.Ace", Rarity: strPtr("R")},
		{ExternalID: "OP02-013", CardNumber: "OP02-013", Name: "Portgas.D.Ace", Rarity: strPtr("SR")},
	})
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.Updated)

	var cards []models.Card
	require.NoError(t, db.Where("external_id = ?", "OP02-013").Find(&cards).Error)
	require.Len(t, cards, 1)
	require.NotNil(t, cards[0].Rarity)
	assert.Equal(t, "SR", *cards[0].Rarity)
}

func TestReconcileCardsPreservesModeration(t *testing.T) {
	db := openTestDB(t)
	r := NewReconciler(db)
	ctx := context.Background()

	card := CanonicalCard{ExternalID: "OP01-025", CardNumber: "OP01-025", Name: "Roronoa Zoro"}
	r.ReconcileCards(ctx, nil, []CanonicalCard{card})

	var stored models.Card
	require.NoError(t, db.Where("external_id = ?", "OP01-025").Take(&stored).Error)
	assert.True(t, stored.Approved)
	createdAt := stored.CreatedAt

	require.NoError(t, db.Model(&models.Card{}).Where("id = ?", stored.ID).Update("approved", false).Error)

	card.Name = "Roronoa Zoro (Reprint)"
	res := r.ReconcileCards(ctx, nil, []CanonicalCard{card})
	assert.Equal(t, 1, res.Updated)

	require.NoError(t, db.First(&stored, stored.ID).Error)
	assert.False(t, stored.Approved, "catalog sync must not re-approve a card")
	assert.Equal(t, "Roronoa Zoro (Reprint)", stored.Name)
	assert.True(t, createdAt.Equal(stored.CreatedAt))
}

func TestUpsertPopulationReplacesReading(t *testing.T) {
	db := openTestDB(t)
	r := NewReconciler(db)
	ctx := context.Background()

	res := r.ReconcileCards(ctx, nil, []CanonicalCard{{ExternalID: "OP01-120", CardNumber: "OP01-120", Name: "Shanks"}})
	cardID := res.CardIDs["OP01-120"]

	row := models.GradingPopulation{CardID: cardID, GradingCompany: models.GradingPSA, Grade: 10, Population: 40}
	require.NoError(t, r.UpsertPopulation(ctx, &row))
	row = models.GradingPopulation{CardID: cardID, GradingCompany: models.GradingPSA, Grade: 10, Population: 55, PopulationHigher: 0}
	require.NoError(t, r.UpsertPopulation(ctx, &row))

	var rows []models.GradingPopulation
	require.NoError(t, db.Where("card_id = ?", cardID).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, 55, rows[0].Population)
}

func TestReconcileCardsOutOfRangeStatIsNull(t *testing.T) {
	db := openTestDB(t)
	r := NewReconciler(db)
	ctx := context.Background()

	var raw OPTCGCard
	require.NoError(t, json.Unmarshal([]byte(`{"card_name": "Kaido", "set_id": "OP-04", "card_set_id": "OP04-044",
		"card_image_id": "OP04-044", "card_cost": "2.9", "card_power": "1e30"}`), &raw))

	res := r.ReconcileCards(ctx, nil, []CanonicalCard{NormalizeCard(raw)})
	require.Empty(t, res.Errors)
	assert.Equal(t, 1, res.Created)

	var card models.Card
	require.NoError(t, db.Where("external_id = ?", "OP04-044").Take(&card).Error)
	assert.Nil(t, card.Power)
	assert.Nil(t, card.Cost)
}
