package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/phuslu/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/julianjca/op-portfolio-tracker/internal/metrics"
	"github.com/julianjca/op-portfolio-tracker/internal/models"
)

// SetSyncRequest filters the set sync. IncludeStarterDecks defaults to true.
type SetSyncRequest struct {
	IncludeStarterDecks *bool `json:"include_starter_decks"`
}

// CardSyncRequest filters the card sync. SyncPrices defaults to true.
type CardSyncRequest struct {
	SetCode           string `json:"set_code"`
	SyncPrices        *bool  `json:"sync_prices"`
	IncludePromos     bool   `json:"include_promos"`
	RecalculateValues bool   `json:"recalculate_values"`
}

// PopulationSyncRequest selects a population action
type PopulationSyncRequest struct {
	Action  string                         `json:"action"`
	Data    []models.PopulationImportEntry `json:"data"`
	SetCode string                         `json:"set_code"`
}

// SlabPriceSyncRequest filters the graded price sync. CardIDs wins over SetCode.
type SlabPriceSyncRequest struct {
	CardIDs           []uint `json:"card_ids"`
	SetCode           string `json:"set_code"`
	Limit             int    `json:"limit"`
	RecalculateValues bool   `json:"recalculate_values"`
}

// CalculateRequest scopes the set value job to one set; empty means all sets
type CalculateRequest struct {
	SetCode string `json:"set_code"`
}

const (
	PopulationActionImport  = "import"
	PopulationActionGemRate = "sync_gemrate"
	PopulationActionPSA     = "sync_psa"

	populationImportSource = "manual_import"
)

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

// SyncSets pulls booster sets (and starter decks unless disabled) and upserts them by code
func (s *SyncService) SyncSets(ctx context.Context, req SetSyncRequest) (*models.SetSyncResult, error) {
	result := &models.SetSyncResult{}

	err := s.run(ctx, models.SyncKindSets, result, func(ctx context.Context) error {
		sets, err := s.catalog.FetchSets(ctx)
		if err != nil {
			return fmt.Errorf("failed to fetch sets: %w", err)
		}

		batch := make([]CanonicalSet, 0, len(sets))
		for _, raw := range sets {
			batch = append(batch, NormalizeSet(raw))
		}

		if boolOr(req.IncludeStarterDecks, true) {
			decks, err := s.catalog.FetchStarterDecks(ctx)
			if err != nil {
				// Booster sets are still worth syncing without decks
				log.Warn().Err(err).Msg("Failed to fetch starter decks")
				result.Errors = append(result.Errors, RecordError{Key: "starter decks", Message: err.Error()}.Error())
			} else {
				for _, raw := range decks {
					batch = append(batch, NormalizeDeck(raw))
				}
			}
		}

		rec := s.reconciler.ReconcileSets(ctx, batch)
		countRecords(models.SyncKindSets, rec)
		addErrors(&result.JobResult, rec.Errors)

		result.SetsSynced = len(batch)
		result.SetsCreated = rec.Created
		result.SetsUpdated = rec.Updated
		result.SetsSkipped = rec.Skipped
		result.Message = fmt.Sprintf("Synced %d sets from OPTCG API", len(batch))
		return nil
	})

	return result, err
}

// SyncCards pulls cards for one set or every stored set, upserts them by external id
// and optionally appends market prices. A set whose fetch fails is reported and skipped.
func (s *SyncService) SyncCards(ctx context.Context, req CardSyncRequest) (*models.CardSyncResult, error) {
	result := &models.CardSyncResult{}
	syncPrices := boolOr(req.SyncPrices, true)

	err := s.run(ctx, models.SyncKindCards, result, func(ctx context.Context) error {
		var sets []models.Set
		q := s.db.WithContext(ctx).Order("code")
		if req.SetCode != "" {
			q = q.Where("code = ?", req.SetCode)
		}
		if err := q.Find(&sets).Error; err != nil {
			return fmt.Errorf("failed to load sets: %w", err)
		}
		if len(sets) == 0 && !req.IncludePromos {
			result.Message = "No sets found to sync"
			if req.SetCode != "" {
				return fmt.Errorf("%w: %s", ErrNoSets, req.SetCode)
			}
			return ErrNoSets
		}

		log.Info().Int("sets", len(sets)).Bool("sync_prices", syncPrices).Msg("Syncing cards")

		for i := range sets {
			if err := ctx.Err(); err != nil {
				return err
			}
			set := &sets[i]

			raw, err := s.catalog.FetchCardsFor(ctx, set.Code)
			if err != nil {
				result.Errors = append(result.Errors, RecordError{Key: set.Code, Message: "failed to fetch cards: " + err.Error()}.Error())
				continue
			}

			s.applyCards(ctx, result, set, raw, syncPrices)

			if err := s.reconciler.RefreshSetTotal(ctx, set.ID, len(raw)); err != nil {
				result.Errors = append(result.Errors, RecordError{Key: set.Code, Message: "failed to update total: " + err.Error()}.Error())
			}
			result.SetsProcessed++
		}

		if req.IncludePromos {
			raw, err := s.catalog.FetchPromoCards(ctx)
			if err != nil {
				result.Errors = append(result.Errors, RecordError{Key: "promos", Message: "failed to fetch cards: " + err.Error()}.Error())
			} else {
				s.applyCards(ctx, result, nil, raw, syncPrices)
			}
		}

		result.CardsSynced = result.CardsCreated + result.CardsUpdated

		if req.RecalculateValues {
			var scope *uint
			if req.SetCode != "" && len(sets) == 1 {
				scope = &sets[0].ID
			}
			values, err := s.valuation.RecomputeSetValues(ctx, scope)
			if err != nil {
				result.Errors = append(result.Errors, RecordError{Key: "set values", Message: err.Error()}.Error())
			}
			result.SetValues = values
		}

		s.refreshCardCount(ctx)

		result.Message = fmt.Sprintf("Synced %d cards and %d prices across %d sets",
			result.CardsSynced, result.PricesSynced, result.SetsProcessed)
		return nil
	})

	return result, err
}

// applyCards reconciles one fetched batch and appends its market prices
func (s *SyncService) applyCards(ctx context.Context, result *models.CardSyncResult, set *models.Set, raw []OPTCGCard, syncPrices bool) {
	batch := make([]CanonicalCard, 0, len(raw))
	for _, c := range raw {
		batch = append(batch, NormalizeCard(c))
	}

	rec := s.reconciler.ReconcileCards(ctx, set, batch)
	countRecords(models.SyncKindCards, rec)
	addErrors(&result.JobResult, rec.Errors)
	result.CardsCreated += rec.Created
	result.CardsUpdated += rec.Updated
	result.CardsSkipped += rec.Skipped

	if !syncPrices {
		return
	}
	for _, c := range batch {
		cardID, ok := rec.CardIDs[c.ExternalID]
		if !ok || c.MarketPrice == nil || !c.MarketPrice.IsPositive() {
			continue
		}
		entry := models.NewRawCardPrice(cardID, *c.MarketPrice, models.PriceSourceTCGPlayer, models.CanonicalRawCondition)
		if err := s.recorder.Append(ctx, entry); err != nil {
			result.Errors = append(result.Errors, RecordError{Key: c.ExternalID, Message: "failed to save price: " + err.Error()}.Error())
			continue
		}
		result.PricesSynced++
	}
}

func (s *SyncService) refreshCardCount(ctx context.Context) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Card{}).Count(&n).Error; err == nil {
		metrics.CardDatabaseSize.Set(float64(n))
	}
}

// SyncPopulation imports population readings. Provider syncs have no integration
// and report an unsupported result without writing anything.
func (s *SyncService) SyncPopulation(ctx context.Context, req PopulationSyncRequest) (*models.PopulationSyncResult, error) {
	result := &models.PopulationSyncResult{Action: req.Action}

	var kind models.SyncKind
	switch req.Action {
	case PopulationActionImport:
		kind = models.SyncKindPopulationImport
	case PopulationActionGemRate:
		kind = models.SyncKindPopulationGemRate
	case PopulationActionPSA:
		kind = models.SyncKindPopulationPSA
	default:
		result.Message = fmt.Sprintf("Unknown action: %q", req.Action)
		result.Errors = []string{}
		return result, fmt.Errorf("%w: %q", ErrUnknownAction, req.Action)
	}

	err := s.run(ctx, kind, result, func(ctx context.Context) error {
		switch req.Action {
		case PopulationActionGemRate:
			log.Info().Str("set_code", req.SetCode).Msg("GemRate population sync requested")
			result.Message = "GemRate sync is not supported. Use manual import."
			return fmt.Errorf("%w: gemrate", ErrUnsupportedProvider)
		case PopulationActionPSA:
			log.Info().Str("set_code", req.SetCode).Msg("PSA population sync requested")
			result.Message = "PSA sync is not supported. Use manual import."
			return fmt.Errorf("%w: psa", ErrUnsupportedProvider)
		}

		if len(req.Data) == 0 {
			result.Message = "No data to import"
			return nil
		}

		now := time.Now().UTC()
		for i, entry := range req.Data {
			key := entry.CardExternalID
			if key == "" {
				key = fmt.Sprintf("entry #%d", i+1)
			}

			if err := s.reconciler.validate.StructCtx(ctx, entry); err != nil {
				result.EntriesSkipped++
				result.Errors = append(result.Errors, newRecordError(key, err).Error())
				continue
			}

			var card models.Card
			err := s.db.WithContext(ctx).Select("id").Where("external_id = ?", entry.CardExternalID).Take(&card).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				log.Warn().Str("card_external_id", entry.CardExternalID).Msg("Card not found, skipping population entry")
				result.EntriesSkipped++
				continue
			}
			if err != nil {
				result.Errors = append(result.Errors, newRecordError(key, err).Error())
				continue
			}

			row := models.GradingPopulation{
				CardID:         card.ID,
				GradingCompany: entry.GradingCompany,
				Grade:          entry.Grade,
				Population:     entry.Population,
				RecordedAt:     now,
				Source:         populationImportSource,
			}
			if entry.PopulationHigher != nil {
				row.PopulationHigher = *entry.PopulationHigher
			}
			if err := s.reconciler.UpsertPopulation(ctx, &row); err != nil {
				result.Errors = append(result.Errors, newRecordError(row.NaturalKey(), err).Error())
				continue
			}
			result.CardsUpdated++
		}

		metrics.SyncRecordsTotal.WithLabelValues(string(kind), "updated").Add(float64(result.CardsUpdated))
		metrics.SyncRecordsTotal.WithLabelValues(string(kind), "skipped").Add(float64(result.EntriesSkipped))
		result.Message = fmt.Sprintf("Imported population data for %d cards", result.CardsUpdated)
		return nil
	})

	return result, err
}

// SyncSlabPrices looks up PSA 10 and BGS 10 prices for high-rarity approved cards.
// Every price source call waits on the throttle first.
func (s *SyncService) SyncSlabPrices(ctx context.Context, req SlabPriceSyncRequest) (*models.SlabPriceSyncResult, error) {
	result := &models.SlabPriceSyncResult{}

	if !s.prices.Configured() {
		result.Message = "PRICECHARTING_API_KEY not configured"
		result.Errors = []string{}
		return result, fmt.Errorf("%w: PRICECHARTING_API_KEY", ErrNotConfigured)
	}

	limit := req.Limit
	if limit <= 0 {
		limit = s.slabLimit
	}

	err := s.run(ctx, models.SyncKindSlabPrices, result, func(ctx context.Context) error {
		q := s.db.WithContext(ctx).
			Model(&models.Card{}).
			Joins("JOIN sets ON sets.id = cards.set_id").
			Where("cards.approved = ? AND cards.rarity IN ?", true, models.SlabPriceRarities())
		switch {
		case len(req.CardIDs) > 0:
			q = q.Where("cards.id IN ?", req.CardIDs)
		case req.SetCode != "":
			q = q.Where("sets.code = ?", req.SetCode)
		}

		var cards []models.Card
		if err := q.Order("cards.id").Limit(limit).Find(&cards).Error; err != nil {
			return fmt.Errorf("failed to load cards: %w", err)
		}
		if len(cards) == 0 {
			result.Message = "No cards found to process"
			return nil
		}

		log.Info().Int("cards", len(cards)).Msg("Processing cards for slab prices")

		touched := make(map[uint]bool)
		for _, card := range cards {
			result.CardsProcessed++

			if err := s.throttle.Wait(ctx); err != nil {
				return err
			}
			product := s.prices.SearchProduct(ctx, card.Name, card.CardNumber)
			if product == nil {
				log.Debug().Str("card_number", card.CardNumber).Msg("No PriceCharting match")
				result.CardsUnmatched++
				continue
			}

			if err := s.throttle.Wait(ctx); err != nil {
				return err
			}
			prices := s.prices.GetProductPrices(ctx, string(product.ID))
			if prices == nil {
				log.Debug().Str("card_number", card.CardNumber).Msg("No PriceCharting prices")
				continue
			}

			graded := []struct {
				company models.GradingCompany
				price   *decimal.Decimal
			}{
				{models.GradingPSA, prices.PSA10},
				{models.GradingBGS, prices.BGS10},
			}
			for _, g := range graded {
				if g.price == nil || !g.price.IsPositive() {
					continue
				}
				result.PricesFound++
				entry := models.NewGradedCardPrice(card.ID, *g.price, models.PriceSourcePriceCharting, g.company, models.TopGrade)
				if err := s.recorder.Append(ctx, entry); err != nil {
					result.Errors = append(result.Errors,
						RecordError{Key: card.CardNumber, Message: fmt.Sprintf("failed to save %s 10 price: %v", g.company, err)}.Error())
					continue
				}
				result.PricesSaved++
				if card.SetID != nil {
					touched[*card.SetID] = true
				}
			}
		}

		if req.RecalculateValues && result.PricesSaved > 0 {
			var scope *uint
			if len(touched) == 1 {
				for id := range touched {
					scope = &id
				}
			}
			values, err := s.valuation.RecomputeSetValues(ctx, scope)
			if err != nil {
				result.Errors = append(result.Errors, RecordError{Key: "set values", Message: err.Error()}.Error())
			}
			result.SetValues = values
		}

		result.Message = fmt.Sprintf("Processed %d cards, found %d graded prices, saved %d",
			result.CardsProcessed, result.PricesFound, result.PricesSaved)
		return nil
	})

	return result, err
}

// CalculateSetValues recomputes valuation rollups for one set or all sets
func (s *SyncService) CalculateSetValues(ctx context.Context, req CalculateRequest) (*models.CalculateResult, error) {
	result := &models.CalculateResult{Results: []models.SetValueResult{}}

	err := s.run(ctx, models.SyncKindSetValues, result, func(ctx context.Context) error {
		var scope *uint
		if code := strings.TrimSpace(req.SetCode); code != "" {
			set, err := s.findSet(ctx, code)
			if err != nil {
				return err
			}
			scope = &set.ID
		}

		values, err := s.valuation.RecomputeSetValues(ctx, scope)
		if err != nil {
			return fmt.Errorf("failed to calculate set values: %w", err)
		}

		result.Results = values
		result.SetsCalculated = len(values)
		result.Message = fmt.Sprintf("Calculated values for %d sets", len(values))
		return nil
	})

	return result, err
}
