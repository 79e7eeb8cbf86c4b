package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/phuslu/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/julianjca/op-portfolio-tracker/internal/models"
)

// setCatalogColumns are overwritten when a set is seen again; valuation fields are not
var setCatalogColumns = []string{"name", "release_date", "image_url", "updated_at"}

// upsertClause builds the insert-or-update clause for a natural key. Only
// updateCols are touched on conflict, so moderation flags and created_at survive.
func upsertClause(keyCols, updateCols []string) clause.OnConflict {
	cols := make([]clause.Column, len(keyCols))
	for i, name := range keyCols {
		cols[i] = clause.Column{Name: name}
	}
	return clause.OnConflict{
		Columns:   cols,
		DoUpdates: clause.AssignmentColumns(updateCols),
	}
}

// ReconcileResult tallies one batch. Errors holds one entry per failed record in
// batch order; skipped records were rejected before reaching storage.
type ReconcileResult struct {
	Created int
	Updated int
	Skipped int
	Errors  []RecordError

	// CardIDs maps external id to row id for every card upserted
	CardIDs map[string]uint
}

// Affected is the number of records written
func (r ReconcileResult) Affected() int {
	return r.Created + r.Updated
}

// Reconciler diffs normalized batches against storage and applies natural-key upserts.
// Records are processed one at a time; a failed record never stops the batch.
type Reconciler struct {
	db       *gorm.DB
	validate *validator.Validate
}

// NewReconciler creates a reconciler over db
func NewReconciler(db *gorm.DB) *Reconciler {
	return &Reconciler{
		db:       db,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// ReconcileSets upserts sets keyed by code
func (r *Reconciler) ReconcileSets(ctx context.Context, batch []CanonicalSet) ReconcileResult {
	var result ReconcileResult
	db := r.db.WithContext(ctx)

	codes := make([]string, 0, len(batch))
	for _, s := range batch {
		codes = append(codes, s.Code)
	}
	existing, err := r.existingKeys(db, &models.Set{}, "code", codes)
	if err != nil {
		// Without the pre-read every record is classified as created; the upsert stays correct
		log.Warn().Err(err).Msg("Failed to read existing set codes")
	}

	for i, s := range batch {
		key := s.Code
		if key == "" {
			key = fmt.Sprintf("set #%d", i+1)
		}

		if err := r.validate.StructCtx(ctx, s); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, newRecordError(key, err))
			continue
		}

		row := models.Set{
			Code:        s.Code,
			Name:        s.Name,
			ReleaseDate: s.ReleaseDate,
			ImageURL:    s.ImageURL,
		}
		if err := db.Clauses(upsertClause(models.SetKeyColumns, setCatalogColumns)).Create(&row).Error; err != nil {
			result.Errors = append(result.Errors, newRecordError(key, err))
			continue
		}

		if existing[s.Code] {
			result.Updated++
		} else {
			result.Created++
			existing[s.Code] = true
		}
	}

	return result
}

// ReconcileCards upserts cards keyed by external id. With a set, every card belongs
// to it; without one each card's set code is resolved against storage and an
// unknown code leaves the set reference null.
func (r *Reconciler) ReconcileCards(ctx context.Context, set *models.Set, batch []CanonicalCard) ReconcileResult {
	result := ReconcileResult{CardIDs: make(map[string]uint, len(batch))}
	db := r.db.WithContext(ctx)

	ids := make([]string, 0, len(batch))
	for _, c := range batch {
		ids = append(ids, c.ExternalID)
	}
	existing, err := r.existingKeys(db, &models.Card{}, "external_id", ids)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read existing card ids")
	}

	resolved := make(map[string]*uint)
	setFor := func(code string) *uint {
		if set != nil {
			return &set.ID
		}
		if id, ok := resolved[code]; ok {
			return id
		}
		var found models.Set
		err := db.Select("id").Where("code = ?", code).Take(&found).Error
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				log.Warn().Err(err).Str("set_code", code).Msg("Failed to resolve set")
			}
			resolved[code] = nil
			return nil
		}
		resolved[code] = &found.ID
		return &found.ID
	}

	for _, c := range batch {
		key := c.Key()

		if err := r.validate.StructCtx(ctx, c); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, newRecordError(key, err))
			continue
		}

		row := models.Card{
			ExternalID: c.ExternalID,
			SetID:      setFor(c.SetCode),
			CardNumber: c.CardNumber,
			Name:       c.Name,
			Rarity:     c.Rarity,
			CardType:   c.CardType,
			Color:      c.Color,
			Cost:       c.Cost,
			Power:      c.Power,
			Counter:    c.Counter,
			Attribute:  c.Attribute,
			Effect:     c.Effect,
			ImageURL:   c.ImageURL,
			Approved:   true,
			UpdatedAt:  time.Now().UTC(),
		}
		if err := db.Clauses(upsertClause(models.CardKeyColumns, models.CardCatalogColumns)).Create(&row).Error; err != nil {
			result.Errors = append(result.Errors, newRecordError(key, err))
			continue
		}

		// The conflict path does not reliably report the row id, so read it back
		var stored models.Card
		if err := db.Select("id").Where("external_id = ?", c.ExternalID).Take(&stored).Error; err != nil {
			result.Errors = append(result.Errors, newRecordError(key, err))
			continue
		}
		result.CardIDs[c.ExternalID] = stored.ID

		if existing[c.ExternalID] {
			result.Updated++
		} else {
			result.Created++
			existing[c.ExternalID] = true
		}
	}

	return result
}

// RefreshSetTotal records the catalog size the provider reported for a set
func (r *Reconciler) RefreshSetTotal(ctx context.Context, setID uint, total int) error {
	return r.db.WithContext(ctx).
		Model(&models.Set{}).
		Where("id = ?", setID).
		Update("total_cards", total).Error
}

// UpsertPopulation writes the current population reading for one key
func (r *Reconciler) UpsertPopulation(ctx context.Context, row *models.GradingPopulation) error {
	return r.db.WithContext(ctx).
		Clauses(upsertClause(models.PopulationKeyColumns, models.PopulationValueColumns)).
		Create(row).Error
}

// existingKeys returns the subset of keys already stored in column
func (r *Reconciler) existingKeys(db *gorm.DB, model any, column string, keys []string) (map[string]bool, error) {
	found := make(map[string]bool, len(keys))
	if len(keys) == 0 {
		return found, nil
	}

	// SQLite caps bound parameters per statement
	const chunk = 500
	for start := 0; start < len(keys); start += chunk {
		end := min(start+chunk, len(keys))
		var stored []string
		if err := db.Model(model).Where(column+" IN ?", keys[start:end]).Pluck(column, &stored).Error; err != nil {
			return found, err
		}
		for _, k := range stored {
			found[k] = true
		}
	}
	return found, nil
}
