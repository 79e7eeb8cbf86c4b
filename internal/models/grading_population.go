package models

import (
	"fmt"
	"strconv"
	"time"
)

// GradingPopulation is the current population snapshot for one (card, company, grade).
// A newer reading for the same key replaces the old one.
type GradingPopulation struct {
	ID               uint           `json:"id" gorm:"primaryKey"`
	CardID           uint           `json:"card_id" gorm:"not null;uniqueIndex:idx_population_key"`
	GradingCompany   GradingCompany `json:"grading_company" gorm:"not null;uniqueIndex:idx_population_key"`
	Grade            float64        `json:"grade" gorm:"not null;uniqueIndex:idx_population_key"`
	Population       int            `json:"population" gorm:"not null;default:0"`
	PopulationHigher int            `json:"population_higher" gorm:"not null;default:0"`
	RecordedAt       time.Time      `json:"recorded_at"`
	Source           string         `json:"source"`
}

func (GradingPopulation) TableName() string {
	return "grading_population"
}

// PopulationKeyColumns are the columns a population upsert conflicts on
var PopulationKeyColumns = []string{"card_id", "grading_company", "grade"}

// PopulationValueColumns are overwritten when a newer reading arrives
var PopulationValueColumns = []string{"population", "population_higher", "recorded_at", "source"}

// NaturalKey renders the composite key, e.g. "42/PSA/9.5"
func (p GradingPopulation) NaturalKey() string {
	return fmt.Sprintf("%d/%s/%s", p.CardID, p.GradingCompany, strconv.FormatFloat(p.Grade, 'f', -1, 64))
}

// PopulationImportEntry is one row of a manual population import
type PopulationImportEntry struct {
	CardExternalID   string         `json:"card_external_id" validate:"required"`
	GradingCompany   GradingCompany `json:"grading_company" validate:"required,oneof=PSA CGC BGS SGC ARS other"`
	Grade            float64        `json:"grade" validate:"gt=0,lte=10"`
	Population       int            `json:"population" validate:"gte=0"`
	PopulationHigher *int           `json:"population_higher,omitempty" validate:"omitempty,gte=0"`
}
