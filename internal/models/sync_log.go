package models

import (
	"time"
)

// SyncKind identifies a synchronization job
type SyncKind string

const (
	SyncKindSets              SyncKind = "sets"
	SyncKindCards             SyncKind = "cards"
	SyncKindPopulationImport  SyncKind = "population_import"
	SyncKindPopulationGemRate SyncKind = "population_gemrate"
	SyncKindPopulationPSA     SyncKind = "population_psa"
	SyncKindSlabPrices        SyncKind = "slab_prices"
	SyncKindSetValues         SyncKind = "set_values"
)

// SyncStatus is the lifecycle state of one job invocation
type SyncStatus string

const (
	SyncStatusRunning   SyncStatus = "running"
	SyncStatusCompleted SyncStatus = "completed"
	SyncStatusFailed    SyncStatus = "failed"
)

// Terminal reports whether the status can no longer change
func (s SyncStatus) Terminal() bool {
	return s == SyncStatusCompleted || s == SyncStatusFailed
}

// SyncLog records one job invocation. It is opened as running and sealed exactly once.
type SyncLog struct {
	ID              uint       `json:"id" gorm:"primaryKey"`
	RunID           string     `json:"run_id" gorm:"not null;uniqueIndex"`
	Kind            SyncKind   `json:"sync_type" gorm:"column:sync_type;not null;index"`
	Status          SyncStatus `json:"status" gorm:"not null"`
	StartedAt       time.Time  `json:"started_at" gorm:"not null;index"`
	CompletedAt     *time.Time `json:"completed_at"`
	RecordsAffected int        `json:"records_affected" gorm:"not null;default:0"`
	ErrorMessage    *string    `json:"error_message"`
}

func (SyncLog) TableName() string {
	return "sync_log"
}
