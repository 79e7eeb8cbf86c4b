package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/julianjca/op-portfolio-tracker/internal/models"
)

// SyncLogStore opens and seals one sync_log row per job invocation
type SyncLogStore struct {
	db *gorm.DB
}

func NewSyncLogStore(db *gorm.DB) *SyncLogStore {
	return &SyncLogStore{db: db}
}

// Open records a running invocation under a fresh run id
func (s *SyncLogStore) Open(ctx context.Context, kind models.SyncKind) (*models.SyncLog, error) {
	entry := &models.SyncLog{
		RunID:     uuid.NewString(),
		Kind:      kind,
		Status:    models.SyncStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

// Seal moves a running entry to a terminal status. An entry can be sealed once;
// a second attempt returns ErrSyncLogSealed and changes nothing.
func (s *SyncLogStore) Seal(ctx context.Context, entry *models.SyncLog, status models.SyncStatus, affected int, errMsg *string) error {
	now := time.Now().UTC()
	res := s.db.WithContext(ctx).
		Model(&models.SyncLog{}).
		Where("id = ? AND status = ?", entry.ID, models.SyncStatusRunning).
		Updates(map[string]any{
			"status":           status,
			"completed_at":     now,
			"records_affected": affected,
			"error_message":    errMsg,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrSyncLogSealed
	}

	entry.Status = status
	entry.CompletedAt = &now
	entry.RecordsAffected = affected
	entry.ErrorMessage = errMsg
	return nil
}

// Recent returns the newest entries first, optionally for one kind
func (s *SyncLogStore) Recent(ctx context.Context, kind models.SyncKind, limit int) ([]models.SyncLog, error) {
	switch {
	case limit <= 0:
		limit = 50
	case limit > 200:
		limit = 200
	}

	q := s.db.WithContext(ctx).Order("started_at DESC, id DESC").Limit(limit)
	if kind != "" {
		q = q.Where("sync_type = ?", kind)
	}

	var entries []models.SyncLog
	err := q.Find(&entries).Error
	return entries, err
}
