package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianjca/op-portfolio-tracker/internal/models"
)

func TestSyncLogSealOnce(t *testing.T) {
	store := NewSyncLogStore(openTestDB(t))
	ctx := context.Background()

	entry, err := store.Open(ctx, models.SyncKindSets)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusRunning, entry.Status)
	assert.Len(t, entry.RunID, 36)

	require.NoError(t, store.Seal(ctx, entry, models.SyncStatusCompleted, 7, nil))

	msg := "late failure"
	err = store.Seal(ctx, entry, models.SyncStatusFailed, 0, &msg)
	assert.ErrorIs(t, err, ErrSyncLogSealed)

	recent, err := store.Recent(ctx, models.SyncKindSets, 0)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, models.SyncStatusCompleted, recent[0].Status)
	assert.Equal(t, 7, recent[0].RecordsAffected)
	assert.Nil(t, recent[0].ErrorMessage)
}

func TestSyncLogRecentFiltersByKind(t *testing.T) {
	store := NewSyncLogStore(openTestDB(t))
	ctx := context.Background()

	for _, kind := range []models.SyncKind{models.SyncKindSets, models.SyncKindCards, models.SyncKindCards} {
		_, err := store.Open(ctx, kind)
		require.NoError(t, err)
	}

	cards, err := store.Recent(ctx, models.SyncKindCards, 10)
	require.NoError(t, err)
	assert.Len(t, cards, 2)

	all, err := store.Recent(ctx, "", 1)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, models.SyncKindCards, all[0].Kind, "newest first")
}
