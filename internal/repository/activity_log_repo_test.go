package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/noah-isme/lesson-ledger-api/internal/models"
)

func TestActivityLogRepositoryFiltersAndPaginates(t *testing.T) {
	db := setupTestDB(t)
	repo := NewActivityLogRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	entries := []models.ActivityLog{
		{Action: "student.delete", EntityType: "student", EntityID: "s1", SessionID: "sess-a", CreatedAt: base},
		{Action: "student.delete", EntityType: "student", EntityID: "s2", CreatedAt: base.Add(time.Minute)},
		{Action: "snapshot.import", EntityType: "snapshot", Metadata: datatypes.JSONMap{"students": 3}, CreatedAt: base.Add(2 * time.Minute)},
	}
	for i := range entries {
		require.NoError(t, repo.Create(ctx, &entries[i]))
	}

	all, total, err := repo.List(ctx, ActivityLogFilter{})
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
	require.Equal(t, "snapshot.import", all[0].Action)
	require.EqualValues(t, 3, all[0].Metadata["students"])

	deletes, total, err := repo.List(ctx, ActivityLogFilter{Action: "student.delete", Page: 1, PageSize: 1})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, deletes, 1)
	require.Equal(t, "s2", deletes[0].EntityID)

	byEntity, _, err := repo.List(ctx, ActivityLogFilter{EntityType: "student", EntityID: "s1"})
	require.NoError(t, err)
	require.Len(t, byEntity, 1)

	bySession, total, err := repo.List(ctx, ActivityLogFilter{SessionID: "sess-a"})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, "s1", bySession[0].EntityID)
}
