package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/lesson-ledger-api/internal/ledger"
	"github.com/noah-isme/lesson-ledger-api/internal/models"
)

func TestLessonLogRepositoryApplyChange(t *testing.T) {
	db := setupTestDB(t)
	repo := NewLessonLogRepository(db)
	ctx := context.Background()
	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	seedStudent(t, db, "a", "A", "1", 20, now)

	student, entry, err := repo.ApplyChange(ctx, LessonChange{LogID: "l1", StudentID: "a", Type: ledger.Consume, Amount: -3, Note: "class", At: now})
	require.NoError(t, err)
	require.Equal(t, 17, student.RemainingLessons)
	require.Equal(t, 20, student.TotalLessons)
	require.Equal(t, 3, entry.Amount)
	require.Equal(t, "consume", entry.Type)
	require.Equal(t, "A", entry.StudentName)

	_, _, err = repo.ApplyChange(ctx, LessonChange{LogID: "l2", StudentID: "a", Type: ledger.Consume, Amount: 20, At: now.Add(time.Minute)})
	require.ErrorIs(t, err, ledger.ErrInsufficientBalance)

	student, _, err = repo.ApplyChange(ctx, LessonChange{LogID: "l3", StudentID: "a", Type: ledger.Refill, Amount: 10, At: now.Add(2 * time.Minute)})
	require.NoError(t, err)
	require.Equal(t, 27, student.RemainingLessons)
	require.Equal(t, 30, student.TotalLessons)

	logs, total, err := repo.List(ctx, LessonLogFilter{StudentID: "a"})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Equal(t, "l3", logs[0].ID, "expected newest first")
	require.Equal(t, "l1", logs[1].ID)

	_, _, err = repo.ApplyChange(ctx, LessonChange{LogID: "l4", StudentID: "ghost", Type: ledger.Refill, Amount: 1, At: now})
	require.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestLessonLogRepositoryListFilters(t *testing.T) {
	db := setupTestDB(t)
	repo := NewLessonLogRepository(db)
	ctx := context.Background()
	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	seedStudent(t, db, "a", "A", "1", 5, now)

	entries := []models.LessonLog{
		{ID: "old", StudentID: "a", StudentName: "A", Amount: 1, Type: "consume", CreatedAt: now.Add(-48 * time.Hour)},
		{ID: "today", StudentID: "a", StudentName: "A", Amount: 1, Type: "consume", CreatedAt: now},
		{ID: "refill", StudentID: "a", StudentName: "A", Amount: 4, Type: "refill", CreatedAt: now.Add(time.Minute)},
	}
	require.NoError(t, db.Create(&entries).Error)

	since := now.Add(-time.Hour)
	logs, total, err := repo.List(ctx, LessonLogFilter{Type: "consume", Since: &since})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, "today", logs[0].ID)

	recent, err := repo.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	require.Equal(t, "refill", recent[0].ID)
}

func TestLessonLogRepositoryConcurrentConsumesNeverOverdraw(t *testing.T) {
	db := setupTestDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	repo := NewLessonLogRepository(db)
	now := time.Now().UTC()
	seedStudent(t, db, "a", "A", "1", 5, now)

	var wg sync.WaitGroup
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = repo.ApplyChange(context.Background(), LessonChange{
				LogID:     uuid.NewString(),
				StudentID: "a",
				Type:      ledger.Consume,
				Amount:    1,
				At:        time.Now().UTC(),
			})
		}()
	}
	wg.Wait()

	var student models.Student
	require.NoError(t, db.First(&student, "id = ?", "a").Error)
	require.Equal(t, 0, student.RemainingLessons)

	var logCount int64
	require.NoError(t, db.Model(&models.LessonLog{}).Count(&logCount).Error)
	require.Equal(t, int64(5), logCount)
}
