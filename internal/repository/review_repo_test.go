package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lesson-ledger-api/internal/models"
)

func TestReviewRepositoryOrdersNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReviewRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	seedStudent(t, db, "s1", "Alice", "1", 5, base)
	seedStudent(t, db, "s2", "Bob", "2", 5, base)

	for i, studentID := range []string{"s1", "s2", "s1", "s1"} {
		require.NoError(t, repo.Create(ctx, &models.Review{
			ID:          "r" + string(rune('1'+i)),
			StudentID:   studentID,
			StudentName: studentID,
			Content:     "ok",
			Rating:      4,
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}))
	}

	reviews, err := repo.ListByStudent(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, []string{"r4", "r3", "r1"}, reviewIDs(reviews))

	recent, err := repo.Recent(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, []string{"r4", "r3"}, reviewIDs(recent))

	none, err := repo.ListByStudent(ctx, "ghost")
	require.NoError(t, err)
	require.Empty(t, none)
}

func reviewIDs(reviews []models.Review) []string {
	ids := make([]string, 0, len(reviews))
	for _, review := range reviews {
		ids = append(ids, review.ID)
	}
	return ids
}
