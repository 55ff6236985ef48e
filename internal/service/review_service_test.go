package service

import (
	"context"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lesson-ledger-api/internal/dto"
)

func TestReviewServiceCreateSnapshotsStudentName(t *testing.T) {
	f := newLedgerFixture(t)
	student := f.createStudent(t, "Mia", 10)
	svc := f.reviewService()

	resp, err := svc.Create(context.Background(), student.ID, dto.ReviewCreateRequest{
		Content: "Lovely <em>colour</em> work",
		Rating:  4,
	})
	require.NoError(t, err)
	require.True(t, resp.Applied)
	require.Equal(t, "Mia", resp.Review.StudentName)
	require.Equal(t, "Lovely colour work", resp.Review.Content)
	require.Equal(t, 4, resp.Review.Rating)
}

func TestReviewServiceEnforcesRatingBounds(t *testing.T) {
	f := newLedgerFixture(t)
	student := f.createStudent(t, "Bounds", 10)
	svc := f.reviewService()

	for _, rating := range []int{0, 6, -1} {
		_, err := svc.Create(context.Background(), student.ID, dto.ReviewCreateRequest{Content: "ok", Rating: rating})
		var validationErrs validator.ValidationErrors
		require.True(t, errors.As(err, &validationErrs), "rating %d should be rejected", rating)
	}

	_, err := svc.Create(context.Background(), student.ID, dto.ReviewCreateRequest{Content: "   ", Rating: 3})
	require.Error(t, err)
}

func TestReviewServiceMissingStudentIsNoop(t *testing.T) {
	f := newLedgerFixture(t)

	resp, err := f.reviewService().Create(context.Background(), "ghost", dto.ReviewCreateRequest{Content: "hi", Rating: 3})
	require.NoError(t, err)
	require.False(t, resp.Applied)
	require.Nil(t, resp.Review)
}

func TestReviewServiceListsNewestFirst(t *testing.T) {
	f := newLedgerFixture(t)
	a := f.createStudent(t, "A", 10)
	b := f.createStudent(t, "B", 10)
	svc := f.reviewService()
	ctx := context.Background()

	var ids []string
	for i, owner := range []string{a.ID, b.ID, a.ID, b.ID, a.ID, a.ID} {
		resp, err := svc.Create(ctx, owner, dto.ReviewCreateRequest{Content: "note", Rating: i%5 + 1})
		require.NoError(t, err)
		ids = append(ids, resp.Review.ID)
	}

	recent, err := svc.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recent, 5)
	require.Equal(t, ids[5], recent[0].ID)
	require.Equal(t, ids[1], recent[4].ID)

	forA, err := svc.ListByStudent(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, forA, 4)
	require.Equal(t, ids[5], forA[0].ID)
	require.Equal(t, ids[0], forA[3].ID)
}
