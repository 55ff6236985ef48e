package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/lesson-ledger-api/internal/models"
)

// ReviewRepository persists teacher reviews.
type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	ListByStudent(ctx context.Context, studentID string) ([]models.Review, error)
	Recent(ctx context.Context, limit int) ([]models.Review, error)
}

type reviewRepository struct {
	db *gorm.DB
}

// NewReviewRepository constructs a review repository.
func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) Create(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Create(review).Error
}

func (r *reviewRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Review, error) {
	var reviews []models.Review
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Find(&reviews).Error
	return reviews, err
}

func (r *reviewRepository) Recent(ctx context.Context, limit int) ([]models.Review, error) {
	var reviews []models.Review
	err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&reviews).Error
	return reviews, err
}
