package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/lesson-ledger-api/internal/dto"
	"github.com/noah-isme/lesson-ledger-api/internal/ledger"
	"github.com/noah-isme/lesson-ledger-api/internal/models"
	"github.com/noah-isme/lesson-ledger-api/internal/repository"
)

// ReviewService records and lists teacher reviews.
type ReviewService interface {
	Create(ctx context.Context, studentID string, payload dto.ReviewCreateRequest) (dto.ReviewCreateResponse, error)
	ListByStudent(ctx context.Context, studentID string) ([]dto.ReviewResponse, error)
	Recent(ctx context.Context, limit int) ([]dto.ReviewResponse, error)
}

type reviewService struct {
	reviews   repository.ReviewRepository
	students  repository.StudentRepository
	validator *validator.Validate
	cache     CacheInvalidator
	policy    *bluemonday.Policy
	logger    zerolog.Logger
	now       func() time.Time
}

// NewReviewService constructs the review service.
func NewReviewService(reviews repository.ReviewRepository, students repository.StudentRepository, validate *validator.Validate, cache CacheInvalidator, logger zerolog.Logger) ReviewService {
	return &reviewService{
		reviews:   reviews,
		students:  students,
		validator: validate,
		cache:     invalidatorOrNoop(cache),
		policy:    bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "review_service").Logger(),
		now:       time.Now,
	}
}

// Create stores a review carrying the student's current name. Unknown students
// are a no-op reported as Applied=false.
func (s *reviewService) Create(ctx context.Context, studentID string, payload dto.ReviewCreateRequest) (dto.ReviewCreateResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ReviewCreateResponse{}, err
	}

	content := sanitizeText(s.policy, payload.Content)
	if content == "" {
		return dto.ReviewCreateResponse{}, ErrEmptyText
	}

	student, err := s.students.GetByID(ctx, strings.TrimSpace(studentID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ReviewCreateResponse{Applied: false}, nil
		}
		return dto.ReviewCreateResponse{}, err
	}

	review := models.Review{
		ID:          newID(),
		StudentID:   student.ID,
		StudentName: student.Name,
		Content:     content,
		Rating:      payload.Rating,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.reviews.Create(ctx, &review); err != nil {
		s.logger.Error().Err(err).Str("student_id", student.ID).Msg("failed to store review")
		return dto.ReviewCreateResponse{}, err
	}

	s.cache.Invalidate(ctx)
	resp := dto.NewReviewResponse(review)
	return dto.ReviewCreateResponse{Applied: true, Review: &resp}, nil
}

func (s *reviewService) ListByStudent(ctx context.Context, studentID string) ([]dto.ReviewResponse, error) {
	reviews, err := s.reviews.ListByStudent(ctx, strings.TrimSpace(studentID))
	if err != nil {
		return nil, err
	}
	return dto.NewReviewResponses(reviews), nil
}

func (s *reviewService) Recent(ctx context.Context, limit int) ([]dto.ReviewResponse, error) {
	reviews, err := s.reviews.Recent(ctx, clampLimit(limit, ledger.RecentLimit, 50))
	if err != nil {
		return nil, err
	}
	return dto.NewReviewResponses(reviews), nil
}
