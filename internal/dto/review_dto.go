package dto

import (
	"time"

	"github.com/noah-isme/lesson-ledger-api/internal/models"
)

// ReviewCreateRequest records a teacher review for a student.
type ReviewCreateRequest struct {
	Content string `json:"content" validate:"required,max=2000"`
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
}

// ReviewResponse is the API representation of a review.
type ReviewResponse struct {
	ID          string    `json:"id"`
	StudentID   string    `json:"student_id"`
	StudentName string    `json:"student_name"`
	Content     string    `json:"content"`
	Rating      int       `json:"rating"`
	CreatedAt   time.Time `json:"created_at"`
}

// ReviewCreateResponse reports whether the review was stored.
type ReviewCreateResponse struct {
	Applied bool            `json:"applied"`
	Review  *ReviewResponse `json:"review,omitempty"`
}

// NewReviewResponse maps a review model to its response.
func NewReviewResponse(review models.Review) ReviewResponse {
	return ReviewResponse{
		ID:          review.ID,
		StudentID:   review.StudentID,
		StudentName: review.StudentName,
		Content:     review.Content,
		Rating:      review.Rating,
		CreatedAt:   review.CreatedAt,
	}
}

// NewReviewResponses maps a slice of review models.
func NewReviewResponses(reviews []models.Review) []ReviewResponse {
	responses := make([]ReviewResponse, 0, len(reviews))
	for _, review := range reviews {
		responses = append(responses, NewReviewResponse(review))
	}
	return responses
}
