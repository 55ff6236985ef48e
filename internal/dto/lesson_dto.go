package dto

import (
	"time"

	"github.com/noah-isme/lesson-ledger-api/internal/models"
)

// LessonChangeRequest consumes or refills lesson credits. The sign of Amount is
// ignored; Type decides the direction.
type LessonChangeRequest struct {
	Amount int    `json:"amount" validate:"required,ne=0"`
	Type   string `json:"type" validate:"required,oneof=consume refill"`
	Note   string `json:"note" validate:"max=500"`
}

// LessonChangeResponse reports the updated balance and the appended log entry.
// Applied is false when the student no longer exists.
type LessonChangeResponse struct {
	Applied bool               `json:"applied"`
	Student *StudentResponse   `json:"student,omitempty"`
	Log     *LessonLogResponse `json:"log,omitempty"`
}

// LessonLogListRequest defines filters for the history listing.
type LessonLogListRequest struct {
	StudentID string
	Type      string `validate:"omitempty,oneof=consume refill"`
	Page      int
	PageSize  int
}

// LessonLogResponse is the API representation of a log entry.
type LessonLogResponse struct {
	ID          string    `json:"id"`
	StudentID   string    `json:"student_id"`
	StudentName string    `json:"student_name"`
	Amount      int       `json:"amount"`
	Type        string    `json:"type"`
	Note        string    `json:"note"`
	CreatedAt   time.Time `json:"created_at"`
}

// LessonLogListResponse wraps paginated log entries.
type LessonLogListResponse struct {
	Items      []LessonLogResponse `json:"items"`
	Pagination PaginationMeta      `json:"pagination"`
}

// NewLessonLogResponse maps a log model to its response.
func NewLessonLogResponse(entry models.LessonLog) LessonLogResponse {
	return LessonLogResponse{
		ID:          entry.ID,
		StudentID:   entry.StudentID,
		StudentName: entry.StudentName,
		Amount:      entry.Amount,
		Type:        entry.Type,
		Note:        entry.Note,
		CreatedAt:   entry.CreatedAt,
	}
}

// NewLessonLogResponses maps a slice of log models.
func NewLessonLogResponses(entries []models.LessonLog) []LessonLogResponse {
	responses := make([]LessonLogResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, NewLessonLogResponse(entry))
	}
	return responses
}
