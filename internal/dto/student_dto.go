package dto

import (
	"time"

	"github.com/noah-isme/lesson-ledger-api/internal/ledger"
	"github.com/noah-isme/lesson-ledger-api/internal/models"
)

// StudentCreateRequest registers a new student with an opening balance.
type StudentCreateRequest struct {
	Name           string `json:"name" validate:"required,max=255"`
	Phone          string `json:"phone" validate:"required,max=64"`
	InitialLessons int    `json:"initial_lessons" validate:"gte=0,lte=100000"`
}

// StudentListRequest defines filters for listing students.
type StudentListRequest struct {
	Search         string
	LowBalanceOnly bool
	Page           int
	PageSize       int
}

// StudentResponse is the API representation of a student.
type StudentResponse struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Phone            string    `json:"phone"`
	RemainingLessons int       `json:"remaining_lessons"`
	TotalLessons     int       `json:"total_lessons"`
	JoinDate         time.Time `json:"join_date"`
	LowBalance       bool      `json:"low_balance"`
	ArchiveCount     int64     `json:"archive_count"`
}

// StudentListResponse wraps paginated students.
type StudentListResponse struct {
	Items      []StudentResponse `json:"items"`
	Pagination PaginationMeta    `json:"pagination"`
}

// StudentDeleteResponse reports the outcome of a cascading delete.
type StudentDeleteResponse struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

// NewStudentResponse maps a student model to its response.
func NewStudentResponse(student models.Student, archiveCount int64) StudentResponse {
	return StudentResponse{
		ID:               student.ID,
		Name:             student.Name,
		Phone:            student.Phone,
		RemainingLessons: student.RemainingLessons,
		TotalLessons:     student.TotalLessons,
		JoinDate:         student.JoinDate,
		LowBalance:       ledger.IsLowBalance(student.RemainingLessons),
		ArchiveCount:     archiveCount,
	}
}
