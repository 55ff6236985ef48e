package dto

import (
	"time"

	"github.com/noah-isme/lesson-ledger-api/internal/models"
)

// ActivityListRequest captures filters for listing audit entries.
type ActivityListRequest struct {
	Page       int
	PageSize   int
	Action     string
	EntityType string
	EntityID   string
	SessionID  string
}

// ActivityResponse is the API representation of an audit entry.
type ActivityResponse struct {
	ID         uint                   `json:"id"`
	SessionID  string                 `json:"session_id,omitempty"`
	Action     string                 `json:"action"`
	EntityType string                 `json:"entity_type"`
	EntityID   string                 `json:"entity_id,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

// ActivityListResponse wraps paginated audit entries.
type ActivityListResponse struct {
	Items      []ActivityResponse `json:"items"`
	Pagination PaginationMeta     `json:"pagination"`
}

// NewActivityResponse maps an activity model.
func NewActivityResponse(entry models.ActivityLog) ActivityResponse {
	return ActivityResponse{
		ID:         entry.ID,
		SessionID:  entry.SessionID,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Metadata:   map[string]interface{}(entry.Metadata),
		CreatedAt:  entry.CreatedAt,
	}
}
