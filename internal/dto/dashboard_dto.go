package dto

import (
	"time"

	"github.com/noah-isme/lesson-ledger-api/internal/ledger"
)

// DashboardResponse aggregates the overview widgets.
type DashboardResponse struct {
	Stats         ledger.Stats        `json:"stats"`
	LowBalance    []StudentResponse   `json:"low_balance"`
	RecentLogs    []LessonLogResponse `json:"recent_logs"`
	RecentReviews []ReviewResponse    `json:"recent_reviews"`
	GeneratedAt   time.Time           `json:"generated_at"`
}
