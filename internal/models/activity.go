package models

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityLog captures auditable operator actions such as deletions and imports.
type ActivityLog struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	SessionID  string            `gorm:"size:64;index" json:"session_id"`
	Action     string            `gorm:"size:64;not null;index" json:"action"`
	EntityType string            `gorm:"size:64;not null" json:"entity_type"`
	EntityID   string            `gorm:"size:64" json:"entity_id"`
	Metadata   datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt  time.Time         `json:"created_at"`
}
