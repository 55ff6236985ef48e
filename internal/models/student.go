package models

import "time"

// Student is the root ledger entity; logs, reviews and archive images reference it by ID.
type Student struct {
	ID               string    `gorm:"primaryKey;size:64" json:"id"`
	Name             string    `gorm:"size:255;not null;index" json:"name"`
	Phone            string    `gorm:"size:64;not null" json:"phone"`
	RemainingLessons int       `gorm:"not null" json:"remaining_lessons"`
	TotalLessons     int       `gorm:"not null" json:"total_lessons"`
	JoinDate         time.Time `gorm:"not null;index" json:"join_date"`
	UpdatedAt        time.Time `json:"updated_at"`
}
