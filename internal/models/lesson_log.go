package models

import "time"

// Lesson log types.
const (
	LessonLogTypeConsume = "consume"
	LessonLogTypeRefill  = "refill"
)

// LessonLog is an append-only audit row describing one balance change.
type LessonLog struct {
	ID          string    `gorm:"primaryKey;size:64" json:"id"`
	StudentID   string    `gorm:"size:64;not null;index" json:"student_id"`
	StudentName string    `gorm:"size:255;not null" json:"student_name"`
	Amount      int       `gorm:"not null" json:"amount"`
	Type        string    `gorm:"size:16;not null;index" json:"type"`
	Note        string    `gorm:"type:text" json:"note"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}
