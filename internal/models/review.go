package models

import "time"

// Review stores a teacher's rated note about a student.
type Review struct {
	ID          string    `gorm:"primaryKey;size:64" json:"id"`
	StudentID   string    `gorm:"size:64;not null;index" json:"student_id"`
	StudentName string    `gorm:"size:255;not null" json:"student_name"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	Rating      int       `gorm:"not null" json:"rating"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}
