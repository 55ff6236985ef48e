package models

import "time"

// ArchiveImage is one uploaded piece of student work. Payload holds the image as a data URL.
type ArchiveImage struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	StudentID string    `gorm:"size:64;not null;index" json:"student_id"`
	Name      string    `gorm:"size:255" json:"name"`
	MimeType  string    `gorm:"size:128" json:"mime_type"`
	SizeBytes int64     `json:"size_bytes"`
	Payload   string    `gorm:"type:text;not null" json:"-"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}
