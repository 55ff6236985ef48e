package models

import "time"

// AdminCredentialID is the primary key of the single passcode row.
const AdminCredentialID uint = 1

// AdminCredential stores the shared dashboard passcode hash.
type AdminCredential struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	PasscodeHash string    `gorm:"size:255;not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
