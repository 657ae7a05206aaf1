package models

import (
	"time"
)

// Complaint states.
const (
	ComplaintOpen     = "open"
	ComplaintResolved = "resolved"
)

// Complaint is a user-filed report handled by admins.
type Complaint struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID  uint   `json:"user_id" gorm:"index;not null"`
	Subject string `json:"subject" gorm:"not null"`
	Body    string `json:"body,omitempty" gorm:"type:text"`
	Status  string `json:"status" gorm:"index;default:open"`
}
