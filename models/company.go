package models

import (
	"time"
)

// Company is an industry partner that sponsors papers, bookmarks them and
// reviews them through company-role accounts.
type Company struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name     string `json:"name" gorm:"uniqueIndex;not null"`
	Industry string `json:"industry,omitempty"`

	// Comma-joined research domains the company wants recommendations for.
	InterestTags string `json:"interest_tags,omitempty"`
}
