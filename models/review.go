package models

import (
	"time"
)

// Review is a reviewer's or company's verdict on a paper. Score is optional
// (comment-only reviews are valid), but score and comment are never both
// empty. Reviews are immutable once created.
type Review struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	PaperID    uint  `json:"paper_id" gorm:"index;not null"`
	ReviewerID uint  `json:"reviewer_id" gorm:"index;not null"`
	CompanyID  *uint `json:"company_id,omitempty"`

	// 0.0 to 10.0 when present.
	Score   *float64 `json:"score,omitempty"`
	Comment string   `json:"comment,omitempty" gorm:"type:text"`
}
