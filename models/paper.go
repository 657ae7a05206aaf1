package models

import (
	"time"

	"gorm.io/datatypes"
)

// AI analysis states of a paper.
const (
	AIStatusPending = "pending"
	AIStatusDone    = "done"
	AIStatusFailed  = "failed"
)

// Paper is an uploaded research paper and the AI assessment written back to
// it. The dashboard pipeline only ever reads these rows.
type Paper struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID   uint   `json:"user_id" gorm:"index"`
	Title    string `json:"title" gorm:"not null"`
	Abstract string `json:"abstract,omitempty" gorm:"type:text"`
	Domain   string `json:"domain" gorm:"index"`

	UploadDate *time.Time `json:"upload_date,omitempty"`

	S3Link string `json:"s3_link,omitempty"`

	// Written once per analysis run; a re-run overwrites, never accumulates.
	AIStatus        string         `json:"ai_status" gorm:"index;default:pending"`
	AIBusinessScore *float64       `json:"ai_business_score,omitempty"`
	AIAcademicScore *float64       `json:"ai_academic_score,omitempty"`
	AISummary       string         `json:"ai_summary,omitempty" gorm:"type:text"`
	AIStrengths     string         `json:"ai_strengths,omitempty" gorm:"type:text"`
	AIWeaknesses    string         `json:"ai_weaknesses,omitempty" gorm:"type:text"`
	AIRawPayload    datatypes.JSON `json:"ai_raw_payload,omitempty" gorm:"type:jsonb"`
}
