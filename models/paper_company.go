package models

import (
	"time"
)

// Kinds of paper-company links.
const (
	// LinkKindFacility marks the single sponsoring/hosting company of a
	// paper. Updates go through delete-then-insert so at most one exists.
	LinkKindFacility = "facility"
	// LinkKindInterest is a company's bookmark of a paper (many-to-many).
	LinkKindInterest = "interest"
)

// PaperCompany links a paper to a company, either as its facility or as a
// bookmarked interest.
type PaperCompany struct {
	PaperID   uint      `json:"paper_id" gorm:"primaryKey;autoIncrement:false"`
	CompanyID uint      `json:"company_id" gorm:"primaryKey;autoIncrement:false"`
	Kind      string    `json:"kind" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName pins the join-table name.
func (PaperCompany) TableName() string {
	return "paper_companies"
}
