package models

import (
	"time"
)

// Role values a user account can carry.
const (
	RoleResearcher = "researcher"
	RoleReviewer   = "reviewer"
	RoleCompany    = "company"
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleFounder    = "founder"
)

// ValidRole reports whether role is one of the known account roles.
func ValidRole(role string) bool {
	switch role {
	case RoleResearcher, RoleReviewer, RoleCompany, RoleUser, RoleAdmin, RoleFounder:
		return true
	}
	return false
}

// User is a platform account. Company accounts carry an explicit CompanyID
// foreign key, resolved at registration.
type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name  string `json:"name" gorm:"not null"`
	Email string `json:"email" gorm:"uniqueIndex;not null"`
	Role  string `json:"role" gorm:"index;not null"`

	CompanyID *uint `json:"company_id,omitempty" gorm:"index"`
}
