package services

import (
	"errors"

	"paper-board/models"

	"gorm.io/gorm"
)

// CreatePaperWithFacility persists a new paper and, when a facility company
// is given, its facility link in one transaction. An unknown company rolls
// everything back and leaves no paper row behind.
func CreatePaperWithFacility(db *gorm.DB, paper *models.Paper, facilityCompanyID *uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if facilityCompanyID != nil {
			var company models.Company
			if err := tx.First(&company, *facilityCompanyID).Error; err != nil {
				return err
			}
		}
		if err := tx.Create(paper).Error; err != nil {
			return err
		}
		if facilityCompanyID != nil {
			return replaceFacility(tx, paper.ID, *facilityCompanyID)
		}
		return nil
	})
}

// SetFacility points the paper's facility link at the given company.
// Delete-then-insert keeps the at-most-one invariant without a DB
// constraint.
func SetFacility(db *gorm.DB, paperID, companyID uint) error {
	var company models.Company
	if err := db.First(&company, companyID).Error; err != nil {
		return err
	}
	return replaceFacility(db, paperID, companyID)
}

func replaceFacility(db *gorm.DB, paperID, companyID uint) error {
	if err := db.Where("paper_id = ? AND kind = ?", paperID, models.LinkKindFacility).
		Delete(&models.PaperCompany{}).Error; err != nil {
		return err
	}
	link := models.PaperCompany{PaperID: paperID, CompanyID: companyID, Kind: models.LinkKindFacility}
	return db.Create(&link).Error
}

// ToggleInterest flips a company's interest bookmark on a paper and reports
// the new state: true when the bookmark now exists.
func ToggleInterest(db *gorm.DB, paperID, companyID uint) (bool, error) {
	var link models.PaperCompany
	err := db.Where("paper_id = ? AND company_id = ? AND kind = ?",
		paperID, companyID, models.LinkKindInterest).First(&link).Error
	switch {
	case err == nil:
		err = db.Where("paper_id = ? AND company_id = ? AND kind = ?",
			paperID, companyID, models.LinkKindInterest).
			Delete(&models.PaperCompany{}).Error
		return false, err
	case errors.Is(err, gorm.ErrRecordNotFound):
		link = models.PaperCompany{PaperID: paperID, CompanyID: companyID, Kind: models.LinkKindInterest}
		if err := db.Create(&link).Error; err != nil {
			return false, err
		}
		return true, nil
	default:
		return false, err
	}
}
