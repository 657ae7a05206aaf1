package services

import (
	"time"

	"paper-board/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SeedDemoData inserts a small demonstration data set: users, companies,
// papers with facility links, and a few reviews. Idempotent, and only ever
// invoked explicitly (cmd/seed), never from a read path.
func SeedDemoData(db *gorm.DB, logger *zap.Logger) error {
	var count int64
	db.Model(&models.Paper{}).Count(&count)
	if count > 0 {
		logger.Info("Demo data already present, skipping seed.")
		return nil
	}

	companies := []models.Company{
		{Name: "Provoost Engineering", Industry: "Civil Engineering", InterestTags: "Civil Engineering,Structural Engineering"},
		{Name: "Fluvius", Industry: "Utilities", InterestTags: "Civil Engineering"},
		{Name: "Farys", Industry: "Water Management", InterestTags: "Civil Engineering,Hydrology"},
	}
	for i := range companies {
		if err := db.Where(models.Company{Name: companies[i].Name}).FirstOrCreate(&companies[i]).Error; err != nil {
			return err
		}
	}

	users := []models.User{
		{Name: "A. Vermeer", Email: "a.vermeer@example.com", Role: models.RoleResearcher},
		{Name: "M. De Bruyne", Email: "m.debruyne@example.com", Role: models.RoleResearcher},
		{Name: "S. Pillaert", Email: "s.pillaert@example.com", Role: models.RoleReviewer},
		{Name: "Provoost Engineering", Email: "office@provoost.example.com", Role: models.RoleCompany, CompanyID: &companies[0].ID},
	}
	for i := range users {
		if err := db.Where(models.User{Email: users[i].Email}).FirstOrCreate(&users[i]).Error; err != nil {
			return err
		}
	}

	now := time.Now()
	uploadedAt := func(daysAgo int) *time.Time {
		t := now.AddDate(0, 0, -daysAgo)
		return &t
	}
	papers := []models.Paper{
		{UserID: users[0].ID, Title: "Efficient Concrete Mix Design", Domain: "Civil Engineering",
			Abstract: "Optimizing concrete mixtures for strength and workability under site constraints.", UploadDate: uploadedAt(3)},
		{UserID: users[1].ID, Title: "Stormwater Infiltration in Urban Areas", Domain: "Civil Engineering",
			Abstract: "Field measurements of infiltration rates in permeable urban pavements.", UploadDate: uploadedAt(12)},
		{UserID: users[1].ID, Title: "Wind Loads According to EN 1991-1-4", Domain: "Structural Engineering",
			Abstract: "A practical comparison of wind load calculation methods for mid-rise buildings.", UploadDate: uploadedAt(40)},
	}
	for i := range papers {
		if err := db.Where(models.Paper{Title: papers[i].Title}).FirstOrCreate(&papers[i]).Error; err != nil {
			return err
		}
	}

	links := []models.PaperCompany{
		{PaperID: papers[0].ID, CompanyID: companies[0].ID, Kind: models.LinkKindFacility},
		{PaperID: papers[1].ID, CompanyID: companies[2].ID, Kind: models.LinkKindFacility},
		{PaperID: papers[1].ID, CompanyID: companies[1].ID, Kind: models.LinkKindInterest},
	}
	for i := range links {
		if err := db.Where(links[i]).FirstOrCreate(&links[i]).Error; err != nil {
			return err
		}
	}

	score := func(v float64) *float64 { return &v }
	reviews := []models.Review{
		{PaperID: papers[0].ID, ReviewerID: users[2].ID, Score: score(8.5), Comment: "Strong methodology, directly applicable."},
		{PaperID: papers[1].ID, ReviewerID: users[2].ID, Score: score(7.0), Comment: "Solid data set, limited to one climate zone."},
		{PaperID: papers[2].ID, ReviewerID: users[2].ID, Comment: "Useful overview, no empirical contribution."},
	}
	var reviewCount int64
	db.Model(&models.Review{}).Count(&reviewCount)
	if reviewCount == 0 {
		if err := db.Create(&reviews).Error; err != nil {
			return err
		}
	}

	logger.Info("Demo data seeded.",
		zap.Int("companies", len(companies)),
		zap.Int("users", len(users)),
		zap.Int("papers", len(papers)))
	return nil
}
