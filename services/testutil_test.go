package services

import (
	"testing"
	"time"

	"paper-board/models"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB initializes an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to open test database")

	err = db.AutoMigrate(
		&models.User{}, &models.Company{}, &models.Paper{},
		&models.PaperCompany{}, &models.Review{}, &models.Complaint{},
	)
	require.NoError(t, err, "failed to migrate test database")

	return db
}

func newTestService(t *testing.T) (*DashboardService, *gorm.DB) {
	db := setupTestDB(t)
	return NewDashboardService(db, zap.NewNop()), db
}

func scorePtr(v float64) *float64 {
	return &v
}

func timePtr(tm time.Time) *time.Time {
	return &tm
}
