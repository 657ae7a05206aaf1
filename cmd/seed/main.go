package main

import (
	"log"

	"paper-board/config"
	"paper-board/models"
	"paper-board/services"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Explicit demo-data setup. Run once after provisioning; safe to re-run.
func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Config load error", zap.Error(err))
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		logging.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := db.AutoMigrate(
		&models.User{}, &models.Company{}, &models.Paper{},
		&models.PaperCompany{}, &models.Review{}, &models.Complaint{},
	); err != nil {
		logging.Fatal("Auto-migration failed", zap.Error(err))
	}

	if err := services.SeedDemoData(db, logging); err != nil {
		logging.Fatal("Seeding failed", zap.Error(err))
	}
}
