package database

import (
	"log"

	"rentfolio-backend/internal/config"
	"rentfolio-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	var err error

	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("could not connect to database: %v", err)
	}

	if err := Migrate(DB); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	log.Println("database connected, migration complete")
}

// Migrate is separate from Init so tests can run it against their own DB.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Property{},
		&models.Tenancy{},
		&models.PaymentMethod{},
		&models.Payment{},
		&models.MaintenanceRequest{},
		&models.Notification{},
		&models.UserSetting{},
		&models.SystemSetting{},
		&models.ActivityLog{},
	)
}
