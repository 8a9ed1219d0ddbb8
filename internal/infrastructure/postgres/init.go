package postgres

import (
	"log"

	"github.com/LavaJover/shvark-crm-reconciler/internal/config"
	"github.com/LavaJover/shvark-crm-reconciler/internal/infrastructure/postgres/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func MustInitDB(cfg *config.ReconcilerConfig) *gorm.DB {
	dsn := cfg.ReconcilerDB.Dsn
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to init db: %v\n", err.Error())
	}

	return db
}

// AutoMigrate creates the reconciler tables from the gorm models. Production
// schemas go through the SQL migrations instead.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.AccountModel{},
		&models.ContactModel{},
		&models.DonationModel{},
		&models.RecurringDonationModel{},
		&models.CampaignModel{},
		&models.WebhookLogModel{},
	)
}
