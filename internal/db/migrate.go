package db

import (
	"farmflow/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.Crop{},
		&models.Account{},
		&models.Purchase{},
		&models.InsurancePolicy{},
		&models.InsuranceClaim{},
		&models.PriceUpdate{},
	)
}
