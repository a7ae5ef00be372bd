package infra

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/okwareddevnest/eventpass/internal/models/db_models"
)

func InitPostgresql(cfg *Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.PostgresURL), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&db_models.Account{},
		&db_models.Event{},
		&db_models.PaymentIntent{},
		&db_models.PaymentNotification{},
		&db_models.Ticket{},
		&db_models.Transaction{},
		&db_models.PayoutRequest{},
		&db_models.Setting{},
	); err != nil {
		return nil, err
	}

	return db, nil
}

func ClosePostgresql(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
