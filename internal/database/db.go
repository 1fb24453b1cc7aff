package database

import (
	"fmt"

	"wms-backend/internal/config"
	"wms-backend/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// Init opens the Postgres connection and migrates the schema.
func Init(cfg *config.Config, log *zap.Logger) error {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{
		Logger: NewGormLogger(log),
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return err
	}

	DB = db
	log.Info("database connected and migrated")
	return nil
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Warehouse{},
		&models.Product{},
		&models.Supplier{},
		&models.Bin{},
		&models.BinContent{},
		&models.BinMovement{},
		&models.BinHistory{},
		&models.StockReservation{},
		&models.ReservationItem{},
		&models.WarehouseTransfer{},
		&models.JobExecution{},
		&models.OccupancySnapshot{},
		&models.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
