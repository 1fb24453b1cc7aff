package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OccupancySnapshot is a daily record of bin occupancy per warehouse.
type OccupancySnapshot struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Date          time.Time       `gorm:"type:date;not null;uniqueIndex:idx_occupancy_day_wh"`
	WarehouseID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_occupancy_day_wh"`
	TotalBins     int             `gorm:"not null"`
	OccupiedBins  int             `gorm:"not null"`
	TotalStockKg  decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	CreatedAt     time.Time
}

func (s *OccupancySnapshot) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
