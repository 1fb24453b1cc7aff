package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ReservationStatus string

const (
	ReservationActive    ReservationStatus = "active"
	ReservationFulfilled ReservationStatus = "fulfilled"
	ReservationCancelled ReservationStatus = "cancelled"
	ReservationExpired   ReservationStatus = "expired"
)

type StockReservation struct {
	UUIDModel
	ProductID          uuid.UUID         `gorm:"type:uuid;not null;index"`
	Product            *Product          `gorm:"constraint:OnDelete:RESTRICT"`
	OrderReference     string            `gorm:"size:100;not null;index"`
	CustomerName       *string           `gorm:"size:255"`
	TotalQuantity      decimal.Decimal   `gorm:"type:numeric(12,3);not null"`
	ReservedUntil      time.Time         `gorm:"not null;index"`
	Status             ReservationStatus `gorm:"size:20;not null;default:active;index"`
	FulfilledAt        *time.Time
	CancelledAt        *time.Time
	CancellationReason *string   `gorm:"size:255"`
	Notes              *string   `gorm:"type:text"`
	CreatedBy          uuid.UUID `gorm:"type:uuid;not null"`
	Items              []ReservationItem `gorm:"foreignKey:ReservationID;constraint:OnDelete:CASCADE"`
}

type ReservationItem struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ReservationID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	BinContentID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	BinContent       *BinContent     `gorm:"constraint:OnDelete:RESTRICT"`
	QuantityReserved decimal.Decimal `gorm:"type:numeric(12,3);not null"`
	CreatedAt        time.Time
}

func (i *ReservationItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
