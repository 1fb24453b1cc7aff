package models

import (
	"time"

	"wms-backend/internal/clock"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BinHistory archives a batch after it left its bin.
type BinHistory struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey"`
	BinID          uuid.UUID  `gorm:"type:uuid;not null;index"`
	BinCode        string     `gorm:"size:100;not null"`
	WarehouseID    uuid.UUID  `gorm:"type:uuid;not null"`
	ProductID      *uuid.UUID `gorm:"type:uuid"`
	Product        *Product   `gorm:"constraint:OnDelete:SET NULL"`
	SupplierID     *uuid.UUID `gorm:"type:uuid"`
	BatchNumber    string     `gorm:"size:100"`
	PalletCount    int
	NetWeight      decimal.Decimal     `gorm:"type:numeric(12,2)"`
	GrossWeight    decimal.NullDecimal `gorm:"type:numeric(12,2)"`
	DeliveryDate   time.Time           `gorm:"type:date"`
	BestBeforeDate *time.Time          `gorm:"type:date"`
	FreezeDate     *time.Time          `gorm:"type:date"`
	UseByDate      time.Time           `gorm:"type:date"`
	CMRNumber      *string             `gorm:"column:cmr_number;size:100"`
	RemovalReason  string              `gorm:"size:50;not null"`
	RemovalNotes   *string             `gorm:"type:text"`
	RemovedBy      *uuid.UUID          `gorm:"type:uuid"`
	ReceivedAt     time.Time
	RemovedAt      time.Time `gorm:"index"`
}

const (
	RemovalUsed      = "used"
	RemovalScrapped  = "scrapped"
	RemovalMoved     = "moved"
	RemovalFulfilled = "fulfilled"
)

func (h *BinHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	if h.RemovedAt.IsZero() {
		h.RemovedAt = clock.Now()
	}
	return nil
}
