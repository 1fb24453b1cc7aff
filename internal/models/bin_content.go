package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BinContentStatus string

const (
	ContentAvailable BinContentStatus = "available"
	ContentReserved  BinContentStatus = "reserved"
	ContentExpired   BinContentStatus = "expired"
	ContentScrapped  BinContentStatus = "scrapped"
)

// BinContent is one batch of one product stored in a bin.
// ReservedQuantity never exceeds Quantity.
type BinContent struct {
	UUIDModel
	BinID            uuid.UUID           `gorm:"type:uuid;not null;index"`
	Bin              *Bin                `gorm:"constraint:OnDelete:CASCADE"`
	ProductID        uuid.UUID           `gorm:"type:uuid;not null;index"`
	Product          *Product            `gorm:"constraint:OnDelete:RESTRICT"`
	SupplierID       *uuid.UUID          `gorm:"type:uuid;index"`
	Supplier         *Supplier           `gorm:"constraint:OnDelete:SET NULL"`
	BatchNumber      string              `gorm:"size:100;not null;index"`
	UseByDate        time.Time           `gorm:"type:date;not null;index"`
	BestBeforeDate   *time.Time          `gorm:"type:date"`
	FreezeDate       *time.Time          `gorm:"type:date"`
	DeliveryDate     time.Time           `gorm:"type:date;not null"`
	Quantity         decimal.Decimal     `gorm:"type:numeric(12,3);not null;default:0"`
	ReservedQuantity decimal.Decimal     `gorm:"type:numeric(12,3);not null;default:0"`
	Unit             string              `gorm:"size:50;not null"`
	PalletCount      int                 `gorm:"not null;default:1"`
	WeightKg         decimal.Decimal     `gorm:"type:numeric(12,2);not null;default:0"`
	GrossWeightKg    decimal.NullDecimal `gorm:"type:numeric(12,2)"`
	PalletHeightCm   *int
	CMRNumber        *string          `gorm:"column:cmr_number;size:100;index"`
	ReceivedDate     time.Time        `gorm:"not null"`
	Status           BinContentStatus `gorm:"size:20;not null;default:available;index"`
	Notes            *string          `gorm:"type:text"`
}

// Available is the quantity that is neither issued nor held by a reservation.
func (c *BinContent) Available() decimal.Decimal {
	a := c.Quantity.Sub(c.ReservedQuantity)
	if a.IsNegative() {
		return decimal.Zero
	}
	return a
}
