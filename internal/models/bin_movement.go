package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type MovementType string

const (
	MovementReceipt    MovementType = "receipt"
	MovementIssue      MovementType = "issue"
	MovementAdjustment MovementType = "adjustment"
	MovementTransfer   MovementType = "transfer"
	MovementScrap      MovementType = "scrap"
)

func (t MovementType) Valid() bool {
	switch t {
	case MovementReceipt, MovementIssue, MovementAdjustment, MovementTransfer, MovementScrap:
		return true
	}
	return false
}

// BinMovement is an append-only ledger row. Quantity is signed:
// QuantityAfter = QuantityBefore + Quantity.
type BinMovement struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	BinContentID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	BinContent      *BinContent     `gorm:"constraint:OnDelete:RESTRICT"`
	MovementType    MovementType    `gorm:"size:20;not null;index"`
	Quantity        decimal.Decimal `gorm:"type:numeric(12,3);not null"`
	QuantityBefore  decimal.Decimal `gorm:"type:numeric(12,3);not null"`
	QuantityAfter   decimal.Decimal `gorm:"type:numeric(12,3);not null"`
	Reason          string          `gorm:"size:50;not null"`
	ReferenceNumber *string         `gorm:"size:100"`
	FefoCompliant   bool            `gorm:"not null;default:true"`
	ForceOverride   bool            `gorm:"not null;default:false"`
	OverrideReason  *string         `gorm:"type:text"`
	Notes           *string         `gorm:"type:text"`
	CreatedBy       uuid.UUID       `gorm:"type:uuid;not null;index"`
	CreatedAt       time.Time       `gorm:"index"`
}

func (m *BinMovement) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
