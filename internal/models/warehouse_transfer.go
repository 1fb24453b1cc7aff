package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransferStatus string

const (
	TransferPending   TransferStatus = "pending"
	TransferInTransit TransferStatus = "in_transit"
	TransferReceived  TransferStatus = "received"
	TransferCancelled TransferStatus = "cancelled"
)

// WarehouseTransfer tracks stock moving between two warehouses:
// pending -> in_transit -> received, or cancelled before receipt.
type WarehouseTransfer struct {
	UUIDModel
	SourceWarehouseID  uuid.UUID           `gorm:"type:uuid;not null;index"`
	SourceWarehouse    *Warehouse          `gorm:"foreignKey:SourceWarehouseID"`
	SourceBinID        uuid.UUID           `gorm:"type:uuid;not null"`
	SourceBin          *Bin                `gorm:"foreignKey:SourceBinID"`
	SourceBinContentID uuid.UUID           `gorm:"type:uuid;not null"`
	SourceBinContent   *BinContent         `gorm:"foreignKey:SourceBinContentID"`
	TargetWarehouseID  uuid.UUID           `gorm:"type:uuid;not null;index"`
	TargetWarehouse    *Warehouse          `gorm:"foreignKey:TargetWarehouseID"`
	TargetBinID        *uuid.UUID          `gorm:"type:uuid"`
	TargetBin          *Bin                `gorm:"foreignKey:TargetBinID"`
	QuantitySent       decimal.Decimal     `gorm:"type:numeric(12,3);not null"`
	QuantityReceived   decimal.NullDecimal `gorm:"type:numeric(12,3)"`
	Unit               string              `gorm:"size:50;not null"`
	Status             TransferStatus      `gorm:"size:20;not null;default:pending;index"`
	TransportReference *string             `gorm:"size:100"`
	ConditionOnReceipt *string             `gorm:"size:50"`
	DispatchedAt       *time.Time
	ReceivedAt         *time.Time
	CancelledAt        *time.Time
	CancellationReason *string    `gorm:"size:255"`
	CreatedBy          uuid.UUID  `gorm:"type:uuid;not null"`
	ReceivedBy         *uuid.UUID `gorm:"type:uuid"`
	Notes              *string    `gorm:"type:text"`
}
