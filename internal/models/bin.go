package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BinStatus string

const (
	BinStatusEmpty    BinStatus = "empty"
	BinStatusOccupied BinStatus = "occupied"
	BinStatusReserved BinStatus = "reserved"
	BinStatusInactive BinStatus = "inactive"
)

func (s BinStatus) Valid() bool {
	switch s {
	case BinStatusEmpty, BinStatusOccupied, BinStatusReserved, BinStatusInactive:
		return true
	}
	return false
}

// StructureData holds the template field values a bin code was built from.
type StructureData map[string]string

func (d StructureData) Value() (driver.Value, error) {
	if d == nil {
		return "{}", nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (d *StructureData) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*d = StructureData{}
		return nil
	case []byte:
		return json.Unmarshal(v, d)
	case string:
		return json.Unmarshal([]byte(v), d)
	}
	return errors.New("unsupported structure data column type")
}

type Bin struct {
	UUIDModel
	WarehouseID   uuid.UUID           `gorm:"type:uuid;not null;index"`
	Warehouse     *Warehouse          `gorm:"constraint:OnDelete:RESTRICT"`
	Code          string              `gorm:"size:100;uniqueIndex;not null"`
	StructureData StructureData       `gorm:"type:jsonb;not null"`
	Status        BinStatus           `gorm:"size:20;not null;default:empty;index"`
	MaxWeight     decimal.NullDecimal `gorm:"type:numeric(12,2)"`
	MaxHeight     decimal.NullDecimal `gorm:"type:numeric(12,2)"`
	Accessibility *string             `gorm:"size:50"`
	Notes         *string             `gorm:"type:text"`
	IsActive      bool                `gorm:"not null;default:true"`
	IsArchived    bool                `gorm:"not null;default:false;index"`
	ArchivedAt    *time.Time
	ArchivedBy    *uuid.UUID `gorm:"type:uuid"`
	ArchiveReason *string    `gorm:"type:text"`
	Contents      []BinContent
}
