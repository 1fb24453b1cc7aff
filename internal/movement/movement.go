// Package movement keeps the append-only stock ledger.
package movement

import (
	"fmt"

	"wms-backend/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Entry struct {
	BinContentID    uuid.UUID
	Type            models.MovementType
	Quantity        decimal.Decimal
	QuantityBefore  decimal.Decimal
	QuantityAfter   decimal.Decimal
	Reason          string
	UserID          uuid.UUID
	ReferenceNumber *string
	FefoCompliant   *bool
	ForceOverride   bool
	OverrideReason  *string
	Notes           *string
}

// Record appends one ledger row. FefoCompliant defaults to true when unset.
func Record(tx *gorm.DB, e Entry) (*models.BinMovement, error) {
	compliant := true
	if e.FefoCompliant != nil {
		compliant = *e.FefoCompliant
	}
	m := models.BinMovement{
		BinContentID:    e.BinContentID,
		MovementType:    e.Type,
		Quantity:        e.Quantity,
		QuantityBefore:  e.QuantityBefore,
		QuantityAfter:   e.QuantityAfter,
		Reason:          e.Reason,
		ReferenceNumber: e.ReferenceNumber,
		FefoCompliant:   compliant,
		ForceOverride:   e.ForceOverride,
		OverrideReason:  e.OverrideReason,
		Notes:           e.Notes,
		CreatedBy:       e.UserID,
	}
	if err := tx.Create(&m).Error; err != nil {
		return nil, fmt.Errorf("record %s movement: %w", e.Type, err)
	}
	// Create skips false for columns with a true default.
	if !compliant {
		if err := tx.Model(&m).Update("fefo_compliant", false).Error; err != nil {
			return nil, fmt.Errorf("record %s movement: %w", e.Type, err)
		}
	}
	return &m, nil
}
