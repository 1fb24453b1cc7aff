// Package transfer moves stock between bins of one warehouse and between
// warehouses.
package transfer

import (
	"errors"
	"fmt"
	"strings"

	"wms-backend/internal/clock"
	"wms-backend/internal/i18n"
	"wms-backend/internal/inventory"
	"wms-backend/internal/models"
	"wms-backend/internal/movement"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CreateRequest struct {
	SourceBinContentID uuid.UUID       `json:"source_bin_content_id" validate:"required"`
	TargetBinID        uuid.UUID       `json:"target_bin_id" validate:"required"`
	Quantity           decimal.Decimal `json:"quantity"`
	Reason             string          `json:"reason" validate:"max=50"`
	Notes              *string         `json:"notes"`
}

type Result struct {
	SourceMovementID    uuid.UUID       `json:"source_movement_id"`
	TargetMovementID    uuid.UUID       `json:"target_movement_id"`
	SourceBinCode       string          `json:"source_bin_code"`
	TargetBinCode       string          `json:"target_bin_code"`
	QuantityTransferred decimal.Decimal `json:"quantity_transferred"`
	Unit                string          `json:"unit"`
	ProductName         string          `json:"product_name"`
	BatchNumber         string          `json:"batch_number"`
	Message             string          `json:"message"`
}

type CrossWarehouseRequest struct {
	SourceBinContentID uuid.UUID       `json:"source_bin_content_id" validate:"required"`
	TargetWarehouseID  uuid.UUID       `json:"target_warehouse_id" validate:"required"`
	TargetBinID        *uuid.UUID      `json:"target_bin_id"`
	Quantity           decimal.Decimal `json:"quantity"`
	TransportReference *string         `json:"transport_reference" validate:"omitempty,max=100"`
	Notes              *string         `json:"notes"`
}

type ConfirmRequest struct {
	TargetBinID        *uuid.UUID       `json:"target_bin_id"`
	ReceivedQuantity   *decimal.Decimal `json:"received_quantity"`
	ConditionOnReceipt *string          `json:"condition_on_receipt" validate:"omitempty,max=50"`
	Notes              *string          `json:"notes"`
}

type CancelRequest struct {
	Reason string  `json:"reason" validate:"max=255"`
	Notes  *string `json:"notes"`
}

func badRequest(key string) error {
	return fiber.NewError(fiber.StatusBadRequest, i18n.T(key))
}

// sourceContent locks the source content and checks qty is free to move.
func sourceContent(tx *gorm.DB, id uuid.UUID, qty decimal.Decimal) (*models.BinContent, error) {
	if !qty.IsPositive() {
		return nil, fiber.NewError(fiber.StatusUnprocessableEntity, i18n.T("invalid_quantity"))
	}
	src, err := inventory.LockContent(tx, id)
	if err != nil {
		return nil, err
	}
	if qty.GreaterThan(src.Available()) {
		return nil, badRequest("transfer_insufficient_quantity")
	}
	var b models.Bin
	if err := tx.Preload("Warehouse").First(&b, "id = ?", src.BinID).Error; err != nil {
		return nil, err
	}
	var p models.Product
	if err := tx.First(&p, "id = ?", src.ProductID).Error; err != nil {
		return nil, err
	}
	src.Bin, src.Product = &b, &p
	return src, nil
}

// checkTarget validates a bin in warehouseID that is to receive productID.
func checkTarget(tx *gorm.DB, binID, warehouseID, productID uuid.UUID) (*models.Bin, error) {
	b, err := inventory.LockBin(tx, binID)
	if err != nil {
		return nil, err
	}
	if b.WarehouseID != warehouseID {
		return nil, fiber.NewError(fiber.StatusNotFound, i18n.T("bin_not_found"))
	}
	if b.IsArchived {
		return nil, badRequest("bin_archived")
	}
	if !b.IsActive || b.Status == models.BinStatusInactive {
		return nil, badRequest("bin_inactive")
	}
	other, err := inventory.HoldsOtherProduct(tx, b.ID, productID)
	if err != nil {
		return nil, err
	}
	if other {
		return nil, badRequest("transfer_target_occupied")
	}
	return b, nil
}

// weightShare is the part of a content's net weight that travels with qty.
func weightShare(c *models.BinContent, qty decimal.Decimal) decimal.Decimal {
	if !c.Quantity.IsPositive() || c.WeightKg.IsZero() {
		return decimal.Zero
	}
	if qty.GreaterThanOrEqual(c.Quantity) {
		return c.WeightKg
	}
	return c.WeightKg.Mul(qty).Div(c.Quantity).Round(2)
}

// take removes qty from a content. With moveWeight its net weight share
// goes too and is returned.
func take(tx *gorm.DB, c *models.BinContent, qty decimal.Decimal, moveWeight bool) (before, after, weight decimal.Decimal, err error) {
	before = c.Quantity
	after = before.Sub(qty)
	if moveWeight {
		weight = weightShare(c, qty)
	}
	err = tx.Model(c).Updates(map[string]any{
		"quantity":  after,
		"weight_kg": c.WeightKg.Sub(weight),
	}).Error
	c.Quantity = after
	c.WeightKg = c.WeightKg.Sub(weight)
	return
}

// put adds qty and weight to a content.
func put(tx *gorm.DB, c *models.BinContent, qty, weight decimal.Decimal) (before, after decimal.Decimal, err error) {
	before = c.Quantity
	after = before.Add(qty)
	err = tx.Model(c).Updates(map[string]any{
		"quantity":  after,
		"weight_kg": c.WeightKg.Add(weight),
		"status":    models.ContentAvailable,
	}).Error
	c.Quantity = after
	c.WeightKg = c.WeightKg.Add(weight)
	return
}

// WithinWarehouse moves stock between two bins of the same warehouse.
func WithinWarehouse(tx *gorm.DB, req *CreateRequest, userID uuid.UUID) (*Result, error) {
	src, err := sourceContent(tx, req.SourceBinContentID, req.Quantity)
	if err != nil {
		return nil, err
	}
	if src.BinID == req.TargetBinID {
		return nil, badRequest("transfer_same_bin")
	}
	var target models.Bin
	if err := tx.First(&target, "id = ?", req.TargetBinID).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, i18n.T("bin_not_found"))
	}
	if target.WarehouseID != src.Bin.WarehouseID {
		return nil, badRequest("transfer_different_warehouse")
	}
	tb, err := checkTarget(tx, target.ID, target.WarehouseID, src.ProductID)
	if err != nil {
		return nil, err
	}

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = "reorganization"
	}
	notes := req.Notes

	srcBefore, srcAfter, weight, err := take(tx, src, req.Quantity, true)
	if err != nil {
		return nil, err
	}
	dst, err := inventory.FindOrCreateContent(tx, src, tb.ID)
	if err != nil {
		return nil, err
	}
	dstBefore, dstAfter, err := put(tx, dst, req.Quantity, weight)
	if err != nil {
		return nil, err
	}

	outNote := fmt.Sprintf("Transfer to %s", tb.Code)
	if notes != nil {
		outNote += ": " + *notes
	}
	out, err := movement.Record(tx, movement.Entry{
		BinContentID:   src.ID,
		Type:           models.MovementTransfer,
		Quantity:       req.Quantity.Neg(),
		QuantityBefore: srcBefore,
		QuantityAfter:  srcAfter,
		Reason:         reason,
		UserID:         userID,
		Notes:          &outNote,
	})
	if err != nil {
		return nil, err
	}
	inNote := fmt.Sprintf("Transfer from %s", src.Bin.Code)
	in, err := movement.Record(tx, movement.Entry{
		BinContentID:   dst.ID,
		Type:           models.MovementTransfer,
		Quantity:       req.Quantity,
		QuantityBefore: dstBefore,
		QuantityAfter:  dstAfter,
		Reason:         reason,
		UserID:         userID,
		Notes:          &inNote,
	})
	if err != nil {
		return nil, err
	}

	if srcAfter.IsZero() {
		if err := inventory.ArchiveContent(tx, src, models.RemovalMoved, &outNote, userID); err != nil {
			return nil, err
		}
	}
	for _, id := range []uuid.UUID{src.BinID, tb.ID} {
		if err := inventory.RefreshBinStatus(tx, id); err != nil {
			return nil, err
		}
	}

	return &Result{
		SourceMovementID:    out.ID,
		TargetMovementID:    in.ID,
		SourceBinCode:       src.Bin.Code,
		TargetBinCode:       tb.Code,
		QuantityTransferred: req.Quantity,
		Unit:                src.Unit,
		ProductName:         src.Product.Name,
		BatchNumber:         src.BatchNumber,
		Message:             i18n.T("transfer_successful"),
	}, nil
}

// CrossWarehouse takes stock out of its bin and opens a pending transfer
// to another warehouse.
func CrossWarehouse(tx *gorm.DB, req *CrossWarehouseRequest, userID uuid.UUID) (*models.WarehouseTransfer, error) {
	src, err := sourceContent(tx, req.SourceBinContentID, req.Quantity)
	if err != nil {
		return nil, err
	}
	var target models.Warehouse
	if err := tx.First(&target, "id = ?", req.TargetWarehouseID).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, i18n.T("warehouse_not_found"))
	}
	if target.ID == src.Bin.WarehouseID {
		return nil, badRequest("transfer_same_warehouse")
	}
	if req.TargetBinID != nil {
		var tb models.Bin
		if err := tx.First(&tb, "id = ? AND warehouse_id = ?", *req.TargetBinID, target.ID).Error; err != nil {
			return nil, fiber.NewError(fiber.StatusNotFound, i18n.T("bin_not_found"))
		}
		if !tb.IsActive || tb.IsArchived {
			return nil, badRequest("bin_inactive")
		}
	}

	before, after, _, err := take(tx, src, req.Quantity, false)
	if err != nil {
		return nil, err
	}

	t := models.WarehouseTransfer{
		SourceWarehouseID:  src.Bin.WarehouseID,
		SourceBinID:        src.BinID,
		SourceBinContentID: src.ID,
		TargetWarehouseID:  target.ID,
		TargetBinID:        req.TargetBinID,
		QuantitySent:       req.Quantity,
		Unit:               src.Unit,
		Status:             models.TransferPending,
		TransportReference: req.TransportReference,
		CreatedBy:          userID,
		Notes:              req.Notes,
	}
	if err := tx.Create(&t).Error; err != nil {
		return nil, err
	}

	note := fmt.Sprintf("Cross-warehouse transfer to %s", target.Name)
	if _, err := movement.Record(tx, movement.Entry{
		BinContentID:    src.ID,
		Type:            models.MovementTransfer,
		Quantity:        req.Quantity.Neg(),
		QuantityBefore:  before,
		QuantityAfter:   after,
		Reason:          "cross_warehouse_out",
		UserID:          userID,
		ReferenceNumber: req.TransportReference,
		Notes:           &note,
	}); err != nil {
		return nil, err
	}
	if err := inventory.RefreshBinStatus(tx, src.BinID); err != nil {
		return nil, err
	}
	return Load(tx, t.ID)
}

// Load fetches a transfer with its warehouses, bins and source content.
func Load(db *gorm.DB, id uuid.UUID) (*models.WarehouseTransfer, error) {
	var t models.WarehouseTransfer
	err := db.Preload("SourceWarehouse").Preload("TargetWarehouse").
		Preload("SourceBin").Preload("TargetBin").
		Preload("SourceBinContent.Product").
		First(&t, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fiber.NewError(fiber.StatusNotFound, i18n.T("transfer_not_found"))
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func lockTransfer(tx *gorm.DB, id uuid.UUID) (*models.WarehouseTransfer, error) {
	var t models.WarehouseTransfer
	err := inventory.ForUpdate(tx).First(&t, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fiber.NewError(fiber.StatusNotFound, i18n.T("transfer_not_found"))
	}
	return &t, err
}

func closedError(s models.TransferStatus) error {
	switch s {
	case models.TransferReceived:
		return badRequest("transfer_already_completed")
	case models.TransferCancelled:
		return badRequest("transfer_already_cancelled")
	}
	return nil
}

// Dispatch marks a pending transfer as in transit.
func Dispatch(tx *gorm.DB, id uuid.UUID) (*models.WarehouseTransfer, error) {
	t, err := lockTransfer(tx, id)
	if err != nil {
		return nil, err
	}
	if err := closedError(t.Status); err != nil {
		return nil, err
	}
	if t.Status != models.TransferPending {
		return nil, badRequest("transfer_not_pending")
	}
	now := clock.Now()
	if err := tx.Model(t).Updates(map[string]any{
		"status":        models.TransferInTransit,
		"dispatched_at": now,
	}).Error; err != nil {
		return nil, err
	}
	return Load(tx, t.ID)
}

// Confirm books an in-transit transfer into a bin of the target warehouse.
func Confirm(tx *gorm.DB, id uuid.UUID, req *ConfirmRequest, userID uuid.UUID) (*models.WarehouseTransfer, error) {
	t, err := lockTransfer(tx, id)
	if err != nil {
		return nil, err
	}
	if err := closedError(t.Status); err != nil {
		return nil, err
	}
	if t.Status == models.TransferPending {
		return nil, badRequest("transfer_not_dispatched")
	}

	binID := req.TargetBinID
	if binID == nil {
		binID = t.TargetBinID
	}
	if binID == nil {
		return nil, fiber.NewError(fiber.StatusUnprocessableEntity, i18n.T("transfer_target_bin_required"))
	}
	qty := t.QuantitySent
	if req.ReceivedQuantity != nil {
		qty = *req.ReceivedQuantity
	}
	if !qty.IsPositive() {
		return nil, fiber.NewError(fiber.StatusUnprocessableEntity, i18n.T("invalid_quantity"))
	}

	src, err := inventory.LockContent(tx, t.SourceBinContentID)
	if err != nil {
		return nil, err
	}
	tb, err := checkTarget(tx, *binID, t.TargetWarehouseID, src.ProductID)
	if err != nil {
		return nil, err
	}
	dst, err := inventory.FindOrCreateContent(tx, src, tb.ID)
	if err != nil {
		return nil, err
	}
	before, after, err := put(tx, dst, qty, decimal.Zero)
	if err != nil {
		return nil, err
	}

	var sourceName string
	var sw models.Warehouse
	if tx.Select("name").First(&sw, "id = ?", t.SourceWarehouseID).Error == nil {
		sourceName = sw.Name
	}
	note := fmt.Sprintf("Cross-warehouse transfer from %s", sourceName)
	if req.Notes != nil {
		note += ": " + *req.Notes
	}
	if _, err := movement.Record(tx, movement.Entry{
		BinContentID:    dst.ID,
		Type:            models.MovementTransfer,
		Quantity:        qty,
		QuantityBefore:  before,
		QuantityAfter:   after,
		Reason:          "cross_warehouse_in",
		UserID:          userID,
		ReferenceNumber: t.TransportReference,
		Notes:           &note,
	}); err != nil {
		return nil, err
	}

	now := clock.Now()
	if err := tx.Model(t).Updates(map[string]any{
		"status":               models.TransferReceived,
		"target_bin_id":        tb.ID,
		"quantity_received":    qty,
		"condition_on_receipt": req.ConditionOnReceipt,
		"received_by":          userID,
		"received_at":          now,
	}).Error; err != nil {
		return nil, err
	}

	if src.Quantity.IsZero() {
		if err := inventory.ArchiveContent(tx, src, models.RemovalMoved, &note, userID); err != nil {
			return nil, err
		}
	}
	if err := inventory.RefreshBinStatus(tx, tb.ID); err != nil {
		return nil, err
	}
	return Load(tx, t.ID)
}

// Cancel returns the quantity of an open transfer to its source content.
func Cancel(tx *gorm.DB, id uuid.UUID, req *CancelRequest, userID uuid.UUID) (*models.WarehouseTransfer, error) {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, fiber.NewError(fiber.StatusUnprocessableEntity, i18n.T("transfer_reason_required"))
	}
	t, err := lockTransfer(tx, id)
	if err != nil {
		return nil, err
	}
	if err := closedError(t.Status); err != nil {
		return nil, err
	}

	src, err := inventory.LockContent(tx, t.SourceBinContentID)
	if err != nil {
		return nil, err
	}
	before, after, err := put(tx, src, t.QuantitySent, decimal.Zero)
	if err != nil {
		return nil, err
	}
	note := fmt.Sprintf("Transfer cancelled: %s", reason)
	if _, err := movement.Record(tx, movement.Entry{
		BinContentID:    src.ID,
		Type:            models.MovementTransfer,
		Quantity:        t.QuantitySent,
		QuantityBefore:  before,
		QuantityAfter:   after,
		Reason:          "transfer_cancelled",
		UserID:          userID,
		ReferenceNumber: t.TransportReference,
		Notes:           &note,
	}); err != nil {
		return nil, err
	}

	now := clock.Now()
	if err := tx.Model(t).Updates(map[string]any{
		"status":              models.TransferCancelled,
		"cancelled_at":        now,
		"cancellation_reason": reason,
	}).Error; err != nil {
		return nil, err
	}
	if err := inventory.RefreshBinStatus(tx, src.BinID); err != nil {
		return nil, err
	}
	return Load(tx, t.ID)
}
