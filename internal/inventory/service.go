package inventory

import (
	"errors"
	"strings"
	"time"

	"wms-backend/internal/clock"
	"wms-backend/internal/fefo"
	"wms-backend/internal/httpx"
	"wms-backend/internal/i18n"
	"wms-backend/internal/models"
	"wms-backend/internal/movement"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ReceiveRequest struct {
	BinID          uuid.UUID        `json:"bin_id" validate:"required"`
	ProductID      uuid.UUID        `json:"product_id" validate:"required"`
	SupplierID     *uuid.UUID       `json:"supplier_id"`
	BatchNumber    string           `json:"batch_number" validate:"required,max=100"`
	UseByDate      string           `json:"use_by_date" validate:"required"`
	BestBeforeDate *string          `json:"best_before_date"`
	FreezeDate     *string          `json:"freeze_date"`
	DeliveryDate   *string          `json:"delivery_date"`
	Quantity       decimal.Decimal  `json:"quantity"`
	Unit           string           `json:"unit" validate:"required,max=50"`
	PalletCount    *int             `json:"pallet_count" validate:"omitempty,gt=0"`
	WeightKg       *decimal.Decimal `json:"weight_kg"`
	GrossWeightKg  *decimal.Decimal `json:"gross_weight_kg"`
	PalletHeightCm *int             `json:"pallet_height_cm" validate:"omitempty,gt=0"`
	CMRNumber      *string          `json:"cmr_number" validate:"omitempty,max=100"`
	Notes          *string          `json:"notes"`
}

type ReceiveResult struct {
	BinContentID    uuid.UUID       `json:"bin_content_id"`
	MovementID      uuid.UUID       `json:"movement_id"`
	BinCode         string          `json:"bin_code"`
	ProductName     string          `json:"product_name"`
	Quantity        decimal.Decimal `json:"quantity"`
	Unit            string          `json:"unit"`
	UseByDate       string          `json:"use_by_date"`
	DaysUntilExpiry int             `json:"days_until_expiry"`
	Message         string          `json:"message"`
}

type IssueRequest struct {
	BinContentID      uuid.UUID       `json:"bin_content_id" validate:"required"`
	Quantity          decimal.Decimal `json:"quantity"`
	Reason            string          `json:"reason" validate:"required,max=50"`
	ReferenceNumber   *string         `json:"reference_number" validate:"omitempty,max=100"`
	ForceFefoOverride bool            `json:"force_fefo_override"`
	OverrideReason    *string         `json:"override_reason"`
	Notes             *string         `json:"notes"`
}

type Warning struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type IssueResult struct {
	MovementID        uuid.UUID       `json:"movement_id"`
	BinContentID      *uuid.UUID      `json:"bin_content_id"`
	QuantityIssued    decimal.Decimal `json:"quantity_issued"`
	RemainingQuantity decimal.Decimal `json:"remaining_quantity"`
	UseByDate         string          `json:"use_by_date"`
	DaysUntilExpiry   int             `json:"days_until_expiry"`
	FefoCompliant     bool            `json:"fefo_compliant"`
	Warning           *Warning        `json:"warning"`
	Message           string          `json:"message"`
}

type AdjustRequest struct {
	BinContentID    uuid.UUID       `json:"bin_content_id" validate:"required"`
	NewQuantity     decimal.Decimal `json:"new_quantity"`
	Reason          string          `json:"reason" validate:"required,max=50"`
	ReferenceNumber *string         `json:"reference_number" validate:"omitempty,max=100"`
	Notes           *string         `json:"notes"`
}

type ScrapRequest struct {
	BinContentID    uuid.UUID `json:"bin_content_id" validate:"required"`
	Reason          string    `json:"reason" validate:"required,max=50"`
	ReferenceNumber *string   `json:"reference_number" validate:"omitempty,max=100"`
	Notes           *string   `json:"notes"`
}

type MovementResult struct {
	MovementID     uuid.UUID       `json:"movement_id"`
	BinContentID   uuid.UUID       `json:"bin_content_id"`
	Quantity       decimal.Decimal `json:"quantity"`
	QuantityBefore decimal.Decimal `json:"quantity_before"`
	QuantityAfter  decimal.Decimal `json:"quantity_after"`
	Message        string          `json:"message"`
}

// Actor is the user performing a stock operation.
type Actor struct {
	ID   uuid.UUID
	Role models.UserRole
}

func (a Actor) CanOverrideFefo() bool {
	return a.Role == models.RoleAdmin || a.Role == models.RoleManager
}

func unprocessable(key string) error {
	return fiber.NewError(fiber.StatusUnprocessableEntity, i18n.T(key))
}

// receiveDates validates the date rules of a receipt.
func receiveDates(req *ReceiveRequest) (useBy time.Time, bestBefore, freeze *time.Time, delivery time.Time, err error) {
	today := clock.Today()

	if useBy, err = httpx.ParseDateField(req.UseByDate, "use_by_date"); err != nil {
		return
	}
	if !useBy.After(today) {
		err = unprocessable("expiry_date_past")
		return
	}
	if bestBefore, err = httpx.ParseOptionalDateField(req.BestBeforeDate, "best_before_date"); err != nil {
		return
	}
	if bestBefore != nil && bestBefore.After(useBy) {
		err = unprocessable("invalid_dates")
		return
	}
	if freeze, err = httpx.ParseOptionalDateField(req.FreezeDate, "freeze_date"); err != nil {
		return
	}
	if freeze != nil && freeze.After(today) {
		err = unprocessable("freeze_date_future")
		return
	}
	var d *time.Time
	if d, err = httpx.ParseOptionalDateField(req.DeliveryDate, "delivery_date"); err != nil {
		return
	}
	delivery = today
	if d != nil {
		delivery = *d
	}
	return
}

// Receive books goods into a bin. The same product and batch in the bin is
// topped up, otherwise a new content row is created.
func Receive(tx *gorm.DB, req *ReceiveRequest, actor Actor) (*ReceiveResult, error) {
	if !req.Quantity.IsPositive() {
		return nil, unprocessable("invalid_quantity")
	}
	req.BatchNumber = strings.TrimSpace(req.BatchNumber)
	req.Unit = strings.TrimSpace(req.Unit)
	if req.BatchNumber == "" || req.Unit == "" {
		return nil, unprocessable("field_required")
	}

	useBy, bestBefore, freeze, delivery, err := receiveDates(req)
	if err != nil {
		return nil, err
	}

	weight := decimal.Zero
	if req.WeightKg != nil {
		if !req.WeightKg.IsPositive() {
			return nil, unprocessable("invalid_weight")
		}
		weight = *req.WeightKg
	}
	var gross decimal.NullDecimal
	if req.GrossWeightKg != nil {
		if !req.GrossWeightKg.IsPositive() || req.GrossWeightKg.LessThan(weight) {
			return nil, unprocessable("invalid_weight")
		}
		gross = decimal.NullDecimal{Decimal: *req.GrossWeightKg, Valid: true}
	}

	b, err := LockBin(tx, req.BinID)
	if err != nil {
		return nil, err
	}
	if err := CheckTargetBin(tx, b, req.ProductID); err != nil {
		return nil, err
	}

	var product models.Product
	if err := tx.First(&product, "id = ?", req.ProductID).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, i18n.T("product_not_found"))
	}
	if !product.IsActive {
		return nil, fiber.NewError(fiber.StatusBadRequest, i18n.T("product_inactive"))
	}
	if req.SupplierID != nil {
		var supplier models.Supplier
		if err := tx.First(&supplier, "id = ?", *req.SupplierID).Error; err != nil {
			return nil, fiber.NewError(fiber.StatusNotFound, i18n.T("supplier_not_found"))
		}
		if !supplier.IsActive {
			return nil, fiber.NewError(fiber.StatusBadRequest, i18n.T("supplier_inactive"))
		}
	}

	cmr := httpx.TrimPtr(req.CMRNumber)
	notes := httpx.TrimPtr(req.Notes)

	var content models.BinContent
	err = ForUpdate(tx).
		Where("bin_id = ? AND product_id = ? AND batch_number = ?", b.ID, product.ID, req.BatchNumber).
		First(&content).Error
	before := decimal.Zero
	switch {
	case err == nil:
		before = content.Quantity
		updates := map[string]any{
			"quantity":  content.Quantity.Add(req.Quantity),
			"weight_kg": content.WeightKg.Add(weight),
			"status":    models.ContentAvailable,
		}
		if err := tx.Model(&content).Updates(updates).Error; err != nil {
			return nil, err
		}
		content.Quantity = content.Quantity.Add(req.Quantity)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	default:
		pallets := 1
		if req.PalletCount != nil {
			pallets = *req.PalletCount
		}
		content = models.BinContent{
			BinID:            b.ID,
			ProductID:        product.ID,
			SupplierID:       req.SupplierID,
			BatchNumber:      req.BatchNumber,
			UseByDate:        useBy,
			BestBeforeDate:   bestBefore,
			FreezeDate:       freeze,
			DeliveryDate:     delivery,
			Quantity:         req.Quantity,
			ReservedQuantity: decimal.Zero,
			Unit:             req.Unit,
			PalletCount:      pallets,
			WeightKg:         weight,
			GrossWeightKg:    gross,
			PalletHeightCm:   req.PalletHeightCm,
			CMRNumber:        cmr,
			ReceivedDate:     clock.Now(),
			Status:           models.ContentAvailable,
			Notes:            notes,
		}
		if err := tx.Create(&content).Error; err != nil {
			return nil, err
		}
	}

	m, err := movement.Record(tx, movement.Entry{
		BinContentID:    content.ID,
		Type:            models.MovementReceipt,
		Quantity:        req.Quantity,
		QuantityBefore:  before,
		QuantityAfter:   content.Quantity,
		Reason:          "supplier_delivery",
		UserID:          actor.ID,
		ReferenceNumber: cmr,
		Notes:           notes,
	})
	if err != nil {
		return nil, err
	}

	if b.Status != models.BinStatusOccupied {
		if err := tx.Model(b).Update("status", models.BinStatusOccupied).Error; err != nil {
			return nil, err
		}
	}

	return &ReceiveResult{
		BinContentID:    content.ID,
		MovementID:      m.ID,
		BinCode:         b.Code,
		ProductName:     product.Name,
		Quantity:        content.Quantity,
		Unit:            content.Unit,
		UseByDate:       clock.FormatDate(content.UseByDate),
		DaysUntilExpiry: clock.DaysUntil(content.UseByDate),
		Message:         i18n.T("receipt_successful"),
	}, nil
}

// Issue takes stock out of one content, enforcing FEFO unless a manager
// overrides it with a reason.
func Issue(tx *gorm.DB, req *IssueRequest, actor Actor) (*IssueResult, error) {
	if !req.Quantity.IsPositive() {
		return nil, unprocessable("invalid_quantity")
	}

	content, err := LockContent(tx, req.BinContentID)
	if err != nil {
		return nil, err
	}
	if content.Status != models.ContentAvailable || !content.Quantity.IsPositive() {
		return nil, fiber.NewError(fiber.StatusConflict, i18n.T("insufficient_quantity"))
	}
	if content.UseByDate.Before(clock.Today()) {
		return nil, fiber.NewError(fiber.StatusBadRequest, i18n.T("product_expired"))
	}

	candidates, err := Candidates(tx, content.ProductID)
	if err != nil {
		return nil, err
	}
	compliant, oldest := fefo.IsCompliant(content, candidates)
	if !compliant {
		if !req.ForceFefoOverride {
			v := &FefoViolationError{OldestUseByDate: clock.FormatDate(oldest.UseByDate)}
			if oldest.Bin != nil {
				v.OldestBinCode = oldest.Bin.Code
			}
			return nil, v
		}
		if !actor.CanOverrideFefo() || httpx.TrimPtr(req.OverrideReason) == nil {
			return nil, fiber.NewError(fiber.StatusForbidden, i18n.T("fefo_override_required"))
		}
	}

	if req.Quantity.GreaterThan(content.Available()) {
		return nil, fiber.NewError(fiber.StatusConflict, i18n.T("insufficient_quantity"))
	}

	before := content.Quantity
	after := before.Sub(req.Quantity)
	if err := tx.Model(content).Update("quantity", after).Error; err != nil {
		return nil, err
	}
	content.Quantity = after

	m, err := movement.Record(tx, movement.Entry{
		BinContentID:    content.ID,
		Type:            models.MovementIssue,
		Quantity:        req.Quantity.Neg(),
		QuantityBefore:  before,
		QuantityAfter:   after,
		Reason:          strings.TrimSpace(req.Reason),
		UserID:          actor.ID,
		ReferenceNumber: httpx.TrimPtr(req.ReferenceNumber),
		FefoCompliant:   &compliant,
		ForceOverride:   !compliant && req.ForceFefoOverride,
		OverrideReason:  httpx.TrimPtr(req.OverrideReason),
		Notes:           httpx.TrimPtr(req.Notes),
	})
	if err != nil {
		return nil, err
	}

	res := &IssueResult{
		MovementID:        m.ID,
		QuantityIssued:    req.Quantity,
		RemainingQuantity: after,
		UseByDate:         clock.FormatDate(content.UseByDate),
		DaysUntilExpiry:   clock.DaysUntil(content.UseByDate),
		FefoCompliant:     compliant,
		Message:           i18n.T("issue_successful"),
	}
	if !compliant {
		res.Warning = &Warning{Type: "fefo_violation", Message: i18n.T("fefo_warning")}
	}

	if after.IsZero() {
		if err := ArchiveContent(tx, content, models.RemovalUsed, httpx.TrimPtr(req.Notes), actor.ID); err != nil {
			return nil, err
		}
		if err := RefreshBinStatus(tx, content.BinID); err != nil {
			return nil, err
		}
	} else {
		id := content.ID
		res.BinContentID = &id
	}
	return res, nil
}

// Adjust sets a content to a counted quantity.
func Adjust(tx *gorm.DB, req *AdjustRequest, actor Actor) (*MovementResult, error) {
	if req.NewQuantity.IsNegative() {
		return nil, unprocessable("invalid_quantity")
	}

	content, err := LockContent(tx, req.BinContentID)
	if err != nil {
		return nil, err
	}
	if req.NewQuantity.LessThan(content.ReservedQuantity) {
		return nil, fiber.NewError(fiber.StatusConflict, i18n.T("below_reserved"))
	}

	before := content.Quantity
	delta := req.NewQuantity.Sub(before)
	updates := map[string]any{"quantity": req.NewQuantity}
	if req.NewQuantity.IsPositive() && content.Status != models.ContentAvailable {
		updates["status"] = models.ContentAvailable
	}
	if err := tx.Model(content).Updates(updates).Error; err != nil {
		return nil, err
	}
	content.Quantity = req.NewQuantity

	m, err := movement.Record(tx, movement.Entry{
		BinContentID:    content.ID,
		Type:            models.MovementAdjustment,
		Quantity:        delta,
		QuantityBefore:  before,
		QuantityAfter:   req.NewQuantity,
		Reason:          strings.TrimSpace(req.Reason),
		UserID:          actor.ID,
		ReferenceNumber: httpx.TrimPtr(req.ReferenceNumber),
		Notes:           httpx.TrimPtr(req.Notes),
	})
	if err != nil {
		return nil, err
	}

	if req.NewQuantity.IsZero() && before.IsPositive() {
		if err := ArchiveContent(tx, content, models.RemovalUsed, httpx.TrimPtr(req.Notes), actor.ID); err != nil {
			return nil, err
		}
	}
	if err := RefreshBinStatus(tx, content.BinID); err != nil {
		return nil, err
	}

	return &MovementResult{
		MovementID:     m.ID,
		BinContentID:   content.ID,
		Quantity:       delta,
		QuantityBefore: before,
		QuantityAfter:  req.NewQuantity,
		Message:        i18n.T("adjust_successful"),
	}, nil
}

// Scrap writes off the whole content.
func Scrap(tx *gorm.DB, req *ScrapRequest, actor Actor) (*MovementResult, error) {
	content, err := LockContent(tx, req.BinContentID)
	if err != nil {
		return nil, err
	}
	if content.ReservedQuantity.IsPositive() {
		return nil, fiber.NewError(fiber.StatusConflict, i18n.T("content_reserved"))
	}
	if !content.Quantity.IsPositive() {
		return nil, fiber.NewError(fiber.StatusConflict, i18n.T("insufficient_quantity"))
	}

	before := content.Quantity
	if err := tx.Model(content).Updates(map[string]any{
		"quantity": decimal.Zero,
		"status":   models.ContentScrapped,
	}).Error; err != nil {
		return nil, err
	}
	content.Quantity = decimal.Zero
	content.Status = models.ContentScrapped

	notes := httpx.TrimPtr(req.Notes)
	m, err := movement.Record(tx, movement.Entry{
		BinContentID:    content.ID,
		Type:            models.MovementScrap,
		Quantity:        before.Neg(),
		QuantityBefore:  before,
		QuantityAfter:   decimal.Zero,
		Reason:          strings.TrimSpace(req.Reason),
		UserID:          actor.ID,
		ReferenceNumber: httpx.TrimPtr(req.ReferenceNumber),
		Notes:           notes,
	})
	if err != nil {
		return nil, err
	}

	if err := ArchiveContent(tx, content, models.RemovalScrapped, notes, actor.ID); err != nil {
		return nil, err
	}
	if err := RefreshBinStatus(tx, content.BinID); err != nil {
		return nil, err
	}

	return &MovementResult{
		MovementID:     m.ID,
		BinContentID:   content.ID,
		Quantity:       before.Neg(),
		QuantityBefore: before,
		QuantityAfter:  decimal.Zero,
		Message:        i18n.T("scrap_successful"),
	}, nil
}
