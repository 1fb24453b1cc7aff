// Package reservation holds stock for customer orders in FEFO order.
package reservation

import (
	"errors"
	"strings"
	"time"

	"wms-backend/internal/clock"
	"wms-backend/internal/fefo"
	"wms-backend/internal/i18n"
	"wms-backend/internal/inventory"
	"wms-backend/internal/models"
	"wms-backend/internal/movement"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	DefaultHours = 24
	MaxHours     = 168
)

type CreateRequest struct {
	ProductID      uuid.UUID       `json:"product_id" validate:"required"`
	Quantity       decimal.Decimal `json:"quantity"`
	OrderReference string          `json:"order_reference" validate:"required,max=100"`
	CustomerName   *string         `json:"customer_name" validate:"omitempty,max=255"`
	ReservedHours  *int            `json:"reserved_hours" validate:"omitempty,min=1,max=168"`
	ReservedUntil  *time.Time      `json:"reserved_until"`
	Notes          *string         `json:"notes"`
}

type FulfillRequest struct {
	Notes *string `json:"notes"`
}

type CancelRequest struct {
	Reason string  `json:"reason" validate:"max=50"`
	Notes  *string `json:"notes"`
}

// reservedUntil resolves the hold deadline, defaulting to 24 hours from now.
func (r *CreateRequest) reservedUntil(now time.Time) (time.Time, error) {
	if r.ReservedUntil != nil {
		until := *r.ReservedUntil
		if !until.After(now) || until.After(now.Add(MaxHours*time.Hour)) {
			return time.Time{}, fiber.NewError(fiber.StatusUnprocessableEntity, i18n.T("validation_error")+" (reserved_until)")
		}
		return until, nil
	}
	hours := DefaultHours
	if r.ReservedHours != nil {
		hours = *r.ReservedHours
	}
	return now.Add(time.Duration(hours) * time.Hour), nil
}

func statusError(s models.ReservationStatus) error {
	switch s {
	case models.ReservationFulfilled:
		return fiber.NewError(fiber.StatusBadRequest, i18n.T("reservation_already_fulfilled"))
	case models.ReservationCancelled:
		return fiber.NewError(fiber.StatusBadRequest, i18n.T("reservation_already_cancelled"))
	case models.ReservationExpired:
		return fiber.NewError(fiber.StatusBadRequest, i18n.T("reservation_expired"))
	}
	return nil
}

// Create reserves up to the requested quantity from the oldest expiring
// stock. partial is true when less than requested could be held.
func Create(tx *gorm.DB, req *CreateRequest, userID uuid.UUID) (res *models.StockReservation, partial bool, err error) {
	if !req.Quantity.IsPositive() {
		return nil, false, fiber.NewError(fiber.StatusUnprocessableEntity, i18n.T("invalid_quantity"))
	}
	req.OrderReference = strings.TrimSpace(req.OrderReference)
	if req.OrderReference == "" {
		return nil, false, fiber.NewError(fiber.StatusUnprocessableEntity, i18n.T("field_required")+" (order_reference)")
	}
	until, err := req.reservedUntil(clock.Now())
	if err != nil {
		return nil, false, err
	}

	var product models.Product
	if err := tx.First(&product, "id = ?", req.ProductID).Error; err != nil || !product.IsActive {
		return nil, false, fiber.NewError(fiber.StatusNotFound, i18n.T("product_not_found"))
	}

	var contents []models.BinContent
	err = inventory.ForUpdate(tx).
		Where("product_id = ? AND status = ? AND quantity > reserved_quantity AND use_by_date >= ?",
			product.ID, models.ContentAvailable, clock.Today()).
		Find(&contents).Error
	if err != nil {
		return nil, false, err
	}
	fefo.Sort(contents)

	allocs, remaining := fefo.Allocate(contents, req.Quantity)
	if len(allocs) == 0 {
		return nil, false, fiber.NewError(fiber.StatusConflict, i18n.T("reservation_no_stock"))
	}

	total := req.Quantity.Sub(remaining)
	res = &models.StockReservation{
		ProductID:      product.ID,
		Product:        &product,
		OrderReference: req.OrderReference,
		CustomerName:   req.CustomerName,
		TotalQuantity:  total,
		ReservedUntil:  until,
		Status:         models.ReservationActive,
		Notes:          req.Notes,
		CreatedBy:      userID,
	}
	if err := tx.Omit("Product", "Items").Create(res).Error; err != nil {
		return nil, false, err
	}

	for _, a := range allocs {
		item := models.ReservationItem{
			ReservationID:    res.ID,
			BinContentID:     a.Content.ID,
			QuantityReserved: a.Quantity,
		}
		if err := tx.Omit("BinContent").Create(&item).Error; err != nil {
			return nil, false, err
		}
		reserved := a.Content.ReservedQuantity.Add(a.Quantity)
		if err := tx.Model(a.Content).Update("reserved_quantity", reserved).Error; err != nil {
			return nil, false, err
		}
		a.Content.ReservedQuantity = reserved
	}

	loaded, err := Load(tx, res.ID)
	if err != nil {
		return nil, false, err
	}
	return loaded, remaining.IsPositive(), nil
}

// Load fetches a reservation with product and items.
func Load(db *gorm.DB, id uuid.UUID) (*models.StockReservation, error) {
	var r models.StockReservation
	err := db.Preload("Product").Preload("Items.BinContent.Bin").First(&r, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fiber.NewError(fiber.StatusNotFound, i18n.T("reservation_not_found"))
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func lockReservation(tx *gorm.DB, id uuid.UUID) (*models.StockReservation, error) {
	var r models.StockReservation
	err := inventory.ForUpdate(tx).First(&r, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fiber.NewError(fiber.StatusNotFound, i18n.T("reservation_not_found"))
	}
	if err != nil {
		return nil, err
	}
	if err := tx.Where("reservation_id = ?", r.ID).Find(&r.Items).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// Fulfill issues every reserved item and closes the reservation.
func Fulfill(tx *gorm.DB, id uuid.UUID, notes *string, userID uuid.UUID) (*models.StockReservation, []uuid.UUID, error) {
	r, err := lockReservation(tx, id)
	if err != nil {
		return nil, nil, err
	}
	if err := statusError(r.Status); err != nil {
		return nil, nil, err
	}

	compliant := true
	movementIDs := make([]uuid.UUID, 0, len(r.Items))
	for _, item := range r.Items {
		content, err := inventory.LockContent(tx, item.BinContentID)
		if err != nil {
			return nil, nil, err
		}
		before := content.Quantity
		after := before.Sub(item.QuantityReserved)
		if after.IsNegative() {
			return nil, nil, fiber.NewError(fiber.StatusConflict, i18n.T("insufficient_quantity"))
		}
		reserved := content.ReservedQuantity.Sub(item.QuantityReserved)
		if reserved.IsNegative() {
			reserved = decimal.Zero
		}
		if err := tx.Model(content).Updates(map[string]any{
			"quantity":          after,
			"reserved_quantity": reserved,
		}).Error; err != nil {
			return nil, nil, err
		}
		content.Quantity, content.ReservedQuantity = after, reserved

		m, err := movement.Record(tx, movement.Entry{
			BinContentID:    content.ID,
			Type:            models.MovementIssue,
			Quantity:        item.QuantityReserved.Neg(),
			QuantityBefore:  before,
			QuantityAfter:   after,
			Reason:          "reservation_fulfillment",
			UserID:          userID,
			ReferenceNumber: &r.OrderReference,
			FefoCompliant:   &compliant,
			Notes:           notes,
		})
		if err != nil {
			return nil, nil, err
		}
		movementIDs = append(movementIDs, m.ID)

		if after.IsZero() {
			if err := inventory.ArchiveContent(tx, content, models.RemovalFulfilled, notes, userID); err != nil {
				return nil, nil, err
			}
		}
		if err := inventory.RefreshBinStatus(tx, content.BinID); err != nil {
			return nil, nil, err
		}
	}

	now := clock.Now()
	if err := tx.Model(r).Updates(map[string]any{
		"status":       models.ReservationFulfilled,
		"fulfilled_at": now,
	}).Error; err != nil {
		return nil, nil, err
	}
	r.Status, r.FulfilledAt = models.ReservationFulfilled, &now
	return r, movementIDs, nil
}

// release returns the reserved quantities of a reservation's items.
func release(tx *gorm.DB, r *models.StockReservation) error {
	for _, item := range r.Items {
		content, err := inventory.LockContent(tx, item.BinContentID)
		if err != nil {
			return err
		}
		reserved := content.ReservedQuantity.Sub(item.QuantityReserved)
		if reserved.IsNegative() {
			reserved = decimal.Zero
		}
		if err := tx.Model(content).Update("reserved_quantity", reserved).Error; err != nil {
			return err
		}
	}
	return nil
}

// Cancel releases the held stock.
func Cancel(tx *gorm.DB, id uuid.UUID, req *CancelRequest) (*models.StockReservation, error) {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, fiber.NewError(fiber.StatusUnprocessableEntity, i18n.T("reservation_reason_required"))
	}
	r, err := lockReservation(tx, id)
	if err != nil {
		return nil, err
	}
	if err := statusError(r.Status); err != nil {
		return nil, err
	}
	if err := release(tx, r); err != nil {
		return nil, err
	}

	now := clock.Now()
	if err := tx.Model(r).Updates(map[string]any{
		"status":              models.ReservationCancelled,
		"cancelled_at":        now,
		"cancellation_reason": reason,
	}).Error; err != nil {
		return nil, err
	}
	return r, nil
}

// CleanupExpired expires active reservations past their deadline and
// releases their stock. It returns how many were expired.
func CleanupExpired(tx *gorm.DB, now time.Time) (int, error) {
	var due []models.StockReservation
	err := inventory.ForUpdate(tx).
		Where("status = ? AND reserved_until < ?", models.ReservationActive, now).
		Find(&due).Error
	if err != nil {
		return 0, err
	}
	for i := range due {
		r := &due[i]
		if err := tx.Where("reservation_id = ?", r.ID).Find(&r.Items).Error; err != nil {
			return 0, err
		}
		if err := release(tx, r); err != nil {
			return 0, err
		}
		if err := tx.Model(r).Update("status", models.ReservationExpired).Error; err != nil {
			return 0, err
		}
	}
	return len(due), nil
}
