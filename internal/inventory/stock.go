package inventory

import (
	"errors"
	"fmt"

	"wms-backend/internal/clock"
	"wms-backend/internal/fefo"
	"wms-backend/internal/i18n"
	"wms-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FefoViolationError is returned when an issue skips older stock.
type FefoViolationError struct {
	OldestBinCode   string
	OldestUseByDate string
}

func (e *FefoViolationError) Error() string {
	return i18n.Tf("fefo_violation", "bin", e.OldestBinCode, "date", e.OldestUseByDate)
}

// ForUpdate locks the selected rows until the transaction ends.
func ForUpdate(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

func LockContent(tx *gorm.DB, id uuid.UUID) (*models.BinContent, error) {
	var c models.BinContent
	if err := ForUpdate(tx).First(&c, "id = ?", id).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, i18n.T("bin_content_not_found"))
	}
	return &c, nil
}

func LockBin(tx *gorm.DB, id uuid.UUID) (*models.Bin, error) {
	var b models.Bin
	if err := ForUpdate(tx).First(&b, "id = ?", id).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, i18n.T("bin_not_found"))
	}
	return &b, nil
}

// HoldsOtherProduct reports whether the bin has stock of a product other than productID.
func HoldsOtherProduct(tx *gorm.DB, binID, productID uuid.UUID) (bool, error) {
	var count int64
	err := tx.Model(&models.BinContent{}).
		Where("bin_id = ? AND product_id <> ? AND quantity > 0", binID, productID).
		Count(&count).Error
	return count > 0, err
}

// CheckTargetBin validates a bin that is about to receive stock of productID.
func CheckTargetBin(tx *gorm.DB, b *models.Bin, productID uuid.UUID) error {
	if b.IsArchived {
		return fiber.NewError(fiber.StatusBadRequest, i18n.T("bin_archived"))
	}
	if !b.IsActive || b.Status == models.BinStatusInactive {
		return fiber.NewError(fiber.StatusBadRequest, i18n.T("bin_inactive"))
	}
	other, err := HoldsOtherProduct(tx, b.ID, productID)
	if err != nil {
		return err
	}
	if other {
		return fiber.NewError(fiber.StatusConflict, i18n.T("bin_already_occupied"))
	}
	return nil
}

// RefreshBinStatus sets an active bin to occupied or empty from its stock.
func RefreshBinStatus(tx *gorm.DB, binID uuid.UUID) error {
	var b models.Bin
	if err := tx.First(&b, "id = ?", binID).Error; err != nil {
		return fmt.Errorf("load bin %s: %w", binID, err)
	}
	if b.IsArchived || b.Status == models.BinStatusInactive {
		return nil
	}

	var stocked int64
	if err := tx.Model(&models.BinContent{}).
		Where("bin_id = ? AND quantity > 0", binID).
		Count(&stocked).Error; err != nil {
		return err
	}

	status := models.BinStatusEmpty
	if stocked > 0 {
		status = models.BinStatusOccupied
	}
	if b.Status == status {
		return nil
	}
	return tx.Model(&models.Bin{}).Where("id = ?", binID).Update("status", status).Error
}

// ArchiveContent copies a depleted content into the bin's history.
func ArchiveContent(tx *gorm.DB, c *models.BinContent, reason string, notes *string, userID uuid.UUID) error {
	var b models.Bin
	if err := tx.First(&b, "id = ?", c.BinID).Error; err != nil {
		return fmt.Errorf("load bin %s: %w", c.BinID, err)
	}
	productID := c.ProductID
	h := models.BinHistory{
		BinID:          b.ID,
		BinCode:        b.Code,
		WarehouseID:    b.WarehouseID,
		ProductID:      &productID,
		SupplierID:     c.SupplierID,
		BatchNumber:    c.BatchNumber,
		PalletCount:    c.PalletCount,
		NetWeight:      c.WeightKg,
		GrossWeight:    c.GrossWeightKg,
		DeliveryDate:   c.DeliveryDate,
		BestBeforeDate: c.BestBeforeDate,
		FreezeDate:     c.FreezeDate,
		UseByDate:      c.UseByDate,
		CMRNumber:      c.CMRNumber,
		RemovalReason:  reason,
		RemovalNotes:   notes,
		RemovedBy:      &userID,
		ReceivedAt:     c.ReceivedDate,
		RemovedAt:      clock.Now(),
	}
	if err := tx.Create(&h).Error; err != nil {
		return fmt.Errorf("archive bin content %s: %w", c.ID, err)
	}
	return nil
}

// Candidates loads the FEFO-eligible contents of a product, sorted, with bins.
func Candidates(tx *gorm.DB, productID uuid.UUID) ([]models.BinContent, error) {
	var list []models.BinContent
	err := tx.Preload("Bin").
		Where("product_id = ? AND status = ? AND quantity > 0 AND use_by_date >= ?",
			productID, models.ContentAvailable, clock.Today()).
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	fefo.Sort(list)
	return list, nil
}

// FindOrCreateContent returns the content of the same product and batch in
// the target bin, creating an empty copy of src there when none exists.
func FindOrCreateContent(tx *gorm.DB, src *models.BinContent, targetBinID uuid.UUID) (*models.BinContent, error) {
	var existing models.BinContent
	err := ForUpdate(tx).
		Where("bin_id = ? AND product_id = ? AND batch_number = ?", targetBinID, src.ProductID, src.BatchNumber).
		First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	c := models.BinContent{
		BinID:          targetBinID,
		ProductID:      src.ProductID,
		SupplierID:     src.SupplierID,
		BatchNumber:    src.BatchNumber,
		UseByDate:      src.UseByDate,
		BestBeforeDate: src.BestBeforeDate,
		FreezeDate:     src.FreezeDate,
		DeliveryDate:   src.DeliveryDate,
		Unit:           src.Unit,
		PalletCount:    src.PalletCount,
		PalletHeightCm: src.PalletHeightCm,
		CMRNumber:      src.CMRNumber,
		ReceivedDate:   src.ReceivedDate,
		Status:         models.ContentAvailable,
		Notes:          src.Notes,
	}
	if err := tx.Create(&c).Error; err != nil {
		return nil, fmt.Errorf("create target content: %w", err)
	}
	return &c, nil
}
