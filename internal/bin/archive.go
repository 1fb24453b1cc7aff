package bin

import (
	"time"

	"wms-backend/internal/audit"
	"wms-backend/internal/auth"
	"wms-backend/internal/clock"
	"wms-backend/internal/database"
	"wms-backend/internal/httpx"
	"wms-backend/internal/i18n"
	"wms-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ArchiveRequest struct {
	Reason *string `json:"reason" validate:"omitempty,max=1000"`
}

type CapacityResponse struct {
	BinID             uuid.UUID        `json:"bin_id"`
	MaxWeightKg       *decimal.Decimal `json:"max_weight_kg"`
	MaxHeightCm       *decimal.Decimal `json:"max_height_cm"`
	CurrentWeightKg   decimal.Decimal  `json:"current_weight_kg"`
	AvailableWeightKg *decimal.Decimal `json:"available_weight_kg"`
	HasCapacityLimits bool             `json:"has_capacity_limits"`
}

type HistoryResponse struct {
	ID             uuid.UUID           `json:"id"`
	BinID          uuid.UUID           `json:"bin_id"`
	BinCode        string              `json:"bin_code"`
	ProductID      *uuid.UUID          `json:"product_id"`
	ProductName    *string             `json:"product_name"`
	SupplierID     *uuid.UUID          `json:"supplier_id"`
	BatchNumber    string              `json:"batch_number"`
	PalletCount    int                 `json:"pallet_count"`
	NetWeight      decimal.Decimal     `json:"net_weight"`
	GrossWeight    decimal.NullDecimal `json:"gross_weight"`
	DeliveryDate   string              `json:"delivery_date"`
	BestBeforeDate *string             `json:"best_before_date"`
	FreezeDate     *string             `json:"freeze_date"`
	UseByDate      string              `json:"use_by_date"`
	CMRNumber      *string             `json:"cmr_number"`
	RemovalReason  string              `json:"removal_reason"`
	RemovalNotes   *string             `json:"removal_notes"`
	RemovedBy      *uuid.UUID          `json:"removed_by"`
	ReceivedAt     string              `json:"received_at"`
	RemovedAt      string              `json:"removed_at"`
}

// POST /api/v1/bins/:id/archive
func ArchiveBinHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		b, err := loadBin(c)
		if err != nil {
			return err
		}
		var body ArchiveRequest
		if len(c.Body()) > 0 {
			if err := httpx.ParseBody(c, &body); err != nil {
				return err
			}
		}
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			return archive(c, tx, b, userID, httpx.TrimPtr(body.Reason))
		})
		if err != nil {
			return err
		}
		return c.JSON(ToResponse(b))
	}
}

// POST /api/v1/bins/:id/restore
func RestoreBinHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		b, err := loadBin(c)
		if err != nil {
			return err
		}
		if !b.IsArchived {
			return fiber.NewError(fiber.StatusConflict, i18n.T("bin_not_archived"))
		}

		before := ToResponse(b)
		b.IsArchived = false
		b.ArchivedAt = nil
		b.ArchivedBy = nil
		b.ArchiveReason = nil
		b.IsActive = true
		b.Status = models.BinStatusEmpty

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Omit("Contents", "Warehouse").Save(b).Error; err != nil {
				return err
			}
			audit.Record(c, tx, audit.EntityBin, b.ID, models.AuditActionUpdate, "Tárolóhely visszaállítva: "+b.Code, before, ToResponse(b))
			return nil
		})
		if err != nil {
			return err
		}
		return c.JSON(ToResponse(b))
	}
}

// Capacity sums the weight of stock held in the bin against its limits.
func Capacity(db *gorm.DB, b *models.Bin) (CapacityResponse, error) {
	var weights []decimal.Decimal
	if err := db.Model(&models.BinContent{}).
		Where("bin_id = ? AND quantity > 0", b.ID).
		Pluck("weight_kg", &weights).Error; err != nil {
		return CapacityResponse{}, err
	}
	current := decimal.Zero
	for _, w := range weights {
		current = current.Add(w)
	}

	res := CapacityResponse{BinID: b.ID, CurrentWeightKg: current}
	if b.MaxWeight.Valid {
		limit := b.MaxWeight.Decimal
		avail := limit.Sub(current)
		res.MaxWeightKg = &limit
		res.AvailableWeightKg = &avail
	}
	if b.MaxHeight.Valid {
		h := b.MaxHeight.Decimal
		res.MaxHeightCm = &h
	}
	res.HasCapacityLimits = b.MaxWeight.Valid || b.MaxHeight.Valid
	return res, nil
}

// GET /api/v1/bins/:id/capacity
func CapacityHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		b, err := loadBin(c)
		if err != nil {
			return err
		}
		res, err := Capacity(database.DB, b)
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}

// GET /api/v1/bins/:id/history
func HistoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		b, err := loadBin(c)
		if err != nil {
			return err
		}
		p, err := httpx.Pagination(c, 50, 200)
		if err != nil {
			return err
		}

		dbq := database.DB.Model(&models.BinHistory{}).Where("bin_id = ?", b.ID)
		var total int64
		if err := dbq.Count(&total).Error; err != nil {
			return err
		}

		var rows []models.BinHistory
		if err := dbq.Preload("Product").Order("removed_at DESC").Offset(p.Offset()).Limit(p.PageSize).Find(&rows).Error; err != nil {
			return err
		}

		items := make([]HistoryResponse, 0, len(rows))
		for i := range rows {
			h := &rows[i]
			r := HistoryResponse{
				ID:             h.ID,
				BinID:          h.BinID,
				BinCode:        h.BinCode,
				ProductID:      h.ProductID,
				SupplierID:     h.SupplierID,
				BatchNumber:    h.BatchNumber,
				PalletCount:    h.PalletCount,
				NetWeight:      h.NetWeight,
				GrossWeight:    h.GrossWeight,
				DeliveryDate:   clock.FormatDate(h.DeliveryDate),
				BestBeforeDate: clock.FormatDatePtr(h.BestBeforeDate),
				FreezeDate:     clock.FormatDatePtr(h.FreezeDate),
				UseByDate:      clock.FormatDate(h.UseByDate),
				CMRNumber:      h.CMRNumber,
				RemovalReason:  h.RemovalReason,
				RemovalNotes:   h.RemovalNotes,
				RemovedBy:      h.RemovedBy,
				ReceivedAt:     h.ReceivedAt.Format(time.RFC3339),
				RemovedAt:      h.RemovedAt.Format(time.RFC3339),
			}
			if h.Product != nil {
				name := h.Product.Name
				r.ProductName = &name
			}
			items = append(items, r)
		}
		return c.JSON(httpx.NewPage(items, total, p))
	}
}
