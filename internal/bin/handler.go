package bin

import (
	"strings"
	"time"

	"wms-backend/internal/audit"
	"wms-backend/internal/clock"
	"wms-backend/internal/database"
	"wms-backend/internal/expiry"
	"wms-backend/internal/httpx"
	"wms-backend/internal/i18n"
	"wms-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ContentSummary struct {
	ID              uuid.UUID               `json:"id"`
	ProductID       uuid.UUID               `json:"product_id"`
	ProductName     string                  `json:"product_name"`
	ProductSKU      *string                 `json:"product_sku"`
	SupplierID      *uuid.UUID              `json:"supplier_id"`
	SupplierName    *string                 `json:"supplier_name"`
	BatchNumber     string                  `json:"batch_number"`
	UseByDate       string                  `json:"use_by_date"`
	Quantity        decimal.Decimal         `json:"quantity"`
	ReservedQty     decimal.Decimal         `json:"reserved_quantity"`
	Unit            string                  `json:"unit"`
	Status          models.BinContentStatus `json:"status"`
	DaysUntilExpiry *int                    `json:"days_until_expiry,omitempty"`
	Urgency         *expiry.Urgency         `json:"urgency,omitempty"`
}

type BinResponse struct {
	ID            uuid.UUID            `json:"id"`
	WarehouseID   uuid.UUID            `json:"warehouse_id"`
	Code          string               `json:"code"`
	StructureData models.StructureData `json:"structure_data"`
	Status        models.BinStatus     `json:"status"`
	MaxWeight     decimal.NullDecimal  `json:"max_weight"`
	MaxHeight     decimal.NullDecimal  `json:"max_height"`
	Accessibility *string              `json:"accessibility"`
	Notes         *string              `json:"notes"`
	IsActive      bool                 `json:"is_active"`
	IsArchived    bool                 `json:"is_archived"`
	ArchivedAt    *string              `json:"archived_at"`
	ArchiveReason *string              `json:"archive_reason"`
	CreatedAt     string               `json:"created_at"`
	UpdatedAt     string               `json:"updated_at"`
	Contents      []ContentSummary     `json:"contents,omitempty"`
}

type CreateBinRequest struct {
	WarehouseID   uuid.UUID            `json:"warehouse_id" validate:"required"`
	Code          string               `json:"code" validate:"required,max=100"`
	StructureData models.StructureData `json:"structure_data"`
	Status        models.BinStatus     `json:"status"`
	MaxWeight     *float64             `json:"max_weight" validate:"omitempty,gt=0"`
	MaxHeight     *float64             `json:"max_height" validate:"omitempty,gt=0"`
	Accessibility *string              `json:"accessibility" validate:"omitempty,max=50"`
	Notes         *string              `json:"notes"`
	IsActive      *bool                `json:"is_active"`
}

type UpdateBinRequest struct {
	Code          *string               `json:"code" validate:"omitempty,max=100"`
	StructureData *models.StructureData `json:"structure_data"`
	Status        *models.BinStatus     `json:"status"`
	MaxWeight     *float64              `json:"max_weight" validate:"omitempty,gt=0"`
	MaxHeight     *float64              `json:"max_height" validate:"omitempty,gt=0"`
	Accessibility *string               `json:"accessibility" validate:"omitempty,max=50"`
	Notes         *string               `json:"notes"`
	IsActive      *bool                 `json:"is_active"`
}

func ToResponse(b *models.Bin) BinResponse {
	return BinResponse{
		ID:            b.ID,
		WarehouseID:   b.WarehouseID,
		Code:          b.Code,
		StructureData: b.StructureData,
		Status:        b.Status,
		MaxWeight:     b.MaxWeight,
		MaxHeight:     b.MaxHeight,
		Accessibility: b.Accessibility,
		Notes:         b.Notes,
		IsActive:      b.IsActive,
		IsArchived:    b.IsArchived,
		ArchivedAt:    clock.FormatTimePtr(b.ArchivedAt),
		ArchiveReason: b.ArchiveReason,
		CreatedAt:     b.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     b.UpdatedAt.Format(time.RFC3339),
	}
}

func toContentSummary(c *models.BinContent, withExpiry bool) ContentSummary {
	s := ContentSummary{
		ID:          c.ID,
		ProductID:   c.ProductID,
		SupplierID:  c.SupplierID,
		BatchNumber: c.BatchNumber,
		UseByDate:   clock.FormatDate(c.UseByDate),
		Quantity:    c.Quantity,
		ReservedQty: c.ReservedQuantity,
		Unit:        c.Unit,
		Status:      c.Status,
	}
	if c.Product != nil {
		s.ProductName = c.Product.Name
		s.ProductSKU = c.Product.SKU
	}
	if c.Supplier != nil {
		name := c.Supplier.CompanyName
		s.SupplierName = &name
	}
	if withExpiry {
		info := expiry.Of(c.UseByDate)
		s.DaysUntilExpiry = &info.DaysUntilExpiry
		s.Urgency = &info.Urgency
	}
	return s
}

func nullDecimal(f *float64) decimal.NullDecimal {
	if f == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: decimal.NewFromFloat(*f), Valid: true}
}

// checkStructure requires a value for every required template field.
func checkStructure(w *models.Warehouse, data models.StructureData) error {
	for _, f := range w.BinStructureTemplate.Fields {
		if f.Required && strings.TrimSpace(data[f.Name]) == "" {
			return fiber.NewError(fiber.StatusUnprocessableEntity, i18n.T("bin_invalid_structure"))
		}
	}
	return nil
}

func codeTaken(db *gorm.DB, code string, exclude uuid.UUID) (bool, error) {
	var count int64
	q := db.Model(&models.Bin{}).Where("code = ?", code)
	if exclude != uuid.Nil {
		q = q.Where("id <> ?", exclude)
	}
	err := q.Count(&count).Error
	return count > 0, err
}

// HasStock reports whether any content of the bin still holds quantity.
func HasStock(db *gorm.DB, binID uuid.UUID) (bool, error) {
	var count int64
	err := db.Model(&models.BinContent{}).Where("bin_id = ? AND quantity > 0", binID).Count(&count).Error
	return count > 0, err
}

func loadBin(c *fiber.Ctx) (*models.Bin, error) {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return nil, err
	}
	var b models.Bin
	if err := database.DB.First(&b, "id = ?", id).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, i18n.T("bin_not_found"))
	}
	return &b, nil
}

// GET /api/v1/bins?warehouse_id=&status=&search=&is_active=&include_content=&include_expiry_info=&include_archived=
func ListBinsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := httpx.Pagination(c, 50, 200)
		if err != nil {
			return err
		}
		warehouseID, err := httpx.QueryUUID(c, "warehouse_id")
		if err != nil {
			return err
		}
		isActive, err := httpx.QueryBool(c, "is_active")
		if err != nil {
			return err
		}
		includeContent := c.QueryBool("include_content")
		includeExpiry := c.QueryBool("include_expiry_info")

		dbq := database.DB.Model(&models.Bin{})
		if !c.QueryBool("include_archived") {
			dbq = dbq.Where("is_archived = ?", false)
		}
		if warehouseID != nil {
			dbq = dbq.Where("warehouse_id = ?", *warehouseID)
		}
		if status := c.Query("status"); status != "" {
			if !models.BinStatus(status).Valid() {
				return fiber.NewError(fiber.StatusUnprocessableEntity, i18n.T("bin_invalid_status"))
			}
			dbq = dbq.Where("status = ?", status)
		}
		if isActive != nil {
			dbq = dbq.Where("is_active = ?", *isActive)
		}
		if s := strings.TrimSpace(c.Query("search")); s != "" {
			dbq = dbq.Where("LOWER(code) LIKE ?", database.ContainsPattern(s))
		}

		var total int64
		if err := dbq.Count(&total).Error; err != nil {
			return err
		}

		if includeContent || includeExpiry {
			dbq = dbq.Preload("Contents", "quantity > 0").
				Preload("Contents.Product").
				Preload("Contents.Supplier")
		}

		var bins []models.Bin
		if err := dbq.Order("code asc").Offset(p.Offset()).Limit(p.PageSize).Find(&bins).Error; err != nil {
			return err
		}

		items := make([]BinResponse, 0, len(bins))
		for i := range bins {
			r := ToResponse(&bins[i])
			if includeContent || includeExpiry {
				r.Contents = make([]ContentSummary, 0, len(bins[i].Contents))
				for j := range bins[i].Contents {
					r.Contents = append(r.Contents, toContentSummary(&bins[i].Contents[j], includeExpiry))
				}
			}
			items = append(items, r)
		}
		return c.JSON(httpx.NewPage(items, total, p))
	}
}

// GET /api/v1/bins/:id
func GetBinHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamUUID(c, "id")
		if err != nil {
			return err
		}
		var b models.Bin
		err = database.DB.
			Preload("Contents", "quantity > 0").
			Preload("Contents.Product").
			Preload("Contents.Supplier").
			First(&b, "id = ?", id).Error
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, i18n.T("bin_not_found"))
		}

		r := ToResponse(&b)
		r.Contents = make([]ContentSummary, 0, len(b.Contents))
		for i := range b.Contents {
			r.Contents = append(r.Contents, toContentSummary(&b.Contents[i], true))
		}
		return c.JSON(r)
	}
}

// POST /api/v1/bins
func CreateBinHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateBinRequest
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}

		var w models.Warehouse
		if err := database.DB.First(&w, "id = ?", body.WarehouseID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, i18n.T("warehouse_not_found"))
		}

		code := strings.TrimSpace(body.Code)
		if code == "" {
			return fiber.NewError(fiber.StatusUnprocessableEntity, i18n.T("field_required")+" (code)")
		}
		if err := checkStructure(&w, body.StructureData); err != nil {
			return err
		}
		status := body.Status
		if status == "" {
			status = models.BinStatusEmpty
		}
		if !status.Valid() {
			return fiber.NewError(fiber.StatusUnprocessableEntity, i18n.T("bin_invalid_status"))
		}
		if taken, err := codeTaken(database.DB, code, uuid.Nil); err != nil {
			return err
		} else if taken {
			return fiber.NewError(fiber.StatusConflict, i18n.T("bin_code_exists"))
		}

		b := models.Bin{
			WarehouseID:   w.ID,
			Code:          code,
			StructureData: body.StructureData,
			Status:        status,
			MaxWeight:     nullDecimal(body.MaxWeight),
			MaxHeight:     nullDecimal(body.MaxHeight),
			Accessibility: httpx.TrimPtr(body.Accessibility),
			Notes:         httpx.TrimPtr(body.Notes),
			IsActive:      true,
		}

		err := database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&b).Error; err != nil {
				return err
			}
			if body.IsActive != nil && !*body.IsActive {
				b.IsActive = false
				if err := tx.Model(&b).Update("is_active", false).Error; err != nil {
					return err
				}
			}
			audit.Record(c, tx, audit.EntityBin, b.ID, models.AuditActionCreate, "Tárolóhely létrehozva: "+b.Code, nil, ToResponse(&b))
			return nil
		})
		if err != nil {
			return err
		}

		return c.Status(fiber.StatusCreated).JSON(ToResponse(&b))
	}
}

// PUT /api/v1/bins/:id
func UpdateBinHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		b, err := loadBin(c)
		if err != nil {
			return err
		}
		before := ToResponse(b)

		var body UpdateBinRequest
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}

		if body.Code != nil {
			code := strings.TrimSpace(*body.Code)
			if code == "" {
				return fiber.NewError(fiber.StatusUnprocessableEntity, i18n.T("field_required")+" (code)")
			}
			if taken, err := codeTaken(database.DB, code, b.ID); err != nil {
				return err
			} else if taken {
				return fiber.NewError(fiber.StatusConflict, i18n.T("bin_code_exists"))
			}
			b.Code = code
		}
		if body.StructureData != nil {
			var w models.Warehouse
			if err := database.DB.First(&w, "id = ?", b.WarehouseID).Error; err != nil {
				return fiber.NewError(fiber.StatusNotFound, i18n.T("warehouse_not_found"))
			}
			if err := checkStructure(&w, *body.StructureData); err != nil {
				return err
			}
			b.StructureData = *body.StructureData
		}
		if body.Status != nil {
			if !body.Status.Valid() {
				return fiber.NewError(fiber.StatusUnprocessableEntity, i18n.T("bin_invalid_status"))
			}
			b.Status = *body.Status
		}
		if body.MaxWeight != nil {
			b.MaxWeight = nullDecimal(body.MaxWeight)
		}
		if body.MaxHeight != nil {
			b.MaxHeight = nullDecimal(body.MaxHeight)
		}
		if body.Accessibility != nil {
			b.Accessibility = httpx.TrimPtr(body.Accessibility)
		}
		if body.Notes != nil {
			b.Notes = httpx.TrimPtr(body.Notes)
		}
		if body.IsActive != nil {
			b.IsActive = *body.IsActive
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Omit("Contents", "Warehouse").Save(b).Error; err != nil {
				return err
			}
			audit.Record(c, tx, audit.EntityBin, b.ID, models.AuditActionUpdate, "Tárolóhely módosítva: "+b.Code, before, ToResponse(b))
			return nil
		})
		if err != nil {
			return err
		}

		return c.JSON(ToResponse(b))
	}
}

// deleteBin removes an empty bin. Bins whose contents have a movement
// ledger are kept and must be archived instead.
func deleteBin(tx *gorm.DB, b *models.Bin) error {
	if stocked, err := HasStock(tx, b.ID); err != nil {
		return err
	} else if stocked {
		return fiber.NewError(fiber.StatusConflict, i18n.T("bin_not_empty"))
	}
	var history int64
	if err := tx.Model(&models.BinContent{}).Where("bin_id = ?", b.ID).Count(&history).Error; err != nil {
		return err
	}
	if history > 0 {
		return fiber.NewError(fiber.StatusConflict, i18n.T("bin_has_history"))
	}
	return tx.Delete(&models.Bin{}, "id = ?", b.ID).Error
}

// DELETE /api/v1/bins/:id
func DeleteBinHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		b, err := loadBin(c)
		if err != nil {
			return err
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := deleteBin(tx, b); err != nil {
				return err
			}
			audit.Record(c, tx, audit.EntityBin, b.ID, models.AuditActionDelete, "Tárolóhely törölve: "+b.Code, ToResponse(b), nil)
			return nil
		})
		if err != nil {
			return err
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}
