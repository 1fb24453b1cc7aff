package warehouse

import (
	"math"
	"strings"
	"time"

	"wms-backend/internal/audit"
	"wms-backend/internal/database"
	"wms-backend/internal/httpx"
	"wms-backend/internal/i18n"
	"wms-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WarehouseResponse struct {
	ID                   uuid.UUID          `json:"id"`
	Name                 string             `json:"name"`
	Location             *string            `json:"location"`
	Description          *string            `json:"description"`
	BinStructureTemplate models.BinTemplate `json:"bin_structure_template"`
	IsActive             bool               `json:"is_active"`
	CreatedAt            string             `json:"created_at"`
	UpdatedAt            string             `json:"updated_at"`
}

type CreateWarehouseRequest struct {
	Name                 string          `json:"name" validate:"required,max=255"`
	Location             *string         `json:"location" validate:"omitempty,max=500"`
	Description          *string         `json:"description"`
	BinStructureTemplate TemplateRequest `json:"bin_structure_template"`
	IsActive             *bool           `json:"is_active"`
}

type UpdateWarehouseRequest struct {
	Name                 *string          `json:"name" validate:"omitempty,max=255"`
	Location             *string          `json:"location" validate:"omitempty,max=500"`
	Description          *string          `json:"description"`
	BinStructureTemplate *TemplateRequest `json:"bin_structure_template"`
	IsActive             *bool            `json:"is_active"`
}

type StatsResponse struct {
	WarehouseID        uuid.UUID `json:"warehouse_id"`
	WarehouseName      string    `json:"warehouse_name"`
	TotalBins          int64     `json:"total_bins"`
	OccupiedBins       int64     `json:"occupied_bins"`
	EmptyBins          int64     `json:"empty_bins"`
	ReservedBins       int64     `json:"reserved_bins"`
	InactiveBins       int64     `json:"inactive_bins"`
	UtilizationPercent float64   `json:"utilization_percent"`
}

func ToResponse(w *models.Warehouse) WarehouseResponse {
	return WarehouseResponse{
		ID:                   w.ID,
		Name:                 w.Name,
		Location:             w.Location,
		Description:          w.Description,
		BinStructureTemplate: w.BinStructureTemplate,
		IsActive:             w.IsActive,
		CreatedAt:            w.CreatedAt.Format(time.RFC3339),
		UpdatedAt:            w.UpdatedAt.Format(time.RFC3339),
	}
}

func validName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if len([]rune(name)) < 2 {
		return "", fiber.NewError(fiber.StatusUnprocessableEntity, i18n.T("name_min_length"))
	}
	return name, nil
}

func nameTaken(name string, exclude uuid.UUID) (bool, error) {
	var count int64
	q := database.DB.Model(&models.Warehouse{}).Where("name = ?", name)
	if exclude != uuid.Nil {
		q = q.Where("id <> ?", exclude)
	}
	err := q.Count(&count).Error
	return count > 0, err
}

// Percent returns part/total*100 rounded to two decimals, 0 for an empty total.
func Percent(part, total int64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*10000) / 100
}

// GET /api/v1/warehouses?is_active=&search=
func ListWarehousesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := httpx.Pagination(c, 50, 200)
		if err != nil {
			return err
		}
		isActive, err := httpx.QueryBool(c, "is_active")
		if err != nil {
			return err
		}

		dbq := database.DB.Model(&models.Warehouse{})
		if isActive != nil {
			dbq = dbq.Where("is_active = ?", *isActive)
		}
		if s := strings.TrimSpace(c.Query("search")); s != "" {
			pattern := database.ContainsPattern(s)
			dbq = dbq.Where("LOWER(name) LIKE ? OR LOWER(location) LIKE ?", pattern, pattern)
		}

		var total int64
		if err := dbq.Count(&total).Error; err != nil {
			return err
		}

		var warehouses []models.Warehouse
		if err := dbq.Order("name asc").Offset(p.Offset()).Limit(p.PageSize).Find(&warehouses).Error; err != nil {
			return err
		}

		items := make([]WarehouseResponse, 0, len(warehouses))
		for i := range warehouses {
			items = append(items, ToResponse(&warehouses[i]))
		}
		return c.JSON(httpx.NewPage(items, total, p))
	}
}

// GET /api/v1/warehouses/:id
func GetWarehouseHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamUUID(c, "id")
		if err != nil {
			return err
		}
		var w models.Warehouse
		if err := database.DB.First(&w, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, i18n.T("warehouse_not_found"))
		}
		return c.JSON(ToResponse(&w))
	}
}

// POST /api/v1/warehouses
func CreateWarehouseHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateWarehouseRequest
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}

		name, err := validName(body.Name)
		if err != nil {
			return err
		}
		tmpl, err := body.BinStructureTemplate.Build()
		if err != nil {
			return err
		}
		if taken, err := nameTaken(name, uuid.Nil); err != nil {
			return err
		} else if taken {
			return fiber.NewError(fiber.StatusConflict, i18n.T("warehouse_name_exists"))
		}

		w := models.Warehouse{
			Name:                 name,
			Location:             httpx.TrimPtr(body.Location),
			Description:          httpx.TrimPtr(body.Description),
			BinStructureTemplate: tmpl,
			IsActive:             true,
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&w).Error; err != nil {
				return err
			}
			if body.IsActive != nil && !*body.IsActive {
				w.IsActive = false
				if err := tx.Model(&w).Update("is_active", false).Error; err != nil {
					return err
				}
			}
			audit.Record(c, tx, audit.EntityWarehouse, w.ID, models.AuditActionCreate, "Raktár létrehozva: "+w.Name, nil, w)
			return nil
		})
		if err != nil {
			return err
		}

		return c.Status(fiber.StatusCreated).JSON(ToResponse(&w))
	}
}

// PUT /api/v1/warehouses/:id
func UpdateWarehouseHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamUUID(c, "id")
		if err != nil {
			return err
		}

		var w models.Warehouse
		if err := database.DB.First(&w, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, i18n.T("warehouse_not_found"))
		}
		before := w

		var body UpdateWarehouseRequest
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}

		if body.Name != nil {
			name, err := validName(*body.Name)
			if err != nil {
				return err
			}
			if taken, err := nameTaken(name, w.ID); err != nil {
				return err
			} else if taken {
				return fiber.NewError(fiber.StatusConflict, i18n.T("warehouse_name_exists"))
			}
			w.Name = name
		}
		if body.Location != nil {
			w.Location = httpx.TrimPtr(body.Location)
		}
		if body.Description != nil {
			w.Description = httpx.TrimPtr(body.Description)
		}
		if body.BinStructureTemplate != nil {
			if err := httpx.Validate(body.BinStructureTemplate); err != nil {
				return err
			}
			tmpl, err := body.BinStructureTemplate.Build()
			if err != nil {
				return err
			}
			w.BinStructureTemplate = tmpl
		}
		if body.IsActive != nil {
			w.IsActive = *body.IsActive
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Omit("Bins").Save(&w).Error; err != nil {
				return err
			}
			audit.Record(c, tx, audit.EntityWarehouse, w.ID, models.AuditActionUpdate, "Raktár módosítva: "+w.Name, before, w)
			return nil
		})
		if err != nil {
			return err
		}

		return c.JSON(ToResponse(&w))
	}
}

// DELETE /api/v1/warehouses/:id
func DeleteWarehouseHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamUUID(c, "id")
		if err != nil {
			return err
		}

		var w models.Warehouse
		if err := database.DB.First(&w, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, i18n.T("warehouse_not_found"))
		}

		var bins int64
		if err := database.DB.Model(&models.Bin{}).Where("warehouse_id = ?", w.ID).Count(&bins).Error; err != nil {
			return err
		}
		if bins > 0 {
			return fiber.NewError(fiber.StatusConflict, i18n.T("warehouse_has_bins"))
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Delete(&models.Warehouse{}, "id = ?", w.ID).Error; err != nil {
				return err
			}
			audit.Record(c, tx, audit.EntityWarehouse, w.ID, models.AuditActionDelete, "Raktár törölve: "+w.Name, w, nil)
			return nil
		})
		if err != nil {
			return err
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}

// Stats counts the non-archived bins of a warehouse by status.
func Stats(db *gorm.DB, w *models.Warehouse) (StatsResponse, error) {
	type row struct {
		Status models.BinStatus
		Count  int64
	}
	var rows []row
	err := db.Model(&models.Bin{}).
		Select("status, COUNT(*) AS count").
		Where("warehouse_id = ? AND is_archived = ?", w.ID, false).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return StatsResponse{}, err
	}

	res := StatsResponse{WarehouseID: w.ID, WarehouseName: w.Name}
	for _, r := range rows {
		res.TotalBins += r.Count
		switch r.Status {
		case models.BinStatusOccupied:
			res.OccupiedBins += r.Count
		case models.BinStatusEmpty:
			res.EmptyBins += r.Count
		case models.BinStatusReserved:
			res.ReservedBins += r.Count
		case models.BinStatusInactive:
			res.InactiveBins += r.Count
		}
	}
	res.UtilizationPercent = Percent(res.OccupiedBins, res.TotalBins)
	return res, nil
}

// GET /api/v1/warehouses/:id/stats
func WarehouseStatsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamUUID(c, "id")
		if err != nil {
			return err
		}
		var w models.Warehouse
		if err := database.DB.First(&w, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, i18n.T("warehouse_not_found"))
		}
		res, err := Stats(database.DB, &w)
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}
