package product

import (
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

type ProductResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	SKU         *string   `json:"sku"`
	Category    *string   `json:"category"`
	DefaultUnit string    `json:"default_unit"`
	Description *string   `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   string    `json:"created_at"`
	UpdatedAt   string    `json:"updated_at"`
}

type CreateProductRequest struct {
	Name        string  `json:"name" validate:"required,max=255"`
	SKU         *string `json:"sku" validate:"omitempty,max=100"`
	Category    *string `json:"category" validate:"omitempty,max=100"`
	DefaultUnit string  `json:"default_unit" validate:"omitempty,max=50"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

type UpdateProductRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=255"`
	SKU         *string `json:"sku" validate:"omitempty,max=100"`
	Category    *string `json:"category" validate:"omitempty,max=100"`
	DefaultUnit *string `json:"default_unit" validate:"omitempty,max=50"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

func ToResponse(p *models.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		SKU:         p.SKU,
		Category:    p.Category,
		DefaultUnit: p.DefaultUnit,
		Description: p.Description,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   p.UpdatedAt.Format(time.RFC3339),
	}
}

func validName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if len([]rune(name)) < 2 {
		return "", fiber.NewError(fiber.StatusUnprocessableEntity, i18n.T("name_min_length"))
	}
	return name, nil
}

// normalizeSKU trims the SKU; blank means none. Non-blank SKUs need 3+ characters.
func normalizeSKU(sku *string) (*string, error) {
	sku = httpx.TrimPtr(sku)
	if sku != nil && len([]rune(*sku)) < 3 {
		return nil, fiber.NewError(fiber.StatusUnprocessableEntity, i18n.T("validation_error")+" (sku)")
	}
	return sku, nil
}

func skuTaken(db *gorm.DB, sku string, exclude uuid.UUID) (bool, error) {
	var count int64
	q := db.Model(&models.Product{}).Where("sku = ?", sku)
	if exclude != uuid.Nil {
		q = q.Where("id <> ?", exclude)
	}
	err := q.Count(&count).Error
	return count > 0, err
}

// GET /api/v1/products?is_active=&category=&search=
func ListProductsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := httpx.Pagination(c, 50, 200)
		if err != nil {
			return err
		}
		isActive, err := httpx.QueryBool(c, "is_active")
		if err != nil {
			return err
		}

		dbq := database.DB.Model(&models.Product{})
		if isActive != nil {
			dbq = dbq.Where("is_active = ?", *isActive)
		}
		if cat := strings.TrimSpace(c.Query("category")); cat != "" {
			dbq = dbq.Where("category = ?", cat)
		}
		if s := strings.TrimSpace(c.Query("search")); s != "" {
			pattern := database.ContainsPattern(s)
			dbq = dbq.Where("LOWER(name) LIKE ? OR LOWER(sku) LIKE ? OR LOWER(category) LIKE ?", pattern, pattern, pattern)
		}

		var total int64
		if err := dbq.Count(&total).Error; err != nil {
			return err
		}

		var products []models.Product
		if err := dbq.Order("name asc").Offset(p.Offset()).Limit(p.PageSize).Find(&products).Error; err != nil {
			return err
		}

		items := make([]ProductResponse, 0, len(products))
		for i := range products {
			items = append(items, ToResponse(&products[i]))
		}
		return c.JSON(httpx.NewPage(items, total, p))
	}
}

// GET /api/v1/products/:id
func GetProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamUUID(c, "id")
		if err != nil {
			return err
		}
		var p models.Product
		if err := database.DB.First(&p, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, i18n.T("product_not_found"))
		}
		return c.JSON(ToResponse(&p))
	}
}

// POST /api/v1/products
func CreateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateProductRequest
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}

		name, err := validName(body.Name)
		if err != nil {
			return err
		}
		sku, err := normalizeSKU(body.SKU)
		if err != nil {
			return err
		}
		if sku != nil {
			if taken, err := skuTaken(database.DB, *sku, uuid.Nil); err != nil {
				return err
			} else if taken {
				return fiber.NewError(fiber.StatusConflict, i18n.T("product_sku_exists"))
			}
		}

		unit := strings.TrimSpace(body.DefaultUnit)
		if unit == "" {
			unit = "db"
		}

		p := models.Product{
			Name:        name,
			SKU:         sku,
			Category:    httpx.TrimPtr(body.Category),
			DefaultUnit: unit,
			Description: httpx.TrimPtr(body.Description),
			IsActive:    true,
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&p).Error; err != nil {
				return err
			}
			if body.IsActive != nil && !*body.IsActive {
				p.IsActive = false
				if err := tx.Model(&p).Update("is_active", false).Error; err != nil {
					return err
				}
			}
			audit.Record(c, tx, audit.EntityProduct, p.ID, models.AuditActionCreate, "Termék létrehozva: "+p.Name, nil, p)
			return nil
		})
		if err != nil {
			return err
		}

		return c.Status(fiber.StatusCreated).JSON(ToResponse(&p))
	}
}

// PUT /api/v1/products/:id
func UpdateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamUUID(c, "id")
		if err != nil {
			return err
		}

		var p models.Product
		if err := database.DB.First(&p, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, i18n.T("product_not_found"))
		}
		before := p

		var body UpdateProductRequest
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}

		if body.Name != nil {
			name, err := validName(*body.Name)
			if err != nil {
				return err
			}
			p.Name = name
		}
		if body.SKU != nil {
			sku, err := normalizeSKU(body.SKU)
			if err != nil {
				return err
			}
			if sku != nil {
				if taken, err := skuTaken(database.DB, *sku, p.ID); err != nil {
					return err
				} else if taken {
					return fiber.NewError(fiber.StatusConflict, i18n.T("product_sku_exists"))
				}
			}
			p.SKU = sku
		}
		if body.Category != nil {
			p.Category = httpx.TrimPtr(body.Category)
		}
		if body.DefaultUnit != nil {
			if unit := strings.TrimSpace(*body.DefaultUnit); unit != "" {
				p.DefaultUnit = unit
			}
		}
		if body.Description != nil {
			p.Description = httpx.TrimPtr(body.Description)
		}
		if body.IsActive != nil {
			p.IsActive = *body.IsActive
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Save(&p).Error; err != nil {
				return err
			}
			audit.Record(c, tx, audit.EntityProduct, p.ID, models.AuditActionUpdate, "Termék módosítva: "+p.Name, before, p)
			return nil
		})
		if err != nil {
			return err
		}

		return c.JSON(ToResponse(&p))
	}
}

// DELETE /api/v1/products/:id
func DeleteProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamUUID(c, "id")
		if err != nil {
			return err
		}

		var p models.Product
		if err := database.DB.First(&p, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, i18n.T("product_not_found"))
		}

		var stock int64
		err = database.DB.Model(&models.BinContent{}).
			Where("product_id = ? AND quantity > 0", p.ID).
			Count(&stock).Error
		if err != nil {
			return err
		}
		if stock > 0 {
			return fiber.NewError(fiber.StatusConflict, i18n.T("product_has_inventory"))
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Delete(&models.Product{}, "id = ?", p.ID).Error; err != nil {
				return err
			}
			audit.Record(c, tx, audit.EntityProduct, p.ID, models.AuditActionDelete, "Termék törölve: "+p.Name, p, nil)
			return nil
		})
		if err != nil {
			return err
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}
