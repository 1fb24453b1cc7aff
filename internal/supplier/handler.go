package supplier

import (
	"regexp"
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

// Hungarian tax number, e.g. 12345678-1-42.
var taxNumberRe = regexp.MustCompile(`^\d{8}-\d-\d{2}$`)

type SupplierResponse struct {
	ID            uuid.UUID `json:"id"`
	CompanyName   string    `json:"company_name"`
	ContactPerson *string   `json:"contact_person"`
	Email         *string   `json:"email"`
	Phone         *string   `json:"phone"`
	Address       *string   `json:"address"`
	TaxNumber     *string   `json:"tax_number"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     string    `json:"created_at"`
	UpdatedAt     string    `json:"updated_at"`
}

type SupplierRequest struct {
	CompanyName   *string `json:"company_name" validate:"omitempty,max=255"`
	ContactPerson *string `json:"contact_person" validate:"omitempty,max=255"`
	Email         *string `json:"email" validate:"omitempty,max=255"`
	Phone         *string `json:"phone" validate:"omitempty,max=50"`
	Address       *string `json:"address"`
	TaxNumber     *string `json:"tax_number" validate:"omitempty,max=50"`
	IsActive      *bool   `json:"is_active"`
}

func ToResponse(s *models.Supplier) SupplierResponse {
	return SupplierResponse{
		ID:            s.ID,
		CompanyName:   s.CompanyName,
		ContactPerson: s.ContactPerson,
		Email:         s.Email,
		Phone:         s.Phone,
		Address:       s.Address,
		TaxNumber:     s.TaxNumber,
		IsActive:      s.IsActive,
		CreatedAt:     s.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     s.UpdatedAt.Format(time.RFC3339),
	}
}

// ValidTaxNumber reports whether tax is blank or a well-formed tax number.
func ValidTaxNumber(tax *string) bool {
	return tax == nil || taxNumberRe.MatchString(*tax)
}

// apply copies the set fields of body onto s.
func apply(s *models.Supplier, body *SupplierRequest) error {
	if body.CompanyName != nil {
		name := strings.TrimSpace(*body.CompanyName)
		if name == "" {
			return fiber.NewError(fiber.StatusUnprocessableEntity, i18n.T("supplier_name_required"))
		}
		if len([]rune(name)) < 2 {
			return fiber.NewError(fiber.StatusUnprocessableEntity, i18n.T("name_min_length"))
		}
		s.CompanyName = name
	}
	if body.ContactPerson != nil {
		s.ContactPerson = httpx.TrimPtr(body.ContactPerson)
	}
	if body.Email != nil {
		s.Email = httpx.TrimPtr(body.Email)
	}
	if body.Phone != nil {
		s.Phone = httpx.TrimPtr(body.Phone)
	}
	if body.Address != nil {
		s.Address = httpx.TrimPtr(body.Address)
	}
	if body.TaxNumber != nil {
		tax := httpx.TrimPtr(body.TaxNumber)
		if !ValidTaxNumber(tax) {
			return fiber.NewError(fiber.StatusUnprocessableEntity, i18n.T("invalid_tax_number"))
		}
		s.TaxNumber = tax
	}
	if body.IsActive != nil {
		s.IsActive = *body.IsActive
	}
	return nil
}

// GET /api/v1/suppliers?is_active=&search=
func ListSuppliersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := httpx.Pagination(c, 50, 200)
		if err != nil {
			return err
		}
		isActive, err := httpx.QueryBool(c, "is_active")
		if err != nil {
			return err
		}

		dbq := database.DB.Model(&models.Supplier{})
		if isActive != nil {
			dbq = dbq.Where("is_active = ?", *isActive)
		}
		if s := strings.TrimSpace(c.Query("search")); s != "" {
			pattern := database.ContainsPattern(s)
			dbq = dbq.Where("LOWER(company_name) LIKE ? OR LOWER(contact_person) LIKE ? OR LOWER(email) LIKE ?", pattern, pattern, pattern)
		}

		var total int64
		if err := dbq.Count(&total).Error; err != nil {
			return err
		}

		var suppliers []models.Supplier
		if err := dbq.Order("company_name asc").Offset(p.Offset()).Limit(p.PageSize).Find(&suppliers).Error; err != nil {
			return err
		}

		items := make([]SupplierResponse, 0, len(suppliers))
		for i := range suppliers {
			items = append(items, ToResponse(&suppliers[i]))
		}
		return c.JSON(httpx.NewPage(items, total, p))
	}
}

// GET /api/v1/suppliers/:id
func GetSupplierHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamUUID(c, "id")
		if err != nil {
			return err
		}
		var s models.Supplier
		if err := database.DB.First(&s, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, i18n.T("supplier_not_found"))
		}
		return c.JSON(ToResponse(&s))
	}
}

// POST /api/v1/suppliers
func CreateSupplierHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body SupplierRequest
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}
		if body.CompanyName == nil {
			return fiber.NewError(fiber.StatusUnprocessableEntity, i18n.T("supplier_name_required"))
		}

		s := models.Supplier{IsActive: true}
		if err := apply(&s, &body); err != nil {
			return err
		}

		err := database.DB.Transaction(func(tx *gorm.DB) error {
			active := s.IsActive
			if err := tx.Create(&s).Error; err != nil {
				return err
			}
			if !active {
				s.IsActive = false
				if err := tx.Model(&s).Update("is_active", false).Error; err != nil {
					return err
				}
			}
			audit.Record(c, tx, audit.EntitySupplier, s.ID, models.AuditActionCreate, "Beszállító létrehozva: "+s.CompanyName, nil, s)
			return nil
		})
		if err != nil {
			return err
		}

		return c.Status(fiber.StatusCreated).JSON(ToResponse(&s))
	}
}

// PUT /api/v1/suppliers/:id
func UpdateSupplierHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamUUID(c, "id")
		if err != nil {
			return err
		}

		var s models.Supplier
		if err := database.DB.First(&s, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, i18n.T("supplier_not_found"))
		}
		before := s

		var body SupplierRequest
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}
		if err := apply(&s, &body); err != nil {
			return err
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Save(&s).Error; err != nil {
				return err
			}
			audit.Record(c, tx, audit.EntitySupplier, s.ID, models.AuditActionUpdate, "Beszállító módosítva: "+s.CompanyName, before, s)
			return nil
		})
		if err != nil {
			return err
		}

		return c.JSON(ToResponse(&s))
	}
}

// DELETE /api/v1/suppliers/:id
func DeleteSupplierHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamUUID(c, "id")
		if err != nil {
			return err
		}

		var s models.Supplier
		if err := database.DB.First(&s, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, i18n.T("supplier_not_found"))
		}

		var stock int64
		err = database.DB.Model(&models.BinContent{}).
			Where("supplier_id = ? AND quantity > 0", s.ID).
			Count(&stock).Error
		if err != nil {
			return err
		}
		if stock > 0 {
			return fiber.NewError(fiber.StatusConflict, i18n.T("supplier_has_inventory"))
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Delete(&models.Supplier{}, "id = ?", s.ID).Error; err != nil {
				return err
			}
			audit.Record(c, tx, audit.EntitySupplier, s.ID, models.AuditActionDelete, "Beszállító törölve: "+s.CompanyName, s, nil)
			return nil
		})
		if err != nil {
			return err
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}
