package movement

import (
	"time"

	"wms-backend/internal/database"
	"wms-backend/internal/httpx"
	"wms-backend/internal/i18n"
	"wms-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type MovementResponse struct {
	ID              uuid.UUID           `json:"id"`
	BinContentID    uuid.UUID           `json:"bin_content_id"`
	BinCode         string              `json:"bin_code"`
	ProductName     string              `json:"product_name"`
	BatchNumber     string              `json:"batch_number"`
	MovementType    models.MovementType `json:"movement_type"`
	Quantity        decimal.Decimal     `json:"quantity"`
	Unit            string              `json:"unit"`
	QuantityBefore  decimal.Decimal     `json:"quantity_before"`
	QuantityAfter   decimal.Decimal     `json:"quantity_after"`
	Reason          string              `json:"reason"`
	ReferenceNumber *string             `json:"reference_number"`
	FefoCompliant   bool                `json:"fefo_compliant"`
	ForceOverride   bool                `json:"force_override"`
	OverrideReason  *string             `json:"override_reason"`
	Notes           *string             `json:"notes"`
	CreatedBy       uuid.UUID           `json:"created_by"`
	CreatedByName   string              `json:"created_by_name"`
	CreatedAt       string              `json:"created_at"`
}

// ToResponses enriches movements with bin, product and user names.
func ToResponses(list []models.BinMovement) []MovementResponse {
	userIDs := make([]uuid.UUID, 0, len(list))
	for _, m := range list {
		userIDs = append(userIDs, m.CreatedBy)
	}
	names := map[uuid.UUID]string{}
	if len(userIDs) > 0 {
		var users []models.User
		database.DB.Select("id", "username", "full_name").Where("id IN ?", userIDs).Find(&users)
		for _, u := range users {
			if u.FullName != nil && *u.FullName != "" {
				names[u.ID] = *u.FullName
			} else {
				names[u.ID] = u.Username
			}
		}
	}

	out := make([]MovementResponse, 0, len(list))
	for i := range list {
		m := &list[i]
		r := MovementResponse{
			ID:              m.ID,
			BinContentID:    m.BinContentID,
			MovementType:    m.MovementType,
			Quantity:        m.Quantity,
			QuantityBefore:  m.QuantityBefore,
			QuantityAfter:   m.QuantityAfter,
			Reason:          m.Reason,
			ReferenceNumber: m.ReferenceNumber,
			FefoCompliant:   m.FefoCompliant,
			ForceOverride:   m.ForceOverride,
			OverrideReason:  m.OverrideReason,
			Notes:           m.Notes,
			CreatedBy:       m.CreatedBy,
			CreatedByName:   names[m.CreatedBy],
			CreatedAt:       m.CreatedAt.Format(time.RFC3339),
		}
		if bc := m.BinContent; bc != nil {
			r.BatchNumber = bc.BatchNumber
			r.Unit = bc.Unit
			if bc.Bin != nil {
				r.BinCode = bc.Bin.Code
			}
			if bc.Product != nil {
				r.ProductName = bc.Product.Name
			}
		}
		out = append(out, r)
	}
	return out
}

// GET /api/v1/movements?product_id=&bin_id=&movement_type=&start_date=&end_date=&created_by=
func ListMovementsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := httpx.Pagination(c, 50, 500)
		if err != nil {
			return err
		}
		productID, err := httpx.QueryUUID(c, "product_id")
		if err != nil {
			return err
		}
		binID, err := httpx.QueryUUID(c, "bin_id")
		if err != nil {
			return err
		}
		createdBy, err := httpx.QueryUUID(c, "created_by")
		if err != nil {
			return err
		}
		start, err := httpx.QueryDate(c, "start_date")
		if err != nil {
			return err
		}
		end, err := httpx.QueryDate(c, "end_date")
		if err != nil {
			return err
		}

		dbq := database.DB.Model(&models.BinMovement{}).
			Joins("JOIN bin_contents ON bin_contents.id = bin_movements.bin_content_id")
		if productID != nil {
			dbq = dbq.Where("bin_contents.product_id = ?", *productID)
		}
		if binID != nil {
			dbq = dbq.Where("bin_contents.bin_id = ?", *binID)
		}
		if mt := c.Query("movement_type"); mt != "" {
			if !models.MovementType(mt).Valid() {
				return fiber.NewError(fiber.StatusUnprocessableEntity, i18n.T("invalid_movement_type"))
			}
			dbq = dbq.Where("bin_movements.movement_type = ?", mt)
		}
		if start != nil {
			dbq = dbq.Where("bin_movements.created_at >= ?", *start)
		}
		if end != nil {
			dbq = dbq.Where("bin_movements.created_at < ?", end.AddDate(0, 0, 1))
		}
		if createdBy != nil {
			dbq = dbq.Where("bin_movements.created_by = ?", *createdBy)
		}

		var total int64
		if err := dbq.Count(&total).Error; err != nil {
			return err
		}

		var list []models.BinMovement
		err = dbq.
			Preload("BinContent").
			Preload("BinContent.Bin").
			Preload("BinContent.Product").
			Order("bin_movements.created_at DESC").
			Offset(p.Offset()).Limit(p.PageSize).
			Find(&list).Error
		if err != nil {
			return err
		}

		return c.JSON(httpx.NewPage(ToResponses(list), total, p))
	}
}

// GET /api/v1/movements/:id
func GetMovementHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamUUID(c, "id")
		if err != nil {
			return err
		}
		var m models.BinMovement
		err = database.DB.
			Preload("BinContent").
			Preload("BinContent.Bin").
			Preload("BinContent.Product").
			First(&m, "id = ?", id).Error
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, i18n.T("movement_not_found"))
		}
		return c.JSON(ToResponses([]models.BinMovement{m})[0])
	}
}
