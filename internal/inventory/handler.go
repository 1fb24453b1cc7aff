package inventory

import (
	"bytes"
	"fmt"
	"strings"

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

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type RecommendationRequest struct {
	ProductID uuid.UUID       `json:"product_id" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
}

func currentActor(c *fiber.Ctx) (Actor, error) {
	u, err := auth.CurrentUser(c)
	if err != nil {
		return Actor{}, err
	}
	return Actor{ID: u.ID, Role: u.Role}, nil
}

// POST /api/v1/inventory/receive
func ReceiveHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req ReceiveRequest
		if err := httpx.ParseBody(c, &req); err != nil {
			return err
		}
		actor, err := currentActor(c)
		if err != nil {
			return err
		}

		var res *ReceiveResult
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			var err error
			res, err = Receive(tx, &req, actor)
			return err
		})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	}
}

// POST /api/v1/inventory/issue
func IssueHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req IssueRequest
		if err := httpx.ParseBody(c, &req); err != nil {
			return err
		}
		actor, err := currentActor(c)
		if err != nil {
			return err
		}

		var res *IssueResult
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			var err error
			res, err = Issue(tx, &req, actor)
			return err
		})
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}

// POST /api/v1/inventory/adjust
func AdjustHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req AdjustRequest
		if err := httpx.ParseBody(c, &req); err != nil {
			return err
		}
		actor, err := currentActor(c)
		if err != nil {
			return err
		}

		var res *MovementResult
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			var err error
			res, err = Adjust(tx, &req, actor)
			return err
		})
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}

// POST /api/v1/inventory/scrap
func ScrapHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req ScrapRequest
		if err := httpx.ParseBody(c, &req); err != nil {
			return err
		}
		actor, err := currentActor(c)
		if err != nil {
			return err
		}

		var res *MovementResult
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			var err error
			res, err = Scrap(tx, &req, actor)
			return err
		})
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}

func stockFilter(c *fiber.Ctx) (StockFilter, error) {
	var f StockFilter
	var err error
	if f.WarehouseID, err = httpx.QueryUUID(c, "warehouse_id"); err != nil {
		return f, err
	}
	if f.ProductID, err = httpx.QueryUUID(c, "product_id"); err != nil {
		return f, err
	}
	f.Search = c.Query("search")
	return f, nil
}

// GET /api/v1/inventory/stock-levels
func StockLevelsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		f, err := stockFilter(c)
		if err != nil {
			return err
		}
		rows, err := StockLevels(database.DB, f)
		if err != nil {
			return err
		}
		return c.JSON(rows)
	}
}

// GET /api/v1/inventory/stock-levels/export
func ExportStockLevelsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		f, err := stockFilter(c)
		if err != nil {
			return err
		}
		rows, err := StockLevels(database.DB, f)
		if err != nil {
			return err
		}
		return SendXLSX(c, "Készlet", fmt.Sprintf("keszlet_%s.xlsx", clock.Today().Format("20060102")), rows)
	}
}

// SendXLSX writes stock rows as a workbook attachment.
func SendXLSX(c *fiber.Ctx, sheet, filename string, rows []StockLevel) error {
	var buf bytes.Buffer
	if err := WriteStockLevelsXLSX(&buf, sheet, rows); err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Attachment(filename)
	return c.Send(buf.Bytes())
}

// POST /api/v1/inventory/fefo-recommendation
// GET  /api/v1/inventory/fefo-recommendation?product_id=&quantity=
func FefoRecommendationHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req RecommendationRequest
		if c.Method() == fiber.MethodGet {
			id, err := httpx.QueryUUID(c, "product_id")
			if err != nil {
				return err
			}
			if id == nil {
				return fiber.NewError(fiber.StatusUnprocessableEntity, i18n.T("field_required")+" (product_id)")
			}
			qty, err := decimal.NewFromString(strings.TrimSpace(c.Query("quantity")))
			if err != nil {
				return fiber.NewError(fiber.StatusUnprocessableEntity, i18n.T("invalid_quantity"))
			}
			req = RecommendationRequest{ProductID: *id, Quantity: qty}
		} else if err := httpx.ParseBody(c, &req); err != nil {
			return err
		}
		if !req.Quantity.IsPositive() {
			return fiber.NewError(fiber.StatusUnprocessableEntity, i18n.T("invalid_quantity"))
		}

		var product models.Product
		if err := database.DB.First(&product, "id = ?", req.ProductID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, i18n.T("product_not_found"))
		}
		res, err := Recommend(database.DB, &product, req.Quantity)
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}

// GET /api/v1/inventory/expiry-warnings
func ExpiryWarningsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		days, err := httpx.QueryIntRange(c, "days_threshold", 30, 1, 365)
		if err != nil {
			return err
		}
		warehouseID, err := httpx.QueryUUID(c, "warehouse_id")
		if err != nil {
			return err
		}
		res, err := FindExpiryWarnings(database.DB, days, warehouseID)
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}

// GET /api/v1/inventory/expired
func ExpiredHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		warehouseID, err := httpx.QueryUUID(c, "warehouse_id")
		if err != nil {
			return err
		}
		items, err := FindExpired(database.DB, warehouseID)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"items":        items,
			"total":        len(items),
			"warehouse_id": warehouseID,
		})
	}
}

// GET /api/v1/inventory/cmr-check
func CMRCheckHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		cmr := strings.TrimSpace(c.Query("cmr_number"))
		if cmr == "" {
			return fiber.NewError(fiber.StatusUnprocessableEntity, i18n.T("field_required")+" (cmr_number)")
		}
		res, err := CheckCMR(database.DB, cmr)
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}
