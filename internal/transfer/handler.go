package transfer

import (
	"time"

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

type TransferResponse struct {
	ID                  uuid.UUID             `json:"id"`
	SourceWarehouseID   uuid.UUID             `json:"source_warehouse_id"`
	SourceWarehouseName string                `json:"source_warehouse_name"`
	TargetWarehouseID   uuid.UUID             `json:"target_warehouse_id"`
	TargetWarehouseName string                `json:"target_warehouse_name"`
	SourceBinCode       string                `json:"source_bin_code"`
	TargetBinID         *uuid.UUID            `json:"target_bin_id"`
	TargetBinCode       *string               `json:"target_bin_code"`
	ProductName         string                `json:"product_name"`
	SKU                 *string               `json:"sku"`
	BatchNumber         string                `json:"batch_number"`
	UseByDate           string                `json:"use_by_date"`
	QuantitySent        decimal.Decimal       `json:"quantity_sent"`
	QuantityReceived    decimal.NullDecimal   `json:"quantity_received"`
	Unit                string                `json:"unit"`
	Status              models.TransferStatus `json:"status"`
	TransportReference  *string               `json:"transport_reference"`
	ConditionOnReceipt  *string               `json:"condition_on_receipt"`
	DispatchedAt        *string               `json:"dispatched_at"`
	ReceivedAt          *string               `json:"received_at"`
	CancelledAt         *string               `json:"cancelled_at"`
	CancellationReason  *string               `json:"cancellation_reason"`
	CreatedBy           uuid.UUID             `json:"created_by"`
	ReceivedBy          *uuid.UUID            `json:"received_by"`
	Notes               *string               `json:"notes"`
	CreatedAt           string                `json:"created_at"`
	Message             string                `json:"message,omitempty"`
}

func ToResponse(t *models.WarehouseTransfer) TransferResponse {
	r := TransferResponse{
		ID:                 t.ID,
		SourceWarehouseID:  t.SourceWarehouseID,
		TargetWarehouseID:  t.TargetWarehouseID,
		TargetBinID:        t.TargetBinID,
		QuantitySent:       t.QuantitySent,
		QuantityReceived:   t.QuantityReceived,
		Unit:               t.Unit,
		Status:             t.Status,
		TransportReference: t.TransportReference,
		ConditionOnReceipt: t.ConditionOnReceipt,
		DispatchedAt:       clock.FormatTimePtr(t.DispatchedAt),
		ReceivedAt:         clock.FormatTimePtr(t.ReceivedAt),
		CancelledAt:        clock.FormatTimePtr(t.CancelledAt),
		CancellationReason: t.CancellationReason,
		CreatedBy:          t.CreatedBy,
		ReceivedBy:         t.ReceivedBy,
		Notes:              t.Notes,
		CreatedAt:          t.CreatedAt.Format(time.RFC3339),
	}
	if t.SourceWarehouse != nil {
		r.SourceWarehouseName = t.SourceWarehouse.Name
	}
	if t.TargetWarehouse != nil {
		r.TargetWarehouseName = t.TargetWarehouse.Name
	}
	if t.SourceBin != nil {
		r.SourceBinCode = t.SourceBin.Code
	}
	if t.TargetBin != nil {
		code := t.TargetBin.Code
		r.TargetBinCode = &code
	}
	if c := t.SourceBinContent; c != nil {
		r.BatchNumber = c.BatchNumber
		r.UseByDate = clock.FormatDate(c.UseByDate)
		if c.Product != nil {
			r.ProductName = c.Product.Name
			r.SKU = c.Product.SKU
		}
	}
	return r
}

func respond(c *fiber.Ctx, status int, t *models.WarehouseTransfer, msgKey string) error {
	r := ToResponse(t)
	r.Message = i18n.T(msgKey)
	return c.Status(status).JSON(r)
}

// POST /api/v1/transfers
func CreateTransferHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req CreateRequest
		if err := httpx.ParseBody(c, &req); err != nil {
			return err
		}
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}
		var res *Result
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			var err error
			res, err = WithinWarehouse(tx, &req, userID)
			return err
		})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	}
}

// POST /api/v1/transfers/cross-warehouse
func CreateCrossWarehouseHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req CrossWarehouseRequest
		if err := httpx.ParseBody(c, &req); err != nil {
			return err
		}
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}
		var t *models.WarehouseTransfer
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			var err error
			t, err = CrossWarehouse(tx, &req, userID)
			return err
		})
		if err != nil {
			return err
		}
		return respond(c, fiber.StatusCreated, t, "cross_warehouse_created")
	}
}

// POST /api/v1/transfers/:id/dispatch
func DispatchHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamUUID(c, "id")
		if err != nil {
			return err
		}
		var t *models.WarehouseTransfer
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			var err error
			t, err = Dispatch(tx, id)
			return err
		})
		if err != nil {
			return err
		}
		return respond(c, fiber.StatusOK, t, "cross_warehouse_dispatched")
	}
}

// POST /api/v1/transfers/:id/confirm
func ConfirmHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamUUID(c, "id")
		if err != nil {
			return err
		}
		var req ConfirmRequest
		if len(c.Body()) > 0 {
			if err := httpx.ParseBody(c, &req); err != nil {
				return err
			}
		}
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}
		var t *models.WarehouseTransfer
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			var err error
			t, err = Confirm(tx, id, &req, userID)
			return err
		})
		if err != nil {
			return err
		}
		return respond(c, fiber.StatusOK, t, "cross_warehouse_confirmed")
	}
}

// DELETE /api/v1/transfers/:id
func CancelHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamUUID(c, "id")
		if err != nil {
			return err
		}
		var req CancelRequest
		if len(c.Body()) > 0 {
			if err := httpx.ParseBody(c, &req); err != nil {
				return err
			}
		}
		if req.Reason == "" {
			req.Reason = c.Query("reason")
		}
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}
		var t *models.WarehouseTransfer
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			var err error
			t, err = Cancel(tx, id, &req, userID)
			return err
		})
		if err != nil {
			return err
		}
		return respond(c, fiber.StatusOK, t, "cross_warehouse_cancelled")
	}
}

func preloadAll(q *gorm.DB) *gorm.DB {
	return q.Preload("SourceWarehouse").Preload("TargetWarehouse").
		Preload("SourceBin").Preload("TargetBin").
		Preload("SourceBinContent.Product")
}

func toResponses(list []models.WarehouseTransfer) []TransferResponse {
	out := make([]TransferResponse, 0, len(list))
	for i := range list {
		out = append(out, ToResponse(&list[i]))
	}
	return out
}

// GET /api/v1/transfers
func ListTransfersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := httpx.Pagination(c, 50, 200)
		if err != nil {
			return err
		}
		q := database.DB.Model(&models.WarehouseTransfer{})
		for _, f := range []string{"source_warehouse_id", "target_warehouse_id"} {
			id, err := httpx.QueryUUID(c, f)
			if err != nil {
				return err
			}
			if id != nil {
				q = q.Where(f+" = ?", *id)
			}
		}
		if s := c.Query("status"); s != "" {
			q = q.Where("status = ?", s)
		}

		var total int64
		if err := q.Count(&total).Error; err != nil {
			return err
		}
		var list []models.WarehouseTransfer
		if err := preloadAll(q).Order("created_at DESC").
			Offset(p.Offset()).Limit(p.PageSize).
			Find(&list).Error; err != nil {
			return err
		}
		return c.JSON(httpx.NewPage(toResponses(list), total, p))
	}
}

// GET /api/v1/transfers/pending
func PendingTransfersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		warehouseID, err := httpx.QueryUUID(c, "warehouse_id")
		if err != nil {
			return err
		}
		q := database.DB.Where("status IN ?", []models.TransferStatus{models.TransferPending, models.TransferInTransit})
		if warehouseID != nil {
			q = q.Where("target_warehouse_id = ?", *warehouseID)
		}
		var list []models.WarehouseTransfer
		if err := preloadAll(q).Order("created_at ASC").Find(&list).Error; err != nil {
			return err
		}
		return c.JSON(toResponses(list))
	}
}

// GET /api/v1/transfers/:id
func GetTransferHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamUUID(c, "id")
		if err != nil {
			return err
		}
		t, err := Load(database.DB, id)
		if err != nil {
			return err
		}
		return c.JSON(ToResponse(t))
	}
}
