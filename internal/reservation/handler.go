package reservation

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

type ItemResponse struct {
	ID               uuid.UUID       `json:"id"`
	BinContentID     uuid.UUID       `json:"bin_content_id"`
	BinCode          string          `json:"bin_code"`
	BatchNumber      string          `json:"batch_number"`
	UseByDate        string          `json:"use_by_date"`
	QuantityReserved decimal.Decimal `json:"quantity_reserved"`
	DaysUntilExpiry  int             `json:"days_until_expiry"`
}

type ReservationResponse struct {
	ID                 uuid.UUID                `json:"id"`
	ProductID          uuid.UUID                `json:"product_id"`
	ProductName        string                   `json:"product_name"`
	SKU                *string                  `json:"sku"`
	OrderReference     string                   `json:"order_reference"`
	CustomerName       *string                  `json:"customer_name"`
	TotalQuantity      decimal.Decimal          `json:"total_quantity"`
	ReservedUntil      string                   `json:"reserved_until"`
	Status             models.ReservationStatus `json:"status"`
	FulfilledAt        *string                  `json:"fulfilled_at"`
	CancelledAt        *string                  `json:"cancelled_at"`
	CancellationReason *string                  `json:"cancellation_reason"`
	Items              []ItemResponse           `json:"items,omitempty"`
	CreatedBy          uuid.UUID                `json:"created_by"`
	Notes              *string                  `json:"notes"`
	CreatedAt          string                   `json:"created_at"`
	UpdatedAt          string                   `json:"updated_at"`
}

type CreateResponse struct {
	ReservationResponse
	ReservationID uuid.UUID `json:"reservation_id"`
	IsPartial     bool      `json:"is_partial"`
	Message       string    `json:"message"`
}

type FulfillResponse struct {
	ReservationID  uuid.UUID       `json:"reservation_id"`
	MovementIDs    []uuid.UUID     `json:"movement_ids"`
	TotalFulfilled decimal.Decimal `json:"total_fulfilled"`
	Message        string          `json:"message"`
}

func ToResponse(r *models.StockReservation) ReservationResponse {
	resp := ReservationResponse{
		ID:                 r.ID,
		ProductID:          r.ProductID,
		OrderReference:     r.OrderReference,
		CustomerName:       r.CustomerName,
		TotalQuantity:      r.TotalQuantity,
		ReservedUntil:      r.ReservedUntil.Format(time.RFC3339),
		Status:             r.Status,
		FulfilledAt:        clock.FormatTimePtr(r.FulfilledAt),
		CancelledAt:        clock.FormatTimePtr(r.CancelledAt),
		CancellationReason: r.CancellationReason,
		CreatedBy:          r.CreatedBy,
		Notes:              r.Notes,
		CreatedAt:          r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          r.UpdatedAt.Format(time.RFC3339),
	}
	if r.Product != nil {
		resp.ProductName = r.Product.Name
		resp.SKU = r.Product.SKU
	}
	for _, it := range r.Items {
		ir := ItemResponse{
			ID:               it.ID,
			BinContentID:     it.BinContentID,
			QuantityReserved: it.QuantityReserved,
		}
		if bc := it.BinContent; bc != nil {
			ir.BatchNumber = bc.BatchNumber
			ir.UseByDate = clock.FormatDate(bc.UseByDate)
			ir.DaysUntilExpiry = clock.DaysUntil(bc.UseByDate)
			if bc.Bin != nil {
				ir.BinCode = bc.Bin.Code
			}
		}
		resp.Items = append(resp.Items, ir)
	}
	return resp
}

// POST /api/v1/reservations
func CreateReservationHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req CreateRequest
		if err := httpx.ParseBody(c, &req); err != nil {
			return err
		}
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		var (
			r       *models.StockReservation
			partial bool
		)
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			var err error
			r, partial, err = Create(tx, &req, userID)
			return err
		})
		if err != nil {
			return err
		}

		msg := i18n.T("reservation_successful")
		if partial {
			msg = i18n.T("reservation_partial")
		}
		return c.Status(fiber.StatusCreated).JSON(CreateResponse{
			ReservationResponse: ToResponse(r),
			ReservationID:       r.ID,
			IsPartial:           partial,
			Message:             msg,
		})
	}
}

// GET /api/v1/reservations
func ListReservationsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := httpx.Pagination(c, 50, 100)
		if err != nil {
			return err
		}
		productID, err := httpx.QueryUUID(c, "product_id")
		if err != nil {
			return err
		}

		q := database.DB.Model(&models.StockReservation{})
		if productID != nil {
			q = q.Where("product_id = ?", *productID)
		}
		if s := c.Query("status"); s != "" {
			q = q.Where("status = ?", s)
		}
		if ref := c.Query("order_reference"); ref != "" {
			q = q.Where("LOWER(order_reference) LIKE ?", database.ContainsPattern(ref))
		}

		var total int64
		if err := q.Count(&total).Error; err != nil {
			return err
		}
		var list []models.StockReservation
		if err := q.Preload("Product").
			Order("created_at DESC").
			Offset(p.Offset()).Limit(p.PageSize).
			Find(&list).Error; err != nil {
			return err
		}

		items := make([]ReservationResponse, 0, len(list))
		for i := range list {
			items = append(items, ToResponse(&list[i]))
		}
		return c.JSON(httpx.NewPage(items, total, p))
	}
}

// GET /api/v1/reservations/expiring
func ExpiringReservationsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		hours, err := httpx.QueryIntRange(c, "hours", DefaultHours, 1, MaxHours)
		if err != nil {
			return err
		}
		now := clock.Now()
		var list []models.StockReservation
		if err := database.DB.Preload("Product").
			Where("status = ? AND reserved_until > ? AND reserved_until <= ?",
				models.ReservationActive, now, now.Add(time.Duration(hours)*time.Hour)).
			Order("reserved_until ASC").
			Find(&list).Error; err != nil {
			return err
		}
		out := make([]ReservationResponse, 0, len(list))
		for i := range list {
			out = append(out, ToResponse(&list[i]))
		}
		return c.JSON(out)
	}
}

// GET /api/v1/reservations/:id
func GetReservationHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamUUID(c, "id")
		if err != nil {
			return err
		}
		r, err := Load(database.DB, id)
		if err != nil {
			return err
		}
		return c.JSON(ToResponse(r))
	}
}

// POST /api/v1/reservations/:id/fulfill
func FulfillReservationHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamUUID(c, "id")
		if err != nil {
			return err
		}
		var req FulfillRequest
		if len(c.Body()) > 0 {
			if err := httpx.ParseBody(c, &req); err != nil {
				return err
			}
		}
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		var (
			r   *models.StockReservation
			ids []uuid.UUID
		)
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			var err error
			r, ids, err = Fulfill(tx, id, httpx.TrimPtr(req.Notes), userID)
			return err
		})
		if err != nil {
			return err
		}
		return c.JSON(FulfillResponse{
			ReservationID:  r.ID,
			MovementIDs:    ids,
			TotalFulfilled: r.TotalQuantity,
			Message:        i18n.T("reservation_fulfilled"),
		})
	}
}

// DELETE /api/v1/reservations/:id
func CancelReservationHandler() fiber.Handler {
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

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			_, err := Cancel(tx, id, &req)
			return err
		})
		if err != nil {
			return err
		}
		r, err := Load(database.DB, id)
		if err != nil {
			return err
		}
		return c.JSON(ToResponse(r))
	}
}
