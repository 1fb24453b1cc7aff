// Package dashboard aggregates stock, occupancy and movement KPIs.
package dashboard

import (
	"time"

	"wms-backend/internal/clock"
	"wms-backend/internal/database"
	"wms-backend/internal/httpx"
	"wms-backend/internal/inventory"
	"wms-backend/internal/models"
	"wms-backend/internal/warehouse"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ExpiryCounts struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
	Expired  int `json:"expired"`
}

type MovementCounts struct {
	Total    int64 `json:"total"`
	Receipts int64 `json:"receipts"`
	Issues   int64 `json:"issues"`
}

type StatsResponse struct {
	TotalStockKg   decimal.Decimal `json:"total_stock_kg"`
	TotalProducts  int64           `json:"total_products"`
	TotalBatches   int64           `json:"total_batches"`
	TotalBins      int64           `json:"total_bins"`
	OccupiedBins   int64           `json:"occupied_bins"`
	OccupancyRate  float64         `json:"occupancy_rate"`
	ExpiryWarnings ExpiryCounts    `json:"expiry_warnings"`
	TodayMovements MovementCounts  `json:"today_movements"`
}

// inWarehouse restricts a bin_contents query to one warehouse.
func inWarehouse(q *gorm.DB, warehouseID *uuid.UUID) *gorm.DB {
	if warehouseID == nil {
		return q
	}
	return q.Joins("JOIN bins ON bins.id = bin_contents.bin_id").
		Where("bins.warehouse_id = ?", *warehouseID)
}

// Occupancy counts the non-archived bins, optionally of one warehouse.
func Occupancy(db *gorm.DB, warehouseID *uuid.UUID) (total, occupied int64, err error) {
	q := db.Model(&models.Bin{}).Where("is_archived = ?", false)
	if warehouseID != nil {
		q = q.Where("warehouse_id = ?", *warehouseID)
	}
	q = q.Session(&gorm.Session{})
	if err = q.Count(&total).Error; err != nil {
		return
	}
	err = q.Where("status = ?", models.BinStatusOccupied).Count(&occupied).Error
	return
}

// StockWeight sums the net weight of available stock.
func StockWeight(db *gorm.DB, warehouseID *uuid.UUID) (decimal.Decimal, error) {
	var row struct{ Total decimal.NullDecimal }
	err := inWarehouse(db.Model(&models.BinContent{}), warehouseID).
		Select("COALESCE(SUM(bin_contents.weight_kg), 0) AS total").
		Where("bin_contents.status = ? AND bin_contents.quantity > 0", models.ContentAvailable).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, err
	}
	return row.Total.Decimal, nil
}

// countMovements counts ledger rows created in [from, to).
func countMovements(db *gorm.DB, warehouseID *uuid.UUID, from, to time.Time) (MovementCounts, error) {
	type row struct {
		MovementType models.MovementType
		Count        int64
	}
	q := db.Model(&models.BinMovement{}).
		Select("bin_movements.movement_type, COUNT(*) AS count").
		Where("bin_movements.created_at >= ? AND bin_movements.created_at < ?", from, to).
		Group("bin_movements.movement_type")
	if warehouseID != nil {
		q = q.Joins("JOIN bin_contents ON bin_contents.id = bin_movements.bin_content_id").
			Joins("JOIN bins ON bins.id = bin_contents.bin_id").
			Where("bins.warehouse_id = ?", *warehouseID)
	}
	var rows []row
	if err := q.Scan(&rows).Error; err != nil {
		return MovementCounts{}, err
	}
	var out MovementCounts
	for _, r := range rows {
		out.Total += r.Count
		switch r.MovementType {
		case models.MovementReceipt:
			out.Receipts += r.Count
		case models.MovementIssue:
			out.Issues += r.Count
		}
	}
	return out, nil
}

func Stats(db *gorm.DB, warehouseID *uuid.UUID) (*StatsResponse, error) {
	res := &StatsResponse{}

	var err error
	if res.TotalStockKg, err = StockWeight(db, warehouseID); err != nil {
		return nil, err
	}
	stock := func() *gorm.DB {
		return inWarehouse(db.Model(&models.BinContent{}), warehouseID).
			Where("bin_contents.status = ? AND bin_contents.quantity > 0", models.ContentAvailable)
	}
	if err := stock().Distinct("bin_contents.product_id").Count(&res.TotalProducts).Error; err != nil {
		return nil, err
	}
	if err := stock().Distinct("bin_contents.batch_number").Count(&res.TotalBatches).Error; err != nil {
		return nil, err
	}

	if res.TotalBins, res.OccupiedBins, err = Occupancy(db, warehouseID); err != nil {
		return nil, err
	}
	res.OccupancyRate = warehouse.Percent(res.OccupiedBins, res.TotalBins)

	warnings, err := inventory.FindExpiryWarnings(db, 30, warehouseID)
	if err != nil {
		return nil, err
	}
	res.ExpiryWarnings = ExpiryCounts{
		Critical: warnings.Summary.Critical,
		High:     warnings.Summary.High,
		Medium:   warnings.Summary.Medium,
		Low:      warnings.Summary.Low,
	}
	var expired int64
	if err := stock().Where("bin_contents.use_by_date < ?", clock.Today()).Count(&expired).Error; err != nil {
		return nil, err
	}
	res.ExpiryWarnings.Expired = int(expired)

	start := clock.StartOfDay(clock.Today())
	if res.TodayMovements, err = countMovements(db, warehouseID, start, start.AddDate(0, 0, 1)); err != nil {
		return nil, err
	}
	return res, nil
}

// GET /api/v1/dashboard/stats?warehouse_id=
func StatsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		warehouseID, err := httpx.QueryUUID(c, "warehouse_id")
		if err != nil {
			return err
		}
		res, err := Stats(database.DB, warehouseID)
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}
