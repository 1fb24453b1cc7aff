package dashboard

import (
	"wms-backend/internal/clock"
	"wms-backend/internal/database"
	"wms-backend/internal/httpx"
	"wms-backend/internal/i18n"
	"wms-backend/internal/models"
	"wms-backend/internal/warehouse"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const historyDays = 7

type WarehouseOccupancy struct {
	WarehouseID   uuid.UUID `json:"warehouse_id"`
	WarehouseName string    `json:"warehouse_name"`
	Occupied      int64     `json:"occupied"`
	Empty         int64     `json:"empty"`
	Total         int64     `json:"total"`
	OccupancyRate float64   `json:"occupancy_rate"`
}

type MovementPoint struct {
	Date     string `json:"date"`
	Receipts int64  `json:"receipts"`
	Issues   int64  `json:"issues"`
	Total    int64  `json:"total"`
}

type SupplierShare struct {
	SupplierID      *uuid.UUID      `json:"supplier_id"`
	SupplierName    string          `json:"supplier_name"`
	ProductCount    int64           `json:"product_count"`
	TotalQuantityKg decimal.Decimal `json:"total_quantity_kg"`
}

type ChartsResponse struct {
	WarehouseOccupancy   []WarehouseOccupancy `json:"warehouse_occupancy"`
	MovementHistory      []MovementPoint      `json:"movement_history"`
	SupplierDistribution []SupplierShare      `json:"supplier_distribution"`
}

// WarehouseOccupancies lists bin occupancy per active warehouse, by name.
func WarehouseOccupancies(db *gorm.DB, warehouseID *uuid.UUID) ([]WarehouseOccupancy, error) {
	q := db.Order("name ASC")
	if warehouseID != nil {
		q = q.Where("id = ?", *warehouseID)
	}
	var warehouses []models.Warehouse
	if err := q.Find(&warehouses).Error; err != nil {
		return nil, err
	}
	out := make([]WarehouseOccupancy, 0, len(warehouses))
	for _, w := range warehouses {
		id := w.ID
		total, occupied, err := Occupancy(db, &id)
		if err != nil {
			return nil, err
		}
		out = append(out, WarehouseOccupancy{
			WarehouseID:   w.ID,
			WarehouseName: w.Name,
			Occupied:      occupied,
			Empty:         total - occupied,
			Total:         total,
			OccupancyRate: warehouse.Percent(occupied, total),
		})
	}
	return out, nil
}

// movementHistory counts receipts and issues for each of the last days,
// oldest first and ending today.
func movementHistory(db *gorm.DB, warehouseID *uuid.UUID, days int) ([]MovementPoint, error) {
	today := clock.Today()
	out := make([]MovementPoint, 0, days)
	for ago := days - 1; ago >= 0; ago-- {
		day := today.AddDate(0, 0, -ago)
		start := clock.StartOfDay(day)
		counts, err := countMovements(db, warehouseID, start, start.AddDate(0, 0, 1))
		if err != nil {
			return nil, err
		}
		out = append(out, MovementPoint{
			Date:     clock.FormatDate(day),
			Receipts: counts.Receipts,
			Issues:   counts.Issues,
			Total:    counts.Receipts + counts.Issues,
		})
	}
	return out, nil
}

// supplierDistribution ranks suppliers by distinct products in stock.
func supplierDistribution(db *gorm.DB, warehouseID *uuid.UUID) ([]SupplierShare, error) {
	type row struct {
		SupplierID   *uuid.UUID
		CompanyName  *string
		ProductCount int64
		TotalKg      decimal.NullDecimal
	}
	var rows []row
	err := inWarehouse(db.Model(&models.BinContent{}), warehouseID).
		Select("bin_contents.supplier_id, suppliers.company_name, "+
			"COUNT(DISTINCT bin_contents.product_id) AS product_count, "+
			"COALESCE(SUM(bin_contents.weight_kg), 0) AS total_kg").
		Joins("LEFT JOIN suppliers ON suppliers.id = bin_contents.supplier_id").
		Where("bin_contents.status = ? AND bin_contents.quantity > 0", models.ContentAvailable).
		Group("bin_contents.supplier_id, suppliers.company_name").
		Order("product_count DESC").
		Limit(10).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]SupplierShare, 0, len(rows))
	for _, r := range rows {
		name := i18n.T("unknown_supplier")
		if r.CompanyName != nil {
			name = *r.CompanyName
		}
		out = append(out, SupplierShare{
			SupplierID:      r.SupplierID,
			SupplierName:    name,
			ProductCount:    r.ProductCount,
			TotalQuantityKg: r.TotalKg.Decimal,
		})
	}
	return out, nil
}

func Charts(db *gorm.DB, warehouseID *uuid.UUID) (*ChartsResponse, error) {
	occ, err := WarehouseOccupancies(db, warehouseID)
	if err != nil {
		return nil, err
	}
	history, err := movementHistory(db, warehouseID, historyDays)
	if err != nil {
		return nil, err
	}
	suppliers, err := supplierDistribution(db, warehouseID)
	if err != nil {
		return nil, err
	}
	return &ChartsResponse{
		WarehouseOccupancy:   occ,
		MovementHistory:      history,
		SupplierDistribution: suppliers,
	}, nil
}

// GET /api/v1/dashboard/charts?warehouse_id=
func ChartsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		warehouseID, err := httpx.QueryUUID(c, "warehouse_id")
		if err != nil {
			return err
		}
		res, err := Charts(database.DB, warehouseID)
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}
