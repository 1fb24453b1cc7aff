package reports

import (
	"errors"
	"fmt"

	"wms-backend/internal/clock"
	"wms-backend/internal/database"
	"wms-backend/internal/httpx"
	"wms-backend/internal/i18n"
	"wms-backend/internal/inventory"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// GET /api/v1/reports/inventory-summary?warehouse_id=
func InventorySummaryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		warehouseID, err := httpx.QueryUUID(c, "warehouse_id")
		if err != nil {
			return err
		}
		rows, err := inventory.StockLevels(database.DB, inventory.StockFilter{WarehouseID: warehouseID})
		if err != nil {
			return err
		}
		return c.JSON(rows)
	}
}

// GET /api/v1/reports/inventory-summary/export?warehouse_id=
func ExportInventorySummaryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		warehouseID, err := httpx.QueryUUID(c, "warehouse_id")
		if err != nil {
			return err
		}
		rows, err := inventory.StockLevels(database.DB, inventory.StockFilter{WarehouseID: warehouseID})
		if err != nil {
			return err
		}
		name := fmt.Sprintf("keszletosszesito_%s.xlsx", clock.Today().Format("20060102"))
		return inventory.SendXLSX(c, "Összesítő", name, rows)
	}
}

// GET /api/v1/reports/product-locations?product_id=
func ProductLocationsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		productID, err := httpx.QueryUUID(c, "product_id")
		if err != nil {
			return err
		}
		if productID == nil {
			return fiber.NewError(fiber.StatusUnprocessableEntity, i18n.T("field_required")+" (product_id)")
		}
		rows, err := inventory.StockLevels(database.DB, inventory.StockFilter{ProductID: productID})
		if err != nil {
			return err
		}
		return c.JSON(rows)
	}
}

// GET /api/v1/reports/occupancy-history?days=30&warehouse_id=
func OccupancyHistoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		days, err := httpx.QueryIntRange(c, "days", DefaultHistoryDays, 1, MaxHistoryDays)
		if err != nil {
			return err
		}
		warehouseID, err := httpx.QueryUUID(c, "warehouse_id")
		if err != nil {
			return err
		}
		res, err := History(database.DB, days, warehouseID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, i18n.T("warehouse_not_found"))
		}
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}
