// Package reports serves stock reports and the daily occupancy history.
package reports

import (
	"time"

	"wms-backend/internal/clock"
	"wms-backend/internal/dashboard"
	"wms-backend/internal/i18n"
	"wms-backend/internal/models"
	"wms-backend/internal/warehouse"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DefaultHistoryDays = 30
	MaxHistoryDays     = 90
)

type OccupancyPoint struct {
	Date          string     `json:"date"`
	WarehouseID   *uuid.UUID `json:"warehouse_id"`
	WarehouseName string     `json:"warehouse_name"`
	TotalBins     int64      `json:"total_bins"`
	OccupiedBins  int64      `json:"occupied_bins"`
	EmptyBins     int64      `json:"empty_bins"`
	OccupancyRate float64    `json:"occupancy_rate"`
}

type OccupancyHistory struct {
	Data      []OccupancyPoint `json:"data"`
	StartDate string           `json:"start_date"`
	EndDate   string           `json:"end_date"`
}

// SnapshotOccupancy stores today's bin occupancy for every warehouse,
// replacing an earlier snapshot of the same day. It returns the number of
// warehouses recorded.
func SnapshotOccupancy(db *gorm.DB, day time.Time) (int, error) {
	var warehouses []models.Warehouse
	if err := db.Select("id").Find(&warehouses).Error; err != nil {
		return 0, err
	}
	day = clock.DateOf(day)
	for _, w := range warehouses {
		id := w.ID
		total, occupied, err := dashboard.Occupancy(db, &id)
		if err != nil {
			return 0, err
		}
		stock, err := dashboard.StockWeight(db, &id)
		if err != nil {
			return 0, err
		}
		snap := models.OccupancySnapshot{
			Date:         day,
			WarehouseID:  w.ID,
			TotalBins:    int(total),
			OccupiedBins: int(occupied),
			TotalStockKg: stock,
		}
		err = db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "date"}, {Name: "warehouse_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"total_bins", "occupied_bins", "total_stock_kg"}),
		}).Create(&snap).Error
		if err != nil {
			return 0, err
		}
	}
	return len(warehouses), nil
}

func point(day time.Time, id *uuid.UUID, name string, total, occupied int64) OccupancyPoint {
	return OccupancyPoint{
		Date:          clock.FormatDate(day),
		WarehouseID:   id,
		WarehouseName: name,
		TotalBins:     total,
		OccupiedBins:  occupied,
		EmptyBins:     total - occupied,
		OccupancyRate: warehouse.Percent(occupied, total),
	}
}

// History returns one point per day ending today. Days with stored
// snapshots use them; the rest fall back to the current occupancy.
func History(db *gorm.DB, days int, warehouseID *uuid.UUID) (*OccupancyHistory, error) {
	end := clock.Today()
	start := end.AddDate(0, 0, -(days - 1))

	name := i18n.T("all_warehouses")
	if warehouseID != nil {
		var w models.Warehouse
		if err := db.First(&w, "id = ?", *warehouseID).Error; err != nil {
			return nil, err
		}
		name = w.Name
	}

	curTotal, curOccupied, err := dashboard.Occupancy(db, warehouseID)
	if err != nil {
		return nil, err
	}

	q := db.Where("date >= ? AND date <= ?", start, end)
	if warehouseID != nil {
		q = q.Where("warehouse_id = ?", *warehouseID)
	}
	var snaps []models.OccupancySnapshot
	if err := q.Find(&snaps).Error; err != nil {
		return nil, err
	}
	type agg struct{ total, occupied int64 }
	byDay := map[string]*agg{}
	for _, s := range snaps {
		key := clock.FormatDate(s.Date)
		a, ok := byDay[key]
		if !ok {
			a = &agg{}
			byDay[key] = a
		}
		a.total += int64(s.TotalBins)
		a.occupied += int64(s.OccupiedBins)
	}

	out := &OccupancyHistory{
		Data:      make([]OccupancyPoint, 0, days),
		StartDate: clock.FormatDate(start),
		EndDate:   clock.FormatDate(end),
	}
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		total, occupied := curTotal, curOccupied
		if a, ok := byDay[clock.FormatDate(d)]; ok {
			total, occupied = a.total, a.occupied
		}
		out.Data = append(out.Data, point(d, warehouseID, name, total, occupied))
	}
	return out, nil
}
