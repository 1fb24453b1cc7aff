package warehouse_test

import (
	"testing"

	"wms-backend/internal/models"
	"wms-backend/internal/testutil"
	"wms-backend/internal/warehouse"

	"github.com/gofiber/fiber/v2"
)

func newApp(user *models.User) *fiber.App {
	app := fiber.New()
	app.Use(testutil.AsUser(user))
	app.Delete("/warehouses/:id", warehouse.DeleteWarehouseHandler())
	app.Get("/warehouses/:id/stats", warehouse.WarehouseStatsHandler())
	return app
}

func TestDeleteWarehouse(t *testing.T) {
	db := testutil.OpenDB(t)
	app := newApp(testutil.User(t, db, models.RoleAdmin))
	full := testutil.Warehouse(t, db, "Központi")
	testutil.Bin(t, db, full, "A-01")
	empty := testutil.Warehouse(t, db, "Hűtőház")

	if resp := testutil.Do(t, app, "DELETE", "/warehouses/"+full.ID.String(), nil); resp.StatusCode != fiber.StatusConflict {
		t.Fatalf("delete with bins = %d, want 409", resp.StatusCode)
	}
	if resp := testutil.Do(t, app, "DELETE", "/warehouses/"+empty.ID.String(), nil); resp.StatusCode != fiber.StatusNoContent {
		t.Fatalf("delete empty = %d, want 204", resp.StatusCode)
	}
	if resp := testutil.Do(t, app, "DELETE", "/warehouses/"+empty.ID.String(), nil); resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("delete again = %d, want 404", resp.StatusCode)
	}
}

func TestDeleteWarehouseFailsWhenBinsUnknown(t *testing.T) {
	db := testutil.OpenDB(t)
	app := newApp(testutil.User(t, db, models.RoleAdmin))
	w := testutil.Warehouse(t, db, "Központi")
	if err := db.Migrator().DropTable(&models.Bin{}); err != nil {
		t.Fatal(err)
	}

	if resp := testutil.Do(t, app, "DELETE", "/warehouses/"+w.ID.String(), nil); resp.StatusCode != fiber.StatusInternalServerError {
		t.Fatalf("delete = %d, want 500", resp.StatusCode)
	}
	if err := db.First(&models.Warehouse{}, "id = ?", w.ID).Error; err != nil {
		t.Fatalf("warehouse removed without a bin check: %v", err)
	}
}

func TestWarehouseStats(t *testing.T) {
	testutil.FreezeClock(t)
	db := testutil.OpenDB(t)
	app := newApp(testutil.User(t, db, models.RoleViewer))
	w := testutil.Warehouse(t, db, "Központi")
	testutil.Content(t, db, testutil.Bin(t, db, w, "A-01"), testutil.Product(t, db, "Tej"), "L1", 5, testutil.Days(9))
	testutil.Bin(t, db, w, "A-02")
	reserved := testutil.Bin(t, db, w, "A-03")
	db.Model(reserved).Update("status", models.BinStatusReserved)
	archived := testutil.Bin(t, db, w, "A-04")
	db.Model(archived).Updates(map[string]any{"is_archived": true, "status": models.BinStatusInactive})

	resp := testutil.Do(t, app, "GET", "/warehouses/"+w.ID.String()+"/stats", nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("stats = %d", resp.StatusCode)
	}
	var stats warehouse.StatsResponse
	testutil.Decode(t, resp, &stats)
	want := warehouse.StatsResponse{
		WarehouseID:        w.ID,
		WarehouseName:      w.Name,
		TotalBins:          3,
		OccupiedBins:       1,
		EmptyBins:          1,
		ReservedBins:       1,
		UtilizationPercent: 33.33,
	}
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		part, total int64
		want        float64
	}{
		{0, 0, 0},
		{1, 3, 33.33},
		{2, 3, 66.67},
		{1, 8, 12.5},
		{5, 5, 100},
	}
	for _, tt := range tests {
		if got := warehouse.Percent(tt.part, tt.total); got != tt.want {
			t.Errorf("Percent(%d, %d) = %v, want %v", tt.part, tt.total, got, tt.want)
		}
	}
}
