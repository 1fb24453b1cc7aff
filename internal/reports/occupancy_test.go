package reports_test

import (
	"testing"

	"wms-backend/internal/clock"
	"wms-backend/internal/models"
	"wms-backend/internal/reports"
	"wms-backend/internal/testutil"
)

func TestSnapshotOccupancyReplacesSameDay(t *testing.T) {
	testutil.FreezeClock(t)
	db := testutil.OpenDB(t)
	wh := testutil.Warehouse(t, db, "Központi")
	testutil.Bin(t, db, wh, "A-01")

	if _, err := reports.SnapshotOccupancy(db, clock.Today()); err != nil {
		t.Fatal(err)
	}
	testutil.Content(t, db, testutil.Bin(t, db, wh, "A-02"), testutil.Product(t, db, "Tej"), "M1", 4, testutil.Days(6))
	n, err := reports.SnapshotOccupancy(db, clock.Today())
	if err != nil || n != 1 {
		t.Fatalf("snapshot = %d, %v", n, err)
	}

	var snaps []models.OccupancySnapshot
	db.Find(&snaps)
	if len(snaps) != 1 {
		t.Fatalf("snapshots = %d, want 1", len(snaps))
	}
	if snaps[0].TotalBins != 2 || snaps[0].OccupiedBins != 1 {
		t.Errorf("snapshot = %+v", snaps[0])
	}
}

func TestHistoryUsesSnapshotsAndCurrentFallback(t *testing.T) {
	testutil.FreezeClock(t)
	db := testutil.OpenDB(t)
	wh := testutil.Warehouse(t, db, "Központi")
	b := testutil.Bin(t, db, wh, "A-01")
	testutil.Bin(t, db, wh, "A-02")
	testutil.Content(t, db, b, testutil.Product(t, db, "Tej"), "M1", 4, testutil.Days(6))

	past := models.OccupancySnapshot{Date: testutil.Days(-1), WarehouseID: wh.ID, TotalBins: 10, OccupiedBins: 4}
	if err := db.Create(&past).Error; err != nil {
		t.Fatal(err)
	}

	h, err := reports.History(db, 3, &wh.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if h.StartDate != "2025-06-08" || h.EndDate != "2025-06-10" || len(h.Data) != 3 {
		t.Fatalf("history = %s..%s with %d points", h.StartDate, h.EndDate, len(h.Data))
	}
	if p := h.Data[1]; p.TotalBins != 10 || p.OccupiedBins != 4 || p.OccupancyRate != 40 {
		t.Errorf("snapshot day = %+v", p)
	}
	if p := h.Data[2]; p.TotalBins != 2 || p.OccupiedBins != 1 || p.WarehouseName != "Központi" {
		t.Errorf("today = %+v", p)
	}
}
