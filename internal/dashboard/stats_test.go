package dashboard_test

import (
	"testing"

	"wms-backend/internal/dashboard"
	"wms-backend/internal/testutil"

	"github.com/shopspring/decimal"
)

func TestStats(t *testing.T) {
	testutil.FreezeClock(t)
	db := testutil.OpenDB(t)
	main := testutil.Warehouse(t, db, "Központi")
	branch := testutil.Warehouse(t, db, "Debreceni")
	chicken := testutil.Product(t, db, "Csirkemell")
	milk := testutil.Product(t, db, "Tej")

	testutil.Content(t, db, testutil.Bin(t, db, main, "A-01"), chicken, "L1", 5, testutil.Days(2))
	testutil.Content(t, db, testutil.Bin(t, db, main, "A-02"), milk, "M1", 7, testutil.Days(10))
	testutil.Bin(t, db, main, "A-03")
	testutil.Bin(t, db, main, "A-04")
	testutil.Content(t, db, testutil.Bin(t, db, branch, "B-01"), chicken, "L2", 3, testutil.Days(-1))

	all, err := dashboard.Stats(db, nil)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if all.TotalBins != 5 || all.OccupiedBins != 3 || all.OccupancyRate != 60 {
		t.Errorf("occupancy = %d/%d (%v%%)", all.OccupiedBins, all.TotalBins, all.OccupancyRate)
	}
	if !all.TotalStockKg.Equal(decimal.NewFromInt(15)) || all.TotalProducts != 2 || all.TotalBatches != 3 {
		t.Errorf("stock = %s kg, %d products, %d batches", all.TotalStockKg, all.TotalProducts, all.TotalBatches)
	}
	if all.ExpiryWarnings.Critical != 1 || all.ExpiryWarnings.High != 1 || all.ExpiryWarnings.Expired != 1 {
		t.Errorf("expiry = %+v", all.ExpiryWarnings)
	}

	one, err := dashboard.Stats(db, &main.ID)
	if err != nil {
		t.Fatal(err)
	}
	if one.TotalBins != 4 || one.OccupiedBins != 2 || one.OccupancyRate != 50 {
		t.Errorf("main occupancy = %d/%d (%v%%)", one.OccupiedBins, one.TotalBins, one.OccupancyRate)
	}
	if !one.TotalStockKg.Equal(decimal.NewFromInt(12)) || one.ExpiryWarnings.Expired != 0 {
		t.Errorf("main stock = %s kg, expired %d", one.TotalStockKg, one.ExpiryWarnings.Expired)
	}
}
