package bin_test

import (
	"testing"

	"wms-backend/internal/bin"
	"wms-backend/internal/i18n"
	"wms-backend/internal/models"
	"wms-backend/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func newApp(user *models.User) *fiber.App {
	app := fiber.New()
	app.Use(testutil.AsUser(user))
	app.Post("/bins/bulk-delete", bin.BulkDeleteHandler())
	app.Post("/bins/bulk-archive", bin.BulkArchiveHandler())
	app.Delete("/bins/:id", bin.DeleteBinHandler())
	app.Post("/bins/:id/archive", bin.ArchiveBinHandler())
	app.Post("/bins/:id/restore", bin.RestoreBinHandler())
	return app
}

func loadBin(t *testing.T, db *gorm.DB, id uuid.UUID) *models.Bin {
	t.Helper()
	var b models.Bin
	if err := db.First(&b, "id = ?", id).Error; err != nil {
		t.Fatalf("load bin %s: %v", id, err)
	}
	return &b
}

func bulk(t *testing.T, app *fiber.App, path string, req bin.BulkIDsRequest) bin.BulkResult {
	t.Helper()
	resp := testutil.Do(t, app, "POST", path, req)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("%s = %d", path, resp.StatusCode)
	}
	var res bin.BulkResult
	testutil.Decode(t, resp, &res)
	return res
}

func checkFailures(t *testing.T, got []bin.BulkFailure, want []bin.BulkFailure) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("failed = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("failed[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestBulkDelete(t *testing.T) {
	testutil.FreezeClock(t)
	db := testutil.OpenDB(t)
	app := newApp(testutil.User(t, db, models.RoleManager))
	wh := testutil.Warehouse(t, db, "Központi")
	p := testutil.Product(t, db, "Tej")
	empty := testutil.Bin(t, db, wh, "A-01")
	stocked := testutil.Bin(t, db, wh, "A-02")
	testutil.Content(t, db, stocked, p, "L1", 5, testutil.Days(9))
	used := testutil.Bin(t, db, wh, "A-03")
	drained := testutil.Content(t, db, used, p, "L2", 5, testutil.Days(9))
	db.Model(drained).Update("quantity", 0)
	unknown := uuid.New()

	res := bulk(t, app, "/bins/bulk-delete", bin.BulkIDsRequest{IDs: []uuid.UUID{empty.ID, stocked.ID, used.ID, unknown}})
	if res.Succeeded != 1 {
		t.Errorf("succeeded = %d, want 1", res.Succeeded)
	}
	checkFailures(t, res.Failed, []bin.BulkFailure{
		{ID: stocked.ID, Error: i18n.T("bin_not_empty")},
		{ID: used.ID, Error: i18n.T("bin_has_history")},
		{ID: unknown, Error: i18n.T("bin_not_found")},
	})

	var left []models.Bin
	db.Order("code").Find(&left)
	if len(left) != 2 || left[0].ID != stocked.ID || left[1].ID != used.ID {
		t.Errorf("remaining bins = %+v", left)
	}

	if resp := testutil.Do(t, app, "POST", "/bins/bulk-delete", bin.BulkIDsRequest{}); resp.StatusCode != fiber.StatusUnprocessableEntity {
		t.Errorf("empty ids = %d, want 422", resp.StatusCode)
	}
}

func TestBulkArchive(t *testing.T) {
	testutil.FreezeClock(t)
	db := testutil.OpenDB(t)
	user := testutil.User(t, db, models.RoleManager)
	app := newApp(user)
	wh := testutil.Warehouse(t, db, "Központi")
	empty := testutil.Bin(t, db, wh, "A-01")
	stocked := testutil.Bin(t, db, wh, "A-02")
	testutil.Content(t, db, stocked, testutil.Product(t, db, "Tej"), "L1", 5, testutil.Days(9))
	unknown := uuid.New()
	reason := " szezon vége "

	res := bulk(t, app, "/bins/bulk-archive", bin.BulkIDsRequest{IDs: []uuid.UUID{empty.ID, stocked.ID, unknown}, Reason: &reason})
	if res.Succeeded != 1 {
		t.Errorf("succeeded = %d, want 1", res.Succeeded)
	}
	checkFailures(t, res.Failed, []bin.BulkFailure{
		{ID: stocked.ID, Error: i18n.T("bin_not_empty")},
		{ID: unknown, Error: i18n.T("bin_not_found")},
	})

	b := loadBin(t, db, empty.ID)
	if !b.IsArchived || b.IsActive || b.Status != models.BinStatusInactive {
		t.Errorf("archived bin = %+v", b)
	}
	if b.ArchivedBy == nil || *b.ArchivedBy != user.ID || b.ArchiveReason == nil || *b.ArchiveReason != "szezon vége" {
		t.Errorf("archive metadata = %v / %v", b.ArchivedBy, b.ArchiveReason)
	}
	if got := testutil.BinStatus(t, db, stocked.ID); got != models.BinStatusOccupied {
		t.Errorf("stocked bin status = %s", got)
	}

	res = bulk(t, app, "/bins/bulk-archive", bin.BulkIDsRequest{IDs: []uuid.UUID{empty.ID}})
	if res.Succeeded != 0 {
		t.Errorf("second archive succeeded = %d", res.Succeeded)
	}
	checkFailures(t, res.Failed, []bin.BulkFailure{{ID: empty.ID, Error: i18n.T("bin_archived")}})
}

func TestArchiveAndRestore(t *testing.T) {
	testutil.FreezeClock(t)
	db := testutil.OpenDB(t)
	app := newApp(testutil.User(t, db, models.RoleManager))
	wh := testutil.Warehouse(t, db, "Központi")
	b := testutil.Bin(t, db, wh, "A-01")
	path := "/bins/" + b.ID.String()

	if resp := testutil.Do(t, app, "POST", path+"/restore", nil); resp.StatusCode != fiber.StatusConflict {
		t.Fatalf("restore active bin = %d, want 409", resp.StatusCode)
	}
	if resp := testutil.Do(t, app, "POST", path+"/archive", nil); resp.StatusCode != fiber.StatusOK {
		t.Fatalf("archive = %d", resp.StatusCode)
	}
	if got := loadBin(t, db, b.ID); !got.IsArchived || got.ArchivedAt == nil || got.Status != models.BinStatusInactive {
		t.Errorf("after archive = %+v", got)
	}
	if resp := testutil.Do(t, app, "POST", path+"/archive", bin.ArchiveRequest{}); resp.StatusCode != fiber.StatusConflict {
		t.Fatalf("archive twice = %d, want 409", resp.StatusCode)
	}

	if resp := testutil.Do(t, app, "POST", path+"/restore", nil); resp.StatusCode != fiber.StatusOK {
		t.Fatalf("restore = %d", resp.StatusCode)
	}
	got := loadBin(t, db, b.ID)
	if got.IsArchived || !got.IsActive || got.Status != models.BinStatusEmpty || got.ArchivedAt != nil || got.ArchivedBy != nil {
		t.Errorf("after restore = %+v", got)
	}
}

func TestArchiveRefusesStockedBin(t *testing.T) {
	testutil.FreezeClock(t)
	db := testutil.OpenDB(t)
	app := newApp(testutil.User(t, db, models.RoleManager))
	wh := testutil.Warehouse(t, db, "Központi")
	b := testutil.Bin(t, db, wh, "A-01")
	testutil.Content(t, db, b, testutil.Product(t, db, "Tej"), "L1", 5, testutil.Days(9))

	if resp := testutil.Do(t, app, "POST", "/bins/"+b.ID.String()+"/archive", nil); resp.StatusCode != fiber.StatusConflict {
		t.Fatalf("archive = %d, want 409", resp.StatusCode)
	}
	if got := loadBin(t, db, b.ID); got.IsArchived {
		t.Error("stocked bin archived")
	}
}

func TestStockCheckErrorsBlockRemoval(t *testing.T) {
	db := testutil.OpenDB(t)
	app := newApp(testutil.User(t, db, models.RoleManager))
	wh := testutil.Warehouse(t, db, "Központi")
	b := testutil.Bin(t, db, wh, "A-01")
	if err := db.Migrator().DropTable(&models.BinContent{}); err != nil {
		t.Fatal(err)
	}

	if _, err := bin.HasStock(db, b.ID); err == nil {
		t.Fatal("HasStock without a contents table returned no error")
	}
	if resp := testutil.Do(t, app, "DELETE", "/bins/"+b.ID.String(), nil); resp.StatusCode != fiber.StatusInternalServerError {
		t.Fatalf("delete = %d, want 500", resp.StatusCode)
	}
	if resp := testutil.Do(t, app, "POST", "/bins/"+b.ID.String()+"/archive", nil); resp.StatusCode != fiber.StatusInternalServerError {
		t.Fatalf("archive = %d, want 500", resp.StatusCode)
	}
	res := bulk(t, app, "/bins/bulk-delete", bin.BulkIDsRequest{IDs: []uuid.UUID{b.ID}})
	checkFailures(t, res.Failed, []bin.BulkFailure{{ID: b.ID, Error: i18n.T("internal_error")}})

	if got := loadBin(t, db, b.ID); got.IsArchived {
		t.Error("bin archived without a stock check")
	}
}
