package inventory_test

import (
	"errors"
	"testing"

	"wms-backend/internal/clock"
	"wms-backend/internal/expiry"
	"wms-backend/internal/inventory"
	"wms-backend/internal/models"
	"wms-backend/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func statusOf(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return 0
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

type fixture struct {
	db      *gorm.DB
	wh      *models.Warehouse
	product *models.Product
	staff   inventory.Actor
	manager inventory.Actor
}

func setup(t *testing.T) *fixture {
	t.Helper()
	testutil.FreezeClock(t)
	db := testutil.OpenDB(t)
	staff := testutil.User(t, db, models.RoleWarehouse)
	manager := testutil.User(t, db, models.RoleManager)
	return &fixture{
		db:      db,
		wh:      testutil.Warehouse(t, db, "Központi"),
		product: testutil.Product(t, db, "Csirkemell"),
		staff:   inventory.Actor{ID: staff.ID, Role: staff.Role},
		manager: inventory.Actor{ID: manager.ID, Role: manager.Role},
	}
}

func receiveReq(b *models.Bin, p *models.Product, batch string, qty int64, useBy string) *inventory.ReceiveRequest {
	return &inventory.ReceiveRequest{
		BinID:       b.ID,
		ProductID:   p.ID,
		BatchNumber: batch,
		UseByDate:   useBy,
		Quantity:    dec(qty),
		Unit:        "kg",
	}
}

func TestReceiveCreatesContentAndOccupiesBin(t *testing.T) {
	f := setup(t)
	b := testutil.Bin(t, f.db, f.wh, "A-01")
	cmr := "CMR-1"
	req := receiveReq(b, f.product, "L1", 40, clock.FormatDate(testutil.Days(20)))
	req.CMRNumber = &cmr

	res, err := inventory.Receive(f.db, req, f.staff)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if res.DaysUntilExpiry != 20 {
		t.Errorf("days until expiry = %d, want 20", res.DaysUntilExpiry)
	}
	if got := testutil.BinStatus(t, f.db, b.ID); got != models.BinStatusOccupied {
		t.Errorf("bin status = %s, want occupied", got)
	}
	if got := testutil.Reload(t, f.db, res.BinContentID).ReceivedDate; !got.Equal(clock.Now()) {
		t.Errorf("received date = %s, want %s", got, clock.Now())
	}

	var m models.BinMovement
	if err := f.db.First(&m, "id = ?", res.MovementID).Error; err != nil {
		t.Fatalf("movement: %v", err)
	}
	if m.MovementType != models.MovementReceipt || m.Reason != "supplier_delivery" {
		t.Errorf("movement = %s/%s", m.MovementType, m.Reason)
	}
	if m.ReferenceNumber == nil || *m.ReferenceNumber != cmr {
		t.Errorf("reference = %v, want %s", m.ReferenceNumber, cmr)
	}

	check, err := inventory.CheckCMR(f.db, cmr)
	if err != nil {
		t.Fatalf("cmr check: %v", err)
	}
	if !check.Exists || check.BinCode == nil || *check.BinCode != "A-01" {
		t.Errorf("cmr check = %+v", check)
	}
}

func TestReceiveSameBatchTopsUp(t *testing.T) {
	f := setup(t)
	b := testutil.Bin(t, f.db, f.wh, "A-01")
	useBy := clock.FormatDate(testutil.Days(20))

	first, err := inventory.Receive(f.db, receiveReq(b, f.product, "L1", 10, useBy), f.staff)
	if err != nil {
		t.Fatalf("first receive: %v", err)
	}
	second, err := inventory.Receive(f.db, receiveReq(b, f.product, "L1", 5, useBy), f.staff)
	if err != nil {
		t.Fatalf("second receive: %v", err)
	}
	if first.BinContentID != second.BinContentID {
		t.Fatal("same batch should reuse the content")
	}
	if got := testutil.Reload(t, f.db, first.BinContentID).Quantity; !got.Equal(dec(15)) {
		t.Errorf("quantity = %s, want 15", got)
	}
}

func TestReceiveValidation(t *testing.T) {
	f := setup(t)
	b := testutil.Bin(t, f.db, f.wh, "A-01")
	other := testutil.Product(t, f.db, "Sertéscomb")
	testutil.Content(t, f.db, b, other, "X", 5, testutil.Days(30))

	tests := []struct {
		name string
		req  *inventory.ReceiveRequest
		want int
	}{
		{"zero quantity", receiveReq(b, f.product, "L1", 0, clock.FormatDate(testutil.Days(5))), fiber.StatusUnprocessableEntity},
		{"use by today", receiveReq(b, f.product, "L1", 1, clock.FormatDate(testutil.Today)), fiber.StatusUnprocessableEntity},
		{"bad date", receiveReq(b, f.product, "L1", 1, "10/06/2025"), fiber.StatusUnprocessableEntity},
		{"other product in bin", receiveReq(b, f.product, "L1", 1, clock.FormatDate(testutil.Days(5))), fiber.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := inventory.Receive(f.db, tt.req, f.staff)
			if got := statusOf(err); got != tt.want {
				t.Fatalf("status = %d (%v), want %d", got, err, tt.want)
			}
		})
	}
}

func TestReceiveRejectsLightGrossWeight(t *testing.T) {
	f := setup(t)
	b := testutil.Bin(t, f.db, f.wh, "A-01")
	req := receiveReq(b, f.product, "L1", 10, clock.FormatDate(testutil.Days(5)))
	net, gross := dec(100), dec(90)
	req.WeightKg, req.GrossWeightKg = &net, &gross

	_, err := inventory.Receive(f.db, req, f.staff)
	if statusOf(err) != fiber.StatusUnprocessableEntity {
		t.Fatalf("err = %v, want 422", err)
	}
}

func TestIssueRefusesNonFefoPick(t *testing.T) {
	f := setup(t)
	older := testutil.Bin(t, f.db, f.wh, "A-01")
	newer := testutil.Bin(t, f.db, f.wh, "A-02")
	testutil.Content(t, f.db, older, f.product, "OLD", 10, testutil.Days(5))
	young := testutil.Content(t, f.db, newer, f.product, "NEW", 10, testutil.Days(20))

	_, err := inventory.Issue(f.db, &inventory.IssueRequest{
		BinContentID: young.ID, Quantity: dec(2), Reason: "production",
	}, f.staff)

	var v *inventory.FefoViolationError
	if !errors.As(err, &v) {
		t.Fatalf("err = %v, want FEFO violation", err)
	}
	if v.OldestBinCode != "A-01" || v.OldestUseByDate != clock.FormatDate(testutil.Days(5)) {
		t.Errorf("violation = %+v", v)
	}
}

func TestIssueOverrideNeedsManagerAndReason(t *testing.T) {
	f := setup(t)
	testutil.Content(t, f.db, testutil.Bin(t, f.db, f.wh, "A-01"), f.product, "OLD", 10, testutil.Days(5))
	young := testutil.Content(t, f.db, testutil.Bin(t, f.db, f.wh, "A-02"), f.product, "NEW", 10, testutil.Days(20))
	reason := "minőségi kifogás"

	req := &inventory.IssueRequest{BinContentID: young.ID, Quantity: dec(2), Reason: "production", ForceFefoOverride: true, OverrideReason: &reason}
	if _, err := inventory.Issue(f.db, req, f.staff); statusOf(err) != fiber.StatusForbidden {
		t.Fatalf("warehouse role override: err = %v, want 403", err)
	}

	noReason := *req
	noReason.OverrideReason = nil
	if _, err := inventory.Issue(f.db, &noReason, f.manager); statusOf(err) != fiber.StatusForbidden {
		t.Fatalf("override without reason: err = %v, want 403", err)
	}

	res, err := inventory.Issue(f.db, req, f.manager)
	if err != nil {
		t.Fatalf("manager override: %v", err)
	}
	if res.FefoCompliant || res.Warning == nil || res.Warning.Type != "fefo_violation" {
		t.Errorf("result = %+v", res)
	}

	var m models.BinMovement
	if err := f.db.First(&m, "id = ?", res.MovementID).Error; err != nil {
		t.Fatalf("movement: %v", err)
	}
	if !m.ForceOverride || m.FefoCompliant || !m.Quantity.Equal(dec(-2)) {
		t.Errorf("movement = %+v", m)
	}
}

func TestIssueToZeroArchivesAndEmptiesBin(t *testing.T) {
	f := setup(t)
	b := testutil.Bin(t, f.db, f.wh, "A-01")
	c := testutil.Content(t, f.db, b, f.product, "L1", 4, testutil.Days(10))

	res, err := inventory.Issue(f.db, &inventory.IssueRequest{BinContentID: c.ID, Quantity: dec(4), Reason: "sale"}, f.staff)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if res.BinContentID != nil || !res.RemainingQuantity.IsZero() {
		t.Errorf("result = %+v", res)
	}
	if got := testutil.BinStatus(t, f.db, b.ID); got != models.BinStatusEmpty {
		t.Errorf("bin status = %s, want empty", got)
	}

	var h models.BinHistory
	if err := f.db.First(&h, "bin_id = ?", b.ID).Error; err != nil {
		t.Fatalf("history: %v", err)
	}
	if h.RemovalReason != models.RemovalUsed || h.BatchNumber != "L1" {
		t.Errorf("history = %+v", h)
	}
	if !h.RemovedAt.Equal(clock.Now()) {
		t.Errorf("removed at = %s, want %s", h.RemovedAt, clock.Now())
	}
}

func TestIssueRespectsReservedAndExpiry(t *testing.T) {
	f := setup(t)
	b := testutil.Bin(t, f.db, f.wh, "A-01")
	c := testutil.Content(t, f.db, b, f.product, "L1", 10, testutil.Days(10))
	if err := f.db.Model(c).Update("reserved_quantity", dec(8)).Error; err != nil {
		t.Fatal(err)
	}

	_, err := inventory.Issue(f.db, &inventory.IssueRequest{BinContentID: c.ID, Quantity: dec(3), Reason: "sale"}, f.staff)
	if statusOf(err) != fiber.StatusConflict {
		t.Fatalf("over available: err = %v, want 409", err)
	}

	gone := testutil.Content(t, f.db, testutil.Bin(t, f.db, f.wh, "A-02"), testutil.Product(t, f.db, "Tej"), "E", 5, testutil.Days(-1))
	_, err = inventory.Issue(f.db, &inventory.IssueRequest{BinContentID: gone.ID, Quantity: dec(1), Reason: "sale"}, f.staff)
	if statusOf(err) != fiber.StatusBadRequest {
		t.Fatalf("expired: err = %v, want 400", err)
	}
}

func TestAdjust(t *testing.T) {
	f := setup(t)
	b := testutil.Bin(t, f.db, f.wh, "A-01")
	c := testutil.Content(t, f.db, b, f.product, "L1", 10, testutil.Days(10))
	if err := f.db.Model(c).Update("reserved_quantity", dec(3)).Error; err != nil {
		t.Fatal(err)
	}

	_, err := inventory.Adjust(f.db, &inventory.AdjustRequest{BinContentID: c.ID, NewQuantity: dec(2), Reason: "count"}, f.manager)
	if statusOf(err) != fiber.StatusConflict {
		t.Fatalf("below reserved: err = %v, want 409", err)
	}

	res, err := inventory.Adjust(f.db, &inventory.AdjustRequest{BinContentID: c.ID, NewQuantity: dec(7), Reason: "count"}, f.manager)
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if !res.Quantity.Equal(dec(-3)) || !res.QuantityAfter.Equal(dec(7)) {
		t.Errorf("result = %+v", res)
	}
}

func TestScrap(t *testing.T) {
	f := setup(t)
	b := testutil.Bin(t, f.db, f.wh, "A-01")
	c := testutil.Content(t, f.db, b, f.product, "L1", 6, testutil.Days(3))
	if err := f.db.Model(c).Update("reserved_quantity", dec(1)).Error; err != nil {
		t.Fatal(err)
	}

	_, err := inventory.Scrap(f.db, &inventory.ScrapRequest{BinContentID: c.ID, Reason: "damaged"}, f.manager)
	if statusOf(err) != fiber.StatusConflict {
		t.Fatalf("reserved content: err = %v, want 409", err)
	}

	if err := f.db.Model(c).Update("reserved_quantity", decimal.Zero).Error; err != nil {
		t.Fatal(err)
	}
	res, err := inventory.Scrap(f.db, &inventory.ScrapRequest{BinContentID: c.ID, Reason: "damaged"}, f.manager)
	if err != nil {
		t.Fatalf("scrap: %v", err)
	}
	if !res.Quantity.Equal(dec(-6)) {
		t.Errorf("movement quantity = %s, want -6", res.Quantity)
	}
	got := testutil.Reload(t, f.db, c.ID)
	if got.Status != models.ContentScrapped || !got.Quantity.IsZero() {
		t.Errorf("content = %s/%s", got.Status, got.Quantity)
	}
	if s := testutil.BinStatus(t, f.db, b.ID); s != models.BinStatusEmpty {
		t.Errorf("bin status = %s, want empty", s)
	}
}

func TestRecommendAllocatesInFefoOrder(t *testing.T) {
	f := setup(t)
	testutil.Content(t, f.db, testutil.Bin(t, f.db, f.wh, "A-02"), f.product, "B", 10, testutil.Days(20))
	testutil.Content(t, f.db, testutil.Bin(t, f.db, f.wh, "A-01"), f.product, "A", 5, testutil.Days(3))

	res, err := inventory.Recommend(f.db, f.product, dec(8))
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if len(res.Recommendations) != 2 {
		t.Fatalf("recommendations = %d, want 2", len(res.Recommendations))
	}
	first, second := res.Recommendations[0], res.Recommendations[1]
	if first.BinCode != "A-01" || !first.SuggestedQuantity.Equal(dec(5)) || first.Warning == nil {
		t.Errorf("first = %+v", first)
	}
	if second.BinCode != "A-02" || !second.SuggestedQuantity.Equal(dec(3)) {
		t.Errorf("second = %+v", second)
	}
	if len(res.FefoWarnings) != 0 {
		t.Errorf("warnings = %v", res.FefoWarnings)
	}

	short, err := inventory.Recommend(f.db, f.product, dec(50))
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if !short.TotalAvailable.Equal(dec(15)) || len(short.FefoWarnings) != 1 {
		t.Errorf("shortage result = %+v", short)
	}
}

func TestExpiryWarningsAndExpired(t *testing.T) {
	f := setup(t)
	testutil.Content(t, f.db, testutil.Bin(t, f.db, f.wh, "A-01"), f.product, "C", 1, testutil.Days(3))
	testutil.Content(t, f.db, testutil.Bin(t, f.db, f.wh, "A-02"), f.product, "H", 1, testutil.Days(10))
	testutil.Content(t, f.db, testutil.Bin(t, f.db, f.wh, "A-03"), f.product, "L", 1, testutil.Days(60))
	testutil.Content(t, f.db, testutil.Bin(t, f.db, f.wh, "A-04"), f.product, "E", 1, testutil.Days(-2))

	w, err := inventory.FindExpiryWarnings(f.db, 30, nil)
	if err != nil {
		t.Fatalf("warnings: %v", err)
	}
	if w.Summary.Total != 2 || w.Summary.Critical != 1 || w.Summary.High != 1 {
		t.Errorf("summary = %+v", w.Summary)
	}
	if w.Items[0].Urgency != expiry.Critical || w.Items[0].WarehouseName != "Központi" {
		t.Errorf("first item = %+v", w.Items[0])
	}

	expired, err := inventory.FindExpired(f.db, &f.wh.ID)
	if err != nil {
		t.Fatalf("expired: %v", err)
	}
	if len(expired) != 1 || expired[0].DaysSinceExpiry != 2 || expired[0].ActionRequired != "Selejtezés szükséges" {
		t.Errorf("expired = %+v", expired)
	}
}
