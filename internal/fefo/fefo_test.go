package fefo

import (
	"testing"
	"time"

	"wms-backend/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func day(d int) time.Time {
	return time.Date(2025, 6, d, 0, 0, 0, 0, time.UTC)
}

func content(useBy time.Time, batch string, qty, reserved int64) models.BinContent {
	c := models.BinContent{
		BatchNumber:      batch,
		UseByDate:        useBy,
		Quantity:         decimal.NewFromInt(qty),
		ReservedQuantity: decimal.NewFromInt(reserved),
		Status:           models.ContentAvailable,
		ReceivedDate:     day(1),
	}
	c.ID = uuid.New()
	return c
}

func TestSortOrdersByUseByThenBatch(t *testing.T) {
	contents := []models.BinContent{
		content(day(20), "B2", 10, 0),
		content(day(10), "Z9", 10, 0),
		content(day(20), "B1", 10, 0),
	}
	Sort(contents)

	got := []string{contents[0].BatchNumber, contents[1].BatchNumber, contents[2].BatchNumber}
	want := []string{"Z9", "B1", "B2"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestSortTieBreaksOnReceivedDate(t *testing.T) {
	a := content(day(20), "B1", 10, 0)
	a.ReceivedDate = day(5)
	b := content(day(20), "B1", 10, 0)
	b.ReceivedDate = day(2)
	contents := []models.BinContent{a, b}
	Sort(contents)
	if contents[0].ID != b.ID {
		t.Fatal("earlier receipt should come first")
	}
}

func TestAllocateSkipsReservedAndStops(t *testing.T) {
	contents := []models.BinContent{
		content(day(10), "A", 50, 50),
		content(day(11), "B", 30, 10),
		content(day(12), "C", 100, 0),
		content(day(13), "D", 100, 0),
	}
	allocs, remaining := Allocate(contents, decimal.NewFromInt(40))

	if !remaining.IsZero() {
		t.Fatalf("remaining = %s, want 0", remaining)
	}
	if len(allocs) != 2 {
		t.Fatalf("len(allocs) = %d, want 2", len(allocs))
	}
	if allocs[0].Content.BatchNumber != "B" || !allocs[0].Quantity.Equal(decimal.NewFromInt(20)) {
		t.Errorf("first pick = %s/%s", allocs[0].Content.BatchNumber, allocs[0].Quantity)
	}
	if allocs[1].Content.BatchNumber != "C" || !allocs[1].Quantity.Equal(decimal.NewFromInt(20)) {
		t.Errorf("second pick = %s/%s", allocs[1].Content.BatchNumber, allocs[1].Quantity)
	}
}

func TestAllocateInsufficientStock(t *testing.T) {
	contents := []models.BinContent{
		content(day(10), "A", 5, 0),
		content(day(11), "B", 7, 2),
	}
	allocs, remaining := Allocate(contents, decimal.NewFromInt(100))

	sum := decimal.Zero
	for _, a := range allocs {
		sum = sum.Add(a.Quantity)
	}
	if !sum.Equal(TotalAvailable(contents)) {
		t.Errorf("allocated %s, want total available %s", sum, TotalAvailable(contents))
	}
	if !remaining.Equal(decimal.NewFromInt(90)) {
		t.Errorf("remaining = %s, want 90", remaining)
	}
}

func TestIsCompliant(t *testing.T) {
	oldest := content(day(5), "OLD", 10, 0)
	newer := content(day(15), "NEW", 10, 0)
	candidates := []models.BinContent{newer, oldest}

	ok, earliest := IsCompliant(&candidates[0], candidates)
	if ok || earliest == nil || earliest.ID != oldest.ID {
		t.Fatalf("issuing newer stock should violate FEFO, got ok=%v", ok)
	}

	ok, _ = IsCompliant(&candidates[1], candidates)
	if !ok {
		t.Fatal("issuing the oldest stock should be compliant")
	}
}

func TestIsCompliantSameDateDifferentBatch(t *testing.T) {
	a := content(day(5), "A", 10, 0)
	b := content(day(5), "B", 10, 0)
	candidates := []models.BinContent{a, b}
	if ok, _ := IsCompliant(&candidates[1], candidates); !ok {
		t.Fatal("equal use-by dates must not count as a violation")
	}
}

func TestEligible(t *testing.T) {
	today := day(10)
	c := content(day(10), "A", 1, 0)
	if !Eligible(&c, today) {
		t.Error("stock expiring today is still eligible")
	}
	c.UseByDate = day(9)
	if Eligible(&c, today) {
		t.Error("expired stock is not eligible")
	}
	c.UseByDate = day(20)
	c.Status = models.ContentScrapped
	if Eligible(&c, today) {
		t.Error("scrapped stock is not eligible")
	}
}
