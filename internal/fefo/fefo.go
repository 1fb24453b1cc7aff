// Package fefo orders and allocates stock by First Expired, First Out.
package fefo

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"wms-backend/internal/models"

	"github.com/shopspring/decimal"
)

// Eligible reports whether c may be picked on day today.
func Eligible(c *models.BinContent, today time.Time) bool {
	return c.Status == models.ContentAvailable &&
		c.Quantity.IsPositive() &&
		!c.UseByDate.Before(today)
}

// Compare orders by use-by date, then batch number, then receipt time.
func Compare(a, b *models.BinContent) int {
	if c := a.UseByDate.Compare(b.UseByDate); c != 0 {
		return c
	}
	if c := strings.Compare(a.BatchNumber, b.BatchNumber); c != 0 {
		return c
	}
	return cmp.Compare(a.ReceivedDate.UnixNano(), b.ReceivedDate.UnixNano())
}

func Sort(contents []models.BinContent) {
	slices.SortStableFunc(contents, func(a, b models.BinContent) int {
		return Compare(&a, &b)
	})
}

type Allocation struct {
	Content  *models.BinContent
	Quantity decimal.Decimal
}

// Allocate walks sorted contents taking free quantity until qty is covered.
// It returns the picks and the quantity left uncovered.
func Allocate(sorted []models.BinContent, qty decimal.Decimal) ([]Allocation, decimal.Decimal) {
	remaining := qty
	var out []Allocation
	for i := range sorted {
		if !remaining.IsPositive() {
			break
		}
		free := sorted[i].Available()
		if !free.IsPositive() {
			continue
		}
		take := decimal.Min(free, remaining)
		out = append(out, Allocation{Content: &sorted[i], Quantity: take})
		remaining = remaining.Sub(take)
	}
	return out, remaining
}

// TotalAvailable sums free quantity across contents.
func TotalAvailable(contents []models.BinContent) decimal.Decimal {
	total := decimal.Zero
	for i := range contents {
		total = total.Add(contents[i].Available())
	}
	return total
}

// Oldest returns the candidate that must be issued first, or nil.
func Oldest(candidates []models.BinContent) *models.BinContent {
	var oldest *models.BinContent
	for i := range candidates {
		if oldest == nil || Compare(&candidates[i], oldest) < 0 {
			oldest = &candidates[i]
		}
	}
	return oldest
}

// IsCompliant reports whether picking target respects FEFO: no other
// candidate has an earlier use-by date. The earliest candidate is returned
// for violation messages.
func IsCompliant(target *models.BinContent, candidates []models.BinContent) (bool, *models.BinContent) {
	var earliest *models.BinContent
	for i := range candidates {
		c := &candidates[i]
		if c.ID == target.ID {
			continue
		}
		if c.UseByDate.Before(target.UseByDate) && (earliest == nil || c.UseByDate.Before(earliest.UseByDate)) {
			earliest = c
		}
	}
	return earliest == nil, earliest
}
