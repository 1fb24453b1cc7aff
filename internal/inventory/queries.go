package inventory

import (
	"fmt"
	"io"
	"strings"

	"wms-backend/internal/clock"
	"wms-backend/internal/database"
	"wms-backend/internal/expiry"
	"wms-backend/internal/fefo"
	"wms-backend/internal/i18n"
	"wms-backend/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

type StockLevel struct {
	BinContentID          uuid.UUID               `json:"bin_content_id"`
	BinID                 uuid.UUID               `json:"bin_id"`
	BinCode               string                  `json:"bin_code"`
	WarehouseID           uuid.UUID               `json:"warehouse_id"`
	WarehouseName         string                  `json:"warehouse_name"`
	ProductID             uuid.UUID               `json:"product_id"`
	ProductName           string                  `json:"product_name"`
	SKU                   *string                 `json:"sku"`
	BatchNumber           string                  `json:"batch_number"`
	Quantity              decimal.Decimal         `json:"quantity"`
	ReservedQuantity      decimal.Decimal         `json:"reserved_quantity"`
	AvailableQuantity     decimal.Decimal         `json:"available_quantity"`
	Unit                  string                  `json:"unit"`
	WeightKg              decimal.Decimal         `json:"weight_kg"`
	UseByDate             string                  `json:"use_by_date"`
	DaysUntilExpiry       int                     `json:"days_until_expiry"`
	Urgency               expiry.Urgency          `json:"urgency"`
	Status                models.BinContentStatus `json:"status"`
	SupplierID            *uuid.UUID              `json:"supplier_id"`
	SupplierName          *string                 `json:"supplier_name"`
	IsFefoCompliant       bool                    `json:"is_fefo_compliant"`
	OldestBinCode         *string                 `json:"oldest_bin_code"`
	OldestUseByDate       *string                 `json:"oldest_use_by_date"`
	OldestDaysUntilExpiry *int                    `json:"oldest_days_until_expiry"`
}

type StockFilter struct {
	WarehouseID *uuid.UUID
	ProductID   *uuid.UUID
	Search      string
}

// stockQuery selects available contents joined with their bin and product.
func stockQuery(db *gorm.DB, f StockFilter) *gorm.DB {
	q := db.Model(&models.BinContent{}).
		Joins("JOIN bins ON bins.id = bin_contents.bin_id").
		Joins("JOIN products ON products.id = bin_contents.product_id").
		Where("bin_contents.status = ? AND bin_contents.quantity > 0", models.ContentAvailable)
	if f.WarehouseID != nil {
		q = q.Where("bins.warehouse_id = ?", *f.WarehouseID)
	}
	if f.ProductID != nil {
		q = q.Where("bin_contents.product_id = ?", *f.ProductID)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		p := database.ContainsPattern(s)
		q = q.Where("LOWER(products.name) LIKE ? OR LOWER(bins.code) LIKE ? OR LOWER(bin_contents.batch_number) LIKE ?", p, p, p)
	}
	return q
}

// StockLevels lists available stock ordered by expiry then product name,
// each row carrying its FEFO position among all stock of the product.
func StockLevels(db *gorm.DB, f StockFilter) ([]StockLevel, error) {
	var contents []models.BinContent
	err := stockQuery(db, f).
		Preload("Bin.Warehouse").Preload("Product").Preload("Supplier").
		Order("bin_contents.use_by_date ASC").Order("products.name ASC").
		Find(&contents).Error
	if err != nil {
		return nil, err
	}

	// oldest eligible content per product across all warehouses
	oldest := map[uuid.UUID]*models.BinContent{}
	productIDs := make([]uuid.UUID, 0)
	for _, c := range contents {
		if _, ok := oldest[c.ProductID]; !ok {
			oldest[c.ProductID] = nil
			productIDs = append(productIDs, c.ProductID)
		}
	}
	if len(productIDs) > 0 {
		var pool []models.BinContent
		if err := db.Preload("Bin").
			Where("product_id IN ? AND status = ? AND quantity > 0 AND use_by_date >= ?",
				productIDs, models.ContentAvailable, clock.Today()).
			Find(&pool).Error; err != nil {
			return nil, err
		}
		fefo.Sort(pool)
		for i := range pool {
			if oldest[pool[i].ProductID] == nil {
				oldest[pool[i].ProductID] = &pool[i]
			}
		}
	}

	out := make([]StockLevel, 0, len(contents))
	for i := range contents {
		out = append(out, toStockLevel(&contents[i], oldest[contents[i].ProductID]))
	}
	return out, nil
}

func toStockLevel(c *models.BinContent, oldest *models.BinContent) StockLevel {
	info := expiry.Of(c.UseByDate)
	s := StockLevel{
		BinContentID:      c.ID,
		BinID:             c.BinID,
		ProductID:         c.ProductID,
		BatchNumber:       c.BatchNumber,
		Quantity:          c.Quantity,
		ReservedQuantity:  c.ReservedQuantity,
		AvailableQuantity: c.Available(),
		Unit:              c.Unit,
		WeightKg:          c.WeightKg,
		UseByDate:         clock.FormatDate(c.UseByDate),
		DaysUntilExpiry:   info.DaysUntilExpiry,
		Urgency:           info.Urgency,
		Status:            c.Status,
		SupplierID:        c.SupplierID,
		IsFefoCompliant:   true,
	}
	if s.WeightKg.IsZero() {
		s.WeightKg = c.Quantity
	}
	if c.Bin != nil {
		s.BinCode = c.Bin.Code
		s.WarehouseID = c.Bin.WarehouseID
		if c.Bin.Warehouse != nil {
			s.WarehouseName = c.Bin.Warehouse.Name
		}
	}
	if c.Product != nil {
		s.ProductName = c.Product.Name
		s.SKU = c.Product.SKU
	}
	if c.Supplier != nil {
		name := c.Supplier.CompanyName
		s.SupplierName = &name
	}
	if oldest != nil && oldest.ID != c.ID && oldest.UseByDate.Before(c.UseByDate) {
		s.IsFefoCompliant = false
		date := clock.FormatDate(oldest.UseByDate)
		days := clock.DaysUntil(oldest.UseByDate)
		s.OldestUseByDate = &date
		s.OldestDaysUntilExpiry = &days
		if oldest.Bin != nil {
			code := oldest.Bin.Code
			s.OldestBinCode = &code
		}
	}
	return s
}

var stockSheetHeader = []any{
	"Tárolóhely", "Raktár", "Termék", "SKU", "Sarzs", "Mennyiség", "Foglalt",
	"Egység", "Súly (kg)", "Lejárat", "Napok a lejáratig", "Beszállító",
}

// WriteStockLevelsXLSX renders stock levels as a single sheet workbook.
func WriteStockLevelsXLSX(w io.Writer, sheet string, rows []StockLevel) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, "A1", &stockSheetHeader); err != nil {
		return err
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		sku, supplier := "", ""
		if r.SKU != nil {
			sku = *r.SKU
		}
		if r.SupplierName != nil {
			supplier = *r.SupplierName
		}
		qty, _ := r.Quantity.Float64()
		reserved, _ := r.ReservedQuantity.Float64()
		weight, _ := r.WeightKg.Float64()
		row := []any{
			r.BinCode, r.WarehouseName, r.ProductName, sku, r.BatchNumber, qty, reserved,
			r.Unit, weight, r.UseByDate, r.DaysUntilExpiry, supplier,
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	if err := f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return err
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

type Recommendation struct {
	BinID             uuid.UUID       `json:"bin_id"`
	BinContentID      uuid.UUID       `json:"bin_content_id"`
	BinCode           string          `json:"bin_code"`
	BatchNumber       string          `json:"batch_number"`
	UseByDate         string          `json:"use_by_date"`
	DaysUntilExpiry   int             `json:"days_until_expiry"`
	AvailableQuantity decimal.Decimal `json:"available_quantity"`
	SuggestedQuantity decimal.Decimal `json:"suggested_quantity"`
	IsFefoCompliant   bool            `json:"is_fefo_compliant"`
	Warning           *string         `json:"warning"`
}

type RecommendationResult struct {
	ProductID         uuid.UUID        `json:"product_id"`
	ProductName       string           `json:"product_name"`
	SKU               *string          `json:"sku"`
	RequestedQuantity decimal.Decimal  `json:"requested_quantity"`
	Recommendations   []Recommendation `json:"recommendations"`
	TotalAvailable    decimal.Decimal  `json:"total_available"`
	FefoWarnings      []string         `json:"fefo_warnings"`
}

// Recommend allocates qty of a product across bins in FEFO order.
func Recommend(db *gorm.DB, product *models.Product, qty decimal.Decimal) (*RecommendationResult, error) {
	candidates, err := Candidates(db, product.ID)
	if err != nil {
		return nil, err
	}
	res := &RecommendationResult{
		ProductID:         product.ID,
		ProductName:       product.Name,
		SKU:               product.SKU,
		RequestedQuantity: qty,
		Recommendations:   []Recommendation{},
		TotalAvailable:    fefo.TotalAvailable(candidates),
		FefoWarnings:      []string{},
	}

	allocs, remaining := fefo.Allocate(candidates, qty)
	for _, a := range allocs {
		c := a.Content
		info := expiry.Of(c.UseByDate)
		r := Recommendation{
			BinID:             c.BinID,
			BinContentID:      c.ID,
			BatchNumber:       c.BatchNumber,
			UseByDate:         clock.FormatDate(c.UseByDate),
			DaysUntilExpiry:   info.DaysUntilExpiry,
			AvailableQuantity: c.Available(),
			SuggestedQuantity: a.Quantity,
			IsFefoCompliant:   true,
		}
		if c.Bin != nil {
			r.BinCode = c.Bin.Code
		}
		if info.Urgency == expiry.Critical {
			msg := info.Message
			r.Warning = &msg
		}
		res.Recommendations = append(res.Recommendations, r)
	}
	if remaining.IsPositive() {
		res.FefoWarnings = append(res.FefoWarnings,
			i18n.Tf("fefo_shortage", "requested", i18n.FormatNumber(qty.InexactFloat64()),
				"available", i18n.FormatNumber(res.TotalAvailable.InexactFloat64())))
	}
	return res, nil
}

type ExpiryWarning struct {
	BinContentID    uuid.UUID       `json:"bin_content_id"`
	BinCode         string          `json:"bin_code"`
	WarehouseID     uuid.UUID       `json:"warehouse_id"`
	WarehouseName   string          `json:"warehouse_name"`
	ProductName     string          `json:"product_name"`
	SKU             *string         `json:"sku"`
	BatchNumber     string          `json:"batch_number"`
	Quantity        decimal.Decimal `json:"quantity"`
	Unit            string          `json:"unit"`
	UseByDate       string          `json:"use_by_date"`
	DaysUntilExpiry int             `json:"days_until_expiry"`
	Urgency         expiry.Urgency  `json:"urgency"`
	WarningMessage  string          `json:"warning_message"`
}

type ExpiryWarnings struct {
	Items       []ExpiryWarning `json:"items"`
	Summary     expiry.Summary  `json:"summary"`
	WarehouseID *uuid.UUID      `json:"warehouse_id"`
}

func expiringQuery(db *gorm.DB, warehouseID *uuid.UUID) *gorm.DB {
	q := db.Model(&models.BinContent{}).
		Joins("JOIN bins ON bins.id = bin_contents.bin_id").
		Where("bin_contents.status = ? AND bin_contents.quantity > 0", models.ContentAvailable).
		Preload("Bin.Warehouse").Preload("Product")
	if warehouseID != nil {
		q = q.Where("bins.warehouse_id = ?", *warehouseID)
	}
	return q
}

// FindExpiryWarnings lists stock expiring after today and within days.
func FindExpiryWarnings(db *gorm.DB, days int, warehouseID *uuid.UUID) (*ExpiryWarnings, error) {
	today := clock.Today()
	var contents []models.BinContent
	err := expiringQuery(db, warehouseID).
		Where("bin_contents.use_by_date > ? AND bin_contents.use_by_date <= ?", today, today.AddDate(0, 0, days)).
		Order("bin_contents.use_by_date ASC").
		Find(&contents).Error
	if err != nil {
		return nil, err
	}

	out := &ExpiryWarnings{Items: make([]ExpiryWarning, 0, len(contents)), WarehouseID: warehouseID}
	for i := range contents {
		c := &contents[i]
		info := expiry.Of(c.UseByDate)
		w := ExpiryWarning{
			BinContentID:    c.ID,
			BatchNumber:     c.BatchNumber,
			Quantity:        c.Quantity,
			Unit:            c.Unit,
			UseByDate:       clock.FormatDate(c.UseByDate),
			DaysUntilExpiry: info.DaysUntilExpiry,
			Urgency:         info.Urgency,
			WarningMessage:  info.Message,
		}
		if c.Bin != nil {
			w.BinCode = c.Bin.Code
			w.WarehouseID = c.Bin.WarehouseID
			if c.Bin.Warehouse != nil {
				w.WarehouseName = c.Bin.Warehouse.Name
			}
		}
		if c.Product != nil {
			w.ProductName = c.Product.Name
			w.SKU = c.Product.SKU
		}
		out.Items = append(out.Items, w)
		out.Summary.Add(info.Urgency)
	}
	return out, nil
}

type ExpiredItem struct {
	BinContentID    uuid.UUID               `json:"bin_content_id"`
	BinCode         string                  `json:"bin_code"`
	WarehouseName   string                  `json:"warehouse_name"`
	ProductName     string                  `json:"product_name"`
	SKU             *string                 `json:"sku"`
	BatchNumber     string                  `json:"batch_number"`
	Quantity        decimal.Decimal         `json:"quantity"`
	Unit            string                  `json:"unit"`
	UseByDate       string                  `json:"use_by_date"`
	DaysSinceExpiry int                     `json:"days_since_expiry"`
	Status          models.BinContentStatus `json:"status"`
	ActionRequired  string                  `json:"action_required"`
}

// FindExpired lists stock whose use-by date has passed.
func FindExpired(db *gorm.DB, warehouseID *uuid.UUID) ([]ExpiredItem, error) {
	var contents []models.BinContent
	err := expiringQuery(db, warehouseID).
		Where("bin_contents.use_by_date < ?", clock.Today()).
		Order("bin_contents.use_by_date ASC").
		Find(&contents).Error
	if err != nil {
		return nil, err
	}
	out := make([]ExpiredItem, 0, len(contents))
	for i := range contents {
		c := &contents[i]
		item := ExpiredItem{
			BinContentID:    c.ID,
			BatchNumber:     c.BatchNumber,
			Quantity:        c.Quantity,
			Unit:            c.Unit,
			UseByDate:       clock.FormatDate(c.UseByDate),
			DaysSinceExpiry: -clock.DaysUntil(c.UseByDate),
			Status:          c.Status,
			ActionRequired:  i18n.T("scrap_required"),
		}
		if c.Bin != nil {
			item.BinCode = c.Bin.Code
			if c.Bin.Warehouse != nil {
				item.WarehouseName = c.Bin.Warehouse.Name
			}
		}
		if c.Product != nil {
			item.ProductName = c.Product.Name
			item.SKU = c.Product.SKU
		}
		out = append(out, item)
	}
	return out, nil
}

type CMRCheck struct {
	Exists       bool       `json:"exists"`
	BinContentID *uuid.UUID `json:"bin_content_id"`
	BinCode      *string    `json:"bin_code"`
}

// CheckCMR reports whether a delivery note number was already received.
func CheckCMR(db *gorm.DB, cmr string) (*CMRCheck, error) {
	var c models.BinContent
	err := db.Preload("Bin").Where("cmr_number = ?", cmr).Order("created_at DESC").Limit(1).Find(&c).Error
	if err != nil {
		return nil, err
	}
	if c.ID == uuid.Nil {
		return &CMRCheck{}, nil
	}
	out := &CMRCheck{Exists: true, BinContentID: &c.ID}
	if c.Bin != nil {
		code := c.Bin.Code
		out.BinCode = &code
	}
	return out, nil
}
