// Package testutil provides an in-memory database and seed builders for tests.
package testutil

import (
	"testing"
	"time"

	"wms-backend/internal/clock"
	"wms-backend/internal/database"
	"wms-backend/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Today is the pinned calendar day of every test using FreezeClock.
var Today = time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)

// OpenDB returns a migrated in-memory sqlite database and installs it as
// database.DB for the duration of the test.
func OpenDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// every connection to :memory: is its own database
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	prev := database.DB
	database.DB = db
	t.Cleanup(func() {
		database.DB = prev
		_ = sqlDB.Close()
	})
	return db
}

// FreezeClock pins clock.Now to noon UTC of Today.
func FreezeClock(t testing.TB) {
	t.Helper()
	prevNow, prevLoc := clock.Now, clock.Location
	clock.Now = func() time.Time { return Today.Add(12 * time.Hour) }
	clock.Location = time.UTC
	t.Cleanup(func() {
		clock.Now = prevNow
		clock.Location = prevLoc
	})
}

// Days returns Today shifted by n days.
func Days(n int) time.Time {
	return Today.AddDate(0, 0, n)
}

func mustCreate(t testing.TB, db *gorm.DB, v any) {
	t.Helper()
	if err := db.Create(v).Error; err != nil {
		t.Fatalf("seed %T: %v", v, err)
	}
}

func User(t testing.TB, db *gorm.DB, role models.UserRole) *models.User {
	t.Helper()
	name := string(role) + "-" + uuid.NewString()[:8]
	u := &models.User{
		Username:     name,
		Email:        name + "@wms.local",
		PasswordHash: "x",
		Role:         role,
		IsActive:     true,
	}
	mustCreate(t, db, u)
	return u
}

func Warehouse(t testing.TB, db *gorm.DB, name string) *models.Warehouse {
	t.Helper()
	w := &models.Warehouse{
		Name: name,
		BinStructureTemplate: models.BinTemplate{
			Fields: []models.TemplateField{
				{Name: "sor", Label: "Sor", Required: true, Order: 1},
				{Name: "szint", Label: "Szint", Required: true, Order: 2},
			},
			CodeFormat:    "{sor}-{szint}",
			Separator:     "-",
			AutoUppercase: true,
			ZeroPadding:   true,
		},
		IsActive: true,
	}
	mustCreate(t, db, w)
	return w
}

func Bin(t testing.TB, db *gorm.DB, w *models.Warehouse, code string) *models.Bin {
	t.Helper()
	b := &models.Bin{
		WarehouseID:   w.ID,
		Code:          code,
		StructureData: models.StructureData{},
		Status:        models.BinStatusEmpty,
		IsActive:      true,
	}
	mustCreate(t, db, b)
	return b
}

func Product(t testing.TB, db *gorm.DB, name string) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, DefaultUnit: "kg", IsActive: true}
	mustCreate(t, db, p)
	return p
}

func Supplier(t testing.TB, db *gorm.DB, name string) *models.Supplier {
	t.Helper()
	s := &models.Supplier{CompanyName: name, IsActive: true}
	mustCreate(t, db, s)
	return s
}

// Content stores qty of p in b with the given batch and use-by date and
// marks the bin occupied.
func Content(t testing.TB, db *gorm.DB, b *models.Bin, p *models.Product, batch string, qty int64, useBy time.Time) *models.BinContent {
	t.Helper()
	c := &models.BinContent{
		BinID:            b.ID,
		ProductID:        p.ID,
		BatchNumber:      batch,
		UseByDate:        useBy,
		DeliveryDate:     Days(-1),
		Quantity:         decimal.NewFromInt(qty),
		ReservedQuantity: decimal.Zero,
		Unit:             "kg",
		PalletCount:      1,
		WeightKg:         decimal.NewFromInt(qty),
		ReceivedDate:     Days(-1),
		Status:           models.ContentAvailable,
	}
	mustCreate(t, db, c)
	if err := db.Model(b).Update("status", models.BinStatusOccupied).Error; err != nil {
		t.Fatalf("occupy bin: %v", err)
	}
	b.Status = models.BinStatusOccupied
	return c
}

// Reload fetches a fresh copy of the content.
func Reload(t testing.TB, db *gorm.DB, id uuid.UUID) *models.BinContent {
	t.Helper()
	var c models.BinContent
	if err := db.First(&c, "id = ?", id).Error; err != nil {
		t.Fatalf("reload content %s: %v", id, err)
	}
	return &c
}

func BinStatus(t testing.TB, db *gorm.DB, id uuid.UUID) models.BinStatus {
	t.Helper()
	var b models.Bin
	if err := db.First(&b, "id = ?", id).Error; err != nil {
		t.Fatalf("load bin %s: %v", id, err)
	}
	return b.Status
}
