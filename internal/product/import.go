package product

import (
	"fmt"
	"io"
	"strings"

	"wms-backend/internal/audit"
	"wms-backend/internal/auth"
	"wms-backend/internal/database"
	"wms-backend/internal/i18n"
	"wms-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

type ImportResult struct {
	Created int      `json:"created"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors"`
}

// column positions of an import sheet
type importColumns struct {
	name, sku, category, unit int
}

var headerAliases = map[string][]string{
	"name":     {"név", "nev", "name", "termék", "termék neve", "product"},
	"sku":      {"sku", "cikkszám", "cikkszam", "kód", "kod"},
	"category": {"kategória", "kategoria", "category"},
	"unit":     {"egység", "egyseg", "mértékegység", "unit"},
}

// detectHeader maps a header row to column positions. ok is false when the
// row does not look like a header, in which case the default order
// name, sku, category, unit is used.
func detectHeader(row []string) (importColumns, bool) {
	cols := importColumns{name: -1, sku: -1, category: -1, unit: -1}
	for i, cell := range row {
		cell = strings.ToLower(strings.TrimSpace(cell))
		for key, aliases := range headerAliases {
			for _, a := range aliases {
				if cell != a {
					continue
				}
				switch key {
				case "name":
					cols.name = i
				case "sku":
					cols.sku = i
				case "category":
					cols.category = i
				case "unit":
					cols.unit = i
				}
			}
		}
	}
	if cols.name < 0 {
		return importColumns{name: 0, sku: 1, category: 2, unit: 3}, false
	}
	return cols, true
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// ImportProducts reads the first sheet of an XLSX workbook and creates a
// product per row. Rows whose SKU already exists are skipped.
func ImportProducts(db *gorm.DB, r io.Reader, userID uuid.UUID, userName string) (*ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, i18n.T("import_file_invalid"))
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, i18n.T("import_file_empty"))
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, i18n.T("import_file_invalid"))
	}
	if len(rows) == 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, i18n.T("import_file_empty"))
	}

	cols, hasHeader := detectHeader(rows[0])
	start := 0
	if hasHeader {
		start = 1
	}

	res := &ImportResult{Errors: []string{}}
	seenSKU := map[string]bool{}

	for i := start; i < len(rows); i++ {
		row := rows[i]
		line := i + 1

		name := cell(row, cols.name)
		if name == "" {
			if strings.Join(row, "") != "" {
				res.Errors = append(res.Errors, fmt.Sprintf("%d. sor: %s", line, i18n.T("product_name_required")))
			}
			continue
		}
		if len([]rune(name)) < 2 {
			res.Errors = append(res.Errors, fmt.Sprintf("%d. sor: %s", line, i18n.T("name_min_length")))
			continue
		}

		sku := cell(row, cols.sku)
		if sku != "" {
			if seenSKU[sku] {
				res.Skipped++
				continue
			}
			taken, err := skuTaken(db, sku, uuid.Nil)
			if err != nil {
				return nil, err
			}
			if taken {
				res.Skipped++
				continue
			}
			seenSKU[sku] = true
		}

		unit := cell(row, cols.unit)
		if unit == "" {
			unit = "db"
		}

		p := models.Product{
			Name:        name,
			SKU:         optional(sku),
			Category:    optional(cell(row, cols.category)),
			DefaultUnit: unit,
			IsActive:    true,
		}
		if err := db.Create(&p).Error; err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("%d. sor: %v", line, err))
			continue
		}
		if err := audit.WriteLog(db, audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  audit.EntityProduct,
			EntityID:    p.ID,
			Action:      models.AuditActionCreate,
			Description: "Termék importálva: " + p.Name,
			After:       p,
		}); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("%d. sor: %v", line, err))
		}
		res.Created++
	}

	return res, nil
}

// POST /api/v1/products/import (multipart, field "file")
func ImportProductsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, i18n.T("import_file_required"))
		}
		if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".xlsx") {
			return fiber.NewError(fiber.StatusBadRequest, i18n.T("import_file_invalid"))
		}

		file, err := fileHeader.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, i18n.T("import_file_invalid"))
		}
		defer file.Close()

		var userID uuid.UUID
		var userName string
		if u, err := auth.CurrentUser(c); err == nil {
			userID, userName = u.ID, u.Username
		}

		res, err := ImportProducts(database.DB, file, userID, userName)
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}
