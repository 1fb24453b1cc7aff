package bin

import (
	"errors"
	"strings"

	"wms-backend/internal/audit"
	"wms-backend/internal/auth"
	"wms-backend/internal/clock"
	"wms-backend/internal/database"
	"wms-backend/internal/httpx"
	"wms-backend/internal/i18n"
	"wms-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const sampleCodeCount = 20

type BulkDefaults struct {
	MaxWeight     *float64 `json:"max_weight" validate:"omitempty,gt=0"`
	MaxHeight     *float64 `json:"max_height" validate:"omitempty,gt=0"`
	Accessibility *string  `json:"accessibility" validate:"omitempty,max=50"`
}

type BulkCreateRequest struct {
	WarehouseID uuid.UUID            `json:"warehouse_id" validate:"required"`
	Ranges      map[string]RangeSpec `json:"ranges" validate:"required"`
	Defaults    *BulkDefaults        `json:"defaults"`
}

type BulkPreviewResponse struct {
	Count       int      `json:"count"`
	SampleCodes []string `json:"sample_codes"`
	Conflicts   []string `json:"conflicts"`
	Valid       bool     `json:"valid"`
}

type BulkIDsRequest struct {
	IDs    []uuid.UUID `json:"ids"`
	Reason *string     `json:"reason"`
}

type BulkFailure struct {
	ID    uuid.UUID `json:"id"`
	Error string    `json:"error"`
}

type BulkResult struct {
	Succeeded int           `json:"succeeded"`
	Failed    []BulkFailure `json:"failed"`
}

func generateFor(db *gorm.DB, body *BulkCreateRequest) ([]GeneratedBin, []string, error) {
	var w models.Warehouse
	if err := db.First(&w, "id = ?", body.WarehouseID).Error; err != nil {
		return nil, nil, fiber.NewError(fiber.StatusNotFound, i18n.T("warehouse_not_found"))
	}

	bins, err := Generate(&w.BinStructureTemplate, body.Ranges)
	if err != nil {
		return nil, nil, err
	}

	codes := make([]string, 0, len(bins))
	for _, b := range bins {
		codes = append(codes, b.Code)
	}
	conflicts, err := existingCodes(db, codes)
	if err != nil {
		return nil, nil, err
	}
	return bins, conflicts, nil
}

// existingCodes returns the subset of codes already used by a bin.
func existingCodes(db *gorm.DB, codes []string) ([]string, error) {
	conflicts := []string{}
	for start := 0; start < len(codes); start += 500 {
		end := min(start+500, len(codes))
		var found []string
		if err := db.Model(&models.Bin{}).Where("code IN ?", codes[start:end]).Pluck("code", &found).Error; err != nil {
			return nil, err
		}
		conflicts = append(conflicts, found...)
	}
	return conflicts, nil
}

// POST /api/v1/bins/bulk/preview
func PreviewBulkHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body BulkCreateRequest
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}

		bins, conflicts, err := generateFor(database.DB, &body)
		if err != nil {
			return err
		}

		sample := make([]string, 0, sampleCodeCount)
		for i := 0; i < len(bins) && i < sampleCodeCount; i++ {
			sample = append(sample, bins[i].Code)
		}

		return c.JSON(BulkPreviewResponse{
			Count:       len(bins),
			SampleCodes: sample,
			Conflicts:   conflicts,
			Valid:       len(conflicts) == 0,
		})
	}
}

// POST /api/v1/bins/bulk
func CreateBulkHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body BulkCreateRequest
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}

		var created int
		err := database.DB.Transaction(func(tx *gorm.DB) error {
			generated, conflicts, err := generateFor(tx, &body)
			if err != nil {
				return err
			}
			if len(generated) == 0 {
				return fiber.NewError(fiber.StatusBadRequest, i18n.T("bulk_no_bins_generated"))
			}
			if len(conflicts) > 0 {
				if len(conflicts) > 5 {
					conflicts = conflicts[:5]
				}
				return fiber.NewError(fiber.StatusBadRequest, i18n.Tf("bulk_conflicts_found", "codes", strings.Join(conflicts, ", ")))
			}

			defaults := BulkDefaults{}
			if body.Defaults != nil {
				defaults = *body.Defaults
			}

			rows := make([]models.Bin, 0, len(generated))
			for _, g := range generated {
				rows = append(rows, models.Bin{
					WarehouseID:   body.WarehouseID,
					Code:          g.Code,
					StructureData: g.StructureData,
					Status:        models.BinStatusEmpty,
					MaxWeight:     nullDecimal(defaults.MaxWeight),
					MaxHeight:     nullDecimal(defaults.MaxHeight),
					Accessibility: httpx.TrimPtr(defaults.Accessibility),
					IsActive:      true,
				})
			}
			if err := tx.CreateInBatches(&rows, 500).Error; err != nil {
				return err
			}
			created = len(rows)
			return nil
		})
		if err != nil {
			return err
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"created":      created,
			"warehouse_id": body.WarehouseID,
		})
	}
}

func bulkIDs(c *fiber.Ctx) (*BulkIDsRequest, error) {
	var body BulkIDsRequest
	if err := httpx.ParseBody(c, &body); err != nil {
		return nil, err
	}
	if len(body.IDs) == 0 {
		return nil, fiber.NewError(fiber.StatusUnprocessableEntity, i18n.T("bulk_empty_ids"))
	}
	return &body, nil
}

// eachBin runs fn for every id in its own transaction and collects failures.
func eachBin(ids []uuid.UUID, fn func(tx *gorm.DB, b *models.Bin) error) BulkResult {
	res := BulkResult{Failed: []BulkFailure{}}
	for _, id := range ids {
		err := database.DB.Transaction(func(tx *gorm.DB) error {
			var b models.Bin
			if err := tx.First(&b, "id = ?", id).Error; err != nil {
				return fiber.NewError(fiber.StatusNotFound, i18n.T("bin_not_found"))
			}
			return fn(tx, &b)
		})
		if err != nil {
			res.Failed = append(res.Failed, BulkFailure{ID: id, Error: errorMessage(err)})
			continue
		}
		res.Succeeded++
	}
	return res
}

func errorMessage(err error) string {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Message
	}
	return i18n.T("internal_error")
}

// POST /api/v1/bins/bulk-delete
func BulkDeleteHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		body, err := bulkIDs(c)
		if err != nil {
			return err
		}
		res := eachBin(body.IDs, func(tx *gorm.DB, b *models.Bin) error {
			if err := deleteBin(tx, b); err != nil {
				return err
			}
			audit.Record(c, tx, audit.EntityBin, b.ID, models.AuditActionDelete, "Tárolóhely törölve: "+b.Code, ToResponse(b), nil)
			return nil
		})
		return c.JSON(res)
	}
}

// POST /api/v1/bins/bulk-archive
func BulkArchiveHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		body, err := bulkIDs(c)
		if err != nil {
			return err
		}
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}
		reason := httpx.TrimPtr(body.Reason)
		res := eachBin(body.IDs, func(tx *gorm.DB, b *models.Bin) error {
			return archive(c, tx, b, userID, reason)
		})
		return c.JSON(res)
	}
}

func archive(c *fiber.Ctx, tx *gorm.DB, b *models.Bin, userID uuid.UUID, reason *string) error {
	if b.IsArchived {
		return fiber.NewError(fiber.StatusConflict, i18n.T("bin_archived"))
	}
	if stocked, err := HasStock(tx, b.ID); err != nil {
		return err
	} else if stocked {
		return fiber.NewError(fiber.StatusConflict, i18n.T("bin_not_empty"))
	}
	before := ToResponse(b)
	now := clock.Now()
	b.IsArchived = true
	b.ArchivedAt = &now
	b.ArchivedBy = &userID
	b.ArchiveReason = reason
	b.IsActive = false
	b.Status = models.BinStatusInactive
	if err := tx.Omit("Contents", "Warehouse").Save(b).Error; err != nil {
		return err
	}
	audit.Record(c, tx, audit.EntityBin, b.ID, models.AuditActionUpdate, "Tárolóhely archiválva: "+b.Code, before, ToResponse(b))
	return nil
}
