package audit

import (
	"errors"
	"time"

	"wms-backend/internal/auth"
	"wms-backend/internal/database"
	"wms-backend/internal/httpx"
	"wms-backend/internal/i18n"
	"wms-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuditLogResponse struct {
	ID          uuid.UUID          `json:"id"`
	CreatedAt   string             `json:"created_at"`
	UserID      uuid.UUID          `json:"user_id"`
	UserName    string             `json:"user_name"`
	EntityType  string             `json:"entity_type"`
	EntityID    uuid.UUID          `json:"entity_id"`
	Action      models.AuditAction `json:"action"`
	Description string             `json:"description"`
	IsUndone    bool               `json:"is_undone"`
	UndoneBy    *uuid.UUID         `json:"undone_by"`
	UndoneAt    *string            `json:"undone_at"`
}

func toResponse(l models.AuditLog) AuditLogResponse {
	var undoneAt *string
	if l.UndoneAt != nil {
		s := l.UndoneAt.Format(time.RFC3339)
		undoneAt = &s
	}
	return AuditLogResponse{
		ID:          l.ID,
		CreatedAt:   l.CreatedAt.Format(time.RFC3339),
		UserID:      l.UserID,
		UserName:    l.UserName,
		EntityType:  l.EntityType,
		EntityID:    l.EntityID,
		Action:      l.Action,
		Description: l.Description,
		IsUndone:    l.IsUndone,
		UndoneBy:    l.UndoneBy,
		UndoneAt:    undoneAt,
	}
}

// GET /api/v1/audit-logs?entity_type=product&entity_id=...&user_id=...
func ListAuditLogsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := httpx.Pagination(c, 50, 200)
		if err != nil {
			return err
		}
		entityID, err := httpx.QueryUUID(c, "entity_id")
		if err != nil {
			return err
		}
		userID, err := httpx.QueryUUID(c, "user_id")
		if err != nil {
			return err
		}

		dbq := database.DB.Model(&models.AuditLog{})
		if et := c.Query("entity_type"); et != "" {
			dbq = dbq.Where("entity_type = ?", et)
		}
		if entityID != nil {
			dbq = dbq.Where("entity_id = ?", *entityID)
		}
		if userID != nil {
			dbq = dbq.Where("user_id = ?", *userID)
		}

		var total int64
		if err := dbq.Count(&total).Error; err != nil {
			return err
		}

		var logs []models.AuditLog
		if err := dbq.Order("created_at DESC").Offset(p.Offset()).Limit(p.PageSize).Find(&logs).Error; err != nil {
			return err
		}

		items := make([]AuditLogResponse, 0, len(logs))
		for _, l := range logs {
			items = append(items, toResponse(l))
		}
		return c.JSON(httpx.NewPage(items, total, p))
	}
}

// POST /api/v1/audit-logs/:id/undo
func UndoAuditLogHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		logID, err := httpx.ParamUUID(c, "id")
		if err != nil {
			return err
		}
		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		if err := UndoLog(logID, user.ID, user.Username); err != nil {
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				return fiber.NewError(fiber.StatusNotFound, i18n.T("audit_log_not_found"))
			case errors.Is(err, ErrAlreadyUndone), errors.Is(err, ErrNotUndoable),
				errors.Is(err, ErrUnknownEntity), errors.Is(err, ErrMissingSnapshot):
				return fiber.NewError(fiber.StatusBadRequest, i18n.T("undo_failed"))
			}
			return err
		}

		return c.JSON(fiber.Map{"message": i18n.T("undo_successful")})
	}
}
