package audit

import (
	"wms-backend/internal/auth"
	"wms-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Record writes an audit row attributed to the request's user. A failed
// audit write is logged and does not fail the request.
func Record(c *fiber.Ctx, db *gorm.DB, entityType string, entityID uuid.UUID, action models.AuditAction, description string, before, after any) {
	opts := LogOptions{
		EntityType:  entityType,
		EntityID:    entityID,
		Action:      action,
		Description: description,
		Before:      before,
		After:       after,
	}
	if u, err := auth.CurrentUser(c); err == nil {
		opts.UserID = u.ID
		opts.UserName = u.Username
	}
	if err := WriteLog(db, opts); err != nil {
		zap.L().Warn("audit log write failed",
			zap.String("entity_type", entityType),
			zap.String("entity_id", entityID.String()),
			zap.Error(err))
	}
}
