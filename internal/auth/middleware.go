package auth

import (
	"errors"
	"strings"

	"wms-backend/internal/config"
	"wms-backend/internal/database"
	"wms-backend/internal/i18n"
	"wms-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	CtxUserIDKey   = "user_id"
	CtxUserRoleKey = "user_role"
	CtxUserKey     = "user"
)

func JWTMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, i18n.T("not_authenticated"))
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return fiber.NewError(fiber.StatusUnauthorized, i18n.T("invalid_token"))
		}

		_, userID, err := ParseToken(cfg.Auth.JWTSecret, parts[1], TokenTypeAccess)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return fiber.NewError(fiber.StatusUnauthorized, i18n.T("token_expired"))
			}
			return fiber.NewError(fiber.StatusUnauthorized, i18n.T("invalid_token"))
		}

		var user models.User
		if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, i18n.T("invalid_token"))
		}
		if !user.IsActive {
			return fiber.NewError(fiber.StatusForbidden, i18n.T("inactive_user"))
		}

		c.Locals(CtxUserIDKey, user.ID)
		c.Locals(CtxUserRoleKey, user.Role)
		c.Locals(CtxUserKey, &user)

		return c.Next()
	}
}

func RequireRole(allowedRoles ...models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !HasRole(c, allowedRoles...) {
			return fiber.NewError(fiber.StatusForbidden, i18n.T("not_enough_permissions"))
		}
		return c.Next()
	}
}

func RequireAdmin() fiber.Handler {
	return RequireRole(models.RoleAdmin)
}

func RequireManager() fiber.Handler {
	return RequireRole(models.RoleAdmin, models.RoleManager)
}

func RequireWarehouse() fiber.Handler {
	return RequireRole(models.RoleAdmin, models.RoleManager, models.RoleWarehouse)
}

func RequireViewer() fiber.Handler {
	return RequireRole(models.RoleAdmin, models.RoleManager, models.RoleWarehouse, models.RoleViewer)
}

// HasRole reports whether the authenticated user holds one of roles.
func HasRole(c *fiber.Ctx, roles ...models.UserRole) bool {
	role, ok := c.Locals(CtxUserRoleKey).(models.UserRole)
	if !ok {
		return false
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func CurrentUserID(c *fiber.Ctx) (uuid.UUID, error) {
	id, ok := c.Locals(CtxUserIDKey).(uuid.UUID)
	if !ok {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, i18n.T("not_authenticated"))
	}
	return id, nil
}

func CurrentUser(c *fiber.Ctx) (*models.User, error) {
	u, ok := c.Locals(CtxUserKey).(*models.User)
	if !ok || u == nil {
		return nil, fiber.NewError(fiber.StatusUnauthorized, i18n.T("not_authenticated"))
	}
	return u, nil
}
