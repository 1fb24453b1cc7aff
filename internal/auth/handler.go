package auth

import (
	"strings"
	"time"

	"wms-backend/internal/config"
	"wms-backend/internal/database"
	"wms-backend/internal/httpx"
	"wms-backend/internal/i18n"
	"wms-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type BootstrapAdminRequest struct {
	Username string  `json:"username" validate:"required,min=3,max=100"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required"`
	FullName *string `json:"full_name" validate:"omitempty,max=255"`
}

type UserResponse struct {
	ID        uuid.UUID       `json:"id"`
	Username  string          `json:"username"`
	Email     string          `json:"email"`
	FullName  *string         `json:"full_name"`
	Role      models.UserRole `json:"role"`
	RoleName  string          `json:"role_name"`
	IsActive  bool            `json:"is_active"`
	LastLogin *string         `json:"last_login"`
	CreatedAt string          `json:"created_at"`
	UpdatedAt string          `json:"updated_at"`
}

func ToUserResponse(u *models.User) UserResponse {
	var lastLogin *string
	if u.LastLogin != nil {
		s := u.LastLogin.Format(time.RFC3339)
		lastLogin = &s
	}
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      u.Role,
		RoleName:  i18n.RoleName(string(u.Role)),
		IsActive:  u.IsActive,
		LastLogin: lastLogin,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
		UpdatedAt: u.UpdatedAt.Format(time.RFC3339),
	}
}

// POST /api/v1/auth/login
func LoginHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}

		var user models.User
		if err := database.DB.Where("username = ?", strings.TrimSpace(body.Username)).First(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, i18n.T("invalid_credentials"))
		}
		if !CheckPassword(user.PasswordHash, body.Password) {
			return fiber.NewError(fiber.StatusUnauthorized, i18n.T("invalid_credentials"))
		}
		if !user.IsActive {
			return fiber.NewError(fiber.StatusForbidden, i18n.T("inactive_user"))
		}

		pair, err := GenerateTokenPair(cfg.Auth, &user)
		if err != nil {
			return err
		}

		now := time.Now()
		database.DB.Model(&user).Update("last_login", now)

		return c.JSON(pair)
	}
}

// POST /api/v1/auth/refresh
func RefreshHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RefreshRequest
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}

		_, userID, err := ParseToken(cfg.Auth.JWTSecret, body.RefreshToken, TokenTypeRefresh)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, i18n.T("invalid_token"))
		}

		var user models.User
		if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, i18n.T("invalid_token"))
		}
		if !user.IsActive {
			return fiber.NewError(fiber.StatusForbidden, i18n.T("inactive_user"))
		}

		pair, err := GenerateTokenPair(cfg.Auth, &user)
		if err != nil {
			return err
		}
		return c.JSON(pair)
	}
}

// GET /api/v1/auth/me
func MeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := CurrentUser(c)
		if err != nil {
			return err
		}
		return c.JSON(ToUserResponse(user))
	}
}

// POST /api/v1/auth/bootstrap-admin creates the first admin of an empty install.
func BootstrapAdminHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body BootstrapAdminRequest
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}
		if err := ValidatePasswordStrength(body.Password); err != nil {
			return err
		}

		var count int64
		if err := database.DB.Model(&models.User{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fiber.NewError(fiber.StatusForbidden, i18n.T("admin_exists"))
		}

		hash, err := HashPassword(body.Password)
		if err != nil {
			return err
		}

		user := models.User{
			Username:     strings.TrimSpace(body.Username),
			Email:        strings.ToLower(strings.TrimSpace(body.Email)),
			PasswordHash: hash,
			FullName:     httpx.TrimPtr(body.FullName),
			Role:         models.RoleAdmin,
			IsActive:     true,
		}
		if err := database.DB.Create(&user).Error; err != nil {
			return err
		}

		return c.Status(fiber.StatusCreated).JSON(ToUserResponse(&user))
	}
}
