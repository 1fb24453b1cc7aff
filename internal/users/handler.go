package users

import (
	"strings"

	"wms-backend/internal/audit"
	"wms-backend/internal/auth"
	"wms-backend/internal/database"
	"wms-backend/internal/httpx"
	"wms-backend/internal/i18n"
	"wms-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CreateUserRequest struct {
	Username string          `json:"username" validate:"required,min=3,max=100"`
	Email    string          `json:"email" validate:"required,email,max=255"`
	Password string          `json:"password" validate:"required"`
	FullName *string         `json:"full_name" validate:"omitempty,max=255"`
	Role     models.UserRole `json:"role"`
	IsActive *bool           `json:"is_active"`
}

type UpdateUserRequest struct {
	Email    *string          `json:"email" validate:"omitempty,email,max=255"`
	Password *string          `json:"password"`
	FullName *string          `json:"full_name" validate:"omitempty,max=255"`
	Role     *models.UserRole `json:"role"`
	IsActive *bool            `json:"is_active"`
}

// auditView is the user snapshot stored in audit logs, without the hash.
type auditView struct {
	Username string          `json:"username"`
	Email    string          `json:"email"`
	FullName *string         `json:"full_name"`
	Role     models.UserRole `json:"role"`
	IsActive bool            `json:"is_active"`
}

func view(u *models.User) auditView {
	return auditView{Username: u.Username, Email: u.Email, FullName: u.FullName, Role: u.Role, IsActive: u.IsActive}
}

func exists(column, value string, exclude *models.User) (bool, error) {
	var count int64
	q := database.DB.Model(&models.User{}).Where(column+" = ?", value)
	if exclude != nil {
		q = q.Where("id <> ?", exclude.ID)
	}
	err := q.Count(&count).Error
	return count > 0, err
}

// GET /api/v1/users?role=&is_active=&search=
func ListUsersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := httpx.Pagination(c, 50, 200)
		if err != nil {
			return err
		}
		isActive, err := httpx.QueryBool(c, "is_active")
		if err != nil {
			return err
		}

		dbq := database.DB.Model(&models.User{})
		if role := c.Query("role"); role != "" {
			if !models.UserRole(role).Valid() {
				return fiber.NewError(fiber.StatusUnprocessableEntity, i18n.T("invalid_role"))
			}
			dbq = dbq.Where("role = ?", role)
		}
		if isActive != nil {
			dbq = dbq.Where("is_active = ?", *isActive)
		}
		if s := strings.TrimSpace(c.Query("search")); s != "" {
			pattern := database.ContainsPattern(s)
			dbq = dbq.Where("LOWER(username) LIKE ? OR LOWER(email) LIKE ? OR LOWER(full_name) LIKE ?", pattern, pattern, pattern)
		}

		var total int64
		if err := dbq.Count(&total).Error; err != nil {
			return err
		}

		var list []models.User
		if err := dbq.Order("username asc").Offset(p.Offset()).Limit(p.PageSize).Find(&list).Error; err != nil {
			return err
		}

		items := make([]auth.UserResponse, 0, len(list))
		for i := range list {
			items = append(items, auth.ToUserResponse(&list[i]))
		}
		return c.JSON(httpx.NewPage(items, total, p))
	}
}

// GET /api/v1/users/:id
func GetUserHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamUUID(c, "id")
		if err != nil {
			return err
		}
		var u models.User
		if err := database.DB.First(&u, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, i18n.T("user_not_found"))
		}
		return c.JSON(auth.ToUserResponse(&u))
	}
}

// POST /api/v1/users
func CreateUserHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateUserRequest
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}

		username := strings.TrimSpace(body.Username)
		email := strings.ToLower(strings.TrimSpace(body.Email))
		role := body.Role
		if role == "" {
			role = models.RoleWarehouse
		}
		if !role.Valid() {
			return fiber.NewError(fiber.StatusUnprocessableEntity, i18n.T("invalid_role"))
		}
		if err := auth.ValidatePasswordStrength(body.Password); err != nil {
			return err
		}
		if taken, err := exists("username", username, nil); err != nil {
			return err
		} else if taken {
			return fiber.NewError(fiber.StatusConflict, i18n.T("username_exists"))
		}
		if taken, err := exists("email", email, nil); err != nil {
			return err
		} else if taken {
			return fiber.NewError(fiber.StatusConflict, i18n.T("email_exists"))
		}

		hash, err := auth.HashPassword(body.Password)
		if err != nil {
			return err
		}

		u := models.User{
			Username:     username,
			Email:        email,
			PasswordHash: hash,
			FullName:     httpx.TrimPtr(body.FullName),
			Role:         role,
			IsActive:     true,
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&u).Error; err != nil {
				return err
			}
			if body.IsActive != nil && !*body.IsActive {
				u.IsActive = false
				if err := tx.Model(&u).Update("is_active", false).Error; err != nil {
					return err
				}
			}
			audit.Record(c, tx, audit.EntityUser, u.ID, models.AuditActionCreate, "Felhasználó létrehozva: "+u.Username, nil, view(&u))
			return nil
		})
		if err != nil {
			return err
		}

		return c.Status(fiber.StatusCreated).JSON(auth.ToUserResponse(&u))
	}
}

// PUT /api/v1/users/:id
func UpdateUserHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamUUID(c, "id")
		if err != nil {
			return err
		}

		var u models.User
		if err := database.DB.First(&u, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, i18n.T("user_not_found"))
		}
		before := view(&u)

		var body UpdateUserRequest
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}

		if body.Email != nil {
			email := strings.ToLower(strings.TrimSpace(*body.Email))
			if taken, err := exists("email", email, &u); err != nil {
				return err
			} else if taken {
				return fiber.NewError(fiber.StatusConflict, i18n.T("email_exists"))
			}
			u.Email = email
		}
		if body.Password != nil {
			if err := auth.ValidatePasswordStrength(*body.Password); err != nil {
				return err
			}
			hash, err := auth.HashPassword(*body.Password)
			if err != nil {
				return err
			}
			u.PasswordHash = hash
		}
		if body.FullName != nil {
			u.FullName = httpx.TrimPtr(body.FullName)
		}
		if body.Role != nil {
			if !body.Role.Valid() {
				return fiber.NewError(fiber.StatusUnprocessableEntity, i18n.T("invalid_role"))
			}
			u.Role = *body.Role
		}
		if body.IsActive != nil {
			u.IsActive = *body.IsActive
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Save(&u).Error; err != nil {
				return err
			}
			audit.Record(c, tx, audit.EntityUser, u.ID, models.AuditActionUpdate, "Felhasználó módosítva: "+u.Username, before, view(&u))
			return nil
		})
		if err != nil {
			return err
		}

		return c.JSON(auth.ToUserResponse(&u))
	}
}

// DELETE /api/v1/users/:id
func DeleteUserHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamUUID(c, "id")
		if err != nil {
			return err
		}
		currentID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}
		if id == currentID {
			return fiber.NewError(fiber.StatusBadRequest, i18n.T("cannot_delete_self"))
		}

		var u models.User
		if err := database.DB.First(&u, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, i18n.T("user_not_found"))
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Delete(&models.User{}, "id = ?", u.ID).Error; err != nil {
				return err
			}
			audit.Record(c, tx, audit.EntityUser, u.ID, models.AuditActionDelete, "Felhasználó törölve: "+u.Username, view(&u), nil)
			return nil
		})
		if err != nil {
			return err
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}
