package users_test

import (
	"testing"

	"wms-backend/internal/auth"
	"wms-backend/internal/models"
	"wms-backend/internal/testutil"
	"wms-backend/internal/users"

	"github.com/gofiber/fiber/v2"
)

const password = "Raktar2025"

func newApp(user *models.User) *fiber.App {
	app := fiber.New()
	app.Use(testutil.AsUser(user))
	app.Post("/users", users.CreateUserHandler())
	app.Put("/users/:id", users.UpdateUserHandler())
	app.Delete("/users/:id", users.DeleteUserHandler())
	return app
}

func TestCreateUserConflicts(t *testing.T) {
	db := testutil.OpenDB(t)
	admin := testutil.User(t, db, models.RoleAdmin)
	app := newApp(admin)

	resp := testutil.Do(t, app, "POST", "/users", users.CreateUserRequest{Username: "kovacs", Email: "Kovacs@WMS.local", Password: password})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("create = %d", resp.StatusCode)
	}
	var created auth.UserResponse
	testutil.Decode(t, resp, &created)
	if created.Role != models.RoleWarehouse || created.Email != "kovacs@wms.local" {
		t.Errorf("created = %+v", created)
	}

	tests := []struct {
		name string
		req  users.CreateUserRequest
		want int
	}{
		{"duplicate username", users.CreateUserRequest{Username: "kovacs", Email: "masik@wms.local", Password: password}, fiber.StatusConflict},
		{"duplicate email", users.CreateUserRequest{Username: "nagy", Email: "KOVACS@wms.local", Password: password}, fiber.StatusConflict},
		{"weak password", users.CreateUserRequest{Username: "nagy", Email: "nagy@wms.local", Password: "gyenge"}, fiber.StatusUnprocessableEntity},
		{"invalid role", users.CreateUserRequest{Username: "nagy", Email: "nagy@wms.local", Password: password, Role: "owner"}, fiber.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if resp := testutil.Do(t, app, "POST", "/users", tt.req); resp.StatusCode != tt.want {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}

	var count int64
	db.Model(&models.User{}).Count(&count)
	if count != 2 {
		t.Errorf("users = %d, want 2", count)
	}
}

func TestUpdateUserEmailConflict(t *testing.T) {
	db := testutil.OpenDB(t)
	app := newApp(testutil.User(t, db, models.RoleAdmin))
	a := testutil.User(t, db, models.RoleViewer)
	b := testutil.User(t, db, models.RoleViewer)

	if resp := testutil.Do(t, app, "PUT", "/users/"+a.ID.String(), users.UpdateUserRequest{Email: &b.Email}); resp.StatusCode != fiber.StatusConflict {
		t.Fatalf("update = %d, want 409", resp.StatusCode)
	}
	own := a.Email
	if resp := testutil.Do(t, app, "PUT", "/users/"+a.ID.String(), users.UpdateUserRequest{Email: &own}); resp.StatusCode != fiber.StatusOK {
		t.Fatalf("update with own email = %d, want 200", resp.StatusCode)
	}
}

func TestDeleteUser(t *testing.T) {
	db := testutil.OpenDB(t)
	admin := testutil.User(t, db, models.RoleAdmin)
	other := testutil.User(t, db, models.RoleViewer)
	app := newApp(admin)

	if resp := testutil.Do(t, app, "DELETE", "/users/"+admin.ID.String(), nil); resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("self delete = %d, want 400", resp.StatusCode)
	}
	if err := db.First(&models.User{}, "id = ?", admin.ID).Error; err != nil {
		t.Fatalf("admin gone after refused self delete: %v", err)
	}

	if resp := testutil.Do(t, app, "DELETE", "/users/"+other.ID.String(), nil); resp.StatusCode != fiber.StatusNoContent {
		t.Fatalf("delete = %d, want 204", resp.StatusCode)
	}
	if resp := testutil.Do(t, app, "DELETE", "/users/"+other.ID.String(), nil); resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("second delete = %d, want 404", resp.StatusCode)
	}
}
