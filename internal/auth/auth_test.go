package auth_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"wms-backend/internal/auth"
	"wms-backend/internal/config"
	"wms-backend/internal/models"
	"wms-backend/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const password = "Raktar2025"

func testConfig() *config.Config {
	return &config.Config{Auth: config.AuthConfig{
		JWTSecret:                "0123456789abcdef0123456789abcdef",
		AccessTokenExpireMinutes: 15,
		RefreshTokenExpireDays:   7,
	}}
}

func newApp(cfg *config.Config) *fiber.App {
	app := fiber.New()
	app.Post("/auth/login", auth.LoginHandler(cfg))
	app.Post("/auth/refresh", auth.RefreshHandler(cfg))
	app.Post("/auth/bootstrap-admin", auth.BootstrapAdminHandler())

	protected := app.Group("", auth.JWTMiddleware(cfg))
	protected.Get("/auth/me", auth.MeHandler())
	protected.Get("/admin-only", auth.RequireAdmin(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func userWithPassword(t *testing.T, db *gorm.DB, role models.UserRole) *models.User {
	t.Helper()
	u := testutil.User(t, db, role)
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.Model(u).Update("password_hash", hash).Error; err != nil {
		t.Fatal(err)
	}
	return u
}

func do(t *testing.T, app *fiber.App, method, path, token string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func login(t *testing.T, app *fiber.App, username string) auth.TokenPair {
	t.Helper()
	resp := do(t, app, "POST", "/auth/login", "", auth.LoginRequest{Username: username, Password: password})
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("login status = %d", resp.StatusCode)
	}
	var pair auth.TokenPair
	if err := json.NewDecoder(resp.Body).Decode(&pair); err != nil {
		t.Fatal(err)
	}
	return pair
}

func TestLoginAndMe(t *testing.T) {
	db := testutil.OpenDB(t)
	cfg := testConfig()
	app := newApp(cfg)
	u := userWithPassword(t, db, models.RoleManager)

	pair := login(t, app, u.Username)
	if pair.TokenType != "bearer" || pair.ExpiresIn != 900 {
		t.Errorf("pair = %+v", pair)
	}

	resp := do(t, app, "GET", "/auth/me", pair.AccessToken, nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("me status = %d", resp.StatusCode)
	}
	var me auth.UserResponse
	if err := json.NewDecoder(resp.Body).Decode(&me); err != nil {
		t.Fatal(err)
	}
	if me.ID != u.ID || me.Role != models.RoleManager {
		t.Errorf("me = %+v", me)
	}

	var stored models.User
	db.First(&stored, "id = ?", u.ID)
	if stored.LastLogin == nil {
		t.Error("last login not recorded")
	}
}

func TestLoginFailures(t *testing.T) {
	db := testutil.OpenDB(t)
	app := newApp(testConfig())
	u := userWithPassword(t, db, models.RoleViewer)
	off := userWithPassword(t, db, models.RoleViewer)
	db.Model(off).Update("is_active", false)

	tests := []struct {
		name     string
		req      auth.LoginRequest
		wantCode int
	}{
		{"wrong password", auth.LoginRequest{Username: u.Username, Password: "Rossz1234"}, fiber.StatusUnauthorized},
		{"unknown user", auth.LoginRequest{Username: "senki", Password: password}, fiber.StatusUnauthorized},
		{"inactive user", auth.LoginRequest{Username: off.Username, Password: password}, fiber.StatusForbidden},
		{"missing fields", auth.LoginRequest{}, fiber.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if resp := do(t, app, "POST", "/auth/login", "", tt.req); resp.StatusCode != tt.wantCode {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantCode)
			}
		})
	}
}

func TestTokenTypesAreNotInterchangeable(t *testing.T) {
	db := testutil.OpenDB(t)
	app := newApp(testConfig())
	u := userWithPassword(t, db, models.RoleWarehouse)
	pair := login(t, app, u.Username)

	if resp := do(t, app, "GET", "/auth/me", pair.RefreshToken, nil); resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("refresh token on /me = %d, want 401", resp.StatusCode)
	}
	if resp := do(t, app, "POST", "/auth/refresh", "", auth.RefreshRequest{RefreshToken: pair.AccessToken}); resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("access token on /refresh = %d, want 401", resp.StatusCode)
	}
	if resp := do(t, app, "POST", "/auth/refresh", "", auth.RefreshRequest{RefreshToken: pair.RefreshToken}); resp.StatusCode != fiber.StatusOK {
		t.Errorf("refresh = %d, want 200", resp.StatusCode)
	}
	if resp := do(t, app, "GET", "/auth/me", "", nil); resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("no token = %d, want 401", resp.StatusCode)
	}
}

func TestRequireRole(t *testing.T) {
	db := testutil.OpenDB(t)
	app := newApp(testConfig())
	viewer := userWithPassword(t, db, models.RoleViewer)
	admin := userWithPassword(t, db, models.RoleAdmin)

	if resp := do(t, app, "GET", "/admin-only", login(t, app, viewer.Username).AccessToken, nil); resp.StatusCode != fiber.StatusForbidden {
		t.Errorf("viewer = %d, want 403", resp.StatusCode)
	}
	if resp := do(t, app, "GET", "/admin-only", login(t, app, admin.Username).AccessToken, nil); resp.StatusCode != fiber.StatusNoContent {
		t.Errorf("admin = %d, want 204", resp.StatusCode)
	}
}

func TestBootstrapAdminOnlyOnEmptyInstall(t *testing.T) {
	testutil.OpenDB(t)
	app := newApp(testConfig())
	req := auth.BootstrapAdminRequest{Username: "admin", Email: "Admin@WMS.local", Password: password}

	resp := do(t, app, "POST", "/auth/bootstrap-admin", "", req)
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("first bootstrap = %d, want 201", resp.StatusCode)
	}
	var created auth.UserResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatal(err)
	}
	if created.Role != models.RoleAdmin || created.Email != "admin@wms.local" {
		t.Errorf("created = %+v", created)
	}

	req.Username = "admin2"
	if resp := do(t, app, "POST", "/auth/bootstrap-admin", "", req); resp.StatusCode != fiber.StatusForbidden {
		t.Errorf("second bootstrap = %d, want 403", resp.StatusCode)
	}
}

func TestValidatePasswordStrength(t *testing.T) {
	tests := []struct {
		password string
		ok       bool
	}{
		{"Raktar2025", true},
		{"Rk1", false},
		{"raktar2025", false},
		{"RAKTAR2025", false},
		{"Raktarosok", false},
	}
	for _, tt := range tests {
		if err := auth.ValidatePasswordStrength(tt.password); (err == nil) != tt.ok {
			t.Errorf("ValidatePasswordStrength(%q) = %v, want ok=%v", tt.password, err, tt.ok)
		}
	}
}
