package config

import (
	"slices"
	"strings"
	"testing"
)

const secret = "0123456789abcdef0123456789abcdef"

func valid() *Config {
	return &Config{
		Auth:   AuthConfig{JWTSecret: secret, AccessTokenExpireMinutes: 15, RefreshTokenExpireDays: 7},
		Expiry: ExpiryConfig{WarningDays: 30, CriticalDays: 7},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"ok", func(*Config) {}, ""},
		{"missing secret", func(c *Config) { c.Auth.JWTSecret = "" }, "JWT_SECRET"},
		{"short secret", func(c *Config) { c.Auth.JWTSecret = "short" }, "32 characters"},
		{"zero access ttl", func(c *Config) { c.Auth.AccessTokenExpireMinutes = 0 }, "ACCESS_TOKEN"},
		{"warning window", func(c *Config) { c.Expiry.WarningDays = 400 }, "EXPIRY_WARNING_DAYS"},
		{"email without api", func(c *Config) { c.Email.Enabled = true }, "EMAIL_API_URL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.want == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want mention of %s", err, tt.want)
			}
		})
	}
}

func TestValidateTrimsRecipients(t *testing.T) {
	c := valid()
	c.Email.AlertRecipients = []string{" a@wms.local ", "", "b@wms.local"}
	if err := c.Validate(); err != nil {
		t.Fatal(err)
	}
	if want := []string{"a@wms.local", "b@wms.local"}; !slices.Equal(c.Email.AlertRecipients, want) {
		t.Errorf("recipients = %q", c.Email.AlertRecipients)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("JWT_SECRET", secret)
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://wms.example.com, ,http://localhost:5173")
	t.Setenv("RATE_LIMIT_AUTH", "5")
	t.Setenv("ALERT_RECIPIENT_EMAILS", "raktar@example.com,vezeto@example.com")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPPort != "8080" || cfg.Auth.AccessTokenExpireMinutes != 15 || !cfg.RateLimit.Enabled {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if cfg.RateLimit.Auth != 5 {
		t.Errorf("auth limit = %d", cfg.RateLimit.Auth)
	}
	if got := cfg.CORSOriginList(); !slices.Equal(got, []string{"https://wms.example.com", "http://localhost:5173"}) {
		t.Errorf("origins = %q", got)
	}
	if len(cfg.Email.AlertRecipients) != 2 {
		t.Errorf("recipients = %q", cfg.Email.AlertRecipients)
	}
	if len(cfg.Warnings()) != 1 {
		t.Errorf("warnings = %q, want only the DSN default", cfg.Warnings())
	}
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error without JWT_SECRET")
	}
}
