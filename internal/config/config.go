package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	defaultDatabaseDSN = "host=localhost user=wms_user password=wms_password dbname=wms port=5432 sslmode=disable"
	defaultCORSOrigins = "http://localhost:5173"
)

type Config struct {
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseDSN string `env:"DATABASE_DSN" envDefault:"host=localhost user=wms_user password=wms_password dbname=wms port=5432 sslmode=disable"`
	CORSOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:5173"`
	Timezone    string `env:"TIMEZONE" envDefault:"Europe/Budapest"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"wms-backend"`

	Auth      AuthConfig
	RateLimit RateLimitConfig
	Expiry    ExpiryConfig
	Email     EmailConfig
	Scheduler SchedulerConfig
	Telemetry TelemetryConfig
}

type AuthConfig struct {
	JWTSecret                string `env:"JWT_SECRET"`
	AccessTokenExpireMinutes int    `env:"ACCESS_TOKEN_EXPIRE_MINUTES" envDefault:"15"`
	RefreshTokenExpireDays   int    `env:"REFRESH_TOKEN_EXPIRE_DAYS" envDefault:"7"`
}

// RateLimitConfig holds per-minute request budgets for each endpoint class.
type RateLimitConfig struct {
	Enabled bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	Default int  `env:"RATE_LIMIT_DEFAULT" envDefault:"100"`
	Auth    int  `env:"RATE_LIMIT_AUTH" envDefault:"20"`
	Read    int  `env:"RATE_LIMIT_READ" envDefault:"200"`
	Write   int  `env:"RATE_LIMIT_WRITE" envDefault:"100"`
	Bulk    int  `env:"RATE_LIMIT_BULK" envDefault:"20"`
	Reports int  `env:"RATE_LIMIT_REPORTS" envDefault:"50"`
}

type ExpiryConfig struct {
	WarningDays  int `env:"EXPIRY_WARNING_DAYS" envDefault:"30"`
	CriticalDays int `env:"EXPIRY_CRITICAL_DAYS" envDefault:"7"`
}

type EmailConfig struct {
	Enabled         bool     `env:"EMAIL_ENABLED" envDefault:"false"`
	APIURL          string   `env:"EMAIL_API_URL"`
	APIToken        string   `env:"EMAIL_API_TOKEN"`
	From            string   `env:"EMAIL_FROM" envDefault:"WMS Rendszer <noreply@wms.local>"`
	AlertRecipients []string `env:"ALERT_RECIPIENT_EMAILS" envSeparator:","`
}

type SchedulerConfig struct {
	Enabled bool `env:"SCHEDULER_ENABLED" envDefault:"true"`
}

type TelemetryConfig struct {
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// Load reads an optional env file and then the process environment.
// A missing env file is not an error.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	} else {
		_ = godotenv.Load()
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required settings and normalizes list values.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET must be provided")
	}
	if len(c.Auth.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 characters")
	}
	if c.Auth.AccessTokenExpireMinutes <= 0 {
		return errors.New("ACCESS_TOKEN_EXPIRE_MINUTES must be positive")
	}
	if c.Auth.RefreshTokenExpireDays <= 0 {
		return errors.New("REFRESH_TOKEN_EXPIRE_DAYS must be positive")
	}
	if c.Expiry.WarningDays < 1 || c.Expiry.WarningDays > 365 {
		return errors.New("EXPIRY_WARNING_DAYS must be between 1 and 365")
	}
	if c.Email.Enabled && c.Email.APIURL == "" {
		return errors.New("EMAIL_API_URL must be provided when EMAIL_ENABLED is true")
	}

	recipients := c.Email.AlertRecipients[:0]
	for _, r := range c.Email.AlertRecipients {
		if r = strings.TrimSpace(r); r != "" {
			recipients = append(recipients, r)
		}
	}
	c.Email.AlertRecipients = recipients
	return nil
}

// Warnings lists settings that still carry development defaults.
func (c *Config) Warnings() []string {
	var out []string
	if c.DatabaseDSN == defaultDatabaseDSN {
		out = append(out, "DATABASE_DSN uses the development default; set a production Postgres DSN")
	}
	if c.CORSOrigins == defaultCORSOrigins {
		out = append(out, "CORS_ALLOWED_ORIGINS uses the development default; set the production frontend origin")
	}
	return out
}

// CORSOriginList splits the comma separated origins and trims blanks.
func (c *Config) CORSOriginList() []string {
	parts := strings.Split(c.CORSOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
