package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string   `mapstructure:"PORT"`
	Env         string   `mapstructure:"ENV"`
	DatabaseURL string   `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32    `mapstructure:"DB_MIN_CONNS"`
	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`

	RateLimitRPS   float64 `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int     `mapstructure:"RATE_LIMIT_BURST"`

	AuthIssuer        string `mapstructure:"AUTH_ISSUER"`
	AuthAudience      string `mapstructure:"AUTH_AUDIENCE"`
	AuthJWKSURL       string `mapstructure:"AUTH_JWKS_URL"`
	AuthDevSigningKey string `mapstructure:"AUTH_DEV_SIGNING_KEY"`

	AdvisoryAPIURL  string        `mapstructure:"ADVISORY_API_URL"`
	AdvisoryAPIKey  string        `mapstructure:"ADVISORY_API_KEY"`
	AdvisoryModel   string        `mapstructure:"ADVISORY_MODEL"`
	AdvisoryTimeout time.Duration `mapstructure:"ADVISORY_TIMEOUT"`

	// OverdueMissedAfter enables the server-side sweep that marks pending
	// dose events as missed once their scheduled time is this far in the
	// past. Zero disables the sweep and doses stay pending until the
	// patient acts on them.
	OverdueMissedAfter   time.Duration `mapstructure:"OVERDUE_MISSED_AFTER"`
	OverdueSweepInterval time.Duration `mapstructure:"OVERDUE_SWEEP_INTERVAL"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("ADVISORY_MODEL", "gpt-4o-mini")
	v.SetDefault("ADVISORY_TIMEOUT", "60s")
	v.SetDefault("OVERDUE_MISSED_AFTER", "0")
	v.SetDefault("OVERDUE_SWEEP_INTERVAL", "15m")

	// Bind env vars explicitly so Unmarshal picks them up
	for _, key := range []string{
		"PORT", "ENV", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
		"CORS_ORIGINS", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
		"AUTH_ISSUER", "AUTH_AUDIENCE", "AUTH_JWKS_URL", "AUTH_DEV_SIGNING_KEY",
		"ADVISORY_API_URL", "ADVISORY_API_KEY", "ADVISORY_MODEL", "ADVISORY_TIMEOUT",
		"OVERDUE_MISSED_AFTER", "OVERDUE_SWEEP_INTERVAL",
	} {
		v.BindEnv(key)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.IsDev() {
		log.Println("WARNING: server is running in DEVELOPMENT mode (ENV=development).")
		log.Println("WARNING: DevAuthMiddleware is active — unauthenticated requests get admin access.")
		log.Println("WARNING: set ENV=production and configure AUTH_ISSUER for production.")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run. Outside development
// an auth issuer or a dev signing key must be present so that real JWT
// authentication is enforced, and the advisory endpoint must be configured
// for the safety-check proxy to function.
func (c *Config) Validate() error {
	if !c.IsDev() && c.AuthIssuer == "" && c.AuthDevSigningKey == "" {
		return fmt.Errorf(
			"AUTH_ISSUER (or AUTH_DEV_SIGNING_KEY) must be set when ENV=%q; "+
				"refusing to start without authentication configuration", c.Env)
	}
	if c.AdvisoryAPIURL == "" {
		return fmt.Errorf("ADVISORY_API_URL is required")
	}
	if c.IsProduction() && c.AdvisoryAPIKey == "" {
		return fmt.Errorf("ADVISORY_API_KEY is required in production")
	}
	if c.OverdueMissedAfter < 0 {
		return fmt.Errorf("OVERDUE_MISSED_AFTER must not be negative")
	}
	if c.OverdueMissedAfter > 0 && c.OverdueSweepInterval <= 0 {
		return fmt.Errorf("OVERDUE_SWEEP_INTERVAL must be positive when the overdue sweep is enabled")
	}
	return nil
}
