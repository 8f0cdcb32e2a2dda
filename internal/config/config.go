// Package config loads the immutable application configuration from the
// environment, with an optional .env file for local development.
package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	// Server
	Port        string
	Env         string
	LogLevel    string
	CORSOrigins []string

	// Database
	DBHost         string
	DBPort         string
	DBUser         string
	DBPassword     string
	DBName         string
	DBSSLMode      string
	DBMaxOpenConns int
	DBMaxIdleConns int

	// Identity provider
	AuthPublicKeyPEM string
	AuthSecret       string
	AuthIssuerSuffix string
	AuthAudiences    []string

	// Entitlements
	PremiumPlanKey      string
	FreeMaxCategories   int64
	FreeMaxBudgets      int64
	RedisAddr           string
	RedisPassword       string
	RedisDB             int
	EntitlementCacheTTL time.Duration

	// Jobs and admin
	ArchivalSweepSchedule string
	AdminAPIKey           string

	// Location used for period arithmetic.
	Timezone string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ORIGINS", "*")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "gastos")
	v.SetDefault("DB_PASSWORD", "gastos")
	v.SetDefault("DB_NAME", "gastos")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)

	v.SetDefault("CLERK_JWT_KEY", "")
	v.SetDefault("CLERK_SECRET_KEY", "")
	v.SetDefault("AUTH_ISSUER_SUFFIX", "clerk.accounts.dev")
	v.SetDefault("AUTH_AUDIENCES", "korly-api,authenticated")

	v.SetDefault("PREMIUM_PLAN_KEY", "plan_korly_premium")
	v.SetDefault("FREE_MAX_CATEGORIES", 10)
	v.SetDefault("FREE_MAX_BUDGETS", 3)
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("ENTITLEMENT_CACHE_TTL", "5m")

	v.SetDefault("ARCHIVAL_SWEEP_SCHEDULE", "@every 1h")
	v.SetDefault("ADMIN_API_KEY", "")
	v.SetDefault("TZ_NAME", "")
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:        v.GetString("PORT"),
		Env:         v.GetString("ENV"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		CORSOrigins: splitList(v.GetString("CORS_ORIGINS")),

		DBHost:         v.GetString("DB_HOST"),
		DBPort:         v.GetString("DB_PORT"),
		DBUser:         v.GetString("DB_USER"),
		DBPassword:     v.GetString("DB_PASSWORD"),
		DBName:         v.GetString("DB_NAME"),
		DBSSLMode:      v.GetString("DB_SSLMODE"),
		DBMaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		DBMaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),

		// PEM keys are often stored with escaped newlines in env files.
		AuthPublicKeyPEM: strings.ReplaceAll(v.GetString("CLERK_JWT_KEY"), `\n`, "\n"),
		AuthSecret:       v.GetString("CLERK_SECRET_KEY"),
		AuthIssuerSuffix: v.GetString("AUTH_ISSUER_SUFFIX"),
		AuthAudiences:    splitList(v.GetString("AUTH_AUDIENCES")),

		PremiumPlanKey:    v.GetString("PREMIUM_PLAN_KEY"),
		FreeMaxCategories: v.GetInt64("FREE_MAX_CATEGORIES"),
		FreeMaxBudgets:    v.GetInt64("FREE_MAX_BUDGETS"),
		RedisAddr:         v.GetString("REDIS_ADDR"),
		RedisPassword:     v.GetString("REDIS_PASSWORD"),
		RedisDB:           v.GetInt("REDIS_DB"),

		ArchivalSweepSchedule: v.GetString("ARCHIVAL_SWEEP_SCHEDULE"),
		AdminAPIKey:           v.GetString("ADMIN_API_KEY"),
		Timezone:              v.GetString("TZ_NAME"),
	}

	ttl, err := time.ParseDuration(v.GetString("ENTITLEMENT_CACHE_TTL"))
	if err != nil {
		return nil, fmt.Errorf("invalid ENTITLEMENT_CACHE_TTL %q: %w", v.GetString("ENTITLEMENT_CACHE_TTL"), err)
	}
	cfg.EntitlementCacheTTL = ttl

	if cfg.FreeMaxCategories < 0 || cfg.FreeMaxBudgets < 0 {
		return nil, fmt.Errorf("free-tier limits must not be negative")
	}

	return cfg, nil
}

// Location resolves the configured timezone, falling back to the server's.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TZ_NAME %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
