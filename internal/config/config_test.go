package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
)

func newViper(env map[string]string) *viper.Viper {
	v := viper.New()
	setDefaults(v)
	for k, val := range env {
		v.Set(k, val)
	}
	return v
}

func TestFromViper(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := fromViper(newViper(nil))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Port != "8080" {
			t.Errorf("expected port 8080, got %s", cfg.Port)
		}
		if cfg.FreeMaxCategories != 10 || cfg.FreeMaxBudgets != 3 {
			t.Errorf("unexpected free limits %d/%d", cfg.FreeMaxCategories, cfg.FreeMaxBudgets)
		}
		if cfg.EntitlementCacheTTL != 5*time.Minute {
			t.Errorf("expected 5m cache ttl, got %s", cfg.EntitlementCacheTTL)
		}
		if len(cfg.AuthAudiences) != 2 || cfg.AuthAudiences[0] != "korly-api" {
			t.Errorf("unexpected audiences %v", cfg.AuthAudiences)
		}
		if cfg.AuthIssuerSuffix != "clerk.accounts.dev" {
			t.Errorf("unexpected issuer suffix %q", cfg.AuthIssuerSuffix)
		}
	})

	t.Run("overrides", func(t *testing.T) {
		cfg, err := fromViper(newViper(map[string]string{
			"FREE_MAX_BUDGETS": "5",
			"AUTH_AUDIENCES":   " a , b ,,c ",
			"CLERK_JWT_KEY":    `-----BEGIN PUBLIC KEY-----\nabc\n-----END PUBLIC KEY-----`,
		}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.FreeMaxBudgets != 5 {
			t.Errorf("expected 5 budgets, got %d", cfg.FreeMaxBudgets)
		}
		if len(cfg.AuthAudiences) != 3 || cfg.AuthAudiences[2] != "c" {
			t.Errorf("unexpected audiences %v", cfg.AuthAudiences)
		}
		if cfg.AuthPublicKeyPEM != "-----BEGIN PUBLIC KEY-----\nabc\n-----END PUBLIC KEY-----" {
			t.Errorf("escaped newlines were not expanded: %q", cfg.AuthPublicKeyPEM)
		}
	})

	t.Run("invalid cache ttl", func(t *testing.T) {
		_, err := fromViper(newViper(map[string]string{"ENTITLEMENT_CACHE_TTL": "soon"}))
		if err == nil {
			t.Fatal("expected error for invalid duration")
		}
	})

	t.Run("negative limits", func(t *testing.T) {
		_, err := fromViper(newViper(map[string]string{"FREE_MAX_CATEGORIES": "-1"}))
		if err == nil {
			t.Fatal("expected error for negative limit")
		}
	})
}

func TestLocation(t *testing.T) {
	cfg := &Config{Timezone: "America/Mexico_City"}
	loc, err := cfg.Location()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loc.String() != "America/Mexico_City" {
		t.Errorf("unexpected location %s", loc)
	}

	if _, err := (&Config{Timezone: "Mars/Olympus"}).Location(); err == nil {
		t.Error("expected error for unknown zone")
	}
}
