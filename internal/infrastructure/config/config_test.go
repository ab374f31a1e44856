package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestProcess_Defaults(t *testing.T) {
	cfg, err := process(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": "s3cret",
	}))
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if cfg.Port != "8080" || cfg.Env != "development" || cfg.LogLevel != "info" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.RequestTimeout != 10*time.Second {
		t.Errorf("expected 10s request timeout, got %s", cfg.RequestTimeout)
	}
	if cfg.Mongo.Database != "coursehub" || cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("unexpected store defaults: %+v %+v", cfg.Mongo, cfg.Redis)
	}
	if cfg.Catalog.CacheTTL != time.Minute || cfg.Catalog.ReconcileWorkers != 8 {
		t.Errorf("unexpected catalog defaults: %+v", cfg.Catalog)
	}
	if cfg.IsProduction() {
		t.Errorf("default env should not be production")
	}
}

func TestProcess_Overrides(t *testing.T) {
	cfg, err := process(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":        "s3cret",
		"ENV":               "production",
		"COOKIE_SECURE":     "true",
		"SEED_ON_START":     "true",
		"REDIS_DB":          "3",
		"CATALOG_CACHE_TTL": "5m",
		"RECONCILE_WORKERS": "2",
	}))
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if !cfg.IsProduction() || !cfg.CookieSecure || !cfg.SeedOnStart {
		t.Errorf("flags not applied: %+v", cfg)
	}
	if cfg.Redis.DB != 3 || cfg.Catalog.CacheTTL != 5*time.Minute || cfg.Catalog.ReconcileWorkers != 2 {
		t.Errorf("overrides not applied: %+v %+v", cfg.Redis, cfg.Catalog)
	}
}

func TestProcess_Errors(t *testing.T) {
	cases := map[string]map[string]string{
		"missing secret": {},
		"bad duration":   {"JWT_SECRET": "x", "REQUEST_TIMEOUT": "soon"},
		"zero workers":   {"JWT_SECRET": "x", "RECONCILE_WORKERS": "0"},
		"non-numeric db": {"JWT_SECRET": "x", "REDIS_DB": "primary"},
	}
	for name, env := range cases {
		if _, err := process(context.Background(), envconfig.MapLookuper(env)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
