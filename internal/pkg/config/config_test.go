package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" || cfg.Env != "development" || cfg.LogLevel != "info" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Fatalf("expected 24h ttl, got %s", cfg.TokenTTL)
	}
	if cfg.Cookie.Name != "access_token" || cfg.Cookie.Secure {
		t.Fatalf("unexpected cookie defaults: %+v", cfg.Cookie)
	}
	if cfg.JWTSecret != "dev-secret" {
		t.Fatalf("expected development secret fallback, got %q", cfg.JWTSecret)
	}
	if cfg.SuppressQueue {
		t.Fatalf("queue must run by default")
	}
	if got := cfg.AllowedOrigins(); len(got) != 1 || got[0] != "http://localhost:8080" {
		t.Fatalf("unexpected origins: %v", got)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"PORT":           "9000",
		"ENV":            "production",
		"JWT_SECRET":     "s3cret",
		"TOKEN_TTL":      "2h",
		"FRONTEND_URL":   "https://app.example.com/",
		"CORS_ORIGINS":   "https://app.example.com,https://admin.example.com",
		"SUPPRESS_QUEUE": "true",
		"MONGO_DB":       "stylelab_test",
		"REDIS_DB":       "3",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9000" || !cfg.IsProduction() || cfg.TokenTTL != 2*time.Hour {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.FrontendURL != "https://app.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.FrontendURL)
	}
	if len(cfg.AllowedOrigins()) != 2 {
		t.Fatalf("unexpected origins: %v", cfg.AllowedOrigins())
	}
	if !cfg.SuppressQueue || cfg.Mongo.Database != "stylelab_test" || cfg.Redis.DB != 3 {
		t.Fatalf("unexpected nested config: %+v", cfg)
	}
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	_, err := load(context.Background(), envconfig.MapLookuper(map[string]string{"ENV": "production"}))
	if err == nil {
		t.Fatalf("expected error without JWT_SECRET in production")
	}
}

func TestLoad_InvalidTTL(t *testing.T) {
	_, err := load(context.Background(), envconfig.MapLookuper(map[string]string{"TOKEN_TTL": "0s"}))
	if err == nil {
		t.Fatalf("expected error for zero ttl")
	}
}
