package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("RENDER", "1")
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := cfg.GetString(HTTPPort); got != "4000" {
		t.Errorf("expected default port 4000, got %q", got)
	}
	if got := cfg.GetDuration(BookingSessionTTL); got != 2*time.Hour {
		t.Errorf("expected 2h session ttl, got %v", got)
	}
	if got := cfg.GetString(PricePolicy); got != "priority" {
		t.Errorf("expected priority policy, got %q", got)
	}
}

func TestLoadFileAndEnvironment(t *testing.T) {
	t.Setenv("RENDER", "1")
	dir := t.TempDir()
	yaml := "api:\n  base_url: http://rental.internal\n  timeout: 3s\npricing:\n  policy: preferred\n"
	if err := os.WriteFile(filepath.Join(dir, "app.yaml"), []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PRICE_POLICY", "priority")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := cfg.GetString(RentalAPIURL); got != "http://rental.internal" {
		t.Errorf("expected file value, got %q", got)
	}
	if got := cfg.GetDuration(RentalAPITimeout); got != 3*time.Second {
		t.Errorf("expected 3s timeout, got %v", got)
	}
	if got := cfg.GetString(PricePolicy); got != "priority" {
		t.Errorf("expected environment to win, got %q", got)
	}
}

func TestLoadAppEnvironment(t *testing.T) {
	t.Setenv("RENDER", "1")
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if IsDevelopment(cfg) {
		t.Errorf("expected production on render, got %q", cfg.GetString(AppEnv))
	}

	t.Setenv("APP_ENV", "development")
	cfg, err = Load(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !IsDevelopment(cfg) {
		t.Errorf("expected APP_ENV to win, got %q", cfg.GetString(AppEnv))
	}
}
