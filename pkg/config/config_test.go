package config

import (
	"os"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != "8090" {
		t.Errorf("Port = %q, want %q", cfg.Port, "8090")
	}
	if cfg.Env != "development" {
		t.Errorf("Env = %q, want %q", cfg.Env, "development")
	}
	if cfg.Fetch.MaxTickers != 100 {
		t.Errorf("Fetch.MaxTickers = %d, want 100", cfg.Fetch.MaxTickers)
	}
	if cfg.Scheduler.Enabled {
		t.Error("Scheduler.Enabled should default to false")
	}
}

func TestLoad_InvalidEnv(t *testing.T) {
	os.Clearenv()
	os.Setenv("ENV", "local")

	if _, err := Load(); err == nil {
		t.Error("expected error for invalid ENV")
	}
}

func TestLoad_Overrides(t *testing.T) {
	os.Clearenv()
	os.Setenv("ENV", "production")
	os.Setenv("PORT", "9000")
	os.Setenv("FETCH_MAX_TICKERS", "25")
	os.Setenv("DB_MAX_CONNS", "40")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != "9000" {
		t.Errorf("Port = %q, want %q", cfg.Port, "9000")
	}
	if cfg.Fetch.MaxTickers != 25 {
		t.Errorf("Fetch.MaxTickers = %d, want 25", cfg.Fetch.MaxTickers)
	}
	if cfg.Database.MaxConns != 40 {
		t.Errorf("Database.MaxConns = %d, want 40", cfg.Database.MaxConns)
	}
}

func TestLoad_BadIntFallsBack(t *testing.T) {
	os.Clearenv()
	os.Setenv("FETCH_MAX_TICKERS", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Fetch.MaxTickers != 100 {
		t.Errorf("Fetch.MaxTickers = %d, want default 100", cfg.Fetch.MaxTickers)
	}
}
