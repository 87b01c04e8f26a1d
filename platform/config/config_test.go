package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPPort != 4101 || cfg.SocketPort != 8000 {
		t.Errorf("ports = %d/%d", cfg.HTTPPort, cfg.SocketPort)
	}
	if !cfg.StartingBalance.Equal(decimal.NewFromInt(1500)) {
		t.Errorf("starting balance = %s", cfg.StartingBalance)
	}
	if cfg.NotifyGapTimeout != 2*time.Second {
		t.Errorf("gap timeout = %s", cfg.NotifyGapTimeout)
	}
	if cfg.Store != StoreMemory {
		t.Errorf("store = %q", cfg.Store)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE", "postgres")
	t.Setenv("STARTING_BALANCE", "2000.50")
	t.Setenv("CORS_ORIGINS", "http://a.test,http://b.test")
	t.Setenv("MAX_PLAYERS", "4")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store != StorePostgres || cfg.MaxPlayers != 4 {
		t.Errorf("unexpected %+v", cfg)
	}
	if !cfg.StartingBalance.Equal(decimal.RequireFromString("2000.50")) {
		t.Errorf("starting balance = %s", cfg.StartingBalance)
	}
	if len(cfg.CORSOrigins) != 2 {
		t.Errorf("origins = %v", cfg.CORSOrigins)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"STORE":            "sqlite",
		"MAX_PLAYERS":      "12",
		"STARTING_BALANCE": "-5",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected %s=%q to be rejected", key, value)
			}
		})
	}
}
