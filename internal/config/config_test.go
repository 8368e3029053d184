package config

import (
	"testing"
	"time"
)

func TestLoad_DefaultsWhenEnvUnset(t *testing.T) {
	t.Setenv("FORENSICATE_HTTP_ADDR", "")
	t.Setenv("FORENSICATE_DEFAULT_THRESHOLD", "")

	cfg := Load()

	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want default :8080", cfg.HTTPAddr)
	}
	if cfg.DefaultThreshold != 70 {
		t.Errorf("DefaultThreshold = %d, want default 70", cfg.DefaultThreshold)
	}
}

func TestLoad_OverridesFromEnv(t *testing.T) {
	t.Setenv("FORENSICATE_HTTP_ADDR", ":9999")
	t.Setenv("FORENSICATE_DEFAULT_THRESHOLD", "55")
	t.Setenv("FORENSICATE_RATE_RPS", "12.5")

	cfg := Load()

	if cfg.HTTPAddr != ":9999" {
		t.Errorf("HTTPAddr = %q, want :9999", cfg.HTTPAddr)
	}
	if cfg.DefaultThreshold != 55 {
		t.Errorf("DefaultThreshold = %d, want 55", cfg.DefaultThreshold)
	}
	if cfg.RateRPS != 12.5 {
		t.Errorf("RateRPS = %v, want 12.5", cfg.RateRPS)
	}
}

func TestLoad_ScanTimeoutIsMilliseconds(t *testing.T) {
	t.Setenv("FORENSICATE_SCAN_TIMEOUT_MS", "500")
	cfg := Load()
	if cfg.ScanTimeout != 500*time.Millisecond {
		t.Errorf("ScanTimeout = %v, want 500ms", cfg.ScanTimeout)
	}
}
