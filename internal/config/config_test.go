package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.AppPort != 8080 {
		t.Fatalf("expected default port 8080 got %d", cfg.AppPort)
	}
	if cfg.DataDir != "data" {
		t.Fatalf("expected default data dir got %q", cfg.DataDir)
	}
	if cfg.GeminiPollInterval != 10*time.Second {
		t.Fatalf("expected default poll interval got %v", cfg.GeminiPollInterval)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("REELTALK_PORT", "9090")
	t.Setenv("REELTALK_DATA_DIR", "/tmp/reeltalk")
	t.Setenv("REELTALK_GEMINI_POLL_INTERVAL", "2s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.AppPort != 9090 {
		t.Fatalf("expected overridden port got %d", cfg.AppPort)
	}
	if cfg.DataDir != "/tmp/reeltalk" {
		t.Fatalf("expected overridden data dir got %q", cfg.DataDir)
	}
	if cfg.GeminiPollInterval != 2*time.Second {
		t.Fatalf("expected overridden poll interval got %v", cfg.GeminiPollInterval)
	}
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("REELTALK_PORT", "not-a-number")
	t.Setenv("REELTALK_GEMINI_POLL_INTERVAL", "soon")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.AppPort != 8080 {
		t.Fatalf("expected fallback port got %d", cfg.AppPort)
	}
	if cfg.GeminiPollInterval != 10*time.Second {
		t.Fatalf("expected fallback poll interval got %v", cfg.GeminiPollInterval)
	}
}
