package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("QUIZ_CONFIG", "")
	t.Setenv("ROUND_CAP", "")
	t.Setenv("FEEDBACK_DELAY_MS", "")
	t.Setenv("PORT", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RoundCap != 8 || cfg.FeedbackDelay != time.Second || cfg.Port != "5175" {
		t.Fatalf("defaults = %+v", cfg)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quiz.yaml")
	body := "round_cap: 5\nfeedback_delay_ms: 250\ncountries:\n  - Chile\n  - Peru\n  - Bolivia\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("QUIZ_CONFIG", path)
	t.Setenv("ROUND_CAP", "")
	t.Setenv("FEEDBACK_DELAY_MS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RoundCap != 5 || cfg.FeedbackDelay != 250*time.Millisecond {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if len(cfg.Countries) != 3 || cfg.Countries[1] != "Peru" {
		t.Fatalf("countries = %v", cfg.Countries)
	}

	t.Setenv("ROUND_CAP", "3")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RoundCap != 3 {
		t.Fatalf("env should override file: round cap = %d", cfg.RoundCap)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("QUIZ_CONFIG", "")
	t.Setenv("ROUND_CAP", "eight")
	if _, err := Load(); err == nil {
		t.Fatalf("non-numeric ROUND_CAP should error")
	}
	t.Setenv("ROUND_CAP", "0")
	if _, err := Load(); err == nil {
		t.Fatalf("ROUND_CAP=0 should error")
	}
	t.Setenv("ROUND_CAP", "")
	t.Setenv("FEEDBACK_DELAY_MS", "-5")
	if _, err := Load(); err == nil {
		t.Fatalf("negative delay should error")
	}
	t.Setenv("FEEDBACK_DELAY_MS", "")
	t.Setenv("SESSION_TTL_MINUTES", "0")
	if _, err := Load(); err == nil {
		t.Fatalf("SESSION_TTL_MINUTES=0 should error")
	}
}

func TestSessionTTLFromEnv(t *testing.T) {
	t.Setenv("QUIZ_CONFIG", "")
	t.Setenv("SESSION_TTL_MINUTES", "")
	if cfg, err := Load(); err != nil || cfg.SessionTTL != 2*time.Hour {
		t.Fatalf("default SessionTTL = %v, %v", cfg.SessionTTL, err)
	}
	t.Setenv("SESSION_TTL_MINUTES", "15")
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SessionTTL != 15*time.Minute {
		t.Fatalf("SessionTTL = %v, want 15m", cfg.SessionTTL)
	}
}

func TestProductionFlag(t *testing.T) {
	t.Setenv("QUIZ_CONFIG", "")
	t.Setenv("NODE_ENV", "production")
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Production {
		t.Fatalf("Production = false with NODE_ENV=production")
	}
}
