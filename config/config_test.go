package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port == "" {
		t.Error("port default missing")
	}
	if cfg.Matching.NotificationThreshold != 8.0 {
		t.Errorf("threshold = %v, want 8.0", cfg.Matching.NotificationThreshold)
	}
	if cfg.Matching.RebuildIntervalHours != 24 {
		t.Errorf("rebuild interval = %d, want 24", cfg.Matching.RebuildIntervalHours)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MATCH_NOTIFICATION_THRESHOLD", "12.5")
	t.Setenv("REBUILD_INTERVAL_HOURS", "6")
	t.Setenv("DATABASE_URL", "postgres://db.internal:5432/app?sslmode=require")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Matching.NotificationThreshold != 12.5 {
		t.Errorf("threshold = %v, want 12.5", cfg.Matching.NotificationThreshold)
	}
	if cfg.Matching.RebuildIntervalHours != 6 {
		t.Errorf("rebuild interval = %d, want 6", cfg.Matching.RebuildIntervalHours)
	}
	if got := cfg.Database.DSN(); got != "postgres://db.internal:5432/app?sslmode=require" {
		t.Errorf("DSN = %q, want DATABASE_URL verbatim", got)
	}
}

func TestLoadRejectsBadThreshold(t *testing.T) {
	t.Setenv("MATCH_NOTIFICATION_THRESHOLD", "high")
	if _, err := Load(); err == nil {
		t.Error("expected parse error")
	}
}
