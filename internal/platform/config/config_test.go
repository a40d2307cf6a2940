package config

import (
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("SERVICE_NAME", "olympia")
	t.Setenv("JWT_SECRET", "test-jwt-secret-32-bytes-padded!")
	for _, key := range []string{
		"LOG_LEVEL", "HTTP_ADDR", "ACCESS_TOKEN_TTL", "REFRESH_TOKEN_TTL",
		"PROGRESS_BUCKET_PERCENT", "PROGRESS_COMPLETE_THRESHOLD", "MEDIA_URL_TTL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Fatalf("expected default addr, got %q", cfg.HTTP.Addr)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("expected default log level, got %q", cfg.LogLevel)
	}
	if cfg.Progress.BucketSizePercent != 10 || cfg.Progress.CompletionThreshold != 0.90 {
		t.Fatalf("unexpected progress defaults %+v", cfg.Progress)
	}
	if cfg.AccessTokenTTL != 15*time.Minute || cfg.RefreshTokenTTL != 30*24*time.Hour {
		t.Fatalf("unexpected token TTLs %v / %v", cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	}
	if cfg.Media.URLTTL != 15*time.Minute {
		t.Fatalf("unexpected media TTL %v", cfg.Media.URLTTL)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("SERVICE_NAME", "")
	t.Setenv("JWT_SECRET", "x")
	if _, err := Load(); err == nil {
		t.Fatal("expected error without SERVICE_NAME")
	}

	t.Setenv("SERVICE_NAME", "olympia")
	t.Setenv("JWT_SECRET", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error without JWT_SECRET")
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("PROGRESS_BUCKET_PERCENT", "25")
	t.Setenv("PROGRESS_COMPLETE_THRESHOLD", "0.95")
	t.Setenv("ACCESS_TOKEN_TTL", "5m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.HTTP.Addr != ":9999" {
		t.Fatalf("expected :9999, got %q", cfg.HTTP.Addr)
	}
	if cfg.Progress.BucketSizePercent != 25 || cfg.Progress.CompletionThreshold != 0.95 {
		t.Fatalf("unexpected progress config %+v", cfg.Progress)
	}
	if cfg.AccessTokenTTL != 5*time.Minute {
		t.Fatalf("expected 5m, got %v", cfg.AccessTokenTTL)
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	setRequired(t)
	t.Setenv("PROGRESS_BUCKET_PERCENT", "150")
	t.Setenv("PROGRESS_COMPLETE_THRESHOLD", "1.5")
	t.Setenv("ACCESS_TOKEN_TTL", "not-a-duration")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Progress.BucketSizePercent != 10 || cfg.Progress.CompletionThreshold != 0.90 {
		t.Fatalf("expected clamped defaults, got %+v", cfg.Progress)
	}
	if cfg.AccessTokenTTL != 15*time.Minute {
		t.Fatalf("expected default TTL, got %v", cfg.AccessTokenTTL)
	}
}
