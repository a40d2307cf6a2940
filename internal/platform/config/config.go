package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type HTTPConfig struct {
	Addr string
}

// ProgressConfig carries the watch-progress persistence thresholds.
type ProgressConfig struct {
	// BucketSizePercent is the watched-percent granularity at which a
	// playback sample is persisted. One write at most per bucket crossed.
	BucketSizePercent int
	// CompletionThreshold is the watched fraction at which a video is
	// marked completed.
	CompletionThreshold float64
}

type MediaConfig struct {
	// BaseURL is the public root under which stored objects are served.
	BaseURL string
	// SigningSecret signs time-limited download links.
	SigningSecret string
	// URLTTL is how long a resolved link stays valid.
	URLTTL time.Duration
}

type AppConfig struct {
	ServiceName string
	LogLevel    string
	HTTP        HTTPConfig

	DatabaseURL string
	NATSURL     string
	RedisURL    string

	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	Progress ProgressConfig
	Media    MediaConfig
}

func Load() (AppConfig, error) {
	cfg := AppConfig{
		ServiceName: strings.TrimSpace(os.Getenv("SERVICE_NAME")),
		LogLevel:    strings.TrimSpace(os.Getenv("LOG_LEVEL")),
		HTTP: HTTPConfig{
			Addr: strings.TrimSpace(os.Getenv("HTTP_ADDR")),
		},
		DatabaseURL:     strings.TrimSpace(os.Getenv("DATABASE_URL")),
		NATSURL:         strings.TrimSpace(os.Getenv("NATS_URL")),
		RedisURL:        strings.TrimSpace(os.Getenv("REDIS_URL")),
		JWTSecret:       strings.TrimSpace(os.Getenv("JWT_SECRET")),
		AccessTokenTTL:  envDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL: envDuration("REFRESH_TOKEN_TTL", 30*24*time.Hour),
		Progress: ProgressConfig{
			BucketSizePercent:   envInt("PROGRESS_BUCKET_PERCENT", 10),
			CompletionThreshold: envFloat("PROGRESS_COMPLETE_THRESHOLD", 0.90),
		},
		Media: MediaConfig{
			BaseURL:       strings.TrimSpace(os.Getenv("MEDIA_BASE_URL")),
			SigningSecret: strings.TrimSpace(os.Getenv("MEDIA_SIGNING_SECRET")),
			URLTTL:        envDuration("MEDIA_URL_TTL", 15*time.Minute),
		},
	}
	if cfg.ServiceName == "" {
		return AppConfig{}, errors.New("SERVICE_NAME is required")
	}
	if cfg.JWTSecret == "" {
		return AppConfig{}, errors.New("JWT_SECRET is required")
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Progress.BucketSizePercent <= 0 || cfg.Progress.BucketSizePercent > 100 {
		cfg.Progress.BucketSizePercent = 10
	}
	if cfg.Progress.CompletionThreshold <= 0 || cfg.Progress.CompletionThreshold > 1 {
		cfg.Progress.CompletionThreshold = 0.90
	}
	return cfg, nil
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envFloat(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func envDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
