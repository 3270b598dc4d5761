package config

import (
	"fmt"
	"os"
	"time"
)

type Config struct {
	HTTPAddr  string // TANK_HTTP_ADDR (default ":8080")
	AuthToken string // TANK_AUTH_TOKEN (optional, empty = auth disabled)
	NATSURL   string // TANK_NATS_URL (optional, empty = no event mirroring)

	// Leaderboard persistence (optional, empty = leaderboard disabled)
	DatabaseURL string // TANK_DATABASE_URL

	// AI collaborators (optional, empty = fallback/disabled mode)
	AnthropicAPIKey  string // TANK_ANTHROPIC_API_KEY
	AnthropicModel   string // TANK_ANTHROPIC_MODEL (default "claude-sonnet-4-20250514")
	ElevenLabsAPIKey string // TANK_ELEVENLABS_API_KEY

	// Session lifecycle
	SessionTTL     time.Duration // TANK_SESSION_TTL (default 24h)
	ReaperInterval time.Duration // TANK_REAPER_INTERVAL (default 1h)

	// Archive settings
	ArchiveInterval   time.Duration // TANK_ARCHIVE_INTERVAL (default 0 = disabled)
	ArchiveS3Bucket   string        // TANK_ARCHIVE_S3_BUCKET (enables S3 when set)
	ArchiveS3Endpoint string        // TANK_ARCHIVE_S3_ENDPOINT (custom endpoint for MinIO)
	ArchiveS3Region   string        // TANK_ARCHIVE_S3_REGION (default "us-east-1")
	ArchiveS3Key      string        // TANK_ARCHIVE_S3_KEY (default "tank/sessions.jsonl")
}

func Load() (*Config, error) {
	c := &Config{
		HTTPAddr:          envOrDefault("TANK_HTTP_ADDR", ":8080"),
		AuthToken:         os.Getenv("TANK_AUTH_TOKEN"),
		NATSURL:           os.Getenv("TANK_NATS_URL"),
		DatabaseURL:       os.Getenv("TANK_DATABASE_URL"),
		AnthropicAPIKey:   os.Getenv("TANK_ANTHROPIC_API_KEY"),
		AnthropicModel:    envOrDefault("TANK_ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),
		ElevenLabsAPIKey:  os.Getenv("TANK_ELEVENLABS_API_KEY"),
		ArchiveS3Bucket:   os.Getenv("TANK_ARCHIVE_S3_BUCKET"),
		ArchiveS3Endpoint: os.Getenv("TANK_ARCHIVE_S3_ENDPOINT"),
		ArchiveS3Region:   envOrDefault("TANK_ARCHIVE_S3_REGION", "us-east-1"),
		ArchiveS3Key:      envOrDefault("TANK_ARCHIVE_S3_KEY", "tank/sessions.jsonl"),
	}

	var err error
	if c.SessionTTL, err = durationEnv("TANK_SESSION_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if c.ReaperInterval, err = durationEnv("TANK_REAPER_INTERVAL", time.Hour); err != nil {
		return nil, err
	}
	if c.ArchiveInterval, err = durationEnv("TANK_ARCHIVE_INTERVAL", 0); err != nil {
		return nil, err
	}
	if c.SessionTTL <= 0 {
		return nil, fmt.Errorf("TANK_SESSION_TTL must be positive")
	}
	if c.ReaperInterval <= 0 {
		return nil, fmt.Errorf("TANK_REAPER_INTERVAL must be positive")
	}

	return c, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
