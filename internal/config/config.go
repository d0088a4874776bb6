package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config captures the runtime configuration for the ReelTalk application.
type Config struct {
	AppPort     int
	DataDir     string
	DatabaseURL string
	LogLevel    string

	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3KeyPrefix string

	GeminiAPIKey       string
	GeminiBaseURL      string
	GeminiVideoModel   string
	GeminiRankModel    string
	GeminiPollInterval time.Duration
	GeminiTimeout      time.Duration
	ForYouCacheTTL     time.Duration
}

// Load reads configuration from environment variables, applying sensible
// defaults for local use while allowing overrides. A .env file in the
// working directory is honored when present.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		AppPort:     getInt("REELTALK_PORT", 8080),
		DataDir:     getString("REELTALK_DATA_DIR", "data"),
		DatabaseURL: getString("REELTALK_DATABASE_URL", ""),
		LogLevel:    getString("REELTALK_LOG_LEVEL", "info"),

		S3Bucket:    getString("REELTALK_S3_BUCKET", ""),
		S3Region:    getString("REELTALK_S3_REGION", "us-east-1"),
		S3Endpoint:  getString("REELTALK_S3_ENDPOINT", ""),
		S3KeyPrefix: getString("REELTALK_S3_KEY_PREFIX", "videos"),

		GeminiAPIKey:       getString("GEMINI_API_KEY", ""),
		GeminiBaseURL:      getString("REELTALK_GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
		GeminiVideoModel:   getString("REELTALK_GEMINI_VIDEO_MODEL", "veo-3.1-fast-generate-preview"),
		GeminiRankModel:    getString("REELTALK_GEMINI_RANK_MODEL", "gemini-2.5-flash"),
		GeminiPollInterval: getDuration("REELTALK_GEMINI_POLL_INTERVAL", 10*time.Second),
		GeminiTimeout:      getDuration("REELTALK_GEMINI_TIMEOUT", 5*time.Minute),
		ForYouCacheTTL:     getDuration("REELTALK_FORYOU_CACHE_TTL", 15*time.Minute),
	}

	return cfg, nil
}

func getString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return i
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
