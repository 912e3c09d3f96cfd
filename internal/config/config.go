package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          int
	AICoreURL     string
	DBPath        string
	PreviewDir    string
	ImageCacheTTL time.Duration
	DefaultUser   string
}

// Load reads the environment, first merging a .env file when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:          getEnvAsInt("PORT", 8080),
		AICoreURL:     getEnv("AI_CORE_URL", "http://localhost:8000/api/v1"),
		DBPath:        getEnv("DB_PATH", filepath.Join(".", "labelstation.db")),
		PreviewDir:    getEnv("PREVIEW_DIR", filepath.Join(".", "previews")),
		ImageCacheTTL: time.Duration(getEnvAsInt("CACHE_TTL_SECONDS", 300)) * time.Second,
		DefaultUser:   getEnv("DEFAULT_USER", "Anonymous"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
