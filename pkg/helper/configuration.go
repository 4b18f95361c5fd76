package helper

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/yishak-cs/wardrobe/internal/ai"
	"github.com/yishak-cs/wardrobe/internal/blob"
	"github.com/yishak-cs/wardrobe/internal/database"
)

// Config is the complete server configuration
type Config struct {
	Port        string
	LogMode     string
	CORSOrigins []string

	Neo4j database.Config
	// Redis.Addr empty keeps usage counters in Neo4j
	Redis database.RedisConfig
	AI    ai.Config
	// GCS.Bucket empty stores images under LocalBlobDir
	GCS          blob.GCSConfig
	LocalBlobDir string
}

// LoadConfigFromEnv loads the configuration from environment variables
func LoadConfigFromEnv() (Config, error) {
	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return Config{}, err
	}
	poolSize, err := getEnvInt("NEO4J_MAX_POOL_SIZE", 0)
	if err != nil {
		return Config{}, err
	}
	aiTimeout, err := getEnvInt("AI_TIMEOUT_SECONDS", 60)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port:        getEnvOrDefault("APP_PORT", "8080"),
		LogMode:     getEnvOrDefault("LOG_MODE", "production"),
		CORSOrigins: splitList(getEnvOrDefault("CORS_ORIGINS", "*")),
		Neo4j: database.Config{
			URI:         getEnvOrDefault("NEO4J_URI", ""),
			Username:    getEnvOrDefault("NEO4J_USERNAME", "neo4j"),
			Password:    getEnvOrDefault("NEO4J_PASSWORD", ""),
			Database:    getEnvOrDefault("NEO4J_DATABASE", "neo4j"),
			MaxPoolSize: poolSize,
		},
		Redis: database.RedisConfig{
			Addr:     getEnvOrDefault("REDIS_ADDR", ""),
			Password: getEnvOrDefault("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		AI: ai.Config{
			BaseURL:    getEnvOrDefault("AI_BASE_URL", "https://api.openai.com/v1"),
			APIKey:     getEnvOrDefault("AI_API_KEY", ""),
			Model:      getEnvOrDefault("AI_MODEL", "gpt-4o"),
			APIVersion: getEnvOrDefault("AI_API_VERSION", ""),
			Timeout:    time.Duration(aiTimeout) * time.Second,
		},
		GCS: blob.GCSConfig{
			Bucket:        getEnvOrDefault("GCS_BUCKET", ""),
			PublicBaseURL: getEnvOrDefault("GCS_PUBLIC_BASE_URL", ""),
			Endpoint:      getEnvOrDefault("GCS_ENDPOINT", ""),
		},
		LocalBlobDir: getEnvOrDefault("LOCAL_BLOB_DIR", "./uploads"),
	}

	if cfg.Neo4j.URI == "" {
		return Config{}, fmt.Errorf("NEO4J_URI is required")
	}
	return cfg, nil
}

// getEnvOrDefault returns environment variable value or default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
