package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port        string
	Environment string

	DatabaseURL string

	RedisURL string

	JWTSecret   string
	IngestToken string

	CORSOrigins string

	FanoutWorkers              int
	FanoutQueueSize            int
	FanoutRecipientConcurrency int
	FanoutMaxRetries           int
	FanoutRetryBackoff         time.Duration

	ShutdownTimeout time.Duration
}

func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379"),

		JWTSecret:   getEnv("JWT_SECRET", ""),
		IngestToken: getEnv("INGEST_TOKEN", ""),

		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:5173"),

		FanoutWorkers:              getIntEnv("FANOUT_WORKERS", 4),
		FanoutQueueSize:            getIntEnv("FANOUT_QUEUE_SIZE", 1024),
		FanoutRecipientConcurrency: getIntEnv("FANOUT_RECIPIENT_CONCURRENCY", 16),
		FanoutMaxRetries:           getIntEnv("FANOUT_MAX_RETRIES", 3),
		FanoutRetryBackoff:         getDurationEnv("FANOUT_RETRY_BACKOFF", 100*time.Millisecond),

		ShutdownTimeout: getDurationEnv("SHUTDOWN_TIMEOUT", 15*time.Second),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}
