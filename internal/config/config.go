package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Addr     string
	LogLevel string

	OpenRouterAPIKey    string
	OpenRouterKeySecret string
	OpenRouterBaseURL   string
	AppReferer          string
	AppTitle            string

	DataDir      string
	RedisURL     string
	OTLPEndpoint string
	AWSRegion    string
	SNSTopicArn  string

	EvaluateRPM     int
	CatalogCacheTTL time.Duration

	// StreamIdleTimeout bounds how long a model's stream may go without a
	// read before it is aborted. Zero disables the watchdog.
	StreamIdleTimeout time.Duration

	ShutdownTimeout time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		Addr:                getEnv("ADDR", ":8080"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		OpenRouterAPIKey:    getEnv("OPENROUTER_API_KEY", ""),
		OpenRouterKeySecret: getEnv("OPENROUTER_API_KEY_SECRET", ""),
		OpenRouterBaseURL:   getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		AppReferer:          getEnv("APP_REFERER", "http://localhost:3000"),
		AppTitle:            getEnv("APP_TITLE", "llmarena"),
		DataDir:             getEnv("DATA_DIR", "data"),
		RedisURL:            getEnv("REDIS_URL", ""),
		OTLPEndpoint:        getEnv("OTLP_ENDPOINT", ""),
		AWSRegion:           getEnv("AWS_REGION", ""),
		SNSTopicArn:         getEnv("SNS_TOPIC_ARN", ""),
		EvaluateRPM:         getIntEnv("EVALUATE_RPM", 30),
		CatalogCacheTTL:     getDurationEnv("CATALOG_CACHE_TTL", 10*time.Minute),
		StreamIdleTimeout:   getDurationEnv("STREAM_IDLE_TIMEOUT", 120*time.Second),
		ShutdownTimeout:     getDurationEnv("SHUTDOWN_TIMEOUT", 30*time.Second),
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}
