// internal/infrastructure/config/config.go
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// App
	AppVersion string

	// Server
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Upstream flight-search provider
	ProviderBaseURL      string
	ProviderTokenURL     string
	ProviderClientID     string
	ProviderClientSecret string
	ProviderTimeout      time.Duration

	// Search tuning. The cutoffs were hand-tuned in production; they are
	// configuration, not semantics.
	PollInterval            time.Duration
	PollRetryDelay          time.Duration
	IdleCutoff              int
	EmptyPollCutoff         int
	EmptyPollCutoffNoResult int
	CacheTTL                time.Duration
	InitialVisibleCount     int
	RevealPageSize          int

	// Result cache backend: "memory" or "redis"
	CacheBackend  string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// MongoDB (search archive; optional)
	MongoURI      string
	MongoDB       string
	MongoUser     string
	MongoPassword string

	// PostgreSQL (airline reference data; optional)
	PostgresURI string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	// Set defaults and override with env vars
	config := &Config{
		AppVersion:   getEnv("APP_VERSION", "1.0.0"),
		Port:         getEnv("PORT", "8080"),
		ReadTimeout:  time.Duration(getEnvAsInt("READ_TIMEOUT", 30)) * time.Second,
		WriteTimeout: time.Duration(getEnvAsInt("WRITE_TIMEOUT", 30)) * time.Second,

		ProviderBaseURL:      getEnv("PROVIDER_BASE_URL", "http://localhost:9090"),
		ProviderTokenURL:     getEnv("PROVIDER_TOKEN_URL", ""),
		ProviderClientID:     getEnv("PROVIDER_CLIENT_ID", ""),
		ProviderClientSecret: getEnv("PROVIDER_CLIENT_SECRET", ""),
		ProviderTimeout:      time.Duration(getEnvAsInt("PROVIDER_TIMEOUT", 15)) * time.Second,

		PollInterval:            getEnvAsDuration("POLL_INTERVAL_MS", 2000),
		PollRetryDelay:          getEnvAsDuration("POLL_RETRY_DELAY_MS", 1500),
		IdleCutoff:              getEnvAsInt("POLL_IDLE_CUTOFF", 30),
		EmptyPollCutoff:         getEnvAsInt("POLL_EMPTY_CUTOFF", 30),
		EmptyPollCutoffNoResult: getEnvAsInt("POLL_EMPTY_CUTOFF_NO_RESULT", 15),
		CacheTTL:                time.Duration(getEnvAsInt("CACHE_TTL", 300)) * time.Second,
		InitialVisibleCount:     getEnvAsInt("INITIAL_VISIBLE_COUNT", 4),
		RevealPageSize:          getEnvAsInt("REVEAL_PAGE_SIZE", 4),

		CacheBackend:  getEnv("CACHE_BACKEND", "memory"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		MongoURI:      getEnv("MONGODB_DSN", ""),
		MongoDB:       getEnv("MONGO_DB", "flightsearch"),
		MongoUser:     getEnv("MONGO_USER", ""),
		MongoPassword: getEnv("MONGO_PASSWORD", ""),

		PostgresURI: getEnv("POSTGRES_DSN", ""),
	}

	return config, nil
}

// Helper functions to get environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultMillis int) time.Duration {
	return time.Duration(getEnvAsInt(key, defaultMillis)) * time.Millisecond
}
