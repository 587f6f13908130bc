package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
// Every field has a sensible default; only DATABASE_URL and REDIS_ADDR are
// required.
type Config struct {
	// Server
	HTTPPort        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// Database
	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	// Redis (priority queue, dedup claims, settings cache)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Webhook endpoint
	WebhookURL     string
	WebhookSecret  string
	WebhookTimeout time.Duration

	// Consumers
	ConsumerCount     int
	PollTimeout       time.Duration
	MaxItems          int
	MaxProcessingTime time.Duration

	// Rate limiting: maximum outbound deliveries per second across all consumers
	RateLimit int

	// Pipeline tuning
	DedupTTL         time.Duration
	SettingsCacheTTL time.Duration
	CriticalStock    int
}

func Load() (*Config, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		return nil, fmt.Errorf("REDIS_ADDR is required")
	}

	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		ReadTimeout:     getDuration("READ_TIMEOUT", 5*time.Second),
		WriteTimeout:    getDuration("WRITE_TIMEOUT", 10*time.Second),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		DatabaseURL: dbURL,
		DBMaxConns:  int32(getInt("DB_MAX_CONNS", 25)),
		DBMinConns:  int32(getInt("DB_MIN_CONNS", 5)),

		RedisAddr:     redisAddr,
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getInt("REDIS_DB", 0),

		WebhookURL:     getEnv("WEBHOOK_URL", "http://localhost:9000/notify"),
		WebhookSecret:  getEnv("WEBHOOK_SECRET", ""),
		WebhookTimeout: getDuration("WEBHOOK_TIMEOUT", 10*time.Second),

		ConsumerCount:     getInt("CONSUMER_COUNT", 3),
		PollTimeout:       getDuration("POLL_TIMEOUT", 2*time.Second),
		MaxItems:          getInt("MAX_ITEMS_PER_ROUND", 50),
		MaxProcessingTime: getDuration("MAX_PROCESSING_TIME", 30*time.Second),

		RateLimit: getInt("RATE_LIMIT_PER_SECOND", 30),

		DedupTTL:         getDuration("DEDUP_TTL", time.Hour),
		SettingsCacheTTL: getDuration("SETTINGS_CACHE_TTL", 5*time.Minute),
		CriticalStock:    getInt("CRITICAL_STOCK_THRESHOLD", 5),
	}, nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
