package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every environment-supplied setting. It is built once in
// main and passed explicitly to the components that need it; nothing
// outside this package reads the environment.
type Config struct {
	Port          string
	AllowedOrigin string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	RazorpayKeyID         string
	RazorpayKeySecret     string
	RazorpayWebhookSecret string

	ZoomClientID     string
	ZoomClientSecret string
	ZoomAccountID    string
	// Fallback join link used when the meeting provider is unreachable
	// or not configured. Optional.
	ZoomStaticLink string

	// Kafka settings (comma-separated brokers; empty disables events)
	KafkaBrokers string

	// Provisioning sweep interval.
	SweepInterval time.Duration
}

// Load reads .env (if present) and the environment and returns the
// assembled configuration.
func Load() Config {
	// Try loading .env from the usual locations
	envLocations := []string{
		".env",
		"config/.env",
		"../config/.env",
	}

	envLoaded := false
	for _, location := range envLocations {
		if err := godotenv.Load(location); err == nil {
			envLoaded = true
			break
		}
	}

	if !envLoaded {
		log.Println("No .env file found, using environment variables")
	}

	return Config{
		Port:          getEnvWithDefault("PORT", "8080"),
		AllowedOrigin: getEnvWithDefault("ALLOWED_ORIGIN", "*"),

		DBHost:     getEnvWithDefault("DB_HOST", "localhost"),
		DBPort:     getEnvWithDefault("DB_PORT", "5432"),
		DBUser:     getEnvWithDefault("DB_USER", "postgres"),
		DBPassword: getEnvWithDefault("DB_PASSWORD", "postgres"),
		DBName:     getEnvWithDefault("DB_NAME", "eduplatform"),

		RazorpayKeyID:         os.Getenv("RAZORPAY_KEY_ID"),
		RazorpayKeySecret:     os.Getenv("RAZORPAY_KEY_SECRET"),
		RazorpayWebhookSecret: os.Getenv("RAZORPAY_WEBHOOK_SECRET"),

		ZoomClientID:     os.Getenv("ZOOM_CLIENT_ID"),
		ZoomClientSecret: os.Getenv("ZOOM_CLIENT_SECRET"),
		ZoomAccountID:    os.Getenv("ZOOM_ACCOUNT_ID"),
		ZoomStaticLink:   strings.TrimSpace(os.Getenv("ZOOM_STATIC_LINK")),

		KafkaBrokers: getEnvWithDefault("KAFKA_BROKERS", ""),

		SweepInterval: getDurationWithDefault("SWEEP_INTERVAL", 15*time.Minute),
	}
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("Invalid duration for %s, using default %s", key, defaultValue)
	}
	return defaultValue
}

// ConnString builds the Postgres connection string.
func (c Config) ConnString() string {
	return "host=" + c.DBHost +
		" port=" + c.DBPort +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" sslmode=disable"
}
