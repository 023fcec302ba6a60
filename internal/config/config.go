// Package config loads runtime settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingSecret is returned when JWT_SECRET is unset outside development.
var ErrMissingSecret = errors.New("JWT_SECRET environment variable is required")

const devSecret = "dev-secret-change-me"

type Config struct {
	Port        string
	Environment string
	LogLevel    string

	MongoURI string
	MongoDB  string

	JWTSecret     string
	JWTExpiry     time.Duration
	RefreshExpiry time.Duration

	// MQTT is disabled when MQTTBroker is empty.
	MQTTBroker      string
	MQTTClientID    string
	MQTTTopicPrefix string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	// A zero ReminderInterval disables the reminder loop.
	ReminderInterval      time.Duration
	ReminderLookaheadDays int
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := &Config{
		Port:                  getEnv("PORT", "9000"),
		Environment:           getEnv("ENVIRONMENT", "development"),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		MongoURI:              getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:               getEnv("MONGO_DB", "mashinman"),
		JWTSecret:             os.Getenv("JWT_SECRET"),
		JWTExpiry:             getEnvAsDuration("JWT_EXPIRY", time.Hour),
		RefreshExpiry:         getEnvAsDuration("REFRESH_EXPIRY", 7*24*time.Hour),
		MQTTBroker:            os.Getenv("MQTT_BROKER"),
		MQTTClientID:          getEnv("MQTT_CLIENT_ID", "mashinman-api"),
		MQTTTopicPrefix:       getEnv("MQTT_TOPIC_PREFIX", "mashinman"),
		RateLimitRequests:     getEnvAsInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:       getEnvAsDuration("RATE_LIMIT_WINDOW", time.Minute),
		ReminderInterval:      getEnvAsDuration("REMINDER_INTERVAL", time.Hour),
		ReminderLookaheadDays: getEnvAsInt("REMINDER_LOOKAHEAD_DAYS", 7),
	}

	if cfg.JWTSecret == "" {
		if !cfg.IsDevelopment() {
			return nil, ErrMissingSecret
		}
		cfg.JWTSecret = devSecret
	}

	return cfg, nil
}

// IsDevelopment reports whether the service runs in the development environment.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string {
	return ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
