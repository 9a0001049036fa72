package config

import (
	"fmt"
	"os"
)

// Config holds all environment-driven settings, loaded once in main
type Config struct {
	Port     string
	LogLevel string
	LogFile  string

	// Database
	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string

	// Auth
	JWTSecret string

	// Redis (rate limiting)
	RedisHost     string
	RedisPort     string
	RedisPassword string

	// Object storage (presigned uploads)
	AWSRegion  string
	AWSBucket  string
	CDNBaseURL string
}

// Load reads configuration from the environment with development defaults
func Load() (*Config, error) {
	cfg := &Config{
		Port:          getEnvOrDefault("PORT", "8787"),
		LogLevel:      getEnvOrDefault("LOG_LEVEL", "info"),
		LogFile:       getEnvOrDefault("LOG_FILE", "server.log"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		DBHost:        getEnvOrDefault("DB_HOST", "localhost"),
		DBPort:        getEnvOrDefault("DB_PORT", "5432"),
		DBUser:        getEnvOrDefault("DB_USER", "postgres"),
		DBPassword:    os.Getenv("DB_PASSWORD"),
		DBName:        getEnvOrDefault("DB_NAME", "lineup"),
		DBSSLMode:     getEnvOrDefault("DB_SSLMODE", "disable"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		RedisHost:     getEnvOrDefault("REDIS_HOST", "localhost"),
		RedisPort:     getEnvOrDefault("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		AWSRegion:     os.Getenv("AWS_REGION"),
		AWSBucket:     os.Getenv("AWS_BUCKET"),
		CDNBaseURL:    os.Getenv("CDN_BASE_URL"),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	return cfg, nil
}

// DSN builds the Postgres connection string from DATABASE_URL or components
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

// getEnvOrDefault returns environment variable or default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
