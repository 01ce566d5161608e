package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	ServerHost string
	ServerPort string
	// BaseURL is the externally visible origin used to build absolute
	// media and pagination URLs. Falls back to the request host when empty.
	BaseURL string

	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis configuration (optional; rate limiting is disabled without it)
	RedisURL string

	// JWT configuration
	JWTSecret string

	// Media storage: files go to S3 when the bucket is set, otherwise to
	// MediaRoot on local disk (served under /media).
	MediaRoot string
	S3Bucket  string
	S3Region  string

	// Pagination
	DefaultPageSize int
	MaxPageSize     int
}

// Load reads configuration from the environment, after loading a .env file
// if one is present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServerHost:      getEnv("SERVER_HOST", "0.0.0.0"),
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		BaseURL:         os.Getenv("BASE_URL"),
		DBHost:          getEnv("DB_HOST", "localhost"),
		DBPort:          getEnv("DB_PORT", "5432"),
		DBUser:          os.Getenv("DB_USER"),
		DBPassword:      os.Getenv("DB_PASSWORD"),
		DBName:          os.Getenv("DB_NAME"),
		DBSSLMode:       getEnv("DB_SSL_MODE", "disable"),
		RedisURL:        os.Getenv("REDIS_URL"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		MediaRoot:       getEnv("MEDIA_ROOT", "media"),
		S3Bucket:        os.Getenv("S3_BUCKET"),
		S3Region:        os.Getenv("S3_REGION"),
		DefaultPageSize: getEnvInt("PAGE_SIZE", 6),
		MaxPageSize:     getEnvInt("MAX_PAGE_SIZE", 100),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required settings are present and consistent.
func (c *Config) Validate() error {
	required := map[string]string{
		"DB_USER":    c.DBUser,
		"DB_NAME":    c.DBName,
		"JWT_SECRET": c.JWTSecret,
	}
	for name, value := range required {
		if value == "" {
			return fmt.Errorf("%s is required", name)
		}
	}
	if c.S3Bucket != "" && c.S3Region == "" {
		return fmt.Errorf("S3_REGION is required when S3_BUCKET is set")
	}
	if c.DefaultPageSize < 1 || c.MaxPageSize < c.DefaultPageSize {
		return fmt.Errorf("invalid pagination bounds: default %d, max %d", c.DefaultPageSize, c.MaxPageSize)
	}
	return nil
}

// DSN returns the postgres connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}
