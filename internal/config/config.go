package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const defaultBootstrapPassword = "changeme123"

// Config holds application configuration
type Config struct {
	Port              string
	UsersFile         string
	AdminKey          string
	AnnouncementsURL  string
	GenAIAPIURL       string
	GenAIAPIKey       string
	GenAIModel        string
	BootstrapUsername string
	BootstrapPassword string
	SessionTTL        time.Duration
	SummaryCacheTTL   time.Duration
	CacheSweepEvery   time.Duration
	LoginRateLimit    int
	LoginRateWindow   time.Duration
	AllowedOrigins    string
	Environment       string // development, staging, production
}

// Load loads configuration from environment variables and validates for production
func Load() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		UsersFile:         getEnv("USERS_FILE", "data/users.json"),
		AdminKey:          getEnv("ADMIN_KEY", ""),
		AnnouncementsURL:  getEnv("ANNOUNCEMENTS_URL", "https://www.example-exchange.com/announcements"),
		GenAIAPIURL:       getEnv("GENAI_API_URL", "https://generativelanguage.googleapis.com"),
		GenAIAPIKey:       getEnv("GENAI_API_KEY", ""),
		GenAIModel:        getEnv("GENAI_MODEL", "gemini-1.5-flash"),
		BootstrapUsername: getEnv("BOOTSTRAP_USERNAME", "admin"),
		BootstrapPassword: getEnv("BOOTSTRAP_PASSWORD", defaultBootstrapPassword),
		SessionTTL:        getEnvDuration("SESSION_TTL", 12*time.Hour),
		SummaryCacheTTL:   getEnvDuration("SUMMARY_CACHE_TTL", 7*24*time.Hour),
		CacheSweepEvery:   getEnvDuration("CACHE_SWEEP_INTERVAL", 30*time.Minute),
		LoginRateLimit:    getEnvInt("LOGIN_RATE_LIMIT", 10),
		LoginRateWindow:   getEnvDuration("LOGIN_RATE_WINDOW", time.Minute),
		AllowedOrigins:    getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:8080"),
		Environment:       getEnv("ENVIRONMENT", "development"),
	}

	// Validate production configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	return cfg
}

// Validate checks configuration for security and correctness
func (c *Config) Validate() error {
	if c.IsProduction() {
		if c.AdminKey == "" {
			return fmt.Errorf("ADMIN_KEY must be set in production")
		}
		if len(c.AdminKey) < 32 {
			return fmt.Errorf("ADMIN_KEY must be at least 32 characters in production (got %d)", len(c.AdminKey))
		}
		if c.BootstrapPassword == defaultBootstrapPassword {
			return fmt.Errorf("BOOTSTRAP_PASSWORD must not be the default in production")
		}
		if c.GenAIAPIKey == "" {
			log.Println("WARNING: GENAI_API_KEY is not set; summarization will fail")
		}
	} else if c.AdminKey == "" {
		// Development/staging: provide default if not set
		c.AdminKey = "dev-admin-key-not-for-production"
		log.Println("Using default ADMIN_KEY for development")
	}

	if c.BootstrapPassword == defaultBootstrapPassword {
		log.Println("WARNING: bootstrap admin uses the default password, rotate it")
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev" || c.Environment == ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Invalid duration for %s: %q, using default %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Invalid integer for %s: %q, using default %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}
