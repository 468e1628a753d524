package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	JWT          JWTConfig
	BookingToken BookingTokenConfig
	Booking      BookingConfig
	Realtime     RealtimeConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port        string
	Environment string // development, staging, production
	LogLevel    string // debug, info, warn, error
}

// IsProduction reports whether raw error details must be hidden from clients
func (s ServerConfig) IsProduction() bool {
	return s.Environment == "production"
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	URL                string
	MaxConnections     int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
	RunMigrations      bool
	MigrationsPath     string
}

// JWTConfig holds staff access/refresh token configuration
type JWTConfig struct {
	Secret             string
	RefreshSecret      string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

// BookingTokenConfig holds configuration for the checkout booking token
type BookingTokenConfig struct {
	Secret string
	TTL    time.Duration
}

// BookingConfig holds booking workflow defaults
type BookingConfig struct {
	DefaultStayDays  int           // check-out = check-in + DefaultStayDays when not supplied
	FallbackTripDays int           // trip window length when no package duration is known
	OfferTTL         time.Duration // unanswered guide offers older than this are swept
	OfferSweepSpec   string        // cron spec for the sweep job

	// DefaultCountryCode is prefixed to tourist contact numbers given in national format
	DefaultCountryCode string
}

// RealtimeConfig selects the pub/sub backend used for guide notifications
type RealtimeConfig struct {
	Backend       string // "memory" or "redis"
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// RunDecisionConsumer enables the guide decision consumer. Exactly one instance should run it.
	RunDecisionConsumer bool
}

// RateLimitConfig holds rate limiting configuration for public booking endpoints
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			URL:                getEnv("DATABASE_URL", ""),
			MaxConnections:     getEnvAsInt("DATABASE_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
			ConnMaxLifetime:    time.Duration(getEnvAsInt("DATABASE_CONN_MAX_LIFETIME", 300)) * time.Second,
			RunMigrations:      getEnvAsBool("RUN_MIGRATIONS", false),
			MigrationsPath:     getEnv("MIGRATIONS_PATH", "migrations"),
		},
		JWT: JWTConfig{
			Secret:             getEnv("JWT_SECRET", ""),
			RefreshSecret:      getEnv("JWT_REFRESH_SECRET", ""),
			AccessTokenExpiry:  time.Duration(getEnvAsInt("JWT_ACCESS_TOKEN_EXPIRY", 3600)) * time.Second,
			RefreshTokenExpiry: time.Duration(getEnvAsInt("JWT_REFRESH_TOKEN_EXPIRY", 604800)) * time.Second,
		},
		BookingToken: BookingTokenConfig{
			Secret: getEnv("BOOKING_TOKEN_SECRET", ""),
			TTL:    getEnvAsDuration("BOOKING_TOKEN_TTL", time.Hour),
		},
		Booking: BookingConfig{
			DefaultStayDays:  getEnvAsInt("DEFAULT_STAY_DAYS", 7),
			FallbackTripDays: getEnvAsInt("FALLBACK_TRIP_DAYS", 3),
			OfferTTL:         getEnvAsDuration("OFFER_TTL", 24*time.Hour),
			OfferSweepSpec:   getEnv("OFFER_SWEEP_SPEC", "0 */15 * * * *"),

			DefaultCountryCode: getEnv("DEFAULT_COUNTRY_CODE", "94"),
		},
		Realtime: RealtimeConfig{
			Backend:       getEnv("REALTIME_BACKEND", "memory"),
			RedisAddr:     getEnv("REDIS_ADDR", ""),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvAsInt("REDIS_DB", 0),

			RunDecisionConsumer: getEnvAsBool("RUN_DECISION_CONSUMER", true),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getEnvAsFloat("RATE_LIMIT_RPS", 5),
			Burst:             getEnvAsInt("RATE_LIMIT_BURST", 10),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
			AllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type", "Authorization", "x-booking-key"}),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.JWT.RefreshSecret == "" {
		return fmt.Errorf("JWT_REFRESH_SECRET is required")
	}

	if c.BookingToken.Secret == "" {
		return fmt.Errorf("BOOKING_TOKEN_SECRET is required")
	}

	if c.BookingToken.TTL <= 0 {
		return fmt.Errorf("BOOKING_TOKEN_TTL must be positive")
	}

	switch c.Realtime.Backend {
	case "memory":
	case "redis":
		if c.Realtime.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required when REALTIME_BACKEND=redis")
		}
	default:
		return fmt.Errorf("invalid realtime backend: %s (must be 'memory' or 'redis')", c.Realtime.Backend)
	}

	return nil
}

// Helper functions to get environment variables

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid integer value for %s, using default: %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Invalid float value for %s, using default: %v", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Invalid boolean value for %s, using default: %t", key, defaultValue)
		return defaultValue
	}
	return value
}

// getEnvAsDuration accepts Go duration strings ("90m", "1h")
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Invalid duration value for %s, using default: %s", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var result []string
	for _, v := range strings.Split(valueStr, ",") {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
