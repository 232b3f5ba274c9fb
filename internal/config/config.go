// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment  string
	Server       ServerConfig
	Database     DatabaseConfig
	JWT          JWTConfig
	Catalog      CatalogConfig
	ImageService ImageServiceConfig
	AWS          AWSConfig
	Billing      BillingConfig
	Studio       StudioConfig
	CORS         CORSConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  int
	WriteTimeout int
	IdleTimeout  int
}

type DatabaseConfig struct {
	Enabled      bool
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
	LogLevel     string
}

type JWTConfig struct {
	SecretKey string
	TokenTTL  int // in hours
}

// CatalogConfig points at the store catalog API. Version selects the wire
// contract; both versions return the same normalized media items.
type CatalogConfig struct {
	BaseURL  string
	Version  string // "v1" or "v3"
	CacheTTL int    // in seconds
}

type ImageServiceConfig struct {
	BaseURL string
	Retries int
}

type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	S3Bucket        string
	CloudFrontURL   string
}

type BillingConfig struct {
	StripeSecretKey   string
	PremiumPriceID    string
	FreeImageQuota    int
	PremiumImageQuota int
}

type StudioConfig struct {
	SessionTTL    int // in minutes
	MaxLiveImages int
	ProbeMaxBytes int64
	UploadMaxSize int64
}

type CORSConfig struct {
	AllowedOrigins []string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "localhost"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:  getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			Enabled:      getEnvAsBool("DB_ENABLED", false),
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "photostudio"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsInt("DB_MAX_LIFETIME", 300),
			LogLevel:     getEnv("DB_LOG_LEVEL", "silent"),
		},
		JWT: JWTConfig{
			SecretKey: getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
			TokenTTL:  getEnvAsInt("JWT_TOKEN_TTL", 24), // 24 hours
		},
		Catalog: CatalogConfig{
			BaseURL:  getEnv("CATALOG_BASE_URL", "https://www.wixapis.com/stores"),
			Version:  getEnv("CATALOG_API_VERSION", "v3"),
			CacheTTL: getEnvAsInt("CATALOG_CACHE_TTL", 60),
		},
		ImageService: ImageServiceConfig{
			BaseURL: getEnv("IMAGE_SERVICE_BASE_URL", ""),
			Retries: getEnvAsInt("IMAGE_SERVICE_RETRIES", 3),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			S3Bucket:        getEnv("AWS_S3_BUCKET", "photostudio-staging"),
			CloudFrontURL:   getEnv("AWS_CLOUDFRONT_URL", ""),
		},
		Billing: BillingConfig{
			StripeSecretKey:   getEnv("STRIPE_SECRET_KEY", ""),
			PremiumPriceID:    getEnv("STRIPE_PREMIUM_PRICE_ID", ""),
			FreeImageQuota:    getEnvAsInt("BILLING_FREE_IMAGE_QUOTA", 20),
			PremiumImageQuota: getEnvAsInt("BILLING_PREMIUM_IMAGE_QUOTA", 500),
		},
		Studio: StudioConfig{
			SessionTTL:    getEnvAsInt("STUDIO_SESSION_TTL", 30), // 30 minutes
			MaxLiveImages: getEnvAsInt("STUDIO_MAX_LIVE_IMAGES", 10),
			ProbeMaxBytes: int64(getEnvAsInt("STUDIO_PROBE_MAX_BYTES", 1<<20)),
			UploadMaxSize: int64(getEnvAsInt("STUDIO_UPLOAD_MAX_SIZE", 10<<20)),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitAndTrim(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		},
	}

	return config, config.Validate()
}

func (c *Config) Validate() error {
	if c.JWT.SecretKey == "your-secret-key-change-in-production" && c.Environment == "production" {
		return fmt.Errorf("JWT secret key must be changed in production")
	}

	if c.Database.Enabled && c.Database.Password == "" && c.Environment == "production" {
		return fmt.Errorf("database password is required in production")
	}

	if c.ImageService.BaseURL == "" && c.Environment == "production" {
		return fmt.Errorf("image service base URL is required in production")
	}

	if c.Catalog.Version != "v1" && c.Catalog.Version != "v3" {
		return fmt.Errorf("unsupported catalog API version: %s", c.Catalog.Version)
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.ToLower(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
