// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

type Config struct {
	Environment string
	Server      ServerConfig
	Storage     StorageConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	Redis       RedisConfig
	AWS         AWSConfig
	Wallet      WalletConfig
	Purchase    PurchaseConfig
	Log         LogConfig
}

type ServerConfig struct {
	Port             string
	Host             string
	ReadTimeout      int
	WriteTimeout     int
	IdleTimeout      int
	RateLimitEnabled bool
	AllowedOrigins   []string
}

// StorageConfig selects the store implementation. "memory" keeps every
// record in process and is meant for local runs and tests.
type StorageConfig struct {
	Driver      string
	SeedCatalog bool
}

type DatabaseConfig struct {
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
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	S3Bucket        string
	DownloadURLTTL  time.Duration
	LocalFilesURL   string
}

type WalletConfig struct {
	TopUpCap decimal.Decimal
}

type PurchaseConfig struct {
	CommissionRate            decimal.Decimal
	LockTimeout               time.Duration
	LockTTL                   time.Duration
	CompensationMaxRetries    int
	CompensationRetryInterval time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:             getEnv("SERVER_PORT", "8080"),
			Host:             getEnv("SERVER_HOST", "localhost"),
			ReadTimeout:      getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout:     getEnvAsInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:      getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
			RateLimitEnabled: getEnvAsBool("RATE_LIMIT_ENABLED", true),
			AllowedOrigins:   getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Storage: StorageConfig{
			Driver:      getEnv("STORAGE_DRIVER", "postgres"),
			SeedCatalog: getEnvAsBool("SEED_CATALOG", false),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "digital_marketplace"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsInt("DB_MAX_LIFETIME", 300),
			LogLevel:     getEnv("DB_LOG_LEVEL", "silent"),
		},
		JWT: JWTConfig{
			SecretKey: getEnv("JWT_SECRET", defaultJWTSecret),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", ""),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			S3Bucket:        getEnv("AWS_S3_BUCKET", "digital-marketplace-assets"),
			DownloadURLTTL:  getEnvAsDuration("DOWNLOAD_URL_TTL", 15*time.Minute),
			LocalFilesURL:   getEnv("LOCAL_FILES_URL", "/files"),
		},
		Wallet: WalletConfig{
			TopUpCap: getEnvAsDecimal("WALLET_TOPUP_CAP", decimal.NewFromInt(10000)),
		},
		Purchase: PurchaseConfig{
			CommissionRate:            getEnvAsDecimal("COMMISSION_RATE", decimal.RequireFromString("0.10")),
			LockTimeout:               getEnvAsDuration("PURCHASE_LOCK_TIMEOUT", 5*time.Second),
			LockTTL:                   getEnvAsDuration("PURCHASE_LOCK_TTL", 30*time.Second),
			CompensationMaxRetries:    getEnvAsInt("COMPENSATION_MAX_RETRIES", 3),
			CompensationRetryInterval: getEnvAsDuration("COMPENSATION_RETRY_INTERVAL", 100*time.Millisecond),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", ""),
		},
	}

	return config, config.Validate()
}

func (c *Config) Validate() error {
	if c.JWT.SecretKey == defaultJWTSecret && c.Environment == "production" {
		return fmt.Errorf("JWT secret key must be changed in production")
	}

	if c.Storage.Driver == "postgres" && c.Database.Password == "" && c.Environment == "production" {
		return fmt.Errorf("database password is required in production")
	}

	if c.Storage.Driver != "postgres" && c.Storage.Driver != "memory" {
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	if c.Purchase.CommissionRate.IsNegative() || c.Purchase.CommissionRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("commission rate must be in [0, 1), got %s", c.Purchase.CommissionRate)
	}

	if !c.Wallet.TopUpCap.IsPositive() {
		return fmt.Errorf("wallet top-up cap must be positive, got %s", c.Wallet.TopUpCap)
	}

	if c.Purchase.CompensationMaxRetries < 0 {
		return fmt.Errorf("compensation retries cannot be negative")
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
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

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.ToLower(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := decimal.NewFromString(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
