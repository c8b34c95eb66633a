package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Chain store backends.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

const defaultJWTSecret = "a-very-secret-key-should-be-longer-and-random"

// Config holds application configuration.
type Config struct {
	DatabaseURL   string `mapstructure:"PGSQL_URL" validate:"required_if=ChainStore postgres"`
	Port          string `mapstructure:"PORT" validate:"required,numeric"`
	IsProduction  bool   `mapstructure:"IS_PRODUCTION"`
	EnableDBCheck bool   `mapstructure:"ENABLE_DB_CHECK"`
	JWTSecret     string `mapstructure:"JWT_SECRET" validate:"required,min=16"`
	JWTIssuer     string `mapstructure:"JWT_ISSUER"`
	ServiceAPIKey string `mapstructure:"SERVICE_API_KEY"` // Lets schedulers call admin routes with x-api-key

	// Chain traversal
	ChainMaxDepth     int    `mapstructure:"CHAIN_MAX_DEPTH" validate:"min=1,max=1000"`
	ChainStore        string `mapstructure:"CHAIN_STORE" validate:"oneof=postgres memory"`
	ChainFixturesFile string `mapstructure:"CHAIN_FIXTURES_FILE"` // JSON fixtures loaded when ChainStore is memory

	// Location files
	GCSBucket             string `mapstructure:"GCS_BUCKET"`
	GoogleCredentialsJSON string `mapstructure:"GOOGLE_APPLICATION_CREDENTIALS_JSON"`
	GoogleCredentialsFile string `mapstructure:"GOOGLE_APPLICATION_CREDENTIALS"`
	LocationFilePrefix    string `mapstructure:"LOCATION_FILE_PREFIX" validate:"required"`
	BundleArchivePrefix   string `mapstructure:"BUNDLE_ARCHIVE_PREFIX"` // Built bundles are stored under it when set

	// Counts cache
	RedisAddr     string        `mapstructure:"REDIS_ADDR" validate:"omitempty,hostname_port"`
	RedisPassword string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int           `mapstructure:"REDIS_DB" validate:"min=0"`
	CountsTTL     time.Duration `mapstructure:"COUNTS_CACHE_TTL" validate:"min=0"`

	// HTTP surface
	RateLimit          string   `mapstructure:"RATE_LIMIT" validate:"required"`
	CORSAllowedOrigins []string `mapstructure:"CORS_ALLOWED_ORIGINS"`
	PosthogAPIKey      string   `mapstructure:"POSTHOG_API_KEY"`

	// Season backfill
	SeasonBackfillBatchSize int `mapstructure:"SEASON_BACKFILL_BATCH_SIZE" validate:"min=1,max=10000"`
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("PGSQL_URL", "")
	v.SetDefault("PORT", "8080")
	v.SetDefault("IS_PRODUCTION", false)
	v.SetDefault("ENABLE_DB_CHECK", false)
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("JWT_ISSUER", "supply-chain-app")
	v.SetDefault("SERVICE_API_KEY", "")
	v.SetDefault("CHAIN_MAX_DEPTH", 64)
	v.SetDefault("CHAIN_STORE", StorePostgres)
	v.SetDefault("CHAIN_FIXTURES_FILE", "")
	v.SetDefault("GCS_BUCKET", "")
	v.SetDefault("GOOGLE_APPLICATION_CREDENTIALS_JSON", "")
	v.SetDefault("GOOGLE_APPLICATION_CREDENTIALS", "")
	v.SetDefault("LOCATION_FILE_PREFIX", "locations")
	v.SetDefault("BUNDLE_ARCHIVE_PREFIX", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("COUNTS_CACHE_TTL", "5m")
	v.SetDefault("RATE_LIMIT", "60-M")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("POSTHOG_API_KEY", "")
	v.SetDefault("SEASON_BACKFILL_BATCH_SIZE", 500)

	v.AutomaticEnv()

	countsTTL, err := time.ParseDuration(v.GetString("COUNTS_CACHE_TTL"))
	if err != nil {
		return nil, fmt.Errorf("invalid COUNTS_CACHE_TTL %q: %w", v.GetString("COUNTS_CACHE_TTL"), err)
	}

	cfg := &Config{
		DatabaseURL:             v.GetString("PGSQL_URL"),
		Port:                    v.GetString("PORT"),
		IsProduction:            v.GetBool("IS_PRODUCTION"),
		EnableDBCheck:           v.GetBool("ENABLE_DB_CHECK"),
		JWTSecret:               v.GetString("JWT_SECRET"),
		JWTIssuer:               v.GetString("JWT_ISSUER"),
		ServiceAPIKey:           v.GetString("SERVICE_API_KEY"),
		ChainMaxDepth:           v.GetInt("CHAIN_MAX_DEPTH"),
		ChainStore:              strings.ToLower(v.GetString("CHAIN_STORE")),
		ChainFixturesFile:       v.GetString("CHAIN_FIXTURES_FILE"),
		GCSBucket:               v.GetString("GCS_BUCKET"),
		GoogleCredentialsJSON:   v.GetString("GOOGLE_APPLICATION_CREDENTIALS_JSON"),
		GoogleCredentialsFile:   v.GetString("GOOGLE_APPLICATION_CREDENTIALS"),
		LocationFilePrefix:      v.GetString("LOCATION_FILE_PREFIX"),
		BundleArchivePrefix:     v.GetString("BUNDLE_ARCHIVE_PREFIX"),
		RedisAddr:               v.GetString("REDIS_ADDR"),
		RedisPassword:           v.GetString("REDIS_PASSWORD"),
		RedisDB:                 v.GetInt("REDIS_DB"),
		CountsTTL:               countsTTL,
		RateLimit:               v.GetString("RATE_LIMIT"),
		CORSAllowedOrigins:      splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		PosthogAPIKey:           v.GetString("POSTHOG_API_KEY"),
		SeasonBackfillBatchSize: v.GetInt("SEASON_BACKFILL_BATCH_SIZE"),
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.JWTSecret == defaultJWTSecret {
		if cfg.IsProduction {
			return nil, fmt.Errorf("JWT_SECRET must be set in production")
		}
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}
	if cfg.GCSBucket == "" {
		log.Println("Warning: GCS_BUCKET not set. Location file downloads will fail.")
	}

	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
