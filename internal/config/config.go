package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Storage drivers
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds all configuration for the API service
type Config struct {
	// HTTP
	Port               string   `validate:"required,numeric"`
	CORSAllowedOrigins []string `validate:"min=1"`
	StaticDir          string

	// Storage
	StorageDriver string `validate:"oneof=memory sqlite postgres"`
	SQLitePath    string `validate:"required_if=StorageDriver sqlite"`
	DatabaseURL   string `validate:"required_if=StorageDriver postgres"`
	SeedFile      string
	SeedOnStart   bool

	// Nearest-bus lookups
	NearestLimit int `validate:"gt=0"`

	LogLevel string `validate:"oneof=debug info warn error"`
}

// LoadEnvFiles loads .env then .env.local (which overrides) from dir. Missing files are ignored.
func LoadEnvFiles(dir string) {
	_ = godotenv.Load(dir + "/.env")
	_ = godotenv.Overload(dir + "/.env.local")
}

// Load reads configuration from environment variables with sensible defaults
func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8081"),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		StaticDir:          getEnv("STATIC_DIR", ""),

		StorageDriver: strings.ToLower(getEnv("STORAGE_DRIVER", DriverMemory)),
		SQLitePath:    getEnv("SQLITE_DATABASE", "data/transit.db"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		SeedFile:      getEnv("SEED_FILE", ""),
		SeedOnStart:   getEnvBool("SEED_ON_START", true),

		NearestLimit: getEnvInt("NEAREST_LIMIT", 5),

		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),
	}
}

// Validate checks the loaded values
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
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
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
