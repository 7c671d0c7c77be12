package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	SourceHTTP     = "http"
	SourceFile     = "file"
	SourceExcel    = "excel"
	SourcePostgres = "postgres"
)

// DefaultFeedURL is where the daily city temperature CSV is published.
const DefaultFeedURL = "https://cloudbox.ku.ac.th/index.php/s/HKQzGzAJdMkZgYj/download"

type AppConfig struct {
	// DataSource selects where the raw table is read from.
	DataSource string `validate:"oneof=http file excel postgres"`

	DataURL       string `validate:"required_if=DataSource http"`
	DataPath      string `validate:"required_if=DataSource file,required_if=DataSource excel"`
	ExcelSheet    string
	DatabaseURL   string `validate:"required_if=DataSource postgres"`
	DatabaseTable string `validate:"required_if=DataSource postgres"`

	// HTTPTimeout bounds a single outbound request to the feed.
	HTTPTimeout time.Duration `validate:"gt=0"`

	// RefreshInterval controls how often the feed is reloaded (0 = never).
	RefreshInterval time.Duration `validate:"gte=0"`

	Port            string `validate:"required,numeric"`
	LogLevel        string `validate:"oneof=debug info warn error"`
	LogFormat       string `validate:"oneof=json text"`
	ShutdownTimeout time.Duration `validate:"gt=0"`
}

var validate = validator.New()

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{
		DataSource:    getenvDefault("DATA_SOURCE", SourceHTTP),
		DataURL:       getenvDefault("DATA_URL", DefaultFeedURL),
		DataPath:      os.Getenv("DATA_PATH"),
		ExcelSheet:    os.Getenv("EXCEL_SHEET"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		DatabaseTable: getenvDefault("DATABASE_TABLE", "temperatures"),
		Port:          getenvDefault("PORT", "8080"),
		LogLevel:      getenvDefault("LOG_LEVEL", "info"),
		LogFormat:     getenvDefault("LOG_FORMAT", "json"),
	}

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "30s"); err != nil {
		return nil, err
	}
	// Daily feed: one refresh per day is enough.
	if cfg.RefreshInterval, err = getenvDuration("REFRESH_INTERVAL", "24h"); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = getenvDuration("SHUTDOWN_TIMEOUT", "10s"); err != nil {
		return nil, err
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
