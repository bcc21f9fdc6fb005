// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aristath/rebalancer/internal/utils"
	"github.com/joho/godotenv"
)

const (
	// DefaultMinTradePercentage is the minimum deviation between current and
	// target share that makes a trade worth emitting.
	DefaultMinTradePercentage = 0.02

	// DefaultReferenceCurrency is the currency portfolio value is computed in.
	DefaultReferenceCurrency = "TWD"

	// FXSourceYahoo converts through Yahoo Finance currency pairs (e.g. USDTWD=X).
	FXSourceYahoo = "yahoo"
	// FXSourceExchangeRate converts through exchangerate-api.com.
	FXSourceExchangeRate = "exchangerate"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Directory holding rebalancer.db (always absolute)
	LogLevel string
	Port     int
	DevMode  bool

	ReferenceCurrency  string
	MinTradePercentage float64

	Prices   PriceConfig
	Schedule string // cron spec for the scheduled rebalance, empty disables it
	Notify   NotifyConfig
	Reports  ReportConfig
}

// PriceConfig configures the price oracle clients
type PriceConfig struct {
	FXSource             string
	YahooBaseURL         string
	ExchangeRateBaseURL  string
	RequestsPerSecond    float64
	MaxConsecutiveErrors uint32
}

// NotifyConfig configures the e-mail notification sent after a run
type NotifyConfig struct {
	SMTPAddr string // host:port, empty disables e-mail
	Username string
	Password string
	From     string
	To       []string
}

// Enabled reports whether e-mail notification is configured
func (c NotifyConfig) Enabled() bool {
	return c.SMTPAddr != "" && c.From != "" && len(c.To) > 0
}

// ReportConfig configures the S3-compatible bucket run reports are archived to
type ReportConfig struct {
	Bucket          string
	Prefix          string
	Endpoint        string // e.g. https://<account>.r2.cloudflarestorage.com
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// Enabled reports whether report archiving is configured
func (c ReportConfig) Enabled() bool {
	return c.Bucket != ""
}

// DatabasePath returns the path of the SQLite store
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "rebalancer.db")
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("REBALANCER_DATA_DIR", "./data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:            absDataDir,
		Port:               getEnvAsInt("GO_PORT", 8001),
		DevMode:            getEnvAsBool("DEV_MODE", false),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		ReferenceCurrency:  strings.ToUpper(getEnv("REFERENCE_CURRENCY", DefaultReferenceCurrency)),
		MinTradePercentage: getEnvAsFloat("MIN_TRADE_PERCENTAGE", DefaultMinTradePercentage),
		Schedule:           getEnv("REBALANCE_SCHEDULE", ""),
		Prices: PriceConfig{
			FXSource:             strings.ToLower(getEnv("FX_SOURCE", FXSourceYahoo)),
			YahooBaseURL:         getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
			ExchangeRateBaseURL:  getEnv("EXCHANGERATE_BASE_URL", "https://api.exchangerate-api.com/v4/latest"),
			RequestsPerSecond:    getEnvAsFloat("PRICE_REQUESTS_PER_SECOND", 2),
			MaxConsecutiveErrors: uint32(getEnvAsInt("PRICE_MAX_CONSECUTIVE_ERRORS", 5)),
		},
		Notify: NotifyConfig{
			SMTPAddr: getEnv("NOTIFY_SMTP_ADDR", ""),
			Username: getEnv("NOTIFY_SMTP_USERNAME", ""),
			Password: getEnv("NOTIFY_SMTP_PASSWORD", ""),
			From:     getEnv("NOTIFY_FROM", ""),
			To:       utils.ParseCSV(getEnv("NOTIFY_TO", "")),
		},
		Reports: ReportConfig{
			Bucket:          getEnv("REPORT_BUCKET", ""),
			Prefix:          getEnv("REPORT_PREFIX", "rebalance"),
			Endpoint:        getEnv("REPORT_ENDPOINT", ""),
			Region:          getEnv("REPORT_REGION", "auto"),
			AccessKeyID:     getEnv("REPORT_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("REPORT_SECRET_ACCESS_KEY", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.ReferenceCurrency == "" {
		return fmt.Errorf("reference currency must not be empty")
	}
	if c.MinTradePercentage < 0 || c.MinTradePercentage > 1 {
		return fmt.Errorf("min trade percentage must be within [0, 1], got %v", c.MinTradePercentage)
	}
	switch c.Prices.FXSource {
	case FXSourceYahoo, FXSourceExchangeRate:
	default:
		return fmt.Errorf("unknown FX source %q", c.Prices.FXSource)
	}
	if c.Prices.RequestsPerSecond <= 0 {
		return fmt.Errorf("price requests per second must be positive")
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
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
