package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server       ServerConfig
	Gateway      GatewayConfig
	Contribution ContributionConfig
	Polling      PollingConfig
	Storage      StorageConfig
	Waitlist     WaitlistConfig
	Security     SecurityConfig
	Notify       NotifyConfig
	Telemetry    TelemetryConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port               string
	Host               string
	LogLevel           string
	CORSAllowedOrigins []string
}

// GatewayConfig holds payment gateway configuration
type GatewayConfig struct {
	CreateOrderURL string
	StatusURL      string
	UserToken      string
	CustomerMobile string
	Timeout        time.Duration
}

// ContributionConfig holds defaults applied to contribution orders
type ContributionConfig struct {
	RedirectURL   string
	DefaultAmount int64
	MaxAmount     int64
	Remark1       string
	Remark2       string
	OrderIDPrefix string
}

// PollingConfig holds order status polling configuration
type PollingConfig struct {
	Interval time.Duration
	Timeout  time.Duration
	Sweep    time.Duration
}

// StorageConfig holds order store configuration
type StorageConfig struct {
	OrderDBPath string
	OrderTTL    time.Duration
}

// WaitlistConfig holds waitlist endpoint configuration
type WaitlistConfig struct {
	URL     string
	Timeout time.Duration
}

// SecurityConfig holds security configuration
type SecurityConfig struct {
	APIKey string
}

// NotifyConfig holds WhatsApp notification configuration
type NotifyConfig struct {
	Enabled            bool
	DBPath             string
	Destination        string
	DefaultCountryCode string
}

// TelemetryConfig holds tracing configuration
type TelemetryConfig struct {
	OTLPEndpoint string
	ServiceName  string
}

const defaultWaitlistURL = "https://script.google.com/macros/s/AKfycbwCcBnwLWHTtldKZRuxC8O_JYgNE0t7SJMLszNAusHPGnVGwgXSjEQXocU4WPfPdBYw/exec"

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			Host:               getEnv("HOST", "0.0.0.0"),
			LogLevel:           getEnv("LOG_LEVEL", "INFO"),
			CORSAllowedOrigins: parseStringList(getEnv("CORS_ALLOWED_ORIGINS", "")),
		},
		Gateway: GatewayConfig{
			CreateOrderURL: getEnv("GATEWAY_CREATE_ORDER_URL", "https://pay0.shop/api/create-order"),
			StatusURL:      getEnv("GATEWAY_STATUS_URL", "https://pay0.shop/api/check-order-status"),
			UserToken:      getEnv("GATEWAY_USER_TOKEN", ""),
			CustomerMobile: getEnv("GATEWAY_CUSTOMER_MOBILE", ""),
			Timeout:        parseDuration(getEnv("GATEWAY_TIMEOUT", "15s"), 15*time.Second),
		},
		Contribution: ContributionConfig{
			RedirectURL:   getEnv("CONTRIBUTION_REDIRECT_URL", ""),
			DefaultAmount: parseInt64(getEnv("CONTRIBUTION_DEFAULT_AMOUNT", "99"), 99),
			MaxAmount:     parseInt64(getEnv("CONTRIBUTION_MAX_AMOUNT", "500000"), 500000),
			Remark1:       getEnv("CONTRIBUTION_REMARK1", "mahabharata-project"),
			Remark2:       getEnv("CONTRIBUTION_REMARK2", "landing-page"),
			OrderIDPrefix: getEnv("ORDER_ID_PREFIX", "MBP"),
		},
		Polling: PollingConfig{
			Interval: parseDuration(getEnv("STATUS_POLL_INTERVAL", "5s"), 5*time.Second),
			Timeout:  parseDuration(getEnv("STATUS_POLL_TIMEOUT", "10m"), 10*time.Minute),
			Sweep:    parseDuration(getEnv("STATUS_SWEEP_INTERVAL", "1m"), time.Minute),
		},
		Storage: StorageConfig{
			OrderDBPath: getEnv("ORDER_DB_PATH", "./db/orders.db"),
			OrderTTL:    parseDuration(getEnv("ORDER_TTL", "720h"), 720*time.Hour),
		},
		Waitlist: WaitlistConfig{
			URL:     getEnv("WAITLIST_URL", defaultWaitlistURL),
			Timeout: parseDuration(getEnv("WAITLIST_TIMEOUT", "10s"), 10*time.Second),
		},
		Security: SecurityConfig{
			APIKey: getEnv("API_KEY", ""),
		},
		Notify: NotifyConfig{
			Enabled:            parseBool(getEnv("NOTIFY_ENABLED", "false"), false),
			DBPath:             getEnv("WA_DB_PATH", "./db/whatsmeow.db"),
			Destination:        getEnv("WA_NOTIFY_DESTINATION", ""),
			DefaultCountryCode: getEnv("WA_DEFAULT_COUNTRY_CODE", "91"),
		},
		Telemetry: TelemetryConfig{
			OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			ServiceName:  getEnv("OTEL_SERVICE_NAME", "mahabharata-landing"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks required fields and endpoint formats
func (c *Config) Validate() error {
	if c.Gateway.UserToken == "" {
		return fmt.Errorf("GATEWAY_USER_TOKEN is required")
	}
	if err := requireAbsoluteURL("GATEWAY_CREATE_ORDER_URL", c.Gateway.CreateOrderURL); err != nil {
		return err
	}
	if err := requireAbsoluteURL("GATEWAY_STATUS_URL", c.Gateway.StatusURL); err != nil {
		return err
	}
	if err := requireAbsoluteURL("WAITLIST_URL", c.Waitlist.URL); err != nil {
		return err
	}
	if c.Contribution.RedirectURL != "" {
		if err := requireAbsoluteURL("CONTRIBUTION_REDIRECT_URL", c.Contribution.RedirectURL); err != nil {
			return err
		}
	}
	if c.Contribution.DefaultAmount <= 0 {
		return fmt.Errorf("CONTRIBUTION_DEFAULT_AMOUNT must be positive")
	}
	for _, d := range []struct {
		key   string
		value time.Duration
	}{
		{"GATEWAY_TIMEOUT", c.Gateway.Timeout},
		{"STATUS_POLL_INTERVAL", c.Polling.Interval},
		{"STATUS_POLL_TIMEOUT", c.Polling.Timeout},
		{"STATUS_SWEEP_INTERVAL", c.Polling.Sweep},
		{"ORDER_TTL", c.Storage.OrderTTL},
		{"WAITLIST_TIMEOUT", c.Waitlist.Timeout},
	} {
		if d.value <= 0 {
			return fmt.Errorf("%s must be a positive duration, got %s", d.key, d.value)
		}
	}
	if c.Notify.Enabled && c.Notify.Destination == "" {
		return fmt.Errorf("WA_NOTIFY_DESTINATION is required when NOTIFY_ENABLED is true")
	}
	return nil
}

func requireAbsoluteURL(key, value string) error {
	u, err := url.Parse(value)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute URL, got %q", key, value)
	}
	return nil
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// parseInt64 parses string to int64 with default value
func parseInt64(value string, defaultValue int64) int64 {
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return defaultValue
	}
	return intValue
}

func parseBool(value string, defaultValue bool) bool {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

// parseDuration parses string to time.Duration with default value
func parseDuration(value string, defaultValue time.Duration) time.Duration {
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}

// parseStringList parses comma-separated string to slice
func parseStringList(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
