package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port         string
	MaxUploadMB  int
	RateLimitRPM int
	// Networks, besides the private ranges, allowed to set X-Forwarded-For
	TrustedProxies []string

	LogLevel string

	// Sessions
	SessionTTL time.Duration
	SessionMax int

	// Directory preloaded as the default session
	DataDir string
	// Source types to load (dir, sheets); empty loads every configured one
	Sources []string

	// Refund matching
	RefundWindowDays   int
	RefundAbsTolerance float64
	RefundPctTolerance float64
	RefundSimilarity   float64

	// AMQP (optional)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets source (optional)
	GoogleSpreadsheetID      string
	GoogleSheetRange         string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string

	// Export
	ExportDir   string
	PDFFontPath string
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Port:         "8501",
		MaxUploadMB:  32,
		RateLimitRPM: 30,
		LogLevel:     "info",

		SessionTTL: 2 * time.Hour,
		SessionMax: 16,

		RefundWindowDays:   14,
		RefundAbsTolerance: 100,
		RefundPctTolerance: 0.05,
		RefundSimilarity:   0.8,

		AMQPExchange: "mfdash",
		AMQPQueue:    "dataset_events",

		GoogleSheetRange: "A:J",
	}
}

// Load reads the configuration from the environment.
func Load() *Config {
	return fromEnv(Defaults())
}

// LoadWithFile reads path (YAML, TOML or JSON) and lets the environment
// override any value it sets. An empty path behaves like Load.
func LoadWithFile(path string) (*Config, error) {
	base := Defaults()
	if path != "" {
		fc, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		fc.apply(&base)
	}
	return fromEnv(base), nil
}

func fromEnv(base Config) *Config {
	return &Config{
		Port:         getEnv("PORT", base.Port),
		MaxUploadMB:  getEnvInt("MAX_UPLOAD_MB", base.MaxUploadMB),
		RateLimitRPM: getEnvInt("RATE_LIMIT_RPM", base.RateLimitRPM),
		LogLevel:     getEnv("LOG_LEVEL", base.LogLevel),

		TrustedProxies: getEnvList("TRUSTED_PROXIES", base.TrustedProxies),

		SessionTTL: getEnvDuration("SESSION_TTL", base.SessionTTL),
		SessionMax: getEnvInt("SESSION_MAX", base.SessionMax),

		DataDir: getEnv("DATA_DIR", base.DataDir),
		Sources: getEnvList("SOURCES", base.Sources),

		RefundWindowDays:   getEnvInt("REFUND_WINDOW_DAYS", base.RefundWindowDays),
		RefundAbsTolerance: getEnvFloat("REFUND_ABS_TOLERANCE", base.RefundAbsTolerance),
		RefundPctTolerance: getEnvFloat("REFUND_PCT_TOLERANCE", base.RefundPctTolerance),
		RefundSimilarity:   getEnvFloat("REFUND_SIMILARITY", base.RefundSimilarity),

		AMQPURL:      getEnv("AMQP_URL", base.AMQPURL),
		AMQPExchange: getEnv("AMQP_EXCHANGE", base.AMQPExchange),
		AMQPQueue:    getEnv("AMQP_QUEUE", base.AMQPQueue),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", base.GoogleSpreadsheetID),
		GoogleSheetRange:         getEnv("GOOGLE_SHEET_RANGE", base.GoogleSheetRange),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", base.GoogleServiceAccountFile),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", base.GoogleServiceAccountJSON),

		ExportDir:   getEnv("EXPORT_DIR", base.ExportDir),
		PDFFontPath: getEnv("PDF_FONT_PATH", base.PDFFontPath),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.MaxUploadMB < 1 || c.MaxUploadMB > 1024 {
		errors = append(errors, fmt.Sprintf("invalid max upload size %d MB: must be between 1 and 1024", c.MaxUploadMB))
	}
	if c.RateLimitRPM < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitRPM))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	if c.SessionTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
	}
	if c.SessionMax < 1 {
		errors = append(errors, fmt.Sprintf("invalid session max %d: must be at least 1", c.SessionMax))
	}

	for _, cidr := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			errors = append(errors, fmt.Sprintf("invalid trusted proxy '%s': must be a CIDR such as 203.0.113.0/24", cidr))
		}
	}

	if c.DataDir != "" {
		if fi, err := os.Stat(c.DataDir); err != nil {
			errors = append(errors, fmt.Sprintf("data directory '%s' is not accessible: %v", c.DataDir, err))
		} else if !fi.IsDir() {
			errors = append(errors, fmt.Sprintf("data directory '%s' is not a directory", c.DataDir))
		}
	}

	if c.RefundWindowDays < 0 {
		errors = append(errors, fmt.Sprintf("invalid refund window %d days: must not be negative", c.RefundWindowDays))
	}
	if c.RefundAbsTolerance < 0 {
		errors = append(errors, fmt.Sprintf("invalid refund absolute tolerance %v: must not be negative", c.RefundAbsTolerance))
	}
	if c.RefundPctTolerance < 0 || c.RefundPctTolerance > 1 {
		errors = append(errors, fmt.Sprintf("invalid refund percentage tolerance %v: must be between 0 and 1", c.RefundPctTolerance))
	}
	if c.RefundSimilarity < 0 || c.RefundSimilarity > 1 {
		errors = append(errors, fmt.Sprintf("invalid refund similarity %v: must be between 0 and 1", c.RefundSimilarity))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.GoogleSpreadsheetID != "" {
		if c.GoogleSheetRange == "" {
			errors = append(errors, "Google sheet range is required when GOOGLE_SPREADSHEET_ID is set")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	if c.PDFFontPath != "" {
		if _, err := os.Stat(c.PDFFontPath); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("PDF font file does not exist: %s", c.PDFFontPath))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// MaxUploadBytes is the multipart body limit.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

// getEnvList splits a comma-separated variable, dropping empty items.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func parseDurationOr(s string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil {
		return d
	}
	return def
}
