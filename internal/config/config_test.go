package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var envKeys = []string{
	"PORT", "MAX_UPLOAD_MB", "RATE_LIMIT_RPM", "LOG_LEVEL", "SESSION_TTL", "SESSION_MAX",
	"DATA_DIR", "REFUND_WINDOW_DAYS", "REFUND_ABS_TOLERANCE", "REFUND_PCT_TOLERANCE",
	"REFUND_SIMILARITY", "AMQP_URL", "AMQP_EXCHANGE", "AMQP_QUEUE", "GOOGLE_SPREADSHEET_ID",
	"GOOGLE_SHEET_RANGE", "GOOGLE_SERVICE_ACCOUNT_FILE", "GOOGLE_SERVICE_ACCOUNT_JSON",
	"EXPORT_DIR", "PDF_FONT_PATH", "TRUSTED_PROXIES", "SOURCES",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg := Load()
	if cfg.Port != "8501" || cfg.SessionTTL != 2*time.Hour || cfg.RefundWindowDays != 14 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
	if cfg.MaxUploadBytes() != 32<<20 || cfg.Addr() != ":8501" {
		t.Fatalf("unexpected derived values")
	}
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("REFUND_PCT_TOLERANCE", "0.1")
	t.Setenv("SESSION_MAX", "not-a-number")

	cfg := Load()
	if cfg.Port != "9000" || cfg.SessionTTL != 30*time.Minute || cfg.RefundPctTolerance != 0.1 {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if cfg.SessionMax != 16 {
		t.Fatalf("bad integer must keep the default, got %d", cfg.SessionMax)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config { return Defaults() }
	tests := []struct {
		name        string
		mutate      func(*Config)
		errorString string
	}{
		{"valid defaults", func(*Config) {}, ""},
		{"invalid port - non-numeric", func(c *Config) { c.Port = "abc" }, "invalid port 'abc': must be a number"},
		{"invalid port - out of range", func(c *Config) { c.Port = "70000" }, "invalid port 70000: must be between 1 and 65535"},
		{"invalid log level", func(c *Config) { c.LogLevel = "loud" }, "invalid log level 'loud'"},
		{"short session ttl", func(c *Config) { c.SessionTTL = time.Second }, "invalid session TTL"},
		{"negative window", func(c *Config) { c.RefundWindowDays = -1 }, "invalid refund window -1 days"},
		{"similarity above one", func(c *Config) { c.RefundSimilarity = 1.5 }, "invalid refund similarity 1.5"},
		{"bad trusted proxy", func(c *Config) { c.TrustedProxies = []string{"10.0.0.1"} }, "invalid trusted proxy '10.0.0.1'"},
		{"missing data dir", func(c *Config) { c.DataDir = "/nonexistent/mfdash" }, "data directory '/nonexistent/mfdash' is not accessible"},
		{"bad amqp scheme", func(c *Config) { c.AMQPURL = "http://localhost" }, "invalid AMQP URL scheme 'http'"},
		{"amqp without queue", func(c *Config) { c.AMQPURL = "amqp://localhost"; c.AMQPQueue = "" }, "AMQP queue name cannot be empty"},
		{"missing service account file", func(c *Config) {
			c.GoogleSpreadsheetID = "abc"
			c.GoogleServiceAccountFile = "/nonexistent/sa.json"
		}, "Google service account file does not exist"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.errorString == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.errorString) {
				t.Fatalf("expected error containing %q, got %v", tt.errorString, err)
			}
		})
	}
}

func TestValidateAggregatesErrors(t *testing.T) {
	cfg := Defaults()
	cfg.Port = "0"
	cfg.SessionMax = 0
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.HasPrefix(err.Error(), "configuration validation failed:") || strings.Count(err.Error(), "\n- ") != 2 {
		t.Fatalf("unexpected error format: %v", err)
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadWithFile(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"yaml", "mfdash.yaml", "server:\n  port: \"7000\"\nsession:\n  ttl: 45m\nrefund:\n  similarity: 0.9\n"},
		{"toml", "mfdash.toml", "[server]\nport = \"7000\"\n[session]\nttl = \"45m\"\n[refund]\nsimilarity = 0.9\n"},
		{"json", "mfdash.json", `{"server":{"port":"7000"},"session":{"ttl":"45m"},"refund":{"similarity":0.9}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			cfg, err := LoadWithFile(writeFile(t, tt.file, tt.content))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.Port != "7000" || cfg.SessionTTL != 45*time.Minute || cfg.RefundSimilarity != 0.9 {
				t.Fatalf("file not applied: %+v", cfg)
			}
			if cfg.RefundWindowDays != 14 {
				t.Fatalf("unset keys must keep defaults")
			}
		})
	}
}

func TestLoadWithFileZeroRefundSettings(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"yaml", "zero.yaml", "refund:\n  window_days: 0\n  abs_tolerance: 0\n  pct_tolerance: 0\n"},
		{"toml", "zero.toml", "[refund]\nwindow_days = 0\nabs_tolerance = 0.0\npct_tolerance = 0.0\n"},
		{"json", "zero.json", `{"refund":{"window_days":0,"abs_tolerance":0,"pct_tolerance":0}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			cfg, err := LoadWithFile(writeFile(t, tt.file, tt.content))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.RefundWindowDays != 0 || cfg.RefundAbsTolerance != 0 || cfg.RefundPctTolerance != 0 {
				t.Fatalf("explicit zeros must override defaults: %+v", cfg)
			}
			if cfg.RefundSimilarity != 0.8 {
				t.Fatalf("unset similarity must keep its default, got %v", cfg.RefundSimilarity)
			}
		})
	}
}

func TestTrustedProxies(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadWithFile(writeFile(t, "p.yaml", "server:\n  trusted_proxies: [\"203.0.113.0/24\"]\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.TrustedProxies) != 1 || cfg.TrustedProxies[0] != "203.0.113.0/24" {
		t.Fatalf("file proxies not applied: %v", cfg.TrustedProxies)
	}

	t.Setenv("TRUSTED_PROXIES", " 198.51.100.0/24, ,2001:db8::/32 ")
	cfg = Load()
	if len(cfg.TrustedProxies) != 2 || cfg.TrustedProxies[1] != "2001:db8::/32" {
		t.Fatalf("env proxies not split: %v", cfg.TrustedProxies)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid CIDRs rejected: %v", err)
	}
}

func TestLoadWithFileEnvWins(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9999")
	cfg, err := LoadWithFile(writeFile(t, "c.yml", "server:\n  port: \"7000\"\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != "9999" {
		t.Fatalf("environment must override the file, got %s", cfg.Port)
	}
}

func TestLoadFileErrors(t *testing.T) {
	if _, err := LoadFile(writeFile(t, "c.ini", "port=1")); err == nil || !strings.Contains(err.Error(), "unsupported config file format") {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := LoadFile(t.TempDir()); err == nil || !strings.Contains(err.Error(), "is a directory") {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := LoadFile(writeFile(t, "c.yaml", "server: [")); err == nil || !strings.Contains(err.Error(), "error parsing YAML") {
		t.Fatalf("unexpected error: %v", err)
	}
}
