package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"
)

// FileConfig is the layout of an optional configuration file. Zero values
// leave the default in place; refund settings are pointers because zero is
// a meaningful tolerance.
type FileConfig struct {
	Server struct {
		Port         string `toml:"port" yaml:"port" json:"port"`
		MaxUploadMB  int    `toml:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
		RateLimitRPM int    `toml:"rate_limit_rpm" yaml:"rate_limit_rpm" json:"rate_limit_rpm"`

		TrustedProxies []string `toml:"trusted_proxies" yaml:"trusted_proxies" json:"trusted_proxies"`
	} `toml:"server" yaml:"server" json:"server"`

	Log struct {
		Level string `toml:"level" yaml:"level" json:"level"`
	} `toml:"log" yaml:"log" json:"log"`

	Session struct {
		TTL string `toml:"ttl" yaml:"ttl" json:"ttl"`
		Max int    `toml:"max" yaml:"max" json:"max"`
	} `toml:"session" yaml:"session" json:"session"`

	Data struct {
		Dir     string   `toml:"dir" yaml:"dir" json:"dir"`
		Sources []string `toml:"sources" yaml:"sources" json:"sources"`
	} `toml:"data" yaml:"data" json:"data"`

	Refund struct {
		WindowDays   *int     `toml:"window_days" yaml:"window_days" json:"window_days"`
		AbsTolerance *float64 `toml:"abs_tolerance" yaml:"abs_tolerance" json:"abs_tolerance"`
		PctTolerance *float64 `toml:"pct_tolerance" yaml:"pct_tolerance" json:"pct_tolerance"`
		Similarity   *float64 `toml:"similarity" yaml:"similarity" json:"similarity"`
	} `toml:"refund" yaml:"refund" json:"refund"`

	AMQP struct {
		URL      string `toml:"url" yaml:"url" json:"url"`
		Exchange string `toml:"exchange" yaml:"exchange" json:"exchange"`
		Queue    string `toml:"queue" yaml:"queue" json:"queue"`
	} `toml:"amqp" yaml:"amqp" json:"amqp"`

	Google struct {
		SpreadsheetID      string `toml:"spreadsheet_id" yaml:"spreadsheet_id" json:"spreadsheet_id"`
		SheetRange         string `toml:"sheet_range" yaml:"sheet_range" json:"sheet_range"`
		ServiceAccountFile string `toml:"service_account_file" yaml:"service_account_file" json:"service_account_file"`
	} `toml:"google" yaml:"google" json:"google"`

	Export struct {
		Dir     string `toml:"dir" yaml:"dir" json:"dir"`
		PDFFont string `toml:"pdf_font" yaml:"pdf_font" json:"pdf_font"`
	} `toml:"export" yaml:"export" json:"export"`
}

// LoadFile parses a TOML, YAML or JSON configuration file.
func LoadFile(path string) (*FileConfig, error) {
	fileInfo, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("error accessing config file: %w", err)
	}
	if fileInfo.IsDir() {
		return nil, fmt.Errorf("%s is a directory, not a file", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var fc FileConfig
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if err := toml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("error parsing TOML file: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("error parsing YAML file: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("error parsing JSON file: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", ext)
	}
	return &fc, nil
}

func (fc *FileConfig) apply(c *Config) {
	setString(&c.Port, fc.Server.Port)
	setInt(&c.MaxUploadMB, fc.Server.MaxUploadMB)
	setInt(&c.RateLimitRPM, fc.Server.RateLimitRPM)
	if len(fc.Server.TrustedProxies) > 0 {
		c.TrustedProxies = fc.Server.TrustedProxies
	}
	setString(&c.LogLevel, fc.Log.Level)

	if fc.Session.TTL != "" {
		c.SessionTTL = parseDurationOr(fc.Session.TTL, c.SessionTTL)
	}
	setInt(&c.SessionMax, fc.Session.Max)
	setString(&c.DataDir, fc.Data.Dir)
	if len(fc.Data.Sources) > 0 {
		c.Sources = fc.Data.Sources
	}

	setIfPresent(&c.RefundWindowDays, fc.Refund.WindowDays)
	setIfPresent(&c.RefundAbsTolerance, fc.Refund.AbsTolerance)
	setIfPresent(&c.RefundPctTolerance, fc.Refund.PctTolerance)
	setIfPresent(&c.RefundSimilarity, fc.Refund.Similarity)

	setString(&c.AMQPURL, fc.AMQP.URL)
	setString(&c.AMQPExchange, fc.AMQP.Exchange)
	setString(&c.AMQPQueue, fc.AMQP.Queue)

	setString(&c.GoogleSpreadsheetID, fc.Google.SpreadsheetID)
	setString(&c.GoogleSheetRange, fc.Google.SheetRange)
	setString(&c.GoogleServiceAccountFile, fc.Google.ServiceAccountFile)

	setString(&c.ExportDir, fc.Export.Dir)
	setString(&c.PDFFontPath, fc.Export.PDFFont)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setIfPresent[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
