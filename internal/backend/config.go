package backend

import (
	"fmt"
	"strings"

	"mfdash/internal/config"
	"mfdash/internal/sheets/google"
)

// FromAppConfig converts the application config to source config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}
	only, err := ParseSourceTypes(appConfig.Sources)
	if err != nil {
		return Config{}, err
	}
	return Config{
		Only:          only,
		DataDirectory: appConfig.DataDir,
		Google: google.Config{
			SpreadsheetID:   appConfig.GoogleSpreadsheetID,
			Ranges:          google.ParseRanges(appConfig.GoogleSheetRange),
			CredentialsJSON: appConfig.GoogleServiceAccountJSON,
			CredentialsFile: appConfig.GoogleServiceAccountFile,
		},
	}, nil
}

// Types lists the configured source types in load order, narrowed to
// c.Only when set.
func (c Config) Types() []SourceType {
	var out []SourceType
	if c.DataDirectory != "" && c.enabled(DirSource) {
		out = append(out, DirSource)
	}
	if c.Google.SpreadsheetID != "" && c.enabled(SheetsSource) {
		out = append(out, SheetsSource)
	}
	return out
}

func (c Config) enabled(t SourceType) bool {
	if len(c.Only) == 0 {
		return true
	}
	for _, o := range c.Only {
		if o == t {
			return true
		}
	}
	return false
}

// ParseSourceTypes validates source type names such as "dir" or "sheets".
func ParseSourceTypes(names []string) ([]SourceType, error) {
	var out []SourceType
	for _, name := range names {
		t := SourceType(strings.ToLower(strings.TrimSpace(name)))
		if t == "" {
			continue
		}
		if !t.IsValid() {
			return nil, fmt.Errorf("unknown source type %q: must be one of %s", name, strings.Join(GetSourceTypeStrings(), ", "))
		}
		out = append(out, t)
	}
	return out, nil
}

// Validate validates the source configuration
func (c Config) Validate() error {
	for _, t := range c.Types() {
		if t == SheetsSource && len(c.Google.Ranges) == 0 {
			return fmt.Errorf("Google sheet range is required for sheets source")
		}
	}
	return nil
}

// GetSourceTypeStrings returns all valid source type strings
func GetSourceTypeStrings() []string {
	return []string{DirSource.String(), SheetsSource.String()}
}
