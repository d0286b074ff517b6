package backend

import (
	"context"

	"mfdash/internal/sheets"
	"mfdash/internal/sheets/google"
)

// Factory creates the sources that feed the default session.
type Factory interface {
	// CreateSources builds one source per configured source type, in
	// load order.
	CreateSources(ctx context.Context, config Config) ([]sheets.Source, error)
}

// Config holds configuration for source creation
type Config struct {
	// Directory of CSV exports
	DataDirectory string

	// Google Sheets specific
	Google google.Config

	// Only restricts loading to these types; empty loads every configured
	// source.
	Only []SourceType
}

// SourceType represents the type of source
type SourceType string

const (
	DirSource    SourceType = "dir"
	SheetsSource SourceType = "sheets"
)

// String implements fmt.Stringer
func (st SourceType) String() string {
	return string(st)
}

// IsValid returns true if the source type is valid
func (st SourceType) IsValid() bool {
	switch st {
	case DirSource, SheetsSource:
		return true
	default:
		return false
	}
}
