package sheets

import (
	"context"

	"mfdash/internal/loader"
)

// Ports for inbound data sources.
type (
	// Source yields raw export files from somewhere other than an upload.
	Source interface {
		Name() string
		Fetch(ctx context.Context) ([]loader.Input, error)
	}

	// ValuesReader returns the cell values of one A1 range.
	ValuesReader interface {
		ReadValues(ctx context.Context, spreadsheetID, rng string) ([][]interface{}, error)
	}
)
