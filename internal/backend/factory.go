package backend

import (
	"context"
	"fmt"

	"mfdash/internal/log"
	"mfdash/internal/sheets"
	"mfdash/internal/sheets/google"
	"mfdash/internal/sheets/local"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new source factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{logger: logger}
}

// CreateSources implements Factory.CreateSources
func (f *DefaultFactory) CreateSources(ctx context.Context, config Config) ([]sheets.Source, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	var out []sheets.Source
	for _, t := range config.Types() {
		var (
			src sheets.Source
			err error
		)
		switch t {
		case DirSource:
			src = f.createDirSource(config)
		case SheetsSource:
			src, err = f.createSheetsSource(ctx, config)
		default:
			err = fmt.Errorf("unsupported source type: %s", t)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, src)
	}
	return out, nil
}

func (f *DefaultFactory) createDirSource(config Config) sheets.Source {
	f.logger.Info("Initialized directory source", "data_directory", config.DataDirectory)
	return local.NewDir(config.DataDirectory)
}

func (f *DefaultFactory) createSheetsSource(ctx context.Context, config Config) (sheets.Source, error) {
	src, err := google.New(ctx, config.Google, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets source: %w", err)
	}
	f.logger.Info("Initialized Google Sheets source", "ranges", len(config.Google.Ranges))
	return src, nil
}
