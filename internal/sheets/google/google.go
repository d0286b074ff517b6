package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"mfdash/internal/loader"
	"mfdash/internal/log"
	ports "mfdash/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Config selects the spreadsheet and the service account used to read it.
type Config struct {
	SpreadsheetID   string
	Ranges          []string
	CredentialsJSON string
	CredentialsFile string
}

// Source reads expense exports stored in a Google spreadsheet. Each range
// becomes one input file for the loader.
type Source struct {
	reader        ports.ValuesReader
	spreadsheetID string
	ranges        []string
	logger        *log.Logger
}

// Ensure interface conformance
var (
	_ ports.Source       = (*Source)(nil)
	_ ports.ValuesReader = (*apiReader)(nil)
)

// New creates a Source backed by the Sheets API with read-only scope.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Source, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewWithReader(&apiReader{svc: svc}, cfg, logger), nil
}

// NewWithReader builds a Source on any ValuesReader.
func NewWithReader(r ports.ValuesReader, cfg Config, logger *log.Logger) *Source {
	if logger == nil {
		logger = log.Discard()
	}
	ranges := cleanRanges(cfg.Ranges)
	if len(ranges) == 0 {
		ranges = []string{"A:J"}
	}
	return &Source{
		reader:        r,
		spreadsheetID: strings.TrimSpace(cfg.SpreadsheetID),
		ranges:        ranges,
		logger:        logger.WithComponent(log.ComponentSheets),
	}
}

func (s *Source) Name() string {
	return "sheets:" + s.spreadsheetID
}

// Fetch reads every configured range and converts it to CSV bytes. Empty
// ranges are skipped.
func (s *Source) Fetch(ctx context.Context) ([]loader.Input, error) {
	inputs := make([]loader.Input, 0, len(s.ranges))
	for _, rng := range s.ranges {
		values, err := s.reader.ReadValues(ctx, s.spreadsheetID, rng)
		if err != nil {
			return nil, fmt.Errorf("read range %s: %w", rng, err)
		}
		if len(values) == 0 {
			s.logger.Warn("Range is empty", "range", rng)
			continue
		}
		data, err := valuesToCSV(values)
		if err != nil {
			return nil, fmt.Errorf("convert range %s: %w", rng, err)
		}
		inputs = append(inputs, loader.Input{Name: rng, Data: data})
		s.logger.Debug("Range fetched", "range", rng, log.FieldRows, len(values)-1)
	}
	return inputs, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
// Uses the inline JSON, the credentials file, or GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(cfg.CredentialsJSON)
	serviceAccountFile := strings.TrimSpace(cfg.CredentialsFile)
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

type apiReader struct {
	svc *gsheet.Service
}

func (a *apiReader) ReadValues(ctx context.Context, spreadsheetID, rng string) ([][]interface{}, error) {
	resp, err := a.svc.Spreadsheets.Values.Get(spreadsheetID, rng).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

// ParseRanges splits a GOOGLE_SHEET_RANGE value such as
// "2024!A:J;2025!A:J".
func ParseRanges(s string) []string {
	return cleanRanges(strings.Split(s, ";"))
}

func cleanRanges(in []string) []string {
	var out []string
	for _, r := range in {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}
