// Package export writes category summaries as CSV, JSON or PDF.
package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"mfdash/internal/core"
)

const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatPDF  = "pdf"
)

var ErrUnknownFormat = errors.New("unknown export format")

// Report is the exported view of one selection.
type Report struct {
	Title     string
	Generated time.Time
	Summary   core.Summary
	Cancelled int
}

// Options tune rendering. FontPath points at a TTF with CJK glyphs; without
// it the PDF falls back to the core fonts.
type Options struct {
	FontPath string
}

// Formats lists the supported formats.
func Formats() []string {
	return []string{FormatCSV, FormatJSON, FormatPDF}
}

// ParseFormats splits a comma-separated list such as "csv,pdf".
func ParseFormats(s string) ([]string, error) {
	var out []string
	for _, f := range strings.Split(s, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" {
			continue
		}
		if ContentType(f) == "" {
			return nil, fmt.Errorf("%w: %q (supported: %s)", ErrUnknownFormat, f, strings.Join(Formats(), ", "))
		}
		out = append(out, f)
	}
	return out, nil
}

func ContentType(format string) string {
	switch format {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatJSON:
		return "application/json"
	case FormatPDF:
		return "application/pdf"
	}
	return ""
}

// Write renders r in format to w.
func Write(w io.Writer, format string, r Report, opts Options) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, r)
	case FormatJSON:
		return WriteJSON(w, r)
	case FormatPDF:
		return WritePDF(w, r, opts)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// WriteCSV writes one row per category after a header row. The UTF-8 BOM
// lets spreadsheet software detect the encoding of Japanese labels.
func WriteCSV(w io.Writer, r Report) error {
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"category", "expense", "refund", "percentage", "cumulative_percentage"}); err != nil {
		return fmt.Errorf("error writing CSV header: %w", err)
	}
	for _, row := range r.Summary.Rows {
		rec := []string{
			row.Name,
			row.Expense.String(),
			row.Refund.String(),
			fmt.Sprintf("%.2f", row.Percent),
			fmt.Sprintf("%.2f", row.Cumulative),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("error writing CSV record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

type jsonRow struct {
	Category   string  `json:"category"`
	Expense    string  `json:"expense"`
	Refund     string  `json:"refund"`
	Percentage float64 `json:"percentage"`
	Cumulative float64 `json:"cumulative_percentage"`
}

type jsonReport struct {
	Title     string    `json:"title"`
	Selection string    `json:"selection"`
	Level     string    `json:"level"`
	Total     string    `json:"total"`
	Cancelled int       `json:"cancelled_pairs"`
	Generated time.Time `json:"generated_at"`
	Rows      []jsonRow `json:"rows"`
}

func WriteJSON(w io.Writer, r Report) error {
	out := jsonReport{
		Title:     r.Title,
		Selection: r.Summary.Label,
		Level:     string(r.Summary.Level),
		Total:     r.Summary.Total.String(),
		Cancelled: r.Cancelled,
		Generated: r.Generated,
		Rows:      make([]jsonRow, len(r.Summary.Rows)),
	}
	for i, row := range r.Summary.Rows {
		out.Rows[i] = jsonRow{
			Category:   row.Name,
			Expense:    row.Expense.String(),
			Refund:     row.Refund.String(),
			Percentage: row.Percent,
			Cumulative: row.Cumulative,
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("error encoding JSON data: %w", err)
	}
	return nil
}

// WritePDF renders a single-page table report.
func WritePDF(w io.Writer, r Report, opts Options) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	family := "Arial"
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	if opts.FontPath != "" {
		pdf.AddUTF8Font("report", "", opts.FontPath)
		pdf.AddUTF8Font("report", "B", opts.FontPath)
		family = "report"
		tr = func(s string) string { return s }
	}
	pdf.AddPage()

	pdf.SetFillColor(40, 40, 40)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont(family, "B", 14)
	pdf.CellFormat(0, 12, tr("  "+r.Title), "", 1, "L", true, 0, "")

	pdf.SetFont(family, "", 10)
	pdf.SetFillColor(240, 240, 240)
	pdf.SetTextColor(50, 50, 50)
	pdf.CellFormat(0, 8, tr(fmt.Sprintf("  Selection: %s   Total: %s JPY", r.Summary.Label, r.Summary.Total.StringFixed(0))), "", 1, "L", true, 0, "")
	pdf.Ln(6)

	widths := []float64{70, 35, 30, 27, 28}
	headers := []string{"Category", "Expense", "Refund", "%", "Cumulative %"}
	pdf.SetFont(family, "B", 10)
	for i, h := range headers {
		align := "R"
		if i == 0 {
			align = "L"
		}
		pdf.CellFormat(widths[i], 7, tr(h), "B", 0, align, false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont(family, "", 10)
	for _, row := range r.Summary.Rows {
		cells := []string{
			row.Name,
			row.Expense.StringFixed(0),
			row.Refund.StringFixed(0),
			fmt.Sprintf("%.1f", row.Percent),
			fmt.Sprintf("%.1f", row.Cumulative),
		}
		for i, c := range cells {
			align := "R"
			if i == 0 {
				align = "L"
			}
			pdf.CellFormat(widths[i], 6, tr(c), "", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	if r.Cancelled > 0 {
		pdf.Ln(4)
		pdf.SetFont(family, "", 9)
		pdf.CellFormat(0, 6, tr(fmt.Sprintf("%d refunded purchases excluded", r.Cancelled)), "", 1, "L", false, 0, "")
	}

	pdf.SetY(-15)
	pdf.SetFont(family, "", 8)
	pdf.SetTextColor(128, 128, 128)
	pdf.CellFormat(0, 10, tr("Generated by mfdash | "+r.Generated.Format("2006-01-02 15:04")), "", 0, "L", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("error writing PDF: %w", err)
	}
	return nil
}

// Filename builds "<base>_<timestamp>.<format>".
func Filename(base, format string, now time.Time) string {
	if base == "" {
		base = "mfdash_report"
	}
	return fmt.Sprintf("%s_%s.%s", base, now.Format("20060102_1504"), format)
}

// ToFile writes r into dir, creating it when needed, and returns the
// absolute path.
func ToFile(dir, base, format string, r Report, opts Options) (string, error) {
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("could not get current working directory: %w", err)
		}
		dir = cwd
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("could not create output directory: %w", err)
	}
	path := filepath.Join(dir, Filename(base, format, r.Generated))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("error creating %s file: %w", format, err)
	}
	defer f.Close()

	if err := Write(f, format, r, opts); err != nil {
		return "", err
	}
	return filepath.Abs(path)
}
