package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mfdash/internal/aggregate"
	"mfdash/internal/chart"
	"mfdash/internal/console"
	"mfdash/internal/core"
	"mfdash/internal/export"
	"mfdash/internal/session"
	"mfdash/internal/sheets"
	"mfdash/internal/sheets/local"
)

// ReportOptions are the flags of the report command.
type ReportOptions struct {
	Mode     string
	Periods  []string
	Category string
	Level    string
	Exports  string
	Dir      string
	Name     string
	Trend    bool
}

var errNoSources = errors.New("no input files: pass CSV paths or set DATA_DIR or GOOGLE_SPREADSHEET_ID")

func (app *App) reportCommand() *cobra.Command {
	opts := ReportOptions{}
	cmd := &cobra.Command{
		Use:   "report [files...]",
		Short: "Print a category summary in the terminal and optionally export it",
		Long: "Load the given CSV exports, or the configured sources when no file is given, " +
			"then print the category summary of the selected periods and a monthly trend.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := app.setup(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if opts.Dir == "" {
				opts.Dir = cfg.ExportDir
			}
			formats, err := export.ParseFormats(opts.Exports)
			if err != nil {
				return err
			}

			rt, err := Bootstrap(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer rt.Close()

			var sources []sheets.Source
			if len(args) > 0 {
				sources = []sheets.Source{local.Files(args)}
			} else {
				sources = rt.Sources
			}
			if len(sources) == 0 {
				return errNoSources
			}
			d, err := rt.Datasets.LoadSources(cmd.Context(), sources...)
			if err != nil {
				return err
			}

			out := console.New(cmd.OutOrStdout())
			report, category, err := BuildReport(d, opts)
			if err != nil {
				return err
			}
			out.Info("Loaded %d rows from %d file(s)", d.Rows, len(d.Files))
			if err := out.PrintSummary(report.Summary, report.Cancelled); err != nil {
				return err
			}
			if opts.Trend {
				points, err := trend(d, report.Summary.Level, category)
				if err != nil {
					return err
				}
				out.PrintTrend(points)
			}

			for _, f := range formats {
				path, err := export.ToFile(opts.Dir, opts.Name, f, report, export.Options{FontPath: cfg.PDFFontPath})
				if err != nil {
					return fmt.Errorf("export %s: %w", f, err)
				}
				out.Success("Saved %s report to %s", f, path)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&opts.Mode, "mode", "m", "monthly", "Period mode: monthly or yearly")
	cmd.Flags().StringSliceVarP(&opts.Periods, "period", "P", nil, "Periods to include, e.g. 2024-01 or 2024 (default: latest)")
	cmd.Flags().StringVar(&opts.Category, "category", "", "Main category to break down by subcategory")
	cmd.Flags().StringVarP(&opts.Level, "level", "l", "major", "Category level: major or minor")
	cmd.Flags().StringVarP(&opts.Exports, "export", "y", "", "Export formats: "+strings.Join(export.Formats(), ", ")+" (comma-separated)")
	cmd.Flags().StringVarP(&opts.Dir, "dir", "d", "", "Directory to save the report files (default: EXPORT_DIR or current directory)")
	cmd.Flags().StringVarP(&opts.Name, "report-name", "n", "", "Base name for the report files")
	cmd.Flags().BoolVar(&opts.Trend, "trend", true, "Print monthly trend bars")
	return cmd
}

// BuildReport summarises the selected periods of d. At minor level the
// category defaults to the largest one and is returned.
func BuildReport(d *session.Dataset, opts ReportOptions) (export.Report, string, error) {
	mode, err := core.ParseGranularity(opts.Mode)
	if err != nil {
		return export.Report{}, "", err
	}
	level, err := core.ParseCategoryLevel(opts.Level)
	if err != nil {
		return export.Report{}, "", err
	}
	sel := chart.Selection{Mode: mode, Periods: opts.Periods}.Normalize(d.Expenses)
	f := aggregate.Filter{Granularity: sel.Mode, Periods: sel.Periods}.Normalize()

	var (
		summary  core.Summary
		category string
		title    = "Expense Summary"
	)
	if level == core.LevelMinor {
		summary, category, err = aggregate.Breakdown(d.Expenses, d.Refunds, f, opts.Category)
		title = category + " Breakdown"
	} else {
		summary, err = aggregate.Summarize(d.Expenses, d.Refunds, f, level)
	}
	if err != nil {
		return export.Report{}, "", err
	}
	return export.Report{
		Title:     title + " - " + summary.Label,
		Generated: time.Now(),
		Summary:   summary,
		Cancelled: len(d.Pairs),
	}, category, nil
}

// trend sums net expense per month over the whole dataset.
func trend(d *session.Dataset, level core.CategoryLevel, category string) ([]console.TrendPoint, error) {
	records := append(append([]core.Expense(nil), d.Expenses...), d.Refunds...)
	g := aggregate.Grouping{Bucket: core.Monthly, Level: level}
	if level == core.LevelMinor {
		g.Filter.Major = category
	}
	series, err := aggregate.Aggregate(records, g)
	if err != nil {
		return nil, err
	}
	return console.TrendPoints(series), nil
}
