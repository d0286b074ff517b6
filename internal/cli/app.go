package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"mfdash/internal/backend"
	"mfdash/internal/config"
	"mfdash/internal/console"
	"mfdash/internal/log"
)

// App is the mfdash command tree.
type App struct {
	root    *cobra.Command
	version string

	configFile string
	logLevel   string
	sources    []string
	noColor    bool
}

func NewApp(version string) *App {
	app := &App{version: version}

	root := &cobra.Command{
		Use:           "mfdash",
		Short:         "MoneyForward expense dashboard",
		Long:          "Load MoneyForward ME CSV exports, cancel refunded purchases and explore spending by category and period.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate(`{{printf "mfdash version: %s\n" .Version}}`)
	root.PersistentFlags().StringVarP(&app.configFile, "config-file", "C", "", "Path to a TOML, YAML, or JSON configuration file")
	root.PersistentFlags().StringVar(&app.logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides LOG_LEVEL")
	root.PersistentFlags().StringSliceVar(&app.sources, "sources", nil,
		"Configured sources to load: "+strings.Join(backend.GetSourceTypeStrings(), ", ")+" (default: all; overrides SOURCES)")
	root.PersistentFlags().BoolVar(&app.noColor, "no-color", false, "Disable colours and styling in terminal output")

	root.AddCommand(app.serveCommand(), app.reportCommand(), app.eventsCommand())
	app.root = root
	return app
}

// Execute runs the command line.
func (app *App) Execute() error {
	return app.root.Execute()
}

// Root exposes the root command, for tests.
func (app *App) Root() *cobra.Command {
	return app.root
}

// setup loads .env, the configuration and the logger shared by every
// subcommand.
func (app *App) setup(logOut io.Writer) (*config.Config, *log.Logger, error) {
	LoadEnvFile()
	cfg, err := LoadAndValidateConfig(app.configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}
	if app.logLevel != "" {
		cfg.LogLevel = app.logLevel
	}
	if len(app.sources) > 0 {
		cfg.Sources = app.sources
	}
	if app.noColor {
		console.Plain()
	}
	return cfg, SetupLogger(cfg.LogLevel, logOut), nil
}
