package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"mfdash/internal/export"
	apphttp "mfdash/internal/http"
	"mfdash/internal/log"
)

func (app *App) serveCommand() *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := app.setup(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Port = port
				if err := cfg.Validate(); err != nil {
					return err
				}
			}

			rt, err := Bootstrap(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer rt.Close()
			rt.Cache.StartCleanup(time.Minute)

			srv := apphttp.NewServer(apphttp.Options{
				Addr:           cfg.Addr(),
				MaxUploadBytes: cfg.MaxUploadBytes(),
				RateLimitRPM:   cfg.RateLimitRPM,
				TrustedProxies: cfg.TrustedProxies,
				Export:         export.Options{FontPath: cfg.PDFFontPath},
				Cache:          rt.Cache,
			}, rt.Datasets, logger, rt.Sources...)

			if len(rt.Sources) > 0 {
				loadCtx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
				id, err := srv.Reload(loadCtx)
				cancel()
				if err != nil {
					logger.Warn("Initial load from configured sources failed", log.FieldError, err)
				} else {
					logger.Info("Default session loaded", log.FieldSession, id)
				}
			}

			ctx, done := GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
				if err := srv.Shutdown(ctx); err != nil {
					logger.Error("Server shutdown error", log.FieldError, err)
				}
			})

			logger.Info("Starting mfdash server", "addr", cfg.Addr(), "sources", len(rt.Sources))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Server error", log.FieldError, err, "addr", cfg.Addr())
				return err
			}

			WaitForShutdown(ctx, done)
			logger.Info("Server stopped gracefully")
			return nil
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on; overrides PORT")
	return cmd
}
