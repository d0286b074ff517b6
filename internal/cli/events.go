package cli

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mfdash/internal/amqp"
	"mfdash/internal/console"
	"mfdash/internal/log"
)

func (app *App) eventsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "Follow dataset.loaded events from the broker",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := app.setup(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if cfg.AMQPURL == "" {
				return errors.New("AMQP_URL is not set")
			}

			client, err := amqp.NewClient(cmd.Context(), cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
			if err != nil {
				return err
			}
			defer client.Close()

			ctx, done := GracefulShutdown(logger, 5*time.Second, nil)
			out := console.New(cmd.OutOrStdout())
			logger.Info("Consuming dataset events", "queue", cfg.AMQPQueue)

			err = client.ConsumeDatasetLoaded(ctx, func(msg *amqp.DatasetLoadedMessage) error {
				printEvent(out, msg)
				return nil
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Consumer stopped", log.FieldError, err)
				return err
			}
			WaitForShutdown(ctx, done)
			return nil
		},
	}
}

func printEvent(out *console.Console, msg *amqp.DatasetLoadedMessage) {
	out.Info("%s session %s: %d rows from %s, %d expenses, %d refunds, %d cancelled pairs, total %s, periods %s",
		msg.Timestamp.Format(time.RFC3339), msg.SessionID, msg.Rows, strings.Join(msg.Files, ", "),
		msg.Expenses, msg.Refunds, msg.Cancelled, msg.Total, strings.Join(msg.Periods, " "))
}
