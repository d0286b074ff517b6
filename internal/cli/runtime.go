package cli

import (
	"context"
	"fmt"
	"time"

	"mfdash/internal/amqp"
	"mfdash/internal/backend"
	"mfdash/internal/cache"
	"mfdash/internal/config"
	"mfdash/internal/loader"
	"mfdash/internal/log"
	"mfdash/internal/reconcile"
	"mfdash/internal/services"
	"mfdash/internal/session"
	"mfdash/internal/sheets"
)

// Runtime holds the components shared by every command.
type Runtime struct {
	Config   *config.Config
	Logger   *log.Logger
	Cache    *cache.Manager
	Store    *session.Store
	Datasets *services.DatasetService
	// Sources feed the default session: DATA_DIR first, then the sheet.
	Sources []sheets.Source
	Events  *amqp.Client
}

// Bootstrap builds the dataset pipeline from cfg. An unreachable broker
// disables events instead of failing; a misconfigured sheet is an error.
func Bootstrap(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Runtime, error) {
	rt := &Runtime{
		Config: cfg,
		Logger: logger,
		Cache:  cache.NewManager(logger),
		Store:  session.NewStore(cfg.SessionMax, cfg.SessionTTL),
	}
	rt.Cache.Register(rt.Store.Cleaner())

	var publisher services.Publisher
	if cfg.AMQPURL != "" {
		connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		client, err := amqp.NewClient(connectCtx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		cancel()
		if err != nil {
			logger.Warn("AMQP unavailable, dataset events disabled", log.FieldError, err)
		} else {
			rt.Events = client
			publisher = client
			logger.Info("AMQP publisher ready", "exchange", cfg.AMQPExchange)
		}
	}

	opts := reconcile.Options{
		WindowDays:   cfg.RefundWindowDays,
		AbsTolerance: cfg.RefundAbsTolerance,
		PctTolerance: cfg.RefundPctTolerance,
		Similarity:   cfg.RefundSimilarity,
	}
	rt.Datasets = services.NewDatasetService(loader.New(logger), reconcile.New(opts, logger), rt.Store, publisher, logger)

	sourceCfg, err := backend.FromAppConfig(cfg)
	if err == nil {
		rt.Sources, err = backend.NewFactory(logger).CreateSources(ctx, sourceCfg)
	}
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("configure sources: %w", err)
	}
	return rt, nil
}

// Close stops background work and closes the broker connection.
func (rt *Runtime) Close() {
	rt.Cache.Stop()
	if rt.Events != nil {
		if err := rt.Events.Close(); err != nil {
			rt.Logger.Warn("Failed to close AMQP client", log.FieldError, err)
		}
	}
}
