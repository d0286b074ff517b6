package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mfdash/internal/aggregate"
	"mfdash/internal/amqp"
	"mfdash/internal/core"
	"mfdash/internal/loader"
	"mfdash/internal/log"
	"mfdash/internal/reconcile"
	"mfdash/internal/session"
	"mfdash/internal/sheets"
)

// Publisher announces loaded datasets. *amqp.Client implements it.
type Publisher interface {
	PublishDatasetLoaded(ctx context.Context, msg *amqp.DatasetLoadedMessage) error
}

// DatasetService turns raw files into a session: parse, reconcile refunds,
// store, then announce.
type DatasetService struct {
	loader     *loader.Loader
	reconciler *reconcile.Reconciler
	store      *session.Store
	publisher  Publisher
	logger     *log.Logger
	structured *log.StructuredLogger
	now        func() time.Time
}

func NewDatasetService(l *loader.Loader, r *reconcile.Reconciler, store *session.Store, publisher Publisher, logger *log.Logger) *DatasetService {
	if logger == nil {
		logger = log.Discard()
	}
	return &DatasetService{
		loader:     l,
		reconciler: r,
		store:      store,
		publisher:  publisher,
		logger:     logger.WithComponent(log.ComponentSession),
		structured: log.NewStructuredLogger(logger),
		now:        time.Now,
	}
}

// Load parses inputs into a new session. A ParseError leaves no session
// behind.
func (s *DatasetService) Load(ctx context.Context, inputs []loader.Input) (*session.Dataset, error) {
	records, err := s.loader.Load(ctx, inputs...)
	if err != nil {
		return nil, err
	}
	res, err := s.reconciler.Reconcile(ctx, records)
	if err != nil {
		return nil, fmt.Errorf("reconcile: %w", err)
	}

	files := make([]string, len(inputs))
	for i, in := range inputs {
		files[i] = in.Name
	}
	d := &session.Dataset{
		Files:    files,
		LoadedAt: s.now(),
		Rows:     res.Rows,
		Expenses: res.Expenses,
		Refunds:  res.Refunds,
		Pairs:    res.Pairs,
	}
	s.store.Put(d)

	s.structured.LogDatasetLoaded(ctx, d.ID, len(files), d.Rows, len(d.Expenses), len(d.Refunds), len(d.Pairs))
	s.publish(ctx, d)
	return d, nil
}

// LoadSources fetches every source in order and loads the merged files into
// one session.
func (s *DatasetService) LoadSources(ctx context.Context, sources ...sheets.Source) (*session.Dataset, error) {
	var inputs []loader.Input
	for _, src := range sources {
		in, err := src.Fetch(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", src.Name(), err)
		}
		inputs = append(inputs, in...)
	}
	if len(inputs) == 0 {
		return nil, ErrNoInputs
	}
	return s.Load(ctx, inputs)
}

// ErrNoInputs is returned when the sources have nothing to load.
var ErrNoInputs = errors.New("no input files")

func (s *DatasetService) Get(id string) (*session.Dataset, error) {
	return s.store.Get(id)
}

// publish never fails the load; the dataset is already usable.
func (s *DatasetService) publish(ctx context.Context, d *session.Dataset) {
	if s.publisher == nil {
		return
	}
	msg := &amqp.DatasetLoadedMessage{
		SessionID: d.ID,
		Files:     d.Files,
		Rows:      d.Rows,
		Expenses:  len(d.Expenses),
		Refunds:   len(d.Refunds),
		Cancelled: len(d.Pairs),
		Total:     aggregate.Total(d.Expenses).String(),
		Periods:   aggregate.Periods(d.Expenses, core.Monthly),
		Timestamp: d.LoadedAt,
	}
	if err := s.publisher.PublishDatasetLoaded(ctx, msg); err != nil {
		s.structured.LogError(ctx, "Failed to publish dataset loaded message", err,
			log.ComponentEvents, log.OpPublish, log.NewFields().WithSession(d.ID))
	}
}
