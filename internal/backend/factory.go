package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"bilancio/internal/amqp"
	applog "bilancio/internal/log"
	"bilancio/internal/services"
	gsheet "bilancio/internal/sheets/google"
	"bilancio/internal/storage"
	"bilancio/internal/store"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger      *slog.Logger
	storeLog    *slog.Logger
	journalLog  *slog.Logger
	openJournal func(path string, logger *slog.Logger) (Journal, error)
	dialBroker  func(ctx context.Context, url, exchange string) (Publisher, error)
	newExporter func(ctx context.Context, cfg gsheet.Config) (Exporter, error)
}

// FactoryOption replaces one of the factory's constructors, mainly for tests.
type FactoryOption func(*DefaultFactory)

func WithJournalOpener(fn func(path string, logger *slog.Logger) (Journal, error)) FactoryOption {
	return func(f *DefaultFactory) { f.openJournal = fn }
}

func WithBrokerDialer(fn func(ctx context.Context, url, exchange string) (Publisher, error)) FactoryOption {
	return func(f *DefaultFactory) { f.dialBroker = fn }
}

func WithExporterConstructor(fn func(ctx context.Context, cfg gsheet.Config) (Exporter, error)) FactoryOption {
	return func(f *DefaultFactory) { f.newExporter = fn }
}

// NewFactory creates a new backend factory. The store and journal log
// under their own components on logger's handler.
func NewFactory(logger *applog.Logger, opts ...FactoryOption) Factory {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	f := &DefaultFactory{
		logger:      logger.WithComponent(applog.ComponentBackend).Logger,
		storeLog:    logger.WithComponent(applog.ComponentStore).Logger,
		journalLog:  logger.WithComponent(applog.ComponentJournal).Logger,
		openJournal: openSQLiteJournal,
		dialBroker:  dialAMQP,
		newExporter: newSheetsExporter,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func openSQLiteJournal(path string, logger *slog.Logger) (Journal, error) {
	repo, err := storage.NewSQLiteRepository(path, storage.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	return repo, nil
}

func dialAMQP(ctx context.Context, url, exchange string) (Publisher, error) {
	client, err := amqp.NewClient(ctx, url, exchange)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func newSheetsExporter(ctx context.Context, cfg gsheet.Config) (Exporter, error) {
	client, err := gsheet.New(ctx, cfg, services.ShiftTotal)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// CreateBackend builds the record store, restores or seeds it, and
// subscribes the configured sinks. Sinks are subscribed in a fixed order:
// journal, broker, sheets. The journal is written inside the commit; the
// broker and sheets receive events from their own queues.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (res *Result, err error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	st := store.New(store.WithLogger(f.storeLog))
	var closers []func() error
	cleanup := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errors.Join(errs...)
	}
	defer func() {
		if err != nil {
			cleanup()
		}
	}()

	res = &Result{
		Store:     st,
		Readiness: make(map[string]func(ctx context.Context) error),
		Cleanup:   cleanup,
	}

	switch config.Type {
	case SQLiteBackend:
		journal, err := f.openJournal(config.SQLiteDBPath, f.journalLog)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite journal: %w", err)
		}
		closers = append(closers, journal.Close)

		if err := f.restoreJournal(ctx, st, journal, config.SeedFile); err != nil {
			return nil, err
		}
		st.Subscribe(journal.Observe)
		res.Readiness["journal"] = journal.Ping
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	case MemoryBackend:
		if config.SeedFile != "" {
			if err := st.LoadSeedFile(ctx, config.SeedFile); err != nil {
				return nil, fmt.Errorf("failed to load seed file: %w", err)
			}
		}
		f.logger.Info("Initialized memory backend", "seed_file", config.SeedFile)
	}

	if config.AMQPURL != "" {
		pub, err := f.dialBroker(ctx, config.AMQPURL, config.AMQPExchange)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			f.logger.Warn("Failed to initialize AMQP client, continuing without publishing", "error", err)
		} else {
			events := store.NewAsyncObserver("amqp", pub.Observe, store.AsyncOptions{Logger: f.logger})
			closers = append(closers, pub.Close, events.Close)
			st.Subscribe(events.Observe)
			res.Publisher = pub
			f.logger.Info("Initialized AMQP publisher", "exchange", config.AMQPExchange)
		}
	}

	if config.GoogleSpreadsheetID != "" {
		exp, err := f.newExporter(ctx, gsheet.Config{
			SpreadsheetID:      config.GoogleSpreadsheetID,
			TransactionsSheet:  config.GoogleSheetName,
			ShiftsSheet:        config.GoogleShiftsSheetName,
			ServiceAccountJSON: config.GoogleServiceAccountJSON,
			ServiceAccountFile: config.GoogleServiceAccountFile,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google Sheets export: %w", err)
		}
		rows := store.NewAsyncObserver("sheets", exp.Observe, store.AsyncOptions{Logger: f.logger})
		closers = append(closers, rows.Close)
		st.Subscribe(rows.Observe)
		f.logger.Info("Initialized Google Sheets export", "spreadsheet_id", config.GoogleSpreadsheetID)
	}

	res.Dashboard = services.NewDashboardService(st, services.NotifierOptions{WindowDays: config.NotifyWindowDays})
	return res, nil
}

// restoreJournal replays the journal into st. An empty journal is seeded
// from seedFile, if given, and the seed is written back so the next start
// restores it instead.
func (f *DefaultFactory) restoreJournal(ctx context.Context, st *store.Store, journal Journal, seedFile string) error {
	empty, err := journal.IsEmpty(ctx)
	if err != nil {
		return fmt.Errorf("failed to inspect journal: %w", err)
	}

	if !empty {
		snap, err := journal.Load(ctx)
		if err != nil {
			return fmt.Errorf("failed to load journal: %w", err)
		}
		if seedFile != "" {
			f.logger.Info("Journal is not empty, ignoring seed file", "seed_file", seedFile, "records", snap.Len())
		}
		if err := st.Restore(ctx, snap); err != nil {
			return fmt.Errorf("failed to restore journal: %w", err)
		}
		return nil
	}

	if seedFile == "" {
		return nil
	}
	if err := st.LoadSeedFile(ctx, seedFile); err != nil {
		return fmt.Errorf("failed to load seed file: %w", err)
	}
	if err := journal.Import(ctx, st.Snapshot()); err != nil {
		return fmt.Errorf("failed to import seed into journal: %w", err)
	}
	return nil
}
