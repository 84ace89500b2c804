package backend

import (
	"context"
	"fmt"

	"finanzas/internal/amqp"
	"finanzas/internal/ledger"
	"finanzas/internal/ledger/memory"
	"finanzas/internal/log"
	"finanzas/internal/services"
	"finanzas/internal/sheets"
	gsheet "finanzas/internal/sheets/google"
	sheetmem "finanzas/internal/sheets/memory"
	"finanzas/internal/storage"
)

type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

func (f *DefaultFactory) CreateStore(ctx context.Context, config Config) (ledger.Store, CleanupFunc, error) {
	if err := config.Validate(); err != nil {
		return nil, nil, err
	}

	var (
		repo *storage.Repository
		err  error
	)
	switch config.Type {
	case MemoryBackend:
		f.logger.WarnContext(ctx, "Using in-memory store, data is lost on restart")
		store := memory.New()
		return store, store.Close, nil
	case SQLiteBackend:
		repo, err = storage.NewSQLiteRepository(config.SQLiteDBPath, f.logger)
	case PostgresBackend:
		repo, err = storage.NewPostgresRepository(config.DatabaseURL, f.logger)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize %s repository: %w", config.Type, err)
	}

	f.logger.InfoContext(ctx, "Initialized store", "backend", config.Type.String())
	return repo, repo.Close, nil
}

func (f *DefaultFactory) CreatePublisher(config Config) (services.EventPublisher, CleanupFunc) {
	if config.AMQPURL == "" {
		f.logger.Info("AMQP not configured, transaction events disabled")
		return nil, func() error { return nil }
	}
	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
	if err != nil {
		// The service still works without events; the sheet can be resynced later.
		f.logger.Warn("Failed to initialize AMQP client, continuing without events", log.FieldError, err)
		return nil, func() error { return nil }
	}
	f.logger.Info("Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)
	return client, client.Close
}

// CreateSheet returns the Google Sheets mirror, or an in-memory one when no
// spreadsheet is configured.
func (f *DefaultFactory) CreateSheet(ctx context.Context, config Config) (sheets.RowWriter, error) {
	if config.GoogleSpreadsheetID == "" {
		f.logger.WarnContext(ctx, "GOOGLE_SPREADSHEET_ID not set, mirroring to memory")
		return sheetmem.New(), nil
	}
	client, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   config.GoogleSpreadsheetID,
		SheetName:       config.GoogleSheetName,
		CredentialsJSON: config.GoogleServiceAccountJSON,
		CredentialsFile: config.GoogleServiceAccountFile,
	}, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	f.logger.InfoContext(ctx, "Initialized Google Sheets mirror", "sheet", config.GoogleSheetName)
	return client, nil
}
