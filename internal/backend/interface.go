package backend

import (
	"context"

	"finanzas/internal/ledger"
	"finanzas/internal/services"
	"finanzas/internal/sheets"
)

// BackendType selects the transaction store.
type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, PostgresBackend:
		return true
	default:
		return false
	}
}

// CleanupFunc releases resources held by a created component.
type CleanupFunc func() error

// Factory builds the infrastructure the binaries share.
type Factory interface {
	CreateStore(ctx context.Context, config Config) (ledger.Store, CleanupFunc, error)
	// CreatePublisher returns nil when AMQP is not configured.
	CreatePublisher(config Config) (services.EventPublisher, CleanupFunc)
	CreateSheet(ctx context.Context, config Config) (sheets.RowWriter, error)
}

// Config is the subset of application configuration the factory reads.
type Config struct {
	Type BackendType

	SQLiteDBPath string
	DatabaseURL  string

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
}
