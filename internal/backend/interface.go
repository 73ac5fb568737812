package backend

import (
	"context"

	"bilancio/internal/services"
	"bilancio/internal/store"
)

// Journal persists committed events and replays them on startup.
type Journal interface {
	IsEmpty(ctx context.Context) (bool, error)
	Load(ctx context.Context) (store.Snapshot, error)
	Import(ctx context.Context, snap store.Snapshot) error
	Observe(ctx context.Context, e store.Event)
	Ping(ctx context.Context) error
	Close() error
}

// Publisher fans committed events and notification batches out to a broker.
type Publisher interface {
	services.NotificationPublisher
	Observe(ctx context.Context, e store.Event)
	Close() error
}

// Exporter mirrors committed records to an external sheet.
type Exporter interface {
	Observe(ctx context.Context, e store.Event)
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Result is everything the process needs to serve requests.
type Result struct {
	Store     *store.Store
	Dashboard *services.DashboardService
	// Publisher is nil when AMQP is disabled or unreachable.
	Publisher Publisher
	// Readiness checks keyed by dependency name.
	Readiness map[string]func(ctx context.Context) error
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string
	SeedFile     string

	// Optional sinks
	AMQPURL      string
	AMQPExchange string

	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleShiftsSheetName    string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string

	NotifyWindowDays int
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
