// Package store provides storage backends for MoodLens.
//
// It persists users, mood entries, reflections, assessments and the crisis
// alert outbox. An in-memory backend serves tests and DSN-less runs; SQLite
// and PostgreSQL backends provide durable storage.
package store

import (
	"log/slog"
	"strings"
	"time"

	"github.com/BTreeMap/MoodLens/internal/models"
)

// DSN types reported by DetectDSNType.
const (
	DSNTypePostgres = "postgres"
	DSNTypeSQLite   = "sqlite"
)

// Store is the persistence contract used by the check-in pipeline.
type Store interface {
	AlertRepo

	SaveUser(u models.User) error
	// GetUser returns nil, nil when the user does not exist.
	GetUser(id string) (*models.User, error)

	AddMoodEntry(e models.HistoricalEntry) error
	// ListMoodEntries returns entries newer than since, newest first.
	ListMoodEntries(userID string, since time.Time) ([]models.HistoricalEntry, error)

	AddReflection(r models.Reflection) error
	// ListReflections returns reflections newer than since, newest first.
	ListReflections(userID string, since time.Time) ([]models.Reflection, error)

	SaveAssessment(rec models.AssessmentRecord) error
	// ListAssessments returns stored assessments newest first; limit <= 0 returns all.
	ListAssessments(userID string, limit int) ([]models.AssessmentRecord, error)

	Close() error
}

// Opts holds configuration for the store backends.
type Opts struct {
	DSN    string
	Driver string
}

// Option defines a configuration option for the store backends.
type Option func(*Opts)

// WithSQLiteDSN selects the SQLite backend with the given database file path.
func WithSQLiteDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
		o.Driver = DSNTypeSQLite
	}
}

// WithPostgresDSN selects the PostgreSQL backend with the given connection string.
func WithPostgresDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
		o.Driver = DSNTypePostgres
	}
}

// DetectDSNType classifies a DSN as postgres or sqlite.
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") ||
		strings.Contains(dsn, "host=") || strings.Contains(dsn, "dbname=") {
		return DSNTypePostgres
	}
	return DSNTypeSQLite
}

// New opens the backend selected by opts. Without a DSN it returns an in-memory store.
func New(opts ...Option) (Store, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.DSN == "" {
		slog.Info("store.New: no DSN configured, using in-memory store")
		return NewInMemoryStore(), nil
	}
	driver := cfg.Driver
	if driver == "" {
		driver = DetectDSNType(cfg.DSN)
	}
	slog.Debug("store.New: opening store", "driver", driver)
	switch driver {
	case DSNTypePostgres:
		return NewPostgresStore(opts...)
	default:
		return NewSQLiteStore(opts...)
	}
}
