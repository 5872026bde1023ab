package persistence

import (
	"errors"
	"fmt"
	"time"

	"github.com/sikka-software/Tanad-sub009/internal/domain/shared"
	"github.com/sikka-software/Tanad-sub009/internal/infrastructure/config"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrDatabase wraps failures that are not the caller's fault. Handlers log
// the cause and answer with a static message.
var ErrDatabase = errors.New("database error")

// Database holds the database connection and provides methods for database operations
type Database struct {
	DB *gorm.DB
}

// Options tunes the GORM session of a Database
type Options struct {
	// Logger receives SQL logs; logger.Discard when nil
	Logger logger.Interface
	// Plugins are registered with db.Use, e.g. the otelgorm tracing plugin
	Plugins []gorm.Plugin
}

// NewDatabase opens a PostgreSQL connection with the given configuration
func NewDatabase(cfg *config.DatabaseConfig, opts Options) (*Database, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormConfig(opts, true))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := usePlugins(db, opts.Plugins); err != nil {
		return nil, err
	}
	return &Database{DB: db}, nil
}

// NewSQLiteDatabase opens a SQLite database, used by tests and local tooling.
// dsn is a file path or "file::memory:?cache=shared".
func NewSQLiteDatabase(dsn string, opts Options) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dsn), gormConfig(opts, false))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	// A single connection keeps an in-memory database alive and shared.
	sqlDB.SetMaxOpenConns(1)

	if err := usePlugins(db, opts.Plugins); err != nil {
		return nil, err
	}
	return &Database{DB: db}, nil
}

func gormConfig(opts Options, prepare bool) *gorm.Config {
	l := opts.Logger
	if l == nil {
		l = logger.Discard
	}
	return &gorm.Config{
		Logger:                 l,
		SkipDefaultTransaction: true,
		PrepareStmt:            prepare,
		TranslateError:         true,
	}
}

func usePlugins(db *gorm.DB, plugins []gorm.Plugin) error {
	for _, p := range plugins {
		if err := db.Use(p); err != nil {
			return fmt.Errorf("failed to register gorm plugin %s: %w", p.Name(), err)
		}
	}
	return nil
}

// AutoMigrate creates or alters the tables of models. Production schemas are
// managed by SQL migrations; this is used by tests and local tooling.
func (d *Database) AutoMigrate(models ...any) error {
	return d.DB.AutoMigrate(models...)
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Ping checks if the database connection is alive
func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Ping()
}

// Stats returns database connection pool statistics and an error if unable to retrieve
func (d *Database) Stats() (ConnectionStats, error) {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return ConnectionStats{}, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	stats := sqlDB.Stats()
	return ConnectionStats{
		MaxOpenConnections: stats.MaxOpenConnections,
		OpenConnections:    stats.OpenConnections,
		InUse:              stats.InUse,
		Idle:               stats.Idle,
		WaitCount:          stats.WaitCount,
		WaitDuration:       stats.WaitDuration,
	}, nil
}

// ConnectionStats holds database connection pool statistics
type ConnectionStats struct {
	MaxOpenConnections int           `json:"max_open_connections"`
	OpenConnections    int           `json:"open_connections"`
	InUse              int           `json:"in_use"`
	Idle               int           `json:"idle"`
	WaitCount          int64         `json:"wait_count"`
	WaitDuration       time.Duration `json:"wait_duration"`
}

// Transaction executes a function within a database transaction
func (d *Database) Transaction(fn func(tx *gorm.DB) error) error {
	return d.DB.Transaction(fn)
}

// TranslateError maps GORM errors to domain errors. Errors with no domain
// meaning are wrapped in ErrDatabase.
func TranslateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return shared.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return shared.ErrAlreadyExists
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return shared.NewDomainError("INVALID_INPUT", "A referenced record does not exist")
	}
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrDatabase, err)
}
