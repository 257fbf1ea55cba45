// Package datastore owns the catalog's database engine and its transactional
// sessions. Repositories and the query builder always run inside a Session.
package datastore

import (
	"fmt"
	"io"
	"time"

	"gorm.io/gorm"

	"github.com/tphakala/syllable-catalog/internal/datastore/entities"
	"github.com/tphakala/syllable-catalog/internal/errors"
	"github.com/tphakala/syllable-catalog/internal/logger"
	"github.com/tphakala/syllable-catalog/internal/observability/metrics"
)

const (
	defaultPoolSize      = 5
	defaultMaxOverflow   = 10
	connMaxLifetime      = time.Hour
	slowQueryThreshold   = 200 * time.Millisecond
	foreignKeysEnabled   = 1
	sqlLoggerModuleName  = "sql"
	datastoreModuleName  = "datastore"
	datastoreComponent   = "datastore"
	migrateOperationName = "migrate"
)

// Engine is an open catalog database.
type Engine struct {
	db       *gorm.DB
	dialect  Dialect
	location string
	log      logger.Logger
	metrics  *metrics.DatastoreMetrics
}

type engineOptions struct {
	echo        bool
	poolSize    int
	maxOverflow int
	log         logger.Logger
	metrics     *metrics.DatastoreMetrics
}

// EngineOption configures NewEngine.
type EngineOption func(*engineOptions)

// WithEcho logs every SQL statement at info level.
func WithEcho(echo bool) EngineOption {
	return func(o *engineOptions) {
		o.echo = echo
	}
}

// WithPool sets the idle pool size and the number of extra connections allowed
// above it. It applies to client/server engines only.
func WithPool(size, overflow int) EngineOption {
	return func(o *engineOptions) {
		if size > 0 {
			o.poolSize = size
		}
		if overflow >= 0 {
			o.maxOverflow = overflow
		}
	}
}

// WithLogger sets the parent logger; the engine logs under the "datastore" module.
func WithLogger(l logger.Logger) EngineOption {
	return func(o *engineOptions) {
		o.log = l
	}
}

// WithMetrics records session outcomes and query latencies.
func WithMetrics(m *metrics.DatastoreMetrics) EngineOption {
	return func(o *engineOptions) {
		o.metrics = m
	}
}

// NewEngine opens the database named by connString and creates any missing
// tables. Supported schemes are sqlite:// and mysql://.
func NewEngine(connString string, opts ...EngineOption) (*Engine, error) {
	o := engineOptions{
		poolSize:    defaultPoolSize,
		maxOverflow: defaultMaxOverflow,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.NewSlogLogger(io.Discard, logger.LogLevelError, time.UTC)
	}
	log := o.log.Module(datastoreModuleName)

	t, err := parseConnectionString(connString)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(t.dialector, &gorm.Config{
		Logger:         logger.NewGormLoggerAdapter(log.Module(sqlLoggerModuleName), slowQueryThreshold, o.echo),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, errors.New(fmt.Errorf("failed to open %s database at %s: %w", t.dialect, t.location, err)).
			Component(datastoreComponent).
			Category(errors.CategoryDatabase).
			Context("dialect", string(t.dialect)).
			Build()
	}

	e := &Engine{
		db:       db,
		dialect:  t.dialect,
		location: t.location,
		log:      log,
		metrics:  o.metrics,
	}

	if err := e.configure(t, &o); err != nil {
		_ = e.Close()
		return nil, err
	}

	if err := e.migrate(); err != nil {
		_ = e.Close()
		return nil, err
	}

	log.Info("database ready",
		logger.String("dialect", string(e.dialect)),
		logger.String("location", e.location))
	return e, nil
}

// configure applies connection pool limits and, for SQLite, verifies that
// foreign key enforcement is on.
func (e *Engine) configure(t *target, o *engineOptions) error {
	sqlDB, err := e.db.DB()
	if err != nil {
		return errors.New(fmt.Errorf("failed to get underlying database: %w", err)).
			Component(datastoreComponent).
			Category(errors.CategoryDatabase).
			Build()
	}

	switch t.dialect {
	case DialectSQLite:
		if t.inMemory {
			// every connection to :memory: is a separate database
			sqlDB.SetMaxOpenConns(1)
			sqlDB.SetMaxIdleConns(1)
			sqlDB.SetConnMaxLifetime(0)
		}
		return e.enforceForeignKeys()
	case DialectMySQL:
		sqlDB.SetMaxIdleConns(o.poolSize)
		sqlDB.SetMaxOpenConns(o.poolSize + o.maxOverflow)
		sqlDB.SetConnMaxLifetime(connMaxLifetime)
		e.log.Debug("connection pool configured",
			logger.Int("max_idle", o.poolSize),
			logger.Int("max_open", o.poolSize+o.maxOverflow))
	}
	return nil
}

func (e *Engine) enforceForeignKeys() error {
	if err := e.db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return errors.New(fmt.Errorf("failed to enable foreign keys: %w", err)).
			Component(datastoreComponent).
			Category(errors.CategoryDatabase).
			Build()
	}

	var enabled int
	if err := e.db.Raw("PRAGMA foreign_keys").Scan(&enabled).Error; err != nil {
		return errors.New(fmt.Errorf("failed to read foreign_keys pragma: %w", err)).
			Component(datastoreComponent).
			Category(errors.CategoryDatabase).
			Build()
	}
	if enabled != foreignKeysEnabled {
		return errors.Newf("foreign key enforcement could not be enabled on %s", e.location).
			Component(datastoreComponent).
			Category(errors.CategoryDatabase).
			Build()
	}
	return nil
}

// migrate creates missing tables, columns and indexes. Existing data is never dropped.
func (e *Engine) migrate() error {
	start := time.Now()
	if err := e.db.AutoMigrate(entities.All()...); err != nil {
		return errors.New(fmt.Errorf("failed to migrate catalog schema: %w", err)).
			Component(datastoreComponent).
			Category(errors.CategoryDatabase).
			Context("operation", migrateOperationName).
			Timing(migrateOperationName, time.Since(start)).
			Build()
	}
	e.log.Debug("schema migrated", logger.Duration("elapsed", time.Since(start)))
	return nil
}

// DB returns the underlying GORM handle. Callers outside a Session see
// autocommit semantics.
func (e *Engine) DB() *gorm.DB {
	return e.db
}

// Dialect returns the engine family.
func (e *Engine) Dialect() Dialect {
	return e.dialect
}

// Location returns the database file path or host/database, without credentials.
func (e *Engine) Location() string {
	return e.location
}

// Close releases all connections.
func (e *Engine) Close() error {
	sqlDB, err := e.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying database: %w", err)
	}
	return sqlDB.Close()
}
