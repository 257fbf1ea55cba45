// Package config holds the process-wide state shared by the CLI commands.
package config

import (
	"fmt"
	"time"

	"github.com/tphakala/syllable-catalog/internal/buildinfo"
	"github.com/tphakala/syllable-catalog/internal/conf"
	"github.com/tphakala/syllable-catalog/internal/datastore"
	"github.com/tphakala/syllable-catalog/internal/errors"
	"github.com/tphakala/syllable-catalog/internal/indexer"
	"github.com/tphakala/syllable-catalog/internal/logger"
	"github.com/tphakala/syllable-catalog/internal/observability"
	"github.com/tphakala/syllable-catalog/internal/telemetry"
)

const (
	rootModuleName = "catalog"
	flushTimeout   = 2 * time.Second
)

// Context holds the overall application state: settings, logging, metrics and build metadata.
type Context struct {
	ConfigPath string
	Settings   *conf.Settings
	Build      *buildinfo.Context
	Logger     *logger.CentralLogger
	Metrics    *observability.Metrics

	consoleOpts []logger.CentralOption
}

// NewContext creates a Context with default settings. Initialize must be
// called before the logger, metrics or engine are used.
func NewContext(build *buildinfo.Context, opts ...logger.CentralOption) *Context {
	return &Context{
		Settings:    conf.Default(),
		Build:       build,
		consoleOpts: opts,
	}
}

// Initialize loads settings from ConfigPath and brings up logging, metrics
// and error reporting.
func (c *Context) Initialize() error {
	settings, err := conf.Load(c.ConfigPath)
	if err != nil {
		return err
	}
	c.Settings = settings

	cl, err := logger.NewCentralLogger(&settings.Logging, c.consoleOpts...)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	c.Logger = cl

	m, err := observability.NewMetrics()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	c.Metrics = m

	if err := telemetry.InitSentry(settings, c.Build); err != nil {
		return err
	}
	return nil
}

// Log returns the root application logger.
func (c *Context) Log() logger.Logger {
	return c.Logger.Module(rootModuleName)
}

// OpenEngine opens the configured catalog database, creating missing tables.
func (c *Context) OpenEngine() (*datastore.Engine, error) {
	db := c.Settings.Database
	if !db.Enabled {
		return nil, errors.New(errors.NewStd("database is disabled in configuration")).
			Component("config").
			Category(errors.CategoryConfiguration).
			Build()
	}

	return datastore.NewEngine(db.URL,
		datastore.WithEcho(db.Echo),
		datastore.WithPool(db.PoolSize, db.MaxOverflow),
		datastore.WithLogger(c.Log()),
		datastore.WithMetrics(c.Metrics.Datastore),
	)
}

// NewIndexer creates an indexer writing to engine. opts are applied after
// the configured logger and metrics.
func (c *Context) NewIndexer(engine *datastore.Engine, opts ...indexer.Option) *indexer.Indexer {
	base := []indexer.Option{
		indexer.WithLogger(c.Log()),
		indexer.WithMetrics(c.Metrics.Indexer),
	}
	return indexer.New(c.Settings, engine, append(base, opts...)...)
}

// Close flushes pending error reports and closes the log file.
func (c *Context) Close() {
	telemetry.Flush(flushTimeout)
	if c.Logger != nil {
		_ = c.Logger.Close()
	}
}
