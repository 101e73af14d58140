// Package app assembles the annotator from its settings: logging, error
// reporting, the datastore, metrics and the annotation service. Commands
// build an App, open what they need and Close it on exit.
package app

import (
	"context"
	"fmt"

	"github.com/soundscape-lab/annotator/internal/annotation"
	"github.com/soundscape-lab/annotator/internal/buildinfo"
	"github.com/soundscape-lab/annotator/internal/conf"
	"github.com/soundscape-lab/annotator/internal/datastore"
	"github.com/soundscape-lab/annotator/internal/errors"
	"github.com/soundscape-lab/annotator/internal/logger"
	"github.com/soundscape-lab/annotator/internal/observability"
)

// App holds the long-lived components of one process.
type App struct {
	Settings *conf.Settings
	Build    *buildinfo.Context
	Log      *logger.CentralLogger

	Metrics *observability.Metrics
	Store   *datastore.Store

	service  *annotation.Service
	reporter *errors.SentryReporter
}

// New sets up logging and, when telemetry is enabled, Sentry error
// reporting.
func New(settings *conf.Settings, build *buildinfo.Context) (*App, error) {
	logCfg := settings.Logging
	if settings.Debug {
		logCfg.DefaultLevel = string(logger.LogLevelDebug)
	}
	cl, err := logger.NewCentralLogger(&logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	logger.SetGlobal(cl)

	a := &App{Settings: settings, Build: build, Log: cl}

	if settings.Telemetry.Enabled {
		reporter, err := errors.NewSentryReporter(settings.Telemetry.DSN, settings.Telemetry.Environment, build.GetVersion())
		if err != nil {
			_ = cl.Close()
			return nil, fmt.Errorf("failed to initialize error reporting: %w", err)
		}
		errors.SetReporter(reporter)
		a.reporter = reporter
		cl.Module("telemetry").Info("error reporting enabled",
			logger.String("environment", settings.Telemetry.Environment),
			logger.String("instance_id", build.GetInstanceID()))
	}
	return a, nil
}

// EnableMetrics creates the Prometheus registry. Call it before OpenStore
// so the datastore reports its transactions.
func (a *App) EnableMetrics() error {
	m, err := observability.NewMetrics()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	a.Metrics = m
	return nil
}

// OpenStore connects the datastore and applies the schema.
func (a *App) OpenStore(ctx context.Context) error {
	store, err := datastore.Open(&a.Settings.Database, a.Log.Module("datastore"))
	if err != nil {
		return err
	}
	if a.Metrics != nil {
		store.SetMetrics(a.Metrics.Datastore)
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return err
	}
	a.Store = store
	return nil
}

// Service returns the annotation service, creating it on first use.
// OpenStore must have succeeded.
func (a *App) Service() *annotation.Service {
	if a.service == nil {
		opts := []annotation.Option{annotation.WithLogger(a.Log.Module("annotation"))}
		if a.Metrics != nil {
			opts = append(opts, annotation.WithMetrics(a.Metrics.Annotation))
		}
		a.service = annotation.NewService(a.Store, a.Settings.Annotation, opts...)
	}
	return a.service
}

// Close releases the datastore, flushes error reports and closes the log
// file. It is safe to call on a partially opened App.
func (a *App) Close() error {
	var errs []error
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.reporter != nil {
		a.reporter.Flush()
		errors.SetReporter(nil)
	}
	if err := a.Log.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
