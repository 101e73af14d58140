// Package serve runs the annotator HTTP API.
package serve

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/soundscape-lab/annotator/internal/api"
	"github.com/soundscape-lab/annotator/internal/app"
	"github.com/soundscape-lab/annotator/internal/buildinfo"
	"github.com/soundscape-lab/annotator/internal/conf"
	"github.com/soundscape-lab/annotator/internal/errors"
	"github.com/soundscape-lab/annotator/internal/logger"
)

// Command creates the serve command.
func Command(settings *conf.Settings, build *buildinfo.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the annotation API",
		Long:  "Start the HTTP API for result import, upsert and reads, with Prometheus metrics on /metrics.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), settings, build)
		},
	}
}

func run(ctx context.Context, settings *conf.Settings, build *buildinfo.Context) (err error) {
	if !settings.WebServer.Enabled {
		return errors.New(errors.NewStd("web server is disabled in the configuration")).
			Component("serve").
			Category(errors.CategoryConfiguration).
			Build()
	}

	a, err := app.New(settings, build)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := a.Close(); err == nil {
			err = closeErr
		}
	}()
	log := a.Log.Module("main")

	if err := a.EnableMetrics(); err != nil {
		return err
	}
	if err := a.OpenStore(ctx); err != nil {
		return err
	}

	srv, err := api.New(settings, a.Store, a.Service(),
		api.WithLogger(a.Log.Module("server")),
		api.WithMetrics(a.Metrics),
		api.WithVersion(build.GetVersion()))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("annotator starting",
		logger.String("version", build.GetVersion()),
		logger.String("database", settings.Database.Type))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Serve(gctx)
	})
	g.Go(func() error {
		rotateOnHangup(gctx, a.Log, log)
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("annotator stopped")
	return nil
}

// rotateOnHangup reopens the log file on SIGHUP until ctx is done.
func rotateOnHangup(ctx context.Context, rotator interface{ Rotate() error }, log logger.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := rotator.Rotate(); err != nil {
				log.Warn("log rotation failed", logger.Error(err))
				continue
			}
			log.Info("log file rotated")
		}
	}
}
