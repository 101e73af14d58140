// Package migrate applies the database schema without serving.
package migrate

import (
	"github.com/spf13/cobra"

	"github.com/soundscape-lab/annotator/internal/app"
	"github.com/soundscape-lab/annotator/internal/buildinfo"
	"github.com/soundscape-lab/annotator/internal/conf"
	"github.com/soundscape-lab/annotator/internal/logger"
)

// Command creates the migrate command.
func Command(settings *conf.Settings, build *buildinfo.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			a, err := app.New(settings, build)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := a.Close(); err == nil {
					err = closeErr
				}
			}()

			if err := a.OpenStore(cmd.Context()); err != nil {
				return err
			}
			a.Log.Module("main").Info("database schema is up to date",
				logger.String("database", settings.Database.Type))
			return nil
		},
	}
}
