// Package cmd defines the annotator command line interface.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/soundscape-lab/annotator/cmd/importer"
	"github.com/soundscape-lab/annotator/cmd/migrate"
	"github.com/soundscape-lab/annotator/cmd/serve"
	"github.com/soundscape-lab/annotator/internal/buildinfo"
	"github.com/soundscape-lab/annotator/internal/conf"
)

// RootCommand creates and returns the root command. Settings are loaded
// before any sub-command runs; sub-commands read them through settings.
func RootCommand(build *buildinfo.Context) *cobra.Command {
	settings := &conf.Settings{}
	var (
		configFile string
		debug      bool
	)

	rootCmd := &cobra.Command{
		Use:           "annotator",
		Short:         "Annotation result engine for bioacoustic campaigns",
		Version:       fmt.Sprintf("%s (built %s)", build.GetVersion(), build.GetBuildDate()),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to config.yaml (defaults to the standard search paths)")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug output")

	rootCmd.AddCommand(
		serve.Command(settings, build),
		migrate.Command(settings, build),
		importer.Command(settings, build),
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		loaded, err := conf.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		*settings = *loaded
		if cmd.Flags().Changed("debug") {
			settings.Debug = debug
		}
		return nil
	}

	return rootCmd
}
