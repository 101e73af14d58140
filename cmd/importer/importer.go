// Package importer bulk imports a detection file into a campaign phase.
package importer

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/soundscape-lab/annotator/internal/annotation"
	"github.com/soundscape-lab/annotator/internal/app"
	"github.com/soundscape-lab/annotator/internal/buildinfo"
	"github.com/soundscape-lab/annotator/internal/conf"
	"github.com/soundscape-lab/annotator/internal/importfile"
)

type options struct {
	phaseID           uint
	file              string
	format            string
	forceDatetime     bool
	forceMaxFrequency bool
}

// Command creates the import command.
func Command(settings *conf.Settings, build *buildinfo.Context) *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import detections into a campaign phase",
		Long: "Import detections from a CSV, JSON or YAML file. Rows that cannot be placed are skipped " +
			"and listed; a database failure rolls back the whole file.",
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
			return run(cmd.Context(), a.Service(), opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().UintVar(&opts.phaseID, "phase", 0, "ID of the annotation campaign phase to import into")
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Detection file (.csv, .json, .yaml)")
	cmd.Flags().StringVar(&opts.format, "format", "", "File format, overrides the file extension (csv, json, yaml)")
	cmd.Flags().BoolVar(&opts.forceDatetime, "force-datetime", false, "Clip detections reaching outside the dataset files instead of skipping them")
	cmd.Flags().BoolVar(&opts.forceMaxFrequency, "force-max-frequency", false, "Clip frequencies above the Nyquist frequency instead of skipping the row")
	_ = cmd.MarkFlagRequired("phase")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func run(ctx context.Context, service *annotation.Service, opts *options, out io.Writer) error {
	format := importfile.Format(opts.format)
	if format == "" {
		var err error
		if format, err = importfile.FormatFromPath(opts.file); err != nil {
			return err
		}
	}

	f, err := os.Open(opts.file)
	if err != nil {
		return fmt.Errorf("open %s: %w", opts.file, err)
	}
	defer func() { _ = f.Close() }()

	rows, err := importfile.Read(f, format)
	if err != nil {
		return fmt.Errorf("read %s: %w", opts.file, err)
	}

	report, err := service.Import(ctx, annotation.ImportContext{
		PhaseID:           opts.phaseID,
		ForceDatetime:     opts.forceDatetime,
		ForceMaxFrequency: opts.forceMaxFrequency,
	}, rows)
	if err != nil {
		return err
	}
	return printReport(out, len(rows), report)
}

func printReport(out io.Writer, total int, report annotation.ImportReport) error {
	if _, err := fmt.Fprintf(out, "%d rows, %d results created, %d rows skipped\n",
		total, len(report.Results), report.SkippedCount()); err != nil {
		return err
	}
	for _, o := range report.Outcomes {
		if !o.Skipped() {
			continue
		}
		if _, err := fmt.Fprintf(out, "  row %d: %s (%s)\n", o.Index, o.Skip, o.Detail); err != nil {
			return err
		}
	}
	return nil
}
