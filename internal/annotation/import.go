package annotation

import (
	"context"
	"time"

	"github.com/soundscape-lab/annotator/internal/datastore/entities"
	"github.com/soundscape-lab/annotator/internal/datastore/repository"
	"github.com/soundscape-lab/annotator/internal/errors"
	"github.com/soundscape-lab/annotator/internal/logger"
	"github.com/soundscape-lab/annotator/internal/observability/metrics"
)

// ImportRow is one detection of a bulk import.
type ImportRow struct {
	IsBox               bool             `json:"is_box" yaml:"is_box"`
	Dataset             string           `json:"dataset" yaml:"dataset"`
	Detector            string           `json:"detector" yaml:"detector"`
	DetectorConfig      string           `json:"detector_config" yaml:"detector_config"`
	StartDatetime       time.Time        `json:"start_datetime" yaml:"start_datetime"`
	EndDatetime         time.Time        `json:"end_datetime" yaml:"end_datetime"`
	MinFrequency        *float64         `json:"min_frequency" yaml:"min_frequency"`
	MaxFrequency        *float64         `json:"max_frequency,omitempty" yaml:"max_frequency,omitempty"`
	Label               string           `json:"label" yaml:"label"`
	ConfidenceIndicator *ConfidenceInput `json:"confidence_indicator,omitempty" yaml:"confidence_indicator,omitempty"`
}

// ImportContext selects the target phase and how tolerant the import is.
// ForceDatetime clips detections reaching outside the dataset files instead
// of skipping them. ForceMaxFrequency clips frequencies above the Nyquist
// frequency instead of skipping the row.
type ImportContext struct {
	PhaseID           uint
	ForceDatetime     bool
	ForceMaxFrequency bool
}

// SkipReason explains why an import row produced no result.
type SkipReason string

const (
	SkipDatasetNotFound       SkipReason = "dataset_not_found"
	SkipMissingLabel          SkipReason = "missing_label"
	SkipInvalidTimeRange      SkipReason = "invalid_time_range"
	SkipInvalidFrequencyRange SkipReason = "invalid_frequency_range"
	SkipFrequencyAboveNyquist SkipReason = "frequency_above_nyquist"
	SkipOutOfFileRange        SkipReason = "out_of_file_range"
	SkipNoMatchingFile        SkipReason = "no_matching_file"
	SkipDuplicate             SkipReason = "duplicate"
)

// RowOutcome is what happened to one import row. Skip is empty when the row
// created at least one result.
type RowOutcome struct {
	Index   int                          `json:"index"`
	Results []*entities.AnnotationResult `json:"-"`
	Skip    SkipReason                   `json:"skip_reason,omitempty"`
	Detail  string                       `json:"detail,omitempty"`
}

// Skipped reports whether the row created nothing.
func (o RowOutcome) Skipped() bool { return o.Skip != "" }

// ImportReport lists the created results in row order and the outcome of
// every row.
type ImportReport struct {
	Results  []*entities.AnnotationResult
	Outcomes []RowOutcome
}

// SkippedCount returns the number of rows that created nothing.
func (r ImportReport) SkippedCount() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Skipped() {
			n++
		}
	}
	return n
}

// Import creates the results of rows in the phase. Rows failing validation
// are skipped with a reason and do not abort the batch. Rows matching
// existing results are skipped as duplicates, so importing the same batch
// twice creates nothing the second time. Any persistence failure rolls back
// the whole batch.
func (s *Service) Import(ctx context.Context, ictx ImportContext, rows []ImportRow) (ImportReport, error) {
	start := time.Now()
	log := s.log.WithContext(ctx).With(logger.Uint("phase_id", ictx.PhaseID))

	var report ImportReport
	err := s.store.Transaction(ctx, func(repos *repository.Set) error {
		report = ImportReport{Outcomes: make([]RowOutcome, 0, len(rows))}

		phase, err := s.loadPhase(ctx, repos, ictx.PhaseID)
		if err != nil {
			return err
		}

		for i := range rows {
			outcome, err := s.importRow(ctx, repos, phase, ictx, i, &rows[i])
			if err != nil {
				return errors.New(err).
					Component(componentAnnotation).
					Context("row", i).
					Build()
			}
			if outcome.Skipped() {
				log.Debug("import row skipped",
					logger.Int("row", i),
					logger.String("reason", string(outcome.Skip)),
					logger.String("detail", outcome.Detail))
			}
			report.Outcomes = append(report.Outcomes, outcome)
			report.Results = append(report.Results, outcome.Results...)
		}
		return nil
	})
	s.observe(metrics.OpImport, start, err)
	if err != nil {
		return ImportReport{}, err
	}

	for _, o := range report.Outcomes {
		if o.Skipped() {
			s.metrics.RecordImportRow(string(o.Skip))
		} else {
			s.metrics.RecordImportRow(metrics.OutcomeCreated)
		}
	}
	for range report.Results {
		s.metrics.RecordResultCreated(metrics.SourceImport)
	}

	log.Info("import finished",
		logger.Int("rows", len(rows)),
		logger.Int("created", len(report.Results)),
		logger.Int("skipped", report.SkippedCount()),
		logger.Duration("elapsed", time.Since(start)))
	return report, nil
}

// importRow validates and imports one row. Row problems come back as a
// skipped outcome; only persistence failures are returned as errors.
func (s *Service) importRow(ctx context.Context, repos *repository.Set, phase *entities.AnnotationCampaignPhase, ictx ImportContext, index int, row *ImportRow) (RowOutcome, error) {
	outcome := RowOutcome{Index: index}
	skip := func(reason SkipReason, detail string) (RowOutcome, error) {
		outcome.Skip = reason
		outcome.Detail = detail
		return outcome, nil
	}

	if canonicalName(row.Label) == "" {
		return skip(SkipMissingLabel, "label is required")
	}

	start, end := row.StartDatetime.UTC(), row.EndDatetime.UTC()
	if end.Before(start) {
		return skip(SkipInvalidTimeRange, "end_datetime is before start_datetime")
	}

	minFreq, maxFreq := copyFloat(row.MinFrequency), copyFloat(row.MaxFrequency)
	if minFreq != nil && *minFreq < 0 {
		return skip(SkipInvalidFrequencyRange, "min_frequency is negative")
	}
	if minFreq != nil && maxFreq != nil && *minFreq > *maxFreq {
		return skip(SkipInvalidFrequencyRange, "min_frequency is above max_frequency")
	}

	dataset, err := s.datasetByName(ctx, repos, canonicalName(row.Dataset))
	if err != nil {
		if errors.Is(err, repository.ErrDatasetNotFound) {
			return skip(SkipDatasetNotFound, "no dataset named "+row.Dataset)
		}
		return outcome, dbError("load dataset", err)
	}

	nyquist := dataset.Nyquist()
	for _, f := range []*float64{minFreq, maxFreq} {
		if f == nil || *f <= nyquist {
			continue
		}
		if !ictx.ForceMaxFrequency {
			return skip(SkipFrequencyAboveNyquist, "frequency above the dataset nyquist frequency")
		}
		*f = nyquist
	}

	files, err := repos.Datasets.FilesMatchingTimeRange(ctx, dataset.ID, start, end)
	if err != nil {
		return outcome, dbError("match dataset files", err)
	}
	if len(files) == 0 {
		return skip(SkipNoMatchingFile, "no file of the dataset covers this time range")
	}
	if !ictx.ForceDatetime && !(covers(files, start) && covers(files, end)) {
		return skip(SkipOutOfFileRange, "time range reaches outside the dataset files")
	}

	identity, err := s.reconciler.Resolve(ctx, repos, phase, IdentityInput{
		DetectorName:  row.Detector,
		Configuration: row.DetectorConfig,
		LabelName:     row.Label,
		Confidence:    row.ConfidenceIndicator,
	})
	if err != nil {
		return outcome, err
	}

	raw := RawBounds{Start: start, End: end, MinFrequency: minFreq, MaxFrequency: maxFreq, IsBox: row.IsBox}
	duplicates := 0
	for i := range files {
		geometry := Weak()
		if row.IsBox || len(files) > 1 {
			geometry = Normalize(raw, ExtentOf(&files[i]), nyquist)
		}

		result, created, err := s.builder.Build(ctx, repos, Candidate{
			PhaseID:       phase.ID,
			DatasetFileID: files[i].ID,
			Identity:      identity,
			Geometry:      geometry,
		})
		if err != nil {
			return outcome, err
		}
		if !created {
			duplicates++
			s.metrics.RecordDuplicate()
			continue
		}
		outcome.Results = append(outcome.Results, result)
	}

	if len(outcome.Results) == 0 && duplicates > 0 {
		return skip(SkipDuplicate, "identical results already exist")
	}
	return outcome, nil
}

// covers reports whether any file contains t.
func covers(files []entities.DatasetFile, t time.Time) bool {
	for i := range files {
		if files[i].Contains(t) {
			return true
		}
	}
	return false
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
