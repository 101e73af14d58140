package annotation

import (
	"context"
	"time"

	"github.com/soundscape-lab/annotator/internal/datastore/entities"
	"github.com/soundscape-lab/annotator/internal/datastore/repository"
	"github.com/soundscape-lab/annotator/internal/logger"
	"github.com/soundscape-lab/annotator/internal/observability/metrics"
)

// DetectorInput names a detector and its configuration.
type DetectorInput struct {
	Name          string `json:"detector"`
	Configuration string `json:"configuration"`
}

// CommentInput is a comment to attach to a result.
type CommentInput struct {
	AuthorID uint   `json:"author"`
	Comment  string `json:"comment"`
}

// ValidationInput is an annotator's verdict on a result.
type ValidationInput struct {
	AnnotatorID uint `json:"annotator"`
	IsValid     bool `json:"is_valid"`
}

// AcousticFeaturesInput describes the signal inside a result.
type AcousticFeaturesInput struct {
	StartFrequency            *float64              `json:"start_frequency"`
	EndFrequency              *float64              `json:"end_frequency"`
	RelativeMaxFrequencyCount *int                  `json:"relative_max_frequency_count"`
	RelativeMinFrequencyCount *int                  `json:"relative_min_frequency_count"`
	StepsCount                *int                  `json:"steps_count"`
	HasHarmonics              *bool                 `json:"has_harmonics"`
	Trend                     *entities.SignalTrend `json:"trend"`
}

// UpsertInput is a manually entered result. ID selects an existing result to
// update; without it a new result is created.
type UpsertInput struct {
	ID               *uint
	PhaseID          uint
	Label            string
	Confidence       *ConfidenceInput
	AnnotatorID      *uint
	DatasetFileID    uint
	Detector         *DetectorInput
	StartTime        *float64
	EndTime          *float64
	StartFrequency   *float64
	EndFrequency     *float64
	Comments         []CommentInput
	Validations      []ValidationInput
	AcousticFeatures *AcousticFeaturesInput
	IsUpdateOf       *uint
}

// Upsert creates or updates one result with its comments, validations and
// acoustic features, then links it to its predecessor. The steps run as one
// unit: a failure in any of them leaves the database unchanged. The result
// is returned with its updated_to chain.
func (s *Service) Upsert(ctx context.Context, in UpsertInput) (ResultView, error) {
	start := time.Now()
	log := s.log.WithContext(ctx)

	var (
		view    ResultView
		created bool
	)
	err := s.store.Transaction(ctx, func(repos *repository.Set) error {
		result, isNew, err := s.upsert(ctx, repos, in)
		if err != nil {
			return err
		}
		created = isNew

		loaded, err := repos.Results.GetByID(ctx, result.ID)
		if err != nil {
			return dbError("reload result", err)
		}
		view, err = s.lineage.Chain(ctx, repos, loaded)
		return err
	})
	s.observe(metrics.OpUpsert, start, err)
	if err != nil {
		return ResultView{}, err
	}

	if created {
		s.metrics.RecordResultCreated(metrics.SourceManual)
	}
	log.Info("result saved",
		logger.Uint("result_id", view.ID),
		logger.String("type", string(view.Type)),
		logger.Bool("created", created))
	return view, nil
}

func (s *Service) upsert(ctx context.Context, repos *repository.Set, in UpsertInput) (*entities.AnnotationResult, bool, error) {
	phase, err := s.loadPhase(ctx, repos, in.PhaseID)
	if err != nil {
		return nil, false, err
	}

	var existing *entities.AnnotationResult
	if in.ID != nil {
		existing, err = repos.Results.GetByID(ctx, *in.ID)
		if err != nil {
			if isRepositoryNotFound(err) {
				return nil, false, notFoundError("result", *in.ID)
			}
			return nil, false, dbError("load result", err)
		}
		if existing.AnnotationCampaignPhaseID != phase.ID {
			return nil, false, validationError("annotation_campaign_phase",
				"result %d belongs to another phase", existing.ID)
		}
	}

	hasDetector := in.Detector != nil && canonicalName(in.Detector.Name) != ""
	if in.AnnotatorID == nil && !hasDetector {
		return nil, false, validationError("annotator", "an annotator or a detector is required")
	}

	file, err := repos.Datasets.GetFile(ctx, in.DatasetFileID)
	if err != nil {
		if isRepositoryNotFound(err) {
			return nil, false, validationError("dataset_file", "dataset file %d does not exist", in.DatasetFileID)
		}
		return nil, false, dbError("load dataset file", err)
	}
	if file.Dataset == nil {
		return nil, false, validationError("dataset_file", "dataset file %d has no dataset", in.DatasetFileID)
	}

	geometry, err := NormalizeManual(in.StartTime, in.EndTime, in.StartFrequency, in.EndFrequency)
	if err != nil {
		return nil, false, err
	}
	if geometry.Type() == entities.ResultPoint && !phase.AnnotationCampaign.AllowPointAnnotation {
		return nil, false, validationError("type", "campaign %q does not allow point annotations", phase.AnnotationCampaign.Name)
	}
	if err := geometry.Within(file.Duration(), file.Dataset.Nyquist()); err != nil {
		return nil, false, err
	}
	if err := validateFeatures(in.AcousticFeatures, file.Dataset.Nyquist()); err != nil {
		return nil, false, err
	}

	identityIn := IdentityInput{LabelName: in.Label, Confidence: in.Confidence}
	if hasDetector {
		identityIn.DetectorName = in.Detector.Name
		identityIn.Configuration = in.Detector.Configuration
	}
	identity, err := s.reconciler.Resolve(ctx, repos, phase, identityIn)
	if err != nil {
		return nil, false, err
	}

	result := Candidate{
		PhaseID:       phase.ID,
		DatasetFileID: file.ID,
		Identity:      identity,
		Geometry:      geometry,
		AnnotatorID:   in.AnnotatorID,
	}.result()

	if existing != nil {
		result.ID = existing.ID
		result.CreatedAt = existing.CreatedAt
		result.IsUpdateOfID = existing.IsUpdateOfID
		if err := repos.Results.Update(ctx, result); err != nil {
			return nil, false, dbError("update result", err)
		}
	} else if err := repos.Results.Create(ctx, result); err != nil {
		return nil, false, dbError("create result", err)
	}

	if err := s.saveSubRecords(ctx, repos, result.ID, in); err != nil {
		return nil, false, err
	}
	if err := s.lineage.Link(ctx, repos, result, in.IsUpdateOf); err != nil {
		return nil, false, err
	}
	return result, existing == nil, nil
}

// saveSubRecords replaces comments and validations and saves or removes the
// acoustic features.
func (s *Service) saveSubRecords(ctx context.Context, repos *repository.Set, resultID uint, in UpsertInput) error {
	comments := make([]entities.AnnotationComment, 0, len(in.Comments))
	for i, c := range in.Comments {
		if c.Comment == "" {
			return validationError("comments", "comment %d is empty", i)
		}
		comments = append(comments, entities.AnnotationComment{AuthorID: c.AuthorID, Comment: c.Comment})
	}
	if err := repos.Results.ReplaceComments(ctx, resultID, comments); err != nil {
		return dbError("save comments", err)
	}

	validations := make([]entities.AnnotationResultValidation, 0, len(in.Validations))
	seen := make(map[uint]bool, len(in.Validations))
	for _, v := range in.Validations {
		if seen[v.AnnotatorID] {
			return validationError("validations", "annotator %d validated the result twice", v.AnnotatorID)
		}
		seen[v.AnnotatorID] = true
		validations = append(validations, entities.AnnotationResultValidation{AnnotatorID: v.AnnotatorID, IsValid: v.IsValid})
	}
	if err := repos.Results.ReplaceValidations(ctx, resultID, validations); err != nil {
		return dbError("save validations", err)
	}

	if in.AcousticFeatures == nil {
		if err := repos.Results.DeleteAcousticFeatures(ctx, resultID); err != nil {
			return dbError("remove acoustic features", err)
		}
		return nil
	}
	f := in.AcousticFeatures
	features := &entities.AnnotationResultAcousticFeatures{
		AnnotationResultID:        resultID,
		StartFrequency:            f.StartFrequency,
		EndFrequency:              f.EndFrequency,
		RelativeMaxFrequencyCount: f.RelativeMaxFrequencyCount,
		RelativeMinFrequencyCount: f.RelativeMinFrequencyCount,
		StepsCount:                f.StepsCount,
		HasHarmonics:              f.HasHarmonics,
		Trend:                     f.Trend,
	}
	if err := repos.Results.SaveAcousticFeatures(ctx, features); err != nil {
		return dbError("save acoustic features", err)
	}
	return nil
}

func validateFeatures(f *AcousticFeaturesInput, nyquist float64) error {
	if f == nil {
		return nil
	}
	if f.Trend != nil && !f.Trend.Valid() {
		return validationError("acoustic_features.trend", "unknown trend %q", *f.Trend)
	}
	for _, v := range []struct {
		field string
		value *float64
	}{
		{"acoustic_features.start_frequency", f.StartFrequency},
		{"acoustic_features.end_frequency", f.EndFrequency},
	} {
		if v.value != nil && (*v.value < 0 || *v.value > nyquist) {
			return validationError(v.field, "%s %g is outside [0, %g]", v.field, *v.value, nyquist)
		}
	}
	for _, v := range []struct {
		field string
		value *int
	}{
		{"acoustic_features.relative_max_frequency_count", f.RelativeMaxFrequencyCount},
		{"acoustic_features.relative_min_frequency_count", f.RelativeMinFrequencyCount},
		{"acoustic_features.steps_count", f.StepsCount},
	} {
		if v.value != nil && *v.value < 0 {
			return validationError(v.field, "%s must not be negative", v.field)
		}
	}
	return nil
}
