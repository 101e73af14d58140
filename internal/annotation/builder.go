package annotation

import (
	"context"

	"github.com/soundscape-lab/annotator/internal/datastore/entities"
	"github.com/soundscape-lab/annotator/internal/datastore/repository"
	"github.com/soundscape-lab/annotator/internal/errors"
	"github.com/soundscape-lab/annotator/internal/logger"
)

// Candidate is a result about to be created for one file.
type Candidate struct {
	PhaseID       uint
	DatasetFileID uint
	Identity      *Identity
	Geometry      Geometry
	AnnotatorID   *uint
}

func (c Candidate) result() *entities.AnnotationResult {
	r := &entities.AnnotationResult{
		AnnotationCampaignPhaseID: c.PhaseID,
		DatasetFileID:             c.DatasetFileID,
		LabelID:                   c.Identity.Label.ID,
		DetectorConfigurationID:   c.Identity.DetectorConfigurationID(),
		ConfidenceIndicatorID:     c.Identity.ConfidenceIndicatorID(),
		AnnotatorID:               c.AnnotatorID,
	}
	c.Geometry.Apply(r)
	return r
}

// Builder creates results unless an identical one already exists, which
// makes re-importing a batch a no-op.
type Builder struct {
	log logger.Logger
}

// NewBuilder creates a Builder.
func NewBuilder(log logger.Logger) *Builder {
	if log == nil {
		log = logger.Discard()
	}
	return &Builder{log: log}
}

// Build persists the candidate and returns it with created=true, or returns
// the existing identical result with created=false. Results are identical
// when phase, file, label, detector configuration, confidence indicator,
// type and bounds all match.
func (b *Builder) Build(ctx context.Context, repos *repository.Set, c Candidate) (*entities.AnnotationResult, bool, error) {
	r := c.result()

	existing, err := repos.Results.FindDuplicate(ctx, r)
	switch {
	case err == nil:
		b.log.Trace("duplicate result skipped",
			logger.Uint("existing_id", existing.ID),
			logger.Uint("dataset_file_id", c.DatasetFileID))
		return existing, false, nil
	case !errors.Is(err, repository.ErrResultNotFound):
		return nil, false, dbError("find duplicate result", err)
	}

	if err := repos.Results.Create(ctx, r); err != nil {
		return nil, false, dbError("create result", err)
	}
	r.Label = c.Identity.Label
	r.DetectorConfiguration = c.Identity.DetectorConfiguration
	r.ConfidenceIndicator = c.Identity.ConfidenceIndicator
	return r, true, nil
}
