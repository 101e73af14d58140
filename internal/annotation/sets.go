package annotation

import (
	"context"
	"fmt"

	"github.com/soundscape-lab/annotator/internal/datastore/entities"
	"github.com/soundscape-lab/annotator/internal/datastore/repository"
	"github.com/soundscape-lab/annotator/internal/errors"
	"github.com/soundscape-lab/annotator/internal/logger"
	"github.com/soundscape-lab/annotator/internal/observability/metrics"
)

// DefaultMaxNameProbes bounds the "name (n)" search for a free set name.
const DefaultMaxNameProbes = 100

// SetResolver adds labels and confidence indicators to a campaign's sets.
// A set referenced by this campaign only is extended in place. A set shared
// with other campaigns is copied first and the campaign is repointed to the
// copy, so the other campaigns keep their vocabulary.
type SetResolver struct {
	maxNameProbes int
	log           logger.Logger
	metrics       *metrics.AnnotationMetrics
}

// NewSetResolver creates a SetResolver. A non-positive maxNameProbes uses
// DefaultMaxNameProbes.
func NewSetResolver(maxNameProbes int, log logger.Logger, m *metrics.AnnotationMetrics) *SetResolver {
	if maxNameProbes <= 0 {
		maxNameProbes = DefaultMaxNameProbes
	}
	if log == nil {
		log = logger.Discard()
	}
	return &SetResolver{maxNameProbes: maxNameProbes, log: log, metrics: m}
}

// EnsureLabelInCampaign makes label part of the campaign's label set and
// reports whether a shared set was forked. campaign.LabelSetID is updated
// when the campaign is repointed.
func (r *SetResolver) EnsureLabelInCampaign(ctx context.Context, repos *repository.Set, campaign *entities.AnnotationCampaign, label *entities.Label) (bool, error) {
	if campaign.LabelSetID == nil {
		name, err := r.uniqueName(ctx, repos.LabelSets.NameExists, campaign.Name)
		if err != nil {
			return false, err
		}
		set := &entities.LabelSet{Name: name, Labels: []entities.Label{*label}}
		if err := repos.LabelSets.Create(ctx, set); err != nil {
			return false, dbError("create label set", err)
		}
		if err := r.repointLabelSet(ctx, repos, campaign, set.ID); err != nil {
			return false, err
		}
		r.log.Info("label set created",
			logger.Uint("campaign_id", campaign.ID),
			logger.Uint("label_set_id", set.ID),
			logger.String("name", name))
		return false, nil
	}

	setID := *campaign.LabelSetID
	if err := repos.LabelSets.Lock(ctx, setID); err != nil {
		return false, r.lookupError("label set", setID, err)
	}

	contained, err := repos.LabelSets.Contains(ctx, setID, label.ID)
	if err != nil {
		return false, dbError("check label set membership", err)
	}
	if contained {
		return false, nil
	}

	owners, err := repos.Campaigns.CountByLabelSet(ctx, setID)
	if err != nil {
		return false, dbError("count label set owners", err)
	}
	if owners <= 1 {
		if err := repos.LabelSets.AddLabel(ctx, setID, label.ID); err != nil {
			return false, dbError("add label to set", err)
		}
		r.log.Debug("label added to set",
			logger.Uint("label_set_id", setID),
			logger.String("label", label.Name))
		return false, nil
	}

	old, err := repos.LabelSets.GetByID(ctx, setID)
	if err != nil {
		return false, r.lookupError("label set", setID, err)
	}
	name, err := r.uniqueName(ctx, repos.LabelSets.NameExists, campaign.Name)
	if err != nil {
		return false, err
	}

	labels := make([]entities.Label, 0, len(old.Labels)+1)
	labels = append(labels, old.Labels...)
	labels = append(labels, *label)
	fork := &entities.LabelSet{Name: name, Description: old.Description, Labels: labels}
	if err := repos.LabelSets.Create(ctx, fork); err != nil {
		return false, dbError("fork label set", err)
	}
	if err := r.repointLabelSet(ctx, repos, campaign, fork.ID); err != nil {
		return false, err
	}

	r.metrics.RecordSetFork(metrics.SetKindLabel)
	r.log.Info("shared label set forked",
		logger.Uint("campaign_id", campaign.ID),
		logger.Uint("from_set_id", setID),
		logger.Uint("to_set_id", fork.ID),
		logger.Int64("owners", owners),
		logger.String("name", name))
	return true, nil
}

func (r *SetResolver) repointLabelSet(ctx context.Context, repos *repository.Set, campaign *entities.AnnotationCampaign, setID uint) error {
	if err := repos.Campaigns.SetLabelSet(ctx, campaign.ID, setID); err != nil {
		return r.lookupError("campaign", campaign.ID, err)
	}
	campaign.LabelSetID = &setID
	campaign.LabelSet = nil
	return nil
}

// EnsureConfidenceIndicatorInCampaign makes indicator part of the campaign's
// confidence set and reports whether a shared set was forked. A campaign
// without a set gets a new one named after it. With isDefault the indicator
// becomes the only default of the set it is added to. An indicator already
// in the set is left untouched.
func (r *SetResolver) EnsureConfidenceIndicatorInCampaign(ctx context.Context, repos *repository.Set, campaign *entities.AnnotationCampaign, indicator *entities.ConfidenceIndicator, isDefault bool) (bool, error) {
	if campaign.ConfidenceIndicatorSetID == nil {
		name, err := r.uniqueName(ctx, repos.Confidence.SetNameExists, campaign.Name)
		if err != nil {
			return false, err
		}
		set := &entities.ConfidenceIndicatorSet{
			Name: name,
			Memberships: []entities.ConfidenceIndicatorSetIndicator{
				{ConfidenceIndicatorID: indicator.ID, IsDefault: isDefault},
			},
		}
		if err := repos.Confidence.CreateSet(ctx, set); err != nil {
			return false, dbError("create confidence set", err)
		}
		if err := r.repointConfidenceSet(ctx, repos, campaign, set.ID); err != nil {
			return false, err
		}
		r.log.Info("confidence set created",
			logger.Uint("campaign_id", campaign.ID),
			logger.Uint("confidence_set_id", set.ID),
			logger.String("name", name))
		return false, nil
	}

	setID := *campaign.ConfidenceIndicatorSetID
	if err := repos.Confidence.LockSet(ctx, setID); err != nil {
		return false, r.lookupError("confidence indicator set", setID, err)
	}

	_, err := repos.Confidence.Membership(ctx, setID, indicator.ID)
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, repository.ErrMembershipNotFound):
		return false, dbError("check confidence set membership", err)
	}

	owners, err := repos.Campaigns.CountByConfidenceSet(ctx, setID)
	if err != nil {
		return false, dbError("count confidence set owners", err)
	}
	if owners <= 1 {
		m := &entities.ConfidenceIndicatorSetIndicator{
			ConfidenceIndicatorID:    indicator.ID,
			ConfidenceIndicatorSetID: setID,
		}
		if err := repos.Confidence.AddMembership(ctx, m); err != nil {
			return false, dbError("add confidence indicator to set", err)
		}
		if isDefault {
			if err := repos.Confidence.SetDefault(ctx, setID, indicator.ID); err != nil {
				return false, dbError("set default confidence indicator", err)
			}
		}
		r.log.Debug("confidence indicator added to set",
			logger.Uint("confidence_set_id", setID),
			logger.String("indicator", indicator.Label),
			logger.Int("level", indicator.Level))
		return false, nil
	}

	old, err := repos.Confidence.GetSet(ctx, setID)
	if err != nil {
		return false, r.lookupError("confidence indicator set", setID, err)
	}
	name, err := r.uniqueName(ctx, repos.Confidence.SetNameExists, campaign.Name)
	if err != nil {
		return false, err
	}

	memberships := make([]entities.ConfidenceIndicatorSetIndicator, 0, len(old.Memberships)+1)
	for _, m := range old.Memberships {
		memberships = append(memberships, entities.ConfidenceIndicatorSetIndicator{
			ConfidenceIndicatorID: m.ConfidenceIndicatorID,
			IsDefault:             m.IsDefault && !isDefault,
		})
	}
	memberships = append(memberships, entities.ConfidenceIndicatorSetIndicator{
		ConfidenceIndicatorID: indicator.ID,
		IsDefault:             isDefault,
	})

	fork := &entities.ConfidenceIndicatorSet{Name: name, Description: old.Description, Memberships: memberships}
	if err := repos.Confidence.CreateSet(ctx, fork); err != nil {
		return false, dbError("fork confidence set", err)
	}
	if err := r.repointConfidenceSet(ctx, repos, campaign, fork.ID); err != nil {
		return false, err
	}

	r.metrics.RecordSetFork(metrics.SetKindConfidence)
	r.log.Info("shared confidence set forked",
		logger.Uint("campaign_id", campaign.ID),
		logger.Uint("from_set_id", setID),
		logger.Uint("to_set_id", fork.ID),
		logger.Int64("owners", owners),
		logger.String("name", name))
	return true, nil
}

func (r *SetResolver) repointConfidenceSet(ctx context.Context, repos *repository.Set, campaign *entities.AnnotationCampaign, setID uint) error {
	if err := repos.Campaigns.SetConfidenceSet(ctx, campaign.ID, setID); err != nil {
		return r.lookupError("campaign", campaign.ID, err)
	}
	campaign.ConfidenceIndicatorSetID = &setID
	campaign.ConfidenceIndicatorSet = nil
	return nil
}

// uniqueName returns base, or the first free "base (n)", trying at most
// maxNameProbes names.
func (r *SetResolver) uniqueName(ctx context.Context, exists func(context.Context, string) (bool, error), base string) (string, error) {
	for i := range r.maxNameProbes {
		candidate := base
		if i > 0 {
			candidate = fmt.Sprintf("%s (%d)", base, i)
		}
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", dbError("probe set name", err)
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", errors.Newf("no free set name for %q after %d attempts", base, r.maxNameProbes).
		Component(componentAnnotation).
		Category(errors.CategoryConflict).
		Context("name", base).
		Build()
}

// lookupError maps repository not-found sentinels to not-found errors.
func (r *SetResolver) lookupError(entity string, id uint, err error) error {
	if isRepositoryNotFound(err) {
		return notFoundError(entity, id)
	}
	return dbError("load "+entity, err)
}

func isRepositoryNotFound(err error) bool {
	for _, sentinel := range []error{
		repository.ErrDatasetNotFound,
		repository.ErrDatasetFileNotFound,
		repository.ErrCampaignNotFound,
		repository.ErrPhaseNotFound,
		repository.ErrLabelNotFound,
		repository.ErrLabelSetNotFound,
		repository.ErrConfidenceSetNotFound,
		repository.ErrDetectorConfigurationNotFound,
		repository.ErrResultNotFound,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
