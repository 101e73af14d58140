package annotation

import (
	"context"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/soundscape-lab/annotator/internal/datastore/entities"
	"github.com/soundscape-lab/annotator/internal/datastore/repository"
	"github.com/soundscape-lab/annotator/internal/logger"
)

// ConfidenceInput is a confidence indicator as supplied by a client. Label
// and Level are both required; a payload missing either is ignored.
type ConfidenceInput struct {
	Label     string `json:"label" yaml:"label"`
	Level     *int   `json:"level" yaml:"level"`
	IsDefault bool   `json:"is_default,omitempty" yaml:"is_default,omitempty"`
}

// IdentityInput names the detector, label and confidence of a result.
// An empty DetectorName means a human annotator produced the result.
type IdentityInput struct {
	DetectorName  string
	Configuration string
	LabelName     string
	Confidence    *ConfidenceInput
}

// Identity holds the canonical rows a result refers to.
type Identity struct {
	DetectorConfiguration *entities.DetectorConfiguration // nil for manual entry
	Label                 *entities.Label
	ConfidenceIndicator   *entities.ConfidenceIndicator // nil when no valid confidence was given
}

// DetectorConfigurationID returns the configuration key or nil.
func (id *Identity) DetectorConfigurationID() *uint {
	if id.DetectorConfiguration == nil {
		return nil
	}
	return &id.DetectorConfiguration.ID
}

// ConfidenceIndicatorID returns the indicator key or nil.
func (id *Identity) ConfidenceIndicatorID() *uint {
	if id.ConfidenceIndicator == nil {
		return nil
	}
	return &id.ConfidenceIndicator.ID
}

// Reconciler resolves free-text identity payloads to canonical rows and
// keeps the campaign's label and confidence sets in step.
type Reconciler struct {
	sets *SetResolver
	log  logger.Logger
}

// NewReconciler creates a Reconciler.
func NewReconciler(sets *SetResolver, log logger.Logger) *Reconciler {
	if log == nil {
		log = logger.Discard()
	}
	return &Reconciler{sets: sets, log: log}
}

// canonicalName trims and NFC-normalizes a name so that visually identical
// names map to the same row.
func canonicalName(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// Resolve get-or-creates the detector, detector configuration, label and
// confidence indicator of in, and adds the label and indicator to the sets of
// the campaign owning phase. phase.AnnotationCampaign must be loaded; its set
// keys are updated when a set is created or forked.
func (r *Reconciler) Resolve(ctx context.Context, repos *repository.Set, phase *entities.AnnotationCampaignPhase, in IdentityInput) (*Identity, error) {
	campaign := phase.AnnotationCampaign
	if campaign == nil {
		return nil, notFoundError("campaign of phase", phase.ID)
	}

	labelName := canonicalName(in.LabelName)
	if labelName == "" {
		return nil, validationError("label", "label is required")
	}

	identity := &Identity{}

	if detectorName := canonicalName(in.DetectorName); detectorName != "" {
		detector, err := repos.Detectors.GetOrCreate(ctx, detectorName)
		if err != nil {
			return nil, dbError("get or create detector", err)
		}
		config, err := repos.Detectors.GetOrCreateConfiguration(ctx, detector.ID, strings.TrimSpace(in.Configuration))
		if err != nil {
			return nil, dbError("get or create detector configuration", err)
		}
		config.Detector = detector
		identity.DetectorConfiguration = config
	}

	label, err := repos.Labels.GetOrCreate(ctx, labelName)
	if err != nil {
		return nil, dbError("get or create label", err)
	}
	if _, err := r.sets.EnsureLabelInCampaign(ctx, repos, campaign, label); err != nil {
		return nil, err
	}
	identity.Label = label

	confidence, ok := r.validConfidence(in.Confidence)
	if !ok {
		return identity, nil
	}
	indicator, err := repos.Confidence.GetOrCreateIndicator(ctx, confidence.Label, *confidence.Level)
	if err != nil {
		return nil, dbError("get or create confidence indicator", err)
	}
	if _, err := r.sets.EnsureConfidenceIndicatorInCampaign(ctx, repos, campaign, indicator, confidence.IsDefault); err != nil {
		return nil, err
	}
	identity.ConfidenceIndicator = indicator

	return identity, nil
}

// validConfidence returns the canonical form of c, or false when c is absent
// or malformed.
func (r *Reconciler) validConfidence(c *ConfidenceInput) (ConfidenceInput, bool) {
	if c == nil {
		return ConfidenceInput{}, false
	}
	label := canonicalName(c.Label)
	if label == "" || c.Level == nil {
		r.log.Debug("malformed confidence indicator ignored",
			logger.String("label", c.Label),
			logger.Bool("has_level", c.Level != nil))
		return ConfidenceInput{}, false
	}
	return ConfidenceInput{Label: label, Level: c.Level, IsDefault: c.IsDefault}, true
}
