package annotation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundscape-lab/annotator/internal/datastore/entities"
	"github.com/soundscape-lab/annotator/internal/datastore/repository"
	"github.com/soundscape-lab/annotator/internal/errors"
)

func TestLabelSet_CreatedForCampaignWithoutSet(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Import(context.Background(), ImportContext{PhaseID: f.phase.ID},
		[]ImportRow{boxRow(time.Minute, 2*time.Minute, 100, 900)})
	require.NoError(t, err)

	campaign := f.reloadCampaign(t, f.campaign.ID)
	assert.Equal(t, []string{"Upcall"}, f.labelNames(t, campaign.LabelSetID))
}

func TestLabelSet_SoleOwnerIsExtendedInPlace(t *testing.T) {
	f := newFixture(t)
	set := f.shareLabelSet(t, "whales", []string{"Upcall"}, f.campaign)

	row := boxRow(time.Minute, 2*time.Minute, 100, 900)
	row.Label = "Gunshot"
	_, err := f.service.Import(context.Background(), ImportContext{PhaseID: f.phase.ID}, []ImportRow{row})
	require.NoError(t, err)

	campaign := f.reloadCampaign(t, f.campaign.ID)
	require.NotNil(t, campaign.LabelSetID)
	assert.Equal(t, set.ID, *campaign.LabelSetID)
	assert.Equal(t, []string{"Upcall", "Gunshot"}, f.labelNames(t, campaign.LabelSetID))
	assert.InDelta(t, 0, f.metricValue(t, "annotation_set_forks_total", "kind", "label"), 0)
}

func TestLabelSet_SharedSetIsForked(t *testing.T) {
	f := newFixture(t)
	other, _ := f.addCampaign(t, "Campaign 2")
	shared := f.shareLabelSet(t, "whales", []string{"Upcall"}, f.campaign, other)

	rows := []ImportRow{boxRow(time.Minute, 2*time.Minute, 100, 900), boxRow(3*time.Minute, 4*time.Minute, 100, 900)}
	rows[0].Label = "Gunshot"
	rows[1].Label = "Click"

	_, err := f.service.Import(context.Background(), ImportContext{PhaseID: f.phase.ID}, rows)
	require.NoError(t, err)

	campaign := f.reloadCampaign(t, f.campaign.ID)
	require.NotNil(t, campaign.LabelSetID)
	assert.NotEqual(t, shared.ID, *campaign.LabelSetID)
	assert.Equal(t, []string{"Upcall", "Gunshot", "Click"}, f.labelNames(t, campaign.LabelSetID))

	fork, err := f.store.Repositories().LabelSets.GetByID(context.Background(), *campaign.LabelSetID)
	require.NoError(t, err)
	assert.Equal(t, "Campaign 1", fork.Name)

	untouched := f.reloadCampaign(t, other.ID)
	assert.Equal(t, shared.ID, *untouched.LabelSetID)
	assert.Equal(t, []string{"Upcall"}, f.labelNames(t, untouched.LabelSetID))

	// the second new label lands in the now exclusive fork
	assert.InDelta(t, 1, f.metricValue(t, "annotation_set_forks_total", "kind", "label"), 0)
}

func TestLabelSet_ForkNameIsDisambiguated(t *testing.T) {
	f := newFixture(t)
	other, _ := f.addCampaign(t, "Campaign 2")
	f.shareLabelSet(t, "Campaign 1", []string{"Upcall"}, f.campaign, other)
	f.shareLabelSet(t, "Campaign 1 (1)", []string{"Click"})

	row := boxRow(time.Minute, 2*time.Minute, 100, 900)
	row.Label = "Gunshot"
	_, err := f.service.Import(context.Background(), ImportContext{PhaseID: f.phase.ID}, []ImportRow{row})
	require.NoError(t, err)

	campaign := f.reloadCampaign(t, f.campaign.ID)
	fork, err := f.store.Repositories().LabelSets.GetByID(context.Background(), *campaign.LabelSetID)
	require.NoError(t, err)
	assert.Equal(t, "Campaign 1 (2)", fork.Name)
}

func TestUniqueName_IsBounded(t *testing.T) {
	t.Parallel()

	r := NewSetResolver(3, nil, nil)
	calls := 0
	_, err := r.uniqueName(context.Background(), func(context.Context, string) (bool, error) {
		calls++
		return true, nil
	}, "busy")
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConflict))
	assert.Equal(t, 3, calls)

	var tried []string
	name, err := r.uniqueName(context.Background(), func(_ context.Context, n string) (bool, error) {
		tried = append(tried, n)
		return len(tried) < 2, nil
	}, "free")
	require.NoError(t, err)
	assert.Equal(t, "free (1)", name)
	assert.Equal(t, []string{"free", "free (1)"}, tried)
}

func TestConfidenceSet_CreatedNamedAfterCampaign(t *testing.T) {
	f := newFixture(t)

	row := boxRow(time.Minute, 2*time.Minute, 100, 900)
	row.ConfidenceIndicator = &ConfidenceInput{Label: "sure", Level: intPtr(1), IsDefault: true}
	report, err := f.service.Import(context.Background(), ImportContext{PhaseID: f.phase.ID}, []ImportRow{row})
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	require.NotNil(t, report.Results[0].ConfidenceIndicatorID)

	campaign := f.reloadCampaign(t, f.campaign.ID)
	require.NotNil(t, campaign.ConfidenceIndicatorSetID)
	set, err := f.store.Repositories().Confidence.GetSet(context.Background(), *campaign.ConfidenceIndicatorSetID)
	require.NoError(t, err)
	assert.Equal(t, "Campaign 1", set.Name)
	require.Len(t, set.Memberships, 1)
	assert.True(t, set.Memberships[0].IsDefault)
	assert.Equal(t, 1, set.MaxLevel())
}

// shareConfidenceSet creates a set with sure (default) and unsure and points
// both campaigns at it.
func shareConfidenceSet(t *testing.T, f *fixture, campaigns ...*entities.AnnotationCampaign) *entities.ConfidenceIndicatorSet {
	t.Helper()
	ctx := context.Background()
	repos := f.store.Repositories()

	sure, err := repos.Confidence.GetOrCreateIndicator(ctx, "sure", 1)
	require.NoError(t, err)
	unsure, err := repos.Confidence.GetOrCreateIndicator(ctx, "unsure", 0)
	require.NoError(t, err)

	set := &entities.ConfidenceIndicatorSet{
		Name: "confidence",
		Memberships: []entities.ConfidenceIndicatorSetIndicator{
			{ConfidenceIndicatorID: sure.ID, IsDefault: true},
			{ConfidenceIndicatorID: unsure.ID},
		},
	}
	require.NoError(t, repos.Confidence.CreateSet(ctx, set))
	for _, c := range campaigns {
		require.NoError(t, repos.Campaigns.SetConfidenceSet(ctx, c.ID, set.ID))
	}
	return set
}

func TestConfidenceSet_SharedSetIsForked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other, _ := f.addCampaign(t, "Campaign 2")
	shared := shareConfidenceSet(t, f, f.campaign, other)

	rows := []ImportRow{boxRow(time.Minute, 2*time.Minute, 100, 900), boxRow(3*time.Minute, 4*time.Minute, 100, 900)}
	rows[0].ConfidenceIndicator = &ConfidenceInput{Label: "maybe", Level: intPtr(2)}
	rows[1].ConfidenceIndicator = &ConfidenceInput{Label: "sure", Level: intPtr(1)}

	_, err := f.service.Import(ctx, ImportContext{PhaseID: f.phase.ID}, rows)
	require.NoError(t, err)

	campaign := f.reloadCampaign(t, f.campaign.ID)
	require.NotNil(t, campaign.ConfidenceIndicatorSetID)
	assert.NotEqual(t, shared.ID, *campaign.ConfidenceIndicatorSetID)

	fork, err := f.store.Repositories().Confidence.GetSet(ctx, *campaign.ConfidenceIndicatorSetID)
	require.NoError(t, err)
	require.Len(t, fork.Memberships, 3)

	seen := map[uint]bool{}
	defaults := 0
	for _, m := range fork.Memberships {
		assert.False(t, seen[m.ConfidenceIndicatorID], "indicator %d appears twice", m.ConfidenceIndicatorID)
		seen[m.ConfidenceIndicatorID] = true
		if m.IsDefault {
			defaults++
			assert.Equal(t, "sure", m.ConfidenceIndicator.Label)
		}
	}
	assert.Equal(t, 1, defaults)
	assert.Equal(t, 2, fork.MaxLevel())

	original, err := f.store.Repositories().Confidence.GetSet(ctx, shared.ID)
	require.NoError(t, err)
	assert.Len(t, original.Memberships, 2)
	assert.Equal(t, shared.ID, *f.reloadCampaign(t, other.ID).ConfidenceIndicatorSetID)
	assert.InDelta(t, 1, f.metricValue(t, "annotation_set_forks_total", "kind", "confidence"), 0)
}

func TestConfidenceSet_NewDefaultReplacesOld(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other, _ := f.addCampaign(t, "Campaign 2")
	shareConfidenceSet(t, f, f.campaign, other)

	campaign := f.reloadCampaign(t, f.campaign.ID)
	err := f.store.Transaction(ctx, func(repos *repository.Set) error {
		indicator, err := repos.Confidence.GetOrCreateIndicator(ctx, "certain", 3)
		if err != nil {
			return err
		}
		forked, err := f.service.sets.EnsureConfidenceIndicatorInCampaign(ctx, repos, campaign, indicator, true)
		assert.True(t, forked)
		return err
	})
	require.NoError(t, err)

	fork, err := f.store.Repositories().Confidence.GetSet(ctx, *campaign.ConfidenceIndicatorSetID)
	require.NoError(t, err)
	for _, m := range fork.Memberships {
		assert.Equal(t, m.ConfidenceIndicator.Label == "certain", m.IsDefault, m.ConfidenceIndicator.Label)
	}
}
