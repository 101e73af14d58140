package annotation

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/soundscape-lab/annotator/internal/conf"
	"github.com/soundscape-lab/annotator/internal/datastore"
	"github.com/soundscape-lab/annotator/internal/datastore/entities"
	"github.com/soundscape-lab/annotator/internal/observability/metrics"
)

// fixture is a seeded database: one dataset of two consecutive ten minute
// files at 20 kHz and one campaign with an annotation phase.
type fixture struct {
	store    *datastore.Store
	service  *Service
	registry *prometheus.Registry
	dataset  *entities.Dataset
	files    []entities.DatasetFile
	campaign *entities.AnnotationCampaign
	phase    *entities.AnnotationCampaignPhase
}

type fixtureOption func(*conf.AnnotationSettings)

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	ctx := context.Background()

	store := datastore.NewTestStore(t)
	repos := store.Repositories()

	dataset := &entities.Dataset{Name: "hydrophone-1", SampleRate: 20000}
	require.NoError(t, repos.Datasets.Create(ctx, dataset))

	files := make([]entities.DatasetFile, 0, 2)
	for i, name := range []string{"a.wav", "b.wav"} {
		f := entities.DatasetFile{
			DatasetID: dataset.ID,
			Filename:  name,
			Start:     fileStart.Add(time.Duration(i) * 10 * time.Minute),
			End:       fileStart.Add(time.Duration(i+1) * 10 * time.Minute),
		}
		require.NoError(t, repos.Datasets.AddFile(ctx, &f))
		files = append(files, f)
	}

	campaign := &entities.AnnotationCampaign{Name: "Campaign 1"}
	require.NoError(t, repos.Campaigns.Create(ctx, campaign))
	phase := &entities.AnnotationCampaignPhase{AnnotationCampaignID: campaign.ID, Phase: entities.PhaseAnnotation}
	require.NoError(t, repos.Campaigns.CreatePhase(ctx, phase))

	settings := conf.AnnotationSettings{MaxNameProbes: 100, MaxLineageDepth: 32, DatasetCacheTTL: time.Minute}
	for _, opt := range opts {
		opt(&settings)
	}

	registry := prometheus.NewRegistry()
	m, err := metrics.NewAnnotationMetrics(registry)
	require.NoError(t, err)

	return &fixture{
		store:    store,
		service:  NewService(store, settings, WithMetrics(m)),
		registry: registry,
		dataset:  dataset,
		files:    files,
		campaign: campaign,
		phase:    phase,
	}
}

// addCampaign creates another campaign with a phase.
func (f *fixture) addCampaign(t *testing.T, name string) (*entities.AnnotationCampaign, *entities.AnnotationCampaignPhase) {
	t.Helper()
	ctx := context.Background()
	repos := f.store.Repositories()

	campaign := &entities.AnnotationCampaign{Name: name}
	require.NoError(t, repos.Campaigns.Create(ctx, campaign))
	phase := &entities.AnnotationCampaignPhase{AnnotationCampaignID: campaign.ID, Phase: entities.PhaseAnnotation}
	require.NoError(t, repos.Campaigns.CreatePhase(ctx, phase))
	return campaign, phase
}

// shareLabelSet creates a label set holding labels and points every campaign
// at it.
func (f *fixture) shareLabelSet(t *testing.T, name string, labels []string, campaigns ...*entities.AnnotationCampaign) *entities.LabelSet {
	t.Helper()
	ctx := context.Background()
	repos := f.store.Repositories()

	set := &entities.LabelSet{Name: name}
	for _, l := range labels {
		label, err := repos.Labels.GetOrCreate(ctx, l)
		require.NoError(t, err)
		set.Labels = append(set.Labels, *label)
	}
	require.NoError(t, repos.LabelSets.Create(ctx, set))
	for _, c := range campaigns {
		require.NoError(t, repos.Campaigns.SetLabelSet(ctx, c.ID, set.ID))
	}
	return set
}

func (f *fixture) reloadCampaign(t *testing.T, id uint) *entities.AnnotationCampaign {
	t.Helper()
	c, err := f.store.Repositories().Campaigns.GetByID(context.Background(), id)
	require.NoError(t, err)
	return c
}

func (f *fixture) labelNames(t *testing.T, setID *uint) []string {
	t.Helper()
	require.NotNil(t, setID)
	set, err := f.store.Repositories().LabelSets.GetByID(context.Background(), *setID)
	require.NoError(t, err)
	names := make([]string, 0, len(set.Labels))
	for _, l := range set.Labels {
		names = append(names, l.Name)
	}
	return names
}

func (f *fixture) resultCount(t *testing.T) int64 {
	t.Helper()
	n, err := f.store.Repositories().Results.CountByPhase(context.Background(), f.phase.ID)
	require.NoError(t, err)
	return n
}

// metricValue returns the value of the counter series name with the given
// label pairs, or 0 when the series does not exist.
func (f *fixture) metricValue(t *testing.T, name string, labelPairs ...string) float64 {
	t.Helper()
	families, err := f.registry.Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	series:
		for _, m := range mf.GetMetric() {
			labels := make(map[string]string, len(m.GetLabel()))
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			for i := 0; i+1 < len(labelPairs); i += 2 {
				if labels[labelPairs[i]] != labelPairs[i+1] {
					continue series
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func intPtr(v int) *int    { return &v }
func uintPtr(v uint) *uint { return &v }
func boolPtr(v bool) *bool { return &v }
