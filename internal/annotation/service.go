// Package annotation reconciles imported and manually entered annotation
// results with the campaign vocabulary, normalizes their bounds against the
// dataset files, deduplicates them and keeps their update lineage.
//
// Every operation runs in one database transaction: a failure after partial
// work rolls back everything the operation wrote.
package annotation

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/soundscape-lab/annotator/internal/conf"
	"github.com/soundscape-lab/annotator/internal/datastore"
	"github.com/soundscape-lab/annotator/internal/datastore/entities"
	"github.com/soundscape-lab/annotator/internal/datastore/repository"
	"github.com/soundscape-lab/annotator/internal/errors"
	"github.com/soundscape-lab/annotator/internal/logger"
	"github.com/soundscape-lab/annotator/internal/observability/metrics"
)

// defaultDatasetCacheTTL applies when the settings leave the TTL unset.
const defaultDatasetCacheTTL = 5 * time.Minute

// Service exposes bulk import, single result upsert and reads.
type Service struct {
	store    *datastore.Store
	log      logger.Logger
	metrics  *metrics.AnnotationMetrics
	datasets *cache.Cache

	sets       *SetResolver
	reconciler *Reconciler
	builder    *Builder
	lineage    *Lineage
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger, normally one scoped to the "annotation" module.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithMetrics enables Prometheus metrics.
func WithMetrics(m *metrics.AnnotationMetrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// NewService creates a Service on store.
func NewService(store *datastore.Store, settings conf.AnnotationSettings, opts ...Option) *Service {
	s := &Service{
		store: store,
		log:   logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}

	ttl := settings.DatasetCacheTTL
	if ttl <= 0 {
		ttl = defaultDatasetCacheTTL
	}
	s.datasets = cache.New(ttl, 2*ttl)

	s.sets = NewSetResolver(settings.MaxNameProbes, s.log.Module("sets"), s.metrics)
	s.reconciler = NewReconciler(s.sets, s.log.Module("reconcile"))
	s.builder = NewBuilder(s.log.Module("builder"))
	s.lineage = NewLineage(settings.MaxLineageDepth, s.log.Module("lineage"))
	return s
}

// Get returns a result with its recursive updated_to chain.
func (s *Service) Get(ctx context.Context, id uint) (ResultView, error) {
	start := time.Now()
	var view ResultView
	err := s.store.Transaction(ctx, func(repos *repository.Set) error {
		result, err := repos.Results.GetByID(ctx, id)
		if err != nil {
			if isRepositoryNotFound(err) {
				return notFoundError("result", id)
			}
			return dbError("load result", err)
		}
		view, err = s.lineage.Chain(ctx, repos, result)
		return err
	})
	s.observe(metrics.OpGet, start, err)
	return view, err
}

// loadPhase returns the phase with its campaign loaded.
func (s *Service) loadPhase(ctx context.Context, repos *repository.Set, phaseID uint) (*entities.AnnotationCampaignPhase, error) {
	phase, err := repos.Campaigns.GetPhase(ctx, phaseID)
	if err != nil {
		if isRepositoryNotFound(err) {
			return nil, notFoundError("annotation campaign phase", phaseID)
		}
		return nil, dbError("load phase", err)
	}
	if phase.AnnotationCampaign == nil {
		return nil, notFoundError("campaign of phase", phaseID)
	}
	return phase, nil
}

// datasetByName resolves a dataset through the in-process cache. Datasets are
// managed outside this service and change rarely. Misses are not cached.
func (s *Service) datasetByName(ctx context.Context, repos *repository.Set, name string) (*entities.Dataset, error) {
	if cached, ok := s.datasets.Get(name); ok {
		ds := cached.(entities.Dataset)
		return &ds, nil
	}
	ds, err := repos.Datasets.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	s.datasets.SetDefault(name, *ds)
	return ds, nil
}

// observe records duration and, for failures, the error category.
func (s *Service) observe(op string, start time.Time, err error) {
	s.metrics.RecordDuration(op, time.Since(start).Seconds())
	if err != nil {
		category := errors.CategoryOf(err)
		s.metrics.RecordError(op, string(category))
		if category != errors.CategoryValidation && category != errors.CategoryNotFound {
			s.log.Error("operation failed", logger.String("operation", op), logger.Error(err))
		}
	}
}
