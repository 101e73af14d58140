package annotation

import (
	"context"

	"github.com/soundscape-lab/annotator/internal/datastore/entities"
	"github.com/soundscape-lab/annotator/internal/datastore/repository"
	"github.com/soundscape-lab/annotator/internal/logger"
)

// DefaultMaxLineageDepth bounds how deep an updated_to chain is rendered.
const DefaultMaxLineageDepth = 32

// Lineage links results to the results they supersede. History is append
// only: a predecessor is never changed when a successor points at it.
type Lineage struct {
	maxDepth int
	log      logger.Logger
}

// NewLineage creates a Lineage. A non-positive maxDepth uses
// DefaultMaxLineageDepth.
func NewLineage(maxDepth int, log logger.Logger) *Lineage {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxLineageDepth
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Lineage{maxDepth: maxDepth, log: log}
}

// Link records that result supersedes the result with predecessorID. A nil
// predecessorID leaves result unchanged. Direct self-reference is rejected;
// longer cycles are not detected.
func (l *Lineage) Link(ctx context.Context, repos *repository.Set, result *entities.AnnotationResult, predecessorID *uint) error {
	if predecessorID == nil {
		return nil
	}
	if *predecessorID == result.ID {
		return validationError("is_update_of", "result %d cannot be an update of itself", result.ID)
	}

	predecessor, err := repos.Results.GetByID(ctx, *predecessorID)
	if err != nil {
		if isRepositoryNotFound(err) {
			return notFoundError("predecessor result", *predecessorID)
		}
		return dbError("load predecessor", err)
	}

	result.IsUpdateOfID = &predecessor.ID
	if err := repos.Results.Update(ctx, result); err != nil {
		return dbError("link result", err)
	}

	l.log.Debug("result linked to predecessor",
		logger.Uint("result_id", result.ID),
		logger.Uint("is_update_of", predecessor.ID))
	return nil
}

// Chain renders result with its successors, recursively, down to the
// configured depth.
func (l *Lineage) Chain(ctx context.Context, repos *repository.Set, result *entities.AnnotationResult) (ResultView, error) {
	return l.chain(ctx, repos, result, 0)
}

func (l *Lineage) chain(ctx context.Context, repos *repository.Set, result *entities.AnnotationResult, depth int) (ResultView, error) {
	view := NewResultView(result)
	if depth >= l.maxDepth {
		l.log.Warn("updated_to chain truncated",
			logger.Uint("result_id", result.ID),
			logger.Int("max_depth", l.maxDepth))
		return view, nil
	}

	successors, err := repos.Results.ListUpdatedTo(ctx, result.ID)
	if err != nil {
		return ResultView{}, dbError("list successors", err)
	}
	for _, s := range successors {
		full, err := repos.Results.GetByID(ctx, s.ID)
		if err != nil {
			return ResultView{}, dbError("load successor", err)
		}
		child, err := l.chain(ctx, repos, full, depth+1)
		if err != nil {
			return ResultView{}, err
		}
		view.UpdatedTo = append(view.UpdatedTo, child)
	}
	return view, nil
}
