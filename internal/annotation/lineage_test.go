package annotation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundscape-lab/annotator/internal/conf"
	"github.com/soundscape-lab/annotator/internal/datastore/entities"
	"github.com/soundscape-lab/annotator/internal/errors"
)

func TestLineage_PredecessorIsNeverMutated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	original, err := f.service.Upsert(ctx, manualBox(f))
	require.NoError(t, err)

	revision := manualBox(f)
	revision.Label = "Downcall"
	revision.IsUpdateOf = &original.ID
	second, err := f.service.Upsert(ctx, revision)
	require.NoError(t, err)
	require.NotNil(t, second.IsUpdateOf)
	assert.Equal(t, original.ID, *second.IsUpdateOf)

	third := manualBox(f)
	third.Label = "Moan"
	third.IsUpdateOf = &second.ID
	_, err = f.service.Upsert(ctx, third)
	require.NoError(t, err)

	view, err := f.service.Get(ctx, original.ID)
	require.NoError(t, err)
	assert.Equal(t, "Upcall", view.Label)
	assert.Nil(t, view.IsUpdateOf)
	assert.True(t, original.CreatedAt.Equal(view.CreatedAt))
	require.Len(t, view.UpdatedTo, 1)
	assert.Equal(t, second.ID, view.UpdatedTo[0].ID)
	require.Len(t, view.UpdatedTo[0].UpdatedTo, 1)
	assert.Equal(t, "Moan", view.UpdatedTo[0].UpdatedTo[0].Label)
}

func TestLineage_UpdatedToListsAllSuccessors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	original, err := f.service.Upsert(ctx, manualBox(f))
	require.NoError(t, err)

	for _, label := range []string{"A", "B"} {
		in := manualBox(f)
		in.Label = label
		in.IsUpdateOf = &original.ID
		_, err := f.service.Upsert(ctx, in)
		require.NoError(t, err)
	}

	view, err := f.service.Get(ctx, original.ID)
	require.NoError(t, err)
	require.Len(t, view.UpdatedTo, 2)
	assert.Equal(t, "A", view.UpdatedTo[0].Label)
	assert.Equal(t, "B", view.UpdatedTo[1].Label)
}

func TestLineage_SelfReferenceRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.service.Upsert(ctx, manualBox(f))
	require.NoError(t, err)

	in := manualBox(f)
	in.ID = &created.ID
	in.IsUpdateOf = &created.ID
	_, err = f.service.Upsert(ctx, in)
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
	assert.Equal(t, "is_update_of", fieldOf(t, err))
}

func TestLineage_MissingPredecessorRollsBack(t *testing.T) {
	f := newFixture(t)

	in := manualBox(f)
	in.IsUpdateOf = uintPtr(4242)
	_, err := f.service.Upsert(context.Background(), in)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	assert.Zero(t, f.resultCount(t))
}

func TestLineage_ChainDepthIsBounded(t *testing.T) {
	f := newFixture(t, func(s *conf.AnnotationSettings) { s.MaxLineageDepth = 1 })
	ctx := context.Background()

	prev, err := f.service.Upsert(ctx, manualBox(f))
	require.NoError(t, err)
	root := prev.ID
	for range 3 {
		in := manualBox(f)
		in.IsUpdateOf = &prev.ID
		prev, err = f.service.Upsert(ctx, in)
		require.NoError(t, err)
	}

	view, err := f.service.Get(ctx, root)
	require.NoError(t, err)
	require.Len(t, view.UpdatedTo, 1)
	assert.Empty(t, view.UpdatedTo[0].UpdatedTo)
}

func TestGet_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.Get(context.Background(), 12345)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestNewResultView_EmptyCollections(t *testing.T) {
	t.Parallel()

	v := NewResultView(&entities.AnnotationResult{ID: 3, Type: entities.ResultWeak})
	assert.NotNil(t, v.Comments)
	assert.NotNil(t, v.Validations)
	assert.NotNil(t, v.UpdatedTo)
	assert.Empty(t, v.Label)
}
