package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyrag/internal/domain"
)

func TestEnsureAndUpsertThenSearch(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	schema := domain.Schema{Collection: "class_notes", VectorSize: 2, Distance: domain.DistanceCosine}

	exists, err := s.CollectionExists(ctx, "class_notes")
	require.NoError(t, err)
	assert.False(t, exists)

	points := []domain.Point{
		{ID: 1, Vector: []float64{1, 0}, Payload: domain.Payload{Filename: "a.pdf", TextContent: "alpha"}},
		{ID: 2, Vector: []float64{0, 1}, Payload: domain.Payload{Filename: "b.pdf", TextContent: "beta"}},
	}
	for _, p := range points {
		require.NoError(t, s.EnsureAndUpsert(ctx, schema, p))
	}

	exists, err = s.CollectionExists(ctx, "class_notes")
	require.NoError(t, err)
	assert.True(t, exists)

	results, err := s.Search(ctx, "class_notes", []float64{1, 0.1}, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a.pdf", results[0].Payload.Filename)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestUpsertMissingCollection(t *testing.T) {
	s := NewStore()
	err := s.Upsert(context.Background(), "nope", domain.Point{ID: 1, Vector: []float64{1}})
	var gerr *domain.GatewayError
	assert.ErrorAs(t, err, &gerr)
}

func TestUpsertOverwritesByID(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	schema := domain.Schema{Collection: "c", VectorSize: 1, Distance: domain.DistanceCosine}
	require.NoError(t, s.EnsureAndUpsert(ctx, schema, domain.Point{ID: 7, Vector: []float64{1}, Payload: domain.Payload{TextContent: "old"}}))
	require.NoError(t, s.EnsureAndUpsert(ctx, schema, domain.Point{ID: 7, Vector: []float64{1}, Payload: domain.Payload{TextContent: "new"}}))

	results, err := s.Search(ctx, "c", []float64{1}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "new", results[0].Payload.TextContent)
}
