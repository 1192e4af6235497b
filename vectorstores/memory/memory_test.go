package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/docchain/embeddings/hashing"
	"github.com/sevigo/docchain/schema"
	"github.com/sevigo/docchain/vectorstores"
	"github.com/sevigo/docchain/vectorstores/memory"
)

// axisEmbedder maps known words onto fixed axes so scores are predictable.
type axisEmbedder struct {
	err error
}

var axes = map[string][]float32{
	"cats":  {1, 0, 0},
	"dogs":  {0, 1, 0},
	"birds": {0, 0, 1},
	"pets":  {1, 1, 0},
}

func (e axisEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := e.EmbedQuery(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (e axisEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	if v, ok := axes[text]; ok {
		return v, nil
	}
	return []float32{0, 0, 0}, nil
}

func (e axisEmbedder) GetDimension(context.Context) (int, error) { return 3, nil }

func newStore(t *testing.T) *memory.Store {
	t.Helper()
	docs := []schema.Document{
		schema.NewDocument("cats", map[string]any{"kind": "mammal", "id": "c"}),
		schema.NewDocument("dogs", map[string]any{"kind": "mammal", "id": "d"}),
		schema.NewDocument("birds", map[string]any{"kind": "avian", "id": "b"}),
	}
	store, err := memory.FromDocuments(context.Background(), docs, axisEmbedder{})
	require.NoError(t, err)
	return store
}

func TestSimilaritySearchOrdering(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	results, err := store.SimilaritySearchWithScores(ctx, "cats", 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "cats", results[0].Document.PageContent)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)

	// dogs and birds both score 0 and keep insertion order.
	assert.Equal(t, "dogs", results[1].Document.PageContent)
	assert.Equal(t, "birds", results[2].Document.PageContent)

	docs, err := store.SimilaritySearch(ctx, "pets", 2)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "cats", docs[0].PageContent)
	assert.Equal(t, "dogs", docs[1].PageContent)
}

func TestSimilaritySearchOptions(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	t.Run("filter", func(t *testing.T) {
		docs, err := store.SimilaritySearch(ctx, "cats", 5, vectorstores.WithFilter("kind", "avian"))
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "birds", docs[0].PageContent)
	})

	t.Run("score threshold", func(t *testing.T) {
		docs, err := store.SimilaritySearch(ctx, "pets", 5, vectorstores.WithScoreThreshold(0.5))
		require.NoError(t, err)
		assert.Len(t, docs, 2)
	})

	t.Run("unknown namespace", func(t *testing.T) {
		_, err := store.SimilaritySearch(ctx, "cats", 1, vectorstores.WithNameSpace("missing"))
		assert.ErrorIs(t, err, vectorstores.ErrCollectionNotFound)
	})

	t.Run("empty query", func(t *testing.T) {
		docs, err := store.SimilaritySearch(ctx, "  ", 1)
		require.NoError(t, err)
		assert.Empty(t, docs)
	})

	t.Run("non positive k", func(t *testing.T) {
		_, err := store.SimilaritySearch(ctx, "cats", 0)
		assert.ErrorIs(t, err, vectorstores.ErrInvalidNumDocuments)
	})
}

func TestAddDocuments(t *testing.T) {
	ctx := context.Background()

	t.Run("missing embedder", func(t *testing.T) {
		store := memory.New(nil)
		_, err := store.AddDocuments(ctx, []schema.Document{schema.NewDocument("cats", nil)})
		assert.ErrorIs(t, err, vectorstores.ErrMissingEmbedder)
	})

	t.Run("per call embedder", func(t *testing.T) {
		store := memory.New(nil)
		ids, err := store.AddDocuments(ctx, []schema.Document{schema.NewDocument("cats", nil)},
			vectorstores.WithEmbedder(axisEmbedder{}))
		require.NoError(t, err)
		require.Len(t, ids, 1)
		assert.NotEmpty(t, ids[0])
		assert.Equal(t, 1, store.Len())
	})

	t.Run("embedder error", func(t *testing.T) {
		boom := errors.New("boom")
		store := memory.New(axisEmbedder{err: boom})
		_, err := store.AddDocuments(ctx, []schema.Document{schema.NewDocument("cats", nil)})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 0, store.Len())
	})

	t.Run("stored metadata is a copy", func(t *testing.T) {
		meta := map[string]any{"kind": "mammal"}
		store := memory.New(axisEmbedder{})
		_, err := store.AddDocuments(ctx, []schema.Document{schema.NewDocument("cats", meta)})
		require.NoError(t, err)
		meta["kind"] = "changed"

		docs, err := store.SimilaritySearch(ctx, "cats", 1)
		require.NoError(t, err)
		assert.Equal(t, "mammal", docs[0].Metadata["kind"])
	})
}

func TestAddDocuments_ReplacesByID(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	ids, err := store.AddDocuments(ctx, []schema.Document{
		schema.NewDocument("dogs", map[string]any{"kind": "canine", "id": "c"}),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, ids)
	assert.Equal(t, 3, store.Len())

	scored, err := store.SimilaritySearchWithScores(ctx, "dogs", 3)
	require.NoError(t, err)
	require.Len(t, scored, 3)
	assert.Equal(t, "canine", scored[0].Document.Metadata["kind"], "replacement keeps the first insertion slot")
	assert.Equal(t, "mammal", scored[1].Document.Metadata["kind"])

	docs, err := store.SimilaritySearch(ctx, "cats", 3)
	require.NoError(t, err)
	for _, doc := range docs {
		assert.NotEqual(t, "cats", doc.PageContent)
	}
}

func TestSimilaritySearch_EmptyDefaultCollection(t *testing.T) {
	store := memory.New(axisEmbedder{})
	ctx := context.Background()

	docs, err := store.SimilaritySearch(ctx, "cats", 2)
	require.NoError(t, err)
	assert.Empty(t, docs)

	retriever := vectorstores.ToRetriever(store, 2)
	docs, err = retriever.GetRelevantDocuments(ctx, "cats")
	require.NoError(t, err)
	assert.Empty(t, docs)

	_, err = store.SimilaritySearch(ctx, "cats", 2, vectorstores.WithNameSpace("other"))
	assert.ErrorIs(t, err, vectorstores.ErrCollectionNotFound)
}

func TestCollections(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	_, err := store.AddDocuments(ctx, []schema.Document{schema.NewDocument("dogs", nil)}, vectorstores.WithNameSpace("extra"))
	require.NoError(t, err)

	names, err := store.ListCollections(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"default", "extra"}, names)

	require.NoError(t, store.DeleteCollection(ctx, "extra"))
	assert.ErrorIs(t, store.DeleteCollection(ctx, "extra"), vectorstores.ErrCollectionNotFound)

	assert.Equal(t, 2, store.Delete(ctx, "c", "d"))
	assert.Equal(t, 1, store.Len())
}

func TestRetrieverWithHashingEmbedder(t *testing.T) {
	ctx := context.Background()
	embedder, err := hashing.New(hashing.DefaultDimension)
	require.NoError(t, err)

	store, err := memory.FromDocuments(ctx, []schema.Document{
		schema.NewDocument("Go has goroutines and channels for concurrency.", nil),
		schema.NewDocument("Bread needs flour, water and yeast.", nil),
	}, embedder)
	require.NoError(t, err)

	retriever := vectorstores.ToRetriever(store, 1)
	docs, err := retriever.GetRelevantDocuments(ctx, "goroutines and channels")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Contains(t, docs[0].PageContent, "goroutines")
}
