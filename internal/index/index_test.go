package index

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scafell/recollect/internal/store"
)

func testIndex(t *testing.T) (*SQLite, *store.DB) {
	t.Helper()
	db, err := store.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSQLite(db, nil), db
}

// seedCorpus stores documents first, then builds a TF-IDF embedder over them
// and backfills vectors, mirroring the fallback startup path.
func seedCorpus(t *testing.T, idx *SQLite, db *store.DB, docs map[string]string) {
	t.Helper()
	ctx := context.Background()

	for id, content := range docs {
		require.NoError(t, db.SaveDocument(id, content))
	}

	emb, err := NewTFIDFEmbedder(db, 512)
	require.NoError(t, err)
	idx.SetEmbedder(emb)

	n, err := idx.EmbedMissing(ctx)
	require.NoError(t, err)
	require.Equal(t, len(docs), n)
}

func TestSearchRanksByRelevance(t *testing.T) {
	idx, db := testIndex(t)
	seedCorpus(t, idx, db, map[string]string{
		"ep-coffee": "had coffee with Sam at the harbor cafe",
		"ep-bike":   "fixed the brakes on the blue bicycle",
		"ep-run":    "went for a long run along the river",
	})

	results, err := idx.Search(context.Background(), "coffee with Sam", 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "ep-coffee", results[0].ID)
	assert.Equal(t, 0, results[0].Rank)

	for i, r := range results {
		assert.Equal(t, i, r.Rank)
	}
}

func TestSearchHonorsLimit(t *testing.T) {
	idx, db := testIndex(t)
	seedCorpus(t, idx, db, map[string]string{
		"a": "walking the dog in the park",
		"b": "walking to work past the park",
		"c": "the dog chased a ball in the park",
	})

	results, err := idx.Search(context.Background(), "dog park walking", 2)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(results), 2)
}

func TestSearchEmptyCorpus(t *testing.T) {
	idx, db := testIndex(t)

	emb, err := NewTFIDFEmbedder(db, 512)
	require.NoError(t, err)
	idx.SetEmbedder(emb)

	results, err := idx.Search(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchWithoutEmbedderFails(t *testing.T) {
	idx, _ := testIndex(t)
	_, err := idx.Search(context.Background(), "anything", 5)
	assert.Error(t, err)
}

func TestStoreWithoutEmbedderKeepsDocument(t *testing.T) {
	idx, db := testIndex(t)

	require.NoError(t, idx.Store(context.Background(), "ep-1", "some content"))

	d, err := db.GetDocument("ep-1")
	require.NoError(t, err)
	require.NotNil(t, d)

	v, err := db.GetVector("ep-1")
	require.NoError(t, err)
	assert.Nil(t, v, "no embedder means no vector yet")
}

func TestEmbedMissingSkipsCurrentModel(t *testing.T) {
	idx, db := testIndex(t)
	seedCorpus(t, idx, db, map[string]string{
		"a": "first document about sailing",
		"b": "second document about cooking",
	})

	n, err := idx.EmbedMissing(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n, "already embedded with the active model")
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float64{1, 0}, []float64{2, 0}), 0.001)
	assert.InDelta(t, 0.0, CosineSimilarity([]float64{1, 0}, []float64{0, 1}), 0.001)
	assert.Equal(t, 0.0, CosineSimilarity([]float64{1, 2}, []float64{1}), "mismatched lengths")
	assert.Equal(t, 0.0, CosineSimilarity(nil, nil))
}

func TestTFIDFEmbedNormalized(t *testing.T) {
	_, db := testIndex(t)
	require.NoError(t, db.SaveDocument("a", "coffee harbor cafe morning"))
	require.NoError(t, db.SaveDocument("b", "bicycle brakes repair morning"))

	emb, err := NewTFIDFEmbedder(db, 512)
	require.NoError(t, err)

	vec, err := emb.Embed(context.Background(), "coffee at the harbor")
	require.NoError(t, err)

	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	assert.InDelta(t, 1.0, sum, 0.001, "embedding is L2-normalized")
}

func TestTokenizeDropsPunctuationAndShortTokens(t *testing.T) {
	tokens := tokenize("I had Coffee, with Sam!")
	assert.Equal(t, []string{"had", "coffee", "with", "sam"}, tokens)
}
