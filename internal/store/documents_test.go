package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentUpsert(t *testing.T) {
	db := testDB(t)

	require.NoError(t, db.SaveDocument("doc-1", "original"))
	require.NoError(t, db.SaveDocument("doc-1", "revised"))

	d, err := db.GetDocument("doc-1")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, "revised", d.Content)

	docs, err := db.AllDocuments()
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestGetDocumentMissing(t *testing.T) {
	db := testDB(t)

	d, err := db.GetDocument("nope")
	require.NoError(t, err)
	assert.Nil(t, d)
}

func TestVectorRoundTrip(t *testing.T) {
	db := testDB(t)

	require.NoError(t, db.SaveDocument("doc-1", "content"))

	vec := []float64{0.5, -1.25, 3.0}
	require.NoError(t, db.SaveVector("doc-1", vec, "nomic-embed-text"))

	v, err := db.GetVector("doc-1")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, vec, v.Embedding)
	assert.Equal(t, "nomic-embed-text", v.Model)
	assert.Equal(t, 3, v.Dimensions)
}

func TestVectorUpsertReplacesModel(t *testing.T) {
	db := testDB(t)

	require.NoError(t, db.SaveDocument("doc-1", "content"))
	require.NoError(t, db.SaveVector("doc-1", []float64{1, 2}, "old-model"))
	require.NoError(t, db.SaveVector("doc-1", []float64{3, 4, 5}, "new-model"))

	v, err := db.GetVector("doc-1")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, "new-model", v.Model)
	assert.Equal(t, []float64{3, 4, 5}, v.Embedding)

	all, err := db.AllVectors()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestDeleteVector(t *testing.T) {
	db := testDB(t)

	require.NoError(t, db.SaveDocument("doc-1", "content"))
	require.NoError(t, db.SaveVector("doc-1", []float64{1}, "m"))
	require.NoError(t, db.DeleteVector("doc-1"))

	v, err := db.GetVector("doc-1")
	require.NoError(t, err)
	assert.Nil(t, v)
}
