// Package index provides the semantic-search collaborator: an opaque ranked
// retrieval oracle over stored episodic content. The engine layers its own
// decay-aware re-ranking on top of the ranks returned here.
package index

import (
	"context"
	"fmt"
	"sort"

	"github.com/scafell/recollect/internal/store"
)

// Result is one ranked search hit. Rank is 0-indexed, best first.
type Result struct {
	ID      string
	Content string
	Rank    int
}

// Index is the semantic search / document store contract.
type Index interface {
	Store(ctx context.Context, id, content string) error
	Search(ctx context.Context, query string, limit int) ([]Result, error)
}

// SQLite is an Index backed by the sqlite document/vector tables and an
// Embedder, ranking by cosine similarity.
type SQLite struct {
	db       *store.DB
	embedder Embedder
}

// NewSQLite builds the default index over the given database and embedder.
func NewSQLite(db *store.DB, embedder Embedder) *SQLite {
	return &SQLite{db: db, embedder: embedder}
}

// SetEmbedder swaps the embedding provider.
func (s *SQLite) SetEmbedder(embedder Embedder) {
	s.embedder = embedder
}

// Store persists the content and its embedding.
func (s *SQLite) Store(ctx context.Context, id, content string) error {
	if err := s.db.SaveDocument(id, content); err != nil {
		return fmt.Errorf("store document: %w", err)
	}
	if s.embedder == nil {
		return nil
	}
	vec, err := s.embedder.Embed(ctx, content)
	if err != nil {
		return fmt.Errorf("embed document %s: %w", id, err)
	}
	if err := s.db.SaveVector(id, vec, s.embedder.Model()); err != nil {
		return fmt.Errorf("store vector %s: %w", id, err)
	}
	return nil
}

// Search embeds the query, scores every stored vector by cosine similarity,
// and returns the top hits in rank order.
func (s *SQLite) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if s.embedder == nil {
		return nil, fmt.Errorf("no embedder configured")
	}
	if limit <= 0 {
		limit = 10
	}

	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	vectors, err := s.db.AllVectors()
	if err != nil {
		return nil, fmt.Errorf("load vectors: %w", err)
	}
	if len(vectors) == 0 {
		return nil, nil
	}

	docs, err := s.db.AllDocuments()
	if err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}
	content := make(map[string]string, len(docs))
	for _, d := range docs {
		content[d.ID] = d.Content
	}

	type scored struct {
		id  string
		sim float64
	}
	var hits []scored
	for _, v := range vectors {
		if _, ok := content[v.DocID]; !ok {
			continue
		}
		sim := CosineSimilarity(queryVec, v.Embedding)
		if sim > 0 {
			hits = append(hits, scored{v.DocID, sim})
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		return hits[i].sim > hits[j].sim
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}

	results := make([]Result, len(hits))
	for i, h := range hits {
		results[i] = Result{ID: h.id, Content: content[h.id], Rank: i}
	}
	return results, nil
}

// EmbedMissing embeds documents lacking a vector or embedded with a different
// model. Returns the number embedded.
func (s *SQLite) EmbedMissing(ctx context.Context) (int, error) {
	if s.embedder == nil {
		return 0, nil
	}

	docs, err := s.db.AllDocuments()
	if err != nil {
		return 0, fmt.Errorf("list documents: %w", err)
	}

	embedded := 0
	for _, d := range docs {
		existing, err := s.db.GetVector(d.ID)
		if err != nil {
			continue
		}
		if existing != nil && existing.Model == s.embedder.Model() {
			continue
		}
		vec, err := s.embedder.Embed(ctx, d.Content)
		if err != nil {
			continue
		}
		if err := s.db.SaveVector(d.ID, vec, s.embedder.Model()); err != nil {
			continue
		}
		embedded++
	}
	return embedded, nil
}
