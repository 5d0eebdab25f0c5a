package store

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// Document is a unit of searchable content in the semantic index, keyed by
// the originating episodic memory's identifier.
type Document struct {
	ID        string
	Content   string
	CreatedAt int64
}

// VectorRecord holds the embedding for a document.
type VectorRecord struct {
	DocID      string
	Embedding  []float64
	Model      string
	Dimensions int
	CreatedAt  int64
}

// encodeEmbedding converts a []float64 to a binary BLOB (8 bytes per float64).
func encodeEmbedding(vec []float64) []byte {
	buf := make([]byte, len(vec)*8)
	for i, v := range vec {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

// decodeEmbedding converts a binary BLOB back to []float64.
func decodeEmbedding(buf []byte) []float64 {
	n := len(buf) / 8
	vec := make([]float64, n)
	for i := 0; i < n; i++ {
		vec[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:]))
	}
	return vec
}

// SaveDocument stores or replaces a document's content.
func (db *DB) SaveDocument(id, content string) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO documents (id, content, created_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET content = ?
	`, id, content, now, content)
	if err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}

// GetDocument returns a document by id, or nil if not found.
func (db *DB) GetDocument(id string) (*Document, error) {
	var d Document
	err := db.QueryRow(`
		SELECT id, content, created_at FROM documents WHERE id = ?
	`, id).Scan(&d.ID, &d.Content, &d.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return &d, nil
}

// AllDocuments returns every indexed document.
func (db *DB) AllDocuments() ([]Document, error) {
	rows, err := db.Query("SELECT id, content, created_at FROM documents")
	if err != nil {
		return nil, fmt.Errorf("all documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.Content, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// SaveVector stores or replaces the embedding for a document.
func (db *DB) SaveVector(docID string, embedding []float64, model string) error {
	now := time.Now().UnixMilli()
	blob := encodeEmbedding(embedding)

	_, err := db.Exec(`
		INSERT INTO doc_vectors (doc_id, embedding, model, dimensions, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(doc_id) DO UPDATE SET embedding = ?, model = ?, dimensions = ?, created_at = ?
	`, docID, blob, model, len(embedding), now,
		blob, model, len(embedding), now)
	if err != nil {
		return fmt.Errorf("save vector: %w", err)
	}
	return nil
}

// GetVector returns the embedding for a document, or nil if not found.
func (db *DB) GetVector(docID string) (*VectorRecord, error) {
	var v VectorRecord
	var blob []byte

	err := db.QueryRow(`
		SELECT doc_id, embedding, model, dimensions, created_at
		FROM doc_vectors WHERE doc_id = ?
	`, docID).Scan(&v.DocID, &blob, &v.Model, &v.Dimensions, &v.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get vector: %w", err)
	}
	v.Embedding = decodeEmbedding(blob)
	return &v, nil
}

// AllVectors returns all stored vector records.
func (db *DB) AllVectors() ([]VectorRecord, error) {
	rows, err := db.Query(`
		SELECT doc_id, embedding, model, dimensions, created_at
		FROM doc_vectors
	`)
	if err != nil {
		return nil, fmt.Errorf("all vectors: %w", err)
	}
	defer rows.Close()

	var records []VectorRecord
	for rows.Next() {
		var v VectorRecord
		var blob []byte
		if err := rows.Scan(&v.DocID, &blob, &v.Model, &v.Dimensions, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan vector: %w", err)
		}
		v.Embedding = decodeEmbedding(blob)
		records = append(records, v)
	}
	return records, rows.Err()
}

// DeleteVector removes the embedding for a document.
func (db *DB) DeleteVector(docID string) error {
	_, err := db.Exec("DELETE FROM doc_vectors WHERE doc_id = ?", docID)
	if err != nil {
		return fmt.Errorf("delete vector: %w", err)
	}
	return nil
}
