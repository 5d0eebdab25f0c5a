package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/scafell/recollect/internal/memory"
)

// Snapshot persistence: each memory collection is serialized record-by-record
// as opaque JSON blobs and replaced wholesale on save. A corrupt row loads as
// nothing rather than failing startup, so a bad snapshot never prevents the
// engine from starting with fresh state.

// SaveEpisodes replaces the stored episodic collection.
func (db *DB) SaveEpisodes(episodes []*memory.Episodic) error {
	return db.saveCollection("episodes", len(episodes), func(i int) (string, any) {
		return episodes[i].ID, episodes[i]
	})
}

// LoadEpisodes returns the stored episodic collection, empty if none.
func (db *DB) LoadEpisodes() ([]*memory.Episodic, error) {
	rows, err := db.Query("SELECT data FROM episodes ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("load episodes: %w", err)
	}
	defer rows.Close()

	var out []*memory.Episodic
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan episode: %w", err)
		}
		var e memory.Episodic
		if err := json.Unmarshal(data, &e); err != nil {
			continue // corrupt row, skip
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

// SaveFacts replaces the stored fact collection.
func (db *DB) SaveFacts(facts []*memory.Fact) error {
	return db.saveCollection("facts", len(facts), func(i int) (string, any) {
		return facts[i].ID, facts[i]
	})
}

// LoadFacts returns the stored fact collection, empty if none.
func (db *DB) LoadFacts() ([]*memory.Fact, error) {
	rows, err := db.Query("SELECT data FROM facts ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("load facts: %w", err)
	}
	defer rows.Close()

	var out []*memory.Fact
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan fact: %w", err)
		}
		var f memory.Fact
		if err := json.Unmarshal(data, &f); err != nil {
			continue
		}
		out = append(out, &f)
	}
	return out, rows.Err()
}

// SaveProcedures replaces the stored procedure collection.
func (db *DB) SaveProcedures(procedures []*memory.Procedure) error {
	return db.saveCollection("procedures", len(procedures), func(i int) (string, any) {
		return procedures[i].ID, procedures[i]
	})
}

// LoadProcedures returns the stored procedure collection, empty if none.
func (db *DB) LoadProcedures() ([]*memory.Procedure, error) {
	rows, err := db.Query("SELECT data FROM procedures ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("load procedures: %w", err)
	}
	defer rows.Close()

	var out []*memory.Procedure
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan procedure: %w", err)
		}
		var p memory.Procedure
		if err := json.Unmarshal(data, &p); err != nil {
			continue
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

// Clear erases every persisted collection, the index documents included.
func (db *DB) Clear() error {
	for _, table := range []string{"doc_vectors", "documents", "episodes", "facts", "procedures"} {
		if _, err := db.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

// saveCollection replaces every row of a snapshot table inside one
// transaction.
func (db *DB) saveCollection(table string, n int, record func(i int) (string, any)) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin save %s: %w", table, err)
	}

	if _, err := tx.Exec("DELETE FROM " + table); err != nil {
		tx.Rollback()
		return fmt.Errorf("truncate %s: %w", table, err)
	}

	now := time.Now().UnixMilli()
	for i := 0; i < n; i++ {
		id, rec := record(i)
		data, err := json.Marshal(rec)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("marshal %s record: %w", table, err)
		}
		if _, err := tx.Exec(
			fmt.Sprintf("INSERT INTO %s (id, data, updated_at) VALUES (?, ?, ?)", table),
			id, data, now,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert %s record: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save %s: %w", table, err)
	}
	return nil
}
