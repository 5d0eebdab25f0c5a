package memory

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"
)

// Fact is a subject-predicate-object triple about the user, with provenance
// and reinforcement history. Contradicted facts are retained for audit but
// excluded from active queries.
type Fact struct {
	ID               string    `json:"id"`
	Subject          string    `json:"subject"`
	Predicate        string    `json:"predicate"`
	Object           string    `json:"object"`
	ExtractedAt      time.Time `json:"extracted_at"`
	SourceMemoryIDs  []string  `json:"source_memory_ids,omitempty"`
	ReinforceCount   int       `json:"reinforce_count"`
	LastReinforcedAt time.Time `json:"last_reinforced_at"`
	Contradicted     bool      `json:"contradicted"`
	ContradictedBy   string    `json:"contradicted_by,omitempty"`
}

// NewFact creates a fact with a single reinforcement, timestamped now.
func NewFact(subject, predicate, object, sourceMemoryID string) *Fact {
	now := time.Now()
	f := &Fact{
		ID:               NewID(),
		Subject:          subject,
		Predicate:        predicate,
		Object:           object,
		ExtractedAt:      now,
		ReinforceCount:   1,
		LastReinforcedAt: now,
	}
	if sourceMemoryID != "" {
		f.SourceMemoryIDs = []string{sourceMemoryID}
	}
	return f
}

// Confidence combines reinforcement count with recency of reinforcement.
// Contradicted facts are pinned to a fixed low confidence.
func (f *Fact) Confidence(now time.Time) float64 {
	if f.Contradicted {
		return 0.1
	}
	base := math.Min(1.0, 0.5+(math.Log(float64(f.ReinforceCount)+1)/math.Ln10)*0.25)
	days := now.Sub(f.LastReinforcedAt).Hours() / 24.0
	if days < 0 {
		days = 0
	}
	recency := 1.0 / (1.0 + days*0.01)
	return base * recency
}

// Category buckets derived from the predicate vocabulary.
const (
	CategoryIdentity      = "identity"
	CategoryWork          = "work"
	CategoryRelationships = "relationships"
	CategoryPreferences   = "preferences"
	CategoryEvents        = "events"
	CategoryLocation      = "location"
	CategoryHealth        = "health"
	CategoryHobbies       = "hobbies"
	CategoryOther         = "other"
)

var predicateCategories = map[string]string{
	"name_is":     CategoryIdentity,
	"age_is":      CategoryIdentity,
	"birthday_is": CategoryIdentity,
	"works_at":    CategoryWork,
	"job_is":      CategoryWork,
	"married_to":  CategoryRelationships,
	"partner_is":  CategoryRelationships,
	"has_child":   CategoryRelationships,
	"has_pet":     CategoryRelationships,
	"likes":       CategoryPreferences,
	"dislikes":    CategoryPreferences,
	"favorite_is": CategoryPreferences,
	"attended":    CategoryEvents,
	"planning":    CategoryEvents,
	"lives_in":    CategoryLocation,
	"from":        CategoryLocation,
	"feels":       CategoryHealth,
	"allergic_to": CategoryHealth,
	"hobby_is":    CategoryHobbies,
	"plays":       CategoryHobbies,
}

// Category maps the fact's predicate to its display category.
func (f *Fact) Category() string {
	if cat, ok := predicateCategories[f.Predicate]; ok {
		return cat
	}
	return CategoryOther
}

// Sentence renders the fact as a short natural-language statement.
func (f *Fact) Sentence() string {
	pred := strings.ReplaceAll(f.Predicate, "_", " ")
	return fmt.Sprintf("%s %s %s", f.Subject, pred, f.Object)
}

// FactStore owns the semantic fact collection. All mutation goes through
// Reconcile; readers get snapshot copies.
type FactStore struct {
	mu    sync.RWMutex
	facts []*Fact
}

// NewFactStore returns an empty fact store.
func NewFactStore() *FactStore {
	return &FactStore{}
}

// ReconcileResult says what Reconcile did with a candidate.
type ReconcileResult int

const (
	FactAdded ReconcileResult = iota
	FactReinforced
	FactContradicted
)

// Reconcile merges a freshly extracted candidate into the store.
//
// Matching is on (subject, predicate) with case-insensitive subject and
// object comparison. A matching object reinforces the existing fact; a
// different object contradicts it: the old fact is marked superseded and the
// candidate is appended as the new active fact.
func (s *FactStore) Reconcile(candidate *Fact) (*Fact, ReconcileResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.facts {
		if existing.Contradicted {
			continue
		}
		if !strings.EqualFold(existing.Subject, candidate.Subject) || existing.Predicate != candidate.Predicate {
			continue
		}

		if strings.EqualFold(existing.Object, candidate.Object) {
			existing.ReinforceCount++
			existing.LastReinforcedAt = time.Now()
			existing.SourceMemoryIDs = appendUnique(existing.SourceMemoryIDs, candidate.SourceMemoryIDs)
			return existing, FactReinforced
		}

		existing.Contradicted = true
		existing.ContradictedBy = candidate.ID
		s.facts = append(s.facts, candidate)
		return candidate, FactContradicted
	}

	s.facts = append(s.facts, candidate)
	return candidate, FactAdded
}

// Active returns a snapshot of all non-contradicted facts.
func (s *FactStore) Active() []*Fact {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Fact
	for _, f := range s.facts {
		if !f.Contradicted {
			c := *f
			out = append(out, &c)
		}
	}
	return out
}

// All returns a snapshot of every fact, contradicted ones included.
func (s *FactStore) All() []*Fact {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Fact, 0, len(s.facts))
	for _, f := range s.facts {
		c := *f
		out = append(out, &c)
	}
	return out
}

// ByCategory returns active facts whose predicate maps to the given category.
func (s *FactStore) ByCategory(category string) []*Fact {
	var out []*Fact
	for _, f := range s.Active() {
		if f.Category() == category {
			out = append(out, f)
		}
	}
	return out
}

// Summary renders the top-n active facts by confidence as bullet lines for
// prompt injection. Empty when nothing is known.
func (s *FactStore) Summary(n int, now time.Time) string {
	facts := s.TopByConfidence(n, now)
	if len(facts) == 0 {
		return ""
	}

	var b strings.Builder
	for _, f := range facts {
		fmt.Fprintf(&b, "- %s (confidence %.0f%%)\n", f.Sentence(), f.Confidence(now)*100)
	}
	return b.String()
}

// TopByConfidence returns the n most confident active facts, best first.
func (s *FactStore) TopByConfidence(n int, now time.Time) []*Fact {
	facts := s.Active()
	sort.Slice(facts, func(i, j int) bool {
		return facts[i].Confidence(now) > facts[j].Confidence(now)
	})
	if n > 0 && len(facts) > n {
		facts = facts[:n]
	}
	return facts
}

// Count returns active and total fact counts.
func (s *FactStore) Count() (active, total int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, f := range s.facts {
		if !f.Contradicted {
			active++
		}
	}
	return active, len(s.facts)
}

// Replace swaps in a loaded collection, used when restoring a snapshot.
func (s *FactStore) Replace(facts []*Fact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.facts = facts
}

// Clear drops every fact.
func (s *FactStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.facts = nil
}

func appendUnique(dst, src []string) []string {
	for _, v := range src {
		found := false
		for _, d := range dst {
			if d == v {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, v)
		}
	}
	return dst
}
