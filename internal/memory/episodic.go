// Package memory holds the core memory representations: episodic events,
// semantic facts, procedural rules, and the working-memory attention window.
// Everything here is pure data and math, with no I/O and no collaborators.
package memory

import (
	"math"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Source tags where an episodic memory came from.
type Source string

const (
	SourceConversation Source = "conversation"
	SourceVoice        Source = "voice"
	SourcePhoto        Source = "photo"
	SourceNote         Source = "note"
	SourceExplicit     Source = "explicit"
)

// Valence is the emotional tone of a memory.
type Valence string

const (
	ValencePositive Valence = "positive"
	ValenceNeutral  Valence = "neutral"
	ValenceNegative Valence = "negative"
)

// Consolidation is the progressive decay resistance a memory gains through
// repeated access. It only ever advances.
type Consolidation int

const (
	ShortTerm Consolidation = iota
	Consolidating
	LongTerm
)

func (c Consolidation) String() string {
	switch c {
	case Consolidating:
		return "consolidating"
	case LongTerm:
		return "long-term"
	default:
		return "short-term"
	}
}

// Access-count thresholds for consolidation advancement.
const (
	consolidatingAt = 3
	longTermAt      = 7
)

// baseHalfLife is the decay half-life of an unremarkable, never-accessed
// short-term memory.
const baseHalfLife = 24 * time.Hour

// Episodic is a single remembered event. Instances are shared between the
// retrieval path and the persistence snapshotter; the mutex covers the
// access-history fields, which are the only ones mutated after creation.
type Episodic struct {
	mu sync.RWMutex

	ID             string        `json:"id"`
	Content        string        `json:"content"`
	Source         Source        `json:"source"`
	Importance     float64       `json:"importance"`
	Valence        Valence       `json:"valence"`
	EmotionalTags  []string      `json:"emotional_tags,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	LastAccessedAt time.Time     `json:"last_accessed_at"`
	AccessCount    int           `json:"access_count"`
	State          Consolidation `json:"state"`
	RehearsalCount int           `json:"rehearsal_count"`
}

// NewEpisodic creates an episodic memory timestamped now.
func NewEpisodic(content string, source Source, importance float64, valence Valence, tags []string) *Episodic {
	now := time.Now()
	return &Episodic{
		ID:             NewID(),
		Content:        content,
		Source:         source,
		Importance:     clamp01(importance),
		Valence:        valence,
		EmotionalTags:  tags,
		CreatedAt:      now,
		LastAccessedAt: now,
	}
}

// effectiveHalfLife scales the base half-life by access frequency, importance,
// and consolidation state. Frequently touched, important, consolidated
// memories take far longer to fade.
func (e *Episodic) effectiveHalfLife() time.Duration {
	accessMult := 1.0 + float64(e.AccessCount)*0.15
	importanceBonus := e.Importance * 2.0
	consolidationBonus := 1.0
	switch e.State {
	case Consolidating:
		consolidationBonus = 1.5
	case LongTerm:
		consolidationBonus = 3.0
	}
	return time.Duration(float64(baseHalfLife) * accessMult * importanceBonus * consolidationBonus)
}

// DecayScore models the Ebbinghaus forgetting curve: retention decays
// exponentially with age, weighted with a faster-moving recency term.
// Future timestamps (clock skew) count as zero elapsed time.
func (e *Episodic) DecayScore(now time.Time) float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.decayScoreLocked(now)
}

func (e *Episodic) decayScoreLocked(now time.Time) float64 {
	halfLife := e.effectiveHalfLife().Hours()
	if halfLife <= 0 {
		return 0
	}

	sinceCreation := hoursSince(e.CreatedAt, now)
	sinceAccess := hoursSince(e.LastAccessedAt, now)

	retention := math.Exp(-sinceCreation / halfLife)
	recency := math.Exp(-sinceAccess / (halfLife * 0.5))

	return math.Min(1.0, retention*0.7+recency*0.3)
}

// Strength is the composite ranking score: importance, decay, access
// frequency, and emotional salience.
func (e *Episodic) Strength(now time.Time) float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()

	accessBonus := math.Log10(float64(e.AccessCount) + 1)
	emotionalBonus := 0.0
	if e.Valence != ValenceNeutral && e.Valence != "" {
		emotionalBonus = 0.1
	}
	return math.Min(1.0, e.Importance*0.4+e.decayScoreLocked(now)*0.35+accessBonus*0.15+emotionalBonus*0.1)
}

// RecordAccess is the only mutator: it bumps the access count, refreshes the
// last-access timestamp, and advances consolidation at the 3/7 thresholds.
// Consolidation never regresses. Call exactly once per retrieval.
func (e *Episodic) RecordAccess(now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.AccessCount++
	e.LastAccessedAt = now

	switch {
	case e.State == ShortTerm && e.AccessCount >= consolidatingAt:
		e.State = Consolidating
	case e.State == Consolidating && e.AccessCount >= longTermAt:
		e.State = LongTerm
	}
}

// Snapshot returns a consistent copy safe to marshal while other goroutines
// keep recording accesses.
func (e *Episodic) Snapshot() *Episodic {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return &Episodic{
		ID:             e.ID,
		Content:        e.Content,
		Source:         e.Source,
		Importance:     e.Importance,
		Valence:        e.Valence,
		EmotionalTags:  append([]string(nil), e.EmotionalTags...),
		CreatedAt:      e.CreatedAt,
		LastAccessedAt: e.LastAccessedAt,
		AccessCount:    e.AccessCount,
		State:          e.State,
		RehearsalCount: e.RehearsalCount,
	}
}

// AccessState reports the mutable access-history fields under the lock.
func (e *Episodic) AccessState() (count int, state Consolidation) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.AccessCount, e.State
}

func hoursSince(t, now time.Time) float64 {
	h := now.Sub(t).Hours()
	if h < 0 {
		return 0
	}
	return h
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// NewID returns a lexicographically sortable identifier.
func NewID() string {
	return ulid.Make().String()
}
