package memory

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"
)

// ProcedureType classifies a learned behavioral rule.
type ProcedureType string

const (
	ProcPreference ProcedureType = "preference"
	ProcHabit      ProcedureType = "habit"
	ProcPattern    ProcedureType = "pattern"
	ProcRule       ProcedureType = "rule"
	ProcSkill      ProcedureType = "skill"
)

// Tier is the discrete confidence level of a procedure. It advances through
// successful reinforcement and may regress a single level under failure.
type Tier int

const (
	Tentative Tier = iota
	Emerging
	Established
	Certain
)

func (t Tier) String() string {
	switch t {
	case Emerging:
		return "emerging"
	case Established:
		return "established"
	case Certain:
		return "certain"
	default:
		return "tentative"
	}
}

// Value is the numeric confidence anchor for the tier.
func (t Tier) Value() float64 {
	switch t {
	case Emerging:
		return 0.5
	case Established:
		return 0.75
	case Certain:
		return 1.0
	default:
		return 0.25
	}
}

// Observation-count thresholds for tier advancement.
const (
	emergingAt    = 3
	establishedAt = 7
	certainAt     = 15
)

// Procedure is a learned behavioral rule or preference.
type Procedure struct {
	ID               string        `json:"id"`
	Type             ProcedureType `json:"type"`
	Description      string        `json:"description"`
	Condition        string        `json:"condition"`
	Action           string        `json:"action"`
	LearnedAt        time.Time     `json:"learned_at"`
	EvidenceIDs      []string      `json:"evidence_ids,omitempty"`
	ObservationCount int           `json:"observation_count"`
	SuccessCount     int           `json:"success_count"`
	FailureCount     int           `json:"failure_count"`
	LastObservedAt   time.Time     `json:"last_observed_at"`
	Tier             Tier          `json:"tier"`
}

// NewProcedure creates a tentative procedure with one successful observation.
func NewProcedure(ptype ProcedureType, description, condition, action, evidenceID string) *Procedure {
	now := time.Now()
	p := &Procedure{
		ID:               NewID(),
		Type:             ptype,
		Description:      description,
		Condition:        condition,
		Action:           action,
		LearnedAt:        now,
		ObservationCount: 1,
		SuccessCount:     1,
		LastObservedAt:   now,
	}
	if evidenceID != "" {
		p.EvidenceIDs = []string{evidenceID}
	}
	return p
}

// Reinforce records an observation. Successes can advance the tier once the
// observation count crosses 3/7/15; failures exceeding successes regress it
// one level, never below tentative.
func (p *Procedure) Reinforce(success bool, now time.Time) {
	p.ObservationCount++
	p.LastObservedAt = now

	if success {
		p.SuccessCount++
		switch {
		case p.Tier == Tentative && p.ObservationCount >= emergingAt:
			p.Tier = Emerging
		case p.Tier == Emerging && p.ObservationCount >= establishedAt:
			p.Tier = Established
		case p.Tier == Established && p.ObservationCount >= certainAt:
			p.Tier = Certain
		}
		return
	}

	p.FailureCount++
	if p.FailureCount > p.SuccessCount && p.Tier > Tentative {
		p.Tier--
	}
}

// Reliability is the historical success ratio, 0.5 when unobserved.
func (p *Procedure) Reliability() float64 {
	total := p.SuccessCount + p.FailureCount
	if total == 0 {
		return 0.5
	}
	return float64(p.SuccessCount) / float64(total)
}

// CurrentConfidence decays the tier value by time since last observation,
// modulated by the success ratio.
func (p *Procedure) CurrentConfidence(now time.Time) float64 {
	days := now.Sub(p.LastObservedAt).Hours() / 24.0
	if days < 0 {
		days = 0
	}
	successRate := 0.5
	if p.ObservationCount > 0 {
		successRate = float64(p.SuccessCount) / float64(p.ObservationCount)
	}
	return math.Min(1.0, p.Tier.Value()*math.Exp(-0.02*days)*(0.5+successRate*0.5))
}

// MatchesContext reports whether any condition keyword appears in the text.
// Keywords are split on whitespace and commas; matching is case-insensitive.
func (p *Procedure) MatchesContext(text string) bool {
	if p.Condition == "" {
		return false
	}
	lowered := strings.ToLower(text)
	for _, kw := range strings.FieldsFunc(strings.ToLower(p.Condition), func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == ','
	}) {
		if kw != "" && strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}

// Instruction renders the procedure as a behavioral instruction for prompt
// injection, worded per type.
func (p *Procedure) Instruction() string {
	switch p.Type {
	case ProcPreference:
		return fmt.Sprintf("The user prefers: %s.", p.Description)
	case ProcHabit:
		return fmt.Sprintf("The user habitually does this: %s.", p.Description)
	case ProcPattern:
		return fmt.Sprintf("A recurring pattern with this user: %s.", p.Description)
	case ProcRule:
		return fmt.Sprintf("Always follow this rule: %s.", p.Description)
	case ProcSkill:
		return fmt.Sprintf("The user is capable of this: %s.", p.Description)
	default:
		return p.Description + "."
	}
}

// ProcedureStore owns the procedural memory collection.
type ProcedureStore struct {
	mu         sync.RWMutex
	procedures []*Procedure
}

// NewProcedureStore returns an empty procedure store.
func NewProcedureStore() *ProcedureStore {
	return &ProcedureStore{}
}

// Reconcile merges a candidate: an existing procedure of the same type whose
// description contains the candidate's first description word is reinforced
// (a cheap near-duplicate check); otherwise the candidate is appended as new.
func (s *ProcedureStore) Reconcile(candidate *Procedure) *Procedure {
	s.mu.Lock()
	defer s.mu.Unlock()

	firstWord := ""
	if fields := strings.Fields(strings.ToLower(candidate.Description)); len(fields) > 0 {
		firstWord = fields[0]
	}

	if firstWord != "" {
		for _, existing := range s.procedures {
			if existing.Type == candidate.Type &&
				strings.Contains(strings.ToLower(existing.Description), firstWord) {
				existing.Reinforce(true, time.Now())
				existing.EvidenceIDs = appendUnique(existing.EvidenceIDs, candidate.EvidenceIDs)
				return existing
			}
		}
	}

	s.procedures = append(s.procedures, candidate)
	return candidate
}

// Matching returns snapshots of procedures whose condition keywords appear in
// the given text, most confident first by caller's sort if needed.
func (s *ProcedureStore) Matching(text string) []*Procedure {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Procedure
	for _, p := range s.procedures {
		if p.MatchesContext(text) {
			c := *p
			out = append(out, &c)
		}
	}
	return out
}

// All returns a snapshot of every procedure.
func (s *ProcedureStore) All() []*Procedure {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Procedure, 0, len(s.procedures))
	for _, p := range s.procedures {
		c := *p
		out = append(out, &c)
	}
	return out
}

// Count returns the number of stored procedures.
func (s *ProcedureStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.procedures)
}

// Replace swaps in a loaded collection, used when restoring a snapshot.
func (s *ProcedureStore) Replace(procedures []*Procedure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.procedures = procedures
}

// Clear drops every procedure.
func (s *ProcedureStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.procedures = nil
}
