package memory

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"
)

// SlotType tags what occupies a working-memory slot.
type SlotType string

const (
	SlotUserStatement SlotType = "user-statement"
	SlotEpisode       SlotType = "relevant-episode"
	SlotFact          SlotType = "active-fact"
	SlotRule          SlotType = "active-rule"
	SlotTurn          SlotType = "conversation-turn"
	SlotGoal          SlotType = "goal"
)

// Working-memory constants. Capacity follows Miller's Law; activation decays
// on a seconds timescale, deliberately much faster than episodic decay.
const (
	maxWorkingSlots    = 7
	activationFloor    = 0.1
	activationHalfLife = 300.0 // seconds
	defaultMaxTurns    = 10
)

// Slot is a single attention unit: content with a decaying activation.
type Slot struct {
	ID             string    `json:"id"`
	Type           SlotType  `json:"type"`
	Content        string    `json:"content"`
	BaseActivation float64   `json:"base_activation"`
	InsertedAt     time.Time `json:"inserted_at"`
	SourceID       string    `json:"source_id,omitempty"`
}

// CurrentActivation decays the base activation exponentially by wall-clock
// seconds since insertion.
func (s *Slot) CurrentActivation(now time.Time) float64 {
	elapsed := now.Sub(s.InsertedAt).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	return s.BaseActivation * math.Exp(-elapsed*math.Ln2/activationHalfLife)
}

// Active reports whether the slot is still above the attention floor.
func (s *Slot) Active(now time.Time) bool {
	return s.CurrentActivation(now) > activationFloor
}

// WorkingMemory is the bounded, fast-decaying attention window for the
// current turn. It is rebuilt from the long-term stores each turn and never
// owns persisted state.
type WorkingMemory struct {
	mu       sync.RWMutex
	slots    []*Slot
	goal     string
	topic    string
	maxTurns int
}

// NewWorkingMemory returns an empty window. maxTurns bounds conversation
// history; <=0 uses the default.
func NewWorkingMemory(maxTurns int) *WorkingMemory {
	if maxTurns <= 0 {
		maxTurns = defaultMaxTurns
	}
	return &WorkingMemory{maxTurns: maxTurns}
}

// singleSlotTypes hold at most one slot at a time; adding replaces.
var singleSlotTypes = map[SlotType]bool{
	SlotUserStatement: true,
	SlotGoal:          true,
}

// Add inserts a slot, replacing any existing slot of a single-slot type, then
// enforces the turn bound and the evictable-slot capacity.
func (w *WorkingMemory) Add(slot *Slot) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if singleSlotTypes[slot.Type] {
		w.removeTypeLocked(slot.Type)
	}
	w.slots = append(w.slots, slot)

	if slot.Type == SlotTurn {
		w.enforceTurnBoundLocked()
		return
	}
	w.enforceCapacityLocked(time.Now())
}

// SetUserStatement records what the user just said, at full activation.
func (w *WorkingMemory) SetUserStatement(text string) {
	w.Add(newSlot(SlotUserStatement, text, 1.0, ""))
}

// SetGoal records the active goal for the session.
func (w *WorkingMemory) SetGoal(goal string) {
	w.mu.Lock()
	w.goal = goal
	w.mu.Unlock()
	w.Add(newSlot(SlotGoal, goal, 0.9, ""))
}

// AddEpisode inserts a retrieved episodic memory; activation scales with
// retrieval relevance and memory strength.
func (w *WorkingMemory) AddEpisode(e *Episodic, relevance float64, now time.Time) {
	w.Add(newSlot(SlotEpisode, e.Content, relevance*e.Strength(now), e.ID))
}

// AddFact inserts an active fact; activation scales with its confidence.
func (w *WorkingMemory) AddFact(f *Fact, relevance float64, now time.Time) {
	w.Add(newSlot(SlotFact, f.Sentence(), relevance*f.Confidence(now), f.ID))
}

// AddRule inserts a matching procedure; activation scales with its current
// confidence.
func (w *WorkingMemory) AddRule(p *Procedure, relevance float64, now time.Time) {
	w.Add(newSlot(SlotRule, p.Instruction(), relevance*p.CurrentConfidence(now), p.ID))
}

// AddConversationTurn appends a dialogue turn, bounded separately from the
// general slot capacity.
func (w *WorkingMemory) AddConversationTurn(speaker, text string) {
	w.Add(newSlot(SlotTurn, speaker+": "+text, 0.8, ""))
}

// SetTopic records the current conversation topic.
func (w *WorkingMemory) SetTopic(topic string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.topic = topic
}

// Goal returns the active goal, empty if none set.
func (w *WorkingMemory) Goal() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.goal
}

// evictable slot types compete for the 7-slot capacity. User statements,
// goals, and conversation turns are protected.
func evictable(t SlotType) bool {
	return t == SlotEpisode || t == SlotFact || t == SlotRule
}

// enforceCapacityLocked evicts the lowest-activation evictable slots until at
// most maxWorkingSlots remain.
func (w *WorkingMemory) enforceCapacityLocked(now time.Time) {
	var candidates []*Slot
	for _, s := range w.slots {
		if evictable(s.Type) {
			candidates = append(candidates, s)
		}
	}
	if len(candidates) <= maxWorkingSlots {
		return
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].CurrentActivation(now) < candidates[j].CurrentActivation(now)
	})
	doomed := make(map[*Slot]bool, len(candidates)-maxWorkingSlots)
	for _, s := range candidates[:len(candidates)-maxWorkingSlots] {
		doomed[s] = true
	}

	kept := w.slots[:0]
	for _, s := range w.slots {
		if !doomed[s] {
			kept = append(kept, s)
		}
	}
	w.slots = kept
}

// enforceTurnBoundLocked evicts the oldest conversation turns once more than
// 2×maxTurns accumulate.
func (w *WorkingMemory) enforceTurnBoundLocked() {
	turns := 0
	for _, s := range w.slots {
		if s.Type == SlotTurn {
			turns++
		}
	}
	excess := turns - 2*w.maxTurns
	if excess <= 0 {
		return
	}

	kept := w.slots[:0]
	for _, s := range w.slots {
		if s.Type == SlotTurn && excess > 0 {
			excess--
			continue
		}
		kept = append(kept, s)
	}
	w.slots = kept
}

// ActiveSlots returns snapshots of slots above the activation floor.
func (w *WorkingMemory) ActiveSlots(now time.Time) []*Slot {
	w.mu.RLock()
	defer w.mu.RUnlock()

	var out []*Slot
	for _, s := range w.slots {
		if s.Active(now) {
			c := *s
			out = append(out, &c)
		}
	}
	return out
}

// Prune drops slots that have decayed below the floor. Conversation turns are
// kept; they are bounded by count, not activation.
func (w *WorkingMemory) Prune(now time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()

	kept := w.slots[:0]
	for _, s := range w.slots {
		if s.Type == SlotTurn || s.Active(now) {
			kept = append(kept, s)
		}
	}
	w.slots = kept
}

// ConversationHistory returns dialogue turns in insertion order.
func (w *WorkingMemory) ConversationHistory() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	var out []string
	for _, s := range w.slots {
		if s.Type == SlotTurn {
			out = append(out, s.Content)
		}
	}
	return out
}

// BuildContextPrompt renders the active facts, rules, and episodes into
// labeled bullet sections. Conversation turns are carried separately as raw
// dialogue history. Empty sections are omitted.
func (w *WorkingMemory) BuildContextPrompt(now time.Time) string {
	active := w.ActiveSlots(now)

	sections := []struct {
		label string
		stype SlotType
	}{
		{"Known facts about the user", SlotFact},
		{"Behavioral guidance", SlotRule},
		{"Relevant memories", SlotEpisode},
	}

	var b strings.Builder
	for _, sec := range sections {
		var lines []string
		for _, s := range active {
			if s.Type == sec.stype {
				lines = append(lines, "- "+s.Content)
			}
		}
		if len(lines) == 0 {
			continue
		}
		fmt.Fprintf(&b, "%s:\n%s\n", sec.label, strings.Join(lines, "\n"))
	}
	return strings.TrimRight(b.String(), "\n")
}

// SlotCount returns the current number of slots, evictable slots second.
func (w *WorkingMemory) SlotCount() (total, evictableCount int) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, s := range w.slots {
		if evictable(s.Type) {
			evictableCount++
		}
	}
	return len(w.slots), evictableCount
}

// Clear removes every slot and resets the goal and topic. Invoked on session
// reset.
func (w *WorkingMemory) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.slots = nil
	w.goal = ""
	w.topic = ""
}

func (w *WorkingMemory) removeTypeLocked(t SlotType) {
	kept := w.slots[:0]
	for _, s := range w.slots {
		if s.Type != t {
			kept = append(kept, s)
		}
	}
	w.slots = kept
}

func newSlot(t SlotType, content string, activation float64, sourceID string) *Slot {
	return &Slot{
		ID:             NewID(),
		Type:           t,
		Content:        content,
		BaseActivation: clamp01(activation),
		InsertedAt:     time.Now(),
		SourceID:       sourceID,
	}
}
