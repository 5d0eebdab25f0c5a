package memory

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func factSlot(content string, activation float64) *Slot {
	return &Slot{
		ID:             NewID(),
		Type:           SlotFact,
		Content:        content,
		BaseActivation: activation,
		InsertedAt:     time.Now(),
	}
}

func TestCapacityEvictsLowestActivation(t *testing.T) {
	w := NewWorkingMemory(0)

	// Ten facts with distinct activations. Only the seven strongest survive.
	for i := 0; i < 10; i++ {
		w.Add(factSlot(fmt.Sprintf("fact-%d", i), 0.1+float64(i)*0.09))
	}

	_, evictableCount := w.SlotCount()
	assert.Equal(t, 7, evictableCount)

	now := time.Now()
	var contents []string
	for _, s := range w.ActiveSlots(now) {
		contents = append(contents, s.Content)
	}
	assert.NotContains(t, contents, "fact-0")
	assert.NotContains(t, contents, "fact-1")
	assert.NotContains(t, contents, "fact-2")
	assert.Contains(t, contents, "fact-9")
}

func TestProtectedSlotsNeverEvicted(t *testing.T) {
	w := NewWorkingMemory(0)
	w.SetUserStatement("what did I say about Fridays?")
	w.SetGoal("plan the weekend")
	w.AddConversationTurn("User", "hello")

	for i := 0; i < 12; i++ {
		w.Add(factSlot(fmt.Sprintf("fact-%d", i), 0.9))
	}

	total, evictableCount := w.SlotCount()
	assert.Equal(t, 7, evictableCount)
	assert.Equal(t, 10, total, "user statement, goal, and turn survive the squeeze")
}

func TestSingleSlotTypesReplace(t *testing.T) {
	w := NewWorkingMemory(0)
	w.SetUserStatement("first")
	w.SetUserStatement("second")
	w.SetGoal("goal one")
	w.SetGoal("goal two")

	now := time.Now()
	var statements, goals []string
	for _, s := range w.ActiveSlots(now) {
		switch s.Type {
		case SlotUserStatement:
			statements = append(statements, s.Content)
		case SlotGoal:
			goals = append(goals, s.Content)
		}
	}
	assert.Equal(t, []string{"second"}, statements)
	assert.Equal(t, []string{"goal two"}, goals)
	assert.Equal(t, "goal two", w.Goal())
}

func TestActivationDecaysByHalfLife(t *testing.T) {
	slot := factSlot("x", 0.8)

	assert.InDelta(t, 0.8, slot.CurrentActivation(slot.InsertedAt), 0.001)
	assert.InDelta(t, 0.4, slot.CurrentActivation(slot.InsertedAt.Add(300*time.Second)), 0.001)
	assert.InDelta(t, 0.2, slot.CurrentActivation(slot.InsertedAt.Add(600*time.Second)), 0.001)
}

func TestActiveSlotsDropBelowFloor(t *testing.T) {
	w := NewWorkingMemory(0)
	w.Add(factSlot("fading", 0.2))

	soon := time.Now().Add(10 * time.Second)
	assert.Len(t, w.ActiveSlots(soon), 1)

	// After two half-lives a 0.2 base sits at 0.05, under the floor.
	later := time.Now().Add(700 * time.Second)
	assert.Empty(t, w.ActiveSlots(later))
}

func TestPruneKeepsConversationTurns(t *testing.T) {
	w := NewWorkingMemory(0)
	w.AddConversationTurn("User", "hello")
	w.Add(factSlot("fading", 0.2))

	w.Prune(time.Now().Add(time.Hour))

	total, evictableCount := w.SlotCount()
	assert.Equal(t, 1, total)
	assert.Equal(t, 0, evictableCount)
	assert.Equal(t, []string{"User: hello"}, w.ConversationHistory())
}

func TestConversationTurnBound(t *testing.T) {
	w := NewWorkingMemory(3) // bound is 2×maxTurns = 6

	for i := 0; i < 10; i++ {
		w.AddConversationTurn("User", fmt.Sprintf("turn %d", i))
	}

	history := w.ConversationHistory()
	require.Len(t, history, 6)
	assert.Equal(t, "User: turn 4", history[0], "oldest turns evicted first")
	assert.Equal(t, "User: turn 9", history[5])
}

func TestBuildContextPromptSections(t *testing.T) {
	w := NewWorkingMemory(0)
	now := time.Now()

	fact := NewFact("User", "works_at", "Acme", "")
	w.AddFact(fact, 1.0, now)

	rule := NewProcedure(ProcRule, "no meetings before 9am", "meeting", "", "")
	rule.Tier = Certain
	w.AddRule(rule, 1.0, now)

	prompt := w.BuildContextPrompt(now)
	assert.Contains(t, prompt, "Known facts about the user:\n- User works at Acme")
	assert.Contains(t, prompt, "Behavioral guidance:\n- Always follow this rule: no meetings before 9am.")
	assert.NotContains(t, prompt, "Relevant memories", "empty sections are omitted")
}

func TestBuildContextPromptEmptyWindow(t *testing.T) {
	w := NewWorkingMemory(0)
	assert.Empty(t, w.BuildContextPrompt(time.Now()))
}

func TestClearResetsEverything(t *testing.T) {
	w := NewWorkingMemory(0)
	w.SetGoal("something")
	w.SetTopic("travel")
	w.AddConversationTurn("User", "hi")
	w.Add(factSlot("x", 0.9))

	w.Clear()

	total, _ := w.SlotCount()
	assert.Equal(t, 0, total)
	assert.Empty(t, w.Goal())
	assert.Empty(t, w.ConversationHistory())
}

func TestAddEpisodeActivationScalesWithStrength(t *testing.T) {
	w := NewWorkingMemory(0)
	now := time.Now()

	e := testEpisode(1.0)
	w.AddEpisode(e, 1.0, now)

	slots := w.ActiveSlots(now)
	require.Len(t, slots, 1)
	assert.True(t, strings.HasPrefix(slots[0].Content, "had coffee"))
	assert.InDelta(t, e.Strength(now), slots[0].BaseActivation, 0.001)
	assert.Equal(t, e.ID, slots[0].SourceID)
}
