package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTierAdvancesAtObservationThresholds(t *testing.T) {
	p := NewProcedure(ProcPreference, "short replies in the morning", "morning", "keep replies short", "")
	now := time.Now()

	require.Equal(t, Tentative, p.Tier)
	require.Equal(t, 1, p.ObservationCount)

	p.Reinforce(true, now)
	assert.Equal(t, Tentative, p.Tier, "two observations stay tentative")

	p.Reinforce(true, now)
	assert.Equal(t, Emerging, p.Tier, "third observation is emerging")

	for i := 0; i < 3; i++ {
		p.Reinforce(true, now)
	}
	assert.Equal(t, Emerging, p.Tier)

	p.Reinforce(true, now)
	assert.Equal(t, Established, p.Tier, "seventh observation is established")

	for p.ObservationCount < 15 {
		p.Reinforce(true, now)
	}
	assert.Equal(t, Certain, p.Tier, "fifteenth observation is certain")
}

func TestTierAdvancesOneLevelPerObservation(t *testing.T) {
	p := NewProcedure(ProcHabit, "walks the dog at 7am", "dog, walk", "", "")
	p.ObservationCount = 20 // past every threshold, but still tentative

	p.Reinforce(true, time.Now())
	assert.Equal(t, Emerging, p.Tier, "a single success advances at most one tier")
}

func TestTierRegressesWhenFailuresDominate(t *testing.T) {
	p := NewProcedure(ProcRule, "never schedule before 9am", "schedule, meeting", "", "")
	now := time.Now()
	p.Tier = Established
	p.SuccessCount = 2
	p.ObservationCount = 7

	p.Reinforce(false, now)
	assert.Equal(t, Established, p.Tier, "failures must exceed successes to regress")

	p.Reinforce(false, now)
	assert.Equal(t, Established, p.Tier)

	p.Reinforce(false, now)
	assert.Equal(t, Emerging, p.Tier, "one level per regression")
}

func TestTierNeverBelowTentative(t *testing.T) {
	p := NewProcedure(ProcRule, "never send drafts", "draft", "", "")
	now := time.Now()
	for i := 0; i < 10; i++ {
		p.Reinforce(false, now)
	}
	assert.Equal(t, Tentative, p.Tier)
}

func TestTierValues(t *testing.T) {
	assert.Equal(t, 0.25, Tentative.Value())
	assert.Equal(t, 0.5, Emerging.Value())
	assert.Equal(t, 0.75, Established.Value())
	assert.Equal(t, 1.0, Certain.Value())
}

func TestCurrentConfidenceDecaysWithDisuse(t *testing.T) {
	p := NewProcedure(ProcPreference, "tea over coffee", "drink", "", "")
	p.Tier = Certain
	p.SuccessCount = p.ObservationCount

	fresh := p.CurrentConfidence(p.LastObservedAt)
	stale := p.CurrentConfidence(p.LastObservedAt.Add(60 * 24 * time.Hour))
	assert.Greater(t, fresh, stale)
	assert.InDelta(t, 1.0, fresh, 0.001, "perfect record observed just now is full confidence")
}

func TestCurrentConfidenceModulatedBySuccessRate(t *testing.T) {
	now := time.Now()
	reliable := NewProcedure(ProcHabit, "gym on tuesdays", "gym", "", "")
	reliable.Tier = Established
	reliable.ObservationCount = 10
	reliable.SuccessCount = 10
	reliable.LastObservedAt = now

	shaky := NewProcedure(ProcHabit, "gym on tuesdays", "gym", "", "")
	shaky.Tier = Established
	shaky.ObservationCount = 10
	shaky.SuccessCount = 5
	shaky.LastObservedAt = now

	assert.Greater(t, reliable.CurrentConfidence(now), shaky.CurrentConfidence(now))
}

func TestMatchesContext(t *testing.T) {
	p := NewProcedure(ProcRule, "keep meetings short", "meeting, schedule, calendar", "", "")

	assert.True(t, p.MatchesContext("can you schedule something for tomorrow"))
	assert.True(t, p.MatchesContext("add it to my CALENDAR please"))
	assert.False(t, p.MatchesContext("what's the weather like"))
}

func TestMatchesContextEmptyCondition(t *testing.T) {
	p := NewProcedure(ProcSkill, "speaks French", "", "", "")
	assert.False(t, p.MatchesContext("anything at all"))
}

func TestInstructionWording(t *testing.T) {
	tests := []struct {
		ptype ProcedureType
		want  string
	}{
		{ProcPreference, "The user prefers: tea over coffee."},
		{ProcHabit, "The user habitually does this: tea over coffee."},
		{ProcPattern, "A recurring pattern with this user: tea over coffee."},
		{ProcRule, "Always follow this rule: tea over coffee."},
		{ProcSkill, "The user is capable of this: tea over coffee."},
	}
	for _, tt := range tests {
		p := NewProcedure(tt.ptype, "tea over coffee", "", "", "")
		assert.Equal(t, tt.want, p.Instruction())
	}
}

func TestProcedureReconcileReinforcesNearDuplicate(t *testing.T) {
	s := NewProcedureStore()
	first := s.Reconcile(NewProcedure(ProcPreference, "tea over coffee", "drink", "", "ev-1"))

	second := s.Reconcile(NewProcedure(ProcPreference, "tea in the afternoon", "tea", "", "ev-2"))
	assert.Same(t, first, second, "same type with overlapping description reinforces")
	assert.Equal(t, 2, first.ObservationCount)
	assert.ElementsMatch(t, []string{"ev-1", "ev-2"}, first.EvidenceIDs)
	assert.Equal(t, 1, s.Count())
}

func TestProcedureReconcileDifferentTypeAdds(t *testing.T) {
	s := NewProcedureStore()
	s.Reconcile(NewProcedure(ProcPreference, "tea over coffee", "drink", "", ""))
	s.Reconcile(NewProcedure(ProcHabit, "tea at 4pm daily", "tea", "", ""))
	assert.Equal(t, 2, s.Count())
}

func TestMatchingReturnsSnapshots(t *testing.T) {
	s := NewProcedureStore()
	s.Reconcile(NewProcedure(ProcRule, "confirm before booking", "booking, travel", "", ""))

	got := s.Matching("book my travel")
	require.Len(t, got, 1)
	got[0].Description = "mutated"

	again := s.Matching("travel")
	require.Len(t, again, 1)
	assert.Equal(t, "confirm before booking", again[0].Description)
}
