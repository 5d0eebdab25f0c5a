package memory

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEpisode(importance float64) *Episodic {
	now := time.Now()
	return &Episodic{
		ID:             NewID(),
		Content:        "had coffee with Sam at the harbor cafe",
		Source:         SourceConversation,
		Importance:     importance,
		Valence:        ValenceNeutral,
		CreatedAt:      now,
		LastAccessedAt: now,
	}
}

func TestDecayScoreMonotoneInAge(t *testing.T) {
	e := testEpisode(0.5)

	prev := e.DecayScore(e.CreatedAt)
	for _, age := range []time.Duration{time.Hour, 6 * time.Hour, 24 * time.Hour, 72 * time.Hour, 30 * 24 * time.Hour} {
		score := e.DecayScore(e.CreatedAt.Add(age))
		assert.LessOrEqual(t, score, prev, "decay must not increase with age %v", age)
		assert.GreaterOrEqual(t, score, 0.0)
		prev = score
	}
}

func TestDecayScoreFreshMemoryIsFull(t *testing.T) {
	e := testEpisode(0.5)
	assert.InDelta(t, 1.0, e.DecayScore(e.CreatedAt), 0.001)
}

func TestDecayScoreFutureTimestampsClamp(t *testing.T) {
	e := testEpisode(0.5)
	past := e.CreatedAt.Add(-time.Hour)
	assert.InDelta(t, 1.0, e.DecayScore(past), 0.001)
}

func TestAccessSlowsDecay(t *testing.T) {
	a := testEpisode(0.5)
	b := testEpisode(0.5)
	b.CreatedAt = a.CreatedAt
	b.LastAccessedAt = a.LastAccessedAt

	later := a.CreatedAt.Add(12 * time.Hour)
	b.RecordAccess(later)
	b.RecordAccess(later)

	at := a.CreatedAt.Add(48 * time.Hour)
	assert.Greater(t, b.DecayScore(at), a.DecayScore(at),
		"accessed memory must outlast an untouched twin")
}

func TestImportanceSlowsDecay(t *testing.T) {
	low := testEpisode(0.2)
	high := testEpisode(0.9)
	high.CreatedAt = low.CreatedAt
	high.LastAccessedAt = low.LastAccessedAt

	at := low.CreatedAt.Add(48 * time.Hour)
	assert.Greater(t, high.DecayScore(at), low.DecayScore(at))
}

func TestConsolidationAdvancesAtThresholds(t *testing.T) {
	e := testEpisode(0.5)
	now := e.CreatedAt

	require.Equal(t, ShortTerm, e.State)

	e.RecordAccess(now)
	e.RecordAccess(now)
	assert.Equal(t, ShortTerm, e.State, "two accesses stay short-term")

	e.RecordAccess(now)
	assert.Equal(t, Consolidating, e.State, "third access consolidates")

	for i := 0; i < 3; i++ {
		e.RecordAccess(now)
	}
	assert.Equal(t, Consolidating, e.State, "six accesses stay consolidating")

	e.RecordAccess(now)
	assert.Equal(t, LongTerm, e.State, "seventh access is long-term")
}

func TestConsolidationNeverRegresses(t *testing.T) {
	e := testEpisode(0.5)
	now := e.CreatedAt
	for i := 0; i < 20; i++ {
		e.RecordAccess(now)
	}
	require.Equal(t, LongTerm, e.State)

	// Years later, more accesses must not move the state backwards.
	e.RecordAccess(now.Add(10000 * time.Hour))
	assert.Equal(t, LongTerm, e.State)
}

func TestConsolidationExtendsHalfLife(t *testing.T) {
	short := testEpisode(0.5)
	long := testEpisode(0.5)
	long.CreatedAt = short.CreatedAt
	long.LastAccessedAt = short.LastAccessedAt
	long.State = LongTerm

	at := short.CreatedAt.Add(72 * time.Hour)
	assert.Greater(t, long.DecayScore(at), short.DecayScore(at))
}

func TestStrengthBounds(t *testing.T) {
	e := testEpisode(1.0)
	e.Valence = ValencePositive
	e.AccessCount = 1000

	s := e.Strength(e.CreatedAt)
	assert.LessOrEqual(t, s, 1.0)
	assert.GreaterOrEqual(t, s, 0.0)
}

func TestStrengthEmotionalBonus(t *testing.T) {
	neutral := testEpisode(0.5)
	charged := testEpisode(0.5)
	charged.CreatedAt = neutral.CreatedAt
	charged.LastAccessedAt = neutral.LastAccessedAt
	charged.Valence = ValenceNegative

	now := neutral.CreatedAt
	assert.InDelta(t, 0.01, charged.Strength(now)-neutral.Strength(now), 0.001)
}

func TestRecordAccessConcurrentWithReads(t *testing.T) {
	e := testEpisode(0.5)
	now := e.CreatedAt

	const (
		goroutines = 4
		perWorker  = 100
	)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				e.RecordAccess(now)
				e.Strength(now)
				e.Snapshot()
			}
		}()
	}
	wg.Wait()

	count, state := e.AccessState()
	assert.Equal(t, goroutines*perWorker, count)
	assert.Equal(t, LongTerm, state)
}

func TestSnapshotIsDetached(t *testing.T) {
	e := testEpisode(0.5)
	e.EmotionalTags = []string{"nostalgia"}
	now := e.CreatedAt

	snap := e.Snapshot()
	e.RecordAccess(now)
	e.EmotionalTags[0] = "dread"

	assert.Equal(t, 0, snap.AccessCount)
	assert.Equal(t, []string{"nostalgia"}, snap.EmotionalTags)
}

func TestNewEpisodicClampsImportance(t *testing.T) {
	e := NewEpisodic("x", SourceNote, 1.7, ValenceNeutral, nil)
	assert.Equal(t, 1.0, e.Importance)

	e = NewEpisodic("x", SourceNote, -0.3, ValenceNeutral, nil)
	assert.Equal(t, 0.0, e.Importance)
}

func TestNewIDSortable(t *testing.T) {
	a := NewID()
	b := NewID()
	require.NotEqual(t, a, b)
	assert.Len(t, a, 26)
}
