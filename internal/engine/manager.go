// Package engine orchestrates the memory system: ingestion, background
// fact/procedure extraction, decay-weighted retrieval, and per-turn context
// assembly. The Manager is the only writer to the memory stores.
package engine

import (
	"context"
	"strings"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/scafell/recollect/internal/config"
	"github.com/scafell/recollect/internal/extract"
	"github.com/scafell/recollect/internal/index"
	"github.com/scafell/recollect/internal/llm"
	"github.com/scafell/recollect/internal/memory"
)

// Extractor proposes candidate facts and procedures from raw text. The
// default is the regex pattern library in internal/extract; any candidate
// proposer of any quality can stand in.
type Extractor interface {
	Facts(text string) []extract.FactCandidate
	Procedures(text string) []extract.ProcedureCandidate
}

// Persistence snapshots the memory collections to durable storage. *store.DB
// is the default implementation.
type Persistence interface {
	SaveEpisodes(episodes []*memory.Episodic) error
	LoadEpisodes() ([]*memory.Episodic, error)
	SaveFacts(facts []*memory.Fact) error
	LoadFacts() ([]*memory.Fact, error)
	SaveProcedures(procedures []*memory.Procedure) error
	LoadProcedures() ([]*memory.Procedure, error)
	Clear() error
}

// Manager owns the four memory stores and every collaborator around them.
type Manager struct {
	facts      *memory.FactStore
	procedures *memory.ProcedureStore
	working    *memory.WorkingMemory
	episodes   *lru.Cache[string, *memory.Episodic]

	idx         index.Index
	persist     Persistence
	extractor   Extractor
	transcriber llm.Transcriber
	captioner   llm.Captioner

	cfg       config.MemoryConfig
	log       *zap.Logger
	sessionID string

	queue *extractionQueue
}

// Option configures optional Manager collaborators.
type Option func(*Manager)

// WithTranscriber wires the speech-to-text collaborator.
func WithTranscriber(t llm.Transcriber) Option {
	return func(m *Manager) { m.transcriber = t }
}

// WithCaptioner wires the vision captioning collaborator.
func WithCaptioner(c llm.Captioner) Option {
	return func(m *Manager) { m.captioner = c }
}

// WithExtractor swaps the candidate proposer.
func WithExtractor(e Extractor) Option {
	return func(m *Manager) { m.extractor = e }
}

// New builds a Manager, restoring persisted memory state. A corrupt or empty
// snapshot silently starts fresh.
func New(idx index.Index, persist Persistence, cfg config.MemoryConfig, logger *zap.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxRecentEpisodes <= 0 {
		cfg.MaxRecentEpisodes = 50
	}

	// The cache is add-only (lookups use Peek), so LRU eviction order
	// degenerates to FIFO.
	episodes, _ := lru.New[string, *memory.Episodic](cfg.MaxRecentEpisodes)

	m := &Manager{
		facts:      memory.NewFactStore(),
		procedures: memory.NewProcedureStore(),
		working:    memory.NewWorkingMemory(cfg.MaxConversationTurns),
		episodes:   episodes,
		idx:        idx,
		persist:    persist,
		extractor:  extract.NewPatterns(),
		cfg:        cfg,
		log:        logger,
		sessionID:  uuid.NewString(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.queue = newExtractionQueue(m.processExtraction, logger)

	m.restore()
	return m
}

// restore loads persisted collections. Failures mean fresh state, never a
// startup error.
func (m *Manager) restore() {
	if m.persist == nil {
		return
	}

	if episodes, err := m.persist.LoadEpisodes(); err != nil {
		m.log.Warn("load episodes failed, starting empty", zap.Error(err))
	} else {
		for _, e := range episodes {
			m.episodes.Add(e.ID, e)
		}
	}

	if facts, err := m.persist.LoadFacts(); err != nil {
		m.log.Warn("load facts failed, starting empty", zap.Error(err))
	} else if len(facts) > 0 {
		m.facts.Replace(facts)
	}

	if procedures, err := m.persist.LoadProcedures(); err != nil {
		m.log.Warn("load procedures failed, starting empty", zap.Error(err))
	} else if len(procedures) > 0 {
		m.procedures.Replace(procedures)
	}
}

// StoreEpisodic ingests a remembered event: persists it to the semantic
// index, caches it, snapshots the cache, and queues background extraction.
func (m *Manager) StoreEpisodic(ctx context.Context, content string, source memory.Source, importance float64, valence memory.Valence, tags []string) *memory.Episodic {
	e := memory.NewEpisodic(content, source, importance, valence, tags)

	if m.idx != nil {
		if err := m.idx.Store(ctx, e.ID, content); err != nil {
			m.log.Warn("index store failed", zap.String("id", e.ID), zap.Error(err))
		}
	}

	m.episodes.Add(e.ID, e)
	m.persistEpisodes()

	m.queue.enqueue(extractionTask{text: content, memoryID: e.ID})

	m.log.Debug("stored episodic memory",
		zap.String("id", e.ID),
		zap.String("source", string(source)),
		zap.Float64("importance", importance))
	return e
}

// Importance and valence cue lists for conversation assessment.
var (
	importantCues  = []string{"remember", "important", "always", "never"}
	disclosureCues = []string{"my name", "i am", "i work", "i live"}
	positiveCues   = []string{"love", "great", "happy", "excited", "wonderful", "thank"}
	negativeCues   = []string{"hate", "sad", "angry", "terrible", "worried", "upset"}
)

// StoreConversation ingests one exchange: assesses importance and emotional
// valence from the user's message, stores the combined turn as an episodic
// memory, and pushes both halves into working memory's dialogue history.
func (m *Manager) StoreConversation(ctx context.Context, userMsg, assistantMsg string) *memory.Episodic {
	lowered := strings.ToLower(userMsg)

	importance := 0.5
	switch {
	case containsAny(lowered, importantCues):
		importance = 0.8
	case containsAny(lowered, disclosureCues):
		importance = 0.7
	}

	valence := memory.ValenceNeutral
	switch {
	case containsAny(lowered, positiveCues):
		valence = memory.ValencePositive
	case containsAny(lowered, negativeCues):
		valence = memory.ValenceNegative
	}

	content := "User: " + userMsg + "\nAssistant: " + assistantMsg
	e := m.StoreEpisodic(ctx, content, memory.SourceConversation, importance, valence, nil)

	m.working.AddConversationTurn("User", userMsg)
	m.working.AddConversationTurn("Assistant", assistantMsg)
	return e
}

// IngestVoice transcribes recorded audio and stores the transcript.
func (m *Manager) IngestVoice(ctx context.Context, audioPath string) (*memory.Episodic, error) {
	if m.transcriber == nil {
		m.log.Warn("voice ingestion skipped, no transcriber configured")
		return nil, nil
	}
	text, err := m.transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		m.log.Warn("transcription failed", zap.String("path", audioPath), zap.Error(err))
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	return m.StoreEpisodic(ctx, text, memory.SourceVoice, 0.6, memory.ValenceNeutral, nil), nil
}

// IngestPhoto captions an image and stores the description.
func (m *Manager) IngestPhoto(ctx context.Context, imagePath string) (*memory.Episodic, error) {
	if m.captioner == nil {
		m.log.Warn("photo ingestion skipped, no captioner configured")
		return nil, nil
	}
	caption, err := m.captioner.Caption(ctx, imagePath)
	if err != nil {
		m.log.Warn("captioning failed", zap.String("path", imagePath), zap.Error(err))
		return nil, err
	}
	if strings.TrimSpace(caption) == "" {
		return nil, nil
	}
	return m.StoreEpisodic(ctx, "Photo: "+caption, memory.SourcePhoto, 0.5, memory.ValenceNeutral, nil), nil
}

// Remember stores content the user explicitly asked to keep.
func (m *Manager) Remember(ctx context.Context, content string, importance float64) *memory.Episodic {
	return m.StoreEpisodic(ctx, content, memory.SourceExplicit, importance, memory.ValenceNeutral, nil)
}

// Facts returns a snapshot of all active facts.
func (m *Manager) Facts() []*memory.Fact {
	return m.facts.Active()
}

// FactsByCategory returns active facts in the given category.
func (m *Manager) FactsByCategory(category string) []*memory.Fact {
	return m.facts.ByCategory(category)
}

// Procedures returns a snapshot of all learned procedures.
func (m *Manager) Procedures() []*memory.Procedure {
	return m.procedures.All()
}

// WorkingMemory exposes the attention window for dialogue history reads.
func (m *Manager) WorkingMemory() *memory.WorkingMemory {
	return m.working
}

// Flush blocks until all queued extraction work has drained. Used by tests
// and shutdown.
func (m *Manager) Flush() {
	m.queue.flush()
}

// Stats summarizes the memory system.
type Stats struct {
	SessionID      string `json:"session_id"`
	RecentEpisodes int    `json:"recent_episodes"`
	ActiveFacts    int    `json:"active_facts"`
	TotalFacts     int    `json:"total_facts"`
	Procedures     int    `json:"procedures"`
	WorkingSlots   int    `json:"working_slots"`
	PendingExtract int    `json:"pending_extractions"`
}

// Statistics reports current store sizes.
func (m *Manager) Statistics() Stats {
	active, total := m.facts.Count()
	slots, _ := m.working.SlotCount()
	return Stats{
		SessionID:      m.sessionID,
		RecentEpisodes: m.episodes.Len(),
		ActiveFacts:    active,
		TotalFacts:     total,
		Procedures:     m.procedures.Count(),
		WorkingSlots:   slots,
		PendingExtract: m.queue.pending(),
	}
}

// ClearHistory resets the session's working memory without forgetting
// long-term facts, procedures, or episodes.
func (m *Manager) ClearHistory() {
	m.working.Clear()
	m.sessionID = uuid.NewString()
}

// ClearAll wipes every store and the persistence layer.
func (m *Manager) ClearAll() {
	m.facts.Clear()
	m.procedures.Clear()
	m.working.Clear()
	m.episodes.Purge()
	if m.persist != nil {
		if err := m.persist.Clear(); err != nil {
			m.log.Warn("persistence clear failed", zap.Error(err))
		}
	}
	m.sessionID = uuid.NewString()
}

// processExtraction is the queue drain callback: propose candidates from the
// task's text and reconcile them into the fact and procedure stores, then
// snapshot both.
func (m *Manager) processExtraction(task extractionTask) {
	if m.extractor == nil {
		return
	}

	reconciled := 0
	for _, c := range m.extractor.Facts(task.text) {
		f := memory.NewFact("User", c.Predicate, c.Object, task.memoryID)
		_, result := m.facts.Reconcile(f)
		reconciled++
		m.log.Debug("fact reconciled",
			zap.String("predicate", c.Predicate),
			zap.String("object", c.Object),
			zap.Int("result", int(result)))
	}

	for _, c := range m.extractor.Procedures(task.text) {
		p := memory.NewProcedure(memory.ProcedureType(c.Type), c.Description, c.Condition, c.Action, task.memoryID)
		m.procedures.Reconcile(p)
		reconciled++
	}

	if reconciled > 0 {
		m.persistFacts()
		m.persistProcedures()
	}
}

func (m *Manager) persistEpisodes() {
	if m.persist == nil {
		return
	}
	cached := m.episodes.Values()
	episodes := make([]*memory.Episodic, 0, len(cached))
	for _, e := range cached {
		episodes = append(episodes, e.Snapshot())
	}
	if err := m.persist.SaveEpisodes(episodes); err != nil {
		m.log.Warn("persist episodes failed", zap.Error(err))
	}
}

func (m *Manager) persistFacts() {
	if m.persist == nil {
		return
	}
	if err := m.persist.SaveFacts(m.facts.All()); err != nil {
		m.log.Warn("persist facts failed", zap.Error(err))
	}
}

func (m *Manager) persistProcedures() {
	if m.persist == nil {
		return
	}
	if err := m.persist.SaveProcedures(m.procedures.All()); err != nil {
		m.log.Warn("persist procedures failed", zap.Error(err))
	}
}

func containsAny(s string, cues []string) bool {
	for _, cue := range cues {
		if strings.Contains(s, cue) {
			return true
		}
	}
	return false
}
