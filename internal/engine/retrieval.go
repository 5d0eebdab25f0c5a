package engine

import (
	"context"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/scafell/recollect/internal/llm"
	"github.com/scafell/recollect/internal/memory"
)

// minQueryLength guards the semantic search collaborator, which is
// unreliable on trivial inputs.
const minQueryLength = 10

// Retrieved is one re-ranked retrieval hit: search relevance blended with
// the episode's decay-adjusted strength.
type Retrieved struct {
	ID        string
	Content   string
	Episode   *memory.Episodic
	Relevance float64
	Strength  float64
	Combined  float64
}

// RetrieveRelevant queries the semantic index for 2×limit candidates,
// re-scores each by combining rank relevance (linear decay, never below 0.5)
// with the originating episode's strength, and returns the top limit by
// combined score. Retrieval counts as access: each cached episode's access
// history is updated. Failures return an empty list, never an error.
func (m *Manager) RetrieveRelevant(ctx context.Context, query string, limit int) []Retrieved {
	if utf8.RuneCountInString(strings.TrimSpace(query)) < minQueryLength {
		return nil
	}
	if limit <= 0 {
		limit = m.cfg.RetrievalLimit
	}
	if limit <= 0 {
		limit = 3
	}
	if m.idx == nil {
		return nil
	}

	results, err := m.idx.Search(ctx, query, 2*limit)
	if err != nil {
		m.log.Warn("semantic search failed", zap.Error(err))
		return nil
	}
	if len(results) == 0 {
		return nil
	}

	now := time.Now()
	total := float64(len(results))
	accessed := false

	out := make([]Retrieved, 0, len(results))
	for i, r := range results {
		relevance := 1.0 - (float64(i)/total)*0.5

		episode, ok := m.episodes.Peek(r.ID)
		if ok {
			episode.RecordAccess(now)
			accessed = true
		} else {
			// Fell out of the recent cache; reconstruct a neutral
			// stand-in so ranking still has a strength term.
			episode = &memory.Episodic{
				ID:             r.ID,
				Content:        r.Content,
				Source:         memory.SourceConversation,
				Importance:     0.5,
				Valence:        memory.ValenceNeutral,
				CreatedAt:      now,
				LastAccessedAt: now,
			}
		}

		strength := episode.Strength(now)
		out = append(out, Retrieved{
			ID:        r.ID,
			Content:   r.Content,
			Episode:   episode,
			Relevance: relevance,
			Strength:  strength,
			Combined:  relevance*0.6 + strength*0.4,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Combined > out[j].Combined
	})
	if len(out) > limit {
		out = out[:limit]
	}

	if accessed {
		m.persistEpisodes()
	}
	return out
}

// Context is the assembled situational grounding for one conversational
// turn, handed to the text-generation collaborator.
type Context struct {
	Query        string   `json:"query"`
	Facts        []string `json:"facts,omitempty"`
	Instructions []string `json:"instructions,omitempty"`
	Episodes     []string `json:"episodes,omitempty"`
	History      []string `json:"history,omitempty"`
	Prompt       string   `json:"prompt"`
}

// BuildContext assembles the turn's grounding: the query becomes working
// memory's user statement, the top facts and matching procedures are written
// into both the output and working memory, and relevant episodes are
// retrieved and appended. Collaborator failures degrade to partial context;
// this never fails a turn. It is a pure function of current store state.
func (m *Manager) BuildContext(ctx context.Context, query string) *Context {
	now := time.Now()
	out := &Context{Query: query}

	m.working.SetUserStatement(query)

	topFacts := m.cfg.ContextFacts
	if topFacts <= 0 {
		topFacts = 5
	}
	for _, f := range m.facts.TopByConfidence(topFacts, now) {
		out.Facts = append(out.Facts, f.Sentence())
		m.working.AddFact(f, 1.0, now)
	}

	for _, p := range m.procedures.Matching(query) {
		out.Instructions = append(out.Instructions, p.Instruction())
		m.working.AddRule(p, 1.0, now)
	}

	for _, r := range m.RetrieveRelevant(ctx, query, m.cfg.RetrievalLimit) {
		out.Episodes = append(out.Episodes, r.Content)
		m.working.AddEpisode(r.Episode, r.Relevance, now)
	}

	out.Prompt = m.working.BuildContextPrompt(now)
	out.History = m.working.ConversationHistory()
	return out
}

// MemoryTools describes the structured functions a generation collaborator
// may call to drive the memory system directly. Regex extraction remains the
// primary path; nothing here is load-bearing.
func (m *Manager) MemoryTools() []llm.Tool {
	return []llm.Tool{
		{
			Name:        "remember",
			Description: "Store something the user explicitly wants remembered.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"content":    map[string]any{"type": "string"},
					"importance": map[string]any{"type": "number", "minimum": 0, "maximum": 1},
				},
				"required": []string{"content"},
			},
		},
		{
			Name:        "recall",
			Description: "Search stored memories for something relevant.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{"type": "string"},
				},
				"required": []string{"query"},
			},
		},
		{
			Name:        "list_facts",
			Description: "List the known facts about the user.",
			Parameters:  map[string]any{"type": "object", "properties": map[string]any{}},
		},
	}
}

// HandleToolCall executes one of the memory tools and returns a textual
// result for the model.
func (m *Manager) HandleToolCall(ctx context.Context, call llm.ToolCall) string {
	switch call.Name {
	case "remember":
		content, _ := call.Arguments["content"].(string)
		if strings.TrimSpace(content) == "" {
			return "nothing to remember"
		}
		importance := 0.7
		if v, ok := call.Arguments["importance"].(float64); ok {
			importance = v
		}
		e := m.Remember(ctx, content, importance)
		return "remembered: " + e.Content

	case "recall":
		query, _ := call.Arguments["query"].(string)
		hits := m.RetrieveRelevant(ctx, query, 0)
		if len(hits) == 0 {
			return "no relevant memories found"
		}
		var lines []string
		for _, h := range hits {
			lines = append(lines, "- "+h.Content)
		}
		return strings.Join(lines, "\n")

	case "list_facts":
		summary := m.facts.Summary(10, time.Now())
		if summary == "" {
			return "no facts known yet"
		}
		return summary

	default:
		return "unknown tool: " + call.Name
	}
}
