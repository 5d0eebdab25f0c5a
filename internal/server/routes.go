package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/scafell/recollect/internal/memory"
)

func (s *Server) handleConversation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserMessage      string `json:"user_message"`
		AssistantMessage string `json:"assistant_message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.UserMessage == "" {
		writeError(w, http.StatusBadRequest, "user_message required")
		return
	}

	episode := s.manager.StoreConversation(r.Context(), req.UserMessage, req.AssistantMessage)
	writeJSON(w, http.StatusCreated, map[string]any{
		"memory_id":  episode.ID,
		"importance": episode.Importance,
		"valence":    episode.Valence,
	})
}

func (s *Server) handleVoice(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AudioPath string `json:"audio_path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.AudioPath == "" {
		writeError(w, http.StatusBadRequest, "audio_path required")
		return
	}

	episode, err := s.manager.IngestVoice(r.Context(), req.AudioPath)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	if episode == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "empty transcript"})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"memory_id": episode.ID,
		"content":   episode.Content,
	})
}

func (s *Server) handlePhoto(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ImagePath string `json:"image_path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.ImagePath == "" {
		writeError(w, http.StatusBadRequest, "image_path required")
		return
	}

	episode, err := s.manager.IngestPhoto(r.Context(), req.ImagePath)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	if episode == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "empty caption"})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"memory_id": episode.ID,
		"content":   episode.Content,
	})
}

func (s *Server) handleRemember(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content    string  `json:"content"`
		Importance float64 `json:"importance"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "content required")
		return
	}
	if req.Importance <= 0 || req.Importance > 1 {
		req.Importance = 0.7
	}

	episode := s.manager.Remember(r.Context(), req.Content, req.Importance)
	writeJSON(w, http.StatusCreated, map[string]any{"memory_id": episode.ID})
}

func (s *Server) handleContext(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "q required")
		return
	}
	writeJSON(w, http.StatusOK, s.manager.BuildContext(r.Context(), query))
}

func (s *Server) handleRecall(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "q required")
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}

	hits := s.manager.RetrieveRelevant(r.Context(), query, limit)
	type recallHit struct {
		ID        string  `json:"id"`
		Content   string  `json:"content"`
		Relevance float64 `json:"relevance"`
		Strength  float64 `json:"strength"`
		Score     float64 `json:"score"`
	}
	out := make([]recallHit, 0, len(hits))
	for _, h := range hits {
		out = append(out, recallHit{
			ID:        h.ID,
			Content:   h.Content,
			Relevance: h.Relevance,
			Strength:  h.Strength,
			Score:     h.Combined,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": out})
}

func (s *Server) handleFacts(w http.ResponseWriter, r *http.Request) {
	var facts []*memory.Fact
	if category := r.URL.Query().Get("category"); category != "" {
		facts = s.manager.FactsByCategory(category)
	} else {
		facts = s.manager.Facts()
	}

	now := time.Now()
	type factOut struct {
		Subject    string  `json:"subject"`
		Predicate  string  `json:"predicate"`
		Object     string  `json:"object"`
		Category   string  `json:"category"`
		Confidence float64 `json:"confidence"`
		Reinforced int     `json:"reinforce_count"`
	}
	out := make([]factOut, 0, len(facts))
	for _, f := range facts {
		out = append(out, factOut{
			Subject:    f.Subject,
			Predicate:  f.Predicate,
			Object:     f.Object,
			Category:   f.Category(),
			Confidence: f.Confidence(now),
			Reinforced: f.ReinforceCount,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"facts": out})
}

func (s *Server) handleProcedures(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	type procOut struct {
		Type        string  `json:"type"`
		Description string  `json:"description"`
		Tier        string  `json:"tier"`
		Confidence  float64 `json:"confidence"`
		Observed    int     `json:"observation_count"`
	}
	procs := s.manager.Procedures()
	out := make([]procOut, 0, len(procs))
	for _, p := range procs {
		out = append(out, procOut{
			Type:        string(p.Type),
			Description: p.Description,
			Tier:        p.Tier.String(),
			Confidence:  p.CurrentConfidence(now),
			Observed:    p.ObservationCount,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"procedures": out})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.manager.Statistics())
}

func (s *Server) handleClearSession(w http.ResponseWriter, r *http.Request) {
	s.manager.ClearHistory()
	writeJSON(w, http.StatusOK, map[string]string{"status": "session cleared"})
}

func (s *Server) handleClearAll(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Confirm bool `json:"confirm"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !req.Confirm {
		writeError(w, http.StatusBadRequest, "confirm required")
		return
	}
	s.manager.ClearAll()
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}
