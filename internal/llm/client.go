// Package llm holds the model collaborators the memory engine talks to: text
// generation, speech-to-text, and vision captioning. The engine treats them
// as unreliable externals; any of them failing degrades a turn rather than
// failing it.
package llm

import (
	"context"
	"fmt"

	"github.com/scafell/recollect/internal/config"
)

// Message is a single chat turn handed to the generator.
type Message struct {
	Role    string `json:"role"` // system, user, assistant, tool
	Content string `json:"content"`
}

// Tool describes a structured function the model may invoke.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ToolCall is a function invocation requested by the model.
type ToolCall struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// Response holds the result of a generation call.
type Response struct {
	Content   string
	ToolCalls []ToolCall
	Provider  string
}

// Generator is the text-generation collaborator. Tool support is an
// affordance: implementations without it simply return no tool calls, and
// nothing in the engine's correctness depends on it.
type Generator interface {
	Generate(ctx context.Context, messages []Message, maxTokens int) (*Response, error)
	GenerateStream(ctx context.Context, messages []Message, maxTokens int, onToken func(string)) (*Response, error)
	GenerateWithTools(ctx context.Context, messages []Message, tools []Tool, maxTokens int) (*Response, error)
}

// Transcriber converts recorded speech to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// Captioner describes an image in natural language.
type Captioner interface {
	Caption(ctx context.Context, imagePath string) (string, error)
}

// NewGenerator creates a generator from config.
func NewGenerator(cfg config.LLMConfig) (Generator, error) {
	switch cfg.Provider {
	case "ollama", "":
		url := cfg.OllamaURL
		if url == "" {
			url = "http://localhost:11434"
		}
		model := cfg.Model
		if model == "" {
			model = "llama3.2"
		}
		return NewOllama(url, model), nil
	case "mock":
		return &Mock{}, nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
}
