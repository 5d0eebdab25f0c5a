package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// Ollama calls a local Ollama instance for generation and vision captioning.
type Ollama struct {
	url    string
	model  string
	client *http.Client
}

// NewOllama creates a new Ollama client.
func NewOllama(url, model string) *Ollama {
	return &Ollama{
		url:    url,
		model:  model,
		client: &http.Client{Timeout: 120 * time.Second},
	}
}

type ollamaChatRequest struct {
	Model    string           `json:"model"`
	Messages []ollamaMessage  `json:"messages"`
	Stream   bool             `json:"stream"`
	Tools    []map[string]any `json:"tools,omitempty"`
	Options  map[string]any   `json:"options,omitempty"`
}

type ollamaMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

type ollamaChatResponse struct {
	Message struct {
		Content   string `json:"content"`
		ToolCalls []struct {
			Function struct {
				Name      string         `json:"name"`
				Arguments map[string]any `json:"arguments"`
			} `json:"function"`
		} `json:"tool_calls"`
	} `json:"message"`
	Done bool `json:"done"`
}

// Generate sends a chat completion request.
func (o *Ollama) Generate(ctx context.Context, messages []Message, maxTokens int) (*Response, error) {
	return o.chat(ctx, messages, nil, maxTokens)
}

// GenerateWithTools sends a chat completion request advertising tools the
// model may call.
func (o *Ollama) GenerateWithTools(ctx context.Context, messages []Message, tools []Tool, maxTokens int) (*Response, error) {
	return o.chat(ctx, messages, tools, maxTokens)
}

func (o *Ollama) chat(ctx context.Context, messages []Message, tools []Tool, maxTokens int) (*Response, error) {
	req := ollamaChatRequest{
		Model:    o.model,
		Messages: toOllamaMessages(messages),
		Stream:   false,
		Options:  map[string]any{"num_predict": maxTokens},
	}
	for _, t := range tools {
		req.Tools = append(req.Tools, map[string]any{
			"type": "function",
			"function": map[string]any{
				"name":        t.Name,
				"description": t.Description,
				"parameters":  t.Parameters,
			},
		})
	}

	respBody, err := o.post(ctx, "/api/chat", req)
	if err != nil {
		return nil, err
	}

	var result ollamaChatResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("decode chat response: %w", err)
	}

	resp := &Response{Content: result.Message.Content, Provider: "ollama"}
	for _, tc := range result.Message.ToolCalls {
		resp.ToolCalls = append(resp.ToolCalls, ToolCall{
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return resp, nil
}

// GenerateStream sends a streaming chat request, invoking onToken for each
// incremental chunk, and returns the assembled response.
func (o *Ollama) GenerateStream(ctx context.Context, messages []Message, maxTokens int, onToken func(string)) (*Response, error) {
	req := ollamaChatRequest{
		Model:    o.model,
		Messages: toOllamaMessages(messages),
		Stream:   true,
		Options:  map[string]any{"num_predict": maxTokens},
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", o.url+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := o.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ollama chat api: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(httpResp.Body)
		return nil, fmt.Errorf("ollama chat status %d: %s", httpResp.StatusCode, msg)
	}

	var full strings.Builder
	scanner := bufio.NewScanner(httpResp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var chunk ollamaChatResponse
		if err := json.Unmarshal(scanner.Bytes(), &chunk); err != nil {
			continue
		}
		if chunk.Message.Content != "" {
			full.WriteString(chunk.Message.Content)
			if onToken != nil {
				onToken(chunk.Message.Content)
			}
		}
		if chunk.Done {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read chat stream: %w", err)
	}

	return &Response{Content: full.String(), Provider: "ollama"}, nil
}

// OllamaVision captions images via Ollama's generate endpoint with a
// multimodal model.
type OllamaVision struct {
	ollama *Ollama
}

// NewOllamaVision creates a captioner using the given multimodal model.
func NewOllamaVision(url, model string) *OllamaVision {
	return &OllamaVision{ollama: NewOllama(url, model)}
}

// Caption reads the image, base64-encodes it, and asks the model for a short
// description.
func (v *OllamaVision) Caption(ctx context.Context, imagePath string) (string, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}

	req := map[string]any{
		"model":  v.ollama.model,
		"prompt": "Describe this photo in one or two sentences.",
		"images": []string{base64.StdEncoding.EncodeToString(data)},
		"stream": false,
	}

	respBody, err := v.ollama.post(ctx, "/api/generate", req)
	if err != nil {
		return "", err
	}

	var result struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("decode caption response: %w", err)
	}
	return strings.TrimSpace(result.Response), nil
}

func (o *Ollama) post(ctx context.Context, path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", o.url+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama api: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama api status %d: %s", resp.StatusCode, respBody)
	}
	return respBody, nil
}

func toOllamaMessages(messages []Message) []ollamaMessage {
	out := make([]ollamaMessage, len(messages))
	for i, m := range messages {
		out[i] = ollamaMessage{Role: m.Role, Content: m.Content}
	}
	return out
}
