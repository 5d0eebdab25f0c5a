package llm

import "context"

// Mock is a test double covering all three collaborator interfaces. It can
// also back a dry-run mode.
type Mock struct {
	Response   *Response
	Transcript string
	Captions   string
	Err        error
	Calls      [][]Message // records message lists sent to Generate
}

// Generate records the call and returns the scripted response.
func (m *Mock) Generate(ctx context.Context, messages []Message, maxTokens int) (*Response, error) {
	m.Calls = append(m.Calls, messages)
	if m.Response == nil && m.Err == nil {
		return &Response{Content: "", Provider: "mock"}, nil
	}
	return m.Response, m.Err
}

// GenerateStream feeds the scripted content through onToken in one chunk.
func (m *Mock) GenerateStream(ctx context.Context, messages []Message, maxTokens int, onToken func(string)) (*Response, error) {
	resp, err := m.Generate(ctx, messages, maxTokens)
	if err != nil {
		return nil, err
	}
	if onToken != nil && resp.Content != "" {
		onToken(resp.Content)
	}
	return resp, nil
}

// GenerateWithTools behaves like Generate; scripted tool calls ride along on
// the Response.
func (m *Mock) GenerateWithTools(ctx context.Context, messages []Message, tools []Tool, maxTokens int) (*Response, error) {
	return m.Generate(ctx, messages, maxTokens)
}

// Transcribe returns the scripted transcript.
func (m *Mock) Transcribe(ctx context.Context, audioPath string) (string, error) {
	return m.Transcript, m.Err
}

// Caption returns the scripted caption.
func (m *Mock) Caption(ctx context.Context, imagePath string) (string, error) {
	return m.Captions, m.Err
}
