package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scafell/recollect/internal/config"
)

func TestNewGeneratorProviders(t *testing.T) {
	gen, err := NewGenerator(config.LLMConfig{Provider: "mock"})
	require.NoError(t, err)
	assert.IsType(t, &Mock{}, gen)

	gen, err = NewGenerator(config.LLMConfig{Provider: "ollama", Model: "llama3.2"})
	require.NoError(t, err)
	assert.IsType(t, &Ollama{}, gen)

	_, err = NewGenerator(config.LLMConfig{Provider: "carrier-pigeon"})
	assert.Error(t, err)
}

func TestOllamaGenerate(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chat", r.URL.Path)
		w.Write([]byte(`{"message":{"content":"hello back"},"done":true}`))
	}))
	defer ts.Close()

	o := NewOllama(ts.URL, "llama3.2")
	resp, err := o.Generate(context.Background(), []Message{{Role: "user", Content: "hello"}}, 128)
	require.NoError(t, err)
	assert.Equal(t, "hello back", resp.Content)
	assert.Equal(t, "ollama", resp.Provider)
}

func TestOllamaGenerateWithTools(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message":{"content":"","tool_calls":[{"function":{"name":"remember","arguments":{"content":"the code"}}}]},"done":true}`))
	}))
	defer ts.Close()

	o := NewOllama(ts.URL, "llama3.2")
	resp, err := o.GenerateWithTools(context.Background(), []Message{{Role: "user", Content: "remember the code"}}, nil, 128)
	require.NoError(t, err)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "remember", resp.ToolCalls[0].Name)
	assert.Equal(t, "the code", resp.ToolCalls[0].Arguments["content"])
}

func TestOllamaGenerateServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer ts.Close()

	o := NewOllama(ts.URL, "nope")
	_, err := o.Generate(context.Background(), []Message{{Role: "user", Content: "hi"}}, 128)
	assert.Error(t, err)
}

func TestWhisperTranscribe(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/audio/transcriptions", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "whisper-1", r.FormValue("model"))
		w.Write([]byte(`{"text":" I live in Lisbon. "}`))
	}))
	defer ts.Close()

	audio := filepath.Join(t.TempDir(), "clip.wav")
	require.NoError(t, os.WriteFile(audio, []byte("RIFFfake"), 0o644))

	wh := NewWhisper(ts.URL, "whisper-1")
	text, err := wh.Transcribe(context.Background(), audio)
	require.NoError(t, err)
	assert.Equal(t, "I live in Lisbon.", text)
}

func TestWhisperMissingFile(t *testing.T) {
	wh := NewWhisper("http://localhost:1", "whisper-1")
	_, err := wh.Transcribe(context.Background(), "/does/not/exist.wav")
	assert.Error(t, err)
}

func TestMockRecordsCalls(t *testing.T) {
	m := &Mock{Response: &Response{Content: "scripted", Provider: "mock"}}

	resp, err := m.Generate(context.Background(), []Message{{Role: "user", Content: "hi"}}, 10)
	require.NoError(t, err)
	assert.Equal(t, "scripted", resp.Content)
	require.Len(t, m.Calls, 1)
	assert.Equal(t, "hi", m.Calls[0][0].Content)
}
