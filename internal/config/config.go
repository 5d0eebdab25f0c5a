// Package config holds recollect configuration: defaults plus an optional
// YAML file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all recollect configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	LLM      LLMConfig      `yaml:"llm"`
	Memory   MemoryConfig   `yaml:"memory"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type LLMConfig struct {
	Provider       string `yaml:"provider"` // "ollama", "mock"
	Model          string `yaml:"model"`
	OllamaURL      string `yaml:"ollama_url"`
	EmbeddingModel string `yaml:"embedding_model"` // e.g. "nomic-embed-text"
	VisionModel    string `yaml:"vision_model"`    // e.g. "llava"
	WhisperURL     string `yaml:"whisper_url"`
	WhisperModel   string `yaml:"whisper_model"`
}

type MemoryConfig struct {
	MaxConversationTurns int `yaml:"max_conversation_turns"`
	MaxRecentEpisodes    int `yaml:"max_recent_episodes"`
	ContextFacts         int `yaml:"context_facts"`
	RetrievalLimit       int `yaml:"retrieval_limit"`
}

type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 38200,
		},
		Database: DatabaseConfig{
			Path: "", // resolved at runtime via store.DefaultDBPath()
		},
		LLM: LLMConfig{
			Provider:       "ollama",
			Model:          "llama3.2",
			OllamaURL:      "http://localhost:11434",
			EmbeddingModel: "nomic-embed-text",
			VisionModel:    "llava",
			WhisperURL:     "http://localhost:8580",
		},
		Memory: MemoryConfig{
			MaxConversationTurns: 10,
			MaxRecentEpisodes:    50,
			ContextFacts:         5,
			RetrievalLimit:       3,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads config from a YAML file over the defaults. A missing file is
// not an error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}
