package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/scafell/recollect/internal/config"
	"github.com/scafell/recollect/internal/engine"
	"github.com/scafell/recollect/internal/index"
	"github.com/scafell/recollect/internal/store"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "recollect",
	Short: "On-device memory for AI assistants",
	Long:  "Recollect gives an on-device assistant human-like memory: episodes that fade, facts that reconcile, habits that strengthen with evidence.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath(), "path to config file")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(rememberCmd)
	rootCmd.AddCommand(recallCmd)
	rootCmd.AddCommand(factsCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(clearCmd)
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "recollect.yaml"
	}
	return home + "/.recollect/config.yaml"
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}

// openManager builds the full manager stack for one-shot commands: database,
// embedder, semantic index, memory manager. The caller must Close the DB.
func openManager(cfg config.Config, logger *zap.Logger) (*engine.Manager, *store.DB, error) {
	dbPath := cfg.Database.Path
	if dbPath == "" {
		var err error
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return nil, nil, fmt.Errorf("resolve db path: %w", err)
		}
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	idx := index.NewSQLite(db, pickEmbedder(cfg, db))
	mgr := engine.New(idx, db, cfg.Memory, logger)
	return mgr, db, nil
}

// pickEmbedder prefers an Ollama embedding model when one is reachable and
// falls back to a TF-IDF embedder built from the stored documents.
func pickEmbedder(cfg config.Config, db *store.DB) index.Embedder {
	url := cfg.LLM.OllamaURL
	if url == "" {
		url = "http://localhost:11434"
	}
	model := cfg.LLM.EmbeddingModel
	if model == "" {
		model = "nomic-embed-text"
	}

	if index.ProbeOllama(url, model) {
		return index.NewOllamaEmbedder(url, model, 768)
	}

	emb, err := index.NewTFIDFEmbedder(db, 512)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: tfidf embedder init failed: %v\n", err)
		return nil
	}
	return emb
}
