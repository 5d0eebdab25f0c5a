package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/scafell/recollect/internal/config"
	"github.com/scafell/recollect/internal/engine"
	"github.com/scafell/recollect/internal/index"
	"github.com/scafell/recollect/internal/llm"
	"github.com/scafell/recollect/internal/server"
	"github.com/scafell/recollect/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()

	dbPath := cfg.Database.Path
	if dbPath == "" {
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return fmt.Errorf("resolve db path: %w", err)
		}
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	embedder := pickEmbedder(cfg, db)
	idx := index.NewSQLite(db, embedder)
	if embedder != nil {
		logger.Info("embedder configured", zap.String("model", embedder.Model()))

		// Backfill vectors for any documents indexed while a different
		// embedder was active.
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			if n, err := idx.EmbedMissing(ctx); err != nil {
				logger.Warn("embed missing failed", zap.Error(err))
			} else if n > 0 {
				logger.Info("embedded missing documents", zap.Int("count", n))
			}
		}()
	}

	var opts []engine.Option
	if cfg.LLM.WhisperURL != "" {
		opts = append(opts, engine.WithTranscriber(llm.NewWhisper(cfg.LLM.WhisperURL, cfg.LLM.WhisperModel)))
	}
	if cfg.LLM.VisionModel != "" {
		opts = append(opts, engine.WithCaptioner(llm.NewOllamaVision(cfg.LLM.OllamaURL, cfg.LLM.VisionModel)))
	}

	mgr := engine.New(idx, db, cfg.Memory, logger, opts...)
	defer mgr.Flush()

	srv := server.New(mgr, VersionString())
	addr := cfg.ListenAddr()

	httpServer := &http.Server{
		Addr:    addr,
		Handler: srv,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("recollect serving", zap.String("addr", addr), zap.String("db", dbPath))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	<-done
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return httpServer.Shutdown(ctx)
}
