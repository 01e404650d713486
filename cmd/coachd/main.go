package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/coachhq/coachd/internal/api"
	"github.com/coachhq/coachd/internal/config"
	"github.com/coachhq/coachd/internal/openai"
	"github.com/coachhq/coachd/internal/pipeline"
	"github.com/coachhq/coachd/internal/session"
	"github.com/coachhq/coachd/internal/youtube"
)

func main() {
	// .env is optional; real deployments use the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("coachd starting", "port", cfg.Port)

	if cfg.OpenAIAPIKey == "" {
		slog.Error("OPENAI_API_KEY is required")
		os.Exit(1)
	}
	llm := openai.NewClient(cfg.OpenAIAPIKey, cfg.ChatModel, cfg.TranscribeModel)
	slog.Info("openai client ready", "model", cfg.ChatModel)

	sessions := session.NewManager(llm, cfg.VectorStoreID)

	source := youtube.NewClient(slog.Default())
	runner := pipeline.NewRunner(source, llm, llm, cfg.TranscriptDir, cfg.Language, slog.Default())

	srv := api.NewServer(api.Config{
		Port:           cfg.Port,
		AllowedOrigins: cfg.AllowedOrigins,
		PlaylistURL:    cfg.PlaylistURL,
		Sessions:       sessions,
		Runner:         runner,
		Logger:         slog.Default(),
	})
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("coachd ready", "port", cfg.Port)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	slog.Info("coachd stopped")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
