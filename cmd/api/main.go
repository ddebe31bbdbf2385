package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"upload-ai/internal/ai"
	"upload-ai/internal/api"
	"upload-ai/internal/config"
	"upload-ai/internal/logger"
	"upload-ai/internal/prompt"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the server YAML config")
	envFile := flag.String("env", ".env", "optional dotenv file with provider keys")
	flag.Parse()

	ctx := context.Background()

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Failed to load %s: %v\n", *envFile, err)
		os.Exit(1)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New("api", cfg.Logging.Level)
	log.Info(ctx, "Completion provider: %s (%s)", cfg.Completion.Provider, cfg.Completion.Model)

	opts := ai.Options{
		Provider:           cfg.Completion.Provider,
		OpenAIKey:          os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:      os.Getenv("OPENAI_BASE_URL"),
		GeminiKey:          os.Getenv("GEMINI_API_KEY"),
		TranscriptionModel: cfg.Transcription.Model,
		CompletionModel:    cfg.Completion.Model,
		Language:           cfg.Transcription.Language,
	}
	transcriber, err := ai.NewTranscriber(opts, log)
	if err != nil {
		log.Error(ctx, "Failed to create transcriber: %v", err)
		os.Exit(1)
	}
	completer, err := ai.NewCompleter(ctx, opts, log)
	if err != nil {
		log.Error(ctx, "Failed to create completer: %v", err)
		os.Exit(1)
	}

	srv := api.New(
		api.Config{MaxUploadBytes: cfg.Upload.MaxBytes},
		api.NewMemoryRepository(),
		transcriber,
		completer,
		prompt.NewCatalog(cfg.Prompts...),
		log,
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start(cfg.Server.Addr)
	}()

	select {
	case <-sigChan:
		log.Info(ctx, "Shutdown signal received")
	case err := <-errChan:
		if err != nil {
			log.Error(ctx, "Server error: %v", err)
			os.Exit(1)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "Graceful shutdown failed: %v", err)
	}
	log.Info(ctx, "HTTP server stopped")
}

// loadConfig reads path, falling back to defaults when the file is absent.
func loadConfig(path string) (*config.ServerConfig, error) {
	cfg, err := config.LoadServer(path)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	cfg = &config.ServerConfig{}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
